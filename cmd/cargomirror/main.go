package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/quantmind-br/cargomirror-go/internal/app"
	"github.com/quantmind-br/cargomirror-go/internal/config"
	"github.com/quantmind-br/cargomirror-go/internal/domain"
	"github.com/quantmind-br/cargomirror-go/internal/sources"
	"github.com/quantmind-br/cargomirror-go/internal/utils"
	"github.com/quantmind-br/cargomirror-go/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	verbose     bool
	sourcesFile string
	log         *utils.Logger

	// Dependencies for testing
	loadConfig = config.Load
	httpClient = &http.Client{Timeout: 5 * time.Second}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cargomirror",
	Short: "Mirror a Cargo site export into static data",
	Long: `cargomirror turns saved Cargo site exports into a canonical state
document, mirrors every referenced media file locally and derives the
route manifest used to render the site statically.

Run the stages one at a time (extract, assets, download, routes) or all
of them with build.`,
	Version:       version.Short(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var extractCmd = &cobra.Command{
	Use:   "extract [files...]",
	Short: "Extract the canonical state from export documents",
	Long: `Parses the embedded state of every export document, merges them,
fetches the live bio page when it is missing and attaches rendered pages
the state does not know about. Files named on the command line take
precedence over --sources and the configured defaults.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, func(ctx context.Context, p *app.Pipeline) error {
			_, err := p.Extract(ctx, sources.Request{Args: args, SourcesFile: sourcesFile})
			return err
		})
	},
}

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Build the asset manifest from the extracted state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, func(ctx context.Context, p *app.Pipeline) error {
			_, err := p.BuildAssets(ctx, nil)
			return err
		})
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download every asset in the manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, func(ctx context.Context, p *app.Pipeline) error {
			_, err := p.Download(ctx, nil)
			return err
		})
	},
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Build the route manifest from the extracted state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, func(ctx context.Context, p *app.Pipeline) error {
			_, err := p.NormalizeRoutes(ctx, nil, nil)
			return err
		})
	},
}

var buildCmd = &cobra.Command{
	Use:   "build [files...]",
	Short: "Run every stage in order",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, func(ctx context.Context, p *app.Pipeline) error {
			return p.RunAll(ctx, sources.Request{Args: args, SourcesFile: sourcesFile})
		})
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.cargomirror/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().Bool("dry-run", false, "Compute every stage without writing files or downloading")

	// Download flags
	rootCmd.PersistentFlags().IntP("concurrency", "j", config.DefaultConcurrency, "Number of concurrent downloads")
	rootCmd.PersistentFlags().Int("max-retries", config.DefaultMaxRetries, "Attempts per asset before giving up")
	rootCmd.PersistentFlags().Duration("timeout", config.DefaultTimeout, "Request timeout")
	rootCmd.PersistentFlags().String("user-agent", "", "Custom User-Agent")
	rootCmd.PersistentFlags().Bool("no-progress", false, "Hide the download progress bar")

	// Cache flags
	rootCmd.PersistentFlags().Bool("no-cache", false, "Disable the response cache")

	// Bind flags to viper
	_ = viper.BindPFlag("download.concurrency", rootCmd.PersistentFlags().Lookup("concurrency"))
	_ = viper.BindPFlag("download.max_retries", rootCmd.PersistentFlags().Lookup("max-retries"))
	_ = viper.BindPFlag("download.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("download.user_agent", rootCmd.PersistentFlags().Lookup("user-agent"))

	extractCmd.Flags().StringVar(&sourcesFile, "sources", "", "YAML, JSON or TOML file listing export documents")
	buildCmd.Flags().StringVar(&sourcesFile, "sources", "", "YAML, JSON or TOML file listing export documents")

	// Add subcommands
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// newPipeline loads the configuration and applies the flags that are not
// bound to viper.
func newPipeline(cmd *cobra.Command) (*app.Pipeline, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	return app.NewPipeline(app.PipelineOptions{
		CommonOptions: domain.CommonOptions{
			Verbose: verbose,
			DryRun:  dryRun,
		},
		Config:       cfg,
		LogOutput:    cmd.ErrOrStderr(),
		ShowProgress: !noProgress && !verbose && isTerminal(cmd.ErrOrStderr()),
	})
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// runStage builds a pipeline, runs fn with a context cancelled on
// SIGINT/SIGTERM and releases the pipeline.
func runStage(cmd *cobra.Command, fn func(context.Context, *app.Pipeline) error) error {
	pipeline, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	defer pipeline.Close()
	log = pipeline.Logger()

	unlock, err := pipeline.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			log.Info().Msg("Shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return fn(ctx, pipeline)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the environment",
	Long:  "Verifies the configuration, the export documents and the directories the pipeline writes to.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Checking environment...")
		allPassed := true
		var rows [][]string

		// Check 1: Config file
		cfg, err := loadConfig()
		if err != nil {
			rows = append(rows, []string{"Config file", statusFailed, err.Error()})
			cfg = config.Default()
			allPassed = false
		} else {
			rows = append(rows, []string{"Config file", statusOK, ""})
		}

		// Check 2: Export documents
		if n := countSources(cfg); n > 0 {
			rows = append(rows, []string{"Export documents", statusOK, fmt.Sprintf("%d found", n)})
		} else {
			rows = append(rows, []string{"Export documents", statusFailed, "none found"})
			allPassed = false
		}

		// Check 3: Write permissions for the working directory
		if checkWritePermissions() {
			rows = append(rows, []string{"Write permissions", statusOK, ""})
		} else {
			rows = append(rows, []string{"Write permissions", statusFailed, "cannot write to the working directory"})
			allPassed = false
		}

		// Check 4: Fallback page
		switch {
		case cfg.Extract.FallbackURL == "":
			rows = append(rows, []string{"Fallback page", statusSkipped, "disabled"})
		case checkURL(cmd.Context(), cfg.Extract.FallbackURL):
			rows = append(rows, []string{"Fallback page", statusOK, cfg.Extract.FallbackURL})
		default:
			rows = append(rows, []string{"Fallback page", statusWarn, "unreachable, extraction will use local documents only"})
		}

		// Check 5: Cache directory
		cacheDir := cfg.Cache.Directory
		if cacheDir == "" {
			cacheDir = config.CacheDir()
		}
		cacheDir = utils.ExpandPath(cacheDir)
		switch {
		case !cfg.Cache.Enabled:
			rows = append(rows, []string{"Cache directory", statusSkipped, "cache disabled"})
		case checkCacheDir(cacheDir):
			rows = append(rows, []string{"Cache directory", statusOK, cacheDir})
		default:
			rows = append(rows, []string{"Cache directory", statusWarn, "will be created on first use"})
		}

		fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows))
		fmt.Fprintln(out)
		if allPassed {
			fmt.Fprintln(out, "All critical checks passed!")
		} else {
			fmt.Fprintln(out, "Some checks failed. Please resolve the issues above.")
		}
		return nil
	},
}

// countSources returns how many configured export documents exist
func countSources(cfg *config.Config) int {
	sel, err := sources.Resolve(sources.NewLoader(), sources.Request{
		SourcesFile: cfg.Extract.SourcesFile,
		Defaults:    cfg.Extract.Sources,
	})
	if err != nil {
		return 0
	}
	return len(sel.Sources)
}

// checkURL reports whether url answers a HEAD request without an error status
func checkURL(ctx context.Context, url string) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return false
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode < 400
}

// checkWritePermissions checks if we can write to the current directory
func checkWritePermissions() bool {
	f, err := os.CreateTemp(".", ".cargomirror_test_write_*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

// checkCacheDir checks if the cache directory exists
func checkCacheDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
	},
}
