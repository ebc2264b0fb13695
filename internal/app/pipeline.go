package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/quantmind-br/cargomirror-go/internal/assets"
	"github.com/quantmind-br/cargomirror-go/internal/cargo"
	"github.com/quantmind-br/cargomirror-go/internal/config"
	"github.com/quantmind-br/cargomirror-go/internal/domain"
	"github.com/quantmind-br/cargomirror-go/internal/download"
	"github.com/quantmind-br/cargomirror-go/internal/extract"
	"github.com/quantmind-br/cargomirror-go/internal/fetcher"
	"github.com/quantmind-br/cargomirror-go/internal/output"
	"github.com/quantmind-br/cargomirror-go/internal/routes"
	"github.com/quantmind-br/cargomirror-go/internal/sources"
	"github.com/quantmind-br/cargomirror-go/internal/utils"
)

// Commands that produce each stage's input, named in missing input errors
const (
	RemedyExtract = "cargomirror extract"
	RemedyAssets  = "cargomirror assets"
)

// Pipeline runs the mirror stages. Each stage reads the previous stage's
// artifact from disk unless it is handed the value directly.
type Pipeline struct {
	runID  string
	config *config.Config
	deps   *Dependencies
	logger *utils.Logger
	opts   PipelineOptions
}

// PipelineOptions contains options for creating a pipeline
type PipelineOptions struct {
	domain.CommonOptions
	Config *config.Config
	// Fetcher replaces the network client, mainly in tests.
	Fetcher domain.Fetcher
	// LogOutput overrides the log destination (stderr by default).
	LogOutput io.Writer
	// ShowProgress renders a progress bar while downloading.
	ShowProgress bool
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(opts PipelineOptions) (*Pipeline, error) {
	cfg := opts.Config

	// Validate config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Create logger
	logLevel := config.DefaultLogLevel
	logFormat := config.DefaultLogFormat
	if cfg.Logging.Level != "" {
		logLevel = cfg.Logging.Level
	}
	if cfg.Logging.Format != "" {
		logFormat = cfg.Logging.Format
	}
	if opts.Verbose {
		logLevel = "debug"
	}

	runID := uuid.NewString()
	logger := utils.NewLogger(utils.LoggerOptions{
		Level:   logLevel,
		Format:  logFormat,
		Output:  opts.LogOutput,
		Verbose: opts.Verbose,
	}).WithRunID(runID)

	deps, err := NewDependencies(DependencyOptions{
		CommonOptions: opts.CommonOptions,
		Config:        cfg,
		Logger:        logger,
		Fetcher:       opts.Fetcher,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dependencies: %w", err)
	}

	return &Pipeline{
		runID:  runID,
		config: cfg,
		deps:   deps,
		logger: logger,
		opts:   opts,
	}, nil
}

// RunID identifies this pipeline in log entries
func (p *Pipeline) RunID() string {
	return p.runID
}

// Logger returns the pipeline logger
func (p *Pipeline) Logger() *utils.Logger {
	return p.logger
}

// Extract resolves the export documents, builds the canonical state and
// writes it to the state path.
func (p *Pipeline) Extract(ctx context.Context, req sources.Request) (*cargo.State, error) {
	if req.SourcesFile == "" {
		req.SourcesFile = p.config.Extract.SourcesFile
	}
	if len(req.Defaults) == 0 {
		req.Defaults = p.config.Extract.Sources
	}

	sel, err := sources.Resolve(sources.NewLoader(), req)
	if err != nil {
		return nil, err
	}

	opts := extract.Options{
		Routing: extract.Routing{
			HomepageSetID: p.config.Extract.HomepageSetID,
			BioSetID:      p.config.Extract.BioSetID,
			BioSetSlug:    p.config.Extract.BioSetSlug,
			BioPageSlugs:  p.config.Extract.BioPageSlugs,
		},
		FallbackURL: p.config.Extract.FallbackURL,
		Explicit:    sel.Explicit,
	}
	if sel.FallbackURL != "" {
		opts.FallbackURL = sel.FallbackURL
	}

	p.logger.Info().
		Int("sources", len(sel.Sources)).
		Bool("explicit", sel.Explicit).
		Msg("Starting state extraction")

	state, _, err := extract.NewExtractor(p.deps.Fetcher, p.logger, opts).Run(ctx, sel.Sources)
	if err != nil {
		return nil, err
	}

	if err := p.write(p.config.Paths.State, state); err != nil {
		return nil, err
	}
	return state, nil
}

// BuildAssets derives the asset manifest. A nil state is read from the
// state path.
func (p *Pipeline) BuildAssets(ctx context.Context, state *cargo.State) (*assets.Manifest, error) {
	if state == nil {
		var err error
		if state, err = p.loadState(); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	manifest := assets.NewBuilder(p.config.Paths.AssetsDir, p.logger).Build(state)
	if err := p.write(p.config.Paths.AssetsManifest, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

// Download mirrors every manifest entry and writes the download report. A
// nil manifest is read from the asset manifest path. In dry run mode
// nothing is fetched and the report is nil.
//
// The report is returned even when some downloads failed; the error then
// wraps domain.ErrDownloadsFailed.
func (p *Pipeline) Download(ctx context.Context, manifest *assets.Manifest) (*download.Report, error) {
	if manifest == nil {
		var err error
		if manifest, err = p.loadAssetManifest(); err != nil {
			return nil, err
		}
	}

	if p.opts.DryRun {
		p.logger.Info().
			Int("assets", len(manifest.Assets)).
			Msg("Dry run: skipping downloads")
		return nil, nil
	}

	downloader := download.NewDownloader(p.deps.Fetcher, p.logger, download.Options{
		Concurrency: p.config.Download.Concurrency,
		Retry: fetcher.RetrierOptions{
			MaxAttempts: p.config.Download.MaxRetries,
			Delay:       p.config.Download.RetryDelay,
		},
		RootDir:      ".",
		ShowProgress: p.opts.ShowProgress,
	})

	report, err := downloader.Run(ctx, manifest)
	if report != nil {
		if writeErr := p.write(p.config.Paths.DownloadReport, report); writeErr != nil {
			return report, writeErr
		}
	}
	if err != nil {
		return report, err
	}
	return report, report.Err()
}

// NormalizeRoutes derives the route manifest. A nil state is read from the
// state path. A nil manifest is read from the asset manifest path when that
// file exists; without one, media descriptors carry no local URLs.
func (p *Pipeline) NormalizeRoutes(ctx context.Context, state *cargo.State, manifest *assets.Manifest) (*routes.Manifest, error) {
	if state == nil {
		var err error
		if state, err = p.loadState(); err != nil {
			return nil, err
		}
	}
	if manifest == nil && output.Exists(p.config.Paths.AssetsManifest) {
		loaded, err := p.loadAssetManifest()
		if err != nil {
			p.logger.Warn().Err(err).Msg("Ignoring unreadable asset manifest")
		} else {
			manifest = loaded
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalizer := routes.NewNormalizer(p.logger, routes.Options{
		HomepageFallback: p.config.Routes.HomepageFallback,
		Index:            assets.NewLocalIndex(manifest, p.config.Paths.PublicDir),
	})
	result := normalizer.Normalize(state)

	if err := p.write(p.config.Paths.RoutesManifest, result); err != nil {
		return nil, err
	}
	return result, nil
}

// RunAll runs every stage in order. Values flow between stages in memory,
// so a dry run still computes everything. Route normalization runs even
// when some downloads failed; that failure is returned afterwards.
func (p *Pipeline) RunAll(ctx context.Context, req sources.Request) error {
	startTime := time.Now()

	state, err := p.Extract(ctx, req)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	manifest, err := p.BuildAssets(ctx, state)
	if err != nil {
		return fmt.Errorf("assets: %w", err)
	}

	_, downloadErr := p.Download(ctx, manifest)
	if downloadErr != nil && !errors.Is(downloadErr, domain.ErrDownloadsFailed) {
		return fmt.Errorf("download: %w", downloadErr)
	}

	if _, err := p.NormalizeRoutes(ctx, state, manifest); err != nil {
		return fmt.Errorf("routes: %w", err)
	}

	p.logger.Info().
		Dur("duration", time.Since(startTime)).
		Bool("dry_run", p.opts.DryRun).
		Msg("Build completed")

	return downloadErr
}

// Close releases all resources held by the pipeline
func (p *Pipeline) Close() error {
	if p.deps != nil {
		return p.deps.Close()
	}
	return nil
}

func (p *Pipeline) loadState() (*cargo.State, error) {
	state := cargo.NewState(nil)
	if err := output.ReadJSON(p.config.Paths.State, RemedyExtract, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (p *Pipeline) loadAssetManifest() (*assets.Manifest, error) {
	var manifest assets.Manifest
	if err := output.ReadJSON(p.config.Paths.AssetsManifest, RemedyAssets, &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

func (p *Pipeline) write(path string, v any) error {
	if err := p.deps.Writer.WriteJSON(path, v); err != nil {
		return err
	}
	if p.deps.Writer.DryRun() {
		p.logger.Info().Str("path", path).Msg("Dry run: not writing")
		return nil
	}
	p.logger.Debug().Str("path", path).Msg("Wrote file")
	return nil
}
