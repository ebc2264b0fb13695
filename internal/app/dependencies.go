package app

import (
	"fmt"

	"github.com/quantmind-br/cargomirror-go/internal/cache"
	"github.com/quantmind-br/cargomirror-go/internal/config"
	"github.com/quantmind-br/cargomirror-go/internal/domain"
	"github.com/quantmind-br/cargomirror-go/internal/fetcher"
	"github.com/quantmind-br/cargomirror-go/internal/output"
	"github.com/quantmind-br/cargomirror-go/internal/utils"
)

// Dependencies holds the shared services used by every stage
type Dependencies struct {
	Fetcher domain.Fetcher
	Cache   domain.Cache
	Writer  *output.Writer
	Logger  *utils.Logger
}

// DependencyOptions contains options for creating dependencies
type DependencyOptions struct {
	domain.CommonOptions
	Config *config.Config
	Logger *utils.Logger
	// Fetcher replaces the network client, mainly in tests.
	Fetcher domain.Fetcher
}

// NewDependencies creates the fetcher, the optional response cache and the
// output writer.
func NewDependencies(opts DependencyOptions) (*Dependencies, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	deps := &Dependencies{
		Writer: output.NewWriter(output.WriterOptions{DryRun: opts.DryRun}),
		Logger: logger,
	}

	if opts.Fetcher != nil {
		deps.Fetcher = opts.Fetcher
		return deps, nil
	}

	// Create cache if enabled
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Directory
		if dir == "" {
			dir = config.CacheDir()
		}
		c, err := cache.NewBadgerCache(cache.Options{
			Directory:  utils.ExpandPath(dir),
			GCInterval: cache.DefaultGCInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		deps.Cache = c
	}

	client, err := fetcher.NewClient(fetcher.ClientOptions{
		Timeout:     cfg.Download.Timeout,
		EnableCache: deps.Cache != nil,
		CacheTTL:    cfg.Cache.TTL,
		Cache:       deps.Cache,
		UserAgent:   cfg.Download.UserAgent,
		ProxyURL:    cfg.Download.ProxyURL,
	})
	if err != nil {
		if deps.Cache != nil {
			deps.Cache.Close()
		}
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}
	deps.Fetcher = client

	return deps, nil
}

// Close releases all resources
func (d *Dependencies) Close() error {
	var errs []error
	if d.Fetcher != nil {
		if err := d.Fetcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
