package config

import (
	"fmt"
	"time"

	"github.com/quantmind-br/cargomirror-go/internal/utils"
)

// Config represents the application configuration
type Config struct {
	Paths    PathsConfig    `mapstructure:"paths" yaml:"paths"`
	Extract  ExtractConfig  `mapstructure:"extract" yaml:"extract"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Routes   RoutesConfig   `mapstructure:"routes" yaml:"routes"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// PathsConfig locates every pipeline artifact
type PathsConfig struct {
	State          string `mapstructure:"state" yaml:"state"`
	AssetsManifest string `mapstructure:"assets_manifest" yaml:"assets_manifest"`
	DownloadReport string `mapstructure:"download_report" yaml:"download_report"`
	RoutesManifest string `mapstructure:"routes_manifest" yaml:"routes_manifest"`
	AssetsDir      string `mapstructure:"assets_dir" yaml:"assets_dir"`
	PublicDir      string `mapstructure:"public_dir" yaml:"public_dir"`
}

// ExtractConfig contains state extraction settings
type ExtractConfig struct {
	Sources       []string `mapstructure:"sources" yaml:"sources"`
	SourcesFile   string   `mapstructure:"sources_file" yaml:"sources_file"`
	FallbackURL   string   `mapstructure:"fallback_url" yaml:"fallback_url"`
	HomepageSetID string   `mapstructure:"homepage_set_id" yaml:"homepage_set_id"`
	BioSetID      string   `mapstructure:"bio_set_id" yaml:"bio_set_id"`
	BioSetSlug    string   `mapstructure:"bio_set_slug" yaml:"bio_set_slug"`
	BioPageSlugs  []string `mapstructure:"bio_page_slugs" yaml:"bio_page_slugs"`
}

// DownloadConfig contains asset download settings
type DownloadConfig struct {
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	MaxRetries  int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent   string        `mapstructure:"user_agent" yaml:"user_agent"`
	ProxyURL    string        `mapstructure:"proxy_url" yaml:"proxy_url"`
}

// RoutesConfig contains route normalization settings
type RoutesConfig struct {
	HomepageFallback string `mapstructure:"homepage_fallback" yaml:"homepage_fallback"`
}

// CacheConfig contains settings for the response cache
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Directory string        `mapstructure:"directory" yaml:"directory"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate repairs out-of-range values with defaults. It fails only on
// values that cannot be repaired.
func (c *Config) Validate() error {
	if c.Download.Concurrency < 1 {
		c.Download.Concurrency = DefaultConcurrency
	}
	if c.Download.MaxRetries < 1 {
		c.Download.MaxRetries = DefaultMaxRetries
	}
	if c.Download.RetryDelay < 0 {
		c.Download.RetryDelay = DefaultRetryDelay
	}
	if c.Download.Timeout < time.Second {
		c.Download.Timeout = DefaultTimeout
	}
	if c.Cache.TTL < time.Minute {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Extract.HomepageSetID == "" {
		c.Extract.HomepageSetID = DefaultHomepageSetID
	}
	if c.Extract.BioSetID == "" {
		c.Extract.BioSetID = DefaultBioSetID
	}
	if len(c.Extract.BioPageSlugs) == 0 {
		c.Extract.BioPageSlugs = append([]string(nil), DefaultBioPageSlugs...)
	}
	if c.Routes.HomepageFallback == "" {
		c.Routes.HomepageFallback = DefaultHomepageFallback
	}

	defaults := Default().Paths
	for _, p := range []struct {
		value *string
		def   string
	}{
		{&c.Paths.State, defaults.State},
		{&c.Paths.AssetsManifest, defaults.AssetsManifest},
		{&c.Paths.DownloadReport, defaults.DownloadReport},
		{&c.Paths.RoutesManifest, defaults.RoutesManifest},
		{&c.Paths.AssetsDir, defaults.AssetsDir},
		{&c.Paths.PublicDir, defaults.PublicDir},
	} {
		if *p.value == "" {
			*p.value = p.def
		}
	}

	if c.Extract.FallbackURL != "" && !utils.IsHTTPURL(c.Extract.FallbackURL) {
		return fmt.Errorf("invalid extract.fallback_url %q: must be an http(s) URL", c.Extract.FallbackURL)
	}
	return nil
}
