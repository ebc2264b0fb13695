package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	// Path defaults
	DefaultStatePath          = "data/cargo-state.json"
	DefaultAssetsManifestPath = "data/assets.manifest.json"
	DefaultDownloadReportPath = "data/assets.download-report.json"
	DefaultRoutesManifestPath = "data/routes.manifest.json"
	DefaultAssetsDir          = "public/assets/cargo"
	DefaultPublicDir          = "public"

	// Extract defaults
	DefaultFallbackURL   = "https://xuechuntao.com/information-1"
	DefaultHomepageSetID = "K3898273367"
	DefaultBioSetID      = "D1206349348"
	DefaultBioSetSlug    = "information-1"

	// Download defaults
	DefaultConcurrency = 6
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultTimeout     = 60 * time.Second

	// Routes defaults
	DefaultHomepageFallback = "xuechun-tao"

	// Cache defaults
	DefaultCacheEnabled = false
	DefaultCacheTTL     = 24 * time.Hour

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// DefaultSources are the export documents looked for when none are named
var DefaultSources = []string{
	"exports/landing/index.html",
	"exports/information/index.html",
	"Xuechun Sophia Tao.html",
	"Information — Xuechun Sophia Tao.html",
}

// DefaultBioPageSlugs are the slugs routed to the bio set
var DefaultBioPageSlugs = []string{"information", "信息-1"}

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cargomirror"
	}
	return filepath.Join(home, ".cargomirror")
}

// CacheDir returns the cache directory path
func CacheDir() string {
	return filepath.Join(ConfigDir(), "cache")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			State:          DefaultStatePath,
			AssetsManifest: DefaultAssetsManifestPath,
			DownloadReport: DefaultDownloadReportPath,
			RoutesManifest: DefaultRoutesManifestPath,
			AssetsDir:      DefaultAssetsDir,
			PublicDir:      DefaultPublicDir,
		},
		Extract: ExtractConfig{
			Sources:       append([]string(nil), DefaultSources...),
			FallbackURL:   DefaultFallbackURL,
			HomepageSetID: DefaultHomepageSetID,
			BioSetID:      DefaultBioSetID,
			BioSetSlug:    DefaultBioSetSlug,
			BioPageSlugs:  append([]string(nil), DefaultBioPageSlugs...),
		},
		Download: DownloadConfig{
			Concurrency: DefaultConcurrency,
			MaxRetries:  DefaultMaxRetries,
			RetryDelay:  DefaultRetryDelay,
			Timeout:     DefaultTimeout,
		},
		Routes: RoutesConfig{
			HomepageFallback: DefaultHomepageFallback,
		},
		Cache: CacheConfig{
			Enabled:   DefaultCacheEnabled,
			TTL:       DefaultCacheTTL,
			Directory: CacheDir(),
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
