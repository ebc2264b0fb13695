package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from file, environment, and defaults.
// It uses the global viper instance so CLI flag bindings apply.
func Load() (*Config, error) {
	return load(viper.GetViper())
}

// LoadWithViper loads configuration into a fresh viper instance and returns it
func LoadWithViper() (*Config, *viper.Viper, error) {
	v := viper.New()
	cfg, err := load(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// SetConfigName clears a file set with SetConfigFile, so the search
	// paths only apply when no file was named.
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// Environment variables (CARGOMIRROR_*)
	v.SetEnvPrefix("CARGOMIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Legacy unprefixed names are still honoured.
	_ = v.BindEnv("download.concurrency", "CARGOMIRROR_DOWNLOAD_CONCURRENCY", "DOWNLOAD_CONCURRENCY")
	_ = v.BindEnv("download.max_retries", "CARGOMIRROR_DOWNLOAD_MAX_RETRIES", "DOWNLOAD_MAX_RETRIES")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("paths.state", d.Paths.State)
	v.SetDefault("paths.assets_manifest", d.Paths.AssetsManifest)
	v.SetDefault("paths.download_report", d.Paths.DownloadReport)
	v.SetDefault("paths.routes_manifest", d.Paths.RoutesManifest)
	v.SetDefault("paths.assets_dir", d.Paths.AssetsDir)
	v.SetDefault("paths.public_dir", d.Paths.PublicDir)

	v.SetDefault("extract.sources", d.Extract.Sources)
	v.SetDefault("extract.sources_file", "")
	v.SetDefault("extract.fallback_url", d.Extract.FallbackURL)
	v.SetDefault("extract.homepage_set_id", d.Extract.HomepageSetID)
	v.SetDefault("extract.bio_set_id", d.Extract.BioSetID)
	v.SetDefault("extract.bio_set_slug", d.Extract.BioSetSlug)
	v.SetDefault("extract.bio_page_slugs", d.Extract.BioPageSlugs)

	v.SetDefault("download.concurrency", d.Download.Concurrency)
	v.SetDefault("download.max_retries", d.Download.MaxRetries)
	v.SetDefault("download.retry_delay", d.Download.RetryDelay)
	v.SetDefault("download.timeout", d.Download.Timeout)
	v.SetDefault("download.user_agent", "")
	v.SetDefault("download.proxy_url", "")

	v.SetDefault("routes.homepage_fallback", d.Routes.HomepageFallback)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.directory", d.Cache.Directory)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}
