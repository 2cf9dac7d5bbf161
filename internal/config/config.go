// Package config loads geosoft settings from defaults, an optional config
// file and GEOSOFT_* environment variables, in that order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/dshills/geosoft-mcp/internal/logger"
)

// EnvPrefix prefixes every environment override, e.g. GEOSOFT_LOADER_WORKERS
const EnvPrefix = "GEOSOFT"

// Config is the full application configuration
type Config struct {
	DBPath   string        `mapstructure:"db_path"`
	CacheDir string        `mapstructure:"cache_dir"`
	Source   SourceConfig  `mapstructure:"source"`
	Loader   LoaderConfig  `mapstructure:"loader"`
	Log      LogConfig     `mapstructure:"log"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
	Watch    WatchConfig   `mapstructure:"watch"`
}

// SourceConfig configures where accessions are downloaded from
type SourceConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// LoaderConfig configures load runs
type LoaderConfig struct {
	Workers int  `mapstructure:"workers"`
	Full    bool `mapstructure:"full"`
}

// LogConfig configures the global logger
type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

// MetricsConfig configures the Prometheus endpoint; empty Addr disables it
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// WatchConfig configures the drop directory; empty Dir disables it
type WatchConfig struct {
	Dir      string        `mapstructure:"dir"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// DataDir returns ~/.geosoft, or .geosoft when the home directory is unknown
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".geosoft"
	}
	return filepath.Join(home, ".geosoft")
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	dir := DataDir()
	v.SetDefault("db_path", filepath.Join(dir, "geosoft.db"))
	v.SetDefault("cache_dir", filepath.Join(dir, "cache"))

	v.SetDefault("source.base_url", "https://ftp.ncbi.nlm.nih.gov")

	v.SetDefault("loader.workers", 4)
	v.SetDefault("loader.full", false)

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "info")

	v.SetDefault("metrics.addr", "")

	v.SetDefault("watch.dir", "")
	v.SetDefault("watch.debounce", "500ms")
}

// NewViper returns a viper instance with defaults and environment binding
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads configuration. An explicit path must exist; otherwise
// geosoft.{yaml,toml,json} is looked up in the working directory and the
// data directory, and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := NewViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	} else {
		v.SetConfigName("geosoft")
		v.AddConfigPath(".")
		v.AddConfigPath(DataDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "failed to read config file")
			}
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper unmarshals and validates configuration from v
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that defaults cannot guarantee
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	if c.CacheDir == "" {
		return errors.New("cache_dir must not be empty")
	}
	if c.Loader.Workers < 0 {
		return errors.Newf("loader.workers must be >= 0, got %d", c.Loader.Workers)
	}
	if c.Watch.Debounce < 0 {
		return errors.Newf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	return nil
}
