package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Isolated viper without environment binding or config files
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(DataDir(), "geosoft.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(DataDir(), "cache"), cfg.CacheDir)
	assert.Equal(t, "https://ftp.ncbi.nlm.nih.gov", cfg.Source.BaseURL)
	assert.Equal(t, 4, cfg.Loader.Workers)
	assert.False(t, cfg.Loader.Full)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.JSON)
	assert.Empty(t, cfg.Metrics.Addr)
	assert.Empty(t, cfg.Watch.Dir)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GEOSOFT_DB_PATH", "/tmp/test.db")
	t.Setenv("GEOSOFT_LOADER_WORKERS", "8")
	t.Setenv("GEOSOFT_LOG_LEVEL", "debug")
	t.Setenv("GEOSOFT_LOG_JSON", "true")
	t.Setenv("GEOSOFT_METRICS_ADDR", ":9102")

	cfg, err := LoadWithViper(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 8, cfg.Loader.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, ":9102", cfg.Metrics.Addr)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geosoft.yaml")
	content := `
db_path: /data/geo.db
cache_dir: /data/cache
source:
  base_url: http://mirror.local
loader:
  workers: 2
  full: true
watch:
  dir: /data/drop
  debounce: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/geo.db", cfg.DBPath)
	assert.Equal(t, "/data/cache", cfg.CacheDir)
	assert.Equal(t, "http://mirror.local", cfg.Source.BaseURL)
	assert.Equal(t, 2, cfg.Loader.Workers)
	assert.True(t, cfg.Loader.Full)
	assert.Equal(t, "/data/drop", cfg.Watch.Dir)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	// Unset keys keep their defaults
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geosoft.yaml")
	require.NoError(t, os.WriteFile(path, []byte("loader:\n  workers: 2\n"), 0o644))
	t.Setenv("GEOSOFT_LOADER_WORKERS", "6")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Loader.Workers)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{DBPath: "a.db", CacheDir: "cache", Log: LogConfig{Level: "warn"}}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero workers means default", func(c *Config) { c.Loader.Workers = 0 }, false},
		{"negative workers", func(c *Config) { c.Loader.Workers = -1 }, true},
		{"empty db path", func(c *Config) { c.DBPath = "" }, true},
		{"empty cache dir", func(c *Config) { c.CacheDir = "" }, true},
		{"unknown level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
