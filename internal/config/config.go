package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the model router.
type Config struct {
	CatalogPath   string       `mapstructure:"catalog_path"`
	DefaultTokens int          `mapstructure:"default_tokens"`
	LogLevel      string       `mapstructure:"log_level"`
	CacheDir      string       `mapstructure:"cache_dir"`
	CacheTTL      string       `mapstructure:"cache_ttl"`
	NoCache       bool         `mapstructure:"no_cache"`
	VocabSize     int          `mapstructure:"vocab_size"`
	Server        ServerConfig `mapstructure:"server"`
}

// ServerConfig holds HTTP wrapper settings.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"` // requests per second, 0 disables
	Burst        int           `mapstructure:"burst"`
}

// Load reads configuration from file, environment, and defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("catalog_path", "")
	v.SetDefault("default_tokens", 1000)
	v.SetDefault("log_level", "info")
	v.SetDefault("cache_dir", defaultCacheDir())
	v.SetDefault("cache_ttl", "0s")
	v.SetDefault("no_cache", false)
	v.SetDefault("vocab_size", 10000)
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.rate_limit", 50.0)
	v.SetDefault("server.burst", 100)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/modelrouter")
	}

	// Environment variables
	v.SetEnvPrefix("MODELROUTER")
	v.AutomaticEnv()

	// Nested keys are not picked up by AutomaticEnv
	_ = v.BindEnv("server.addr", "MODELROUTER_SERVER_ADDR")
	_ = v.BindEnv("server.rate_limit", "MODELROUTER_SERVER_RATE_LIMIT")
	_ = v.BindEnv("server.burst", "MODELROUTER_SERVER_BURST")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if _, err := cfg.CacheTTLDuration(); err != nil {
		return nil, err
	}
	if cfg.DefaultTokens < 0 {
		return nil, fmt.Errorf("default_tokens must not be negative, got %d", cfg.DefaultTokens)
	}

	// Resolve catalog path to absolute
	if cfg.CatalogPath != "" && !filepath.IsAbs(cfg.CatalogPath) {
		abs, err := filepath.Abs(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("resolving catalog path: %w", err)
		}
		cfg.CatalogPath = abs
	}

	return &cfg, nil
}

// CacheTTLDuration parses CacheTTL. Zero means entries never expire.
func (c *Config) CacheTTLDuration() (time.Duration, error) {
	ttl, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("parsing cache_ttl: %w", err)
	}
	return ttl, nil
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "modelrouter-cache")
	}
	return filepath.Join(home, ".cache", "modelrouter")
}
