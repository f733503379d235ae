package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"financehistory/internal/fetcher"
)

// Config holds all configuration for the key stats service.
type Config struct {
	// ReplayBaseURL is the pywb collection root, e.g. http://host/replay/
	ReplayBaseURL string `mapstructure:"replay_base_url"`

	// Concurrency
	PoolSize              int `mapstructure:"pool_size"`
	InstrumentParallelism int `mapstructure:"instrument_parallelism"`

	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// Memoization; zero disables
	CacheExpireAfter     time.Duration `mapstructure:"cache_expire_after"`
	ListCacheExpireAfter time.Duration `mapstructure:"list_cache_expire_after"`

	// Requests per second; zero means unlimited
	ArchiveRateLimit float64 `mapstructure:"archive_rate_limit"`
	FeedRateLimit    float64 `mapstructure:"feed_rate_limit"`

	RedisEnabled  bool   `mapstructure:"redis_enabled"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	Port      int    `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ConnPoolSize returns the HTTP connection pool size for PoolSize concurrent
// fetches.
func (c *Config) ConnPoolSize() int {
	return fetcher.ConnPoolSize(c.PoolSize)
}

var envKeys = map[string]string{
	"replay_base_url":         "REPLAY_BASE_URL",
	"pool_size":               "POOL_SIZE",
	"instrument_parallelism":  "INSTRUMENT_PARALLELISM",
	"request_timeout":         "REQUEST_TIMEOUT",
	"cache_expire_after":      "CACHE_EXPIRE_AFTER",
	"list_cache_expire_after": "LIST_CACHE_EXPIRE_AFTER",
	"archive_rate_limit":      "ARCHIVE_RATE_LIMIT",
	"feed_rate_limit":         "FEED_RATE_LIMIT",
	"redis_enabled":           "REDIS_ENABLED",
	"redis_addr":              "REDIS_ADDR",
	"redis_password":          "REDIS_PASSWORD",
	"redis_db":                "REDIS_DB",
	"port":                    "PORT",
	"log_level":               "LOG_LEVEL",
	"log_format":              "LOG_FORMAT",
}

// Load reads configuration from a .env file, environment variables and an
// optional config file. Environment variables take precedence over config
// file values; a .env file never overrides variables already set.
//
// Required environment variables:
//   - REPLAY_BASE_URL
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("pool_size", 4)
	v.SetDefault("instrument_parallelism", 1)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("cache_expire_after", 0)
	v.SetDefault("list_cache_expire_after", 300*time.Second)
	v.SetDefault("archive_rate_limit", 0)
	v.SetDefault("feed_rate_limit", 0)
	v.SetDefault("redis_enabled", false)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("port", 5000)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.financehistory")

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks required and numeric fields
func (c *Config) Validate() error {
	var missing []string
	if c.ReplayBaseURL == "" {
		missing = append(missing, "REPLAY_BASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	var invalid []string
	if c.PoolSize < 1 {
		invalid = append(invalid, fmt.Sprintf("POOL_SIZE=%d", c.PoolSize))
	}
	if c.InstrumentParallelism < 1 {
		invalid = append(invalid, fmt.Sprintf("INSTRUMENT_PARALLELISM=%d", c.InstrumentParallelism))
	}
	if c.Port < 1 || c.Port > 65535 {
		invalid = append(invalid, fmt.Sprintf("PORT=%d", c.Port))
	}
	if c.CacheExpireAfter < 0 || c.ListCacheExpireAfter < 0 {
		invalid = append(invalid, "negative cache expiry")
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(invalid, ", "))
	}
	return nil
}
