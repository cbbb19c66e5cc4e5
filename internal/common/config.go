// Package common provides shared utilities for PortfolioHub
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for PortfolioHub
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Quote       QuoteConfig   `toml:"quote"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the persistent cache tier configuration.
type StorageConfig struct {
	CachePath string `toml:"cache_path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Yahoo   YahooConfig   `toml:"yahoo"`
	Finnhub FinnhubConfig `toml:"finnhub"`
}

// YahooConfig holds Yahoo Finance client configuration
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// FinnhubConfig holds Finnhub API configuration
type FinnhubConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *FinnhubConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// QuoteConfig tunes the quote service, circuit breaker, and batch path.
type QuoteConfig struct {
	DefaultTTLSeconds  int  `toml:"default_ttl_seconds"`
	CacheCapacity      int  `toml:"cache_capacity"`
	PersistenceEnabled bool `toml:"persistence_enabled"`
	FailureThreshold   int  `toml:"failure_threshold"`
	CooldownSeconds    int  `toml:"cooldown_seconds"`
	MinCallIntervalMS  int  `toml:"min_call_interval_ms"`
	BatchChunkSize     int  `toml:"batch_chunk_size"`
	BatchChunkDelayMS  int  `toml:"batch_chunk_delay_ms"`
}

// DefaultTTL returns the configured default quote TTL.
func (c *QuoteConfig) DefaultTTL() time.Duration {
	if c.DefaultTTLSeconds <= 0 {
		return DefaultQuoteTTL
	}
	return time.Duration(c.DefaultTTLSeconds) * time.Second
}

// Cooldown returns the circuit-breaker cooldown window.
func (c *QuoteConfig) Cooldown() time.Duration {
	if c.CooldownSeconds <= 0 {
		return CircuitCooldown
	}
	return time.Duration(c.CooldownSeconds) * time.Second
}

// MinCallInterval returns the upstream call throttle interval.
func (c *QuoteConfig) MinCallInterval() time.Duration {
	if c.MinCallIntervalMS <= 0 {
		return MinProviderCallGap
	}
	return time.Duration(c.MinCallIntervalMS) * time.Millisecond
}

// BatchChunkPause returns the delay between batch chunks.
func (c *QuoteConfig) BatchChunkPause() time.Duration {
	if c.BatchChunkDelayMS <= 0 {
		return BatchChunkDelay
	}
	return time.Duration(c.BatchChunkDelayMS) * time.Millisecond
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			CachePath: "data/cache",
		},
		Clients: ClientsConfig{
			Yahoo: YahooConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 5,
				Timeout:   "30s",
			},
			Finnhub: FinnhubConfig{
				BaseURL:   "https://finnhub.io/api/v1",
				RateLimit: 10,
				Timeout:   "30s",
			},
		},
		Quote: QuoteConfig{
			DefaultTTLSeconds:  30,
			CacheCapacity:      DefaultCacheCapacity,
			PersistenceEnabled: true,
			FailureThreshold:   CircuitFailureLimit,
			CooldownSeconds:    60,
			MinCallIntervalMS:  500,
			BatchChunkSize:     BatchChunkSize,
			BatchChunkDelayMS:  1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PORTFOLIOHUB_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("PORTFOLIOHUB_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("PORTFOLIOHUB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("PORTFOLIOHUB_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("PORTFOLIOHUB_CACHE_PATH"); path != "" {
		config.Storage.CachePath = path
	}

	if key := os.Getenv("PORTFOLIOHUB_FINNHUB_API_KEY"); key != "" {
		config.Clients.Finnhub.APIKey = key
	}
}
