// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig
	API       APIConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
}

// APIConfig holds remote course API settings.
type APIConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	// RetryDelay is the base for exponential backoff between attempts.
	RetryDelay time.Duration
	PageSize   int
}

// CacheConfig holds disk cache settings.
type CacheConfig struct {
	Dir string
	// Duration is how long an entry stays fresh.
	Duration time.Duration
}

// RateLimitConfig holds the sliding-window limiter settings.
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled  bool
	Endpoint string
}

// Load reads configuration from the environment, applying defaults for every
// knob. Durations accept Go syntax ("90s", "6h") or plain seconds.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("COURSEGRAB_API_URL", "https://cdn.real.discount/api/courses")
	v.SetDefault("COURSEGRAB_TIMEOUT", "10s")
	v.SetDefault("COURSEGRAB_RETRY_ATTEMPTS", 3)
	v.SetDefault("COURSEGRAB_RETRY_DELAY", "1s")
	v.SetDefault("COURSEGRAB_PAGE_SIZE", 20)
	v.SetDefault("COURSEGRAB_CACHE_DIR", "cache")
	v.SetDefault("COURSEGRAB_CACHE_DURATION", "6h")
	v.SetDefault("COURSEGRAB_RATE_MAX", 10)
	v.SetDefault("COURSEGRAB_RATE_WINDOW", "60s")
	v.SetDefault("COURSEGRAB_METRICS_ENABLED", true)
	v.SetDefault("COURSEGRAB_METRICS_ENDPOINT", "/metrics")

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
		},
		API: APIConfig{
			BaseURL:       v.GetString("COURSEGRAB_API_URL"),
			Timeout:       v.GetDuration("COURSEGRAB_TIMEOUT"),
			RetryAttempts: v.GetInt("COURSEGRAB_RETRY_ATTEMPTS"),
			RetryDelay:    v.GetDuration("COURSEGRAB_RETRY_DELAY"),
			PageSize:      v.GetInt("COURSEGRAB_PAGE_SIZE"),
		},
		Cache: CacheConfig{
			Dir:      v.GetString("COURSEGRAB_CACHE_DIR"),
			Duration: v.GetDuration("COURSEGRAB_CACHE_DURATION"),
		},
		RateLimit: RateLimitConfig{
			MaxRequests: v.GetInt("COURSEGRAB_RATE_MAX"),
			Window:      v.GetDuration("COURSEGRAB_RATE_WINDOW"),
		},
		Metrics: MetricsConfig{
			Enabled:  v.GetBool("COURSEGRAB_METRICS_ENABLED"),
			Endpoint: v.GetString("COURSEGRAB_METRICS_ENDPOINT"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.API.RetryAttempts < 1 {
		return fmt.Errorf("COURSEGRAB_RETRY_ATTEMPTS must be >= 1, got %d", c.API.RetryAttempts)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("COURSEGRAB_TIMEOUT must be positive, got %s", c.API.Timeout)
	}
	if c.API.PageSize < 1 {
		return fmt.Errorf("COURSEGRAB_PAGE_SIZE must be >= 1, got %d", c.API.PageSize)
	}
	if c.Cache.Duration <= 0 {
		return fmt.Errorf("COURSEGRAB_CACHE_DURATION must be positive, got %s", c.Cache.Duration)
	}
	if c.RateLimit.MaxRequests < 1 {
		return fmt.Errorf("COURSEGRAB_RATE_MAX must be >= 1, got %d", c.RateLimit.MaxRequests)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("COURSEGRAB_RATE_WINDOW must be positive, got %s", c.RateLimit.Window)
	}
	return nil
}
