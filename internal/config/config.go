// Package config provides configuration management for the scraper.
// Values come from the environment (optionally a .env file) with the same
// names the deployment has always used, plus command-line flags.
package config

import (
	"time"
)

// CourseEndpoint is the API path courses are fetched from, keyed by ID.
const CourseEndpoint = "/v1/courses"

// Config holds the full scraper configuration. Durations arrive from the
// environment as plain numbers (seconds or hours), so they are stored that
// way and exposed as time.Duration through the accessor methods.
type Config struct {
	// API access
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Rolling-window quota
	MaxCallsPerDay       int `mapstructure:"max_calls_per_day" yaml:"max_calls_per_day"`
	RateLimitWindowHours int `mapstructure:"rate_limit_window_hours" yaml:"rate_limit_window_hours"`

	// Crawl behavior
	Consecutive404Limit  int     `mapstructure:"consecutive_404_limit" yaml:"consecutive_404_limit"`
	RequestDelaySeconds  float64 `mapstructure:"request_delay_seconds" yaml:"request_delay_seconds"`
	RequestTimeoutSecond int     `mapstructure:"request_timeout_seconds" yaml:"request_timeout_seconds"`

	// Retry behavior
	RetryMaxAttempts      int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryDelaySeconds     int `mapstructure:"retry_delay_seconds" yaml:"retry_delay_seconds"`
	RateLimitSleepSeconds int `mapstructure:"rate_limit_sleep_seconds" yaml:"rate_limit_sleep_seconds"`

	// Storage
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:               "https://api.golfcourseapi.com",
		MaxCallsPerDay:        295,
		RateLimitWindowHours:  24,
		Consecutive404Limit:   1000,
		RequestDelaySeconds:   1.5,
		RequestTimeoutSecond:  30,
		RetryMaxAttempts:      3,
		RetryDelaySeconds:     300,
		RateLimitSleepSeconds: 3600,
		DBPath:                "./data/golf_courses.db",
		LogLevel:              "info",
	}
}

// Validate checks if the configuration is valid. It is called before any
// network or store activity; a failure here is fatal.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.BaseURL == "" {
		return ErrEmptyBaseURL
	}
	if c.MaxCallsPerDay <= 0 {
		return ErrInvalidMaxCalls
	}
	if c.RateLimitWindowHours <= 0 {
		return ErrInvalidWindow
	}
	if c.Consecutive404Limit <= 0 {
		return ErrInvalid404Limit
	}
	if c.RetryMaxAttempts <= 0 {
		return ErrInvalidRetries
	}
	if c.DBPath == "" {
		return ErrEmptyDBPath
	}

	// Keep a floor under the politeness delay so the upstream is never hammered.
	if c.RequestDelaySeconds < 0.1 {
		c.RequestDelaySeconds = 0.1
	}

	return nil
}

// RateWindow returns the rolling quota window length.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateLimitWindowHours) * time.Hour
}

// RequestDelay returns the fixed inter-request politeness delay.
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelaySeconds * float64(time.Second))
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecond) * time.Second
}

// RetryDelay returns the linear backoff base for transient errors.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// RateLimitSleep returns the fixed cooldown applied after an upstream 429.
func (c *Config) RateLimitSleep() time.Duration {
	return time.Duration(c.RateLimitSleepSeconds) * time.Second
}
