package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"subsetlens/internal/errors"
	"subsetlens/internal/scoring"
)

// Config represents the complete application configuration
type Config struct {
	Search   SearchConfig
	Server   ServerConfig
	Data     DataConfig
	LogLevel string
}

// SearchConfig holds scoring and candidate search settings
type SearchConfig struct {
	Workers       int
	TopFeatures   int
	Percent       float64
	MaxLevels     int
	MinSubsetSize int
	DefaultMetric scoring.MetricKind
	Timeout       time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DataConfig holds the dataset loaded at startup
type DataConfig struct {
	File  string
	Sheet string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Search:   *loadSearchConfig(),
		Server:   *loadServerConfig(),
		Data:     *loadDataConfig(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			Workers:       runtime.GOMAXPROCS(0),
			TopFeatures:   10,
			Percent:       0.75,
			MaxLevels:     4,
			MinSubsetSize: 0,
			DefaultMetric: scoring.MetricEntropy,
			Timeout:       2 * time.Minute,
		},
		Server:   ServerConfig{Port: "8080", GinMode: "debug"},
		LogLevel: "INFO",
	}
}

func loadSearchConfig() *SearchConfig {
	d := Default().Search
	return &SearchConfig{
		Workers:       getEnvIntOrDefault("SEARCH_WORKERS", d.Workers),
		TopFeatures:   getEnvIntOrDefault("SEARCH_TOP_FEATURES", d.TopFeatures),
		Percent:       getEnvFloatOrDefault("SEARCH_PERCENT", d.Percent),
		MaxLevels:     getEnvIntOrDefault("SEARCH_MAX_LEVELS", d.MaxLevels),
		MinSubsetSize: getEnvIntOrDefault("MIN_SUBSET_SIZE", d.MinSubsetSize),
		DefaultMetric: scoring.MetricKind(getEnvOrDefault("DEFAULT_METRIC", string(d.DefaultMetric))),
		Timeout:       getEnvDurationOrDefault("SEARCH_TIMEOUT", d.Timeout),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		File:  getEnvOrDefault("DATA_FILE", ""),
		Sheet: getEnvOrDefault("DATA_SHEET", ""),
	}
}

// Validate checks the ranges of every setting
func (c *Config) Validate() error {
	return validateConfig(c)
}

func validateConfig(config *Config) error {
	s := config.Search
	if s.Workers < 1 {
		return errors.ConfigInvalid("SEARCH_WORKERS must be at least 1")
	}
	if s.TopFeatures < 1 {
		return errors.ConfigInvalid("SEARCH_TOP_FEATURES must be at least 1")
	}
	if s.Percent <= 0 || s.Percent > 1 {
		return errors.ConfigInvalid("SEARCH_PERCENT must be in (0, 1]")
	}
	if s.MaxLevels < 1 {
		return errors.ConfigInvalid("SEARCH_MAX_LEVELS must be at least 1")
	}
	if s.MinSubsetSize < 0 {
		return errors.ConfigInvalid("MIN_SUBSET_SIZE must not be negative")
	}
	if _, err := scoring.ParseMetricKind(string(s.DefaultMetric)); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid("GIN_MODE must be debug, release or test")
	}
	if s.Timeout < 0 {
		return errors.ConfigInvalid("SEARCH_TIMEOUT must not be negative")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
