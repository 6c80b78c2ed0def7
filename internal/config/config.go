package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gosigma/domain/doe"
	"gosigma/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Analysis AnalysisConfig
	LogLevel string
}

// DatabaseConfig holds database connection settings. An empty URL disables persistence.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// Enabled reports whether analysis records should be persisted
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
}

// AnalysisConfig holds engine defaults applied when a request leaves them unset
type AnalysisConfig struct {
	DefaultSigmaLevel float64
	HistogramBins     int
	PValueMode        doe.PValueMode
	BatchConcurrency  int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: loadDatabaseConfig(),
		Server:   loadServerConfig(),
		Analysis: loadAnalysisConfig(),
		LogLevel: getEnvOrDefault("GOSIGMA_LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:          os.Getenv("DATABASE_URL"),
		MaxOpenConns: getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns: getEnvIntOrDefault("DB_MAX_IDLE_CONNS", 5),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		RequestTimeout: getEnvDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
	}
}

func loadAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		DefaultSigmaLevel: getEnvFloatOrDefault("DEFAULT_SIGMA_LEVEL", 3),
		HistogramBins:     getEnvIntOrDefault("HISTOGRAM_BINS", 20),
		PValueMode:        doe.PValueMode(getEnvOrDefault("ANOVA_PVALUE_MODE", string(doe.PValueLegacy))),
		BatchConcurrency:  getEnvIntOrDefault("BATCH_CONCURRENCY", 4),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT must not be empty")
	}
	if config.Server.RequestTimeout <= 0 {
		return errors.ConfigInvalid("REQUEST_TIMEOUT must be positive")
	}
	a := config.Analysis
	if a.DefaultSigmaLevel <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("DEFAULT_SIGMA_LEVEL must be positive, got %g", a.DefaultSigmaLevel))
	}
	if a.HistogramBins < 1 {
		return errors.ConfigInvalid(fmt.Sprintf("HISTOGRAM_BINS must be at least 1, got %d", a.HistogramBins))
	}
	if a.PValueMode != doe.PValueLegacy && a.PValueMode != doe.PValueExact {
		return errors.ConfigInvalid(fmt.Sprintf("ANOVA_PVALUE_MODE must be legacy or exact, got %q", a.PValueMode))
	}
	if a.BatchConcurrency < 1 {
		return errors.ConfigInvalid(fmt.Sprintf("BATCH_CONCURRENCY must be at least 1, got %d", a.BatchConcurrency))
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
