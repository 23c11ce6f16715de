package config

import (
	"os"
	"strconv"

	"datastudio/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Upload    UploadConfig
	Cleaning  CleaningConfig
	Export    ExportConfig
	Profiling ProfilingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Host    string
	Port    string
	GinMode string
}

// UploadConfig holds ingestion limits
type UploadConfig struct {
	MaxUploadMB int64
}

// CleaningConfig holds the default pipeline thresholds
type CleaningConfig struct {
	MissingDropRatio float64
	LowerQuantile    float64
	UpperQuantile    float64
}

// ExportConfig holds cloud export defaults
type ExportConfig struct {
	DefaultRegion string
	DefaultPrefix string
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host:    getEnvOrDefault("HOST", ""),
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Upload: UploadConfig{
			MaxUploadMB: int64(getEnvIntOrDefault("MAX_UPLOAD_MB", 50)),
		},
		Cleaning: CleaningConfig{
			MissingDropRatio: getEnvFloatOrDefault("CLEAN_MISSING_DROP_RATIO", 0.6),
			LowerQuantile:    getEnvFloatOrDefault("CLEAN_LOWER_QUANTILE", 0.01),
			UpperQuantile:    getEnvFloatOrDefault("CLEAN_UPPER_QUANTILE", 0.99),
		},
		Export: ExportConfig{
			DefaultRegion: getEnvOrDefault("AWS_REGION", "us-east-1"),
			DefaultPrefix: getEnvOrDefault("EXPORT_PREFIX", "analysis-outputs"),
		},
		Profiling: ProfilingConfig{
			Port:    getEnvOrDefault("PPROF_PORT", "6060"),
			Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Upload.MaxUploadMB <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	c := config.Cleaning
	if c.MissingDropRatio < 0 || c.MissingDropRatio > 1 {
		return errors.ConfigInvalid("CLEAN_MISSING_DROP_RATIO must be in [0,1]")
	}
	if c.LowerQuantile < 0 || c.UpperQuantile > 1 || c.LowerQuantile >= c.UpperQuantile {
		return errors.ConfigInvalid("cleaning quantile bounds must satisfy 0 <= lower < upper <= 1")
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
