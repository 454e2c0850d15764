package config

import (
	"os"
	"strconv"

	"goassay/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Paths    PathConfig
	Search   SearchConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds run-archive connection settings. An empty URL
// disables archiving; search still runs.
type DatabaseConfig struct {
	URL string
}

// PathConfig holds file system paths
type PathConfig struct {
	CalibratorModel string
	ReportDir       string
}

// SearchConfig holds planner defaults overridable from the environment
type SearchConfig struct {
	Steps              int
	BeamWidth          int
	InterventionBudget int
	ViabilityFloor     float64
	Seed               int64
}

// Load builds configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Paths: PathConfig{
			CalibratorModel: getEnv("CALIBRATOR_MODEL", "calibrator.json"),
			ReportDir:       getEnv("REPORT_DIR", "reports"),
		},
		Search: SearchConfig{
			Steps:              getEnvInt("SEARCH_STEPS", 8),
			BeamWidth:          getEnvInt("SEARCH_BEAM_WIDTH", 12),
			InterventionBudget: getEnvInt("SEARCH_BUDGET", 5),
			ViabilityFloor:     getEnvFloat("SEARCH_VIABILITY_FLOOR", 0.35),
			Seed:               int64(getEnvInt("SEARCH_SEED", 1)),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration for coherent values.
func (c *Config) Validate() error {
	if c.Search.Steps <= 0 {
		return errors.ConfigInvalid("SEARCH_STEPS must be positive")
	}
	if c.Search.BeamWidth <= 0 {
		return errors.ConfigInvalid("SEARCH_BEAM_WIDTH must be positive")
	}
	if c.Search.InterventionBudget < 0 {
		return errors.ConfigInvalid("SEARCH_BUDGET must be non-negative")
	}
	if c.Search.ViabilityFloor < 0 || c.Search.ViabilityFloor > 1 {
		return errors.ConfigInvalid("SEARCH_VIABILITY_FLOOR must be in [0,1]")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
