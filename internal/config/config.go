package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"fotd/internal/errors"
)

// Config represents the complete analytics configuration
type Config struct {
	Data     DataConfig
	Predict  PredictConfig
	Evaluate EvaluateConfig
	Latent   LatentConfig
}

// DataConfig holds dataset source settings
type DataConfig struct {
	DatabaseURL    string // sqlx DSN, e.g. file path for sqlite3
	DatabaseDriver string // "sqlite3" or "postgres"
	CSVFile        string
	ExcelFile      string
}

// PredictConfig holds model hyperparameters shared by every run so
// evaluation metrics stay reproducible
type PredictConfig struct {
	StoreWeight     float64 // weight of the store-local signal in the blend
	RecencyHalfLife float64 // days; smaller = stronger repeat penalty
}

// EvaluateConfig holds evaluation framework settings
type EvaluateConfig struct {
	SplitDate  time.Time
	MaxSamples int
}

// LatentConfig holds decomposition and clustering settings
type LatentConfig struct {
	Components int
	Clusters   int
}

// Load reads configuration from a .env file (if present) and the
// environment, then validates it
func Load() (*Config, error) {
	// Missing .env is fine; the environment alone may be complete
	_ = godotenv.Load()

	config := &Config{
		Data: DataConfig{
			DatabaseURL:    os.Getenv("FOTD_DATABASE_URL"),
			DatabaseDriver: getEnvOrDefault("FOTD_DATABASE_DRIVER", "sqlite3"),
			CSVFile:        os.Getenv("FOTD_CSV_FILE"),
			ExcelFile:      os.Getenv("FOTD_EXCEL_FILE"),
		},
		Predict: PredictConfig{
			StoreWeight:     getEnvFloatOrDefault("FOTD_STORE_WEIGHT", DefaultStoreWeight),
			RecencyHalfLife: getEnvFloatOrDefault("FOTD_RECENCY_HALF_LIFE", DefaultRecencyHalfLife),
		},
		Evaluate: EvaluateConfig{
			MaxSamples: getEnvIntOrDefault("FOTD_MAX_SAMPLES", DefaultMaxSamples),
		},
		Latent: LatentConfig{
			Components: getEnvIntOrDefault("FOTD_COMPONENTS", DefaultComponents),
			Clusters:   getEnvIntOrDefault("FOTD_CLUSTERS", DefaultClusters),
		},
	}

	splitRaw := getEnvOrDefault("FOTD_SPLIT_DATE", DefaultSplitDate)
	split, err := time.Parse("2006-01-02", splitRaw)
	if err != nil {
		return nil, errors.ConfigInvalid("FOTD_SPLIT_DATE must be YYYY-MM-DD")
	}
	config.Evaluate.SplitDate = split

	if err := validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Defaults match the constants the original analysis runs were tuned with
const (
	DefaultStoreWeight     = 0.7
	DefaultRecencyHalfLife = 7.0
	DefaultMaxSamples      = 500
	DefaultComponents      = 6
	DefaultClusters        = 5
	DefaultSplitDate       = "2026-01-01"
)

func validate(c *Config) error {
	if c.Predict.StoreWeight < 0 || c.Predict.StoreWeight > 1 {
		return errors.ConfigInvalid("FOTD_STORE_WEIGHT must be in [0,1]")
	}
	if c.Predict.RecencyHalfLife <= 0 {
		return errors.ConfigInvalid("FOTD_RECENCY_HALF_LIFE must be positive")
	}
	if c.Latent.Components < 1 {
		return errors.ConfigInvalid("FOTD_COMPONENTS must be at least 1")
	}
	if c.Latent.Clusters < 1 {
		return errors.ConfigInvalid("FOTD_CLUSTERS must be at least 1")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloatOrDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
