package config

import (
	"os"
	"strconv"
	"strings"

	"gocausal/domain/causal"
	"gocausal/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Data     DataConfig
	Engine   causal.Options
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection settings. A blank URL disables
// report persistence; the engine core never requires it.
type DatabaseConfig struct {
	URL string
}

// DataConfig holds dataset input settings
type DataConfig struct {
	File              string
	IDColumn          string
	TreatmentColumn   string
	OutcomeColumn     string
	ConfounderColumns []string
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Data: DataConfig{
			File:              os.Getenv("DATA_FILE"),
			IDColumn:          getEnv("DATA_ID_COLUMN", "id"),
			TreatmentColumn:   getEnv("DATA_TREATMENT_COLUMN", "used_new_feature"),
			OutcomeColumn:     getEnv("DATA_OUTCOME_COLUMN", "total_spend"),
			ConfounderColumns: splitList(os.Getenv("DATA_CONFOUNDER_COLUMNS")),
		},
		Engine: engineOptions(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func engineOptions() causal.Options {
	opts := causal.DefaultOptions()
	opts.Caliper = getEnvFloat("ENGINE_CALIPER", opts.Caliper)
	if getEnvBool("ENGINE_MATCHING_REPLACEMENT", false) {
		opts.Policy = causal.WithReplacement
	}
	opts.KNeighbors = getEnvInt("ENGINE_K_NEIGHBORS", opts.KNeighbors)
	opts.MinMatches = getEnvInt("ENGINE_MIN_MATCHES", opts.MinMatches)
	opts.PlaceboTolerance = getEnvFloat("ENGINE_PLACEBO_TOLERANCE", opts.PlaceboTolerance)
	opts.CommonCauseTolerance = getEnvFloat("ENGINE_COMMON_CAUSE_TOLERANCE", opts.CommonCauseTolerance)
	opts.Seed = int64(getEnvInt("ENGINE_RANDOM_SEED", int(opts.Seed)))
	return opts
}

// Validate checks the configuration for invalid combinations
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.ConfigInvalid("server port must not be empty")
	}
	if err := c.Engine.Validate(); err != nil {
		return errors.Wrap(err, "engine options")
	}
	return nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
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

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
