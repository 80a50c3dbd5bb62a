package config

import (
	"testing"

	"gocausal/domain/causal"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENGINE_CALIPER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("default port should be 8080, got %q", cfg.Server.Port)
	}
	if cfg.Engine != causal.DefaultOptions() {
		t.Fatalf("engine options should default to the reference configuration: %+v", cfg.Engine)
	}
}

func TestLoad_EngineOverrides(t *testing.T) {
	t.Setenv("ENGINE_CALIPER", "0.05")
	t.Setenv("ENGINE_MATCHING_REPLACEMENT", "true")
	t.Setenv("ENGINE_K_NEIGHBORS", "2")
	t.Setenv("ENGINE_RANDOM_SEED", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.Caliper != 0.05 {
		t.Fatalf("caliper override ignored: %v", cfg.Engine.Caliper)
	}
	if cfg.Engine.Policy != causal.WithReplacement {
		t.Fatalf("replacement override ignored: %v", cfg.Engine.Policy)
	}
	if cfg.Engine.KNeighbors != 2 || cfg.Engine.Seed != 7 {
		t.Fatalf("overrides ignored: %+v", cfg.Engine)
	}
}

func TestLoad_DataColumns(t *testing.T) {
	t.Setenv("DATA_FILE", "experiment.csv")
	t.Setenv("DATA_CONFOUNDER_COLUMNS", "account_age, is_power_user")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cols := cfg.Data.ConfounderColumns
	if len(cols) != 2 || cols[0] != "account_age" || cols[1] != "is_power_user" {
		t.Fatalf("confounder columns misparsed: %v", cols)
	}
}

func TestLoad_InvalidEngineOptions(t *testing.T) {
	t.Setenv("ENGINE_CALIPER", "-1")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a negative caliper")
	}
}
