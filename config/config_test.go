package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultFillsEveryDefault(t *testing.T) {
	cfg := LoadDefault()

	if cfg.Simulation.TickSeconds != 0.1 {
		t.Fatalf("expected default tick seconds 0.1, got %v", cfg.Simulation.TickSeconds)
	}
	if cfg.GA.PopulationSize != 30 || cfg.GA.Generations != 30 {
		t.Fatalf("expected default GA population/generations, got %+v", cfg.GA)
	}
	if cfg.Controller.OptimizationIntervalSeconds != 900 {
		t.Fatalf("expected default optimization interval 900s, got %v", cfg.Controller.OptimizationIntervalSeconds)
	}
	if cfg.Logging.FilePath == "" {
		t.Fatalf("expected a default log file path")
	}
}

func TestControllerIntervalDefaultsAreClamped(t *testing.T) {
	cfg := &Config{}
	cfg.Controller.OptimizationIntervalSeconds = 10 // below the 60s floor
	cfg.Controller.TransitionDurationSeconds = 10000 // above the 600s ceiling
	applyDefaults(cfg)

	if cfg.Controller.OptimizationIntervalSeconds != 60 {
		t.Fatalf("expected interval clamped up to 60, got %v", cfg.Controller.OptimizationIntervalSeconds)
	}
	if cfg.Controller.TransitionDurationSeconds != 600 {
		t.Fatalf("expected transition duration clamped down to 600, got %v", cfg.Controller.TransitionDurationSeconds)
	}
}

func TestLoadConfigReadsJSONOverridesAndFillsRemainder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	partial := map[string]any{
		"geneticAlgorithm": map[string]any{"populationSize": 99, "seed": 7},
	}
	data, err := json.Marshal(partial)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if err := LoadConfig(path); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	cfg := GetConfig()

	if cfg.GA.PopulationSize != 99 {
		t.Fatalf("expected overridden population size 99, got %d", cfg.GA.PopulationSize)
	}
	if cfg.GA.Seed != 7 {
		t.Fatalf("expected overridden seed 7, got %d", cfg.GA.Seed)
	}
	if cfg.GA.Generations != 30 {
		t.Fatalf("expected default generations to still be filled in, got %d", cfg.GA.Generations)
	}
}

func TestLoadConfigMissingFileReturnsError(t *testing.T) {
	if err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}
