// Package config loads the JSON configuration file that tunes every
// numeric knob of the simulation, genetic optimizer, pattern store,
// predictor, validator, controller and traffic feed.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the root configuration structure.
type Config struct {
	Simulation SimulationConfig `json:"simulation"`
	Vehicle    VehicleConfig    `json:"vehicle"`
	GA         GAConfig         `json:"geneticAlgorithm"`
	Fitness    FitnessConfig    `json:"fitness"`
	Pattern    PatternConfig    `json:"pattern"`
	Predictor  PredictorConfig  `json:"predictor"`
	Validator  ValidatorConfig  `json:"validator"`
	Controller ControllerConfig `json:"controller"`
	Feed       FeedConfig       `json:"feed"`
	TravelTime TravelTimeConfig `json:"travelTime"`
	Logging    LoggingConfig    `json:"logging"`
}

// SimulationConfig governs the engine tick loop.
type SimulationConfig struct {
	TickSeconds          float64 `json:"tickSeconds"`
	TickSleepMs          int     `json:"tickSleepMs"`
	MetricsEverySteps    int     `json:"metricsEverySteps"`
	SnapshotEverySteps   int     `json:"snapshotEverySteps"`
	TransitionEverySteps int     `json:"transitionEverySteps"`
	ContinuousMode       bool    `json:"continuousMode"`
	StepLimit            int     `json:"stepLimit"`
	Workers              int     `json:"workers"`
}

// VehicleConfig supplies the default IDM parameters for newly spawned vehicles.
type VehicleConfig struct {
	DefaultLength       float64 `json:"defaultLength"`
	SafeHeadway         float64 `json:"safeHeadway"`         // T
	MaxAcceleration     float64 `json:"maxAcceleration"`     // a
	ComfortDeceleration float64 `json:"comfortDeceleration"` // b
	MinGap              float64 `json:"minGap"`              // s0
	AccelExponent       float64 `json:"accelExponent"`       // delta
	FreeRoadThreshold   float64 `json:"freeRoadThreshold"`   // meters
	Politeness          float64 `json:"politeness"`
	SafeBrakingLimit    float64 `json:"safeBrakingLimit"`
	ChangeThreshold     float64 `json:"changeThreshold"`
	YellowSeconds       float64 `json:"yellowSeconds"`
}

// GAConfig configures GeneticAlgorithm.
type GAConfig struct {
	PopulationSize int     `json:"populationSize"`
	Generations    int     `json:"generations"`
	MutationRate   float64 `json:"mutationRate"`
	MutationStdDev float64 `json:"mutationStdDev"`
	CrossoverRate  float64 `json:"crossoverRate"`
	TournamentSize int     `json:"tournamentSize"`
	ElitismRate    float64 `json:"elitismRate"`
	MinGreen       float64 `json:"minGreen"`
	MaxGreen       float64 `json:"maxGreen"`
	MinRed         float64 `json:"minRed"`
	MaxRed         float64 `json:"maxRed"`
	Seed           int64   `json:"seed"`
}

// FitnessConfig configures FitnessEvaluator side-simulations.
type FitnessConfig struct {
	SimulationSteps int     `json:"simulationSteps"`
	DtSeconds       float64 `json:"dtSeconds"`
	SampleEvery     int     `json:"sampleEvery"`
}

// PatternConfig configures PatternStorage.
type PatternConfig struct {
	SnapshotIntervalSeconds int `json:"snapshotIntervalSeconds"`
	RetentionDays           int `json:"retentionDays"`
	MinSamplesForPattern    int `json:"minSamplesForPattern"`
}

// PredictorConfig configures TrafficPredictor.
type PredictorConfig struct {
	DefaultHorizonMinutes       int     `json:"defaultHorizonMinutes"`
	MinHorizonMinutes           int     `json:"minHorizonMinutes"`
	MaxHorizonMinutes           int     `json:"maxHorizonMinutes"`
	PatternWeight               float64 `json:"patternWeight"`
	CurrentWeight               float64 `json:"currentWeight"`
	MinSamplesForFullConfidence int     `json:"minSamplesForFullConfidence"`
	CacheDurationSeconds        int     `json:"cacheDurationSeconds"`
	VehicleScaleFactor          float64 `json:"vehicleScaleFactor"`
}

// ValidatorConfig configures TimingValidator.
type ValidatorConfig struct {
	ImprovementThresholdPercent float64 `json:"improvementThresholdPercent"`
	RegressionThresholdPercent  float64 `json:"regressionThresholdPercent"`
	SimulationSteps             int     `json:"simulationSteps"`
	DtSeconds                   float64 `json:"dtSeconds"`
}

// ControllerConfig configures ContinuousOptimizationController.
type ControllerConfig struct {
	OptimizationIntervalSeconds int  `json:"optimizationIntervalSeconds"`
	TransitionDurationSeconds  int  `json:"transitionDurationSeconds"`
	UsePrediction              bool `json:"usePrediction"`
	PredictionHorizonMinutes   int  `json:"predictionHorizonMinutes"`
	ValidateBeforeApply        bool `json:"validateBeforeApply"`
	HeartbeatSeconds           int  `json:"heartbeatSeconds"`
}

// FeedConfig configures the simulated TrafficFeed.
type FeedConfig struct {
	UpdateIntervalMs int `json:"updateIntervalMs"`
}

// TravelTimeConfig configures TravelTimeCollector.
type TravelTimeConfig struct {
	MaxSamplesPerPair int `json:"maxSamplesPerPair"`
}

// LoggingConfig governs simlog output.
type LoggingConfig struct {
	FilePath     string `json:"filePath"`
	EchoToStdout bool   `json:"echoToStdout"`
}

var global *Config

// LoadConfig reads filename as JSON into the global Config, filling in
// defaults for any field left at its zero value.
func LoadConfig(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", filename, err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", filename, err)
	}

	applyDefaults(cfg)
	global = cfg
	return nil
}

// LoadDefault returns a Config populated with defaults only, used by
// tests and by callers that don't need a config file on disk.
func LoadDefault() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	global = cfg
	return cfg
}

// GetConfig returns the process-wide configuration instance, or nil if
// neither LoadConfig nor LoadDefault has run.
func GetConfig() *Config {
	return global
}

func applyDefaults(cfg *Config) {
	s := &cfg.Simulation
	if s.TickSeconds <= 0 {
		s.TickSeconds = 0.1
	}
	if s.TickSleepMs <= 0 {
		s.TickSleepMs = 10
	}
	if s.MetricsEverySteps <= 0 {
		s.MetricsEverySteps = 10
	}
	if s.SnapshotEverySteps <= 0 {
		s.SnapshotEverySteps = 600
	}
	if s.TransitionEverySteps <= 0 {
		s.TransitionEverySteps = 10
	}
	if s.Workers <= 0 {
		s.Workers = 0 // 0 means GOMAXPROCS at construction time
	}

	v := &cfg.Vehicle
	if v.DefaultLength <= 0 {
		v.DefaultLength = 4.5
	}
	if v.SafeHeadway <= 0 {
		v.SafeHeadway = 1.5
	}
	if v.MaxAcceleration <= 0 {
		v.MaxAcceleration = 1.5
	}
	if v.ComfortDeceleration <= 0 {
		v.ComfortDeceleration = 2.0
	}
	if v.MinGap <= 0 {
		v.MinGap = 2.0
	}
	if v.AccelExponent <= 0 {
		v.AccelExponent = 4.0
	}
	if v.FreeRoadThreshold <= 0 {
		v.FreeRoadThreshold = 100.0
	}
	if v.Politeness <= 0 {
		v.Politeness = 0.3
	}
	if v.SafeBrakingLimit <= 0 {
		v.SafeBrakingLimit = 4.0
	}
	if v.ChangeThreshold <= 0 {
		v.ChangeThreshold = 0.2
	}
	if v.YellowSeconds <= 0 {
		v.YellowSeconds = 3.0
	}

	g := &cfg.GA
	if g.PopulationSize <= 0 {
		g.PopulationSize = 30
	}
	if g.Generations <= 0 {
		g.Generations = 30
	}
	if g.MutationRate <= 0 {
		g.MutationRate = 0.1
	}
	if g.MutationStdDev <= 0 {
		g.MutationStdDev = 2.0
	}
	if g.CrossoverRate <= 0 {
		g.CrossoverRate = 0.8
	}
	if g.TournamentSize <= 0 {
		g.TournamentSize = 3
	}
	if g.ElitismRate <= 0 {
		g.ElitismRate = 0.1
	}
	if g.MinGreen <= 0 {
		g.MinGreen = 10.0
	}
	if g.MaxGreen <= 0 {
		g.MaxGreen = 60.0
	}
	if g.MinRed <= 0 {
		g.MinRed = 10.0
	}
	if g.MaxRed <= 0 {
		g.MaxRed = 60.0
	}

	f := &cfg.Fitness
	if f.SimulationSteps <= 0 {
		f.SimulationSteps = 1000
	}
	if f.DtSeconds <= 0 {
		f.DtSeconds = 0.1
	}
	if f.SampleEvery <= 0 {
		f.SampleEvery = 10
	}

	p := &cfg.Pattern
	if p.SnapshotIntervalSeconds <= 0 {
		p.SnapshotIntervalSeconds = 60
	}
	if p.RetentionDays <= 0 {
		p.RetentionDays = 7
	}
	if p.MinSamplesForPattern <= 0 {
		p.MinSamplesForPattern = 3
	}

	pr := &cfg.Predictor
	if pr.DefaultHorizonMinutes <= 0 {
		pr.DefaultHorizonMinutes = 30
	}
	if pr.MinHorizonMinutes <= 0 {
		pr.MinHorizonMinutes = 10
	}
	if pr.MaxHorizonMinutes <= 0 {
		pr.MaxHorizonMinutes = 120
	}
	if pr.PatternWeight <= 0 && pr.CurrentWeight <= 0 {
		pr.PatternWeight = 0.6
		pr.CurrentWeight = 0.4
	}
	if pr.MinSamplesForFullConfidence <= 0 {
		pr.MinSamplesForFullConfidence = 10
	}
	if pr.CacheDurationSeconds <= 0 {
		pr.CacheDurationSeconds = 30
	}
	if pr.VehicleScaleFactor <= 0 {
		pr.VehicleScaleFactor = 1.0
	}

	val := &cfg.Validator
	if val.ImprovementThresholdPercent <= 0 {
		val.ImprovementThresholdPercent = 5.0
	}
	if val.RegressionThresholdPercent <= 0 {
		val.RegressionThresholdPercent = 10.0
	}
	if val.SimulationSteps <= 0 {
		val.SimulationSteps = 1000
	}
	if val.DtSeconds <= 0 {
		val.DtSeconds = 0.1
	}

	c := &cfg.Controller
	if c.OptimizationIntervalSeconds <= 0 {
		c.OptimizationIntervalSeconds = 900
	}
	if c.OptimizationIntervalSeconds < 60 {
		c.OptimizationIntervalSeconds = 60
	}
	if c.OptimizationIntervalSeconds > 3600 {
		c.OptimizationIntervalSeconds = 3600
	}
	if c.TransitionDurationSeconds <= 0 {
		c.TransitionDurationSeconds = 300
	}
	if c.TransitionDurationSeconds < 30 {
		c.TransitionDurationSeconds = 30
	}
	if c.TransitionDurationSeconds > 600 {
		c.TransitionDurationSeconds = 600
	}
	if c.PredictionHorizonMinutes <= 0 {
		c.PredictionHorizonMinutes = 30
	}
	if c.HeartbeatSeconds <= 0 {
		c.HeartbeatSeconds = 1
	}

	feed := &cfg.Feed
	if feed.UpdateIntervalMs <= 0 {
		feed.UpdateIntervalMs = 1000
	}
	if feed.UpdateIntervalMs < 100 {
		feed.UpdateIntervalMs = 100
	}

	tt := &cfg.TravelTime
	if tt.MaxSamplesPerPair <= 0 {
		tt.MaxSamplesPerPair = 1000
	}

	l := &cfg.Logging
	if l.FilePath == "" {
		l.FilePath = "./log/trafficsim.log"
	}
}
