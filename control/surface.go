// Package control defines Surface, the dependency-inverted contract a
// transport layer (HTTP, CLI, test harness) drives against: everything
// spec section 6 names as inbound to the core, jointly realized by
// engine.Engine (simulation controls) and controller.Controller
// (optimization controls). No transport is implemented here.
package control

import (
	"time"

	"trafficsim/core"
	"trafficsim/engine"
	"trafficsim/ga"
	"trafficsim/persist"
	"trafficsim/predictor"
)

// RunParams bundles the GA parameters a caller may override when
// starting a reactive optimization run.
type RunParams struct {
	GA ga.Config
}

// ContinuousOptConfig bundles the parameters startContinuousOpt accepts.
type ContinuousOptConfig struct {
	OptimizationIntervalSeconds int
	TransitionDurationSeconds   int
	UsePrediction               bool
	PredictionHorizonMinutes    int
}

// RunSummary is the result handed back from a completed optimization run.
type RunSummary struct {
	RunID              string
	Mode               string
	BaselineFitness    float64
	BestFitness        float64
	ImprovementPercent float64
	Status             string
}

// Surface is the full inbound control-plane contract (spec 6).
type Surface interface {
	// Simulation lifecycle.
	Start()
	Stop()
	Pause()
	Resume()
	SetContinuousMode(on bool)
	SetStepLimit(n int)

	// Read access.
	GetSnapshot() engine.SimulationSnapshot
	GetRoads() []core.RoadID
	GetTrafficLights() []engine.LightSpec

	// Network mutation.
	SetTrafficLights(specs []engine.LightSpec)
	SetFlowRates(specs []engine.FlowRateSpec)
	StartSpawning()
	StopSpawning()

	// Optimization controls.
	StartReactiveRun(params RunParams) (RunSummary, error)
	StartContinuousOpt(cfg ContinuousOptConfig) error
	StopContinuousOpt()
	ApplyRun(runID string) error
	Rollback() error

	// Prediction controls.
	PredictCurrent() predictor.Result
	PredictForecast(horizonMinutes int) predictor.Result
	PredictRoad(roadID core.RoadID, horizonMinutes int) (predictor.RoadForecast, bool)
	SetPredictionConfig(cfg predictor.Config)

	// O/D controls.
	AddODPair(pair persist.ODPair)
	RemoveODPair(id string)
	ListStats(odID string) TravelTimeStats
}

// TravelTimeStats mirrors traveltime.Stats so that the Surface
// interface does not expose that package's type.
type TravelTimeStats struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
	P50   float64
	P95   float64
}

// Clock abstracts wall-clock reads so Surface implementations can be
// exercised deterministically in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the default Clock, backed by time.Now.
var SystemClock Clock = systemClock{}
