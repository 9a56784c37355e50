// Package validator runs the baseline-vs-candidate differential
// simulation that decides whether a genetic algorithm's winning
// chromosome is actually an improvement worth applying to the live
// engine.
package validator

import (
	"trafficsim/core"
	"trafficsim/fitness"
	"trafficsim/ga"
)

// Config bundles the acceptance thresholds and side-simulation
// parameters (spec 4.11).
type Config struct {
	ImprovementThresholdPercent float64
	RegressionThresholdPercent  float64
	SimulationSteps             int
	DtSeconds                   float64
	MaxSpeed                    float64
}

// Result is the pass/fail verdict with the reason string the decision
// table in spec 4.11 names.
type Result struct {
	Passed             bool
	BaselineFitness    float64
	CandidateFitness   float64
	ImprovementPercent float64
	Reason             string
}

// Validator runs baseline and candidate side-simulations on identical
// copies of a network snapshot.
type Validator struct {
	cfg       Config
	evaluator *fitness.Evaluator
}

// New builds a Validator with the given thresholds.
func New(cfg Config) *Validator {
	return &Validator{
		cfg: cfg,
		evaluator: fitness.New(fitness.Config{
			SimulationSteps: cfg.SimulationSteps,
			DtSeconds:       cfg.DtSeconds,
			SampleEvery:     10,
			MaxSpeed:        cfg.MaxSpeed,
		}),
	}
}

// Validate runs the baseline (network's current lights, unmodified) and
// the candidate (chromosome applied) on independent copies of network,
// and classifies the result per spec 4.11's decision table.
func (v *Validator) Validate(network map[core.RoadID]core.RoadSnapshot, chromosome ga.Chromosome) Result {
	baseline := v.evaluator.RunBaseline(network)
	candidate := v.evaluator.Run(network, chromosome)

	improvement := 0.0
	if baseline != 0 {
		improvement = (baseline - candidate) / baseline * 100
	}

	res := Result{
		BaselineFitness:    baseline,
		CandidateFitness:   candidate,
		ImprovementPercent: improvement,
	}

	switch {
	case improvement >= v.cfg.ImprovementThresholdPercent:
		res.Passed = true
		res.Reason = "significant improvement"
	case improvement >= 0:
		res.Passed = true
		res.Reason = "minor improvement, no regression"
	case -improvement <= v.cfg.RegressionThresholdPercent:
		res.Passed = true
		res.Reason = "minor regression within tolerance"
	default:
		res.Passed = false
		res.Reason = "significant regression"
	}

	return res
}
