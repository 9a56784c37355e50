// Package predictive runs the PredictiveOptimizer pipeline: forecast
// future conditions, inject synthetic demand into a copy of the live
// network, evolve traffic-light timings against that predicted
// snapshot, optionally validate against live conditions, and track how
// accurate each prediction turned out to be once its horizon elapses.
package predictive

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"trafficsim/core"
	"trafficsim/fitness"
	"trafficsim/ga"
	"trafficsim/persist"
	"trafficsim/predictor"
	"trafficsim/validator"
)

// State names the pipeline's position in its state machine.
type State int

const (
	StateIdle State = iota
	StatePredicting
	StateOptimizing
	StateValidating
	StateApplying
	StateComplete
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePredicting:
		return "PREDICTING"
	case StateOptimizing:
		return "OPTIMIZING"
	case StateValidating:
		return "VALIDATING"
	case StateApplying:
		return "APPLYING"
	case StateComplete:
		return "COMPLETE"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Config bundles PredictiveOptimizer's tunables (spec 4.10).
type Config struct {
	VehicleScaleFactor  float64
	MaxSyntheticVehicles int
	MaxSpeed            float64
	ValidateEnabled     bool
	AccuracyHistorySize int

	GA       ga.Config
	Fitness  fitness.Config
	Validate validator.Config
}

// PendingPrediction tracks one forecast awaiting accuracy scoring once
// its target time has passed.
type PendingPrediction struct {
	PredictedAt time.Time
	TargetAt    time.Time
	Roads       map[core.RoadID]predictor.RoadForecast
}

// AccuracyRecord is one scored, retired PendingPrediction.
type AccuracyRecord struct {
	PredictedAt   time.Time
	TargetAt      time.Time
	AccuracyScore float64
}

// Result is what runOptimization returns to the controller.
type Result struct {
	State              State
	Chromosome         ga.Chromosome
	BaselineFitness    float64
	BestFitness        float64
	ImprovementPercent float64
	Validation         validator.Result
	Err                error
}

// NetworkSource gives the optimizer the current live network, a
// dependency-inverted seam so predictive never imports engine directly.
type NetworkSource interface {
	SnapshotNetwork() map[core.RoadID]core.RoadSnapshot
	CurrentRoadMetrics() map[core.RoadID]core.RoadMetrics
}

// Optimizer drives the PREDICTING -> OPTIMIZING -> VALIDATING ->
// APPLYING pipeline (spec 4.10).
type Optimizer struct {
	cfg       Config
	network   NetworkSource
	predictor *predictor.Predictor
	evaluator *fitness.Evaluator
	validator *validator.Validator
	runs      persist.RunStore

	mu       sync.Mutex
	state    State
	pending  []PendingPrediction
	accuracy []AccuracyRecord
}

// New builds an Optimizer wired against network, predictor and runs.
func New(cfg Config, network NetworkSource, pred *predictor.Predictor, runs persist.RunStore) *Optimizer {
	if cfg.VehicleScaleFactor <= 0 {
		cfg.VehicleScaleFactor = 1.0
	}
	if cfg.MaxSyntheticVehicles <= 0 {
		cfg.MaxSyntheticVehicles = 50
	}
	if cfg.AccuracyHistorySize <= 0 {
		cfg.AccuracyHistorySize = 100
	}
	return &Optimizer{
		cfg:       cfg,
		network:   network,
		predictor: pred,
		evaluator: fitness.New(cfg.Fitness),
		validator: validator.New(cfg.Validate),
		runs:      runs,
		state:     StateIdle,
	}
}

// State reports the optimizer's current pipeline position.
func (o *Optimizer) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Optimizer) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// RunOptimization executes one full pipeline pass for the given
// prediction horizon (minutes).
func (o *Optimizer) RunOptimization(horizonMinutes int) Result {
	o.setState(StatePredicting)

	forecast := o.predictor.PredictForecast(horizonMinutes)
	pending := PendingPrediction{
		PredictedAt: time.Now(),
		TargetAt:    time.Now().Add(time.Duration(horizonMinutes) * time.Minute),
		Roads:       forecast.Roads,
	}
	o.mu.Lock()
	o.pending = append(o.pending, pending)
	o.mu.Unlock()

	current := o.network.SnapshotNetwork()
	predicted := o.buildPredictedSnapshot(current, forecast)

	o.setState(StateOptimizing)
	lightCount := fitness.CountLights(predicted)
	if lightCount == 0 {
		o.setState(StateError)
		return Result{State: StateError, Err: fmt.Errorf("predictive: network has no traffic lights")}
	}

	baseline := o.evaluator.RunBaseline(predicted)

	alg := ga.New(o.cfg.GA)
	best := alg.Evolve(lightCount, func(c ga.Chromosome) float64 {
		return o.evaluator.Run(predicted, c)
	})

	improvement := 0.0
	if baseline != 0 {
		improvement = (baseline - best.Fitness) / baseline * 100
	}

	result := Result{
		State: StateOptimizing, Chromosome: best,
		BaselineFitness: baseline, BestFitness: best.Fitness, ImprovementPercent: improvement,
	}

	if o.cfg.ValidateEnabled {
		o.setState(StateValidating)
		result.Validation = o.validator.Validate(current, best)
		if !result.Validation.Passed {
			o.setState(StateError)
			result.State = StateError
			result.Err = fmt.Errorf("predictive: validation rejected: %s", result.Validation.Reason)
			return result
		}
	}

	o.setState(StateApplying)
	if o.runs != nil {
		o.runs.SaveRun(persist.OptimizationRun{
			RunID:              fmt.Sprintf("run-%d", time.Now().UnixNano()),
			StartedAt:          pending.PredictedAt.Unix(),
			Mode:               "predictive",
			Generations:        toGenerationStats(alg.FitnessHistory()),
			Chromosome:         toGeneRecords(best),
			BaselineFitness:    baseline,
			BestFitness:        best.Fitness,
			ImprovementPercent: improvement,
			Status:             "COMPLETE",
		})
	}

	o.setState(StateComplete)
	result.State = StateComplete
	return result
}

func toGeneRecords(c ga.Chromosome) []persist.GeneRecord {
	out := make([]persist.GeneRecord, len(c.Genes))
	for i, g := range c.Genes {
		out[i] = persist.GeneRecord{GreenTime: g.Green, RedTime: g.Red}
	}
	return out
}

func toGenerationStats(history []float64) []persist.GenerationStat {
	out := make([]persist.GenerationStat, len(history))
	for i, f := range history {
		out[i] = persist.GenerationStat{Generation: i, BestFitness: f}
	}
	return out
}

// buildPredictedSnapshot deep-copies current and, for each road whose
// predicted vehicle count exceeds its current count, injects synthetic
// vehicles distributed along the road into its least-loaded lane (spec
// 4.10 step 2). Removal when the prediction implies fewer vehicles is
// not performed, a documented limitation.
func (o *Optimizer) buildPredictedSnapshot(current map[core.RoadID]core.RoadSnapshot, forecast predictor.Result) map[core.RoadID]core.RoadSnapshot {
	out := make(map[core.RoadID]core.RoadSnapshot, len(current))
	ids := make([]core.RoadID, 0, len(current))
	for id, snap := range current {
		lanes := make([]core.LaneSnapshot, len(snap.Lanes))
		for l, ln := range snap.Lanes {
			ln.Vehicles = append([]core.VehicleSnapshot(nil), ln.Vehicles...)
			lanes[l] = ln
		}
		snap.Lanes = lanes
		out[id] = snap
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		snap := out[id]
		fc, ok := forecast.Roads[id]
		if !ok {
			continue
		}
		target := int(fc.VehicleCount * o.cfg.VehicleScaleFactor)
		currentCount := 0
		for _, ln := range snap.Lanes {
			currentCount += len(ln.Vehicles)
		}
		if target <= currentCount {
			continue
		}
		toAdd := target - currentCount
		if toAdd > o.cfg.MaxSyntheticVehicles {
			toAdd = o.cfg.MaxSyntheticVehicles
		}

		velocity := fc.AvgSpeed * 0.9
		if velocity <= 0 {
			velocity = o.cfg.MaxSpeed * 0.5
		}

		leastLoaded := 0
		for l := range snap.Lanes {
			if len(snap.Lanes[l].Vehicles) < len(snap.Lanes[leastLoaded].Vehicles) {
				leastLoaded = l
			}
		}

		for i := 0; i < toAdd; i++ {
			frac := 0.1 + 0.8*float64(i)/float64(toAdd)
			pos := snap.Length * frac
			snap.Lanes[leastLoaded].Vehicles = append(snap.Lanes[leastLoaded].Vehicles, core.VehicleSnapshot{
				ID:                  core.NewVehicleID(),
				Position:            pos,
				Velocity:            velocity,
				Kind:                core.KindCar,
				DesiredVelocity:     velocity / 0.9,
				Length:              4.5,
				Aggressivity:        0.5,
				SafeHeadway:         1.5,
				MaxAcceleration:     1.5,
				ComfortDeceleration: 2.0,
				MinGap:              2.0,
			})
		}
		sort.Slice(snap.Lanes[leastLoaded].Vehicles, func(a, b int) bool {
			return snap.Lanes[leastLoaded].Vehicles[a].Position < snap.Lanes[leastLoaded].Vehicles[b].Position
		})
		out[id] = snap
	}
	return out
}

// RecordActualMetrics retires every pending prediction whose target
// time has passed, scores it against live metrics, and pushes the
// result into a bounded accuracy history (spec 4.10).
func (o *Optimizer) RecordActualMetrics() {
	now := time.Now()
	actual := o.network.CurrentRoadMetrics()

	o.mu.Lock()
	defer o.mu.Unlock()

	var stillPending []PendingPrediction
	for _, p := range o.pending {
		if now.Before(p.TargetAt) {
			stillPending = append(stillPending, p)
			continue
		}
		score := scorePrediction(p, actual)
		o.accuracy = append(o.accuracy, AccuracyRecord{PredictedAt: p.PredictedAt, TargetAt: p.TargetAt, AccuracyScore: score})
		if len(o.accuracy) > o.cfg.AccuracyHistorySize {
			o.accuracy = o.accuracy[len(o.accuracy)-o.cfg.AccuracyHistorySize:]
		}
	}
	o.pending = stillPending
}

func scorePrediction(p PendingPrediction, actual map[core.RoadID]core.RoadMetrics) float64 {
	if len(p.Roads) == 0 {
		return 0
	}
	sum := 0.0
	for id, fc := range p.Roads {
		am, ok := actual[id]
		if !ok {
			continue
		}
		sum += accuracyOf(fc.VehicleCount, float64(am.VehicleCount))
		sum += accuracyOf(fc.QueueLength, float64(am.QueueLength))
	}
	return sum / float64(2*len(p.Roads))
}

func accuracyOf(predicted, actual float64) float64 {
	if predicted == 0 && actual == 0 {
		return 1.0
	}
	denom := math.Max(predicted, actual)
	if denom == 0 {
		return 1.0
	}
	return 1 - math.Abs(predicted-actual)/denom
}

// AccuracyHistory returns the retained accuracy records, oldest first.
func (o *Optimizer) AccuracyHistory() []AccuracyRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]AccuracyRecord(nil), o.accuracy...)
}
