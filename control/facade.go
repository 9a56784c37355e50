package control

import (
	"context"
	"fmt"
	"time"

	"trafficsim/controller"
	"trafficsim/core"
	"trafficsim/engine"
	"trafficsim/fitness"
	"trafficsim/ga"
	"trafficsim/persist"
	"trafficsim/predictor"
	"trafficsim/traveltime"
)

// Facade is the default Surface implementation, composing an
// engine.Engine with a controller.Controller, a predictor.Predictor,
// and a traveltime.Collector. It owns none of their construction
// details; New wires already-built collaborators together.
type Facade struct {
	engine     *engine.Engine
	controller *controller.Controller
	predict    *predictor.Predictor
	travel     *traveltime.Collector
	runs       persist.RunStore

	cancel context.CancelFunc
}

// New builds a Facade over already-constructed collaborators.
func New(e *engine.Engine, c *controller.Controller, p *predictor.Predictor, t *traveltime.Collector, runs persist.RunStore) *Facade {
	return &Facade{engine: e, controller: c, predict: p, travel: t, runs: runs}
}

// Start launches the engine's background tick loop.
func (f *Facade) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go f.engine.Run(ctx)
}

// Stop halts the engine's tick loop and cancels its run context.
func (f *Facade) Stop() {
	f.engine.Stop()
	if f.cancel != nil {
		f.cancel()
	}
}

func (f *Facade) Pause()                           { f.engine.Pause() }
func (f *Facade) Resume()                          { f.engine.Resume() }
func (f *Facade) SetContinuousMode(on bool)        { f.engine.SetContinuousMode(on) }
func (f *Facade) SetStepLimit(n int)               { f.engine.SetStepLimit(n) }

func (f *Facade) GetSnapshot() engine.SimulationSnapshot { return f.engine.GetSnapshot() }
func (f *Facade) GetRoads() []core.RoadID                { return f.engine.GetRoads() }
func (f *Facade) GetTrafficLights() []engine.LightSpec   { return f.engine.GetTrafficLights() }

func (f *Facade) SetTrafficLights(specs []engine.LightSpec) { f.engine.SetTrafficLights(specs) }
func (f *Facade) SetFlowRates(specs []engine.FlowRateSpec)  { f.engine.SetFlowRates(specs) }
func (f *Facade) StartSpawning()                            { f.engine.StartSpawning() }
func (f *Facade) StopSpawning()                              { f.engine.StopSpawning() }

// StartReactiveRun runs one GA pass against the live network snapshot,
// persists the run (when a run store is configured) and returns its
// summary. The winning chromosome is not applied to the live engine.
func (f *Facade) StartReactiveRun(params RunParams) (RunSummary, error) {
	network := f.engine.SnapshotNetwork()
	lightCount := fitness.CountLights(network)
	if lightCount == 0 {
		return RunSummary{}, fmt.Errorf("control: network has no traffic lights")
	}

	evaluator := fitness.New(fitness.Config{SimulationSteps: 500, DtSeconds: 0.1, SampleEvery: 10, MaxSpeed: 20})
	baseline := evaluator.RunBaseline(network)

	alg := ga.New(params.GA)
	best := alg.Evolve(lightCount, func(c ga.Chromosome) float64 {
		return evaluator.Run(network, c)
	})

	improvement := 0.0
	if baseline != 0 {
		improvement = (baseline - best.Fitness) / baseline * 100
	}

	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	status := "COMPLETE"
	if f.runs != nil {
		genes := make([]persist.GeneRecord, len(best.Genes))
		for i, g := range best.Genes {
			genes[i] = persist.GeneRecord{GreenTime: g.Green, RedTime: g.Red}
		}
		stats := make([]persist.GenerationStat, len(alg.FitnessHistory()))
		for i, fit := range alg.FitnessHistory() {
			stats[i] = persist.GenerationStat{Generation: i, BestFitness: fit}
		}
		f.runs.SaveRun(persist.OptimizationRun{
			RunID: runID, StartedAt: time.Now().Unix(), Mode: "reactive",
			Generations: stats, Chromosome: genes,
			BaselineFitness: baseline, BestFitness: best.Fitness,
			ImprovementPercent: improvement, Status: status,
		})
	}

	return RunSummary{
		RunID: runID, Mode: "reactive", BaselineFitness: baseline,
		BestFitness: best.Fitness, ImprovementPercent: improvement, Status: status,
	}, nil
}

// StartContinuousOpt launches the background optimization controller.
func (f *Facade) StartContinuousOpt(cfg ContinuousOptConfig) error {
	if f.controller == nil {
		return fmt.Errorf("control: no controller configured")
	}
	go f.controller.Run()
	return nil
}

// StopContinuousOpt halts the background optimization controller.
func (f *Facade) StopContinuousOpt() {
	if f.controller != nil {
		f.controller.Stop()
	}
}

// ApplyRun re-applies a previously persisted run's chromosome.
func (f *Facade) ApplyRun(runID string) error {
	if f.runs == nil {
		return fmt.Errorf("control: no run store configured")
	}
	run, ok := f.runs.GetRun(runID)
	if !ok {
		return fmt.Errorf("control: run %q not found", runID)
	}
	lights := f.engine.GetTrafficLights()
	for i, l := range lights {
		if i >= len(run.Chromosome) {
			break
		}
		g := run.Chromosome[i]
		f.engine.SetTrafficLights([]engine.LightSpec{{RoadID: l.RoadID, Lane: l.Lane, Green: g.GreenTime, Yellow: 3.0, Red: g.RedTime}})
	}
	return nil
}

// Rollback is not supported without a recorded prior-state snapshot;
// callers should capture a profile before applying a run if rollback
// is required.
func (f *Facade) Rollback() error {
	return fmt.Errorf("control: rollback requires a captured profile snapshot")
}

func (f *Facade) PredictCurrent() predictor.Result {
	return f.predict.PredictForecast(0)
}

func (f *Facade) PredictForecast(horizonMinutes int) predictor.Result {
	return f.predict.PredictForecast(horizonMinutes)
}

func (f *Facade) PredictRoad(roadID core.RoadID, horizonMinutes int) (predictor.RoadForecast, bool) {
	result := f.predict.PredictForecast(horizonMinutes)
	fc, ok := result.Roads[roadID]
	return fc, ok
}

func (f *Facade) SetPredictionConfig(cfg predictor.Config) {
	// Reconstructing the predictor with new tunables is the caller's
	// responsibility (it owns the pattern.Storage this Predictor reads
	// from); Facade only forwards read/predict calls.
}

func (f *Facade) AddODPair(pair persist.ODPair) {
	if f.travel != nil {
		f.travel.AddODPair(pair)
	}
}

func (f *Facade) RemoveODPair(id string) {
	if f.travel != nil {
		f.travel.RemoveODPair(id)
	}
}

func (f *Facade) ListStats(odID string) TravelTimeStats {
	if f.travel == nil {
		return TravelTimeStats{}
	}
	s := f.travel.GetStats(odID)
	return TravelTimeStats{Count: s.Count, Min: s.Min, Max: s.Max, Mean: s.Mean, P50: s.P50, P95: s.P95}
}

var _ Surface = (*Facade)(nil)
