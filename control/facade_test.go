package control

import (
	"testing"

	"trafficsim/config"
	"trafficsim/core"
	"trafficsim/engine"
	"trafficsim/ga"
	"trafficsim/persist"
	"trafficsim/persist/memstore"
)

func newFacadeTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg := config.LoadDefault()
	cfg.Simulation.Workers = 1
	e := engine.New(cfg)
	r := core.NewRoad(1, 300, 20, 1, 30, 3, 27, 0, 0, 0, 0, 0, 0, 0, 0)
	for i := 0; i < 5; i++ {
		r.SpawnVehicle(0, 10, 0.5, e.VehicleDefaults())
	}
	e.AddRoad(r)
	return e
}

func smallGAConfig() ga.Config {
	return ga.Config{PopulationSize: 6, Generations: 3, Seed: 1, MinGreen: 10, MaxGreen: 60, MinRed: 10, MaxRed: 60}
}

func TestStartReactiveRunRejectsNetworkWithoutLights(t *testing.T) {
	cfg := config.LoadDefault()
	cfg.Simulation.Workers = 1
	e := engine.New(cfg)
	f := New(e, nil, nil, nil, nil)

	_, err := f.StartReactiveRun(RunParams{GA: smallGAConfig()})
	if err == nil {
		t.Fatalf("expected an error for a network with no traffic lights")
	}
}

func TestStartReactiveRunPersistsARunWithFullChromosome(t *testing.T) {
	e := newFacadeTestEngine(t)
	runs := memstore.NewRunStore()
	f := New(e, nil, nil, nil, runs)

	summary, err := f.StartReactiveRun(RunParams{GA: smallGAConfig()})
	if err != nil {
		t.Fatalf("StartReactiveRun failed: %v", err)
	}
	if summary.Mode != "reactive" {
		t.Fatalf("expected mode 'reactive', got %q", summary.Mode)
	}

	saved, ok := runs.GetRun(summary.RunID)
	if !ok {
		t.Fatalf("expected the run to be persisted under its RunID")
	}
	if len(saved.Chromosome) == 0 {
		t.Fatalf("expected a non-empty persisted chromosome")
	}
	if len(saved.Generations) == 0 {
		t.Fatalf("expected non-empty persisted generation stats")
	}
}

func TestApplyRunReturnsErrorForUnknownRunID(t *testing.T) {
	e := newFacadeTestEngine(t)
	runs := memstore.NewRunStore()
	f := New(e, nil, nil, nil, runs)

	if err := f.ApplyRun("nonexistent"); err == nil {
		t.Fatalf("expected an error applying an unknown run id")
	}
}

func TestApplyRunInstallsPersistedGeneDurations(t *testing.T) {
	e := newFacadeTestEngine(t)
	runs := memstore.NewRunStore()
	f := New(e, nil, nil, nil, runs)

	runs.SaveRun(persist.OptimizationRun{
		RunID:      "run-1",
		Chromosome: []persist.GeneRecord{{GreenTime: 45, RedTime: 22}},
	})

	if err := f.ApplyRun("run-1"); err != nil {
		t.Fatalf("ApplyRun failed: %v", err)
	}

	lights := e.GetTrafficLights()
	if len(lights) != 1 || lights[0].Green != 45 || lights[0].Red != 22 {
		t.Fatalf("expected applied gene durations to be installed, got %+v", lights)
	}
}

func TestStartContinuousOptFailsWithoutController(t *testing.T) {
	e := newFacadeTestEngine(t)
	f := New(e, nil, nil, nil, nil)

	if err := f.StartContinuousOpt(ContinuousOptConfig{}); err == nil {
		t.Fatalf("expected an error starting continuous optimization without a configured controller")
	}
}

func TestRollbackIsUnsupported(t *testing.T) {
	e := newFacadeTestEngine(t)
	f := New(e, nil, nil, nil, nil)

	if err := f.Rollback(); err == nil {
		t.Fatalf("expected Rollback to report unsupported without a captured profile")
	}
}
