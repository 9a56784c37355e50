package profile

import (
	"testing"

	"trafficsim/config"
	"trafficsim/core"
	"trafficsim/engine"
	"trafficsim/persist/memstore"
)

func newProfileTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg := config.LoadDefault()
	cfg.Simulation.Workers = 1
	e := engine.New(cfg)
	r := core.NewRoad(1, 300, 20, 1, 30, 3, 27, 0, 0, 0, 0, 0, 0, 0, 0)
	r.SpawnRatePerMinute = 5
	e.AddRoad(r)
	return e
}

func TestCaptureSnapshotsLiveSpawnRatesAndLightTimings(t *testing.T) {
	e := newProfileTestEngine(t)
	s := New(memstore.NewProfileStore())

	got := s.Capture(e, "morning")

	if got.SpawnRates[1] != 5 {
		t.Fatalf("expected captured spawn rate 5 for road 1, got %v", got.SpawnRates[1])
	}
	if len(got.LightTimings) != 1 || got.LightTimings[0].Green != 30 {
		t.Fatalf("expected captured light timings to match the live road, got %+v", got.LightTimings)
	}
	if saved, ok := s.Get("morning"); !ok || saved.Name != "morning" {
		t.Fatalf("expected Capture to persist the profile too")
	}
}

func TestApplyInstallsStoredTimingsAndSpawnRatesAndMarksActive(t *testing.T) {
	e := newProfileTestEngine(t)
	s := New(memstore.NewProfileStore())
	s.Capture(e, "baseline")

	e2 := newProfileTestEngine(t)
	e2.SetFlowRates([]engine.FlowRateSpec{{RoadID: 1, VehiclesPerMinute: 0}})

	if err := s.Apply(e2, "baseline"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	r, _ := e2.Road(1)
	if r.SpawnRatePerMinute != 5 {
		t.Fatalf("expected applied spawn rate 5, got %v", r.SpawnRatePerMinute)
	}

	active, ok := s.Active()
	if !ok || active.Name != "baseline" {
		t.Fatalf("expected 'baseline' to be marked active after Apply, got %+v ok=%v", active, ok)
	}
}

func TestApplyReturnsErrorForUnknownProfile(t *testing.T) {
	e := newProfileTestEngine(t)
	s := New(memstore.NewProfileStore())

	if err := s.Apply(e, "missing"); err == nil {
		t.Fatalf("expected an error applying an unregistered profile name")
	}
}
