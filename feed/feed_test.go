package feed

import (
	"testing"
	"time"

	"trafficsim/core"
	"trafficsim/pattern"
	"trafficsim/persist"
	"trafficsim/persist/memstore"
)

func TestGenerateFallsBackToCapacityEstimateWithoutPattern(t *testing.T) {
	store := pattern.New(pattern.Config{}, memstore.NewSnapshotStore(), memstore.NewPatternStore())
	f := New(Config{}, store, []RoadCapacity{{RoadID: 1, Capacity: 40}}, 42)

	snap := f.generate()
	e, ok := snap.Entries[1]
	if !ok {
		t.Fatalf("expected an entry for road 1")
	}
	if e.ExpectedVehicleCount < 40*0.3 || e.ExpectedVehicleCount > 40*0.5 {
		t.Fatalf("expected fallback estimate within [30%%,50%%] of capacity, got %v", e.ExpectedVehicleCount)
	}
	if e.Confidence != 0.5 {
		t.Fatalf("expected fallback confidence 0.5, got %v", e.Confidence)
	}
}

func TestGenerateUsesPatternWhenPresent(t *testing.T) {
	snaps := memstore.NewSnapshotStore()
	patts := memstore.NewPatternStore()
	store := pattern.New(pattern.Config{}, snaps, patts)

	dow, slot := pattern.SlotFor(time.Now())
	patts.Upsert(persist.TrafficPattern{RoadID: 1, DayOfWeek: dow, TimeSlot: slot, AvgCount: 20, StdDevCount: 0, AvgSpeed: 15, SampleCount: 20})

	f := New(Config{}, store, []RoadCapacity{{RoadID: 1, Capacity: 40}}, 42)
	snap := f.generate()

	e := snap.Entries[1]
	if e.ExpectedVehicleCount != 20 {
		t.Fatalf("expected pattern-derived count 20 (zero stddev), got %v", e.ExpectedVehicleCount)
	}
	if e.Confidence != 1 {
		t.Fatalf("expected confidence clamped to 1 for a well-sampled pattern, got %v", e.Confidence)
	}
}

func TestSubscribeReceivesGeneratedSnapshotsAndStopTerminates(t *testing.T) {
	store := pattern.New(pattern.Config{}, memstore.NewSnapshotStore(), memstore.NewPatternStore())
	f := New(Config{UpdateIntervalMs: 100}, store, []RoadCapacity{{RoadID: 1, Capacity: 10}}, 1)

	received := make(chan Snapshot, 1)
	f.Subscribe(func(s Snapshot) {
		select {
		case received <- s:
		default:
		}
	})

	f.Start()
	defer f.Stop()

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected at least one snapshot delivered to the subscriber")
	}
}

func TestStartIsIdempotentWhileRunning(t *testing.T) {
	store := pattern.New(pattern.Config{}, memstore.NewSnapshotStore(), memstore.NewPatternStore())
	f := New(Config{UpdateIntervalMs: 500}, store, nil, 1)

	f.Start()
	f.Start() // must be a no-op, not spawn a second goroutine
	f.Stop()
}
