package core

import "testing"

func testDefaults() VehicleDefaults {
	return VehicleDefaults{
		Length: 4.5, DesiredVelocity: 15, SafeHeadway: 1.5,
		MaxAcceleration: 1.5, ComfortDeceleration: 2.0, MinGap: 2.0,
	}
}

func TestSpawnVehicleRejectedWhenFrontBlocked(t *testing.T) {
	r := NewRoad(NewRoadID(), 500, 15, 1, 10, 3, 10, 0, 0, 0, 0, 0, 0, 0, 0)
	defaults := testDefaults()

	if _, ok := r.SpawnVehicle(0, 10, 0.5, defaults); !ok {
		t.Fatalf("expected first spawn into an empty lane to succeed")
	}
	if _, ok := r.SpawnVehicle(0, 10, 0.5, defaults); ok {
		t.Fatalf("expected second spawn to be rejected while the lane-0 vehicle still blocks the front")
	}
}

func TestAddVehicleInsertsInPositionOrder(t *testing.T) {
	r := NewRoad(NewRoadID(), 500, 15, 1, 10, 3, 10, 0, 0, 0, 0, 0, 0, 0, 0)
	v1 := &Vehicle{ID: 1, Kind: KindCar, Position: 100}
	v2 := &Vehicle{ID: 2, Kind: KindCar, Position: 50}
	v3 := &Vehicle{ID: 3, Kind: KindCar, Position: 200}

	r.AddVehicle(v1, 0)
	r.AddVehicle(v2, 0)
	r.AddVehicle(v3, 0)

	got := r.GetVehicles()[0]
	if len(got) != 3 || got[0].ID != 2 || got[1].ID != 1 || got[2].ID != 3 {
		t.Fatalf("expected vehicles ordered by position, got %+v", got)
	}
}

func TestAddVehicleOutOfRangeLaneClampsToZero(t *testing.T) {
	r := NewRoad(NewRoadID(), 500, 15, 2, 10, 3, 10, 0, 0, 0, 0, 0, 0, 0, 0)
	v := &Vehicle{ID: 1, Kind: KindCar, Position: 10}

	r.AddVehicle(v, 99)

	lanes := r.GetVehicles()
	if len(lanes[0]) != 1 || len(lanes[1]) != 0 {
		t.Fatalf("expected out-of-range lane index to clamp to lane 0, got %+v", lanes)
	}
}

func TestRoadChangeDrainsExitedCountWhenNoConnections(t *testing.T) {
	r := NewRoad(NewRoadID(), 10, 15, 1, 1000, 1, 1000, 0, 0, 0, 0, 0, 0, 0, 0)
	r.lanes[0].light.SetCount(Green, 0) // NewRoad picks a random phase; leaving needs green
	v := &Vehicle{
		ID: 1, Kind: KindCar, Position: 9.9, Velocity: 10, Length: 4.5,
		DesiredVelocity: 15, SafeHeadway: 1.5, MaxAcceleration: 1.5,
		ComfortDeceleration: 2.0, MinGap: 2.0, AccelExponent: DefaultAccelExponent,
	}
	r.AddVehicle(v, 0)

	cityMap := map[RoadID]*Road{r.ID: r}
	defaults := testDefaults()
	fronts := map[RoadID]FrontSnapshot{r.ID: r.FrontPosition(0)}
	var transitions []RoadTransition
	r.Update(1.0, cityMap, defaults, &transitions, fronts)

	if len(transitions) != 0 {
		t.Fatalf("expected no transitions without outgoing connections, got %+v", transitions)
	}
	if r.DrainExited() != 1 {
		t.Fatalf("expected the vehicle leaving the road to be counted as exited")
	}
}

func TestRoadChangeEmitsTransitionToConnectedRoad(t *testing.T) {
	src := NewRoad(NewRoadID(), 10, 15, 1, 1000, 1, 1000, 0, 0, 0, 0, 0, 0, 0, 0)
	dst := NewRoad(NewRoadID(), 500, 15, 1, 1000, 1, 1000, 0, 0, 0, 0, 0, 0, 0, 0)
	src.lanes[0].light.SetCount(Green, 0) // NewRoad picks a random phase; leaving needs green
	src.AddLaneConnection(0, dst.ID, 1.0)

	v := &Vehicle{
		ID: 1, Kind: KindCar, Position: 9.9, Velocity: 10, Length: 4.5,
		DesiredVelocity: 15, SafeHeadway: 1.5, MaxAcceleration: 1.5,
		ComfortDeceleration: 2.0, MinGap: 2.0, AccelExponent: DefaultAccelExponent,
	}
	src.AddVehicle(v, 0)

	cityMap := map[RoadID]*Road{src.ID: src, dst.ID: dst}
	defaults := testDefaults()
	fronts := map[RoadID]FrontSnapshot{src.ID: src.FrontPosition(0), dst.ID: dst.FrontPosition(0)}
	var transitions []RoadTransition
	src.Update(1.0, cityMap, defaults, &transitions, fronts)

	if len(transitions) != 1 {
		t.Fatalf("expected one transition handoff, got %d", len(transitions))
	}
	if transitions[0].DestRoadID != dst.ID || transitions[0].DestLane != 0 {
		t.Fatalf("unexpected transition target: %+v", transitions[0])
	}
}

func TestRoadChangeToSelfLoopDoesNotDeadlock(t *testing.T) {
	r := NewRoad(NewRoadID(), 10, 15, 1, 1000, 1, 1000, 0, 0, 0, 0, 0, 0, 0, 0)
	r.lanes[0].light.SetCount(Green, 0) // NewRoad picks a random phase; leaving needs green
	r.AddLaneConnection(0, r.ID, 1.0)

	v := &Vehicle{
		ID: 1, Kind: KindCar, Position: 9.9, Velocity: 10, Length: 4.5,
		DesiredVelocity: 15, SafeHeadway: 1.5, MaxAcceleration: 1.5,
		ComfortDeceleration: 2.0, MinGap: 2.0, AccelExponent: DefaultAccelExponent,
	}
	r.AddVehicle(v, 0)

	cityMap := map[RoadID]*Road{r.ID: r}
	defaults := testDefaults()
	fronts := map[RoadID]FrontSnapshot{r.ID: r.FrontPosition(0)}
	var transitions []RoadTransition
	r.Update(1.0, cityMap, defaults, &transitions, fronts)

	if len(transitions) != 1 || transitions[0].DestRoadID != r.ID {
		t.Fatalf("expected a self-loop transition, got %+v", transitions)
	}
}

func TestSnapshotRoundTripPreservesLightPhaseAndCounter(t *testing.T) {
	r := NewRoad(NewRoadID(), 500, 15, 1, 10, 3, 10, 0, 0, 0, 0, 0, 0, 0, 0)
	r.lanes[0].light.SetCount(Yellow, 1.25)
	v := &Vehicle{ID: 1, Kind: KindCar, Position: 42, Velocity: 7}
	r.AddVehicle(v, 0)

	snap := r.Snapshot()
	rebuilt := NewRoadFromSnapshot(snap)

	lights := rebuilt.GetCurrentLightConfig()
	if lights[0] != Yellow {
		t.Fatalf("expected rebuilt road to preserve Yellow phase, got %v", lights[0])
	}
	got := rebuilt.GetVehicles()[0]
	if len(got) != 1 || got[0].Position != 42 {
		t.Fatalf("expected rebuilt road to preserve vehicle state, got %+v", got)
	}
}

func TestComputeMetricsCountsQueuedVehicles(t *testing.T) {
	r := NewRoad(NewRoadID(), 500, 15, 1, 10, 3, 10, 0, 0, 0, 0, 0, 0, 0, 0)
	queued := &Vehicle{ID: 1, Kind: KindCar, Position: 480, Velocity: 1.0}
	cruising := &Vehicle{ID: 2, Kind: KindCar, Position: 100, Velocity: 12.0}
	r.AddVehicle(queued, 0)
	r.AddVehicle(cruising, 0)

	m := r.ComputeMetrics()
	if m.VehicleCount != 2 {
		t.Fatalf("expected VehicleCount=2, got %d", m.VehicleCount)
	}
	if m.QueueLength != 1 {
		t.Fatalf("expected QueueLength=1 (only the slow near-stop-line vehicle), got %d", m.QueueLength)
	}
}

func TestAdmitsAtFrontEmptyLaneAlwaysAdmits(t *testing.T) {
	r := NewRoad(NewRoadID(), 500, 15, 1, 10, 3, 10, 0, 0, 0, 0, 0, 0, 0, 0)
	if !r.AdmitsAtFront(0, 4.5, 2.0) {
		t.Fatalf("expected an empty lane to admit at the front")
	}
}

func TestAdmitsAtFrontOutOfRangeLaneRejects(t *testing.T) {
	r := NewRoad(NewRoadID(), 500, 15, 1, 10, 3, 10, 0, 0, 0, 0, 0, 0, 0, 0)
	if r.AdmitsAtFront(5, 4.5, 2.0) {
		t.Fatalf("expected out-of-range lane to be rejected, not admitted")
	}
}
