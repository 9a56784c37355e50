package core

// VehicleSnapshot is an immutable copy of one vehicle's kinematic state,
// safe to read without the owning Road's lock.
type VehicleSnapshot struct {
	ID                  VehicleID
	Kind                VehicleKind
	Position            float64
	Velocity            float64
	Acceleration        float64
	Length              float64
	DesiredVelocity     float64
	Aggressivity        float64
	SafeHeadway         float64
	MaxAcceleration     float64
	ComfortDeceleration float64
	MinGap              float64
}

// LaneSnapshot is an immutable copy of one lane's vehicles, light state,
// and outgoing connections.
type LaneSnapshot struct {
	Vehicles    []VehicleSnapshot
	Phase       Phase
	Green       float64
	Yellow      float64
	Red         float64
	Counter     float64
	Connections []Connection
}

// RoadSnapshot is an immutable deep copy of a Road, the value threaded
// through FitnessEvaluator, TimingValidator, and PredictiveOptimizer so
// none of them ever touch the live engine's mutex-guarded state.
type RoadSnapshot struct {
	ID         RoadID
	Length     float64
	SpeedLimit float64
	LonA, LatA float64
	LonB, LatB float64
	XA, YA     float64
	XB, YB     float64
	Lanes      []LaneSnapshot

	SpawnRatePerMinute float64
}

func vehicleToSnapshot(v *Vehicle) VehicleSnapshot {
	return VehicleSnapshot{
		ID: v.ID, Kind: v.Kind, Position: v.Position, Velocity: v.Velocity,
		Acceleration: v.Acceleration, Length: v.Length, DesiredVelocity: v.DesiredVelocity,
		Aggressivity: v.Aggressivity, SafeHeadway: v.SafeHeadway, MaxAcceleration: v.MaxAcceleration,
		ComfortDeceleration: v.ComfortDeceleration, MinGap: v.MinGap,
	}
}

func vehicleFromSnapshot(vs VehicleSnapshot) *Vehicle {
	v := NewVehicle(vs.ID, vs.Velocity, vs.Aggressivity, vs.Length, vs.DesiredVelocity,
		vs.SafeHeadway, vs.MaxAcceleration, vs.ComfortDeceleration, vs.MinGap)
	v.Kind = vs.Kind
	v.Position = vs.Position
	v.Acceleration = vs.Acceleration
	return v
}

// Snapshot deep-copies the road's live state under its read lock.
func (r *Road) Snapshot() RoadSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lanes := make([]LaneSnapshot, len(r.lanes))
	for i := range r.lanes {
		ln := &r.lanes[i]
		vs := make([]VehicleSnapshot, len(ln.vehicles))
		for j, v := range ln.vehicles {
			vs[j] = vehicleToSnapshot(v)
		}
		green, yellow, red := ln.light.Durations()
		lanes[i] = LaneSnapshot{
			Vehicles:    vs,
			Phase:       ln.light.State(),
			Green:       green,
			Yellow:      yellow,
			Red:         red,
			Counter:     ln.light.Counter(),
			Connections: append([]Connection(nil), ln.connections...),
		}
	}

	return RoadSnapshot{
		ID: r.ID, Length: r.Length, SpeedLimit: r.SpeedLimit,
		LonA: r.LonA, LatA: r.LatA, LonB: r.LonB, LatB: r.LatB,
		XA: r.XA, YA: r.YA, XB: r.XB, YB: r.YB,
		Lanes:              lanes,
		SpawnRatePerMinute: r.SpawnRatePerMinute,
	}
}

// NewRoadFromSnapshot rebuilds a standalone Road from a RoadSnapshot,
// preserving each light's exact phase and counter (not re-randomized)
// so FitnessEvaluator and TimingValidator runs are reproducible.
func NewRoadFromSnapshot(s RoadSnapshot) *Road {
	r := &Road{
		ID: s.ID, Length: s.Length, SpeedLimit: s.SpeedLimit,
		LonA: s.LonA, LatA: s.LatA, LonB: s.LonB, LatB: s.LatB,
		XA: s.XA, YA: s.YA, XB: s.XB, YB: s.YB,
		lanes:              make([]lane, len(s.Lanes)),
		SpawnRatePerMinute: s.SpawnRatePerMinute,
	}
	for i, ls := range s.Lanes {
		r.lanes[i].light = NewTrafficLight(ls.Green, ls.Yellow, ls.Red)
		r.lanes[i].light.SetCount(ls.Phase, ls.Counter)
		r.lanes[i].connections = append([]Connection(nil), ls.Connections...)
		vs := make([]*Vehicle, len(ls.Vehicles))
		for j, snap := range ls.Vehicles {
			vs[j] = vehicleFromSnapshot(snap)
		}
		r.lanes[i].vehicles = vs
	}
	return r
}

// RoadMetrics is the per-road input PatternStorage and MetricsCollector
// consume, sampled at a point in time.
type RoadMetrics struct {
	RoadID       RoadID
	VehicleCount int
	QueueLength  int
	AvgSpeed     float64
	FlowRate     float64 // vehicles/hour, derived from exit deltas by the caller
}

// QueueThresholdDistance and QueueThresholdSpeed implement the "near the
// stop line and slow" queue-membership rule shared by MetricsCollector,
// TrafficPredictor, and TravelTimeCollector (spec 4.5/4.9).
const (
	QueueThresholdDistance = 50.0
	QueueThresholdSpeed    = 2.0
)

// ComputeMetrics samples the road's current vehicle count, queue
// length, and mean speed under its read lock.
func (r *Road) ComputeMetrics() RoadMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	queue := 0
	speedSum := 0.0
	for i := range r.lanes {
		for _, v := range r.lanes[i].vehicles {
			count++
			speedSum += v.Velocity
			if v.Position >= r.Length-QueueThresholdDistance && v.Velocity < QueueThresholdSpeed {
				queue++
			}
		}
	}
	avgSpeed := 0.0
	if count > 0 {
		avgSpeed = speedSum / float64(count)
	}
	return RoadMetrics{RoadID: r.ID, VehicleCount: count, QueueLength: queue, AvgSpeed: avgSpeed}
}

// DrainExited reads and resets the count of vehicles that left the
// network from this road since the last call.
func (r *Road) DrainExited() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.ExitedCount
	r.ExitedCount = 0
	return n
}
