package core

import (
	"math/rand/v2"
	"sync"
)

// Connection is a weighted outgoing edge from one lane to a lane 0 of
// another road. Weights are normalized at selection time.
type Connection struct {
	DestRoadID RoadID
	Weight     float64
}

// lane holds one ordered-by-position vehicle sequence, its guarding
// light, and its outgoing connections.
type lane struct {
	vehicles    []*Vehicle
	light       *TrafficLight
	connections []Connection
}

// VehicleDefaults supplies the IDM parameters a Road uses to construct
// freshly spawned vehicles, decoupling core from the config package.
type VehicleDefaults struct {
	Length              float64
	DesiredVelocity     float64
	SafeHeadway         float64
	MaxAcceleration     float64
	ComfortDeceleration float64
	MinGap              float64
}

// RoadTransition is a vehicle handoff emitted by Road.Update when a
// vehicle reaches the road end and a destination admits it. DestLane is
// always 0 today (spec 9: smarter destination lane choice is future work).
type RoadTransition struct {
	Vehicle    *Vehicle
	DestRoadID RoadID
	DestLane   int
}

// Road is a one-way segment bounded by one light per lane.
type Road struct {
	mu sync.RWMutex

	ID         RoadID
	Length     float64
	SpeedLimit float64

	LonA, LatA float64
	LonB, LatB float64
	XA, YA     float64
	XB, YB     float64

	lanes []lane

	SpawnRatePerMinute float64
	spawningEnabled    bool

	ExitedCount int
}

// NewRoad constructs a road with numLanes lanes, each guarded by an
// independently phase-randomized traffic light of the given timings.
func NewRoad(id RoadID, length, speedLimit float64, numLanes int, green, yellow, red float64, lonA, latA, lonB, latB, xA, yA, xB, yB float64) *Road {
	if numLanes < 1 {
		numLanes = 1
	}
	r := &Road{
		ID:         id,
		Length:     length,
		SpeedLimit: speedLimit,
		LonA:       lonA, LatA: latA, LonB: lonB, LatB: latB,
		XA: xA, YA: yA, XB: xB, YB: yB,
		lanes: make([]lane, numLanes),
	}
	for i := range r.lanes {
		r.lanes[i].light = NewTrafficLight(green, yellow, red)
	}
	return r
}

// NumLanes returns the lane count.
func (r *Road) NumLanes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lanes)
}

// AddLaneConnection appends a weighted outgoing connection to lane.
func (r *Road) AddLaneConnection(laneIdx int, destRoadID RoadID, weight float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if laneIdx < 0 || laneIdx >= len(r.lanes) {
		return
	}
	r.lanes[laneIdx].connections = append(r.lanes[laneIdx].connections, Connection{destRoadID, weight})
}

// SetSpawning enables or disables the background spawn step for this road.
func (r *Road) SetSpawning(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spawningEnabled = enabled
}

// SpawningEnabled reports whether the spawn step should run for this road.
func (r *Road) SpawningEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.spawningEnabled
}

func insertOrdered(ln *lane, v *Vehicle) {
	idx := len(ln.vehicles)
	for i, other := range ln.vehicles {
		if v.Position < other.Position {
			idx = i
			break
		}
	}
	ln.vehicles = append(ln.vehicles, nil)
	copy(ln.vehicles[idx+1:], ln.vehicles[idx:])
	ln.vehicles[idx] = v
}

// AddVehicle inserts v into laneIdx ordered by position and appends r.ID
// to v's itinerary. An out-of-range lane is clamped to 0 rather than
// rejected, matching the LaneOutOfRange recovery policy.
func (r *Road) AddVehicle(v *Vehicle, laneIdx int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if laneIdx < 0 || laneIdx >= len(r.lanes) {
		laneIdx = 0
	}
	v.Itinerary = append(v.Itinerary, r.ID)
	insertOrdered(&r.lanes[laneIdx], v)
	return true
}

// admitsAtFront reports whether a vehicle of the given length/minGap can
// be inserted at position 0 of laneIdx: true when the lane is empty or
// its first (lowest-position) vehicle is far enough ahead.
func (r *Road) admitsAtFront(laneIdx int, length, minGap float64) bool {
	ln := &r.lanes[laneIdx]
	if len(ln.vehicles) == 0 {
		return true
	}
	return ln.vehicles[0].Position >= length+minGap
}

// AdmitsAtFront is the read-locked public form of admitsAtFront, used
// by callers outside Phase A (profile capture, tests) that are not
// already holding another road's write lock. Phase A itself must never
// call this on a different road: see FrontPosition.
func (r *Road) AdmitsAtFront(laneIdx int, length, minGap float64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if laneIdx < 0 || laneIdx >= len(r.lanes) {
		return false
	}
	return r.admitsAtFront(laneIdx, length, minGap)
}

// FrontSnapshot is a road's lane-0 foremost-vehicle position, taken
// serially for every road before Phase A starts so that the parallel
// per-road workers never need to acquire another road's lock (or their
// own road's lock reentrantly, for a lane that connects back to
// itself) while holding their own write lock. Staleness is bounded to
// "as of the start of this tick," matching the rest of Phase A's
// read-only cityMap contract.
type FrontSnapshot struct {
	Position float64
	Occupied bool
}

// FrontPosition reports laneIdx's foremost (lowest-position) vehicle's
// position, read-locked. Called once per road, sequentially, by the
// engine before launching Phase A's worker pool.
func (r *Road) FrontPosition(laneIdx int) FrontSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if laneIdx < 0 || laneIdx >= len(r.lanes) {
		return FrontSnapshot{}
	}
	ln := &r.lanes[laneIdx]
	if len(ln.vehicles) == 0 {
		return FrontSnapshot{}
	}
	return FrontSnapshot{Position: ln.vehicles[0].Position, Occupied: true}
}

func admitsFront(snap FrontSnapshot, length, minGap float64) bool {
	if !snap.Occupied {
		return true
	}
	return snap.Position >= length+minGap
}

// SpawnVehicle creates a fresh vehicle at position 0 of laneIdx with the
// supplied velocity/aggressivity, admitted only if the lane is empty or
// its first vehicle sits at least defaults.Length+defaults.MinGap ahead.
func (r *Road) SpawnVehicle(laneIdx int, velocity, aggressivity float64, defaults VehicleDefaults) (*Vehicle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if laneIdx < 0 || laneIdx >= len(r.lanes) {
		return nil, false
	}
	if !r.admitsAtFront(laneIdx, defaults.Length, defaults.MinGap) {
		return nil, false
	}
	v := NewVehicle(NewVehicleID(), velocity, aggressivity, defaults.Length, defaults.DesiredVelocity,
		defaults.SafeHeadway, defaults.MaxAcceleration, defaults.ComfortDeceleration, defaults.MinGap)
	v.Itinerary = append(v.Itinerary, r.ID)
	insertOrdered(&r.lanes[laneIdx], v)
	return v, true
}

// GetCurrentLightConfig reports each lane's current phase.
func (r *Road) GetCurrentLightConfig() []Phase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Phase, len(r.lanes))
	for i := range r.lanes {
		out[i] = r.lanes[i].light.State()
	}
	return out
}

// GetTrafficLightsMutable returns the lights in lane order, for the GA
// and controller to read/install timings directly.
func (r *Road) GetTrafficLightsMutable() []*TrafficLight {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*TrafficLight, len(r.lanes))
	for i := range r.lanes {
		out[i] = r.lanes[i].light
	}
	return out
}

// GetVehicles returns a shallow per-lane copy of the vehicle slices.
func (r *Road) GetVehicles() [][]*Vehicle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([][]*Vehicle, len(r.lanes))
	for i := range r.lanes {
		out[i] = append([]*Vehicle(nil), r.lanes[i].vehicles...)
	}
	return out
}

func selectWeightedConnection(conns []Connection) RoadID {
	total := 0.0
	for _, c := range conns {
		total += c.Weight
	}
	if total <= 0 {
		return conns[len(conns)-1].DestRoadID
	}
	r := rand.Float64() * total
	cumulative := 0.0
	for _, c := range conns {
		cumulative += c.Weight
		if r <= cumulative {
			return c.DestRoadID
		}
	}
	return conns[len(conns)-1].DestRoadID
}

// findNeighbors locates, in an ordered lane, the first vehicle ahead of
// position (the candidate leader) and the last vehicle behind it (the
// candidate follower), returning absent sentinels when none exist.
func findNeighbors(ln *lane, position float64) (leader, follower *Vehicle) {
	leader = AbsentLeader()
	follower = AbsentFollower()
	for _, v := range ln.vehicles {
		if v.Position > position {
			leader = v
			break
		}
		follower = v
	}
	return leader, follower
}

// attemptLaneChange tries, in left-then-right preference, to move v out
// of laneIdx per the MOBIL predicate. It mutates r.lanes directly
// (already holding r.mu from Update) and returns true if v was
// reinserted into another lane.
func (r *Road) attemptLaneChange(v *Vehicle, laneIdx int, currentLeader *Vehicle) bool {
	if !isAbsent(currentLeader) {
		gap := currentLeader.Position - v.Position - currentLeader.Length
		if gap > LaneChangeLookahead {
			return false
		}
	}

	for _, candidate := range [2]int{laneIdx + 1, laneIdx - 1} {
		if candidate < 0 || candidate >= len(r.lanes) {
			continue
		}
		candLeader, candFollower := findNeighbors(&r.lanes[candidate], v.Position)
		if v.CanChangeLane(currentLeader, candLeader, candFollower) {
			insertOrdered(&r.lanes[candidate], v)
			return true
		}
	}
	return false
}

// attemptRoadChange tries to hand v off to a connected road. It returns
// true if v must be removed from its current lane (either because it
// exited the network or because a transition was emitted); false means
// v stays put for another tick (destination full). fronts holds every
// road's lane-0 snapshot taken before Phase A started, so no lock on
// any road but r itself is ever touched here.
func (r *Road) attemptRoadChange(v *Vehicle, laneIdx int, cityMap map[RoadID]*Road, defaults VehicleDefaults, outTransitions *[]RoadTransition, fronts map[RoadID]FrontSnapshot) bool {
	conns := r.lanes[laneIdx].connections
	if len(conns) == 0 {
		r.ExitedCount++
		return true
	}

	destID := selectWeightedConnection(conns)
	if _, ok := cityMap[destID]; !ok {
		r.ExitedCount++
		return true
	}

	if !admitsFront(fronts[destID], v.Length, defaults.MinGap) {
		return false
	}

	*outTransitions = append(*outTransitions, RoadTransition{Vehicle: v, DestRoadID: destID, DestLane: 0})
	return true
}

// Update runs one tick of this road: advance every lane's light, then
// process vehicles front-to-back, attempting road changes, lane
// changes, or simply propagating the leader. cityMap is read-only here
// and used only to confirm a connection's destination still exists;
// cross-road admissibility is decided from fronts, a snapshot the
// engine captures serially (no locks held concurrently) before launching
// Phase A, so this call never acquires another road's mutex while
// holding its own write lock.
func (r *Road) Update(dt float64, cityMap map[RoadID]*Road, defaults VehicleDefaults, outTransitions *[]RoadTransition, fronts map[RoadID]FrontSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for laneIdx := range r.lanes {
		ln := &r.lanes[laneIdx]
		ln.light.Update(dt)

		var leader *Vehicle
		if ln.light.IsGreen() {
			leader = AbsentLeader()
		} else {
			leader = NewTrafficLightSentinel(r.Length)
		}

		i := len(ln.vehicles) - 1
		isFrontmost := true
		for i >= 0 {
			current := ln.vehicles[i]
			current.Update(dt, leader)

			if isFrontmost && current.Position >= r.Length {
				if r.attemptRoadChange(current, laneIdx, cityMap, defaults, outTransitions, fronts) {
					ln.vehicles = append(ln.vehicles[:i], ln.vehicles[i+1:]...)
					i--
					isFrontmost = false
					continue
				}
			} else if current.SlowingDown && leader.Kind != KindTrafficLightSentinel {
				if r.attemptLaneChange(current, laneIdx, leader) {
					ln.vehicles = append(ln.vehicles[:i], ln.vehicles[i+1:]...)
					i--
					isFrontmost = false
					continue
				}
			}

			leader = current
			i--
			isFrontmost = false
		}
	}
}
