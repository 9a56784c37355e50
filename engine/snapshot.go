package engine

import (
	"trafficsim/core"
	"trafficsim/geo"
)

// VehicleView is one vehicle's state as exposed to the control plane,
// with its planar position projected to lon/lat.
type VehicleView struct {
	ID           core.VehicleID
	RoadID       core.RoadID
	Lane         int
	Position     float64
	Velocity     float64
	Acceleration float64
	Lon, Lat     float64
}

// LightView is one traffic light's state as exposed to the control plane.
type LightView struct {
	RoadID   core.RoadID
	Lane     int
	State    core.Phase
	Lon, Lat float64
}

// SimulationSnapshot is the payload GetSnapshot produces for the
// HTTP/SSE control plane (spec 6). It carries every vehicle and light;
// no viewport filtering is applied here.
type SimulationSnapshot struct {
	Step     int
	Time     float64
	Vehicles []VehicleView
	Lights   []LightView
}

func interpolate(frac float64, xa, ya, xb, yb float64) (x, y float64) {
	return xa + frac*(xb-xa), ya + frac*(yb-ya)
}

// GetSnapshot builds the full viewport payload under the engine's read
// lock. Callers needing only the raw per-road state for GA/validator
// use should call SnapshotNetwork instead.
func (e *Engine) GetSnapshot() SimulationSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := SimulationSnapshot{Step: e.step, Time: e.simulationTime}
	for id, r := range e.cityMap {
		snap := r.Snapshot()
		for laneIdx, ln := range snap.Lanes {
			for _, v := range ln.Vehicles {
				frac := 0.0
				if snap.Length > 0 {
					frac = v.Position / snap.Length
				}
				x, y := interpolate(frac, snap.XA, snap.YA, snap.XB, snap.YB)
				lon, lat := geo.ToGeo(geo.Point{X: x, Y: y})
				out.Vehicles = append(out.Vehicles, VehicleView{
					ID: v.ID, RoadID: id, Lane: laneIdx,
					Position: v.Position, Velocity: v.Velocity, Acceleration: v.Acceleration,
					Lon: lon, Lat: lat,
				})
			}
			lon, lat := geo.ToGeo(geo.Point{X: snap.XB, Y: snap.YB})
			out.Lights = append(out.Lights, LightView{
				RoadID: id, Lane: laneIdx, State: ln.Phase, Lon: lon, Lat: lat,
			})
		}
	}
	return out
}

// SnapshotNetwork copies every road's state in one pass under the
// engine's read lock, the single entry point GA/validator/predictive
// callers use so none of them open-codes mutex acquisition over the
// live map.
func (e *Engine) SnapshotNetwork() map[core.RoadID]core.RoadSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[core.RoadID]core.RoadSnapshot, len(e.cityMap))
	for id, r := range e.cityMap {
		out[id] = r.Snapshot()
	}
	return out
}

// CurrentRoadMetrics satisfies predictor.CurrentStateSource: a live
// per-road metrics snapshot taken under the engine's read lock.
func (e *Engine) CurrentRoadMetrics() map[core.RoadID]core.RoadMetrics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[core.RoadID]core.RoadMetrics, len(e.cityMap))
	for id, r := range e.cityMap {
		out[id] = r.ComputeMetrics()
	}
	return out
}

// GetRoads returns the road ids currently registered.
func (e *Engine) GetRoads() []core.RoadID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]core.RoadID, 0, len(e.cityMap))
	for id := range e.cityMap {
		ids = append(ids, id)
	}
	return ids
}

// LightSpec names a traffic light by (road, lane) and the green/yellow/
// red durations to install on it, the wire shape setTrafficLights takes.
type LightSpec struct {
	RoadID core.RoadID
	Lane   int
	Green  float64
	Yellow float64
	Red    float64
}

// GetTrafficLights reports every light's current durations, in the
// deterministic (roadId asc, lane asc) order the chromosome
// serialization contract requires.
func (e *Engine) GetTrafficLights() []LightSpec {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return collectLightSpecs(e.cityMap)
}

func collectLightSpecs(cityMap map[core.RoadID]*core.Road) []LightSpec {
	ids := make([]core.RoadID, 0, len(cityMap))
	for id := range cityMap {
		ids = append(ids, id)
	}
	sortRoadIDs(ids)

	var out []LightSpec
	for _, id := range ids {
		lights := cityMap[id].GetTrafficLightsMutable()
		for lane, tl := range lights {
			g, y, r := tl.Durations()
			out = append(out, LightSpec{RoadID: id, Lane: lane, Green: g, Yellow: y, Red: r})
		}
	}
	return out
}

func sortRoadIDs(ids []core.RoadID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// SetTrafficLights installs new durations directly (bypassing gradual
// transition), used by profile activation and by tests.
func (e *Engine) SetTrafficLights(specs []LightSpec) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, spec := range specs {
		r, ok := e.cityMap[spec.RoadID]
		if !ok {
			continue
		}
		lights := r.GetTrafficLightsMutable()
		if spec.Lane < 0 || spec.Lane >= len(lights) {
			continue
		}
		lights[spec.Lane].SetTimings(spec.Green, spec.Yellow, spec.Red)
	}
}

// FlowRateSpec names a per-lane spawn rate, the wire shape setFlowRates takes.
type FlowRateSpec struct {
	RoadID        core.RoadID
	Lane          int
	VehiclesPerMinute float64
}

// SetFlowRates installs per-road spawn rates. Lane is accepted for wire
// compatibility but spawning is modeled per-road (lane 0 only), matching
// SpawnVehicle's own lane-0 admissibility rule. Mutates road state, so
// like SetTrafficLights it takes the write lock, not a read lock.
func (e *Engine) SetFlowRates(specs []FlowRateSpec) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, spec := range specs {
		if r, ok := e.cityMap[spec.RoadID]; ok {
			r.SpawnRatePerMinute = spec.VehiclesPerMinute
		}
	}
}

// StartSpawning and StopSpawning toggle the per-road spawning flag for
// every road currently in the city map.
func (e *Engine) StartSpawning() {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, r := range e.cityMap {
		r.SetSpawning(true)
	}
}

func (e *Engine) StopSpawning() {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, r := range e.cityMap {
		r.SetSpawning(false)
	}
}
