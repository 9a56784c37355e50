// Package traveltime tracks registered origin/destination pairs and
// computes percentile travel-time statistics from completed traversals.
package traveltime

import (
	"sort"
	"sync"
	"time"

	"trafficsim/core"
	"trafficsim/persist"
)

type trackedVehicle struct {
	vehicleID core.VehicleID
	startedAt time.Time
}

// Collector enrolls vehicles first seen on an OD pair's origin road and
// retires them on first sighting on the destination road, recording a
// TravelTimeSample through its ODStore.
type Collector struct {
	store persist.ODStore

	// mu guards byOrigin and tracked: AddODPair/RemoveODPair are called
	// from the control-plane goroutine while Update runs from the engine
	// tick goroutine, with no other lock shared between the two.
	mu sync.Mutex
	// byOrigin maps an origin road to the OD pairs that start there.
	byOrigin map[core.RoadID][]persist.ODPair
	// tracked maps odID -> vehicleID -> trackedVehicle.
	tracked map[string]map[core.VehicleID]trackedVehicle
}

// New builds a Collector backed by store.
func New(store persist.ODStore) *Collector {
	c := &Collector{
		store:    store,
		byOrigin: make(map[core.RoadID][]persist.ODPair),
		tracked:  make(map[string]map[core.VehicleID]trackedVehicle),
	}
	for _, p := range store.ListPairs() {
		c.byOrigin[p.OriginRoadID] = append(c.byOrigin[p.OriginRoadID], p)
		c.tracked[p.ID] = make(map[core.VehicleID]trackedVehicle)
	}
	return c
}

// AddODPair registers a new origin/destination pair.
func (c *Collector) AddODPair(p persist.ODPair) {
	c.store.AddPair(p)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.byOrigin[p.OriginRoadID] = append(c.byOrigin[p.OriginRoadID], p)
	if c.tracked[p.ID] == nil {
		c.tracked[p.ID] = make(map[core.VehicleID]trackedVehicle)
	}
}

// RemoveODPair unregisters pair id.
func (c *Collector) RemoveODPair(id string) {
	c.store.RemovePair(id)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tracked, id)
	for road, pairs := range c.byOrigin {
		kept := pairs[:0]
		for _, p := range pairs {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		c.byOrigin[road] = kept
	}
}

// Update is called once per tick (or every K ticks) with the live city
// map: it enrolls new vehicles on origin roads, retires vehicles that
// reached their destination, and silently drops trackers whose vehicle
// was not seen this tick (spec 4.13).
func (c *Collector) Update(cityMap map[core.RoadID]*core.Road, dt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	present := make(map[core.VehicleID]core.RoadID)
	for roadID, r := range cityMap {
		for _, lane := range r.GetVehicles() {
			for _, v := range lane {
				if v.Kind == core.KindCar {
					present[v.ID] = roadID
				}
			}
		}
	}

	now := time.Now()

	for roadID, pairs := range c.byOrigin {
		r, ok := cityMap[roadID]
		if !ok {
			continue
		}
		for _, p := range pairs {
			tracked := c.tracked[p.ID]
			for _, lane := range r.GetVehicles() {
				for _, v := range lane {
					if v.Kind != core.KindCar {
						continue
					}
					if _, already := tracked[v.ID]; !already {
						tracked[v.ID] = trackedVehicle{vehicleID: v.ID, startedAt: now}
					}
				}
			}
		}
	}

	for odID, tracked := range c.tracked {
		var pair *persist.ODPair
		for _, pairs := range c.byOrigin {
			for i := range pairs {
				if pairs[i].ID == odID {
					pair = &pairs[i]
				}
			}
		}
		if pair == nil {
			continue
		}
		for vehID, tv := range tracked {
			roadID, stillPresent := present[vehID]
			if !stillPresent {
				delete(tracked, vehID)
				continue
			}
			if roadID == pair.DestRoadID {
				elapsed := now.Sub(tv.startedAt).Seconds()
				c.store.RecordSample(persist.TravelTimeSample{ODID: odID, VehicleID: vehID, ElapsedSeconds: elapsed})
				delete(tracked, vehID)
			}
		}
	}
}

// Stats summarizes a set of travel-time samples.
type Stats struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
	P50   float64
	P95   float64
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

// GetStats computes min/max/mean/p50/p95 over the retained samples for odID.
func (c *Collector) GetStats(odID string) Stats {
	samples := c.store.SamplesFor(odID)
	if len(samples) == 0 {
		return Stats{}
	}
	values := make([]float64, len(samples))
	sum := 0.0
	for i, s := range samples {
		values[i] = s.ElapsedSeconds
		sum += s.ElapsedSeconds
	}
	sort.Float64s(values)
	return Stats{
		Count: len(values),
		Min:   values[0],
		Max:   values[len(values)-1],
		Mean:  sum / float64(len(values)),
		P50:   percentile(values, 0.50),
		P95:   percentile(values, 0.95),
	}
}
