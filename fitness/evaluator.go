// Package fitness runs the side-simulations the genetic algorithm
// scores candidate chromosomes against: rebuild a throwaway set of roads
// from a network snapshot, apply the chromosome's timings, step it forward,
// and reduce the result to a fitness scalar.
package fitness

import (
	"sort"

	"trafficsim/core"
	"trafficsim/ga"
	"trafficsim/metrics"
)

// Config bundles the side-simulation parameters (spec 4.7).
type Config struct {
	SimulationSteps int
	DtSeconds       float64
	SampleEvery     int
	MaxSpeed        float64
}

// Evaluator builds fresh road sets from a RoadSnapshot map and runs
// short simulations to score chromosomes. Every call is independent:
// it operates on its own deep copy and never touches another call's
// state, so callers may parallelize across chromosomes freely.
type Evaluator struct {
	cfg Config
}

// New builds an Evaluator with the given side-simulation parameters.
func New(cfg Config) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// orderedRoadIDs returns snapshot keys sorted ascending, the
// deterministic iteration order chromosome genes are assigned in
// (spec 6: "sorted by road id ascending, then lane ascending").
func orderedRoadIDs(snapshots map[core.RoadID]core.RoadSnapshot) []core.RoadID {
	ids := make([]core.RoadID, 0, len(snapshots))
	for id := range snapshots {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// buildRoads rebuilds a fresh, independent set of core.Road values from
// snapshot, returning them alongside the ordered id list used to
// enumerate their lights.
func buildRoads(snapshot map[core.RoadID]core.RoadSnapshot) (map[core.RoadID]*core.Road, []core.RoadID) {
	ids := orderedRoadIDs(snapshot)
	roads := make(map[core.RoadID]*core.Road, len(snapshot))
	for _, id := range ids {
		roads[id] = core.NewRoadFromSnapshot(snapshot[id])
	}
	return roads, ids
}

// ApplyChromosome installs chromosome genes onto roads' lights in the
// (roadId asc, lane asc) order, yellow fixed at 3.0s.
func ApplyChromosome(roads map[core.RoadID]*core.Road, ids []core.RoadID, c ga.Chromosome) {
	geneIdx := 0
	for _, id := range ids {
		lights := roads[id].GetTrafficLightsMutable()
		for _, tl := range lights {
			if geneIdx >= len(c.Genes) {
				return
			}
			gene := c.Genes[geneIdx]
			tl.SetTimings(gene.Green, 3.0, gene.Red)
			geneIdx++
		}
	}
}

// CountLights returns the total traffic-light count across every road
// in snapshot, which a valid chromosome's gene count must equal.
func CountLights(snapshot map[core.RoadID]core.RoadSnapshot) int {
	n := 0
	for _, rs := range snapshot {
		n += len(rs.Lanes)
	}
	return n
}

// Run applies chromosome to a fresh copy of snapshot and simulates
// e.cfg.SimulationSteps ticks, sampling every SampleEvery steps, and
// returns the resulting fitness.
func (e *Evaluator) Run(snapshot map[core.RoadID]core.RoadSnapshot, chromosome ga.Chromosome) float64 {
	roads, ids := buildRoads(snapshot)
	ApplyChromosome(roads, ids, chromosome)
	return e.simulate(roads, ids)
}

// RunBaseline simulates snapshot unmodified, used by PredictiveOptimizer
// and TimingValidator to compute a baseline fitness for comparison.
func (e *Evaluator) RunBaseline(snapshot map[core.RoadID]core.RoadSnapshot) float64 {
	roads, ids := buildRoads(snapshot)
	return e.simulate(roads, ids)
}

func (e *Evaluator) simulate(roads map[core.RoadID]*core.Road, ids []core.RoadID) float64 {
	defaults := core.VehicleDefaults{}
	collector := metrics.NewCollector()

	roadList := make([]*core.Road, len(ids))
	for i, id := range ids {
		roadList[i] = roads[id]
	}

	sampleEvery := e.cfg.SampleEvery
	if sampleEvery <= 0 {
		sampleEvery = 10
	}

	for step := 1; step <= e.cfg.SimulationSteps; step++ {
		fronts := make(map[core.RoadID]core.FrontSnapshot, len(roadList))
		for _, r := range roadList {
			fronts[r.ID] = r.FrontPosition(0)
		}

		var pending []core.RoadTransition
		for _, r := range roadList {
			r.Update(e.cfg.DtSeconds, roads, defaults, &pending, fronts)
		}
		for _, t := range pending {
			dest, ok := roads[t.DestRoadID]
			if !ok {
				continue
			}
			t.Vehicle.Position = 0
			dest.AddVehicle(t.Vehicle, t.DestLane)
		}
		exited := 0
		for _, r := range roadList {
			exited += r.DrainExited()
		}
		collector.AddExited(exited)

		if step%sampleEvery == 0 {
			batch := make([]core.RoadMetrics, len(roadList))
			for i, r := range roadList {
				batch[i] = r.ComputeMetrics()
			}
			collector.Sample(batch)
		}
	}

	snap := collector.Snapshot()
	return metrics.Fitness(snap, e.cfg.MaxSpeed)
}
