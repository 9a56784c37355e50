// Package metrics aggregates per-road samples into a run-level
// SimulationMetrics accumulator and reduces it to the scalar fitness the
// genetic optimizer compares chromosomes by.
package metrics

import "trafficsim/core"

// Fitness weights. Implementation-defined but held stable for the
// lifetime of a process so GA comparisons stay monotone within a run,
// per spec 4.5.
const (
	WeightAvgQueue    = 1.0
	WeightSpeedDeficit = 0.5
	WeightMaxQueue    = 0.3
	WeightExits       = 0.2

	// NoSamplePenalty is returned by Fitness when sampleCount is 0, to
	// discourage degenerate configurations that never get observed.
	NoSamplePenalty = 1e6
)

// SimulationMetrics accumulates per-sample statistics over the course
// of a run; averages are only meaningful once divided by SampleCount.
type SimulationMetrics struct {
	AverageQueueLength float64 // accumulator; divide by SampleCount
	MaxQueueLength     int
	TotalVehicles      int
	VehiclesExited     int
	AverageSpeed       float64 // accumulator; divide by SampleCount
	SampleCount        int
}

// Collector samples RoadMetrics batches into a SimulationMetrics.
type Collector struct {
	m SimulationMetrics
}

// NewCollector returns a fresh, zeroed collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Sample folds one batch of per-road metrics (one engine tick's worth)
// into the running accumulator.
func (c *Collector) Sample(roadMetrics []core.RoadMetrics) {
	if len(roadMetrics) == 0 {
		return
	}

	queueSum := 0
	speedSum := 0.0
	vehicleSum := 0
	maxQueue := c.m.MaxQueueLength

	for _, rm := range roadMetrics {
		queueSum += rm.QueueLength
		speedSum += rm.AvgSpeed
		vehicleSum += rm.VehicleCount
		if rm.QueueLength > maxQueue {
			maxQueue = rm.QueueLength
		}
	}

	c.m.AverageQueueLength += float64(queueSum) / float64(len(roadMetrics))
	c.m.AverageSpeed += speedSum / float64(len(roadMetrics))
	c.m.MaxQueueLength = maxQueue
	c.m.TotalVehicles = vehicleSum
	c.m.SampleCount++
}

// AddExited records vehicles that left the network since the last sample.
func (c *Collector) AddExited(n int) {
	c.m.VehiclesExited += n
}

// Snapshot returns the accumulator with averages divided by SampleCount.
func (c *Collector) Snapshot() SimulationMetrics {
	out := c.m
	if out.SampleCount > 0 {
		out.AverageQueueLength /= float64(out.SampleCount)
		out.AverageSpeed /= float64(out.SampleCount)
	}
	return out
}

// Fitness reduces a SimulationMetrics to a lower-is-better scalar. The
// caller must pass an already-averaged snapshot (see Snapshot); Fitness
// itself performs no further division.
func Fitness(m SimulationMetrics, maxSpeed float64) float64 {
	if m.SampleCount == 0 {
		return NoSamplePenalty
	}
	speedDeficit := maxSpeed - m.AverageSpeed
	if speedDeficit < 0 {
		speedDeficit = 0
	}
	return WeightAvgQueue*m.AverageQueueLength +
		WeightSpeedDeficit*speedDeficit +
		WeightMaxQueue*float64(m.MaxQueueLength) -
		WeightExits*float64(m.VehiclesExited)
}
