// Package persist names the storage contracts the core depends on but
// does not implement: snapshot/pattern time-series, optimization run
// records, traffic profiles, and O/D pairs. The relational encoding is
// an external collaborator's concern (spec 6); this package only fixes
// the shapes and operations, plus two reference implementations
// (memstore, csvstore) so the rest of the repository has something
// real to run against.
package persist

import "trafficsim/core"

// TrafficSnapshot is one sampled row of per-road state (spec 3).
type TrafficSnapshot struct {
	Timestamp    int64
	RoadID       core.RoadID
	VehicleCount int
	QueueLength  int
	AvgSpeed     float64
	FlowRate     float64
}

// TrafficPattern is the aggregated historical profile for one
// (roadId, dayOfWeek, timeSlot) bucket (spec 3).
type TrafficPattern struct {
	RoadID      core.RoadID
	DayOfWeek   int
	TimeSlot    int
	AvgCount    float64
	MinCount    float64
	MaxCount    float64
	StdDevCount float64
	AvgQueue    float64
	AvgSpeed    float64
	AvgFlowRate float64
	SampleCount int
	LastUpdated int64
}

// GeneRecord is the canonical persisted form of one chromosome gene:
// an ordered JSON array of {"greenTime","redTime"} (spec 6).
type GeneRecord struct {
	GreenTime float64 `json:"greenTime"`
	RedTime   float64 `json:"redTime"`
}

// GenerationStat records one generation's best fitness during a GA run.
type GenerationStat struct {
	Generation  int
	BestFitness float64
}

// OptimizationRun is a persisted GA run: its mode, per-generation
// stats, and the winning chromosome, retrievable by RunID.
type OptimizationRun struct {
	RunID              string
	StartedAt          int64
	Mode               string // "reactive" or "predictive"
	Generations        []GenerationStat
	Chromosome         []GeneRecord
	BaselineFitness    float64
	BestFitness        float64
	ImprovementPercent float64
	Status             string // "COMPLETE" or "ERROR"
}

// LightTiming names one (road, lane)'s green/yellow/red durations,
// used inside a Profile.
type LightTiming struct {
	RoadID core.RoadID
	Lane   int
	Green  float64
	Yellow float64
	Red    float64
}

// Profile is a named, persisted bundle of spawn rates and traffic-light
// timings (spec 6 / original_source traffic_profile_service).
type Profile struct {
	Name        string
	Active      bool
	SpawnRates  map[core.RoadID]float64
	LightTimings []LightTiming
}

// ODPair is a registered origin/destination pair tracked for travel time.
type ODPair struct {
	ID             string
	OriginRoadID   core.RoadID
	DestRoadID     core.RoadID
	Name           string
}

// TravelTimeSample is one completed O/D traversal.
type TravelTimeSample struct {
	ODID           string
	VehicleID      core.VehicleID
	ElapsedSeconds float64
}
