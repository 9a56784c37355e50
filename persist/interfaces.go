package persist

import "trafficsim/core"

// SnapshotStore owns the raw traffic-snapshot time series: append,
// time-range query, and time-range delete (spec 6).
type SnapshotStore interface {
	Append(entries []TrafficSnapshot)
	Query(since, until int64) []TrafficSnapshot
	DeleteBefore(cutoff int64)
}

// PatternStore owns the aggregated pattern table, upserted keyed by
// (roadId, dow, slot), with full-list and per-road query (spec 6).
type PatternStore interface {
	Upsert(p TrafficPattern)
	Get(roadID core.RoadID, dayOfWeek, timeSlot int) (TrafficPattern, bool)
	ListForRoad(roadID core.RoadID) []TrafficPattern
	List() []TrafficPattern
}

// RunStore owns optimization run records, retrievable by run id (spec 6).
type RunStore interface {
	SaveRun(run OptimizationRun)
	GetRun(runID string) (OptimizationRun, bool)
	ListRuns() []OptimizationRun
}

// ProfileStore owns named profile bundles with an activation flag (spec 6).
type ProfileStore interface {
	SaveProfile(p Profile)
	GetProfile(name string) (Profile, bool)
	ListProfiles() []Profile
	SetActive(name string)
	ActiveProfile() (Profile, bool)
}

// ODStore owns O/D pairs and their travel-time samples (spec 6).
type ODStore interface {
	AddPair(p ODPair)
	RemovePair(id string)
	ListPairs() []ODPair
	RecordSample(s TravelTimeSample)
	SamplesFor(odID string) []TravelTimeSample
}
