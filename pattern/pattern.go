// Package pattern records periodic road-metric snapshots and aggregates
// them into historical (road, day-of-week, time-slot) traffic patterns
// the predictor blends with live state.
package pattern

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"trafficsim/core"
	"trafficsim/persist"
)

// Key uniquely identifies one aggregation bucket.
type Key struct {
	RoadID    core.RoadID
	DayOfWeek int // 0 = Sunday ... 6 = Saturday
	TimeSlot  int // hour*2 + floor(minute/30), 0..47
}

// SlotFor computes the (dayOfWeek, timeSlot) bucket for t in local time.
func SlotFor(t time.Time) (dayOfWeek, timeSlot int) {
	dayOfWeek = int(t.Weekday())
	timeSlot = t.Hour()*2 + t.Minute()/30
	return dayOfWeek, timeSlot
}

// Config bundles PatternStorage's tunables (spec 4.8).
type Config struct {
	SnapshotIntervalSeconds int
	RetentionDays           int
	MinSamplesForPattern    int
}

// Storage owns the raw snapshot table and the aggregated pattern table,
// backed by pluggable persist.SnapshotStore / persist.PatternStore
// implementations. Storage holds no mutex of its own; each backing store
// guards its own state, so an aggregation is not atomic with respect to
// concurrent appends.
type Storage struct {
	cfg    Config
	snaps  persist.SnapshotStore
	patts  persist.PatternStore
}

// New builds a Storage over the given backing stores.
func New(cfg Config, snaps persist.SnapshotStore, patts persist.PatternStore) *Storage {
	return &Storage{cfg: cfg, snaps: snaps, patts: patts}
}

// OnSnapshot stamps every entry with now's unix second and appends it
// to the snapshot table (spec 4.8). It implements
// engine.SnapshotSink so the engine can call it directly from Phase C.
func (s *Storage) OnSnapshot(now time.Time, roadMetrics []core.RoadMetrics) {
	entries := make([]persist.TrafficSnapshot, len(roadMetrics))
	ts := now.Unix()
	for i, rm := range roadMetrics {
		entries[i] = persist.TrafficSnapshot{
			Timestamp:    ts,
			RoadID:       rm.RoadID,
			VehicleCount: rm.VehicleCount,
			QueueLength:  rm.QueueLength,
			AvgSpeed:     rm.AvgSpeed,
			FlowRate:     rm.FlowRate,
		}
	}
	s.snaps.Append(entries)
}

// GetSnapshots returns raw entries recorded at or after since.
func (s *Storage) GetSnapshots(since int64) []persist.TrafficSnapshot {
	return s.snaps.Query(since, time.Now().Unix())
}

type aggBucket struct {
	key          Key
	counts       []float64
	queueSum     float64
	speedSum     float64
	flowSum      float64
}

// AggregateSnapshots scans every entry within the retention window,
// groups by (roadId, dayOfWeek, timeSlot), and upserts a pattern for
// every group meeting MinSamplesForPattern. Aggregation is idempotent:
// calling it twice with no new data reproduces identical patterns
// (modulo LastUpdated).
func (s *Storage) AggregateSnapshots() {
	retentionDays := s.cfg.RetentionDays
	if retentionDays <= 0 {
		retentionDays = 7
	}
	since := time.Now().AddDate(0, 0, -retentionDays).Unix()
	entries := s.snaps.Query(since, time.Now().Unix())

	buckets := make(map[Key]*aggBucket)
	for _, e := range entries {
		t := time.Unix(e.Timestamp, 0)
		dow, slot := SlotFor(t)
		key := Key{RoadID: e.RoadID, DayOfWeek: dow, TimeSlot: slot}
		b, ok := buckets[key]
		if !ok {
			b = &aggBucket{key: key}
			buckets[key] = b
		}
		b.counts = append(b.counts, float64(e.VehicleCount))
		b.queueSum += float64(e.QueueLength)
		b.speedSum += e.AvgSpeed
		b.flowSum += e.FlowRate
	}

	minSamples := s.cfg.MinSamplesForPattern
	if minSamples <= 0 {
		minSamples = 3
	}

	now := time.Now()
	for _, b := range buckets {
		n := len(b.counts)
		if n < minSamples {
			continue
		}

		mean, stddev := stat.MeanStdDev(b.counts, nil)
		minV, maxV := b.counts[0], b.counts[0]
		for _, c := range b.counts {
			if c < minV {
				minV = c
			}
			if c > maxV {
				maxV = c
			}
		}
		sort.Float64s(b.counts)

		p := persist.TrafficPattern{
			RoadID:        b.key.RoadID,
			DayOfWeek:     b.key.DayOfWeek,
			TimeSlot:      b.key.TimeSlot,
			AvgCount:      mean,
			MinCount:      minV,
			MaxCount:      maxV,
			StdDevCount:   stddev,
			AvgQueue:      b.queueSum / float64(n),
			AvgSpeed:      b.speedSum / float64(n),
			AvgFlowRate:   b.flowSum / float64(n),
			SampleCount:   n,
			LastUpdated:   now.Unix(),
		}
		s.patts.Upsert(p)
	}
}

// PruneOldSnapshots deletes raw snapshots older than days.
func (s *Storage) PruneOldSnapshots(days int) {
	cutoff := time.Now().AddDate(0, 0, -days).Unix()
	s.snaps.DeleteBefore(cutoff)
}

// GetPattern returns the pattern for key, if any.
func (s *Storage) GetPattern(key Key) (persist.TrafficPattern, bool) {
	return s.patts.Get(key.RoadID, key.DayOfWeek, key.TimeSlot)
}

// GetPatternsForRoad returns every stored pattern for roadID.
func (s *Storage) GetPatternsForRoad(roadID core.RoadID) []persist.TrafficPattern {
	return s.patts.ListForRoad(roadID)
}
