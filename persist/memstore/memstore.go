// Package memstore is the default in-memory persist.* implementation:
// every store is a mutex-guarded slice or map, with no external
// dependency, so the repository runs end-to-end without a real
// database.
package memstore

import (
	"sort"
	"sync"

	"trafficsim/core"
	"trafficsim/persist"
)

// SnapshotStore is an in-memory persist.SnapshotStore.
type SnapshotStore struct {
	mu      sync.Mutex
	entries []persist.TrafficSnapshot
}

func NewSnapshotStore() *SnapshotStore { return &SnapshotStore{} }

func (s *SnapshotStore) Append(entries []persist.TrafficSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
}

func (s *SnapshotStore) Query(since, until int64) []persist.TrafficSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []persist.TrafficSnapshot
	for _, e := range s.entries {
		if e.Timestamp >= since && e.Timestamp <= until {
			out = append(out, e)
		}
	}
	return out
}

func (s *SnapshotStore) DeleteBefore(cutoff int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.Timestamp >= cutoff {
			kept = append(kept, e)
		}
	}
	s.entries = kept
}

type patternKey struct {
	roadID core.RoadID
	dow    int
	slot   int
}

// patternStore is the in-memory persist.PatternStore implementation,
// keyed by (roadId, dayOfWeek, timeSlot) per the upsert contract in spec 6.
type patternStore struct {
	mu    sync.Mutex
	byKey map[patternKey]persist.TrafficPattern
}

func NewPatternStore() persist.PatternStore {
	return &patternStore{byKey: make(map[patternKey]persist.TrafficPattern)}
}

func (s *patternStore) Upsert(p persist.TrafficPattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKey[patternKey{p.RoadID, p.DayOfWeek, p.TimeSlot}] = p
}

func (s *patternStore) Get(roadID core.RoadID, dow, slot int) (persist.TrafficPattern, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byKey[patternKey{roadID, dow, slot}]
	return p, ok
}

func (s *patternStore) ListForRoad(roadID core.RoadID) []persist.TrafficPattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []persist.TrafficPattern
	for k, p := range s.byKey {
		if k.roadID == roadID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeSlot < out[j].TimeSlot })
	return out
}

func (s *patternStore) List() []persist.TrafficPattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]persist.TrafficPattern, 0, len(s.byKey))
	for _, p := range s.byKey {
		out = append(out, p)
	}
	return out
}

// RunStore is an in-memory persist.RunStore.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]persist.OptimizationRun
}

func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]persist.OptimizationRun)}
}

func (r *RunStore) SaveRun(run persist.OptimizationRun) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.RunID] = run
}

func (r *RunStore) GetRun(runID string) (persist.OptimizationRun, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	return run, ok
}

func (r *RunStore) ListRuns() []persist.OptimizationRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]persist.OptimizationRun, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, run)
	}
	return out
}

// ProfileStore is an in-memory persist.ProfileStore.
type ProfileStore struct {
	mu       sync.Mutex
	profiles map[string]persist.Profile
	active   string
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[string]persist.Profile)}
}

func (p *ProfileStore) SaveProfile(prof persist.Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles[prof.Name] = prof
}

func (p *ProfileStore) GetProfile(name string) (persist.Profile, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prof, ok := p.profiles[name]
	return prof, ok
}

func (p *ProfileStore) ListProfiles() []persist.Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]persist.Profile, 0, len(p.profiles))
	for _, prof := range p.profiles {
		out = append(out, prof)
	}
	return out
}

func (p *ProfileStore) SetActive(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = name
}

func (p *ProfileStore) ActiveProfile() (persist.Profile, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prof, ok := p.profiles[p.active]
	return prof, ok
}

// ODStore is an in-memory persist.ODStore.
type ODStore struct {
	mu      sync.Mutex
	pairs   map[string]persist.ODPair
	samples map[string][]persist.TravelTimeSample
}

func NewODStore() *ODStore {
	return &ODStore{
		pairs:   make(map[string]persist.ODPair),
		samples: make(map[string][]persist.TravelTimeSample),
	}
}

func (o *ODStore) AddPair(p persist.ODPair) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pairs[p.ID] = p
}

func (o *ODStore) RemovePair(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.pairs, id)
	delete(o.samples, id)
}

func (o *ODStore) ListPairs() []persist.ODPair {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]persist.ODPair, 0, len(o.pairs))
	for _, p := range o.pairs {
		out = append(out, p)
	}
	return out
}

func (o *ODStore) RecordSample(s persist.TravelTimeSample) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.samples[s.ODID] = append(o.samples[s.ODID], s)
}

func (o *ODStore) SamplesFor(odID string) []persist.TravelTimeSample {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]persist.TravelTimeSample(nil), o.samples[odID]...)
}
