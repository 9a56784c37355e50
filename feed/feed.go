// Package feed implements the simulated TrafficFeed: a background
// producer that periodically pushes an expected-density snapshot to
// subscribers, sampling historical TrafficPatterns when available and
// falling back to a capacity/utilization estimate otherwise.
package feed

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"trafficsim/core"
	"trafficsim/pattern"
)

// Entry is one road's expected conditions in a feed snapshot.
type Entry struct {
	RoadID               core.RoadID
	ExpectedVehicleCount float64
	ExpectedAvgSpeed     float64
	Confidence           float64
}

// Snapshot is the payload delivered to every subscriber each tick.
type Snapshot struct {
	GeneratedAt time.Time
	Entries     map[core.RoadID]Entry
}

// Subscriber receives each generated Snapshot synchronously on the feed
// goroutine; it must not block.
type Subscriber func(Snapshot)

// RoadCapacity names a road's nominal vehicle capacity, used by the
// fallback estimator when no pattern data exists for a road.
type RoadCapacity struct {
	RoadID   core.RoadID
	Capacity float64
}

// Config bundles the feed's tunables (spec 4.14).
type Config struct {
	UpdateIntervalMs int
}

// Feed is a continuous background producer of TrafficFeedSnapshots.
type Feed struct {
	cfg     Config
	store   *pattern.Storage
	roads   []RoadCapacity
	rng     *rand.Rand
	normal  distuv.Normal

	mu          sync.Mutex
	subscribers []Subscriber
	latest      Snapshot

	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New builds a Feed over store, producing entries for the given roads.
func New(cfg Config, store *pattern.Storage, roads []RoadCapacity, seed uint64) *Feed {
	if cfg.UpdateIntervalMs <= 0 {
		cfg.UpdateIntervalMs = 1000
	}
	if cfg.UpdateIntervalMs < 100 {
		cfg.UpdateIntervalMs = 100
	}
	src := rand.NewSource(seed)
	return &Feed{
		cfg: cfg, store: store, roads: roads,
		rng:    rand.New(src),
		normal: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Subscribe registers sub to receive every future snapshot.
func (f *Feed) Subscribe(sub Subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers = append(f.subscribers, sub)
}

// Latest returns the most recently generated snapshot for pull access.
func (f *Feed) Latest() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

// Start spawns the background production goroutine. Safe to call once;
// subsequent calls are no-ops until Stop completes.
func (f *Feed) Start() {
	if !f.running.CompareAndSwap(false, true) {
		return
	}
	f.stopCh = make(chan struct{})
	f.doneCh = make(chan struct{})
	go f.run()
}

func (f *Feed) run() {
	defer close(f.doneCh)
	interval := time.Duration(f.cfg.UpdateIntervalMs) * time.Millisecond
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-f.stopCh:
			return
		case <-timer.C:
			snap := f.generate()
			f.mu.Lock()
			f.latest = snap
			subs := append([]Subscriber(nil), f.subscribers...)
			f.mu.Unlock()
			for _, sub := range subs {
				sub(snap)
			}
			timer.Reset(interval)
		}
	}
}

// Stop signals the background goroutine to exit and waits for it,
// giving shutdown latency bounded by the next condition check rather
// than the full update interval.
func (f *Feed) Stop() {
	if !f.running.CompareAndSwap(true, false) {
		return
	}
	close(f.stopCh)
	<-f.doneCh
}

func (f *Feed) generate() Snapshot {
	now := time.Now()
	dow, slot := pattern.SlotFor(now)

	entries := make(map[core.RoadID]Entry, len(f.roads))
	for _, rc := range f.roads {
		var e Entry
		if pt, ok := f.store.GetPattern(pattern.Key{RoadID: rc.RoadID, DayOfWeek: dow, TimeSlot: slot}); ok {
			count := pt.AvgCount + f.normal.Rand()*pt.StdDevCount*0.3
			if count < 0 {
				count = 0
			}
			confidence := float64(pt.SampleCount) / 10.0
			if confidence > 1 {
				confidence = 1
			}
			e = Entry{RoadID: rc.RoadID, ExpectedVehicleCount: count, ExpectedAvgSpeed: pt.AvgSpeed, Confidence: confidence}
		} else {
			utilization := 0.3 + f.rng.Float64()*0.2
			capacity := rc.Capacity
			if capacity <= 0 {
				capacity = 20
			}
			e = Entry{RoadID: rc.RoadID, ExpectedVehicleCount: capacity * utilization, ExpectedAvgSpeed: 0, Confidence: 0.5}
		}
		entries[rc.RoadID] = e
	}

	return Snapshot{GeneratedAt: now, Entries: entries}
}
