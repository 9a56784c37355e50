// Package predictor blends historical TrafficPattern data with live
// engine state to forecast per-road conditions at a future horizon.
package predictor

import (
	"sync"
	"time"

	"trafficsim/core"
	"trafficsim/pattern"
)

// Config bundles TrafficPredictor's tunables (spec 4.9).
type Config struct {
	DefaultHorizonMinutes       int
	MinHorizonMinutes           int
	MaxHorizonMinutes           int
	PatternWeight               float64
	CurrentWeight               float64
	MinSamplesForFullConfidence int
	CacheDurationSeconds        int
}

// RoadForecast is the blended prediction for one road.
type RoadForecast struct {
	RoadID      core.RoadID
	VehicleCount float64
	QueueLength  float64
	AvgSpeed     float64
	Confidence   float64
}

// Result is the full prediction returned by PredictForecast.
type Result struct {
	HorizonMinutes  int
	TargetDayOfWeek int
	TargetTimeSlot  int
	Roads           map[core.RoadID]RoadForecast
	AvgConfidence   float64
	computedAt      time.Time
}

// CurrentStateSource reads the live per-road vehicle count, queue
// length, and mean speed, which the engine satisfies under its own
// mutex; the predictor never reaches into the engine's internals
// directly.
type CurrentStateSource interface {
	CurrentRoadMetrics() map[core.RoadID]core.RoadMetrics
}

// Predictor blends pattern.Storage history with live engine state.
type Predictor struct {
	cfg     Config
	store   *pattern.Storage
	current CurrentStateSource

	mu    sync.Mutex
	cache map[int]Result
}

// New builds a Predictor reading from store and source.
func New(cfg Config, store *pattern.Storage, source CurrentStateSource) *Predictor {
	if cfg.PatternWeight == 0 && cfg.CurrentWeight == 0 {
		cfg.PatternWeight, cfg.CurrentWeight = 0.6, 0.4
	}
	return &Predictor{cfg: cfg, store: store, current: source, cache: make(map[int]Result)}
}

func clampHorizon(minutes, lo, hi int) int {
	if minutes < lo {
		return lo
	}
	if minutes > hi {
		return hi
	}
	return minutes
}

// PredictForecast blends pattern history with current state to produce
// a forecast horizonMinutes ahead. A horizon of exactly 0 is the "right
// now" boundary case and targets the current slot unclamped; any other
// horizon is clamped to [MinHorizonMinutes, MaxHorizonMinutes] (see
// DESIGN.md's open-questions log for why these don't share a rule).
// Results are cached for CacheDurationSeconds per distinct horizon.
func (p *Predictor) PredictForecast(horizonMinutes int) Result {
	if horizonMinutes != 0 {
		lo, hi := p.cfg.MinHorizonMinutes, p.cfg.MaxHorizonMinutes
		if lo <= 0 {
			lo = 10
		}
		if hi <= 0 {
			hi = 120
		}
		horizonMinutes = clampHorizon(horizonMinutes, lo, hi)
	}

	p.mu.Lock()
	if cached, ok := p.cache[horizonMinutes]; ok {
		cacheDur := p.cfg.CacheDurationSeconds
		if cacheDur <= 0 {
			cacheDur = 30
		}
		if time.Since(cached.computedAt) < time.Duration(cacheDur)*time.Second {
			p.mu.Unlock()
			return cached
		}
	}
	p.mu.Unlock()

	target := time.Now().Add(time.Duration(horizonMinutes) * time.Minute)
	dow, slot := pattern.SlotFor(target)

	current := p.current.CurrentRoadMetrics()

	roadIDs := make(map[core.RoadID]struct{})
	for id := range current {
		roadIDs[id] = struct{}{}
	}

	patterns := make(map[core.RoadID]struct {
		avg, stddev, queue, speed float64
		samples                   int
		ok                        bool
	})
	for id := range roadIDs {
		if pt, ok := p.store.GetPattern(pattern.Key{RoadID: id, DayOfWeek: dow, TimeSlot: slot}); ok {
			patterns[id] = struct {
				avg, stddev, queue, speed float64
				samples                   int
				ok                        bool
			}{pt.AvgCount, pt.StdDevCount, pt.AvgQueue, pt.AvgSpeed, pt.SampleCount, true}
			roadIDs[id] = struct{}{}
		}
	}
	// Patterns are looked up only for roads present in current live
	// state, so a road with stored history but no live metrics gets no
	// forecast; this loop adds no road beyond those.
	for id := range patterns {
		roadIDs[id] = struct{}{}
	}

	minSamples := p.cfg.MinSamplesForFullConfidence
	if minSamples <= 0 {
		minSamples = 10
	}

	forecasts := make(map[core.RoadID]RoadForecast, len(roadIDs))
	confSum := 0.0
	for id := range roadIDs {
		pt, havePattern := patterns[id]
		cur, haveCurrent := current[id]

		var vehicleCount, queue, speed, confidence float64
		switch {
		case havePattern && haveCurrent:
			vehicleCount = p.cfg.PatternWeight*pt.avg + p.cfg.CurrentWeight*float64(cur.VehicleCount)
			queue = p.cfg.PatternWeight*pt.queue + p.cfg.CurrentWeight*float64(cur.QueueLength)
			speed = p.cfg.PatternWeight*pt.speed + p.cfg.CurrentWeight*cur.AvgSpeed
			sampleFactor := float64(pt.samples) / float64(minSamples)
			if sampleFactor > 1 {
				sampleFactor = 1
			}
			variability := 1.0
			if pt.avg > 0 {
				variability = pt.stddev / pt.avg
				if variability > 1 {
					variability = 1
				}
			}
			confidence = sampleFactor * (1 - variability)
		case havePattern:
			vehicleCount, queue, speed = pt.avg, pt.queue, pt.speed
			sampleFactor := float64(pt.samples) / float64(minSamples)
			if sampleFactor > 1 {
				sampleFactor = 1
			}
			variability := 1.0
			if pt.avg > 0 {
				variability = pt.stddev / pt.avg
				if variability > 1 {
					variability = 1
				}
			}
			confidence = sampleFactor * (1 - variability)
		case haveCurrent:
			vehicleCount = float64(cur.VehicleCount)
			queue = float64(cur.QueueLength)
			speed = cur.AvgSpeed
			confidence = 0.1
		default:
			confidence = 0
		}

		forecasts[id] = RoadForecast{
			RoadID: id, VehicleCount: vehicleCount, QueueLength: queue, AvgSpeed: speed, Confidence: confidence,
		}
		confSum += confidence
	}

	avgConf := 0.0
	if len(forecasts) > 0 {
		avgConf = confSum / float64(len(forecasts))
	}

	result := Result{
		HorizonMinutes: horizonMinutes, TargetDayOfWeek: dow, TargetTimeSlot: slot,
		Roads: forecasts, AvgConfidence: avgConf, computedAt: time.Now(),
	}

	p.mu.Lock()
	p.cache[horizonMinutes] = result
	p.mu.Unlock()

	return result
}
