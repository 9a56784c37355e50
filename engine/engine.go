// Package engine owns the live city map and drives the two-phase
// simulation tick: a data-parallel per-road update (Phase A), a serial
// transition apply (Phase B), and a serial observer pass (Phase C).
package engine

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"trafficsim/config"
	"trafficsim/core"
	"trafficsim/simerr"
	"trafficsim/simlog"
	"trafficsim/workerpool"
)

// MetricsSink receives a batch of per-road metrics every
// MetricsEverySteps ticks (Phase C).
type MetricsSink interface {
	Sample(roadMetrics []core.RoadMetrics)
	AddExited(n int)
}

// SnapshotSink receives the full network snapshot every
// SnapshotEverySteps ticks (Phase C); PatternStorage and the traffic
// feed both implement it.
type SnapshotSink interface {
	OnSnapshot(stepTime time.Time, roadMetrics []core.RoadMetrics)
}

// TravelTimeSink is updated every tick with the live city map so it can
// enroll/retire vehicles on origin/destination roads.
type TravelTimeSink interface {
	Update(cityMap map[core.RoadID]*core.Road, dt float64)
}

// TransitionDriver advances any active light-timing transitions; the
// continuous controller implements this and is invoked from Phase C
// every TransitionEverySteps ticks.
type TransitionDriver interface {
	UpdateTransitions(now time.Time)
}

// Engine owns the road map exclusively; every other component reads it
// through a snapshot or through the engine's own locked accessors.
type Engine struct {
	mu      sync.RWMutex
	cityMap map[core.RoadID]*core.Road

	simulationTime float64 // seconds, monotonic sim clock
	step           int

	running        atomic.Bool
	paused         atomic.Bool
	continuousMode atomic.Bool
	stepLimit      atomic.Int64
	restartCount   atomic.Int64

	cfg      *config.Config
	defaults core.VehicleDefaults
	pool     *workerpool.Pool

	metrics       MetricsSink
	snapshotSinks []SnapshotSink
	travelTime    TravelTimeSink
	transitions   TransitionDriver
}

// New builds an Engine from a loaded Config. The returned Engine has an
// empty city map; callers add roads with AddRoad before Run.
func New(cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.LoadDefault()
	}
	e := &Engine{
		cityMap: make(map[core.RoadID]*core.Road),
		cfg:     cfg,
		defaults: core.VehicleDefaults{
			Length:              cfg.Vehicle.DefaultLength,
			DesiredVelocity:     0, // set per-road from speed limit unless overridden by caller
			SafeHeadway:         cfg.Vehicle.SafeHeadway,
			MaxAcceleration:     cfg.Vehicle.MaxAcceleration,
			ComfortDeceleration: cfg.Vehicle.ComfortDeceleration,
			MinGap:              cfg.Vehicle.MinGap,
		},
		pool: workerpool.New(context.Background(), cfg.Simulation.Workers),
	}
	e.stepLimit.Store(int64(cfg.Simulation.StepLimit))
	e.continuousMode.Store(cfg.Simulation.ContinuousMode)
	return e
}

// AddRoad registers a road in the city map. Not safe to call
// concurrently with Run.
func (e *Engine) AddRoad(r *core.Road) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cityMap[r.ID] = r
}

// SetMetricsSink, SetTravelTimeSink, SetTransitionDriver and
// AddSnapshotSink wire the optional Phase-C observers; call before Run.
func (e *Engine) SetMetricsSink(m MetricsSink)             { e.metrics = m }
func (e *Engine) SetTravelTimeSink(t TravelTimeSink)        { e.travelTime = t }
func (e *Engine) SetTransitionDriver(d TransitionDriver)    { e.transitions = d }
func (e *Engine) AddSnapshotSink(s SnapshotSink)            { e.snapshotSinks = append(e.snapshotSinks, s) }

// Roads returns the live road pointers keyed by id; callers must use
// the roads' own thread-safe methods, never mutate the returned map.
func (e *Engine) Roads() map[core.RoadID]*core.Road {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[core.RoadID]*core.Road, len(e.cityMap))
	for id, r := range e.cityMap {
		out[id] = r
	}
	return out
}

// Road looks up a single road, returning simerr.ErrRoadNotFound if absent.
func (e *Engine) Road(id core.RoadID) (*core.Road, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.cityMap[id]
	if !ok {
		return nil, simerr.ErrRoadNotFound
	}
	return r, nil
}

// Step returns the current tick count and simulation time in seconds.
func (e *Engine) Step() (int, float64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.step, e.simulationTime
}

// Tick runs exactly one two-phase simulation step: Phase A (parallel
// per-road update against a read-only city map and a pre-tick front
// snapshot), Phase B (serial transition apply), Phase C (periodic
// observers). Safe to call directly without the background Run loop.
func (e *Engine) Tick(dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	roads := make([]*core.Road, 0, len(e.cityMap))
	for _, r := range e.cityMap {
		roads = append(roads, r)
	}

	// Every road's lane-0 front position is captured serially, before any
	// Phase A worker starts, so attemptRoadChange never has to acquire a
	// different road's lock while holding its own.
	fronts := make(map[core.RoadID]core.FrontSnapshot, len(roads))
	for _, r := range roads {
		fronts[r.ID] = r.FrontPosition(0)
	}

	// Phase A: parallel per-road update, cityMap and fronts read-only.
	jobs := make([]workerpool.Job, len(roads))
	buffers := make([][]core.RoadTransition, len(roads))
	for i, r := range roads {
		i, r := i, r
		jobs[i] = func() any {
			var buf []core.RoadTransition
			r.Update(dt, e.cityMap, e.defaults, &buf, fronts)
			buffers[i] = buf
			return nil
		}
	}
	e.pool.Run(jobs)

	var pending []core.RoadTransition
	for _, buf := range buffers {
		pending = append(pending, buf...)
	}

	// Phase B: serial transition apply.
	exitedFromTransitions := 0
	for _, t := range pending {
		destRoad, ok := e.cityMap[t.DestRoadID]
		if !ok {
			exitedFromTransitions++
			continue
		}
		t.Vehicle.Position = 0
		destRoad.AddVehicle(t.Vehicle, t.DestLane)
	}

	exitedAtRoadEnd := 0
	for _, r := range roads {
		exitedAtRoadEnd += r.DrainExited()
	}

	e.simulationTime += dt
	e.step++

	// Phase C: observers, still under the engine lock.
	if e.metrics != nil {
		e.metrics.AddExited(exitedFromTransitions + exitedAtRoadEnd)
		if e.cfg.Simulation.MetricsEverySteps > 0 && e.step%e.cfg.Simulation.MetricsEverySteps == 0 {
			batch := make([]core.RoadMetrics, 0, len(roads))
			for _, r := range roads {
				batch = append(batch, r.ComputeMetrics())
			}
			e.metrics.Sample(batch)
		}
	}

	if e.cfg.Simulation.SnapshotEverySteps > 0 && e.step%e.cfg.Simulation.SnapshotEverySteps == 0 && len(e.snapshotSinks) > 0 {
		batch := make([]core.RoadMetrics, 0, len(roads))
		for _, r := range roads {
			batch = append(batch, r.ComputeMetrics())
		}
		now := time.Now()
		for _, sink := range e.snapshotSinks {
			sink.OnSnapshot(now, batch)
		}
	}

	if e.travelTime != nil {
		e.travelTime.Update(e.cityMap, dt)
	}

	if e.transitions != nil && e.cfg.Simulation.TransitionEverySteps > 0 && e.step%e.cfg.Simulation.TransitionEverySteps == 0 {
		e.transitions.UpdateTransitions(time.Now())
	}

	e.spawnStep(dt, roads)
}

// spawnStep runs the Poisson-thinned per-road spawn pass: each road
// with spawning enabled and SpawnRatePerMinute > 0 independently rolls
// whether a vehicle arrives this tick, following the teacher's
// demand-generation idiom of comparing a uniform draw against a
// per-tick arrival probability instead of sampling full interarrival
// times.
func (e *Engine) spawnStep(dt float64, roads []*core.Road) {
	for _, r := range roads {
		if !r.SpawningEnabled() {
			continue
		}
		rate := r.SpawnRatePerMinute
		if rate <= 0 {
			continue
		}
		arrivalProb := rate / 60.0 * dt
		if rand.Float64() >= arrivalProb {
			continue
		}
		velocity := r.SpeedLimit * 0.9
		defaults := e.defaults
		if defaults.DesiredVelocity <= 0 {
			defaults.DesiredVelocity = r.SpeedLimit
		}
		r.SpawnVehicle(0, velocity, rand.Float64(), defaults)
	}
}

// Run drives the background tick loop until ctx is cancelled or Stop is
// called. It honors Pause/Resume and, unless ContinuousMode is set,
// stops once StepLimit ticks have run.
func (e *Engine) Run(ctx context.Context) {
	if !e.running.CompareAndSwap(false, true) {
		return
	}
	defer e.running.Store(false)

	simlog.WriteLog("[INFO] engine run loop starting")
	dt := e.cfg.Simulation.TickSeconds
	sleep := time.Duration(e.cfg.Simulation.TickSleepMs) * time.Millisecond

	defer func() {
		if r := recover(); r != nil {
			simlog.WriteLog("[ERROR] engine run loop recovered from panic: %v", r)
			e.restartCount.Add(1)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			simlog.WriteLog("[INFO] engine run loop stopping: context cancelled")
			return
		default:
		}

		if !e.running.Load() {
			return
		}
		if e.paused.Load() {
			time.Sleep(sleep)
			continue
		}

		limit := e.stepLimit.Load()
		if !e.continuousMode.Load() && limit > 0 {
			_, _ = e.Step()
			e.mu.RLock()
			done := e.step >= int(limit)
			e.mu.RUnlock()
			if done {
				simlog.WriteLog("[INFO] engine run loop stopping: step limit reached")
				return
			}
		}

		e.Tick(dt)
		time.Sleep(sleep)
	}
}

// Stop signals the background loop to exit at its next suspension point.
func (e *Engine) Stop() { e.running.Store(false) }

// Pause and Resume toggle the paused flag the Run loop checks each iteration.
func (e *Engine) Pause()  { e.paused.Store(true) }
func (e *Engine) Resume() { e.paused.Store(false) }

// SetContinuousMode toggles whether the Run loop honors StepLimit.
func (e *Engine) SetContinuousMode(on bool) { e.continuousMode.Store(on) }

// SetStepLimit installs a new tick budget for non-continuous runs.
func (e *Engine) SetStepLimit(n int) { e.stepLimit.Store(int64(n)) }

// RestartCount reports how many times the Run loop recovered from a
// Fatal-class panic and would be restarted by an external supervisor.
func (e *Engine) RestartCount() int64 { return e.restartCount.Load() }

// VehicleDefaults returns the configured default IDM parameters, used
// by callers that spawn vehicles directly (e.g. a profile activation).
func (e *Engine) VehicleDefaults() core.VehicleDefaults { return e.defaults }

// WorkerPool exposes the shared pool so the GA can fan fitness
// evaluations across the same worker budget instead of spawning its own.
func (e *Engine) WorkerPool() *workerpool.Pool { return e.pool }

// Shutdown stops the engine and releases its worker pool.
func (e *Engine) Shutdown() {
	e.Stop()
	e.pool.Stop()
}
