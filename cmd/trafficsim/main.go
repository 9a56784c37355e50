// Command trafficsim wires the engine, pattern storage, predictor,
// continuous optimization controller, travel-time collector, and
// traffic feed together into a running process, following the
// teacher's initializeResources/initializeSimulationEnvironment/
// runSimulation/finishSimulation orchestration shape.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trafficsim/config"
	"trafficsim/control"
	"trafficsim/controller"
	"trafficsim/core"
	"trafficsim/engine"
	"trafficsim/feed"
	"trafficsim/fitness"
	"trafficsim/ga"
	"trafficsim/metrics"
	"trafficsim/pattern"
	"trafficsim/persist"
	"trafficsim/persist/memstore"
	"trafficsim/predictive"
	"trafficsim/predictor"
	"trafficsim/profile"
	"trafficsim/schedule"
	"trafficsim/simlog"
	"trafficsim/traveltime"
	"trafficsim/validator"
)

func main() {
	cfgPath := "config/config.json"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	if err := config.LoadConfig(cfgPath); err != nil {
		simlog.WriteLog("[INFO] no config file at %s, using defaults: %v", cfgPath, err)
		config.LoadDefault()
	}
	cfg := config.GetConfig()

	if err := simlog.InitLog(cfg.Logging.FilePath, cfg.Logging.EchoToStdout); err != nil {
		panic(fmt.Sprintf("failed to open log: %v", err))
	}
	defer simlog.CloseLog()
	simlog.LogEnvironment(map[string]string{"component": "trafficsim"})

	e := initializeEngine(cfg)
	initializeNetwork(e, cfg)

	stores := initializeStores()
	patternStore := pattern.New(pattern.Config{
		SnapshotIntervalSeconds: cfg.Pattern.SnapshotIntervalSeconds,
		RetentionDays:           cfg.Pattern.RetentionDays,
		MinSamplesForPattern:    cfg.Pattern.MinSamplesForPattern,
	}, stores.snapshots, stores.patterns)
	e.AddSnapshotSink(patternStore)

	metricsCollector := metrics.NewCollector()
	e.SetMetricsSink(metricsCollector)

	travelCollector := traveltime.New(stores.od)
	e.SetTravelTimeSink(travelCollector)

	pred := predictor.New(predictor.Config{
		DefaultHorizonMinutes:       cfg.Predictor.DefaultHorizonMinutes,
		MinHorizonMinutes:           cfg.Predictor.MinHorizonMinutes,
		MaxHorizonMinutes:           cfg.Predictor.MaxHorizonMinutes,
		PatternWeight:               cfg.Predictor.PatternWeight,
		CurrentWeight:               cfg.Predictor.CurrentWeight,
		MinSamplesForFullConfidence: cfg.Predictor.MinSamplesForFullConfidence,
		CacheDurationSeconds:        cfg.Predictor.CacheDurationSeconds,
	}, patternStore, e)

	predictiveOpt := predictive.New(predictive.Config{
		VehicleScaleFactor:   cfg.Predictor.VehicleScaleFactor,
		MaxSyntheticVehicles: 50,
		MaxSpeed:             20,
		ValidateEnabled:      cfg.Controller.ValidateBeforeApply,
		GA:                   gaConfigFrom(cfg),
		Fitness:              fitnessConfigFrom(cfg),
		Validate:             validatorConfigFrom(cfg),
	}, e, pred, stores.runs)

	ctl := controller.New(controller.Config{
		OptimizationIntervalSeconds: cfg.Controller.OptimizationIntervalSeconds,
		TransitionDurationSeconds:   cfg.Controller.TransitionDurationSeconds,
		UsePrediction:               cfg.Controller.UsePrediction,
		PredictionHorizonMinutes:    cfg.Controller.PredictionHorizonMinutes,
		ValidateBeforeApply:         cfg.Controller.ValidateBeforeApply,
		HeartbeatSeconds:            cfg.Controller.HeartbeatSeconds,
		GA:                          gaConfigFrom(cfg),
		Fitness:                     fitnessConfigFrom(cfg),
	}, e, e, predictiveOpt, stores.runs)
	e.SetTransitionDriver(ctl)

	profileStore := profile.New(stores.profiles)
	profileStore.Capture(e, "default")
	scheduler := schedule.New(e, profileStore)
	scheduler.SetWindows([]schedule.Window{
		{ProfileName: "default", StartMinute: 0, EndMinute: 24 * 60},
	})

	trafficFeed := feed.New(feed.Config{UpdateIntervalMs: cfg.Feed.UpdateIntervalMs}, patternStore, roadCapacities(e), uint64(cfg.GA.Seed))

	surface := control.New(e, ctl, pred, travelCollector, stores.runs)

	simlog.WriteLog("[INFO] trafficsim starting, %d roads", len(e.GetRoads()))

	surface.Start()
	trafficFeed.Start()
	go ctl.Run()
	go scheduler.Run()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-shutdown:
			simlog.WriteLog("[INFO] shutdown signal received")
			scheduler.Stop()
			ctl.Stop()
			trafficFeed.Stop()
			surface.Stop()
			e.Shutdown()
			return
		case <-ticker.C:
			predictiveOpt.RecordActualMetrics()
			step, simTime := e.Step()
			simlog.WriteLog("[INFO] step=%d simTime=%s", step, simlog.FormatSimTime(step, 1.0))
			_ = simTime
		}
	}
}

func initializeEngine(cfg *config.Config) *engine.Engine {
	return engine.New(cfg)
}

// initializeNetwork builds a small four-road ring so the process has
// something to simulate out of the box; real deployments load a map
// from an external network description instead.
func initializeNetwork(e *engine.Engine, cfg *config.Config) {
	const numRoads = 4
	const roadLength = 500.0
	const speedLimit = 15.0

	ids := make([]core.RoadID, numRoads)
	for i := 0; i < numRoads; i++ {
		id := core.NewRoadID()
		ids[i] = id
		angle := float64(i) / float64(numRoads)
		lonA := 11.58 + 0.01*angle
		latA := 48.13 + 0.01*angle
		lonB := lonA + 0.01
		latB := latA + 0.01
		r := core.NewRoad(id, roadLength, speedLimit, 2, 30, 3, 30,
			lonA, latA, lonB, latB, angle*500, angle*500, angle*500+500, angle*500+500)
		r.SpawnRatePerMinute = 6
		r.SetSpawning(true)
		e.AddRoad(r)
	}

	for i, id := range ids {
		r, err := e.Road(id)
		if err != nil {
			continue
		}
		next := ids[(i+1)%numRoads]
		for lane := 0; lane < r.NumLanes(); lane++ {
			r.AddLaneConnection(lane, next, 1.0)
		}
	}
}

func roadCapacities(e *engine.Engine) []feed.RoadCapacity {
	ids := e.GetRoads()
	out := make([]feed.RoadCapacity, len(ids))
	for i, id := range ids {
		out[i] = feed.RoadCapacity{RoadID: id, Capacity: 20}
	}
	return out
}

type storeBundle struct {
	snapshots persist.SnapshotStore
	patterns  persist.PatternStore
	runs      persist.RunStore
	profiles  persist.ProfileStore
	od        persist.ODStore
}

func initializeStores() storeBundle {
	return storeBundle{
		snapshots: memstore.NewSnapshotStore(),
		patterns:  memstore.NewPatternStore(),
		runs:      memstore.NewRunStore(),
		profiles:  memstore.NewProfileStore(),
		od:        memstore.NewODStore(),
	}
}

func gaConfigFrom(cfg *config.Config) ga.Config {
	return ga.Config{
		PopulationSize: cfg.GA.PopulationSize,
		Generations:    cfg.GA.Generations,
		MutationRate:   cfg.GA.MutationRate,
		MutationStdDev: cfg.GA.MutationStdDev,
		CrossoverRate:  cfg.GA.CrossoverRate,
		TournamentSize: cfg.GA.TournamentSize,
		ElitismRate:    cfg.GA.ElitismRate,
		MinGreen:       cfg.GA.MinGreen,
		MaxGreen:       cfg.GA.MaxGreen,
		MinRed:         cfg.GA.MinRed,
		MaxRed:         cfg.GA.MaxRed,
		Seed:           uint64(cfg.GA.Seed),
	}
}

func fitnessConfigFrom(cfg *config.Config) fitness.Config {
	return fitness.Config{
		SimulationSteps: cfg.Fitness.SimulationSteps,
		DtSeconds:       cfg.Fitness.DtSeconds,
		SampleEvery:     cfg.Fitness.SampleEvery,
		MaxSpeed:        20,
	}
}

func validatorConfigFrom(cfg *config.Config) validator.Config {
	return validator.Config{
		ImprovementThresholdPercent: cfg.Validator.ImprovementThresholdPercent,
		RegressionThresholdPercent:  cfg.Validator.RegressionThresholdPercent,
		SimulationSteps:             cfg.Validator.SimulationSteps,
		DtSeconds:                   cfg.Validator.DtSeconds,
		MaxSpeed:                    20,
	}
}
