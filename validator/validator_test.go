package validator

import (
	"testing"

	"trafficsim/core"
	"trafficsim/ga"
)

func snapshot(numVehicles int, green, red float64) map[core.RoadID]core.RoadSnapshot {
	roadID := core.NewRoadID()
	vehicles := make([]core.VehicleSnapshot, numVehicles)
	for i := range vehicles {
		vehicles[i] = core.VehicleSnapshot{
			ID: core.NewVehicleID(), Kind: core.KindCar,
			Position: float64(i * 15), Velocity: 8,
			Length: 4.5, DesiredVelocity: 15, SafeHeadway: 1.5,
			MaxAcceleration: 1.5, ComfortDeceleration: 2.0, MinGap: 2.0,
		}
	}
	return map[core.RoadID]core.RoadSnapshot{
		roadID: {
			ID: roadID, Length: 500, SpeedLimit: 15,
			Lanes: []core.LaneSnapshot{{Vehicles: vehicles, Green: green, Yellow: 3, Red: red}},
		},
	}
}

func TestValidateIdenticalChromosomeIsNeutral(t *testing.T) {
	net := snapshot(5, 30, 30)
	v := New(Config{ImprovementThresholdPercent: 5, RegressionThresholdPercent: 5, SimulationSteps: 50, DtSeconds: 0.1, MaxSpeed: 15})

	result := v.Validate(net, ga.Chromosome{Genes: []ga.Gene{{Green: 30, Red: 30}}})

	if !result.Passed {
		t.Fatalf("expected a no-op chromosome to pass, got %+v", result)
	}
}

func TestValidateRejectsSignificantRegression(t *testing.T) {
	net := snapshot(8, 50, 10) // generous green, short red: favorable baseline
	v := New(Config{ImprovementThresholdPercent: 5, RegressionThresholdPercent: 5, SimulationSteps: 1000, DtSeconds: 0.1, MaxSpeed: 15})

	// Candidate starves the lane almost entirely: heavy regression expected.
	result := v.Validate(net, ga.Chromosome{Genes: []ga.Gene{{Green: 2, Red: 120}}})

	if result.Passed {
		t.Fatalf("expected a severely worse chromosome to fail validation, got %+v", result)
	}
	if result.Reason != "significant regression" {
		t.Fatalf("expected reason 'significant regression', got %q", result.Reason)
	}
}

func TestValidateAcceptsSignificantImprovement(t *testing.T) {
	net := snapshot(8, 5, 55) // starved baseline: mostly red
	v := New(Config{ImprovementThresholdPercent: 5, RegressionThresholdPercent: 5, SimulationSteps: 1000, DtSeconds: 0.1, MaxSpeed: 15})

	result := v.Validate(net, ga.Chromosome{Genes: []ga.Gene{{Green: 55, Red: 5}}})

	if !result.Passed || result.Reason != "significant improvement" {
		t.Fatalf("expected a clearly better chromosome to pass as significant improvement, got %+v", result)
	}
}
