// Package simerr defines the sentinel errors shared across the
// simulator so callers can test error kind with errors.Is/errors.As
// instead of string matching.
package simerr

import "errors"

var (
	// ErrConfigurationError marks a rejected or unparsable configuration value.
	ErrConfigurationError = errors.New("configuration error")

	// ErrRoadNotFound marks a lookup against a core.RoadID not present in the city map.
	ErrRoadNotFound = errors.New("road not found")

	// ErrLaneOutOfRange marks a lane index outside [0, NumLanes).
	ErrLaneOutOfRange = errors.New("lane index out of range")

	// ErrDestinationFull marks a spawn or lane-change rejected because the
	// destination lane has no room for the minimum gap.
	ErrDestinationFull = errors.New("destination full")

	// ErrPredictorUnavailable marks a prediction request made before enough
	// pattern samples exist to produce a confident estimate.
	ErrPredictorUnavailable = errors.New("predictor unavailable")

	// ErrOptimizationFailed marks a genetic algorithm run that produced no
	// usable chromosome (e.g. every individual violated bounds).
	ErrOptimizationFailed = errors.New("optimization failed")

	// ErrValidationRejected marks a candidate timing that failed the
	// validator's regression check against the baseline.
	ErrValidationRejected = errors.New("validation rejected")

	// ErrPatternInsufficient marks a pattern query for a (road, day, slot)
	// key with fewer than the configured minimum sample count.
	ErrPatternInsufficient = errors.New("insufficient pattern samples")

	// ErrFatal marks an unrecoverable internal invariant violation; callers
	// observing it should stop the engine rather than continue ticking.
	ErrFatal = errors.New("fatal simulation error")
)
