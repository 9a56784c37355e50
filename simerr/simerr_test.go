package simerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrorsAreDistinguishableViaErrorsIs(t *testing.T) {
	wrapped := fmt.Errorf("road %d: %w", 7, ErrRoadNotFound)

	if !errors.Is(wrapped, ErrRoadNotFound) {
		t.Fatalf("expected errors.Is to unwrap to ErrRoadNotFound")
	}
	if errors.Is(wrapped, ErrLaneOutOfRange) {
		t.Fatalf("expected wrapped ErrRoadNotFound not to match an unrelated sentinel")
	}
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrConfigurationError, ErrRoadNotFound, ErrLaneOutOfRange, ErrDestinationFull,
		ErrPredictorUnavailable, ErrOptimizationFailed, ErrValidationRejected,
		ErrPatternInsufficient, ErrFatal,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Fatalf("sentinels %d and %d unexpectedly match: %v, %v", i, j, a, b)
			}
		}
	}
}
