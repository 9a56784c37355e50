package core

import "math/rand/v2"

// Phase is a traffic light's position in its Green -> Yellow -> Red cycle.
type Phase int

const (
	Green Phase = iota
	Yellow
	Red
)

func (p Phase) String() string {
	switch p {
	case Green:
		return "G"
	case Yellow:
		return "Y"
	case Red:
		return "R"
	default:
		return "?"
	}
}

// TrafficLight is a timed cyclic state machine guarding one lane.
type TrafficLight struct {
	phase    Phase
	duration [3]float64 // seconds, indexed by Phase
	counter  float64
}

// NewTrafficLight builds a light with the given green/yellow/red
// durations. Per spec 4.2/9, initial phase and counter are chosen
// uniformly at random within the full cycle so a fleet of lights does
// not start synchronized.
func NewTrafficLight(green, yellow, red float64) *TrafficLight {
	tl := &TrafficLight{duration: [3]float64{green, yellow, red}}
	tl.randomizePhase()
	return tl
}

func (tl *TrafficLight) randomizePhase() {
	total := tl.duration[Green] + tl.duration[Yellow] + tl.duration[Red]
	if total <= 0 {
		return
	}
	offset := rand.Float64() * total

	phases := [3]Phase{Green, Yellow, Red}
	for _, p := range phases {
		if offset < tl.duration[p] {
			tl.phase = p
			tl.counter = offset
			return
		}
		offset -= tl.duration[p]
	}
	tl.phase = Red
	tl.counter = 0
}

// Update advances the light by dt seconds using check-then-advance
// semantics: the phase boundary is tested before dt is added, so a
// light can run up to one tick past its nominal duration when dt is
// large. This is a deliberate behavioral preservation, not a fencepost
// to be "fixed" — chromosomes are evaluated against this exact timing.
func (tl *TrafficLight) Update(dt float64) {
	if tl.counter >= tl.duration[tl.phase] {
		tl.counter = 0
		tl.phase = (tl.phase + 1) % 3
	}
	tl.counter += dt
}

// SetTimings installs new green/red durations without resetting phase
// or counter, so a transition applies smoothly mid-cycle. All three
// durations are installed as given, yellow included.
func (tl *TrafficLight) SetTimings(green, yellow, red float64) {
	tl.duration[Green] = green
	tl.duration[Yellow] = yellow
	tl.duration[Red] = red
}

// State returns the light's current phase.
func (tl *TrafficLight) State() Phase { return tl.phase }

// Durations returns the current (green, yellow, red) durations.
func (tl *TrafficLight) Durations() (green, yellow, red float64) {
	return tl.duration[Green], tl.duration[Yellow], tl.duration[Red]
}

// Counter returns the elapsed time within the current phase.
func (tl *TrafficLight) Counter() float64 { return tl.counter }

// IsGreen reports whether the light currently allows travel.
func (tl *TrafficLight) IsGreen() bool { return tl.phase == Green }

// SetCount overrides the internal phase and counter directly; used by
// FitnessEvaluator and TimingValidator to reconstruct a light from a
// RoadSnapshot without re-randomizing its phase.
func (tl *TrafficLight) SetCount(phase Phase, counter float64) {
	tl.phase = phase
	tl.counter = counter
}
