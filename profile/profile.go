// Package profile manages named, persisted bundles of spawn rates and
// traffic-light timings that can be captured from the live network and
// re-applied in one shot, grounded on the original C++ service's
// capture/apply/activate operations.
package profile

import (
	"fmt"

	"trafficsim/core"
	"trafficsim/engine"
	"trafficsim/persist"
)

// Store wraps a persist.ProfileStore with the capture/apply operations
// the schedule package and cmd/trafficsim use.
type Store struct {
	backing persist.ProfileStore
}

// New builds a Store over backing.
func New(backing persist.ProfileStore) *Store {
	return &Store{backing: backing}
}

// Save persists p.
func (s *Store) Save(p persist.Profile) { s.backing.SaveProfile(p) }

// Get returns the named profile, if any.
func (s *Store) Get(name string) (persist.Profile, bool) { return s.backing.GetProfile(name) }

// List returns every stored profile.
func (s *Store) List() []persist.Profile { return s.backing.ListProfiles() }

// Capture reads the live network's spawn rates and light timings and
// saves them as a new named profile.
func (s *Store) Capture(e *engine.Engine, name string) persist.Profile {
	lights := e.GetTrafficLights()
	timings := make([]persist.LightTiming, len(lights))
	for i, l := range lights {
		timings[i] = persist.LightTiming{RoadID: l.RoadID, Lane: l.Lane, Green: l.Green, Yellow: l.Yellow, Red: l.Red}
	}

	spawnRates := make(map[core.RoadID]float64)
	for _, id := range e.GetRoads() {
		r, err := e.Road(id)
		if err != nil {
			continue
		}
		spawnRates[id] = r.SpawnRatePerMinute
	}

	p := persist.Profile{Name: name, SpawnRates: spawnRates, LightTimings: timings}
	s.backing.SaveProfile(p)
	return p
}

// Apply installs a profile's spawn rates and light timings onto the
// live engine in one shot (a degenerate, non-gradual chromosome
// application distinct from the controller's interpolated transitions).
func (s *Store) Apply(e *engine.Engine, name string) error {
	p, ok := s.backing.GetProfile(name)
	if !ok {
		return fmt.Errorf("profile: %q not found", name)
	}

	specs := make([]engine.LightSpec, len(p.LightTimings))
	for i, t := range p.LightTimings {
		specs[i] = engine.LightSpec{RoadID: t.RoadID, Lane: t.Lane, Green: t.Green, Yellow: t.Yellow, Red: t.Red}
	}
	e.SetTrafficLights(specs)

	rateSpecs := make([]engine.FlowRateSpec, 0, len(p.SpawnRates))
	for roadID, rate := range p.SpawnRates {
		rateSpecs = append(rateSpecs, engine.FlowRateSpec{RoadID: roadID, VehiclesPerMinute: rate})
	}
	e.SetFlowRates(rateSpecs)

	s.backing.SetActive(name)
	return nil
}

// Active returns the currently active profile, if any.
func (s *Store) Active() (persist.Profile, bool) { return s.backing.ActiveProfile() }
