// Package core implements the micro-simulation primitives: vehicles
// under the Intelligent Driver Model and MOBIL lane-change policy,
// cyclic traffic lights, and the per-road tick that ties them together.
package core

import "sync/atomic"

// RoadID identifies a Road within an Engine's city map.
type RoadID uint64

// VehicleID is a process-wide unique, monotonically issued identifier.
// It is never reused, matching the Vehicle invariant in the data model.
type VehicleID uint64

var nextVehicleID uint64
var nextRoadID uint64

// NewVehicleID issues the next process-wide vehicle id. Safe for
// concurrent use from Phase A road workers.
func NewVehicleID() VehicleID {
	return VehicleID(atomic.AddUint64(&nextVehicleID, 1))
}

// NewRoadID issues the next process-wide road id, used by network
// loaders that do not want to assign ids themselves.
func NewRoadID() RoadID {
	return RoadID(atomic.AddUint64(&nextRoadID, 1))
}
