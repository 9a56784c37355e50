package core

import "math"

// VehicleKind tags what a Vehicle value represents. Traffic-light
// sentinels and obstacles share the Vehicle struct's kinematic fields so
// Road can treat "the thing ahead" uniformly without a type switch at
// every call site.
type VehicleKind int

const (
	KindCar VehicleKind = iota
	KindTrafficLightSentinel
	KindObstacle
)

// MOBIL and IDM tuning constants shared by every vehicle unless
// overridden per-instance from config.
const (
	DefaultPoliteness       = 0.3
	DefaultChangeThreshold  = 0.2
	DefaultSafeBrakingLimit = 4.0
	DefaultAccelExponent    = 4.0
	FreeRoadThreshold       = 100.0
	LaneChangeLookahead     = 25.0
)

// Vehicle is a kinematic particle on one lane of one road.
type Vehicle struct {
	ID   VehicleID
	Kind VehicleKind

	Position     float64 // meters from lane start
	Velocity     float64 // m/s, >= 0
	Acceleration float64 // m/s^2
	Length       float64 // meters; 0 for sentinels/obstacles

	DesiredVelocity float64 // v0
	Aggressivity    float64 // [0,1], informational only

	SafeHeadway         float64 // T
	MaxAcceleration     float64 // a
	ComfortDeceleration float64 // b
	MinGap              float64 // s0
	AccelExponent       float64 // delta

	Politeness       float64
	ChangeThreshold  float64
	SafeBrakingLimit float64

	SlowingDown bool

	Itinerary      []RoadID
	RoadTimeElapsed float64
}

// NewVehicle builds a car with the supplied kinematic defaults, normally
// copied from config.VehicleConfig.
func NewVehicle(id VehicleID, velocity, aggressivity, length, desiredVelocity, T, a, b, s0 float64) *Vehicle {
	return &Vehicle{
		ID:                  id,
		Kind:                KindCar,
		Velocity:            velocity,
		Length:              length,
		Aggressivity:        aggressivity,
		DesiredVelocity:     desiredVelocity,
		SafeHeadway:         T,
		MaxAcceleration:     a,
		ComfortDeceleration: b,
		MinGap:              s0,
		AccelExponent:       DefaultAccelExponent,
		Politeness:          DefaultPoliteness,
		ChangeThreshold:     DefaultChangeThreshold,
		SafeBrakingLimit:    DefaultSafeBrakingLimit,
	}
}

// NewTrafficLightSentinel returns the distinguished zero-length,
// zero-velocity virtual leader a Road substitutes for the frontmost
// vehicle on a lane whose light is not green.
func NewTrafficLightSentinel(roadLength float64) *Vehicle {
	return &Vehicle{
		Kind:     KindTrafficLightSentinel,
		Position: roadLength,
		Velocity: 0,
		Length:   0,
	}
}

// idmAcceleration computes the IDM acceleration of self following
// leader, per spec section 4.1.
func idmAcceleration(self, leader *Vehicle) float64 {
	netDistance := leader.Position - self.Position - leader.Length
	freeRoad := netDistance <= 0 || netDistance >= FreeRoadThreshold

	deltaV := self.Velocity - leader.Velocity
	denom := 2 * math.Sqrt(self.MaxAcceleration*self.ComfortDeceleration)
	sStar := self.MinGap + math.Max(0, self.Velocity*self.SafeHeadway+self.Velocity*deltaV/denom)

	velRatio := 0.0
	if self.DesiredVelocity > 0 {
		velRatio = self.Velocity / self.DesiredVelocity
	}
	freeTerm := math.Pow(velRatio, self.AccelExponent)

	interactionTerm := 0.0
	if !freeRoad {
		ratio := sStar / netDistance
		interactionTerm = ratio * ratio
	}

	return self.MaxAcceleration * (1 - freeTerm - interactionTerm)
}

// Update advances the vehicle by dt seconds under the supplied leader.
// It is a no-op for traffic-light sentinels and obstacles, which never
// move under their own power.
func (v *Vehicle) Update(dt float64, leader *Vehicle) {
	if v.Kind != KindCar {
		return
	}

	v.Acceleration = idmAcceleration(v, leader)

	prevVelocity := v.Velocity
	v.Position += v.Velocity*dt + 0.5*v.Acceleration*dt*dt
	v.Velocity += v.Acceleration * dt
	if v.Velocity < 0 {
		v.Velocity = 0
	}

	v.SlowingDown = v.Velocity < prevVelocity
	v.RoadTimeElapsed += dt
}

// isAbsent reports whether participant stands in for "no vehicle in
// this role", signaled by an infinite position.
func isAbsent(participant *Vehicle) bool {
	return math.IsInf(participant.Position, 0)
}

// AbsentLeader is the stand-in passed to CanChangeLane when a candidate
// lane has no vehicle ahead of the insertion point; per spec it
// contributes a_max to whichever vehicle treats it as leader.
func AbsentLeader() *Vehicle {
	return &Vehicle{Kind: KindObstacle, Position: math.Inf(1), Velocity: 0, Length: 0}
}

// AbsentFollower is the stand-in passed to CanChangeLane when a
// candidate lane has no vehicle behind the insertion point; per spec it
// contributes 0 to the politeness term.
func AbsentFollower() *Vehicle {
	return &Vehicle{Kind: KindObstacle, Position: math.Inf(-1), Velocity: 0, Length: 0}
}

// accelAgainst returns self's IDM acceleration when following leader,
// substituting MaxAcceleration when leader is the absent sentinel.
func accelAgainst(self, leader *Vehicle) float64 {
	if isAbsent(leader) {
		return self.MaxAcceleration
	}
	return idmAcceleration(self, leader)
}

// followerAccelAgainst returns follower's IDM acceleration when
// following leader, substituting 0 when follower is the absent
// sentinel (an absent follower is not a real vehicle to accelerate).
func followerAccelAgainst(follower, leader *Vehicle) float64 {
	if isAbsent(follower) {
		return 0
	}
	return idmAcceleration(follower, leader)
}

// CanChangeLane is the MOBIL predicate. currentLeader is self's leader
// on its present lane; newLeader/newFollower are the would-be neighbors
// on the candidate lane. Pass AbsentLeader()/AbsentFollower() for a
// candidate lane with no vehicle in that role. CanChangeLane is pure:
// it never mutates self or any argument.
func (v *Vehicle) CanChangeLane(currentLeader, newLeader, newFollower *Vehicle) bool {
	if !isAbsent(newLeader) {
		gap := newLeader.Position - v.Position - newLeader.Length
		if gap < v.MinGap+v.Length {
			return false
		}
	}
	if !isAbsent(newFollower) {
		gap := v.Position - newFollower.Position - v.Length
		if gap < v.MinGap+newFollower.Length {
			return false
		}
	}

	newFollowerAccelWithSelf := followerAccelAgainst(newFollower, v)
	if newFollowerAccelWithSelf < -v.SafeBrakingLimit {
		return false
	}

	aNowWithCurrent := accelAgainst(v, currentLeader)
	aNewWithNewLeader := accelAgainst(v, newLeader)
	newFollowerAccelNow := followerAccelAgainst(newFollower, newLeader)

	incentive := (aNewWithNewLeader - aNowWithCurrent) -
		v.Politeness*(newFollowerAccelNow-newFollowerAccelWithSelf)

	return incentive > v.ChangeThreshold
}
