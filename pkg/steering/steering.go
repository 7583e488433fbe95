// Package steering computes navigation forces: arrival toward a target,
// blending with obstacle avoidance, and thrust-aware top speed.
package steering

import (
	"math"

	"github.com/opd-ai/go-autopilot/pkg/actuation"
	"github.com/opd-ai/go-autopilot/pkg/physics"
)

// Params tunes arrival, blending and max-speed estimation.
type Params struct {
	ArrivalEpsilon float64 `json:"arrivalEpsilon" mapstructure:"arrivalEpsilon"`
	ArrivalDerate  float64 `json:"arrivalDerate" mapstructure:"arrivalDerate"`
	MaxForceRatio  float64 `json:"maxForceRatio" mapstructure:"maxForceRatio"`
	CriticalThreat float64 `json:"criticalThreat" mapstructure:"criticalThreat"`
	MinThreat      float64 `json:"minThreat" mapstructure:"minThreat"`
	ProjectionMin  float64 `json:"projectionMin" mapstructure:"projectionMin"`
	StillSpeedSq   float64 `json:"stillSpeedSq" mapstructure:"stillSpeedSq"`
	RatioEpsilon   float64 `json:"ratioEpsilon" mapstructure:"ratioEpsilon"`
}

// DefaultParams returns the tuning the simulator ships with.
func DefaultParams() Params {
	return Params{
		ArrivalEpsilon: 0.01,
		ArrivalDerate:  0.7,
		MaxForceRatio:  0.5,
		CriticalThreat: 0.8,
		MinThreat:      0.01,
		ProjectionMin:  0.01,
		StillSpeedSq:   0.01,
		RatioEpsilon:   0.0001,
	}
}

// DesiredSpeed ramps linearly from zero at the target to maxSpeed at slowdownRadius.
func DesiredSpeed(distance, maxSpeed, slowdownRadius float64) float64 {
	if slowdownRadius <= 0 || distance >= slowdownRadius {
		return maxSpeed
	}
	return maxSpeed * math.Max(0, distance) / slowdownRadius
}

// Arrival returns the seek-with-slowdown force toward target.
// Inside epsilon it cancels the current velocity.
func Arrival(position, target, velocity physics.Vector2D, maxSpeed, slowdownRadius, epsilon float64) physics.Vector2D {
	toTarget := target.Sub(position)
	distance := toTarget.Length()
	if distance < epsilon {
		return velocity.Neg()
	}
	desired := toTarget.Scale(DesiredSpeed(distance, maxSpeed, slowdownRadius) / distance)
	return desired.Sub(velocity)
}

// Blend mixes arrival and avoidance by threat level.
// Above the critical threat avoidance wins outright. Between the thresholds
// arrival loses its component pointing into the avoidance direction and the
// two are weighted by threat. Below MinThreat only arrival counts.
func (p Params) Blend(arrival, avoidance physics.Vector2D, threat float64) physics.Vector2D {
	switch {
	case threat > p.CriticalThreat:
		return avoidance
	case threat > p.MinThreat:
		if avoidance.LengthSquared() > p.ProjectionMin {
			dir := avoidance.Normalize()
			if along := arrival.Dot(dir); along < 0 {
				arrival = arrival.Sub(dir.Scale(along))
			}
		}
		return arrival.Scale(1 - threat).Add(avoidance.Scale(threat))
	default:
		return arrival
	}
}

// Input is everything Steer needs for one vessel tick.
type Input struct {
	Position       physics.Vector2D
	Target         physics.Vector2D
	Velocity       physics.Vector2D
	MaxSpeed       float64
	SlowdownRadius float64
	Threat         Threat
}

// Steer returns the final steering force, capped at MaxForceRatio of MaxSpeed.
func (p Params) Steer(in Input) physics.Vector2D {
	level := math.Max(0, math.Min(1, in.Threat.Level))
	effective := in.MaxSpeed * (1 - level*p.ArrivalDerate)
	arrival := Arrival(in.Position, in.Target, in.Velocity, effective, in.SlowdownRadius, p.ArrivalEpsilon)
	force := p.Blend(arrival, in.Threat.Force, level)
	return force.Truncate(p.MaxForceRatio * in.MaxSpeed)
}

// MaxSpeed scales baseMax by how the vessel's thrusters compare with the
// hull baseline along the direction of travel. velocity is in local space.
// Upgraded thrusters raise the result and weaker ones lower it; a vessel at
// rest or with no usable ratio gets baseMax.
func (p Params) MaxSpeed(velocity physics.Vector2D, linear, base [4]float64, baseMax float64) float64 {
	if velocity.LengthSquared() < p.StillSpeedSq {
		return baseMax
	}
	dir := velocity.Normalize()

	horizontal := actuation.West
	if dir.X > 0 {
		horizontal = actuation.East
	}
	vertical := actuation.South
	if dir.Y > 0 {
		vertical = actuation.North
	}

	sum := axisComponent(dir.X, linear[horizontal], base[horizontal]) +
		axisComponent(dir.Y, linear[vertical], base[vertical])
	if sum < p.RatioEpsilon {
		return baseMax
	}
	return baseMax / math.Sqrt(sum)
}

func axisComponent(component, actual, baseline float64) float64 {
	if component == 0 || actual <= 0 || baseline <= 0 {
		return 0
	}
	c := component * baseline / actual
	return c * c
}
