package actuation

import (
	"math"

	"github.com/opd-ai/go-autopilot/pkg/physics"
)

// Vessel is the actuation view of one vessel for a single tick.
type Vessel struct {
	Rotation           float64
	Velocity           physics.Vector2D
	AngularVelocity    float64
	InvMass            float64
	InvInertia         float64
	Linear             [4]float64
	AngularThrust      float64
	MaxAngularVelocity float64
}

// LinearCommand selects thruster banks and the world-space force they produce.
// An empty Active set means every linear thruster should be switched off.
type LinearCommand struct {
	Active DirectionFlag
	Force  physics.Vector2D
}

// AngularCommand toggles the angular thrusters and carries the impulse for this tick.
// Impulse may be non-zero while Thrust is false when only damping applies.
type AngularCommand struct {
	Thrust  bool
	Impulse float64
}

// Translator maps continuous steering onto discrete thrusters.
type Translator struct {
	params Params
}

// NewTranslator creates a translator with the given tuning.
func NewTranslator(params Params) *Translator {
	return &Translator{params: params}
}

// Params returns the translator tuning.
func (t *Translator) Params() Params {
	return t.params
}

// Linear translates a world-space steering force into thruster banks.
// targetMax is the speed cap for this tick, already derated for threat.
func (t *Translator) Linear(v Vessel, steer physics.Vector2D, threat, targetMax float64) LinearCommand {
	p := t.params
	local := ToLocal(steer, v.Rotation)
	vel := ToLocal(v.Velocity, v.Rotation)

	var active DirectionFlag
	var force physics.Vector2D

	if threat > p.BrakeThreat && vel.Length() > targetMax {
		// Shed speed first; only fire against axes that are actually moving.
		switch {
		case vel.X > p.VelocityDeadBand:
			active = active.With(West)
			force.X -= v.Linear[West]
		case vel.X < -p.VelocityDeadBand:
			active = active.With(East)
			force.X += v.Linear[East]
		}
		switch {
		case vel.Y > p.VelocityDeadBand:
			active = active.With(South)
			force.Y -= v.Linear[South]
		case vel.Y < -p.VelocityDeadBand:
			active = active.With(North)
			force.Y += v.Linear[North]
		}
	} else {
		switch {
		case local.X > p.SteeringDeadBand && vel.X < targetMax:
			active = active.With(East)
			force.X += v.Linear[East]
		case local.X < -p.SteeringDeadBand && vel.X > -targetMax:
			active = active.With(West)
			force.X -= v.Linear[West]
		}
		switch {
		case local.Y > p.SteeringDeadBand && vel.Y < targetMax:
			active = active.With(North)
			force.Y += v.Linear[North]
		case local.Y < -p.SteeringDeadBand && vel.Y > -targetMax:
			active = active.With(South)
			force.Y -= v.Linear[South]
		}
	}

	if threat > p.BrakeThreat && !active.Has(East) && !active.Has(West) {
		switch {
		case local.X > p.SteeringDeadBand:
			active = active.With(East)
			force.X += v.Linear[East] * p.DodgeScale
		case local.X < -p.SteeringDeadBand:
			active = active.With(West)
			force.X -= v.Linear[West] * p.DodgeScale
		}
	}

	if active == None {
		return LinearCommand{}
	}
	return LinearCommand{Active: active, Force: ToWorld(force, v.Rotation)}
}

// Facing picks the direction the vessel's front should point at.
// It follows the velocity once the vessel is moving and the target otherwise.
func (t *Translator) Facing(velocity, toTarget physics.Vector2D) physics.Vector2D {
	if velocity.LengthSquared() > t.params.FacingSpeedSq {
		return velocity.Normalize()
	}
	if toTarget.LengthSquared() > 0 {
		return toTarget.Normalize()
	}
	return physics.UnitY
}

// Rotate turns the vessel toward facing with a damped proportional controller.
func (t *Translator) Rotate(v Vessel, facing physics.Vector2D, deltaTime float64) AngularCommand {
	p := t.params
	var cmd AngularCommand

	if math.Abs(v.AngularVelocity) > p.AngularRest {
		cmd.Impulse = -v.AngularVelocity * v.AngularThrust * p.AngularDamping * deltaTime
	}

	diff := physics.ShortestAngle(v.Rotation, HeadingAngle(facing))
	if math.Abs(diff) < p.HeadingDeadZone {
		return cmd
	}

	sign := 1.0
	if diff < 0 {
		sign = -1.0
	}
	ratio := math.Max(p.MinTorqueRatio, math.Min(1, math.Abs(diff)))
	torque := v.AngularThrust * sign * p.TorqueScale * ratio

	ceiling := v.MaxAngularVelocity * p.AngularCeiling
	if (sign > 0 && v.AngularVelocity < ceiling) || (sign < 0 && v.AngularVelocity > -ceiling) {
		cmd.Thrust = true
		cmd.Impulse += torque * deltaTime
	}
	return cmd
}

// Brake opposes linear and angular motion for one tick.
// Each force component is clamped so the integrated velocity reaches zero
// at most and never reverses sign.
func (t *Translator) Brake(v Vessel, deltaTime float64) (LinearCommand, AngularCommand) {
	p := t.params
	vel := ToLocal(v.Velocity, v.Rotation)

	var active DirectionFlag
	var force physics.Vector2D

	if math.Abs(vel.X) > p.BrakeRest {
		if vel.X > 0 {
			active = active.With(West)
			force.X = -t.brakeForce(v.Linear[West], vel.X, v.InvMass, deltaTime)
		} else {
			active = active.With(East)
			force.X = t.brakeForce(v.Linear[East], vel.X, v.InvMass, deltaTime)
		}
	}
	if math.Abs(vel.Y) > p.BrakeRest {
		if vel.Y > 0 {
			active = active.With(South)
			force.Y = -t.brakeForce(v.Linear[South], vel.Y, v.InvMass, deltaTime)
		} else {
			active = active.With(North)
			force.Y = t.brakeForce(v.Linear[North], vel.Y, v.InvMass, deltaTime)
		}
	}

	var linear LinearCommand
	if active != None {
		linear = LinearCommand{Active: active, Force: ToWorld(force, v.Rotation)}
	}

	var angular AngularCommand
	if math.Abs(v.AngularVelocity) > p.AngularRest {
		impulse := -math.Copysign(v.AngularThrust*p.BrakeCoefficient, v.AngularVelocity) * deltaTime
		if v.InvInertia > 0 {
			limit := math.Abs(v.AngularVelocity) / v.InvInertia * (1 - brakeShave)
			if math.Abs(impulse) > limit {
				impulse = math.Copysign(limit, impulse)
			}
		}
		angular = AngularCommand{Thrust: true, Impulse: impulse}
	}
	return linear, angular
}

// brakeShave keeps a clamped brake just short of the exact stopping force so
// rounding in the frame rotation and integration cannot carry a component
// past zero.
const brakeShave = 1e-9

// brakeForce returns the magnitude of the force opposing speed along one axis.
func (t *Translator) brakeForce(thrust, speed, invMass, deltaTime float64) float64 {
	f := thrust * t.params.BrakeCoefficient
	if invMass > 0 && deltaTime > 0 {
		f = math.Min(f, math.Abs(speed)/(deltaTime*invMass)*(1-brakeShave))
	}
	return f
}
