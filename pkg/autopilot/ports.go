// Package autopilot drives vessels toward operator-chosen destinations.
//
// A Controller owns one NavigationState per vessel and runs a control cycle
// for each enabled vessel every tick: it checks power and propulsion, steers
// toward the target around obstacles, translates the result into thruster
// commands and parks the vessel on arrival. Everything outside the control
// loop (physics, thrusters, power, spatial queries, messaging) is reached
// through the small interfaces in this file.
package autopilot

import (
	"github.com/opd-ai/go-autopilot/pkg/actuation"
	"github.com/opd-ai/go-autopilot/pkg/entity"
	"github.com/opd-ai/go-autopilot/pkg/physics"
	"github.com/opd-ai/go-autopilot/pkg/steering"
)

// Kinematics is the physics view of one vessel.
type Kinematics struct {
	Position        physics.Vector2D
	Rotation        float64
	Velocity        physics.Vector2D
	AngularVelocity float64
	InvMass         float64
	InvInertia      float64
	Radius          float64
}

// ThrustProfile is the actuator view of one vessel. Linear and Base are
// indexed by actuation.Direction.
type ThrustProfile struct {
	Linear             [4]float64
	Base               [4]float64
	Angular            float64
	BaseMaxSpeed       float64
	MaxAngularVelocity float64
	Enabled            bool
}

// HasAuthority reports whether propulsion is on and some linear bank can push.
func (t ThrustProfile) HasAuthority() bool {
	if !t.Enabled {
		return false
	}
	for _, f := range t.Linear {
		if f > 0 {
			return true
		}
	}
	return false
}

// Capability is the snapshot a control cycle works from.
type Capability struct {
	Kinematics
	Thrust ThrustProfile
}

func (c Capability) vessel() actuation.Vessel {
	return actuation.Vessel{
		Rotation:           c.Rotation,
		Velocity:           c.Velocity,
		AngularVelocity:    c.AngularVelocity,
		InvMass:            c.InvMass,
		InvInertia:         c.InvInertia,
		Linear:             c.Thrust.Linear,
		AngularThrust:      c.Thrust.Angular,
		MaxAngularVelocity: c.Thrust.MaxAngularVelocity,
	}
}

// Physics reads vessel motion and applies forces.
type Physics interface {
	Kinematics(id entity.ID) (Kinematics, bool)
	ApplyForce(id entity.ID, force physics.Vector2D)
	ApplyAngularImpulse(id entity.ID, impulse float64)
}

// Actuator reports thruster capability and toggles thrusters.
type Actuator interface {
	Thrust(id entity.ID) (ThrustProfile, bool)
	EnableLinearThrust(id entity.ID, directions actuation.DirectionFlag)
	DisableLinearThrust(id entity.ID)
	SetAngularThrust(id entity.ID, on bool)
	SetPosture(id entity.ID, posture actuation.Posture)
	ReleasePilotInput(id entity.ID)
}

// Power answers whether a vessel has an energized, anchored control module.
type Power interface {
	HasPoweredControlModule(id entity.ID) bool
}

// Notifier delivers notices to a vessel's occupants.
type Notifier interface {
	Notify(n Notice)
}

// Ports bundles the collaborators a Controller needs. Notifier may be nil.
type Ports struct {
	Physics  Physics
	Actuator Actuator
	Power    Power
	Spatial  steering.Spatial
	Notifier Notifier
}
