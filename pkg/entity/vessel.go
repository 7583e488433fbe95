// pkg/entity/vessel.go
package entity

import (
	"math"

	"github.com/opd-ai/go-autopilot/pkg/actuation"
	"github.com/opd-ai/go-autopilot/pkg/physics"
)

// Thrusters describes a vessel's propulsion and what is currently firing.
type Thrusters struct {
	// Linear is the current thrust per bank, indexed by actuation.Direction.
	Linear [4]float64
	// Base is the hull's stock thrust per bank.
	Base               [4]float64
	Angular            float64
	BaseMaxSpeed       float64
	MaxAngularVelocity float64
	Enabled            bool

	Active        actuation.DirectionFlag
	AngularActive bool
}

// HasLinearAuthority reports whether any linear bank can produce thrust.
func (t *Thrusters) HasLinearAuthority() bool {
	for _, f := range t.Linear {
		if f > 0 {
			return true
		}
	}
	return false
}

// ControlModule is the on-board unit an autopilot runs on.
type ControlModule struct {
	Powered  bool
	Anchored bool
}

// Vessel is a thruster-driven body that can carry an autopilot
type Vessel struct {
	BaseEntity
	Body           *physics.Body
	Radius         float64
	Thrusters      Thrusters
	ControlModules []*ControlModule
	Occupants      []string
	Posture        actuation.Posture
	// PilotInput is the manual thrust a pilot holds, in the local frame.
	// Each axis runs from -1 to 1 as a fraction of the bank's thrust.
	PilotInput physics.Vector2D
}

// NewVessel creates a new vessel at rest
func NewVessel(name string, position physics.Vector2D, mass, inertia, radius float64) *Vessel {
	return &Vessel{
		BaseEntity: newBaseEntity(name),
		Body:       physics.NewBody(position, mass, inertia),
		Radius:     radius,
		Thrusters:  Thrusters{Enabled: true},
		Posture:    actuation.Drive,
	}
}

// GetPosition returns the vessel's position
func (v *Vessel) GetPosition() physics.Vector2D {
	return v.Body.Position
}

// GetCollider returns the vessel's collision shape
func (v *Vessel) GetCollider() physics.Circle {
	return physics.Circle{Center: v.Body.Position, Radius: v.Radius}
}

// AddControlModule installs an anchored control module.
func (v *Vessel) AddControlModule(powered bool) *ControlModule {
	m := &ControlModule{Powered: powered, Anchored: true}
	v.ControlModules = append(v.ControlModules, m)
	return m
}

// HasPoweredControlModule reports whether an anchored module has power.
func (v *Vessel) HasPoweredControlModule() bool {
	for _, m := range v.ControlModules {
		if m.Powered && m.Anchored {
			return true
		}
	}
	return false
}

// DetachControlModule unanchors module i. It reports true when the vessel
// is left without any anchored module.
func (v *Vessel) DetachControlModule(i int) bool {
	if i < 0 || i >= len(v.ControlModules) {
		return false
	}
	v.ControlModules[i].Anchored = false
	for _, m := range v.ControlModules {
		if m.Anchored {
			return false
		}
	}
	return true
}

// ReleasePilotInput drops any held manual steering.
func (v *Vessel) ReleasePilotInput() {
	v.PilotInput = physics.Vector2D{}
}

// PilotForce is the world-space force produced by the held pilot input.
// It is zero while propulsion is disabled.
func (v *Vessel) PilotForce() physics.Vector2D {
	if !v.Thrusters.Enabled || v.PilotInput == (physics.Vector2D{}) {
		return physics.Vector2D{}
	}

	var local physics.Vector2D
	if x := clampUnit(v.PilotInput.X); x > 0 {
		local.X = x * v.Thrusters.Linear[actuation.East]
	} else {
		local.X = x * v.Thrusters.Linear[actuation.West]
	}
	if y := clampUnit(v.PilotInput.Y); y > 0 {
		local.Y = y * v.Thrusters.Linear[actuation.North]
	} else {
		local.Y = y * v.Thrusters.Linear[actuation.South]
	}
	return actuation.ToWorld(local, v.Body.Rotation)
}

func clampUnit(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}
