// pkg/engine/physics_system.go
package engine

import (
	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-autopilot/pkg/actuation"
	"github.com/opd-ai/go-autopilot/pkg/entity"
	"github.com/opd-ai/go-autopilot/pkg/physics"
)

// PhysicsPriority runs integration after every control system.
const PhysicsPriority = 0

// separationSlop keeps bodies from resting exactly in contact.
const separationSlop = 0.1

// physicsSystem integrates vessel bodies and resolves overlaps.
type physicsSystem struct {
	world *World
}

// Update satisfies the ecs.System interface
func (s *physicsSystem) Update(dt float32) {
	s.world.integrate(float64(dt))
}

// Remove satisfies the ecs.System interface
func (s *physicsSystem) Remove(ecs.BasicEntity) {}

// Priority satisfies the ecs.Prioritizer interface
func (s *physicsSystem) Priority() int {
	return PhysicsPriority
}

// integrate applies held pilot input, advances every vessel body, separates
// overlapping bodies and refreshes the spatial index.
func (w *World) integrate(deltaTime float64) {
	if deltaTime <= 0 {
		return
	}

	w.EntityLock.Lock()
	defer w.EntityLock.Unlock()

	sim := w.Config.Simulation
	for el := w.Vessels.Front(); el != nil; el = el.Next() {
		v := el.Value
		v.Body.LinearDamping = sim.DriveDamping
		if v.Posture == actuation.Parked {
			v.Body.LinearDamping = sim.ParkedDamping
		}
		v.Body.AngularDamping = sim.AngularDamping
		if f := v.PilotForce(); f != (physics.Vector2D{}) {
			v.Body.ApplyForce(f)
		}
		v.Body.Step(deltaTime)
	}

	w.resolveStationContacts()
	w.resolveVesselContacts()
	w.rebuildSpatialIndex()
}

// resolveStationContacts pushes vessels out of stations and cancels the
// velocity component pointing into the station.
func (w *World) resolveStationContacts() {
	for vel := w.Vessels.Front(); vel != nil; vel = vel.Next() {
		v := vel.Value
		for sel := w.Stations.Front(); sel != nil; sel = sel.Next() {
			res := physics.CheckCollision(sel.Value.GetCollider(), v.GetCollider())
			if !res.Collided {
				continue
			}
			v.Body.Position = v.Body.Position.Add(res.Normal.Scale(res.Penetration + separationSlop))
			cancelApproach(v, res.Normal)
		}
	}
}

// resolveVesselContacts nudges overlapping vessels apart along the line
// between their centers, each taking half of the overlap.
func (w *World) resolveVesselContacts() {
	for a := w.Vessels.Front(); a != nil; a = a.Next() {
		for b := a.Next(); b != nil; b = b.Next() {
			res := physics.CheckCollision(a.Value.GetCollider(), b.Value.GetCollider())
			if !res.Collided {
				continue
			}
			push := res.Normal.Scale((res.Penetration + separationSlop) / 2)
			a.Value.Body.Position = a.Value.Body.Position.Sub(push)
			b.Value.Body.Position = b.Value.Body.Position.Add(push)
			cancelApproach(a.Value, res.Normal.Neg())
			cancelApproach(b.Value, res.Normal)
		}
	}
}

// cancelApproach removes the part of v's velocity that points against normal.
func cancelApproach(v *entity.Vessel, normal physics.Vector2D) {
	if vn := v.Body.Velocity.Dot(normal); vn < 0 {
		v.Body.Velocity = v.Body.Velocity.Sub(normal.Scale(vn))
	}
}
