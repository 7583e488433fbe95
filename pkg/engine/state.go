// pkg/engine/state.go
package engine

import (
	"github.com/opd-ai/go-autopilot/pkg/actuation"
	"github.com/opd-ai/go-autopilot/pkg/autopilot"
	"github.com/opd-ai/go-autopilot/pkg/entity"
	"github.com/opd-ai/go-autopilot/pkg/physics"
)

// WorldState represents a snapshot of the world
type WorldState struct {
	Tick     uint64
	Vessels  []VesselState
	Stations []StationState
}

// VesselState represents a snapshot of a vessel and its autopilot
type VesselState struct {
	ID        entity.ID
	Name      string
	Position  physics.Vector2D
	Rotation  float64
	Velocity  physics.Vector2D
	Posture   actuation.Posture
	Thrusters actuation.DirectionFlag
	Phase     autopilot.Phase
	Engaged   bool
	Target    *physics.Vector2D
	Label     string
	Outcome   autopilot.NoticeKind
}

// StationState represents a snapshot of a station
type StationState struct {
	ID       entity.ID
	Name     string
	Position physics.Vector2D
	Radius   float64
}

// Snapshot returns the current world state in insertion order.
func (w *World) Snapshot() WorldState {
	w.EntityLock.RLock()
	state := WorldState{Tick: w.CurrentTick}
	for el := w.Vessels.Front(); el != nil; el = el.Next() {
		v := el.Value
		state.Vessels = append(state.Vessels, VesselState{
			ID:        el.Key,
			Name:      v.Name,
			Position:  v.Body.Position,
			Rotation:  v.Body.Rotation,
			Velocity:  v.Body.Velocity,
			Posture:   v.Posture,
			Thrusters: v.Thrusters.Active,
		})
	}
	for el := w.Stations.Front(); el != nil; el = el.Next() {
		s := el.Value
		state.Stations = append(state.Stations, StationState{
			ID:       el.Key,
			Name:     s.Name,
			Position: s.Position,
			Radius:   s.Radius,
		})
	}
	w.EntityLock.RUnlock()

	// Read after releasing EntityLock: the controller takes it while holding its own lock.
	for i := range state.Vessels {
		vs := &state.Vessels[i]
		if nav, ok := w.controller.State(vs.ID); ok {
			vs.Phase = nav.Phase
			vs.Engaged = nav.Enabled
			vs.Target = nav.Target
			vs.Label = nav.Label
			vs.Outcome = nav.Outcome
		}
	}
	return state
}
