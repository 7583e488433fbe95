// pkg/entity/station.go
package entity

import (
	"github.com/opd-ai/go-autopilot/pkg/physics"
)

// Station is an immovable body such as a relay or dock
type Station struct {
	BaseEntity
	Position physics.Vector2D
	Radius   float64
}

// NewStation creates a new station
func NewStation(name string, position physics.Vector2D, radius float64) *Station {
	return &Station{
		BaseEntity: newBaseEntity(name),
		Position:   position,
		Radius:     radius,
	}
}

// GetPosition returns the station's position
func (s *Station) GetPosition() physics.Vector2D {
	return s.Position
}

// GetCollider returns the station's collision shape
func (s *Station) GetCollider() physics.Circle {
	return physics.Circle{Center: s.Position, Radius: s.Radius}
}
