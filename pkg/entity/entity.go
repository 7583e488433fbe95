// pkg/entity/entity.go
package entity

import (
	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-autopilot/pkg/physics"
)

// ID is a unique identifier for an entity
type ID uint64

// Entity is the base interface for all simulated bodies
type Entity interface {
	GetID() ID
	GetName() string
	GetPosition() physics.Vector2D
	GetCollider() physics.Circle
}

// BaseEntity contains common functionality for all entities
type BaseEntity struct {
	ecs.BasicEntity
	Name string
}

// newBaseEntity allocates a fresh ecs identity.
func newBaseEntity(name string) BaseEntity {
	return BaseEntity{BasicEntity: ecs.NewBasic(), Name: name}
}

// GetID returns the entity's unique identifier
func (e *BaseEntity) GetID() ID {
	return ID(e.BasicEntity.ID())
}

// GetName returns the entity's display name
func (e *BaseEntity) GetName() string {
	return e.Name
}
