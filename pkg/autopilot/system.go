package autopilot

import (
	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-autopilot/pkg/entity"
)

// SystemPriority orders navigation ahead of physics integration.
const SystemPriority = 10

// System adapts a Controller to the ecs world loop.
type System struct {
	controller *Controller
}

// NewSystem wraps c as an ecs.System.
func NewSystem(c *Controller) *System {
	return &System{controller: c}
}

// Update satisfies the ecs.System interface
func (s *System) Update(dt float32) {
	s.controller.Update(float64(dt))
}

// Remove satisfies the ecs.System interface
func (s *System) Remove(basic ecs.BasicEntity) {
	s.controller.Remove(entity.ID(basic.ID()))
}

// Priority satisfies the ecs.Prioritizer interface
func (s *System) Priority() int {
	return SystemPriority
}

// Controller returns the wrapped controller.
func (s *System) Controller() *Controller {
	return s.controller
}
