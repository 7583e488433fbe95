// pkg/engine/world.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/EngoEngine/ecs"
	"github.com/elliotchance/orderedmap/v2"

	"github.com/opd-ai/go-autopilot/pkg/actuation"
	"github.com/opd-ai/go-autopilot/pkg/autopilot"
	"github.com/opd-ai/go-autopilot/pkg/config"
	"github.com/opd-ai/go-autopilot/pkg/entity"
	"github.com/opd-ai/go-autopilot/pkg/event"
	"github.com/opd-ai/go-autopilot/pkg/logging"
	"github.com/opd-ai/go-autopilot/pkg/physics"
	"github.com/opd-ai/go-autopilot/pkg/steering"
	"github.com/opd-ai/go-autopilot/pkg/validation"
)

// ErrUnknownModule is returned when a control module index is out of range.
var ErrUnknownModule = errors.New("unknown control module")

// Message is one line delivered to an occupant's inbox.
type Message struct {
	Occupant string
	Text     string
	Tick     uint64
}

// World owns every simulated body and runs the autopilot and physics
// systems once per tick. It is the physics, actuator, power and spatial
// collaborator of the autopilot controller.
type World struct {
	Config       *config.Config
	Vessels      *orderedmap.OrderedMap[entity.ID, *entity.Vessel]
	Stations     *orderedmap.OrderedMap[entity.ID, *entity.Station]
	EntityLock   sync.RWMutex
	TimeStep     float64 // Seconds per tick
	CurrentTick  uint64
	EventBus     *event.Bus
	SpatialIndex *physics.QuadTree[steering.Body]
	Logger       *logging.Logger

	// StopWhenIdle ends Run once no vessel is navigating.
	StopWhenIdle bool
	// OnStep, if set, is called by Run after every tick.
	OnStep func(w *World)

	// overflow holds bodies outside the index boundary.
	overflow  []steering.Body
	maxRadius float64
	running   bool

	stepLock   sync.Mutex
	systems    *ecs.World
	controller *autopilot.Controller
	validator  *validation.CommandValidator
	notifier   autopilot.Notifier

	inboxLock sync.Mutex
	inbox     map[entity.ID][]Message
}

// NewWorld creates an empty world. A nil logger discards output.
func NewWorld(cfg *config.Config, logger *logging.Logger) *World {
	if logger == nil {
		logger = logging.Discard()
	}

	w := &World{
		Config:   cfg,
		Vessels:  orderedmap.NewOrderedMap[entity.ID, *entity.Vessel](),
		Stations: orderedmap.NewOrderedMap[entity.ID, *entity.Station](),
		TimeStep: 1.0 / float64(cfg.Simulation.TickRate),
		EventBus: event.NewEventBus(),
		Logger:   logger,
		systems:  &ecs.World{},
		inbox:    make(map[entity.ID][]Message),
	}
	w.initSpatialIndex()

	w.controller = autopilot.NewController(cfg, autopilot.Ports{
		Physics:  w,
		Actuator: w,
		Power:    w,
		Spatial:  w,
		Notifier: w,
	}, logger)
	w.validator = validation.NewCommandValidator(cfg.Simulation.WorldSize)

	w.systems.AddSystem(autopilot.NewSystem(w.controller))
	w.systems.AddSystem(&physicsSystem{world: w})

	return w
}

// NewWorldFromConfig builds a world and loads the configured scenario.
func NewWorldFromConfig(cfg *config.Config, logger *logging.Logger) (*World, error) {
	w := NewWorld(cfg, logger)
	if err := w.LoadScenario(cfg.Scenario); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// LoadScenario adds the scenario's stations and vessels and engages the
// autopilot of every vessel that has a destination.
func (w *World) LoadScenario(scenario config.ScenarioConfig) error {
	for _, sc := range scenario.Stations {
		w.AddStation(entity.NewStation(sc.Name, physics.Vector2D{X: sc.X, Y: sc.Y}, sc.Radius))
	}

	for _, vc := range scenario.Vessels {
		v := vesselFromConfig(vc)
		if err := w.AddVessel(v); err != nil {
			return err
		}
		if vc.Destination == nil {
			continue
		}
		dest := physics.Vector2D{X: vc.Destination.X, Y: vc.Destination.Y}
		if err := w.controller.Enable(v.GetID(), dest, vc.Label); err != nil {
			return fmt.Errorf("scenario vessel %q: %w", vc.Name, err)
		}
	}
	return nil
}

func vesselFromConfig(vc config.VesselConfig) *entity.Vessel {
	v := entity.NewVessel(vc.Name, physics.Vector2D{X: vc.X, Y: vc.Y}, vc.Mass, vc.Inertia, vc.Radius)
	v.Body.Rotation = vc.Rotation
	v.Thrusters.Linear = vc.Thrust
	v.Thrusters.Base = vc.BaseThrust
	if v.Thrusters.Base == [4]float64{} {
		v.Thrusters.Base = vc.Thrust
	}
	v.Thrusters.Angular = vc.AngularThrust
	v.Thrusters.BaseMaxSpeed = vc.BaseMaxSpeed
	v.Thrusters.MaxAngularVelocity = vc.MaxAngularVelocity
	for _, powered := range vc.ControlModules {
		v.AddControlModule(powered)
	}
	v.Occupants = append(v.Occupants, vc.Occupants...)
	return v
}

// initSpatialIndex creates the quad tree covering the world.
func (w *World) initSpatialIndex() {
	w.SpatialIndex = physics.NewQuadTree[steering.Body](
		physics.Rect{
			Center: physics.Vector2D{X: 0, Y: 0},
			Width:  w.Config.Simulation.WorldSize,
			Height: w.Config.Simulation.WorldSize,
		},
		w.Config.Simulation.SpatialCapacity,
	)
}

// Controller returns the autopilot controller driving this world.
func (w *World) Controller() *autopilot.Controller {
	return w.controller
}

// SetNotifier routes autopilot notices to n.
func (w *World) SetNotifier(n autopilot.Notifier) {
	w.EntityLock.Lock()
	defer w.EntityLock.Unlock()
	w.notifier = n
}

// Notify forwards a notice to the configured notifier.
func (w *World) Notify(n autopilot.Notice) {
	w.EntityLock.RLock()
	notifier := w.notifier
	w.EntityLock.RUnlock()

	if notifier != nil {
		notifier.Notify(n)
	}
}

// AddVessel places a vessel in the world.
func (w *World) AddVessel(v *entity.Vessel) error {
	name, err := validation.ValidateVesselName(v.Name)
	if err != nil {
		return fmt.Errorf("add vessel: %w", err)
	}
	v.Name = name

	w.EntityLock.Lock()
	w.Vessels.Set(v.GetID(), v)
	w.rebuildSpatialIndex()
	w.EntityLock.Unlock()

	w.Logger.Info(context.Background(), "vessel added",
		"vessel_id", v.GetID(),
		"name", v.Name,
		"x", v.Body.Position.X,
		"y", v.Body.Position.Y,
	)
	return nil
}

// AddStation places a static obstacle in the world.
func (w *World) AddStation(s *entity.Station) {
	w.EntityLock.Lock()
	defer w.EntityLock.Unlock()

	w.Stations.Set(s.GetID(), s)
	w.rebuildSpatialIndex()
}

// RemoveVessel takes a vessel out of the world and every system.
func (w *World) RemoveVessel(id entity.ID) bool {
	w.EntityLock.Lock()
	v, ok := w.Vessels.Get(id)
	if ok {
		w.Vessels.Delete(id)
		w.rebuildSpatialIndex()
	}
	w.EntityLock.Unlock()
	if !ok {
		return false
	}

	w.stepLock.Lock()
	w.systems.RemoveEntity(v.BasicEntity)
	w.stepLock.Unlock()

	w.inboxLock.Lock()
	delete(w.inbox, id)
	w.inboxLock.Unlock()

	w.EventBus.Publish(event.NewVesselEvent(event.VesselRemoved, w, uint64(id)))
	w.Logger.Info(context.Background(), "vessel removed", "vessel_id", id)
	return true
}

// DetachControlModule unanchors module index of a vessel. The autopilot
// stops once no anchored module remains.
func (w *World) DetachControlModule(id entity.ID, index int) error {
	w.EntityLock.Lock()
	v, ok := w.Vessels.Get(id)
	if !ok {
		w.EntityLock.Unlock()
		return fmt.Errorf("detach control module: %w %d", autopilot.ErrUnknownVessel, id)
	}
	if index < 0 || index >= len(v.ControlModules) {
		w.EntityLock.Unlock()
		return fmt.Errorf("detach control module %d on vessel %d: %w", index, id, ErrUnknownModule)
	}
	orphaned := v.DetachControlModule(index)
	w.EntityLock.Unlock()

	if orphaned {
		w.controller.ModuleDetached(id)
	}
	return nil
}

// SetModulePower switches a control module's power supply.
func (w *World) SetModulePower(id entity.ID, index int, powered bool) error {
	w.EntityLock.Lock()
	defer w.EntityLock.Unlock()

	v, ok := w.Vessels.Get(id)
	if !ok {
		return fmt.Errorf("set module power: %w %d", autopilot.ErrUnknownVessel, id)
	}
	if index < 0 || index >= len(v.ControlModules) {
		return fmt.Errorf("set module power %d on vessel %d: %w", index, id, ErrUnknownModule)
	}
	v.ControlModules[index].Powered = powered
	return nil
}

// Navigate is an operator command: it engages the autopilot toward
// destination, or retargets a vessel that is already navigating.
func (w *World) Navigate(operator string, id entity.ID, destination physics.Vector2D, label string) error {
	clean, err := w.validator.ValidateNavigate(operator, destination, label)
	if err != nil {
		return fmt.Errorf("navigate vessel %d: %w", id, err)
	}
	if st, ok := w.controller.State(id); ok && st.Enabled {
		return w.controller.SetDestination(id, destination, clean)
	}
	return w.controller.Enable(id, destination, clean)
}

// Disengage is an operator command that turns the autopilot off.
func (w *World) Disengage(operator string, id entity.ID) error {
	if err := w.validator.Allow(operator); err != nil {
		return fmt.Errorf("disengage vessel %d: %w", id, err)
	}
	w.controller.Disable(id)
	return nil
}

// Start marks the world as running
func (w *World) Start() {
	w.EntityLock.Lock()
	w.running = true
	w.EntityLock.Unlock()

	w.EventBus.Publish(&event.BaseEvent{
		EventType: event.SimulationStarted,
		Source:    w,
	})
}

// Stop halts the run loop
func (w *World) Stop() {
	w.EntityLock.Lock()
	w.running = false
	w.EntityLock.Unlock()

	w.EventBus.Publish(&event.BaseEvent{
		EventType: event.SimulationStopped,
		Source:    w,
	})
}

// Running reports whether Start was called without a matching Stop.
func (w *World) Running() bool {
	w.EntityLock.RLock()
	defer w.EntityLock.RUnlock()
	return w.running
}

// Close releases the command validator.
func (w *World) Close() {
	w.validator.Close()
}

// Step advances the world by one fixed tick: autopilot first, then physics.
func (w *World) Step() {
	w.stepLock.Lock()
	w.systems.Update(float32(w.TimeStep))
	w.stepLock.Unlock()

	w.EntityLock.Lock()
	w.CurrentTick++
	w.EntityLock.Unlock()
}

// Run starts the world and steps it until ctx is done, Stop is called,
// maxTicks ticks have run (zero means no limit) or, with StopWhenIdle,
// no vessel is navigating. It returns the number of ticks run.
func (w *World) Run(ctx context.Context, maxTicks int) int {
	w.Start()
	ticks := 0
	for w.Running() {
		if ctx.Err() != nil {
			break
		}
		if maxTicks > 0 && ticks >= maxTicks {
			break
		}
		if w.StopWhenIdle && w.Navigating() == 0 {
			break
		}
		w.Step()
		ticks++
		if w.OnStep != nil {
			w.OnStep(w)
		}
	}
	if w.Running() {
		w.Stop()
	}
	return ticks
}

// Navigating counts the vessels whose autopilot is engaged.
func (w *World) Navigating() int {
	n := 0
	for _, id := range w.controller.Vessels() {
		if st, ok := w.controller.State(id); ok && st.Enabled {
			n++
		}
	}
	return n
}

// Kinematics implements autopilot.Physics
func (w *World) Kinematics(id entity.ID) (autopilot.Kinematics, bool) {
	w.EntityLock.RLock()
	defer w.EntityLock.RUnlock()

	v, ok := w.Vessels.Get(id)
	if !ok {
		return autopilot.Kinematics{}, false
	}
	b := v.Body
	return autopilot.Kinematics{
		Position:        b.Position,
		Rotation:        b.Rotation,
		Velocity:        b.Velocity,
		AngularVelocity: b.AngularVelocity,
		InvMass:         b.InvMass,
		InvInertia:      b.InvInertia,
		Radius:          v.Radius,
	}, true
}

// ApplyForce implements autopilot.Physics
func (w *World) ApplyForce(id entity.ID, force physics.Vector2D) {
	w.withVessel(id, func(v *entity.Vessel) { v.Body.ApplyForce(force) })
}

// ApplyAngularImpulse implements autopilot.Physics
func (w *World) ApplyAngularImpulse(id entity.ID, impulse float64) {
	w.withVessel(id, func(v *entity.Vessel) { v.Body.ApplyAngularImpulse(impulse) })
}

// Thrust implements autopilot.Actuator
func (w *World) Thrust(id entity.ID) (autopilot.ThrustProfile, bool) {
	w.EntityLock.RLock()
	defer w.EntityLock.RUnlock()

	v, ok := w.Vessels.Get(id)
	if !ok {
		return autopilot.ThrustProfile{}, false
	}
	t := v.Thrusters
	return autopilot.ThrustProfile{
		Linear:             t.Linear,
		Base:               t.Base,
		Angular:            t.Angular,
		BaseMaxSpeed:       t.BaseMaxSpeed,
		MaxAngularVelocity: t.MaxAngularVelocity,
		Enabled:            t.Enabled,
	}, true
}

// EnableLinearThrust implements autopilot.Actuator
func (w *World) EnableLinearThrust(id entity.ID, directions actuation.DirectionFlag) {
	w.withVessel(id, func(v *entity.Vessel) { v.Thrusters.Active = directions })
}

// DisableLinearThrust implements autopilot.Actuator
func (w *World) DisableLinearThrust(id entity.ID) {
	w.withVessel(id, func(v *entity.Vessel) { v.Thrusters.Active = actuation.None })
}

// SetAngularThrust implements autopilot.Actuator
func (w *World) SetAngularThrust(id entity.ID, on bool) {
	w.withVessel(id, func(v *entity.Vessel) { v.Thrusters.AngularActive = on })
}

// SetPosture implements autopilot.Actuator
func (w *World) SetPosture(id entity.ID, posture actuation.Posture) {
	w.withVessel(id, func(v *entity.Vessel) { v.Posture = posture })
}

// ReleasePilotInput implements autopilot.Actuator
func (w *World) ReleasePilotInput(id entity.ID) {
	w.withVessel(id, func(v *entity.Vessel) { v.ReleasePilotInput() })
}

// HasPoweredControlModule implements autopilot.Power
func (w *World) HasPoweredControlModule(id entity.ID) bool {
	w.EntityLock.RLock()
	defer w.EntityLock.RUnlock()

	v, ok := w.Vessels.Get(id)
	return ok && v.HasPoweredControlModule()
}

// BodiesInRange implements steering.Spatial. A body is returned when any
// part of it lies within radius of center.
func (w *World) BodiesInRange(center physics.Vector2D, radius float64) []steering.Body {
	if radius <= 0 {
		return nil
	}

	w.EntityLock.RLock()
	defer w.EntityLock.RUnlock()

	candidates := w.SpatialIndex.QueryRadius(center, radius+w.maxRadius)
	candidates = append(candidates, w.overflow...)

	found := candidates[:0]
	for _, b := range candidates {
		if b.Position.Distance(center)-b.Radius <= radius {
			found = append(found, b)
		}
	}
	return found
}

// Occupants lists who is aboard a vessel.
func (w *World) Occupants(id entity.ID) []string {
	w.EntityLock.RLock()
	defer w.EntityLock.RUnlock()

	v, ok := w.Vessels.Get(id)
	if !ok {
		return nil
	}
	return append([]string(nil), v.Occupants...)
}

// Deliver appends text to an occupant's inbox.
func (w *World) Deliver(id entity.ID, occupant, text string) error {
	w.EntityLock.RLock()
	_, ok := w.Vessels.Get(id)
	tick := w.CurrentTick
	w.EntityLock.RUnlock()
	if !ok {
		return fmt.Errorf("deliver to %q: %w %d", occupant, autopilot.ErrUnknownVessel, id)
	}

	w.inboxLock.Lock()
	defer w.inboxLock.Unlock()
	w.inbox[id] = append(w.inbox[id], Message{Occupant: occupant, Text: text, Tick: tick})
	return nil
}

// Inbox returns every message delivered aboard a vessel, oldest first.
func (w *World) Inbox(id entity.ID) []Message {
	w.inboxLock.Lock()
	defer w.inboxLock.Unlock()
	return append([]Message(nil), w.inbox[id]...)
}

func (w *World) withVessel(id entity.ID, fn func(v *entity.Vessel)) {
	w.EntityLock.Lock()
	defer w.EntityLock.Unlock()

	if v, ok := w.Vessels.Get(id); ok {
		fn(v)
	}
}

// rebuildSpatialIndex reinserts every body. Callers hold EntityLock.
func (w *World) rebuildSpatialIndex() {
	w.SpatialIndex.Clear()
	w.overflow = w.overflow[:0]
	w.maxRadius = 0

	insert := func(b steering.Body) {
		if b.Radius > w.maxRadius {
			w.maxRadius = b.Radius
		}
		if !w.SpatialIndex.Insert(b.Position, b) {
			w.overflow = append(w.overflow, b)
		}
	}

	for el := w.Vessels.Front(); el != nil; el = el.Next() {
		v := el.Value
		insert(steering.Body{ID: uint64(el.Key), Name: v.Name, Position: v.Body.Position, Radius: v.Radius})
	}
	for el := w.Stations.Front(); el != nil; el = el.Next() {
		s := el.Value
		insert(steering.Body{ID: uint64(el.Key), Name: s.Name, Position: s.Position, Radius: s.Radius})
	}
}
