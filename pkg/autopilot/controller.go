package autopilot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/opd-ai/go-autopilot/pkg/actuation"
	"github.com/opd-ai/go-autopilot/pkg/config"
	"github.com/opd-ai/go-autopilot/pkg/entity"
	"github.com/opd-ai/go-autopilot/pkg/logging"
	"github.com/opd-ai/go-autopilot/pkg/physics"
	"github.com/opd-ai/go-autopilot/pkg/steering"
	"github.com/opd-ai/go-autopilot/pkg/validation"
)

// ErrUnknownVessel is returned for commands naming a vessel the physics collaborator does not know.
var ErrUnknownVessel = errors.New("unknown vessel")

// Controller runs the navigation loop for every vessel with an autopilot.
type Controller struct {
	cfg        *config.Config
	ports      Ports
	logger     *logging.Logger
	steer      steering.Params
	scanner    *steering.Scanner
	translator *actuation.Translator

	mu     sync.Mutex
	states *orderedmap.OrderedMap[entity.ID, *NavigationState]
	tick   uint64
}

// NewController creates a controller. A nil logger discards output.
func NewController(cfg *config.Config, ports Ports, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Controller{
		cfg:        cfg,
		ports:      ports,
		logger:     logger,
		steer:      cfg.Steering,
		scanner:    steering.NewScanner(cfg.Scanner),
		translator: actuation.NewTranslator(cfg.Actuation),
		states:     orderedmap.NewOrderedMap[entity.ID, *NavigationState](),
	}
}

// Enable starts navigation toward destination. Enabling a vessel that is
// already navigating is a no-op.
func (c *Controller) Enable(id entity.ID, destination physics.Vector2D, label string) error {
	if err := validation.ValidateDestination(destination, c.cfg.Simulation.WorldSize); err != nil {
		return fmt.Errorf("enable autopilot on vessel %d: %w", id, err)
	}
	clean, err := validation.SanitizeLabel(label, destination)
	if err != nil {
		return fmt.Errorf("enable autopilot on vessel %d: %w", id, err)
	}
	if _, ok := c.ports.Physics.Kinematics(id); !ok {
		return fmt.Errorf("enable autopilot: %w %d", ErrUnknownVessel, id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.stateFor(id)
	if st.Enabled {
		return nil
	}

	st.resetJourney(logging.GenerateCorrelationID())
	st.Enabled = true
	st.Target = &destination
	st.Label = clean
	st.Phase = PhaseNavigating

	c.ports.Actuator.SetPosture(id, actuation.Drive)
	c.ports.Actuator.ReleasePilotInput(id)

	ctx := c.journeyContext(st)
	c.logger.Info(ctx, "autopilot engaged",
		"vessel_id", id,
		"target_x", destination.X,
		"target_y", destination.Y,
		"label", clean,
	)
	c.notify(id, st, NoticeEngaged, 0, fmt.Sprintf("Autopilot: engaged - heading to %s", clean))
	return nil
}

// SetDestination changes the target of a navigating vessel and forgets the
// obstacles already reported on the old course.
func (c *Controller) SetDestination(id entity.ID, destination physics.Vector2D, label string) error {
	if err := validation.ValidateDestination(destination, c.cfg.Simulation.WorldSize); err != nil {
		return fmt.Errorf("set destination on vessel %d: %w", id, err)
	}
	clean, err := validation.SanitizeLabel(label, destination)
	if err != nil {
		return fmt.Errorf("set destination on vessel %d: %w", id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.states.Get(id)
	if !ok || !st.Enabled {
		return fmt.Errorf("set destination: autopilot not engaged on vessel %d", id)
	}
	st.Target = &destination
	st.Label = clean
	for key := range st.reported {
		if key.kind == NoticeObstacleSeen || key.kind == NoticeScanStatus {
			delete(st.reported, key)
		}
	}
	c.logger.Info(c.journeyContext(st), "autopilot destination changed",
		"vessel_id", id, "target_x", destination.X, "target_y", destination.Y, "label", clean)
	return nil
}

// Configure replaces the navigation settings of one vessel.
func (c *Controller) Configure(id entity.ID, settings config.NavigationConfig) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("configure vessel %d: %w", id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateFor(id).Settings = settings
	return nil
}

// Disable stops navigation and switches every thruster off. Disabling an
// idle vessel is a no-op.
func (c *Controller) Disable(id entity.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.states.Get(id)
	if !ok || !st.Enabled {
		return
	}
	c.stop(id, st, NoticeDisengaged, "Autopilot: disengaged")
}

// ModuleDetached handles a control module being unanchored from the vessel.
func (c *Controller) ModuleDetached(id entity.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.states.Get(id)
	if !ok || !st.Enabled {
		return
	}
	c.stop(id, st, NoticeModuleDetached, "Autopilot: control module disconnected - autopilot disabled")
}

// Remove forgets a vessel. It is called when the vessel leaves the world.
func (c *Controller) Remove(id entity.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st, ok := c.states.Get(id); ok {
		st.Enabled = false
		st.Target = nil
		c.states.Delete(id)
	}
}

// State returns a copy of a vessel's navigation state.
func (c *Controller) State(id entity.ID) (NavigationState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.states.Get(id)
	if !ok {
		return NavigationState{}, false
	}
	return st.snapshot(), true
}

// Vessels lists every vessel with navigation state, in first-enabled order.
func (c *Controller) Vessels() []entity.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states.Keys()
}

// Tick returns the number of control cycles run so far.
func (c *Controller) Tick() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick
}

// Update runs one control cycle for every enabled vessel.
func (c *Controller) Update(deltaTime float64) {
	if deltaTime <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick++
	var vanished []entity.ID
	for el := c.states.Front(); el != nil; el = el.Next() {
		if !c.step(el.Key, el.Value, deltaTime) {
			vanished = append(vanished, el.Key)
		}
	}
	for _, id := range vanished {
		c.states.Delete(id)
	}
}

// step runs one cycle for a vessel. It returns false when the vessel no
// longer exists.
func (c *Controller) step(id entity.ID, st *NavigationState, deltaTime float64) bool {
	if st.release {
		st.release = false
		c.ports.Actuator.DisableLinearThrust(id)
		c.ports.Actuator.SetAngularThrust(id, false)
	}
	if !st.Enabled {
		return true
	}

	ctx := c.journeyContext(st)
	if st.Target == nil {
		c.stop(id, st, NoticeNoDestination, "Autopilot: no destination set - autopilot disabled")
		return true
	}

	kin, okKin := c.ports.Physics.Kinematics(id)
	thrust, okThrust := c.ports.Actuator.Thrust(id)
	if !okKin || !okThrust {
		c.logger.Warn(ctx, "vessel vanished while navigating", "vessel_id", id)
		return false
	}

	if !thrust.HasAuthority() {
		c.stop(id, st, NoticePropulsionOffline, "Autopilot: propulsion offline - autopilot disabled")
		return true
	}
	if !c.ports.Power.HasPoweredControlModule(id) {
		c.stop(id, st, NoticeLostPower, "Autopilot: control module lost power - autopilot disabled")
		return true
	}

	capability := Capability{Kinematics: kin, Thrust: thrust}
	toTarget := st.Target.Sub(kin.Position)
	distance := toTarget.Length()

	if distance <= st.Settings.ArrivalRadius {
		c.arrive(ctx, id, st, capability, distance, deltaTime)
		return true
	}
	c.navigate(ctx, id, st, capability, toTarget, deltaTime)
	return true
}

func (c *Controller) arrive(ctx context.Context, id entity.ID, st *NavigationState, capability Capability, distance, deltaTime float64) {
	st.Phase = PhaseArrived
	linear, angular := c.translator.Brake(capability.vessel(), deltaTime)
	c.apply(id, linear, angular)
	c.ports.Actuator.SetPosture(id, actuation.Parked)

	c.logger.Info(ctx, "autopilot arrived",
		"vessel_id", id,
		"label", st.Label,
		"distance", distance,
		"speed", capability.Velocity.Length(),
	)
	c.notify(id, st, NoticeArrived, 0, fmt.Sprintf("Autopilot: %s reached - parking", st.Label))

	st.Enabled = false
	st.Target = nil
	st.Phase = PhaseIdle
	st.Outcome = NoticeArrived
	st.release = true
}

func (c *Controller) navigate(ctx context.Context, id entity.ID, st *NavigationState, capability Capability, toTarget physics.Vector2D, deltaTime float64) {
	st.Phase = PhaseNavigating
	kin := capability.Kinematics
	vessel := capability.vessel()

	localVelocity := actuation.ToLocal(kin.Velocity, kin.Rotation)
	maxSpeed := c.steer.MaxSpeed(localVelocity, capability.Thrust.Linear, capability.Thrust.Base, capability.Thrust.BaseMaxSpeed) *
		st.Settings.SpeedMultiplier

	threat := c.scanner.Scan(c.ports.Spatial, steering.Probe{
		Self:       uint64(id),
		Position:   kin.Position,
		Velocity:   kin.Velocity,
		Radius:     kin.Radius,
		MaxSpeed:   maxSpeed,
		ScanRadius: st.Settings.ScanRadius,
		Collect:    st.Settings.ReportObstacles,
	})
	if st.Settings.ReportObstacles {
		c.reportSightings(id, st, kin.Radius, threat)
	}

	force := c.steer.Steer(steering.Input{
		Position:       kin.Position,
		Target:         *st.Target,
		Velocity:       kin.Velocity,
		MaxSpeed:       maxSpeed,
		SlowdownRadius: st.Settings.SlowdownRadius,
		Threat:         threat,
	})

	targetMax := c.translator.Params().TargetSpeed(maxSpeed, threat.Level)
	linear := c.translator.Linear(vessel, force, threat.Level, targetMax)
	angular := c.translator.Rotate(vessel, c.translator.Facing(kin.Velocity, toTarget), deltaTime)
	c.apply(id, linear, angular)

	c.logger.Debug(ctx, "autopilot steering",
		"vessel_id", id,
		"distance", toTarget.Length(),
		"max_speed", maxSpeed,
		"threat", threat.Level,
		"force_x", force.X,
		"force_y", force.Y,
		"thrusters", linear.Active.String(),
	)
}

// reportSightings sends the opt-in scan status and per-obstacle notices.
func (c *Controller) reportSightings(id entity.ID, st *NavigationState, radius float64, threat steering.Threat) {
	if threat.LookAhead <= 0 {
		return
	}
	c.notify(id, st, NoticeScanStatus, 0, fmt.Sprintf(
		"Autopilot: scanning - speed %.1f, look-ahead %.0fm, hull radius %.0fm, %d bodies in range",
		threat.Speed, threat.LookAhead, radius, threat.InRange))

	for _, s := range threat.Sightings {
		name := s.Body.Name
		if name == "" {
			name = fmt.Sprintf("body %d", s.Body.ID)
		}
		c.notify(id, st, NoticeObstacleSeen, entity.ID(s.Body.ID), fmt.Sprintf(
			"Autopilot: obstacle detected %s - %s (size %.0fm, distance %.0fm, lateral %.0fm, in path: %t)",
			s.Bearing, name, s.Body.Radius*2, s.Distance, s.Lateral, s.InPath))
	}
}

// stop forces a vessel to Idle, switches its thrusters off and sends the notice once.
func (c *Controller) stop(id entity.ID, st *NavigationState, kind NoticeKind, message string) {
	ctx := c.journeyContext(st)

	st.Enabled = false
	st.Target = nil
	st.Phase = PhaseIdle
	st.Outcome = kind
	st.release = false

	c.ports.Actuator.DisableLinearThrust(id)
	c.ports.Actuator.SetAngularThrust(id, false)

	c.logger.Info(ctx, "autopilot disabled", "vessel_id", id, "reason", kind.String())
	c.notify(id, st, kind, 0, message)
}

func (c *Controller) apply(id entity.ID, linear actuation.LinearCommand, angular actuation.AngularCommand) {
	if linear.Active == actuation.None {
		c.ports.Actuator.DisableLinearThrust(id)
	} else {
		c.ports.Actuator.EnableLinearThrust(id, linear.Active)
		c.ports.Physics.ApplyForce(id, linear.Force)
	}

	c.ports.Actuator.SetAngularThrust(id, angular.Thrust)
	if angular.Impulse != 0 {
		c.ports.Physics.ApplyAngularImpulse(id, angular.Impulse)
	}
}

// notify sends a notice unless the same (kind, obstacle) was already sent this journey.
func (c *Controller) notify(id entity.ID, st *NavigationState, kind NoticeKind, obstacle entity.ID, message string) {
	if !st.markReported(noticeKey{kind: kind, obstacle: obstacle}) {
		return
	}
	if c.ports.Notifier == nil {
		return
	}
	c.ports.Notifier.Notify(Notice{
		Kind:      kind,
		Vessel:    id,
		Obstacle:  obstacle,
		JourneyID: st.JourneyID,
		Label:     st.Label,
		Message:   message,
		Tick:      c.tick,
	})
}

func (c *Controller) stateFor(id entity.ID) *NavigationState {
	st, ok := c.states.Get(id)
	if !ok {
		st = newNavigationState(c.cfg.Navigation)
		c.states.Set(id, st)
	}
	return st
}

func (c *Controller) journeyContext(st *NavigationState) context.Context {
	return logging.WithCorrelationID(context.Background(), st.JourneyID)
}
