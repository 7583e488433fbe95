package autopilot

import (
	"github.com/opd-ai/go-autopilot/pkg/actuation"
	"github.com/opd-ai/go-autopilot/pkg/config"
	"github.com/opd-ai/go-autopilot/pkg/entity"
	"github.com/opd-ai/go-autopilot/pkg/physics"
	"github.com/opd-ai/go-autopilot/pkg/steering"
)

type fakeVessel struct {
	kin      Kinematics
	thrust   ThrustProfile
	powered  bool
	active   actuation.DirectionFlag
	angular  bool
	posture  actuation.Posture
	released int
	force    physics.Vector2D
	impulse  float64
}

type fakeWorld struct {
	vessels map[entity.ID]*fakeVessel
	bodies  []steering.Body
	notices []Notice
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{vessels: make(map[entity.ID]*fakeVessel)}
}

func (w *fakeWorld) add(id entity.ID, position physics.Vector2D) *fakeVessel {
	v := &fakeVessel{
		kin: Kinematics{
			Position:   position,
			InvMass:    0.01,
			InvInertia: 0.01,
			Radius:     10,
		},
		thrust: ThrustProfile{
			Linear:             [4]float64{1000, 1000, 1000, 1000},
			Base:               [4]float64{1000, 1000, 1000, 1000},
			Angular:            400,
			BaseMaxSpeed:       50,
			MaxAngularVelocity: 2,
			Enabled:            true,
		},
		powered: true,
	}
	w.vessels[id] = v
	return v
}

func (w *fakeWorld) ports() Ports {
	return Ports{Physics: w, Actuator: w, Power: w, Spatial: w, Notifier: w}
}

func (w *fakeWorld) Kinematics(id entity.ID) (Kinematics, bool) {
	v, ok := w.vessels[id]
	if !ok {
		return Kinematics{}, false
	}
	return v.kin, true
}

func (w *fakeWorld) ApplyForce(id entity.ID, force physics.Vector2D) {
	if v, ok := w.vessels[id]; ok {
		v.force = v.force.Add(force)
	}
}

func (w *fakeWorld) ApplyAngularImpulse(id entity.ID, impulse float64) {
	if v, ok := w.vessels[id]; ok {
		v.impulse += impulse
	}
}

func (w *fakeWorld) Thrust(id entity.ID) (ThrustProfile, bool) {
	v, ok := w.vessels[id]
	if !ok {
		return ThrustProfile{}, false
	}
	return v.thrust, true
}

func (w *fakeWorld) EnableLinearThrust(id entity.ID, directions actuation.DirectionFlag) {
	if v, ok := w.vessels[id]; ok {
		v.active = directions
	}
}

func (w *fakeWorld) DisableLinearThrust(id entity.ID) {
	if v, ok := w.vessels[id]; ok {
		v.active = actuation.None
	}
}

func (w *fakeWorld) SetAngularThrust(id entity.ID, on bool) {
	if v, ok := w.vessels[id]; ok {
		v.angular = on
	}
}

func (w *fakeWorld) SetPosture(id entity.ID, posture actuation.Posture) {
	if v, ok := w.vessels[id]; ok {
		v.posture = posture
	}
}

func (w *fakeWorld) ReleasePilotInput(id entity.ID) {
	if v, ok := w.vessels[id]; ok {
		v.released++
	}
}

func (w *fakeWorld) HasPoweredControlModule(id entity.ID) bool {
	v, ok := w.vessels[id]
	return ok && v.powered
}

func (w *fakeWorld) BodiesInRange(center physics.Vector2D, radius float64) []steering.Body {
	var out []steering.Body
	for _, b := range w.bodies {
		if b.Position.Distance(center)-b.Radius <= radius {
			out = append(out, b)
		}
	}
	return out
}

func (w *fakeWorld) Notify(n Notice) {
	w.notices = append(w.notices, n)
}

func (w *fakeWorld) count(kind NoticeKind) int {
	n := 0
	for _, notice := range w.notices {
		if notice.Kind == kind {
			n++
		}
	}
	return n
}

// clearForces drops the force and impulse recorded during the last tick.
func (w *fakeWorld) clearForces() {
	for _, v := range w.vessels {
		v.force = physics.Vector2D{}
		v.impulse = 0
	}
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Navigation = config.NavigationConfig{
		SpeedMultiplier: 1,
		ArrivalRadius:   20,
		SlowdownRadius:  150,
		ScanRadius:      300,
	}
	cfg.Simulation.WorldSize = 10000
	return cfg
}
