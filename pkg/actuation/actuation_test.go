// pkg/actuation/actuation_test.go
package actuation

import (
	"math"
	"testing"

	"github.com/opd-ai/go-autopilot/pkg/physics"
)

const epsilon = 1e-9

func nearly(a, b physics.Vector2D) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon
}

func testVessel() Vessel {
	return Vessel{
		InvMass:            0.01,
		InvInertia:         0.02,
		Linear:             [4]float64{100, 100, 100, 100},
		AngularThrust:      50,
		MaxAngularVelocity: 2,
	}
}

func TestDirectionFlag(t *testing.T) {
	f := None.With(North).With(West)

	if !f.Has(North) || !f.Has(West) {
		t.Errorf("flag %v should contain north and west", f)
	}
	if f.Has(South) || f.Has(East) {
		t.Errorf("flag %v should not contain south or east", f)
	}
	if got := f.String(); got != "north|west" {
		t.Errorf("String() = %q, expected north|west", got)
	}
	if None.String() != "none" {
		t.Errorf("None.String() = %q", None.String())
	}
	if Direction(7).String() != "unknown" {
		t.Error("out of range direction should be unknown")
	}
}

func TestFrameConversion(t *testing.T) {
	tests := []struct {
		name     string
		local    physics.Vector2D
		rotation float64
		world    physics.Vector2D
	}{
		{"identity", physics.Vector2D{X: 3, Y: 4}, 0, physics.Vector2D{X: 3, Y: 4}},
		{"quarter turn front", physics.Vector2D{X: 0, Y: 1}, math.Pi / 2, physics.Vector2D{X: -1, Y: 0}},
		{"quarter turn right", physics.Vector2D{X: 1, Y: 0}, math.Pi / 2, physics.Vector2D{X: 0, Y: 1}},
		{"half turn", physics.Vector2D{X: 2, Y: 1}, math.Pi, physics.Vector2D{X: -2, Y: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToWorld(tt.local, tt.rotation); !nearly(got, tt.world) {
				t.Errorf("ToWorld() = %v, expected %v", got, tt.world)
			}
			if got := ToLocal(tt.world, tt.rotation); !nearly(got, tt.local) {
				t.Errorf("ToLocal() = %v, expected %v", got, tt.local)
			}
		})
	}
}

func TestHeadingAngle(t *testing.T) {
	if got := HeadingAngle(physics.UnitY); math.Abs(got) > epsilon {
		t.Errorf("HeadingAngle(+Y) = %v, expected 0", got)
	}
	if got := HeadingAngle(physics.Vector2D{X: -1}); math.Abs(got-math.Pi/2) > epsilon {
		t.Errorf("HeadingAngle(-X) = %v, expected pi/2", got)
	}
}

func TestTranslator_Linear(t *testing.T) {
	tr := NewTranslator(DefaultParams())

	tests := []struct {
		name       string
		rotation   float64
		velocity   physics.Vector2D
		steer      physics.Vector2D
		threat     float64
		targetMax  float64
		wantActive DirectionFlag
		wantForce  physics.Vector2D
	}{
		{
			name:       "forward from rest",
			steer:      physics.Vector2D{Y: 5},
			targetMax:  50,
			wantActive: North.Flag(),
			wantForce:  physics.Vector2D{Y: 100},
		},
		{
			name:       "diagonal",
			steer:      physics.Vector2D{X: -3, Y: -3},
			targetMax:  50,
			wantActive: None.With(West).With(South),
			wantForce:  physics.Vector2D{X: -100, Y: -100},
		},
		{
			name:      "inside dead band",
			steer:     physics.Vector2D{X: 0.05, Y: -0.05},
			targetMax: 50,
		},
		{
			name:       "axis at speed cap",
			velocity:   physics.Vector2D{X: 50},
			steer:      physics.Vector2D{X: 1, Y: 1},
			targetMax:  50,
			wantActive: North.Flag(),
			wantForce:  physics.Vector2D{Y: 100},
		},
		{
			name:       "rotated hull",
			rotation:   math.Pi / 2,
			steer:      physics.Vector2D{X: -2},
			targetMax:  50,
			wantActive: North.Flag(),
			wantForce:  physics.Vector2D{X: -100},
		},
		{
			name:       "brake priority with dodge",
			velocity:   physics.Vector2D{Y: 20},
			steer:      physics.Vector2D{X: 1, Y: 1},
			threat:     0.5,
			targetMax:  5,
			wantActive: None.With(South).With(East),
			wantForce:  physics.Vector2D{X: 50, Y: -100},
		},
		{
			name:       "dodge while steering",
			velocity:   physics.Vector2D{Y: 1},
			steer:      physics.Vector2D{X: -1, Y: 1},
			threat:     0.5,
			targetMax:  5,
			wantActive: None.With(North).With(West),
			wantForce:  physics.Vector2D{X: -100, Y: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testVessel()
			v.Rotation = tt.rotation
			v.Velocity = tt.velocity

			cmd := tr.Linear(v, tt.steer, tt.threat, tt.targetMax)
			if cmd.Active != tt.wantActive {
				t.Errorf("Active = %v, expected %v", cmd.Active, tt.wantActive)
			}
			if !nearly(cmd.Force, tt.wantForce) {
				t.Errorf("Force = %v, expected %v", cmd.Force, tt.wantForce)
			}
		})
	}
}

func TestTranslator_LinearRespectsSpeedCap(t *testing.T) {
	tr := NewTranslator(DefaultParams())
	const targetMax = 10.0

	for vx := -20.0; vx <= 20; vx += 2.5 {
		for vy := -20.0; vy <= 20; vy += 2.5 {
			v := testVessel()
			v.Velocity = physics.Vector2D{X: vx, Y: vy}
			for _, steer := range []physics.Vector2D{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {X: 1, Y: 1}, {X: -1, Y: -1}} {
				cmd := tr.Linear(v, steer, 0, targetMax)
				if vx >= targetMax && cmd.Active.Has(East) {
					t.Fatalf("east thrust at vx=%v", vx)
				}
				if vx <= -targetMax && cmd.Active.Has(West) {
					t.Fatalf("west thrust at vx=%v", vx)
				}
				if vy >= targetMax && cmd.Active.Has(North) {
					t.Fatalf("north thrust at vy=%v", vy)
				}
				if vy <= -targetMax && cmd.Active.Has(South) {
					t.Fatalf("south thrust at vy=%v", vy)
				}
			}
		}
	}
}

func TestTranslator_Facing(t *testing.T) {
	tr := NewTranslator(DefaultParams())

	tests := []struct {
		name     string
		velocity physics.Vector2D
		toTarget physics.Vector2D
		want     physics.Vector2D
	}{
		{"moving", physics.Vector2D{X: 4}, physics.Vector2D{Y: 10}, physics.Vector2D{X: 1}},
		{"slow uses target", physics.Vector2D{X: 0.5}, physics.Vector2D{Y: 10}, physics.Vector2D{Y: 1}},
		{"nothing to face", physics.Vector2D{}, physics.Vector2D{}, physics.UnitY},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.Facing(tt.velocity, tt.toTarget); !nearly(got, tt.want) {
				t.Errorf("Facing() = %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestTranslator_Rotate(t *testing.T) {
	tr := NewTranslator(DefaultParams())
	const dt = 0.1

	t.Run("aligned", func(t *testing.T) {
		cmd := tr.Rotate(testVessel(), physics.UnitY, dt)
		if cmd.Thrust || cmd.Impulse != 0 {
			t.Errorf("aligned vessel should stay idle, got %+v", cmd)
		}
	})

	t.Run("turn left", func(t *testing.T) {
		cmd := tr.Rotate(testVessel(), physics.Vector2D{X: -1}, dt)
		if !cmd.Thrust {
			t.Fatal("expected angular thrust")
		}
		want := 50 * 0.25 * dt
		if math.Abs(cmd.Impulse-want) > epsilon {
			t.Errorf("Impulse = %v, expected %v", cmd.Impulse, want)
		}
	})

	t.Run("turn right small error", func(t *testing.T) {
		v := testVessel()
		facing := physics.FromAngle(math.Pi/2-0.5, 1)
		cmd := tr.Rotate(v, facing, dt)
		want := -50 * 0.25 * 0.5 * dt
		if !cmd.Thrust || math.Abs(cmd.Impulse-want) > epsilon {
			t.Errorf("got %+v, expected thrust with impulse %v", cmd, want)
		}
	})

	t.Run("damping only inside dead zone", func(t *testing.T) {
		v := testVessel()
		v.AngularVelocity = 1
		cmd := tr.Rotate(v, physics.UnitY, dt)
		if cmd.Thrust {
			t.Error("thrust should be off inside the dead zone")
		}
		if want := -1 * 50 * 0.6 * dt; math.Abs(cmd.Impulse-want) > epsilon {
			t.Errorf("Impulse = %v, expected %v", cmd.Impulse, want)
		}
	})

	t.Run("angular ceiling", func(t *testing.T) {
		v := testVessel()
		v.AngularVelocity = 1.5
		cmd := tr.Rotate(v, physics.Vector2D{X: -1}, dt)
		if cmd.Thrust {
			t.Error("thrust should stop above the angular ceiling")
		}
		if cmd.Impulse >= 0 {
			t.Errorf("only damping should apply, got %v", cmd.Impulse)
		}
	})
}

func TestTranslator_BrakeNeverReversesVelocity(t *testing.T) {
	tr := NewTranslator(DefaultParams())

	rotations := []float64{0, 0.3, math.Pi / 2, -2.1}
	masses := []float64{0.5, 10, 1000}
	steps := []float64{1.0 / 120, 1.0 / 60, 0.5}

	for _, rot := range rotations {
		for _, mass := range masses {
			for _, dt := range steps {
				for vx := -30.0; vx <= 30; vx += 0.37 {
					for _, vy := range []float64{-30, -7.5, 0, 0.7, 12.5, 30} {
						body := physics.NewBody(physics.Vector2D{}, mass, 1)
						body.Rotation = rot
						body.Velocity = physics.Vector2D{X: vx, Y: vy}
						before := ToLocal(body.Velocity, rot)

						v := testVessel()
						v.Rotation = rot
						v.Velocity = body.Velocity
						v.InvMass = body.InvMass

						linear, _ := tr.Brake(v, dt)
						body.ApplyForce(linear.Force)
						body.Step(dt)
						after := ToLocal(body.Velocity, rot)

						if before.X*after.X < 0 || before.Y*after.Y < 0 {
							t.Fatalf("velocity reversed: rot=%v mass=%v dt=%v before=%v after=%v",
								rot, mass, dt, before, after)
						}
						if math.Abs(after.X) > math.Abs(before.X)+1e-9 || math.Abs(after.Y) > math.Abs(before.Y)+1e-9 {
							t.Fatalf("brake increased speed: before=%v after=%v", before, after)
						}
					}
				}
			}
		}
	}
}

func TestTranslator_BrakeAtRest(t *testing.T) {
	tr := NewTranslator(DefaultParams())
	v := testVessel()
	v.Velocity = physics.Vector2D{X: 0.05, Y: -0.05}

	linear, angular := tr.Brake(v, 1.0/60)
	if linear.Active != None || linear.Force != (physics.Vector2D{}) {
		t.Errorf("resting vessel should get no linear brake, got %+v", linear)
	}
	if angular.Thrust {
		t.Error("resting vessel should get no angular brake")
	}
}

func TestTranslator_BrakeAngular(t *testing.T) {
	tr := NewTranslator(DefaultParams())
	const dt = 1.0 / 60

	tests := []struct {
		name       string
		omega      float64
		invInertia float64
		want       float64
	}{
		{"full torque", 2, 0.01, -50 * 1.5 * dt},
		{"clamped", 2, 10, -0.2},
		{"negative spin", -2, 0.01, 50 * 1.5 * dt},
		{"no inertia clamp", 2, 0, -50 * 1.5 * dt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testVessel()
			v.AngularVelocity = tt.omega
			v.InvInertia = tt.invInertia

			_, angular := tr.Brake(v, dt)
			if !angular.Thrust {
				t.Fatal("expected angular brake thrust")
			}
			if math.Abs(angular.Impulse-tt.want) > epsilon {
				t.Errorf("Impulse = %v, expected %v", angular.Impulse, tt.want)
			}
			if tt.invInertia > 0 {
				after := tt.omega + angular.Impulse*tt.invInertia
				if after*tt.omega < 0 {
					t.Errorf("angular velocity reversed: %v -> %v", tt.omega, after)
				}
			}
		})
	}
}

func TestParams_TargetSpeed(t *testing.T) {
	p := DefaultParams()
	if got := p.TargetSpeed(100, 0); got != 100 {
		t.Errorf("TargetSpeed(100, 0) = %v", got)
	}
	if got := p.TargetSpeed(100, 1); math.Abs(got-10) > epsilon {
		t.Errorf("TargetSpeed(100, 1) = %v, expected 10", got)
	}
	if got := p.TargetSpeed(100, 3); math.Abs(got-10) > epsilon {
		t.Errorf("threat above 1 should clamp, got %v", got)
	}
}
