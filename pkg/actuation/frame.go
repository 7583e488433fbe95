package actuation

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-autopilot/pkg/physics"
)

// ToLocal rotates a world-space vector into the frame of a body with the given rotation.
func ToLocal(v physics.Vector2D, rotation float64) physics.Vector2D {
	return transform(v, -rotation)
}

// ToWorld rotates a body-local vector back into world space.
func ToWorld(v physics.Vector2D, rotation float64) physics.Vector2D {
	return transform(v, rotation)
}

func transform(v physics.Vector2D, angle float64) physics.Vector2D {
	if angle == 0 {
		return v
	}
	r := mgl64.Rotate2D(angle).Mul2x1(mgl64.Vec2{v.X, v.Y})
	return physics.Vector2D{X: r[0], Y: r[1]}
}

// HeadingAngle returns the body rotation that points local +Y along dir.
func HeadingAngle(dir physics.Vector2D) float64 {
	return dir.Angle() - halfPi
}
