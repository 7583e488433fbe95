// pkg/physics/body.go
package physics

// Body is a free-floating rigid body integrated with semi-implicit Euler.
// Forces accumulate during a tick and are consumed by Step; angular impulses
// change the angular velocity immediately.
type Body struct {
	Position        Vector2D
	Rotation        float64 // radians, counter-clockwise
	Velocity        Vector2D
	AngularVelocity float64
	InvMass         float64
	InvInertia      float64
	LinearDamping   float64
	AngularDamping  float64

	force Vector2D
}

// NewBody creates a body at position with the given mass and moment of inertia.
// A non-positive mass or inertia produces an immovable axis.
func NewBody(position Vector2D, mass, inertia float64) *Body {
	b := &Body{Position: position}
	if mass > 0 {
		b.InvMass = 1 / mass
	}
	if inertia > 0 {
		b.InvInertia = 1 / inertia
	}
	return b
}

// ApplyForce accumulates a world-space force for the current tick.
func (b *Body) ApplyForce(force Vector2D) {
	b.force = b.force.Add(force)
}

// ApplyAngularImpulse changes the angular velocity by impulse * InvInertia.
func (b *Body) ApplyAngularImpulse(impulse float64) {
	b.AngularVelocity += impulse * b.InvInertia
}

// PendingForce returns the force accumulated since the last Step.
func (b *Body) PendingForce() Vector2D {
	return b.force
}

// Step advances the body by deltaTime seconds and clears the force accumulator.
func (b *Body) Step(deltaTime float64) {
	if deltaTime <= 0 {
		return
	}

	b.Velocity = b.Velocity.Add(b.force.Scale(b.InvMass * deltaTime))
	b.force = Vector2D{}

	// Damping only ever shrinks a component, it never flips its sign.
	if b.LinearDamping > 0 {
		b.Velocity = b.Velocity.Scale(1 / (1 + b.LinearDamping*deltaTime))
	}
	if b.AngularDamping > 0 {
		b.AngularVelocity /= 1 + b.AngularDamping*deltaTime
	}

	b.Position = b.Position.Add(b.Velocity.Scale(deltaTime))
	b.Rotation += b.AngularVelocity * deltaTime
}
