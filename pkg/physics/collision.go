// pkg/physics/collision.go
package physics

// Circle represents a circular collision shape
type Circle struct {
	Center Vector2D
	Radius float64
}

// Collides checks if two circles are colliding
func (c Circle) Collides(other Circle) bool {
	return c.Center.Distance(other.Center) < c.Radius+other.Radius
}

// CollisionResult contains information about a collision
type CollisionResult struct {
	Collided     bool
	Normal       Vector2D
	Penetration  float64
	ContactPoint Vector2D
}

// CheckCollision performs detailed collision detection between two circles.
// Normal points from a towards b.
func CheckCollision(a, b Circle) CollisionResult {
	normal := b.Center.Sub(a.Center)
	distance := normal.Length()

	if distance >= a.Radius+b.Radius {
		return CollisionResult{Collided: false}
	}

	normal = normal.Normalize()
	if distance == 0 {
		// Concentric circles have no preferred axis.
		normal = UnitY
	}

	return CollisionResult{
		Collided:     true,
		Normal:       normal,
		Penetration:  a.Radius + b.Radius - distance,
		ContactPoint: a.Center.Add(normal.Scale(a.Radius)),
	}
}

// Rect represents a rectangular area
type Rect struct {
	Center Vector2D
	Width  float64
	Height float64
}

// Contains reports whether point lies inside the half-open rectangle.
func (r Rect) Contains(point Vector2D) bool {
	return point.X >= r.Center.X-r.Width/2 &&
		point.X < r.Center.X+r.Width/2 &&
		point.Y >= r.Center.Y-r.Height/2 &&
		point.Y < r.Center.Y+r.Height/2
}

// Intersects reports whether two rectangles overlap.
func (r Rect) Intersects(other Rect) bool {
	return !(other.Center.X-other.Width/2 > r.Center.X+r.Width/2 ||
		other.Center.X+other.Width/2 < r.Center.X-r.Width/2 ||
		other.Center.Y-other.Height/2 > r.Center.Y+r.Height/2 ||
		other.Center.Y+other.Height/2 < r.Center.Y-r.Height/2)
}

// QuadTree for spatial partitioning. Items are stored by their center point;
// insertion order is preserved inside each node so queries are reproducible.
type QuadTree[T any] struct {
	Boundary  Rect
	Capacity  int
	Points    []Vector2D
	Objects   []T
	Divided   bool
	NorthWest *QuadTree[T]
	NorthEast *QuadTree[T]
	SouthWest *QuadTree[T]
	SouthEast *QuadTree[T]
}

// NewQuadTree creates a new quad tree with the given boundary and capacity
func NewQuadTree[T any](boundary Rect, capacity int) *QuadTree[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &QuadTree[T]{
		Boundary: boundary,
		Capacity: capacity,
		Points:   make([]Vector2D, 0, capacity),
		Objects:  make([]T, 0, capacity),
	}
}

// Insert adds object at point. It returns false when point lies outside the tree.
func (qt *QuadTree[T]) Insert(point Vector2D, object T) bool {
	if !qt.Boundary.Contains(point) {
		return false
	}

	if len(qt.Points) < qt.Capacity && !qt.Divided {
		qt.Points = append(qt.Points, point)
		qt.Objects = append(qt.Objects, object)
		return true
	}

	if !qt.Divided {
		qt.Subdivide()
	}

	return qt.NorthWest.Insert(point, object) ||
		qt.NorthEast.Insert(point, object) ||
		qt.SouthWest.Insert(point, object) ||
		qt.SouthEast.Insert(point, object)
}

// Subdivide splits the quadtree into four quadrants
func (qt *QuadTree[T]) Subdivide() {
	x := qt.Boundary.Center.X
	y := qt.Boundary.Center.Y
	w := qt.Boundary.Width / 2
	h := qt.Boundary.Height / 2

	qt.NorthWest = NewQuadTree[T](Rect{Center: Vector2D{X: x - w/2, Y: y + h/2}, Width: w, Height: h}, qt.Capacity)
	qt.NorthEast = NewQuadTree[T](Rect{Center: Vector2D{X: x + w/2, Y: y + h/2}, Width: w, Height: h}, qt.Capacity)
	qt.SouthWest = NewQuadTree[T](Rect{Center: Vector2D{X: x - w/2, Y: y - h/2}, Width: w, Height: h}, qt.Capacity)
	qt.SouthEast = NewQuadTree[T](Rect{Center: Vector2D{X: x + w/2, Y: y - h/2}, Width: w, Height: h}, qt.Capacity)
	qt.Divided = true
}

// Clear drops every stored object and collapses the children.
func (qt *QuadTree[T]) Clear() {
	qt.Points = qt.Points[:0]
	clear(qt.Objects)
	qt.Objects = qt.Objects[:0]
	qt.Divided = false
	qt.NorthWest = nil
	qt.NorthEast = nil
	qt.SouthWest = nil
	qt.SouthEast = nil
}

// Query returns all objects whose point lies inside area.
func (qt *QuadTree[T]) Query(area Rect) []T {
	return qt.query(area, nil)
}

func (qt *QuadTree[T]) query(area Rect, found []T) []T {
	if !qt.Boundary.Intersects(area) {
		return found
	}

	for i, point := range qt.Points {
		if area.Contains(point) {
			found = append(found, qt.Objects[i])
		}
	}

	if !qt.Divided {
		return found
	}

	found = qt.NorthWest.query(area, found)
	found = qt.NorthEast.query(area, found)
	found = qt.SouthWest.query(area, found)
	return qt.SouthEast.query(area, found)
}

// QueryRadius returns all objects whose point lies within radius of center.
func (qt *QuadTree[T]) QueryRadius(center Vector2D, radius float64) []T {
	if radius <= 0 {
		return nil
	}
	box := Rect{Center: center, Width: radius * 2, Height: radius * 2}
	return qt.queryRadius(box, center, radius*radius, nil)
}

func (qt *QuadTree[T]) queryRadius(box Rect, center Vector2D, radiusSq float64, found []T) []T {
	if !qt.Boundary.Intersects(box) {
		return found
	}

	for i, point := range qt.Points {
		if point.Sub(center).LengthSquared() <= radiusSq {
			found = append(found, qt.Objects[i])
		}
	}

	if !qt.Divided {
		return found
	}

	found = qt.NorthWest.queryRadius(box, center, radiusSq, found)
	found = qt.NorthEast.queryRadius(box, center, radiusSq, found)
	found = qt.SouthWest.queryRadius(box, center, radiusSq, found)
	return qt.SouthEast.queryRadius(box, center, radiusSq, found)
}
