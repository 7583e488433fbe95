// pkg/physics/vector_test.go
package physics

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestVector2D_Arithmetic(t *testing.T) {
	tests := []struct {
		name     string
		got      Vector2D
		expected Vector2D
	}{
		{name: "add", got: Vector2D{X: 3, Y: 4}.Add(Vector2D{X: 1, Y: 2}), expected: Vector2D{X: 4, Y: 6}},
		{name: "sub", got: Vector2D{X: 2, Y: 3}.Sub(Vector2D{X: 5, Y: 7}), expected: Vector2D{X: -3, Y: -4}},
		{name: "scale", got: Vector2D{X: 2, Y: -3}.Scale(2), expected: Vector2D{X: 4, Y: -6}},
		{name: "neg", got: Vector2D{X: 2, Y: -3}.Neg(), expected: Vector2D{X: -2, Y: 3}},
		{name: "perp", got: Vector2D{X: 1, Y: 0}.Perp(), expected: Vector2D{X: 0, Y: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, expected %v", tt.got, tt.expected)
			}
		})
	}
}

func TestVector2D_Length(t *testing.T) {
	v := Vector2D{X: 3, Y: 4}
	if v.Length() != 5 {
		t.Errorf("Length() = %v, expected 5", v.Length())
	}
	if v.LengthSquared() != 25 {
		t.Errorf("LengthSquared() = %v, expected 25", v.LengthSquared())
	}
}

func TestVector2D_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		input    Vector2D
		expected Vector2D
	}{
		{name: "axis_aligned", input: Vector2D{X: 0, Y: -7}, expected: Vector2D{X: 0, Y: -1}},
		{name: "diagonal", input: Vector2D{X: 3, Y: 4}, expected: Vector2D{X: 0.6, Y: 0.8}},
		{name: "zero_vector_stays_zero", input: Vector2D{}, expected: Vector2D{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.input.Normalize()
			if !approxEqual(result.X, tt.expected.X) || !approxEqual(result.Y, tt.expected.Y) {
				t.Errorf("Normalize() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestVector2D_Truncate(t *testing.T) {
	tests := []struct {
		name      string
		input     Vector2D
		max       float64
		expectLen float64
	}{
		{name: "shorter_than_max_unchanged", input: Vector2D{X: 1, Y: 1}, max: 5, expectLen: math.Sqrt2},
		{name: "longer_than_max_clamped", input: Vector2D{X: 30, Y: 40}, max: 5, expectLen: 5},
		{name: "non_positive_max_zeroes", input: Vector2D{X: 3, Y: 4}, max: 0, expectLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.input.Truncate(tt.max)
			if !approxEqual(result.Length(), tt.expectLen) {
				t.Errorf("Truncate() length = %v, expected %v", result.Length(), tt.expectLen)
			}
			if tt.expectLen > 0 && !approxEqual(result.Normalize().Dot(tt.input.Normalize()), 1) {
				t.Errorf("Truncate() changed direction: %v", result)
			}
		})
	}
}

func TestVector2D_Rotate(t *testing.T) {
	v := Vector2D{X: 1, Y: 0}
	result := v.Rotate(math.Pi / 2)
	if !approxEqual(result.X, 0) || !approxEqual(result.Y, 1) {
		t.Errorf("Rotate(π/2) = %v, expected (0, 1)", result)
	}

	back := result.Rotate(-math.Pi / 2)
	if !approxEqual(back.X, 1) || !approxEqual(back.Y, 0) {
		t.Errorf("Rotate round trip = %v, expected (1, 0)", back)
	}
}

func TestVector2D_IsFinite(t *testing.T) {
	if !(Vector2D{X: 1, Y: -2}).IsFinite() {
		t.Error("finite vector reported as non-finite")
	}
	if (Vector2D{X: math.NaN(), Y: 0}).IsFinite() {
		t.Error("NaN component reported as finite")
	}
	if (Vector2D{X: 0, Y: math.Inf(-1)}).IsFinite() {
		t.Error("infinite component reported as finite")
	}
}

func TestFromAngle(t *testing.T) {
	v := FromAngle(math.Pi, 2)
	if !approxEqual(v.X, -2) || !approxEqual(v.Y, 0) {
		t.Errorf("FromAngle(π, 2) = %v, expected (-2, 0)", v)
	}
}

func TestShortestAngle(t *testing.T) {
	tests := []struct {
		name     string
		from, to float64
		expected float64
	}{
		{name: "same_angle", from: 1, to: 1, expected: 0},
		{name: "small_positive", from: 0, to: 0.5, expected: 0.5},
		{name: "small_negative", from: 0.5, to: 0, expected: -0.5},
		{name: "wraps_across_pi", from: math.Pi - 0.1, to: -math.Pi + 0.1, expected: 0.2},
		{name: "wraps_full_turns", from: 0, to: 4*math.Pi + 0.3, expected: 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ShortestAngle(tt.from, tt.to)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ShortestAngle(%v, %v) = %v, expected %v", tt.from, tt.to, result, tt.expected)
			}
			if result < -math.Pi || result >= math.Pi {
				t.Errorf("ShortestAngle out of range: %v", result)
			}
		})
	}
}
