// Package math provides the 2D vector math and legacy numeric coercions
// used by the beatmap geometry engine.
//
// All geometry is float32 to stay bit-compatible with osu!stable.
package math

import "math"

// Vector2 is a 2D vector in osu! pixels.
type Vector2 struct {
	X, Y float32
}

// Vec2 is shorthand for Vector2{x, y}.
func Vec2(x, y float32) Vector2 {
	return Vector2{x, y}
}

// Add returns v + other.
func (v Vector2) Add(other Vector2) Vector2 {
	return Vector2{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vector2) Sub(other Vector2) Vector2 {
	return Vector2{v.X - other.X, v.Y - other.Y}
}

// Scale returns v * s.
func (v Vector2) Scale(s float32) Vector2 {
	return Vector2{v.X * s, v.Y * s}
}

// Div returns v / s.
func (v Vector2) Div(s float32) Vector2 {
	return Vector2{v.X / s, v.Y / s}
}

// Dot returns the dot product.
func (v Vector2) Dot(other Vector2) float32 {
	return float32(v.X*other.X) + float32(v.Y*other.Y)
}

// LengthSquared returns the squared magnitude.
func (v Vector2) LengthSquared() float32 {
	// explicit conversions keep the compiler from fusing into an FMA
	return float32(v.X*v.X) + float32(v.Y*v.Y)
}

// Length returns the magnitude.
func (v Vector2) Length() float32 {
	return float32(math.Sqrt(float64(v.LengthSquared())))
}

// Normalize returns a unit vector.
// A zero vector yields non-finite components; callers must guard.
func (v Vector2) Normalize() Vector2 {
	inv := 1 / v.Length()
	return v.Scale(inv)
}

// Distance returns the distance to another point.
func (v Vector2) Distance(other Vector2) float32 {
	return other.Sub(v).Length()
}

// Angle returns atan2(y, x).
func (v Vector2) Angle() float32 {
	return float32(math.Atan2(float64(v.Y), float64(v.X)))
}

// IsFinite reports whether both components are finite.
func (v Vector2) IsFinite() bool {
	return !math.IsNaN(float64(v.X)) && !math.IsInf(float64(v.X), 0) &&
		!math.IsNaN(float64(v.Y)) && !math.IsInf(float64(v.Y), 0)
}
