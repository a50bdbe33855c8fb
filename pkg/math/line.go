package math

// Line is a straight segment from P1 to P2.
type Line struct {
	P1, P2 Vector2
}

// Length returns the segment length.
func (l Line) Length() float32 {
	return l.P1.Distance(l.P2)
}

// PointAt returns the point at fraction t. t is not clamped.
func (l Line) PointAt(t float32) Vector2 {
	return Lerp(l.P1, l.P2, t)
}

// Angle returns the direction of the segment in radians.
func (l Line) Angle() float32 {
	return l.P2.Sub(l.P1).Angle()
}

// Reversed returns the segment running from P2 to P1.
func (l Line) Reversed() Line {
	return Line{l.P2, l.P1}
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b Vector2, t float32) Vector2 {
	return Vector2{
		X: a.X + float32((b.X-a.X)*t),
		Y: a.Y + float32((b.Y-a.Y)*t),
	}
}
