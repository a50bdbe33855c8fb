package math

import "math"

// StraightLine reports whether three points are exactly collinear.
// The cross product is compared against zero without an epsilon, as osu!stable does.
func StraightLine(p1, p2, p3 Vector2) bool {
	return float32((p2.X-p1.X)*(p3.Y-p1.Y))-float32((p3.X-p1.X)*(p2.Y-p1.Y)) == 0
}

// Circle is the result of fitting a circle through three points.
// StartAngle and EndAngle are unwrapped so that sweeping from one to the
// other passes through the middle point.
type Circle struct {
	Center     Vector2
	Radius     float32
	StartAngle float64
	EndAngle   float64
}

// ArcLength returns the length of the swept arc.
func (c Circle) ArcLength() float64 {
	return math.Abs((c.EndAngle - c.StartAngle) * float64(c.Radius))
}

// PointAt returns the point on the circle at angle t.
func (c Circle) PointAt(t float64) Vector2 {
	return CirclePoint(c.Center, c.Radius, t)
}

// CircleThroughPoints fits the unique circle through a, b and c.
// Collinear input produces non-finite values; check StraightLine first.
func CircleThroughPoints(a, b, c Vector2) Circle {
	diameter := 2 * (float32(a.X*(b.Y-c.Y)) + float32(b.X*(c.Y-a.Y)) + float32(c.X*(a.Y-b.Y)))
	aLen := a.LengthSquared()
	bLen := b.LengthSquared()
	cLen := c.LengthSquared()

	center := Vector2{
		X: (float32(aLen*(b.Y-c.Y)) + float32(bLen*(c.Y-a.Y)) + float32(cLen*(a.Y-b.Y))) / diameter,
		Y: (float32(aLen*(c.X-b.X)) + float32(bLen*(a.X-c.X)) + float32(cLen*(b.X-a.X))) / diameter,
	}
	radius := center.Distance(a)

	t0 := circleAngleAt(a, center)
	t1 := circleAngleAt(b, center)
	t2 := circleAngleAt(c, center)

	for t1 < t0 {
		t1 += 2 * math.Pi
	}
	for t2 < t0 {
		t2 += 2 * math.Pi
	}
	if t1 > t2 {
		t2 -= 2 * math.Pi
	}

	return Circle{Center: center, Radius: radius, StartAngle: t0, EndAngle: t2}
}

// CirclePoint returns center + radius * (cos t, sin t).
func CirclePoint(center Vector2, radius float32, t float64) Vector2 {
	return Vector2{
		X: float32(math.Cos(t) * float64(radius)),
		Y: float32(math.Sin(t) * float64(radius)),
	}.Add(center)
}

func circleAngleAt(p, center Vector2) float64 {
	return float64(p.Sub(center).Angle())
}
