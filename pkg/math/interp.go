package math

// Easing selects the progress curve used by InterpTime.
type Easing int

// Easing functions.
const (
	Linear Easing = iota
	OutQuad
)

// String returns the easing name.
func (e Easing) String() string {
	switch e {
	case Linear:
		return "Linear"
	case OutQuad:
		return "OutQuad"
	default:
		return "Unknown"
	}
}

// InterpTime maps t in [t1, t2] onto [v1, v2] with the given easing.
// The result is not clamped, and a zero-width time range yields NaN or Inf.
func InterpTime(v1, v2, t1, t2, t float32, easing Easing) float32 {
	p := (t - t1) / (t2 - t1)
	if easing == OutQuad {
		p = 1 - float32((1-p)*(1-p))
	}
	return float32((v2-v1)*p) + v1
}

// CatmullRom evaluates the uniform Catmull-Rom spline through p2 and p3
// at t, using p1 and p4 as outer tangent points.
func CatmullRom(p1, p2, p3, p4 Vector2, t float32) Vector2 {
	squared := t * t
	cubed := squared * t
	return Vector2{
		X: catmullAxis(p1.X, p2.X, p3.X, p4.X, t, squared, cubed),
		Y: catmullAxis(p1.Y, p2.Y, p3.Y, p4.Y, t, squared, cubed),
	}
}

func catmullAxis(a, b, c, d, t, squared, cubed float32) float32 {
	return 0.5 * (2*b +
		float32((-a+c)*t) +
		float32((2*a-5*b+4*c-d)*squared) +
		float32((-a+3*b-3*c+d)*cubed))
}
