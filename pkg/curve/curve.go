// Package curve turns slider control points into a piecewise-linear path
// trimmed to the slider's declared pixel length.
package curve

import (
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/beatmap/pkg/math"
)

// Type is the slider curve kind declared in the chart.
type Type int

// Curve types.
const (
	Catmull Type = iota
	Bezier
	Linear
	PerfectCircle
)

// String returns the curve type name.
func (t Type) String() string {
	switch t {
	case Catmull:
		return "Catmull"
	case Bezier:
		return "Bezier"
	case Linear:
		return "Linear"
	case PerfectCircle:
		return "PerfectCircle"
	default:
		return "Unknown"
	}
}

// TypeFromLetter maps the path letter of a slider definition to a Type.
func TypeFromLetter(letter string) (Type, bool) {
	switch letter {
	case "C":
		return Catmull, true
	case "B":
		return Bezier, true
	case "L":
		return Linear, true
	case "P":
		return PerfectCircle, true
	}
	return Catmull, false
}

const (
	catmullDetail = 50
	// control points further apart than this are treated as garbage input
	crazyDistance = 1e9
	trimEpsilon   = 0.0001
	circleDetail  = 0.125
)

// WarnFunc receives geometry warnings.
type WarnFunc func(msg string, fields ...zap.Field)

// Option configures curve construction.
type Option func(*options)

type options struct {
	warn WarnFunc
}

// WithWarn routes warnings to fn instead of discarding them.
func WithWarn(fn WarnFunc) Option {
	return func(o *options) {
		o.warn = fn
	}
}

// Curve is a polyline approximation of a slider path.
type Curve struct {
	Kind  Type // as declared; degenerate circles are built as other kinds
	Lines []math.Line
	// LineLengths[i] is the cumulative length at the start of Lines[i].
	LineLengths []float32
	Length      float32
}

// New builds the curve of the given type through points and trims it to
// pixelLength. A pixelLength of 0 leaves the curve untrimmed.
func New(kind Type, points []math.Vector2, pixelLength float64, opts ...Option) *Curve {
	o := options{warn: func(string, ...zap.Field) {}}
	for _, opt := range opts {
		opt(&o)
	}

	var lines []math.Line
	switch kind {
	case Catmull:
		lines = catmullLines(points)
	case Bezier:
		lines = bezierLines(points, o.warn)
	case Linear:
		lines = linearLines(points)
	case PerfectCircle:
		lines = perfectCircleLines(points, o.warn)
	}

	c := &Curve{Kind: kind, Lines: lines}
	c.measure()
	if pixelLength > 0 && float64(c.Length) > pixelLength {
		c.trim(pixelLength)
		c.measure()
	}
	return c
}

func (c *Curve) measure() {
	c.LineLengths = make([]float32, len(c.Lines))
	var total float32
	for i, l := range c.Lines {
		c.LineLengths[i] = total
		total += l.Length()
	}
	c.Length = total
}

func (c *Curve) trim(pixelLength float64) {
	diff := float64(c.Length) - pixelLength
	for len(c.Lines) > 0 {
		last := c.Lines[len(c.Lines)-1]
		c.Lines = c.Lines[:len(c.Lines)-1]

		length := last.Length()
		if length > float32(diff)+trimEpsilon {
			if last.P1 != last.P2 {
				dir := last.P2.Sub(last.P1).Normalize()
				last = math.Line{P1: last.P1, P2: last.P1.Add(dir.Scale(length - float32(diff)))}
			}
			c.Lines = append(c.Lines, last)
			return
		}
		diff -= float64(length)
	}
}

// lineAt returns the index of the line containing fraction f of the curve.
func (c *Curve) lineAt(f float32) int {
	target := f * c.Length
	idx := sort.Search(len(c.LineLengths), func(i int) bool {
		return !(c.LineLengths[i] < target)
	})
	if idx > 0 {
		idx--
	}
	return idx
}

// PointAt returns the point at fraction f of the curve length.
// Empty and zero-length curves return the origin.
func (c *Curve) PointAt(f float32) math.Vector2 {
	if c.Length == 0 || len(c.Lines) == 0 {
		return math.Vector2{}
	}
	idx := c.lineAt(f)
	line := c.Lines[idx]
	return line.PointAt((f*c.Length - c.LineLengths[idx]) / line.Length())
}

// AngleAt returns the direction of travel at fraction f.
// Empty and zero-length curves return 0.
func (c *Curve) AngleAt(f float32) float32 {
	if c.Length == 0 || len(c.Lines) == 0 {
		return 0
	}
	return c.Lines[c.lineAt(f)].Angle()
}

func catmullLines(points []math.Vector2) []math.Line {
	var lines []math.Line
	for i := range points {
		p1 := points[max(i-1, 0)]
		p2 := points[i]

		var p3 math.Vector2
		if i+1 < len(points) {
			p3 = points[i+1]
		} else {
			p3 = p2.Add(p2.Sub(p1))
		}
		var p4 math.Vector2
		if i+2 < len(points) {
			p4 = points[i+2]
		} else {
			p4 = p3.Add(p3.Sub(p2))
		}

		for k := 0; k < catmullDetail; k++ {
			lines = append(lines, math.Line{
				P1: math.CatmullRom(p1, p2, p3, p4, float32(k)/catmullDetail),
				P2: math.CatmullRom(p1, p2, p3, p4, float32(k+1)/catmullDetail),
			})
		}
	}
	return lines
}

func linearLines(points []math.Vector2) []math.Line {
	var lines []math.Line
	for i := 1; i < len(points); i++ {
		lines = append(lines, math.Line{P1: points[i-1], P2: points[i]})
	}
	return lines
}

func bezierLines(points []math.Vector2, warn WarnFunc) []math.Line {
	n := len(points)
	if n <= 1 {
		return nil
	}
	for i := 1; i < n; i++ {
		if points[i-1].Distance(points[i]) > crazyDistance {
			warn("bezier control points too far apart, ignoring curve", zap.Int("points", n))
			return nil
		}
	}

	var lines []math.Line
	start := 0
	for i := 0; i < n; i++ {
		split := i < n-2 && points[i] == points[i+1]
		if !split && i != n-1 {
			continue
		}

		piece := points[start : i+1]
		if len(piece) == 2 {
			lines = append(lines, math.Line{P1: piece[0], P2: piece[1]})
		} else {
			poly := math.Bezier(piece)
			for k := 1; k < len(poly); k++ {
				lines = append(lines, math.Line{P1: poly[k-1], P2: poly[k]})
			}
		}

		// the repeated point starts the next piece
		start = i + 1
		if split {
			i++
		}
	}
	return lines
}

func perfectCircleLines(points []math.Vector2, warn WarnFunc) []math.Line {
	switch {
	case len(points) < 3:
		return linearLines(points)
	case len(points) > 3:
		return bezierLines(points, warn)
	case math.StraightLine(points[0], points[1], points[2]):
		return linearLines(points)
	}

	circle := math.CircleThroughPoints(points[0], points[1], points[2])
	pointCount := int(circle.ArcLength() * circleDetail)

	var lines []math.Line
	last := points[0]
	for i := 1; i < pointCount; i++ {
		progress := float64(i) / float64(pointCount)
		t := circle.EndAngle*progress + circle.StartAngle*(1-progress)
		next := circle.PointAt(t)
		lines = append(lines, math.Line{P1: last, P2: next})
		last = next
	}
	lines = append(lines, math.Line{P1: last, P2: points[2]})
	return lines
}
