package beatmap

import (
	gomath "math"
	"sort"

	"github.com/Faultbox/beatmap/pkg/curve"
	"github.com/Faultbox/beatmap/pkg/math"
)

// ObjectKind is the type of a hit object.
type ObjectKind int

// Hit object kinds.
const (
	KindCircle ObjectKind = iota
	KindSlider
	KindSpinner
)

// String returns the kind name.
func (k ObjectKind) String() string {
	switch k {
	case KindCircle:
		return "Circle"
	case KindSlider:
		return "Slider"
	case KindSpinner:
		return "Spinner"
	default:
		return "Unknown"
	}
}

// Type flag bits of a hit object line.
const (
	FlagCircle   = 1
	FlagSlider   = 2
	FlagNewCombo = 4
	FlagSpinner  = 8
)

// HitObject is a circle, slider or spinner.
type HitObject struct {
	Kind  ObjectKind
	Flags int32
	Start int32 // ms
	End   int32 // ms, equal to Start for circles

	// Positions after stacking.
	StartPos math.Vector2
	EndPos   math.Vector2

	UnstackedStartPos math.Vector2
	UnstackedEndPos   math.Vector2
	StackOffset       math.Vector2
	StackCount        int32

	// Slider is nil for circles and spinners.
	Slider *SliderInfo
}

// IsNewCombo reports whether the object starts a new combo.
func (h *HitObject) IsNewCombo() bool {
	return h.Flags&FlagNewCombo != 0
}

// Compare orders objects by start time, then new combos first.
func Compare(a, b *HitObject) int {
	if a.Start != b.Start {
		if a.Start < b.Start {
			return -1
		}
		return 1
	}
	an, bn := a.IsNewCombo(), b.IsNewCombo()
	switch {
	case an == bn:
		return 0
	case an:
		return -1
	default:
		return 1
	}
}

// insertSorted inserts obj after every object that does not sort after it,
// so equal objects keep their file order.
func insertSorted(objs []HitObject, obj HitObject) []HitObject {
	pos := sort.Search(len(objs), func(i int) bool {
		return Compare(&objs[i], &obj) > 0
	})
	objs = append(objs, HitObject{})
	copy(objs[pos+1:], objs[pos:])
	objs[pos] = obj
	return objs
}

// TimeAtLength returns the time at which the slider ball has travelled
// length pixels. Non-sliders return Start.
func (h *HitObject) TimeAtLength(length float32) int32 {
	if h.Slider == nil {
		return h.Start
	}
	ms := length / float32(h.Slider.Velocity) * 1000
	return h.Start + math.TruncToInt32(float64(ms))
}

// slideProgress returns the fraction along the curve at time t and whether
// the ball is on a reverse pass. A slider with no duration stays at the
// curve start.
func (h *HitObject) slideProgress(t int32) (float32, bool) {
	span := float32(h.End-h.Start) / float32(h.Slider.Slides)
	if span == 0 {
		return 0, false
	}
	pos := float32(t-h.Start) / span

	rev := float32(gomath.Mod(float64(pos), 2)) > 1
	frac := float32(gomath.Mod(float64(pos), 1))
	if rev {
		return 1 - frac, true
	}
	return frac, false
}

// PositionAtTime returns the stacked slider ball position at t.
//
// The ball is located by folding the elapsed fraction of the slide, so a
// time exactly on a pass boundary folds to 0 and reports the curve start.
// Use BallPositionAtTime for frame-accurate positions.
func (h *HitObject) PositionAtTime(t int32) math.Vector2 {
	if h.Slider == nil {
		return h.StartPos
	}
	t = min(max(t, h.Start), max(h.End, h.Start))
	pos, _ := h.slideProgress(t)

	c := h.Slider.Curve
	if c != nil && c.Length > 0 && len(c.Lines) > 0 {
		return c.PointAt(pos).Sub(h.StackOffset)
	}
	return h.StartPos
}

// AngleAtTime returns the direction of travel of the slider ball at t.
func (h *HitObject) AngleAtTime(t int32) float32 {
	if h.Slider == nil {
		return 0
	}
	t = min(max(t, h.Start), max(h.End, h.Start))
	pos, rev := h.slideProgress(t)

	c := h.Slider.Curve
	if c == nil || c.Length <= 0 {
		return 0
	}
	if rev {
		return c.AngleAt(pos) - gomath.Pi
	}
	return c.AngleAt(pos)
}

// BallPositionAtTime returns the stacked ball position and direction at t
// from the ball path built by RecalculateSlider. A segment crossed in
// under a millisecond reports its start point.
func (h *HitObject) BallPositionAtTime(t int32) (math.Vector2, float32) {
	if h.Slider == nil || len(h.Slider.BallPath) == 0 {
		return h.StartPos, 0
	}
	t = min(max(t, h.Start), max(h.End, h.Start))

	path := h.Slider.BallPath
	idx := sort.Search(len(path), func(i int) bool {
		return !(path[i].End < t)
	})
	idx = min(idx, len(path)-1)

	seg := path[idx]
	if seg.End == seg.Start {
		return seg.Line.P1.Sub(h.StackOffset), seg.Line.Angle()
	}
	pos := seg.Line.PointAt(float32(t-seg.Start) / float32(seg.End-seg.Start))
	return pos.Sub(h.StackOffset), seg.Line.Angle()
}

// newSliderCurve builds a slider path, forwarding geometry warnings to warn.
func newSliderCurve(kind curve.Type, points []math.Vector2, pixelLength float64, warn curve.WarnFunc) *curve.Curve {
	if warn == nil {
		return curve.New(kind, points, pixelLength)
	}
	return curve.New(kind, points, pixelLength, curve.WithWarn(warn))
}
