package beatmap

import (
	gomath "math"
	"testing"

	"go.uber.org/zap"

	"github.com/Faultbox/beatmap/pkg/curve"
	"github.com/Faultbox/beatmap/pkg/math"
)

func approx32(a, b, eps float32) bool {
	return gomath.Abs(float64(a-b)) <= float64(eps)
}

func loadRepeatSlider(t *testing.T) (*Beatmap, *HitObject) {
	t.Helper()
	bm, err := ParseFile("testdata/simple_slider_with_repeats.osu")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	return bm, &bm.HitObjects[0]
}

func TestRecalculateSliderRepeats(t *testing.T) {
	_, obj := loadRepeatSlider(t)
	s := obj.Slider

	if s.Velocity != 360 {
		t.Errorf("expected velocity 360, got %v", s.Velocity)
	}
	if obj.End != 3222 {
		t.Errorf("expected end 3222, got %d", obj.End)
	}
	if obj.UnstackedEndPos != math.Vec2(50, 100) {
		t.Errorf("expected slider to end back at its head, got %v", obj.UnstackedEndPos)
	}
	if len(s.SmallTicks) != 26 {
		t.Errorf("expected 26 small ticks, got %d", len(s.SmallTicks))
	}
	if len(s.BallPath) != 2 {
		t.Errorf("expected 2 ball path segments, got %d", len(s.BallPath))
	}
}

func TestSmallTickPlacement(t *testing.T) {
	_, obj := loadRepeatSlider(t)
	ticks := obj.Slider.SmallTicks

	first := ticks[0]
	if first.Time != 1083 {
		t.Errorf("expected first tick at 1083, got %d", first.Time)
	}
	if !approx32(first.Pos.X, 80, 0.001) || first.Pos.Y != 100 {
		t.Errorf("expected first tick near (80, 100), got %v", first.Pos)
	}
	// (83 / 2) + start - preemptSliderComplete
	if first.FadeIn != 641 || first.FadeOut != 791 {
		t.Errorf("expected fade (641, 791), got (%d, %d)", first.FadeIn, first.FadeOut)
	}

	// first tick of the reverse pass
	rev := ticks[13]
	if rev.Time != 2138 {
		t.Errorf("expected reverse tick at 2138, got %d", rev.Time)
	}
	if rev.FadeOut != 2111+(2138-2111)/2 || rev.FadeIn != rev.FadeOut-200 {
		t.Errorf("unexpected reverse fade (%d, %d)", rev.FadeIn, rev.FadeOut)
	}
	if rev.Pos.X >= 450 || rev.Pos.X < 400 {
		t.Errorf("expected reverse tick just inside the tail, got %v", rev.Pos)
	}
}

func TestEndTicks(t *testing.T) {
	_, obj := loadRepeatSlider(t)
	ends := obj.Slider.EndTicks
	if len(ends) != 2 {
		t.Fatalf("expected 2 end ticks, got %d", len(ends))
	}

	repeat := ends[0]
	if repeat.Time != 2111 || !repeat.IsRepeat || repeat.Pos != math.Vec2(450, 100) {
		t.Errorf("unexpected repeat tick %+v", repeat)
	}
	if repeat.FadeIn != 400 || repeat.FadeOut != 550 {
		t.Errorf("expected repeat fade (400, 550), got (%d, %d)", repeat.FadeIn, repeat.FadeOut)
	}
	// the arrow points back along the slider
	if !approx32(repeat.Angle, gomath.Pi, 1e-6) {
		t.Errorf("expected repeat angle pi, got %v", repeat.Angle)
	}

	last := ends[1]
	if last.Time != 3222 || last.IsRepeat || last.Pos != math.Vec2(50, 100) {
		t.Errorf("unexpected final tick %+v", last)
	}
	if last.FadeIn != 1000 || last.FadeOut != 1150 {
		t.Errorf("expected final fade (1000, 1150), got (%d, %d)", last.FadeIn, last.FadeOut)
	}
}

func TestPositionAtTime(t *testing.T) {
	_, obj := loadRepeatSlider(t)

	tests := []struct {
		name string
		time int32
		x    float32
	}{
		{"before start", 0, 50},
		{"start", 1000, 50},
		{"half way", 1555, 249.8},
		{"inside reverse pass", 2666, 250.2},
		{"after end", 9999, 50},
		// exactly on the repeat the fraction folds to 0 and jumps to the head
		{"pass boundary", 2111, 50},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := obj.PositionAtTime(tc.time)
			if !approx32(got.X, tc.x, 0.5) || got.Y != 100 {
				t.Errorf("PositionAtTime(%d) = %v, expected x ~ %v", tc.time, got, tc.x)
			}
		})
	}
}

func TestBallPositionAtTime(t *testing.T) {
	_, obj := loadRepeatSlider(t)

	tests := []struct {
		name  string
		time  int32
		x     float32
		angle float32
	}{
		{"start", 1000, 50, 0},
		{"pass boundary", 2111, 450, 0},
		{"reverse pass", 2666, 250.2, gomath.Pi},
		{"end", 3222, 50, gomath.Pi},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, angle := obj.BallPositionAtTime(tc.time)
			if !approx32(pos.X, tc.x, 0.5) || pos.Y != 100 {
				t.Errorf("BallPositionAtTime(%d) = %v, expected x ~ %v", tc.time, pos, tc.x)
			}
			if !approx32(angle, tc.angle, 1e-5) {
				t.Errorf("BallPositionAtTime(%d) angle = %v, expected %v", tc.time, angle, tc.angle)
			}
		})
	}
}

func TestAngleAtTime(t *testing.T) {
	_, obj := loadRepeatSlider(t)

	if got := obj.AngleAtTime(1500); got != 0 {
		t.Errorf("expected forward angle 0, got %v", got)
	}
	if got := obj.AngleAtTime(2500); !approx32(got, -gomath.Pi, 1e-6) {
		t.Errorf("expected reverse angle -pi, got %v", got)
	}
}

func TestTimeAtLength(t *testing.T) {
	_, obj := loadRepeatSlider(t)
	if got := obj.TimeAtLength(180); got != 1500 {
		t.Errorf("expected 1500, got %d", got)
	}

	circle := HitObject{Kind: KindCircle, Start: 700, End: 700}
	if got := circle.TimeAtLength(180); got != 700 {
		t.Errorf("expected circle start, got %d", got)
	}
}

func TestNonSliderQueries(t *testing.T) {
	circle := HitObject{Kind: KindCircle, Start: 100, End: 100, StartPos: math.Vec2(10, 20)}

	if got := circle.PositionAtTime(500); got != circle.StartPos {
		t.Errorf("expected start position, got %v", got)
	}
	if pos, angle := circle.BallPositionAtTime(500); pos != circle.StartPos || angle != 0 {
		t.Errorf("expected start position and 0, got %v %v", pos, angle)
	}
	if got := circle.AngleAtTime(500); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}

	// a no-op for circles
	circle.RecalculateSlider(14, nil, &Difficulty{}, nil)
	if circle.End != 100 {
		t.Errorf("expected end to stay 100, got %d", circle.End)
	}
}

func newTestSlider(start int32, points []math.Vector2, length float64, slides int32) *HitObject {
	return &HitObject{
		Kind:              KindSlider,
		Flags:             FlagSlider,
		Start:             start,
		End:               start,
		UnstackedStartPos: points[0],
		Slider: &SliderInfo{
			SpatialLength: length,
			Slides:        slides,
			Curve:         curve.New(curve.Linear, points, length),
		},
	}
}

func TestBallPositionAtTimeInstantSegment(t *testing.T) {
	diff := NewDifficulty(5, 5, 5, 5, 1.4, 1)
	tps := TimingPoints{{Offset: 0, BeatLength: 500, TimingChange: true}}
	// the 0.1px first line is crossed in well under a millisecond
	obj := newTestSlider(1000, []math.Vector2{{X: 0, Y: 0}, {X: 0.1, Y: 0}, {X: 100, Y: 0}}, 100, 1)
	obj.RecalculateSlider(14, tps, &diff, nil)

	first := obj.Slider.BallPath[0]
	if first.Start != first.End {
		t.Fatalf("expected a zero-width first segment, got %d..%d", first.Start, first.End)
	}

	pos, _ := obj.BallPositionAtTime(1000)
	if !pos.IsFinite() {
		t.Fatalf("expected a finite position, got %v", pos)
	}
	if pos != math.Vec2(0, 0) {
		t.Errorf("expected the segment start (0, 0), got %v", pos)
	}

	for ms := obj.Start; ms <= obj.End; ms++ {
		if p, _ := obj.BallPositionAtTime(ms); !p.IsFinite() {
			t.Errorf("non-finite position %v at %dms", p, ms)
		}
	}
}

func TestRecalculateSliderTickGuard(t *testing.T) {
	var warnings []string
	warn := func(msg string, _ ...zap.Field) {
		warnings = append(warnings, msg)
	}

	// a tiny tick distance would produce millions of ticks
	diff := NewDifficulty(5, 5, 5, 5, 0.4, 8)
	tps := TimingPoints{{Offset: 0, BeatLength: 500, TimingChange: true}}
	obj := newTestSlider(1000, []math.Vector2{{X: 0, Y: 0}, {X: 2e6, Y: 0}}, 2e6, 1)
	diff.SliderScoringPointDistance = 1

	obj.RecalculateSlider(14, tps, &diff, warn)

	if len(warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", warnings)
	}
	if len(obj.Slider.SmallTicks) != 0 {
		t.Errorf("expected no small ticks, got %d", len(obj.Slider.SmallTicks))
	}
	if len(obj.Slider.ScoreTimes) != 1 {
		t.Errorf("expected only the end score time, got %d", len(obj.Slider.ScoreTimes))
	}
}

func TestRecalculateSliderInheritedVelocity(t *testing.T) {
	diff := NewDifficulty(5, 5, 5, 5, 1, 1)
	tps := TimingPoints{
		{Offset: 0, BeatLength: 500, TimingChange: true},
		{Offset: 500, BeatLength: -50, TimingChange: false},
	}

	obj := newTestSlider(1000, []math.Vector2{{X: 0, Y: 0}, {X: 300, Y: 0}}, 300, 1)
	obj.RecalculateSlider(14, tps, &diff, nil)

	// 0.5x multiplier halves the beat length, doubling the velocity
	if obj.Slider.Velocity != 400 {
		t.Errorf("expected velocity 400, got %v", obj.Slider.Velocity)
	}
	if obj.End != 1750 {
		t.Errorf("expected end 1750, got %d", obj.End)
	}
	// tick spacing follows the inherited multiplier on version 8+
	if len(obj.Slider.SmallTicks) != 1 {
		t.Errorf("expected 1 small tick, got %d", len(obj.Slider.SmallTicks))
	}

	legacy := newTestSlider(1000, []math.Vector2{{X: 0, Y: 0}, {X: 300, Y: 0}}, 300, 1)
	legacy.RecalculateSlider(7, tps, &diff, nil)
	if len(legacy.Slider.SmallTicks) != 2 {
		t.Errorf("expected 2 small ticks before version 8, got %d", len(legacy.Slider.SmallTicks))
	}
}

func TestRecalculateSliderIdempotent(t *testing.T) {
	bm, obj := loadRepeatSlider(t)
	before := len(obj.Slider.ScoreTimes)

	obj.RecalculateSlider(bm.FormatVersion, bm.TimingPoints, &bm.Difficulty, nil)
	if len(obj.Slider.ScoreTimes) != before {
		t.Errorf("expected %d score times after recalculation, got %d", before, len(obj.Slider.ScoreTimes))
	}
}
