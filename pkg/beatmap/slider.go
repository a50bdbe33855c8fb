package beatmap

import (
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/beatmap/pkg/curve"
	"github.com/Faultbox/beatmap/pkg/math"
)

// tickCountThreshold caps the number of ticks a single slider may generate.
const tickCountThreshold = 1_000_000

// SliderTick is a small tick or an end/repeat tick of a slider.
type SliderTick struct {
	Time     int32
	Pos      math.Vector2
	FadeIn   int32
	FadeOut  int32
	Angle    float32 // repeat arrow direction, 0 for small ticks
	IsRepeat bool
}

// BallSegment is one curve line traversed by the ball between Start and End.
type BallSegment struct {
	Start int32
	End   int32
	Line  math.Line
}

// SliderInfo holds the slider-only data of a hit object.
type SliderInfo struct {
	SpatialLength float64 // declared pixel length
	Slides        int32   // number of passes, at least 1
	Curve         *curve.Curve

	// Filled by RecalculateSlider.
	Velocity   float64 // px/s
	BallPath   []BallSegment
	ScoreTimes []int32
	SmallTicks []SliderTick
	EndTicks   []SliderTick
}

// RecalculateSlider derives the slider's velocity, ball path, tick times,
// end time and end position from its curve, the timing table and the
// difficulty. It is a no-op for circles and spinners. warn may be nil.
func (h *HitObject) RecalculateSlider(version int32, tps TimingPoints, diff *Difficulty, warn curve.WarnFunc) {
	s := h.Slider
	if s == nil {
		return
	}
	if warn == nil {
		warn = func(string, ...zap.Field) {}
	}

	beatLength := tps.BeatLengthAt(float64(h.Start), true)
	if beatLength > 0 {
		s.Velocity = diff.SliderScoringPointDistance * diff.SliderTickRate * (1000 / beatLength)
	} else {
		s.Velocity = diff.SliderScoringPointDistance * diff.SliderTickRate
	}

	tickDistance := diff.SliderScoringPointDistance
	if version >= 8 {
		tickDistance /= float64(tps.BpmMultiplierAt(float64(h.Start)))
	}
	tickDistance = gomath.Min(tickDistance, s.SpatialLength)

	s.BallPath = nil
	s.ScoreTimes = nil
	s.SmallTicks = nil
	s.EndTicks = nil

	var lines []math.Line
	if s.Curve != nil {
		lines = s.Curve.Lines
	}
	var sumLen float64
	for _, l := range lines {
		sumLen += float64(l.Length())
	}

	estimatedTicks := s.SpatialLength / tickDistance
	if estimatedTicks > tickCountThreshold {
		warn("skipping slider ticks",
			zap.Int32("start", h.Start),
			zap.Float64("ticks", estimatedTicks))
	}

	currentTime := float64(h.Start)
	scoringDistance := 0.0
	scoringLengthTotal := 0.0
	outerP1, outerP2 := h.UnstackedStartPos, h.UnstackedStartPos

	for i := int32(0); i < s.Slides; i++ {
		distanceToEnd := sumLen
		skipTick := gomath.IsNaN(tickDistance) || gomath.IsInf(tickDistance, 0) ||
			tickDistance <= 0.001 || estimatedTicks > tickCountThreshold
		reverse := i%2 == 1
		passStart := math.TruncToInt32(currentTime)

		for k := range lines {
			l := lines[k]
			if reverse {
				l = lines[len(lines)-1-k].Reversed()
			}
			p1, p2 := l.P1, l.P2
			outerP1, outerP2 = p1, p2

			distance := float64(l.Length())
			duration := 1000 * distance / s.Velocity

			s.BallPath = append(s.BallPath, BallSegment{
				Start: math.TruncToInt32(currentTime),
				End:   math.TruncToInt32(currentTime + duration),
				Line:  l,
			})

			currentTime += duration
			scoringDistance += distance

			for scoringDistance >= tickDistance && !skipTick {
				scoringLengthTotal += tickDistance
				scoringDistance -= tickDistance
				distanceToEnd -= tickDistance

				// no tick right on top of the slider end
				skipTick = distanceToEnd <= 0.01*s.Velocity
				if skipTick {
					break
				}

				scoreTime := h.TimeAtLength(float32(scoringLengthTotal))
				s.ScoreTimes = append(s.ScoreTimes, scoreTime)

				ratio := 1 - float32(scoringDistance)/p1.Distance(p2)
				tick := SliderTick{
					Time: scoreTime,
					Pos:  p1.Add(p2.Sub(p1).Scale(ratio)),
				}
				if i == 0 {
					tick.FadeIn = (scoreTime-h.Start)/2 + h.Start - diff.PreemptSliderComplete
					tick.FadeOut = tick.FadeIn + 150
				} else {
					tick.FadeOut = passStart + (scoreTime-passStart)/2
					tick.FadeIn = tick.FadeOut - 200
				}
				s.SmallTicks = append(s.SmallTicks, tick)
			}
		}

		scoringLengthTotal += scoringDistance
		s.ScoreTimes = append(s.ScoreTimes, h.TimeAtLength(float32(scoringLengthTotal)))

		if skipTick {
			scoringDistance = 0
		} else {
			scoringLengthTotal -= tickDistance - scoringDistance
			scoringDistance = tickDistance - scoringDistance
		}

		passEnd := math.TruncToInt32(currentTime)
		appear := h.Start - diff.Preempt
		if i > 0 {
			appear = passStart - (passEnd - passStart)
		}
		s.EndTicks = append(s.EndTicks, SliderTick{
			Time:     passEnd,
			Pos:      outerP2,
			FadeIn:   appear,
			FadeOut:  appear + 150,
			Angle:    outerP1.Sub(outerP2).Angle(),
			IsRepeat: i != s.Slides-1,
		})
	}

	h.UnstackedEndPos = outerP2
	h.End = math.TruncToInt32(currentTime)
	if gomath.IsNaN(currentTime) || gomath.IsInf(currentTime, 0) {
		warn("slider end time is not finite, ending it at its start",
			zap.Int32("start", h.Start),
			zap.Float64("end", currentTime))
		h.End = h.Start
	}

	if n := len(s.ScoreTimes); n > 0 {
		s.ScoreTimes[n-1] = max(h.Start+(h.End-h.Start)/2, h.End-36)
	}
}
