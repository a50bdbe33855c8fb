package beatmap

import "github.com/Faultbox/beatmap/pkg/math"

// Difficulty holds the raw difficulty stats of a chart and the values
// derived from them.
type Difficulty struct {
	ApproachRate      float32
	CircleSize        float32
	HPDrain           float32
	OverallDifficulty float32

	SliderMultiplier float64
	SliderTickRate   float64

	// Derived by Recalculate.
	Hit50                 int32 // ms
	Hit100                int32 // ms
	Hit300                int32 // ms
	Preempt               int32 // ms an object is visible before its start
	PreemptSliderComplete int32
	ObjectRadius          float32
	StackOffset           float32

	SliderScoringPointDistance float64
}

// NewDifficulty returns a Difficulty with derived fields computed.
func NewDifficulty(ar, cs, hp, od float32, sliderMultiplier, tickRate float64) Difficulty {
	d := Difficulty{
		ApproachRate:      ar,
		CircleSize:        cs,
		HPDrain:           hp,
		OverallDifficulty: od,
		SliderMultiplier:  sliderMultiplier,
		SliderTickRate:    tickRate,
	}
	d.Recalculate()
	return d
}

// DefaultDifficulty returns the stats used when a chart omits them.
func DefaultDifficulty() Difficulty {
	return NewDifficulty(5, 5, 5, 5, 1.4, 1)
}

// MapRange maps a 0..10 difficulty value onto lo..mid..hi, where 5 maps
// to mid.
func MapRange(diff, lo, mid, hi float32) float32 {
	switch {
	case diff > 5:
		return mid + (hi-mid)*(diff-5)/5
	case diff < 5:
		return mid - (mid-lo)*(5-diff)/5
	default:
		return mid
	}
}

// Recalculate recomputes every derived field from the raw stats.
func (d *Difficulty) Recalculate() {
	d.Hit50 = truncTime32(MapRange(d.OverallDifficulty, 200, 150, 100))
	d.Hit100 = truncTime32(MapRange(d.OverallDifficulty, 140, 100, 60))
	d.Hit300 = truncTime32(MapRange(d.OverallDifficulty, 80, 50, 20))

	d.Preempt = truncTime32(MapRange(d.ApproachRate, 1800, 1200, 450))
	d.PreemptSliderComplete = truncTime32(float32(d.Preempt) * (2.0 / 3.0))

	// McOsu's radius formula
	d.ObjectRadius = ((1 - 0.7*(d.CircleSize-5)/5) / 2) * 128 * 1.00041 / 2
	d.StackOffset = d.ObjectRadius / 10

	d.SliderScoringPointDistance = (100 * d.SliderMultiplier) / d.SliderTickRate
}

func truncTime32(v float32) int32 {
	return math.TruncToInt32(float64(v))
}
