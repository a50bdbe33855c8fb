package beatmap

import "github.com/Faultbox/beatmap/pkg/math"

// SampleSet selects the hitsound bank.
type SampleSet int32

// Sample sets.
const (
	SampleSetAll SampleSet = iota - 1
	SampleSetNone
	SampleSetNormal
	SampleSetSoft
	SampleSetDrum
)

// String returns the sample set name as written in charts.
func (s SampleSet) String() string {
	switch s {
	case SampleSetAll:
		return "All"
	case SampleSetNone:
		return "None"
	case SampleSetNormal:
		return "Normal"
	case SampleSetSoft:
		return "Soft"
	case SampleSetDrum:
		return "Drum"
	default:
		return "Unknown"
	}
}

// TimingPoint is one entry of the [TimingPoints] section.
type TimingPoint struct {
	Offset          float64 // ms
	BeatLength      float64 // ms per beat, negative for inherited points
	TimeSignature   int32
	SampleSet       SampleSet
	CustomSampleSet int32
	Volume          int32
	Kiai            bool
	TimingChange    bool // false for inherited (velocity) points
}

// BpmMultiplier returns the slider velocity divisor of an inherited point.
// Uninherited points return 1.
func (tp *TimingPoint) BpmMultiplier() float32 {
	if tp.BeatLength >= 0 {
		return 1
	}
	return math.Clamp32(float32(-tp.BeatLength), 10, 1000) / 100
}

// TimingPoints is the timing table in file order.
type TimingPoints []TimingPoint

// BeatLengthAt returns the beat length in effect at time. With
// useMultiplier, an inherited point after the last timing change scales
// the result. An empty table returns 0.
func (tps TimingPoints) BeatLengthAt(time float64, useMultiplier bool) float64 {
	if len(tps) == 0 {
		return 0
	}

	point, sample := 0, 0
	for i := range tps {
		if tps[i].Offset <= time {
			if tps[i].TimingChange {
				point = i
			} else {
				sample = i
			}
		}
	}

	if useMultiplier && sample > point && tps[sample].BeatLength < 0 {
		return tps[point].BeatLength * float64(tps[sample].BpmMultiplier())
	}
	return tps[point].BeatLength
}

// TimingPointAt returns the last point at or before time, falling back to
// the first point. It returns nil for an empty table.
func (tps TimingPoints) TimingPointAt(time float64) *TimingPoint {
	if len(tps) == 0 {
		return nil
	}
	ret := &tps[0]
	for i := range tps {
		if tps[i].Offset <= time {
			ret = &tps[i]
		}
	}
	return ret
}

// BpmMultiplierAt returns the multiplier of the point in effect at time,
// or 1 if there is none.
func (tps TimingPoints) BpmMultiplierAt(time float64) float32 {
	if tp := tps.TimingPointAt(time); tp != nil {
		return tp.BpmMultiplier()
	}
	return 1
}
