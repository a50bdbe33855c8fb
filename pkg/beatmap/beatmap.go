// Package beatmap parses osu! standard .osu charts and reconstructs the
// geometry and timing of every hit object: slider paths, tick times, fade
// windows and stacking offsets.
package beatmap

import "fmt"

// LatestFormatVersion is assumed when a chart has no version header.
const LatestFormatVersion = 14

// Countdown is the pre-start countdown speed.
type Countdown int32

// Countdown values.
const (
	CountdownNone Countdown = iota
	CountdownNormal
	CountdownHalfTime
	CountdownDoubleTime
)

// String returns the countdown name.
func (c Countdown) String() string {
	switch c {
	case CountdownNone:
		return "None"
	case CountdownNormal:
		return "Normal"
	case CountdownHalfTime:
		return "HalfTime"
	case CountdownDoubleTime:
		return "DoubleTime"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// GameMode is the ruleset a chart targets. Only ModeOsu is parsed.
type GameMode int32

// Game modes.
const (
	ModeOsu GameMode = iota
	ModeTaiko
	ModeCatch
	ModeMania
)

// String returns the mode name.
func (m GameMode) String() string {
	switch m {
	case ModeOsu:
		return "osu"
	case ModeTaiko:
		return "taiko"
	case ModeCatch:
		return "catch"
	case ModeMania:
		return "mania"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// OverlayPosition controls whether hit numbers draw above or below circles.
type OverlayPosition int32

// Overlay positions.
const (
	OverlayNoChange OverlayPosition = iota
	OverlayBelow
	OverlayAbove
)

// String returns the overlay position as written in charts.
func (o OverlayPosition) String() string {
	switch o {
	case OverlayNoChange:
		return "NoChange"
	case OverlayBelow:
		return "Below"
	case OverlayAbove:
		return "Above"
	default:
		return fmt.Sprintf("Unknown(%d)", o)
	}
}

// Warning is a non-fatal problem found while building a beatmap.
type Warning struct {
	Line    int // 0 for problems found after the scan
	Message string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	return w.Message
}

// Beatmap is a parsed chart. It is read-only once Parse returns.
type Beatmap struct {
	// BasePath is the directory other files of the set are resolved against.
	BasePath      string
	FormatVersion int32

	// General
	AlwaysShowPlayfield      bool
	AudioFilename            string
	AudioHash                string
	AudioLeadIn              int32
	Countdown                Countdown
	CountdownOffset          int32
	CustomSamples            bool
	EpilepsyWarning          bool
	LetterboxInBreaks        bool
	Mode                     GameMode
	OverlayPosition          OverlayPosition
	PreviewTime              int32
	SampleSet                SampleSet
	SampleVolume             int32
	SamplesMatchPlaybackRate bool
	SkinPreference           string
	SpecialStyle             bool
	StackLeniency            float32
	TimelineZoom             float32
	WidescreenStoryboard     bool

	// Metadata
	Artist          string // ArtistUnicode
	RomanizedArtist string // Artist
	Title           string // TitleUnicode
	RomanizedTitle  string // Title
	Creator         string
	Version         string
	Source          string
	Tags            string
	BeatmapID       int32
	BeatmapSetID    int32

	Difficulty   Difficulty
	TimingPoints TimingPoints

	// HitObjects are ordered by start time, new combos first on ties.
	HitObjects   []HitObject
	CircleCount  int
	SliderCount  int
	SpinnerCount int

	Warnings []Warning
}

func newBeatmap(basePath string) *Beatmap {
	return &Beatmap{
		BasePath:      basePath,
		FormatVersion: LatestFormatVersion,
		Countdown:     CountdownNormal,
		PreviewTime:   -1,
		SampleSet:     SampleSetNormal,
		StackLeniency: 0.7,
		Difficulty:    DefaultDifficulty(),
	}
}

// Length returns the time in ms between the first object's start and the
// last object's end, or 0 for a chart without objects.
func (b *Beatmap) Length() int32 {
	if len(b.HitObjects) == 0 {
		return 0
	}
	last := b.HitObjects[0].End
	for i := range b.HitObjects {
		last = max(last, b.HitObjects[i].End)
	}
	return last - b.HitObjects[0].Start
}
