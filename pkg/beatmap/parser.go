package beatmap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/Faultbox/beatmap/pkg/curve"
	"github.com/Faultbox/beatmap/pkg/encoding"
	"github.com/Faultbox/beatmap/pkg/math"
)

const (
	versionPrefix = "osu file format v"
	maxLineSize   = 1 << 20
	// legacyOffset is added to every time in charts older than version 5.
	legacyOffset = 24
)

type section int

const (
	sectionNone section = iota
	sectionGeneral
	sectionMetadata
	sectionDifficulty
	sectionTimingPoints
	sectionHitObjects
)

var sectionNames = map[string]section{
	"General":      sectionGeneral,
	"Metadata":     sectionMetadata,
	"Difficulty":   sectionDifficulty,
	"TimingPoints": sectionTimingPoints,
	"HitObjects":   sectionHitObjects,
}

// Option configures Parse.
type Option func(*parser)

// WithLogger sets the logger warnings are written to. By default warnings
// are only collected on Beatmap.Warnings.
func WithLogger(log *zap.Logger) Option {
	return func(p *parser) {
		if log != nil {
			p.log = log
		}
	}
}

type parser struct {
	bm      *Beatmap
	log     *zap.Logger
	section section
	line    int
}

// Parse reads a chart from r. basePath is stored on the result for
// resolving the audio file and other assets of the set.
//
// Malformed values in [General], [Metadata] and [Difficulty] fail the whole
// parse. Malformed timing point and hit object lines are skipped and
// reported on Beatmap.Warnings.
func Parse(basePath string, r io.Reader, opts ...Option) (*Beatmap, error) {
	p := &parser{
		bm:  newBeatmap(basePath),
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	sc := bufio.NewScanner(encoding.NewReader(r))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	sawContent := false
	for sc.Scan() {
		p.line++
		line := sc.Text()

		// only the first non-blank line may declare the version
		if !sawContent && strings.TrimSpace(line) != "" {
			sawContent = true
			if v, ok := strings.CutPrefix(line, versionPrefix); ok {
				if err := p.handleVersion(v); err != nil {
					return nil, err
				}
				continue
			}
		}

		if err := p.handleLine(line); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, newParseError(ErrIO, p.line+1, err)
	}

	p.finish()
	return p.bm, nil
}

// ParseFile parses the chart at path, using its directory as base path.
func ParseFile(path string, opts ...Option) (*Beatmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newParseError(ErrIO, 0, err)
	}
	defer f.Close()

	return Parse(filepath.Dir(path), f, opts...)
}

func (p *parser) warn(line int, msg string, fields ...zap.Field) {
	p.bm.Warnings = append(p.bm.Warnings, Warning{Line: line, Message: msg})
	if line > 0 {
		fields = append(fields, zap.Int("line", line))
	}
	p.log.Warn(msg, fields...)
}

func (p *parser) handleVersion(v string) error {
	version, err := parseInt(v, p.line)
	if err != nil {
		return err
	}
	// versions past LatestFormatVersion parse like the latest
	if version < 1 {
		return newParseError(ErrUnsupportedFormatVersion, p.line, fmt.Errorf("version %d", version))
	}
	p.bm.FormatVersion = version
	return nil
}

func (p *parser) handleLine(line string) error {
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "//") {
		return nil
	}

	if trimmed := strings.TrimRightFunc(line, unicode.IsSpace); strings.HasPrefix(line, "[") &&
		len(trimmed) >= 2 && strings.HasSuffix(trimmed, "]") {
		// unknown sections are skipped until the next known header
		p.section = sectionNames[trimmed[1:len(trimmed)-1]]
		return nil
	}

	switch p.section {
	case sectionGeneral:
		return p.handleGeneral(line)
	case sectionMetadata:
		return p.handleMetadata(line)
	case sectionDifficulty:
		return p.handleDifficulty(line)
	case sectionTimingPoints:
		p.handleTimingPoint(line)
	case sectionHitObjects:
		p.handleHitObject(line)
	}
	return nil
}

func (p *parser) handleGeneral(line string) error {
	key, val, ok := splitKeyValue(line)
	if !ok {
		return nil
	}

	bm := p.bm
	n := p.line
	var err error
	switch key {
	case "AlwaysShowPlayfield":
		bm.AlwaysShowPlayfield, err = parseBool(val, n)
	case "AudioFilename":
		bm.AudioFilename = val
	case "AudioHash":
		bm.AudioHash = val
	case "AudioLeadIn":
		bm.AudioLeadIn, err = parseInt(val, n)
	case "Countdown":
		bm.Countdown, err = parseCountdown(val, n)
	case "CountdownOffset":
		bm.CountdownOffset, err = parseInt(val, n)
	case "CustomSamples":
		bm.CustomSamples, err = parseBool(val, n)
	case "EpilepsyWarning", "EpilespyWarning":
		bm.EpilepsyWarning, err = parseBool(val, n)
	case "LetterboxInBreaks":
		bm.LetterboxInBreaks, err = parseBool(val, n)
	case "Mode":
		var mode int32
		if mode, err = parseInt(val, n); err == nil && GameMode(mode) != ModeOsu {
			return newParseError(ErrUnsupportedMode, n, fmt.Errorf("mode %d", mode))
		}
	case "OverlayPosition":
		bm.OverlayPosition, err = parseOverlayPosition(val, n)
	case "PreviewTime":
		bm.PreviewTime, err = parseInt(val, n)
	case "SampleSet":
		bm.SampleSet, err = parseSampleSetName(val, n)
	case "SampleVolume":
		bm.SampleVolume, err = parseInt(val, n)
	case "SamplesMatchPlaybackRate":
		bm.SamplesMatchPlaybackRate, err = parseBool(val, n)
	case "SkinPreference":
		bm.SkinPreference = val
	case "SpecialStyle":
		bm.SpecialStyle, err = parseBool(val, n)
	case "StackLeniency":
		bm.StackLeniency, err = parseFloat32(val, n)
	case "TimelineZoom":
		bm.TimelineZoom, err = parseFloat32(val, n)
	case "WidescreenStoryboard":
		bm.WidescreenStoryboard, err = parseBool(val, n)
	}
	return err
}

func (p *parser) handleMetadata(line string) error {
	key, val, ok := splitKeyValue(line)
	if !ok {
		return nil
	}

	bm := p.bm
	var err error
	switch key {
	case "Artist":
		bm.RomanizedArtist = val
	case "ArtistUnicode":
		bm.Artist = val
	case "BeatmapID":
		bm.BeatmapID, err = parseInt(val, p.line)
	case "BeatmapSetID":
		bm.BeatmapSetID, err = parseInt(val, p.line)
	case "Creator":
		bm.Creator = val
	case "Source":
		bm.Source = val
	case "Tags":
		bm.Tags = val
	case "Title":
		bm.RomanizedTitle = val
	case "TitleUnicode":
		bm.Title = val
	case "Version":
		bm.Version = val
	}
	return err
}

func (p *parser) handleDifficulty(line string) error {
	key, val, ok := splitKeyValue(line)
	if !ok {
		return nil
	}

	d := &p.bm.Difficulty
	switch key {
	case "ApproachRate", "CircleSize", "HPDrainRate", "OverallDifficulty":
		v, err := parseFloat32(val, p.line)
		if err != nil {
			return err
		}
		v = math.Clamp32(v, 0, 10)
		switch key {
		case "ApproachRate":
			d.ApproachRate = v
		case "CircleSize":
			d.CircleSize = v
		case "HPDrainRate":
			d.HPDrain = v
		default:
			d.OverallDifficulty = v
		}
	case "SliderMultiplier":
		v, err := parseFloat64(val, p.line)
		if err != nil {
			return err
		}
		d.SliderMultiplier = math.Clamp64(v, 0.4, 3.6)
	case "SliderTickRate":
		v, err := parseFloat64(val, p.line)
		if err != nil {
			return err
		}
		d.SliderTickRate = math.Clamp64(v, 0.5, 8)
	}
	return nil
}

func (p *parser) handleTimingPoint(line string) {
	tp, err := parseTimingPoint(line, p.line, p.bm.FormatVersion)
	if err != nil {
		p.warn(p.line, "skipping malformed timing point", zap.String("content", line), zap.Error(err))
		return
	}
	p.bm.TimingPoints = append(p.bm.TimingPoints, tp)
}

func parseTimingPoint(line string, n int, version int32) (TimingPoint, error) {
	tp := TimingPoint{
		TimeSignature: 4,
		SampleSet:     SampleSetNormal,
		Volume:        100,
		TimingChange:  true,
	}

	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return tp, newParseError(ErrInvalidTimingPoint, n, nil)
	}

	var err error
	if tp.Offset, err = parseFloat64(fields[0], n); err != nil {
		return tp, err
	}
	if tp.BeatLength, err = parseFloat64(fields[1], n); err != nil {
		return tp, err
	}
	if version < 5 {
		tp.Offset += legacyOffset
	}

	if len(fields) > 2 {
		if tp.TimeSignature, err = parseInt(fields[2], n); err != nil {
			return tp, err
		}
	}
	if len(fields) > 3 {
		set, err := parseInt(fields[3], n)
		if err != nil {
			return tp, err
		}
		tp.SampleSet = sampleSetFromIndex(set)
	}
	if len(fields) > 4 {
		if tp.CustomSampleSet, err = parseInt(fields[4], n); err != nil {
			return tp, err
		}
	}
	if len(fields) > 5 {
		if tp.Volume, err = parseInt(fields[5], n); err != nil {
			return tp, err
		}
	}
	if len(fields) > 6 {
		if tp.TimingChange, err = parseBool(strings.TrimSpace(fields[6]), n); err != nil {
			return tp, err
		}
	}
	if len(fields) > 7 {
		effects, err := parseInt(fields[7], n)
		if err != nil {
			return tp, err
		}
		tp.Kiai = effects&1 == 1
	}
	return tp, nil
}

func (p *parser) handleHitObject(line string) {
	n := p.line
	warn := func(msg string, fields ...zap.Field) {
		p.warn(n, msg, fields...)
	}

	obj, err := parseHitObject(line, n, p.bm.FormatVersion, warn)
	if err != nil {
		p.warn(n, "skipping malformed hit object", zap.String("content", line), zap.Error(err))
		return
	}
	if obj == nil {
		return
	}

	switch obj.Kind {
	case KindCircle:
		p.bm.CircleCount++
	case KindSlider:
		p.bm.SliderCount++
	case KindSpinner:
		p.bm.SpinnerCount++
	}
	p.bm.HitObjects = insertSorted(p.bm.HitObjects, *obj)
}

// parseHitObject returns nil without an error for lines that are dropped
// silently: too few fields, unknown type bits, or an incomplete slider.
func parseHitObject(line string, n int, version int32, warn curve.WarnFunc) (*HitObject, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 5 {
		return nil, nil
	}

	x, err := parseFloat32(fields[0], n)
	if err != nil {
		return nil, err
	}
	y, err := parseFloat32(fields[1], n)
	if err != nil {
		return nil, err
	}
	pos := math.Vec2(playfieldCoord(x), playfieldCoord(y))

	start, err := parseInt(fields[2], n)
	if err != nil {
		return nil, err
	}
	// legacy charts shift only the start; End keeps the written time
	end := start
	if version < 5 {
		start += legacyOffset
	}

	flags, err := parseInt(fields[3], n)
	if err != nil {
		return nil, err
	}

	obj := &HitObject{
		Flags:             flags,
		Start:             start,
		End:               end,
		UnstackedStartPos: pos,
		UnstackedEndPos:   pos,
	}
	switch {
	case flags&FlagCircle != 0:
		obj.Kind = KindCircle
	case flags&FlagSlider != 0:
		obj.Kind = KindSlider
	case flags&FlagSpinner != 0:
		obj.Kind = KindSpinner
	default:
		return nil, nil
	}

	if obj.Kind != KindSlider {
		return obj, nil
	}
	if len(fields) < 7 {
		return nil, nil
	}

	kind := curve.Catmull
	points := []math.Vector2{pos}
	for _, entry := range strings.Split(fields[5], "|") {
		// the last curve letter wins
		if len(entry) == 1 {
			if k, ok := curve.TypeFromLetter(entry); ok {
				kind = k
			}
			continue
		}

		xs, rest, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, nil
		}
		ys, _, _ := strings.Cut(rest, ":")
		cx, err := parseFloat64(xs, n)
		if err != nil {
			return nil, err
		}
		cy, err := parseFloat64(ys, n)
		if err != nil {
			return nil, err
		}
		points = append(points, math.Vec2(float32(math.WrapToInt32(cx)), float32(math.WrapToInt32(cy))))
	}

	slides, err := parseInt(fields[6], n)
	if err != nil {
		return nil, err
	}
	info := &SliderInfo{Slides: max(1, slides)}
	if len(fields) > 7 {
		if info.SpatialLength, err = parseFloat64(fields[7], n); err != nil {
			return nil, err
		}
	}

	info.Curve = newSliderCurve(kind, points, info.SpatialLength, warn)
	obj.UnstackedEndPos = info.Curve.PointAt(1)
	obj.Slider = info
	return obj, nil
}

// playfieldCoord clamps a coordinate to the playfield and drops the
// fractional part.
func playfieldCoord(v float32) float32 {
	return float32(math.TruncToInt32(float64(math.Clamp32(v, 0, 512))))
}

// finish runs the post-scan passes in order.
func (p *parser) finish() {
	bm := p.bm
	if bm.Artist == "" {
		bm.Artist = bm.RomanizedArtist
	}
	if bm.Title == "" {
		bm.Title = bm.RomanizedTitle
	}

	bm.Difficulty.Recalculate()

	for i := range bm.HitObjects {
		obj := &bm.HitObjects[i]
		if obj.Kind != KindSlider {
			continue
		}
		start := obj.Start
		warn := func(msg string, fields ...zap.Field) {
			p.warn(0, fmt.Sprintf("slider at %dms: %s", start, msg), fields...)
		}
		obj.RecalculateSlider(bm.FormatVersion, bm.TimingPoints, &bm.Difficulty, warn)
	}

	bm.processStacking()
}
