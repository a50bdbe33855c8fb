package beatmap

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/encoding/unicode"

	"github.com/Faultbox/beatmap/pkg/curve"
	"github.com/Faultbox/beatmap/pkg/math"
)

func parseString(t *testing.T, data string, opts ...Option) *Beatmap {
	t.Helper()
	bm, err := Parse("songs/test", strings.NewReader(data), opts...)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return bm
}

func TestParseFileGolden(t *testing.T) {
	tests := []struct {
		path       string
		scoreTimes []int32
	}{
		{
			"testdata/simple_slider_with_repeats.osu",
			[]int32{
				1083, 1166, 1250, 1333, 1416, 1500, 1583, 1666, 1750, 1833, 1916, 2000, 2083, 2111,
				2138, 2222, 2305, 2388, 2472, 2555, 2638, 2722, 2805, 2888, 2972, 3055, 3138, 3186,
			},
		},
		{"testdata/degenerate_beat_length.osu", []int32{1464}},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			bm, err := ParseFile(tc.path)
			if err != nil {
				t.Fatalf("ParseFile failed: %v", err)
			}
			if bm.BasePath != "testdata" {
				t.Errorf("expected base path 'testdata', got %q", bm.BasePath)
			}
			if len(bm.HitObjects) != 1 {
				t.Fatalf("expected 1 hit object, got %d", len(bm.HitObjects))
			}
			slider := bm.HitObjects[0].Slider
			if slider == nil {
				t.Fatal("expected a slider")
			}
			if len(slider.ScoreTimes) != len(tc.scoreTimes) {
				t.Fatalf("expected %d score times, got %d: %v", len(tc.scoreTimes), len(slider.ScoreTimes), slider.ScoreTimes)
			}
			for i, want := range tc.scoreTimes {
				if slider.ScoreTimes[i] != want {
					t.Errorf("score time %d: expected %d, got %d", i, want, slider.ScoreTimes[i])
				}
			}
		})
	}
}

func TestParseFileDegenerateBeatLength(t *testing.T) {
	bm, err := ParseFile("testdata/degenerate_beat_length.osu")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	obj := bm.HitObjects[0]
	if obj.End != obj.Start {
		t.Errorf("expected end == start (%d), got %d", obj.Start, obj.End)
	}
	if obj.Slider.Velocity != 0 {
		t.Errorf("expected zero velocity, got %v", obj.Slider.Velocity)
	}
	if len(bm.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", bm.Warnings)
	}

	// a slider without duration sits on its head
	head := math.Vec2(100, 100)
	if pos := obj.PositionAtTime(obj.Start); pos != head {
		t.Errorf("expected PositionAtTime at the head %v, got %v", head, pos)
	}
	if pos, _ := obj.BallPositionAtTime(obj.Start); pos != head {
		t.Errorf("expected BallPositionAtTime at the head %v, got %v", head, pos)
	}
	if angle := obj.AngleAtTime(obj.Start); angle != 0 {
		t.Errorf("expected angle 0, got %v", angle)
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile("testdata/does_not_exist.osu")
	if !errors.Is(err, ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}

func TestParseHeader(t *testing.T) {
	bm, err := ParseFile("testdata/simple_slider_with_repeats.osu")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if bm.FormatVersion != 14 {
		t.Errorf("expected version 14, got %d", bm.FormatVersion)
	}
	if bm.AudioFilename != "audio.mp3" {
		t.Errorf("expected audio.mp3, got %q", bm.AudioFilename)
	}
	if bm.SampleSet != SampleSetSoft {
		t.Errorf("expected Soft sample set, got %v", bm.SampleSet)
	}
	if bm.Countdown != CountdownNone {
		t.Errorf("expected no countdown, got %v", bm.Countdown)
	}
	if bm.Title != "Simple Slider" || bm.Creator != "tester" || bm.Version != "Repeats" {
		t.Errorf("unexpected metadata: %q %q %q", bm.Title, bm.Creator, bm.Version)
	}
	if bm.BeatmapSetID != -1 {
		t.Errorf("expected set id -1, got %d", bm.BeatmapSetID)
	}

	d := bm.Difficulty
	if d.ApproachRate != 9 || d.CircleSize != 4 || d.OverallDifficulty != 8 {
		t.Errorf("unexpected difficulty %+v", d)
	}
	if d.Preempt != 600 || d.PreemptSliderComplete != 400 {
		t.Errorf("expected preempt 600/400, got %d/%d", d.Preempt, d.PreemptSliderComplete)
	}
	if d.Hit300 != 32 || d.Hit100 != 76 || d.Hit50 != 120 {
		t.Errorf("unexpected hit windows %d/%d/%d", d.Hit300, d.Hit100, d.Hit50)
	}

	if len(bm.TimingPoints) != 1 {
		t.Fatalf("expected 1 timing point, got %d", len(bm.TimingPoints))
	}
	tp := bm.TimingPoints[0]
	if tp.BeatLength != 500 || tp.SampleSet != SampleSetSoft || !tp.TimingChange || tp.Kiai {
		t.Errorf("unexpected timing point %+v", tp)
	}
	if bm.SliderCount != 1 || bm.CircleCount != 0 || bm.SpinnerCount != 0 {
		t.Errorf("unexpected counts %d/%d/%d", bm.CircleCount, bm.SliderCount, bm.SpinnerCount)
	}
}

func TestParseDefaults(t *testing.T) {
	bm := parseString(t, "")

	if bm.FormatVersion != LatestFormatVersion {
		t.Errorf("expected version %d, got %d", LatestFormatVersion, bm.FormatVersion)
	}
	if bm.PreviewTime != -1 {
		t.Errorf("expected preview time -1, got %d", bm.PreviewTime)
	}
	if bm.StackLeniency != 0.7 {
		t.Errorf("expected stack leniency 0.7, got %v", bm.StackLeniency)
	}
	if bm.Difficulty != DefaultDifficulty() {
		t.Errorf("expected default difficulty, got %+v", bm.Difficulty)
	}
	if bm.BasePath != "songs/test" {
		t.Errorf("expected base path to be kept, got %q", bm.BasePath)
	}
}

func TestParseWithoutVersionHeader(t *testing.T) {
	bm := parseString(t, "\n[General]\nStackLeniency: 0.5\n")
	if bm.FormatVersion != LatestFormatVersion {
		t.Errorf("expected version %d, got %d", LatestFormatVersion, bm.FormatVersion)
	}
	if bm.StackLeniency != 0.5 {
		t.Errorf("expected the first line to be parsed, got leniency %v", bm.StackLeniency)
	}
}

func TestParseNewerVersion(t *testing.T) {
	bm := parseString(t, "osu file format v128\n[HitObjects]\n100,100,1000,1,0\n")
	if bm.FormatVersion != 128 {
		t.Errorf("expected version 128, got %d", bm.FormatVersion)
	}
	if len(bm.HitObjects) != 1 {
		t.Fatalf("expected 1 hit object, got %d", len(bm.HitObjects))
	}
	if h := bm.HitObjects[0]; h.Start != 1000 || h.End != 1000 {
		t.Errorf("expected unshifted 1000/1000, got %d/%d", h.Start, h.End)
	}
}

func TestParseMetadataFallback(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		artist string
		title  string
	}{
		{
			"romanized only",
			"[Metadata]\nArtist:Kenshi Yonezu\nTitle:Lemon\n",
			"Kenshi Yonezu", "Lemon",
		},
		{
			"unicode preferred",
			"[Metadata]\nArtist:Kenshi Yonezu\nArtistUnicode:米津玄師\nTitle:Lemon\nTitleUnicode:レモン\n",
			"米津玄師", "レモン",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bm := parseString(t, "osu file format v14\n"+tc.input)
			if bm.Artist != tc.artist {
				t.Errorf("expected artist %q, got %q", tc.artist, bm.Artist)
			}
			if bm.Title != tc.title {
				t.Errorf("expected title %q, got %q", tc.title, bm.Title)
			}
		})
	}
}

func TestParseGeneralValues(t *testing.T) {
	bm := parseString(t, "osu file format v14\n[General]\n"+
		"OverlayPosition: ABOVE\n"+
		"EpilepsyWarning: 1\n"+
		"Countdown: 3\n"+
		"LetterboxInBreaks: 0\n"+
		"WidescreenStoryboard: 1abc\n"+
		"UnknownKey: whatever\n"+
		"not a key value line\n")

	if bm.OverlayPosition != OverlayAbove {
		t.Errorf("expected Above, got %v", bm.OverlayPosition)
	}
	if !bm.EpilepsyWarning {
		t.Error("expected epilepsy warning")
	}
	if bm.Countdown != CountdownDoubleTime {
		t.Errorf("expected DoubleTime, got %v", bm.Countdown)
	}
	if bm.LetterboxInBreaks {
		t.Error("expected letterbox off")
	}
	if !bm.WidescreenStoryboard {
		t.Error("expected any value starting with 1 to be true")
	}
}

func TestParseDifficultyClamped(t *testing.T) {
	bm := parseString(t, "osu file format v14\n[Difficulty]\n"+
		"ApproachRate:11\nCircleSize:-2\nSliderMultiplier:9\nSliderTickRate:0.1\n")

	d := bm.Difficulty
	if d.ApproachRate != 10 || d.CircleSize != 0 {
		t.Errorf("expected AR 10 / CS 0, got %v / %v", d.ApproachRate, d.CircleSize)
	}
	if d.SliderMultiplier != 3.6 || d.SliderTickRate != 0.5 {
		t.Errorf("expected SM 3.6 / TR 0.5, got %v / %v", d.SliderMultiplier, d.SliderTickRate)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  error
		line  int
	}{
		{"bad version", "osu file format vX\n", ErrInvalidInt, 1},
		{"zero version", "osu file format v0\n", ErrUnsupportedFormatVersion, 1},
		{"empty bool", "osu file format v14\n[General]\nCustomSamples:\n", ErrInvalidBool, 3},
		{"bad int", "osu file format v14\n[General]\nAudioLeadIn: abc\n", ErrInvalidInt, 3},
		{"bad float", "osu file format v14\n[General]\nStackLeniency: x\n", ErrInvalidFloat, 3},
		{"countdown range", "osu file format v14\n[General]\nCountdown: 7\n", ErrInvalidEnum, 3},
		{"overlay position", "osu file format v14\n[General]\nOverlayPosition: Sideways\n", ErrInvalidEnum, 3},
		{"sample set", "osu file format v14\n[General]\nSampleSet: Loud\n", ErrInvalidEnum, 3},
		{"taiko", "osu file format v14\n\n[General]\nMode: 1\n", ErrUnsupportedMode, 4},
		{"metadata id", "osu file format v14\n[Metadata]\nBeatmapID: 1.5\n", ErrInvalidInt, 3},
		{"difficulty", "osu file format v14\n[Difficulty]\nCircleSize: big\n", ErrInvalidFloat, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("", strings.NewReader(tc.input))
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if perr.Line != tc.line {
				t.Errorf("expected line %d, got %d", tc.line, perr.Line)
			}
		})
	}
}

func TestParseReadFailure(t *testing.T) {
	_, err := Parse("", iotest.ErrReader(errors.New("disk gone")))
	if !errors.Is(err, ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}

func TestParseLineTooLong(t *testing.T) {
	data := "osu file format v14\n[Metadata]\nTags:" + strings.Repeat("a", maxLineSize+1) + "\n"
	_, err := Parse("", strings.NewReader(data))
	if !errors.Is(err, ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}

func TestParseUTF16(t *testing.T) {
	src := "osu file format v12\r\n[Metadata]\r\nTitleUnicode:ブルーバード\r\n"
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.String(src)
	if err != nil {
		t.Fatal(err)
	}

	bm := parseString(t, data)
	if bm.FormatVersion != 12 {
		t.Errorf("expected version 12, got %d", bm.FormatVersion)
	}
	if bm.Title != "ブルーバード" {
		t.Errorf("expected unicode title, got %q", bm.Title)
	}
}

func TestParseUnknownSectionSkipped(t *testing.T) {
	bm := parseString(t, "osu file format v14\n[Colours]\nCombo1 : 255,0,0\n[Metadata]\nCreator:someone\n")
	if bm.Creator != "someone" {
		t.Errorf("expected creator after unknown section, got %q", bm.Creator)
	}
}

func TestParseTimingPoints(t *testing.T) {
	bm := parseString(t, "osu file format v14\n[TimingPoints]\n"+
		"not a timing point\n"+
		"abc,500\n"+
		"1000,500\n"+
		"2000,-50,3,9,1,70,0,1\n"+
		"3000,400,4,-1,0,60,1,2\n"+
		"4000,400,4,1,0,60,,0\n")

	if len(bm.TimingPoints) != 3 {
		t.Fatalf("expected 3 timing points, got %d", len(bm.TimingPoints))
	}
	if len(bm.Warnings) != 3 {
		t.Errorf("expected 3 warnings, got %v", bm.Warnings)
	}
	if bm.Warnings[0].Line != 3 {
		t.Errorf("expected first warning on line 3, got %d", bm.Warnings[0].Line)
	}

	minimal := bm.TimingPoints[0]
	if minimal.Offset != 1000 || minimal.TimeSignature != 4 || minimal.Volume != 100 ||
		!minimal.TimingChange || minimal.SampleSet != SampleSetNormal {
		t.Errorf("unexpected defaults %+v", minimal)
	}

	inherited := bm.TimingPoints[1]
	if inherited.TimingChange || !inherited.Kiai || inherited.SampleSet != SampleSetNone ||
		inherited.TimeSignature != 3 || inherited.Volume != 70 || inherited.CustomSampleSet != 1 {
		t.Errorf("unexpected inherited point %+v", inherited)
	}

	if bm.TimingPoints[2].SampleSet != SampleSetAll || bm.TimingPoints[2].Kiai {
		t.Errorf("unexpected third point %+v", bm.TimingPoints[2])
	}
}

func TestParseLegacyOffset(t *testing.T) {
	bm := parseString(t, "osu file format v4\n[TimingPoints]\n100,500\n[HitObjects]\n64,64,1000,1,0\n")

	if bm.TimingPoints[0].Offset != 124 {
		t.Errorf("expected timing point offset 124, got %v", bm.TimingPoints[0].Offset)
	}
	if bm.HitObjects[0].Start != 1024 {
		t.Errorf("expected start 1024, got %d", bm.HitObjects[0].Start)
	}
	if bm.HitObjects[0].End != 1000 {
		t.Errorf("expected unshifted end 1000, got %d", bm.HitObjects[0].End)
	}
}

func TestParseHitObjectLeniency(t *testing.T) {
	bm := parseString(t, "osu file format v14\n[HitObjects]\n"+
		"1,2,3\n"+
		"100,100,abc,1,0\n"+
		"100,100,500,16,0\n"+
		"100,100,600,2,0,L|200:100\n"+
		"100,100,700,2,0,L|200,1,100\n"+
		"100,100,750,2,0,L|x:1,1,100\n"+
		"100,100,800,1,0\n")

	if len(bm.HitObjects) != 1 {
		t.Fatalf("expected 1 hit object, got %d", len(bm.HitObjects))
	}
	if bm.HitObjects[0].Start != 800 || bm.HitObjects[0].Kind != KindCircle {
		t.Errorf("unexpected surviving object %+v", bm.HitObjects[0])
	}
	if len(bm.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", bm.Warnings)
	}
	if bm.CircleCount != 1 || bm.SliderCount != 0 {
		t.Errorf("unexpected counts %d/%d", bm.CircleCount, bm.SliderCount)
	}
}

func TestParseHitObjectOrder(t *testing.T) {
	bm := parseString(t, "osu file format v14\n[HitObjects]\n"+
		"0,0,2000,1,0\n"+
		"1,1,1000,1,0\n"+
		"10,10,1000,5,0\n"+
		"20,20,1000,1,0\n"+
		"30,30,500,12,0,1500\n")

	expected := []struct {
		start int32
		x     float32
	}{
		{500, 30},
		{1000, 10},
		{1000, 1},
		{1000, 20},
		{2000, 0},
	}
	if len(bm.HitObjects) != len(expected) {
		t.Fatalf("expected %d objects, got %d", len(expected), len(bm.HitObjects))
	}
	for i, want := range expected {
		got := bm.HitObjects[i]
		if got.Start != want.start || got.UnstackedStartPos.X != want.x {
			t.Errorf("object %d: expected (%d, %v), got (%d, %v)", i, want.start, want.x, got.Start, got.UnstackedStartPos.X)
		}
	}
	if bm.HitObjects[0].Kind != KindSpinner {
		t.Errorf("expected a spinner first, got %v", bm.HitObjects[0].Kind)
	}
}

func TestParseHitObjectCoordinates(t *testing.T) {
	tests := []struct {
		line     string
		expected math.Vector2
	}{
		{"100.9,50.2,1000,1,0", math.Vec2(100, 50)},
		{"-50,600.7,1000,1,0", math.Vec2(0, 512)},
		{"NaN,1e50,1000,1,0", math.Vec2(0, 512)},
	}

	for _, tc := range tests {
		bm := parseString(t, "osu file format v14\n[HitObjects]\n"+tc.line+"\n")
		if len(bm.HitObjects) != 1 {
			t.Fatalf("%q: expected 1 object, got %d", tc.line, len(bm.HitObjects))
		}
		if got := bm.HitObjects[0].UnstackedStartPos; got != tc.expected {
			t.Errorf("%q: expected %v, got %v", tc.line, tc.expected, got)
		}
	}
}

func TestParseSliderPath(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		kind   curve.Type
		lines  int
		endPos math.Vector2
	}{
		{"last letter wins", "0,0,1000,2,0,B|50:50|L|100:0,1,0", curve.Linear, 2, math.Vec2(100, 0)},
		{"wrapped coordinates", "0,0,1000,2,0,L|4294967396:100,1,0", curve.Linear, 1, math.Vec2(100, 100)},
		{"extra colon fields", "0,0,1000,2,0,L|100:50:7,1,0", curve.Linear, 1, math.Vec2(100, 50)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bm := parseString(t, "osu file format v14\n[HitObjects]\n"+tc.line+"\n")
			if len(bm.HitObjects) != 1 {
				t.Fatalf("expected 1 object, got %d", len(bm.HitObjects))
			}
			obj := bm.HitObjects[0]
			if got := len(obj.Slider.Curve.Lines); got != tc.lines {
				t.Errorf("expected %d lines, got %d", tc.lines, got)
			}
			if obj.UnstackedEndPos != tc.endPos {
				t.Errorf("expected end %v, got %v", tc.endPos, obj.UnstackedEndPos)
			}
		})
	}
}

func TestParseSlidesAtLeastOne(t *testing.T) {
	bm := parseString(t, "osu file format v14\n[HitObjects]\n0,0,1000,2,0,L|100:0,-3,100\n")
	if got := bm.HitObjects[0].Slider.Slides; got != 1 {
		t.Errorf("expected 1 slide, got %d", got)
	}
}

func TestWithLogger(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	bm := parseString(t, "osu file format v14\n[TimingPoints]\nbroken\n", WithLogger(zap.New(core)))

	if len(bm.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(bm.Warnings))
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["line"]; got != int64(3) {
		t.Errorf("expected line field 3, got %v", got)
	}
}
