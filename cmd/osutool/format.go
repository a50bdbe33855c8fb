package main

import (
	"fmt"
	"io"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/Faultbox/beatmap/internal/index"
	"github.com/Faultbox/beatmap/internal/scan"
	"github.com/Faultbox/beatmap/pkg/beatmap"
)

const (
	titleWidth   = 40
	versionWidth = 20
	maxWarnings  = 10
)

// cell pads or truncates s to width terminal columns. Titles are often
// CJK, so byte or rune counts do not line up.
func cell(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

func formatMs(ms int32) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d.%03d", int(d.Minutes()), int(d.Seconds())%60, ms%1000)
}

func printInfo(w io.Writer, bm *beatmap.Beatmap, audio string) {
	d := bm.Difficulty

	fmt.Fprintf(w, "Title:      %s", bm.Title)
	if bm.RomanizedTitle != "" && bm.RomanizedTitle != bm.Title {
		fmt.Fprintf(w, " (%s)", bm.RomanizedTitle)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Artist:     %s", bm.Artist)
	if bm.RomanizedArtist != "" && bm.RomanizedArtist != bm.Artist {
		fmt.Fprintf(w, " (%s)", bm.RomanizedArtist)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Creator:    %s\n", bm.Creator)
	fmt.Fprintf(w, "Difficulty: %s\n", bm.Version)
	fmt.Fprintf(w, "IDs:        beatmap %d, set %d\n", bm.BeatmapID, bm.BeatmapSetID)
	fmt.Fprintf(w, "Format:     v%d, mode %s\n", bm.FormatVersion, bm.Mode)
	fmt.Fprintf(w, "Audio:      %s -> %s\n", bm.AudioFilename, audio)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "HP %.1f  CS %.1f  OD %.1f  AR %.1f  SV %.2f  TR %.2f\n",
		d.HPDrain, d.CircleSize, d.OverallDifficulty, d.ApproachRate, d.SliderMultiplier, d.SliderTickRate)
	fmt.Fprintf(w, "Preempt %dms  Hit windows 300/100/50: %d/%d/%dms  Radius %.2f\n",
		d.Preempt, d.Hit300, d.Hit100, d.Hit50, d.ObjectRadius)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Objects:    %d circles, %d sliders, %d spinners\n", bm.CircleCount, bm.SliderCount, bm.SpinnerCount)
	fmt.Fprintf(w, "Timing:     %d points\n", len(bm.TimingPoints))
	fmt.Fprintf(w, "Length:     %s\n", formatMs(bm.Length()))

	if len(bm.Warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "\nWarnings (%d):\n", len(bm.Warnings))
	for i, warn := range bm.Warnings {
		if i == maxWarnings {
			fmt.Fprintf(w, "  ... and %d more\n", len(bm.Warnings)-maxWarnings)
			break
		}
		fmt.Fprintf(w, "  %s\n", warn)
	}
}

func printObjects(w io.Writer, bm *beatmap.Beatmap) {
	fmt.Fprintf(w, "%5s %-8s %9s %9s %17s %17s %5s\n", "#", "KIND", "START", "END", "START POS", "END POS", "STACK")
	for i := range bm.HitObjects {
		obj := &bm.HitObjects[i]
		combo := " "
		if obj.IsNewCombo() {
			combo = "*"
		}
		fmt.Fprintf(w, "%5d %-7s%s %9d %9d %8.2f,%8.2f %8.2f,%8.2f %5d\n",
			i, obj.Kind, combo, obj.Start, obj.End,
			obj.StartPos.X, obj.StartPos.Y, obj.EndPos.X, obj.EndPos.Y, obj.StackCount)
	}
	fmt.Fprintf(w, "\nTotal: %d objects (* = new combo)\n", len(bm.HitObjects))
}

func printTicks(w io.Writer, n int, obj *beatmap.HitObject) {
	s := obj.Slider
	fmt.Fprintf(w, "Slider #%d %s: %d..%dms, %d slides, %.1fpx, %.1fpx/s\n",
		n, s.Curve.Kind, obj.Start, obj.End, s.Slides, s.SpatialLength, s.Velocity)
	fmt.Fprintf(w, "  score times: %v\n", s.ScoreTimes)
	for _, t := range s.SmallTicks {
		fmt.Fprintf(w, "  tick   %7d  (%.1f, %.1f)\n", t.Time, t.Pos.X, t.Pos.Y)
	}
	for _, t := range s.EndTicks {
		kind := "end   "
		if t.IsRepeat {
			kind = "repeat"
		}
		fmt.Fprintf(w, "  %s %7d  (%.1f, %.1f)\n", kind, t.Time, t.Pos.X, t.Pos.Y)
	}
}

func printScan(w io.Writer, results []scan.Result, quiet bool) {
	var total time.Duration
	ok, skipped := 0, 0
	for _, r := range results {
		total += r.Elapsed
		if r.Skipped {
			skipped++
			continue
		}
		if r.Err != nil {
			continue
		}
		ok++
		if quiet {
			continue
		}
		bm := r.Beatmap
		fmt.Fprintf(w, "%s %s %5d obj %3d warn  %s\n",
			cell(bm.Artist+" - "+bm.Title, titleWidth), cell(bm.Version, versionWidth),
			len(bm.HitObjects), len(bm.Warnings), r.Path)
	}
	fmt.Fprintf(w, "\nParsed %d of %d charts (%s parse time)\n", ok, len(results), total.Round(time.Millisecond))
	if skipped > 0 {
		fmt.Fprintf(w, "Skipped %d charts for other game modes\n", skipped)
	}
}

func printEntries(w io.Writer, entries []index.Entry) {
	for _, e := range entries {
		s := e.Summary
		fmt.Fprintf(w, "%s %s AR%-4.1f OD%-4.1f %8s  %s\n",
			cell(s.Artist+" - "+s.Title, titleWidth), cell(s.Version, versionWidth),
			s.ApproachRate, s.OverallDifficulty, formatMs(s.LengthMs), e.Path)
	}
}
