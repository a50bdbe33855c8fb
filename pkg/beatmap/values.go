package beatmap

import (
	"errors"
	"strconv"
	"strings"
)

// parseBool reads the chart bool convention: anything starting with '1'
// is true, any other non-empty value is false.
func parseBool(s string, line int) (bool, error) {
	if s == "" {
		return false, newParseError(ErrInvalidBool, line, nil)
	}
	return s[0] == '1', nil
}

func parseInt(s string, line int) (int32, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, newParseError(ErrInvalidInt, line, err)
	}
	return int32(v), nil
}

// parseFloat64 accepts out-of-range values as ±Inf.
func parseFloat64(s string, line int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, newParseError(ErrInvalidFloat, line, err)
	}
	return v, nil
}

func parseFloat32(s string, line int) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, newParseError(ErrInvalidFloat, line, err)
	}
	return float32(v), nil
}

func parseCountdown(s string, line int) (Countdown, error) {
	v, err := parseInt(s, line)
	if err != nil {
		return 0, err
	}
	if v < int32(CountdownNone) || v > int32(CountdownDoubleTime) {
		return 0, newParseError(ErrInvalidEnum, line, nil)
	}
	return Countdown(v), nil
}

// parseOverlayPosition is case-insensitive, unlike the other enums.
func parseOverlayPosition(s string, line int) (OverlayPosition, error) {
	switch strings.ToLower(s) {
	case "nochange":
		return OverlayNoChange, nil
	case "below":
		return OverlayBelow, nil
	case "above":
		return OverlayAbove, nil
	}
	return 0, newParseError(ErrInvalidEnum, line, nil)
}

func parseSampleSetName(s string, line int) (SampleSet, error) {
	switch strings.TrimSpace(s) {
	case "All":
		return SampleSetAll, nil
	case "None":
		return SampleSetNone, nil
	case "Normal":
		return SampleSetNormal, nil
	case "Soft":
		return SampleSetSoft, nil
	case "Drum":
		return SampleSetDrum, nil
	}
	return 0, newParseError(ErrInvalidEnum, line, nil)
}

// sampleSetFromIndex maps the numeric sample set of a timing point.
// Unknown values fall back to None.
func sampleSetFromIndex(v int32) SampleSet {
	if v < int32(SampleSetAll) || v > int32(SampleSetDrum) {
		return SampleSetNone
	}
	return SampleSet(v)
}

// splitKeyValue splits "Key: Value" at the first colon.
func splitKeyValue(line string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), true
}
