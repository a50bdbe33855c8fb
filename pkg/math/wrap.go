package math

import "math"

const twoPow32 = 4294967296.0

// WrapToUint32 converts x to uint32 with ECMAScript ToUint32 semantics:
// non-finite values become 0, everything else is truncated toward zero and
// wrapped modulo 2^32.
func WrapToUint32(x float64) uint32 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(x), twoPow32)
	if m < 0 {
		m += twoPow32
	}
	return uint32(m)
}

// WrapToInt32 converts x to int32 with ECMAScript ToInt32 semantics.
func WrapToInt32(x float64) int32 {
	return int32(WrapToUint32(x))
}

// TruncToInt32 truncates x toward zero, saturating at the int32 range.
// NaN converts to 0.
func TruncToInt32(x float64) int32 {
	switch {
	case math.IsNaN(x):
		return 0
	case x >= math.MaxInt32:
		return math.MaxInt32
	case x <= math.MinInt32:
		return math.MinInt32
	}
	return int32(x)
}

// Clamp32 limits v to [lo, hi].
func Clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp64 limits v to [lo, hi].
func Clamp64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
