package series

import (
	"math"
	"strconv"
)

// Epsilon is the floor applied to non-positive values before taking log10.
const Epsilon = 1e-10

// LogTicks returns one tick per decade covering the data: from
// 10^floor(log10(min)) to 10^ceil(log10(max)) inclusive. Values below
// Epsilon are clamped to Epsilon for the range computation; NaN and
// infinities are ignored. It returns nil when no finite value remains.
func LogTicks(values []float64) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < Epsilon {
			v = Epsilon
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return nil
	}

	first, last := floorPow(lo), ceilPow(hi)
	ticks := make([]float64, 0, last-first+1)
	for p := first; p <= last; p++ {
		ticks = append(ticks, pow10(p))
	}
	return ticks
}

// pow10 returns the float64 nearest to 10^p, the same value the literal
// "1eP" denotes.
func pow10(p int) float64 {
	f, _ := strconv.ParseFloat("1e"+strconv.Itoa(p), 64)
	return f
}

// floorPow returns the largest p with 10^p <= v. math.Log10 alone can be
// off by one ulp on exact powers, so the estimate is corrected.
func floorPow(v float64) int {
	p := int(math.Floor(math.Log10(v)))
	for pow10(p) > v {
		p--
	}
	for pow10(p+1) <= v {
		p++
	}
	return p
}

// ceilPow returns the smallest p with 10^p >= v.
func ceilPow(v float64) int {
	p := int(math.Ceil(math.Log10(v)))
	for pow10(p) < v {
		p++
	}
	for pow10(p-1) >= v {
		p--
	}
	return p
}

// TickLabel formats a decade tick compactly: "0.01", "1", "1000", or
// "1e-05" / "1e+06" outside [1e-3, 1e4].
func TickLabel(v float64) string {
	if v >= 1e-3 && v <= 1e4 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', 1, 64)
}
