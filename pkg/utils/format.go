package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatConcentration formats a concentration in mg/L with 4 decimals,
// switching to scientific notation outside [1e-3, 1e6).
func FormatConcentration(v float64) string {
	abs := math.Abs(v)
	if v != 0 && (abs < 1e-3 || abs >= 1e6) {
		return fmt.Sprintf("%.3e mg/L", v)
	}
	return fmt.Sprintf("%.4f mg/L", v)
}

// FormatCount formats an integer with thousands separators (1234567 → "1,234,567").
func FormatCount(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
