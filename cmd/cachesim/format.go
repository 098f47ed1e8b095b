package main

import (
	"math"
	"strconv"
	"strings"
)

// formatRate renders a rate with the shortest digits that round-trip. Whole
// numbers keep a ".0" suffix, and magnitudes outside [1e-3, 1e7) use an
// exponent such as "1.0E-4", so that 100 prints as "100.0" and 99.9998 as
// "99.9998".
func formatRate(v float64) string {
	abs := math.Abs(v)
	if v == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	s := strconv.FormatFloat(v, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}

	n, _ := strconv.Atoi(exp)

	return mantissa + "E" + strconv.Itoa(n)
}
