// Package utils carries small numeric and formatting helpers shared by
// the statement, docs, and underwriting engines.
package utils

import (
	"fmt"
	"math"
	"strconv"
)

// Clamp bounds n to [min, max].
func Clamp(n, min, max float64) float64 {
	return math.Max(min, math.Min(max, n))
}

// ClampInt bounds n to [min, max].
func ClampInt(n, min, max int64) int64 {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// CoefficientOfVariation is the population standard deviation of the
// positive values divided by their mean; 0 when fewer than two positive
// values exist or the mean degenerates.
func CoefficientOfVariation(values []float64) float64 {
	var clean []float64
	for _, v := range values {
		if v > 0 {
			clean = append(clean, v)
		}
	}
	if len(clean) < 2 {
		return 0
	}
	var sum float64
	for _, v := range clean {
		sum += v
	}
	mean := sum / float64(len(clean))
	if mean <= 0 {
		return 0
	}
	var variance float64
	for _, v := range clean {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(clean))
	return math.Sqrt(variance) / mean
}

// FormatINR renders a whole-rupee amount with Indian digit grouping
// (12,34,567). Sign is dropped; callers label direction themselves.
func FormatINR(n int64) string {
	if n < 0 {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	last3 := s[len(s)-3:]
	rest := s[:len(s)-3]
	var parts []string
	for len(rest) > 2 {
		parts = append(parts, rest[len(rest)-2:])
		rest = rest[:len(rest)-2]
	}
	if rest != "" {
		parts = append(parts, rest)
	}
	out := ""
	for i := len(parts) - 1; i >= 0; i-- {
		out += parts[i] + ","
	}
	return out + last3
}

// Pct1 renders a ratio as a percentage with one decimal ("37.5%").
func Pct1(ratio float64) string {
	return fmt.Sprintf("%g%%", math.Round(ratio*1000)/10)
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
