// Package format provides display formatting helpers shared by the
// reporter and the HTTP layer.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// USD formats a USD value into a compact human-readable string:
// 1200 -> "$1.2K", 1200000 -> "$1.2M", 1200000000 -> "$1.2B", 999 -> "$999".
func USD(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "$0"
	}

	abs := math.Abs(value)
	sign := ""
	if value < 0 {
		sign = "-"
	}

	var formatted string
	switch {
	case abs >= 1_000_000_000:
		formatted = fmt.Sprintf("%.1fB", abs/1_000_000_000)
	case abs >= 1_000_000:
		formatted = fmt.Sprintf("%.1fM", abs/1_000_000)
	case abs >= 1_000:
		formatted = fmt.Sprintf("%.1fK", abs/1_000)
	default:
		formatted = fmt.Sprintf("%.0f", abs)
	}

	return sign + "$" + formatted
}

// Number formats an integer with thousand separators: 1500 -> "1,500".
func Number(value int) string {
	s := strconv.Itoa(value)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

// Percent formats a numeric value as a percentage string with the given
// number of decimals: Percent(45.678, 2) -> "45.68%".
func Percent(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0.00%"
	}
	return fmt.Sprintf("%.*f%%", decimals, value)
}
