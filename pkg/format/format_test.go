package format

import (
	"math"
	"testing"
)

func TestUSD(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{999, "$999"},
		{1200, "$1.2K"},
		{1200000, "$1.2M"},
		{1200000000, "$1.2B"},
		{-1500, "-$1.5K"},
		{0, "$0"},
		{math.NaN(), "$0"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := USD(tt.value); got != tt.expected {
				t.Errorf("USD(%v) = %s, want %s", tt.value, got, tt.expected)
			}
		})
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		value    int
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1500, "1,500"},
		{1234567, "1,234,567"},
		{-1500, "-1,500"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := Number(tt.value); got != tt.expected {
				t.Errorf("Number(%d) = %s, want %s", tt.value, got, tt.expected)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		value    float64
		decimals int
		expected string
	}{
		{45.678, 2, "45.68%"},
		{100.0, 0, "100%"},
		{0, 2, "0.00%"},
		{math.NaN(), 2, "0.00%"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := Percent(tt.value, tt.decimals); got != tt.expected {
				t.Errorf("Percent(%v, %d) = %s, want %s", tt.value, tt.decimals, got, tt.expected)
			}
		})
	}
}
