package models

import (
	"testing"
	"time"
)

func TestParseMonetary(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"plain number", "100", 100.0},
		{"decimal", "1234.56", 1234.56},
		{"thousands separator", "9,452", 9452.0},
		{"multiple separators", "1,234,567.89", 1234567.89},
		{"parenthesized negative", "(17,033)", -17033.0},
		{"parenthesized plain", "(500)", -500.0},
		{"dash is zero", "-", 0.0},
		{"empty is zero", "", 0.0},
		{"whitespace only", "   ", 0.0},
		{"surrounding whitespace", "  9,452  ", 9452.0},
		{"garbage is zero", "N/A", 0.0},
		{"explicit negative", "-250.5", -250.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseMonetary(tt.input); got != tt.expected {
				t.Errorf("ParseMonetary(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseMonetary_ParenMirrorsPositive(t *testing.T) {
	pairs := []struct{ wrapped, plain string }{
		{"(1,234)", "1,234"},
		{"(17,033)", "17,033"},
		{"(0.5)", "0.5"},
	}

	for _, p := range pairs {
		if got, want := ParseMonetary(p.wrapped), -ParseMonetary(p.plain); got != want {
			t.Errorf("ParseMonetary(%q) = %v, want %v", p.wrapped, got, want)
		}
	}
}

func TestParseOptionalNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		value float64
		valid bool
	}{
		{"valid number", "42.5", 42.5, true},
		{"integer", "30", 30.0, true},
		{"empty is missing", "", 0, false},
		{"garbage is missing", "sixty", 0, false},
		{"comma is missing not zero", "1,5", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOptionalNumber(tt.input)
			if got.Valid != tt.valid {
				t.Fatalf("ParseOptionalNumber(%q).Valid = %v, want %v", tt.input, got.Valid, tt.valid)
			}
			if got.Valid && got.Value != tt.value {
				t.Errorf("ParseOptionalNumber(%q).Value = %v, want %v", tt.input, got.Value, tt.value)
			}
		})
	}
}

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		valid bool
	}{
		{"iso", "2024-02-15", time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), true},
		{"us slash", "02/15/2024", time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), true},
		{"day month name", "15-Feb-2024", time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), true},
		{"empty is missing", "", time.Time{}, false},
		{"garbage is missing", "someday", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFlexibleDate(tt.input)
			if got.Valid != tt.valid {
				t.Fatalf("ParseFlexibleDate(%q).Valid = %v, want %v", tt.input, got.Valid, tt.valid)
			}
			if got.Valid && !got.Value.Equal(tt.want) {
				t.Errorf("ParseFlexibleDate(%q) = %v, want %v", tt.input, got.Value, tt.want)
			}
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Current Due", "current due"},
		{"  OVERDUE  ", "overdue"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeKey(tt.input); got != tt.expected {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestKeysEqual(t *testing.T) {
	if !KeysEqual("Current Due", "  current DUE ") {
		t.Error("Expected case/whitespace-insensitive match")
	}
	if KeysEqual("Current Due", "Overdue") {
		t.Error("Expected distinct values not to match")
	}
}

func TestDataset_Immutability(t *testing.T) {
	rows := []InvoiceRow{
		{CustomerName: "Acme", TotalUSD: 100},
		{CustomerName: "Globex", TotalUSD: 200},
	}
	ds := NewDataset(rows, []string{ColCustomerName, ColTotalUSD})

	// Mutating the input slice must not affect the snapshot.
	rows[0].CustomerName = "changed"
	if ds.Rows()[0].CustomerName != "Acme" {
		t.Error("Dataset should own a copy of the input rows")
	}

	// Mutating a returned copy must not affect later reads.
	got := ds.Rows()
	got[1].TotalUSD = -1
	if ds.Rows()[1].TotalUSD != 200 {
		t.Error("Rows() should return a fresh copy each call")
	}

	if ds.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ds.Len())
	}
}

func TestDataset_HasColumn(t *testing.T) {
	ds := NewDataset(nil, []string{ColCustomerName, " Allocation "})

	if !ds.HasColumn(ColCustomerName) {
		t.Error("Expected Customer Name present")
	}
	if !ds.HasColumn(ColAllocation) {
		t.Error("Expected header whitespace to be trimmed")
	}
	if ds.HasColumn(ColEntities) {
		t.Error("Expected Entities absent")
	}
}
