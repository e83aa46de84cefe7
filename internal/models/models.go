// Package models defines the cleaned AR invoice schema and the tolerant
// field parsers used to build it.
//
// The source extract arrives as untyped text; every typed field here is
// produced by one of the parse helpers below. Monetary fields normalize
// failures to zero, while plain numeric and date fields normalize
// failures to a missing sentinel - the distinction is deliberate and
// load-bearing for messy real-world extracts.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source extract column headers. These are the post-trim header names
// the cleaner recognizes; columns absent from a given extract are
// tolerated everywhere downstream.
const (
	ColCustomerID    = "Customer ID"
	ColCustomerName  = "Customer Name"
	ColProjection    = "Projection"
	ColRemarks       = "Remarks"
	ColReference     = "Reference"
	ColNewOrgName    = "New Org Name"
	ColAllocation    = "Allocation"
	ColEntities      = "Entities"
	ColARStatus      = "AR Status"
	ColARComments    = "AR Comments"
	ColTotalUSD      = "Total in USD"
	ColROE           = "ROE"
	ColAge           = "AGE"
	ColPMTTerms      = "PMT Terms"
	ColGLPostingDate = "GL posting date"
	ColInvoiceDate   = "Invoice date"
	ColDueDate       = "Due date"
)

// Number is a numeric cell that may be missing from the source data.
type Number struct {
	Value float64
	Valid bool
}

// Date is a date cell that may be missing or unparseable.
type Date struct {
	Value time.Time
	Valid bool
}

// InvoiceRow represents one cleaned invoice (or invoice-allocation
// split) from the AR extract.
type InvoiceRow struct {
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	Projection   string  `json:"projection"`
	Remarks      string  `json:"remarks"`
	Reference    string  `json:"reference"`
	NewOrgName   string  `json:"new_org_name"`
	Allocation   string  `json:"allocation"`
	Entities     string  `json:"entities"`
	ARStatus     string  `json:"ar_status"`
	ARComments   string  `json:"ar_comments"`
	TotalUSD     float64 `json:"total_usd"`

	ROE      Number `json:"-"`
	Age      Number `json:"-"`
	PMTTerms Number `json:"-"`

	GLPostingDate Date `json:"-"`
	InvoiceDate   Date `json:"-"`
	DueDate       Date `json:"-"`
}

// Dataset is an immutable snapshot of the cleaned extract. All
// aggregations are pure read-only projections over it; Rows returns a
// fresh copy so no caller can mutate the snapshot in place.
type Dataset struct {
	rows    []InvoiceRow
	columns map[string]bool
}

// NewDataset creates a Dataset from cleaned rows and the set of source
// columns that were actually present in this extract.
func NewDataset(rows []InvoiceRow, presentColumns []string) *Dataset {
	columns := make(map[string]bool, len(presentColumns))
	for _, c := range presentColumns {
		columns[strings.TrimSpace(c)] = true
	}
	owned := make([]InvoiceRow, len(rows))
	copy(owned, rows)
	return &Dataset{rows: owned, columns: columns}
}

// Len returns the number of invoice rows in the snapshot.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Rows returns a copy of the cleaned invoice rows.
func (d *Dataset) Rows() []InvoiceRow {
	out := make([]InvoiceRow, len(d.rows))
	copy(out, d.rows)
	return out
}

// HasColumn reports whether the source extract contained the column.
func (d *Dataset) HasColumn(name string) bool {
	return d.columns[name]
}

// Columns returns the present source columns (order unspecified).
func (d *Dataset) Columns() []string {
	out := make([]string, 0, len(d.columns))
	for c := range d.columns {
		out = append(out, c)
	}
	return out
}

// ParseMonetary normalizes a raw monetary string to a float. Rules, in
// order: trim, parenthesized values are negative, thousands commas are
// stripped, a pure dash or empty string is zero, and anything that
// still fails to parse becomes 0.0. Never errors.
//
//	"(17,033)" -> -17033.0
//	"9,452"    -> 9452.0
//	""         -> 0.0
func ParseMonetary(s string) float64 {
	cleaned := strings.TrimSpace(s)

	negative := strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	if cleaned == "-" || cleaned == "" {
		cleaned = "0"
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		value = decimal.Zero
	}

	result := value.InexactFloat64()
	if negative {
		result = -result
	}
	return result
}

// ParseOptionalNumber parses a plain numeric field. Unlike monetary
// parsing, failures yield a missing sentinel rather than zero.
func ParseOptionalNumber(s string) Number {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return Number{}
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Number{}
	}
	return Number{Value: value.InexactFloat64(), Valid: true}
}

// dateFormats are the layouts tried in order by ParseFlexibleDate.
// Extracts mix US, ISO, and spreadsheet-native renderings across
// periods, so parsing is lenient by design.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"2006/01/02",
	"2-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseFlexibleDate parses a date with mixed-format detection.
// Unparseable values become a missing sentinel, not an error.
func ParseFlexibleDate(s string) Date {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return Date{}
	}

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return Date{Value: t, Valid: true}
		}
	}
	return Date{}
}

// NormalizeKey lowercases and trims a dimension value for comparison.
// Stored values keep their original casing; all filtering and matching
// goes through this helper so lookups are case- and
// whitespace-insensitive.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// KeysEqual reports whether two dimension values match under the
// case/whitespace-insensitive comparison rule.
func KeysEqual(a, b string) bool {
	return NormalizeKey(a) == NormalizeKey(b)
}
