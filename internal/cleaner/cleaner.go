// Package cleaner transforms the untyped extract table into the typed
// invoice dataset.
//
// Column treatment is driven by an explicit, enumerated configuration
// (carry-forward, text, monetary, numeric, date groups) so a renamed or
// missing source column is a visible configuration concern rather than
// a silent runtime skip. Cleaning never fails on malformed cell data:
// monetary cells degrade to zero, numeric and date cells degrade to a
// missing sentinel.
package cleaner

import (
	"strings"

	"golang-ar-analytics-service/internal/models"
	"golang-ar-analytics-service/internal/parsers"
	"golang-ar-analytics-service/pkg/logger"
)

// Config enumerates the column groups the cleaner recognizes.
type Config struct {
	// CarryForwardColumns are grouped-invoice identifier columns where a
	// blank cell means "same as the row above" and is forward-filled.
	CarryForwardColumns []string

	// TextColumns are free-text dimension columns that are
	// whitespace-trimmed but keep their original casing.
	TextColumns []string

	// MonetaryColumns parse through the monetary normalizer
	// (zero-on-failure).
	MonetaryColumns []string

	// NumericColumns parse as plain numbers (missing-on-failure).
	NumericColumns []string

	// DateColumns parse with mixed-format detection (missing-on-failure).
	DateColumns []string
}

// DefaultConfig returns the column groups of the standard AR extract.
func DefaultConfig() *Config {
	return &Config{
		CarryForwardColumns: []string{
			models.ColCustomerID,
			models.ColCustomerName,
		},
		TextColumns: []string{
			models.ColProjection,
			models.ColRemarks,
			models.ColReference,
			models.ColNewOrgName,
			models.ColAllocation,
			models.ColEntities,
			models.ColARStatus,
			models.ColARComments,
		},
		MonetaryColumns: []string{
			models.ColTotalUSD,
		},
		NumericColumns: []string{
			models.ColROE,
			models.ColAge,
			models.ColPMTTerms,
		},
		DateColumns: []string{
			models.ColGLPostingDate,
			models.ColInvoiceDate,
			models.ColDueDate,
		},
	}
}

// Cleaner applies the configured column treatments to a raw table.
type Cleaner struct {
	config *Config
	logger logger.Logger
}

// New creates a Cleaner with the given configuration.
func New(config *Config) *Cleaner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Cleaner{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("cleaner"),
	}
}

// Clean produces the typed, immutable dataset from a raw extract table.
// Absent columns are tolerated everywhere: the affected fields stay at
// their zero values and the dataset records which columns were present.
func (c *Cleaner) Clean(raw *parsers.RawTable) *models.Dataset {
	cells := c.prepareCells(raw)

	rows := make([]models.InvoiceRow, 0, len(cells))
	for _, record := range cells {
		rows = append(rows, c.buildRow(raw, record))
	}

	c.logger.WithFields(logger.Fields{
		"rows":    len(rows),
		"columns": len(raw.Headers),
	}).Debug("Cleaned extract table")

	return models.NewDataset(rows, raw.Headers)
}

// prepareCells copies the raw cell matrix and applies the string-level
// treatments: forward-fill on identifier columns and whitespace trim on
// text columns.
func (c *Cleaner) prepareCells(raw *parsers.RawTable) [][]string {
	cells := make([][]string, len(raw.Rows))
	for i, row := range raw.Rows {
		cells[i] = make([]string, len(row))
		copy(cells[i], row)
	}

	for _, col := range c.config.CarryForwardColumns {
		index := raw.ColumnIndex(col)
		if index == -1 {
			c.logger.WithField("column", col).Debug("Carry-forward column absent, skipping")
			continue
		}
		// Blank means "same as above"; a leading run of blanks has no
		// predecessor and stays blank.
		last := ""
		for _, row := range cells {
			if index >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[index])
			if value == "" {
				row[index] = last
			} else {
				row[index] = value
				last = value
			}
		}
	}

	for _, col := range c.config.TextColumns {
		index := raw.ColumnIndex(col)
		if index == -1 {
			continue
		}
		for _, row := range cells {
			if index < len(row) {
				row[index] = strings.TrimSpace(row[index])
			}
		}
	}

	return cells
}

// buildRow projects one prepared record onto the typed invoice schema.
func (c *Cleaner) buildRow(raw *parsers.RawTable, record []string) models.InvoiceRow {
	row := models.InvoiceRow{
		CustomerID:   raw.Cell(record, models.ColCustomerID),
		CustomerName: raw.Cell(record, models.ColCustomerName),
		Projection:   raw.Cell(record, models.ColProjection),
		Remarks:      raw.Cell(record, models.ColRemarks),
		Reference:    raw.Cell(record, models.ColReference),
		NewOrgName:   raw.Cell(record, models.ColNewOrgName),
		Allocation:   raw.Cell(record, models.ColAllocation),
		Entities:     raw.Cell(record, models.ColEntities),
		ARStatus:     raw.Cell(record, models.ColARStatus),
		ARComments:   raw.Cell(record, models.ColARComments),
	}

	if c.inGroup(c.config.MonetaryColumns, models.ColTotalUSD) {
		row.TotalUSD = models.ParseMonetary(raw.Cell(record, models.ColTotalUSD))
	}
	if c.inGroup(c.config.NumericColumns, models.ColROE) {
		row.ROE = models.ParseOptionalNumber(raw.Cell(record, models.ColROE))
	}
	if c.inGroup(c.config.NumericColumns, models.ColAge) {
		row.Age = models.ParseOptionalNumber(raw.Cell(record, models.ColAge))
	}
	if c.inGroup(c.config.NumericColumns, models.ColPMTTerms) {
		row.PMTTerms = models.ParseOptionalNumber(raw.Cell(record, models.ColPMTTerms))
	}
	if c.inGroup(c.config.DateColumns, models.ColGLPostingDate) {
		row.GLPostingDate = models.ParseFlexibleDate(raw.Cell(record, models.ColGLPostingDate))
	}
	if c.inGroup(c.config.DateColumns, models.ColInvoiceDate) {
		row.InvoiceDate = models.ParseFlexibleDate(raw.Cell(record, models.ColInvoiceDate))
	}
	if c.inGroup(c.config.DateColumns, models.ColDueDate) {
		row.DueDate = models.ParseFlexibleDate(raw.Cell(record, models.ColDueDate))
	}

	return row
}

func (c *Cleaner) inGroup(group []string, name string) bool {
	for _, col := range group {
		if col == name {
			return true
		}
	}
	return false
}
