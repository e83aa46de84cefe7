// Package parsers turns a downloaded AR extract into an untyped table.
//
// The extract format varies across periods (CSV exports and Excel
// workbooks have both been observed), so parsing tries structured text
// first and falls back to spreadsheet formats. Every cell is kept as a
// string: type inference belongs to the cleaner, not the parsing layer.
package parsers

import (
	"bytes"
	"encoding/csv"
	"strings"
	"unicode/utf8"

	"golang-ar-analytics-service/pkg/errors"
	"golang-ar-analytics-service/pkg/logger"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ParseConfig holds configuration for tabular parsing
type ParseConfig struct {
	Delimiter        rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
}

// DefaultParseConfig returns a configuration with sensible defaults
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		Delimiter:        ',',
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
	}
}

// RawTable is an untyped tabular view of the extract: a header row plus
// data rows, all cells as strings.
type RawTable struct {
	Headers []string
	Rows    [][]string

	headerIndex map[string]int
}

// newRawTable builds a RawTable from raw records, trimming header
// whitespace and padding ragged rows to the header width.
func newRawTable(records [][]string, skipEmpty bool) *RawTable {
	table := &RawTable{headerIndex: make(map[string]int)}
	if len(records) == 0 {
		return table
	}

	table.Headers = make([]string, len(records[0]))
	for i, h := range records[0] {
		table.Headers[i] = strings.TrimSpace(h)
	}
	for i, h := range table.Headers {
		if _, exists := table.headerIndex[h]; !exists {
			table.headerIndex[h] = i
		}
	}

	for _, record := range records[1:] {
		if skipEmpty && isEmptyRecord(record) {
			continue
		}
		row := make([]string, len(table.Headers))
		copy(row, record)
		table.Rows = append(table.Rows, row)
	}

	return table
}

// ColumnIndex returns the index of a column by trimmed name, trying a
// case-insensitive match before giving up with -1.
func (t *RawTable) ColumnIndex(name string) int {
	if index, exists := t.headerIndex[name]; exists {
		return index
	}

	lower := strings.ToLower(name)
	for header, index := range t.headerIndex {
		if strings.ToLower(header) == lower {
			return index
		}
	}
	return -1
}

// HasColumn reports whether the table contains the named column.
func (t *RawTable) HasColumn(name string) bool {
	return t.ColumnIndex(name) != -1
}

// Cell returns the value of the named column in the given row, or ""
// when the column is absent.
func (t *RawTable) Cell(row []string, name string) string {
	index := t.ColumnIndex(name)
	if index == -1 || index >= len(row) {
		return ""
	}
	return row[index]
}

// Len returns the number of data rows.
func (t *RawTable) Len() int {
	return len(t.Rows)
}

// ParseTable parses extract bytes into a RawTable. CSV is attempted
// first; on failure the bytes are retried as an XLSX workbook, then as
// a legacy XLS workbook. The name is only used in error reporting.
func ParseTable(data []byte, name string) (*RawTable, error) {
	return ParseTableWithConfig(data, name, DefaultParseConfig())
}

// ParseTableWithConfig parses extract bytes using a custom configuration.
func ParseTableWithConfig(data []byte, name string, config *ParseConfig) (*RawTable, error) {
	if config == nil {
		config = DefaultParseConfig()
	}

	log := logger.GetGlobalLogger().WithComponent("parsers").WithField("extract", name)

	table, csvErr := parseCSV(data, config)
	if csvErr == nil {
		log.WithField("rows", table.Len()).Debug("Parsed extract as CSV")
		return table, nil
	}
	log.WithError(csvErr).Debug("CSV parse failed, trying XLSX")

	table, xlsxErr := parseXLSX(data, config)
	if xlsxErr == nil {
		log.WithField("rows", table.Len()).Debug("Parsed extract as XLSX")
		return table, nil
	}
	log.WithError(xlsxErr).Debug("XLSX parse failed, trying legacy XLS")

	table, xlsErr := parseXLS(data, config)
	if xlsErr == nil {
		log.WithField("rows", table.Len()).Debug("Parsed extract as XLS")
		return table, nil
	}

	log.WithError(xlsErr).Error("Extract not parseable in any supported format")
	return nil, errors.ParseError(errors.CodeInvalidFormat, name, csvErr)
}

// parseCSV parses the bytes as delimited text. Binary content is
// rejected up front so workbook bytes fall through to the spreadsheet
// parsers instead of producing one giant garbage row.
func parseCSV(data []byte, config *ParseConfig) (*RawTable, error) {
	if err := validateTextEncoding(data); err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = config.Delimiter
	reader.TrimLeadingSpace = config.TrimLeadingSpace
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New(errors.CategoryParse, errors.CodeEmptyTable, "no records in CSV data")
	}

	return newRawTable(records, config.SkipEmptyRows), nil
}

// parseXLSX parses the bytes as an XLSX workbook, first sheet only.
func parseXLSX(data []byte, config *ParseConfig) (*RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New(errors.CategoryParse, errors.CodeNoSheets, "workbook has no sheets")
	}

	records, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New(errors.CategoryParse, errors.CodeEmptyTable, "workbook sheet is empty")
	}

	return newRawTable(records, config.SkipEmptyRows), nil
}

// xlsMaxRows bounds legacy workbook reads; AR extracts are far smaller.
const xlsMaxRows = 200000

// parseXLS parses the bytes as a legacy BIFF workbook.
func parseXLS(data []byte, config *ParseConfig) (*RawTable, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}

	records := workbook.ReadAllCells(xlsMaxRows)
	if len(records) == 0 {
		return nil, errors.New(errors.CategoryParse, errors.CodeEmptyTable, "workbook has no cells")
	}

	return newRawTable(records, config.SkipEmptyRows), nil
}

// validateTextEncoding checks that the leading bytes look like UTF-8
// text rather than a binary workbook (ZIP and BIFF containers both
// carry NUL bytes early on).
func validateTextEncoding(data []byte) error {
	sample := data
	if len(sample) > 4096 {
		sample = sample[:4096]
		// A multibyte rune may be split at the sample boundary.
		for i := 0; i < 3 && len(sample) > 0 && !utf8.Valid(sample); i++ {
			sample = sample[:len(sample)-1]
		}
	}

	if !utf8.Valid(sample) || bytes.IndexByte(sample, 0) != -1 {
		return errors.New(errors.CategoryParse, errors.CodeInvalidFormat, "data is not valid UTF-8 text")
	}
	return nil
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
