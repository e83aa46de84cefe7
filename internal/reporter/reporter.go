// Package reporter renders the dashboard aggregations as console, JSON,
// or CSV reports for the CLI.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang-ar-analytics-service/internal/analytics"
	"golang-ar-analytics-service/internal/fetch"
	"golang-ar-analytics-service/internal/models"
	"golang-ar-analytics-service/pkg/format"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	}
	return false
}

// Totals holds the scalar rollups shown in the report header.
type Totals struct {
	GrandTotal          float64 `json:"grand_total"`
	ExpectedInflowTotal float64 `json:"expected_inflow_total"`
	DisputeTotal        float64 `json:"dispute_total"`
	CreditMemoTotal     float64 `json:"credit_memo_total"`
	UnappliedTotal      float64 `json:"unapplied_total"`
}

// Section is one named result table in the report.
type Section struct {
	Title string           `json:"title"`
	Table *analytics.Table `json:"table"`
}

// Report is the full analytics rundown for one extract.
type Report struct {
	File         string    `json:"file"`
	LastModified time.Time `json:"last_modified"`
	ModifiedBy   string    `json:"modified_by"`
	GeneratedAt  time.Time `json:"generated_at"`
	RowCount     int       `json:"row_count"`
	Totals       Totals    `json:"totals"`
	Sections     []Section `json:"sections"`
}

// BuildReport runs every aggregation over the dataset and assembles the
// report.
func BuildReport(engine *analytics.Engine, ds *models.Dataset, info fetch.FileInfo) *Report {
	return &Report{
		File:         info.Name,
		LastModified: info.LastModified,
		ModifiedBy:   info.ModifiedBy,
		GeneratedAt:  time.Now().UTC(),
		RowCount:     ds.Len(),
		Totals: Totals{
			GrandTotal:          engine.GrandTotal(ds),
			ExpectedInflowTotal: engine.ExpectedInflowTotal(ds),
			DisputeTotal:        engine.DisputeTotal(ds),
			CreditMemoTotal:     engine.CreditMemoTotal(ds),
			UnappliedTotal:      engine.UnappliedTotal(ds),
		},
		Sections: []Section{
			{Title: "Weekly Inflow Summary", Table: engine.WeeklyInflowSummary(ds)},
			{Title: "Due Wise Outstanding", Table: engine.DueWiseOutstanding(ds)},
			{Title: "Customer Wise Outstanding", Table: engine.CustomerWiseOutstanding(ds)},
			{Title: "Business Wise Outstanding", Table: engine.BusinessWiseOutstanding(ds)},
			{Title: "Allocation Wise Outstanding", Table: engine.AllocationWiseOutstanding(ds)},
			{Title: "Entities Wise Outstanding", Table: engine.EntitiesWiseOutstanding(ds)},
			{Title: "AR Status Wise Outstanding", Table: engine.ARStatusWiseOutstanding(ds)},
		},
	}
}

// ReportConfig holds configuration for report generation.
type ReportConfig struct {
	Format OutputFormat `json:"format"`
}

// DefaultReportConfig returns a config with console output.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{Format: FormatConsole}
}

// Validate checks the configuration.
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator renders reports in the configured format.
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a generator after validating the config.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ReportGenerator{config: config}, nil
}

// GenerateReport writes the report to the writer in the configured
// format.
func (rg *ReportGenerator) GenerateReport(report *Report, writer io.Writer) error {
	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(report, writer)
	case FormatJSON:
		return rg.generateJSONReport(report, writer)
	case FormatCSV:
		return rg.generateCSVReport(report, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(report *Report, writer io.Writer) error {
	fmt.Fprintf(writer, "AR Inflow Analytics Report\n")
	fmt.Fprintf(writer, "Generated: %s\n", report.GeneratedAt.Format(time.RFC3339))
	if report.File != "" {
		fmt.Fprintf(writer, "Source: %s (modified %s by %s)\n",
			report.File, report.LastModified.Format(time.RFC3339), report.ModifiedBy)
	}
	fmt.Fprintf(writer, "Invoice rows: %s\n\n", format.Number(report.RowCount))

	fmt.Fprintf(writer, "=== Totals ===\n")
	fmt.Fprintf(writer, "Grand Total:           %s\n", format.USD(report.Totals.GrandTotal))
	fmt.Fprintf(writer, "Expected Inflow Total: %s\n", format.USD(report.Totals.ExpectedInflowTotal))
	fmt.Fprintf(writer, "Dispute Total:         %s\n", format.USD(report.Totals.DisputeTotal))
	fmt.Fprintf(writer, "Credit Memo Total:     %s\n", format.USD(report.Totals.CreditMemoTotal))
	fmt.Fprintf(writer, "Unapplied Total:       %s\n\n", format.USD(report.Totals.UnappliedTotal))

	for _, section := range report.Sections {
		fmt.Fprintf(writer, "=== %s ===\n", section.Title)
		rg.printTable(section.Table, writer)
		fmt.Fprintln(writer)
	}
	return nil
}

// printTable renders a result table with fixed-width columns, formatting
// monetary and percentage cells for reading.
func (rg *ReportGenerator) printTable(table *analytics.Table, writer io.Writer) {
	if len(table.Rows) == 0 {
		fmt.Fprintln(writer, "(no rows)")
		return
	}

	widths := make([]int, len(table.Columns))
	rendered := make([][]string, len(table.Rows))
	for i, col := range table.Columns {
		widths[i] = len(col)
	}
	for r, row := range table.Rows {
		cells := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			cells[i] = renderCell(col, row[col])
			if len(cells[i]) > widths[i] {
				widths[i] = len(cells[i])
			}
		}
		rendered[r] = cells
	}

	for i, col := range table.Columns {
		fmt.Fprintf(writer, "%-*s  ", widths[i], col)
	}
	fmt.Fprintln(writer)
	for _, cells := range rendered {
		for i, cell := range cells {
			fmt.Fprintf(writer, "%-*s  ", widths[i], cell)
		}
		fmt.Fprintln(writer)
	}
}

func renderCell(column string, value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case float64:
		if column == analytics.ColPercentOfTotal {
			return format.Percent(v, 2)
		}
		return format.USD(v)
	case int:
		return format.Number(v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (rg *ReportGenerator) generateJSONReport(report *Report, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// generateCSVReport writes each section as a titled CSV block separated
// by blank lines, with raw (unformatted) numeric values.
func (rg *ReportGenerator) generateCSVReport(report *Report, writer io.Writer) error {
	w := csv.NewWriter(writer)

	if err := w.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	totals := [][2]interface{}{
		{"Grand Total", report.Totals.GrandTotal},
		{"Expected Inflow Total", report.Totals.ExpectedInflowTotal},
		{"Dispute Total", report.Totals.DisputeTotal},
		{"Credit Memo Total", report.Totals.CreditMemoTotal},
		{"Unapplied Total", report.Totals.UnappliedTotal},
	}
	for _, t := range totals {
		if err := w.Write([]string{t[0].(string), csvValue(t[1])}); err != nil {
			return err
		}
	}
	w.Write([]string{})

	for _, section := range report.Sections {
		if err := w.Write([]string{section.Title}); err != nil {
			return err
		}
		if err := w.Write(section.Table.Columns); err != nil {
			return err
		}
		for _, row := range section.Table.Rows {
			record := make([]string, len(section.Table.Columns))
			for i, col := range section.Table.Columns {
				record[i] = csvValue(row[col])
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		w.Write([]string{})
	}

	w.Flush()
	return w.Error()
}

func csvValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
