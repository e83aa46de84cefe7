package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"golang-ar-analytics-service/internal/analytics"
	"golang-ar-analytics-service/internal/fetch"
	"golang-ar-analytics-service/internal/models"
)

func testReport() *Report {
	rows := []models.InvoiceRow{
		{CustomerName: "Acme", Projection: "Feb 3rd week", Remarks: "Current Due", Reference: "INV-1", TotalUSD: 1000},
		{CustomerName: "Acme", Projection: "Feb 3rd week", Remarks: "Overdue", Reference: "INV-2", TotalUSD: 2000},
		{CustomerName: "Globex", Projection: "Dispute - Legal", Remarks: "Credit Memo", Reference: "INV-3", TotalUSD: 500},
	}
	ds := models.NewDataset(rows, []string{
		models.ColCustomerName, models.ColProjection, models.ColRemarks,
		models.ColReference, models.ColTotalUSD,
	})
	return BuildReport(analytics.NewEngine(nil), ds, fetch.FileInfo{Name: "extract.csv", ModifiedBy: "Jane"})
}

func TestOutputFormat_IsValid(t *testing.T) {
	for _, f := range []OutputFormat{FormatConsole, FormatJSON, FormatCSV} {
		if !f.IsValid() {
			t.Errorf("%s should be valid", f)
		}
	}
	if OutputFormat("xml").IsValid() {
		t.Error("xml should be invalid")
	}
}

func TestNewReportGenerator_InvalidFormat(t *testing.T) {
	_, err := NewReportGenerator(&ReportConfig{Format: "xml"})
	if err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestBuildReport(t *testing.T) {
	report := testReport()

	if report.Totals.GrandTotal != 3500 {
		t.Errorf("GrandTotal = %v, want 3500", report.Totals.GrandTotal)
	}
	if report.Totals.DisputeTotal != 500 {
		t.Errorf("DisputeTotal = %v, want 500", report.Totals.DisputeTotal)
	}
	if report.RowCount != 3 {
		t.Errorf("RowCount = %v, want 3", report.RowCount)
	}
	if len(report.Sections) != 7 {
		t.Errorf("Sections = %d, want 7", len(report.Sections))
	}
}

func TestGenerateConsoleReport(t *testing.T) {
	rg, err := NewReportGenerator(DefaultReportConfig())
	if err != nil {
		t.Fatalf("NewReportGenerator() error = %v", err)
	}

	var buf bytes.Buffer
	if err := rg.GenerateReport(testReport(), &buf); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"AR Inflow Analytics Report",
		"Grand Total:",
		"$3.5K",
		"Weekly Inflow Summary",
		"Feb 3rd week",
		"Due Wise Outstanding",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q", want)
		}
	}
}

func TestGenerateJSONReport(t *testing.T) {
	rg, _ := NewReportGenerator(&ReportConfig{Format: FormatJSON})

	var buf bytes.Buffer
	if err := rg.GenerateReport(testReport(), &buf); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if decoded.Totals.GrandTotal != 3500 {
		t.Errorf("round-tripped GrandTotal = %v", decoded.Totals.GrandTotal)
	}
}

func TestGenerateCSVReport(t *testing.T) {
	rg, _ := NewReportGenerator(&ReportConfig{Format: FormatCSV})

	var buf bytes.Buffer
	if err := rg.GenerateReport(testReport(), &buf); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Grand Total,3500") {
		t.Errorf("CSV missing raw grand total, got:\n%s", out)
	}
	if !strings.Contains(out, "Weekly Inflow Summary") {
		t.Error("CSV missing section title")
	}
	if !strings.Contains(out, "Projection,Total Inflow (USD)") {
		t.Error("CSV missing table header")
	}
}

func TestPrintTable_EmptyTable(t *testing.T) {
	rg, _ := NewReportGenerator(nil)

	var buf bytes.Buffer
	rg.printTable(&analytics.Table{Columns: []string{"A"}}, &buf)
	if !strings.Contains(buf.String(), "(no rows)") {
		t.Errorf("expected empty-table marker, got %q", buf.String())
	}
}
