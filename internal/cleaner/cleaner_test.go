package cleaner

import (
	"testing"

	"golang-ar-analytics-service/internal/models"
	"golang-ar-analytics-service/internal/parsers"
)

func mustParse(t *testing.T, csv string) *parsers.RawTable {
	t.Helper()
	table, err := parsers.ParseTable([]byte(csv), "test.csv")
	if err != nil {
		t.Fatalf("ParseTable() error = %v", err)
	}
	return table
}

func TestClean_ForwardFillsIdentifiers(t *testing.T) {
	table := mustParse(t, "Customer ID,Customer Name,Total in USD\n"+
		"C100,Acme,100\n"+
		",,200\n"+
		"  ,  ,300\n"+
		"C200,Globex,400\n"+
		",,500\n")

	ds := New(nil).Clean(table)
	rows := ds.Rows()

	expected := []struct {
		id, name string
	}{
		{"C100", "Acme"},
		{"C100", "Acme"},
		{"C100", "Acme"},
		{"C200", "Globex"},
		{"C200", "Globex"},
	}
	for i, e := range expected {
		if rows[i].CustomerID != e.id || rows[i].CustomerName != e.name {
			t.Errorf("row %d = (%q, %q), want (%q, %q)",
				i, rows[i].CustomerID, rows[i].CustomerName, e.id, e.name)
		}
	}
}

func TestClean_LeadingBlanksStayBlank(t *testing.T) {
	table := mustParse(t, "Customer ID,Customer Name,Total in USD\n"+
		",,100\n"+
		"C100,Acme,200\n")

	rows := New(nil).Clean(table).Rows()
	if rows[0].CustomerID != "" || rows[0].CustomerName != "" {
		t.Errorf("leading blank identifiers should stay blank, got (%q, %q)",
			rows[0].CustomerID, rows[0].CustomerName)
	}
	if rows[1].CustomerID != "C100" {
		t.Errorf("row 1 CustomerID = %q, want C100", rows[1].CustomerID)
	}
}

func TestClean_TrimsTextColumns(t *testing.T) {
	table := mustParse(t, "Customer Name,Projection,Remarks,Total in USD\n"+
		"Acme,  Feb 3rd week  ,  Overdue ,100\n")

	rows := New(nil).Clean(table).Rows()
	if rows[0].Projection != "Feb 3rd week" {
		t.Errorf("Projection = %q, want trimmed value", rows[0].Projection)
	}
	if rows[0].Remarks != "Overdue" {
		t.Errorf("Remarks = %q, want trimmed value", rows[0].Remarks)
	}
}

func TestClean_ParsesMonetaryNumericAndDates(t *testing.T) {
	table := mustParse(t, "Customer Name,Total in USD,ROE,AGE,Invoice date\n"+
		"Acme,\"(17,033)\",82.5,45,2024-02-15\n"+
		"Globex,-,not a number,,bogus\n")

	rows := New(nil).Clean(table).Rows()

	if rows[0].TotalUSD != -17033.0 {
		t.Errorf("TotalUSD = %v, want -17033", rows[0].TotalUSD)
	}
	if !rows[0].ROE.Valid || rows[0].ROE.Value != 82.5 {
		t.Errorf("ROE = %+v, want valid 82.5", rows[0].ROE)
	}
	if !rows[0].InvoiceDate.Valid {
		t.Error("expected valid invoice date")
	}

	if rows[1].TotalUSD != 0 {
		t.Errorf("dash TotalUSD = %v, want 0", rows[1].TotalUSD)
	}
	if rows[1].ROE.Valid {
		t.Error("unparseable ROE should be missing, not zero")
	}
	if rows[1].Age.Valid {
		t.Error("blank AGE should be missing")
	}
	if rows[1].InvoiceDate.Valid {
		t.Error("unparseable invoice date should be missing")
	}
}

func TestClean_MissingColumnsTolerated(t *testing.T) {
	table := mustParse(t, "Customer Name,Total in USD\nAcme,100\n")

	ds := New(nil).Clean(table)
	rows := ds.Rows()

	if rows[0].Projection != "" || rows[0].Remarks != "" {
		t.Error("absent text columns should yield empty strings")
	}
	if rows[0].ROE.Valid || rows[0].DueDate.Valid {
		t.Error("absent numeric/date columns should yield missing sentinels")
	}
	if ds.HasColumn(models.ColProjection) {
		t.Error("Projection should not be recorded as present")
	}
	if !ds.HasColumn(models.ColTotalUSD) {
		t.Error("Total in USD should be recorded as present")
	}
}

func TestClean_Idempotent(t *testing.T) {
	table := mustParse(t, "Customer ID,Customer Name,Projection,Total in USD\n"+
		"C100, Acme , Feb 1st week ,100\n"+
		",,Feb 2nd week,200\n")

	first := New(nil).Clean(table).Rows()

	// Rebuild a raw table from the cleaned values and clean again; the
	// result must not change.
	csv := "Customer ID,Customer Name,Projection,Total in USD\n"
	for _, r := range first {
		csv += r.CustomerID + "," + r.CustomerName + "," + r.Projection + ",100\n"
	}
	rebuilt := mustParse(t, csv)

	second := New(nil).Clean(rebuilt).Rows()
	for i := range first {
		if first[i].CustomerID != second[i].CustomerID ||
			first[i].CustomerName != second[i].CustomerName ||
			first[i].Projection != second[i].Projection {
			t.Errorf("row %d changed on second clean: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestClean_EmptyTable(t *testing.T) {
	table := mustParse(t, "Customer Name,Total in USD\n")

	ds := New(nil).Clean(table)
	if ds.Len() != 0 {
		t.Errorf("Len() = %d, want 0", ds.Len())
	}
	if !ds.HasColumn(models.ColCustomerName) {
		t.Error("columns should be recorded even with zero rows")
	}
}
