// Package analytics computes the dashboard aggregations over a cleaned
// invoice dataset.
//
// Every operation is a pure read-only projection: the engine never
// mutates the dataset, and calling the same operation twice on the same
// snapshot yields identical results. Result tables carry their column
// order explicitly because pivot columns vary with the data.
package analytics

import (
	"math"
	"sort"
	"strings"

	"golang-ar-analytics-service/internal/models"
	"golang-ar-analytics-service/internal/projection"
	"golang-ar-analytics-service/pkg/logger"
)

// Result table column names. These are the consumer contract: the HTTP
// layer and reporters render whatever columns a table declares, in
// order.
const (
	ColTotalInflow      = "Total Inflow (USD)"
	ColInvoiceCount     = "Invoice Count"
	ColPercentOfTotal   = "% of Total"
	ColTotalOutstanding = "Total Outstanding (USD)"
)

// Row is one result record keyed by column name.
type Row map[string]interface{}

// Table is an ordered-column result set. Rows only carry values for the
// declared columns.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Config tunes the classification rules of the engine.
type Config struct {
	// DisputeKeyword partitions projection labels into inflow vs
	// dispute buckets (substring, case-insensitive).
	DisputeKeyword string

	// DueRemarks is the whitelist of remark values the due-wise view
	// aggregates (compared case-insensitively).
	DueRemarks []string

	// InternalRemark marks rows excluded from customer-facing views.
	InternalRemark string

	// CanonicalRemarkColumns are always present in pivot results even
	// when no row carries them, so charts keep a stable shape.
	CanonicalRemarkColumns []string
}

// DefaultConfig returns the standard dashboard classification rules.
func DefaultConfig() *Config {
	return &Config{
		DisputeKeyword: projection.DefaultDisputeKeyword,
		DueRemarks: []string{
			"future due",
			"current due",
			"overdue",
			"credit memo",
			"unapplied",
		},
		InternalRemark:         "internal",
		CanonicalRemarkColumns: []string{"Current Due", "Overdue"},
	}
}

// Engine computes aggregations with a fixed configuration.
type Engine struct {
	config *Config
	logger logger.Logger
}

// NewEngine creates an Engine; a nil config selects the defaults.
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("analytics"),
	}
}

// round2 rounds to two decimal places for percentage columns.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (e *Engine) isInternalRemark(remark string) bool {
	return models.KeysEqual(remark, e.config.InternalRemark)
}

// ---------------------------------------------------------------------
// Weekly inflow projections
// ---------------------------------------------------------------------

// WeeklyInflowSummary aggregates Total in USD by projection label.
// Rows follow the display order (chronological inflow labels, then
// alphabetical dispute labels, unknown labels last); the percentage is
// of the grand total across all labels.
func (e *Engine) WeeklyInflowSummary(ds *models.Dataset) *Table {
	type group struct {
		label string
		total float64
		count int
	}

	groups := make(map[string]*group)
	var labels []string
	for _, row := range ds.Rows() {
		g, ok := groups[row.Projection]
		if !ok {
			g = &group{label: row.Projection}
			groups[row.Projection] = g
			labels = append(labels, row.Projection)
		}
		g.total += row.TotalUSD
		g.count++
	}

	ordered := projection.Order(ds, e.config.DisputeKeyword)
	orderIndex := make(map[string]int, len(ordered))
	for i, label := range ordered {
		orderIndex[label] = i
	}
	rank := func(label string) int {
		if i, ok := orderIndex[label]; ok {
			return i
		}
		return len(ordered)
	}
	sort.SliceStable(labels, func(i, j int) bool {
		ri, rj := rank(labels[i]), rank(labels[j])
		if ri != rj {
			return ri < rj
		}
		return labels[i] < labels[j]
	})

	var grand float64
	for _, g := range groups {
		grand += g.total
	}

	table := &Table{
		Columns: []string{models.ColProjection, ColTotalInflow, ColInvoiceCount, ColPercentOfTotal},
	}
	for _, label := range labels {
		g := groups[label]
		pct := 0.0
		if grand > 0 {
			pct = round2(g.total / grand * 100)
		}
		table.Rows = append(table.Rows, Row{
			models.ColProjection: g.label,
			ColTotalInflow:       g.total,
			ColInvoiceCount:      g.count,
			ColPercentOfTotal:    pct,
		})
	}
	return table
}

// ---------------------------------------------------------------------
// Scalar rollups
// ---------------------------------------------------------------------

// GrandTotal sums Total in USD across every row.
func (e *Engine) GrandTotal(ds *models.Dataset) float64 {
	var total float64
	for _, row := range ds.Rows() {
		total += row.TotalUSD
	}
	return total
}

// ExpectedInflowTotal sums the inflow projection buckets only.
func (e *Engine) ExpectedInflowTotal(ds *models.Dataset) float64 {
	inflow, _ := projection.Split(ds, e.config.DisputeKeyword)
	return e.sumByProjection(ds, inflow)
}

// DisputeTotal sums the dispute projection buckets.
func (e *Engine) DisputeTotal(ds *models.Dataset) float64 {
	_, dispute := projection.Split(ds, e.config.DisputeKeyword)
	return e.sumByProjection(ds, dispute)
}

func (e *Engine) sumByProjection(ds *models.Dataset, labels []string) float64 {
	member := make(map[string]bool, len(labels))
	for _, l := range labels {
		member[l] = true
	}
	var total float64
	for _, row := range ds.Rows() {
		if member[strings.TrimSpace(row.Projection)] {
			total += row.TotalUSD
		}
	}
	return total
}

// CreditMemoTotal sums rows remarked as credit memos.
func (e *Engine) CreditMemoTotal(ds *models.Dataset) float64 {
	return e.sumByRemark(ds, "credit memo")
}

// UnappliedTotal sums rows remarked as unapplied receipts.
func (e *Engine) UnappliedTotal(ds *models.Dataset) float64 {
	return e.sumByRemark(ds, "unapplied")
}

func (e *Engine) sumByRemark(ds *models.Dataset, remark string) float64 {
	var total float64
	for _, row := range ds.Rows() {
		if models.KeysEqual(row.Remarks, remark) {
			total += row.TotalUSD
		}
	}
	return total
}

// ---------------------------------------------------------------------
// Due wise outstanding
// ---------------------------------------------------------------------

// DueWiseOutstanding aggregates Total in USD by remark category.
// Internal rows and remarks outside the configured whitelist are
// dropped; the percentage is of the filtered total, so visible rows
// always account for 100% when any remain.
func (e *Engine) DueWiseOutstanding(ds *models.Dataset) *Table {
	whitelist := make(map[string]bool, len(e.config.DueRemarks))
	for _, r := range e.config.DueRemarks {
		whitelist[models.NormalizeKey(r)] = true
	}

	type group struct {
		label string
		total float64
		count int
	}
	groups := make(map[string]*group)
	var labels []string
	for _, row := range ds.Rows() {
		remark := strings.TrimSpace(row.Remarks)
		if e.isInternalRemark(remark) || !whitelist[models.NormalizeKey(remark)] {
			continue
		}
		g, ok := groups[remark]
		if !ok {
			g = &group{label: remark}
			groups[remark] = g
			labels = append(labels, remark)
		}
		g.total += row.TotalUSD
		g.count++
	}

	sort.SliceStable(labels, func(i, j int) bool {
		ti, tj := groups[labels[i]].total, groups[labels[j]].total
		if ti != tj {
			return ti > tj
		}
		return labels[i] < labels[j]
	})

	var grand float64
	for _, g := range groups {
		grand += g.total
	}

	table := &Table{
		Columns: []string{models.ColRemarks, ColTotalOutstanding, ColInvoiceCount, ColPercentOfTotal},
	}
	for _, label := range labels {
		g := groups[label]
		pct := 0.0
		if grand > 0 {
			pct = round2(g.total / grand * 100)
		}
		table.Rows = append(table.Rows, Row{
			models.ColRemarks:   g.label,
			ColTotalOutstanding: g.total,
			ColInvoiceCount:     g.count,
			ColPercentOfTotal:   pct,
		})
	}
	return table
}

// ---------------------------------------------------------------------
// Dimension pivots
// ---------------------------------------------------------------------

// pivotSpec describes one dimension-by-remark pivot.
type pivotSpec struct {
	dimension string
	dimValue  func(models.InvoiceRow) string
	include   func(models.InvoiceRow) bool
}

// pivot builds a dimension-by-remark matrix. Remark columns are the
// alphabetically sorted values present in the data, with the canonical
// columns appended when absent; each row carries a Total Outstanding
// column summed across its remark cells, and rows sort by that total
// descending.
func (e *Engine) pivot(ds *models.Dataset, spec pivotSpec) *Table {
	type cellKey struct{ dim, remark string }

	cells := make(map[cellKey]float64)
	dimSeen := make(map[string]bool)
	remarkSeen := make(map[string]bool)
	var dims, remarks []string

	for _, row := range ds.Rows() {
		if spec.include != nil && !spec.include(row) {
			continue
		}
		dim := strings.TrimSpace(spec.dimValue(row))
		remark := strings.TrimSpace(row.Remarks)
		if !dimSeen[dim] {
			dimSeen[dim] = true
			dims = append(dims, dim)
		}
		if !remarkSeen[remark] {
			remarkSeen[remark] = true
			remarks = append(remarks, remark)
		}
		cells[cellKey{dim, remark}] += row.TotalUSD
	}

	sort.Strings(remarks)
	for _, canonical := range e.config.CanonicalRemarkColumns {
		if !remarkSeen[canonical] {
			remarks = append(remarks, canonical)
		}
	}

	totals := make(map[string]float64, len(dims))
	for _, dim := range dims {
		for _, remark := range remarks {
			totals[dim] += cells[cellKey{dim, remark}]
		}
	}
	sort.SliceStable(dims, func(i, j int) bool {
		if totals[dims[i]] != totals[dims[j]] {
			return totals[dims[i]] > totals[dims[j]]
		}
		return dims[i] < dims[j]
	})

	table := &Table{Columns: append(append([]string{spec.dimension}, remarks...), ColTotalOutstanding)}
	for _, dim := range dims {
		row := Row{spec.dimension: dim, ColTotalOutstanding: totals[dim]}
		for _, remark := range remarks {
			row[remark] = cells[cellKey{dim, remark}]
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// CustomerWiseOutstanding pivots outstanding amounts by customer and
// remark, excluding internal rows.
func (e *Engine) CustomerWiseOutstanding(ds *models.Dataset) *Table {
	return e.pivot(ds, pivotSpec{
		dimension: models.ColCustomerName,
		dimValue:  func(r models.InvoiceRow) string { return r.CustomerName },
		include:   func(r models.InvoiceRow) bool { return !e.isInternalRemark(r.Remarks) },
	})
}

// BusinessWiseOutstanding pivots outstanding amounts by business unit
// and remark, excluding the internal business unit.
func (e *Engine) BusinessWiseOutstanding(ds *models.Dataset) *Table {
	return e.pivot(ds, pivotSpec{
		dimension: models.ColNewOrgName,
		dimValue:  func(r models.InvoiceRow) string { return r.NewOrgName },
		include: func(r models.InvoiceRow) bool {
			return !models.KeysEqual(r.NewOrgName, e.config.InternalRemark)
		},
	})
}

// AllocationWiseOutstanding pivots outstanding amounts by collector
// allocation and remark, excluding internal rows.
func (e *Engine) AllocationWiseOutstanding(ds *models.Dataset) *Table {
	return e.pivot(ds, pivotSpec{
		dimension: models.ColAllocation,
		dimValue:  func(r models.InvoiceRow) string { return r.Allocation },
		include:   func(r models.InvoiceRow) bool { return !e.isInternalRemark(r.Remarks) },
	})
}

// EntitiesWiseOutstanding pivots outstanding amounts by legal entity
// and remark. No rows are excluded: entity totals reconcile to the
// ledger, internal or not.
func (e *Engine) EntitiesWiseOutstanding(ds *models.Dataset) *Table {
	return e.pivot(ds, pivotSpec{
		dimension: models.ColEntities,
		dimValue:  func(r models.InvoiceRow) string { return r.Entities },
	})
}

// ARStatusWiseOutstanding pivots outstanding amounts by collection
// status and remark. No rows are excluded.
func (e *Engine) ARStatusWiseOutstanding(ds *models.Dataset) *Table {
	return e.pivot(ds, pivotSpec{
		dimension: models.ColARStatus,
		dimValue:  func(r models.InvoiceRow) string { return r.ARStatus },
	})
}

// ---------------------------------------------------------------------
// Invoice-level drill-down detail
// ---------------------------------------------------------------------

// detailColumns assembles a detail column set, dropping optional
// dimension columns the source extract did not carry.
func detailColumns(ds *models.Dataset, names ...string) []string {
	columns := make([]string, 0, len(names))
	for _, name := range names {
		switch name {
		case models.ColCustomerName, models.ColTotalUSD:
			columns = append(columns, name)
		default:
			if ds.HasColumn(name) {
				columns = append(columns, name)
			}
		}
	}
	return columns
}

// detail builds a sorted invoice-level detail table for rows matching
// the filter.
func (e *Engine) detail(ds *models.Dataset, columns []string, match func(models.InvoiceRow) bool) *Table {
	table := &Table{Columns: columns}

	var matched []models.InvoiceRow
	for _, row := range ds.Rows() {
		if match(row) {
			matched = append(matched, row)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].TotalUSD > matched[j].TotalUSD
	})

	for _, row := range matched {
		out := Row{}
		for _, col := range columns {
			out[col] = detailValue(row, col)
		}
		table.Rows = append(table.Rows, out)
	}
	return table
}

func detailValue(row models.InvoiceRow, column string) interface{} {
	switch column {
	case models.ColCustomerName:
		return row.CustomerName
	case models.ColReference:
		return row.Reference
	case models.ColNewOrgName:
		return row.NewOrgName
	case models.ColAllocation:
		return row.Allocation
	case models.ColARComments:
		return row.ARComments
	case models.ColARStatus:
		return row.ARStatus
	case models.ColRemarks:
		return row.Remarks
	case models.ColTotalUSD:
		return row.TotalUSD
	default:
		return ""
	}
}

// ProjectionDetail returns the invoices behind one projection label.
// Matching is exact: labels come verbatim from the summary table.
func (e *Engine) ProjectionDetail(ds *models.Dataset, label string) *Table {
	columns := detailColumns(ds,
		models.ColCustomerName, models.ColReference, models.ColNewOrgName,
		models.ColARComments, models.ColARStatus, models.ColTotalUSD)
	return e.detail(ds, columns, func(r models.InvoiceRow) bool {
		return r.Projection == label
	})
}

// DueWiseDetail returns the invoices behind one remark category.
func (e *Engine) DueWiseDetail(ds *models.Dataset, remark string) *Table {
	columns := detailColumns(ds,
		models.ColCustomerName, models.ColReference, models.ColNewOrgName,
		models.ColARComments, models.ColARStatus, models.ColTotalUSD)
	return e.detail(ds, columns, func(r models.InvoiceRow) bool {
		return models.KeysEqual(r.Remarks, remark)
	})
}

// CustomerDetail returns the invoices of one customer.
func (e *Engine) CustomerDetail(ds *models.Dataset, customerName string) *Table {
	columns := detailColumns(ds,
		models.ColCustomerName, models.ColReference, models.ColNewOrgName,
		models.ColARComments, models.ColARStatus, models.ColRemarks, models.ColTotalUSD)
	return e.detail(ds, columns, func(r models.InvoiceRow) bool {
		return models.KeysEqual(r.CustomerName, customerName)
	})
}

// BusinessDetail returns the invoices of one business unit.
func (e *Engine) BusinessDetail(ds *models.Dataset, orgName string) *Table {
	columns := detailColumns(ds,
		models.ColCustomerName, models.ColReference, models.ColNewOrgName,
		models.ColARComments, models.ColARStatus, models.ColRemarks, models.ColTotalUSD)
	return e.detail(ds, columns, func(r models.InvoiceRow) bool {
		return models.KeysEqual(r.NewOrgName, orgName)
	})
}

// AllocationRemarkDetail returns the invoices for one collector
// allocation restricted to one remark category, e.g. a collector's
// overdue invoices only.
func (e *Engine) AllocationRemarkDetail(ds *models.Dataset, allocation, remark string) *Table {
	columns := detailColumns(ds,
		models.ColCustomerName, models.ColReference, models.ColNewOrgName,
		models.ColAllocation, models.ColARComments, models.ColARStatus,
		models.ColRemarks, models.ColTotalUSD)
	return e.detail(ds, columns, func(r models.InvoiceRow) bool {
		return models.KeysEqual(r.Allocation, allocation) && models.KeysEqual(r.Remarks, remark)
	})
}

// StatusRemarkDetail returns the invoices for one collection status
// restricted to one remark category.
func (e *Engine) StatusRemarkDetail(ds *models.Dataset, status, remark string) *Table {
	columns := detailColumns(ds,
		models.ColCustomerName, models.ColReference, models.ColNewOrgName,
		models.ColARComments, models.ColARStatus, models.ColRemarks, models.ColTotalUSD)
	return e.detail(ds, columns, func(r models.InvoiceRow) bool {
		return models.KeysEqual(r.ARStatus, status) && models.KeysEqual(r.Remarks, remark)
	})
}
