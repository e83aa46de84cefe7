// Package projection partitions and orders the free-text projection
// labels that drive the weekly inflow view.
//
// Labels are operator-entered strings like "Feb 3rd week" or "Dispute -
// pending legal". Partitioning is keyword-driven rather than
// enumerated, so new week labels appear in the dashboard without a
// config change.
package projection

import (
	"sort"
	"strings"

	"golang-ar-analytics-service/internal/models"
)

// DefaultDisputeKeyword marks a projection label as a dispute bucket
// when it appears anywhere in the label, case-insensitively.
const DefaultDisputeKeyword = "Dispute"

// monthRanks orders month tokens chronologically. Matching is
// substring-based on the lowercased label, checked in calendar order,
// so "January" matches via "jan". Month names are Latin-script only;
// extracts in other locales would need their own table.
var monthRanks = []struct {
	token string
	rank  int
}{
	{"jan", 1}, {"feb", 2}, {"mar", 3}, {"apr", 4},
	{"may", 5}, {"jun", 6}, {"jul", 7}, {"aug", 8},
	{"sep", 9}, {"oct", 10}, {"nov", 11}, {"dec", 12},
}

// weekRanks orders week tokens within a month. "current" sorts first
// and "last" after the numbered weeks; checked in this order with
// first match winning.
var weekRanks = []struct {
	token string
	rank  int
}{
	{"current", 1},
	{"1st", 2},
	{"2nd", 3},
	{"3rd", 4},
	{"4th", 5},
	{"last", 6},
}

const (
	nextMonthRank = 98
	unrankedMonth = 99
	unrankedWeek  = 99
)

// Key is the chronological sort key of a projection label.
type Key struct {
	Month int
	Week  int
	Label string
}

// SortKey derives the chronological sort key for a label: month rank
// first, week rank second, lowercased label as tiebreak. Labels with no
// recognizable month or week tokens rank last in that dimension.
func SortKey(label string) Key {
	lower := strings.ToLower(label)

	month := unrankedMonth
	for _, m := range monthRanks {
		if strings.Contains(lower, m.token) {
			month = m.rank
			break
		}
	}
	// "Next Month" sorts after any explicit month regardless of other
	// tokens in the label.
	if strings.Contains(lower, "next month") {
		month = nextMonthRank
	}

	week := unrankedWeek
	for _, w := range weekRanks {
		if strings.Contains(lower, w.token) {
			week = w.rank
			break
		}
	}

	return Key{Month: month, Week: week, Label: lower}
}

// Less reports whether label a sorts chronologically before label b.
func Less(a, b string) bool {
	ka, kb := SortKey(a), SortKey(b)
	if ka.Month != kb.Month {
		return ka.Month < kb.Month
	}
	if ka.Week != kb.Week {
		return ka.Week < kb.Week
	}
	return ka.Label < kb.Label
}

// IsDispute reports whether the label belongs to the dispute bucket
// under the given keyword.
func IsDispute(label, keyword string) bool {
	return strings.Contains(strings.ToLower(label), strings.ToLower(keyword))
}

// Labels returns the unique, non-blank projection labels from the
// dataset in first-seen order.
func Labels(ds *models.Dataset) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, row := range ds.Rows() {
		label := strings.TrimSpace(row.Projection)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels
}

// Split partitions the dataset's projection labels into inflow and
// dispute buckets using the keyword.
func Split(ds *models.Dataset, keyword string) (inflow, dispute []string) {
	for _, label := range Labels(ds) {
		if IsDispute(label, keyword) {
			dispute = append(dispute, label)
		} else {
			inflow = append(inflow, label)
		}
	}
	return inflow, dispute
}

// Order returns the display order for the dataset's projection labels:
// inflow labels sorted chronologically, then dispute labels sorted
// alphabetically.
func Order(ds *models.Dataset, keyword string) []string {
	inflow, dispute := Split(ds, keyword)
	sort.SliceStable(inflow, func(i, j int) bool { return Less(inflow[i], inflow[j]) })
	sort.Strings(dispute)
	return append(inflow, dispute...)
}
