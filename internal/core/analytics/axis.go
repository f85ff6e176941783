// Package analytics turns deal records into the dashboard views: the stacked
// bar chart, the donut chart and the quarter x category pivot table. Every
// function is pure; results are freshly allocated on each call.
package analytics

import (
	"math"
	"sort"

	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
)

// QuarterAxis returns the distinct quarters of records in ascending string
// order. Labels are assumed to sort chronologically (see domain.DealRecord).
func QuarterAxis(records []domain.DealRecord) []string {
	seen := make(map[string]struct{}, len(records))
	quarters := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.Quarter]; ok {
			continue
		}
		seen[r.Quarter] = struct{}{}
		quarters = append(quarters, r.Quarter)
	}
	sort.Strings(quarters)
	return quarters
}

// CategoryAxis returns the distinct categories of records in first-seen order.
func CategoryAxis(records []domain.DealRecord) []string {
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		categories = append(categories, r.Category)
	}
	return categories
}

// Percent returns part as a percentage of total. A zero or non-finite total
// yields 0 instead of NaN or Inf.
func Percent(part, total float64) float64 {
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return 0
	}
	p := part / total * 100
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return p
}
