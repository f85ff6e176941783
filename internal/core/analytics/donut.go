package analytics

import "github.com/lorrc/sales-analytics-backend/internal/core/domain"

// LabelThreshold is the share, in percent, a donut slice must exceed to carry
// an in-chart label.
const LabelThreshold = 5.0

// BuildDonutChart sums ACV per category, in first-seen order. TotalACV is the
// sum of the slice values taken in slice order, so the two always agree
// exactly.
func BuildDonutChart(records []domain.DealRecord) domain.DonutChart {
	categories := CategoryAxis(records)

	sums := make(map[string]float64, len(categories))
	for _, r := range records {
		sums[r.Category] += r.ACV
	}

	var total float64
	for _, c := range categories {
		total += sums[c]
	}

	slices := make([]domain.Slice, 0, len(categories))
	for _, c := range categories {
		pct := Percent(sums[c], total)
		slices = append(slices, domain.Slice{
			Name:         c,
			Value:        sums[c],
			Percent:      pct,
			LabelVisible: pct > LabelThreshold,
		})
	}

	return domain.DonutChart{Slices: slices, TotalACV: total}
}
