package analytics

import "github.com/lorrc/sales-analytics-backend/internal/core/domain"

// BuildBarChart groups ACV by quarter and category and lays every quarter out
// as contiguous stacked segments starting at zero. Every (quarter, category)
// pair is present in Grouped, zero when no record matches it.
func BuildBarChart(records []domain.DealRecord) domain.BarChart {
	quarters := QuarterAxis(records)
	categories := CategoryAxis(records)

	grouped := make(map[string]map[string]float64, len(quarters))
	for _, q := range quarters {
		row := make(map[string]float64, len(categories))
		for _, c := range categories {
			row[c] = 0
		}
		grouped[q] = row
	}
	for _, r := range records {
		grouped[r.Quarter][r.Category] += r.ACV
	}

	stacked := make([]domain.StackedQuarter, 0, len(quarters))
	var max float64
	for _, q := range quarters {
		segments := make([]domain.Segment, 0, len(categories))
		var lower float64
		for _, c := range categories {
			upper := lower + grouped[q][c]
			segments = append(segments, domain.Segment{Category: c, Lower: lower, Upper: upper})
			lower = upper
		}
		if lower > max {
			max = lower
		}
		stacked = append(stacked, domain.StackedQuarter{Quarter: q, Segments: segments})
	}

	return domain.BarChart{
		Quarters:   quarters,
		Categories: categories,
		Grouped:    grouped,
		Stacked:    stacked,
		Max:        max,
	}
}
