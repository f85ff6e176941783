package analytics

import (
	"sort"

	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
)

// BuildSummary computes every view of one dataset in a single pass over the
// inputs.
func BuildSummary(dataset string, records []domain.DealRecord, declared []string) domain.Summary {
	var count int64
	for _, r := range records {
		count += r.Count
	}

	donut := BuildDonutChart(records)

	return domain.Summary{
		Dataset:     dataset,
		RecordCount: len(records),
		TotalCount:  count,
		TotalACV:    donut.TotalACV,
		BarChart:    BuildBarChart(records),
		Donut:       donut,
		Table:       BuildPivotTable(records, declared),
	}
}

// RankCategories totals every category across quarters and orders them by ACV,
// largest first; ties keep first-seen order. A positive limit truncates the
// list and Remaining reports how many categories were cut.
func RankCategories(records []domain.DealRecord, limit int) domain.Ranking {
	categories := CategoryAxis(records)

	sums := make(map[string]tally, len(categories))
	for _, r := range records {
		sums[r.Category] = sums[r.Category].add(tally{count: r.Count, acv: r.ACV})
	}

	items := make([]domain.CategoryTotal, 0, len(categories))
	for _, c := range categories {
		items = append(items, domain.CategoryTotal{Category: c, Count: sums[c].count, ACV: sums[c].acv})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ACV > items[j].ACV
	})

	remaining := 0
	if limit > 0 && len(items) > limit {
		remaining = len(items) - limit
		items = items[:limit]
	}

	return domain.Ranking{Items: items, Remaining: remaining}
}
