package analytics

import "github.com/lorrc/sales-analytics-backend/internal/core/domain"

type tally struct {
	count int64
	acv   float64
}

func (t tally) add(o tally) tally {
	return tally{count: t.count + o.count, acv: t.acv + o.acv}
}

// PivotCategories returns the category axis of the pivot table: the declared
// categories in order, then any other category found in records in first-seen
// order. The synthesized total is not included.
func PivotCategories(records []domain.DealRecord, declared []string) []string {
	seen := make(map[string]struct{}, len(declared))
	categories := make([]string, 0, len(declared))
	push := func(c string) {
		if c == domain.TotalKey {
			return
		}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		categories = append(categories, c)
	}

	for _, c := range declared {
		push(c)
	}
	for _, c := range CategoryAxis(records) {
		push(c)
	}
	return categories
}

// BuildPivotTable aggregates count and ACV per quarter and category, adds a
// Total column per quarter and a Total row across quarters.
//
// A category's PercentOfTotal is its share of its row's ACV, 0 when that row
// has no ACV. Total cells are always 100.
func BuildPivotTable(records []domain.DealRecord, declared []string) domain.PivotTable {
	quarters := QuarterAxis(records)
	categories := PivotCategories(records, declared)

	sums := make(map[string]map[string]tally, len(quarters))
	for _, r := range records {
		row, ok := sums[r.Quarter]
		if !ok {
			row = make(map[string]tally)
			sums[r.Quarter] = row
		}
		row[r.Category] = row[r.Category].add(tally{count: r.Count, acv: r.ACV})
	}

	data := make(map[string]map[string]domain.Cell, len(quarters)+1)
	byCategory := make(map[string]tally, len(categories))
	var grand tally

	for _, q := range quarters {
		var total tally
		for _, c := range categories {
			total = total.add(sums[q][c])
		}

		row := make(map[string]domain.Cell, len(categories)+1)
		for _, c := range categories {
			t := sums[q][c]
			row[c] = domain.Cell{Count: t.count, ACV: t.acv, PercentOfTotal: Percent(t.acv, total.acv)}
			byCategory[c] = byCategory[c].add(t)
		}
		row[domain.TotalKey] = domain.Cell{Count: total.count, ACV: total.acv, PercentOfTotal: 100}

		data[q] = row
		grand = grand.add(total)
	}

	totals := make(map[string]domain.Cell, len(categories)+1)
	for _, c := range categories {
		t := byCategory[c]
		totals[c] = domain.Cell{Count: t.count, ACV: t.acv, PercentOfTotal: Percent(t.acv, grand.acv)}
	}
	totals[domain.TotalKey] = domain.Cell{Count: grand.count, ACV: grand.acv, PercentOfTotal: 100}
	data[domain.TotalKey] = totals

	return domain.PivotTable{
		Quarters:   append(quarters, domain.TotalKey),
		Categories: append(categories, domain.TotalKey),
		Data:       data,
	}
}
