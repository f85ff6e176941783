package analytics_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lorrc/sales-analytics-backend/internal/core/analytics"
	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSummary(t *testing.T) {
	records := sampleRecords()

	summary := analytics.BuildSummary("customer-types", records, customerTypes)

	assert.Equal(t, "customer-types", summary.Dataset)
	assert.Equal(t, 6, summary.RecordCount)
	assert.Equal(t, int64(16), summary.TotalCount)
	assert.Equal(t, 18700.5, summary.TotalACV)
	assert.Equal(t, summary.Donut.TotalACV, summary.TotalACV)
	assert.Equal(t, summary.Table.Data[domain.TotalKey][domain.TotalKey].ACV, summary.TotalACV)

	if diff := cmp.Diff(analytics.BuildBarChart(records), summary.BarChart); diff != "" {
		t.Errorf("bar chart mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSummary_Empty(t *testing.T) {
	assert.NotPanics(t, func() {
		summary := analytics.BuildSummary("teams", nil, nil)
		assert.Zero(t, summary.RecordCount)
		assert.Empty(t, summary.BarChart.Quarters)
		assert.Empty(t, summary.BarChart.Categories)
	})
}

func TestRankCategories(t *testing.T) {
	records := []domain.DealRecord{
		rec("2023-Q1", "Retail", 1, 100),
		rec("2023-Q1", "Finance", 2, 500),
		rec("2023-Q2", "Health", 3, 100),
		rec("2023-Q2", "Retail", 4, 300),
		rec("2023-Q3", "Energy", 1, 50),
	}

	t.Run("sorted by acv, ties keep first-seen order", func(t *testing.T) {
		ranking := analytics.RankCategories(records, 0)

		require.Len(t, ranking.Items, 4)
		assert.Equal(t, domain.CategoryTotal{Category: "Finance", Count: 2, ACV: 500}, ranking.Items[0])
		assert.Equal(t, domain.CategoryTotal{Category: "Retail", Count: 5, ACV: 400}, ranking.Items[1])
		assert.Equal(t, "Health", ranking.Items[2].Category)
		assert.Equal(t, "Energy", ranking.Items[3].Category)
		assert.Zero(t, ranking.Remaining)
	})

	t.Run("limit reports remaining", func(t *testing.T) {
		ranking := analytics.RankCategories(records, 2)

		require.Len(t, ranking.Items, 2)
		assert.Equal(t, 2, ranking.Remaining)
	})

	t.Run("empty", func(t *testing.T) {
		ranking := analytics.RankCategories(nil, 5)
		assert.Empty(t, ranking.Items)
		assert.Zero(t, ranking.Remaining)
	})
}
