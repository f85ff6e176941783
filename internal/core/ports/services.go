package ports

import (
	"context"

	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
)

// ReferenceDataService serves the catalog datasets as stored.
type ReferenceDataService interface {
	Datasets() []domain.DatasetInfo
	Raw(ctx context.Context, name string) ([]byte, error)
	Ping(ctx context.Context) error
}

// DashboardService computes the dashboard views of a dataset.
type DashboardService interface {
	BarChart(ctx context.Context, name string) (*domain.BarChart, error)
	Donut(ctx context.Context, name string) (*domain.DonutChart, error)
	Table(ctx context.Context, name string, categories []string) (*domain.PivotTable, error)
	Summary(ctx context.Context, name string) (*domain.Summary, error)
	Ranking(ctx context.Context, name string, limit int) (*domain.Ranking, error)

	// Refresh recomputes the summary of a dataset and notifies subscribers.
	Refresh(ctx context.Context, name string) error
}
