package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lorrc/sales-analytics-backend/internal/core/analytics"
	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
	apperrors "github.com/lorrc/sales-analytics-backend/internal/core/errors"
	"github.com/lorrc/sales-analytics-backend/internal/core/ports"
	"github.com/lorrc/sales-analytics-backend/internal/infrastructure/logging"
	"github.com/lorrc/sales-analytics-backend/internal/infrastructure/metrics"
)

// View names, used in cache keys and metric labels.
const (
	ViewBarChart = "bar-chart"
	ViewDonut    = "donut"
	ViewTable    = "table"
	ViewSummary  = "summary"
	ViewRanking  = "ranking"
)

// DashboardConfig controls record validation and view caching.
type DashboardConfig struct {
	// Strict rejects a dataset holding any invalid record. Otherwise invalid
	// records are dropped and logged.
	Strict bool
	// CacheTTL bounds how long a computed view is reused. Views are also keyed
	// on the source fingerprint, so a changed source is never served stale.
	CacheTTL time.Duration
}

// DashboardService loads records, runs the aggregation engine and memoizes
// the resulting views.
type DashboardService struct {
	catalog     ports.DatasetCatalog
	repo        ports.DealRepository
	cache       ports.ViewCache
	broadcaster ports.EventBroadcaster
	cfg         DashboardConfig
	logger      *slog.Logger
}

var _ ports.DashboardService = (*DashboardService)(nil)

// NewDashboardService creates a new dashboard service. cache and broadcaster
// may be nil.
func NewDashboardService(
	catalog ports.DatasetCatalog,
	repo ports.DealRepository,
	cache ports.ViewCache,
	broadcaster ports.EventBroadcaster,
	cfg DashboardConfig,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{
		catalog:     catalog,
		repo:        repo,
		cache:       cache,
		broadcaster: broadcaster,
		cfg:         cfg,
		logger:      logger.With("component", "dashboard_service"),
	}
}

// BarChart returns the grouped and stacked ACV per quarter.
func (s *DashboardService) BarChart(ctx context.Context, name string) (*domain.BarChart, error) {
	return buildView(ctx, s, name, ViewBarChart, "", func(_ domain.Dataset, records []domain.DealRecord) domain.BarChart {
		return analytics.BuildBarChart(records)
	})
}

// Donut returns the ACV share of every category.
func (s *DashboardService) Donut(ctx context.Context, name string) (*domain.DonutChart, error) {
	return buildView(ctx, s, name, ViewDonut, "", func(_ domain.Dataset, records []domain.DealRecord) domain.DonutChart {
		return analytics.BuildDonutChart(records)
	})
}

// Table returns the quarter x category pivot table. Without explicit
// categories the dataset's declared pivot categories are used.
func (s *DashboardService) Table(ctx context.Context, name string, categories []string) (*domain.PivotTable, error) {
	params := categoryParams(categories)
	return buildView(ctx, s, name, ViewTable, params, func(ds domain.Dataset, records []domain.DealRecord) domain.PivotTable {
		declared := categories
		if len(declared) == 0 {
			declared = ds.PivotCategories
		}
		return analytics.BuildPivotTable(records, declared)
	})
}

// Summary returns every view of a dataset with its totals.
func (s *DashboardService) Summary(ctx context.Context, name string) (*domain.Summary, error) {
	return buildView(ctx, s, name, ViewSummary, "", func(ds domain.Dataset, records []domain.DealRecord) domain.Summary {
		return analytics.BuildSummary(ds.Name, records, ds.PivotCategories)
	})
}

// Ranking returns categories ordered by ACV. A zero limit keeps them all.
func (s *DashboardService) Ranking(ctx context.Context, name string, limit int) (*domain.Ranking, error) {
	if limit < 0 {
		return nil, apperrors.NewBadRequestError(apperrors.ErrBadRequest, "limit must not be negative")
	}
	return buildView(ctx, s, name, ViewRanking, fmt.Sprint(limit), func(_ domain.Dataset, records []domain.DealRecord) domain.Ranking {
		return analytics.RankCategories(records, limit)
	})
}

// Refresh recomputes the summary of a dataset after its source changed and
// broadcasts it to the dataset's subscribers. Failures are broadcast too.
func (s *DashboardService) Refresh(ctx context.Context, name string) error {
	ctx = logging.WithDataset(ctx, name)

	summary, err := s.Summary(ctx, name)
	if err != nil {
		metrics.DatasetRefreshes.WithLabelValues(name, "failed").Inc()
		s.logger.ErrorContext(ctx, "dataset refresh failed", "error", err)
		s.broadcast(ctx, domain.Event{
			Type:    domain.EventDatasetFailed,
			Dataset: name,
			Payload: map[string]string{"error": err.Error()},
		})
		return err
	}

	metrics.DatasetRefreshes.WithLabelValues(name, "updated").Inc()
	s.logger.InfoContext(ctx, "dataset refreshed",
		"records", summary.RecordCount,
		"total_acv", analytics.FormatCurrency(summary.TotalACV),
	)
	s.broadcast(ctx, domain.Event{
		Type:    domain.EventDatasetUpdated,
		Dataset: name,
		Payload: summary,
	})
	return nil
}

func (s *DashboardService) broadcast(ctx context.Context, event domain.Event) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Broadcast(event); err != nil {
		s.logger.WarnContext(ctx, "failed to broadcast dataset event", "event_type", event.Type, "error", err)
	}
}

// buildView resolves the dataset, serves the view from the cache when the
// source fingerprint matches, and otherwise loads, validates and aggregates
// the records.
func buildView[T any](
	ctx context.Context,
	s *DashboardService,
	name, view, params string,
	build func(ds domain.Dataset, records []domain.DealRecord) T,
) (*T, error) {
	ds, ok := s.catalog.Lookup(name)
	if !ok {
		return nil, apperrors.NewDatasetNotFoundError(name)
	}
	ctx = logging.WithDataset(ctx, ds.Name)

	fingerprint, err := s.repo.Fingerprint(ctx, ds)
	if err != nil {
		return nil, apperrors.NewDatasetUnavailableError(err, ds.Label)
	}
	key := viewKey(ds.Name, view, fingerprint, params)

	if cached, ok := s.cachedView(ctx, view, key); ok {
		var v T
		if err := json.Unmarshal(cached, &v); err == nil {
			return &v, nil
		}
		s.logger.WarnContext(ctx, "discarding undecodable cached view", "view", view)
	}

	records, err := s.records(ctx, ds)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	v := build(ds, records)
	metrics.ViewBuildDuration.WithLabelValues(ds.Name, view).Observe(time.Since(start).Seconds())

	s.storeView(ctx, key, v)
	return &v, nil
}

// records loads the dataset and applies the validation policy.
func (s *DashboardService) records(ctx context.Context, ds domain.Dataset) ([]domain.DealRecord, error) {
	records, err := s.repo.Records(ctx, ds)
	if err != nil {
		return nil, apperrors.NewDatasetUnavailableError(err, ds.Label)
	}

	valid, verrs := domain.PartitionRecords(records, ds.CategoryField)
	if !verrs.HasErrors() {
		return valid, nil
	}

	dropped := len(records) - len(valid)
	metrics.InvalidRecords.WithLabelValues(ds.Name).Add(float64(dropped))

	if s.cfg.Strict {
		return nil, fmt.Errorf("dataset %s: %w", ds.Name, verrs)
	}

	s.logger.WarnContext(ctx, "dropping invalid records",
		"dropped", dropped,
		"kept", len(valid),
		"fields", verrs.Fields(),
	)
	return valid, nil
}

func (s *DashboardService) cachedView(ctx context.Context, view, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}

	b, ok, err := s.cache.GetBytes(ctx, key)
	switch {
	case err != nil:
		metrics.ViewCacheRequests.WithLabelValues(view, "error").Inc()
		s.logger.WarnContext(ctx, "view cache lookup failed", "view", view, "error", err)
		return nil, false
	case !ok:
		metrics.ViewCacheRequests.WithLabelValues(view, "miss").Inc()
		return nil, false
	default:
		metrics.ViewCacheRequests.WithLabelValues(view, "hit").Inc()
		return b, true
	}
}

func (s *DashboardService) storeView(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}

	b, err := json.Marshal(v)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode view for cache", "error", err)
		return
	}
	if err := s.cache.SetBytes(ctx, key, b, s.cfg.CacheTTL); err != nil {
		s.logger.WarnContext(ctx, "view cache store failed", "error", err)
	}
}

func viewKey(dataset, view, fingerprint, params string) string {
	key := "sales:view:" + dataset + ":" + view + ":" + fingerprint
	if params != "" {
		key += ":" + params
	}
	return key
}

// categoryParams encodes a category list for a cache key. JSON quoting keeps
// labels containing separators from colliding with longer lists.
func categoryParams(categories []string) string {
	if len(categories) == 0 {
		return ""
	}
	b, _ := json.Marshal(categories) // a string slice always encodes
	return string(b)
}
