package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/sales-analytics-backend/internal/catalog"
	"github.com/lorrc/sales-analytics-backend/internal/core/analytics"
	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
	apperrors "github.com/lorrc/sales-analytics-backend/internal/core/errors"
	"github.com/lorrc/sales-analytics-backend/internal/core/mocks"
	"github.com/lorrc/sales-analytics-backend/internal/core/services"
)

const customerTypes = "customer-types"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func customerTypeDataset(t *testing.T) domain.Dataset {
	t.Helper()
	ds, ok := catalog.Default().Lookup(customerTypes)
	require.True(t, ok)
	return ds
}

func sampleRecords() []domain.DealRecord {
	return []domain.DealRecord{
		{Count: 2, ACV: 1000, Quarter: "2023-Q1", Category: "New Customer"},
		{Count: 3, ACV: 3000, Quarter: "2023-Q1", Category: "Existing Customer"},
		{Count: 1, ACV: 500, Quarter: "2023-Q2", Category: "New Customer"},
	}
}

type fixture struct {
	repo        *mocks.MockDealRepository
	cache       *mocks.MockViewCache
	broadcaster *mocks.MockEventBroadcaster
	svc         *services.DashboardService
}

func newFixture(t *testing.T, cfg services.DashboardConfig, withCache bool) *fixture {
	t.Helper()
	f := &fixture{
		repo:        mocks.NewMockDealRepository(),
		broadcaster: mocks.NewMockEventBroadcaster(),
	}
	if withCache {
		f.cache = mocks.NewMockViewCache()
		f.svc = services.NewDashboardService(catalog.Default(), f.repo, f.cache, f.broadcaster, cfg, testLogger())
	} else {
		f.svc = services.NewDashboardService(catalog.Default(), f.repo, nil, f.broadcaster, cfg, testLogger())
	}
	return f
}

func TestDashboardService_BarChart(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newFixture(t, services.DashboardConfig{Strict: true}, false)
		ds := customerTypeDataset(t)

		f.repo.On("Fingerprint", mock.Anything, ds).Return("fp-1", nil)
		f.repo.On("Records", mock.Anything, ds).Return(sampleRecords(), nil)

		chart, err := f.svc.BarChart(ctx, customerTypes)

		require.NoError(t, err)
		assert.Equal(t, analytics.BuildBarChart(sampleRecords()), *chart)
		f.repo.AssertExpectations(t)
	})

	t.Run("unknown dataset", func(t *testing.T) {
		f := newFixture(t, services.DashboardConfig{Strict: true}, false)

		chart, err := f.svc.BarChart(ctx, "regions")

		assert.Nil(t, chart)
		assert.ErrorIs(t, err, apperrors.ErrDatasetNotFound)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 404, appErr.StatusCode)
		assert.Equal(t, "DATASET_NOT_FOUND", appErr.Code)
		f.repo.AssertNotCalled(t, "Records", mock.Anything, mock.Anything)
	})

	t.Run("source failure", func(t *testing.T) {
		f := newFixture(t, services.DashboardConfig{Strict: true}, false)
		ds := customerTypeDataset(t)
		readErr := errors.New("open CustomerType.json: no such file or directory")

		f.repo.On("Fingerprint", mock.Anything, ds).Return("fp-1", nil)
		f.repo.On("Records", mock.Anything, ds).Return(nil, readErr)

		chart, err := f.svc.BarChart(ctx, customerTypes)

		assert.Nil(t, chart)
		assert.ErrorIs(t, err, apperrors.ErrDatasetUnavailable)
		assert.ErrorIs(t, err, readErr)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "Failed to load customer types data", appErr.Message)
		assert.Equal(t, 500, appErr.StatusCode)
	})

	t.Run("fingerprint failure", func(t *testing.T) {
		f := newFixture(t, services.DashboardConfig{Strict: true}, false)
		ds := customerTypeDataset(t)

		f.repo.On("Fingerprint", mock.Anything, ds).Return("", errors.New("stat failed"))

		_, err := f.svc.BarChart(ctx, customerTypes)

		assert.ErrorIs(t, err, apperrors.ErrDatasetUnavailable)
		f.repo.AssertNotCalled(t, "Records", mock.Anything, mock.Anything)
	})
}

func TestDashboardService_Validation(t *testing.T) {
	ctx := context.Background()
	records := append(sampleRecords(),
		domain.DealRecord{Count: -1, ACV: 10, Quarter: "2023-Q2", Category: "New Customer"},
	)

	t.Run("strict mode rejects the dataset", func(t *testing.T) {
		f := newFixture(t, services.DashboardConfig{Strict: true}, false)
		ds := customerTypeDataset(t)

		f.repo.On("Fingerprint", mock.Anything, ds).Return("fp-1", nil)
		f.repo.On("Records", mock.Anything, ds).Return(records, nil)

		donut, err := f.svc.Donut(ctx, customerTypes)

		assert.Nil(t, donut)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRecords)

		var verrs *apperrors.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, []string{"records[3].count"}, verrs.Fields())
	})

	t.Run("lenient mode drops invalid records", func(t *testing.T) {
		f := newFixture(t, services.DashboardConfig{Strict: false}, false)
		ds := customerTypeDataset(t)

		f.repo.On("Fingerprint", mock.Anything, ds).Return("fp-1", nil)
		f.repo.On("Records", mock.Anything, ds).Return(records, nil)

		donut, err := f.svc.Donut(ctx, customerTypes)

		require.NoError(t, err)
		assert.Equal(t, 4500.0, donut.TotalACV)
	})
}

func TestDashboardService_Cache(t *testing.T) {
	ctx := context.Background()
	ttl := 5 * time.Minute
	key := "sales:view:customer-types:donut:fp-7"

	t.Run("hit skips the record source", func(t *testing.T) {
		f := newFixture(t, services.DashboardConfig{Strict: true, CacheTTL: ttl}, true)
		ds := customerTypeDataset(t)
		cached, err := json.Marshal(analytics.BuildDonutChart(sampleRecords()))
		require.NoError(t, err)

		f.repo.On("Fingerprint", mock.Anything, ds).Return("fp-7", nil)
		f.cache.On("GetBytes", mock.Anything, key).Return(cached, true, nil)

		donut, err := f.svc.Donut(ctx, customerTypes)

		require.NoError(t, err)
		assert.Equal(t, analytics.BuildDonutChart(sampleRecords()), *donut)
		f.repo.AssertNotCalled(t, "Records", mock.Anything, mock.Anything)
		f.cache.AssertNotCalled(t, "SetBytes", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("miss computes and stores", func(t *testing.T) {
		f := newFixture(t, services.DashboardConfig{Strict: true, CacheTTL: ttl}, true)
		ds := customerTypeDataset(t)
		want, err := json.Marshal(analytics.BuildDonutChart(sampleRecords()))
		require.NoError(t, err)

		f.repo.On("Fingerprint", mock.Anything, ds).Return("fp-7", nil)
		f.repo.On("Records", mock.Anything, ds).Return(sampleRecords(), nil)
		f.cache.On("GetBytes", mock.Anything, key).Return(nil, false, nil)
		f.cache.On("SetBytes", mock.Anything, key, want, ttl).Return(nil)

		_, err = f.svc.Donut(ctx, customerTypes)

		require.NoError(t, err)
		f.cache.AssertExpectations(t)
	})

	t.Run("cache failures degrade to recomputation", func(t *testing.T) {
		f := newFixture(t, services.DashboardConfig{Strict: true, CacheTTL: ttl}, true)
		ds := customerTypeDataset(t)

		f.repo.On("Fingerprint", mock.Anything, ds).Return("fp-7", nil)
		f.repo.On("Records", mock.Anything, ds).Return(sampleRecords(), nil)
		f.cache.On("GetBytes", mock.Anything, key).Return(nil, false, errors.New("connection refused"))
		f.cache.On("SetBytes", mock.Anything, key, mock.Anything, ttl).Return(errors.New("connection refused"))

		donut, err := f.svc.Donut(ctx, customerTypes)

		require.NoError(t, err)
		assert.Equal(t, 4500.0, donut.TotalACV)
	})
}

func TestDashboardService_Table(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to declared categories", func(t *testing.T) {
		f := newFixture(t, services.DashboardConfig{Strict: true}, false)
		ds := customerTypeDataset(t)
		records := []domain.DealRecord{{Count: 1, ACV: 10, Quarter: "2024-Q1", Category: "New Customer"}}

		f.repo.On("Fingerprint", mock.Anything, ds).Return("fp", nil)
		f.repo.On("Records", mock.Anything, ds).Return(records, nil)

		table, err := f.svc.Table(ctx, customerTypes, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"Existing Customer", "New Customer", domain.TotalKey}, table.Categories)
		assert.Equal(t, domain.Cell{}, table.Data["2024-Q1"]["Existing Customer"])
	})

	t.Run("explicit categories", func(t *testing.T) {
		f := newFixture(t, services.DashboardConfig{Strict: true}, false)
		ds := customerTypeDataset(t)

		f.repo.On("Fingerprint", mock.Anything, ds).Return("fp", nil)
		f.repo.On("Records", mock.Anything, ds).Return(sampleRecords(), nil)

		table, err := f.svc.Table(ctx, customerTypes, []string{"Partner"})

		require.NoError(t, err)
		assert.Equal(t, []string{"Partner", "New Customer", "Existing Customer", domain.TotalKey}, table.Categories)
		assert.Equal(t, domain.Cell{Count: 5, ACV: 4000, PercentOfTotal: 100}, table.Data["2023-Q1"][domain.TotalKey])
	})
}

func TestDashboardService_TableCacheKeys(t *testing.T) {
	ctx := context.Background()
	ttl := time.Minute
	f := newFixture(t, services.DashboardConfig{Strict: true, CacheTTL: ttl}, true)
	ds := customerTypeDataset(t)

	joined := `sales:view:customer-types:table:fp:["A|B"]`
	split := `sales:view:customer-types:table:fp:["A","B"]`

	f.repo.On("Fingerprint", mock.Anything, ds).Return("fp", nil)
	f.repo.On("Records", mock.Anything, ds).Return(sampleRecords(), nil)
	f.cache.On("GetBytes", mock.Anything, joined).Return(nil, false, nil).Once()
	f.cache.On("SetBytes", mock.Anything, joined, mock.Anything, ttl).Return(nil).Once()
	f.cache.On("GetBytes", mock.Anything, split).Return(nil, false, nil).Once()
	f.cache.On("SetBytes", mock.Anything, split, mock.Anything, ttl).Return(nil).Once()

	_, err := f.svc.Table(ctx, customerTypes, []string{"A|B"})
	require.NoError(t, err)
	_, err = f.svc.Table(ctx, customerTypes, []string{"A", "B"})
	require.NoError(t, err)

	f.cache.AssertExpectations(t)
}

func TestDashboardService_SummaryAndRanking(t *testing.T) {
	ctx := context.Background()

	t.Run("summary", func(t *testing.T) {
		f := newFixture(t, services.DashboardConfig{Strict: true}, false)
		ds := customerTypeDataset(t)

		f.repo.On("Fingerprint", mock.Anything, ds).Return("fp", nil)
		f.repo.On("Records", mock.Anything, ds).Return(sampleRecords(), nil)

		summary, err := f.svc.Summary(ctx, customerTypes)

		require.NoError(t, err)
		assert.Equal(t, customerTypes, summary.Dataset)
		assert.Equal(t, int64(6), summary.TotalCount)
		assert.Equal(t, 4500.0, summary.TotalACV)
	})

	t.Run("ranking", func(t *testing.T) {
		f := newFixture(t, services.DashboardConfig{Strict: true}, false)
		ds := customerTypeDataset(t)

		f.repo.On("Fingerprint", mock.Anything, ds).Return("fp", nil)
		f.repo.On("Records", mock.Anything, ds).Return(sampleRecords(), nil)

		ranking, err := f.svc.Ranking(ctx, customerTypes, 1)

		require.NoError(t, err)
		require.Len(t, ranking.Items, 1)
		assert.Equal(t, "Existing Customer", ranking.Items[0].Category)
		assert.Equal(t, 1, ranking.Remaining)
	})

	t.Run("negative limit", func(t *testing.T) {
		f := newFixture(t, services.DashboardConfig{Strict: true}, false)

		ranking, err := f.svc.Ranking(ctx, customerTypes, -1)

		assert.Nil(t, ranking)
		assert.ErrorIs(t, err, apperrors.ErrBadRequest)
		f.repo.AssertNotCalled(t, "Fingerprint", mock.Anything, mock.Anything)
	})
}

func TestDashboardService_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("broadcasts the new summary", func(t *testing.T) {
		f := newFixture(t, services.DashboardConfig{Strict: true}, false)
		ds := customerTypeDataset(t)

		f.repo.On("Fingerprint", mock.Anything, ds).Return("fp-2", nil)
		f.repo.On("Records", mock.Anything, ds).Return(sampleRecords(), nil)
		f.broadcaster.On("Broadcast", mock.MatchedBy(func(e domain.Event) bool {
			summary, ok := e.Payload.(*domain.Summary)
			return e.Type == domain.EventDatasetUpdated &&
				e.Dataset == customerTypes &&
				ok && summary.TotalACV == 4500
		})).Return(nil)

		require.NoError(t, f.svc.Refresh(ctx, customerTypes))
		f.broadcaster.AssertExpectations(t)
	})

	t.Run("broadcasts failures", func(t *testing.T) {
		f := newFixture(t, services.DashboardConfig{Strict: true}, false)
		ds := customerTypeDataset(t)

		f.repo.On("Fingerprint", mock.Anything, ds).Return("fp-2", nil)
		f.repo.On("Records", mock.Anything, ds).Return(nil, errors.New("unexpected end of JSON input"))
		f.broadcaster.On("Broadcast", mock.MatchedBy(func(e domain.Event) bool {
			return e.Type == domain.EventDatasetFailed && e.Dataset == customerTypes
		})).Return(nil)

		err := f.svc.Refresh(ctx, customerTypes)

		assert.ErrorIs(t, err, apperrors.ErrDatasetUnavailable)
		f.broadcaster.AssertExpectations(t)
	})
}
