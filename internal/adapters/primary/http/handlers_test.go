package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
	apperrors "github.com/lorrc/sales-analytics-backend/internal/core/errors"
	"github.com/lorrc/sales-analytics-backend/internal/core/mocks"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	router    chi.Router
	refData   *mocks.MockReferenceDataService
	dashboard *mocks.MockDashboardService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := NewErrorHandler(logger)

	refData := mocks.NewMockReferenceDataService()
	dashboard := mocks.NewMockDashboardService()

	router := NewRouter(Handlers{
		ReferenceData: NewReferenceDataHandler(refData, errorHandler, logger),
		Dashboard:     NewDashboardHandler(dashboard, errorHandler, logger),
		Health:        NewHealthHandler("test", NamedCheck{Name: "data_source", Checker: refData}),
	}, RouterConfig{CORSAllowedOrigins: []string{"*"}}, logger)

	t.Cleanup(func() {
		refData.AssertExpectations(t)
		dashboard.AssertExpectations(t)
	})

	return &testServer{router: router, refData: refData, dashboard: dashboard}
}

func (s *testServer) get(target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, target, nil))
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestReferenceDataHandler_ServesRawJSON(t *testing.T) {
	s := newTestServer(t)
	raw := []byte(`[{"closed_fiscal_quarter":"2023-Q3","Cust_Type":"New Customer","count":3,"acv":1200.5}]`)
	s.refData.On("Raw", mock.Anything, "customer-types").Return(raw, nil)

	rec := s.get("/api/data/customer-types")

	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, string(raw), rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestReferenceDataHandler_LoadFailure(t *testing.T) {
	s := newTestServer(t)
	s.refData.On("Raw", mock.Anything, "teams").
		Return(nil, apperrors.NewDatasetUnavailableError(errors.New("open Team.json: no such file"), "teams"))

	rec := s.get("/api/data/teams")

	assert.Equal(t, stdhttp.StatusInternalServerError, rec.Code)
	body := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "Failed to load teams data", body.Error)
	assert.Equal(t, "DATASET_UNAVAILABLE", body.Code)
}

func TestReferenceDataHandler_UnknownDataset(t *testing.T) {
	s := newTestServer(t)
	s.refData.On("Raw", mock.Anything, "regions").Return(nil, apperrors.NewDatasetNotFoundError("regions"))

	rec := s.get("/api/data/regions")

	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	assert.Equal(t, "DATASET_NOT_FOUND", decodeBody[ErrorResponse](t, rec).Code)
}

func TestReferenceDataHandler_ListDatasets(t *testing.T) {
	s := newTestServer(t)
	s.refData.On("Datasets").Return([]domain.DatasetInfo{
		{Name: "customer-types", Label: "customer types", CategoryField: "Cust_Type", PivotCategories: []string{"Existing Customer", "New Customer"}},
		{Name: "teams", Label: "teams", CategoryField: "Team", PivotCategories: []string{}},
	})

	rec := s.get("/api/datasets")

	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	body := decodeBody[ListResponse[domain.DatasetInfo]](t, rec)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "Cust_Type", body.Data[0].CategoryField)
}

func TestDashboardHandler_Views(t *testing.T) {
	tests := []struct {
		name   string
		target string
		setup  func(m *mocks.MockDashboardService)
		check  func(t *testing.T, body map[string]any)
	}{
		{
			name:   "bar chart",
			target: "/api/data/teams/bar-chart",
			setup: func(m *mocks.MockDashboardService) {
				m.On("BarChart", mock.Anything, "teams").Return(&domain.BarChart{
					Quarters:   []string{"2023-Q3"},
					Categories: []string{"Asia"},
					Grouped:    map[string]map[string]float64{"2023-Q3": {"Asia": 10}},
					Max:        11,
				}, nil)
			},
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, 11.0, body["max"])
				assert.Contains(t, body, "groupedData")
				assert.Contains(t, body, "stackedData")
			},
		},
		{
			name:   "donut",
			target: "/api/data/industries/donut",
			setup: func(m *mocks.MockDashboardService) {
				m.On("Donut", mock.Anything, "industries").Return(&domain.DonutChart{
					Slices:   []domain.Slice{{Name: "Retail", Value: 5, Percent: 100, LabelVisible: true}},
					TotalACV: 5,
				}, nil)
			},
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, 5.0, body["totalACV"])
				assert.Len(t, body["pieData"], 1)
			},
		},
		{
			name:   "table with declared categories",
			target: "/api/data/customer-types/table",
			setup: func(m *mocks.MockDashboardService) {
				m.On("Table", mock.Anything, "customer-types", []string(nil)).Return(&domain.PivotTable{
					Quarters:   []string{domain.TotalKey},
					Categories: []string{domain.TotalKey},
					Data:       map[string]map[string]domain.Cell{},
				}, nil)
			},
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, []any{"Total"}, body["categories"])
			},
		},
		{
			name:   "table with requested categories",
			target: "/api/data/customer-types/table?categories=New%20Customer,Existing%20Customer",
			setup: func(m *mocks.MockDashboardService) {
				m.On("Table", mock.Anything, "customer-types", []string{"New Customer", "Existing Customer"}).
					Return(&domain.PivotTable{Data: map[string]map[string]domain.Cell{}}, nil)
			},
			check: func(t *testing.T, body map[string]any) {
				assert.Contains(t, body, "data")
			},
		},
		{
			name:   "summary",
			target: "/api/data/acv-ranges/summary",
			setup: func(m *mocks.MockDashboardService) {
				m.On("Summary", mock.Anything, "acv-ranges").Return(&domain.Summary{
					Dataset:    "acv-ranges",
					TotalCount: 16,
					TotalACV:   18700.5,
				}, nil)
			},
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, 16.0, body["totalCount"])
				assert.Contains(t, body, "barChart")
				assert.Contains(t, body, "donut")
				assert.Contains(t, body, "table")
			},
		},
		{
			name:   "ranking",
			target: "/api/data/industries/ranking?limit=2",
			setup: func(m *mocks.MockDashboardService) {
				m.On("Ranking", mock.Anything, "industries", 2).Return(&domain.Ranking{
					Items:     []domain.CategoryTotal{{Category: "Retail", Count: 3, ACV: 900}},
					Remaining: 4,
				}, nil)
			},
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, 4.0, body["remaining"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			tt.setup(s.dashboard)

			rec := s.get(tt.target)

			require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			tt.check(t, decodeBody[map[string]any](t, rec))
		})
	}
}

func TestDashboardHandler_QueryValidation(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{name: "reserved category", target: "/api/data/customer-types/table?categories=Total"},
		{name: "negative limit", target: "/api/data/industries/ranking?limit=-3"},
		{name: "non numeric limit", target: "/api/data/industries/ranking?limit=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)

			rec := s.get(tt.target)

			assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)
			body := decodeBody[ErrorResponse](t, rec)
			assert.Equal(t, "VALIDATION_ERROR", body.Code)
			assert.Contains(t, body.Details, "fields")
			s.dashboard.AssertNotCalled(t, "Table", mock.Anything, mock.Anything, mock.Anything)
			s.dashboard.AssertNotCalled(t, "Ranking", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestDashboardHandler_InvalidRecords(t *testing.T) {
	s := newTestServer(t)
	verrs := apperrors.NewValidationErrors()
	verrs.AddRecord(2, "acv", "must be greater than or equal to 0")
	s.dashboard.On("Donut", mock.Anything, "teams").Return(nil, fmt.Errorf("dataset teams: %w", verrs))

	rec := s.get("/api/data/teams/donut")

	assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[ValidationErrorResponse](t, rec)
	assert.Equal(t, "INVALID_RECORDS", body.Code)
	assert.Equal(t, []string{"must be greater than or equal to 0"}, body.Fields["records[2].acv"])
}

func TestDashboardHandler_UnknownDataset(t *testing.T) {
	s := newTestServer(t)
	s.dashboard.On("Summary", mock.Anything, "regions").Return(nil, apperrors.NewDatasetNotFoundError("regions"))

	rec := s.get("/api/data/regions/summary")

	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	body := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "DATASET_NOT_FOUND", body.Code)
	assert.Equal(t, "regions", body.Details["dataset"])
}

func TestRouter_UnknownRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.get("/api/data/teams/histogram")

	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeBody[ErrorResponse](t, rec).Code)
}

func TestHealthHandler(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		s := newTestServer(t)
		s.refData.On("Ping", mock.Anything).Return(nil)

		rec := s.get("/health/ready")

		assert.Equal(t, stdhttp.StatusOK, rec.Code)
		body := decodeBody[HealthResponse](t, rec)
		assert.Equal(t, "healthy", body.Status)
		assert.Equal(t, "healthy", body.Checks["data_source"].Status)
	})

	t.Run("data source down", func(t *testing.T) {
		s := newTestServer(t)
		s.refData.On("Ping", mock.Anything).Return(errors.New("data directory missing"))

		rec := s.get("/health/ready")

		assert.Equal(t, stdhttp.StatusServiceUnavailable, rec.Code)
		body := decodeBody[HealthResponse](t, rec)
		assert.Equal(t, "unhealthy", body.Status)
		assert.Equal(t, "data directory missing", body.Checks["data_source"].Message)
	})

	t.Run("live", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.get("/health/live")

		assert.Equal(t, stdhttp.StatusOK, rec.Code)
	})

	t.Run("detailed degraded", func(t *testing.T) {
		h := NewHealthHandler("1.0.0",
			NamedCheck{Name: "data_source", Checker: pingFunc(func(context.Context) error { return nil })},
			NamedCheck{Name: "cache"},
		)
		rec := httptest.NewRecorder()
		h.HandleHealth(rec, httptest.NewRequest(stdhttp.MethodGet, "/health", nil))

		assert.Equal(t, stdhttp.StatusServiceUnavailable, rec.Code)
		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "degraded", body["status"])
		assert.Contains(t, body, "goroutines")
	})
}

func TestRouter_CORS(t *testing.T) {
	s := newTestServer(t)
	s.refData.On("Raw", mock.Anything, "teams").Return([]byte(`[]`), nil)

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/data/teams", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestErrorHandler_MapsSentinels(t *testing.T) {
	h := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{err: apperrors.ErrDatasetNotFound, status: 404, code: "DATASET_NOT_FOUND"},
		{err: fmt.Errorf("load: %w", apperrors.ErrDatasetUnavailable), status: 500, code: "DATASET_UNAVAILABLE"},
		{err: apperrors.ErrRateLimited, status: 429, code: "RATE_LIMITED"},
		{err: apperrors.ErrBadRequest, status: 400, code: "BAD_REQUEST"},
		{err: errors.New("boom"), status: 500, code: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Handle(rec, httptest.NewRequest(stdhttp.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeBody[ErrorResponse](t, rec).Code)
		})
	}
}
