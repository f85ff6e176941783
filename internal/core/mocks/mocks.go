package mocks

import (
	"context"
	"time"

	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
	"github.com/lorrc/sales-analytics-backend/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockDealRepository is a mock implementation of ports.DealRepository
type MockDealRepository struct {
	mock.Mock
}

var _ ports.DealRepository = (*MockDealRepository)(nil)

func NewMockDealRepository() *MockDealRepository {
	return &MockDealRepository{}
}

func (m *MockDealRepository) Records(ctx context.Context, ds domain.Dataset) ([]domain.DealRecord, error) {
	args := m.Called(ctx, ds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DealRecord), args.Error(1)
}

func (m *MockDealRepository) Raw(ctx context.Context, ds domain.Dataset) ([]byte, error) {
	args := m.Called(ctx, ds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockDealRepository) Fingerprint(ctx context.Context, ds domain.Dataset) (string, error) {
	args := m.Called(ctx, ds)
	return args.String(0), args.Error(1)
}

func (m *MockDealRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockViewCache is a mock implementation of ports.ViewCache
type MockViewCache struct {
	mock.Mock
}

var _ ports.ViewCache = (*MockViewCache)(nil)

func NewMockViewCache() *MockViewCache {
	return &MockViewCache{}
}

func (m *MockViewCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *MockViewCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

var _ ports.EventBroadcaster = (*MockEventBroadcaster)(nil)

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockReferenceDataService is a mock implementation of ports.ReferenceDataService
type MockReferenceDataService struct {
	mock.Mock
}

var _ ports.ReferenceDataService = (*MockReferenceDataService)(nil)

func NewMockReferenceDataService() *MockReferenceDataService {
	return &MockReferenceDataService{}
}

func (m *MockReferenceDataService) Datasets() []domain.DatasetInfo {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.DatasetInfo)
}

func (m *MockReferenceDataService) Raw(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockReferenceDataService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockDashboardService is a mock implementation of ports.DashboardService
type MockDashboardService struct {
	mock.Mock
}

var _ ports.DashboardService = (*MockDashboardService)(nil)

func NewMockDashboardService() *MockDashboardService {
	return &MockDashboardService{}
}

func (m *MockDashboardService) BarChart(ctx context.Context, name string) (*domain.BarChart, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BarChart), args.Error(1)
}

func (m *MockDashboardService) Donut(ctx context.Context, name string) (*domain.DonutChart, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DonutChart), args.Error(1)
}

func (m *MockDashboardService) Table(ctx context.Context, name string, categories []string) (*domain.PivotTable, error) {
	args := m.Called(ctx, name, categories)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PivotTable), args.Error(1)
}

func (m *MockDashboardService) Summary(ctx context.Context, name string) (*domain.Summary, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Summary), args.Error(1)
}

func (m *MockDashboardService) Ranking(ctx context.Context, name string, limit int) (*domain.Ranking, error) {
	args := m.Called(ctx, name, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ranking), args.Error(1)
}

func (m *MockDashboardService) Refresh(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
