package services

import (
	"context"

	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
	apperrors "github.com/lorrc/sales-analytics-backend/internal/core/errors"
	"github.com/lorrc/sales-analytics-backend/internal/core/ports"
)

// ReferenceDataService serves catalog datasets exactly as the source stores them.
type ReferenceDataService struct {
	catalog ports.DatasetCatalog
	repo    ports.DealRepository
}

var _ ports.ReferenceDataService = (*ReferenceDataService)(nil)

// NewReferenceDataService creates a new reference data service
func NewReferenceDataService(catalog ports.DatasetCatalog, repo ports.DealRepository) *ReferenceDataService {
	return &ReferenceDataService{catalog: catalog, repo: repo}
}

// Datasets lists the catalog in declaration order.
func (s *ReferenceDataService) Datasets() []domain.DatasetInfo {
	return s.catalog.Infos()
}

// Raw returns the stored JSON document of a dataset.
func (s *ReferenceDataService) Raw(ctx context.Context, name string) ([]byte, error) {
	ds, ok := s.catalog.Lookup(name)
	if !ok {
		return nil, apperrors.NewDatasetNotFoundError(name)
	}

	data, err := s.repo.Raw(ctx, ds)
	if err != nil {
		return nil, apperrors.NewDatasetUnavailableError(err, ds.Label)
	}
	return data, nil
}

// Ping checks that the record source is reachable.
func (s *ReferenceDataService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
