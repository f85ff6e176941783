package ports

import (
	"context"
	"time"

	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
)

// DealRepository is the record source for every dataset.
type DealRepository interface {
	// Records returns the dataset's records in source order.
	Records(ctx context.Context, ds domain.Dataset) ([]domain.DealRecord, error)
	// Raw returns the dataset as the JSON document clients receive verbatim.
	Raw(ctx context.Context, ds domain.Dataset) ([]byte, error)
	// Fingerprint identifies the current content of the dataset. It changes
	// whenever the records change.
	Fingerprint(ctx context.Context, ds domain.Dataset) (string, error)
	Ping(ctx context.Context) error
}

// DealWriter replaces the stored records of a dataset.
type DealWriter interface {
	ReplaceRecords(ctx context.Context, ds domain.Dataset, records []domain.DealRecord) error
}

// ViewCache stores serialized dashboard views with a TTL.
type ViewCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// EventBroadcaster defines the port for broadcasting real-time events.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}

// DatasetCatalog resolves dataset names.
type DatasetCatalog interface {
	Lookup(name string) (domain.Dataset, bool)
	Infos() []domain.DatasetInfo
}
