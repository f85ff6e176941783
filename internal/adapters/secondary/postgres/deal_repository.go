package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
	"github.com/lorrc/sales-analytics-backend/internal/core/ports"
)

// DealRepository stores every dataset in the deals table, keyed by dataset
// name. Each dataset carries a version that is bumped on every replace.
type DealRepository struct {
	pool *pgxpool.Pool
	tm   *TransactionManager
}

var (
	_ ports.DealRepository = (*DealRepository)(nil)
	_ ports.DealWriter     = (*DealRepository)(nil)
)

func NewDealRepository(pool *pgxpool.Pool) *DealRepository {
	return &DealRepository{pool: pool, tm: NewTransactionManager(pool)}
}

// Records returns the dataset's records in their original file order.
func (r *DealRepository) Records(ctx context.Context, ds domain.Dataset) ([]domain.DealRecord, error) {
	const query = `
SELECT count, acv, closed_fiscal_quarter, category
FROM deals
WHERE dataset = $1
ORDER BY position
`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, ds.Name)
	if err != nil {
		return nil, fmt.Errorf("query deals for %s: %w", ds.Name, err)
	}
	defer rows.Close()

	records := make([]domain.DealRecord, 0)
	for rows.Next() {
		var rec domain.DealRecord
		if err := rows.Scan(&rec.Count, &rec.ACV, &rec.Quarter, &rec.Category); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// Raw renders the stored records in the JSON file layout of the dataset.
func (r *DealRepository) Raw(ctx context.Context, ds domain.Dataset) ([]byte, error) {
	records, err := r.Records(ctx, ds)
	if err != nil {
		return nil, err
	}
	return domain.EncodeDealRecords(records, ds.CategoryField)
}

// Fingerprint returns the dataset version, "0" for a dataset never loaded.
func (r *DealRepository) Fingerprint(ctx context.Context, ds domain.Dataset) (string, error) {
	const query = `SELECT version FROM dataset_versions WHERE dataset = $1`

	var version int64
	err := GetDBTX(ctx, r.pool).QueryRow(ctx, query, ds.Name).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("read version of %s: %w", ds.Name, err)
	}
	return strconv.FormatInt(version, 10), nil
}

func (r *DealRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// ReplaceRecords swaps the dataset's records atomically and bumps its version.
func (r *DealRepository) ReplaceRecords(ctx context.Context, ds domain.Dataset, records []domain.DealRecord) error {
	return r.tm.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM deals WHERE dataset = $1`, ds.Name); err != nil {
			return fmt.Errorf("clear %s: %w", ds.Name, err)
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"deals"},
			[]string{"dataset", "position", "closed_fiscal_quarter", "category", "count", "acv"},
			pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
				rec := records[i]
				return []any{ds.Name, int32(i), rec.Quarter, rec.Category, rec.Count, rec.ACV}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy %s: %w", ds.Name, err)
		}

		const bump = `
INSERT INTO dataset_versions (dataset, version, updated_at)
VALUES ($1, 1, NOW())
ON CONFLICT (dataset) DO UPDATE
SET version = dataset_versions.version + 1, updated_at = NOW()
`
		if _, err := tx.Exec(ctx, bump, ds.Name); err != nil {
			return fmt.Errorf("bump version of %s: %w", ds.Name, err)
		}
		return nil
	})
}
