// Package jsonfile reads deal datasets from the JSON files of a data
// directory, one array of records per file.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
	"github.com/lorrc/sales-analytics-backend/internal/core/ports"
)

// Repository implements ports.DealRepository over a directory of JSON files.
type Repository struct {
	dir string
}

var _ ports.DealRepository = (*Repository)(nil)

// NewRepository creates a repository reading files below dir.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the data directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Path returns the file backing the dataset.
func (r *Repository) Path(ds domain.Dataset) string {
	return filepath.Join(r.dir, ds.File)
}

// Raw returns the file content unchanged. It is checked to be JSON so a
// truncated file is reported instead of served.
func (r *Repository) Raw(ctx context.Context, ds domain.Dataset) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.Path(ds))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ds.File, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("read %s: invalid JSON document", ds.File)
	}
	return data, nil
}

// Records decodes the dataset file. The category of each record is read from
// the dataset's category field.
func (r *Repository) Records(ctx context.Context, ds domain.Dataset) ([]domain.DealRecord, error) {
	data, err := r.Raw(ctx, ds)
	if err != nil {
		return nil, err
	}

	records, err := domain.DecodeDealRecords(data, ds.CategoryField)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ds.File, err)
	}
	return records, nil
}

// Fingerprint derives the dataset version from the file's size and
// modification time.
func (r *Repository) Fingerprint(ctx context.Context, ds domain.Dataset) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	info, err := os.Stat(r.Path(ds))
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", ds.File, err)
	}
	return strconv.FormatInt(info.ModTime().UnixNano(), 36) + "-" + strconv.FormatInt(info.Size(), 36), nil
}

// Ping checks that the data directory is readable.
func (r *Repository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(r.dir)
	if err != nil {
		return fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory: %s is not a directory", r.dir)
	}
	return nil
}
