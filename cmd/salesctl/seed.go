package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lorrc/sales-analytics-backend/internal/adapters/secondary/jsonfile"
	"github.com/lorrc/sales-analytics-backend/internal/adapters/secondary/postgres"
	"github.com/lorrc/sales-analytics-backend/internal/catalog"
	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
)

var (
	seedDatabaseURL   string
	seedMigrationsURL string
	seedLenient       bool
)

var seedCmd = &cobra.Command{
	Use:   "seed [dataset...]",
	Short: "Load dataset files into Postgres",
	Long: `Applies the schema migrations, then replaces the Postgres records of each
dataset with the contents of its JSON file. With no arguments every catalog
dataset is loaded.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedDatabaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection URL")
	seedCmd.Flags().StringVar(&seedMigrationsURL, "migrations", envOr("DATABASE_MIGRATIONS_URL", "file://migrations"), "migration source URL")
	seedCmd.Flags().BoolVar(&seedLenient, "lenient", false, "skip invalid records instead of failing")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedDatabaseURL == "" {
		return fmt.Errorf("--database-url or DATABASE_URL is required")
	}

	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return err
	}
	datasets, err := selectDatasets(cat, args)
	if err != nil {
		return err
	}

	if err := postgres.Migrate(seedMigrationsURL, seedDatabaseURL); err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := postgres.Connect(ctx, seedDatabaseURL, postgres.PoolOptions{MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()

	logger := newLogger()
	source := jsonfile.NewRepository(dataDir)
	target := postgres.NewDealRepository(pool)

	bar := progressbar.Default(int64(len(datasets)), "seeding")
	for _, ds := range datasets {
		records, err := source.Records(ctx, ds)
		if err != nil {
			return fmt.Errorf("read %s: %w", ds.File, err)
		}

		valid, verrs := domain.PartitionRecords(records, ds.CategoryField)
		if verrs.HasErrors() {
			if !seedLenient {
				return fmt.Errorf("dataset %s: %w (fields: %v)", ds.Name, verrs, verrs.Fields())
			}
			logger.Warn("skipping invalid records", "dataset", ds.Name, "invalid", len(records)-len(valid))
		}

		if err := target.ReplaceRecords(ctx, ds, valid); err != nil {
			return fmt.Errorf("seed %s: %w", ds.Name, err)
		}
		_ = bar.Add(1)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nseeded %d dataset(s)\n", len(datasets))
	return nil
}

// selectDatasets resolves names against the catalog; no names selects all.
func selectDatasets(cat *catalog.Catalog, names []string) ([]domain.Dataset, error) {
	if len(names) == 0 {
		return cat.Datasets, nil
	}
	datasets := make([]domain.Dataset, 0, len(names))
	for _, name := range names {
		ds, ok := cat.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown dataset %q", name)
		}
		datasets = append(datasets, ds)
	}
	return datasets, nil
}
