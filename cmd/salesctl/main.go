// Command salesctl inspects and seeds the sales datasets from the terminal.
//
// Usage:
//
//	salesctl datasets
//	salesctl summary customer-types --categories "New Customer,Existing Customer"
//	salesctl seed --database-url postgres://...
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lorrc/sales-analytics-backend/internal/catalog"
	"github.com/lorrc/sales-analytics-backend/internal/infrastructure/logging"
)

// Flags shared by every command.
var (
	dataDir     string
	catalogPath string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:           "salesctl",
	Short:         "Inspect and load the sales analytics datasets",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", envOr("DATA_DIR", "data"), "directory holding the dataset JSON files")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", os.Getenv("DATA_CATALOG"), "YAML dataset catalog (built-in catalog when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	rootCmd.AddCommand(datasetsCmd, summaryCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the datasets of the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(catalogPath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, ds := range cat.Datasets {
			fmt.Fprintf(out, "%-16s %-20s %s (%s)\n", ds.Name, ds.File, ds.Label, ds.CategoryField)
		}
		return nil
	},
}

func newLogger() *slog.Logger {
	cfg := logging.DefaultConfig()
	cfg.Output = os.Stderr
	cfg.Format = "text"
	cfg.Level = logLevel
	cfg.ServiceName = "salesctl"
	return logging.NewLogger(cfg)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
