package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lorrc/sales-analytics-backend/internal/adapters/secondary/jsonfile"
	"github.com/lorrc/sales-analytics-backend/internal/catalog"
	"github.com/lorrc/sales-analytics-backend/internal/core/analytics"
	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
	"github.com/lorrc/sales-analytics-backend/internal/core/services"
)

var (
	summaryCategories []string
	summaryCompact    bool
	summaryLenient    bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary <dataset>",
	Short: "Print the quarter by category summary table of a dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().StringSliceVar(&summaryCategories, "categories", nil, "pivot columns, defaults to the dataset's declared categories")
	summaryCmd.Flags().BoolVar(&summaryCompact, "compact", false, "abbreviate amounts ($2.5M)")
	summaryCmd.Flags().BoolVar(&summaryLenient, "lenient", false, "drop invalid records instead of failing")
}

func runSummary(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return err
	}

	svc := services.NewDashboardService(cat, jsonfile.NewRepository(dataDir), nil, nil,
		services.DashboardConfig{Strict: !summaryLenient}, newLogger())

	ctx := cmd.Context()
	name := args[0]
	summary, err := svc.Summary(ctx, name)
	if err != nil {
		return err
	}

	table := summary.Table
	if len(summaryCategories) > 0 {
		custom, err := svc.Table(ctx, name, summaryCategories)
		if err != nil {
			return err
		}
		table = *custom
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d deals, %s ACV\n\n", summary.Dataset, summary.TotalCount, formatAmount(summary.TotalACV, summaryCompact))
	return renderTable(out, table, summaryCompact)
}

// renderTable prints one row per quarter and a "deals / ACV / share" column
// group per category.
func renderTable(w io.Writer, table domain.PivotTable, compact bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	header := []string{"Quarter"}
	for _, category := range table.Categories {
		header = append(header, category+" #", category+" ACV", category+" %")
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for _, quarter := range table.Quarters {
		row := []string{quarter}
		for _, category := range table.Categories {
			cell := table.Data[quarter][category]
			row = append(row,
				fmt.Sprintf("%d", cell.Count),
				formatAmount(cell.ACV, compact),
				analytics.FormatPercent(cell.PercentOfTotal, 0),
			)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}

	return tw.Flush()
}

func formatAmount(v float64, compact bool) string {
	if compact {
		return analytics.FormatCompactCurrency(v)
	}
	return analytics.FormatCurrency(v)
}
