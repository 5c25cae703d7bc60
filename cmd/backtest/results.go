package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yourusername/smart-lay/internal/models"
)

var resultsLimit int

func init() {
	resultsCmd.Flags().IntVarP(&resultsLimit, "limit", "n", 10, "Number of recent runs to list")
}

var resultsCmd = &cobra.Command{
	Use:   "results [run-id]",
	Short: "List persisted backtest runs, or print one run in full",
	Args:  cobra.MaximumNArgs(1),
	Annotations: map[string]string{
		annotationDatabase: "required",
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return showResult(cmd.Context(), args[0])
		}
		return listResults(cmd.Context())
	},
}

func listResults(ctx context.Context) error {
	records, err := repos.BacktestResults.GetLatest(ctx, resultsLimit)
	if err != nil {
		return err
	}
	fmt.Println(resultsTable(records))
	return nil
}

func showResult(ctx context.Context, raw string) error {
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", raw, err)
	}
	record, err := repos.BacktestResults.GetByID(ctx, id)
	if err != nil {
		return err
	}
	fmt.Println(string(record.FullResults))
	return nil
}

func resultsTable(records []*models.BacktestRecord) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tNAME\tWINDOW\tWAGERS\tROI %\tMAX DD %\tSCORE\tRECOMMENDATION\tRUN AT")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s..%s\t%d\t%.2f\t%.2f\t%.4f\t%s\t%s\n",
			r.ID, r.Name, r.StartDate, r.EndDate, r.TotalWagers, r.ROI, r.MaxDrawdown,
			r.CompositeScore, r.Recommendation, r.RunDate.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
	return sb.String()
}
