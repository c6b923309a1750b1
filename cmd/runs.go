package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/facwatch/internal/model"
	"github.com/sells-group/facwatch/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect run history",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		targetID, _ := cmd.Flags().GetString("target")
		limit, _ := cmd.Flags().GetInt("limit")

		outcomes, err := st.ListRunOutcomes(ctx, store.RunFilter{
			TargetID: targetID,
			Status:   model.RunStatus(status),
			Limit:    limit,
		})
		if err != nil {
			return err
		}
		if len(outcomes) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatOutcomes(os.Stdout, outcomes)
		return nil
	},
}

func formatOutcomes(w io.Writer, outcomes []model.RunOutcome) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tTARGET\tSTATUS\tTIER\tRECORDS\tADDED\tCHANGED\tREMOVED\tDURATION\tERROR")
	for _, o := range outcomes {
		errText := o.Error
		if len(errText) > 60 {
			errText = errText[:57] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			o.StartedAt.Local().Format(time.DateTime),
			o.TargetID, o.Status, o.Tier,
			o.Records, o.Added, o.Changed, o.Removed,
			o.FinishedAt.Sub(o.StartedAt).Round(time.Second),
			errText,
		)
	}
	_ = tw.Flush()
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by status (success, failed, skipped)")
	runsListCmd.Flags().String("target", "", "filter by target id")
	runsListCmd.Flags().Int("limit", 20, "maximum rows")
	runsCmd.AddCommand(runsListCmd)
	rootCmd.AddCommand(runsCmd)
}
