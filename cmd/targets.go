package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/facwatch/internal/importer"
	"github.com/sells-group/facwatch/internal/model"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Manage watched directory pages",
}

// -- targets list --

var targetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured targets",
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

		targets, err := st.ListTargets(ctx, false)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			fmt.Fprintln(os.Stderr, "No targets configured.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tMODE\tENABLED\tURL")
		for _, t := range targets {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", t.ID, t.DisplayName, t.Mode, t.Enabled, t.URL)
		}
		return w.Flush()
	},
}

// -- targets add --

var (
	addName     string
	addMode     string
	addStrategy string
	addNotify   string
	addDisabled bool
)

var targetsAddCmd = &cobra.Command{
	Use:   "add <id> <url>",
	Short: "Add or update a target",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mode := model.FetchMode(addMode)
		if mode != model.ModeStatic && mode != model.ModeDynamic {
			return eris.Errorf("invalid mode %q (static or dynamic)", addMode)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		target := model.Target{
			ID:          args[0],
			DisplayName: addName,
			URL:         args[1],
			Mode:        mode,
			Enabled:     !addDisabled,
			StrategyKey: addStrategy,
			NotifyEmail: addNotify,
		}
		if target.DisplayName == "" {
			target.DisplayName = target.ID
		}

		if err := st.UpsertTarget(ctx, target); err != nil {
			return err
		}
		zap.L().Info("target saved", zap.String("id", target.ID), zap.String("url", target.URL))
		return nil
	},
}

// -- targets remove --

var targetsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.DeleteTarget(ctx, args[0]); err != nil {
			return err
		}
		zap.L().Info("target removed", zap.String("id", args[0]))
		return nil
	},
}

// -- targets import --

var importFilePath string

var targetsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import targets from a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		targets, err := importer.Load(importFilePath)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			return eris.Errorf("no usable rows in %s", importFilePath)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		for _, target := range targets {
			if err := st.UpsertTarget(ctx, target); err != nil {
				return eris.Wrapf(err, "import target %s", target.ID)
			}
		}
		zap.L().Info("import complete",
			zap.Int("targets", len(targets)),
			zap.String("file", importFilePath),
		)
		return nil
	},
}

func init() {
	targetsAddCmd.Flags().StringVar(&addName, "name", "", "display name (defaults to id)")
	targetsAddCmd.Flags().StringVar(&addMode, "mode", "static", "fetch mode: static or dynamic")
	targetsAddCmd.Flags().StringVar(&addStrategy, "strategy", "", "extraction strategy key (empty = defaults)")
	targetsAddCmd.Flags().StringVar(&addNotify, "notify", "", "email address for new-contact alerts")
	targetsAddCmd.Flags().BoolVar(&addDisabled, "disabled", false, "create the target disabled")

	targetsImportCmd.Flags().StringVar(&importFilePath, "file", "", "path to CSV or XLSX file (required)")
	_ = targetsImportCmd.MarkFlagRequired("file")

	targetsCmd.AddCommand(targetsListCmd, targetsAddCmd, targetsRemoveCmd, targetsImportCmd)
	rootCmd.AddCommand(targetsCmd)
}
