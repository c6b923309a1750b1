package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/facwatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "facwatch",
	Short: "Watches institutional directory pages for people changes",
	Long:  "Scrapes faculty and staff directory pages on a schedule, extracts person records with layered heuristics and a model fallback, diffs against the previous snapshot, and alerts on new contacts.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
