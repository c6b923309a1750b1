package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/facwatch/internal/extract"
	"github.com/sells-group/facwatch/internal/fetch"
	"github.com/sells-group/facwatch/internal/model"
	"github.com/sells-group/facwatch/internal/notify"
	"github.com/sells-group/facwatch/internal/pipeline"
	"github.com/sells-group/facwatch/internal/store"
	"github.com/sells-group/facwatch/pkg/anthropic"
)

var (
	runTargetID   string
	runWorkers    int
	runParallel   bool
	runSequential bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape targets and report changes",
	Long:  "Scrapes every enabled target (or one, with --target), diffs against the stored snapshot, persists the result, and sends new-contact alerts.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		var targets []model.Target
		if runTargetID != "" {
			target, err := st.GetTarget(ctx, runTargetID)
			if err != nil {
				return err
			}
			target.Enabled = true // explicit selection overrides the flag
			targets = []model.Target{*target}
		} else {
			targets, err = st.ListTargets(ctx, true)
			if err != nil {
				return err
			}
		}
		if len(targets) == 0 {
			fmt.Fprintln(os.Stderr, "No enabled targets. Add some with `facwatch targets add`.")
			return nil
		}

		if runParallel && runSequential {
			return eris.New("--parallel and --sequential are mutually exclusive")
		}
		workers := cfg.Run.Workers
		if runParallel {
			workers = 0 // size from target count
		}
		if runWorkers > 0 {
			workers = runWorkers
		}
		if runSequential {
			workers = 1
		}

		stats := pipeline.NewOrchestrator(buildRunner(st), workers).RunAll(ctx, targets)

		fmt.Printf("Targets: %d  succeeded: %d  failed: %d  skipped: %d\n",
			stats.Targets, stats.Succeeded, stats.Failed, stats.Skipped)
		fmt.Printf("New contacts: %d  changed: %d\n", stats.NewRecords, stats.Changed)

		if stats.Failed > 0 {
			return eris.Errorf("%d of %d targets failed", stats.Failed, stats.Targets)
		}
		return nil
	},
}

// buildRunner wires the per-target pipeline from config.
func buildRunner(st store.Store) *pipeline.Runner {
	opts := fetch.Options{
		MaxPages:     cfg.Fetch.MaxPages,
		PageDelay:    cfg.Fetch.PageDelayMillis,
		TimeoutSecs:  cfg.Fetch.TimeoutSecs,
		MaxScrolls:   cfg.Fetch.MaxScrolls,
		ScrollWaitMS: cfg.Fetch.ScrollWaitMillis,
	}

	escalator := &pipeline.Escalator{
		Static:     fetch.NewStaticFetcher(opts),
		Dynamic:    fetch.NewDynamicFetcher(opts),
		MinRecords: cfg.Extract.MinRecords,
	}
	if cfg.Anthropic.Key != "" {
		client := anthropic.NewClient(cfg.Anthropic.Key)
		escalator.Model = extract.NewModelExtractor(client, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	}

	var channels []notify.Notifier
	if cfg.Notify.SMTPHost != "" {
		channels = append(channels, notify.NewEmail(
			cfg.Notify.SMTPHost, cfg.Notify.SMTPPort,
			cfg.Notify.SMTPUser, cfg.Notify.SMTPPass, cfg.Notify.From))
	}
	if cfg.Notify.WebhookURL != "" {
		channels = append(channels, notify.NewWebhook(cfg.Notify.WebhookURL))
	}
	var notifier notify.Notifier
	if len(channels) > 0 {
		notifier = notify.NewMulti(channels...)
	}

	return pipeline.NewRunner(st, escalator, pipeline.NewEnricher(cfg.Enrich), notifier)
}

func init() {
	runCmd.Flags().StringVar(&runTargetID, "target", "", "run a single target by id")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "worker pool size (0 = size from target count)")
	runCmd.Flags().BoolVar(&runParallel, "parallel", false, "size the worker pool from the target count, ignoring config")
	runCmd.Flags().BoolVar(&runSequential, "sequential", false, "run targets one at a time")
	rootCmd.AddCommand(runCmd)
}
