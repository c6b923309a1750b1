package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/facwatch/internal/diff"
	"github.com/sells-group/facwatch/internal/model"
	"github.com/sells-group/facwatch/internal/notify"
	"github.com/sells-group/facwatch/internal/resilience"
	"github.com/sells-group/facwatch/internal/store"
)

// TargetScraper produces the extraction result for one target.
type TargetScraper interface {
	Run(ctx context.Context, target model.Target) (*TierResult, error)
}

// ProfileEnricher backfills records from their profile pages.
type ProfileEnricher interface {
	Enrich(ctx context.Context, records []model.PersonRecord) []model.PersonRecord
}

// Runner executes one target end to end and records the outcome.
type Runner struct {
	store    store.Store
	scraper  TargetScraper
	enricher ProfileEnricher // nil skips enrichment
	notifier notify.Notifier // nil skips alerts
	retry    resilience.RetryConfig
}

func NewRunner(st store.Store, scraper TargetScraper, enricher ProfileEnricher, notifier notify.Notifier) *Runner {
	retry := resilience.DefaultRetryConfig()
	// Snapshot writes are idempotent, so any write error is worth a retry.
	retry.ShouldRetry = func(error) bool { return true }
	retry.OnRetry = resilience.RetryLogger("store", "write")
	return &Runner{
		store:    st,
		scraper:  scraper,
		enricher: enricher,
		notifier: notifier,
		retry:    retry,
	}
}

// RunTarget scrapes, diffs, persists, and notifies for one target. The
// outcome is always written to the store, including failures; alert and
// outcome-write errors are logged but do not fail an otherwise good run.
func (r *Runner) RunTarget(ctx context.Context, target model.Target) model.RunOutcome {
	log := zap.L().With(zap.String("target", target.ID), zap.String("url", target.URL))
	log.Info("run starting")

	outcome := model.RunOutcome{
		ID:        uuid.New().String(),
		TargetID:  target.ID,
		StartedAt: time.Now().UTC(),
	}

	fail := func(err error) model.RunOutcome {
		outcome.Status = model.RunFailed
		outcome.Error = err.Error()
		outcome.FinishedAt = time.Now().UTC()
		log.Error("run failed", zap.Error(err))
		r.writeOutcome(ctx, outcome)
		return outcome
	}

	result, err := r.scraper.Run(ctx, target)
	if err != nil {
		return fail(eris.Wrap(err, "pipeline: scrape"))
	}
	outcome.Tier = result.Tier

	records := result.Records
	if r.enricher != nil {
		records = r.enricher.Enrich(ctx, records)
	}

	previous, err := r.store.GetSnapshot(ctx, target.ID)
	if err != nil {
		return fail(eris.Wrap(err, "pipeline: load snapshot"))
	}

	d, snapshot := diff.Compute(previous, records, time.Now().UTC())

	err = resilience.Do(ctx, r.retry, func(ctx context.Context) error {
		return r.store.SaveSnapshot(ctx, target.ID, snapshot)
	})
	if err != nil {
		return fail(eris.Wrap(err, "pipeline: save snapshot"))
	}

	if len(d.Added) > 0 {
		if err := r.store.AppendNewContacts(ctx, target.ID, d.Added); err != nil {
			log.Warn("new-contact log append failed", zap.Error(err))
		}
		if r.notifier != nil {
			if err := r.notifier.Notify(ctx, target, d.Added); err != nil {
				log.Warn("notification failed", zap.Error(err))
			}
		}
	}

	outcome.Status = model.RunSuccess
	outcome.Records = len(records)
	outcome.Added = len(d.Added)
	outcome.Changed = len(d.Changed)
	outcome.Removed = len(d.Removed)
	outcome.FinishedAt = time.Now().UTC()
	r.writeOutcome(ctx, outcome)

	log.Info("run complete",
		zap.Int("tier", outcome.Tier),
		zap.Int("records", outcome.Records),
		zap.Int("added", outcome.Added),
		zap.Int("changed", outcome.Changed),
		zap.Int("removed", outcome.Removed),
	)
	return outcome
}

func (r *Runner) writeOutcome(ctx context.Context, outcome model.RunOutcome) {
	if err := r.store.WriteRunOutcome(ctx, outcome); err != nil {
		zap.L().Warn("run outcome write failed",
			zap.String("target", outcome.TargetID), zap.Error(err))
	}
}
