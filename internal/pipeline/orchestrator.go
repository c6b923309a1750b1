package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/facwatch/internal/model"
)

// TargetRunner runs one target end to end.
type TargetRunner interface {
	RunTarget(ctx context.Context, target model.Target) model.RunOutcome
}

// WorkerCount picks the parallelism for a batch from its size. Small
// batches run sequentially; the ceiling stays low to keep the scraper
// polite across many institutions at once.
func WorkerCount(targets int) int {
	switch {
	case targets >= 20:
		return 5
	case targets >= 10:
		return 4
	case targets >= 4:
		return 3
	default:
		return 1
	}
}

// Orchestrator fans a batch of targets over a bounded worker pool.
type Orchestrator struct {
	runner  TargetRunner
	workers int // 0 applies the WorkerCount policy
}

func NewOrchestrator(runner TargetRunner, workers int) *Orchestrator {
	return &Orchestrator{runner: runner, workers: workers}
}

// RunAll processes every target and aggregates the outcomes. One
// target's failure never aborts the batch; disabled targets are counted
// as skipped without running.
func (o *Orchestrator) RunAll(ctx context.Context, targets []model.Target) model.RunStats {
	workers := o.workers
	if workers <= 0 {
		workers = WorkerCount(len(targets))
	}
	zap.L().Info("batch starting",
		zap.Int("targets", len(targets)), zap.Int("workers", workers))

	stats := model.RunStats{Targets: len(targets)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, target := range targets {
		if !target.Enabled {
			mu.Lock()
			stats.Skipped++
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			outcome := o.runSafely(gctx, target)

			mu.Lock()
			switch outcome.Status {
			case model.RunSuccess:
				stats.Succeeded++
			case model.RunSkipped:
				stats.Skipped++
			default:
				stats.Failed++
			}
			stats.NewRecords += outcome.Added
			stats.Changed += outcome.Changed
			mu.Unlock()
			return nil // don't abort batch on individual failure
		})
	}
	_ = g.Wait()

	zap.L().Info("batch complete",
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("new_records", stats.NewRecords),
	)
	return stats
}

// runSafely confines a panicking target to a failed outcome so the rest
// of the batch keeps going.
func (o *Orchestrator) runSafely(ctx context.Context, target model.Target) (outcome model.RunOutcome) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("target run panicked",
				zap.String("target", target.ID), zap.Any("panic", r))
			outcome = model.RunOutcome{
				TargetID:   target.ID,
				Status:     model.RunFailed,
				Error:      fmt.Sprintf("panic: %v", r),
				FinishedAt: time.Now().UTC(),
			}
		}
	}()
	return o.runner.RunTarget(ctx, target)
}
