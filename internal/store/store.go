// Package store persists watch targets, per-target person snapshots,
// the append-only new-contact log, and run outcomes. Two backends:
// sqlite for single-host use and postgres for shared deployments.
package store

import (
	"context"

	"github.com/sells-group/facwatch/internal/model"
)

// RunFilter specifies criteria for listing run outcomes.
type RunFilter struct {
	TargetID string          `json:"target_id,omitempty"`
	Status   model.RunStatus `json:"status,omitempty"`
	Limit    int             `json:"limit,omitempty"`
	Offset   int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the watcher pipeline.
type Store interface {
	// Targets
	UpsertTarget(ctx context.Context, target model.Target) error
	GetTarget(ctx context.Context, id string) (*model.Target, error)
	ListTargets(ctx context.Context, enabledOnly bool) ([]model.Target, error)
	DeleteTarget(ctx context.Context, id string) error

	// Snapshots. SaveSnapshot replaces a target's snapshot with the
	// given records, keyed by identity; writing the same snapshot twice
	// is a no-op.
	GetSnapshot(ctx context.Context, targetID string) ([]model.PersonRecord, error)
	SaveSnapshot(ctx context.Context, targetID string, records []model.PersonRecord) error

	// AppendNewContacts adds rows to the append-only log of newly
	// discovered people.
	AppendNewContacts(ctx context.Context, targetID string, records []model.PersonRecord) error

	// Run outcomes
	WriteRunOutcome(ctx context.Context, outcome model.RunOutcome) error
	ListRunOutcomes(ctx context.Context, filter RunFilter) ([]model.RunOutcome, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
