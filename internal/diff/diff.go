// Package diff reconciles a fresh scrape against the previous snapshot
// by record identity.
package diff

import (
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/facwatch/internal/model"
)

// Compute compares current against previous and returns the diff plus
// the next snapshot to persist.
//
// Identity (normalized name|email|title hash) drives matching. New
// identities are added with FirstSeen=now. Matched identities keep
// their FirstSeen and refresh LastVerified; field differences are
// reported as changes. Active identities missing from current flip to
// removed exactly once: records already removed carry forward silently,
// so a departure is reported on one run only. A removed identity that
// shows up again is re-added with FirstSeen=now, the same as a brand
// new record.
func Compute(previous, current []model.PersonRecord, now time.Time) (model.SnapshotDiff, []model.PersonRecord) {
	prevByID := make(map[string]model.PersonRecord, len(previous))
	for _, p := range previous {
		prevByID[p.Identity()] = p
	}

	var d model.SnapshotDiff
	snapshot := make([]model.PersonRecord, 0, len(current))
	seen := make(map[string]bool, len(current))

	for _, rec := range current {
		id := rec.Identity()
		if seen[id] {
			zap.L().Debug("duplicate identity in scrape, keeping first",
				zap.String("identity", id),
				zap.String("name", rec.Name))
			continue
		}
		seen[id] = true

		rec.Status = model.StatusActive
		rec.LastVerified = now

		prev, existed := prevByID[id]
		switch {
		case !existed:
			rec.FirstSeen = now
			d.Added = append(d.Added, rec)
		case prev.Status == model.StatusRemoved:
			// Came back after a removal; treated as a fresh arrival.
			rec.FirstSeen = now
			d.Added = append(d.Added, rec)
		default:
			rec.FirstSeen = prev.FirstSeen
			if diffs := prev.FieldDiffs(rec); len(diffs) > 0 {
				d.Changed = append(d.Changed, model.RecordChange{Old: prev, New: rec, Fields: diffs})
			} else {
				d.Unchanged++
			}
		}
		snapshot = append(snapshot, rec)
	}

	for _, prev := range previous {
		if seen[prev.Identity()] {
			continue
		}
		if prev.Status != model.StatusRemoved {
			prev.Status = model.StatusRemoved
			d.Removed = append(d.Removed, prev)
		}
		snapshot = append(snapshot, prev)
	}

	return d, snapshot
}
