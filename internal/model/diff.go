package model

// RecordChange pairs the previous and current version of a record whose
// fields differ after normalization.
type RecordChange struct {
	Old    PersonRecord `json:"old"`
	New    PersonRecord `json:"new"`
	Fields []FieldDiff  `json:"fields"`
}

// SnapshotDiff is the result of reconciling a scrape against the previous
// snapshot. Removed records are recorded with status flipped but are never
// announced as notification-worthy events.
type SnapshotDiff struct {
	Added   []PersonRecord `json:"added"`
	Changed []RecordChange `json:"changed"`
	Removed []PersonRecord `json:"removed"`

	// Unchanged counts identities present in both sets with no field
	// differences; their LastVerified is still refreshed.
	Unchanged int `json:"unchanged"`
}

// Empty reports whether nothing was added, changed, or removed.
func (d SnapshotDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0
}
