package model

import "time"

// RunStatus is the terminal state of one target's scrape within a run.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
	RunSkipped RunStatus = "skipped"
)

// RunOutcome records how one target fared during a run.
type RunOutcome struct {
	ID         string    `json:"id"`
	TargetID   string    `json:"target_id"`
	Status     RunStatus `json:"status"`
	Records    int       `json:"records"`
	Added      int       `json:"added"`
	Changed    int       `json:"changed"`
	Removed    int       `json:"removed"`
	Tier       int       `json:"tier,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunStats aggregates outcomes across all targets in one run.
// Counters are simple sums, so the final values are independent of the
// order in which targets finish.
type RunStats struct {
	Targets    int `json:"targets"`
	Succeeded  int `json:"succeeded"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
	NewRecords int `json:"new_records"`
	Changed    int `json:"changed"`
}
