package airlock

import "time"

// QueueStatus is the review state of a quarantined verdict.
//
// State machine: evaluated snapshots that can auto-promote become
// auto_approved immediately; everything else is quarantined until a human
// approves or rejects. quarantined is the only non-terminal status.
type QueueStatus string

const (
	StatusQuarantined  QueueStatus = "quarantined"
	StatusApproved     QueueStatus = "approved"
	StatusRejected     QueueStatus = "rejected"
	StatusAutoApproved QueueStatus = "auto_approved"
)

// Terminal reports whether no further transitions are allowed.
func (s QueueStatus) Terminal() bool {
	return s != StatusQuarantined
}

// QueueEntry is the persisted review record exposed to human-review
// tooling. One entry per evaluated snapshot that reached the queue.
type QueueEntry struct {
	ID              string      `json:"id"`
	StateID         string      `json:"state_id"`
	ScrapeBatchID   string      `json:"scrape_batch_id"`
	Status          QueueStatus `json:"status"`
	Diffs           []Diff      `json:"diffs_json"`
	BlockCount      int         `json:"block_count"`
	WarnCount       int         `json:"warn_count"`
	PassCount       int         `json:"pass_count"`
	Summary         string      `json:"summary"`
	EvaluatedAt     time.Time   `json:"evaluated_at"`
	ResolvedAt      *time.Time  `json:"resolved_at,omitempty"`
	ResolvedBy      string      `json:"resolved_by,omitempty"`
	ResolutionNotes string      `json:"resolution_notes,omitempty"`
}
