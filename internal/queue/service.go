// Package queue orchestrates the airlock review workflow: newly captured
// snapshots are evaluated, clean ones are promoted immediately, and anything
// with warnings or blocks is quarantined until a human resolves it.
package queue

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/huntwise/drawcore/internal/airlock"
	"github.com/huntwise/drawcore/internal/store"
)

// autoResolver is recorded as the resolver identity on auto-approved entries.
const autoResolver = "airlock"

// Service coordinates evaluation, quarantine, and promotion for one store.
//
// Thread-safety: Service itself holds no mutable state; concurrent use is
// safe to the extent the underlying store is (SQLite serializes writers).
type Service struct {
	store *store.Store
	log   *slog.Logger
	tol   airlock.Tolerances
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithTolerances overrides the evaluation thresholds.
func WithTolerances(tol airlock.Tolerances) Option {
	return func(s *Service) { s.tol = tol }
}

// WithNow overrides the time source. For tests.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service backed by st.
func NewService(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		log:   slog.Default(),
		tol:   airlock.DefaultTolerances,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decision is the outcome of submitting one staging snapshot.
type Decision struct {
	Verdict airlock.Verdict
	Entry   airlock.QueueEntry

	// Promoted is the new live record when the snapshot auto-promoted,
	// nil when it was quarantined.
	Promoted *airlock.LiveRecord
}

// Submit evaluates a staging snapshot against the current live record and
// either promotes it or quarantines it for review.
//
// INVARIANT: staging data never reaches the live record without a recorded
// queue entry. Auto-promotion inserts an auto_approved entry first; anything
// short of a clean pass is quarantined and the live record is untouched.
func (s *Service) Submit(batchID string, staging airlock.StagingSnapshot, live airlock.LiveRecord) (Decision, error) {
	verdict := airlock.EvaluateSnapshot(staging, live, s.tol)

	entry := airlock.QueueEntry{
		ID:            uuid.Must(uuid.NewV7()).String(),
		StateID:       verdict.StateID,
		ScrapeBatchID: batchID,
		Status:        airlock.StatusQuarantined,
		Diffs:         verdict.Diffs,
		BlockCount:    verdict.BlockCount,
		WarnCount:     verdict.WarnCount,
		PassCount:     verdict.PassCount,
		Summary:       verdict.Summary,
		EvaluatedAt:   s.now().UTC(),
	}

	if !verdict.CanAutoPromote {
		if err := s.store.InsertQueueEntry(entry); err != nil {
			return Decision{}, fmt.Errorf("quarantine snapshot: %w", err)
		}
		s.log.Warn("snapshot quarantined",
			"state", verdict.StateID,
			"staging_id", staging.ID,
			"blocks", verdict.BlockCount,
			"warns", verdict.WarnCount,
		)
		return Decision{Verdict: verdict, Entry: entry}, nil
	}

	resolvedAt := entry.EvaluatedAt
	entry.Status = airlock.StatusAutoApproved
	entry.ResolvedAt = &resolvedAt
	entry.ResolvedBy = autoResolver
	entry.ResolutionNotes = "all changes within tolerance"

	if err := s.store.InsertQueueEntry(entry); err != nil {
		return Decision{}, fmt.Errorf("record auto-approval: %w", err)
	}

	promoted, err := s.promote(entry, staging, live)
	if err != nil {
		return Decision{}, err
	}

	s.log.Info("snapshot auto-promoted",
		"state", verdict.StateID,
		"staging_id", staging.ID,
		"passes", verdict.PassCount,
	)
	return Decision{Verdict: verdict, Entry: entry, Promoted: &promoted}, nil
}

// Approve resolves a quarantined entry and promotes its snapshot.
// A reviewer may approve entries containing blocked changes; the approval
// identity and notes are kept for the audit trail.
func (s *Service) Approve(id, by, notes string, staging airlock.StagingSnapshot, live airlock.LiveRecord) (airlock.LiveRecord, error) {
	if err := s.store.UpdateResolution(id, airlock.StatusApproved, by, notes, s.now().UTC()); err != nil {
		return airlock.LiveRecord{}, err
	}

	entry, err := s.store.GetQueueEntry(id)
	if err != nil {
		return airlock.LiveRecord{}, err
	}

	promoted, err := s.promote(entry, staging, live)
	if err != nil {
		return airlock.LiveRecord{}, err
	}

	s.log.Info("snapshot approved",
		"state", entry.StateID,
		"entry_id", id,
		"by", by,
	)
	return promoted, nil
}

// Reject resolves a quarantined entry without promoting. The staging data is
// discarded; the live record stays on its last verified version.
func (s *Service) Reject(id, by, notes string) error {
	if err := s.store.UpdateResolution(id, airlock.StatusRejected, by, notes, s.now().UTC()); err != nil {
		return err
	}
	s.log.Info("snapshot rejected", "entry_id", id, "by", by)
	return nil
}

// Pending lists quarantined entries awaiting review, oldest first.
func (s *Service) Pending() ([]airlock.QueueEntry, error) {
	return s.store.ListQueueEntries(airlock.StatusQuarantined)
}

// Get loads one queue entry.
func (s *Service) Get(id string) (airlock.QueueEntry, error) {
	return s.store.GetQueueEntry(id)
}

// List lists entries by status; empty status lists all.
func (s *Service) List(status airlock.QueueStatus) ([]airlock.QueueEntry, error) {
	return s.store.ListQueueEntries(status)
}

// History returns the promotion audit trail for a state, most recent first.
func (s *Service) History(stateID string) ([]store.Promotion, error) {
	return s.store.Promotions(stateID)
}

func (s *Service) promote(entry airlock.QueueEntry, staging airlock.StagingSnapshot, live airlock.LiveRecord) (airlock.LiveRecord, error) {
	promoted := airlock.PromoteSnapshot(staging, live)

	err := s.store.RecordPromotion(store.Promotion{
		StateID:      promoted.StateID,
		QueueEntryID: entry.ID,
		FromVersion:  live.DataVersion,
		ToVersion:    promoted.DataVersion,
		BlockCount:   entry.BlockCount,
		WarnCount:    entry.WarnCount,
		PassCount:    entry.PassCount,
		PromotedAt:   s.now().UTC(),
	})
	if err != nil {
		return airlock.LiveRecord{}, fmt.Errorf("record promotion: %w", err)
	}
	return promoted, nil
}
