package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/huntwise/drawcore/internal/airlock"
)

// NotFoundError is returned when a queue entry does not exist.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("queue entry %q not found", e.ID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// TerminalStatusError is returned when a resolution is attempted on an entry
// that already left the quarantined state.
type TerminalStatusError struct {
	ID     string
	Status airlock.QueueStatus
}

func (e *TerminalStatusError) Error() string {
	return fmt.Sprintf("queue entry %q already resolved (status %s)", e.ID, e.Status)
}

// IsTerminalStatus reports whether err is a TerminalStatusError.
func IsTerminalStatus(err error) bool {
	var ts *TerminalStatusError
	return errors.As(err, &ts)
}

// Promotion is one row of the promotion audit trail.
type Promotion struct {
	ID           int64
	StateID      string
	QueueEntryID string
	FromVersion  string
	ToVersion    string
	BlockCount   int
	WarnCount    int
	PassCount    int
	PromotedAt   time.Time
}

// InsertQueueEntry persists a new review entry. Inserting an entry whose ID
// already exists is a no-op, so retried submissions cannot duplicate rows.
func (s *Store) InsertQueueEntry(e airlock.QueueEntry) error {
	diffs, err := json.Marshal(e.Diffs)
	if err != nil {
		return fmt.Errorf("marshal diffs: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO airlock_queue (
			id, state_id, scrape_batch_id, status, diffs_json,
			block_count, warn_count, pass_count, summary,
			evaluated_at, resolved_at, resolved_by, resolution_notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		e.ID, e.StateID, e.ScrapeBatchID, string(e.Status), string(diffs),
		e.BlockCount, e.WarnCount, e.PassCount, e.Summary,
		e.EvaluatedAt.UTC().Format(time.RFC3339),
		nullableTime(e.ResolvedAt), nullableString(e.ResolvedBy), nullableString(e.ResolutionNotes),
	)
	if err != nil {
		return fmt.Errorf("insert queue entry: %w", err)
	}
	return nil
}

// GetQueueEntry loads a single entry by ID.
func (s *Store) GetQueueEntry(id string) (airlock.QueueEntry, error) {
	row := s.db.QueryRow(selectQueueEntry+" WHERE id = ?", id)
	e, err := scanQueueEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return airlock.QueueEntry{}, &NotFoundError{ID: id}
	}
	if err != nil {
		return airlock.QueueEntry{}, fmt.Errorf("get queue entry: %w", err)
	}
	return e, nil
}

// ListQueueEntries returns entries ordered oldest-evaluated first.
// An empty status lists all entries.
func (s *Store) ListQueueEntries(status airlock.QueueStatus) ([]airlock.QueueEntry, error) {
	query := selectQueueEntry
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY evaluated_at, id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}
	defer rows.Close()

	var entries []airlock.QueueEntry
	for rows.Next() {
		e, err := scanQueueEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list queue entries: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}
	return entries, nil
}

// UpdateResolution moves a quarantined entry to a terminal status.
// Entries that already reached a terminal status are never modified;
// attempting to re-resolve one returns TerminalStatusError.
func (s *Store) UpdateResolution(id string, status airlock.QueueStatus, by, notes string, at time.Time) error {
	res, err := s.db.Exec(`
		UPDATE airlock_queue
		SET status = ?, resolved_at = ?, resolved_by = ?, resolution_notes = ?
		WHERE id = ? AND status = ?`,
		string(status), at.UTC().Format(time.RFC3339), by, notes,
		id, string(airlock.StatusQuarantined),
	)
	if err != nil {
		return fmt.Errorf("update resolution: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update resolution: %w", err)
	}
	if n == 0 {
		// Distinguish missing from already-resolved.
		existing, err := s.GetQueueEntry(id)
		if err != nil {
			return err
		}
		return &TerminalStatusError{ID: id, Status: existing.Status}
	}
	return nil
}

// RecordPromotion appends one row to the promotion audit trail.
func (s *Store) RecordPromotion(p Promotion) error {
	_, err := s.db.Exec(`
		INSERT INTO promotions (
			state_id, queue_entry_id, from_version, to_version,
			block_count, warn_count, pass_count, promoted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.StateID, p.QueueEntryID, p.FromVersion, p.ToVersion,
		p.BlockCount, p.WarnCount, p.PassCount,
		p.PromotedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record promotion: %w", err)
	}
	return nil
}

// Promotions returns the promotion history for a state, most recent first.
func (s *Store) Promotions(stateID string) ([]Promotion, error) {
	rows, err := s.db.Query(`
		SELECT id, state_id, queue_entry_id, from_version, to_version,
		       block_count, warn_count, pass_count, promoted_at
		FROM promotions
		WHERE state_id = ?
		ORDER BY promoted_at DESC, id DESC`, stateID)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	defer rows.Close()

	var out []Promotion
	for rows.Next() {
		var p Promotion
		var promotedAt string
		if err := rows.Scan(
			&p.ID, &p.StateID, &p.QueueEntryID, &p.FromVersion, &p.ToVersion,
			&p.BlockCount, &p.WarnCount, &p.PassCount, &promotedAt,
		); err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		p.PromotedAt, err = time.Parse(time.RFC3339, promotedAt)
		if err != nil {
			return nil, fmt.Errorf("parse promoted_at: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	return out, nil
}

const selectQueueEntry = `
	SELECT id, state_id, scrape_batch_id, status, diffs_json,
	       block_count, warn_count, pass_count, summary,
	       evaluated_at, resolved_at, resolved_by, resolution_notes
	FROM airlock_queue`

// scanner abstracts over sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanQueueEntry(row scanner) (airlock.QueueEntry, error) {
	var e airlock.QueueEntry
	var status, diffs, evaluatedAt string
	var resolvedAt, resolvedBy, notes sql.NullString

	if err := row.Scan(
		&e.ID, &e.StateID, &e.ScrapeBatchID, &status, &diffs,
		&e.BlockCount, &e.WarnCount, &e.PassCount, &e.Summary,
		&evaluatedAt, &resolvedAt, &resolvedBy, &notes,
	); err != nil {
		return airlock.QueueEntry{}, err
	}

	e.Status = airlock.QueueStatus(status)
	if err := json.Unmarshal([]byte(diffs), &e.Diffs); err != nil {
		return airlock.QueueEntry{}, fmt.Errorf("decode diffs: %w", err)
	}

	t, err := time.Parse(time.RFC3339, evaluatedAt)
	if err != nil {
		return airlock.QueueEntry{}, fmt.Errorf("parse evaluated_at: %w", err)
	}
	e.EvaluatedAt = t

	if resolvedAt.Valid {
		rt, err := time.Parse(time.RFC3339, resolvedAt.String)
		if err != nil {
			return airlock.QueueEntry{}, fmt.Errorf("parse resolved_at: %w", err)
		}
		e.ResolvedAt = &rt
	}
	e.ResolvedBy = resolvedBy.String
	e.ResolutionNotes = notes.String

	return e, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
