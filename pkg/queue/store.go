package queue

import (
	"context"
	"database/sql"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Store is the queue-row persistence API (C3, spec §4.3). Each method is a
// single statement; no multi-statement transactions span operations.
type Store struct {
	db     *sqlx.DB
	logger *log.Logger
}

// New wraps db with the queue-row operations.
func New(db *sqlx.DB, logger *log.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// ErrLockContended names the lock-contention outcome. No method of Store
// returns it: TryAcquireLock reports contention as (false, nil), since
// observing contention is not itself an error.
var ErrLockContended = errors.New("document is currently being processed")

// FetchPending reads rows matching the given extraction ids that are also
// is_active = true (spec §4.3 fetch_pending).
func (s *Store) FetchPending(ctx context.Context, ids []int64) ([]Row, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT * FROM doc_text_extraction_queue
		WHERE extraction_id IN (?) AND is_active = true`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "build fetch_pending query")
	}
	query = s.db.Rebind(query)

	var rows []Row
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "fetch_pending")
	}
	return rows, nil
}

// TryAcquireLock performs a compare-and-set: it flips is_processing from
// false to true atomically in a single UPDATE ... WHERE is_processing =
// false, never a read-then-write pair (spec §9 "Per-row exclusive lock").
// It returns whether the lock was acquired.
func (s *Store) TryAcquireLock(ctx context.Context, docID string) (bool, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE doc_text_extraction_queue
		SET is_processing = true, processing_started_at = $1, updated_at = $1
		WHERE doc_id = $2 AND is_processing = false`, now, docID)
	if err != nil {
		return false, errors.Wrap(err, "try_acquire_lock")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "try_acquire_lock rows affected")
	}
	return n > 0, nil
}

// ReleaseLock unconditionally clears is_processing and
// processing_started_at. It must be called on every exit path of a worker
// that successfully acquired the lock (spec §3.1, §5).
func (s *Store) ReleaseLock(ctx context.Context, docID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE doc_text_extraction_queue
		SET is_processing = false, processing_started_at = NULL
		WHERE doc_id = $1`, docID)
	if err != nil {
		s.logger.Error("release_lock failed", "doc_id", docID, "error", err)
	}
	return err
}

// SetStatus writes text_extraction_status and bumps updated_at.
func (s *Store) SetStatus(ctx context.Context, docID string, status int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE doc_text_extraction_queue
		SET text_extraction_status = $1, updated_at = now()
		WHERE doc_id = $2`, status, docID)
	if err != nil {
		s.logger.Error("set_status failed", "doc_id", docID, "status", status, "error", err)
	}
	return err
}

// SetURI writes one of the two URI fields (spec §4.3 set_uri).
func (s *Store) SetURI(ctx context.Context, docID string, field URIField, value string) error {
	query := `UPDATE doc_text_extraction_queue SET ` + string(field) + ` = $1, updated_at = now() WHERE doc_id = $2`
	_, err := s.db.ExecContext(ctx, query, value, docID)
	if err != nil {
		s.logger.Error("set_uri failed", "doc_id", docID, "field", field, "error", err)
	}
	return err
}

// SetError writes the same message into both last_error_message and
// error_message (spec §4.3 set_error).
func (s *Store) SetError(ctx context.Context, docID string, message string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE doc_text_extraction_queue
		SET last_error_message = $1, error_message = $1, updated_at = now()
		WHERE doc_id = $2`, message, docID)
	if err != nil {
		s.logger.Error("set_error failed", "doc_id", docID, "error", err)
	}
	return err
}

// SetDuration writes text_extraction_duration_seconds (success path only).
func (s *Store) SetDuration(ctx context.Context, docID string, seconds int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE doc_text_extraction_queue
		SET text_extraction_duration_seconds = $1, updated_at = now()
		WHERE doc_id = $2`, seconds, docID)
	if err != nil {
		s.logger.Error("set_duration failed", "doc_id", docID, "error", err)
	}
	return err
}

// TouchLastProcessed sets last_processed_at, extracted_at, and updated_at
// to now (success path only, spec §4.3, §9 Open Questions).
func (s *Store) TouchLastProcessed(ctx context.Context, docID string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE doc_text_extraction_queue
		SET last_processed_at = $1, extracted_at = $1, updated_at = $1
		WHERE doc_id = $2`, now, docID)
	if err != nil {
		s.logger.Error("touch_last_processed failed", "doc_id", docID, "error", err)
	}
	return err
}

// RowByDocID is a convenience lookup of the current row for docID. It
// returns (nil, nil) when no row matches. The orchestrator does not call it.
func (s *Store) RowByDocID(ctx context.Context, docID string) (*Row, error) {
	var row Row
	err := s.db.GetContext(ctx, &row, `SELECT * FROM doc_text_extraction_queue WHERE doc_id = $1`, docID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "row_by_doc_id")
	}
	return &row, nil
}
