package docstore

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// RetryCandidates returns failed records that a sweep may pick up at the
// given instant: retry budget remaining, no terminal error code, and a
// due (or absent) next-retry time. Soft-deleted rows are never selected.
// Records are ordered by next-retry time so the longest-overdue go first.
func (s *Store) RetryCandidates(ctx context.Context, now time.Time, limit int) ([]*Record, error) {
	codes := NonRetryableErrorCodes()
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	placeholders := makePlaceholders(len(codes))
	args := make([]any, 0, len(codes)+3)
	args = append(args, StatusFailed)
	for _, code := range codes {
		args = append(args, string(code))
	}
	args = append(args, now.UTC().Format(time.RFC3339Nano))

	query := `SELECT ` + recordColumns + ` FROM document_records
        WHERE deleted_at IS NULL
          AND status = ?
          AND retry_count < max_retries
          AND (error_code IS NULL OR error_code NOT IN (` + placeholders + `))
          AND (next_retry_at IS NULL OR next_retry_at <= ?)
        ORDER BY next_retry_at IS NULL, next_retry_at, created_at`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query retry candidates: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// StaleProcessing returns records stuck in processing whose last update
// predates the cutoff. A crashed worker leaves records in this state.
func (s *Store) StaleProcessing(ctx context.Context, cutoff time.Time) ([]*Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM document_records
         WHERE deleted_at IS NULL AND status = ? AND updated_at < ?
         ORDER BY updated_at`,
		StatusProcessing,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("query stale processing: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ReclaimStaleProcessing moves records stuck in processing back to failed
// so the next sweep can pick them up. The attempt that stalled still
// counts against the retry budget.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	now := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE document_records
         SET status = ?, retry_count = retry_count + 1,
             error_code = ?, error_message = 'processing attempt stalled',
             next_retry_at = ?, updated_at = ?
         WHERE deleted_at IS NULL AND status = ? AND updated_at < ?`,
		StatusFailed,
		string(ErrCodeUnknown),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		StatusProcessing,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale records: %w", err)
	}
	return res.RowsAffected()
}

// MarkExhausted stamps failed records whose retry budget is spent with the
// terminal code and clears their schedule. Idempotent across sweeps.
func (s *Store) MarkExhausted(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE document_records
         SET error_code = ?, next_retry_at = NULL, updated_at = ?
         WHERE deleted_at IS NULL AND status = ?
           AND retry_count >= max_retries AND error_code != ?`,
		string(ErrCodeMaxRetries),
		now,
		StatusFailed,
		string(ErrCodeMaxRetries),
	)
	if err != nil {
		return 0, fmt.Errorf("mark exhausted records: %w", err)
	}
	return res.RowsAffected()
}
