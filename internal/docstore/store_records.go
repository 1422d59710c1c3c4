package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateParams carries the caller-supplied fields for a new record.
type CreateParams struct {
	OwnerID        string
	DocumentKind   DocumentKind
	SourceURL      string
	SourceType     string
	SourceField    string
	AssociatedWith string
	AssociatedID   string
	MaxRetries     int
}

func (p CreateParams) validate() error {
	if strings.TrimSpace(p.OwnerID) == "" {
		return errors.New("owner id is required")
	}
	if strings.TrimSpace(p.SourceURL) == "" {
		return errors.New("source url is required")
	}
	if p.DocumentKind == "" {
		return errors.New("document kind is required")
	}
	if p.MaxRetries <= 0 {
		return errors.New("max retries must be positive")
	}
	return nil
}

// Create inserts a new pending record and returns the stored row.
func (s *Store) Create(ctx context.Context, params CreateParams) (*Record, error) {
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO document_records (
            id, owner_id, document_kind, document_category, associated_with,
            associated_id, source_type, source_url, source_field,
            status, retry_count, max_retries, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		params.OwnerID,
		string(params.DocumentKind),
		string(CategoryForKind(params.DocumentKind)),
		nullableString(params.AssociatedWith),
		nullableString(params.AssociatedID),
		nullableString(params.SourceType),
		params.SourceURL,
		nullableString(params.SourceField),
		StatusPending,
		0,
		params.MaxRetries,
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a record by identifier. Soft-deleted records are invisible.
func (s *Store) GetByID(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM document_records WHERE id = ? AND deleted_at IS NULL`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// AdminGetByID fetches a record by identifier including soft-deleted rows.
func (s *Store) AdminGetByID(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM document_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// Update persists changes to an existing record.
func (s *Store) Update(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("record is nil")
	}
	record.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE document_records
         SET owner_id = ?, document_kind = ?, document_category = ?,
             associated_with = ?, associated_id = ?, source_type = ?,
             source_url = ?, source_field = ?, storage_bucket = ?,
             storage_path = ?, file_size = ?, mime_type = ?, file_extension = ?,
             original_checksum = ?, current_checksum = ?, status = ?,
             retry_count = ?, max_retries = ?, next_retry_at = ?,
             error_message = ?, error_code = ?, error_details = ?,
             signed_url = ?, signed_url_expires_at = ?, deleted_at = ?,
             updated_at = ?, processing_started_at = ?,
             processing_completed_at = ?, last_retry_at = ?
         WHERE id = ?`,
		record.OwnerID,
		string(record.DocumentKind),
		string(record.DocumentCategory),
		nullableString(record.AssociatedWith),
		nullableString(record.AssociatedID),
		nullableString(record.SourceType),
		record.SourceURL,
		nullableString(record.SourceField),
		nullableString(record.StorageBucket),
		nullableString(record.StoragePath),
		record.FileSize,
		nullableString(record.MimeType),
		nullableString(record.FileExtension),
		nullableString(record.OriginalChecksum),
		nullableString(record.CurrentChecksum),
		record.Status,
		record.RetryCount,
		record.MaxRetries,
		nullableTime(record.NextRetryAt),
		nullableString(record.ErrorMessage),
		nullableString(string(record.ErrorCode)),
		nullableString(record.ErrorDetails),
		nullableString(record.SignedURL),
		nullableTime(record.SignedURLExpiresAt),
		nullableTime(record.DeletedAt),
		record.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(record.ProcessingStartedAt),
		nullableTime(record.ProcessingCompletedAt),
		nullableTime(record.LastRetryAt),
		record.ID,
	); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// List returns live records filtered by status set (or all live records
// when no status is provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Record, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + recordColumns + ` FROM document_records WHERE deleted_at IS NULL`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` AND status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListByOwner returns live records for an owner, optionally filtered by status.
func (s *Store) ListByOwner(ctx context.Context, ownerID string, statuses ...Status) ([]*Record, error) {
	baseQuery := `SELECT ` + recordColumns + ` FROM document_records WHERE deleted_at IS NULL AND owner_id = ?`
	orderClause := ` ORDER BY created_at`
	args := []any{ownerID}

	query := baseQuery
	if len(statuses) > 0 {
		placeholders := makePlaceholders(len(statuses))
		for _, status := range statuses {
			args = append(args, status)
		}
		query += ` AND status IN (` + placeholders + `)`
	}

	rows, err := s.db.QueryContext(ctx, query+orderClause, args...)
	if err != nil {
		return nil, fmt.Errorf("list records by owner: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// SoftDelete hides a record from normal reads; the row and any uploaded
// blob remain. Returns false when the record is unknown or already deleted.
func (s *Store) SoftDelete(ctx context.Context, id string) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE document_records SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now,
		now,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
