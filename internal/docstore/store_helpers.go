package docstore

import (
	"database/sql"
	"errors"
	"time"
)

const recordColumns = "id, owner_id, document_kind, document_category, associated_with, associated_id, source_type, source_url, source_field, storage_bucket, storage_path, file_size, mime_type, file_extension, original_checksum, current_checksum, status, retry_count, max_retries, next_retry_at, error_message, error_code, error_details, signed_url, signed_url_expires_at, deleted_at, created_at, updated_at, processing_started_at, processing_completed_at, last_retry_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id               string
		ownerID          string
		kindStr          string
		categoryStr      string
		associatedWith   sql.NullString
		associatedID     sql.NullString
		sourceType       sql.NullString
		sourceURL        string
		sourceField      sql.NullString
		storageBucket    sql.NullString
		storagePath      sql.NullString
		fileSize         sql.NullInt64
		mimeType         sql.NullString
		fileExtension    sql.NullString
		originalChecksum sql.NullString
		currentChecksum  sql.NullString
		statusStr        string
		retryCount       int
		maxRetries       int
		nextRetryRaw     sql.NullString
		errorMessage     sql.NullString
		errorCode        sql.NullString
		errorDetails     sql.NullString
		signedURL        sql.NullString
		signedExpiresRaw sql.NullString
		deletedRaw       sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		startedRaw       sql.NullString
		completedRaw     sql.NullString
		lastRetryRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&ownerID,
		&kindStr,
		&categoryStr,
		&associatedWith,
		&associatedID,
		&sourceType,
		&sourceURL,
		&sourceField,
		&storageBucket,
		&storagePath,
		&fileSize,
		&mimeType,
		&fileExtension,
		&originalChecksum,
		&currentChecksum,
		&statusStr,
		&retryCount,
		&maxRetries,
		&nextRetryRaw,
		&errorMessage,
		&errorCode,
		&errorDetails,
		&signedURL,
		&signedExpiresRaw,
		&deletedRaw,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&completedRaw,
		&lastRetryRaw,
	); err != nil {
		return nil, err
	}

	record := &Record{
		ID:               id,
		OwnerID:          ownerID,
		DocumentKind:     DocumentKind(kindStr),
		DocumentCategory: DocumentCategory(categoryStr),
		AssociatedWith:   associatedWith.String,
		AssociatedID:     associatedID.String,
		SourceType:       sourceType.String,
		SourceURL:        sourceURL,
		SourceField:      sourceField.String,
		StorageBucket:    storageBucket.String,
		StoragePath:      storagePath.String,
		FileSize:         fileSize.Int64,
		MimeType:         mimeType.String,
		FileExtension:    fileExtension.String,
		OriginalChecksum: originalChecksum.String,
		CurrentChecksum:  currentChecksum.String,
		Status:           Status(statusStr),
		RetryCount:       retryCount,
		MaxRetries:       maxRetries,
		ErrorMessage:     errorMessage.String,
		ErrorCode:        ErrorCode(errorCode.String),
		ErrorDetails:     errorDetails.String,
		SignedURL:        signedURL.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		record.UpdatedAt = updated
	}
	record.NextRetryAt = parseOptionalTime(nextRetryRaw)
	record.SignedURLExpiresAt = parseOptionalTime(signedExpiresRaw)
	record.DeletedAt = parseOptionalTime(deletedRaw)
	record.ProcessingStartedAt = parseOptionalTime(startedRaw)
	record.ProcessingCompletedAt = parseOptionalTime(completedRaw)
	record.LastRetryAt = parseOptionalTime(lastRetryRaw)
	return record, nil
}

func parseOptionalTime(raw sql.NullString) *time.Time {
	if !raw.Valid {
		return nil
	}
	parsed, err := parseTimeString(raw.String)
	if err != nil {
		return nil
	}
	return &parsed
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	v := value.UTC().Format(time.RFC3339Nano)
	return v
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
