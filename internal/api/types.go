package api

import (
	"time"

	"intake/internal/docstore"
	"intake/internal/sweep"
)

// IngestRequest is the payload for createIngestion calls.
type IngestRequest struct {
	OwnerID        string `json:"ownerId"`
	DocumentKind   string `json:"documentKind"`
	SourceURL      string `json:"sourceUrl"`
	SourceType     string `json:"sourceType,omitempty"`
	SourceField    string `json:"sourceField,omitempty"`
	AssociatedWith string `json:"associatedWith,omitempty"`
	AssociatedID   string `json:"associatedId,omitempty"`
}

// BatchRequest carries multiple ingestion requests driven concurrently.
type BatchRequest struct {
	Documents []IngestRequest `json:"documents"`
}

// BatchResponse reports per-document outcomes in request order.
type BatchResponse struct {
	Results []RecordView `json:"results"`
}

// SweepRequest tunes an on-demand sweep.
type SweepRequest struct {
	Limit int `json:"limit,omitempty"`
}

// ListResponse wraps a record listing.
type ListResponse struct {
	Documents []RecordView `json:"documents"`
}

// StatusResponse reports daemon and store health.
type StatusResponse struct {
	Running bool                   `json:"running"`
	PID     int                    `json:"pid"`
	DBPath  string                 `json:"dbPath"`
	Records docstore.HealthSummary `json:"records"`
	Sweep   *sweep.Summary         `json:"lastSweep,omitempty"`
}

// RecordView is the wire shape of a document record.
type RecordView struct {
	ID               string     `json:"documentId"`
	OwnerID          string     `json:"ownerId"`
	DocumentKind     string     `json:"documentKind"`
	DocumentCategory string     `json:"documentCategory"`
	AssociatedWith   string     `json:"associatedWith,omitempty"`
	AssociatedID     string     `json:"associatedId,omitempty"`
	SourceURL        string     `json:"sourceUrl"`
	Status           string     `json:"status"`
	StorageBucket    string     `json:"storageBucket,omitempty"`
	StoragePath      string     `json:"storagePath,omitempty"`
	FileSize         int64      `json:"fileSize,omitempty"`
	MimeType         string     `json:"mimeType,omitempty"`
	Checksum         string     `json:"checksum,omitempty"`
	SignedURL        string     `json:"signedUrl,omitempty"`
	SignedURLExpires *time.Time `json:"signedUrlExpiresAt,omitempty"`
	RetryCount       int        `json:"retryCount"`
	MaxRetries       int        `json:"maxRetries"`
	NextRetryAt      *time.Time `json:"nextRetryAt,omitempty"`
	ErrorCode        string     `json:"errorCode,omitempty"`
	ErrorMessage     string     `json:"errorMessage,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// ViewFromRecord converts a stored record into its wire shape.
func ViewFromRecord(record *docstore.Record) RecordView {
	return RecordView{
		ID:               record.ID,
		OwnerID:          record.OwnerID,
		DocumentKind:     string(record.DocumentKind),
		DocumentCategory: string(record.DocumentCategory),
		AssociatedWith:   record.AssociatedWith,
		AssociatedID:     record.AssociatedID,
		SourceURL:        record.SourceURL,
		Status:           string(record.Status),
		StorageBucket:    record.StorageBucket,
		StoragePath:      record.StoragePath,
		FileSize:         record.FileSize,
		MimeType:         record.MimeType,
		Checksum:         record.CurrentChecksum,
		SignedURL:        record.SignedURL,
		SignedURLExpires: record.SignedURLExpiresAt,
		RetryCount:       record.RetryCount,
		MaxRetries:       record.MaxRetries,
		NextRetryAt:      record.NextRetryAt,
		ErrorCode:        string(record.ErrorCode),
		ErrorMessage:     record.ErrorMessage,
		CreatedAt:        record.CreatedAt,
		UpdatedAt:        record.UpdatedAt,
	}
}

func viewsFromRecords(records []*docstore.Record) []RecordView {
	views := make([]RecordView, 0, len(records))
	for _, record := range records {
		views = append(views, ViewFromRecord(record))
	}
	return views
}
