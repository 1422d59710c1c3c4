package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"intake/internal/blobstore"
	"intake/internal/checksum"
	"intake/internal/config"
	"intake/internal/docstore"
	"intake/internal/fetch"
	"intake/internal/logging"
	"intake/internal/services"
)

// Orchestrator owns the create-to-completed pipeline for a single record.
type Orchestrator struct {
	store   *docstore.Store
	blobs   blobstore.Client
	fetcher *fetch.Fetcher
	cfg     *config.Config
	logger  *slog.Logger
}

// NewOrchestrator wires the pipeline against its collaborators.
func NewOrchestrator(store *docstore.Store, blobs blobstore.Client, fetcher *fetch.Fetcher, cfg *config.Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		store:   store,
		blobs:   blobs,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger.With(logging.String(logging.FieldComponent, "ingest")),
	}
}

// Ingest creates a record for the request and drives it through one
// attempt. A failed attempt comes back as a failed record, not an error;
// the returned error covers infrastructure faults only.
func (o *Orchestrator) Ingest(ctx context.Context, params docstore.CreateParams) (*docstore.Record, error) {
	if params.MaxRetries <= 0 {
		params.MaxRetries = o.cfg.Retry.MaxRetries
	}
	record, err := o.store.Create(ctx, params)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "create", "create record", err)
	}
	return o.Drive(ctx, record)
}

// Drive runs steps begin through complete against an existing record.
// The sweeper re-drives failed records through this same path.
func (o *Orchestrator) Drive(ctx context.Context, record *docstore.Record) (*docstore.Record, error) {
	ctx = services.WithDocumentID(ctx, record.ID)
	log := o.logger.With(logging.String(logging.FieldDocumentID, record.ID))

	now := time.Now().UTC()
	record.BeginProcessing(now)
	if err := o.store.Update(ctx, record); err != nil {
		return nil, services.Wrap(nil, "ingest", "begin", "persist processing state", err)
	}
	log.InfoContext(ctx, "attempt started",
		logging.String(logging.FieldStep, "begin"),
		logging.Int("retry_count", record.RetryCount))

	result, err := o.fetcher.Fetch(ctx, record.SourceURL)
	if err != nil {
		return o.failAttempt(ctx, log, record, fetch.Classify(err), "fetch source document", err)
	}
	record.FileSize = int64(len(result.Bytes))
	record.MimeType = result.ContentType
	record.FileExtension = blobstore.ExtensionFor(result.FileName, result.ContentType)
	if err := o.store.Update(ctx, record); err != nil {
		return nil, services.Wrap(nil, "ingest", "fetch", "persist fetch outcome", err)
	}

	digest := checksum.Sum(result.Bytes)
	record.OriginalChecksum = digest
	record.CurrentChecksum = digest
	if err := o.store.Update(ctx, record); err != nil {
		return nil, services.Wrap(nil, "ingest", "checksum", "persist checksum", err)
	}

	objectPath := blobstore.ObjectPath(record.OwnerID, record.DocumentKind, time.Now().UTC(), record.FileExtension)
	if err := o.blobs.Put(ctx, objectPath, result.Bytes, record.MimeType); err != nil {
		return o.failAttempt(ctx, log, record, docstore.ErrCodeStorageUpload, "upload to blob store", err)
	}
	record.StorageBucket = o.blobs.Bucket()
	record.StoragePath = objectPath
	if err := o.store.Update(ctx, record); err != nil {
		return nil, services.Wrap(nil, "ingest", "upload", "persist upload outcome", err)
	}

	signed, err := o.blobs.Sign(ctx, objectPath, o.cfg.SignedURLTTL())
	if err != nil {
		return o.failAttempt(ctx, log, record, docstore.ErrCodeStorageUpload, "sign stored object", err)
	}
	record.SignedURL = signed.URL
	record.SignedURLExpiresAt = &signed.ExpiresAt
	if err := o.store.Update(ctx, record); err != nil {
		return nil, services.Wrap(nil, "ingest", "sign", "persist signed url", err)
	}

	record.Complete(time.Now().UTC())
	if err := o.store.Update(ctx, record); err != nil {
		return nil, services.Wrap(nil, "ingest", "complete", "persist completion", err)
	}
	log.InfoContext(ctx, "document ingested",
		logging.String(logging.FieldStep, "complete"),
		logging.String("storage_path", record.StoragePath),
		logging.Int64("file_size", record.FileSize))
	return record, nil
}

// failAttempt records a failed attempt. Terminal error classes never
// schedule a retry; everything else backs off exponentially, seeded from
// the retry count the failure just produced.
func (o *Orchestrator) failAttempt(ctx context.Context, log *slog.Logger, record *docstore.Record, code docstore.ErrorCode, message string, cause error) (*docstore.Record, error) {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}

	var nextRetryAt *time.Time
	if code.Retryable() {
		delay := NextRetryDelay(o.cfg.RetryBaseDelay(), record.RetryCount+1)
		at := time.Now().UTC().Add(delay)
		nextRetryAt = &at
	}

	record.Fail(code, message, detail, nextRetryAt)
	if err := o.store.Update(ctx, record); err != nil {
		return nil, services.Wrap(nil, "ingest", "fail", "persist failure", err)
	}

	attrs := []any{
		logging.String(logging.FieldErrorCode, string(code)),
		logging.Int("retry_count", record.RetryCount),
		logging.String("reason", fmt.Sprintf("%s: %s", message, detail)),
	}
	if nextRetryAt != nil {
		attrs = append(attrs, logging.String("next_retry_at", nextRetryAt.Format(time.RFC3339)))
	}
	log.WarnContext(ctx, "attempt failed", attrs...)
	return record, nil
}
