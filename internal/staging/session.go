package staging

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"intake/internal/blobstore"
	"intake/internal/checksum"
	"intake/internal/config"
	"intake/internal/docstore"
	"intake/internal/logging"
	"intake/internal/services"
)

// StagedItem describes one object parked under a session's temp prefix.
type StagedItem struct {
	SessionID   string
	TempPath    string
	FileName    string
	ContentType string
	Size        int64
	Checksum    string
}

// ClaimParams names the owner a claimed session's documents attach to.
type ClaimParams struct {
	OwnerID        string
	DocumentKind   docstore.DocumentKind
	AssociatedWith string
	AssociatedID   string
}

// Manager drives the temp-then-permanent staging flow.
type Manager struct {
	store  *docstore.Store
	blobs  blobstore.Client
	cfg    *config.Config
	logger *slog.Logger
}

// NewManager wires the staging flow against its collaborators.
func NewManager(store *docstore.Store, blobs blobstore.Client, cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		store:  store,
		blobs:  blobs,
		cfg:    cfg,
		logger: logger.With(logging.String(logging.FieldComponent, "staging")),
	}
}

// Stage parks uploaded bytes under the session's temp prefix. Staging the
// same file name twice overwrites, matching blob put semantics.
func (m *Manager) Stage(ctx context.Context, sessionID, fileName string, data []byte, contentType string) (StagedItem, error) {
	if strings.TrimSpace(sessionID) == "" {
		return StagedItem{}, services.Wrap(services.ErrValidation, "staging", "stage", "session id is required", nil)
	}
	if strings.TrimSpace(fileName) == "" {
		return StagedItem{}, services.Wrap(services.ErrValidation, "staging", "stage", "file name is required", nil)
	}
	if len(data) == 0 {
		return StagedItem{}, services.Wrap(services.ErrValidation, "staging", "stage", "empty upload", nil)
	}

	tempPath := blobstore.TempPath(sessionID, fileName)
	if err := m.blobs.Put(ctx, tempPath, data, contentType); err != nil {
		return StagedItem{}, services.Wrap(nil, "staging", "stage", "store staged object", err)
	}

	item := StagedItem{
		SessionID:   sessionID,
		TempPath:    tempPath,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		Checksum:    checksum.Sum(data),
	}
	m.logger.InfoContext(ctx, "object staged",
		logging.String("session_id", sessionID),
		logging.String("temp_path", tempPath),
		logging.Int64("size", item.Size))
	return item, nil
}

// Claim moves every staged item into the permanent layout and creates a
// completed record per item. Items must all belong to the same session.
// A move failure aborts the claim partway; already-claimed items keep
// their records and the rest of the session stays staged for a retry.
func (m *Manager) Claim(ctx context.Context, params ClaimParams, items []StagedItem) ([]*docstore.Record, error) {
	if strings.TrimSpace(params.OwnerID) == "" {
		return nil, services.Wrap(services.ErrValidation, "staging", "claim", "owner id is required", nil)
	}
	if strings.TrimSpace(params.AssociatedID) == "" {
		return nil, services.Wrap(services.ErrValidation, "staging", "claim", "associated id is required", nil)
	}
	if len(items) == 0 {
		return nil, services.Wrap(services.ErrValidation, "staging", "claim", "nothing staged", nil)
	}
	sessionID := items[0].SessionID
	for _, item := range items[1:] {
		if item.SessionID != sessionID {
			return nil, services.Wrap(services.ErrValidation, "staging", "claim", "items span sessions", nil)
		}
	}

	kind := params.DocumentKind
	if kind == "" {
		kind = docstore.KindOther
	}
	category := docstore.CategoryForKind(kind)

	records := make([]*docstore.Record, 0, len(items))
	for _, item := range items {
		record, err := m.claimOne(ctx, params, kind, category, item)
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
	m.logger.InfoContext(ctx, "session claimed",
		logging.String("session_id", sessionID),
		logging.String(logging.FieldOwnerID, params.OwnerID),
		logging.Int("documents", len(records)))
	return records, nil
}

func (m *Manager) claimOne(ctx context.Context, params ClaimParams, kind docstore.DocumentKind, category docstore.DocumentCategory, item StagedItem) (*docstore.Record, error) {
	record, err := m.store.Create(ctx, docstore.CreateParams{
		OwnerID:        params.OwnerID,
		DocumentKind:   kind,
		SourceURL:      "staged://" + item.TempPath,
		SourceType:     "staged_upload",
		AssociatedWith: params.AssociatedWith,
		AssociatedID:   params.AssociatedID,
		MaxRetries:     m.cfg.Retry.MaxRetries,
	})
	if err != nil {
		return nil, services.Wrap(nil, "staging", "claim", "create record", err)
	}

	permanentPath := blobstore.PermanentPath(params.OwnerID, params.AssociatedID, category, item.FileName)
	if err := m.blobs.Move(ctx, item.TempPath, permanentPath); err != nil {
		return nil, services.Wrap(nil, "staging", "claim", "move staged object", err)
	}

	signed, err := m.blobs.Sign(ctx, permanentPath, m.cfg.SignedURLTTL())
	if err != nil {
		return nil, services.Wrap(nil, "staging", "claim", "sign claimed object", err)
	}

	record.StorageBucket = m.blobs.Bucket()
	record.StoragePath = permanentPath
	record.FileSize = item.Size
	record.MimeType = item.ContentType
	record.FileExtension = blobstore.ExtensionFor(item.FileName, item.ContentType)
	record.OriginalChecksum = item.Checksum
	record.CurrentChecksum = item.Checksum
	record.SignedURL = signed.URL
	record.SignedURLExpiresAt = &signed.ExpiresAt
	record.Complete(time.Now().UTC())
	if err := m.store.Update(ctx, record); err != nil {
		return nil, services.Wrap(nil, "staging", "claim", "persist claimed record", err)
	}
	return record, nil
}

// Discard drops every staged object for an abandoned session. Missing
// objects are ignored so a repeated discard is safe.
func (m *Manager) Discard(ctx context.Context, items []StagedItem) error {
	var firstErr error
	for _, item := range items {
		if err := m.blobs.Delete(ctx, item.TempPath); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return services.Wrap(nil, "staging", "discard", "delete staged object", firstErr)
	}
	if len(items) > 0 {
		m.logger.InfoContext(ctx, "session discarded",
			logging.String("session_id", items[0].SessionID),
			logging.Int("objects", len(items)))
	}
	return nil
}
