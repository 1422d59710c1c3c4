package testsupport

import (
	"context"
	"testing"

	"intake/internal/config"
	"intake/internal/docstore"
)

// MustOpenStore opens a docstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *docstore.Store {
	t.Helper()

	store, err := docstore.Open(cfg)
	if err != nil {
		t.Fatalf("docstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRecord creates a pending record for tests using the provided store.
func NewRecord(t testing.TB, store *docstore.Store, ownerID, sourceURL string) *docstore.Record {
	t.Helper()

	record, err := store.Create(context.Background(), docstore.CreateParams{
		OwnerID:      ownerID,
		DocumentKind: docstore.KindDamagePhoto,
		SourceURL:    sourceURL,
		MaxRetries:   3,
	})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return record
}
