package staging_test

import (
	"context"
	"testing"

	"intake/internal/blobstore"
	"intake/internal/docstore"
	"intake/internal/logging"
	"intake/internal/staging"
	"intake/internal/testsupport"
)

type fixture struct {
	store *docstore.Store
	blobs *blobstore.Local
	mgr   *staging.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	blobs, err := blobstore.NewLocal(cfg.Storage.LocalDir, cfg.Storage.LocalSignSecret)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	return &fixture{
		store: store,
		blobs: blobs,
		mgr:   staging.NewManager(store, blobs, cfg, logging.NewNop()),
	}
}

func TestStagePlacesObjectUnderSession(t *testing.T) {
	fx := newFixture(t)

	item, err := fx.mgr.Stage(context.Background(), "sess-1", "page_1.png", []byte("png"), "image/png")
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if item.TempPath != "temp/sess-1/page_1.png" {
		t.Fatalf("unexpected temp path %q", item.TempPath)
	}
	if len(item.Checksum) != 64 {
		t.Fatalf("expected 64-hex checksum, got %q", item.Checksum)
	}
	if !fx.blobs.Exists(item.TempPath) {
		t.Fatal("expected staged object on disk")
	}
}

func TestStageRejectsEmptyInput(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if _, err := fx.mgr.Stage(ctx, "", "a.png", []byte("x"), "image/png"); err == nil {
		t.Fatal("expected error for missing session id")
	}
	if _, err := fx.mgr.Stage(ctx, "sess-1", "", []byte("x"), "image/png"); err == nil {
		t.Fatal("expected error for missing file name")
	}
	if _, err := fx.mgr.Stage(ctx, "sess-1", "a.png", nil, "image/png"); err == nil {
		t.Fatal("expected error for empty upload")
	}
}

func TestClaimMovesAndCreatesRecords(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	first, err := fx.mgr.Stage(ctx, "sess-2", "page_1.png", []byte("one"), "image/png")
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	second, err := fx.mgr.Stage(ctx, "sess-2", "page_2.png", []byte("two"), "image/png")
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	records, err := fx.mgr.Claim(ctx, staging.ClaimParams{
		OwnerID:        "driver-7",
		DocumentKind:   docstore.KindMapScreenshot,
		AssociatedWith: "incident_report",
		AssociatedID:   "incident-12",
	}, []staging.StagedItem{first, second})
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	for i, record := range records {
		if record.Status != docstore.StatusCompleted {
			t.Fatalf("record %d: expected completed, got %s", i, record.Status)
		}
		if record.DocumentCategory != docstore.CategoryIncidentReport {
			t.Fatalf("record %d: expected incident_report category, got %s", i, record.DocumentCategory)
		}
		if record.AssociatedID != "incident-12" {
			t.Fatalf("record %d: expected association, got %q", i, record.AssociatedID)
		}
		if record.SignedURL == "" || record.SignedURLExpiresAt == nil {
			t.Fatalf("record %d: expected signed url", i)
		}
		if !fx.blobs.Exists(record.StoragePath) {
			t.Fatalf("record %d: expected permanent object at %q", i, record.StoragePath)
		}
	}
	if fx.blobs.Exists(first.TempPath) || fx.blobs.Exists(second.TempPath) {
		t.Fatal("expected temp objects gone after claim")
	}

	if records[0].StoragePath != "permanent/driver-7/incident-12/incident_report/page_1.png" {
		t.Fatalf("unexpected permanent path %q", records[0].StoragePath)
	}
}

func TestClaimValidatesInput(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	item, err := fx.mgr.Stage(ctx, "sess-3", "a.png", []byte("x"), "image/png")
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	if _, err := fx.mgr.Claim(ctx, staging.ClaimParams{AssociatedID: "i-1"}, []staging.StagedItem{item}); err == nil {
		t.Fatal("expected error for missing owner")
	}
	if _, err := fx.mgr.Claim(ctx, staging.ClaimParams{OwnerID: "d-1"}, []staging.StagedItem{item}); err == nil {
		t.Fatal("expected error for missing associated id")
	}
	if _, err := fx.mgr.Claim(ctx, staging.ClaimParams{OwnerID: "d-1", AssociatedID: "i-1"}, nil); err == nil {
		t.Fatal("expected error for empty session")
	}

	other := item
	other.SessionID = "sess-4"
	if _, err := fx.mgr.Claim(ctx, staging.ClaimParams{OwnerID: "d-1", AssociatedID: "i-1"}, []staging.StagedItem{item, other}); err == nil {
		t.Fatal("expected error for mixed sessions")
	}
}

func TestDiscardDropsSession(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	item, err := fx.mgr.Stage(ctx, "sess-5", "a.png", []byte("x"), "image/png")
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	if err := fx.mgr.Discard(ctx, []staging.StagedItem{item}); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}
	if fx.blobs.Exists(item.TempPath) {
		t.Fatal("expected staged object removed")
	}

	// Repeat discard is a no-op.
	if err := fx.mgr.Discard(ctx, []staging.StagedItem{item}); err != nil {
		t.Fatalf("second Discard failed: %v", err)
	}
}
