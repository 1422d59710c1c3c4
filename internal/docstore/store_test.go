package docstore_test

import (
	"context"
	"testing"
	"time"

	"intake/internal/docstore"
	"intake/internal/testsupport"
)

func TestCreateAndGetByID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	record, err := store.Create(ctx, docstore.CreateParams{
		OwnerID:      "driver-1",
		DocumentKind: docstore.KindLicensePhoto,
		SourceURL:    "https://cdn.example.com/license.jpg",
		SourceType:   "url",
		MaxRetries:   3,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if record.ID == "" {
		t.Fatal("expected record ID to be assigned")
	}
	if record.Status != docstore.StatusPending {
		t.Fatalf("expected pending status, got %s", record.Status)
	}
	if record.DocumentCategory != docstore.CategorySignup {
		t.Fatalf("expected signup category for license photo, got %s", record.DocumentCategory)
	}
	if record.RetryCount != 0 {
		t.Fatalf("expected zero retry count, got %d", record.RetryCount)
	}

	fetched, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.SourceURL != "https://cdn.example.com/license.jpg" {
		t.Fatalf("unexpected fetched record: %#v", fetched)
	}
}

func TestCreateRequiresOwnerAndURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.Create(ctx, docstore.CreateParams{
		DocumentKind: docstore.KindDamagePhoto,
		SourceURL:    "https://example.com/a.jpg",
		MaxRetries:   3,
	}); err == nil {
		t.Fatal("expected error when owner missing")
	}
	if _, err := store.Create(ctx, docstore.CreateParams{
		OwnerID:      "driver-1",
		DocumentKind: docstore.KindDamagePhoto,
		MaxRetries:   3,
	}); err == nil {
		t.Fatal("expected error when source url missing")
	}
}

func TestUpdateRoundTripsAllFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	record := testsupport.NewRecord(t, store, "driver-2", "https://example.com/damage.jpg")

	now := time.Now().UTC().Truncate(time.Millisecond)
	expires := now.Add(24 * time.Hour)
	record.Status = docstore.StatusCompleted
	record.StorageBucket = "intake-docs"
	record.StoragePath = "permanent/driver-2/incident-9/incident_report/damage.jpg"
	record.FileSize = 2048
	record.MimeType = "image/jpeg"
	record.FileExtension = "jpg"
	record.OriginalChecksum = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
	record.CurrentChecksum = record.OriginalChecksum
	record.SignedURL = "https://signed.example.com/doc"
	record.SignedURLExpiresAt = &expires
	record.ProcessingStartedAt = &now
	record.ProcessingCompletedAt = &expires

	if err := store.Update(ctx, record); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != docstore.StatusCompleted {
		t.Fatalf("expected completed, got %s", fetched.Status)
	}
	if fetched.StoragePath != record.StoragePath {
		t.Fatalf("storage path mismatch: %q", fetched.StoragePath)
	}
	if fetched.SignedURLExpiresAt == nil || !fetched.SignedURLExpiresAt.Equal(expires) {
		t.Fatalf("signed url expiry mismatch: %v", fetched.SignedURLExpiresAt)
	}
	if fetched.ProcessingStartedAt == nil || !fetched.ProcessingStartedAt.Equal(now) {
		t.Fatalf("processing started mismatch: %v", fetched.ProcessingStartedAt)
	}
}

func TestSoftDeleteHidesRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	record := testsupport.NewRecord(t, store, "driver-3", "https://example.com/map.png")

	deleted, err := store.SoftDelete(ctx, record.ID)
	if err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if !deleted {
		t.Fatal("expected soft delete to affect the record")
	}

	fetched, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched != nil {
		t.Fatalf("expected soft-deleted record to be hidden, got %#v", fetched)
	}

	admin, err := store.AdminGetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("AdminGetByID failed: %v", err)
	}
	if admin == nil || admin.DeletedAt == nil {
		t.Fatalf("expected admin read to surface deleted record, got %#v", admin)
	}

	again, err := store.SoftDelete(ctx, record.ID)
	if err != nil {
		t.Fatalf("second SoftDelete failed: %v", err)
	}
	if again {
		t.Fatal("expected second soft delete to be a no-op")
	}
}

func TestListFiltersByStatusAndOwner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewRecord(t, store, "driver-a", "https://example.com/1.jpg")
	second := testsupport.NewRecord(t, store, "driver-b", "https://example.com/2.jpg")

	second.Status = docstore.StatusFailed
	second.ErrorCode = docstore.ErrCodeTimeout
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	failed, err := store.List(ctx, docstore.StatusFailed)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != second.ID {
		t.Fatalf("expected only the failed record, got %d records", len(failed))
	}

	mine, err := store.ListByOwner(ctx, "driver-a")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != first.ID {
		t.Fatalf("expected driver-a records only, got %d records", len(mine))
	}
}

func TestStatsAndHealthCountLiveRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewRecord(t, store, "driver-a", "https://example.com/1.jpg")
	failedRecord := testsupport.NewRecord(t, store, "driver-a", "https://example.com/2.jpg")
	deletedRecord := testsupport.NewRecord(t, store, "driver-a", "https://example.com/3.jpg")

	failedRecord.Status = docstore.StatusFailed
	failedRecord.RetryCount = failedRecord.MaxRetries
	failedRecord.ErrorCode = docstore.ErrCodeMaxRetries
	if err := store.Update(ctx, failedRecord); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := store.SoftDelete(ctx, deletedRecord.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 2 {
		t.Fatalf("expected 2 live records, got %d", health.Total)
	}
	if health.Pending != 1 || health.Failed != 1 {
		t.Fatalf("unexpected breakdown: %+v", health)
	}
	if health.Exhausted != 1 {
		t.Fatalf("expected one exhausted record, got %d", health.Exhausted)
	}
}

func TestCheckHealthReportsIntegrity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	testsupport.NewRecord(t, store, "driver-a", "https://example.com/1.jpg")

	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("unexpected health: %+v", health)
	}
	if len(health.MissingColumns) != 0 {
		t.Fatalf("expected no missing columns, got %v", health.MissingColumns)
	}
	if !health.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
	if health.TotalRecords != 1 {
		t.Fatalf("expected one record, got %d", health.TotalRecords)
	}
}
