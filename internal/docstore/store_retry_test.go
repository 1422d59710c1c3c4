package docstore_test

import (
	"context"
	"testing"
	"time"

	"intake/internal/docstore"
	"intake/internal/testsupport"
)

func failRecord(t *testing.T, store *docstore.Store, record *docstore.Record, code docstore.ErrorCode, nextRetryAt *time.Time) {
	t.Helper()
	record.Fail(code, "attempt failed", "", nextRetryAt)
	if err := store.Update(context.Background(), record); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}

func TestRetryCandidatesSelectsDueRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	due := testsupport.NewRecord(t, store, "driver-a", "https://example.com/due.jpg")
	failRecord(t, store, due, docstore.ErrCodeTimeout, &past)

	notDue := testsupport.NewRecord(t, store, "driver-a", "https://example.com/later.jpg")
	failRecord(t, store, notDue, docstore.ErrCodeServerError, &future)

	terminal := testsupport.NewRecord(t, store, "driver-a", "https://example.com/auth.jpg")
	failRecord(t, store, terminal, docstore.ErrCodeAuth, nil)

	pending := testsupport.NewRecord(t, store, "driver-a", "https://example.com/pending.jpg")
	_ = pending

	candidates, err := store.RetryCandidates(ctx, now, 0)
	if err != nil {
		t.Fatalf("RetryCandidates failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ID != due.ID {
		t.Fatalf("expected only the due record, got %d candidates", len(candidates))
	}
}

func TestRetryCandidatesSkipsExhaustedAndDeleted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Minute)

	exhausted := testsupport.NewRecord(t, store, "driver-a", "https://example.com/spent.jpg")
	exhausted.RetryCount = exhausted.MaxRetries - 1
	failRecord(t, store, exhausted, docstore.ErrCodeTimeout, &past)

	deleted := testsupport.NewRecord(t, store, "driver-a", "https://example.com/gone.jpg")
	failRecord(t, store, deleted, docstore.ErrCodeTimeout, &past)
	if _, err := store.SoftDelete(ctx, deleted.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	candidates, err := store.RetryCandidates(ctx, now, 0)
	if err != nil {
		t.Fatalf("RetryCandidates failed: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(candidates))
	}
}

func TestRetryCandidatesOrderAndLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	now := time.Now().UTC()
	older := now.Add(-10 * time.Minute)
	newer := now.Add(-time.Minute)

	second := testsupport.NewRecord(t, store, "driver-a", "https://example.com/second.jpg")
	failRecord(t, store, second, docstore.ErrCodeTimeout, &newer)

	first := testsupport.NewRecord(t, store, "driver-a", "https://example.com/first.jpg")
	failRecord(t, store, first, docstore.ErrCodeTimeout, &older)

	candidates, err := store.RetryCandidates(ctx, now, 0)
	if err != nil {
		t.Fatalf("RetryCandidates failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].ID != first.ID {
		t.Fatal("expected longest-overdue record first")
	}

	limited, err := store.RetryCandidates(ctx, now, 1)
	if err != nil {
		t.Fatalf("RetryCandidates with limit failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != first.ID {
		t.Fatalf("expected limit to keep the most-overdue record, got %d", len(limited))
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	record := testsupport.NewRecord(t, store, "driver-a", "https://example.com/stuck.jpg")
	record.BeginProcessing(time.Now().UTC())
	if err := store.Update(ctx, record); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// Cutoff in the future makes the freshly updated record look stale.
	cutoff := time.Now().UTC().Add(time.Minute)
	reclaimed, err := store.ReclaimStaleProcessing(ctx, cutoff)
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing failed: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("expected one reclaimed record, got %d", reclaimed)
	}

	fetched, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != docstore.StatusFailed {
		t.Fatalf("expected failed, got %s", fetched.Status)
	}
	if fetched.RetryCount != 1 {
		t.Fatalf("expected stalled attempt to count, got %d", fetched.RetryCount)
	}
	if fetched.ErrorCode != docstore.ErrCodeUnknown {
		t.Fatalf("expected unknown error code, got %s", fetched.ErrorCode)
	}
}

func TestMarkExhaustedStampsTerminalCode(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Minute)

	spent := testsupport.NewRecord(t, store, "driver-a", "https://example.com/spent.jpg")
	spent.RetryCount = spent.MaxRetries - 1
	failRecord(t, store, spent, docstore.ErrCodeServerError, &past)

	remaining := testsupport.NewRecord(t, store, "driver-a", "https://example.com/remaining.jpg")
	failRecord(t, store, remaining, docstore.ErrCodeServerError, &past)

	stamped, err := store.MarkExhausted(ctx)
	if err != nil {
		t.Fatalf("MarkExhausted failed: %v", err)
	}
	if stamped != 1 {
		t.Fatalf("expected one stamped record, got %d", stamped)
	}

	fetched, err := store.GetByID(ctx, spent.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.ErrorCode != docstore.ErrCodeMaxRetries {
		t.Fatalf("expected terminal code, got %s", fetched.ErrorCode)
	}
	if fetched.NextRetryAt != nil {
		t.Fatal("expected retry schedule cleared")
	}

	untouched, err := store.GetByID(ctx, remaining.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if untouched.ErrorCode != docstore.ErrCodeServerError {
		t.Fatalf("expected untouched record to keep its code, got %s", untouched.ErrorCode)
	}
}
