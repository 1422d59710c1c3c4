package docstore_test

import (
	"testing"
	"time"

	"intake/internal/docstore"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  docstore.Status
		ok    bool
	}{
		{"pending", docstore.StatusPending, true},
		{"  Failed ", docstore.StatusFailed, true},
		{"COMPLETED", docstore.StatusCompleted, true},
		{"ripped", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := docstore.ParseStatus(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseStatus(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestErrorCodeRetryable(t *testing.T) {
	retryable := []docstore.ErrorCode{
		docstore.ErrCodeTimeout,
		docstore.ErrCodeRateLimit,
		docstore.ErrCodeServerError,
		docstore.ErrCodeDNS,
		docstore.ErrCodeConnectionRefused,
		docstore.ErrCodeUnknown,
		docstore.ErrCodeStorageUpload,
	}
	for _, code := range retryable {
		if !code.Retryable() {
			t.Errorf("expected %s to be retryable", code)
		}
	}

	terminal := []docstore.ErrorCode{
		docstore.ErrCodeAuth,
		docstore.ErrCodeNotFound,
		docstore.ErrCodeFileTooLarge,
		docstore.ErrCodeMaxRetries,
	}
	for _, code := range terminal {
		if code.Retryable() {
			t.Errorf("expected %s to be terminal", code)
		}
	}
}

func TestCategoryForKind(t *testing.T) {
	if got := docstore.CategoryForKind(docstore.KindLicensePhoto); got != docstore.CategorySignup {
		t.Errorf("license photo: got %s", got)
	}
	if got := docstore.CategoryForKind(docstore.KindDamagePhoto); got != docstore.CategoryIncidentReport {
		t.Errorf("damage photo: got %s", got)
	}
	if got := docstore.CategoryForKind(docstore.KindOther); got != docstore.CategoryOther {
		t.Errorf("other: got %s", got)
	}
}

func TestFailAdvancesRetryCounter(t *testing.T) {
	record := &docstore.Record{Status: docstore.StatusProcessing, MaxRetries: 3}

	next := time.Now().UTC().Add(5 * time.Minute)
	record.Fail(docstore.ErrCodeTimeout, "fetch timed out", "", &next)
	if record.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", record.RetryCount)
	}
	if record.Status != docstore.StatusFailed {
		t.Fatalf("expected failed, got %s", record.Status)
	}
	if record.NextRetryAt == nil || !record.NextRetryAt.Equal(next) {
		t.Fatalf("expected next retry at %v, got %v", next, record.NextRetryAt)
	}

	record.Fail(docstore.ErrCodeNotFound, "gone", "", nil)
	if record.RetryCount != 2 {
		t.Fatalf("expected retry count 2, got %d", record.RetryCount)
	}
	if record.NextRetryAt != nil {
		t.Fatal("expected no retry scheduled for terminal code")
	}
}

func TestCompleteClearsFailureState(t *testing.T) {
	next := time.Now().UTC()
	record := &docstore.Record{
		Status:       docstore.StatusProcessing,
		ErrorCode:    docstore.ErrCodeTimeout,
		ErrorMessage: "fetch timed out",
		NextRetryAt:  &next,
	}

	record.Complete(time.Now().UTC())
	if record.Status != docstore.StatusCompleted {
		t.Fatalf("expected completed, got %s", record.Status)
	}
	if record.ErrorCode != "" || record.ErrorMessage != "" {
		t.Fatal("expected error fields cleared")
	}
	if record.NextRetryAt != nil {
		t.Fatal("expected retry schedule cleared")
	}
	if record.ProcessingCompletedAt == nil {
		t.Fatal("expected completion timestamp set")
	}
}

func TestRetryEligible(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	deleted := now

	cases := []struct {
		name   string
		record docstore.Record
		want   bool
	}{
		{"due failed record", docstore.Record{Status: docstore.StatusFailed, RetryCount: 1, MaxRetries: 3, ErrorCode: docstore.ErrCodeTimeout, NextRetryAt: &past}, true},
		{"no schedule", docstore.Record{Status: docstore.StatusFailed, RetryCount: 1, MaxRetries: 3, ErrorCode: docstore.ErrCodeTimeout}, true},
		{"not yet due", docstore.Record{Status: docstore.StatusFailed, RetryCount: 1, MaxRetries: 3, ErrorCode: docstore.ErrCodeTimeout, NextRetryAt: &future}, false},
		{"budget spent", docstore.Record{Status: docstore.StatusFailed, RetryCount: 3, MaxRetries: 3, ErrorCode: docstore.ErrCodeTimeout, NextRetryAt: &past}, false},
		{"terminal code", docstore.Record{Status: docstore.StatusFailed, RetryCount: 1, MaxRetries: 3, ErrorCode: docstore.ErrCodeAuth}, false},
		{"completed", docstore.Record{Status: docstore.StatusCompleted, RetryCount: 0, MaxRetries: 3}, false},
		{"soft deleted", docstore.Record{Status: docstore.StatusFailed, RetryCount: 1, MaxRetries: 3, ErrorCode: docstore.ErrCodeTimeout, NextRetryAt: &past, DeletedAt: &deleted}, false},
	}
	for _, tc := range cases {
		if got := tc.record.RetryEligible(now); got != tc.want {
			t.Errorf("%s: RetryEligible = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestMarkPermanentlyFailed(t *testing.T) {
	next := time.Now().UTC()
	record := &docstore.Record{
		Status:      docstore.StatusFailed,
		RetryCount:  3,
		MaxRetries:  3,
		ErrorCode:   docstore.ErrCodeTimeout,
		NextRetryAt: &next,
	}

	record.MarkPermanentlyFailed()
	if record.ErrorCode != docstore.ErrCodeMaxRetries {
		t.Fatalf("expected terminal code, got %s", record.ErrorCode)
	}
	if record.NextRetryAt != nil {
		t.Fatal("expected retry schedule cleared")
	}
	if !record.PermanentlyFailed() {
		t.Fatal("expected record to report permanent failure")
	}
	if record.RetryEligible(time.Now().UTC()) {
		t.Fatal("expected terminal record to never be eligible")
	}
}
