package docstore

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a document record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// ErrorCode classifies a pipeline failure. The set is closed; the fetcher
// and orchestrator never record a code outside it.
type ErrorCode string

const (
	ErrCodeAuth              ErrorCode = "AUTH_ERROR"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeTimeout           ErrorCode = "TIMEOUT"
	ErrCodeRateLimit         ErrorCode = "RATE_LIMIT"
	ErrCodeServerError       ErrorCode = "SERVER_ERROR"
	ErrCodeDNS               ErrorCode = "DNS_ERROR"
	ErrCodeConnectionRefused ErrorCode = "CONNECTION_REFUSED"
	ErrCodeFileTooLarge      ErrorCode = "FILE_TOO_LARGE"
	ErrCodeUnknown           ErrorCode = "UNKNOWN_ERROR"
	ErrCodeStorageUpload     ErrorCode = "STORAGE_UPLOAD_ERROR"
	ErrCodeMaxRetries        ErrorCode = "MAX_RETRIES_EXCEEDED"
)

// nonRetryableCodes are failure classes where another attempt cannot
// succeed: the upstream rejected us outright, the file does not exist, the
// file exceeds the cap (it will not shrink), or the budget is spent.
var nonRetryableCodes = map[ErrorCode]struct{}{
	ErrCodeAuth:         {},
	ErrCodeNotFound:     {},
	ErrCodeFileTooLarge: {},
	ErrCodeMaxRetries:   {},
}

// Retryable reports whether a failure with this code may be retried.
func (c ErrorCode) Retryable() bool {
	_, terminal := nonRetryableCodes[c]
	return !terminal
}

// NonRetryableErrorCodes returns the codes the sweeper must never select.
func NonRetryableErrorCodes() []ErrorCode {
	codes := make([]ErrorCode, 0, len(nonRetryableCodes))
	for code := range nonRetryableCodes {
		codes = append(codes, code)
	}
	return codes
}

// DocumentKind identifies what kind of file a record holds.
type DocumentKind string

const (
	KindLicensePhoto  DocumentKind = "license_photo"
	KindVehiclePhoto  DocumentKind = "vehicle_photo"
	KindMapScreenshot DocumentKind = "map_screenshot"
	KindDamagePhoto   DocumentKind = "damage_photo"
	KindOther         DocumentKind = "other"
)

// DocumentCategory groups kinds by the product flow that produced them.
type DocumentCategory string

const (
	CategorySignup         DocumentCategory = "signup"
	CategoryIncidentReport DocumentCategory = "incident_report"
	CategoryOther          DocumentCategory = "other"
)

// CategoryForKind maps a document kind to its default category.
func CategoryForKind(kind DocumentKind) DocumentCategory {
	switch kind {
	case KindLicensePhoto, KindVehiclePhoto:
		return CategorySignup
	case KindMapScreenshot, KindDamagePhoto:
		return CategoryIncidentReport
	default:
		return CategoryOther
	}
}

// Record represents a document record persisted in SQLite.
type Record struct {
	ID               string
	OwnerID          string
	DocumentKind     DocumentKind
	DocumentCategory DocumentCategory
	AssociatedWith   string
	AssociatedID     string
	SourceType       string
	SourceURL        string
	SourceField      string

	StorageBucket string
	StoragePath   string
	FileSize      int64
	MimeType      string
	FileExtension string

	OriginalChecksum string
	CurrentChecksum  string

	Status       Status
	RetryCount   int
	MaxRetries   int
	NextRetryAt  *time.Time
	ErrorMessage string
	ErrorCode    ErrorCode
	ErrorDetails string

	SignedURL          string
	SignedURLExpiresAt *time.Time

	DeletedAt             *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
	ProcessingStartedAt   *time.Time
	ProcessingCompletedAt *time.Time
	LastRetryAt           *time.Time
}

// BeginProcessing marks the record as an in-flight attempt.
func (r *Record) BeginProcessing(now time.Time) {
	r.Status = StatusProcessing
	r.ProcessingStartedAt = &now
	r.ErrorMessage = ""
	r.ErrorCode = ""
	r.ErrorDetails = ""
}

// Complete marks the record as fully ingested and clears retry scheduling.
func (r *Record) Complete(now time.Time) {
	r.Status = StatusCompleted
	r.ProcessingCompletedAt = &now
	r.NextRetryAt = nil
	r.ErrorMessage = ""
	r.ErrorCode = ""
	r.ErrorDetails = ""
}

// Fail records a failed attempt. The retry counter always advances; a
// next-retry time is scheduled only when the caller supplies one.
func (r *Record) Fail(code ErrorCode, message, details string, nextRetryAt *time.Time) {
	r.Status = StatusFailed
	r.RetryCount++
	r.ErrorCode = code
	r.ErrorMessage = message
	r.ErrorDetails = details
	r.NextRetryAt = nextRetryAt
}

// MarkPermanentlyFailed flips the record into its terminal failed state
// once the retry budget is spent. No sweep selects it afterwards.
func (r *Record) MarkPermanentlyFailed() {
	r.Status = StatusFailed
	r.ErrorCode = ErrCodeMaxRetries
	if r.ErrorMessage == "" {
		r.ErrorMessage = "retry budget exhausted"
	}
	r.NextRetryAt = nil
}

// PermanentlyFailed reports whether the record has spent its retry budget.
func (r *Record) PermanentlyFailed() bool {
	return r.Status == StatusFailed && r.RetryCount >= r.MaxRetries
}

// RetryEligible reports whether a sweep may pick this record up at the
// given instant.
func (r *Record) RetryEligible(now time.Time) bool {
	if r.Status != StatusFailed || r.DeletedAt != nil {
		return false
	}
	if r.RetryCount >= r.MaxRetries {
		return false
	}
	if r.ErrorCode != "" && !r.ErrorCode.Retryable() {
		return false
	}
	return r.NextRetryAt == nil || !r.NextRetryAt.After(now)
}
