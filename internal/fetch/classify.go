package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"

	"intake/internal/docstore"
)

// Error is a classified fetch failure. Code is always one of the closed
// docstore error codes.
type Error struct {
	Code    docstore.ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify extracts the error code from any error produced by Fetch.
// Unrecognized errors map to UNKNOWN_ERROR.
func Classify(err error) docstore.ErrorCode {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return docstore.ErrCodeUnknown
}

func classifyStatus(status int) *Error {
	message := fmt.Sprintf("upstream returned %d %s", status, http.StatusText(status))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Code: docstore.ErrCodeAuth, Message: message}
	case status == http.StatusNotFound:
		return &Error{Code: docstore.ErrCodeNotFound, Message: message}
	case status == http.StatusTooManyRequests:
		return &Error{Code: docstore.ErrCodeRateLimit, Message: message}
	case status >= 500:
		return &Error{Code: docstore.ErrCodeServerError, Message: message}
	default:
		return &Error{Code: docstore.ErrCodeUnknown, Message: message}
	}
}

func classifyTransportError(err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: docstore.ErrCodeTimeout, Message: "fetch timed out", Err: err}
	case isDNSError(err):
		return &Error{Code: docstore.ErrCodeDNS, Message: "dns lookup failed", Err: err}
	case isConnectionRefused(err):
		return &Error{Code: docstore.ErrCodeConnectionRefused, Message: "connection refused", Err: err}
	case isTimeout(err):
		return &Error{Code: docstore.ErrCodeTimeout, Message: "fetch timed out", Err: err}
	default:
		return &Error{Code: docstore.ErrCodeUnknown, Message: "fetch failed", Err: err}
	}
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectionRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) && errors.Is(sysErr.Err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(err.Error(), "connection refused")
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
