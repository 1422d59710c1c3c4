package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"intake/internal/docstore"
)

// Result carries a successfully downloaded document.
type Result struct {
	Bytes       []byte
	ContentType string
	FileName    string
}

// Fetcher downloads documents over HTTP within configured limits.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	timeout  time.Duration
}

// Options configures a Fetcher.
type Options struct {
	MaxBytes int64
	Timeout  time.Duration
	// Client overrides the HTTP client, primarily for tests.
	Client *http.Client
}

// NewFetcher builds a Fetcher from options, applying safe fallbacks.
func NewFetcher(opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{client: client, maxBytes: maxBytes, timeout: timeout}
}

// Fetch downloads the document at rawURL. Failures come back as *Error
// with a classification code; the fetcher never panics and never reads
// more than the configured cap plus one byte.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{
			Code:    docstore.ErrCodeUnknown,
			Message: fmt.Sprintf("invalid source url %q", rawURL),
			Err:     err,
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Code: docstore.ErrCodeUnknown, Message: "build request", Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode)
	}

	if resp.ContentLength > f.maxBytes {
		return nil, &Error{
			Code:    docstore.ErrCodeFileTooLarge,
			Message: fmt.Sprintf("declared size %d exceeds cap %d", resp.ContentLength, f.maxBytes),
		}
	}

	// Read one byte past the cap so an undeclared oversize body is caught.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, &Error{
			Code:    docstore.ErrCodeFileTooLarge,
			Message: fmt.Sprintf("body exceeds cap %d", f.maxBytes),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if idx := strings.IndexByte(contentType, ';'); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}

	return &Result{
		Bytes:       body,
		ContentType: contentType,
		FileName:    fileNameFor(parsed, resp.Header.Get("Content-Disposition")),
	}, nil
}

// MaxBytes reports the configured download cap.
func (f *Fetcher) MaxBytes() int64 {
	return f.maxBytes
}

func fileNameFor(parsed *url.URL, disposition string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := strings.TrimSpace(params["filename"]); name != "" {
				return path.Base(name)
			}
		}
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" || name == "" {
		return "document"
	}
	return name
}
