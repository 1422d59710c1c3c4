package testsupport

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// Upstream is an in-process HTTP server standing in for a document host.
type Upstream struct {
	Server *httptest.Server
	hits   atomic.Int64
}

// NewUpstream starts a server that answers every request with the given
// status and body. The server shuts down with the test.
func NewUpstream(t testing.TB, status int, body []byte, contentType string) *Upstream {
	t.Helper()

	up := &Upstream{}
	up.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up.hits.Add(1)
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		if len(body) > 0 {
			_, _ = w.Write(body)
		}
	}))
	t.Cleanup(up.Server.Close)
	return up
}

// NewUpstreamFunc starts a server with a custom handler. The server shuts
// down with the test.
func NewUpstreamFunc(t testing.TB, handler http.HandlerFunc) *Upstream {
	t.Helper()

	up := &Upstream{}
	up.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up.hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(up.Server.Close)
	return up
}

// URL returns the upstream base URL.
func (u *Upstream) URL() string {
	return u.Server.URL
}

// Hits reports how many requests the upstream has served.
func (u *Upstream) Hits() int64 {
	return u.hits.Load()
}
