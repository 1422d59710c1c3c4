package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"intake/internal/api"
	"intake/internal/blobstore"
	"intake/internal/config"
	"intake/internal/docstore"
	"intake/internal/fetch"
	"intake/internal/ingest"
	"intake/internal/logging"
	"intake/internal/sweep"
	"intake/internal/testsupport"
)

type fixture struct {
	cfg     *config.Config
	store   *docstore.Store
	handler http.Handler
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithBaseDelay(0))
	cfg.Paths.APIToken = token
	store := testsupport.MustOpenStore(t, cfg)
	blobs, err := blobstore.NewLocal(cfg.Storage.LocalDir, cfg.Storage.LocalSignSecret)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	fetcher := fetch.NewFetcher(fetch.Options{MaxBytes: cfg.Fetch.MaxBytes, Timeout: cfg.FetchTimeout()})
	orch := ingest.NewOrchestrator(store, blobs, fetcher, cfg, logging.NewNop())
	sweeper := sweep.NewSweeper(store, orch, cfg, logging.NewNop())
	server := api.NewServer(cfg, store, orch, sweeper, logging.NewNop())
	return &fixture{cfg: cfg, store: store, handler: server.Handler()}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestCreateIngestionEndpoint(t *testing.T) {
	up := testsupport.NewUpstream(t, http.StatusOK, []byte("jpeg"), "image/jpeg")
	fx := newFixture(t, "")

	rec := fx.do(t, http.MethodPost, "/api/documents", api.IngestRequest{
		OwnerID:      "driver-1",
		DocumentKind: "damage_photo",
		SourceURL:    up.URL() + "/damage.jpg",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	view := decode[api.RecordView](t, rec)
	if view.Status != "completed" {
		t.Fatalf("expected completed, got %s", view.Status)
	}
	if view.SignedURL == "" || view.StoragePath == "" {
		t.Fatalf("expected signed url and storage path: %+v", view)
	}
	if len(view.Checksum) != 64 {
		t.Fatalf("expected 64-hex checksum, got %q", view.Checksum)
	}
}

func TestCreateIngestionValidation(t *testing.T) {
	fx := newFixture(t, "")

	rec := fx.do(t, http.MethodPost, "/api/documents", api.IngestRequest{SourceURL: "https://example.com/a.jpg"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing owner, got %d", rec.Code)
	}

	rec = fx.do(t, http.MethodPost, "/api/documents", api.IngestRequest{OwnerID: "driver-1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing url, got %d", rec.Code)
	}
}

func TestBatchEndpointReportsPerDocument(t *testing.T) {
	up := testsupport.NewUpstream(t, http.StatusOK, []byte("jpeg"), "image/jpeg")
	fx := newFixture(t, "")

	rec := fx.do(t, http.MethodPost, "/api/documents/batch", api.BatchRequest{
		Documents: []api.IngestRequest{
			{OwnerID: "driver-1", DocumentKind: "license_photo", SourceURL: up.URL() + "/1.jpg"},
			{OwnerID: "driver-1", DocumentKind: "vehicle_photo", SourceURL: "not a url"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[api.BatchResponse](t, rec)
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Status != "completed" {
		t.Fatalf("expected first completed, got %s", resp.Results[0].Status)
	}
	if resp.Results[1].Status != "failed" {
		t.Fatalf("expected second failed, got %s", resp.Results[1].Status)
	}
}

func TestSweepEndpoint(t *testing.T) {
	up := testsupport.NewUpstream(t, http.StatusServiceUnavailable, nil, "")
	fx := newFixture(t, "")

	rec := fx.do(t, http.MethodPost, "/api/documents", api.IngestRequest{
		OwnerID:      "driver-1",
		DocumentKind: "damage_photo",
		SourceURL:    up.URL() + "/flaky.jpg",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec = fx.do(t, http.MethodPost, "/api/sweep", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	summary := decode[sweep.Summary](t, rec)
	if summary.Processed != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestDocumentLookupAndDelete(t *testing.T) {
	up := testsupport.NewUpstream(t, http.StatusOK, []byte("png"), "image/png")
	fx := newFixture(t, "")

	created := decode[api.RecordView](t, fx.do(t, http.MethodPost, "/api/documents", api.IngestRequest{
		OwnerID:      "driver-2",
		DocumentKind: "map_screenshot",
		SourceURL:    up.URL() + "/map.png",
	}))

	rec := fx.do(t, http.MethodGet, "/api/documents/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	fetched := decode[api.RecordView](t, rec)
	if fetched.ID != created.ID {
		t.Fatalf("expected same record, got %s", fetched.ID)
	}

	rec = fx.do(t, http.MethodGet, "/api/documents?owner=driver-2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	listing := decode[api.ListResponse](t, rec)
	if len(listing.Documents) != 1 {
		t.Fatalf("expected one document, got %d", len(listing.Documents))
	}

	rec = fx.do(t, http.MethodDelete, "/api/documents/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = fx.do(t, http.MethodGet, "/api/documents/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestRetryEndpoint(t *testing.T) {
	fx := newFixture(t, "")

	rec := fx.do(t, http.MethodPost, "/api/documents/no-such-id/retry", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	fx := newFixture(t, "")

	rec := fx.do(t, http.MethodGet, "/api/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	status := decode[api.StatusResponse](t, rec)
	if !status.Running || status.DBPath == "" {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestBearerAuth(t *testing.T) {
	fx := newFixture(t, "secret-token")

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	fx.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	fx.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec = httptest.NewRecorder()
	fx.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	fx := newFixture(t, "")

	rec := fx.do(t, http.MethodPut, "/api/documents", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	rec = fx.do(t, http.MethodGet, "/api/sweep", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
