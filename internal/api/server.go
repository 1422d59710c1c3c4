package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"intake/internal/config"
	"intake/internal/docstore"
	"intake/internal/ingest"
	"intake/internal/logging"
	"intake/internal/services"
	"intake/internal/sweep"
)

// Server exposes the pipeline over HTTP.
type Server struct {
	bind    string
	token   string
	logger  *slog.Logger
	store   *docstore.Store
	orch    *ingest.Orchestrator
	sweeper *sweep.Sweeper

	listener net.Listener
	server   *http.Server
}

// NewServer assembles the HTTP surface. The listener starts with Start.
func NewServer(cfg *config.Config, store *docstore.Store, orch *ingest.Orchestrator, sweeper *sweep.Sweeper, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	srv := &Server{
		bind:    strings.TrimSpace(cfg.Paths.APIBind),
		token:   cfg.Paths.APIToken,
		logger:  logger.With(logging.String(logging.FieldComponent, "api-server")),
		store:   store,
		orch:    orch,
		sweeper: sweeper,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/documents", srv.handleDocuments)
	mux.HandleFunc("/api/documents/", srv.handleDocument)
	mux.HandleFunc("/api/documents/batch", srv.handleBatch)
	mux.HandleFunc("/api/sweep", srv.handleSweep)
	mux.HandleFunc("/api/status", srv.handleStatus)

	srv.server = &http.Server{
		Handler:           authMiddleware(srv.token, mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Handler returns the full HTTP surface, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving and shuts down when ctx ends.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down, draining in-flight requests briefly.
func (s *Server) Stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

// Addr reports the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createIngestion(w, r)
	case http.MethodGet:
		s.listDocuments(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) createIngestion(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	params, err := createParams(req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := s.orch.Ingest(r.Context(), params)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, ViewFromRecord(record))
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	var statuses []docstore.Status
	for _, value := range r.URL.Query()["status"] {
		status, ok := docstore.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		statuses = append(statuses, status)
	}

	var (
		records []*docstore.Record
		err     error
	)
	if owner := strings.TrimSpace(r.URL.Query().Get("owner")); owner != "" {
		records, err = s.store.ListByOwner(r.Context(), owner, statuses...)
	} else {
		records, err = s.store.List(r.Context(), statuses...)
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, ListResponse{Documents: viewsFromRecords(records)})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Documents) == 0 {
		s.writeError(w, http.StatusBadRequest, "empty batch")
		return
	}

	requests := make([]docstore.CreateParams, len(req.Documents))
	for i, doc := range req.Documents {
		params, err := createParams(doc)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("document %d: %s", i, err))
			return
		}
		requests[i] = params
	}

	results := s.orch.IngestBatch(r.Context(), requests)
	views := make([]RecordView, 0, len(results))
	for _, result := range results {
		if result.Err != nil {
			s.writeServiceError(w, result.Err)
			return
		}
		views = append(views, ViewFromRecord(result.Record))
	}
	s.writeJSON(w, http.StatusOK, BatchResponse{Results: views})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	} else if r.ContentLength > 0 {
		var req SweepRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		limit = req.Limit
	}

	summary, err := s.sweeper.Sweep(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	if rest == "" {
		s.writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if rest == "batch" {
		s.handleBatch(w, r)
		return
	}

	id, action, _ := strings.Cut(rest, "/")
	switch {
	case action == "" && r.Method == http.MethodGet:
		s.showDocument(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		s.deleteDocument(w, r, id)
	case action == "retry" && r.Method == http.MethodPost:
		s.retryDocument(w, r, id)
	case action != "" && action != "retry":
		s.writeError(w, http.StatusNotFound, "document not found")
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) showDocument(w http.ResponseWriter, r *http.Request, id string) {
	record, err := s.store.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		s.writeError(w, http.StatusNotFound, "document not found")
		return
	}
	s.writeJSON(w, http.StatusOK, ViewFromRecord(record))
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request, id string) {
	deleted, err := s.store.SoftDelete(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		s.writeError(w, http.StatusNotFound, "document not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) retryDocument(w http.ResponseWriter, r *http.Request, id string) {
	record, err := s.sweeper.SweepOne(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ViewFromRecord(record))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	health, err := s.store.Health(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, StatusResponse{
		Running: true,
		PID:     os.Getpid(),
		DBPath:  s.store.Path(),
		Records: health,
	})
}

func createParams(req IngestRequest) (docstore.CreateParams, error) {
	kind := docstore.DocumentKind(strings.TrimSpace(req.DocumentKind))
	if kind == "" {
		kind = docstore.KindOther
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		return docstore.CreateParams{}, errors.New("ownerId is required")
	}
	if strings.TrimSpace(req.SourceURL) == "" {
		return docstore.CreateParams{}, errors.New("sourceUrl is required")
	}
	return docstore.CreateParams{
		OwnerID:        req.OwnerID,
		DocumentKind:   kind,
		SourceURL:      req.SourceURL,
		SourceType:     req.SourceType,
		SourceField:    req.SourceField,
		AssociatedWith: req.AssociatedWith,
		AssociatedID:   req.AssociatedID,
	}, nil
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
