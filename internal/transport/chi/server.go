package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	chiv5 "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/docuseek/docrag/internal/domain"
)

// contextSeparator joins retrieved chunks into a single prompt context block.
const contextSeparator = "\n\n---\n\n"

const (
	codeBadRequest       = "bad_request"
	codeNotFound         = "document_not_found"
	codeEmptyContent     = "empty_content"
	codeModelUnavailable = "model_unavailable"
	codeInternalError    = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes document ingestion and retrieval over HTTP.
type Server struct {
	sources       SourceStore
	chunks        ChunkDeleter
	ingester      Ingester
	retriever     Retriever
	pinger        Pinger
	embHealth     domain.HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

func NewServer(
	sources SourceStore,
	chunks ChunkDeleter,
	ingester Ingester,
	retriever Retriever,
	pinger Pinger,
	embHealth domain.HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		sources:   sources,
		chunks:    chunks,
		ingester:  ingester,
		retriever: retriever,
		pinger:    pinger,
		embHealth: embHealth,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrEmptyContent, http.StatusUnprocessableEntity, codeEmptyContent),
		sentinelHandler(domain.ErrModelUnavailable, http.StatusBadGateway, codeModelUnavailable),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway, codeModelUnavailable),
	}
	return s
}

// Register mounts all routes on the given router.
func (s *Server) Register(r chiv5.Router) {
	r.Post("/documents/{documentID}/ingest", s.IngestDocument)
	r.Post("/documents/{documentID}/query", s.QueryDocument)
	r.Delete("/documents/{documentID}", s.DeleteDocument)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type ingestRequest struct {
	Text string `json:"text"`
}

type ingestResponse struct {
	DocumentID int64  `json:"document_id"`
	Status     string `json:"status"`
}

// IngestDocument handles POST /documents/{documentID}/ingest.
// The source text is saved synchronously, chunking and embedding run in
// the background.
func (s *Server) IngestDocument(w http.ResponseWriter, r *http.Request) {
	documentID, ok := s.documentID(w, r)
	if !ok {
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusUnprocessableEntity, codeEmptyContent, "text must not be empty")
		return
	}

	if err := s.sources.Save(r.Context(), documentID, req.Text); err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.ingester.IngestAsync(documentID, req.Text)

	writeJSON(w, http.StatusAccepted, ingestResponse{
		DocumentID: documentID,
		Status:     "accepted",
	})
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type queryResponse struct {
	DocumentID int64     `json:"document_id"`
	Chunks     []string  `json:"chunks"`
	Scores     []float64 `json:"scores"`
	Context    string    `json:"context"`
}

// QueryDocument handles POST /documents/{documentID}/query.
func (s *Server) QueryDocument(w http.ResponseWriter, r *http.Request) {
	documentID, ok := s.documentID(w, r)
	if !ok {
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "query must not be empty")
		return
	}
	if req.TopK < 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "top_k must not be negative")
		return
	}

	res, err := s.retriever.Retrieve(r.Context(), documentID, req.Query, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		DocumentID: documentID,
		Chunks:     res.Chunks,
		Scores:     res.Scores,
		Context:    strings.Join(res.Chunks, contextSeparator),
	})
}

// DeleteDocument handles DELETE /documents/{documentID}. Removes both the
// stored chunks and the saved source text. Deleting an unknown document
// succeeds.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	documentID, ok := s.documentID(w, r)
	if !ok {
		return
	}

	if err := s.chunks.Delete(r.Context(), documentID); err != nil {
		s.handleDomainError(w, err)
		return
	}
	if err := s.sources.Delete(r.Context(), documentID); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	healthy := true

	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			checks["store"] = "unhealthy"
			healthy = false
		} else {
			checks["store"] = "ok"
		}
	}
	if s.embHealth != nil {
		if err := s.embHealth.HealthCheck(r.Context()); err != nil {
			checks["embedding"] = "unhealthy"
			healthy = false
		} else {
			checks["embedding"] = "ok"
		}
	}

	status, httpStatus := "ok", http.StatusOK
	if !healthy {
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: status, Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) documentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chiv5.URLParam(r, "documentID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "document id must be a positive integer")
		return 0, false
	}
	return id, true
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrEmptyContent,
		domain.ErrModelUnavailable,
		domain.ErrVectorDimMismatch,
	}
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
