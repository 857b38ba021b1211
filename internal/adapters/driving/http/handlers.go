package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// RetrieveRequest is the body of POST /api/retrieve.
type RetrieveRequest struct {
	Query     string         `json:"query"`
	TopK      *int           `json:"top_k,omitempty"`
	Threshold *float64       `json:"threshold,omitempty"`
	Filters   map[string]any `json:"filters,omitempty"`
}

// RetrieveResponse is returned by POST /api/retrieve.
type RetrieveResponse struct {
	Query   string                   `json:"query"`
	Results []domain.RetrievalResult `json:"results"`
	Count   int                      `json:"count"`
}

// RAGRequest is the body of POST /api/rag.
type RAGRequest struct {
	RetrieveRequest
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// StatsResponse is returned by GET /api/stats.
type StatsResponse struct {
	Status     string            `json:"status"`
	Statistics domain.IndexStats `json:"statistics"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "docrag",
		Version: s.version,
	})
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	opts, msg := req.options()
	if msg != "" {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	logger.Info("API: retrieve request - %s", preview(req.Query))
	results, err := s.retrievalService.Retrieve(r.Context(), req.Query, opts)
	if err != nil {
		writeServiceError(w, r, "retrieval", err)
		return
	}

	writeJSON(w, http.StatusOK, RetrieveResponse{
		Query:   req.Query,
		Results: results,
		Count:   len(results),
	})
}

func (s *Server) handleRAG(w http.ResponseWriter, r *http.Request) {
	var req RAGRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	retrieveOpts, msg := req.options()
	if msg == "" && req.MaxTokens != nil && *req.MaxTokens <= 0 {
		msg = "max_tokens must be positive"
	}
	if msg == "" && req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		msg = "temperature must be between 0 and 2"
	}
	if msg != "" {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	opts := domain.AnswerOptions{
		Retrieve:    retrieveOpts,
		Temperature: req.Temperature,
	}
	if req.MaxTokens != nil {
		opts.MaxTokens = *req.MaxTokens
	}

	logger.Info("API: RAG request - %s", preview(req.Query))
	pkg, err := s.answerService.GenerateAnswer(r.Context(), req.Query, opts)
	if err != nil {
		writeServiceError(w, r, "RAG", err)
		return
	}

	writeJSON(w, http.StatusOK, pkg)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{
		Status:     "success",
		Statistics: s.retrievalService.Stats(),
	})
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	logger.Info("API: pipeline test request")
	writeJSON(w, http.StatusOK, s.answerService.TestPipeline(r.Context()))
}

// options validates the request and converts it to retrieval options.
// A non-empty message describes the first problem found.
func (req *RetrieveRequest) options() (domain.RetrieveOptions, string) {
	if strings.TrimSpace(req.Query) == "" {
		return domain.RetrieveOptions{}, "query is required"
	}
	opts := domain.RetrieveOptions{
		Threshold: req.Threshold,
		Filters:   req.Filters,
	}
	if req.TopK != nil {
		if *req.TopK <= 0 {
			return domain.RetrieveOptions{}, "top_k must be positive"
		}
		opts.TopK = *req.TopK
	}
	return opts, ""
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps service errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrEmbeddingUnavailable), errors.Is(err, domain.ErrLLMUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrEmbedding), errors.Is(err, domain.ErrGeneration):
		status = http.StatusBadGateway
	}

	logger.Error("%s API error [%s]: %v", op, RequestID(r.Context()), err)
	writeError(w, r, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, RequestID: RequestID(r.Context())})
}

func preview(query string) string {
	runes := []rune(query)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return query
}
