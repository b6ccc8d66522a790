package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	chiv5 "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pivotlog/pivotlog/internal/domain"
	"github.com/pivotlog/pivotlog/internal/domain/search/mode"
	"github.com/pivotlog/pivotlog/internal/domain/search/query"
	backfilluc "github.com/pivotlog/pivotlog/internal/usecase/backfill"
	decisionuc "github.com/pivotlog/pivotlog/internal/usecase/decision"
	healthuc "github.com/pivotlog/pivotlog/internal/usecase/health"
	searchuc "github.com/pivotlog/pivotlog/internal/usecase/search"
)

// providerKeyHeader carries an optional caller-supplied upstream API key,
// overriding the configured embedding/answer credentials for that request.
const providerKeyHeader = "X-Provider-Api-Key"

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API over the search core.
type Server struct {
	search        *searchuc.Service
	backfill      *backfilluc.Service
	decisions     *decisionuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	backfill *backfilluc.Service,
	decisions *decisionuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:    search,
		backfill:  backfill,
		decisions: decisions,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrDecisionNotFound, http.StatusNotFound, codeDecisionNotFound),
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, codeUnauthorized),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderErr),
		sentinelHandler(domain.ErrAnswerProviderError, http.StatusBadGateway, codeAnswerProviderErr),
	}
	return s
}

// Routes mounts all API handlers on the router.
func (s *Server) Routes(r chiv5.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chiv5.Router) {
		r.Get("/search", s.LegacySearch)
		r.Post("/search/semantic", s.SemanticSearch)
		r.Post("/search/hybrid", s.HybridSearch)
		r.Post("/search/keyword", s.KeywordSearch)
		r.Post("/embeddings/backfill", s.Backfill)

		r.Get("/decisions", s.ListDecisions)
		r.Put("/decisions/{id}", s.PutDecision)
		r.Get("/decisions/{id}", s.GetDecision)
		r.Delete("/decisions/{id}", s.DeleteDecision)
	})
}

// SemanticSearch handles POST /api/v1/search/semantic.
func (s *Server) SemanticSearch(w http.ResponseWriter, r *http.Request) {
	s.handleSearch(w, r, mode.Semantic, "")
}

// HybridSearch handles POST /api/v1/search/hybrid.
func (s *Server) HybridSearch(w http.ResponseWriter, r *http.Request) {
	s.handleSearch(w, r, mode.Hybrid, "hybrid")
}

// KeywordSearch handles POST /api/v1/search/keyword.
func (s *Server) KeywordSearch(w http.ResponseWriter, r *http.Request) {
	s.handleSearch(w, r, mode.Keyword, "")
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, m mode.Mode, searchType string) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing owner identity")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	// Semantic requests name their threshold minSimilarity, the others minScore.
	minScore, minScoreSet := 0.0, false
	if m == mode.Semantic && req.MinSimilarity != nil {
		minScore, minScoreSet = *req.MinSimilarity, true
	} else if req.MinScore != nil {
		minScore, minScoreSet = *req.MinScore, true
	}

	q, err := query.New(
		req.Query, m, req.Category, req.Limit,
		minScore, minScoreSet,
		r.Header.Get(providerKeyHeader),
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results, total, err := s.search.Search(r.Context(), owner, &q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:      req.Query,
		Results:    resultsToDTO(results, m != mode.Semantic),
		Total:      total,
		SearchType: searchType,
	})
}

// LegacySearch handles GET /api/v1/search: semantic search with keyword
// fallback plus a synthesized answer over the top matches.
func (s *Server) LegacySearch(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing owner identity")
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, `query parameter "q" is required`)
		return
	}

	topK := 0
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "top_k must be a positive integer")
			return
		}
		topK = parsed
	}

	answer, results, err := s.search.Ask(r.Context(), owner, q, topK, r.Header.Get(providerKeyHeader))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, legacySearchResponse{
		Query:   q,
		Results: resultsToDTO(results, false),
		Answer:  answer,
	})
}

// Backfill handles POST /api/v1/embeddings/backfill.
func (s *Server) Backfill(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing owner identity")
		return
	}

	var req backfillRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	report, err := s.backfill.Run(r.Context(), owner, req.DecisionIDs, r.Header.Get(providerKeyHeader))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, backfillResponse{
		Message:      "Backfill complete",
		SuccessCount: report.SuccessCount,
		ErrorCount:   report.ErrorCount,
		Total:        report.Total,
	})
}

// PutDecision handles PUT /api/v1/decisions/{id}.
func (s *Server) PutDecision(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing owner identity")
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	in := decisionuc.IngestInput{
		ID:             chiv5.URLParam(r, "id"),
		ProjectID:      req.ProjectID,
		DocumentID:     req.DocumentID,
		Statement:      req.Decision,
		Rationale:      req.Rationale,
		Summary:        req.Summary,
		Category:       req.Category,
		Confidence:     req.Confidence,
		EvidenceQuotes: req.EvidenceQuotes,
		Status:         req.Status,
	}
	if req.ExtractedAt != nil {
		in.ExtractedAt = *req.ExtractedAt
	}

	d, created, err := s.decisions.Ingest(r.Context(), owner, in, r.Header.Get(providerKeyHeader))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, decisionToDTO(d))
}

// GetDecision handles GET /api/v1/decisions/{id}.
func (s *Server) GetDecision(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing owner identity")
		return
	}

	d, err := s.decisions.Get(r.Context(), owner, chiv5.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decisionToDTO(d))
}

// DeleteDecision handles DELETE /api/v1/decisions/{id}.
func (s *Server) DeleteDecision(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing owner identity")
		return
	}

	if err := s.decisions.Delete(r.Context(), owner, chiv5.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDecisions handles GET /api/v1/decisions.
func (s *Server) ListDecisions(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing owner identity")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	items, nextCursor, err := s.decisions.List(
		r.Context(), owner,
		r.URL.Query().Get("category"),
		r.URL.Query().Get("cursor"),
		limit,
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	dtos := make([]decisionDTO, len(items))
	for i, d := range items {
		dtos[i] = decisionToDTO(d)
	}
	writeJSON(w, http.StatusOK, listDecisionsResponse{
		Items:      dtos,
		NextCursor: nextCursor,
		HasMore:    nextCursor != "",
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrDecisionNotFound,
		domain.ErrUnauthorized,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrAnswerProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
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
