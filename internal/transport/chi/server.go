// Package chi is the HTTP transport: hand-written handlers over a chi
// router, mapping domain sentinels onto status codes.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/unilink/scholarmatch/internal/domain"
	healthuc "github.com/unilink/scholarmatch/internal/usecase/health"
	indexuc "github.com/unilink/scholarmatch/internal/usecase/index"
	matchuc "github.com/unilink/scholarmatch/internal/usecase/match"
	recommenduc "github.com/unilink/scholarmatch/internal/usecase/recommend"
)

const maxReindexBatch = 500

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the matching engine over HTTP.
type Server struct {
	match         *matchuc.Service
	recommend     *recommenduc.Service
	index         *indexuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	match *matchuc.Service,
	recommend *recommenduc.Service,
	index *indexuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		match:     match,
		recommend: recommend,
		index:     index,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrProfileNotFound, http.StatusNotFound, CodeProfileNotFound),
		sentinelHandler(domain.ErrBatchNotFound, http.StatusNotFound, CodeBatchNotFound),
		sentinelHandler(domain.ErrProfileNotEligible, http.StatusUnprocessableEntity, CodeProfileNotEligible),
		sentinelHandler(domain.ErrNoVector, http.StatusUnprocessableEntity, CodeNoVector),
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, CodeVectorDimMismatch),
		sentinelHandler(domain.ErrUnknownModel, http.StatusBadGateway, CodeUnknownModel),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrVectorStoreUnavailable, http.StatusServiceUnavailable, CodeVectorStoreUnavailable),
	}
	return s
}

// Routes mounts all handlers on a router.
func (s *Server) Routes(r chirouter.Router) {
	r.Post("/v1/match", s.handleMatch)
	r.Post("/v1/recommendations", s.handleRecommend)
	r.Get("/v1/recommendations/{fingerprint}", s.handleGetRecommendation)
	r.Put("/v1/profiles/{id}/index", s.handleIndexProfile)
	r.Delete("/v1/profiles/{id}/index", s.handleRemoveProfile)
	r.Post("/v1/profiles/reindex", s.handleReindex)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// handleMatch handles POST /v1/match.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	targetKind, err := parseKind(req.TargetKind)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	if req.Query == "" && req.RequesterID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query or requester_id is required")
		return
	}
	var requesterKind domain.Kind
	if req.RequesterKind != "" {
		if requesterKind, err = parseKind(req.RequesterKind); err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
			return
		}
	}

	resp, err := s.match.Match(r.Context(), matchuc.Request{
		Query:         req.Query,
		RequesterID:   req.RequesterID,
		RequesterKind: requesterKind,
		TargetKind:    targetKind,
		Filter:        req.Filter,
		Limit:         req.Limit,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]MatchResultItem, len(resp.Results))
	for i, m := range resp.Results {
		items[i] = MatchResultItem{EntityID: m.EntityID, Score: m.Score, Payload: m.Payload}
	}
	writeJSON(w, http.StatusOK, MatchResponse{
		Results:  items,
		Strategy: resp.Strategy,
		Backend:  resp.Backend,
	})
}

// handleRecommend handles POST /v1/recommendations. The operation is
// idempotent per fingerprint, so a repeat request returns the stored batch.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.RequesterID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "requester_id is required")
		return
	}
	requesterKind, err := parseKind(req.RequesterKind)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	corpusKind, err := parseKind(req.CorpusKind)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	batch, err := s.recommend.Recommend(r.Context(), recommenduc.Request{
		RequesterID:   req.RequesterID,
		RequesterKind: requesterKind,
		CorpusKind:    corpusKind,
		Query:         req.Query,
		ProgramType:   req.ProgramType,
		Limit:         req.Limit,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

// handleGetRecommendation handles GET /v1/recommendations/{fingerprint}.
func (s *Server) handleGetRecommendation(w http.ResponseWriter, r *http.Request) {
	fingerprint := chirouter.URLParam(r, "fingerprint")
	batch, err := s.recommend.Get(r.Context(), fingerprint)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

// handleIndexProfile handles PUT /v1/profiles/{id}/index.
func (s *Server) handleIndexProfile(w http.ResponseWriter, r *http.Request) {
	var dto ProfileDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	dto.ID = chirouter.URLParam(r, "id")

	profile, err := dto.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	if err := s.index.Index(r.Context(), profile); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRemoveProfile handles DELETE /v1/profiles/{id}/index.
func (s *Server) handleRemoveProfile(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	if err := s.index.Remove(r.Context(), kind, chirouter.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReindex handles POST /v1/profiles/reindex.
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Profiles []ProfileDTO `json:"profiles"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Profiles) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "profiles is required")
		return
	}
	if len(req.Profiles) > maxReindexBatch {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "too many profiles in one batch")
		return
	}

	profiles := make([]domain.Profile, 0, len(req.Profiles))
	for _, dto := range req.Profiles {
		p, err := dto.toDomain()
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
			return
		}
		profiles = append(profiles, p)
	}

	result, err := s.index.Reindex(r.Context(), profiles)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReindexResponse{
		Indexed: result.Indexed,
		Skipped: result.Skipped,
		Failed:  result.Failed,
	})
}

// handleHealth handles GET /health. Degraded mode still answers 200: the
// engine keeps serving with fewer signals.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for name, result := range report.Checks {
		checks[name] = string(result)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// safeDomainMessage exposes sentinel text only; wrapped internals stay out
// of responses.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrProfileNotFound,
		domain.ErrBatchNotFound,
		domain.ErrProfileNotEligible,
		domain.ErrNoVector,
		domain.ErrEmptyQuery,
		domain.ErrVectorDimMismatch,
		domain.ErrUnknownModel,
		domain.ErrEmbeddingProviderError,
		domain.ErrVectorStoreUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
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
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
