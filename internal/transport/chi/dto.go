package chi

import (
	"fmt"

	"github.com/unilink/scholarmatch/internal/domain"
)

// ErrorCode identifies an API error category for clients.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest              ErrorCode = "bad_request"
	CodeValidationFailed        ErrorCode = "validation_failed"
	CodeProfileNotFound         ErrorCode = "profile_not_found"
	CodeBatchNotFound           ErrorCode = "batch_not_found"
	CodeProfileNotEligible      ErrorCode = "profile_not_eligible"
	CodeNoVector                ErrorCode = "no_vector"
	CodeVectorDimMismatch       ErrorCode = "vector_dim_mismatch"
	CodeUnknownModel            ErrorCode = "unknown_model"
	CodeEmbeddingProviderError  ErrorCode = "embedding_provider_error"
	CodeVectorStoreUnavailable  ErrorCode = "vector_store_unavailable"
	CodeInternalError           ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// MatchRequest is the POST /v1/match body.
type MatchRequest struct {
	Query         string            `json:"query"`
	RequesterID   string            `json:"requester_id,omitempty"`
	RequesterKind string            `json:"requester_kind,omitempty"`
	TargetKind    string            `json:"target_kind"`
	Filter        map[string]string `json:"filter,omitempty"`
	Limit         int               `json:"limit,omitempty"`
}

// MatchResultItem is one scored hit in a match response.
type MatchResultItem struct {
	EntityID string            `json:"entity_id"`
	Score    float64           `json:"score"`
	Payload  map[string]string `json:"payload,omitempty"`
}

// MatchResponse is the POST /v1/match reply.
type MatchResponse struct {
	Results  []MatchResultItem `json:"results"`
	Strategy string            `json:"strategy"`
	Backend  string            `json:"backend"`
}

// RecommendationRequest is the POST /v1/recommendations body.
type RecommendationRequest struct {
	RequesterID   string `json:"requester_id"`
	RequesterKind string `json:"requester_kind"`
	CorpusKind    string `json:"corpus_kind"`
	Query         string `json:"query,omitempty"`
	ProgramType   string `json:"program_type,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

// ReindexResponse reports a bulk reindex outcome.
type ReindexResponse struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// HealthResponse is the GET /health reply.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ProfileDTO is the wire form of a profile, discriminated by kind.
type ProfileDTO struct {
	Kind         string   `json:"kind"`
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Biography    string   `json:"biography,omitempty"`
	Position     string   `json:"position,omitempty"`
	Institution  string   `json:"institution,omitempty"`
	AvatarURL    string   `json:"avatar_url,omitempty"`
	Interests    []string `json:"interests,omitempty"`
	Publications []string `json:"publications,omitempty"`
	GPA          float64  `json:"gpa,omitempty"`
	Description  string   `json:"description,omitempty"`
	Faculty      string   `json:"faculty,omitempty"`
	Level        string   `json:"level,omitempty"`
}

// toDomain maps the wire form onto the profile variant its kind names.
func (d ProfileDTO) toDomain() (domain.Profile, error) {
	switch domain.Kind(d.Kind) {
	case domain.KindAcademician:
		return &domain.Academician{
			ID:           d.ID,
			Name:         d.Name,
			Biography:    d.Biography,
			Position:     d.Position,
			Institution:  d.Institution,
			AvatarURL:    d.AvatarURL,
			Expertise:    d.Interests,
			Publications: d.Publications,
		}, nil
	case domain.KindPostgraduate:
		return &domain.Postgraduate{
			ID:           d.ID,
			Name:         d.Name,
			Biography:    d.Biography,
			Institution:  d.Institution,
			AvatarURL:    d.AvatarURL,
			Interests:    d.Interests,
			Publications: d.Publications,
		}, nil
	case domain.KindUndergraduate:
		return &domain.Undergraduate{
			ID:          d.ID,
			Name:        d.Name,
			Biography:   d.Biography,
			Institution: d.Institution,
			AvatarURL:   d.AvatarURL,
			Interests:   d.Interests,
			GPA:         d.GPA,
		}, nil
	case domain.KindProgram:
		return &domain.Program{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Institution: d.Institution,
			Faculty:     d.Faculty,
			Level:       d.Level,
			Fields:      d.Interests,
		}, nil
	default:
		return nil, fmt.Errorf("unknown profile kind %q", d.Kind)
	}
}

// parseKind validates a kind string from the wire.
func parseKind(s string) (domain.Kind, error) {
	switch k := domain.Kind(s); k {
	case domain.KindAcademician, domain.KindPostgraduate, domain.KindUndergraduate, domain.KindProgram:
		return k, nil
	default:
		return "", fmt.Errorf("unknown profile kind %q", s)
	}
}
