package scholarmatch

import "time"

// Kind discriminates profile variants on the wire.
type Kind string

// Profile kinds.
const (
	KindAcademician   Kind = "academician"
	KindPostgraduate  Kind = "postgraduate"
	KindUndergraduate Kind = "undergraduate"
	KindProgram       Kind = "program"
)

// MatchRequest asks for ranked matches against a corpus.
type MatchRequest struct {
	Query         string            `json:"query"`
	RequesterID   string            `json:"requester_id,omitempty"`
	RequesterKind Kind              `json:"requester_kind,omitempty"`
	TargetKind    Kind              `json:"target_kind"`
	Filter        map[string]string `json:"filter,omitempty"`
	Limit         int               `json:"limit,omitempty"`
}

// MatchResult is one scored hit.
type MatchResult struct {
	EntityID string            `json:"entity_id"`
	Score    float64           `json:"score"`
	Payload  map[string]string `json:"payload,omitempty"`
}

// MatchResponse carries ranked matches plus how they were obtained.
type MatchResponse struct {
	Results  []MatchResult `json:"results"`
	Strategy string        `json:"strategy"`
	Backend  string        `json:"backend"`
}

// RecommendationRequest asks for an idempotent recommendation batch.
type RecommendationRequest struct {
	RequesterID   string `json:"requester_id"`
	RequesterKind Kind   `json:"requester_kind"`
	CorpusKind    Kind   `json:"corpus_kind"`
	Query         string `json:"query,omitempty"`
	ProgramType   string `json:"program_type,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

// RecommendationRow is one entity in a batch.
type RecommendationRow struct {
	EntityID      string    `json:"entity_id"`
	Score         float64   `json:"score"`
	Justification string    `json:"justification,omitempty"`
	MatchedAt     time.Time `json:"matched_at"`
}

// RecommendationBatch is the persisted outcome of one matching run.
// Repeat requests with the same defining inputs return the same batch.
type RecommendationBatch struct {
	Fingerprint string              `json:"fingerprint"`
	RequesterID string              `json:"requester_id"`
	CorpusID    string              `json:"corpus_id"`
	Rows        []RecommendationRow `json:"rows"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Profile is the wire form of any profile variant, discriminated by Kind.
// Interests holds expertise for academicians and fields for programs.
type Profile struct {
	Kind         Kind     `json:"kind"`
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

// ReindexResult reports a bulk reindex outcome.
type ReindexResult struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Health is the service health report.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
