package domain

import "time"

// MatchResult is a single scored hit against the profile corpus.
// Rank is positional in the returned slice, not stored.
type MatchResult struct {
	EntityID string
	Score    float64
	Payload  map[string]string
}

// EmbeddingRecord is a stored profile vector plus its reverse-lookup payload.
type EmbeddingRecord struct {
	ExternalID string
	Kind       Kind
	Vector     []float32
	Payload    map[string]string
}

// RecommendationRow pairs a matched entity with its score and optional
// human-readable justification prose.
type RecommendationRow struct {
	EntityID      string    `json:"entity_id"`
	Score         float64   `json:"score"`
	Justification string    `json:"justification,omitempty"`
	MatchedAt     time.Time `json:"matched_at"`
}

// RecommendationBatch is the persisted outcome of one expensive matching
// pipeline run. A batch is immutable once written; a changed input produces
// a new fingerprint, never a mutation.
type RecommendationBatch struct {
	Fingerprint string              `json:"fingerprint"`
	RequesterID string              `json:"requester_id"`
	CorpusID    string              `json:"corpus_id"`
	Rows        []RecommendationRow `json:"rows"`
	CreatedAt   time.Time           `json:"created_at"`
}
