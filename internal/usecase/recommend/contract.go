package recommend

import (
	"context"

	"github.com/unilink/scholarmatch/internal/domain"
	"github.com/unilink/scholarmatch/internal/usecase/match"
)

// Matcher runs the expensive similarity pipeline.
type Matcher interface {
	Match(ctx context.Context, req match.Request) (match.Response, error)
}

// BatchStore persists batches and arbitrates the per-fingerprint lock
// across instances.
type BatchStore interface {
	Get(ctx context.Context, fingerprint string) (domain.RecommendationBatch, error)
	Put(ctx context.Context, batch domain.RecommendationBatch) error
	AcquireLock(ctx context.Context, fingerprint string) (bool, error)
	ReleaseLock(ctx context.Context, fingerprint string)
}

// TextProvider extracts the requester's canonical profile/CV text. An
// empty string means no text signal, never an error condition.
type TextProvider interface {
	CanonicalText(ctx context.Context, requesterID string) (string, error)
}

// JustificationContext is the structured input handed to the prose
// generator for one matched row.
type JustificationContext struct {
	RequesterText string
	EntityID      string
	EntityPayload map[string]string
	Score         float64
}

// Justifier turns a match into a human-readable explanation. A failed or
// empty response omits the prose, never the row.
type Justifier interface {
	Justify(ctx context.Context, jc JustificationContext) (string, error)
}
