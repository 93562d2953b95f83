package match

import (
	"context"

	"github.com/unilink/scholarmatch/internal/domain"
)

// VectorSearcher is the vector store surface the engine queries.
type VectorSearcher interface {
	Search(
		ctx context.Context, collection string,
		vector []float32, limit int, scoreThreshold float64,
		filter map[string]string,
	) ([]domain.MatchResult, error)
	Reachable(ctx context.Context) bool
}

// MirrorReader reads mirrored embedding records for the requester lookup and
// the brute-force fallback.
type MirrorReader interface {
	Get(ctx context.Context, collection, externalID string) (domain.EmbeddingRecord, error)
	All(ctx context.Context, collection string) ([]domain.EmbeddingRecord, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
