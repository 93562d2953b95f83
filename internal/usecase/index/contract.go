package index

import (
	"context"

	"github.com/unilink/scholarmatch/internal/domain"
	"github.com/unilink/scholarmatch/internal/repository/qdrant"
)

// TextBuilder renders a profile into its embedding document.
type TextBuilder interface {
	Build(p domain.Profile) string
}

// VectorIndex is the vector store surface the indexer writes to.
type VectorIndex interface {
	EnsureCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, collection, externalID string, vector []float32, payload map[string]string) error
	BatchUpsert(ctx context.Context, collection string, points []qdrant.Point) error
	Delete(ctx context.Context, collection string, externalIDs ...string) error
}

// Mirror is the local record store kept in lockstep with the vector index.
type Mirror interface {
	Put(ctx context.Context, collection string, rec domain.EmbeddingRecord) error
	PutMulti(ctx context.Context, collection string, recs []domain.EmbeddingRecord) error
	Delete(ctx context.Context, collection, externalID string) error
}

// Embedder vectorizes documents.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
