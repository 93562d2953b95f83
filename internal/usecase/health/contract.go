package health

import "context"

// StorePinger checks cache/mirror store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// VectorStoreChecker probes the vector index.
type VectorStoreChecker interface {
	Reachable(ctx context.Context) bool
}
