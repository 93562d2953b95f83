package domain

import "errors"

var (
	// ErrNoVector signals that no embedding could be produced for the input.
	ErrNoVector = errors.New("no vector")
	// ErrProfileNotFound signals a missing profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrProfileNotEligible signals a profile that fails the indexing gate.
	ErrProfileNotEligible = errors.New("profile not eligible for indexing")
	// ErrVectorStoreUnavailable signals an unreachable vector store backend.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrUnknownModel signals a misconfigured embedding model name.
	ErrUnknownModel = errors.New("unknown embedding model")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrBatchNotFound signals a missing recommendation batch.
	ErrBatchNotFound = errors.New("recommendation batch not found")
	// ErrEmptyQuery signals a query that is empty after normalization.
	ErrEmptyQuery = errors.New("empty query")
)
