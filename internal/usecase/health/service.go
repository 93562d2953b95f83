package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure: matching still works with
	// fewer signals or the brute-force backend.
	Degraded Status = "degraded"
	// Unhealthy indicates the cache store is down, which the engine
	// cannot operate without.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store     StorePinger
	embedding EmbeddingChecker
	vectors   VectorStoreChecker
}

// New creates a Service. embedding and vectors can be nil.
func New(store StorePinger, embedding EmbeddingChecker, vectors VectorStoreChecker) *Service {
	return &Service{store: store, embedding: embedding, vectors: vectors}
}

// Check runs health checks against all components. A failing embedding
// provider or vector store degrades the service; a failing store takes
// it down, since both the embedding cache and the brute-force fallback
// live there.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	storeOK := true
	if err := s.store.Ping(ctx); err != nil {
		checks["store"] = CheckError
		storeOK = false
	} else {
		checks["store"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.vectors != nil {
		if s.vectors.Reachable(ctx) {
			checks["vector_store"] = CheckOK
		} else {
			checks["vector_store"] = CheckError
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if !storeOK {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}
