package match

import (
	"context"
	"sync"

	"github.com/unilink/scholarmatch/internal/domain"
)

type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	s.calls++
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: s.vec}, nil
}

// stubSearcher records every attempted threshold and replies from a
// scripted queue: results[i] answers the i-th Search call. The mutex
// keeps it safe under the parallel blended-search path.
type stubSearcher struct {
	mu         sync.Mutex
	results    [][]domain.MatchResult
	err        error
	reachable  bool
	thresholds []float64
	calls      int
}

func (s *stubSearcher) Search(
	_ context.Context, _ string, _ []float32, _ int, scoreThreshold float64, _ map[string]string,
) ([]domain.MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds = append(s.thresholds, scoreThreshold)
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.results) == 0 {
		return nil, nil
	}
	out := s.results[0]
	s.results = s.results[1:]
	return out, nil
}

func (s *stubSearcher) Reachable(_ context.Context) bool { return s.reachable }

type stubMirror struct {
	records map[string]domain.EmbeddingRecord // externalID -> record
}

func (s *stubMirror) Get(_ context.Context, _, externalID string) (domain.EmbeddingRecord, error) {
	rec, ok := s.records[externalID]
	if !ok {
		return domain.EmbeddingRecord{}, domain.ErrProfileNotFound
	}
	return rec, nil
}

func (s *stubMirror) All(_ context.Context, _ string) ([]domain.EmbeddingRecord, error) {
	out := make([]domain.EmbeddingRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out, nil
}
