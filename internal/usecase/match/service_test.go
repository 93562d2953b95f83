package match

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/unilink/scholarmatch/internal/domain"
)

func newTestService(emb Embedder, vs VectorSearcher, mirror MirrorReader, opts Options) *Service {
	return NewService(emb, vs, mirror, domain.DefaultHeuristics(), "sm_", opts, zap.NewNop())
}

func TestMatch_BackoffLadderIsMonotonic(t *testing.T) {
	searcher := &stubSearcher{reachable: true} // always empty
	emb := &stubEmbedder{vec: []float32{1, 0}}
	svc := newTestService(emb, searcher, &stubMirror{records: map[string]domain.EmbeddingRecord{}}, Options{})

	resp, err := svc.Match(context.Background(), Request{
		Query:      "machine learning",
		TargetKind: domain.KindAcademician,
	})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected no results, got %d", len(resp.Results))
	}

	want := []float64{0.5, 0.35, 0.2}
	if len(searcher.thresholds) != len(want) {
		t.Fatalf("attempted thresholds %v, want %v", searcher.thresholds, want)
	}
	for i, th := range searcher.thresholds {
		if th != want[i] {
			t.Fatalf("attempted thresholds %v, want %v", searcher.thresholds, want)
		}
		if i > 0 && th >= searcher.thresholds[i-1] {
			t.Fatalf("ladder not decreasing: %v", searcher.thresholds)
		}
	}
}

func TestMatch_BackoffStopsOnFirstHit(t *testing.T) {
	searcher := &stubSearcher{
		reachable: true,
		results: [][]domain.MatchResult{
			nil, // 0.5 comes back empty
			{{EntityID: "p1", Score: 0.4}}, // 0.35 hits
		},
	}
	emb := &stubEmbedder{vec: []float32{1, 0}}
	svc := newTestService(emb, searcher, &stubMirror{records: map[string]domain.EmbeddingRecord{}}, Options{})

	resp, err := svc.Match(context.Background(), Request{
		Query:      "machine learning",
		TargetKind: domain.KindAcademician,
	})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].EntityID != "p1" {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}
	if searcher.calls != 2 {
		t.Fatalf("expected ladder to stop after the hit, got %d attempts", searcher.calls)
	}
	if resp.Strategy != StrategyQuery {
		t.Errorf("strategy = %s, want %s", resp.Strategy, StrategyQuery)
	}
}

func TestMatch_VagueQueryWithoutProfileSearchesOnce(t *testing.T) {
	searcher := &stubSearcher{reachable: true} // always empty
	emb := &stubEmbedder{vec: []float32{1, 0}}
	svc := newTestService(emb, searcher, &stubMirror{records: map[string]domain.EmbeddingRecord{}}, Options{})

	resp, err := svc.Match(context.Background(), Request{
		Query:      "for me",
		TargetKind: domain.KindAcademician,
	})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if resp.Strategy != StrategyQuery {
		t.Fatalf("strategy = %s, want %s", resp.Strategy, StrategyQuery)
	}
	if len(searcher.thresholds) != 1 || searcher.thresholds[0] != DefaultScoreThreshold {
		t.Fatalf("attempted thresholds %v, want single attempt at %v", searcher.thresholds, DefaultScoreThreshold)
	}
}

func TestMatch_VagueQueryUsesProfileFloorWithoutBackoff(t *testing.T) {
	searcher := &stubSearcher{reachable: true} // empty: would backoff if allowed
	emb := &stubEmbedder{vec: []float32{1, 0}}
	mirror := &stubMirror{records: map[string]domain.EmbeddingRecord{
		"u1": {ExternalID: "u1", Vector: []float32{0, 1}},
	}}
	svc := newTestService(emb, searcher, mirror, Options{})

	resp, err := svc.Match(context.Background(), Request{
		Query:         "find supervisor for me",
		RequesterID:   "u1",
		RequesterKind: domain.KindPostgraduate,
		TargetKind:    domain.KindAcademician,
	})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if resp.Strategy != StrategyProfile {
		t.Fatalf("strategy = %s, want %s", resp.Strategy, StrategyProfile)
	}
	if emb.calls != 0 {
		t.Errorf("vague query with a profile signal must not be embedded, got %d calls", emb.calls)
	}
	if len(searcher.thresholds) != 1 || searcher.thresholds[0] != DefaultVagueThreshold {
		t.Fatalf("attempted thresholds %v, want single attempt at %v", searcher.thresholds, DefaultVagueThreshold)
	}
}

// vecKeyedSearcher answers by the first component of the query vector so
// the parallel blended searches get deterministic, distinct result sets.
type vecKeyedSearcher struct {
	mu      sync.Mutex
	byKey   map[float32][]domain.MatchResult
	failKey float32
	fail    bool
}

func (s *vecKeyedSearcher) Search(
	ctx context.Context, _ string, vector []float32, _ int, _ float64, _ map[string]string,
) ([]domain.MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail && s.failKey == vector[0] {
		return nil, context.DeadlineExceeded
	}
	return s.byKey[vector[0]], nil
}

func (s *vecKeyedSearcher) Reachable(_ context.Context) bool { return true }

func TestMatch_BlendedMergesBothSignals(t *testing.T) {
	// Key 1 answers the query signal, key 0 the profile signal.
	searcher := &vecKeyedSearcher{byKey: map[float32][]domain.MatchResult{
		1: {{EntityID: "x", Score: 0.8}},
		0: {{EntityID: "x", Score: 0.6}, {EntityID: "y", Score: 0.9}},
	}}
	emb := &stubEmbedder{vec: []float32{1, 0}}
	mirror := &stubMirror{records: map[string]domain.EmbeddingRecord{
		"u1": {ExternalID: "u1", Vector: []float32{0, 1}},
	}}
	svc := newTestService(emb, searcher, mirror, Options{})

	resp, err := svc.Match(context.Background(), Request{
		Query:         "machine learning",
		RequesterID:   "u1",
		RequesterKind: domain.KindPostgraduate,
		TargetKind:    domain.KindAcademician,
	})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if resp.Strategy != StrategyBlended {
		t.Fatalf("strategy = %s, want %s", resp.Strategy, StrategyBlended)
	}
	if len(resp.Results) != 2 || resp.Results[0].EntityID != "x" || resp.Results[1].EntityID != "y" {
		t.Fatalf("unexpected blend: %+v", resp.Results)
	}
	if math.Abs(resp.Results[0].Score-0.72) > 1e-9 || math.Abs(resp.Results[1].Score-0.36) > 1e-9 {
		t.Fatalf("unexpected blended scores: %+v", resp.Results)
	}
}

func TestMatch_BlendedDegradesWhenOneSignalFails(t *testing.T) {
	// The profile-signal search (vector [0,1]) fails; the request must
	// still succeed on the query signal alone.
	searcher := &vecKeyedSearcher{
		byKey: map[float32][]domain.MatchResult{
			1: {{EntityID: "x", Score: 0.8}},
		},
		failKey: 0,
		fail:    true,
	}
	emb := &stubEmbedder{vec: []float32{1, 0}}
	mirror := &stubMirror{records: map[string]domain.EmbeddingRecord{
		"u1": {ExternalID: "u1", Vector: []float32{0, 1}},
	}}
	svc := newTestService(emb, searcher, mirror, Options{})

	resp, err := svc.Match(context.Background(), Request{
		Query:         "machine learning",
		RequesterID:   "u1",
		RequesterKind: domain.KindPostgraduate,
		TargetKind:    domain.KindAcademician,
	})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if resp.Strategy != StrategyQuery {
		t.Fatalf("strategy = %s, want degraded %s", resp.Strategy, StrategyQuery)
	}
	if len(resp.Results) != 1 || resp.Results[0].EntityID != "x" {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}
	if resp.Results[0].Score != 0.8 {
		t.Errorf("degraded single-signal score must stay raw, got %v", resp.Results[0].Score)
	}
}

func TestMatch_BlankRequestRejected(t *testing.T) {
	searcher := &stubSearcher{reachable: true}
	emb := &stubEmbedder{vec: []float32{1, 0}}
	svc := newTestService(emb, searcher, &stubMirror{records: map[string]domain.EmbeddingRecord{}}, Options{})

	_, err := svc.Match(context.Background(), Request{
		Query:      "   ",
		TargetKind: domain.KindAcademician,
	})
	if !errors.Is(err, domain.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
	if emb.calls != 0 || searcher.calls != 0 {
		t.Errorf("blank request must not embed or search, got %d/%d calls", emb.calls, searcher.calls)
	}
}

func TestMatch_NoSignalFailsFast(t *testing.T) {
	searcher := &stubSearcher{reachable: true}
	emb := &stubEmbedder{err: domain.ErrEmbeddingProviderError}
	svc := newTestService(emb, searcher, &stubMirror{records: map[string]domain.EmbeddingRecord{}}, Options{})

	_, err := svc.Match(context.Background(), Request{
		Query:      "machine learning",
		TargetKind: domain.KindAcademician,
	})
	if !errors.Is(err, domain.ErrNoVector) {
		t.Fatalf("expected ErrNoVector, got %v", err)
	}
	if searcher.calls != 0 {
		t.Errorf("no search should run without a signal, got %d calls", searcher.calls)
	}
}

func TestMatch_UnreachableStoreFallsBackToBruteForce(t *testing.T) {
	searcher := &stubSearcher{reachable: false}
	emb := &stubEmbedder{vec: []float32{1, 0}}
	mirror := &stubMirror{records: map[string]domain.EmbeddingRecord{
		"a1": {ExternalID: "a1", Vector: []float32{1, 0}},
	}}
	svc := newTestService(emb, searcher, mirror, Options{})

	resp, err := svc.Match(context.Background(), Request{
		Query:      "machine learning",
		TargetKind: domain.KindAcademician,
	})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if resp.Backend != BackendBruteForce {
		t.Fatalf("backend = %s, want %s", resp.Backend, BackendBruteForce)
	}
	if searcher.calls != 0 {
		t.Errorf("unreachable store must not be searched, got %d calls", searcher.calls)
	}
	if len(resp.Results) != 1 || resp.Results[0].EntityID != "a1" {
		t.Fatalf("unexpected brute-force results: %+v", resp.Results)
	}
	if resp.Results[0].Score < 0.999 {
		t.Errorf("self-similarity score = %v, want ~1.0", resp.Results[0].Score)
	}
}
