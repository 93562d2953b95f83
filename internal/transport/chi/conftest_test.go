package chi

import (
	"context"
	"net/http/httptest"
	"sync"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unilink/scholarmatch/internal/domain"
	"github.com/unilink/scholarmatch/internal/repository/qdrant"
	healthuc "github.com/unilink/scholarmatch/internal/usecase/health"
	indexuc "github.com/unilink/scholarmatch/internal/usecase/index"
	matchuc "github.com/unilink/scholarmatch/internal/usecase/match"
	recommenduc "github.com/unilink/scholarmatch/internal/usecase/recommend"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vec}, nil
}

type fakeSearcher struct {
	results   []domain.MatchResult
	reachable bool
}

func (f *fakeSearcher) Search(
	_ context.Context, _ string, _ []float32, _ int, _ float64, _ map[string]string,
) ([]domain.MatchResult, error) {
	return f.results, nil
}

func (f *fakeSearcher) Reachable(_ context.Context) bool { return f.reachable }

// fakeMirror backs both the match MirrorReader and the index Mirror.
type fakeMirror struct {
	mu      sync.Mutex
	records map[string]domain.EmbeddingRecord
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{records: map[string]domain.EmbeddingRecord{}}
}

func (f *fakeMirror) Get(_ context.Context, _, externalID string) (domain.EmbeddingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[externalID]
	if !ok {
		return domain.EmbeddingRecord{}, domain.ErrProfileNotFound
	}
	return rec, nil
}

func (f *fakeMirror) All(_ context.Context, _ string) ([]domain.EmbeddingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.EmbeddingRecord, 0, len(f.records))
	for _, rec := range f.records {
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeMirror) Put(_ context.Context, _ string, rec domain.EmbeddingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.ExternalID] = rec
	return nil
}

func (f *fakeMirror) PutMulti(_ context.Context, _ string, recs []domain.EmbeddingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range recs {
		f.records[rec.ExternalID] = rec
	}
	return nil
}

func (f *fakeMirror) Delete(_ context.Context, _, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, externalID)
	return nil
}

type fakeVectorIndex struct {
	mu      sync.Mutex
	upserts int
	deletes int
}

func (f *fakeVectorIndex) EnsureCollection(_ context.Context, _ string) error { return nil }

func (f *fakeVectorIndex) Upsert(_ context.Context, _, _ string, _ []float32, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	return nil
}

func (f *fakeVectorIndex) BatchUpsert(_ context.Context, _ string, points []qdrant.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts += len(points)
	return nil
}

func (f *fakeVectorIndex) Delete(_ context.Context, _ string, ids ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes += len(ids)
	return nil
}

type fakeBuilder struct{}

func (fakeBuilder) Build(p domain.Profile) string {
	if domain.DisplayName(p) == "" {
		return ""
	}
	return domain.DisplayName(p) + " document"
}

type fakeBatchStore struct {
	mu      sync.Mutex
	batches map[string]domain.RecommendationBatch
}

func newFakeBatchStore() *fakeBatchStore {
	return &fakeBatchStore{batches: map[string]domain.RecommendationBatch{}}
}

func (f *fakeBatchStore) Get(_ context.Context, fp string) (domain.RecommendationBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch, ok := f.batches[fp]
	if !ok {
		return domain.RecommendationBatch{}, domain.ErrBatchNotFound
	}
	return batch, nil
}

func (f *fakeBatchStore) Put(_ context.Context, batch domain.RecommendationBatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches[batch.Fingerprint] = batch
	return nil
}

func (f *fakeBatchStore) AcquireLock(_ context.Context, _ string) (bool, error) { return true, nil }

func (f *fakeBatchStore) ReleaseLock(_ context.Context, _ string) {}

type fakeTexts struct{ text string }

func (f *fakeTexts) CanonicalText(_ context.Context, _ string) (string, error) {
	return f.text, nil
}

type fakeJustifier struct{ prose string }

func (f *fakeJustifier) Justify(_ context.Context, _ recommenduc.JustificationContext) (string, error) {
	return f.prose, nil
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(_ context.Context) error { return f.err }

// testHarness wires a full server around in-memory fakes.
type testHarness struct {
	srv      *httptest.Server
	searcher *fakeSearcher
	mirror   *fakeMirror
	vectors  *fakeVectorIndex
	batches  *fakeBatchStore
	embedder *fakeEmbedder
}

func newTestHarness() *testHarness {
	logger := zap.NewNop()
	embedder := &fakeEmbedder{vec: []float32{1, 0}}
	searcher := &fakeSearcher{reachable: true}
	mirror := newFakeMirror()
	vectors := &fakeVectorIndex{}
	batches := newFakeBatchStore()

	matchSvc := matchuc.NewService(embedder, searcher, mirror, domain.DefaultHeuristics(), "sm_", matchuc.Options{}, logger)
	indexSvc := indexuc.New(fakeBuilder{}, embedder, vectors, mirror, "sm_", logger)
	recommendSvc := recommenduc.NewService(matchSvc, batches, &fakeTexts{text: "cv"}, &fakeJustifier{prose: "overlap"}, logger)
	healthSvc := healthuc.New(&fakePinger{}, nil, searcher)

	server := NewServer(matchSvc, recommendSvc, indexSvc, healthSvc, logger)
	r := chirouter.NewRouter()
	server.Routes(r)

	return &testHarness{
		srv:      httptest.NewServer(r),
		searcher: searcher,
		mirror:   mirror,
		vectors:  vectors,
		batches:  batches,
		embedder: embedder,
	}
}

func (h *testHarness) close() { h.srv.Close() }
