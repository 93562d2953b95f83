package index

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/unilink/scholarmatch/internal/domain"
	"github.com/unilink/scholarmatch/internal/repository/qdrant"
)

type mockBuilder struct {
	doc string
}

func (m *mockBuilder) Build(_ domain.Profile) string { return m.doc }

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 7}, nil
}

type mockVectorIndex struct {
	ensured  []string
	upserts  map[string][]string // collection -> external ids
	batches  map[string]int
	deletes  map[string][]string
	upsertEr error
}

func newMockVectorIndex() *mockVectorIndex {
	return &mockVectorIndex{
		upserts: map[string][]string{},
		batches: map[string]int{},
		deletes: map[string][]string{},
	}
}

func (m *mockVectorIndex) EnsureCollection(_ context.Context, name string) error {
	m.ensured = append(m.ensured, name)
	return nil
}

func (m *mockVectorIndex) Upsert(_ context.Context, collection, externalID string, _ []float32, _ map[string]string) error {
	if m.upsertEr != nil {
		return m.upsertEr
	}
	m.upserts[collection] = append(m.upserts[collection], externalID)
	return nil
}

func (m *mockVectorIndex) BatchUpsert(_ context.Context, collection string, points []qdrant.Point) error {
	m.batches[collection] += len(points)
	return nil
}

func (m *mockVectorIndex) Delete(_ context.Context, collection string, externalIDs ...string) error {
	m.deletes[collection] = append(m.deletes[collection], externalIDs...)
	return nil
}

type mockMirror struct {
	puts    map[string][]string
	deletes map[string][]string
}

func newMockMirror() *mockMirror {
	return &mockMirror{puts: map[string][]string{}, deletes: map[string][]string{}}
}

func (m *mockMirror) Put(_ context.Context, collection string, rec domain.EmbeddingRecord) error {
	m.puts[collection] = append(m.puts[collection], rec.ExternalID)
	return nil
}

func (m *mockMirror) PutMulti(ctx context.Context, collection string, recs []domain.EmbeddingRecord) error {
	for _, rec := range recs {
		if err := m.Put(ctx, collection, rec); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockMirror) Delete(_ context.Context, collection, externalID string) error {
	m.deletes[collection] = append(m.deletes[collection], externalID)
	return nil
}

func newTestService(t *testing.T) (*Service, *mockEmbedder, *mockVectorIndex, *mockMirror) {
	t.Helper()
	embed := &mockEmbedder{vec: []float32{1, 0, 0}}
	vectors := newMockVectorIndex()
	mirror := newMockMirror()
	svc := New(&mockBuilder{doc: "Name: X Research Expertise: NLP"}, embed, vectors, mirror, "sm_", zap.NewNop())
	return svc, embed, vectors, mirror
}

func eligibleAcademician() *domain.Academician {
	return &domain.Academician{
		ID:        "acad:1",
		Name:      "Dr. X",
		AvatarURL: "https://cdn.example/u/acad1.jpg",
		Expertise: []string{"cs-ai-nlp"},
	}
}
