package index

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/unilink/scholarmatch/internal/domain"
)

func TestIndex_EligibleProfile(t *testing.T) {
	svc, embed, vectors, mirror := newTestService(t)

	if err := svc.Index(context.Background(), eligibleAcademician()); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if embed.calls != 1 {
		t.Fatalf("expected 1 embed call, got %d", embed.calls)
	}
	if got := vectors.upserts["sm_academician"]; len(got) != 1 || got[0] != "acad:1" {
		t.Fatalf("unexpected upserts: %v", vectors.upserts)
	}
	if got := mirror.puts["sm_academician"]; len(got) != 1 {
		t.Fatalf("vector must be mirrored: %v", mirror.puts)
	}
}

func TestIndex_IneligibleProfileEvicted(t *testing.T) {
	svc, embed, vectors, mirror := newTestService(t)

	p := eligibleAcademician()
	p.Expertise = []string{"[]"} // toggled back to placeholder

	err := svc.Index(context.Background(), p)
	if !errors.Is(err, domain.ErrProfileNotEligible) {
		t.Fatalf("expected ErrProfileNotEligible, got %v", err)
	}
	if embed.calls != 0 {
		t.Fatal("ineligible profile must not be embedded")
	}
	if got := vectors.deletes["sm_academician"]; len(got) != 1 || got[0] != "acad:1" {
		t.Fatalf("stale vector must be deleted: %v", vectors.deletes)
	}
	if got := mirror.deletes["sm_academician"]; len(got) != 1 {
		t.Fatalf("mirrored vector must be deleted: %v", mirror.deletes)
	}
}

func TestIndex_EmptyDocumentEvicted(t *testing.T) {
	embed := &mockEmbedder{vec: []float32{1}}
	vectors := newMockVectorIndex()
	mirror := newMockMirror()
	svc := New(&mockBuilder{doc: ""}, embed, vectors, mirror, "sm_", zap.NewNop())

	err := svc.Index(context.Background(), eligibleAcademician())
	if !errors.Is(err, domain.ErrNoVector) {
		t.Fatalf("expected ErrNoVector, got %v", err)
	}
	if embed.calls != 0 {
		t.Fatal("empty document must not reach the embedder")
	}
}

func TestIndex_EmbedFailurePropagates(t *testing.T) {
	svc, embed, vectors, _ := newTestService(t)
	embed.err = domain.ErrEmbeddingProviderError

	err := svc.Index(context.Background(), eligibleAcademician())
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if len(vectors.upserts) != 0 {
		t.Fatal("nothing must be upserted when embedding fails")
	}
}

func TestReindex_MixedBatch(t *testing.T) {
	svc, _, vectors, _ := newTestService(t)

	profiles := []domain.Profile{
		eligibleAcademician(),
		&domain.Academician{ID: "acad:2", Name: "Dr. Y", AvatarURL: "y.jpg", Expertise: []string{"cs-sec"}},
		&domain.Academician{ID: "acad:3", Name: "Dr. Z", AvatarURL: "z.jpg"}, // no interests
		nil,
	}

	res, err := svc.Reindex(context.Background(), profiles)
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if res.Indexed != 2 || res.Skipped != 2 || res.Failed != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if vectors.batches["sm_academician"] != 2 {
		t.Fatalf("expected 2 batched points, got %v", vectors.batches)
	}
}

func TestRemove(t *testing.T) {
	svc, _, vectors, mirror := newTestService(t)

	if err := svc.Remove(context.Background(), domain.KindPostgraduate, "pg:5"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := vectors.deletes["sm_postgraduate"]; len(got) != 1 || got[0] != "pg:5" {
		t.Fatalf("unexpected deletes: %v", vectors.deletes)
	}
	if got := mirror.deletes["sm_postgraduate"]; len(got) != 1 {
		t.Fatalf("mirror delete missing: %v", mirror.deletes)
	}
}
