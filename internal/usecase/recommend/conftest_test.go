package recommend

import (
	"context"
	"sync"

	"github.com/unilink/scholarmatch/internal/domain"
	"github.com/unilink/scholarmatch/internal/usecase/match"
)

type mockMatcher struct {
	mu    sync.Mutex
	resp  match.Response
	err   error
	calls int
}

func (m *mockMatcher) Match(_ context.Context, _ match.Request) (match.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return match.Response{}, m.err
	}
	return m.resp, nil
}

func (m *mockMatcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// memBatchStore is an in-memory BatchStore with real lock semantics.
type memBatchStore struct {
	mu      sync.Mutex
	batches map[string]domain.RecommendationBatch
	locks   map[string]bool
	// denyLock forces AcquireLock to report the lock as held elsewhere.
	denyLock bool
}

func newMemBatchStore() *memBatchStore {
	return &memBatchStore{
		batches: map[string]domain.RecommendationBatch{},
		locks:   map[string]bool{},
	}
}

func (s *memBatchStore) Get(_ context.Context, fingerprint string) (domain.RecommendationBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.batches[fingerprint]
	if !ok {
		return domain.RecommendationBatch{}, domain.ErrBatchNotFound
	}
	return batch, nil
}

func (s *memBatchStore) Put(_ context.Context, batch domain.RecommendationBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[batch.Fingerprint] = batch
	return nil
}

func (s *memBatchStore) AcquireLock(_ context.Context, fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.denyLock || s.locks[fingerprint] {
		return false, nil
	}
	s.locks[fingerprint] = true
	return true, nil
}

func (s *memBatchStore) ReleaseLock(_ context.Context, fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, fingerprint)
}

func (s *memBatchStore) seed(batch domain.RecommendationBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[batch.Fingerprint] = batch
}

type stubTexts struct {
	text string
	err  error
}

func (s *stubTexts) CanonicalText(_ context.Context, _ string) (string, error) {
	return s.text, s.err
}

type stubJustifier struct {
	prose string
	err   error
}

func (s *stubJustifier) Justify(_ context.Context, _ JustificationContext) (string, error) {
	return s.prose, s.err
}
