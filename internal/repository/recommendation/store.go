// Package recommendation persists computed recommendation batches keyed by
// their request fingerprint, plus the short-lived locks guarding computation.
package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unilink/scholarmatch/internal/db"
	"github.com/unilink/scholarmatch/internal/domain"
)

// DefaultKeyPrefix namespaces keys when no prefix is configured.
const DefaultKeyPrefix = "scholarmatch:"

const (
	batchKeySuffix = "rec_batch:"
	lockKeySuffix  = "rec_lock:"
)

// DefaultLockTTL bounds how long a crashed computation can hold a fingerprint.
const DefaultLockTTL = 2 * time.Minute

// store is the consumer interface (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

// Store reads and writes recommendation batches.
type Store struct {
	store   store
	prefix  string
	lockTTL time.Duration
	logger  *zap.Logger
}

// New creates a batch store. keyPrefix namespaces all keys.
func New(s store, keyPrefix string, lockTTL time.Duration, logger *zap.Logger) *Store {
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Store{store: s, prefix: keyPrefix, lockTTL: lockTTL, logger: logger}
}

func (s *Store) batchKey(fingerprint string) string {
	return s.prefix + batchKeySuffix + fingerprint
}

func (s *Store) lockKey(fingerprint string) string {
	return s.prefix + lockKeySuffix + fingerprint
}

// Get returns the batch for a fingerprint, or ErrBatchNotFound.
func (s *Store) Get(ctx context.Context, fingerprint string) (domain.RecommendationBatch, error) {
	data, err := s.store.Get(ctx, s.batchKey(fingerprint))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.RecommendationBatch{}, domain.ErrBatchNotFound
		}
		return domain.RecommendationBatch{}, fmt.Errorf("get batch %s: %w", fingerprint, err)
	}

	var batch domain.RecommendationBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return domain.RecommendationBatch{}, fmt.Errorf("decode batch %s: %w", fingerprint, err)
	}
	return batch, nil
}

// Put persists a batch. Batches are immutable: the caller only writes under
// the fingerprint lock, so a plain overwrite is safe.
func (s *Store) Put(ctx context.Context, batch domain.RecommendationBatch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode batch %s: %w", batch.Fingerprint, err)
	}
	if err := s.store.Set(ctx, s.batchKey(batch.Fingerprint), data); err != nil {
		return fmt.Errorf("put batch %s: %w", batch.Fingerprint, err)
	}
	return nil
}

// AcquireLock takes the cross-instance lock for a fingerprint. Returns false
// when another instance already holds it. The TTL releases locks abandoned
// by a crashed process.
func (s *Store) AcquireLock(ctx context.Context, fingerprint string) (bool, error) {
	ok, err := s.store.SetNX(ctx, s.lockKey(fingerprint), []byte("1"), s.lockTTL)
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", fingerprint, err)
	}
	return ok, nil
}

// ReleaseLock drops the fingerprint lock. Failures are logged, not
// propagated: the TTL is the backstop.
func (s *Store) ReleaseLock(ctx context.Context, fingerprint string) {
	if err := s.store.Del(ctx, s.lockKey(fingerprint)); err != nil && s.logger != nil {
		s.logger.Warn("Failed to release fingerprint lock",
			zap.String("fingerprint", fingerprint), zap.Error(err))
	}
}
