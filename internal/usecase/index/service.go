// Package index decides which profiles enter the vector index and keeps the
// index and its local mirror in lockstep.
package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/unilink/scholarmatch/internal/domain"
	"github.com/unilink/scholarmatch/internal/repository/qdrant"
)

// Service indexes eligible profiles and evicts ineligible ones.
type Service struct {
	builder TextBuilder
	embed   Embedder
	vectors VectorIndex
	mirror  Mirror
	prefix  string
	logger  *zap.Logger
}

// New creates an indexing service. prefix scopes collection names.
func New(
	builder TextBuilder, embed Embedder,
	vectors VectorIndex, mirror Mirror,
	prefix string, logger *zap.Logger,
) *Service {
	return &Service{
		builder: builder,
		embed:   embed,
		vectors: vectors,
		mirror:  mirror,
		prefix:  prefix,
		logger:  logger,
	}
}

// Collection returns the collection name for a profile kind.
func (s *Service) Collection(k domain.Kind) string {
	return domain.CollectionName(s.prefix, k)
}

// Index embeds and upserts one profile. A profile that fails the eligibility
// gate (or yields no embeddable text) is evicted instead, so a profile
// toggling to incomplete loses its stale vector.
func (s *Service) Index(ctx context.Context, p domain.Profile) error {
	if p == nil {
		return domain.ErrProfileNotFound
	}
	collection := s.Collection(p.ProfileKind())

	if !Eligible(p) {
		s.evict(ctx, collection, p.ProfileID())
		return fmt.Errorf("profile %s: %w", p.ProfileID(), domain.ErrProfileNotEligible)
	}

	doc := s.builder.Build(p)
	if doc == "" {
		s.evict(ctx, collection, p.ProfileID())
		return fmt.Errorf("profile %s has no embeddable text: %w", p.ProfileID(), domain.ErrNoVector)
	}

	result, err := s.embed.Embed(ctx, doc)
	if err != nil {
		return fmt.Errorf("embed profile %s: %w", p.ProfileID(), err)
	}

	rec := record(p, result.Embedding)

	if err := s.vectors.EnsureCollection(ctx, collection); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	if err := s.vectors.Upsert(ctx, collection, rec.ExternalID, rec.Vector, rec.Payload); err != nil {
		return fmt.Errorf("upsert profile %s: %w", p.ProfileID(), err)
	}
	if err := s.mirror.Put(ctx, collection, rec); err != nil {
		// The index write landed; a failed mirror write only degrades the
		// brute-force fallback, so log and keep going.
		s.logger.Warn("Failed to mirror profile vector",
			zap.String("profile", p.ProfileID()), zap.Error(err))
	}

	s.logger.Debug("Indexed profile",
		zap.String("profile", p.ProfileID()),
		zap.String("collection", collection),
	)
	return nil
}

// ReindexResult reports the outcome of a bulk reindex.
type ReindexResult struct {
	Indexed int
	Skipped int
	Failed  int
}

// Reindex embeds and batch-upserts a set of profiles, typically after a
// taxonomy table change. Ineligible profiles are counted, not fatal.
func (s *Service) Reindex(ctx context.Context, profiles []domain.Profile) (ReindexResult, error) {
	var res ReindexResult
	points := make(map[string][]qdrant.Point)
	records := make(map[string][]domain.EmbeddingRecord)

	for _, p := range profiles {
		if p == nil {
			res.Skipped++
			continue
		}
		collection := s.Collection(p.ProfileKind())

		if !Eligible(p) {
			s.evict(ctx, collection, p.ProfileID())
			res.Skipped++
			continue
		}
		doc := s.builder.Build(p)
		if doc == "" {
			s.evict(ctx, collection, p.ProfileID())
			res.Skipped++
			continue
		}

		result, err := s.embed.Embed(ctx, doc)
		if err != nil {
			s.logger.Warn("Skipping profile in reindex: embedding failed",
				zap.String("profile", p.ProfileID()), zap.Error(err))
			res.Failed++
			continue
		}

		rec := record(p, result.Embedding)
		points[collection] = append(points[collection], qdrant.Point{
			ExternalID: rec.ExternalID,
			Vector:     rec.Vector,
			Payload:    rec.Payload,
		})
		records[collection] = append(records[collection], rec)
	}

	for collection, pts := range points {
		if err := s.vectors.EnsureCollection(ctx, collection); err != nil {
			return res, fmt.Errorf("ensure collection %s: %w", collection, err)
		}
		if err := s.vectors.BatchUpsert(ctx, collection, pts); err != nil {
			return res, fmt.Errorf("batch upsert %s: %w", collection, err)
		}
		if err := s.mirror.PutMulti(ctx, collection, records[collection]); err != nil {
			s.logger.Warn("Failed to mirror reindex batch",
				zap.String("collection", collection), zap.Error(err))
		}
		res.Indexed += len(pts)
	}

	s.logger.Info("Reindex complete",
		zap.Int("indexed", res.Indexed),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

// Remove deletes a profile's vector and mirrored record.
func (s *Service) Remove(ctx context.Context, kind domain.Kind, externalID string) error {
	collection := s.Collection(kind)
	if err := s.vectors.Delete(ctx, collection, externalID); err != nil {
		return fmt.Errorf("delete vector %s: %w", externalID, err)
	}
	if err := s.mirror.Delete(ctx, collection, externalID); err != nil {
		s.logger.Warn("Failed to delete mirrored vector",
			zap.String("profile", externalID), zap.Error(err))
	}
	return nil
}

// evict is best-effort deletion used when a profile fails the gate; the
// profile may never have been indexed at all.
func (s *Service) evict(ctx context.Context, collection, externalID string) {
	if err := s.vectors.Delete(ctx, collection, externalID); err != nil {
		s.logger.Warn("Failed to evict ineligible profile vector",
			zap.String("profile", externalID), zap.Error(err))
	}
	if err := s.mirror.Delete(ctx, collection, externalID); err != nil {
		s.logger.Warn("Failed to evict mirrored vector",
			zap.String("profile", externalID), zap.Error(err))
	}
}

// record assembles the embedding record with the denormalized filter fields.
func record(p domain.Profile, vector []float32) domain.EmbeddingRecord {
	payload := map[string]string{
		qdrant.PayloadEntityType: string(p.ProfileKind()),
		"name":                   domain.DisplayName(p),
	}
	switch v := p.(type) {
	case *domain.Academician:
		payload["institution"] = v.Institution
		payload["position"] = v.Position
	case *domain.Postgraduate:
		payload["institution"] = v.Institution
	case *domain.Undergraduate:
		payload["institution"] = v.Institution
	case *domain.Program:
		payload["institution"] = v.Institution
		payload["level"] = v.Level
	}
	return domain.EmbeddingRecord{
		ExternalID: p.ProfileID(),
		Kind:       p.ProfileKind(),
		Vector:     vector,
		Payload:    payload,
	}
}
