package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/unilink/scholarmatch/internal/domain"
	"github.com/unilink/scholarmatch/internal/metrics"
	"github.com/unilink/scholarmatch/internal/usecase/match"
)

// Lock wait defaults. When another instance holds the fingerprint lock we
// poll the store for its result instead of recomputing.
const (
	DefaultLockWait     = 30 * time.Second
	DefaultLockPollStep = 500 * time.Millisecond
)

// Request describes one recommendation batch computation.
type Request struct {
	RequesterID   string
	RequesterKind domain.Kind
	// CorpusKind selects which collection the requester is matched against.
	CorpusKind domain.Kind
	// Query optionally narrows the match beyond the requester's profile.
	Query string
	// ProgramType filters program results ("master", "phd"); part of the
	// fingerprint because it changes the result set.
	ProgramType string
	Limit       int
}

// Service computes recommendation batches at most once per fingerprint.
// In-process duplicates collapse through singleflight; cross-instance
// duplicates are arbitrated by the store's fingerprint lock.
type Service struct {
	matcher   Matcher
	store     BatchStore
	texts     TextProvider
	justifier Justifier
	group     singleflight.Group
	lockWait  time.Duration
	pollStep  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires the recommendation pipeline.
func NewService(matcher Matcher, store BatchStore, texts TextProvider, justifier Justifier, logger *zap.Logger) *Service {
	return &Service{
		matcher:   matcher,
		store:     store,
		texts:     texts,
		justifier: justifier,
		lockWait:  DefaultLockWait,
		pollStep:  DefaultLockPollStep,
		logger:    logger,
		now:       time.Now,
	}
}

// Recommend returns the batch for the request, computing it only when no
// batch with the same fingerprint exists yet.
func (s *Service) Recommend(ctx context.Context, req Request) (domain.RecommendationBatch, error) {
	text := s.canonicalText(ctx, req.RequesterID)
	corpusID := string(req.CorpusKind)
	fp := Fingerprint(req.RequesterID, corpusID, text, req.Query, req.ProgramType)

	v, err, _ := s.group.Do(fp, func() (interface{}, error) {
		return s.computeOnce(ctx, fp, req, text)
	})
	if err != nil {
		return domain.RecommendationBatch{}, err
	}
	return v.(domain.RecommendationBatch), nil
}

// Get returns a previously computed batch by fingerprint.
func (s *Service) Get(ctx context.Context, fingerprint string) (domain.RecommendationBatch, error) {
	return s.store.Get(ctx, fingerprint)
}

// computeOnce is the check-then-compute discipline behind Recommend. The
// store lookup, the cross-instance lock, and the post-lock re-check
// together guarantee at most one expensive computation per fingerprint.
func (s *Service) computeOnce(ctx context.Context, fp string, req Request, text string) (domain.RecommendationBatch, error) {
	if batch, err := s.store.Get(ctx, fp); err == nil {
		metrics.RecommendationCacheTotal.WithLabelValues("hit").Inc()
		return batch, nil
	} else if !errors.Is(err, domain.ErrBatchNotFound) {
		return domain.RecommendationBatch{}, err
	}
	metrics.RecommendationCacheTotal.WithLabelValues("miss").Inc()

	acquired, err := s.store.AcquireLock(ctx, fp)
	if err != nil {
		// The lock is best-effort protection against duplicated cost, not
		// correctness: batches are immutable per fingerprint, so computing
		// without it only risks redundant work.
		s.logger.Warn("fingerprint lock unavailable, computing unlocked",
			zap.String("fingerprint", fp), zap.Error(err))
	} else if !acquired {
		if batch, ok := s.awaitPeer(ctx, fp); ok {
			return batch, nil
		}
		s.logger.Warn("peer computation never landed, taking over",
			zap.String("fingerprint", fp))
	} else {
		defer s.store.ReleaseLock(ctx, fp)
	}

	// Re-check after the lock wait: a peer may have written meanwhile.
	if batch, err := s.store.Get(ctx, fp); err == nil {
		return batch, nil
	}

	batch, err := s.compute(ctx, fp, req, text)
	if err != nil {
		return domain.RecommendationBatch{}, err
	}
	if err := s.store.Put(ctx, batch); err != nil {
		// The caller still gets their batch; the next identical request
		// recomputes.
		s.logger.Error("persist batch failed", zap.String("fingerprint", fp), zap.Error(err))
	}
	return batch, nil
}

// awaitPeer polls for the batch a lock-holding peer is computing.
func (s *Service) awaitPeer(ctx context.Context, fp string) (domain.RecommendationBatch, bool) {
	deadline := time.NewTimer(s.lockWait)
	defer deadline.Stop()
	tick := time.NewTicker(s.pollStep)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return domain.RecommendationBatch{}, false
		case <-deadline.C:
			return domain.RecommendationBatch{}, false
		case <-tick.C:
			if batch, err := s.store.Get(ctx, fp); err == nil {
				return batch, true
			}
		}
	}
}

func (s *Service) compute(ctx context.Context, fp string, req Request, text string) (domain.RecommendationBatch, error) {
	filter := map[string]string{}
	if req.ProgramType != "" {
		filter["level"] = req.ProgramType
	}

	resp, err := s.matcher.Match(ctx, match.Request{
		Query:         req.Query,
		RequesterID:   req.RequesterID,
		RequesterKind: req.RequesterKind,
		TargetKind:    req.CorpusKind,
		Filter:        filter,
		Limit:         req.Limit,
	})
	if err != nil {
		return domain.RecommendationBatch{}, fmt.Errorf("match for %s: %w", req.RequesterID, err)
	}

	matchedAt := s.now().UTC()
	rows := make([]domain.RecommendationRow, 0, len(resp.Results))
	for _, r := range resp.Results {
		rows = append(rows, domain.RecommendationRow{
			EntityID:      r.EntityID,
			Score:         r.Score,
			Justification: s.justify(ctx, text, r),
			MatchedAt:     matchedAt,
		})
	}

	return domain.RecommendationBatch{
		Fingerprint: fp,
		RequesterID: req.RequesterID,
		CorpusID:    string(req.CorpusKind),
		Rows:        rows,
		CreatedAt:   matchedAt,
	}, nil
}

// justify asks the prose collaborator for one row. Failures log and omit
// the justification; they never drop the row or abort the batch.
func (s *Service) justify(ctx context.Context, text string, r domain.MatchResult) string {
	if s.justifier == nil {
		return ""
	}
	prose, err := s.justifier.Justify(ctx, JustificationContext{
		RequesterText: text,
		EntityID:      r.EntityID,
		EntityPayload: r.Payload,
		Score:         r.Score,
	})
	if err != nil {
		s.logger.Warn("justification failed", zap.String("entity_id", r.EntityID), zap.Error(err))
		return ""
	}
	return prose
}

// canonicalText soft-fails to empty: no profile text only narrows the
// fingerprint, it never blocks matching.
func (s *Service) canonicalText(ctx context.Context, requesterID string) string {
	if s.texts == nil {
		return ""
	}
	text, err := s.texts.CanonicalText(ctx, requesterID)
	if err != nil {
		s.logger.Warn("canonical text extraction failed",
			zap.String("requester_id", requesterID), zap.Error(err))
		return ""
	}
	return text
}
