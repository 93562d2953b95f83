package match

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/unilink/scholarmatch/internal/domain"
	"github.com/unilink/scholarmatch/internal/metrics"
)

// Tuning defaults. The weights and thresholds are empirically chosen
// against the production corpus; override them from configuration rather
// than editing here.
const (
	DefaultQueryWeight      = 0.6
	DefaultProfileWeight    = 0.4
	DefaultScoreThreshold   = 0.5
	DefaultVagueThreshold   = 0.3
	DefaultLimit            = 10
	specificRegimeThreshold = 0.5
)

// DefaultBackoffLadder is the retry floor sequence after an empty result
// set. Only floors below the attempt's starting threshold are tried.
func DefaultBackoffLadder() []float64 { return []float64{0.35, 0.2} }

// Options tunes the engine. Zero values take the defaults above.
type Options struct {
	QueryWeight    float64
	ProfileWeight  float64
	Threshold      float64
	VagueThreshold float64
	BackoffLadder  []float64
	Limit          int
}

func (o Options) withDefaults() Options {
	if o.QueryWeight == 0 && o.ProfileWeight == 0 {
		o.QueryWeight = DefaultQueryWeight
		o.ProfileWeight = DefaultProfileWeight
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultScoreThreshold
	}
	if o.VagueThreshold == 0 {
		o.VagueThreshold = DefaultVagueThreshold
	}
	if o.BackoffLadder == nil {
		o.BackoffLadder = DefaultBackoffLadder()
	}
	if o.Limit == 0 {
		o.Limit = DefaultLimit
	}
	return o
}

// Request is a single match query.
type Request struct {
	// Query is the free-text search input. May be empty when the caller
	// wants purely profile-driven matches.
	Query string
	// RequesterID identifies the caller's own indexed profile, if any.
	RequesterID   string
	RequesterKind domain.Kind
	// TargetKind selects the collection searched.
	TargetKind domain.Kind
	// Filter narrows results by payload fields (vector store mode only).
	Filter map[string]string
	// Limit caps the result count; 0 takes the configured default.
	Limit int
}

// Response carries the ranked matches plus how they were obtained.
type Response struct {
	Results  []domain.MatchResult
	Strategy string
	Backend  string
}

// Strategy labels, also used as metric label values.
const (
	StrategyQuery   = "query"
	StrategyProfile = "profile"
	StrategyBlended = "blended"

	BackendVectorStore = "qdrant"
	BackendBruteForce  = "bruteforce"
)

// Service runs the match pipeline: classify the query, gather the
// available embedding signals, search, and rank. Every upstream failure
// degrades (fewer signals, fewer results) instead of failing the request;
// the only hard error is having no signal at all.
type Service struct {
	embedder   Embedder
	vectors    VectorSearcher
	fallback   *BruteForce
	mirror     MirrorReader
	heuristics domain.Heuristics
	prefix     string
	opts       Options
	logger     *zap.Logger
}

// NewService constructs the engine. vectors may be nil to force
// brute-force mode.
func NewService(
	embedder Embedder,
	vectors VectorSearcher,
	mirror MirrorReader,
	heuristics domain.Heuristics,
	collectionPrefix string,
	opts Options,
	logger *zap.Logger,
) *Service {
	return &Service{
		embedder:   embedder,
		vectors:    vectors,
		fallback:   NewBruteForce(mirror, logger),
		mirror:     mirror,
		heuristics: heuristics,
		prefix:     collectionPrefix,
		opts:       opts.withDefaults(),
		logger:     logger,
	}
}

// Match executes one request. Returns domain.ErrEmptyQuery when the
// request carries no query text and no requester, and domain.ErrNoVector
// when neither a query embedding nor a requester profile embedding could
// be obtained.
func (s *Service) Match(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Query) == "" && req.RequesterID == "" {
		return Response{}, domain.ErrEmptyQuery
	}
	start := time.Now()
	limit := req.Limit
	if limit <= 0 {
		limit = s.opts.Limit
	}
	collection := domain.CollectionName(s.prefix, req.TargetKind)
	class := Classify(req.Query, s.heuristics)

	profileVec := s.requesterVector(ctx, req)
	queryVec := s.queryVector(ctx, req.Query, class, profileVec)

	backend := s.selectBackend(ctx)

	var (
		resp Response
		err  error
	)
	switch {
	case queryVec != nil && profileVec != nil:
		resp, err = s.blendedSearch(ctx, collection, queryVec, profileVec, limit, req.Filter, backend)
	case queryVec != nil:
		// Only specific queries walk the backoff ladder; a vague query
		// embedded for lack of a profile signal gets a single attempt.
		results, qerr := s.searchWithBackoff(ctx, collection, queryVec, limit, s.opts.Threshold, class == ClassSpecific, req.Filter, backend)
		resp, err = Response{Results: results, Strategy: StrategyQuery, Backend: backend}, qerr
	case profileVec != nil:
		// A vague query answered from the requester's own embedding uses
		// a lowered floor and no backoff: the floor is already low.
		threshold, backoff := s.opts.VagueThreshold, false
		if class == ClassSpecific {
			threshold, backoff = s.opts.Threshold, true
		}
		results, perr := s.searchWithBackoff(ctx, collection, profileVec, limit, threshold, backoff, req.Filter, backend)
		resp, err = Response{Results: results, Strategy: StrategyProfile, Backend: backend}, perr
	default:
		return Response{}, domain.ErrNoVector
	}
	if err != nil {
		return Response{}, err
	}

	metrics.MatchSearchesTotal.WithLabelValues(resp.Strategy, resp.Backend).Inc()
	metrics.MatchSearchDuration.WithLabelValues(resp.Strategy, resp.Backend).Observe(time.Since(start).Seconds())
	metrics.MatchResultsReturned.Observe(float64(len(resp.Results)))

	s.logger.Info("match completed",
		zap.String("strategy", resp.Strategy),
		zap.String("backend", resp.Backend),
		zap.String("class", string(class)),
		zap.Int("results", len(resp.Results)),
		zap.Duration("took", time.Since(start)))

	return resp, nil
}

// blendedSearch runs the query-signal and profile-signal searches in
// parallel and merges their scores. The two searches are independent: one
// failing or timing out degrades to single-signal mode instead of failing
// the request, which is why this is a WaitGroup and not an errgroup.
func (s *Service) blendedSearch(
	ctx context.Context, collection string,
	queryVec, profileVec []float32,
	limit int, filter map[string]string, backend string,
) (Response, error) {
	var (
		wg                   sync.WaitGroup
		queryRes, profileRes []domain.MatchResult
		queryErr, profileErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		queryRes, queryErr = s.searchWithBackoff(ctx, collection, queryVec, limit, s.opts.Threshold, true, filter, backend)
	}()
	go func() {
		defer wg.Done()
		profileRes, profileErr = s.searchWithBackoff(ctx, collection, profileVec, limit, s.opts.Threshold, true, filter, backend)
	}()
	wg.Wait()

	switch {
	case queryErr != nil && profileErr != nil:
		return Response{}, queryErr
	case queryErr != nil:
		s.logger.Warn("query-signal search failed, degrading to profile signal", zap.Error(queryErr))
		return Response{Results: profileRes, Strategy: StrategyProfile, Backend: backend}, nil
	case profileErr != nil:
		s.logger.Warn("profile-signal search failed, degrading to query signal", zap.Error(profileErr))
		return Response{Results: queryRes, Strategy: StrategyQuery, Backend: backend}, nil
	}

	merged := Merge(queryRes, s.opts.QueryWeight, profileRes, s.opts.ProfileWeight)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return Response{Results: merged, Strategy: StrategyBlended, Backend: backend}, nil
}

// searchWithBackoff attempts the search at the given floor, then walks the
// backoff ladder on empty results when backoff is allowed. Thresholds are
// strictly decreasing and the walk stops on the first non-empty attempt.
func (s *Service) searchWithBackoff(
	ctx context.Context, collection string,
	vector []float32, limit int,
	threshold float64, backoff bool,
	filter map[string]string, backend string,
) ([]domain.MatchResult, error) {
	floors := []float64{threshold}
	if backoff {
		ladder := s.opts.BackoffLadder
		// Below the specific regime the starting floor was already
		// permissive; skip straight to the lowest retry floor.
		if threshold < specificRegimeThreshold && len(ladder) > 1 {
			ladder = ladder[len(ladder)-1:]
		}
		for _, f := range ladder {
			if f < floors[len(floors)-1] {
				floors = append(floors, f)
			}
		}
	}

	for i, floor := range floors {
		if i > 0 {
			metrics.MatchThresholdRetriesTotal.Inc()
			s.logger.Debug("threshold backoff",
				zap.String("collection", collection),
				zap.Float64("floor", floor))
		}
		results, err := s.search(ctx, collection, vector, limit, floor, filter, backend)
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	return nil, nil
}

func (s *Service) search(
	ctx context.Context, collection string,
	vector []float32, limit int, threshold float64,
	filter map[string]string, backend string,
) ([]domain.MatchResult, error) {
	if backend == BackendVectorStore {
		results, err := s.vectors.Search(ctx, collection, vector, limit, threshold, filter)
		if err == nil {
			return results, nil
		}
		if !errors.Is(err, domain.ErrVectorStoreUnavailable) {
			return nil, err
		}
		s.logger.Warn("vector store failed mid-request, falling back to brute force", zap.Error(err))
	}
	return s.fallback.Search(ctx, collection, vector, limit, threshold)
}

// selectBackend probes the vector store once per request so the backoff
// ladder runs against a single backend with consistent semantics.
func (s *Service) selectBackend(ctx context.Context) string {
	if s.vectors != nil && s.vectors.Reachable(ctx) {
		return BackendVectorStore
	}
	return BackendBruteForce
}

// requesterVector loads the caller's mirrored profile embedding. Absence
// and read failures both degrade to a nil signal.
func (s *Service) requesterVector(ctx context.Context, req Request) []float32 {
	if req.RequesterID == "" {
		return nil
	}
	kind := req.RequesterKind
	if kind == "" {
		kind = req.TargetKind
	}
	rec, err := s.mirror.Get(ctx, domain.CollectionName(s.prefix, kind), req.RequesterID)
	if err != nil {
		if !errors.Is(err, domain.ErrProfileNotFound) {
			s.logger.Warn("requester embedding lookup failed",
				zap.String("requester_id", req.RequesterID), zap.Error(err))
		}
		return nil
	}
	return rec.Vector
}

// queryVector embeds the query text. Vague queries are only embedded when
// no profile signal exists to substitute for them; embedding failures
// degrade to a nil signal.
func (s *Service) queryVector(ctx context.Context, query string, class QueryClass, profileVec []float32) []float32 {
	if query == "" {
		return nil
	}
	if class == ClassVague && profileVec != nil {
		return nil
	}
	res, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("query embedding failed", zap.Error(err))
		return nil
	}
	return res.Embedding
}
