package match

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/unilink/scholarmatch/internal/domain"
)

// BruteForce scans the mirrored vectors and scores them by cosine
// similarity. It exists so matching keeps working when the vector store
// is unreachable; it applies the same score floor and limit semantics
// as the server-side search so callers see identical contracts.
type BruteForce struct {
	mirror MirrorReader
	logger *zap.Logger
}

func NewBruteForce(mirror MirrorReader, logger *zap.Logger) *BruteForce {
	return &BruteForce{mirror: mirror, logger: logger}
}

// Search scores every mirrored vector in the collection against the query
// vector, drops hits below scoreThreshold, and returns the top limit hits
// ordered by descending score with entity id breaking ties.
func (b *BruteForce) Search(ctx context.Context, collection string, vector []float32, limit int, scoreThreshold float64) ([]domain.MatchResult, error) {
	records, err := b.mirror.All(ctx, collection)
	if err != nil {
		return nil, err
	}

	results := make([]domain.MatchResult, 0, len(records))
	for _, rec := range records {
		score := domain.Cosine(vector, rec.Vector)
		if score < scoreThreshold {
			continue
		}
		results = append(results, domain.MatchResult{
			EntityID: rec.ExternalID,
			Score:    score,
			Payload:  rec.Payload,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].EntityID < results[j].EntityID
		}
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	b.logger.Debug("brute force search",
		zap.String("collection", collection),
		zap.Int("scanned", len(records)),
		zap.Int("returned", len(results)))

	return results, nil
}
