package match

import (
	"sort"

	"github.com/unilink/scholarmatch/internal/domain"
)

// Merge blends two independently scored result sets by weighted score
// accumulation. Scores are blended rather than the underlying vectors:
// averaging vectors before search can cancel orthogonal signal directions,
// while score blending preserves both. Linear in |a|+|b|.
func Merge(a []domain.MatchResult, weightA float64, b []domain.MatchResult, weightB float64) []domain.MatchResult {
	type scored struct {
		result domain.MatchResult
		score  float64
	}

	merged := make(map[string]*scored, len(a)+len(b))

	for _, r := range a {
		merged[r.EntityID] = &scored{result: r, score: r.Score * weightA}
	}
	for _, r := range b {
		if existing, ok := merged[r.EntityID]; ok {
			existing.score += r.Score * weightB
			continue
		}
		merged[r.EntityID] = &scored{result: r, score: r.Score * weightB}
	}

	out := make([]domain.MatchResult, 0, len(merged))
	for _, s := range merged {
		r := s.result
		r.Score = s.score
		out = append(out, r)
	}

	// Deterministic ordering: descending score, entity id breaks ties.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].EntityID < out[j].EntityID
		}
		return out[i].Score > out[j].Score
	})

	return out
}
