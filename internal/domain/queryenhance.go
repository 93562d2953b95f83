package domain

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// QueryEnhancer is a decorator that reframes terse or role-intent queries
// before embedding. Outermost in the query chain so the cache key includes
// the enhancement.
type QueryEnhancer struct {
	inner      Embedder
	heuristics Heuristics
}

// NewQueryEnhancer creates the query-enhancement decorator.
func NewQueryEnhancer(inner Embedder, h Heuristics) *QueryEnhancer {
	return &QueryEnhancer{inner: inner, heuristics: h}
}

// Embed applies query enhancement and delegates to the inner embedder.
func (e *QueryEnhancer) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, EnhanceQuery(text, e.heuristics))
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("enhanced embed: %w", err)
	}
	return result, nil
}

// EnhanceQuery rewrites a raw query for better retrieval recall. Intent
// keywords get role-specific framing; otherwise very short or
// domain-agnostic queries get the generic academic context prefix.
func EnhanceQuery(text string, h Heuristics) string {
	q := strings.TrimSpace(text)
	if q == "" {
		return q
	}
	lower := strings.ToLower(q)

	// Sorted iteration keeps the rewrite (and the embedding cache key)
	// stable when a query matches more than one intent keyword.
	keywords := make([]string, 0, len(h.IntentFramings))
	for kw := range h.IntentFramings {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return h.IntentFramings[keyword] + q
		}
	}

	if len(strings.Fields(q)) <= 3 || !containsAny(lower, h.DomainKeywords) {
		return h.QueryContextPrefix + q
	}
	return q
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
