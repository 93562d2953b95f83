// Package profiletext serializes profiles into the single text document fed
// to the embedding provider.
package profiletext

import (
	"strings"

	"go.uber.org/zap"

	"github.com/unilink/scholarmatch/internal/domain"
	"github.com/unilink/scholarmatch/internal/taxonomy"
)

// DefaultMaxTokens is the approximate token budget for one document.
const DefaultMaxTokens = 8000

// tokensPerWord is the rough word-to-token expansion used for the budget
// check. The exact tokenizer is the provider's concern; this only has to be
// conservative enough to keep requests under the model limit.
const tokensPerWord = 1.5

// Builder renders a profile into one embedding document. Field order is
// fixed, and the primary interest field is repeated under each configured
// synonym label. Changing the labels or their count shifts where stored
// vectors sit in embedding space, so both are pinned in configuration.
type Builder struct {
	tax       *taxonomy.Table
	labels    []string
	maxTokens int
	logger    *zap.Logger
}

// New creates a builder. labels defaults to the heuristic defaults when empty.
func New(tax *taxonomy.Table, labels []string, maxTokens int, logger *zap.Logger) *Builder {
	if len(labels) == 0 {
		labels = domain.DefaultHeuristics().InterestLabels
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Builder{tax: tax, labels: labels, maxTokens: maxTokens, logger: logger}
}

// Build produces the document for any profile variant. An empty result means
// the profile carries no embeddable text.
func (b *Builder) Build(p domain.Profile) string {
	var sections []string

	appendSection := func(label, value string) {
		v := strings.TrimSpace(value)
		if v == "" {
			return
		}
		sections = append(sections, label+": "+v)
	}

	appendSection("Name", domain.DisplayName(p))

	interests := strings.Join(b.tax.ResolveAll(realTerms(domain.PrimaryInterests(p))), "; ")
	for _, label := range b.labels {
		appendSection(label, interests)
	}

	switch v := p.(type) {
	case *domain.Academician:
		appendSection("Biography", v.Biography)
		appendSection("Position", v.Position)
		appendSection("Institution", v.Institution)
		appendSection("Recent Publications", strings.Join(v.Publications, "; "))
	case *domain.Postgraduate:
		appendSection("Biography", v.Biography)
		appendSection("Institution", v.Institution)
		appendSection("Recent Publications", strings.Join(v.Publications, "; "))
	case *domain.Undergraduate:
		appendSection("Biography", v.Biography)
		appendSection("Institution", v.Institution)
	case *domain.Program:
		appendSection("Description", v.Description)
		appendSection("Level", v.Level)
		appendSection("Faculty", v.Faculty)
		appendSection("Institution", v.Institution)
	}

	doc := normalizeWhitespace(strings.Join(sections, "\n"))
	return b.truncate(doc)
}

// realTerms drops placeholder serializations before taxonomy resolution.
func realTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		s := strings.TrimSpace(t)
		if s == "" || s == "[]" || s == "null" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// normalizeWhitespace collapses runs of whitespace to single spaces.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate enforces the approximate token budget (words x 1.5) by
// proportional character truncation, cutting back to a word boundary.
func (b *Builder) truncate(doc string) string {
	words := len(strings.Fields(doc))
	estTokens := float64(words) * tokensPerWord
	if estTokens <= float64(b.maxTokens) {
		return doc
	}

	keep := int(float64(len(doc)) * float64(b.maxTokens) / estTokens)
	if keep >= len(doc) {
		return doc
	}
	cut := doc[:keep]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	if b.logger != nil {
		b.logger.Debug("Truncated profile document",
			zap.Int("original_chars", len(doc)),
			zap.Int("kept_chars", len(cut)),
			zap.Int("max_tokens", b.maxTokens),
		)
	}
	return cut
}
