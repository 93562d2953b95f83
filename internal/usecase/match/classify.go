package match

import (
	"strings"

	"github.com/unilink/scholarmatch/internal/domain"
)

// QueryClass is the outcome of the vague-query heuristic.
type QueryClass string

// Query classes.
const (
	ClassVague    QueryClass = "vague"
	ClassSpecific QueryClass = "specific"
)

// Classify decides whether a query carries standalone semantic signal.
// Vague queries are answered from the requester's own profile embedding
// instead of the query text.
func Classify(text string, h domain.Heuristics) QueryClass {
	q := strings.ToLower(strings.TrimSpace(text))
	if q == "" {
		return ClassVague
	}

	for _, pattern := range h.VaguePatterns {
		if strings.Contains(q, pattern) {
			return ClassVague
		}
	}

	if len(strings.Fields(q)) < 2 && !isRecognizedField(q, h) {
		return ClassVague
	}

	return ClassSpecific
}

func isRecognizedField(q string, h domain.Heuristics) bool {
	for _, f := range h.RecognizedFields {
		if q == strings.ToLower(f) {
			return true
		}
	}
	return false
}
