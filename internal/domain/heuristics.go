package domain

// Heuristics holds the tunable word lists driving query classification and
// query enhancement. They ship as data, not branches, so deployments can
// retune them from configuration without a rebuild.
type Heuristics struct {
	// VaguePatterns are substrings that mark a query as carrying no
	// standalone semantic signal ("find me a supervisor", "for me").
	VaguePatterns []string
	// RecognizedFields are single-word field names that stay specific
	// even below the two-word floor ("education", "medicine").
	RecognizedFields []string
	// DomainKeywords mark a query as already anchored in academic
	// vocabulary; queries without any of them get the context prefix.
	DomainKeywords []string
	// IntentFramings map an intent keyword to the framing sentence
	// prepended before embedding ("supervisor" -> looking-for-supervisor).
	IntentFramings map[string]string
	// QueryContextPrefix is prepended to terse or domain-agnostic queries.
	QueryContextPrefix string
	// InterestLabels are the synonymous labels under which the primary
	// interest field is repeated in the text representation. The label set
	// and repetition count bias the embedding toward that field and must
	// stay stable across reindexes, or stored vectors drift.
	InterestLabels []string
}

// DefaultHeuristics returns the word lists tuned against the production
// corpus. Config overrides replace a list wholesale, never merge.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		VaguePatterns: []string{
			"find me a supervisor",
			"find supervisor",
			"find a supervisor",
			"for me",
			"my profile",
			"based on my",
			"match me",
			"help me find",
			"recommend me",
			"anything",
			"anyone",
		},
		RecognizedFields: []string{
			"education",
			"engineering",
			"medicine",
			"law",
			"mathematics",
			"physics",
			"chemistry",
			"biology",
			"economics",
			"psychology",
			"linguistics",
		},
		DomainKeywords: []string{
			"research",
			"thesis",
			"dissertation",
			"learning",
			"engineering",
			"science",
			"analysis",
			"theory",
			"studies",
			"education",
		},
		IntentFramings: map[string]string{
			"supervisor": "Academic supervisor with research expertise in: ",
			"collaborat": "Academic researcher open to collaboration on: ",
			"student":    "Research student with interests in: ",
		},
		QueryContextPrefix: "Research topic in academic context: ",
		InterestLabels: []string{
			"Research Expertise",
			"Research Focus",
			"Research Specialty",
		},
	}
}
