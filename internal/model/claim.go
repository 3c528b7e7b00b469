package model

// ClaimType categorizes the nature of the claim
type ClaimType string

const (
	ClaimTypePastEvent   ClaimType = "past_event"   // Something that already happened (or didn't)
	ClaimTypeFutureEvent ClaimType = "future_event" // Something that may happen by a deadline
	ClaimTypeOngoing     ClaimType = "ongoing"      // A currently-unfolding situation
	ClaimTypeNumeric     ClaimType = "numeric"      // A claim about a quantity or threshold
)

// Entity is a person, organization, or event referenced by the claim
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TimeWindow bounds the period a claim refers to. Either side may be empty
// (ISO 8601 date strings, as produced by the parser).
type TimeWindow struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// ParsedClaim is the structured form of a free-text question, produced by the
// claim parser. Immutable once produced; retrieval consumes it read-only.
type ParsedClaim struct {
	Claim       string     `json:"claim"`        // Normalized yes/no proposition
	Type        ClaimType  `json:"type"`         // past_event, future_event, ongoing, numeric
	TimeWindow  TimeWindow `json:"time_window"`  // Optional period the claim covers
	Entities    []Entity   `json:"entities"`     // Key entities mentioned
	MustInclude []string   `json:"must_include"` // Terms a matching market should mention
	MustExclude []string   `json:"must_exclude"` // Terms a matching market should not mention
	Ambiguities []string   `json:"ambiguities"`  // Parser-noted ambiguities in the question
}

// RetrievalText builds the text embedded for candidate retrieval: the claim
// itself, the must-include terms, and the deadline if one exists.
func (c *ParsedClaim) RetrievalText() string {
	text := c.Claim
	for _, term := range c.MustInclude {
		text += " " + term
	}
	if c.TimeWindow.End != "" {
		text += " by " + c.TimeWindow.End
	}
	return text
}

// Ambiguity levels reported by the reranker and carried into the answer
type Ambiguity string

const (
	AmbiguityLow    Ambiguity = "low"
	AmbiguityMedium Ambiguity = "medium"
	AmbiguityHigh   Ambiguity = "high"
)
