package model

// SentimentLabel classifies the market's current lean
type SentimentLabel string

const (
	SentimentBullish SentimentLabel = "bullish"
	SentimentBearish SentimentLabel = "bearish"
	SentimentNeutral SentimentLabel = "neutral"
	SentimentUnknown SentimentLabel = "unknown"
)

// MarketSentiment summarizes the best market's trading lean and momentum
type MarketSentiment struct {
	Label      SentimentLabel `json:"label"`
	PriceYes   *float64       `json:"priceYes"`
	Delta1h    *float64       `json:"delta1h"`  // priceNow − priceAt(now−1h); nil without an old-enough snapshot
	Delta24h   *float64       `json:"delta24h"` // priceNow − priceAt(now−24h)
	Confidence float64        `json:"confidence"`
	Drivers    []string       `json:"drivers,omitempty"`
}

// Answer is the synthesized verdict for the question
type Answer struct {
	Summary    string    `json:"summary"`
	ProbYes    *float64  `json:"probYes"`
	Confidence float64   `json:"confidence"` // [0,1]
	Ambiguity  Ambiguity `json:"ambiguity"`
}

// SideItem is one item returned by a side-channel retriever (news article,
// social post, trend, secondary-market quote). Shapes vary per source, so the
// typed fields cover the common subset and Extra carries the rest.
type SideItem struct {
	Source      string             `json:"source"`
	Title       string             `json:"title"`
	URL         string             `json:"url,omitempty"`
	Snippet     string             `json:"snippet,omitempty"`
	PublishedAt int64              `json:"publishedAt,omitempty"` // Epoch ms, 0 when unknown
	Relevance   *float64           `json:"relevance,omitempty"`
	Extra       map[string]float64 `json:"extra,omitempty"` // Numeric metadata (scores, engagement counts)
}

// ScoreBreakdown exposes the sub-scores that fed the answer confidence
type ScoreBreakdown struct {
	MatchScore    float64 `json:"matchScore"`
	VolumeScore   float64 `json:"volumeScore"`
	SpreadScore   float64 `json:"spreadScore"`
	MomentumScore float64 `json:"momentumScore"`
	RecencyScore  float64 `json:"recencyScore"`
}

// DebugInfo carries per-request diagnostics into the query log
type DebugInfo struct {
	RequestID string           `json:"requestId"`
	Scoring   ScoreBreakdown   `json:"scoringBreakdown"`
	Timings   map[string]int64 `json:"timings"` // Stage name → elapsed ms; "total" always present
}

// FactCheckResult is the final output of one fact-check request. Built once,
// never persisted as a mutable entity (only the query-log entry outlives it).
type FactCheckResult struct {
	Question     string                `json:"question"`
	ParsedClaim  ParsedClaim           `json:"parsedClaim"`
	Answer       Answer                `json:"answer"`
	Sentiment    *MarketSentiment      `json:"marketSentiment,omitempty"`
	BestMarket   *MarketWithEvidence   `json:"bestMarket"`
	Alternatives []MarketWithEvidence  `json:"alternatives"` // Ordered, excludes BestMarket
	SideChannels map[string][]SideItem `json:"sideChannels,omitempty"`
	Expiring     []MarketWithEvidence  `json:"expiringMarkets,omitempty"`
	Debug        DebugInfo             `json:"debug"`
}

// QueryLogEntry is the lightweight record written for every request
type QueryLogEntry struct {
	Question     string      `json:"question"`
	ParsedClaim  ParsedClaim `json:"parsedClaim"`
	BestMarketID string      `json:"bestMarketId,omitempty"`
	Confidence   float64     `json:"confidence"`
	Debug        DebugInfo   `json:"debug"`
	CreatedAt    int64       `json:"createdAt"`
}
