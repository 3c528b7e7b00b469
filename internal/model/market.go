package model

import "time"

// MarketRecord is the canonical stored market. Owned by ingestion; the core
// reads it and may hold a locally refreshed copy for one request.
type MarketRecord struct {
	PolymarketMarketID string   `json:"polymarketMarketId"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Slug               string   `json:"slug,omitempty"`
	URL                string   `json:"url,omitempty"`
	EndDate            *int64   `json:"endDate"` // Epoch ms, nil when the market has no deadline
	Outcomes           []string `json:"outcomes"`
	Volume             *float64 `json:"volume"`
	Liquidity          *float64 `json:"liquidity"`
}

// Ended reports whether the market's end date has passed at the given time.
// Markets without an end date never count as ended.
func (m *MarketRecord) Ended(now time.Time) bool {
	return m.EndDate != nil && *m.EndDate <= now.UnixMilli()
}

// Embedding pairs a market ID with its current vector. One current embedding
// per market; staleness is tolerated.
type Embedding struct {
	PolymarketMarketID string    `json:"polymarketMarketId"`
	Vector             []float64 `json:"vector"`
	Model              string    `json:"model"`
	UpdatedAt          int64     `json:"updatedAt"`
}

// MarketCandidate is a market retrieved by vector similarity. Request-scoped.
type MarketCandidate struct {
	MarketRecord
	Similarity float64 `json:"similarity"` // Cosine, typically [0,1] for this embedding space
}

// RankedMarket is the semantic comparator's verdict for one candidate, or a
// similarity-derived fallback when the comparator returns nothing.
type RankedMarket struct {
	PolymarketMarketID string   `json:"polymarketMarketId"`
	MatchScore         float64  `json:"matchScore"` // [0,1]
	Reasons            []string `json:"reasons"`
	MismatchFlags      []string `json:"mismatchFlags"`
}

// Evidence is the live/near-live trading signal attached to a candidate.
// All price fields are best-effort and may be nil.
type Evidence struct {
	PriceYes  *float64 `json:"priceYes"` // Implied probability of the YES outcome, [0,1]
	Spread    *float64 `json:"spread"`
	Volume    *float64 `json:"volume"`
	Liquidity *float64 `json:"liquidity"`
	UpdatedAt int64    `json:"updatedAt"` // Epoch ms of the fetch
}

// MarketWithEvidence is the unit the scorer consumes: candidate + rank +
// trading evidence.
type MarketWithEvidence struct {
	MarketCandidate
	RankedMarket
	Evidence Evidence `json:"evidence"`
}

// SentimentSnapshot is one append-only row of the market's evidence fields,
// captured at evidence-fetch time and used for momentum lookups.
type SentimentSnapshot struct {
	PolymarketMarketID string   `json:"polymarketMarketId"`
	PriceYes           float64  `json:"priceYes"`
	Spread             *float64 `json:"spread"`
	Volume             *float64 `json:"volume"`
	Liquidity          *float64 `json:"liquidity"`
	CapturedAt         int64    `json:"capturedAt"` // Epoch ms
}

// Float64 returns a pointer to v. Convenience for the nullable numeric fields
// above.
func Float64(v float64) *float64 { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }
