package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nroshak/marketcheck/internal/model"
	"github.com/nroshak/marketcheck/internal/util"
)

// RerankResult is the semantic comparator's output over one candidate batch
type RerankResult struct {
	Ranked           []model.RankedMarket `json:"ranked"`
	OverallAmbiguity model.Ambiguity      `json:"overallAmbiguity"`
}

// rerankCandidate is the subset of candidate fields shown to the comparator
type rerankCandidate struct {
	PolymarketMarketID string  `json:"polymarketMarketId"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	EndDate            *string `json:"endDate"`
}

// Rerank asks the comparator to score each candidate against the claim. An
// empty candidate list short-circuits without an API call.
func (c *Client) Rerank(ctx context.Context, claim *model.ParsedClaim, candidates []model.MarketCandidate) (*RerankResult, error) {
	if len(candidates) == 0 {
		return &RerankResult{Ranked: []model.RankedMarket{}, OverallAmbiguity: model.AmbiguityHigh}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RankTimeout)
	defer cancel()

	shown := make([]rerankCandidate, len(candidates))
	for i, cand := range candidates {
		rc := rerankCandidate{
			PolymarketMarketID: cand.PolymarketMarketID,
			Title:              cand.Title,
			Description:        cand.Description,
		}
		if cand.EndDate != nil {
			iso := time.UnixMilli(*cand.EndDate).UTC().Format(time.RFC3339)
			rc.EndDate = &iso
		}
		shown[i] = rc
	}

	claimJSON, err := json.MarshalIndent(claim, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal claim: %w", err)
	}
	candJSON, err := json.MarshalIndent(shown, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal candidates: %w", err)
	}
	user := fmt.Sprintf("Claim: %s\n\nCandidates:\n%s", claimJSON, candJSON)

	var result RerankResult
	if err := c.chatJSON(ctx, rerankSystemPrompt, user, 0.4, &result); err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	known := make(map[string]bool, len(candidates))
	for _, cand := range candidates {
		known[cand.PolymarketMarketID] = true
	}
	kept := result.Ranked[:0]
	for _, r := range result.Ranked {
		if !known[r.PolymarketMarketID] {
			continue
		}
		r.MatchScore = util.Clamp01(r.MatchScore)
		kept = append(kept, r)
	}
	result.Ranked = kept

	switch result.OverallAmbiguity {
	case model.AmbiguityLow, model.AmbiguityMedium, model.AmbiguityHigh:
	default:
		result.OverallAmbiguity = model.AmbiguityMedium
	}
	return &result, nil
}
