// Package rank joins the semantic comparator's verdicts with the retrieved
// candidates, falling back to raw similarity when the comparator returned
// nothing usable.
package rank

import (
	"sort"

	"github.com/nroshak/marketcheck/internal/llm"
	"github.com/nroshak/marketcheck/internal/model"
	"github.com/nroshak/marketcheck/internal/util"
)

// similarityReason labels fallback scores so downstream consumers can tell
// them apart from comparator verdicts.
const similarityReason = "Based on embedding similarity"

// Resolve produces the scoring-ready candidate list. When the comparator
// ranked candidates, its order is authoritative and unranked candidates are
// dropped. When it returned nothing, every candidate gets a score derived
// from embedding similarity instead.
func Resolve(candidates []model.MarketCandidate, reranked *llm.RerankResult) ([]model.MarketWithEvidence, model.Ambiguity) {
	if reranked == nil || len(reranked.Ranked) == 0 {
		return similarityFallback(candidates), model.AmbiguityMedium
	}

	byID := make(map[string]model.MarketCandidate, len(candidates))
	for _, c := range candidates {
		byID[c.PolymarketMarketID] = c
	}

	out := make([]model.MarketWithEvidence, 0, len(reranked.Ranked))
	for _, r := range reranked.Ranked {
		cand, ok := byID[r.PolymarketMarketID]
		if !ok {
			continue
		}
		out = append(out, model.MarketWithEvidence{MarketCandidate: cand, RankedMarket: r})
	}
	if len(out) == 0 {
		return similarityFallback(candidates), model.AmbiguityMedium
	}
	return out, reranked.OverallAmbiguity
}

func similarityFallback(candidates []model.MarketCandidate) []model.MarketWithEvidence {
	out := make([]model.MarketWithEvidence, len(candidates))
	for i, c := range candidates {
		out[i] = model.MarketWithEvidence{
			MarketCandidate: c,
			RankedMarket: model.RankedMarket{
				PolymarketMarketID: c.PolymarketMarketID,
				MatchScore:         util.Clamp01(c.Similarity * 1.2),
				Reasons:            []string{similarityReason},
				MismatchFlags:      []string{},
			},
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MatchScore > out[j].MatchScore
	})
	return out
}
