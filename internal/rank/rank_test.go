package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nroshak/marketcheck/internal/llm"
	"github.com/nroshak/marketcheck/internal/model"
)

func candidate(id string, sim float64) model.MarketCandidate {
	return model.MarketCandidate{
		MarketRecord: model.MarketRecord{PolymarketMarketID: id, Title: id},
		Similarity:   sim,
	}
}

func TestResolveFollowsRerankerOrder(t *testing.T) {
	candidates := []model.MarketCandidate{candidate("a", 0.9), candidate("b", 0.5), candidate("c", 0.3)}
	reranked := &llm.RerankResult{
		Ranked: []model.RankedMarket{
			{PolymarketMarketID: "b", MatchScore: 0.95, Reasons: []string{"exact entity match"}},
			{PolymarketMarketID: "a", MatchScore: 0.4},
		},
		OverallAmbiguity: model.AmbiguityLow,
	}

	got, amb := Resolve(candidates, reranked)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].PolymarketMarketID)
	assert.Equal(t, 0.95, got[0].MatchScore)
	assert.Equal(t, "a", got[1].PolymarketMarketID)
	assert.Equal(t, model.AmbiguityLow, amb)
}

func TestResolveDropsUnknownRankedIDs(t *testing.T) {
	candidates := []model.MarketCandidate{candidate("a", 0.9)}
	reranked := &llm.RerankResult{
		Ranked: []model.RankedMarket{
			{PolymarketMarketID: "ghost", MatchScore: 1},
			{PolymarketMarketID: "a", MatchScore: 0.7},
		},
		OverallAmbiguity: model.AmbiguityLow,
	}

	got, _ := Resolve(candidates, reranked)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].PolymarketMarketID)
}

func TestResolveSimilarityFallback(t *testing.T) {
	candidates := []model.MarketCandidate{candidate("low", 0.3), candidate("high", 0.7), candidate("max", 0.95)}

	got, amb := Resolve(candidates, &llm.RerankResult{})
	require.Len(t, got, 3)
	assert.Equal(t, model.AmbiguityMedium, amb)

	// Sorted by scaled similarity, clamped to 1.
	assert.Equal(t, "max", got[0].PolymarketMarketID)
	assert.Equal(t, 1.0, got[0].MatchScore)
	assert.Equal(t, "high", got[1].PolymarketMarketID)
	assert.InDelta(t, 0.84, got[1].MatchScore, 1e-9)
	assert.InDelta(t, 0.36, got[2].MatchScore, 1e-9)
	assert.Equal(t, []string{"Based on embedding similarity"}, got[0].Reasons)
}

func TestResolveNilRerankUsesFallback(t *testing.T) {
	got, amb := Resolve([]model.MarketCandidate{candidate("a", 0.5)}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, model.AmbiguityMedium, amb)
	assert.InDelta(t, 0.6, got[0].MatchScore, 1e-9)
}

func TestResolveAllGhostsFallsBack(t *testing.T) {
	candidates := []model.MarketCandidate{candidate("a", 0.5)}
	reranked := &llm.RerankResult{
		Ranked:           []model.RankedMarket{{PolymarketMarketID: "ghost", MatchScore: 1}},
		OverallAmbiguity: model.AmbiguityLow,
	}
	got, amb := Resolve(candidates, reranked)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].PolymarketMarketID)
	assert.Equal(t, model.AmbiguityMedium, amb)
}
