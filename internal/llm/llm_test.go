package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nroshak/marketcheck/internal/model"
)

func TestValidateClaim(t *testing.T) {
	t.Run("fills nil slices", func(t *testing.T) {
		c := &model.ParsedClaim{Claim: "The Fed will cut rates", Type: model.ClaimTypeFutureEvent}
		require.NoError(t, validateClaim(c))
		assert.NotNil(t, c.Entities)
		assert.NotNil(t, c.MustInclude)
		assert.NotNil(t, c.MustExclude)
		assert.NotNil(t, c.Ambiguities)
	})

	t.Run("rejects empty claim text", func(t *testing.T) {
		err := validateClaim(&model.ParsedClaim{Claim: "  ", Type: model.ClaimTypeOngoing})
		assert.Error(t, err)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		err := validateClaim(&model.ParsedClaim{Claim: "x", Type: "speculation"})
		assert.Error(t, err)
	})
}

func withEvidence(title string, matchScore float64, price *float64) model.MarketWithEvidence {
	return model.MarketWithEvidence{
		MarketCandidate: model.MarketCandidate{
			MarketRecord: model.MarketRecord{Title: title, Description: "desc"},
		},
		RankedMarket: model.RankedMarket{MatchScore: matchScore},
		Evidence:     model.Evidence{PriceYes: price, Volume: model.Float64(250000)},
	}
}

func TestBuildSynthesisUserGoodMatch(t *testing.T) {
	req := SynthesisRequest{
		Question:     "Will the Fed cut rates?",
		Claim:        "The Fed will cut rates by March 2026",
		Best:         withEvidence("Fed rate cut by March 2026?", 0.9, model.Float64(0.62)),
		HasGoodMatch: true,
	}
	user := buildSynthesisUser(req)
	assert.Contains(t, user, "Will the Fed cut rates?")
	assert.Contains(t, user, "62.0%")
	assert.Contains(t, user, "Match Quality: 90%")
	assert.NotContains(t, user, "don't perfectly match")
}

func TestBuildSynthesisUserWeakMatchNotesLimitation(t *testing.T) {
	req := SynthesisRequest{
		Question: "Will it rain tomorrow?",
		Claim:    "It will rain tomorrow",
		Best:     withEvidence("Unrelated market", 0.2, nil),
	}
	user := buildSynthesisUser(req)
	assert.Contains(t, user, "don't perfectly match")
	assert.Contains(t, user, "not available")
}

func TestBuildSynthesisUserListsAlternativesWithPrices(t *testing.T) {
	req := SynthesisRequest{
		Question:     "q",
		Claim:        "c",
		Best:         withEvidence("best", 0.8, model.Float64(0.5)),
		HasGoodMatch: true,
		Alternatives: []model.MarketWithEvidence{
			withEvidence("priced alt", 0.6, model.Float64(0.4)),
			withEvidence("unpriced alt", 0.5, nil),
		},
	}
	user := buildSynthesisUser(req)
	assert.Contains(t, user, "priced alt")
	assert.NotContains(t, user, "unpriced alt")
}

func TestFallbackSummary(t *testing.T) {
	best := withEvidence("Fed rate cut by March 2026?", 0.9, model.Float64(0.62))

	t.Run("good match with price", func(t *testing.T) {
		s := FallbackSummary(best, true)
		assert.Contains(t, s, "62.0%")
		assert.Contains(t, s, best.Title)
	})

	t.Run("weak match with price urges caution", func(t *testing.T) {
		s := FallbackSummary(best, false)
		assert.Contains(t, s, "caution")
	})

	t.Run("never empty without price", func(t *testing.T) {
		unpriced := withEvidence("m", 0.1, nil)
		assert.NotEmpty(t, FallbackSummary(unpriced, true))
		assert.NotEmpty(t, FallbackSummary(unpriced, false))
	})
}

func TestPromptsDemandJSONOutput(t *testing.T) {
	for _, p := range []string{parseClaimSystemPrompt, rerankSystemPrompt, synthesizeSystemPrompt, synthesizeWeakMatchSystemPrompt} {
		assert.True(t, strings.Contains(p, "ONLY valid JSON"))
	}
}
