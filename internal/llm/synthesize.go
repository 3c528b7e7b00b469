package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/nroshak/marketcheck/internal/model"
)

// SynthesisRequest carries everything the answer writer sees
type SynthesisRequest struct {
	Question     string
	Claim        string
	Best         model.MarketWithEvidence
	Alternatives []model.MarketWithEvidence
	HasGoodMatch bool
}

type synthesisReply struct {
	Summary        string `json:"summary"`
	Interpretation string `json:"interpretation"`
}

// Synthesize writes the answer summary. The prompt differs between good and
// weak matches: weak matches get a variant that leans on transparency about
// limitations instead of asserting the market's verdict.
func (c *Client) Synthesize(ctx context.Context, req SynthesisRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.SynthTimeout)
	defer cancel()

	system := synthesizeSystemPrompt
	if !req.HasGoodMatch {
		system = synthesizeWeakMatchSystemPrompt
	}

	var reply synthesisReply
	if err := c.chatJSON(ctx, system, buildSynthesisUser(req), 0.6, &reply); err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	if reply.Summary == "" {
		return "", fmt.Errorf("synthesize: empty summary")
	}
	if reply.Interpretation != "" && reply.Interpretation != reply.Summary {
		return reply.Summary + "\n\n" + reply.Interpretation, nil
	}
	return reply.Summary, nil
}

func buildSynthesisUser(req SynthesisRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nParsed Claim: %s\n\n", req.Question, req.Claim)
	if !req.HasGoodMatch {
		b.WriteString("Note: The available markets don't perfectly match this question, but here's what we found:\n\n")
	}

	best := req.Best
	fmt.Fprintf(&b, "Best Available Market:\n- Title: %s\n", best.Title)
	if best.Description != "" {
		fmt.Fprintf(&b, "- Description: %s\n", best.Description)
	}
	if best.Evidence.PriceYes != nil {
		fmt.Fprintf(&b, "- Market Probability (YES): %.1f%%\n", *best.Evidence.PriceYes*100)
	} else {
		b.WriteString("- Market Probability (YES): not available\n")
	}
	if best.Evidence.Volume != nil {
		fmt.Fprintf(&b, "- Volume: $%.0f\n", *best.Evidence.Volume)
	}
	fmt.Fprintf(&b, "- Match Quality: %.0f%%\n", best.MatchScore*100)

	if len(req.Alternatives) > 0 {
		b.WriteString("\nOther Related Markets:\n")
		for i, alt := range req.Alternatives {
			if alt.Evidence.PriceYes == nil {
				continue
			}
			fmt.Fprintf(&b, "%d. %s - %.1f%% probability (%.0f%% match)\n",
				i+1, alt.Title, *alt.Evidence.PriceYes*100, alt.MatchScore*100)
		}
	}

	b.WriteString("\nProvide an answer to the question using this market data.")
	return b.String()
}

// FallbackSummary produces the deterministic answer used when synthesis
// itself fails. Never empty.
func FallbackSummary(best model.MarketWithEvidence, hasGoodMatch bool) string {
	price := best.Evidence.PriceYes
	if hasGoodMatch {
		if price != nil {
			return fmt.Sprintf("The market %q indicates a %.1f%% probability for this claim.", best.Title, *price*100)
		}
		return fmt.Sprintf("The market %q matches this claim, but no current price is available.", best.Title)
	}
	if price != nil {
		return fmt.Sprintf("While there isn't a perfect market match for this specific question, the closest related market (%s) indicates a %.1f%% probability. This market is only loosely related, so the probability should be interpreted with caution.", best.Title, *price*100)
	}
	return fmt.Sprintf("We found a related market (%s), but it doesn't directly address your question.", best.Title)
}
