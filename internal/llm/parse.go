package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/nroshak/marketcheck/internal/model"
)

// ParseClaim converts a free-text question into a structured claim. A failure
// here aborts the whole request: without a claim there is nothing to retrieve
// against.
func (c *Client) ParseClaim(ctx context.Context, question string) (*model.ParsedClaim, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ParseTimeout)
	defer cancel()

	var claim model.ParsedClaim
	if err := c.chatJSON(ctx, parseClaimSystemPrompt, question, 0.3, &claim); err != nil {
		return nil, fmt.Errorf("parse claim: %w", err)
	}
	if err := validateClaim(&claim); err != nil {
		return nil, fmt.Errorf("parse claim: %w", err)
	}
	return &claim, nil
}

func validateClaim(c *model.ParsedClaim) error {
	if strings.TrimSpace(c.Claim) == "" {
		return fmt.Errorf("empty claim text")
	}
	switch c.Type {
	case model.ClaimTypePastEvent, model.ClaimTypeFutureEvent, model.ClaimTypeOngoing, model.ClaimTypeNumeric:
	default:
		return fmt.Errorf("unknown claim type %q", c.Type)
	}
	if c.Entities == nil {
		c.Entities = []model.Entity{}
	}
	if c.MustInclude == nil {
		c.MustInclude = []string{}
	}
	if c.MustExclude == nil {
		c.MustExclude = []string{}
	}
	if c.Ambiguities == nil {
		c.Ambiguities = []string{}
	}
	return nil
}
