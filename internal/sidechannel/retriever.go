// Package sidechannel gathers contextual items (news, social posts, search
// trends, secondary markets) that accompany an answer. Channels run
// concurrently and fail independently; a dead channel contributes zero items,
// never an error.
package sidechannel

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nroshak/marketcheck/internal/model"
	"github.com/nroshak/marketcheck/internal/worker"
)

// Retriever is one side channel
type Retriever interface {
	Name() string
	Retrieve(ctx context.Context, claim *model.ParsedClaim, limit int) ([]model.SideItem, error)
}

// Collect runs every retriever concurrently and returns items keyed by
// channel name. Failed or empty channels are absent from the map.
func Collect(ctx context.Context, retrievers []Retriever, claim *model.ParsedClaim, limit int, log zerolog.Logger) map[string][]model.SideItem {
	results := make([][]model.SideItem, len(retrievers))

	fns := make([]func(ctx context.Context), len(retrievers))
	for i, r := range retrievers {
		i, r := i, r
		fns[i] = func(ctx context.Context) {
			items, err := r.Retrieve(ctx, claim, limit)
			if err != nil {
				log.Warn().Err(err).Str("channel", r.Name()).Msg("side channel failed")
				return
			}
			results[i] = items
		}
	}
	worker.Gather(ctx, fns...)

	out := make(map[string][]model.SideItem)
	for i, r := range retrievers {
		if len(results[i]) > 0 {
			out[r.Name()] = results[i]
		}
	}
	return out
}

// searchQuery builds the short keyword query the social channels use: the
// claim's leading words, capped to keep APIs happy.
func searchQuery(claim *model.ParsedClaim) string {
	words := strings.Fields(claim.Claim)
	if len(words) > 10 {
		words = words[:10]
	}
	return strings.Join(words, " ")
}
