// Package ingest refreshes the market catalog: it pages through the
// Polymarket listing, upserts records, embeds changed market text, and prunes
// ended markets. Runs as a CLI command or on a timer under serve.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nroshak/marketcheck/internal/model"
	"github.com/nroshak/marketcheck/internal/util"
)

// MarketLister pages through the upstream market listing
type MarketLister interface {
	Markets(ctx context.Context, limit, offset int, bypassCache bool) ([]model.MarketRecord, error)
}

// Catalog is the subset of the store ingestion writes to
type Catalog interface {
	UpsertMarket(ctx context.Context, m model.MarketRecord) error
	UpsertEmbedding(ctx context.Context, e model.Embedding, textHash string) error
	EmbeddingTextHash(ctx context.Context, marketID string) (string, error)
	PruneEnded(ctx context.Context, cutoff time.Time) (int64, error)
}

// Embedder produces market-text vectors
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Stats summarizes one ingestion run
type Stats struct {
	Fetched  int
	Upserted int
	Embedded int
	Skipped  int
	Pruned   int64
}

// Ingester drives one refresh cycle
type Ingester struct {
	lister     MarketLister
	catalog    Catalog
	embedder   Embedder
	embedModel string
	pageSize   int
	maxMarkets int
	log        zerolog.Logger
}

// New builds an Ingester. maxMarkets <= 0 means no cap.
func New(lister MarketLister, catalog Catalog, embedder Embedder, embedModel string, maxMarkets int, log zerolog.Logger) *Ingester {
	return &Ingester{
		lister:     lister,
		catalog:    catalog,
		embedder:   embedder,
		embedModel: embedModel,
		pageSize:   100,
		maxMarkets: maxMarkets,
		log:        log,
	}
}

// Run executes a full refresh: page, upsert, embed changed text, prune.
func (i *Ingester) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	offset := 0

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		markets, err := i.lister.Markets(ctx, i.pageSize, offset, true)
		if err != nil {
			return stats, fmt.Errorf("list markets at offset %d: %w", offset, err)
		}
		if len(markets) == 0 {
			break
		}
		stats.Fetched += len(markets)

		for _, m := range markets {
			if err := i.ingestOne(ctx, m, stats); err != nil {
				return stats, err
			}
		}

		offset += i.pageSize
		if i.maxMarkets > 0 && stats.Fetched >= i.maxMarkets {
			break
		}
	}

	pruned, err := i.catalog.PruneEnded(ctx, time.Now())
	if err != nil {
		i.log.Warn().Err(err).Msg("prune failed")
	} else {
		stats.Pruned = pruned
	}

	i.log.Info().
		Int("fetched", stats.Fetched).
		Int("upserted", stats.Upserted).
		Int("embedded", stats.Embedded).
		Int("skipped", stats.Skipped).
		Int64("pruned", stats.Pruned).
		Msg("ingestion complete")
	return stats, nil
}

func (i *Ingester) ingestOne(ctx context.Context, m model.MarketRecord, stats *Stats) error {
	if err := i.catalog.UpsertMarket(ctx, m); err != nil {
		return fmt.Errorf("upsert %s: %w", m.PolymarketMarketID, err)
	}
	stats.Upserted++

	text := EmbeddingText(m)
	hash := util.HashKey(text)

	stored, err := i.catalog.EmbeddingTextHash(ctx, m.PolymarketMarketID)
	if err != nil {
		return fmt.Errorf("embedding hash %s: %w", m.PolymarketMarketID, err)
	}
	if stored == hash {
		stats.Skipped++
		return nil
	}

	vec, err := i.embedder.Embed(ctx, text)
	if err != nil {
		// One bad embedding should not sink the whole run.
		i.log.Warn().Err(err).Str("market", m.PolymarketMarketID).Msg("embed failed")
		return nil
	}

	emb := model.Embedding{
		PolymarketMarketID: m.PolymarketMarketID,
		Vector:             vec,
		Model:              i.embedModel,
		UpdatedAt:          time.Now().UnixMilli(),
	}
	if err := i.catalog.UpsertEmbedding(ctx, emb, hash); err != nil {
		return fmt.Errorf("upsert embedding %s: %w", m.PolymarketMarketID, err)
	}
	stats.Embedded++
	return nil
}

// EmbeddingText builds the text embedded for a market: title, description,
// outcomes, and the end date. Kept stable so hashes only change when the
// market's content does.
func EmbeddingText(m model.MarketRecord) string {
	parts := []string{m.Title}
	if m.Description != "" {
		parts = append(parts, m.Description)
	}
	if len(m.Outcomes) > 0 {
		parts = append(parts, "Outcomes: "+strings.Join(m.Outcomes, ", "))
	}
	if m.EndDate != nil {
		parts = append(parts, "Ends: "+time.UnixMilli(*m.EndDate).UTC().Format("2006-01-02"))
	}
	return strings.Join(parts, "\n")
}
