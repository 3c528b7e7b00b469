// Package evidence attaches live trading data to ranked candidates: a
// metadata refresh from Gamma, then price and spread resolution from CLOB
// quotes. Enrichment is best-effort per candidate; only a market that has
// provably ended gets dropped.
package evidence

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nroshak/marketcheck/internal/degrade"
	"github.com/nroshak/marketcheck/internal/model"
	"github.com/nroshak/marketcheck/internal/polymarket"
	"github.com/nroshak/marketcheck/internal/worker"
)

// MetadataSource refreshes a market's stored metadata
type MetadataSource interface {
	Market(ctx context.Context, id string) (*model.MarketRecord, error)
}

// QuoteSource provides live price data for a market
type QuoteSource interface {
	LastPrice(ctx context.Context, marketID string) (*float64, error)
	Book(ctx context.Context, marketID string) (*polymarket.Book, error)
	Spread(ctx context.Context, marketID string) (*float64, error)
}

// Fetcher enriches candidates with evidence
type Fetcher struct {
	metadata MetadataSource
	quotes   QuoteSource
	workers  int
	log      zerolog.Logger
}

// NewFetcher builds a Fetcher with the given enrichment fan-out
func NewFetcher(metadata MetadataSource, quotes QuoteSource, workers int, log zerolog.Logger) *Fetcher {
	if workers <= 0 {
		workers = 1
	}
	return &Fetcher{metadata: metadata, quotes: quotes, workers: workers, log: log}
}

// Enrich fetches evidence for every candidate concurrently, preserving rank
// order. Candidates whose refreshed metadata shows the market has ended are
// removed; any other per-candidate failure yields null evidence instead.
func (f *Fetcher) Enrich(ctx context.Context, ranked []model.MarketWithEvidence, now time.Time) []model.MarketWithEvidence {
	enriched := worker.Map(ctx, f.workers, ranked, func(ctx context.Context, m model.MarketWithEvidence) *model.MarketWithEvidence {
		return f.enrichOne(ctx, m, now)
	})

	out := make([]model.MarketWithEvidence, 0, len(enriched))
	for _, m := range enriched {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out
}

// enrichOne returns nil only when the market has ended
func (f *Fetcher) enrichOne(ctx context.Context, m model.MarketWithEvidence, now time.Time) *model.MarketWithEvidence {
	id := m.PolymarketMarketID

	refreshed, err := f.metadata.Market(ctx, id)
	if err != nil {
		f.log.Warn().Err(err).Str("market", id).Msg("metadata refresh failed, keeping stored data")
	} else if refreshed != nil {
		if refreshed.Ended(now) {
			f.log.Debug().Str("market", id).Msg("dropping ended market")
			return nil
		}
		m.MarketRecord = *refreshed
	}

	q := f.fetchQuotes(ctx, id)
	m.Evidence = model.Evidence{
		PriceYes:  ResolvePrice(q),
		Spread:    ResolveSpread(q),
		Volume:    m.Volume,
		Liquidity: m.Liquidity,
		UpdatedAt: now.UnixMilli(),
	}
	return &m
}

func (f *Fetcher) fetchQuotes(ctx context.Context, id string) Quotes {
	var q Quotes
	opts := degrade.Options{MaxRetries: 0}
	q.Last = degrade.Call(ctx, f.log, "clob price "+id, opts, nil, func(ctx context.Context) (*float64, error) {
		return f.quotes.LastPrice(ctx, id)
	})
	q.Book = degrade.Call(ctx, f.log, "clob book "+id, opts, nil, func(ctx context.Context) (*polymarket.Book, error) {
		return f.quotes.Book(ctx, id)
	})
	q.QuotedSpread = degrade.Call(ctx, f.log, "clob spread "+id, opts, nil, func(ctx context.Context) (*float64, error) {
		return f.quotes.Spread(ctx, id)
	})
	return q
}
