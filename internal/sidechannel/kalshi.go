package sidechannel

import (
	"context"
	"fmt"

	"github.com/nroshak/marketcheck/internal/kalshi"
	"github.com/nroshak/marketcheck/internal/model"
)

// KalshiMarkets searches a Kalshi client
type KalshiMarkets interface {
	Search(ctx context.Context, query string, limit int) ([]kalshi.Market, error)
}

// Kalshi surfaces matching secondary markets as a comparison channel
type Kalshi struct {
	client KalshiMarkets
}

// NewKalshi wraps a Kalshi client as a Retriever
func NewKalshi(client KalshiMarkets) *Kalshi {
	return &Kalshi{client: client}
}

// Name implements Retriever
func (k *Kalshi) Name() string { return "kalshi" }

// Retrieve searches Kalshi markets by the claim text
func (k *Kalshi) Retrieve(ctx context.Context, claim *model.ParsedClaim, limit int) ([]model.SideItem, error) {
	markets, err := k.client.Search(ctx, searchQuery(claim), limit)
	if err != nil {
		return nil, fmt.Errorf("kalshi search: %w", err)
	}

	items := make([]model.SideItem, 0, len(markets))
	for _, m := range markets {
		item := model.SideItem{
			Source:  "kalshi",
			Title:   m.Title,
			URL:     m.URL,
			Snippet: m.Subtitle,
			Extra:   map[string]float64{},
		}
		if m.LastPrice != nil {
			item.Extra["last_price"] = *m.LastPrice
		}
		if m.YesBid != nil {
			item.Extra["yes_bid"] = *m.YesBid
		}
		if m.Volume != nil {
			item.Extra["volume"] = *m.Volume
		}
		if m.CloseTime != nil {
			item.PublishedAt = *m.CloseTime
		}
		items = append(items, item)
	}
	return items, nil
}
