// Package kalshi reads public market data from the Kalshi trading API, used
// as a secondary-market comparison channel next to Polymarket.
package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nroshak/marketcheck/internal/cache"
	"github.com/nroshak/marketcheck/internal/degrade"
	"github.com/nroshak/marketcheck/internal/model"
	"github.com/nroshak/marketcheck/internal/worker"
)

// Market is one Kalshi market in normalized form
type Market struct {
	Ticker    string   `json:"ticker"`
	Title     string   `json:"title"`
	Subtitle  string   `json:"subtitle,omitempty"`
	Category  string   `json:"category"`
	Status    string   `json:"status"`
	CloseTime *int64   `json:"closeTime"` // Epoch ms
	YesBid    *float64 `json:"yesBid"`
	YesAsk    *float64 `json:"yesAsk"`
	LastPrice *float64 `json:"lastPrice"`
	Volume    *float64 `json:"volume"`
	URL       string   `json:"url"`
}

type rawMarket struct {
	Ticker      string   `json:"ticker"`
	EventTicker string   `json:"event_ticker"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	Category    string   `json:"category"`
	Status      string   `json:"status"`
	CloseTime   string   `json:"close_time"`
	YesBid      *float64 `json:"yes_bid"`
	YesAsk      *float64 `json:"yes_ask"`
	LastPrice   *float64 `json:"last_price"`
	Volume      *float64 `json:"volume"`
}

// Client talks to the Kalshi public markets endpoint
type Client struct {
	http    *http.Client
	baseURL string
	cache   cache.Cache
	limiter *worker.Limiter
	ttl     time.Duration
	log     zerolog.Logger
}

// NewClient builds a Client
func NewClient(cfg model.KalshiConfig, c cache.Cache, limiter *worker.Limiter, log zerolog.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		cache:   c,
		limiter: limiter,
		ttl:     cfg.TTL,
		log:     log,
	}
}

// Markets fetches up to limit open markets
func (c *Client) Markets(ctx context.Context, limit int) ([]Market, error) {
	if limit <= 0 {
		limit = 100
	}
	key := cache.Key("kalshi", "markets", strconv.Itoa(limit))
	if data, found := c.cache.Get(key); found {
		var markets []Market
		if err := json.Unmarshal(data, &markets); err == nil {
			return markets, nil
		}
	}

	url := fmt.Sprintf("%s/markets?limit=%d&status=open", c.baseURL, limit)
	body, err := degrade.Try(ctx, url, degrade.Options{MaxRetries: 2}, func(ctx context.Context) ([]byte, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, url); err != nil {
				return nil, err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, degrade.Transient(err)
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		if err != nil {
			return nil, degrade.Transient(err)
		}
		if resp.StatusCode >= 500 {
			return nil, degrade.Transient(fmt.Errorf("HTTP %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return b, nil
	})
	if err != nil {
		return nil, fmt.Errorf("kalshi markets: %w", err)
	}

	var payload struct {
		Markets []rawMarket `json:"markets"`
		Events  []rawMarket `json:"events"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("kalshi markets: decode: %w", err)
	}
	raw := payload.Markets
	if len(raw) == 0 {
		raw = payload.Events
	}

	markets := make([]Market, 0, len(raw))
	for _, m := range raw {
		markets = append(markets, m.normalize())
	}

	if data, err := json.Marshal(markets); err == nil {
		if err := c.cache.Set(key, data, c.ttl); err != nil {
			c.log.Warn().Err(err).Msg("failed to cache kalshi markets")
		}
	}
	return markets, nil
}

// Search filters open markets by case-insensitive title/subtitle match
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Market, error) {
	if limit <= 0 {
		limit = 20
	}
	markets, err := c.Markets(ctx, limit*3)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	terms := strings.Fields(q)
	var out []Market
	for _, m := range markets {
		text := strings.ToLower(m.Title + " " + m.Subtitle)
		if matchesAny(text, terms) {
			out = append(out, m)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func matchesAny(text string, terms []string) bool {
	for _, t := range terms {
		if len(t) > 3 && strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func (m *rawMarket) normalize() Market {
	ticker := m.Ticker
	if ticker == "" {
		ticker = m.EventTicker
	}
	out := Market{
		Ticker:    ticker,
		Title:     m.Title,
		Subtitle:  m.Subtitle,
		Category:  m.Category,
		Status:    m.Status,
		YesBid:    centsToProb(m.YesBid),
		YesAsk:    centsToProb(m.YesAsk),
		LastPrice: centsToProb(m.LastPrice),
		Volume:    m.Volume,
		URL:       "https://kalshi.com/markets/" + ticker,
	}
	if m.CloseTime != "" {
		if t, err := time.Parse(time.RFC3339, m.CloseTime); err == nil {
			out.CloseTime = model.Int64(t.UnixMilli())
		}
	}
	return out
}

// Kalshi quotes prices in cents
func centsToProb(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return model.Float64(*v / 100)
}
