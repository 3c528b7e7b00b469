package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/nroshak/marketcheck/internal/cache"
	"github.com/nroshak/marketcheck/internal/degrade"
	"github.com/nroshak/marketcheck/internal/model"
	"github.com/nroshak/marketcheck/internal/worker"
)

// GammaClient reads market metadata from the Gamma API with a read-through
// cache. Market metadata moves slowly, so the TTL is hours.
type GammaClient struct {
	http    *http.Client
	baseURL string
	cache   cache.Cache
	limiter *worker.Limiter
	cfg     model.PolymarketConfig
	log     zerolog.Logger
}

// NewGammaClient builds a GammaClient
func NewGammaClient(cfg model.PolymarketConfig, c cache.Cache, limiter *worker.Limiter, log zerolog.Logger) *GammaClient {
	return &GammaClient{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.GammaBaseURL,
		cache:   c,
		limiter: limiter,
		cfg:     cfg,
		log:     log,
	}
}

// Markets fetches one page of active, non-closed markets. bypassCache forces
// a fresh fetch (ingestion always does).
func (g *GammaClient) Markets(ctx context.Context, limit, offset int, bypassCache bool) ([]model.MarketRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	key := cache.Key("gamma", "markets", strconv.Itoa(limit), strconv.Itoa(offset))
	if !bypassCache {
		if data, found := g.cache.Get(key); found {
			var records []model.MarketRecord
			if err := json.Unmarshal(data, &records); err == nil {
				return records, nil
			}
		}
	}

	url := fmt.Sprintf("%s/markets?limit=%d&offset=%d&closed=false&active=true", g.baseURL, limit, offset)
	body, err := fetchBody(ctx, g.http, g.limiter, url)
	if err != nil {
		return nil, fmt.Errorf("gamma markets: %w", err)
	}

	raw, err := decodeMarketList(body)
	if err != nil {
		return nil, fmt.Errorf("gamma markets: %w", err)
	}

	records := make([]model.MarketRecord, 0, len(raw))
	for _, m := range raw {
		if rec, ok := m.record(); ok {
			records = append(records, *rec)
		}
	}

	if data, err := json.Marshal(records); err == nil {
		if err := g.cache.Set(key, data, g.cfg.MarketsTTL); err != nil {
			g.log.Warn().Err(err).Msg("failed to cache gamma markets")
		}
	}
	return records, nil
}

// Market fetches one market by ID. Returns nil without error when the API
// does not know the ID.
func (g *GammaClient) Market(ctx context.Context, id string) (*model.MarketRecord, error) {
	key := cache.Key("gamma", "market", id)
	if data, found := g.cache.Get(key); found {
		var rec model.MarketRecord
		if err := json.Unmarshal(data, &rec); err == nil {
			return &rec, nil
		}
	}

	url := fmt.Sprintf("%s/markets/%s", g.baseURL, id)
	body, err := fetchBody(ctx, g.http, g.limiter, url)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("gamma market %s: %w", id, err)
	}

	var raw gammaMarket
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("gamma market %s: decode: %w", id, err)
	}
	rec, ok := raw.record()
	if !ok {
		return nil, nil
	}

	if data, err := json.Marshal(rec); err == nil {
		if err := g.cache.Set(key, data, g.cfg.MarketsTTL); err != nil {
			g.log.Warn().Err(err).Msg("failed to cache gamma market")
		}
	}
	return rec, nil
}

// decodeMarketList handles the two shapes Gamma returns: a bare array or an
// object wrapping one under "data".
func decodeMarketList(body []byte) ([]gammaMarket, error) {
	var direct []gammaMarket
	if err := json.Unmarshal(body, &direct); err == nil {
		return direct, nil
	}
	var wrapped struct {
		Data []gammaMarket `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("unexpected response shape: %w", err)
	}
	return wrapped.Data, nil
}

// statusError carries the HTTP status for callers that special-case 4xx
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.status, e.body)
}

func isNotFound(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.status == http.StatusNotFound || se.status == http.StatusBadRequest
	}
	return false
}

// fetchBody performs a rate-limited GET, retrying server and network faults.
// Client errors come back as *statusError without retries.
func fetchBody(ctx context.Context, client *http.Client, limiter *worker.Limiter, url string) ([]byte, error) {
	return degrade.Try(ctx, url, degrade.Options{MaxRetries: 3}, func(ctx context.Context) ([]byte, error) {
		if limiter != nil {
			if err := limiter.Wait(ctx, url); err != nil {
				return nil, err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, degrade.Transient(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		if err != nil {
			return nil, degrade.Transient(err)
		}
		if resp.StatusCode >= 500 {
			return nil, degrade.Transient(&statusError{status: resp.StatusCode, body: truncate(body)})
		}
		if resp.StatusCode >= 400 {
			return nil, &statusError{status: resp.StatusCode, body: truncate(body)}
		}
		return body, nil
	})
}

func truncate(b []byte) string {
	const max = 200
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
