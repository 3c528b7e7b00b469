package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nroshak/marketcheck/internal/cache"
	"github.com/nroshak/marketcheck/internal/model"
	"github.com/nroshak/marketcheck/internal/worker"
)

// ClobClient reads prices and order books from the CLOB API. A 400 from the
// CLOB means the market has no book (common for Gamma-listed markets), so it
// maps to a nil result rather than an error.
type ClobClient struct {
	http    *http.Client
	baseURL string
	cache   cache.Cache
	limiter *worker.Limiter
	cfg     model.PolymarketConfig
	log     zerolog.Logger
}

// NewClobClient builds a ClobClient
func NewClobClient(cfg model.PolymarketConfig, c cache.Cache, limiter *worker.Limiter, log zerolog.Logger) *ClobClient {
	return &ClobClient{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.ClobBaseURL,
		cache:   c,
		limiter: limiter,
		cfg:     cfg,
		log:     log,
	}
}

// LastPrice returns the last traded price for the market, or nil when the
// CLOB has no price for it.
func (c *ClobClient) LastPrice(ctx context.Context, marketID string) (*float64, error) {
	key := cache.Key("clob", "price", marketID)
	if data, found := c.cache.Get(key); found {
		var price float64
		if err := json.Unmarshal(data, &price); err == nil {
			return &price, nil
		}
	}

	url := fmt.Sprintf("%s/price?market=%s", c.baseURL, marketID)
	body, err := fetchBody(ctx, c.http, c.limiter, url)
	if err != nil {
		if isBadRequest(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("clob price %s: %w", marketID, err)
	}

	var payload clobPrice
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("clob price %s: decode: %w", marketID, err)
	}
	if payload.Price.value == nil {
		return nil, nil
	}

	if data, err := json.Marshal(*payload.Price.value); err == nil {
		if err := c.cache.Set(key, data, c.cfg.PriceTTL); err != nil {
			c.log.Warn().Err(err).Msg("failed to cache clob price")
		}
	}
	return payload.Price.value, nil
}

// Book returns the order book for the market, or nil when the CLOB has none
func (c *ClobClient) Book(ctx context.Context, marketID string) (*Book, error) {
	key := cache.Key("clob", "book", marketID)
	if data, found := c.cache.Get(key); found {
		var book Book
		if err := json.Unmarshal(data, &book); err == nil {
			return &book, nil
		}
	}

	url := fmt.Sprintf("%s/book?market=%s", c.baseURL, marketID)
	body, err := fetchBody(ctx, c.http, c.limiter, url)
	if err != nil {
		if isBadRequest(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("clob book %s: %w", marketID, err)
	}

	var payload clobBook
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("clob book %s: decode: %w", marketID, err)
	}
	book := payload.book()

	if data, err := json.Marshal(book); err == nil {
		if err := c.cache.Set(key, data, c.cfg.PriceTTL); err != nil {
			c.log.Warn().Err(err).Msg("failed to cache clob book")
		}
	}
	return book, nil
}

// Spread returns the quoted bid-ask spread, or nil when unavailable
func (c *ClobClient) Spread(ctx context.Context, marketID string) (*float64, error) {
	key := cache.Key("clob", "spread", marketID)
	if data, found := c.cache.Get(key); found {
		var spread float64
		if err := json.Unmarshal(data, &spread); err == nil {
			return &spread, nil
		}
	}

	url := fmt.Sprintf("%s/spread?market=%s", c.baseURL, marketID)
	body, err := fetchBody(ctx, c.http, c.limiter, url)
	if err != nil {
		if isBadRequest(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("clob spread %s: %w", marketID, err)
	}

	var payload struct {
		Spread flexFloat `json:"spread"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("clob spread %s: decode: %w", marketID, err)
	}
	if payload.Spread.value == nil {
		return nil, nil
	}

	if data, err := json.Marshal(*payload.Spread.value); err == nil {
		if err := c.cache.Set(key, data, c.cfg.PriceTTL); err != nil {
			c.log.Warn().Err(err).Msg("failed to cache clob spread")
		}
	}
	return payload.Spread.value, nil
}

func isBadRequest(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.status == http.StatusBadRequest || se.status == http.StatusNotFound
	}
	return false
}
