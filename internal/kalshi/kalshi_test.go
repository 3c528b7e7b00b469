package kalshi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nroshak/marketcheck/internal/cache"
	"github.com/nroshak/marketcheck/internal/model"
)

func newTestClient(baseURL string) *Client {
	cfg := model.DefaultConfig().Kalshi
	cfg.BaseURL = baseURL
	cfg.Timeout = 5 * time.Second
	return NewClient(cfg, cache.NewMemoryCache(time.Minute, time.Minute), nil, zerolog.Nop())
}

const marketsPayload = `{"markets":[
	{"ticker":"FED-26DEC","title":"Fed cuts rates in December","subtitle":"By Dec 31",
	 "category":"Economics","status":"open","close_time":"2026-12-31T23:59:00Z",
	 "yes_bid":62,"yes_ask":65,"last_price":63,"volume":120000},
	{"event_ticker":"BTC-100K","title":"Bitcoin above 100k","category":"Crypto","status":"open"}
]}`

func TestMarketsNormalizesCentsAndCloseTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("status"))
		w.Write([]byte(marketsPayload))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Markets(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	fed := got[0]
	assert.Equal(t, "FED-26DEC", fed.Ticker)
	require.NotNil(t, fed.LastPrice)
	assert.InDelta(t, 0.63, *fed.LastPrice, 1e-9)
	require.NotNil(t, fed.YesBid)
	assert.InDelta(t, 0.62, *fed.YesBid, 1e-9)
	require.NotNil(t, fed.CloseTime)
	assert.Equal(t, time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC).UnixMilli(), *fed.CloseTime)
	assert.Equal(t, "https://kalshi.com/markets/FED-26DEC", fed.URL)

	// Event-shaped entries fall back to the event ticker; prices stay nil.
	btc := got[1]
	assert.Equal(t, "BTC-100K", btc.Ticker)
	assert.Nil(t, btc.LastPrice)
	assert.Nil(t, btc.CloseTime)
}

func TestMarketsDecodesEventsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"events":[{"event_ticker":"E1","title":"Some event","status":"open"}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Markets(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "E1", got[0].Ticker)
}

func TestMarketsCachesResponses(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(marketsPayload))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Markets(context.Background(), 10)
	require.NoError(t, err)
	_, err = c.Markets(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestMarketsRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(marketsPayload))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Markets(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(2), hits.Load())
}

func TestSearchFiltersByTitleAndSubtitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(marketsPayload))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	got, err := c.Search(context.Background(), "fed rates december", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "FED-26DEC", got[0].Ticker)

	// Short words never match on their own.
	got, err = c.Search(context.Background(), "fed", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}
