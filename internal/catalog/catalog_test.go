package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nroshak/marketcheck/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testMarket(id string, endDate *int64) model.MarketRecord {
	return model.MarketRecord{
		PolymarketMarketID: id,
		Title:              "Will X happen by 2026?",
		Description:        "Resolves YES if X happens.",
		Slug:               "will-x-happen",
		URL:                "https://polymarket.com/event/will-x-happen",
		EndDate:            endDate,
		Outcomes:           []string{"Yes", "No"},
		Volume:             model.Float64(150000),
		Liquidity:          model.Float64(40000),
	}
}

func TestUpsertAndGetMarket(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	end := time.Now().Add(48 * time.Hour).UnixMilli()
	m := testMarket("m1", &end)
	require.NoError(t, s.UpsertMarket(ctx, m))

	got, err := s.GetMarket(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, m.Title, got.Title)
	assert.Equal(t, m.Slug, got.Slug)
	require.NotNil(t, got.EndDate)
	assert.Equal(t, end, *got.EndDate)
	assert.Equal(t, []string{"Yes", "No"}, got.Outcomes)

	// Upsert replaces, does not duplicate.
	m.Title = "Updated title"
	m.Volume = model.Float64(200000)
	require.NoError(t, s.UpsertMarket(ctx, m))
	got, err = s.GetMarket(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Updated title", got.Title)
	assert.Equal(t, 200000.0, *got.Volume)
}

func TestGetMarketUnknownReturnsNil(t *testing.T) {
	s := openTestStore(t)
	got, err := s.GetMarket(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMarketsByEndDateWindow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	target := time.Date(2026, 9, 10, 15, 0, 0, 0, time.UTC)

	inWindow := target.Add(2 * time.Hour).UnixMilli()
	nextDay := target.Add(26 * time.Hour).UnixMilli()
	dayBefore := target.Add(-20 * time.Hour).UnixMilli()
	farOut := target.Add(10 * 24 * time.Hour).UnixMilli()

	require.NoError(t, s.UpsertMarket(ctx, testMarket("in", &inWindow)))
	require.NoError(t, s.UpsertMarket(ctx, testMarket("next", &nextDay)))
	require.NoError(t, s.UpsertMarket(ctx, testMarket("before", &dayBefore)))
	require.NoError(t, s.UpsertMarket(ctx, testMarket("far", &farOut)))
	require.NoError(t, s.UpsertMarket(ctx, testMarket("open", nil)))

	got, err := s.MarketsByEndDate(ctx, target, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "in", got[0].PolymarketMarketID)

	// Widening the range by a day picks up the next-day market, soonest first.
	got, err = s.MarketsByEndDate(ctx, target, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "in", got[0].PolymarketMarketID)
	assert.Equal(t, "next", got[1].PolymarketMarketID)
}

func TestPopularMarketsExcludesEnded(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-time.Hour).UnixMilli()
	future := now.Add(time.Hour).UnixMilli()

	big := testMarket("big", &future)
	big.Volume = model.Float64(5_000_000)
	small := testMarket("small", &future)
	small.Volume = model.Float64(1000)
	ended := testMarket("ended", &past)
	ended.Volume = model.Float64(9_000_000)

	require.NoError(t, s.UpsertMarket(ctx, big))
	require.NoError(t, s.UpsertMarket(ctx, small))
	require.NoError(t, s.UpsertMarket(ctx, ended))

	got, err := s.PopularMarkets(ctx, 10, 0, now)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "big", got[0].PolymarketMarketID)
	assert.Equal(t, "small", got[1].PolymarketMarketID)
}

func TestPruneEndedRemovesMarketAndEmbedding(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-time.Hour).UnixMilli()
	future := now.Add(time.Hour).UnixMilli()
	require.NoError(t, s.UpsertMarket(ctx, testMarket("old", &past)))
	require.NoError(t, s.UpsertMarket(ctx, testMarket("live", &future)))
	require.NoError(t, s.UpsertEmbedding(ctx, model.Embedding{
		PolymarketMarketID: "old", Vector: []float64{0.1, 0.2}, Model: "text-embedding-3-small",
	}, "h1"))

	n, err := s.PruneEnded(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.GetMarket(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, got)

	embs, _, err := s.AllEmbeddings(ctx)
	require.NoError(t, err)
	assert.Empty(t, embs)
}

func TestEmbeddingRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertMarket(ctx, testMarket("m1", nil)))
	require.NoError(t, s.UpsertEmbedding(ctx, model.Embedding{
		PolymarketMarketID: "m1", Vector: []float64{0.5, -0.25, 1}, Model: "text-embedding-3-small",
	}, "hash-a"))

	hash, err := s.EmbeddingTextHash(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "hash-a", hash)

	hash, err = s.EmbeddingTextHash(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, hash)

	embs, markets, err := s.AllEmbeddings(ctx)
	require.NoError(t, err)
	require.Len(t, embs, 1)
	assert.Equal(t, []float64{0.5, -0.25, 1}, embs[0].Vector)
	assert.Contains(t, markets, "m1")
}

func TestPriceAtNearestAtOrBefore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	for i, p := range []float64{0.40, 0.45, 0.50} {
		require.NoError(t, s.AddSnapshot(ctx, model.SentimentSnapshot{
			PolymarketMarketID: "m1",
			PriceYes:           p,
			CapturedAt:         base.Add(time.Duration(i) * time.Hour).UnixMilli(),
		}))
	}

	// Between the second and third snapshot: nearest at-or-before wins.
	got, err := s.PriceAt(ctx, "m1", base.Add(90*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0.45, *got)

	// Exactly at a snapshot counts.
	got, err = s.PriceAt(ctx, "m1", base)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0.40, *got)

	// Before all snapshots: no price, not zero.
	got, err = s.PriceAt(ctx, "m1", base.Add(-time.Minute))
	require.NoError(t, err)
	assert.Nil(t, got)

	// Other markets do not leak in.
	got, err = s.PriceAt(ctx, "m2", base.Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestQueryLogRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.LogQuery(ctx, model.QueryLogEntry{
			Question: "Did the Fed cut rates?",
			ParsedClaim: model.ParsedClaim{
				Claim: "The Fed cut rates in September 2026",
				Type:  model.ClaimTypePastEvent,
			},
			BestMarketID: "m1",
			Confidence:   0.72,
			Debug: model.DebugInfo{
				RequestID: "req-1",
				Timings:   map[string]int64{"total": int64(100 + i)},
			},
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second).UnixMilli(),
		}))
	}

	got, err := s.RecentQueries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Most recent first.
	assert.Equal(t, int64(102), got[0].Debug.Timings["total"])
	assert.Equal(t, "Did the Fed cut rates?", got[0].Question)
	assert.Equal(t, model.ClaimTypePastEvent, got[0].ParsedClaim.Type)
	assert.Equal(t, "m1", got[0].BestMarketID)
}
