package index

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nroshak/marketcheck/internal/model"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors score 1", func(t *testing.T) {
		sim, err := CosineSimilarity([]float64{0.3, 0.4, 0.5}, []float64{0.3, 0.4, 0.5})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-9)
	})

	t.Run("orthogonal vectors score 0", func(t *testing.T) {
		sim, err := CosineSimilarity([]float64{1, 0}, []float64{0, 1})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, sim, 1e-9)
	})

	t.Run("opposite vectors score -1", func(t *testing.T) {
		sim, err := CosineSimilarity([]float64{1, 2}, []float64{-1, -2})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, sim, 1e-9)
	})

	t.Run("zero vector scores 0 without error", func(t *testing.T) {
		sim, err := CosineSimilarity([]float64{0, 0}, []float64{1, 2})
		require.NoError(t, err)
		assert.Equal(t, 0.0, sim)
	})

	t.Run("dimension mismatch is an error", func(t *testing.T) {
		_, err := CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3})
		assert.Error(t, err)
	})
}

type fakeCorpus struct {
	embs    []model.Embedding
	markets map[string]model.MarketRecord
	err     error
}

func (f *fakeCorpus) AllEmbeddings(context.Context) ([]model.Embedding, map[string]model.MarketRecord, error) {
	return f.embs, f.markets, f.err
}

func corpusWith(t *testing.T, entries map[string][]float64, ends map[string]*int64) *fakeCorpus {
	t.Helper()
	f := &fakeCorpus{markets: make(map[string]model.MarketRecord)}
	for id, vec := range entries {
		f.embs = append(f.embs, model.Embedding{PolymarketMarketID: id, Vector: vec})
		f.markets[id] = model.MarketRecord{PolymarketMarketID: id, Title: id, EndDate: ends[id]}
	}
	return f
}

func TestRetrieveTopKOrdersBySimilarity(t *testing.T) {
	corpus := corpusWith(t, map[string][]float64{
		"close":   {1, 0.1},
		"closer":  {1, 0.01},
		"far":     {0.1, 1},
		"farther": {-1, 0},
	}, nil)

	acc := NewAccessor(corpus, zerolog.Nop())
	got, err := acc.RetrieveTopK(context.Background(), []float64{1, 0}, 3, time.Now())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "closer", got[0].PolymarketMarketID)
	assert.Equal(t, "close", got[1].PolymarketMarketID)
	assert.Equal(t, "far", got[2].PolymarketMarketID)
	assert.Greater(t, got[0].Similarity, got[1].Similarity)
}

func TestRetrieveTopKDropsEndedMarkets(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour).UnixMilli()
	future := now.Add(time.Hour).UnixMilli()
	corpus := corpusWith(t, map[string][]float64{
		"ended": {1, 0},
		"live":  {1, 0},
	}, map[string]*int64{"ended": &past, "live": &future})

	acc := NewAccessor(corpus, zerolog.Nop())
	got, err := acc.RetrieveTopK(context.Background(), []float64{1, 0}, 10, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "live", got[0].PolymarketMarketID)
}

func TestRetrieveTopKSkipsMismatchedDimensions(t *testing.T) {
	corpus := corpusWith(t, map[string][]float64{
		"good": {1, 0},
		"bad":  {1, 0, 0},
	}, nil)

	acc := NewAccessor(corpus, zerolog.Nop())
	got, err := acc.RetrieveTopK(context.Background(), []float64{1, 0}, 10, time.Now())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].PolymarketMarketID)
}

func TestRetrieveTopKEmptyCorpus(t *testing.T) {
	acc := NewAccessor(&fakeCorpus{}, zerolog.Nop())
	got, err := acc.RetrieveTopK(context.Background(), []float64{1, 0}, 10, time.Now())
	require.NoError(t, err)
	assert.Empty(t, got)
}
