package score

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nroshak/marketcheck/internal/model"
)

type fakeSnapshots struct {
	prices map[int64]*float64 // keyed on lookup time unix ms
	err    error
}

func (f *fakeSnapshots) PriceAt(_ context.Context, _ string, t time.Time) (*float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.prices[t.UnixMilli()], nil
}

func market(matchScore float64, price, spread, volume *float64) model.MarketWithEvidence {
	return model.MarketWithEvidence{
		MarketCandidate: model.MarketCandidate{
			MarketRecord: model.MarketRecord{PolymarketMarketID: "m1"},
		},
		RankedMarket: model.RankedMarket{MatchScore: matchScore},
		Evidence:     model.Evidence{PriceYes: price, Spread: spread, Volume: volume},
	}
}

func TestAnswerConfidenceFormula(t *testing.T) {
	// volume=2M, spread=0.02, match=0.9, no momentum history:
	// 0.45*0.9 + 0.25*1.0 + 0.15*0.8 + 0.10*0.5 + 0.05*0.8 = 0.865
	s := NewScorer(&fakeSnapshots{}, zerolog.Nop())
	got := s.Score(context.Background(),
		market(0.9, model.Float64(0.6), model.Float64(0.02), model.Float64(2_000_000)), time.Now())

	assert.Equal(t, 1.0, got.Breakdown.VolumeScore)
	assert.InDelta(t, 0.8, got.Breakdown.SpreadScore, 1e-9)
	assert.Equal(t, 0.5, got.Breakdown.MomentumScore)
	assert.Equal(t, 0.8, got.Breakdown.RecencyScore)
	assert.InDelta(t, 0.865, got.Confidence, 1e-9)
	assert.True(t, got.HasGoodMatch)
}

func TestMissingVolumeUsesDistinctDefaults(t *testing.T) {
	s := NewScorer(&fakeSnapshots{}, zerolog.Nop())
	got := s.Score(context.Background(), market(0.9, model.Float64(0.5), nil, nil), time.Now())

	// Answer confidence: neutral 0.5 volume.
	// 0.45*0.9 + 0.25*0.5 + 0.15*0.5 + 0.10*0.5 + 0.05*0.8 = 0.695
	assert.InDelta(t, 0.695, got.Confidence, 1e-9)

	// Sentiment confidence: zero volume support.
	// 0.55*0 + 0.25*0.5 + 0.20*0.5 = 0.225
	assert.InDelta(t, 0.225, got.Sentiment.Confidence, 1e-9)
	assert.Equal(t, 0.0, got.Breakdown.VolumeScore)
}

func TestMomentumDeltas(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	snaps := &fakeSnapshots{prices: map[int64]*float64{
		now.Add(-time.Hour).UnixMilli():      model.Float64(0.50),
		now.Add(-24 * time.Hour).UnixMilli(): model.Float64(0.40),
	}}
	s := NewScorer(snaps, zerolog.Nop())
	got := s.Score(context.Background(), market(0.9, model.Float64(0.60), nil, nil), now)

	require.NotNil(t, got.Sentiment.Delta1h)
	assert.InDelta(t, 0.10, *got.Sentiment.Delta1h, 1e-9)
	require.NotNil(t, got.Sentiment.Delta24h)
	assert.InDelta(t, 0.20, *got.Sentiment.Delta24h, 1e-9)
	// momentumScore = clamp01(0.5 + 0.10*2) = 0.7
	assert.InDelta(t, 0.7, got.Breakdown.MomentumScore, 1e-9)
}

func TestMomentumNilWithoutOldSnapshot(t *testing.T) {
	s := NewScorer(&fakeSnapshots{}, zerolog.Nop())
	got := s.Score(context.Background(), market(0.9, model.Float64(0.6), nil, nil), time.Now())
	assert.Nil(t, got.Sentiment.Delta1h)
	assert.Nil(t, got.Sentiment.Delta24h)
	assert.Equal(t, 0.5, got.Breakdown.MomentumScore)
}

func TestMomentumNilWithoutCurrentPrice(t *testing.T) {
	snaps := &fakeSnapshots{prices: map[int64]*float64{}}
	s := NewScorer(snaps, zerolog.Nop())
	got := s.Score(context.Background(), market(0.9, nil, nil, nil), time.Now())
	assert.Nil(t, got.Sentiment.Delta1h)
	assert.Equal(t, model.SentimentUnknown, got.Sentiment.Label)
}

func TestSnapshotLookupFailureDegradesToNeutral(t *testing.T) {
	s := NewScorer(&fakeSnapshots{err: errors.New("db locked")}, zerolog.Nop())
	got := s.Score(context.Background(), market(0.9, model.Float64(0.6), nil, nil), time.Now())
	assert.Nil(t, got.Sentiment.Delta1h)
	assert.Equal(t, 0.5, got.Breakdown.MomentumScore)
}

func TestSentimentLabels(t *testing.T) {
	s := NewScorer(&fakeSnapshots{}, zerolog.Nop())
	cases := []struct {
		name  string
		price *float64
		want  model.SentimentLabel
	}{
		{"no price", nil, model.SentimentUnknown},
		{"bullish above 0.55", model.Float64(0.56), model.SentimentBullish},
		{"bearish below 0.45", model.Float64(0.44), model.SentimentBearish},
		{"neutral at 0.55", model.Float64(0.55), model.SentimentNeutral},
		{"neutral at 0.45", model.Float64(0.45), model.SentimentNeutral},
		{"neutral at 0.50", model.Float64(0.50), model.SentimentNeutral},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.Score(context.Background(), market(0.9, tc.price, nil, nil), time.Now())
			assert.Equal(t, tc.want, got.Sentiment.Label)
		})
	}
}

func TestMatchQualityGate(t *testing.T) {
	s := NewScorer(&fakeSnapshots{}, zerolog.Nop())

	// matchScore below 0.35 fails the gate regardless of confidence.
	got := s.Score(context.Background(), market(0.34, model.Float64(0.6), model.Float64(0.01), model.Float64(5_000_000)), time.Now())
	assert.False(t, got.HasGoodMatch)

	got = s.Score(context.Background(), market(0.35, model.Float64(0.6), model.Float64(0.01), model.Float64(5_000_000)), time.Now())
	assert.True(t, got.HasGoodMatch)
}

func TestConfidenceStaysInUnitRange(t *testing.T) {
	s := NewScorer(&fakeSnapshots{}, zerolog.Nop())
	got := s.Score(context.Background(), market(1.0, model.Float64(0.99), model.Float64(0), model.Float64(100_000_000)), time.Now())
	assert.LessOrEqual(t, got.Confidence, 1.0)
	assert.GreaterOrEqual(t, got.Confidence, 0.0)

	// Wide spread clamps the spread score at zero.
	got = s.Score(context.Background(), market(0, model.Float64(0.5), model.Float64(0.5), nil), time.Now())
	assert.Equal(t, 0.0, got.Breakdown.SpreadScore)
}
