package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nroshak/marketcheck/internal/model"
)

type fakeSink struct {
	rows []model.SentimentSnapshot
	err  error
}

func (f *fakeSink) AddSnapshot(_ context.Context, snap model.SentimentSnapshot) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, snap)
	return nil
}

func enriched(id string, price *float64) model.MarketWithEvidence {
	return model.MarketWithEvidence{
		MarketCandidate: model.MarketCandidate{
			MarketRecord: model.MarketRecord{PolymarketMarketID: id},
		},
		Evidence: model.Evidence{
			PriceYes:  price,
			Spread:    model.Float64(0.02),
			UpdatedAt: 1234,
		},
	}
}

func TestRecordSkipsPricelessMarkets(t *testing.T) {
	sink := &fakeSink{}
	r := NewRecorder(sink, zerolog.Nop())

	r.Record(context.Background(), []model.MarketWithEvidence{
		enriched("priced", model.Float64(0.6)),
		enriched("unpriced", nil),
	})

	require.Len(t, sink.rows, 1)
	assert.Equal(t, "priced", sink.rows[0].PolymarketMarketID)
	assert.Equal(t, 0.6, sink.rows[0].PriceYes)
	assert.Equal(t, int64(1234), sink.rows[0].CapturedAt)
}

func TestRecordSwallowsSinkErrors(t *testing.T) {
	r := NewRecorder(&fakeSink{err: errors.New("disk full")}, zerolog.Nop())
	// Must not panic or propagate.
	r.Record(context.Background(), []model.MarketWithEvidence{enriched("m", model.Float64(0.5))})
}
