// Package snapshot persists point-in-time evidence rows that feed momentum
// lookups. Writes are best-effort; a failed snapshot never fails a request.
package snapshot

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/nroshak/marketcheck/internal/model"
)

// Sink appends snapshot rows
type Sink interface {
	AddSnapshot(ctx context.Context, snap model.SentimentSnapshot) error
}

// Recorder writes evidence snapshots for enriched markets
type Recorder struct {
	sink Sink
	log  zerolog.Logger
}

// NewRecorder builds a Recorder
func NewRecorder(sink Sink, log zerolog.Logger) *Recorder {
	return &Recorder{sink: sink, log: log}
}

// Record appends one snapshot per market that has a price. Markets without a
// price carry no momentum signal and are skipped. Errors are logged only.
func (r *Recorder) Record(ctx context.Context, markets []model.MarketWithEvidence) {
	for _, m := range markets {
		if m.Evidence.PriceYes == nil {
			continue
		}
		snap := model.SentimentSnapshot{
			PolymarketMarketID: m.PolymarketMarketID,
			PriceYes:           *m.Evidence.PriceYes,
			Spread:             m.Evidence.Spread,
			Volume:             m.Evidence.Volume,
			Liquidity:          m.Evidence.Liquidity,
			CapturedAt:         m.Evidence.UpdatedAt,
		}
		if err := r.sink.AddSnapshot(ctx, snap); err != nil {
			r.log.Warn().Err(err).Str("market", m.PolymarketMarketID).Msg("snapshot write failed")
		}
	}
}
