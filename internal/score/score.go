// Package score computes the deterministic confidence and sentiment numbers
// for the best market. All formulas are pure; the only I/O is the snapshot
// lookup behind the momentum deltas.
package score

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nroshak/marketcheck/internal/model"
	"github.com/nroshak/marketcheck/internal/util"
)

// The answer-confidence and sentiment-confidence formulas treat a missing
// volume differently: the answer formula stays neutral, sentiment treats it
// as zero support. Two constants, not one.
const (
	answerNeutralVolumeScore    = 0.5
	sentimentMissingVolumeScore = 0.0
)

// Evidence in this design is always freshly fetched, so recency is a
// constant placeholder.
const recencyScore = 0.8

const neutralSpreadScore = 0.5
const neutralMomentumScore = 0.5

// Answer-confidence weights. Semantic match deliberately dominates: a
// confident match on a thin market should outrank a strong price on an
// unrelated market.
const (
	weightMatch    = 0.45
	weightVolume   = 0.25
	weightSpread   = 0.15
	weightMomentum = 0.10
	weightRecency  = 0.05
)

// Sentiment-confidence weights
const (
	sentimentWeightVolume   = 0.55
	sentimentWeightSpread   = 0.25
	sentimentWeightMomentum = 0.20
)

// Match-quality gate thresholds
const (
	goodMatchScoreMin = 0.35
	goodConfidenceMin = 0.25
)

// Sentiment label price bounds
const (
	bullishAbove = 0.55
	bearishBelow = 0.45
)

// SnapshotSource looks up the historical price for momentum deltas
type SnapshotSource interface {
	PriceAt(ctx context.Context, marketID string, t time.Time) (*float64, error)
}

// Result is the scorer's full output for one market
type Result struct {
	Confidence   float64
	Breakdown    model.ScoreBreakdown
	HasGoodMatch bool
	Sentiment    model.MarketSentiment
}

// Scorer computes confidence and sentiment
type Scorer struct {
	snapshots SnapshotSource
	log       zerolog.Logger
}

// NewScorer builds a Scorer over the given snapshot history
func NewScorer(snapshots SnapshotSource, log zerolog.Logger) *Scorer {
	return &Scorer{snapshots: snapshots, log: log}
}

// Score computes everything for the best market at the given time
func (s *Scorer) Score(ctx context.Context, best model.MarketWithEvidence, now time.Time) Result {
	delta1h := s.delta(ctx, best.PolymarketMarketID, best.Evidence.PriceYes, now.Add(-time.Hour))
	delta24h := s.delta(ctx, best.PolymarketMarketID, best.Evidence.PriceYes, now.Add(-24*time.Hour))

	breakdown := model.ScoreBreakdown{
		MatchScore:    util.Clamp01(best.MatchScore),
		VolumeScore:   volumeScore(best.Evidence.Volume),
		SpreadScore:   spreadScore(best.Evidence.Spread),
		MomentumScore: momentumScore(delta1h),
		RecencyScore:  recencyScore,
	}

	answerVolume := breakdown.VolumeScore
	if best.Evidence.Volume == nil {
		answerVolume = answerNeutralVolumeScore
	}
	confidence := util.Clamp01(
		weightMatch*breakdown.MatchScore +
			weightVolume*answerVolume +
			weightSpread*breakdown.SpreadScore +
			weightMomentum*breakdown.MomentumScore +
			weightRecency*breakdown.RecencyScore)

	return Result{
		Confidence:   confidence,
		Breakdown:    breakdown,
		HasGoodMatch: breakdown.MatchScore >= goodMatchScoreMin && confidence >= goodConfidenceMin,
		Sentiment:    s.sentiment(best.Evidence.PriceYes, delta1h, delta24h, breakdown),
	}
}

// delta returns priceNow − priceAt(t), or nil when either side is unknown
func (s *Scorer) delta(ctx context.Context, marketID string, priceNow *float64, t time.Time) *float64 {
	if priceNow == nil {
		return nil
	}
	then, err := s.snapshots.PriceAt(ctx, marketID, t)
	if err != nil {
		s.log.Warn().Err(err).Str("market", marketID).Msg("momentum lookup failed")
		return nil
	}
	if then == nil {
		return nil
	}
	return model.Float64(*priceNow - *then)
}

func (s *Scorer) sentiment(priceNow, delta1h, delta24h *float64, breakdown model.ScoreBreakdown) model.MarketSentiment {
	sentimentVolume := breakdown.VolumeScore
	confidence := util.Clamp01(
		sentimentWeightVolume*sentimentVolume +
			sentimentWeightSpread*breakdown.SpreadScore +
			sentimentWeightMomentum*breakdown.MomentumScore)

	label := model.SentimentUnknown
	if priceNow != nil {
		switch {
		case *priceNow > bullishAbove:
			label = model.SentimentBullish
		case *priceNow < bearishBelow:
			label = model.SentimentBearish
		default:
			label = model.SentimentNeutral
		}
	}

	return model.MarketSentiment{
		Label:      label,
		PriceYes:   priceNow,
		Delta1h:    delta1h,
		Delta24h:   delta24h,
		Confidence: confidence,
		Drivers:    drivers(breakdown, delta1h),
	}
}

// volumeScore normalizes volume against a $1M reference. Missing volume is 0
// here; the answer-confidence path substitutes its own neutral default.
func volumeScore(volume *float64) float64 {
	if volume == nil {
		return sentimentMissingVolumeScore
	}
	return util.Clamp01(*volume / 1_000_000)
}

func spreadScore(spread *float64) float64 {
	if spread == nil {
		return neutralSpreadScore
	}
	return util.Clamp01(1 - *spread*10)
}

func momentumScore(delta1h *float64) float64 {
	if delta1h == nil {
		return neutralMomentumScore
	}
	return util.Clamp01(0.5 + *delta1h*2)
}

func drivers(b model.ScoreBreakdown, delta1h *float64) []string {
	var out []string
	if b.VolumeScore >= 0.5 {
		out = append(out, "high trading volume")
	}
	if b.SpreadScore >= 0.8 {
		out = append(out, "tight bid-ask spread")
	}
	if delta1h != nil {
		switch {
		case *delta1h > 0.01:
			out = append(out, "positive 1h momentum")
		case *delta1h < -0.01:
			out = append(out, "negative 1h momentum")
		}
	}
	return out
}
