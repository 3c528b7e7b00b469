// Package index performs in-process vector retrieval over the stored market
// embeddings. The corpus is small enough that exhaustive cosine scoring beats
// carrying an ANN dependency.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/nroshak/marketcheck/internal/model"
)

// CosineSimilarity computes the cosine of the angle between a and b. Vectors
// of different lengths are an error; a zero-norm vector yields 0.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// CorpusSource loads the embedding corpus with its market records
type CorpusSource interface {
	AllEmbeddings(ctx context.Context) ([]model.Embedding, map[string]model.MarketRecord, error)
}

// Accessor retrieves candidate markets by embedding similarity
type Accessor struct {
	corpus CorpusSource
	log    zerolog.Logger
}

// NewAccessor builds an Accessor over the given corpus
func NewAccessor(corpus CorpusSource, log zerolog.Logger) *Accessor {
	return &Accessor{corpus: corpus, log: log}
}

// RetrieveTopK returns up to k candidates ordered by descending similarity to
// query. Ended markets are dropped, embeddings with a mismatched dimension
// are skipped with a log line, and an empty corpus yields an empty list.
func (a *Accessor) RetrieveTopK(ctx context.Context, query []float64, k int, now time.Time) ([]model.MarketCandidate, error) {
	embs, markets, err := a.corpus.AllEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	candidates := make([]model.MarketCandidate, 0, len(embs))
	for _, e := range embs {
		m, ok := markets[e.PolymarketMarketID]
		if !ok {
			continue
		}
		if m.Ended(now) {
			continue
		}
		sim, err := CosineSimilarity(query, e.Vector)
		if err != nil {
			a.log.Warn().Err(err).Str("market", e.PolymarketMarketID).Msg("skipping embedding")
			continue
		}
		candidates = append(candidates, model.MarketCandidate{MarketRecord: m, Similarity: sim})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}
