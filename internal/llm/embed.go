package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/nroshak/marketcheck/internal/cache"
	"github.com/nroshak/marketcheck/internal/util"
)

// Embedding vectors are deterministic per (text, model), so cached entries
// never really go stale.
const embedCacheTTL = 365 * 24 * time.Hour

// Embedder produces embedding vectors with a read-through cache keyed on the
// hash of text and model.
type Embedder struct {
	client *Client
	cache  cache.Cache
	log    zerolog.Logger
}

// NewEmbedder builds an Embedder on top of the shared client
func NewEmbedder(client *Client, c cache.Cache, log zerolog.Logger) *Embedder {
	return &Embedder{client: client, cache: c, log: log}
}

// Embed returns the vector for text, hitting the cache first
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	key := cache.Key("embed", util.HashKey(text+":"+e.client.cfg.EmbedModel))
	if data, found := e.cache.Get(key); found {
		var vec []float64
		if err := json.Unmarshal(data, &vec); err == nil {
			return vec, nil
		}
		e.log.Warn().Str("key", key).Msg("discarding corrupt cached embedding")
	}

	ctx, cancel := context.WithTimeout(ctx, e.client.cfg.EmbedTimeout)
	defer cancel()

	resp, err := e.client.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.client.cfg.EmbedModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding in response")
	}

	vec := make([]float64, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float64(v)
	}

	if data, err := json.Marshal(vec); err == nil {
		if err := e.cache.Set(key, data, embedCacheTTL); err != nil {
			e.log.Warn().Err(err).Msg("failed to cache embedding")
		}
	}
	return vec, nil
}
