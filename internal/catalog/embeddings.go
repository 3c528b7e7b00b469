package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nroshak/marketcheck/internal/model"
)

// UpsertEmbedding stores or replaces the vector for one market. textHash
// identifies the text the vector was computed from, so ingest can skip
// markets whose title and description have not changed.
func (s *Store) UpsertEmbedding(ctx context.Context, e model.Embedding, textHash string) error {
	vec, err := json.Marshal(e.Vector)
	if err != nil {
		return fmt.Errorf("marshal vector: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO embeddings (polymarket_market_id, vector, model, text_hash, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(polymarket_market_id) DO UPDATE SET
			vector = excluded.vector,
			model = excluded.model,
			text_hash = excluded.text_hash,
			updated_at = excluded.updated_at`,
		e.PolymarketMarketID, string(vec), e.Model, textHash, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert embedding %s: %w", e.PolymarketMarketID, err)
	}
	return nil
}

// EmbeddingTextHash returns the stored text hash for a market, or "" when no
// embedding exists yet.
func (s *Store) EmbeddingTextHash(ctx context.Context, marketID string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT text_hash FROM embeddings WHERE polymarket_market_id = ?`, marketID).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("embedding hash %s: %w", marketID, err)
	}
	return hash, nil
}

// AllEmbeddings loads every stored embedding joined with its market record.
// Markets without an embedding are not returned.
func (s *Store) AllEmbeddings(ctx context.Context) ([]model.Embedding, map[string]model.MarketRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.polymarket_market_id, e.vector, e.model,
		       m.polymarket_market_id, m.title, m.description, m.slug, m.url, m.end_date, m.outcomes, m.volume, m.liquidity
		FROM embeddings e
		JOIN markets m ON m.polymarket_market_id = e.polymarket_market_id`)
	if err != nil {
		return nil, nil, fmt.Errorf("all embeddings: %w", err)
	}
	defer rows.Close()

	var (
		embs    []model.Embedding
		markets = make(map[string]model.MarketRecord)
	)
	for rows.Next() {
		var (
			e         model.Embedding
			vec       string
			m         model.MarketRecord
			slug, url sql.NullString
			endDate   sql.NullInt64
			outcomes  string
		)
		if err := rows.Scan(&e.PolymarketMarketID, &vec, &e.Model,
			&m.PolymarketMarketID, &m.Title, &m.Description, &slug, &url,
			&endDate, &outcomes, &m.Volume, &m.Liquidity); err != nil {
			return nil, nil, fmt.Errorf("scan embedding: %w", err)
		}
		if err := json.Unmarshal([]byte(vec), &e.Vector); err != nil {
			return nil, nil, fmt.Errorf("decode vector %s: %w", e.PolymarketMarketID, err)
		}
		m.Slug = slug.String
		m.URL = url.String
		if endDate.Valid {
			m.EndDate = model.Int64(endDate.Int64)
		}
		if err := json.Unmarshal([]byte(outcomes), &m.Outcomes); err != nil {
			m.Outcomes = []string{"Yes", "No"}
		}
		embs = append(embs, e)
		markets[m.PolymarketMarketID] = m
	}
	return embs, markets, rows.Err()
}
