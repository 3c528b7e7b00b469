package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nroshak/marketcheck/internal/model"
)

// AddSnapshot appends one evidence snapshot. Rows are never updated or
// deleted; momentum lookups read the history.
func (s *Store) AddSnapshot(ctx context.Context, snap model.SentimentSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (polymarket_market_id, price_yes, spread, volume, liquidity, captured_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		snap.PolymarketMarketID, snap.PriceYes, snap.Spread, snap.Volume, snap.Liquidity, snap.CapturedAt)
	if err != nil {
		return fmt.Errorf("add snapshot %s: %w", snap.PolymarketMarketID, err)
	}
	return nil
}

// PriceAt returns the YES price from the most recent snapshot captured at or
// before t, or nil when no snapshot is old enough.
func (s *Store) PriceAt(ctx context.Context, marketID string, t time.Time) (*float64, error) {
	var price float64
	err := s.db.QueryRowContext(ctx, `
		SELECT price_yes FROM snapshots
		WHERE polymarket_market_id = ? AND captured_at <= ?
		ORDER BY captured_at DESC LIMIT 1`, marketID, t.UnixMilli()).Scan(&price)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("price at %s: %w", marketID, err)
	}
	return &price, nil
}
