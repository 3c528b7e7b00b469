package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nroshak/marketcheck/internal/model"
)

// LogQuery appends one query-log entry. The parsed claim and debug payload are
// stored as JSON.
func (s *Store) LogQuery(ctx context.Context, e model.QueryLogEntry) error {
	claim, err := json.Marshal(e.ParsedClaim)
	if err != nil {
		return fmt.Errorf("marshal claim: %w", err)
	}
	debug, err := json.Marshal(e.Debug)
	if err != nil {
		return fmt.Errorf("marshal debug: %w", err)
	}
	createdAt := e.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().UnixMilli()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO query_log (question, parsed_claim, best_market_id, confidence, debug, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Question, string(claim), nullStr(e.BestMarketID), e.Confidence, string(debug), createdAt)
	if err != nil {
		return fmt.Errorf("log query: %w", err)
	}
	return nil
}

// RecentQueries returns the newest log entries, most recent first
func (s *Store) RecentQueries(ctx context.Context, limit int) ([]model.QueryLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT question, parsed_claim, best_market_id, confidence, debug, created_at
		FROM query_log ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent queries: %w", err)
	}
	defer rows.Close()

	var out []model.QueryLogEntry
	for rows.Next() {
		var (
			e            model.QueryLogEntry
			claim, debug string
			bestID       *string
		)
		if err := rows.Scan(&e.Question, &claim, &bestID, &e.Confidence, &debug, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan query: %w", err)
		}
		if bestID != nil {
			e.BestMarketID = *bestID
		}
		if err := json.Unmarshal([]byte(claim), &e.ParsedClaim); err != nil {
			return nil, fmt.Errorf("decode claim: %w", err)
		}
		if err := json.Unmarshal([]byte(debug), &e.Debug); err != nil {
			return nil, fmt.Errorf("decode debug: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
