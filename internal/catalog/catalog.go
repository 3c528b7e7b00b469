// Package catalog is the SQLite-backed store for the market corpus: market
// records, their embeddings, append-only evidence snapshots, and the query
// log. Pure-Go driver, single writer.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nroshak/marketcheck/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS markets (
    polymarket_market_id TEXT PRIMARY KEY,
    title                TEXT NOT NULL,
    description          TEXT NOT NULL DEFAULT '',
    slug                 TEXT,
    url                  TEXT,
    end_date             INTEGER,
    outcomes             TEXT NOT NULL DEFAULT '["Yes","No"]',
    volume               REAL,
    liquidity            REAL,
    last_ingested_at     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS embeddings (
    polymarket_market_id TEXT PRIMARY KEY,
    vector               TEXT NOT NULL,
    model                TEXT NOT NULL,
    text_hash            TEXT NOT NULL DEFAULT '',
    updated_at           INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    polymarket_market_id TEXT NOT NULL,
    price_yes            REAL NOT NULL,
    spread               REAL,
    volume               REAL,
    liquidity            REAL,
    captured_at          INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS query_log (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    question       TEXT NOT NULL,
    parsed_claim   TEXT NOT NULL,
    best_market_id TEXT,
    confidence     REAL,
    debug          TEXT,
    created_at     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_markets_end_date   ON markets(end_date);
CREATE INDEX IF NOT EXISTS idx_markets_ingested   ON markets(last_ingested_at DESC);
CREATE INDEX IF NOT EXISTS idx_snapshots_lookup   ON snapshots(polymarket_market_id, captured_at DESC);
CREATE INDEX IF NOT EXISTS idx_query_log_created  ON query_log(created_at DESC);
`

// Store wraps the catalog database
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at path and applies the schema
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertMarket inserts or refreshes one market record
func (s *Store) UpsertMarket(ctx context.Context, m model.MarketRecord) error {
	outcomes, err := json.Marshal(m.Outcomes)
	if err != nil {
		return fmt.Errorf("marshal outcomes: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO markets (polymarket_market_id, title, description, slug, url, end_date, outcomes, volume, liquidity, last_ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(polymarket_market_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			slug = excluded.slug,
			url = excluded.url,
			end_date = excluded.end_date,
			outcomes = excluded.outcomes,
			volume = excluded.volume,
			liquidity = excluded.liquidity,
			last_ingested_at = excluded.last_ingested_at`,
		m.PolymarketMarketID, m.Title, m.Description, nullStr(m.Slug), nullStr(m.URL),
		m.EndDate, string(outcomes), m.Volume, m.Liquidity, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert market %s: %w", m.PolymarketMarketID, err)
	}
	return nil
}

// GetMarket returns the stored record, or nil when unknown
func (s *Store) GetMarket(ctx context.Context, id string) (*model.MarketRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT polymarket_market_id, title, description, slug, url, end_date, outcomes, volume, liquidity
		FROM markets WHERE polymarket_market_id = ?`, id)
	m, err := scanMarket(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get market %s: %w", id, err)
	}
	return m, nil
}

// MarketsByEndDate returns markets whose end date falls inside the day window
// [start of target, end of target + dayRange − 1], soonest-ending first, then
// highest volume.
func (s *Store) MarketsByEndDate(ctx context.Context, target time.Time, dayRange int) ([]model.MarketRecord, error) {
	if dayRange < 1 {
		dayRange = 1
	}
	start := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, target.Location())
	end := start.AddDate(0, 0, dayRange).Add(-time.Millisecond)

	rows, err := s.db.QueryContext(ctx, `
		SELECT polymarket_market_id, title, description, slug, url, end_date, outcomes, volume, liquidity
		FROM markets
		WHERE end_date IS NOT NULL AND end_date >= ? AND end_date <= ?
		ORDER BY end_date ASC, volume DESC`, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("markets by end date: %w", err)
	}
	defer rows.Close()
	return scanMarkets(rows)
}

// PopularMarkets lists non-ended markets by volume, then liquidity
func (s *Store) PopularMarkets(ctx context.Context, limit, offset int, now time.Time) ([]model.MarketRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT polymarket_market_id, title, description, slug, url, end_date, outcomes, volume, liquidity
		FROM markets
		WHERE end_date IS NULL OR end_date > ?
		ORDER BY COALESCE(volume, 0) DESC, COALESCE(liquidity, 0) DESC, last_ingested_at DESC
		LIMIT ? OFFSET ?`, now.UnixMilli(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("popular markets: %w", err)
	}
	defer rows.Close()
	return scanMarkets(rows)
}

// PruneEnded removes markets (and their embeddings) that ended before cutoff.
// Returns the number of markets removed.
func (s *Store) PruneEnded(ctx context.Context, cutoff time.Time) (int64, error) {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM embeddings WHERE polymarket_market_id IN
			(SELECT polymarket_market_id FROM markets WHERE end_date IS NOT NULL AND end_date <= ?)`,
		cutoff.UnixMilli()); err != nil {
		return 0, fmt.Errorf("prune embeddings: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM markets WHERE end_date IS NOT NULL AND end_date <= ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune markets: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func scanMarkets(rows *sql.Rows) ([]model.MarketRecord, error) {
	var out []model.MarketRecord
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan market: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanMarket(row scannable) (*model.MarketRecord, error) {
	var (
		m         model.MarketRecord
		slug, url sql.NullString
		endDate   sql.NullInt64
		outcomes  string
	)
	if err := row.Scan(&m.PolymarketMarketID, &m.Title, &m.Description, &slug, &url,
		&endDate, &outcomes, &m.Volume, &m.Liquidity); err != nil {
		return nil, err
	}
	m.Slug = slug.String
	m.URL = url.String
	if endDate.Valid {
		m.EndDate = model.Int64(endDate.Int64)
	}
	if err := json.Unmarshal([]byte(outcomes), &m.Outcomes); err != nil {
		m.Outcomes = []string{"Yes", "No"}
	}
	return &m, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
