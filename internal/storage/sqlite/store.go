package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"poolArbitrage/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS arbitrage_evaluations (
	id TEXT PRIMARY KEY,
	evaluated_at TEXT NOT NULL,
	chain_name TEXT NOT NULL,
	quote_mode TEXT NOT NULL,
	reference_pool TEXT NOT NULL,
	hook_pool TEXT NOT NULL,
	block_number INTEGER NOT NULL,
	amount_in TEXT,
	reference_quote TEXT,
	hook_quote TEXT,
	market_price TEXT,
	gas_cost_wei TEXT,
	gas_cost_quote TEXT,
	profit_buy_hook TEXT,
	profit_sell_hook TEXT,
	direction TEXT NOT NULL,
	suppressed INTEGER NOT NULL DEFAULT 0,
	execution_ref TEXT,
	error TEXT
);
`

// Store keeps the evaluation journal in a local SQLite file. Amounts stay as
// decimal text since they exceed 64 bits.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) PutEvaluation(ctx context.Context, r model.EvaluationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO arbitrage_evaluations (
			id, evaluated_at, chain_name, quote_mode, reference_pool, hook_pool, block_number,
			amount_in, reference_quote, hook_quote, market_price, gas_cost_wei, gas_cost_quote,
			profit_buy_hook, profit_sell_hook, direction, suppressed, execution_ref, error
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID,
		r.EvaluatedAt.UTC().Format(time.RFC3339Nano),
		r.ChainName,
		r.QuoteMode,
		r.ReferencePool,
		r.HookPool,
		int64(r.BlockNumber),
		r.AmountIn,
		r.ReferenceQuote,
		r.HookQuote,
		r.MarketPrice,
		r.GasCostWei,
		r.GasCostQuote,
		r.ProfitA,
		r.ProfitB,
		r.Direction,
		r.Suppressed,
		r.ExecutionRef,
		r.Error,
	)
	if err != nil {
		return fmt.Errorf("insert evaluation %s: %w", r.ID, err)
	}
	return nil
}

// CountByDirection returns how many evaluations signalled each direction.
func (s *Store) CountByDirection(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT direction, count(*) FROM arbitrage_evaluations GROUP BY direction`)
	if err != nil {
		return nil, fmt.Errorf("count evaluations: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var direction string
		var count int64
		if err := rows.Scan(&direction, &count); err != nil {
			return nil, fmt.Errorf("scan direction count: %w", err)
		}
		counts[direction] = count
	}
	return counts, rows.Err()
}
