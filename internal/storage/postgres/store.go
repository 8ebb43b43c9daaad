package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolArbitrage/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS arbitrage_evaluations (
	id TEXT PRIMARY KEY,
	evaluated_at TIMESTAMPTZ NOT NULL,
	chain_name TEXT NOT NULL,
	quote_mode TEXT NOT NULL,
	reference_pool TEXT NOT NULL,
	hook_pool TEXT NOT NULL,
	block_number BIGINT NOT NULL,
	amount_in NUMERIC,
	reference_quote NUMERIC,
	hook_quote NUMERIC,
	market_price NUMERIC,
	gas_cost_wei NUMERIC,
	gas_cost_quote NUMERIC,
	profit_buy_hook NUMERIC,
	profit_sell_hook NUMERIC,
	direction TEXT NOT NULL,
	suppressed BOOLEAN NOT NULL DEFAULT false,
	execution_ref TEXT,
	error TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS arbitrage_evaluations_direction_idx
	ON arbitrage_evaluations (direction, evaluated_at);
`

// Store persists evaluation records in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the evaluations table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// PutEvaluation inserts one record; a repeated ID overwrites the execution
// outcome only.
func (s *Store) PutEvaluation(ctx context.Context, record model.EvaluationRecord) error {
	return s.PutEvaluations(ctx, []model.EvaluationRecord{record})
}

// PutEvaluations inserts records in a single batch.
func (s *Store) PutEvaluations(ctx context.Context, records []model.EvaluationRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO arbitrage_evaluations (
				id, evaluated_at, chain_name, quote_mode, reference_pool, hook_pool, block_number,
				amount_in, reference_quote, hook_quote, market_price, gas_cost_wei, gas_cost_quote,
				profit_buy_hook, profit_sell_hook, direction, suppressed, execution_ref, error
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
			ON CONFLICT (id)
			DO UPDATE SET
				suppressed = EXCLUDED.suppressed,
				execution_ref = EXCLUDED.execution_ref,
				error = EXCLUDED.error
		`,
			r.ID,
			r.EvaluatedAt,
			r.ChainName,
			r.QuoteMode,
			r.ReferencePool,
			r.HookPool,
			int64(r.BlockNumber),
			nullString(r.AmountIn),
			nullString(r.ReferenceQuote),
			nullString(r.HookQuote),
			nullString(r.MarketPrice),
			nullString(r.GasCostWei),
			nullString(r.GasCostQuote),
			nullString(r.ProfitA),
			nullString(r.ProfitB),
			r.Direction,
			r.Suppressed,
			nullString(r.ExecutionRef),
			nullString(r.Error),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// CountByDirection returns how many evaluations signalled each direction.
func (s *Store) CountByDirection(ctx context.Context) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT direction, count(*) FROM arbitrage_evaluations GROUP BY direction`)
	if err != nil {
		return nil, fmt.Errorf("count evaluations: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var direction string
		var count int64
		if err := rows.Scan(&direction, &count); err != nil {
			return nil, err
		}
		counts[direction] = count
	}
	return counts, rows.Err()
}

// nullString maps "" to NULL. Amounts go over the wire as text so Postgres
// parses them into NUMERIC exactly.
func nullString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
