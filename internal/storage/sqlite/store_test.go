package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"poolArbitrage/internal/model"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		// the driver needs cgo
		t.Skipf("sqlite unavailable: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	record := model.EvaluationRecord{
		ID:             "tick-1",
		EvaluatedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		ChainName:      "ethereum-testnet-sepolia",
		QuoteMode:      "swap",
		BlockNumber:    123,
		ReferenceQuote: "340282366920938463463374607431768211456",
		ProfitA:        "-1",
		Direction:      "none",
	}
	if err := store.PutEvaluation(ctx, record); err != nil {
		t.Fatalf("put: %v", err)
	}
	record.ExecutionRef = "dryrun-x"
	if err := store.PutEvaluation(ctx, record); err != nil {
		t.Fatalf("replace: %v", err)
	}

	var (
		refQuote, executionRef, evaluatedAt string
		block                               int64
	)
	err = store.db.QueryRowContext(ctx,
		`SELECT reference_quote, execution_ref, evaluated_at, block_number FROM arbitrage_evaluations WHERE id = ?`, "tick-1",
	).Scan(&refQuote, &executionRef, &evaluatedAt, &block)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if refQuote != record.ReferenceQuote || block != 123 || executionRef != "dryrun-x" {
		t.Fatalf("row mismatch: %s %d %s", refQuote, block, executionRef)
	}
	if evaluatedAt != "2024-05-01T12:00:00Z" {
		t.Fatalf("time mismatch: %s", evaluatedAt)
	}
}

func TestStoreCountByDirection(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	for i, direction := range []string{"none", "none", "buy_hook_sell_reference", "none"} {
		rec := model.EvaluationRecord{ID: fmt.Sprintf("tick-%d", i), Direction: direction}
		if err := store.PutEvaluation(ctx, rec); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}

	counts, err := store.CountByDirection(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if len(counts) != 2 || counts["none"] != 3 || counts["buy_hook_sell_reference"] != 1 {
		t.Fatalf("counts mismatch: %v", counts)
	}
}
