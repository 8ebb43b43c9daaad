package execution

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"poolArbitrage/internal/arbitrage"
)

func TestDryRunExecute(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	exec := NewDryRun(zap.New(core))

	ref, err := exec.Execute(context.Background(), Opportunity{
		ID:             "opp-1",
		Direction:      arbitrage.DirectionBuyHookSellReference,
		AmountIn:       big.NewInt(1e18),
		ExpectedProfit: big.NewInt(2_000_000),
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(ref, "dryrun-") {
		t.Fatalf("unexpected ref %q", ref)
	}
	entries := logs.FilterMessage("dry run execution").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["expected_profit"] != "2000000" {
		t.Fatalf("log fields: %v", entries[0].ContextMap())
	}
}

func TestDryRunRejectsNone(t *testing.T) {
	exec := NewDryRun(nil)
	if _, err := exec.Execute(context.Background(), Opportunity{ID: "x", Direction: arbitrage.DirectionNone}); err == nil {
		t.Fatalf("expected error for no-trade decision")
	}
}
