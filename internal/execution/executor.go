// Package execution hands profitable decisions to whatever signs and submits
// the trade. Nothing here holds keys.
package execution

import (
	"context"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"poolArbitrage/internal/arbitrage"
)

// Opportunity is the decision plus the context an executor needs to build the
// two legs.
type Opportunity struct {
	ID             string
	ChainName      string
	ReferencePool  string
	HookPool       string
	Direction      arbitrage.Direction
	AmountIn       *big.Int
	ReferenceQuote *big.Int
	HookQuote      *big.Int
	ExpectedProfit *big.Int
	BlockNumber    uint64
}

// Executor submits an opportunity and returns a reference to the submission.
type Executor interface {
	Execute(ctx context.Context, opp Opportunity) (string, error)
}

// DryRun logs the opportunity and returns a synthetic reference.
type DryRun struct {
	logger *zap.Logger
}

func NewDryRun(logger *zap.Logger) *DryRun {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DryRun{logger: logger}
}

func (d *DryRun) Execute(ctx context.Context, opp Opportunity) (string, error) {
	if opp.Direction == arbitrage.DirectionNone {
		return "", fmt.Errorf("opportunity %s has no direction", opp.ID)
	}
	ref := "dryrun-" + uuid.NewString()
	d.logger.Info("dry run execution",
		zap.String("ref", ref),
		zap.String("opportunity", opp.ID),
		zap.String("chain", opp.ChainName),
		zap.String("direction", string(opp.Direction)),
		zap.String("amount_in", bigString(opp.AmountIn)),
		zap.String("expected_profit", bigString(opp.ExpectedProfit)),
		zap.Uint64("block", opp.BlockNumber),
	)
	return ref, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
