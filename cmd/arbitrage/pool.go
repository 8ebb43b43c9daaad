package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolArbitrage/internal/dex"
	"poolArbitrage/internal/model"
)

type poolReport struct {
	Pool  model.PoolSnapshot `json:"pool"`
	Quote *poolQuote         `json:"quote,omitempty"`
}

type poolQuote struct {
	Mode        string `json:"mode"`
	BlockNumber uint64 `json:"block_number"`
	AmountIn    string `json:"amount_in"`
	AmountOut   string `json:"amount_out"`
	FeeAmount   string `json:"fee_amount,omitempty"`
	TickAfter   int32  `json:"tick_after"`
	Steps       int    `json:"steps"`
}

func runPool(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	which, _ := cmd.Flags().GetString("which")
	withQuote, _ := cmd.Flags().GetBool("quote")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newChainApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	key, err := a.poolKey(which)
	if err != nil {
		return err
	}

	state, err := a.reader.ReadPoolState(ctx, key)
	if err != nil {
		return err
	}
	report := poolReport{Pool: state.Snapshot()}
	spot, err := dex.ConvertSqrtPriceToAmount(state.SqrtPriceX96.ToBig(), a.decimals[0], a.decimals[1])
	if err != nil {
		return err
	}
	report.Pool.SpotPrice = spot.String()

	if withQuote {
		quoter, err := dex.NewQuoter(dex.QuoterConfig{
			Mode:          dex.QuoteMode(cfg.QuoteMode),
			MaxSteps:      cfg.MaxSteps,
			BaseDecimals:  a.decimals[0],
			QuoteDecimals: a.decimals[1],
		}, a.reader, logger)
		if err != nil {
			return err
		}
		res, err := quoter.Quote(ctx, key, cfg.ZeroForOne, cfg.AmountIn)
		if err != nil {
			return err
		}
		report.Quote = newPoolQuote(res)
	}

	logger.Info("pool state",
		zap.String("pool", which),
		zap.String("pool_id", report.Pool.PoolID),
		zap.Uint64("block", report.Pool.BlockNumber),
		zap.Int32("tick", report.Pool.Tick),
	)
	return printJSON(report)
}

func (a *app) poolKey(which string) (dex.PoolKey, error) {
	switch which {
	case "reference":
		return a.referenceKey, nil
	case "hook":
		return a.hookKey, nil
	default:
		return dex.PoolKey{}, fmt.Errorf("pool %q (reference, hook): %w", which, model.ErrConfiguration)
	}
}

func newPoolQuote(res dex.QuoteResult) *poolQuote {
	q := &poolQuote{
		Mode:        string(res.Mode),
		BlockNumber: res.State.BlockNumber,
		TickAfter:   res.TickAfter,
		Steps:       res.Steps,
	}
	if res.AmountIn != nil {
		q.AmountIn = res.AmountIn.String()
	}
	if res.AmountOut != nil {
		q.AmountOut = res.AmountOut.String()
	}
	if res.FeeAmount != nil {
		q.FeeAmount = res.FeeAmount.String()
	}
	return q
}
