// Package workflow runs one arbitrage evaluation per tick: market price, gas,
// two pool quotes pinned to one block, decision, cooldown, execution, journal.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"poolArbitrage/internal/arbitrage"
	"poolArbitrage/internal/cooldown"
	"poolArbitrage/internal/dex"
	"poolArbitrage/internal/execution"
	"poolArbitrage/internal/market"
	"poolArbitrage/internal/model"
	"poolArbitrage/internal/storage"
)

// GasPricer supplies the live gas price in wei.
type GasPricer interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// Quoter prices an input amount against a pool at a pinned block.
type Quoter interface {
	Mode() dex.QuoteMode
	ResolveBlock(ctx context.Context) (*big.Int, error)
	QuoteAt(ctx context.Context, key dex.PoolKey, zeroForOne bool, amountIn *big.Int, block *big.Int) (dex.QuoteResult, error)
}

type Config struct {
	ChainName     string
	ReferencePool dex.PoolKey
	HookPool      dex.PoolKey
	// AmountIn of the base asset is sold on both pools. ZeroForOne must be
	// true: gas and Threshold are quote-asset amounts.
	AmountIn   *big.Int
	ZeroForOne bool
	Threshold  *big.Int
	GasCostWei *big.Int
	// GasLimit > 0 prices gas as SuggestGasPrice * GasLimit instead of
	// GasCostWei.
	GasLimit           uint64
	Cooldown           time.Duration
	MaxRetries         int
	RetryBackoff       time.Duration
	SkipUnchangedBlock bool
}

// Deps are the collaborators a Workflow is built from. Gas, Cooldown, Sink and
// Checkpoint are optional.
type Deps struct {
	Prices     market.Observer
	Gas        GasPricer
	Quoter     Quoter
	Cooldown   cooldown.Store
	Executor   execution.Executor
	Sink       storage.Sink
	Checkpoint *CheckpointStore
}

// Result is the outcome of one tick.
type Result struct {
	Record   model.EvaluationRecord
	Decision arbitrage.Decision
	Skipped  bool
}

type Workflow struct {
	cfg    Config
	deps   Deps
	refID  common.Hash
	hookID common.Hash
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func New(cfg Config, deps Deps, logger *zap.Logger) (*Workflow, error) {
	if deps.Prices == nil {
		return nil, fmt.Errorf("workflow: market price source is required: %w", model.ErrConfiguration)
	}
	if deps.Quoter == nil {
		return nil, fmt.Errorf("workflow: quoter is required: %w", model.ErrConfiguration)
	}
	if deps.Executor == nil {
		return nil, fmt.Errorf("workflow: executor is required: %w", model.ErrConfiguration)
	}
	if cfg.AmountIn == nil || cfg.AmountIn.Sign() <= 0 {
		return nil, fmt.Errorf("workflow: amount in must be positive: %w", model.ErrConfiguration)
	}
	if !cfg.ZeroForOne {
		return nil, fmt.Errorf("workflow: quotes must sell the base asset so profits are in quote units: %w", model.ErrConfiguration)
	}
	if cfg.GasLimit > 0 && deps.Gas == nil {
		return nil, fmt.Errorf("workflow: gas limit set without a gas price source: %w", model.ErrConfiguration)
	}
	if cfg.GasCostWei == nil {
		cfg.GasCostWei = arbitrage.DefaultGasCostWei
	}
	if cfg.Threshold == nil {
		cfg.Threshold = big.NewInt(arbitrage.DefaultProfitThreshold)
	}
	if deps.Sink == nil {
		deps.Sink = storage.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	refID, err := cfg.ReferencePool.ID()
	if err != nil {
		return nil, fmt.Errorf("reference pool id: %w", err)
	}
	hookID, err := cfg.HookPool.ID()
	if err != nil {
		return nil, fmt.Errorf("hook pool id: %w", err)
	}
	if refID == hookID {
		return nil, fmt.Errorf("reference and hook pool are the same pool %s: %w", refID.Hex(), model.ErrConfiguration)
	}

	return &Workflow{
		cfg:    cfg,
		deps:   deps,
		refID:  refID,
		hookID: hookID,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}, nil
}

// Tick runs one evaluation. The returned record has already been written to
// the sink, including for failed ticks.
func (w *Workflow) Tick(ctx context.Context) (Result, error) {
	rec := model.EvaluationRecord{
		ID:            w.newID(),
		EvaluatedAt:   w.now().UTC(),
		ChainName:     w.cfg.ChainName,
		QuoteMode:     string(w.deps.Quoter.Mode()),
		ReferencePool: w.refID.Hex(),
		HookPool:      w.hookID.Hex(),
		AmountIn:      w.cfg.AmountIn.String(),
		Direction:     string(arbitrage.DirectionNone),
	}
	logger := w.logger.With(zap.String("evaluation", rec.ID))

	marketPrice, err := w.marketPrice(ctx)
	if err != nil {
		return w.fail(ctx, rec, fmt.Errorf("market price: %w", err))
	}
	rec.MarketPrice = marketPrice.String()

	gasWei, err := w.gasCost(ctx)
	if err != nil {
		return w.fail(ctx, rec, fmt.Errorf("gas price: %w", err))
	}
	rec.GasCostWei = gasWei.String()

	var block *big.Int
	err = withRetry(ctx, logger, "resolve block", w.cfg.MaxRetries, w.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		block, err = w.deps.Quoter.ResolveBlock(ctx)
		return err
	})
	if err != nil {
		return w.fail(ctx, rec, err)
	}
	if block.IsUint64() {
		rec.BlockNumber = block.Uint64()
	}

	if w.cfg.SkipUnchangedBlock && w.deps.Checkpoint.Enabled() {
		cp, ok, err := w.deps.Checkpoint.Load()
		if err != nil {
			logger.Warn("load checkpoint", zap.Error(err))
		} else if ok && rec.BlockNumber != 0 && rec.BlockNumber <= cp.LastBlock {
			logger.Info("block unchanged, skipping", zap.Uint64("block", rec.BlockNumber), zap.Uint64("last_block", cp.LastBlock))
			return Result{Record: rec, Skipped: true}, nil
		}
	}

	refQuote, err := w.quote(ctx, logger, "reference", w.cfg.ReferencePool, block)
	if err != nil {
		return w.fail(ctx, rec, fmt.Errorf("reference quote: %w", err))
	}
	rec.ReferenceQuote = refQuote.AmountOut.String()

	hookQuote, err := w.quote(ctx, logger, "hook", w.cfg.HookPool, block)
	if err != nil {
		return w.fail(ctx, rec, fmt.Errorf("hook quote: %w", err))
	}
	rec.HookQuote = hookQuote.AmountOut.String()

	decision, err := arbitrage.EvaluateWithLogger(arbitrage.Input{
		ReferenceQuote: refQuote.AmountOut,
		HookQuote:      hookQuote.AmountOut,
		MarketPrice:    marketPrice,
		GasCostWei:     gasWei,
		Threshold:      w.cfg.Threshold,
	}, logger)
	if err != nil {
		return w.fail(ctx, rec, fmt.Errorf("evaluate: %w", err))
	}
	rec.GasCostQuote = decision.GasCost.String()
	rec.ProfitA = decision.ProfitA.String()
	rec.ProfitB = decision.ProfitB.String()
	rec.Direction = string(decision.Direction)

	if decision.Profitable() {
		ref, suppressed, err := w.execute(ctx, rec, decision)
		rec.Suppressed = suppressed
		rec.ExecutionRef = ref
		if err != nil {
			res, _ := w.fail(ctx, rec, fmt.Errorf("execute: %w", err))
			res.Decision = decision
			return res, err
		}
	}

	if err := w.deps.Sink.PutEvaluation(ctx, rec); err != nil {
		logger.Error("record evaluation", zap.Error(err))
	}
	if err := w.deps.Checkpoint.Save(Checkpoint{LastBlock: rec.BlockNumber, LastEvaluationID: rec.ID, LastDirection: rec.Direction}); err != nil {
		logger.Warn("save checkpoint", zap.Error(err))
	}

	logger.Info("tick",
		zap.Uint64("block", rec.BlockNumber),
		zap.String("reference_quote", rec.ReferenceQuote),
		zap.String("hook_quote", rec.HookQuote),
		zap.String("market_price", rec.MarketPrice),
		zap.String("direction", rec.Direction),
		zap.Bool("suppressed", rec.Suppressed),
		zap.String("execution_ref", rec.ExecutionRef),
	)
	return Result{Record: rec, Decision: decision}, nil
}

func (w *Workflow) marketPrice(ctx context.Context) (*big.Int, error) {
	var price *big.Int
	err := withRetry(ctx, w.logger, "market price", w.cfg.MaxRetries, w.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		price, err = w.deps.Prices.Fetch(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if price == nil || price.Sign() <= 0 {
		return nil, fmt.Errorf("non-positive market price %v: %w", price, model.ErrDecode)
	}
	return price, nil
}

func (w *Workflow) gasCost(ctx context.Context) (*big.Int, error) {
	if w.cfg.GasLimit == 0 {
		return new(big.Int).Set(w.cfg.GasCostWei), nil
	}
	var gasPrice *big.Int
	err := withRetry(ctx, w.logger, "gas price", w.cfg.MaxRetries, w.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		gasPrice, err = w.deps.Gas.SuggestGasPrice(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", model.ErrTransport, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(w.cfg.GasLimit)), nil
}

func (w *Workflow) quote(ctx context.Context, logger *zap.Logger, name string, key dex.PoolKey, block *big.Int) (dex.QuoteResult, error) {
	var result dex.QuoteResult
	err := withRetry(ctx, logger, name+" quote", w.cfg.MaxRetries, w.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		result, err = w.deps.Quoter.QuoteAt(ctx, key, w.cfg.ZeroForOne, w.cfg.AmountIn, block)
		return err
	})
	return result, err
}

// execute hands the decision to the executor unless the same pool pair and
// direction is still cooling down.
func (w *Workflow) execute(ctx context.Context, rec model.EvaluationRecord, decision arbitrage.Decision) (string, bool, error) {
	key := cooldown.Key(rec.ReferencePool, rec.HookPool, string(decision.Direction))
	if w.deps.Cooldown != nil && w.cfg.Cooldown > 0 {
		acquired, err := w.deps.Cooldown.Acquire(ctx, key, w.cfg.Cooldown)
		if err != nil {
			return "", false, err
		}
		if !acquired {
			w.logger.Info("opportunity cooling down", zap.String("key", key))
			return "", true, nil
		}
	}

	refQuote, _ := new(big.Int).SetString(rec.ReferenceQuote, 10)
	hookQuote, _ := new(big.Int).SetString(rec.HookQuote, 10)
	ref, err := w.deps.Executor.Execute(ctx, execution.Opportunity{
		ID:             rec.ID,
		ChainName:      rec.ChainName,
		ReferencePool:  rec.ReferencePool,
		HookPool:       rec.HookPool,
		Direction:      decision.Direction,
		AmountIn:       w.cfg.AmountIn,
		ReferenceQuote: refQuote,
		HookQuote:      hookQuote,
		ExpectedProfit: decision.Expected,
		BlockNumber:    rec.BlockNumber,
	})
	if err != nil {
		if w.deps.Cooldown != nil && w.cfg.Cooldown > 0 {
			if releaseErr := w.deps.Cooldown.Release(ctx, key); releaseErr != nil {
				err = errors.Join(err, releaseErr)
			}
		}
		return "", false, err
	}
	return ref, false, nil
}

func (w *Workflow) fail(ctx context.Context, rec model.EvaluationRecord, err error) (Result, error) {
	rec.Error = err.Error()
	if sinkErr := w.deps.Sink.PutEvaluation(ctx, rec); sinkErr != nil {
		w.logger.Error("record failed evaluation", zap.Error(sinkErr))
	}
	w.logger.Error("tick failed", zap.String("evaluation", rec.ID), zap.Error(err))
	return Result{Record: rec}, err
}
