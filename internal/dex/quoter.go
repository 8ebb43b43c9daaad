package dex

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"go.uber.org/zap"

	"poolArbitrage/internal/chain"
	"poolArbitrage/internal/model"
)

// QuoteMode selects how an input amount is turned into an output amount.
type QuoteMode string

const (
	// QuoteModeSwap simulates an exact-input swap across initialized ticks.
	QuoteModeSwap QuoteMode = "swap"
	// QuoteModeSpot prices the input at the current sqrt price, ignoring fees
	// and depth.
	QuoteModeSpot QuoteMode = "spot"
)

const DefaultMaxSteps = 256

var (
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrTooManySteps          = errors.New("swap step limit reached")
)

// ParseQuoteMode accepts "swap" or "spot"; empty means swap.
func ParseQuoteMode(s string) (QuoteMode, error) {
	switch QuoteMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", QuoteModeSwap:
		return QuoteModeSwap, nil
	case QuoteModeSpot:
		return QuoteModeSpot, nil
	default:
		return "", fmt.Errorf("quote mode %q: %w", s, model.ErrConfiguration)
	}
}

type QuoterConfig struct {
	Mode          QuoteMode
	MaxSteps      int
	BaseDecimals  int
	QuoteDecimals int
}

// QuoteResult carries the output amount and the pool state it was priced
// against.
type QuoteResult struct {
	Mode           QuoteMode
	State          PoolState
	AmountIn       *big.Int
	AmountOut      *big.Int
	FeeAmount      *big.Int
	SqrtPriceAfter *big.Int
	TickAfter      int32
	Steps          int
}

type Quoter struct {
	cfg    QuoterConfig
	reader *StateViewReader
	logger *zap.Logger
}

func NewQuoter(cfg QuoterConfig, reader *StateViewReader, logger *zap.Logger) (*Quoter, error) {
	if reader == nil {
		return nil, fmt.Errorf("quoter: state view reader is nil: %w", model.ErrConfiguration)
	}
	mode, err := ParseQuoteMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}
	cfg.Mode = mode
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Quoter{cfg: cfg, reader: reader, logger: logger}, nil
}

func (q *Quoter) Mode() QuoteMode {
	return q.cfg.Mode
}

// ResolveBlock picks the block the next quotes should be pinned to.
func (q *Quoter) ResolveBlock(ctx context.Context) (*big.Int, error) {
	if q.reader.caller == nil {
		return nil, fmt.Errorf("chain caller is nil: %w", model.ErrConfiguration)
	}
	return chain.ResolveBlock(ctx, q.reader.caller, q.reader.Network().BlockPolicy)
}

// Quote prices amountIn against the pool at the block chosen by the network's
// block policy. zeroForOne sells Currency0 for Currency1.
func (q *Quoter) Quote(ctx context.Context, key PoolKey, zeroForOne bool, amountIn *big.Int) (QuoteResult, error) {
	block, err := q.ResolveBlock(ctx)
	if err != nil {
		return QuoteResult{}, err
	}
	return q.QuoteAt(ctx, key, zeroForOne, amountIn, block)
}

// QuoteAt prices amountIn against the pool at an explicit block.
func (q *Quoter) QuoteAt(ctx context.Context, key PoolKey, zeroForOne bool, amountIn *big.Int, block *big.Int) (QuoteResult, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return QuoteResult{}, fmt.Errorf("quote: amount in must be positive: %w", model.ErrConfiguration)
	}
	if err := key.Validate(q.reader.cfg.AllowCustomSpacing); err != nil {
		return QuoteResult{}, err
	}
	id, err := key.ID()
	if err != nil {
		return QuoteResult{}, err
	}
	state, err := q.reader.ReadPoolStateAt(ctx, key, id, block)
	if err != nil {
		return QuoteResult{}, err
	}

	var result QuoteResult
	switch q.cfg.Mode {
	case QuoteModeSpot:
		out, err := SpotQuote(state.SqrtPriceX96.ToBig(), q.cfg.BaseDecimals, q.cfg.QuoteDecimals, amountIn, zeroForOne)
		if err != nil {
			return QuoteResult{}, fmt.Errorf("pool %s: %w", id.Hex(), err)
		}
		result = QuoteResult{
			AmountIn:       new(big.Int).Set(amountIn),
			AmountOut:      out,
			FeeAmount:      new(big.Int),
			SqrtPriceAfter: state.SqrtPriceX96.ToBig(),
			TickAfter:      state.Tick,
		}
	default:
		result, err = SimulateSwap(ctx, state, q.reader.TicksAt(block), zeroForOne, amountIn, q.cfg.MaxSteps)
		if err != nil {
			return QuoteResult{}, fmt.Errorf("pool %s: %w", id.Hex(), err)
		}
	}
	result.Mode = q.cfg.Mode
	result.State = state

	q.logger.Debug("quote",
		zap.String("pool_id", id.Hex()),
		zap.String("mode", string(result.Mode)),
		zap.Bool("zero_for_one", zeroForOne),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", result.AmountOut.String()),
		zap.Int("steps", result.Steps),
		zap.Uint64("block", state.BlockNumber),
	)
	return result, nil
}

// SimulateSwap runs the exact-input swap loop against state, pulling tick data
// from ticks. It never applies a price limit beyond the global bounds, so any
// input left once the bounds are reached is ErrInsufficientLiquidity.
func SimulateSwap(ctx context.Context, state PoolState, ticks TickSource, zeroForOne bool, amountIn *big.Int, maxSteps int) (QuoteResult, error) {
	if state.SqrtPriceX96 == nil || state.SqrtPriceX96.IsZero() {
		return QuoteResult{}, fmt.Errorf("simulate swap: zero sqrt price: %w", model.ErrPoolNotFound)
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return QuoteResult{}, fmt.Errorf("simulate swap: amount in must be positive")
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	spacing := state.Key.TickSpacing
	if spacing <= 0 {
		return QuoteResult{}, fmt.Errorf("simulate swap: tick spacing %d: %w", spacing, model.ErrConfiguration)
	}

	var priceLimit *big.Int
	if zeroForOne {
		priceLimit = new(big.Int).Add(MinSqrtPrice, big.NewInt(1))
	} else {
		priceLimit = new(big.Int).Sub(MaxSqrtPrice, big.NewInt(1))
	}

	fee := swapFeePips(state.ProtocolFee, state.LPFee, zeroForOne)
	sqrtPrice := state.SqrtPriceX96.ToBig()
	liquidity := new(big.Int)
	if state.Liquidity != nil {
		liquidity = state.Liquidity.ToBig()
	}
	tick := state.Tick
	remaining := new(big.Int).Set(amountIn)
	amountOut := new(big.Int)
	feeTotal := new(big.Int)
	steps := 0

	for remaining.Sign() > 0 && sqrtPrice.Cmp(priceLimit) != 0 {
		if steps >= maxSteps {
			return QuoteResult{}, fmt.Errorf("simulate swap after %d steps: %w", steps, ErrTooManySteps)
		}
		steps++
		if err := ctx.Err(); err != nil {
			return QuoteResult{}, err
		}

		tickNext, initialized, err := nextInitializedTickWithinOneWord(ctx, ticks, state.ID, tick, spacing, zeroForOne)
		if err != nil {
			return QuoteResult{}, err
		}
		if tickNext < MinTick {
			tickNext = MinTick
		} else if tickNext > MaxTick {
			tickNext = MaxTick
		}
		sqrtNext, err := GetSqrtPriceAtTick(tickNext)
		if err != nil {
			return QuoteResult{}, err
		}

		var target *big.Int
		if zeroForOne {
			target = maxBig(sqrtNext, priceLimit)
		} else {
			target = minBig(sqrtNext, priceLimit)
		}

		if liquidity.Sign() == 0 {
			// nothing to trade against in this range, jump to the boundary
			sqrtPrice = new(big.Int).Set(target)
		} else {
			step, err := computeSwapStep(sqrtPrice, target, liquidity, remaining, fee)
			if err != nil {
				return QuoteResult{}, err
			}
			sqrtPrice = step.sqrtPriceNext
			remaining.Sub(remaining, step.amountIn)
			remaining.Sub(remaining, step.feeAmount)
			amountOut.Add(amountOut, step.amountOut)
			feeTotal.Add(feeTotal, step.feeAmount)
		}

		if sqrtPrice.Cmp(sqrtNext) == 0 {
			if initialized {
				net, err := ticks.TickLiquidityNet(ctx, state.ID, tickNext)
				if err != nil {
					return QuoteResult{}, err
				}
				if zeroForOne {
					net = new(big.Int).Neg(net)
				}
				liquidity = new(big.Int).Add(liquidity, net)
				if liquidity.Sign() < 0 {
					return QuoteResult{}, fmt.Errorf("liquidity underflow crossing tick %d: %w", tickNext, model.ErrDecode)
				}
			}
			if zeroForOne {
				tick = tickNext - 1
			} else {
				tick = tickNext
			}
		} else {
			tick = tickAtSqrtPrice(sqrtPrice)
			break
		}
	}

	if remaining.Sign() > 0 {
		return QuoteResult{}, fmt.Errorf("simulate swap: %s of %s unfilled: %w", remaining, amountIn, ErrInsufficientLiquidity)
	}
	return QuoteResult{
		AmountIn:       new(big.Int).Set(amountIn),
		AmountOut:      amountOut,
		FeeAmount:      feeTotal,
		SqrtPriceAfter: sqrtPrice,
		TickAfter:      tick,
		Steps:          steps,
	}, nil
}

// tickAtSqrtPrice finds the greatest tick whose sqrt price is <= sqrtPrice.
func tickAtSqrtPrice(sqrtPrice *big.Int) int32 {
	lo, hi := MinTick, MaxTick
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		price, _ := GetSqrtPriceAtTick(mid)
		if price.Cmp(sqrtPrice) <= 0 {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

var _ TickSource = (*pinnedTicks)(nil)
