// Package arbitrage decides whether two pool quotes for the same pair diverge
// far enough to pay for gas and still clear a profit threshold.
package arbitrage

import (
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"
)

// Direction is the trade an evaluation signals.
type Direction string

const (
	DirectionNone Direction = "none"
	// DirectionBuyHookSellReference buys on the hook pool and sells on the
	// reference pool.
	DirectionBuyHookSellReference Direction = "buy_hook_sell_reference"
	// DirectionBuyReferenceSellHook buys on the reference pool and sells into
	// the hook pool.
	DirectionBuyReferenceSellHook Direction = "buy_reference_sell_hook"
)

// DefaultProfitThreshold is expressed in quote-asset raw units.
const DefaultProfitThreshold int64 = 1_000_000

var (
	// DefaultGasCostWei is 0.00003 ETH.
	DefaultGasCostWei = big.NewInt(30_000_000_000_000)

	weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	ErrNegativeGas   = errors.New("gas cost is negative")
	ErrNegativePrice = errors.New("market price is negative")
	ErrMissingInput  = errors.New("missing evaluation input")
)

// Input holds one tick's numbers. Quotes are output amounts for the same
// input amount; MarketPrice is ETH/USD with 6 decimals.
type Input struct {
	ReferenceQuote *big.Int
	HookQuote      *big.Int
	MarketPrice    *big.Int
	GasCostWei     *big.Int
	Threshold      *big.Int
}

type Decision struct {
	Direction Direction
	// ProfitA is reference - hook - gas.
	ProfitA *big.Int
	// ProfitB is hook - reference - gas.
	ProfitB  *big.Int
	GasCost  *big.Int
	Expected *big.Int
}

// Profitable reports whether a trade was signalled.
func (d Decision) Profitable() bool {
	return d.Direction != DirectionNone
}

// GasCostInQuote converts a wei amount through the market price:
// gasCostWei * marketPrice / 1e18.
func GasCostInQuote(gasCostWei, marketPrice *big.Int) (*big.Int, error) {
	if gasCostWei == nil || marketPrice == nil {
		return nil, fmt.Errorf("gas cost: %w", ErrMissingInput)
	}
	if gasCostWei.Sign() < 0 {
		return nil, fmt.Errorf("gas cost %s wei: %w", gasCostWei, ErrNegativeGas)
	}
	if marketPrice.Sign() < 0 {
		return nil, fmt.Errorf("market price %s: %w", marketPrice, ErrNegativePrice)
	}
	gas := new(big.Int).Mul(gasCostWei, marketPrice)
	return gas.Quo(gas, weiPerEther), nil
}

// Evaluate computes both directional profits and signals the first that
// strictly exceeds the threshold, preferring the hook-buy direction.
func Evaluate(in Input) (Decision, error) {
	return EvaluateWithLogger(in, nil)
}

// EvaluateWithLogger is Evaluate with debug logging of the intermediate values.
func EvaluateWithLogger(in Input, logger *zap.Logger) (Decision, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if in.ReferenceQuote == nil || in.HookQuote == nil {
		return Decision{}, fmt.Errorf("quotes: %w", ErrMissingInput)
	}
	threshold := in.Threshold
	if threshold == nil {
		threshold = big.NewInt(DefaultProfitThreshold)
	}
	gasWei := in.GasCostWei
	if gasWei == nil {
		gasWei = DefaultGasCostWei
	}

	gas, err := GasCostInQuote(gasWei, in.MarketPrice)
	if err != nil {
		return Decision{}, err
	}

	profitA := new(big.Int).Sub(in.ReferenceQuote, in.HookQuote)
	profitA.Sub(profitA, gas)
	profitB := new(big.Int).Sub(in.HookQuote, in.ReferenceQuote)
	profitB.Sub(profitB, gas)

	decision := Decision{
		Direction: DirectionNone,
		ProfitA:   profitA,
		ProfitB:   profitB,
		GasCost:   gas,
		Expected:  new(big.Int),
	}
	switch {
	case profitA.Cmp(threshold) > 0:
		decision.Direction = DirectionBuyHookSellReference
		decision.Expected.Set(profitA)
	case profitB.Cmp(threshold) > 0:
		decision.Direction = DirectionBuyReferenceSellHook
		decision.Expected.Set(profitB)
	}

	logger.Debug("arbitrage evaluation",
		zap.String("reference_quote", in.ReferenceQuote.String()),
		zap.String("hook_quote", in.HookQuote.String()),
		zap.String("gas_cost", gas.String()),
		zap.String("profit_a", profitA.String()),
		zap.String("profit_b", profitB.String()),
		zap.String("threshold", threshold.String()),
		zap.String("direction", string(decision.Direction)),
	)
	return decision, nil
}
