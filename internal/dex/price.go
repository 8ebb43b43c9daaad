package dex

import (
	"fmt"
	"math/big"

	"poolArbitrage/internal/model"
)

// PriceDecimals is the fixed-point scale of ConvertSqrtPriceToAmount.
const PriceDecimals = 18

var (
	q96  = new(big.Int).Lsh(big.NewInt(1), 96)
	q192 = new(big.Int).Lsh(big.NewInt(1), 192)
)

func pow10(exp int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
}

// ConvertSqrtPriceToAmount returns the quote-per-base price implied by
// sqrtPriceX96, adjusted for token decimals and scaled by 1e18. Every factor is
// multiplied in before the single final division. A zero or missing price is
// an uninitialized pool.
func ConvertSqrtPriceToAmount(sqrtPriceX96 *big.Int, baseDecimals, quoteDecimals int) (*big.Int, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return nil, fmt.Errorf("convert sqrt price: zero sqrt price: %w", model.ErrPoolNotFound)
	}
	numerator := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	numerator.Mul(numerator, pow10(PriceDecimals))
	denominator := new(big.Int).Set(q192)

	delta := baseDecimals - quoteDecimals
	if delta >= 0 {
		numerator.Mul(numerator, pow10(delta))
	} else {
		denominator.Mul(denominator, pow10(-delta))
	}
	return numerator.Quo(numerator, denominator), nil
}

// SpotQuote prices amountIn at the pool's instantaneous rate with no fee or
// price impact. zeroForOne sells the base asset for the quote asset. The
// result is in raw units of the output token.
func SpotQuote(sqrtPriceX96 *big.Int, baseDecimals, quoteDecimals int, amountIn *big.Int, zeroForOne bool) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("spot quote: amount in must be positive")
	}
	price, err := ConvertSqrtPriceToAmount(sqrtPriceX96, baseDecimals, quoteDecimals)
	if err != nil {
		return nil, err
	}

	if zeroForOne {
		// amountIn * price * 10^quote / (10^base * 10^18)
		numerator := new(big.Int).Mul(amountIn, price)
		numerator.Mul(numerator, pow10(quoteDecimals))
		denominator := new(big.Int).Mul(pow10(baseDecimals), pow10(PriceDecimals))
		return numerator.Quo(numerator, denominator), nil
	}

	if price.Sign() == 0 {
		return nil, fmt.Errorf("spot quote: price rounds to zero at %d decimals", PriceDecimals)
	}
	// amountIn * 10^18 * 10^base / (price * 10^quote)
	numerator := new(big.Int).Mul(amountIn, pow10(PriceDecimals))
	numerator.Mul(numerator, pow10(baseDecimals))
	denominator := new(big.Int).Mul(price, pow10(quoteDecimals))
	return numerator.Quo(numerator, denominator), nil
}
