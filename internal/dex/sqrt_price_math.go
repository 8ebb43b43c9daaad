package dex

import (
	"fmt"
	"math/big"
)

// getAmount0Delta is liquidity * (sqrtB - sqrtA) / (sqrtA * sqrtB) in Q96.
func getAmount0Delta(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) *big.Int {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	if sqrtA.Sign() == 0 {
		return new(big.Int)
	}
	numerator1 := new(big.Int).Lsh(liquidity, 96)
	numerator2 := new(big.Int).Sub(sqrtB, sqrtA)

	if roundUp {
		return divRoundingUp(mulDivRoundingUp(numerator1, numerator2, sqrtB), sqrtA)
	}
	return new(big.Int).Quo(mulDiv(numerator1, numerator2, sqrtB), sqrtA)
}

// getAmount1Delta is liquidity * (sqrtB - sqrtA) in Q96.
func getAmount1Delta(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) *big.Int {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	diff := new(big.Int).Sub(sqrtB, sqrtA)
	if roundUp {
		return mulDivRoundingUp(liquidity, diff, q96)
	}
	return mulDiv(liquidity, diff, q96)
}

// getNextSqrtPriceFromInput moves the price by an exact input amount, rounding
// so the pool never gives out more than it should.
func getNextSqrtPriceFromInput(sqrtPrice, liquidity, amountIn *big.Int, zeroForOne bool) (*big.Int, error) {
	if sqrtPrice.Sign() <= 0 {
		return nil, fmt.Errorf("sqrt price must be positive")
	}
	if liquidity.Sign() <= 0 {
		return nil, fmt.Errorf("liquidity must be positive")
	}
	if zeroForOne {
		return nextSqrtPriceFromAmount0RoundingUp(sqrtPrice, liquidity, amountIn), nil
	}
	return nextSqrtPriceFromAmount1RoundingDown(sqrtPrice, liquidity, amountIn), nil
}

func nextSqrtPriceFromAmount0RoundingUp(sqrtPrice, liquidity, amount *big.Int) *big.Int {
	if amount.Sign() == 0 {
		return new(big.Int).Set(sqrtPrice)
	}
	numerator1 := new(big.Int).Lsh(liquidity, 96)
	denominator := new(big.Int).Mul(amount, sqrtPrice)
	denominator.Add(denominator, numerator1)
	return mulDivRoundingUp(numerator1, sqrtPrice, denominator)
}

func nextSqrtPriceFromAmount1RoundingDown(sqrtPrice, liquidity, amount *big.Int) *big.Int {
	quotient := new(big.Int).Lsh(amount, 96)
	quotient.Quo(quotient, liquidity)
	return quotient.Add(quotient, sqrtPrice)
}
