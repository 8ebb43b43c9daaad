package dex

import (
	"fmt"
	"math/big"
)

// PipsDenominator is the fee unit: 1_000_000 pips = 100%.
const PipsDenominator uint32 = 1_000_000

var pipsDenominator = big.NewInt(int64(PipsDenominator))

type swapStep struct {
	sqrtPriceNext *big.Int
	amountIn      *big.Int
	amountOut     *big.Int
	feeAmount     *big.Int
}

// computeSwapStep is the exact-input branch of SwapMath.computeSwapStep.
func computeSwapStep(sqrtCurrent, sqrtTarget, liquidity, amountRemaining *big.Int, feePips uint32) (swapStep, error) {
	if feePips >= PipsDenominator {
		return swapStep{}, fmt.Errorf("fee %d pips leaves no input", feePips)
	}
	zeroForOne := sqrtCurrent.Cmp(sqrtTarget) >= 0
	fee := big.NewInt(int64(feePips))

	remainingLessFee := mulDiv(amountRemaining, new(big.Int).Sub(pipsDenominator, fee), pipsDenominator)

	var amountIn *big.Int
	if zeroForOne {
		amountIn = getAmount0Delta(sqrtTarget, sqrtCurrent, liquidity, true)
	} else {
		amountIn = getAmount1Delta(sqrtCurrent, sqrtTarget, liquidity, true)
	}

	step := swapStep{}
	if remainingLessFee.Cmp(amountIn) >= 0 {
		step.sqrtPriceNext = new(big.Int).Set(sqrtTarget)
		step.amountIn = amountIn
		step.feeAmount = mulDivRoundingUp(amountIn, fee, new(big.Int).Sub(pipsDenominator, fee))
	} else {
		next, err := getNextSqrtPriceFromInput(sqrtCurrent, liquidity, remainingLessFee, zeroForOne)
		if err != nil {
			return swapStep{}, err
		}
		step.sqrtPriceNext = next
		step.amountIn = remainingLessFee
		step.feeAmount = new(big.Int).Sub(amountRemaining, remainingLessFee)
	}

	if zeroForOne {
		step.amountOut = getAmount1Delta(step.sqrtPriceNext, sqrtCurrent, liquidity, false)
	} else {
		step.amountOut = getAmount0Delta(sqrtCurrent, step.sqrtPriceNext, liquidity, false)
	}
	return step, nil
}

// swapFeePips combines the LP fee with the directional protocol fee. The
// protocol fee packs the zeroForOne fee in the low 12 bits and the oneForZero
// fee in the next 12.
func swapFeePips(protocolFee, lpFee uint32, zeroForOne bool) uint32 {
	var directional uint32
	if zeroForOne {
		directional = protocolFee & 0xfff
	} else {
		directional = (protocolFee >> 12) & 0xfff
	}
	if directional == 0 {
		return lpFee
	}
	return directional + lpFee - uint32(uint64(directional)*uint64(lpFee)/uint64(PipsDenominator))
}
