package dex

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TickSource supplies the tick data needed to walk a pool's liquidity.
type TickSource interface {
	TickBitmap(ctx context.Context, id common.Hash, word int16) (*big.Int, error)
	TickLiquidityNet(ctx context.Context, id common.Hash, tick int32) (*big.Int, error)
}

// compressTick divides by spacing rounding toward negative infinity.
func compressTick(tick, spacing int32) int32 {
	compressed := tick / spacing
	if tick < 0 && tick%spacing != 0 {
		compressed--
	}
	return compressed
}

func bitmapPosition(compressed int32) (int16, uint) {
	return int16(compressed >> 8), uint(uint8(compressed & 0xff))
}

// nextInitializedTickWithinOneWord searches the bitmap word containing tick.
// With lte it searches left (toward lower ticks, zeroForOne swaps), otherwise
// right. The returned tick is the word boundary when nothing is initialized.
func nextInitializedTickWithinOneWord(ctx context.Context, source TickSource, id common.Hash, tick, spacing int32, lte bool) (int32, bool, error) {
	compressed := compressTick(tick, spacing)

	if lte {
		wordPos, bitPos := bitmapPosition(compressed)
		word, err := source.TickBitmap(ctx, id, wordPos)
		if err != nil {
			return 0, false, err
		}
		// all bits at or below bitPos
		mask := new(big.Int).Lsh(big.NewInt(1), bitPos+1)
		mask.Sub(mask, big.NewInt(1))
		masked := mask.And(mask, word)

		if masked.Sign() != 0 {
			msb := uint(masked.BitLen() - 1)
			return (compressed - int32(bitPos-msb)) * spacing, true, nil
		}
		return (compressed - int32(bitPos)) * spacing, false, nil
	}

	wordPos, bitPos := bitmapPosition(compressed + 1)
	word, err := source.TickBitmap(ctx, id, wordPos)
	if err != nil {
		return 0, false, err
	}
	// all bits at or above bitPos
	low := new(big.Int).Lsh(big.NewInt(1), bitPos)
	low.Sub(low, big.NewInt(1))
	mask := new(big.Int).Xor(maxUint256, low)
	masked := mask.And(mask, word)

	if masked.Sign() != 0 {
		lsb := masked.TrailingZeroBits()
		return (compressed + 1 + int32(lsb-bitPos)) * spacing, true, nil
	}
	return (compressed + 1 + int32(255-bitPos)) * spacing, false, nil
}
