package dex

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

type fakeTicks struct {
	bitmaps map[int16]*big.Int
	nets    map[int32]*big.Int
	reads   int
}

func (f *fakeTicks) TickBitmap(ctx context.Context, id common.Hash, word int16) (*big.Int, error) {
	f.reads++
	if bitmap, ok := f.bitmaps[word]; ok {
		return bitmap, nil
	}
	return new(big.Int), nil
}

func (f *fakeTicks) TickLiquidityNet(ctx context.Context, id common.Hash, tick int32) (*big.Int, error) {
	if net, ok := f.nets[tick]; ok {
		return new(big.Int).Set(net), nil
	}
	return new(big.Int), nil
}

// initialized ticks at -60 and 60 for spacing 60
func bracketTicks() map[int16]*big.Int {
	return map[int16]*big.Int{
		0:  new(big.Int).Lsh(big.NewInt(1), 1),
		-1: new(big.Int).Lsh(big.NewInt(1), 255),
	}
}

func TestCompressTick(t *testing.T) {
	cases := []struct{ tick, spacing, want int32 }{
		{0, 60, 0},
		{59, 60, 0},
		{60, 60, 1},
		{-1, 60, -1},
		{-60, 60, -1},
		{-61, 60, -2},
	}
	for _, tc := range cases {
		if got := compressTick(tc.tick, tc.spacing); got != tc.want {
			t.Fatalf("compress(%d,%d) = %d, want %d", tc.tick, tc.spacing, got, tc.want)
		}
	}
}

func TestNextInitializedTickWithinOneWord(t *testing.T) {
	ticks := &fakeTicks{bitmaps: bracketTicks()}
	ctx := context.Background()
	id := common.Hash{}

	cases := []struct {
		name        string
		tick        int32
		lte         bool
		want        int32
		initialized bool
	}{
		{name: "right finds 60", tick: 0, want: 60, initialized: true},
		{name: "right from 60 hits word end", tick: 60, want: 255 * 60},
		{name: "left from 0 stops at word start", tick: 0, lte: true, want: 0},
		{name: "left from -1 finds -60", tick: -1, lte: true, want: -60, initialized: true},
		{name: "left from 61 finds 60", tick: 61, lte: true, want: 60, initialized: true},
		{name: "right from -61 finds -60", tick: -61, want: -60, initialized: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, initialized, err := nextInitializedTickWithinOneWord(ctx, ticks, id, tc.tick, 60, tc.lte)
			if err != nil {
				t.Fatalf("next tick: %v", err)
			}
			if got != tc.want || initialized != tc.initialized {
				t.Fatalf("got (%d,%v) want (%d,%v)", got, initialized, tc.want, tc.initialized)
			}
		})
	}
}
