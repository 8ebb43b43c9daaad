package dex

import (
	"fmt"
	"math/big"
)

const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

var (
	// MinSqrtPrice is getSqrtPriceAtTick(MinTick).
	MinSqrtPrice = big.NewInt(4295128739)
	// MaxSqrtPrice is getSqrtPriceAtTick(MaxTick).
	MaxSqrtPrice = mustBig("1461446703485210103287273052203988822378723970342", 10)

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	q32Mask    = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 32), big.NewInt(1))

	tickRatioBit0 = mustBig("fffcb933bd6fad37aa2d162d1a594001", 16)
	tickRatioOne  = new(big.Int).Lsh(big.NewInt(1), 128)

	// 1/sqrt(1.0001)^(2^i) in Q128.128 for i = 1..19.
	tickRatios = []*big.Int{
		mustBig("fff97272373d413259a46990580e213a", 16),
		mustBig("fff2e50f5f656932ef12357cf3c7fdcc", 16),
		mustBig("ffe5caca7e10e4e61c3624eaa0941cd0", 16),
		mustBig("ffcb9843d60f6159c9db58835c926644", 16),
		mustBig("ff973b41fa98c081472e6896dfb254c0", 16),
		mustBig("ff2ea16466c96a3843ec78b326b52861", 16),
		mustBig("fe5dee046a99a2a811c461f1969c3053", 16),
		mustBig("fcbe86c7900a88aedcffc83b479aa3a4", 16),
		mustBig("f987a7253ac413176f2b074cf7815e54", 16),
		mustBig("f3392b0822b70005940c7a398e4b70f3", 16),
		mustBig("e7159475a2c29b7443b29c7fa6e889d9", 16),
		mustBig("d097f3bdfd2022b8845ad8f792aa5825", 16),
		mustBig("a9f746462d870fdf8a65dc1f90e061e5", 16),
		mustBig("70d869a156d2a1b890bb3df62baf32f7", 16),
		mustBig("31be135f97d08fd981231505542fcfa6", 16),
		mustBig("9aa508b5b7a84e1c677de54f3e99bc9", 16),
		mustBig("5d6af8dedb81196699c329225ee604", 16),
		mustBig("2216e584f5fa1ea926041bedfe98", 16),
		mustBig("48a170391f7dc42444e8fa2", 16),
	}
)

func mustBig(s string, base int) *big.Int {
	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		panic("invalid big int constant " + s)
	}
	return v
}

// GetSqrtPriceAtTick returns sqrt(1.0001^tick) * 2^96, rounded up, matching
// the on-chain TickMath library.
func GetSqrtPriceAtTick(tick int32) (*big.Int, error) {
	absTick := int64(tick)
	if absTick < 0 {
		absTick = -absTick
	}
	if absTick > int64(MaxTick) {
		return nil, fmt.Errorf("tick %d out of range", tick)
	}

	var ratio *big.Int
	if absTick&1 != 0 {
		ratio = new(big.Int).Set(tickRatioBit0)
	} else {
		ratio = new(big.Int).Set(tickRatioOne)
	}
	for i, mul := range tickRatios {
		if absTick&(int64(1)<<uint(i+1)) != 0 {
			ratio.Mul(ratio, mul)
			ratio.Rsh(ratio, 128)
		}
	}
	if tick > 0 {
		ratio.Quo(maxUint256, ratio)
	}

	roundUp := new(big.Int).And(ratio, q32Mask).Sign() != 0
	sqrtPrice := ratio.Rsh(ratio, 32)
	if roundUp {
		sqrtPrice.Add(sqrtPrice, big.NewInt(1))
	}
	return sqrtPrice, nil
}
