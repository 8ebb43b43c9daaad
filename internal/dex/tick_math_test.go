package dex

import (
	"math/big"
	"testing"
)

func TestGetSqrtPriceAtTick(t *testing.T) {
	cases := []struct {
		tick int32
		want string
	}{
		{tick: 0, want: "79228162514264337593543950336"},
		{tick: 1, want: "79232123823359799118286999568"},
		{tick: -1, want: "79224201403219477170569942574"},
		{tick: 60, want: "79466191966197645195421774833"},
		{tick: -60, want: "78990846045029531151608375686"},
		{tick: MinTick, want: MinSqrtPrice.String()},
		{tick: MaxTick, want: MaxSqrtPrice.String()},
	}
	for _, tc := range cases {
		got, err := GetSqrtPriceAtTick(tc.tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tc.tick, err)
		}
		if got.String() != tc.want {
			t.Fatalf("tick %d: got %s want %s", tc.tick, got, tc.want)
		}
	}
}

func TestGetSqrtPriceAtTickOutOfRange(t *testing.T) {
	for _, tick := range []int32{MinTick - 1, MaxTick + 1} {
		if _, err := GetSqrtPriceAtTick(tick); err == nil {
			t.Fatalf("tick %d: expected error", tick)
		}
	}
}

func TestGetSqrtPriceAtTickMonotonic(t *testing.T) {
	prev, _ := GetSqrtPriceAtTick(-200000)
	for tick := int32(-199000); tick <= 200000; tick += 1000 {
		next, err := GetSqrtPriceAtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if next.Cmp(prev) <= 0 {
			t.Fatalf("tick %d not increasing", tick)
		}
		prev = next
	}
}

func TestTickAtSqrtPrice(t *testing.T) {
	for _, tick := range []int32{-887000, -60, -1, 0, 1, 60, 887220} {
		price, _ := GetSqrtPriceAtTick(tick)
		if got := tickAtSqrtPrice(price); got != tick {
			t.Fatalf("exact %d: got %d", tick, got)
		}
		below := new(big.Int).Sub(price, big.NewInt(1))
		if got := tickAtSqrtPrice(below); got != tick-1 {
			t.Fatalf("below %d: got %d", tick, got)
		}
	}
}
