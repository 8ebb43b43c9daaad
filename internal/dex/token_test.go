package dex

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"poolArbitrage/internal/model"
)

func TestTokenRegistryDecimals(t *testing.T) {
	fake := &fakeStateView{decimals: 6}
	registry, err := NewTokenRegistry(fake, map[string]uint8{hookSepolia: 8}, 4, nil)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	ctx := context.Background()

	native, err := registry.Decimals(ctx, NativeCurrency)
	if err != nil || native != 18 {
		t.Fatalf("native decimals: %d %v", native, err)
	}
	override, err := registry.Decimals(ctx, common.HexToAddress(hookSepolia))
	if err != nil || override != 8 {
		t.Fatalf("override decimals: %d %v", override, err)
	}
	if len(fake.methods) != 0 {
		t.Fatalf("native and overrides must not hit the chain: %v", fake.methods)
	}

	usdc := common.HexToAddress(usdcSepolia)
	for i := 0; i < 2; i++ {
		got, err := registry.Decimals(ctx, usdc)
		if err != nil || got != 6 {
			t.Fatalf("onchain decimals: %d %v", got, err)
		}
	}
	if len(fake.methods) != 1 {
		t.Fatalf("expected a single cached call, got %v", fake.methods)
	}
}

func TestTokenRegistryErrors(t *testing.T) {
	if _, err := NewTokenRegistry(nil, map[string]uint8{"0xnope": 6}, 0, nil); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}

	fake := &fakeStateView{callErr: errors.New("timeout")}
	registry, err := NewTokenRegistry(fake, nil, 0, nil)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if _, err := registry.Decimals(context.Background(), common.HexToAddress(usdcSepolia)); !errors.Is(err, model.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}
