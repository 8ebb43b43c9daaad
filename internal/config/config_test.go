package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"poolArbitrage/internal/dex"
	"poolArbitrage/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
schedule: "0 */1 * * * *"
apiUrl: "http://localhost:8080/price"
evms:
  - chainName: ethereum-testnet-sepolia
    rpcUrl: https://rpc.sepolia.example
hook-pool:
  hooks: "0x7A8A8e8C53e4D1a2Bc7B0d29Ef7E3D2a4dbC40C0"
  tickSpacing: 10
amount-in: 500000000000000000
cooldown: 90s
sink: SQLITE
`)
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Schedule != "0 */1 * * * *" || cfg.APIURL != "http://localhost:8080/price" {
		t.Fatalf("schedule/api mismatch: %+v", cfg)
	}
	chain, err := cfg.Chain()
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if chain.ChainName != "ethereum-testnet-sepolia" || chain.RPCURL != "https://rpc.sepolia.example" {
		t.Fatalf("evms mismatch: %+v", cfg.EVMs)
	}
	if cfg.HookPool.Hooks == "" || cfg.HookPool.TickSpacing != 10 || cfg.HookPool.Fee != 3000 {
		t.Fatalf("hook pool should merge file and defaults: %+v", cfg.HookPool)
	}
	if cfg.ReferencePool.Fee != 500 || cfg.ReferencePool.TickSpacing != 10 || cfg.ReferencePool.Hooks != "" {
		t.Fatalf("reference pool defaults: %+v", cfg.ReferencePool)
	}
	if cfg.AmountIn.String() != "500000000000000000" {
		t.Fatalf("amount in: %s", cfg.AmountIn)
	}
	if cfg.Cooldown != 90*time.Second || cfg.Sink != "sqlite" {
		t.Fatalf("cooldown/sink: %v %s", cfg.Cooldown, cfg.Sink)
	}
	if cfg.ProfitThreshold.Int64() != 1_000_000 || cfg.GasCostWei.String() != "30000000000000" {
		t.Fatalf("decision defaults: %s %s", cfg.ProfitThreshold, cfg.GasCostWei)
	}
	if cfg.QuoteMode != "swap" || !cfg.ZeroForOne || cfg.BaseDecimals != -1 {
		t.Fatalf("quote defaults: %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
evms:
  - chainName: ethereum-mainnet-base-1
`)
	t.Setenv("ARB_QUOTE_MODE", "spot")
	t.Setenv("ARB_RPC", "http://127.0.0.1:8545")
	t.Setenv("ARB_PROFIT_THRESHOLD", "2500000")

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.QuoteMode != "spot" {
		t.Fatalf("quote mode: %s", cfg.QuoteMode)
	}
	if cfg.EVMs[0].ChainName != "ethereum-mainnet-base-1" || cfg.EVMs[0].RPCURL != "http://127.0.0.1:8545" {
		t.Fatalf("rpc override: %+v", cfg.EVMs)
	}
	if cfg.ProfitThreshold.Int64() != 2_500_000 {
		t.Fatalf("threshold: %s", cfg.ProfitThreshold)
	}
}

func TestLoadRejectsBadIntegers(t *testing.T) {
	path := writeConfig(t, `amount-in: "one ether"`)
	if _, err := Load(path, nil); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}

	path = writeConfig(t, `amount-in: 0`)
	if _, err := Load(path, nil); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("zero amount: expected ErrConfiguration, got %v", err)
	}
}

func TestChainRequiresName(t *testing.T) {
	if _, err := (Config{}).Chain(); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestDefaultPoolsAreDistinct(t *testing.T) {
	empty := writeConfig(t, `
evms:
  - chainName: ethereum-mainnet-base-1
`)
	example := filepath.Join("..", "..", "config.example.yaml")

	for _, path := range []string{empty, example} {
		cfg, err := Load(path, nil)
		if err != nil {
			t.Fatalf("%s: load: %v", path, err)
		}
		ref, err := dex.NewPoolKey(cfg.BaseToken, cfg.QuoteToken, cfg.ReferencePool.Fee, cfg.ReferencePool.TickSpacing, cfg.ReferencePool.Hooks)
		if err != nil {
			t.Fatalf("%s: reference key: %v", path, err)
		}
		hook, err := dex.NewPoolKey(cfg.BaseToken, cfg.QuoteToken, cfg.HookPool.Fee, cfg.HookPool.TickSpacing, cfg.HookPool.Hooks)
		if err != nil {
			t.Fatalf("%s: hook key: %v", path, err)
		}
		refID, _ := ref.ID()
		hookID, _ := hook.ID()
		if refID == hookID {
			t.Fatalf("%s: reference and hook pool share id %s", path, refID.Hex())
		}
		if err := ref.Validate(false); err != nil {
			t.Fatalf("%s: reference pool invalid: %v", path, err)
		}
		if err := hook.Validate(false); err != nil {
			t.Fatalf("%s: hook pool invalid: %v", path, err)
		}
	}
}

func TestLoadRejectsOneForZero(t *testing.T) {
	path := writeConfig(t, `zero-for-one: false`)
	if _, err := Load(path, nil); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
