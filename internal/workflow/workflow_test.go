package workflow

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"poolArbitrage/internal/arbitrage"
	"poolArbitrage/internal/cooldown"
	"poolArbitrage/internal/dex"
	"poolArbitrage/internal/execution"
	"poolArbitrage/internal/model"
)

const (
	testQuoteToken = "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"
	testHook       = "0x7A8A8e8C53e4D1a2Bc7B0d29Ef7E3D2a4dbC40C0"
)

type fakePrices struct {
	price *big.Int
	errs  []error
	calls int
}

func (f *fakePrices) Fetch(ctx context.Context) (*big.Int, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.price, nil
}

type fakeGas struct{ price *big.Int }

func (f fakeGas) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return f.price, nil
}

type fakeQuoter struct {
	block  int64
	quotes map[dex.PoolKey]*big.Int
	err    error
	calls  int
	blocks []int64
}

func (f *fakeQuoter) Mode() dex.QuoteMode { return dex.QuoteModeSwap }

func (f *fakeQuoter) ResolveBlock(ctx context.Context) (*big.Int, error) {
	return big.NewInt(f.block), nil
}

func (f *fakeQuoter) QuoteAt(ctx context.Context, key dex.PoolKey, zeroForOne bool, amountIn *big.Int, block *big.Int) (dex.QuoteResult, error) {
	f.calls++
	f.blocks = append(f.blocks, block.Int64())
	if f.err != nil {
		return dex.QuoteResult{}, f.err
	}
	out, ok := f.quotes[key]
	if !ok {
		return dex.QuoteResult{}, fmt.Errorf("unknown pool: %w", model.ErrPoolNotFound)
	}
	return dex.QuoteResult{AmountIn: amountIn, AmountOut: out}, nil
}

type fakeExecutor struct {
	calls int
	err   error
	last  execution.Opportunity
}

func (f *fakeExecutor) Execute(ctx context.Context, opp execution.Opportunity) (string, error) {
	f.calls++
	f.last = opp
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("ref-%d", f.calls), nil
}

type memorySink struct{ records []model.EvaluationRecord }

func (m *memorySink) PutEvaluation(ctx context.Context, record model.EvaluationRecord) error {
	m.records = append(m.records, record)
	return nil
}

type fixture struct {
	cfg      Config
	prices   *fakePrices
	quoter   *fakeQuoter
	executor *fakeExecutor
	sink     *memorySink
	deps     Deps
}

func newFixture(t *testing.T, reference, hook int64) *fixture {
	t.Helper()
	refKey, err := dex.NewPoolKey("", testQuoteToken, 3000, 60, "")
	if err != nil {
		t.Fatalf("reference key: %v", err)
	}
	hookKey, err := dex.NewPoolKey("", testQuoteToken, 3000, 60, testHook)
	if err != nil {
		t.Fatalf("hook key: %v", err)
	}

	f := &fixture{
		cfg: Config{
			ChainName:     "ethereum-testnet-sepolia",
			ReferencePool: refKey,
			HookPool:      hookKey,
			AmountIn:      big.NewInt(1e18),
			ZeroForOne:    true,
			MaxRetries:    2,
			RetryBackoff:  time.Millisecond,
		},
		prices: &fakePrices{price: big.NewInt(2000_000000)},
		quoter: &fakeQuoter{
			block: 100,
			quotes: map[dex.PoolKey]*big.Int{
				refKey:  big.NewInt(reference),
				hookKey: big.NewInt(hook),
			},
		},
		executor: &fakeExecutor{},
		sink:     &memorySink{},
	}
	f.deps = Deps{Prices: f.prices, Quoter: f.quoter, Executor: f.executor, Sink: f.sink}
	return f
}

func (f *fixture) build(t *testing.T) *Workflow {
	t.Helper()
	wf, err := New(f.cfg, f.deps, nil)
	if err != nil {
		t.Fatalf("workflow: %v", err)
	}
	return wf
}

func TestTickExecutesProfitableOpportunity(t *testing.T) {
	f := newFixture(t, 2_010_000_000, 2_000_000_000)
	wf := f.build(t)

	res, err := wf.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.Decision.Direction != arbitrage.DirectionBuyHookSellReference {
		t.Fatalf("direction: %s", res.Decision.Direction)
	}
	if f.executor.calls != 1 || res.Record.ExecutionRef != "ref-1" {
		t.Fatalf("executor calls %d ref %q", f.executor.calls, res.Record.ExecutionRef)
	}
	if f.executor.last.ExpectedProfit.Int64() != 10_000_000-60_000 {
		t.Fatalf("expected profit: %s", f.executor.last.ExpectedProfit)
	}
	if len(f.quoter.blocks) != 2 || f.quoter.blocks[0] != 100 || f.quoter.blocks[1] != 100 {
		t.Fatalf("quotes not pinned to one block: %v", f.quoter.blocks)
	}
	if len(f.sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(f.sink.records))
	}
	rec := f.sink.records[0]
	if rec.GasCostWei != "30000000000000" || rec.GasCostQuote != "60000" || rec.BlockNumber != 100 || rec.QuoteMode != "swap" {
		t.Fatalf("record mismatch: %+v", rec)
	}
}

func TestTickNoTrade(t *testing.T) {
	f := newFixture(t, 2_000_000_000, 2_000_500_000)
	wf := f.build(t)

	res, err := wf.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.Decision.Profitable() || f.executor.calls != 0 {
		t.Fatalf("expected no trade, got %s with %d executions", res.Decision.Direction, f.executor.calls)
	}
	if len(f.sink.records) != 1 || f.sink.records[0].Direction != "none" {
		t.Fatalf("record: %+v", f.sink.records)
	}
}

func TestTickCooldownSuppressesRepeat(t *testing.T) {
	f := newFixture(t, 2_000_000_000, 2_010_000_000)
	f.cfg.Cooldown = time.Minute
	f.deps.Cooldown = cooldown.NewMemory(16)
	wf := f.build(t)

	for i := 0; i < 2; i++ {
		if _, err := wf.Tick(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if f.executor.calls != 1 {
		t.Fatalf("expected a single execution, got %d", f.executor.calls)
	}
	if len(f.sink.records) != 2 || f.sink.records[0].Suppressed || !f.sink.records[1].Suppressed {
		t.Fatalf("suppression not recorded: %+v", f.sink.records)
	}
	if f.sink.records[1].Direction != string(arbitrage.DirectionBuyReferenceSellHook) {
		t.Fatalf("direction: %s", f.sink.records[1].Direction)
	}
}

func TestTickExecutionFailureReleasesCooldown(t *testing.T) {
	f := newFixture(t, 2_010_000_000, 2_000_000_000)
	f.cfg.Cooldown = time.Minute
	f.deps.Cooldown = cooldown.NewMemory(16)
	f.executor.err = errors.New("executor offline")
	wf := f.build(t)

	if _, err := wf.Tick(context.Background()); err == nil {
		t.Fatalf("expected execution error")
	}
	if f.sink.records[0].Error == "" {
		t.Fatalf("failed tick must be recorded with its error")
	}

	f.executor.err = nil
	res, err := wf.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.Record.Suppressed || f.executor.calls != 2 {
		t.Fatalf("cooldown not released: suppressed=%v calls=%d", res.Record.Suppressed, f.executor.calls)
	}
}

func TestTickRetriesTransportErrors(t *testing.T) {
	f := newFixture(t, 2_000_000_000, 2_000_000_000)
	f.prices.errs = []error{fmt.Errorf("get price: %w", model.ErrTransport)}
	wf := f.build(t)

	if _, err := wf.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if f.prices.calls != 2 {
		t.Fatalf("expected a retry, got %d calls", f.prices.calls)
	}
}

func TestTickDoesNotRetryDecodeErrors(t *testing.T) {
	f := newFixture(t, 2_000_000_000, 2_000_000_000)
	f.quoter.err = fmt.Errorf("unpack getSlot0: %w", model.ErrDecode)
	wf := f.build(t)

	_, err := wf.Tick(context.Background())
	if !errors.Is(err, model.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if f.quoter.calls != 1 {
		t.Fatalf("decode error retried: %d calls", f.quoter.calls)
	}
	if len(f.sink.records) != 1 || f.sink.records[0].Error == "" {
		t.Fatalf("failed tick not recorded: %+v", f.sink.records)
	}
}

func TestTickLiveGas(t *testing.T) {
	f := newFixture(t, 2_000_000_000, 2_000_000_000)
	f.cfg.GasLimit = 250_000
	f.deps.Gas = fakeGas{price: big.NewInt(2_000_000_000)}
	wf := f.build(t)

	res, err := wf.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	// 2 gwei * 250k gas = 0.0005 ETH, $1 at $2000
	if res.Record.GasCostWei != "500000000000000" || res.Record.GasCostQuote != "1000000" {
		t.Fatalf("gas: %s wei, %s quote", res.Record.GasCostWei, res.Record.GasCostQuote)
	}
}

func TestTickSkipsUnchangedBlock(t *testing.T) {
	f := newFixture(t, 2_000_000_000, 2_000_000_000)
	f.cfg.SkipUnchangedBlock = true
	f.deps.Checkpoint = NewCheckpointStore(filepath.Join(t.TempDir(), "checkpoint.json"), true)
	wf := f.build(t)

	if res, err := wf.Tick(context.Background()); err != nil || res.Skipped {
		t.Fatalf("first tick: %v skipped=%v", err, res.Skipped)
	}
	res, err := wf.Tick(context.Background())
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if !res.Skipped || f.quoter.calls != 2 {
		t.Fatalf("expected skip without quoting: skipped=%v calls=%d", res.Skipped, f.quoter.calls)
	}

	f.quoter.block = 101
	if res, err := wf.Tick(context.Background()); err != nil || res.Skipped {
		t.Fatalf("new block: %v skipped=%v", err, res.Skipped)
	}
}

func TestNewRejectsSamePool(t *testing.T) {
	f := newFixture(t, 1, 1)
	f.cfg.HookPool = f.cfg.ReferencePool
	if _, err := New(f.cfg, f.deps, nil); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	f = newFixture(t, 1, 1)
	f.cfg.GasLimit = 1
	if _, err := New(f.cfg, f.deps, nil); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("gas limit without pricer: expected ErrConfiguration, got %v", err)
	}
}

func TestNewRejectsOneForZero(t *testing.T) {
	f := newFixture(t, 1_000_000_000_000_000_000, 999_980_000_399_992_000)
	f.cfg.ZeroForOne = false
	if _, err := New(f.cfg, f.deps, nil); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if f.quoter.calls != 0 {
		t.Fatalf("quoter must not be called, got %d calls", f.quoter.calls)
	}
}
