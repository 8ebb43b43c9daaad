package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolArbitrage/internal/chain"
	"poolArbitrage/internal/config"
	"poolArbitrage/internal/cooldown"
	"poolArbitrage/internal/dex"
	"poolArbitrage/internal/execution"
	"poolArbitrage/internal/market"
	"poolArbitrage/internal/model"
	"poolArbitrage/internal/storage"
	"poolArbitrage/internal/storage/postgres"
	"poolArbitrage/internal/storage/sqlite"
	"poolArbitrage/internal/workflow"
)

// app owns every long-lived resource one command needs.
type app struct {
	network      chain.Network
	client       *chain.Client
	reader       *dex.StateViewReader
	referenceKey dex.PoolKey
	hookKey      dex.PoolKey
	decimals     [2]int
	workflow     *workflow.Workflow
	closers      []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newChainApp dials the RPC endpoint and resolves pool keys and decimals.
func newChainApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	evm, err := cfg.Chain()
	if err != nil {
		return nil, err
	}
	network, err := chain.LookupNetwork(evm.ChainName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(evm.RPCURL) == "" {
		return nil, fmt.Errorf("evms[0].rpcUrl is required: %w", model.ErrConfiguration)
	}

	client, err := chain.NewClient(ctx, evm.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w: %w", model.ErrTransport, err)
	}
	a := &app{network: network, client: client, closers: []func(){client.Close}}

	chainID, err := client.GetChainID(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("chain id: %w: %w", model.ErrTransport, err)
	}
	if !chainID.IsUint64() || chainID.Uint64() != network.ChainID {
		a.Close()
		return nil, fmt.Errorf("rpc chain id %s does not match %s (%d): %w", chainID, network.Name, network.ChainID, model.ErrConfiguration)
	}

	if a.referenceKey, err = dex.NewPoolKey(cfg.BaseToken, cfg.QuoteToken, cfg.ReferencePool.Fee, cfg.ReferencePool.TickSpacing, cfg.ReferencePool.Hooks); err != nil {
		a.Close()
		return nil, fmt.Errorf("reference pool: %w", err)
	}
	if a.hookKey, err = dex.NewPoolKey(cfg.BaseToken, cfg.QuoteToken, cfg.HookPool.Fee, cfg.HookPool.TickSpacing, cfg.HookPool.Hooks); err != nil {
		a.Close()
		return nil, fmt.Errorf("hook pool: %w", err)
	}

	tokens, err := dex.NewTokenRegistry(client, nil, 0, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if a.decimals[0], err = tokenDecimals(ctx, tokens, a.referenceKey.Currency0, cfg.BaseDecimals); err != nil {
		a.Close()
		return nil, err
	}
	if a.decimals[1], err = tokenDecimals(ctx, tokens, a.referenceKey.Currency1, cfg.QuoteDecimals); err != nil {
		a.Close()
		return nil, err
	}

	a.reader = dex.NewStateViewReader(dex.ReaderConfig{
		Network:            network,
		AllowCustomSpacing: cfg.AllowCustomSpacing,
	}, client, logger)

	logger.Info("chain ready",
		zap.String("chain", network.Name),
		zap.Uint64("chain_id", network.ChainID),
		zap.String("state_view", network.StateView.Hex()),
		zap.String("block_policy", string(network.BlockPolicy)),
		zap.Int("base_decimals", a.decimals[0]),
		zap.Int("quote_decimals", a.decimals[1]),
	)
	return a, nil
}

// tokenDecimals uses the configured value when it is set and reads the token
// contract otherwise.
func tokenDecimals(ctx context.Context, tokens *dex.TokenRegistry, token common.Address, configured int) (int, error) {
	if configured >= 0 {
		return configured, nil
	}
	decimals, err := tokens.Decimals(ctx, token)
	if err != nil {
		return 0, err
	}
	return int(decimals), nil
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a, err := newChainApp(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	quoter, err := dex.NewQuoter(dex.QuoterConfig{
		Mode:          dex.QuoteMode(cfg.QuoteMode),
		MaxSteps:      cfg.MaxSteps,
		BaseDecimals:  a.decimals[0],
		QuoteDecimals: a.decimals[1],
	}, a.reader, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	prices, err := newPriceSource(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	store, err := newCooldown(ctx, cfg, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	sink, err := newSink(ctx, cfg, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	wf, err := workflow.New(workflow.Config{
		ChainName:          a.network.Name,
		ReferencePool:      a.referenceKey,
		HookPool:           a.hookKey,
		AmountIn:           cfg.AmountIn,
		ZeroForOne:         cfg.ZeroForOne,
		Threshold:          cfg.ProfitThreshold,
		GasCostWei:         cfg.GasCostWei,
		GasLimit:           cfg.GasLimit,
		Cooldown:           cfg.Cooldown,
		MaxRetries:         cfg.MaxRetries,
		RetryBackoff:       cfg.RetryBackoff,
		SkipUnchangedBlock: cfg.SkipUnchangedBlock,
	}, workflow.Deps{
		Prices:     prices,
		Gas:        a.client,
		Quoter:     quoter,
		Cooldown:   store,
		Executor:   execution.NewDryRun(logger),
		Sink:       sink,
		Checkpoint: workflow.NewCheckpointStore(cfg.Checkpoint, cfg.CheckpointEnabled),
	}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.workflow = wf
	return a, nil
}

// newPriceSource builds one feed per observation slot and reduces them to a
// median.
func newPriceSource(cfg config.Config, logger *zap.Logger) (market.Observer, error) {
	urls := make([]string, 0, len(cfg.PriceURLs)+1)
	if strings.TrimSpace(cfg.APIURL) != "" {
		urls = append(urls, cfg.APIURL)
	}
	urls = append(urls, cfg.PriceURLs...)
	if len(urls) == 0 {
		return nil, fmt.Errorf("apiUrl or price-urls is required: %w", model.ErrConfiguration)
	}
	repeat := cfg.Observers
	if repeat <= 0 {
		repeat = 1
	}

	client := &http.Client{Timeout: cfg.HTTPTimeout}
	observers := make([]market.Observer, 0, len(urls)*repeat)
	for _, url := range urls {
		for i := 0; i < repeat; i++ {
			feed, err := market.NewFeed(market.FeedConfig{
				URL:     url,
				Path:    cfg.PricePath,
				Timeout: cfg.HTTPTimeout,
			}, client, logger)
			if err != nil {
				return nil, err
			}
			observers = append(observers, feed)
		}
	}
	if len(observers) == 1 {
		return observers[0], nil
	}
	return market.NewAggregator(observers, cfg.Quorum, logger)
}

func newCooldown(ctx context.Context, cfg config.Config, a *app) (cooldown.Store, error) {
	if cfg.RedisAddr == "" {
		return cooldown.NewMemory(0), nil
	}
	store, err := cooldown.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = store.Close() })
	return store, nil
}

func newSink(ctx context.Context, cfg config.Config, a *app) (storage.Sink, error) {
	switch cfg.Sink {
	case "", "jsonl":
		store := storage.NewJsonlStorage(cfg.Out)
		a.closers = append(a.closers, func() { _ = store.Close() })
		return store, nil
	case "postgres":
		if cfg.PGDSN == "" {
			return nil, fmt.Errorf("sink postgres requires pg-dsn: %w", model.ErrConfiguration)
		}
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		store, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		return store, nil
	case "none":
		return storage.Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown sink %q (jsonl, postgres, sqlite, none): %w", cfg.Sink, model.ErrConfiguration)
	}
}
