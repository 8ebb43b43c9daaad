package dex

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"poolArbitrage/internal/chain"
	"poolArbitrage/internal/model"
)

const NativeDecimals uint8 = 18

const defaultTokenCacheSize = 128

// TokenRegistry resolves ERC20 decimals, preferring configured overrides and
// caching on-chain answers.
type TokenRegistry struct {
	caller    chain.Caller
	overrides map[common.Address]uint8
	cache     *lru.Cache[common.Address, model.TokenMeta]
	logger    *zap.Logger
}

func NewTokenRegistry(caller chain.Caller, overrides map[string]uint8, size int, logger *zap.Logger) (*TokenRegistry, error) {
	if size <= 0 {
		size = defaultTokenCacheSize
	}
	cache, err := lru.New[common.Address, model.TokenMeta](size)
	if err != nil {
		return nil, fmt.Errorf("token cache: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed := make(map[common.Address]uint8, len(overrides))
	for addr, decimals := range overrides {
		if !common.IsHexAddress(strings.TrimSpace(addr)) {
			return nil, fmt.Errorf("token override %q: %w", addr, model.ErrConfiguration)
		}
		parsed[common.HexToAddress(addr)] = decimals
	}
	return &TokenRegistry{caller: caller, overrides: parsed, cache: cache, logger: logger}, nil
}

// Decimals returns the token's decimals. The zero address is native ETH.
func (r *TokenRegistry) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	meta, err := r.Meta(ctx, token)
	if err != nil {
		return 0, err
	}
	return meta.Decimals, nil
}

func (r *TokenRegistry) Meta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	if token == NativeCurrency {
		return model.TokenMeta{Address: token.Hex(), Decimals: NativeDecimals, Symbol: "ETH"}, nil
	}
	if decimals, ok := r.overrides[token]; ok {
		return model.TokenMeta{Address: token.Hex(), Decimals: decimals}, nil
	}
	if meta, ok := r.cache.Get(token); ok {
		return meta, nil
	}
	if r.caller == nil {
		return model.TokenMeta{}, fmt.Errorf("decimals %s: chain caller is nil: %w", token.Hex(), model.ErrConfiguration)
	}

	parsed, err := erc20DecimalsABIInstance()
	if err != nil {
		return model.TokenMeta{}, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := parsed.Pack("decimals")
	if err != nil {
		return model.TokenMeta{}, fmt.Errorf("pack decimals: %w", err)
	}
	resp, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return model.TokenMeta{}, fmt.Errorf("call decimals %s: %w: %w", token.Hex(), model.ErrTransport, err)
	}
	values, err := parsed.Unpack("decimals", resp)
	if err != nil {
		return model.TokenMeta{}, fmt.Errorf("unpack decimals %s: %w: %w", token.Hex(), model.ErrDecode, err)
	}
	if len(values) != 1 {
		return model.TokenMeta{}, fmt.Errorf("decimals %s: unexpected values %d: %w", token.Hex(), len(values), model.ErrDecode)
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return model.TokenMeta{}, fmt.Errorf("decimals %s: %w: %w", token.Hex(), model.ErrDecode, err)
	}

	meta := model.TokenMeta{Address: token.Hex(), Decimals: decimals}
	r.cache.Add(token, meta)
	r.logger.Debug("token decimals", zap.String("token", token.Hex()), zap.Uint8("decimals", decimals))
	return meta, nil
}
