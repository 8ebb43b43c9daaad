package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"poolArbitrage/internal/chain"
	"poolArbitrage/internal/model"
)

// PoolState is an immutable snapshot of a pool read at one block.
type PoolState struct {
	Key          PoolKey
	ID           common.Hash
	BlockNumber  uint64
	SqrtPriceX96 *uint256.Int
	Tick         int32
	ProtocolFee  uint32
	LPFee        uint32
	Liquidity    *uint256.Int
}

// Snapshot converts the state into its JSON form.
func (s PoolState) Snapshot() model.PoolSnapshot {
	snap := model.PoolSnapshot{
		PoolID:      s.ID.Hex(),
		Currency0:   s.Key.Currency0.Hex(),
		Currency1:   s.Key.Currency1.Hex(),
		Fee:         s.Key.Fee,
		TickSpacing: s.Key.TickSpacing,
		Hooks:       s.Key.Hooks.Hex(),
		BlockNumber: s.BlockNumber,
		Tick:        s.Tick,
		ProtocolFee: s.ProtocolFee,
		LPFee:       s.LPFee,
	}
	if s.SqrtPriceX96 != nil {
		snap.SqrtPriceX96 = s.SqrtPriceX96.Dec()
	}
	if s.Liquidity != nil {
		snap.Liquidity = s.Liquidity.Dec()
	}
	return snap
}

// ReaderConfig configures a StateViewReader.
type ReaderConfig struct {
	Network            chain.Network
	AllowCustomSpacing bool
}

// StateViewReader reads pool state through the network's StateView contract.
type StateViewReader struct {
	cfg    ReaderConfig
	caller chain.Caller
	logger *zap.Logger
}

// NewStateViewReader builds a reader bound to one network profile.
func NewStateViewReader(cfg ReaderConfig, caller chain.Caller, logger *zap.Logger) *StateViewReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateViewReader{cfg: cfg, caller: caller, logger: logger}
}

// Network returns the profile the reader is bound to.
func (r *StateViewReader) Network() chain.Network {
	return r.cfg.Network
}

// ReadPoolState resolves the pool ID and reads slot0 and liquidity pinned to a
// single block chosen by the network's block policy.
func (r *StateViewReader) ReadPoolState(ctx context.Context, key PoolKey) (PoolState, error) {
	if r.caller == nil {
		return PoolState{}, fmt.Errorf("chain caller is nil: %w", model.ErrConfiguration)
	}
	if err := key.Validate(r.cfg.AllowCustomSpacing); err != nil {
		return PoolState{}, err
	}
	id, err := key.ID()
	if err != nil {
		return PoolState{}, err
	}
	r.logger.Debug("pool id", zap.String("pool", key.String()), zap.String("pool_id", id.Hex()))

	block, err := chain.ResolveBlock(ctx, r.caller, r.cfg.Network.BlockPolicy)
	if err != nil {
		return PoolState{}, fmt.Errorf("pool %s: %w", id.Hex(), err)
	}
	return r.ReadPoolStateAt(ctx, key, id, block)
}

// ReadPoolStateAt reads slot0 and liquidity at an explicit block.
func (r *StateViewReader) ReadPoolStateAt(ctx context.Context, key PoolKey, id common.Hash, block *big.Int) (PoolState, error) {
	values, err := r.call(ctx, "getSlot0", id, block, [32]byte(id))
	if err != nil {
		return PoolState{}, err
	}
	if len(values) != 4 {
		return PoolState{}, fmt.Errorf("getSlot0 pool %s: unexpected values %d: %w", id.Hex(), len(values), model.ErrDecode)
	}

	sqrtPrice, err := asUint256(values[0])
	if err != nil {
		return PoolState{}, fmt.Errorf("getSlot0 pool %s: sqrtPriceX96: %w: %w", id.Hex(), model.ErrDecode, err)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return PoolState{}, fmt.Errorf("getSlot0 pool %s: tick: %w: %w", id.Hex(), model.ErrDecode, err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return PoolState{}, fmt.Errorf("getSlot0 pool %s: tick: %w: %w", id.Hex(), model.ErrDecode, err)
	}
	protocolFee, err := asUint24(values[2])
	if err != nil {
		return PoolState{}, fmt.Errorf("getSlot0 pool %s: protocolFee: %w: %w", id.Hex(), model.ErrDecode, err)
	}
	lpFee, err := asUint24(values[3])
	if err != nil {
		return PoolState{}, fmt.Errorf("getSlot0 pool %s: lpFee: %w: %w", id.Hex(), model.ErrDecode, err)
	}

	if sqrtPrice.IsZero() {
		return PoolState{}, fmt.Errorf("pool %s (%s): %w", id.Hex(), key, model.ErrPoolNotFound)
	}

	values, err = r.call(ctx, "getLiquidity", id, block, [32]byte(id))
	if err != nil {
		return PoolState{}, err
	}
	if len(values) != 1 {
		return PoolState{}, fmt.Errorf("getLiquidity pool %s: unexpected values %d: %w", id.Hex(), len(values), model.ErrDecode)
	}
	liquidity, err := asUint256(values[0])
	if err != nil {
		return PoolState{}, fmt.Errorf("getLiquidity pool %s: %w: %w", id.Hex(), model.ErrDecode, err)
	}

	state := PoolState{
		Key:          key,
		ID:           id,
		SqrtPriceX96: sqrtPrice,
		Tick:         tick,
		ProtocolFee:  protocolFee,
		LPFee:        lpFee,
		Liquidity:    liquidity,
	}
	if block != nil && block.IsUint64() {
		state.BlockNumber = block.Uint64()
	}
	return state, nil
}

// TickBitmap reads one 256-bit word of the pool's tick bitmap.
func (r *StateViewReader) TickBitmap(ctx context.Context, id common.Hash, word int16, block *big.Int) (*big.Int, error) {
	values, err := r.call(ctx, "getTickBitmap", id, block, [32]byte(id), word)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("getTickBitmap pool %s word %d: unexpected values %d: %w", id.Hex(), word, len(values), model.ErrDecode)
	}
	bitmap, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("getTickBitmap pool %s word %d: %w: %w", id.Hex(), word, model.ErrDecode, err)
	}
	return bitmap, nil
}

// TickLiquidityNet reads the signed liquidity delta applied when crossing tick.
func (r *StateViewReader) TickLiquidityNet(ctx context.Context, id common.Hash, tick int32, block *big.Int) (*big.Int, error) {
	values, err := r.call(ctx, "getTickLiquidity", id, block, [32]byte(id), big.NewInt(int64(tick)))
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("getTickLiquidity pool %s tick %d: unexpected values %d: %w", id.Hex(), tick, len(values), model.ErrDecode)
	}
	net, err := asBigInt(values[1])
	if err != nil {
		return nil, fmt.Errorf("getTickLiquidity pool %s tick %d: %w: %w", id.Hex(), tick, model.ErrDecode, err)
	}
	return net, nil
}

// TicksAt returns a TickSource pinned to block.
func (r *StateViewReader) TicksAt(block *big.Int) TickSource {
	return &pinnedTicks{reader: r, block: block}
}

func (r *StateViewReader) call(ctx context.Context, method string, id common.Hash, block *big.Int, args ...interface{}) ([]interface{}, error) {
	parsed, err := StateViewABI()
	if err != nil {
		return nil, fmt.Errorf("parse state view abi: %w", err)
	}
	return callMethod(ctx, r.caller, r.cfg.Network.StateView, parsed, method, id, block, args...)
}

func callMethod(ctx context.Context, caller chain.Caller, to common.Address, parsed abi.ABI, method string, id common.Hash, block *big.Int, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s pool %s: %w", method, id.Hex(), err)
	}
	msg := ethereum.CallMsg{From: common.Address{}, To: &to, Data: data}
	resp, err := caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s pool %s: %w: %w", method, id.Hex(), model.ErrTransport, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s pool %s: %w: %w", method, id.Hex(), model.ErrDecode, err)
	}
	return values, nil
}

type pinnedTicks struct {
	reader *StateViewReader
	block  *big.Int
}

func (p *pinnedTicks) TickBitmap(ctx context.Context, id common.Hash, word int16) (*big.Int, error) {
	return p.reader.TickBitmap(ctx, id, word, p.block)
}

func (p *pinnedTicks) TickLiquidityNet(ctx context.Context, id common.Hash, tick int32) (*big.Int, error) {
	return p.reader.TickLiquidityNet(ctx, id, tick, p.block)
}
