package dex

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"poolArbitrage/internal/model"
)

const (
	// DynamicFeeFlag marks a pool whose LP fee is set by its hook.
	DynamicFeeFlag uint32 = 0x800000
	maxTickSpacing int32  = 32767
	minTickSpacing int32  = 1
)

// canonicalTickSpacing maps the static fee tiers to their conventional spacing.
var canonicalTickSpacing = map[uint32]int32{
	100:   1,
	500:   10,
	3000:  60,
	10000: 200,
}

// NativeCurrency is the v4 representation of ETH.
var NativeCurrency = common.Address{}

// PoolKey identifies a v4 pool. Currency0 is the base asset and Currency1 the
// quote asset.
type PoolKey struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         uint32
	TickSpacing int32
	Hooks       common.Address
}

// NewPoolKey parses hex addresses (case-insensitive) into a PoolKey. An empty
// hooks string means no hook.
func NewPoolKey(base, quote string, fee uint32, tickSpacing int32, hooks string) (PoolKey, error) {
	currency0, err := parseAddress("base token", base)
	if err != nil {
		return PoolKey{}, err
	}
	currency1, err := parseAddress("quote token", quote)
	if err != nil {
		return PoolKey{}, err
	}
	hookAddr := common.Address{}
	if strings.TrimSpace(hooks) != "" {
		hookAddr, err = parseAddress("hooks", hooks)
		if err != nil {
			return PoolKey{}, err
		}
	}

	key := PoolKey{
		Currency0:   currency0,
		Currency1:   currency1,
		Fee:         fee,
		TickSpacing: tickSpacing,
		Hooks:       hookAddr,
	}
	if bytes.Compare(key.Currency0.Bytes(), key.Currency1.Bytes()) >= 0 {
		return PoolKey{}, fmt.Errorf("base token %s must sort below quote token %s: %w", key.Currency0.Hex(), key.Currency1.Hex(), model.ErrConfiguration)
	}
	return key, nil
}

func parseAddress(field, input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid %s address %q: %w", field, input, model.ErrConfiguration)
	}
	return common.HexToAddress(input), nil
}

// HasHook reports whether a hook contract is attached.
func (k PoolKey) HasHook() bool {
	return k.Hooks != (common.Address{})
}

// Validate checks the fee tier and tick spacing. allowCustomSpacing relaxes
// only the spacing match; the fee must still be a supported tier.
func (k PoolKey) Validate(allowCustomSpacing bool) error {
	if k.TickSpacing < minTickSpacing || k.TickSpacing > maxTickSpacing {
		return fmt.Errorf("tick spacing %d out of range: %w", k.TickSpacing, model.ErrConfiguration)
	}
	if k.Fee == DynamicFeeFlag {
		if !k.HasHook() {
			return fmt.Errorf("dynamic fee requires a hook: %w", model.ErrConfiguration)
		}
		return nil
	}
	spacing, ok := canonicalTickSpacing[k.Fee]
	if !ok {
		return fmt.Errorf("unsupported fee tier %d: %w", k.Fee, model.ErrConfiguration)
	}
	if !allowCustomSpacing && spacing != k.TickSpacing {
		return fmt.Errorf("fee tier %d expects tick spacing %d, got %d: %w", k.Fee, spacing, k.TickSpacing, model.ErrConfiguration)
	}
	return nil
}

// ID returns keccak256(abi.encode(currency0, currency1, fee, tickSpacing, hooks)).
func (k PoolKey) ID() (common.Hash, error) {
	args, err := poolKeyArguments()
	if err != nil {
		return common.Hash{}, fmt.Errorf("pool key abi: %w", err)
	}
	encoded, err := args.Pack(
		k.Currency0,
		k.Currency1,
		new(big.Int).SetUint64(uint64(k.Fee)),
		big.NewInt(int64(k.TickSpacing)),
		k.Hooks,
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode pool key: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// String renders the key for logs.
func (k PoolKey) String() string {
	return fmt.Sprintf("%s/%s fee=%d spacing=%d hooks=%s", k.Currency0.Hex(), k.Currency1.Hex(), k.Fee, k.TickSpacing, k.Hooks.Hex())
}
