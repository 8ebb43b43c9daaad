package chain

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"poolArbitrage/internal/model"
)

// BlockPolicy selects which block height reads are pinned to.
type BlockPolicy string

const (
	BlockLatest    BlockPolicy = "latest"
	BlockFinalized BlockPolicy = "finalized"
)

// Tag returns the rpc block tag encoded as the negative number ethclient expects.
func (p BlockPolicy) Tag() (*big.Int, error) {
	switch p {
	case BlockLatest:
		return big.NewInt(int64(rpc.LatestBlockNumber)), nil
	case BlockFinalized:
		return big.NewInt(int64(rpc.FinalizedBlockNumber)), nil
	default:
		return nil, fmt.Errorf("block policy %q: %w", string(p), model.ErrConfiguration)
	}
}

// Network is a deployment profile: which StateView contract to read and how
// to pin the block height.
type Network struct {
	Name        string
	ChainID     uint64
	Testnet     bool
	StateView   common.Address
	BlockPolicy BlockPolicy
}

var networks = map[string]Network{
	"ethereum-mainnet": {
		Name:        "ethereum-mainnet",
		ChainID:     1,
		StateView:   common.HexToAddress("0x7fFE42C4a5DEeA5b0feC41C94C136Cf115597227"),
		BlockPolicy: BlockFinalized,
	},
	"ethereum-testnet-sepolia": {
		Name:        "ethereum-testnet-sepolia",
		ChainID:     11155111,
		Testnet:     true,
		StateView:   common.HexToAddress("0xE1Dd9c3fA50EDB962E442f60DfBc432e24537E4C"),
		BlockPolicy: BlockLatest,
	},
	"ethereum-mainnet-base-1": {
		Name:        "ethereum-mainnet-base-1",
		ChainID:     8453,
		StateView:   common.HexToAddress("0xA3c0c9b65baD0b08107Aa264b0f3dB444b867A71"),
		BlockPolicy: BlockFinalized,
	},
	"ethereum-testnet-sepolia-base-1": {
		Name:        "ethereum-testnet-sepolia-base-1",
		ChainID:     84532,
		Testnet:     true,
		StateView:   common.HexToAddress("0x571291b572ed32ce6751a2cb2486ebee8defb9b4"),
		BlockPolicy: BlockLatest,
	},
	"ethereum-mainnet-arbitrum-1": {
		Name:        "ethereum-mainnet-arbitrum-1",
		ChainID:     42161,
		StateView:   common.HexToAddress("0x76Fd297e2D437cd7f76d50F01AfE6160f86e9990"),
		BlockPolicy: BlockFinalized,
	},
}

// LookupNetwork resolves a chain selector name. Unknown names are fatal
// configuration errors.
func LookupNetwork(name string) (Network, error) {
	network, ok := networks[strings.TrimSpace(name)]
	if !ok {
		return Network{}, fmt.Errorf("unknown chain name %q (known: %s): %w", name, strings.Join(NetworkNames(), ", "), model.ErrConfiguration)
	}
	return network, nil
}

// NetworkNames lists the known chain selector names.
func NetworkNames() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type headerReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// ResolveBlock turns the policy into a concrete block number so that several
// calls can be pinned to the same height.
func ResolveBlock(ctx context.Context, reader headerReader, policy BlockPolicy) (*big.Int, error) {
	tag, err := policy.Tag()
	if err != nil {
		return nil, err
	}
	header, err := reader.HeaderByNumber(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("resolve %s block: %w: %w", policy, model.ErrTransport, err)
	}
	if header == nil || header.Number == nil {
		return nil, fmt.Errorf("resolve %s block: empty header: %w", policy, model.ErrDecode)
	}
	return new(big.Int).Set(header.Number), nil
}
