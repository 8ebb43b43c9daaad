package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Uniswap v4 StateView: read-only accessors over PoolManager storage.
const stateViewABIJSON = `[
  {
    "inputs": [{"internalType": "PoolId", "name": "poolId", "type": "bytes32"}],
    "name": "getSlot0",
    "outputs": [
      {"internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
      {"internalType": "int24", "name": "tick", "type": "int24"},
      {"internalType": "uint24", "name": "protocolFee", "type": "uint24"},
      {"internalType": "uint24", "name": "lpFee", "type": "uint24"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "PoolId", "name": "poolId", "type": "bytes32"}],
    "name": "getLiquidity",
    "outputs": [{"internalType": "uint128", "name": "liquidity", "type": "uint128"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "PoolId", "name": "poolId", "type": "bytes32"},
      {"internalType": "int16", "name": "tick", "type": "int16"}
    ],
    "name": "getTickBitmap",
    "outputs": [{"internalType": "uint256", "name": "tickBitmap", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "PoolId", "name": "poolId", "type": "bytes32"},
      {"internalType": "int24", "name": "tick", "type": "int24"}
    ],
    "name": "getTickLiquidity",
    "outputs": [
      {"internalType": "uint128", "name": "liquidityGross", "type": "uint128"},
      {"internalType": "int128", "name": "liquidityNet", "type": "int128"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	stateViewABI     abi.ABI
	stateViewABIOnce sync.Once
	stateViewABIErr  error
)

// StateViewABI returns the parsed StateView ABI.
func StateViewABI() (abi.ABI, error) {
	stateViewABIOnce.Do(func() {
		stateViewABI, stateViewABIErr = abi.JSON(strings.NewReader(stateViewABIJSON))
	})
	return stateViewABI, stateViewABIErr
}

var (
	poolKeyArgs     abi.Arguments
	poolKeyArgsOnce sync.Once
	poolKeyArgsErr  error
)

// poolKeyArguments mirrors abi.encode(PoolKey) in the PoolManager.
func poolKeyArguments() (abi.Arguments, error) {
	poolKeyArgsOnce.Do(func() {
		var addressTy, uint24Ty, int24Ty abi.Type
		if addressTy, poolKeyArgsErr = abi.NewType("address", "", nil); poolKeyArgsErr != nil {
			return
		}
		if uint24Ty, poolKeyArgsErr = abi.NewType("uint24", "", nil); poolKeyArgsErr != nil {
			return
		}
		if int24Ty, poolKeyArgsErr = abi.NewType("int24", "", nil); poolKeyArgsErr != nil {
			return
		}
		poolKeyArgs = abi.Arguments{
			{Name: "currency0", Type: addressTy},
			{Name: "currency1", Type: addressTy},
			{Name: "fee", Type: uint24Ty},
			{Name: "tickSpacing", Type: int24Ty},
			{Name: "hooks", Type: addressTy},
		}
	})
	return poolKeyArgs, poolKeyArgsErr
}
