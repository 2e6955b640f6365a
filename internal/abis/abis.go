// Package abis holds the parsed ABI fragments the pipeline's production
// wiring binds against a live ethclient, consolidating the method
// shapes internal/mempool, internal/bundle and internal/contractclient
// already exercise in their own test fixtures into one place cmd/jitbot
// can build real contractclient.ContractClients from.
package abis

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// RouterJSON covers the swap router methods component D decodes:
// exactInputSingle, exactInput and multicall.
const RouterJSON = `[
	{"name":"exactInputSingle","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"params","type":"tuple","components":[
		{"name":"tokenIn","type":"address"},
		{"name":"tokenOut","type":"address"},
		{"name":"fee","type":"uint24"},
		{"name":"recipient","type":"address"},
		{"name":"deadline","type":"uint256"},
		{"name":"amountIn","type":"uint256"},
		{"name":"amountOutMinimum","type":"uint256"},
		{"name":"sqrtPriceLimitX96","type":"uint160"}]}],
	 "outputs":[{"name":"amountOut","type":"uint256"}]},
	{"name":"exactInput","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"params","type":"tuple","components":[
		{"name":"path","type":"bytes"},
		{"name":"recipient","type":"address"},
		{"name":"deadline","type":"uint256"},
		{"name":"amountIn","type":"uint256"},
		{"name":"amountOutMinimum","type":"uint256"}]}],
	 "outputs":[{"name":"amountOut","type":"uint256"}]},
	{"name":"multicall","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"data","type":"bytes[]"}],
	 "outputs":[{"name":"results","type":"bytes[]"}]}
]`

// PoolJSON covers the monitored pool's direct swap method and the
// globalState() read poolcache's ContractClientFetcher calls.
const PoolJSON = `[
	{"name":"swap","type":"function","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"recipient","type":"address"},
		{"name":"zeroToOne","type":"bool"},
		{"name":"amountSpecified","type":"int256"},
		{"name":"sqrtPriceLimitX96","type":"uint160"},
		{"name":"data","type":"bytes"}],
	 "outputs":[{"name":"amount0","type":"int256"},{"name":"amount1","type":"int256"}]},
	{"name":"globalState","type":"function","stateMutability":"view",
	 "inputs":[],
	 "outputs":[
		{"name":"price","type":"uint160"},
		{"name":"tick","type":"int24"},
		{"name":"lastFee","type":"uint16"},
		{"name":"pluginConfig","type":"uint8"},
		{"name":"activeLiquidity","type":"uint128"},
		{"name":"nextTick","type":"int24"},
		{"name":"previousTick","type":"int24"}]}
]`

// NFPMJSON covers the nonfungible position manager methods
// internal/bundle packs a mint/burn/collect bundle leg against.
const NFPMJSON = `[
	{"name":"mint","type":"function","stateMutability":"payable",
	 "inputs":[{"name":"params","type":"tuple","components":[
		{"name":"token0","type":"address"},
		{"name":"token1","type":"address"},
		{"name":"fee","type":"uint24"},
		{"name":"tickLower","type":"int24"},
		{"name":"tickUpper","type":"int24"},
		{"name":"amount0Desired","type":"uint256"},
		{"name":"amount1Desired","type":"uint256"},
		{"name":"amount0Min","type":"uint256"},
		{"name":"amount1Min","type":"uint256"},
		{"name":"recipient","type":"address"},
		{"name":"deadline","type":"uint256"}]}],
	 "outputs":[
		{"name":"tokenId","type":"uint256"},
		{"name":"liquidity","type":"uint128"},
		{"name":"amount0","type":"uint256"},
		{"name":"amount1","type":"uint256"}]},
	{"name":"decreaseLiquidity","type":"function","stateMutability":"payable",
	 "inputs":[{"name":"params","type":"tuple","components":[
		{"name":"tokenId","type":"uint256"},
		{"name":"liquidity","type":"uint128"},
		{"name":"amount0Min","type":"uint256"},
		{"name":"amount1Min","type":"uint256"},
		{"name":"deadline","type":"uint256"}]}],
	 "outputs":[{"name":"amount0","type":"uint256"},{"name":"amount1","type":"uint256"}]},
	{"name":"collect","type":"function","stateMutability":"payable",
	 "inputs":[{"name":"params","type":"tuple","components":[
		{"name":"tokenId","type":"uint256"},
		{"name":"recipient","type":"address"},
		{"name":"amount0Max","type":"uint128"},
		{"name":"amount1Max","type":"uint128"}]}],
	 "outputs":[{"name":"amount0","type":"uint256"},{"name":"amount1","type":"uint256"}]},
	{"name":"multicall","type":"function","stateMutability":"payable",
	 "inputs":[{"name":"data","type":"bytes[]"}],
	 "outputs":[{"name":"results","type":"bytes[]"}]},
	{"name":"totalSupply","type":"function","stateMutability":"view",
	 "inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

// ERC20JSON covers the read used to size mint amounts to a token's
// native decimals.
const ERC20JSON = `[
	{"name":"decimals","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

// MustParse parses one of the JSON fragments above, panicking on a
// malformed fragment since these are compiled-in constants, not
// user-supplied input.
func MustParse(rawJSON string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(rawJSON))
	if err != nil {
		panic("abis: malformed ABI fragment: " + err.Error())
	}
	return parsed
}
