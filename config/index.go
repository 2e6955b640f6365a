package config

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/jitbot/jitliquidity/jit"
)

// PoolIndex resolves pool descriptors both by address and by the
// (token0, token1, fee) triple a router call's calldata carries, built
// once from LoadPoolDescriptors' output.
type PoolIndex struct {
	byAddress map[common.Address]*jit.PoolDescriptor
	byPair    map[string]*jit.PoolDescriptor
}

// NewPoolIndex builds a PoolIndex over a set of loaded pool descriptors.
func NewPoolIndex(pools map[string]*jit.PoolDescriptor) *PoolIndex {
	idx := &PoolIndex{
		byAddress: make(map[common.Address]*jit.PoolDescriptor, len(pools)),
		byPair:    make(map[string]*jit.PoolDescriptor, len(pools)),
	}
	for _, p := range pools {
		idx.byAddress[p.Address] = p
		idx.byPair[pairKey(p.Token0, p.Token1, p.Fee)] = p
	}
	return idx
}

func pairKey(a, b common.Address, fee jit.FeeTier) string {
	lo, hi := a, b
	if strings.Compare(strings.ToLower(lo.Hex()), strings.ToLower(hi.Hex())) > 0 {
		lo, hi = hi, lo
	}
	return strings.ToLower(lo.Hex()) + ":" + strings.ToLower(hi.Hex()) + ":" + feeKey(fee)
}

func feeKey(fee jit.FeeTier) string {
	switch fee {
	case jit.FeeTier100:
		return "100"
	case jit.FeeTier500:
		return "500"
	case jit.FeeTier3000:
		return "3000"
	case jit.FeeTier10000:
		return "10000"
	default:
		return "0"
	}
}

// Lookup resolves a pool descriptor by its contract address.
func (idx *PoolIndex) Lookup(pool common.Address) (*jit.PoolDescriptor, bool) {
	p, ok := idx.byAddress[pool]
	return p, ok
}

// LookupByPair resolves a pool descriptor by its unordered token pair and
// fee tier, as observed in a router call's decoded arguments.
func (idx *PoolIndex) LookupByPair(tokenA, tokenB common.Address, fee jit.FeeTier) (*jit.PoolDescriptor, bool) {
	p, ok := idx.byPair[pairKey(tokenA, tokenB, fee)]
	return p, ok
}
