package profitmath

import "math/big"

// GasConstants is the JIT gas-cost table spec §9 calls out as needing an
// explicit checked-sum invariant: the flash-acquire, mint, burn+collect
// and repay legs each have their own gas estimate (the victim's own gas is
// not included), plus a fixed overhead, and Total must equal their sum so
// a drifted constant
// can't silently under-price the bundle's true cost.
type GasConstants struct {
	FlashAcquire uint64
	Mint         uint64
	BurnCollect  uint64
	Repay        uint64
	Overhead     uint64
	Total        uint64
}

// DefaultGasConstants mirrors the per-leg costs blackholedex's own
// TransactionRecord entries observed for mint/burn/collect on an Algebra
// pool, extended with the flashloan acquire/repay legs a JIT bundle adds
// on top of a plain reposition.
var DefaultGasConstants = mustGasConstants(GasConstants{
	FlashAcquire: 120_000,
	Mint:         280_000,
	BurnCollect:  220_000,
	Repay:        80_000,
	Overhead:     50_000,
})

func mustGasConstants(g GasConstants) GasConstants {
	g.Total = g.FlashAcquire + g.Mint + g.BurnCollect + g.Repay + g.Overhead
	return g
}

// EstimateBundleGas returns the worst-case gas units the enhanced
// [mint, victim, burn+collect] bundle's own legs (excluding the victim's
// gas, which the searcher never pays) will consume.
func EstimateBundleGas(g GasConstants) uint64 {
	return g.FlashAcquire + g.Mint + g.BurnCollect + g.Repay + g.Overhead
}

// GasCostWei returns gasUnits * gasPriceWei.
func GasCostWei(gasUnits uint64, gasPriceWei *big.Int) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(gasUnits), gasPriceWei)
}
