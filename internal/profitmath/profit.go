package profitmath

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// weiToDecimal converts a wei-denominated big.Int with the given token
// decimals into a shopspring/decimal value, the USD-math representation
// the rest of this package and the coordinator use once a quantity leaves
// big.Int/Q96 territory (grounded on the pack's go-coffee mempool monitor,
// which prices MEV risk the same way).
func weiToDecimal(amount *big.Int, decimals uint8) decimal.Decimal {
	d := decimal.NewFromBigInt(amount, 0)
	scale := decimal.New(1, int32(decimals))
	return d.Div(scale)
}

// FastProfit implements spec §4.C's fast/cheap profitability estimate:
//
//	fee_revenue ~= swap_amount_in * fee_bps/1e6 * lp_share
//	net_profit_usd = fee_revenue_usd - gas_cost_usd - risk_buffer_usd
//
// feeUnits is expressed in the pool's hundredths-of-a-bip units (500 = 5bps
// for a 0.05% tier, matching jit.FeeTier's own units).
func FastProfit(
	swapAmountIn *big.Int,
	swapTokenDecimals uint8,
	swapTokenPriceUSD decimal.Decimal,
	feeUnits uint32,
	lpShare *big.Float,
	gasCostWei *big.Int,
	nativePriceUSD decimal.Decimal,
	riskBufferUSD decimal.Decimal,
) decimal.Decimal {
	shareF, _ := lpShare.Float64()
	share := decimal.NewFromFloat(shareF)

	feeFrac := decimal.New(int64(feeUnits), -6) // feeUnits are hundredths of a bip: /1_000_000
	amountTok := weiToDecimal(swapAmountIn, swapTokenDecimals)

	feeRevenueTok := amountTok.Mul(feeFrac).Mul(share)
	feeRevenueUSD := feeRevenueTok.Mul(swapTokenPriceUSD)

	gasCostNative := weiToDecimal(gasCostWei, 18)
	gasCostUSD := gasCostNative.Mul(nativePriceUSD)

	return feeRevenueUSD.Sub(gasCostUSD).Sub(riskBufferUSD)
}

// IsProfitable reports whether netProfitUSD clears max(globalFloor,
// poolFloor), the profitability gate of spec §4.C/§4.F.
func IsProfitable(netProfitUSD decimal.Decimal, globalFloor float64, poolFloor *float64) bool {
	floor := globalFloor
	if poolFloor != nil && *poolFloor > floor {
		floor = *poolFloor
	}
	return netProfitUSD.GreaterThanOrEqual(decimal.NewFromFloat(floor))
}
