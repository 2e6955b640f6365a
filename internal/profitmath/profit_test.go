package profitmath

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFastProfit_ProfitableSwap(t *testing.T) {
	swapAmountIn := big.NewInt(0).Mul(big.NewInt(500_000), big.NewInt(1_000_000)) // 500,000 USDC (6 decimals)
	lpShare := big.NewFloat(0.8)
	gasCost := GasCostWei(DefaultGasConstants.Total, big.NewInt(20_000_000_000))

	net := FastProfit(
		swapAmountIn,
		6,
		decimal.NewFromInt(1),
		3000, // 0.3% tier, feeUnits
		lpShare,
		gasCost,
		decimal.NewFromInt(3000),
		decimal.NewFromFloat(0.5),
	)

	assert.True(t, net.GreaterThan(decimal.Zero), "expected a profitable swap to net positive: got %s", net.String())
}

func TestFastProfit_UnprofitableWhenSwapTooSmall(t *testing.T) {
	swapAmountIn := big.NewInt(1_000_000) // 1 USDC
	lpShare := big.NewFloat(0.8)
	gasCost := GasCostWei(DefaultGasConstants.Total, big.NewInt(50_000_000_000))

	net := FastProfit(
		swapAmountIn,
		6,
		decimal.NewFromInt(1),
		500,
		lpShare,
		gasCost,
		decimal.NewFromInt(3000),
		decimal.NewFromFloat(0.5),
	)

	assert.True(t, net.LessThan(decimal.Zero))
}

func TestIsProfitable_UsesHigherOfGlobalAndPoolFloor(t *testing.T) {
	net := decimal.NewFromFloat(15)

	assert.True(t, IsProfitable(net, 10, nil))
	assert.False(t, IsProfitable(net, 10, floatPtr(20)))
	assert.True(t, IsProfitable(net, 10, floatPtr(10)))
}

func floatPtr(f float64) *float64 { return &f }
