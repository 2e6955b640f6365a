package profitmath

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiquidityForAmounts_InRange_PicksBindingSide(t *testing.T) {
	sqrtP := TickToSqrtPriceX96(0)
	l := LiquidityForAmounts(sqrtP, 0, -600, 600, big.NewInt(1_000_000_000), big.NewInt(1_000_000_000))
	assert.True(t, l.Sign() > 0)
}

func TestLiquidityForAmounts_BelowRange_UsesToken0Only(t *testing.T) {
	sqrtP := TickToSqrtPriceX96(-1000)
	l := LiquidityForAmounts(sqrtP, -1000, 0, 600, big.NewInt(1_000_000_000), big.NewInt(0))
	assert.True(t, l.Sign() > 0)

	// with amount0 = 0 the position should be starved of liquidity.
	lZero := LiquidityForAmounts(sqrtP, -1000, 0, 600, big.NewInt(0), big.NewInt(1_000_000_000))
	assert.Equal(t, int64(0), lZero.Int64())
}

func TestLiquidityForAmounts_AboveRange_UsesToken1Only(t *testing.T) {
	sqrtP := TickToSqrtPriceX96(1000)
	l := LiquidityForAmounts(sqrtP, 1000, -600, 0, big.NewInt(0), big.NewInt(1_000_000_000))
	assert.True(t, l.Sign() > 0)

	lZero := LiquidityForAmounts(sqrtP, 1000, -600, 0, big.NewInt(1_000_000_000), big.NewInt(0))
	assert.Equal(t, int64(0), lZero.Int64())
}

func TestComputeAmounts_RoundTripsWithAmountsForLiquidity(t *testing.T) {
	sqrtP := TickToSqrtPriceX96(42)
	a0Max := big.NewInt(5_000_000_000_000)
	a1Max := big.NewInt(5_000_000_000_000)

	a0, a1, l := ComputeAmounts(sqrtP, 42, -600, 600, a0Max, a1Max)
	require.True(t, l.Sign() > 0)
	assert.True(t, a0.Cmp(a0Max) <= 0)
	assert.True(t, a1.Cmp(a1Max) <= 0)

	a0Again, a1Again := AmountsForLiquidity(l, sqrtP, 42, -600, 600)
	assert.Equal(t, a0.String(), a0Again.String())
	assert.Equal(t, a1.String(), a1Again.String())
}

func TestCalculateTokenAmountsFromLiquidity_NoError(t *testing.T) {
	sqrtP := TickToSqrtPriceX96(42)
	_, l := big.NewInt(0), big.NewInt(1_000_000)
	a0, a1, err := CalculateTokenAmountsFromLiquidity(l, sqrtP, -600, 600)
	require.NoError(t, err)
	assert.NotNil(t, a0)
	assert.NotNil(t, a1)
}

func TestLPShare_ClampsToUnitInterval(t *testing.T) {
	s := LPShare(big.NewInt(200), big.NewInt(100))
	f, _ := s.Float64()
	assert.Equal(t, 1.0, f)

	s = LPShare(big.NewInt(0), big.NewInt(0))
	f, _ = s.Float64()
	assert.Equal(t, 0.0, f)

	s = LPShare(big.NewInt(25), big.NewInt(100))
	f, _ = s.Float64()
	assert.InDelta(t, 0.25, f, 1e-9)
}
