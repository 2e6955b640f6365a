package profitmath

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitbot/jitliquidity/jit"
)

func TestTickToSqrtPriceX96_ZeroTickIsUnity(t *testing.T) {
	got := TickToSqrtPriceX96(0)
	require.NotNil(t, got)
	assert.Equal(t, q96.String(), got.String())
}

func TestTickToSqrtPriceX96_Monotonic(t *testing.T) {
	ticks := []int{-200000, -1000, -1, 0, 1, 1000, 200000}
	var prev = TickToSqrtPriceX96(ticks[0])
	for _, tick := range ticks[1:] {
		cur := TickToSqrtPriceX96(tick)
		assert.True(t, cur.Cmp(prev) > 0, "sqrt price must increase with tick: tick=%d", tick)
		prev = cur
	}
}

func TestTickToSqrtPriceX96_NegationIsReciprocal(t *testing.T) {
	// sqrtPrice(tick) * sqrtPrice(-tick) should be ~= 2^192 (i.e. 1.0 in
	// Q96*Q96 terms), within integer-truncation tolerance.
	pos := TickToSqrtPriceX96(5000)
	neg := TickToSqrtPriceX96(-5000)
	product := new(big.Int).Mul(pos, neg)
	q192 := new(big.Int).Lsh(big.NewInt(1), 192)

	diff := new(big.Int).Sub(product, q192)
	diff.Abs(diff)

	tolerance := new(big.Int).Rsh(q192, 40) // ~2^-40 relative tolerance
	assert.True(t, diff.Cmp(tolerance) < 0, "product should be close to 2^192")
}

func TestSqrtPriceToPrice_RoundTripsWithTick(t *testing.T) {
	for _, tick := range []int{-100000, -1, 0, 1, 100000} {
		sp := TickToSqrtPriceX96(tick)
		price := SqrtPriceToPrice(sp)
		f, _ := price.Float64()
		assert.Greater(t, f, 0.0)
	}
}

func TestOptimalRange_DefaultWidth(t *testing.T) {
	r := OptimalRange(1234, 60, 0)
	assert.Equal(t, int32(600), r.TickLower) // 1234-10*60 = 634, floor-aligned to 60
	assert.True(t, r.TickLower%60 == 0)
	assert.True(t, r.TickUpper%60 == 0)
	assert.True(t, r.TickLower < r.TickUpper)
}

func TestOptimalRange_ClampsToTickBounds(t *testing.T) {
	r := OptimalRange(int32(jit.MinTick+10), 60, 100000)
	assert.True(t, r.TickLower >= int32(jit.MinTick))
}

func TestCalculateTickBounds_MatchesOptimalRange(t *testing.T) {
	lower, upper, err := CalculateTickBounds(500, 5, 10)
	require.NoError(t, err)
	r := OptimalRange(500, 10, 5)
	assert.Equal(t, r.TickLower, lower)
	assert.Equal(t, r.TickUpper, upper)
}
