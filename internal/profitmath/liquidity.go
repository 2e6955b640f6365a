package profitmath

import "math/big"

// liquidity0 computes the liquidity supplied by amount0 of token0 between
// sqrtA and sqrtB (sqrtA < sqrtB), both Q96.
//
//	L = amount0 * sqrtA * sqrtB / (Q96 * (sqrtB - sqrtA))
func liquidity0(amount0, sqrtA, sqrtB *big.Int) *big.Int {
	if sqrtA.Cmp(sqrtB) == 0 {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(amount0, sqrtA)
	num.Mul(num, sqrtB)
	denom := new(big.Int).Sub(sqrtB, sqrtA)
	denom.Mul(denom, q96)
	if denom.Sign() == 0 {
		return big.NewInt(0)
	}
	return num.Div(num, denom)
}

// liquidity1 computes the liquidity supplied by amount1 of token1 between
// sqrtA and sqrtB.
//
//	L = amount1 * Q96 / (sqrtB - sqrtA)
func liquidity1(amount1, sqrtA, sqrtB *big.Int) *big.Int {
	denom := new(big.Int).Sub(sqrtB, sqrtA)
	if denom.Sign() == 0 {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(amount1, q96)
	return num.Div(num, denom)
}

// amount0ForLiquidity returns the amount0 locked by liquidity L between
// sqrtA and sqrtB.
//
//	amount0 = L * Q96 * (sqrtB - sqrtA) / (sqrtA * sqrtB)
func amount0ForLiquidity(l, sqrtA, sqrtB *big.Int) *big.Int {
	denom := new(big.Int).Mul(sqrtA, sqrtB)
	if denom.Sign() == 0 {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(l, q96)
	num.Mul(num, new(big.Int).Sub(sqrtB, sqrtA))
	return num.Div(num, denom)
}

// amount1ForLiquidity returns the amount1 locked by liquidity L between
// sqrtA and sqrtB.
//
//	amount1 = L * (sqrtB - sqrtA) / Q96
func amount1ForLiquidity(l, sqrtA, sqrtB *big.Int) *big.Int {
	num := new(big.Int).Mul(l, new(big.Int).Sub(sqrtB, sqrtA))
	return num.Div(num, q96)
}

func sortSqrt(a, b *big.Int) (*big.Int, *big.Int) {
	if a.Cmp(b) <= 0 {
		return a, b
	}
	return b, a
}

// LiquidityForAmounts is the standard concentrated-liquidity formula:
// given a proposed [tickLower, tickUpper] range, the current tick's sqrt
// price, and the available amount0/amount1 budget, returns the maximum L
// that can be minted without exceeding either budget.
func LiquidityForAmounts(sqrtPriceX96 *big.Int, currentTick, tickLower, tickUpper int, amount0, amount1 *big.Int) *big.Int {
	sqrtA := TickToSqrtPriceX96(tickLower)
	sqrtB := TickToSqrtPriceX96(tickUpper)
	sqrtA, sqrtB = sortSqrt(sqrtA, sqrtB)
	sqrtP := sqrtPriceX96

	switch {
	case currentTick < tickLower:
		return liquidity0(amount0, sqrtA, sqrtB)
	case currentTick >= tickUpper:
		return liquidity1(amount1, sqrtA, sqrtB)
	default:
		l0 := liquidity0(amount0, sqrtP, sqrtB)
		l1 := liquidity1(amount1, sqrtA, sqrtP)
		if l0.Cmp(l1) < 0 {
			return l0
		}
		return l1
	}
}

// AmountsForLiquidity returns the (amount0, amount1) locked by liquidity L
// in [tickLower, tickUpper] given the current tick's sqrt price.
func AmountsForLiquidity(l *big.Int, sqrtPriceX96 *big.Int, currentTick, tickLower, tickUpper int) (*big.Int, *big.Int) {
	sqrtA := TickToSqrtPriceX96(tickLower)
	sqrtB := TickToSqrtPriceX96(tickUpper)
	sqrtA, sqrtB = sortSqrt(sqrtA, sqrtB)
	sqrtP := sqrtPriceX96

	switch {
	case currentTick < tickLower:
		return amount0ForLiquidity(l, sqrtA, sqrtB), big.NewInt(0)
	case currentTick >= tickUpper:
		return big.NewInt(0), amount1ForLiquidity(l, sqrtA, sqrtB)
	default:
		return amount0ForLiquidity(l, sqrtP, sqrtB), amount1ForLiquidity(l, sqrtA, sqrtP)
	}
}

// ComputeAmounts mirrors blackholedex's util.ComputeAmounts contract: given
// a max token0/token1 budget, derive the liquidity the pool will actually
// accept and the (<=budget) amounts that liquidity consumes.
func ComputeAmounts(sqrtPriceX96 *big.Int, tick, tickLower, tickUpper int, amount0Max, amount1Max *big.Int) (*big.Int, *big.Int, *big.Int) {
	l := LiquidityForAmounts(sqrtPriceX96, tick, tickLower, tickUpper, amount0Max, amount1Max)
	a0, a1 := AmountsForLiquidity(l, sqrtPriceX96, tick, tickLower, tickUpper)
	return a0, a1, l
}

// CalculateTokenAmountsFromLiquidity mirrors blackholedex's
// util.CalculateTokenAmountsFromLiquidity(liquidity, sqrtPriceX96,
// tickLower, tickUpper) contract, used to reprice an existing position at
// a new pool price.
func CalculateTokenAmountsFromLiquidity(liquidity, sqrtPriceX96 *big.Int, tickLower, tickUpper int32) (*big.Int, *big.Int, error) {
	sqrtP := sqrtPriceX96
	tick := priceToApproxTick(sqrtP)
	a0, a1 := AmountsForLiquidity(liquidity, sqrtP, tick, int(tickLower), int(tickUpper))
	return a0, a1, nil
}

// priceToApproxTick recovers an approximate tick from a sqrt price by
// comparing it against the endpoint conversions; callers here only need
// it to pick which branch of AmountsForLiquidity applies; fine precision
// on the recovered tick itself is not required (the result depends only
// on which side of [tickLower, tickUpper] the price falls).
func priceToApproxTick(sqrtPriceX96 *big.Int) int {
	lo, hi := -887272, 887272
	for lo < hi {
		mid := (lo + hi) / 2
		if TickToSqrtPriceX96(mid).Cmp(sqrtPriceX96) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// LPShare returns ourL / totalLInRange, clamped to [0, 1].
func LPShare(ourL, totalLInRange *big.Int) *big.Float {
	if totalLInRange == nil || totalLInRange.Sign() <= 0 {
		return big.NewFloat(0)
	}
	ourF := new(big.Float).SetInt(ourL)
	totalF := new(big.Float).SetInt(totalLInRange)
	share := new(big.Float).Quo(ourF, totalF)
	if share.Cmp(big.NewFloat(1)) > 0 {
		return big.NewFloat(1)
	}
	if share.Sign() < 0 {
		return big.NewFloat(0)
	}
	return share
}
