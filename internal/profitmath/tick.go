// Package profitmath implements component C: tick math, liquidity<->amount
// conversions, LP-share estimation, and the fast net-profit-in-USD
// computation, grounded on blackholedex's pkg/util tick-math contract
// (TickToSqrtPriceX96, ComputeAmounts, CalculateTokenAmountsFromLiquidity,
// CalculateTickBounds — the teacher's tests describe this exact surface,
// even though the pack did not retain the teacher's own implementation
// file to copy from).
package profitmath

import (
	"math/big"

	"github.com/jitbot/jitliquidity/jit"
)

// q96 is 2^96, the fixed-point scale sqrt prices are expressed in.
var q96 = new(big.Int).Lsh(big.NewInt(1), 96)

// precisionBits is the big.Float precision used for the tick<->price
// conversions. 256 bits comfortably exceeds the ~128 bits of entropy a
// uint160 sqrt price carries.
const precisionBits = 256

// tickBase is 1.0001, the per-tick price ratio.
func tickBase() *big.Float {
	f := new(big.Float).SetPrec(precisionBits)
	f.SetString("1.0001")
	return f
}

// TickToSqrtPriceX96 returns floor(sqrt(1.0001^tick) * 2^96), the Q96
// fixed-point sqrt price for a given tick, via exponentiation by squaring
// over big.Float for full-range precision.
func TickToSqrtPriceX96(tick int) *big.Int {
	price := powTickBase(tick)
	sqrtPrice := new(big.Float).SetPrec(precisionBits).Sqrt(price)

	scale := new(big.Float).SetPrec(precisionBits).SetInt(q96)
	scaled := new(big.Float).SetPrec(precisionBits).Mul(sqrtPrice, scale)

	out, _ := scaled.Int(nil)
	return out
}

// powTickBase computes 1.0001^tick (tick may be negative) by
// exponentiation by squaring.
func powTickBase(tick int) *big.Float {
	base := tickBase()
	neg := tick < 0
	n := tick
	if neg {
		n = -n
	}

	result := new(big.Float).SetPrec(precisionBits).SetInt64(1)
	b := new(big.Float).SetPrec(precisionBits).Copy(base)
	for n > 0 {
		if n&1 == 1 {
			result.Mul(result, b)
		}
		b.Mul(b, b)
		n >>= 1
	}
	if neg {
		one := new(big.Float).SetPrec(precisionBits).SetInt64(1)
		result.Quo(one, result)
	}
	return result
}

// SqrtPriceToPrice converts a Q96 sqrt price into the raw price ratio
// (token1 per token0, before decimal adjustment): price = (sqrtPriceX96 /
// 2^96)^2.
func SqrtPriceToPrice(sqrtPriceX96 *big.Int) *big.Float {
	sp := new(big.Float).SetPrec(precisionBits).SetInt(sqrtPriceX96)
	scale := new(big.Float).SetPrec(precisionBits).SetInt(q96)
	normalized := new(big.Float).SetPrec(precisionBits).Quo(sp, scale)
	return new(big.Float).SetPrec(precisionBits).Mul(normalized, normalized)
}

// alignFloor rounds tick down to the nearest multiple of spacing.
func alignFloor(tick, spacing int) int {
	if spacing <= 0 {
		return tick
	}
	q := tick / spacing
	if tick%spacing != 0 && tick < 0 {
		q--
	}
	return q * spacing
}

// alignCeil rounds tick up to the nearest multiple of spacing.
func alignCeil(tick, spacing int) int {
	if spacing <= 0 {
		return tick
	}
	q := tick / spacing
	if tick%spacing != 0 && tick > 0 {
		q++
	}
	return q * spacing
}

func clampTick(t int) int32 {
	if t < jit.MinTick {
		t = jit.MinTick
	}
	if t > jit.MaxTick {
		t = jit.MaxTick
	}
	return int32(t)
}

// OptimalRange returns the tick-spacing-aligned range
// [floor_align(current-width*spacing), ceil_align(current+width*spacing)],
// the default/override-width range construction of spec §4.C.
func OptimalRange(currentTick int32, tickSpacing int, widthInSpacings int) jit.TickRange {
	if widthInSpacings <= 0 {
		widthInSpacings = 10
	}
	span := widthInSpacings * tickSpacing
	lower := alignFloor(int(currentTick)-span, tickSpacing)
	upper := alignCeil(int(currentTick)+span, tickSpacing)
	if minAligned := alignCeil(jit.MinTick, tickSpacing); lower < minAligned {
		lower = minAligned
	}
	if maxAligned := alignFloor(jit.MaxTick, tickSpacing); upper > maxAligned {
		upper = maxAligned
	}
	if lower >= upper {
		upper = lower + tickSpacing
	}
	return jit.TickRange{TickLower: clampTick(lower), TickUpper: clampTick(upper)}
}

// CalculateTickBounds is OptimalRange's signature as blackholedex's own
// strategy runner calls it: center ± rangeWidth ticks of tickSpacing
// width, returned as plain ints for the teacher-style call sites that
// don't otherwise touch the jit package.
func CalculateTickBounds(currentTick int32, rangeWidth, tickSpacing int) (int32, int32, error) {
	r := OptimalRange(currentTick, tickSpacing, rangeWidth)
	return r.TickLower, r.TickUpper, nil
}
