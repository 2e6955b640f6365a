// Package evaluator implements component E: the gated pipeline that
// turns a decoded candidate swap into a scored, range-selected
// jit.JitOpportunity, rejecting early and cheaply wherever possible
// before reaching for the expensive fork-replay step.
package evaluator

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/jitbot/jitliquidity/internal/errs"
	"github.com/jitbot/jitliquidity/internal/logging"
	"github.com/jitbot/jitliquidity/internal/oracle"
	"github.com/jitbot/jitliquidity/internal/profitmath"
	"github.com/jitbot/jitliquidity/jit"
)

// PoolStateSource is the subset of poolcache.Cache the evaluator needs.
type PoolStateSource interface {
	Get(ctx context.Context, pool common.Address) (*jit.PoolState, error)
}

// PriceSource is the subset of oracle.PriceOracle the evaluator needs.
type PriceSource interface {
	PriceUSD(ctx context.Context, token common.Address) (decimal.Decimal, error)
}

// Simulator replays a candidate bundle against a forked view of current
// state, the expensive final gate before a candidate is trusted with
// real capital. A nil Simulator degrades the evaluator to
// jit.ConfidenceMedium decisions made from fast math alone.
type Simulator interface {
	Simulate(ctx context.Context, swap *jit.PendingSwap, liquidity *big.Int, r jit.TickRange) (profitUSD decimal.Decimal, reverted bool, err error)
}

// Config holds the evaluator's tunables, sourced from config.Config.
type Config struct {
	GlobalMinProfitUSD float64
	RiskBufferUSD      float64
	DefaultRangeWidth  int
	GasConstants       profitmath.GasConstants
}

// Evaluator runs the fast-profit -> gas-cap -> fast-simulation ->
// fork-replay gate chain.
type Evaluator struct {
	states    PoolStateSource
	prices    PriceSource
	gas       *oracle.GasOracle
	sim       Simulator
	cfg       Config
	logger    *logging.Logger
}

// New builds an Evaluator. sim may be nil (fork replay unavailable);
// every produced opportunity is then capped at jit.ConfidenceMedium.
func New(states PoolStateSource, prices PriceSource, gas *oracle.GasOracle, sim Simulator, cfg Config) *Evaluator {
	return &Evaluator{states: states, prices: prices, gas: gas, sim: sim, cfg: cfg, logger: logging.New("evaluator")}
}

// Evaluate runs swap through the full gate chain against pool's current
// descriptor, returning a JitOpportunity whose Profitable/Stage/Reason
// fields record where it landed even on rejection. A rejection with no
// underlying cause (e.g. below the profit floor) returns a nil error; one
// caused by a failure (pool state, gas price, prices, simulation) returns
// the opportunity together with a pool-isolable errs.Error.
func (e *Evaluator) Evaluate(ctx context.Context, swap *jit.PendingSwap, pool *jit.PoolDescriptor, poolFloor *float64) (*jit.JitOpportunity, error) {
	opp := &jit.JitOpportunity{
		TraceID:     fmt.Sprintf("%s-%d", swap.CandidateID, time.Now().UnixNano()),
		CandidateID: swap.CandidateID,
		Pool:        pool.Address,
		TxHash:      swap.TxHash,
		Stage:       jit.StageDetected,
		Confidence:  jit.ConfidenceMedium,
		Swap:        swap,
		DetectedAt:  time.Now(),
	}

	state, err := e.states.Get(ctx, pool.Address)
	if err != nil {
		return e.reject(opp, "pool_state_unavailable", err)
	}

	gasPrice, err := e.gas.CurrentGasPrice(ctx)
	if err != nil {
		return e.reject(opp, "gas_price_unavailable", err)
	}
	if e.gas.ExceedsCap(gasPrice) {
		return e.reject(opp, "gas_price_exceeds_cap", nil)
	}
	opp.GasPriceWei = gasPrice

	r := profitmath.OptimalRange(state.Tick, pool.TickSpacing, e.cfg.DefaultRangeWidth)
	opp.Range = r

	inTokenPrice, err := e.prices.PriceUSD(ctx, swap.TokenIn)
	if err != nil {
		return e.reject(opp, "price_unavailable", err)
	}
	nativePrice, err := e.prices.PriceUSD(ctx, common.Address{})
	if err != nil {
		nativePrice = decimal.NewFromInt(0)
	}

	decimals := decimalsOrDefault(pool, swap.TokenIn)
	gasCost := profitmath.GasCostWei(profitmath.EstimateBundleGas(e.cfg.GasConstants), gasPrice)

	a0, a1, liquidity := profitmath.ComputeAmounts(state.SqrtPriceX96, int(state.Tick), int(r.TickLower), int(r.TickUpper), swap.AmountIn, swap.AmountIn)
	_ = a0
	_ = a1
	opp.Liquidity = liquidity

	share := profitmath.LPShare(liquidity, state.Liquidity)
	fastProfit := profitmath.FastProfit(swap.AmountIn, decimals, inTokenPrice, uint32(pool.Fee), share, gasCost, nativePrice, decimal.NewFromFloat(e.cfg.RiskBufferUSD))

	if !profitmath.IsProfitable(fastProfit, e.cfg.GlobalMinProfitUSD, poolFloor) {
		return e.reject(opp, "below_profit_floor", nil)
	}

	opp.EstimatedProfitUSD, _ = fastProfit.Float64()
	opp.Stage = jit.StageSimulated

	if e.sim == nil {
		opp.Profitable = true
		opp.Reason = "fast_math_only"
		return opp, nil
	}

	simProfit, reverted, err := e.sim.Simulate(ctx, swap, liquidity, r)
	if err != nil {
		return e.reject(opp, "simulation_failed", err)
	}
	if reverted {
		return e.reject(opp, "simulation_reverted", nil)
	}
	if !profitmath.IsProfitable(simProfit, e.cfg.GlobalMinProfitUSD, poolFloor) {
		return e.reject(opp, "simulation_below_profit_floor", nil)
	}

	opp.EstimatedProfitUSD, _ = simProfit.Float64()
	opp.Stage = jit.StageValidated
	opp.Confidence = jit.ConfidenceHigh
	opp.Profitable = true
	opp.Reason = "fork_validated"
	return opp, nil
}

func (e *Evaluator) reject(opp *jit.JitOpportunity, reason string, cause error) (*jit.JitOpportunity, error) {
	opp.Stage = jit.StageFailed
	opp.Profitable = false
	opp.Reason = reason
	if cause != nil {
		opp.ReasonDetail = cause.Error()
	}
	if cause != nil {
		e.logger.Infof("rejected %s: %s: %v", opp.CandidateID, reason, cause)
		return opp, errs.Isolable(reason, cause)
	}
	e.logger.Infof("rejected %s: %s", opp.CandidateID, reason)
	return opp, nil
}

func decimalsOrDefault(pool *jit.PoolDescriptor, token common.Address) uint8 {
	if token == pool.Token0 {
		return pool.Decimals0
	}
	if token == pool.Token1 {
		return pool.Decimals1
	}
	return 18
}
