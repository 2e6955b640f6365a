package evaluator

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitbot/jitliquidity/internal/oracle"
	"github.com/jitbot/jitliquidity/internal/profitmath"
	"github.com/jitbot/jitliquidity/jit"
)

type stubStates struct {
	state *jit.PoolState
	err   error
}

func (s *stubStates) Get(ctx context.Context, pool common.Address) (*jit.PoolState, error) {
	return s.state, s.err
}

type stubPrices struct {
	price decimal.Decimal
	err   error
}

func (s *stubPrices) PriceUSD(ctx context.Context, token common.Address) (decimal.Decimal, error) {
	return s.price, s.err
}

type stubGasSource struct{ price *big.Int }

func (s *stubGasSource) SuggestGasPrice(ctx context.Context) (*big.Int, error) { return s.price, nil }

func testPool() *jit.PoolDescriptor {
	return &jit.PoolDescriptor{
		Address:     common.HexToAddress("0xpool"),
		Token0:      common.HexToAddress("0x1"),
		Token1:      common.HexToAddress("0x2"),
		Fee:         jit.FeeTier3000,
		TickSpacing: 60,
		Decimals0:   6,
		Decimals1:   18,
	}
}

func testSwap(pool *jit.PoolDescriptor, amountIn *big.Int) *jit.PendingSwap {
	return &jit.PendingSwap{
		CandidateID: "cand-1",
		TxHash:      common.HexToHash("0xabc"),
		Pool:        pool.Address,
		TokenIn:     pool.Token0,
		TokenOut:    pool.Token1,
		AmountIn:    amountIn,
		Fee:         pool.Fee,
	}
}

func newEval(states *stubStates, prices *stubPrices) *Evaluator {
	gas := oracle.NewGasOracle(&stubGasSource{price: big.NewInt(20_000_000_000)}, 100)
	cfg := Config{GlobalMinProfitUSD: 10, RiskBufferUSD: 0.5, DefaultRangeWidth: 10, GasConstants: profitmath.DefaultGasConstants}
	return New(states, prices, gas, nil, cfg)
}

func TestEvaluate_RejectsOnPoolStateError(t *testing.T) {
	e := newEval(&stubStates{err: fmt.Errorf("rpc down")}, &stubPrices{})
	pool := testPool()
	opp, err := e.Evaluate(context.Background(), testSwap(pool, big.NewInt(1)), pool, nil)
	require.Error(t, err)
	assert.Equal(t, jit.StageFailed, opp.Stage)
	assert.Equal(t, "pool_state_unavailable", opp.Reason)
}

func TestEvaluate_RejectsBelowProfitFloor(t *testing.T) {
	states := &stubStates{state: &jit.PoolState{
		Pool: testPool().Address, SqrtPriceX96: profitmath.TickToSqrtPriceX96(0), Tick: 0, Liquidity: big.NewInt(1_000_000_000),
	}}
	prices := &stubPrices{price: decimal.NewFromInt(1)}
	e := newEval(states, prices)
	pool := testPool()

	opp, err := e.Evaluate(context.Background(), testSwap(pool, big.NewInt(1_000_000)), pool, nil)
	require.NoError(t, err)
	assert.False(t, opp.Profitable)
	assert.Equal(t, "below_profit_floor", opp.Reason)
}

func TestEvaluate_AcceptsProfitableSwap_FastMathOnly(t *testing.T) {
	states := &stubStates{state: &jit.PoolState{
		Pool: testPool().Address, SqrtPriceX96: profitmath.TickToSqrtPriceX96(0), Tick: 0, Liquidity: big.NewInt(1_000_000_000),
	}}
	prices := &stubPrices{price: decimal.NewFromInt(1)}
	e := newEval(states, prices)
	pool := testPool()

	swap := testSwap(pool, big.NewInt(0).Mul(big.NewInt(5_000_000), big.NewInt(1_000_000)))
	opp, err := e.Evaluate(context.Background(), swap, pool, nil)
	require.NoError(t, err)
	assert.True(t, opp.Profitable)
	assert.Equal(t, jit.ConfidenceMedium, opp.Confidence)
	assert.Equal(t, "fast_math_only", opp.Reason)
}

func TestEvaluate_RejectsWhenGasExceedsCap(t *testing.T) {
	states := &stubStates{state: &jit.PoolState{SqrtPriceX96: profitmath.TickToSqrtPriceX96(0), Liquidity: big.NewInt(1)}}
	prices := &stubPrices{price: decimal.NewFromInt(1)}
	gas := oracle.NewGasOracle(&stubGasSource{price: big.NewInt(500_000_000_000)}, 100)
	cfg := Config{GlobalMinProfitUSD: 10, DefaultRangeWidth: 10, GasConstants: profitmath.DefaultGasConstants}
	e := New(states, prices, gas, nil, cfg)
	pool := testPool()

	opp, err := e.Evaluate(context.Background(), testSwap(pool, big.NewInt(1)), pool, nil)
	require.NoError(t, err)
	assert.Equal(t, "gas_price_exceeds_cap", opp.Reason)
}
