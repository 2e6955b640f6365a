package coordinator

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/jitbot/jitliquidity/jit"
)

func testConfig() Config {
	return Config{MaxBundlesPerBlock: 1, PoolMaxFailures: 3, PoolCooldown: 50 * time.Millisecond}
}

func TestCoordinator_RecordFailure_EntersCooldownAfterMax(t *testing.T) {
	c := New(testConfig())
	pool := common.HexToAddress("0x1")

	assert.True(t, c.Admit(pool))
	c.RecordFailure(pool)
	c.RecordFailure(pool)
	assert.True(t, c.Admit(pool), "below threshold, still admitted")
	c.RecordFailure(pool)
	assert.False(t, c.Admit(pool), "at threshold, should be in cooldown")
}

func TestCoordinator_Cooldown_ExpiresAfterWindow(t *testing.T) {
	c := New(testConfig())
	pool := common.HexToAddress("0x1")
	for i := 0; i < 3; i++ {
		c.RecordFailure(pool)
	}
	assert.False(t, c.Admit(pool))
	time.Sleep(60 * time.Millisecond)
	assert.True(t, c.Admit(pool))
}

func TestCoordinator_RecordSuccess_ResetsFailureCount(t *testing.T) {
	c := New(testConfig())
	pool := common.HexToAddress("0x1")
	c.RecordFailure(pool)
	c.RecordFailure(pool)
	c.RecordSuccess(pool)
	c.RecordFailure(pool)
	c.RecordFailure(pool)
	assert.True(t, c.Admit(pool), "counter reset by success, two more failures shouldn't trip cooldown")
}

func TestCoordinator_DrainBlock_RanksByProfitDescending(t *testing.T) {
	c := New(Config{MaxBundlesPerBlock: 10, PoolMaxFailures: 3, PoolCooldown: time.Minute})
	pool1 := common.HexToAddress("0x1")
	pool2 := common.HexToAddress("0x2")

	c.Submit(&jit.JitOpportunity{Pool: pool1, Profitable: true, EstimatedProfitUSD: 10, TargetBlock: 100})
	c.Submit(&jit.JitOpportunity{Pool: pool2, Profitable: true, EstimatedProfitUSD: 50, TargetBlock: 100})

	winners := c.DrainBlock(100)
	assert.Len(t, winners, 2)
	assert.Equal(t, pool2, winners[0].Pool)
	assert.Equal(t, pool1, winners[1].Pool)
}

func TestCoordinator_DrainBlock_CapsAtMaxBundlesPerBlock(t *testing.T) {
	c := New(Config{MaxBundlesPerBlock: 1, PoolMaxFailures: 3, PoolCooldown: time.Minute})
	c.Submit(&jit.JitOpportunity{Pool: common.HexToAddress("0x1"), Profitable: true, EstimatedProfitUSD: 10, TargetBlock: 100})
	c.Submit(&jit.JitOpportunity{Pool: common.HexToAddress("0x2"), Profitable: true, EstimatedProfitUSD: 50, TargetBlock: 100})

	winners := c.DrainBlock(100)
	assert.Len(t, winners, 1)
	assert.EqualValues(t, 50, winners[0].EstimatedProfitUSD)
}

func TestCoordinator_DrainBlock_TiebreaksByPoolThenTxHashAscending(t *testing.T) {
	c := New(Config{MaxBundlesPerBlock: 10, PoolMaxFailures: 3, PoolCooldown: time.Minute})
	poolLow := common.HexToAddress("0x1")
	poolHigh := common.HexToAddress("0x2")

	// Equal profit, different pools: lower pool address wins the tie.
	c.Submit(&jit.JitOpportunity{Pool: poolHigh, Profitable: true, EstimatedProfitUSD: 10, TargetBlock: 100, TxHash: common.HexToHash("0xaa")})
	c.Submit(&jit.JitOpportunity{Pool: poolLow, Profitable: true, EstimatedProfitUSD: 10, TargetBlock: 100, TxHash: common.HexToHash("0xbb")})
	// Equal profit, equal pool: lower tx hash wins the tie.
	c.Submit(&jit.JitOpportunity{Pool: poolLow, Profitable: true, EstimatedProfitUSD: 10, TargetBlock: 100, TxHash: common.HexToHash("0x01")})

	winners := c.DrainBlock(100)
	assert.Len(t, winners, 3)
	assert.Equal(t, poolLow, winners[0].Pool)
	assert.Equal(t, common.HexToHash("0x01"), winners[0].TxHash)
	assert.Equal(t, poolLow, winners[1].Pool)
	assert.Equal(t, common.HexToHash("0xbb"), winners[1].TxHash)
	assert.Equal(t, poolHigh, winners[2].Pool)
}

func TestCoordinator_DrainBlock_OnlyDrainsTargetedBlock(t *testing.T) {
	c := New(Config{MaxBundlesPerBlock: 10, PoolMaxFailures: 3, PoolCooldown: time.Minute})
	c.Submit(&jit.JitOpportunity{Pool: common.HexToAddress("0x1"), Profitable: true, EstimatedProfitUSD: 10, TargetBlock: 100})
	c.Submit(&jit.JitOpportunity{Pool: common.HexToAddress("0x2"), Profitable: true, EstimatedProfitUSD: 50, TargetBlock: 101})

	assert.Len(t, c.DrainBlock(100), 1)
	assert.Empty(t, c.DrainBlock(100), "draining the same block twice returns nothing the second time")
	assert.Len(t, c.DrainBlock(101), 1)
}

func TestCoordinator_DrainBlock_GCsBuffersOlderThanRetention(t *testing.T) {
	c := New(Config{MaxBundlesPerBlock: 10, PoolMaxFailures: 3, PoolCooldown: time.Minute})
	c.Submit(&jit.JitOpportunity{Pool: common.HexToAddress("0x1"), Profitable: true, EstimatedProfitUSD: 10, TargetBlock: 100})

	// Draining far beyond block 100 should GC it rather than ever surface it.
	assert.Empty(t, c.DrainBlock(200))
	assert.Empty(t, c.DrainBlock(100), "block 100 was GC'd, never drained as a winner")
}

func TestCoordinator_Submit_DropsUnprofitable(t *testing.T) {
	c := New(testConfig())
	c.Submit(&jit.JitOpportunity{Pool: common.HexToAddress("0x1"), Profitable: false, TargetBlock: 1})
	assert.Empty(t, c.DrainBlock(1))
}

func TestCoordinator_Submit_DropsWhenPoolInCooldown(t *testing.T) {
	c := New(testConfig())
	pool := common.HexToAddress("0x1")
	for i := 0; i < 3; i++ {
		c.RecordFailure(pool)
	}
	c.Submit(&jit.JitOpportunity{Pool: pool, Profitable: true, EstimatedProfitUSD: 100, TargetBlock: 1})
	assert.Empty(t, c.DrainBlock(1))
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(time.Minute, 0.5)
	cb.RecordSuccess()
	cb.RecordError()
	assert.True(t, cb.Open())
}

func TestCircuitBreaker_AutoClosesAfterWindow(t *testing.T) {
	cb := NewCircuitBreaker(20*time.Millisecond, 0.1)
	cb.RecordError()
	assert.True(t, cb.Open())
	time.Sleep(30 * time.Millisecond)
	assert.False(t, cb.Open())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(time.Minute, 0.1)
	cb.RecordError()
	assert.True(t, cb.Open())
	cb.Reset()
	assert.False(t, cb.Open())
}
