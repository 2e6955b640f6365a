// Package coordinator implements component F: per-block opportunity
// ranking, winner selection, and per-pool health/isolation state,
// generalizing blackholedex's strategy_api.go CircuitBreaker/
// StabilityWindow machinery from one strategy's global halt condition
// into a per-pool cooldown the rest of the fleet keeps running through.
package coordinator

import (
	"bytes"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/jitbot/jitliquidity/internal/logging"
	"github.com/jitbot/jitliquidity/jit"
)

// retentionBlocks is how many blocks behind the current drain a buffered
// opportunity is kept before being garbage-collected as stale.
const retentionBlocks = 3

// Config holds the coordinator's tunables, sourced from config.Config.
type Config struct {
	MaxBundlesPerBlock int
	PoolMaxFailures    int
	PoolCooldown       time.Duration
}

// Coordinator buffers opportunities by target block, ranks them, and
// tracks per-pool health so a persistently failing pool is isolated
// without affecting any other pool.
type Coordinator struct {
	cfg    Config
	logger *logging.Logger

	mu      sync.Mutex
	health  map[common.Address]*jit.PoolHealth
	pending map[uint64][]*jit.JitOpportunity

	cb *CircuitBreaker
}

// New builds a Coordinator.
func New(cfg Config) *Coordinator {
	return &Coordinator{
		cfg:     cfg,
		logger:  logging.New("coordinator"),
		health:  make(map[common.Address]*jit.PoolHealth),
		pending: make(map[uint64][]*jit.JitOpportunity),
		cb:      NewCircuitBreaker(time.Minute, 0.5),
	}
}

// Admit reports whether pool is currently eligible to submit bundles:
// enabled and outside any active cooldown window.
func (c *Coordinator) Admit(pool common.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.healthLocked(pool)
	if !h.Enabled {
		return false
	}
	return time.Now().After(h.CooldownEndsAt)
}

// RecordFailure records an evaluation or submission failure for pool; a
// pool that accumulates PoolMaxFailures consecutive failures enters
// cooldown for PoolCooldown, after which it is retried automatically.
func (c *Coordinator) RecordFailure(pool common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.healthLocked(pool)
	h.ConsecutiveFailures++
	h.LastFailureAt = time.Now()
	if h.ConsecutiveFailures >= c.cfg.PoolMaxFailures {
		h.CooldownEndsAt = time.Now().Add(c.cfg.PoolCooldown)
		c.logger.Warnf("pool %s entering cooldown until %s after %d consecutive failures", pool.Hex(), h.CooldownEndsAt, h.ConsecutiveFailures)
	}
	c.cb.RecordError()
}

// RecordSuccess resets pool's consecutive-failure counter.
func (c *Coordinator) RecordSuccess(pool common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.healthLocked(pool)
	h.ConsecutiveFailures = 0
	c.cb.RecordSuccess()
}

// PoolFloor returns pool's per-pool profit-floor override, or nil when none
// is set (the caller then applies its global floor).
func (c *Coordinator) PoolFloor(pool common.Address) *float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthLocked(pool).MinProfitUSDOverride
}

func (c *Coordinator) healthLocked(pool common.Address) *jit.PoolHealth {
	h, ok := c.health[pool]
	if !ok {
		h = &jit.PoolHealth{Pool: pool, Enabled: true}
		c.health[pool] = h
	}
	return h
}

// Submit buffers an opportunity under its TargetBlock for that block's
// ranking round. Unprofitable or pool-halted opportunities are dropped
// here rather than carried forward.
func (c *Coordinator) Submit(opp *jit.JitOpportunity) {
	if !opp.Profitable {
		return
	}
	if !c.Admit(opp.Pool) {
		c.logger.Infof("dropping %s: pool %s is in cooldown", opp.CandidateID, opp.Pool.Hex())
		return
	}
	if c.cb.Open() {
		c.logger.Warnf("dropping %s: process-wide circuit breaker is open", opp.CandidateID)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[opp.TargetBlock] = append(c.pending[opp.TargetBlock], opp)
}

// rankLess orders a before b by profit descending, breaking ties by pool
// address ascending and then by tx hash ascending — the deterministic
// ordering a flat profit comparison leaves to sort's unspecified tie
// behavior.
func rankLess(a, b *jit.JitOpportunity) bool {
	if a.EstimatedProfitUSD != b.EstimatedProfitUSD {
		return a.EstimatedProfitUSD > b.EstimatedProfitUSD
	}
	if cmp := bytes.Compare(a.Pool.Bytes(), b.Pool.Bytes()); cmp != 0 {
		return cmp < 0
	}
	return bytes.Compare(a.TxHash.Bytes(), b.TxHash.Bytes()) < 0
}

// DrainBlock ranks and returns up to MaxBundlesPerBlock opportunities
// buffered for currentBlock, highest profit first with a deterministic
// tiebreak, clearing that block's buffer. Cross-pool ranking means two
// profitable pools never starve each other; only the global per-block
// cap limits throughput. Buffers for blocks older than
// currentBlock-retentionBlocks are garbage-collected in the same pass,
// since an opportunity sized for a block already behind the chain tip
// can never be drained otherwise.
func (c *Coordinator) DrainBlock(currentBlock uint64) []*jit.JitOpportunity {
	c.mu.Lock()
	defer c.mu.Unlock()

	opps := c.pending[currentBlock]
	delete(c.pending, currentBlock)

	for block := range c.pending {
		if block+retentionBlocks < currentBlock {
			c.logger.Infof("gc: dropping %d stale opportunities buffered for block %d", len(c.pending[block]), block)
			delete(c.pending, block)
		}
	}

	sort.SliceStable(opps, func(i, j int) bool {
		return rankLess(opps[i], opps[j])
	})

	n := c.cfg.MaxBundlesPerBlock
	if n <= 0 || n > len(opps) {
		n = len(opps)
	}
	winners := make([]*jit.JitOpportunity, n)
	copy(winners, opps[:n])
	return winners
}
