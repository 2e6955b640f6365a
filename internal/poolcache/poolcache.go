// Package poolcache implements component A: a short-TTL, singleflight-
// coalesced cache of on-chain pool state, fronting the RPC calls
// blackholedex's Blackhole.GetAMMState made directly against a
// ContractClient every time a caller needed current price/tick/liquidity.
package poolcache

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/singleflight"

	"github.com/jitbot/jitliquidity/internal/contractclient"
	"github.com/jitbot/jitliquidity/internal/errs"
	"github.com/jitbot/jitliquidity/internal/logging"
	"github.com/jitbot/jitliquidity/jit"
)

// DefaultTTL is the pool-state staleness window (spec §4.A): a cached
// snapshot older than this is refetched rather than served.
const DefaultTTL = time.Second

// DefaultDecimalsTTL is how long a token's decimals are cached once
// fetched; decimals essentially never change, so this is a much longer
// window than pool-state TTL.
const DefaultDecimalsTTL = time.Hour

// DefaultDecimals is served (with a logged warning) when an ERC20's
// decimals() call fails or reverts, matching the teacher's
// better-degraded-than-dead posture around optional on-chain reads.
const DefaultDecimals = uint8(18)

// Fetcher reads a pool's live state from chain. Production wiring
// supplies a ContractClient bound to the pool's ABI; tests supply a
// stub.
type Fetcher interface {
	FetchState(ctx context.Context, pool common.Address) (*jit.PoolState, error)
	FetchDecimals(ctx context.Context, token common.Address) (uint8, error)
}

type decimalsEntry struct {
	decimals  uint8
	fetchedAt time.Time
}

// Cache is the component A pool-state cache: per-pool TTL, single-flight
// request coalescing, and a longer-lived token-decimals side cache.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration

	mu     sync.RWMutex
	states map[common.Address]*jit.PoolState

	decMu    sync.RWMutex
	decimals map[common.Address]decimalsEntry

	group singleflight.Group

	logger *logging.Logger
}

// New builds a Cache with DefaultTTL.
func New(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher:  fetcher,
		ttl:      DefaultTTL,
		states:   make(map[common.Address]*jit.PoolState),
		decimals: make(map[common.Address]decimalsEntry),
		logger:   logging.New("poolcache"),
	}
}

// Get returns pool's current state, serving a cached snapshot if it is
// younger than the TTL, else coalescing concurrent refetches for the same
// pool into a single RPC round trip.
func (c *Cache) Get(ctx context.Context, pool common.Address) (*jit.PoolState, error) {
	if cached := c.cached(pool); cached != nil {
		return cached, nil
	}

	key := pool.Hex()
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		state, err := c.fetcher.FetchState(ctx, pool)
		if err != nil {
			return nil, errs.RPC("pool_state_fetch_failed", err)
		}
		c.mu.Lock()
		c.states[pool] = state
		c.mu.Unlock()
		return state, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*jit.PoolState), nil
}

// GetMany fetches several pools concurrently, returning a partial result
// set: a pool whose fetch failed is simply absent, since one bad pool
// must never block evaluation of the others (spec §9).
func (c *Cache) GetMany(ctx context.Context, pools []common.Address) map[common.Address]*jit.PoolState {
	out := make(map[common.Address]*jit.PoolState, len(pools))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, p := range pools {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := c.Get(ctx, p)
			if err != nil {
				c.logger.Warnf("pool %s: %v", p.Hex(), err)
				return
			}
			mu.Lock()
			out[p] = state
			mu.Unlock()
		}()
	}
	wg.Wait()
	return out
}

// Invalidate drops the cached state for pool, forcing the next Get to
// refetch. A zero address invalidates every pool.
func (c *Cache) Invalidate(pool common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pool == (common.Address{}) {
		c.states = make(map[common.Address]*jit.PoolState)
		return
	}
	delete(c.states, pool)
}

func (c *Cache) cached(pool common.Address) *jit.PoolState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.states[pool]
	if !ok || state.Stale(time.Now(), c.ttl) {
		return nil
	}
	return state
}

// Decimals returns token's decimals, using the 1h cache and falling back
// to DefaultDecimals with a logged warning if the on-chain read fails.
func (c *Cache) Decimals(ctx context.Context, token common.Address) uint8 {
	c.decMu.RLock()
	entry, ok := c.decimals[token]
	c.decMu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < DefaultDecimalsTTL {
		return entry.decimals
	}

	dec, err := c.fetcher.FetchDecimals(ctx, token)
	if err != nil {
		c.logger.Warnf("decimals(%s) failed, defaulting to %d: %v", token.Hex(), DefaultDecimals, err)
		dec = DefaultDecimals
	}

	c.decMu.Lock()
	c.decimals[token] = decimalsEntry{decimals: dec, fetchedAt: time.Now()}
	c.decMu.Unlock()
	return dec
}

// contractClientFetcher adapts a contractclient.ContractClient per pool
// (and per ERC20 token) into the Fetcher interface, the production
// wiring path.
type contractClientFetcher struct {
	pools  map[common.Address]*contractclient.ContractClient
	tokens map[common.Address]*contractclient.ContractClient
}

// NewContractClientFetcher builds a Fetcher backed by real
// ContractClients, one per pool address (bound to an Algebra/UniswapV3
// pool ABI) and one per ERC20 token address (bound to an ERC20 ABI).
func NewContractClientFetcher(pools, tokens map[common.Address]*contractclient.ContractClient) Fetcher {
	return &contractClientFetcher{pools: pools, tokens: tokens}
}

func (f *contractClientFetcher) FetchState(ctx context.Context, pool common.Address) (*jit.PoolState, error) {
	cc, ok := f.pools[pool]
	if !ok {
		return nil, fmt.Errorf("pool %s not configured", pool.Hex())
	}
	out, err := cc.Call(nil, "globalState")
	if err != nil {
		return nil, err
	}
	return parseGlobalState(pool, out)
}

// parseGlobalState maps an Algebra-style globalState() return tuple
// (sqrtPriceX96, tick, lastFee, pluginConfig, activeLiquidity, nextTick,
// previousTick) onto jit.PoolState, mirroring the shape blackholedex's
// AMMState carried.
func parseGlobalState(pool common.Address, out []interface{}) (*jit.PoolState, error) {
	if len(out) < 5 {
		return nil, fmt.Errorf("unexpected globalState() output shape: %d fields", len(out))
	}
	sqrtPrice, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected sqrtPriceX96 type %T", out[0])
	}
	tick, ok := out[1].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected tick type %T", out[1])
	}
	liquidity, ok := out[4].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected activeLiquidity type %T", out[4])
	}

	return &jit.PoolState{
		Pool:         pool,
		SqrtPriceX96: sqrtPrice,
		Tick:         int32(tick.Int64()),
		Liquidity:    liquidity,
		FetchedAt:    time.Now(),
	}, nil
}

func (f *contractClientFetcher) FetchDecimals(ctx context.Context, token common.Address) (uint8, error) {
	cc, ok := f.tokens[token]
	if !ok {
		return 0, fmt.Errorf("token %s not configured", token.Hex())
	}
	out, err := cc.Call(nil, "decimals")
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("unexpected decimals() output shape")
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals() output type %T", out[0])
	}
	return d, nil
}
