package poolcache

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitbot/jitliquidity/jit"
)

type stubFetcher struct {
	calls    int32
	decCalls int32
	fail     bool
}

func (s *stubFetcher) FetchState(ctx context.Context, pool common.Address) (*jit.PoolState, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.fail {
		return nil, fmt.Errorf("boom")
	}
	return &jit.PoolState{
		Pool:         pool,
		SqrtPriceX96: big.NewInt(1),
		Tick:         0,
		Liquidity:    big.NewInt(1),
		FetchedAt:    time.Now(),
	}, nil
}

func (s *stubFetcher) FetchDecimals(ctx context.Context, token common.Address) (uint8, error) {
	atomic.AddInt32(&s.decCalls, 1)
	if s.fail {
		return 0, fmt.Errorf("boom")
	}
	return 6, nil
}

func TestCache_Get_ServesFromCacheWithinTTL(t *testing.T) {
	f := &stubFetcher{}
	c := New(f)
	pool := common.HexToAddress("0x1")

	_, err := c.Get(context.Background(), pool)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), pool)
	require.NoError(t, err)

	assert.EqualValues(t, 1, f.calls, "second Get within TTL must not refetch")
}

func TestCache_Get_RefetchesAfterTTL(t *testing.T) {
	f := &stubFetcher{}
	c := New(f)
	c.ttl = time.Millisecond
	pool := common.HexToAddress("0x1")

	_, err := c.Get(context.Background(), pool)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = c.Get(context.Background(), pool)
	require.NoError(t, err)

	assert.EqualValues(t, 2, f.calls)
}

func TestCache_Invalidate_ForcesRefetch(t *testing.T) {
	f := &stubFetcher{}
	c := New(f)
	pool := common.HexToAddress("0x1")

	_, _ = c.Get(context.Background(), pool)
	c.Invalidate(pool)
	_, _ = c.Get(context.Background(), pool)

	assert.EqualValues(t, 2, f.calls)
}

func TestCache_GetMany_ReturnsStateForEveryPool(t *testing.T) {
	f := &stubFetcher{}
	c := New(f)
	pools := []common.Address{common.HexToAddress("0x1"), common.HexToAddress("0x2")}

	results := c.GetMany(context.Background(), pools)
	assert.Len(t, results, 2)
}

func TestCache_Decimals_FallsBackToDefaultOnError(t *testing.T) {
	f := &stubFetcher{fail: true}
	c := New(f)
	got := c.Decimals(context.Background(), common.HexToAddress("0x1"))
	assert.Equal(t, DefaultDecimals, got)
}

func TestCache_Decimals_CachesResult(t *testing.T) {
	f := &stubFetcher{}
	c := New(f)
	token := common.HexToAddress("0x1")

	_ = c.Decimals(context.Background(), token)
	_ = c.Decimals(context.Background(), token)

	assert.EqualValues(t, 1, f.decCalls)
}
