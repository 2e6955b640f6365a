package oracle

import (
	"context"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGasSource struct {
	calls int32
	price *big.Int
}

func (s *stubGasSource) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.price, nil
}

func TestGasOracle_CapsAboveCeiling(t *testing.T) {
	src := &stubGasSource{price: big.NewInt(500_000_000_000)} // 500 gwei
	o := NewGasOracle(src, 100)                                // cap 100 gwei

	price, err := o.CurrentGasPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, o.capWei.String(), price.String())
}

func TestGasOracle_ServesFromCacheWithinTTL(t *testing.T) {
	src := &stubGasSource{price: big.NewInt(20_000_000_000)}
	o := NewGasOracle(src, 100)

	_, err := o.CurrentGasPrice(context.Background())
	require.NoError(t, err)
	_, err = o.CurrentGasPrice(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 1, src.calls)
}

func TestGasOracle_RefetchesAfterTTL(t *testing.T) {
	src := &stubGasSource{price: big.NewInt(20_000_000_000)}
	o := NewGasOracle(src, 100)
	o.ttl = time.Millisecond

	_, _ = o.CurrentGasPrice(context.Background())
	time.Sleep(5 * time.Millisecond)
	_, _ = o.CurrentGasPrice(context.Background())

	assert.EqualValues(t, 2, src.calls)
}

func TestGasOracle_ExceedsCap(t *testing.T) {
	o := NewGasOracle(&stubGasSource{}, 100)
	assert.True(t, o.ExceedsCap(big.NewInt(200_000_000_000)))
	assert.False(t, o.ExceedsCap(big.NewInt(50_000_000_000)))
}
