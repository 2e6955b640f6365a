// Package oracle implements component B: gas-price and token-price
// oracles with staleness TTLs and capped fallbacks, grounded on
// blackholedex's validateBalances/ensureApproval pattern of treating an
// on-chain read as untrustworthy past its freshness window.
package oracle

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/jitbot/jitliquidity/internal/errs"
	"github.com/jitbot/jitliquidity/internal/logging"
)

// DefaultGasTTL is how long a fetched gas price is trusted before being
// refetched.
const DefaultGasTTL = 5 * time.Second

// GasPriceSource fetches the current suggested gas price from chain.
type GasPriceSource interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// GasOracle serves the current gas price, capped at a configured
// ceiling (spec §6's MAX_GAS_GWEI), so a fee spike degrades into
// rejected candidates rather than an unbounded bid.
type GasOracle struct {
	source   GasPriceSource
	ttl      time.Duration
	capWei   *big.Int
	logger   *logging.Logger

	mu        sync.Mutex
	cached    *big.Int
	fetchedAt time.Time
}

// NewGasOracle builds a GasOracle capped at maxGasGwei.
func NewGasOracle(source GasPriceSource, maxGasGwei float64) *GasOracle {
	capWei := new(big.Int)
	big.NewFloat(maxGasGwei * 1e9).Int(capWei)
	return &GasOracle{
		source: source,
		ttl:    DefaultGasTTL,
		capWei: capWei,
		logger: logging.New("oracle.gas"),
	}
}

// CurrentGasPrice returns the current gas price in wei, refetching once
// the cached value exceeds the TTL, and clamped to the configured cap.
func (g *GasOracle) CurrentGasPrice(ctx context.Context) (*big.Int, error) {
	g.mu.Lock()
	if g.cached != nil && time.Since(g.fetchedAt) < g.ttl {
		cached := g.cached
		g.mu.Unlock()
		return g.Cap(cached), nil
	}
	g.mu.Unlock()

	price, err := g.source.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errs.RPC("gas_price_fetch_failed", err)
	}

	g.mu.Lock()
	g.cached = price
	g.fetchedAt = time.Now()
	g.mu.Unlock()

	return g.Cap(price), nil
}

// Cap clamps price to the configured gas-price ceiling.
func (g *GasOracle) Cap(price *big.Int) *big.Int {
	if price.Cmp(g.capWei) > 0 {
		return g.capWei
	}
	return price
}

// ExceedsCap reports whether price is above the configured ceiling,
// before clamping — the evaluator uses this to reject a candidate rather
// than silently bid less than the market.
func (g *GasOracle) ExceedsCap(price *big.Int) bool {
	return price.Cmp(g.capWei) > 0
}
