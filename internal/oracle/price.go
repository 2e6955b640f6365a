package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/jitbot/jitliquidity/internal/errs"
	"github.com/jitbot/jitliquidity/internal/logging"
)

// DefaultPriceTTL is how long a fetched USD price is served before being
// refetched.
const DefaultPriceTTL = time.Minute

// DefaultStaleRejectAfter is the age past which a previously fetched price
// is no longer served when the live fetch fails, rather than risk pricing
// a bundle off a quote nobody has refreshed in an hour.
const DefaultStaleRejectAfter = time.Hour

// PriceSource fetches a token's USD price from an external feed (e.g. an
// on-chain TWAP oracle or off-chain price API).
type PriceSource interface {
	PriceUSD(ctx context.Context, token common.Address) (decimal.Decimal, error)
}

type priceEntry struct {
	price     decimal.Decimal
	fetchedAt time.Time
}

// PriceOracle serves USD prices for tokens with a TTL-driven refresh, a
// static fallback table for tokens the primary source can't quote, and a
// hard staleness cutoff beyond which a previously fetched price is no
// longer served. Fallback table prices carry no age and are not subject to
// that cutoff.
type PriceOracle struct {
	source   PriceSource
	fallback map[common.Address]decimal.Decimal
	logger   *logging.Logger

	mu      sync.RWMutex
	entries map[common.Address]priceEntry
}

// NewPriceOracle builds a PriceOracle with the given static fallback
// prices (e.g. a stablecoin pegged at 1.00).
func NewPriceOracle(source PriceSource, fallback map[common.Address]decimal.Decimal) *PriceOracle {
	if fallback == nil {
		fallback = map[common.Address]decimal.Decimal{}
	}
	return &PriceOracle{
		source:   source,
		fallback: fallback,
		logger:   logging.New("oracle.price"),
		entries:  make(map[common.Address]priceEntry),
	}
}

// PriceUSD returns token's current USD price, refreshing if the cached
// value has passed DefaultPriceTTL. If the live fetch fails it returns the
// static fallback price when the token has one; otherwise it serves the
// last fetched price if that is younger than DefaultStaleRejectAfter, and
// errors if not.
func (p *PriceOracle) PriceUSD(ctx context.Context, token common.Address) (decimal.Decimal, error) {
	if cached, ok := p.freshCached(token); ok {
		return cached, nil
	}

	price, err := p.source.PriceUSD(ctx, token)
	if err == nil {
		p.store(token, price)
		return price, nil
	}

	if fb, ok := p.fallback[token]; ok {
		p.logger.Warnf("live price fetch for %s failed, using fallback: %v", token.Hex(), err)
		return fb, nil
	}

	p.mu.RLock()
	entry, ok := p.entries[token]
	p.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < DefaultStaleRejectAfter {
		p.logger.Warnf("live price fetch for %s failed, serving stale cache: %v", token.Hex(), err)
		return entry.price, nil
	}

	return decimal.Zero, errs.RPC("price_fetch_failed_no_fallback", err)
}

// BatchPriceUSD fans out PriceUSD calls for multiple tokens concurrently,
// returning a partial result set: a token whose price cannot be
// determined is simply absent.
func (p *PriceOracle) BatchPriceUSD(ctx context.Context, tokens []common.Address) map[common.Address]decimal.Decimal {
	out := make(map[common.Address]decimal.Decimal, len(tokens))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, tok := range tokens {
		tok := tok
		wg.Add(1)
		go func() {
			defer wg.Done()
			price, err := p.PriceUSD(ctx, tok)
			if err != nil {
				p.logger.Warnf("dropping %s from batch: %v", tok.Hex(), err)
				return
			}
			mu.Lock()
			out[tok] = price
			mu.Unlock()
		}()
	}
	wg.Wait()
	return out
}

func (p *PriceOracle) freshCached(token common.Address) (decimal.Decimal, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.entries[token]
	if !ok || time.Since(entry.fetchedAt) >= DefaultPriceTTL {
		return decimal.Zero, false
	}
	return entry.price, true
}

func (p *PriceOracle) store(token common.Address, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[token] = priceEntry{price: price, fetchedAt: time.Now()}
}
