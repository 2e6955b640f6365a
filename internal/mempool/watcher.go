package mempool

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/semaphore"

	"github.com/jitbot/jitliquidity/internal/errs"
	"github.com/jitbot/jitliquidity/internal/events"
	"github.com/jitbot/jitliquidity/internal/logging"
	"github.com/jitbot/jitliquidity/jit"
)

// DedupTTL is how long a seen transaction hash is remembered, so a
// transaction rebroadcast by multiple peers is only decoded once. The
// same TTL bounds the sender/nonce table used for replacement detection.
const DedupTTL = 5 * time.Minute

// PendingTxSource abstracts subscribing to new pending transaction
// hashes, implemented in production by ethclient's
// SubscribePendingTransactions.
type PendingTxSource interface {
	SubscribePendingTransactions(ctx context.Context, ch chan<- common.Hash) (Subscription, error)
}

// Subscription is the minimal surface of ethereum.Subscription this
// package needs.
type Subscription interface {
	Unsubscribe()
	Err() <-chan error
}

// TxMeta is the transaction envelope data the watcher needs before
// decoding calldata: To carries the call target, which calldata alone
// never does (needed to resolve a direct pool swap's pool identity), and
// From/Nonce/Mined let the watcher reject already-included transactions
// and detect a victim replaced by a higher-fee resubmission at the same
// nonce.
type TxMeta struct {
	To    *common.Address
	From  common.Address
	Nonce uint64
	Mined bool
}

// RawTxFetcher acquires a pending transaction's envelope, calldata and
// raw signed bytes.
type RawTxFetcher interface {
	// FetchTxMeta returns the transaction's envelope fields, ahead of any
	// calldata decode.
	FetchTxMeta(ctx context.Context, txHash common.Hash) (*TxMeta, error)
	// FetchCalldata returns the transaction's input calldata (not the
	// full RLP-encoded transaction).
	FetchCalldata(ctx context.Context, txHash common.Hash) ([]byte, error)
	// FetchRawTransaction returns the full RLP-encoded signed
	// transaction, used to reconstruct the victim slot of a bundle.
	// Returns (nil, nil) if reconstruction is unsupported/disabled.
	FetchRawTransaction(ctx context.Context, txHash common.Hash) ([]byte, error)
}

// PoolFilter reports whether pool is one of the pools this run monitors,
// and resolves a router call's (token, token, fee) triple back to the
// monitored pool it targets.
type PoolFilter interface {
	Lookup(pool common.Address) (*jit.PoolDescriptor, bool)
	LookupByPair(tokenA, tokenB common.Address, fee jit.FeeTier) (*jit.PoolDescriptor, bool)
}

type nonceKey struct {
	From  common.Address
	Nonce uint64
}

type nonceEntry struct {
	hash   common.Hash
	seenAt time.Time
}

// Watcher subscribes to pending transactions, deduplicates them, decodes
// calldata bounded by a worker semaphore, and emits matching
// jit.PendingSwap candidates on Candidates().
type Watcher struct {
	source                PendingTxSource
	fetcher               RawTxFetcher
	decoder               *Decoder
	pools                 PoolFilter
	allowRawTxReconstruct bool
	maxInFlight           int64
	eventSink             events.Sink

	logger *logging.Logger

	dedupMu sync.Mutex
	dedup   map[common.Hash]time.Time

	nonceMu   sync.Mutex
	nonceSeen map[nonceKey]nonceEntry

	out chan *jit.PendingSwap
}

// NewWatcher builds a Watcher. maxInFlight bounds concurrent decode
// workers (spec §6's MAX_IN_FLIGHT_DECODES). eventSink receives
// VictimReplaced notifications as they're detected; a nil sink drops
// them silently, matching events.Emit's own nil handling.
func NewWatcher(source PendingTxSource, fetcher RawTxFetcher, decoder *Decoder, pools PoolFilter, maxInFlight int, allowRawTxReconstruct bool, eventSink events.Sink) *Watcher {
	if maxInFlight <= 0 {
		maxInFlight = 64
	}
	return &Watcher{
		source:                source,
		fetcher:               fetcher,
		decoder:               decoder,
		pools:                 pools,
		allowRawTxReconstruct: allowRawTxReconstruct,
		maxInFlight:           int64(maxInFlight),
		eventSink:             eventSink,
		logger:                logging.New("mempool.watcher"),
		dedup:                 make(map[common.Hash]time.Time),
		nonceSeen:             make(map[nonceKey]nonceEntry),
		out:                   make(chan *jit.PendingSwap, 1024),
	}
}

// Candidates returns the channel of decoded, pool-matched swap
// candidates.
func (w *Watcher) Candidates() <-chan *jit.PendingSwap { return w.out }

// Run subscribes to pending transactions and processes them until ctx is
// cancelled or the subscription errors out.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.out)

	hashes := make(chan common.Hash, 4096)
	sub, err := w.source.SubscribePendingTransactions(ctx, hashes)
	if err != nil {
		return errs.RPC("mempool_subscribe_failed", err)
	}
	defer sub.Unsubscribe()

	sem := semaphore.NewWeighted(w.maxInFlight)
	var wg sync.WaitGroup

	cleanupTicker := time.NewTicker(time.Minute)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case subErr := <-sub.Err():
			wg.Wait()
			return errs.RPC("mempool_subscription_error", subErr)
		case <-cleanupTicker.C:
			w.sweepDedup()
		case hash := <-hashes:
			if w.seen(hash) {
				continue
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				return ctx.Err()
			}
			wg.Add(1)
			go func(h common.Hash) {
				defer wg.Done()
				defer sem.Release(1)
				w.process(ctx, h)
			}(hash)
		}
	}
}

func (w *Watcher) seen(hash common.Hash) bool {
	w.dedupMu.Lock()
	defer w.dedupMu.Unlock()
	if _, ok := w.dedup[hash]; ok {
		return true
	}
	w.dedup[hash] = time.Now()
	return false
}

func (w *Watcher) sweepDedup() {
	cutoff := time.Now().Add(-DedupTTL)

	w.dedupMu.Lock()
	for h, seenAt := range w.dedup {
		if seenAt.Before(cutoff) {
			delete(w.dedup, h)
		}
	}
	w.dedupMu.Unlock()

	w.nonceMu.Lock()
	for k, e := range w.nonceSeen {
		if e.seenAt.Before(cutoff) {
			delete(w.nonceSeen, k)
		}
	}
	w.nonceMu.Unlock()
}

// checkReplacement records hash as the latest transaction seen for
// (from, nonce) and reports whether a different hash was previously on
// file for the same pair — a same-nonce resubmission, almost always the
// sender replacing an underpriced swap with a higher-fee one.
func (w *Watcher) checkReplacement(from common.Address, nonce uint64, hash common.Hash) (replaced bool, previous common.Hash) {
	key := nonceKey{From: from, Nonce: nonce}
	w.nonceMu.Lock()
	defer w.nonceMu.Unlock()
	prev, ok := w.nonceSeen[key]
	w.nonceSeen[key] = nonceEntry{hash: hash, seenAt: time.Now()}
	if ok && prev.hash != hash {
		return true, prev.hash
	}
	return false, common.Hash{}
}

func (w *Watcher) process(ctx context.Context, hash common.Hash) {
	meta, err := w.fetcher.FetchTxMeta(ctx, hash)
	if err != nil {
		w.logger.Warnf("fetch tx meta for %s: %v", hash.Hex(), err)
		return
	}
	if meta.Mined {
		return // already included; too late to JIT against it
	}
	if replaced, prevHash := w.checkReplacement(meta.From, meta.Nonce, hash); replaced {
		w.logger.Infof("tx for %s nonce %d replaced: %s -> %s", meta.From.Hex(), meta.Nonce, prevHash.Hex(), hash.Hex())
		events.Emit(w.eventSink, events.Event{
			Timestamp:   time.Now(),
			EventType:   events.TypeVictimReplaced,
			CandidateID: hash.Hex(),
			Reason:      prevHash.Hex(),
		})
	}

	calldata, err := w.fetcher.FetchCalldata(ctx, hash)
	if err != nil {
		w.logger.Warnf("fetch calldata for %s: %v", hash.Hex(), err)
		return
	}

	decoded, err := w.decoder.Decode(calldata)
	if err != nil {
		return // not a call shape this pipeline cares about
	}

	swap := w.toPendingSwap(hash, meta.To, decoded)
	if swap == nil {
		return
	}

	if w.allowRawTxReconstruct {
		raw, err := w.fetcher.FetchRawTransaction(ctx, hash)
		if err != nil {
			w.logger.Warnf("reconstruct raw tx for %s: %v", hash.Hex(), err)
		} else {
			swap.RawBytes = raw
		}
	}

	select {
	case w.out <- swap:
	case <-ctx.Done():
	}
}

// toPendingSwap resolves a decoded call against the monitored pool set,
// returning nil if it touches no pool this run tracks. Direct pool swaps
// resolve against to, the call's own target address; router calls
// resolve against the (tokenIn, tokenOut, fee) triple.
func (w *Watcher) toPendingSwap(hash common.Hash, to *common.Address, decoded *jit.DecodedCall) *jit.PendingSwap {
	if decoded.DirectPoolSwap != nil {
		return w.resolveDirectPoolSwap(hash, to, decoded)
	}
	return w.resolveRouterCall(hash, decoded)
}

// resolveDirectPoolSwap matches a direct pool call against the monitored
// pool living at to, and derives TokenIn/TokenOut/AmountIn from the
// call's zeroForOne flag and signed amountSpecified — exact-in swaps
// carry a positive amountSpecified, exact-out a negative one, so the
// absolute value is always the amount moving in the named direction.
func (w *Watcher) resolveDirectPoolSwap(hash common.Hash, to *common.Address, decoded *jit.DecodedCall) *jit.PendingSwap {
	if to == nil {
		return nil
	}
	pool, ok := w.pools.Lookup(*to)
	if !ok {
		return nil
	}

	call := decoded.DirectPoolSwap
	direction := jit.Token1ToToken0
	tokenIn, tokenOut := pool.Token1, pool.Token0
	if call.ZeroForOne {
		direction = jit.Token0ToToken1
		tokenIn, tokenOut = pool.Token0, pool.Token1
	}
	amountIn := new(big.Int)
	if call.AmountSpecified != nil {
		amountIn.Abs(call.AmountSpecified)
	}

	return &jit.PendingSwap{
		CandidateID: hash.Hex(),
		TxHash:      hash,
		Pool:        pool.Address,
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		AmountIn:    amountIn,
		Fee:         pool.Fee,
		Direction:   direction,
		Decoded:     *decoded,
		SeenAt:      time.Now(),
	}
}

func (w *Watcher) resolveRouterCall(hash common.Hash, decoded *jit.DecodedCall) *jit.PendingSwap {
	var tokenIn, tokenOut common.Address
	var fee jit.FeeTier
	var amountIn *big.Int

	switch {
	case decoded.ExactInputSingle != nil:
		tokenIn = decoded.ExactInputSingle.TokenIn
		tokenOut = decoded.ExactInputSingle.TokenOut
		fee = decoded.ExactInputSingle.Fee
		amountIn = decoded.ExactInputSingle.AmountIn
	case decoded.ExactInput != nil:
		tokenIn = decoded.ExactInput.FirstTokenIn
		tokenOut = decoded.ExactInput.FirstTokenOut
		fee = decoded.ExactInput.FirstFee
		amountIn = decoded.ExactInput.AmountIn
	case decoded.Multicall != nil:
		return w.resolveRouterCall(hash, decoded.Multicall.Inner)
	default:
		return nil
	}

	pool, ok := w.poolForPair(tokenIn, tokenOut, fee)
	if !ok {
		return nil
	}

	direction := jit.Token1ToToken0
	if tokenIn == pool.Token0 {
		direction = jit.Token0ToToken1
	}

	return &jit.PendingSwap{
		CandidateID: hash.Hex(),
		TxHash:      hash,
		Pool:        pool.Address,
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		AmountIn:    amountIn,
		Fee:         fee,
		Direction:   direction,
		Decoded:     *decoded,
		SeenAt:      time.Now(),
	}
}

func (w *Watcher) poolForPair(tokenA, tokenB common.Address, fee jit.FeeTier) (*jit.PoolDescriptor, bool) {
	return w.pools.LookupByPair(tokenA, tokenB, fee)
}
