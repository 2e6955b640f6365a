// Package txlistener polls for a transaction's receipt until it confirms,
// times out, or the context is cancelled, adapted from blackholedex's
// pkg/txlistener (WaitForTransaction, WithPollInterval, WithTimeout —
// the surface its call sites in blackhole_test.go exercise; the teacher's
// own implementation file did not survive retrieval).
package txlistener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrTimeout is returned by WaitForTransaction when the configured
// timeout elapses before a receipt appears.
var ErrTimeout = errors.New("txlistener: timed out waiting for transaction")

// TxListener polls a node for transaction receipts.
type TxListener struct {
	client       *ethclient.Client
	pollInterval time.Duration
	timeout      time.Duration
}

// Option configures a TxListener.
type Option func(*TxListener)

// WithPollInterval overrides the default receipt-poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(tl *TxListener) { tl.pollInterval = d }
}

// WithTimeout overrides the default wait timeout.
func WithTimeout(d time.Duration) Option {
	return func(tl *TxListener) { tl.timeout = d }
}

// NewTxListener builds a TxListener with 2s polling and a 2min timeout
// unless overridden.
func NewTxListener(client *ethclient.Client, opts ...Option) *TxListener {
	tl := &TxListener{
		client:       client,
		pollInterval: 2 * time.Second,
		timeout:      2 * time.Minute,
	}
	for _, opt := range opts {
		opt(tl)
	}
	return tl
}

// WaitForTransaction blocks until txHash's receipt is available, the
// configured timeout elapses, or ctx is cancelled.
func (tl *TxListener) WaitForTransaction(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, tl.timeout)
	defer cancel()

	ticker := time.NewTicker(tl.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := tl.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("fetch receipt for %s: %w", txHash, err)
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
