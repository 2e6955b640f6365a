// Package metrics defines the Prometheus counters and gauges exposed at
// spec §6's telemetry HTTP endpoint, grounded on the prometheus/
// client_golang dependency already carried by the teacher's go.mod.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every metric the pipeline emits so components take a
// single value rather than reaching for package-level globals.
type Registry struct {
	registry *prometheus.Registry

	MempoolTxsSeen     prometheus.Counter
	MempoolTxsDecoded  prometheus.Counter
	MempoolTxsMatched  prometheus.Counter
	MempoolTxsRejected *prometheus.CounterVec // label: reason

	JitAttempts  *prometheus.CounterVec // label: pool
	JitSuccesses *prometheus.CounterVec // label: pool
	JitFailures  *prometheus.CounterVec // label: pool, reason

	RelaySuccess *prometheus.CounterVec // label: relay
	RelayFailure *prometheus.CounterVec // label: relay

	CurrentSimulatedProfitUSD prometheus.Gauge
	LastBundleBlock           prometheus.Gauge
	WalletBalanceWei          prometheus.Gauge
}

// New registers every metric against its own registry so repeated calls
// in tests don't collide with the default global registry.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Registry{
		MempoolTxsSeen: factory.NewCounter(prometheus.CounterOpts{
			Name: "jit_mempool_txs_seen_total",
			Help: "Pending transactions observed from the mempool subscription.",
		}),
		MempoolTxsDecoded: factory.NewCounter(prometheus.CounterOpts{
			Name: "jit_mempool_txs_decoded_total",
			Help: "Pending transactions successfully decoded into a candidate swap.",
		}),
		MempoolTxsMatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "jit_mempool_txs_matched_total",
			Help: "Decoded swaps matched against a configured pool.",
		}),
		MempoolTxsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jit_mempool_txs_rejected_total",
			Help: "Pending transactions dropped before reaching the evaluator, by reason.",
		}, []string{"reason"}),

		JitAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jit_attempts_total",
			Help: "JIT candidates evaluated without error, by pool.",
		}, []string{"pool"}),
		JitSuccesses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jit_successes_total",
			Help: "JIT bundles that reached a successful relay submission, by pool.",
		}, []string{"pool"}),
		JitFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jit_failures_total",
			Help: "JIT candidates that failed evaluation or submission, by pool and reason.",
		}, []string{"pool", "reason"}),

		RelaySuccess: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jit_relay_success_total",
			Help: "Successful bundle submissions, by relay URL.",
		}, []string{"relay"}),
		RelayFailure: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jit_relay_failure_total",
			Help: "Failed bundle submissions after retry exhaustion, by relay URL.",
		}, []string{"relay"}),

		CurrentSimulatedProfitUSD: factory.NewGauge(prometheus.GaugeOpts{
			Name: "jit_current_simulated_profit_usd",
			Help: "Estimated net profit in USD of the most recently evaluated opportunity.",
		}),
		LastBundleBlock: factory.NewGauge(prometheus.GaugeOpts{
			Name: "jit_last_bundle_block",
			Help: "Target block number of the most recently assembled bundle.",
		}),
		WalletBalanceWei: factory.NewGauge(prometheus.GaugeOpts{
			Name: "jit_wallet_balance_wei",
			Help: "Signer wallet's native-token balance in wei, last observed.",
		}),
	}

	r.registry = reg
	return r
}

// Handler returns an http.Handler serving this registry's metrics in the
// Prometheus text exposition format (spec §6: "Exposed over HTTP at a
// configurable port").
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
