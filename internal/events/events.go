// Package events adapts blackholedex's StrategyReport — a JSON-
// serializable event envelope pushed onto a reporting channel — into the
// pipeline's event stream: PendingSwapDetected, VictimReplaced,
// opportunity stage transitions, pool health transitions, bundle
// assembled, relay result, and a terminal "halt" event for fatal errors.
package events

import (
	"encoding/json"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/jitbot/jitliquidity/jit"
)

// Type enumerates the event types emitted onto the reporting channel,
// mirroring the teacher's EventType string constants one-for-one at the
// names this domain needs.
type Type string

const (
	TypePendingSwapDetected  Type = "pending_swap_detected"
	TypeVictimReplaced       Type = "victim_replaced"
	TypeOpportunityStage     Type = "opportunity_stage"
	TypePoolHealthTransition Type = "pool_health_transition"
	TypeBundleAssembled      Type = "bundle_assembled"
	TypeRelayResult          Type = "relay_result"
	TypeHalt                 Type = "halt"
)

// Event is the JSON-serializable envelope pushed onto the reporting
// channel, generalized from the teacher's StrategyReport: Phase becomes
// Stage, Profit stays USD-denominated (ProfitUSD) rather than BLACK-token
// amounts, and PositionDetails becomes Range/Liquidity.
type Event struct {
	Timestamp     time.Time      `json:"timestamp"`
	EventType     Type           `json:"event_type"`
	Message       string         `json:"message"`
	Pool          common.Address `json:"pool,omitempty"`
	CandidateID   string         `json:"candidate_id,omitempty"`
	Direction     string         `json:"direction,omitempty"`
	FeeTier       uint32         `json:"fee_tier,omitempty"`
	DecodedMethod string         `json:"decoded_call_method,omitempty"`
	AmountInHuman string         `json:"amount_in_human,omitempty"`
	Stage         jit.Stage      `json:"stage,omitempty"`
	GasCostWei    *big.Int       `json:"gas_cost_wei,omitempty"`
	CumulativeGas *big.Int       `json:"cumulative_gas_wei,omitempty"`
	ProfitUSD     *float64       `json:"profit_usd,omitempty"`
	Range         *jit.TickRange `json:"range,omitempty"`
	Liquidity     *big.Int       `json:"liquidity,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// ToJSON serializes the event to a JSON string, unlike the teacher's own
// StrategyReport.ToJSON which was left as an unimplemented stub.
func (e *Event) ToJSON() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Sink is the reporting channel events are pushed onto — a
// chan<- string of JSON-encoded events, matching the teacher's
// reportChan shape.
type Sink chan<- string

// Emit serializes and pushes ev onto sink, dropping the event (rather
// than blocking the caller) if the channel is full — telemetry must
// never back-pressure the hot path.
func Emit(sink Sink, ev Event) {
	if sink == nil {
		return
	}
	line, err := ev.ToJSON()
	if err != nil {
		return
	}
	select {
	case sink <- line:
	default:
	}
}

// Ledger accumulates the gas-cost entries its caller records, mirroring
// the teacher's TransactionRecord list and running TotalGasCost;
// cmd/jitbot records one entry per successful bundle submission.
type Ledger struct {
	entries      []GasEntry
	cumulativeWei *big.Int
}

// GasEntry records one signed transaction's realized or estimated cost.
type GasEntry struct {
	TxHash          common.Hash
	GasUsed         uint64
	EffectiveGasPriceWei *big.Int
	CostWei         *big.Int
	RecordedAt      time.Time
}

// NewLedger builds an empty gas-cost ledger.
func NewLedger() *Ledger {
	return &Ledger{cumulativeWei: new(big.Int)}
}

// Record appends a gas entry and updates the running total.
func (l *Ledger) Record(txHash common.Hash, gasUsed uint64, effectiveGasPriceWei *big.Int) GasEntry {
	cost := new(big.Int).Mul(new(big.Int).SetUint64(gasUsed), effectiveGasPriceWei)
	entry := GasEntry{
		TxHash:               txHash,
		GasUsed:              gasUsed,
		EffectiveGasPriceWei: effectiveGasPriceWei,
		CostWei:              cost,
		RecordedAt:           time.Now(),
	}
	l.entries = append(l.entries, entry)
	l.cumulativeWei.Add(l.cumulativeWei, cost)
	return entry
}

// CumulativeWei returns the running total gas cost across every recorded
// transaction.
func (l *Ledger) CumulativeWei() *big.Int {
	return new(big.Int).Set(l.cumulativeWei)
}

// Entries returns a copy of every recorded gas entry.
func (l *Ledger) Entries() []GasEntry {
	out := make([]GasEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
