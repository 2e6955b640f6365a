// Package jit defines the shared data model for the JIT liquidity
// pipeline: pool descriptors and state, decoded pending swaps, evaluator
// output, and the bundle/submission records the pipeline produces.
//
// Mirrors blackholedex's root package, which held the domain types
// (Route, MintParams, AMMState, StakingResult, ...) alongside the
// component that used them most; here the model is shared by every
// stage D through H, so it lives in its own package instead of the
// coordinator's.
package jit

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// FeeTier is one of the small enum of supported pool fee tiers, in
// hundredths of a basis point (500 = 0.05%).
type FeeTier uint32

const (
	FeeTier100  FeeTier = 100  // 0.01%
	FeeTier500  FeeTier = 500  // 0.05%
	FeeTier3000 FeeTier = 3000 // 0.30%
	FeeTier10000 FeeTier = 10000 // 1.00%
)

// TickSpacing returns the tick spacing conventionally derived from a fee
// tier. Pools configured with a non-standard spacing override this via
// PoolDescriptor.TickSpacing directly.
func (f FeeTier) TickSpacing() int {
	switch f {
	case FeeTier100:
		return 1
	case FeeTier500:
		return 10
	case FeeTier3000:
		return 60
	case FeeTier10000:
		return 200
	default:
		return 60
	}
}

// Direction is the swap direction relative to a pool's token0/token1
// ordering.
type Direction int

const (
	Token0ToToken1 Direction = iota
	Token1ToToken0
)

func (d Direction) String() string {
	if d == Token0ToToken1 {
		return "token0->token1"
	}
	return "token1->token0"
}

// MinTick and MaxTick bound the valid tick range for any pool.
const (
	MinTick = -887272
	MaxTick = 887272
)

// PoolDescriptor is the static, per-pool configuration loaded from the
// pool descriptor JSON file (spec §6). Token addresses are already
// checksum-normalized and ordered token0 < token1 by the loader.
type PoolDescriptor struct {
	PoolID       string
	Address      common.Address
	Token0       common.Address
	Token1       common.Address
	Fee          FeeTier
	TickSpacing  int
	Symbol0      string
	Symbol1      string
	Decimals0    uint8
	Decimals1    uint8
}

// PoolState is the dynamic, short-TTL snapshot of a pool's on-chain state
// (component A).
type PoolState struct {
	Pool                common.Address
	SqrtPriceX96        *big.Int
	Tick                int32
	Liquidity           *big.Int // uint128, total in-range liquidity
	FeeGrowthGlobal0X128 *big.Int
	FeeGrowthGlobal1X128 *big.Int
	FetchedAt           time.Time
}

// Stale reports whether this state is older than ttl as of now.
func (s *PoolState) Stale(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.FetchedAt) > ttl
}

// DecodedCall is the tagged variant over the swap-call shapes the decoder
// recognizes (design note: "dynamic method dispatch over decoded calls").
// Exactly one of the embedded pointers is non-nil.
type DecodedCall struct {
	Method          string
	ExactInputSingle *ExactInputSingleCall
	ExactInput       *ExactInputCall
	Multicall        *MulticallCall
	DirectPoolSwap   *DirectPoolSwapCall
}

type ExactInputSingleCall struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               FeeTier
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
}

// ExactInputCall is a path-encoded multi-hop swap; only the first hop is
// scored per spec §4.D.
type ExactInputCall struct {
	FirstTokenIn  common.Address
	FirstTokenOut common.Address
	FirstFee      FeeTier
	AmountIn      *big.Int
}

// MulticallCall recurses into the first supported inner swap call.
type MulticallCall struct {
	Inner *DecodedCall
}

// DirectPoolSwapCall is a direct call to a monitored pool's swap method.
type DirectPoolSwapCall struct {
	Recipient        common.Address
	ZeroForOne       bool
	AmountSpecified  *big.Int // sign distinguishes exact-in vs exact-out
	SqrtPriceLimitX96 *big.Int
}

// PendingSwap is a decoded candidate victim swap (component D output).
type PendingSwap struct {
	CandidateID    string
	TxHash         common.Hash
	RawBytes       []byte // may be empty iff reconstruction disabled/failed
	Pool           common.Address
	TokenIn        common.Address
	TokenOut       common.Address
	AmountIn       *big.Int
	MinAmountOut   *big.Int // optional, may be nil
	Fee            FeeTier
	Direction      Direction
	EstimatedUSD   float64
	SeenAtBlock    uint64
	Decoded        DecodedCall
	SeenAt         time.Time
}

// Stage is the evaluator's lifecycle stage for a candidate.
type Stage string

const (
	StageDetected  Stage = "detected"
	StageSimulated Stage = "simulated"
	StageValidated Stage = "validated"
	StageFailed    Stage = "failed"
)

// Confidence distinguishes a fork-validated decision from a fast-only one
// made because fork replay was unavailable.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
)

// TickRange is a tick-spacing-aligned proposed position range.
type TickRange struct {
	TickLower int32
	TickUpper int32
}

// JitOpportunity is the evaluator's output (component E), handed off to
// the coordinator (component F).
type JitOpportunity struct {
	TraceID           string
	CandidateID       string
	Pool              common.Address
	TxHash            common.Hash
	EstimatedProfitUSD float64
	Range             TickRange
	Liquidity         *big.Int
	GasPriceWei       *big.Int
	// TargetBlock is the block this opportunity was sized against plus
	// one — the block the coordinator buffers it for and the block the
	// assembled bundle targets.
	TargetBlock       uint64
	Stage             Stage
	Confidence        Confidence
	Profitable        bool
	Reason            string // machine-stable short code
	ReasonDetail      string // free text
	Swap              *PendingSwap
	DetectedAt        time.Time
}

// PoolHealth is the coordinator's mutable per-pool state (component F).
type PoolHealth struct {
	Pool                common.Address
	Enabled             bool
	ConsecutiveFailures int
	LastFailureAt       time.Time
	CooldownEndsAt      time.Time
	MinProfitUSDOverride *float64 // nil means "use global floor"
}

// MinProfitUSD returns the effective profit floor for this pool given the
// global floor.
func (h *PoolHealth) MinProfitUSD(globalFloor float64) float64 {
	if h.MinProfitUSDOverride != nil && *h.MinProfitUSDOverride > globalFloor {
		return *h.MinProfitUSDOverride
	}
	return globalFloor
}

// BundleKind distinguishes the enhanced three-slot bundle from the
// single-tx failsafe/legacy bundle.
type BundleKind string

const (
	BundleEnhanced BundleKind = "enhanced"
	BundleFailsafe BundleKind = "failsafe"
)

// SignedTx is a signed, RLP-encoded transaction plus its hash, used for
// the signer-owned bundle slots.
type SignedTx struct {
	Hash common.Hash
	Raw  []byte
}

// Bundle is the ordered, assembled submission unit (component G).
// Invariant: an enhanced bundle has exactly 3 slots ordered
// [mint, victim, burn/collect]; a failsafe bundle has exactly 1.
type Bundle struct {
	BundleID    string
	Kind        BundleKind
	TargetBlock uint64
	MaxBlock    uint64
	Mint        *SignedTx
	VictimRaw   []byte
	VictimHash  common.Hash
	BurnCollect *SignedTx
	Failsafe    *SignedTx
	GasLimitSum uint64
	AssembledAt time.Time
}

// Slots returns the raw, ordered transaction bytes for relay submission.
func (b *Bundle) Slots() [][]byte {
	if b.Kind == BundleFailsafe {
		return [][]byte{b.Failsafe.Raw}
	}
	return [][]byte{b.Mint.Raw, b.VictimRaw, b.BurnCollect.Raw}
}

// RelayOutcome is one relay's response to a bundle submission attempt.
type RelayOutcome struct {
	RelayURL   string
	Success    bool
	BundleHash string
	Reason     string
	Attempts   int
}

// SubmissionResult is the relay submitter's output (component H).
type SubmissionResult struct {
	BundleID      string
	DryRun        bool
	PrimaryHash   string
	Succeeded     bool
	RelayOutcomes []RelayOutcome
	SimGasUsed    uint64
	SimReverted   bool
	SimReason     string
	SubmittedAt   time.Time
}
