// Package bundle implements component G: encoding and signing the
// mint/burn-collect legs of a JIT position and assembling them with the
// victim transaction into the strictly-ordered relay bundle, grounded on
// blackholedex's Mint (tick-bounds + ABI-packed NFPM calldata) and
// TransactionRecord gas accounting.
package bundle

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/jitbot/jitliquidity/internal/errs"
	"github.com/jitbot/jitliquidity/jit"
)

// MaxGasLimitFraction bounds a bundle's own gas-limit sum to this
// fraction of the block gas ceiling, leaving headroom for the victim
// transaction and any other traffic in the block (spec §4.G).
const MaxGasLimitFraction = 0.8

// BlockGasCeiling is the chain's per-block gas limit used for the 80%
// headroom check.
const BlockGasCeiling = 30_000_000

// Signer holds the searcher's key and chain ID used to sign both legs of
// an enhanced bundle.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	chainID    *big.Int
	from       common.Address
}

// NewSigner derives the signer's address from privateKey.
func NewSigner(privateKey *ecdsa.PrivateKey, chainID *big.Int) *Signer {
	return &Signer{
		privateKey: privateKey,
		chainID:    chainID,
		from:       crypto.PubkeyToAddress(privateKey.PublicKey),
	}
}

// Address returns the signer's own address.
func (s *Signer) Address() common.Address { return s.from }

// NFPMClient is the subset of the nonfungible position manager binding
// the bundle builder needs for ABI-encoding mint/burn/collect calldata.
type NFPMClient struct {
	Address common.Address
	ABI     abi.ABI
}

// MintParams mirrors blackholedex's MintParams shape, generalized to any
// pool rather than hardcoded to WAVAX/USDC.
type MintParams struct {
	Token0         common.Address
	Token1         common.Address
	Fee            jit.FeeTier
	TickLower      int32
	TickUpper      int32
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Recipient      common.Address
	Deadline       *big.Int
	// Liquidity is the position's expected L value (Uniswap-V3 liquidity
	// units, not a token amount), used to size the burn leg's
	// decreaseLiquidity call to withdraw the full position the mint leg
	// opens.
	Liquidity *big.Int
}

// TokenIDSource predicts the tokenId the NFPM will assign to the mint
// leg, read immediately before signing so the burn/collect leg can
// target the same position the mint is about to create. Uniswap-V3-style
// position managers assign ids sequentially off an ERC721Enumerable
// totalSupply counter, so the prediction only holds if no other mint
// lands between the read and the bundle's own mint — guaranteed for an
// atomically-included bundle, not otherwise.
type TokenIDSource interface {
	PredictNextTokenID(ctx context.Context) (*big.Int, error)
}

// Builder assembles and signs JIT bundles.
type Builder struct {
	signer   *Signer
	nfpm     NFPMClient
	tokenIDs TokenIDSource
}

// NewBuilder builds a Builder bound to a signer, the position manager's
// ABI, and the tokenId predictor used to target the burn/collect leg at
// the position the mint leg is about to create.
func NewBuilder(signer *Signer, nfpm NFPMClient, tokenIDs TokenIDSource) *Builder {
	return &Builder{signer: signer, nfpm: nfpm, tokenIDs: tokenIDs}
}

// FeeEstimator supplies the EIP-1559 fee fields a bundle's own
// transactions should use: a fee cap and a priority tip.
type FeeEstimator interface {
	SuggestFees(ctx context.Context) (maxFeePerGas, maxPriorityFeePerGas *big.Int, err error)
}

// GasOracleFeeEstimator derives EIP-1559 fee fields from the gas oracle's
// single suggested price: that price is used as the fee cap, and a fixed
// fraction of it as the priority tip, since the pipeline has no separate
// base-fee/priority-fee feed beyond eth_gasPrice.
type GasOracleFeeEstimator struct {
	Gas            GasPriceOracle
	PriorityFracPct int64 // e.g. 10 means tip = 10% of the suggested price
}

// GasPriceOracle is the subset of oracle.GasOracle this estimator needs.
type GasPriceOracle interface {
	CurrentGasPrice(ctx context.Context) (*big.Int, error)
}

// NewGasOracleFeeEstimator builds a GasOracleFeeEstimator with a 10%
// priority-fee fraction.
func NewGasOracleFeeEstimator(gas GasPriceOracle) *GasOracleFeeEstimator {
	return &GasOracleFeeEstimator{Gas: gas, PriorityFracPct: 10}
}

// SuggestFees implements FeeEstimator.
func (g *GasOracleFeeEstimator) SuggestFees(ctx context.Context) (*big.Int, *big.Int, error) {
	price, err := g.Gas.CurrentGasPrice(ctx)
	if err != nil {
		return nil, nil, err
	}
	tip := new(big.Int).Mul(price, big.NewInt(g.PriorityFracPct))
	tip.Div(tip, big.NewInt(100))
	if tip.Sign() == 0 {
		tip = big.NewInt(1)
	}
	return price, tip, nil
}

// BuildEnhanced assembles the [mint, victim, burn+collect] bundle for a
// validated opportunity. victimRaw is the RLP-encoded victim transaction
// acquired by component D; nonce is the searcher's next account nonce
// (both mint and burn/collect legs use nonce and nonce+1 respectively).
func (b *Builder) BuildEnhanced(ctx context.Context, opp *jit.JitOpportunity, params MintParams, victimRaw []byte, victimHash common.Hash, nonce uint64, fees FeeEstimator, mintGasLimit, burnGasLimit uint64) (*jit.Bundle, error) {
	if len(victimRaw) == 0 {
		return nil, errs.New(errs.CategoryEvaluation, "victim_raw_unavailable", nil)
	}

	maxFee, maxPriority, err := fees.SuggestFees(ctx)
	if err != nil {
		return nil, errs.RPC("fee_estimation_failed", err)
	}

	mintData, err := b.packMint(params)
	if err != nil {
		return nil, errs.Decode("mint_encode_failed", err)
	}
	mintTx, err := b.signDynamicFeeTx(nonce, mintGasLimit, maxFee, maxPriority, mintData)
	if err != nil {
		return nil, fmt.Errorf("sign mint tx: %w", err)
	}

	tokenID, err := b.tokenIDs.PredictNextTokenID(ctx)
	if err != nil {
		return nil, errs.RPC("token_id_prediction_failed", err)
	}
	burnData, err := b.packBurnCollect(params, tokenID)
	if err != nil {
		return nil, errs.Decode("burn_collect_encode_failed", err)
	}
	burnTx, err := b.signDynamicFeeTx(nonce+1, burnGasLimit, maxFee, maxPriority, burnData)
	if err != nil {
		return nil, fmt.Errorf("sign burn/collect tx: %w", err)
	}

	gasSum := mintGasLimit + burnGasLimit
	if err := validateGasLimitSum(gasSum); err != nil {
		return nil, err
	}

	return &jit.Bundle{
		BundleID:    fmt.Sprintf("%s-enh-%d", opp.CandidateID, nonce),
		Kind:        jit.BundleEnhanced,
		Mint:        mintTx,
		VictimRaw:   victimRaw,
		VictimHash:  victimHash,
		BurnCollect: burnTx,
		GasLimitSum: gasSum,
		AssembledAt: time.Now(),
	}, nil
}

// validateGasLimitSum enforces spec §4.G's block-share ceiling on the
// bundle's own legs.
func validateGasLimitSum(sum uint64) error {
	if float64(sum) > float64(BlockGasCeiling)*MaxGasLimitFraction {
		return errs.Invariant("bundle_gas_limit_exceeds_block_share", fmt.Errorf("sum=%d ceiling_fraction=%.2f", sum, MaxGasLimitFraction))
	}
	return nil
}

func (b *Builder) packMint(p MintParams) ([]byte, error) {
	return b.nfpm.ABI.Pack("mint", struct {
		Token0         common.Address
		Token1         common.Address
		Fee            *big.Int
		TickLower      *big.Int
		TickUpper      *big.Int
		Amount0Desired *big.Int
		Amount1Desired *big.Int
		Amount0Min     *big.Int
		Amount1Min     *big.Int
		Recipient      common.Address
		Deadline       *big.Int
	}{
		Token0:         p.Token0,
		Token1:         p.Token1,
		Fee:            big.NewInt(int64(p.Fee)),
		TickLower:      big.NewInt(int64(p.TickLower)),
		TickUpper:      big.NewInt(int64(p.TickUpper)),
		Amount0Desired: p.Amount0Desired,
		Amount1Desired: p.Amount1Desired,
		Amount0Min:     p.Amount0Min,
		Amount1Min:     p.Amount1Min,
		Recipient:      p.Recipient,
		Deadline:       p.Deadline,
	})
}

// packBurnCollect packs decreaseLiquidity+collect as a single multicall
// targeting tokenID (the position the paired mint leg is about to
// create), the pattern blackholedex's own Unstake/withdraw path uses to
// avoid an intermediate state where liquidity is decreased but fees
// uncollected. decreaseLiquidity withdraws p.Liquidity in full, since
// the position is opened and closed within the same bundle.
func (b *Builder) packBurnCollect(p MintParams, tokenID *big.Int) ([]byte, error) {
	liquidity := p.Liquidity
	if liquidity == nil {
		liquidity = big.NewInt(0)
	}
	decrease, err := b.nfpm.ABI.Pack("decreaseLiquidity", struct {
		TokenId    *big.Int
		Liquidity  *big.Int
		Amount0Min *big.Int
		Amount1Min *big.Int
		Deadline   *big.Int
	}{
		TokenId:    tokenID,
		Liquidity:  liquidity,
		Amount0Min: p.Amount0Min,
		Amount1Min: p.Amount1Min,
		Deadline:   p.Deadline,
	})
	if err != nil {
		return nil, err
	}
	collect, err := b.nfpm.ABI.Pack("collect", struct {
		TokenId    *big.Int
		Recipient  common.Address
		Amount0Max *big.Int
		Amount1Max *big.Int
	}{
		TokenId:    tokenID,
		Recipient:  p.Recipient,
		Amount0Max: new(big.Int).SetUint64(^uint64(0)),
		Amount1Max: new(big.Int).SetUint64(^uint64(0)),
	})
	if err != nil {
		return nil, err
	}
	return b.nfpm.ABI.Pack("multicall", [][]byte{decrease, collect})
}

func (b *Builder) signDynamicFeeTx(nonce, gasLimit uint64, maxFee, maxPriority *big.Int, data []byte) (*jit.SignedTx, error) {
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   b.signer.chainID,
		Nonce:     nonce,
		GasTipCap: maxPriority,
		GasFeeCap: maxFee,
		Gas:       gasLimit,
		To:        &b.nfpm.Address,
		Data:      data,
	})
	signed, err := types.SignTx(tx, types.NewLondonSigner(b.signer.chainID), b.signer.privateKey)
	if err != nil {
		return nil, err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &jit.SignedTx{Hash: signed.Hash(), Raw: raw}, nil
}

// BuildFailsafe assembles a single-transaction bundle when the enhanced
// three-slot strategy is unavailable or has already failed (spec §4.G):
// a standalone mint sized for the pool's current state without relying
// on observing a specific victim.
func (b *Builder) BuildFailsafe(ctx context.Context, candidateID string, params MintParams, nonce uint64, fees FeeEstimator, gasLimit uint64) (*jit.Bundle, error) {
	maxFee, maxPriority, err := fees.SuggestFees(ctx)
	if err != nil {
		return nil, errs.RPC("fee_estimation_failed", err)
	}
	data, err := b.packMint(params)
	if err != nil {
		return nil, errs.Decode("mint_encode_failed", err)
	}
	tx, err := b.signDynamicFeeTx(nonce, gasLimit, maxFee, maxPriority, data)
	if err != nil {
		return nil, fmt.Errorf("sign failsafe tx: %w", err)
	}
	if err := validateGasLimitSum(gasLimit); err != nil {
		return nil, err
	}
	return &jit.Bundle{
		BundleID:    fmt.Sprintf("%s-failsafe-%d", candidateID, nonce),
		Kind:        jit.BundleFailsafe,
		Failsafe:    tx,
		GasLimitSum: gasLimit,
		AssembledAt: time.Now(),
	}, nil
}
