package bundle

import (
	"context"
	"math/big"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitbot/jitliquidity/jit"
)

const nfpmABIJSON = `[
	{"type":"function","name":"mint","inputs":[{"name":"params","type":"tuple","components":[
		{"name":"token0","type":"address"},{"name":"token1","type":"address"},
		{"name":"tickLower","type":"int24"},{"name":"tickUpper","type":"int24"},
		{"name":"amount0Desired","type":"uint256"},{"name":"amount1Desired","type":"uint256"},
		{"name":"amount0Min","type":"uint256"},{"name":"amount1Min","type":"uint256"},
		{"name":"recipient","type":"address"},{"name":"deadline","type":"uint256"}
	]}],"outputs":[]},
	{"type":"function","name":"decreaseLiquidity","inputs":[{"name":"params","type":"tuple","components":[
		{"name":"tokenId","type":"uint256"},{"name":"liquidity","type":"uint128"},
		{"name":"amount0Min","type":"uint256"},{"name":"amount1Min","type":"uint256"},
		{"name":"deadline","type":"uint256"}
	]}],"outputs":[]},
	{"type":"function","name":"collect","inputs":[{"name":"params","type":"tuple","components":[
		{"name":"tokenId","type":"uint256"},{"name":"recipient","type":"address"},
		{"name":"amount0Max","type":"uint128"},{"name":"amount1Max","type":"uint128"}
	]}],"outputs":[]},
	{"type":"function","name":"multicall","inputs":[{"name":"data","type":"bytes[]"}],"outputs":[]}
]`

func mustNFPMABI(t *testing.T) abi.ABI {
	t.Helper()
	a, err := abi.JSON(strings.NewReader(nfpmABIJSON))
	require.NoError(t, err)
	return a
}

type stubTokenIDSource struct {
	tokenID *big.Int
	err     error
}

func (s *stubTokenIDSource) PredictNextTokenID(ctx context.Context) (*big.Int, error) {
	return s.tokenID, s.err
}

func testSignerAndBuilder(t *testing.T) (*Builder, *Signer) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := NewSigner(key, big.NewInt(1))
	nfpm := NFPMClient{Address: common.HexToAddress("0xnfpm"), ABI: mustNFPMABI(t)}
	return NewBuilder(signer, nfpm, &stubTokenIDSource{tokenID: big.NewInt(42)}), signer
}

type stubFees struct {
	maxFee, maxPriority *big.Int
	err                 error
}

func (s *stubFees) SuggestFees(ctx context.Context) (*big.Int, *big.Int, error) {
	return s.maxFee, s.maxPriority, s.err
}

func testParams() MintParams {
	return MintParams{
		Token0:         common.HexToAddress("0x1"),
		Token1:         common.HexToAddress("0x2"),
		Fee:            jit.FeeTier3000,
		TickLower:      -600,
		TickUpper:      600,
		Amount0Desired: big.NewInt(1_000_000),
		Amount1Desired: big.NewInt(1_000_000),
		Amount0Min:     big.NewInt(0),
		Amount1Min:     big.NewInt(0),
		Recipient:      common.HexToAddress("0xsearcher"),
		Deadline:       big.NewInt(9_999_999_999),
		Liquidity:      big.NewInt(500_000),
	}
}

func TestBuildEnhanced_ProducesStrictlyOrderedThreeSlotBundle(t *testing.T) {
	builder, _ := testSignerAndBuilder(t)
	fees := &stubFees{maxFee: big.NewInt(50_000_000_000), maxPriority: big.NewInt(2_000_000_000)}
	opp := &jit.JitOpportunity{CandidateID: "cand-1"}
	victimRaw := []byte{0xde, 0xad, 0xbe, 0xef}
	victimHash := common.HexToHash("0xvictim")

	b, err := builder.BuildEnhanced(context.Background(), opp, testParams(), victimRaw, victimHash, 5, fees, 280_000, 220_000)
	require.NoError(t, err)

	assert.Equal(t, jit.BundleEnhanced, b.Kind)
	slots := b.Slots()
	require.Len(t, slots, 3)
	assert.NotEmpty(t, slots[0], "mint leg")
	assert.Equal(t, victimRaw, slots[1])
	assert.NotEmpty(t, slots[2], "burn/collect leg")
	assert.EqualValues(t, 500_000, b.GasLimitSum)
}

func TestBuildEnhanced_MintAndBurnUseSequentialNonces(t *testing.T) {
	builder, signer := testSignerAndBuilder(t)
	fees := &stubFees{maxFee: big.NewInt(50_000_000_000), maxPriority: big.NewInt(2_000_000_000)}
	opp := &jit.JitOpportunity{CandidateID: "cand-2"}

	b, err := builder.BuildEnhanced(context.Background(), opp, testParams(), []byte{0x01}, common.HexToHash("0x1"), 7, fees, 280_000, 220_000)
	require.NoError(t, err)

	mintTx := new(types.Transaction)
	require.NoError(t, mintTx.UnmarshalBinary(b.Mint.Raw))
	burnTx := new(types.Transaction)
	require.NoError(t, burnTx.UnmarshalBinary(b.BurnCollect.Raw))

	assert.EqualValues(t, 7, mintTx.Nonce())
	assert.EqualValues(t, 8, burnTx.Nonce())

	fromMint, err := types.Sender(types.NewLondonSigner(signer.chainID), mintTx)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), fromMint)
}

func TestBuildEnhanced_BurnLegTargetsPredictedTokenID(t *testing.T) {
	builder, _ := testSignerAndBuilder(t)
	nfpmABI := mustNFPMABI(t)
	fees := &stubFees{maxFee: big.NewInt(50_000_000_000), maxPriority: big.NewInt(2_000_000_000)}
	opp := &jit.JitOpportunity{CandidateID: "cand-tokenid"}

	b, err := builder.BuildEnhanced(context.Background(), opp, testParams(), []byte{0x01}, common.HexToHash("0x1"), 3, fees, 280_000, 220_000)
	require.NoError(t, err)

	burnTx := new(types.Transaction)
	require.NoError(t, burnTx.UnmarshalBinary(b.BurnCollect.Raw))

	method, err := nfpmABI.MethodById(burnTx.Data()[:4])
	require.NoError(t, err)
	require.Equal(t, "multicall", method.Name)

	args := make(map[string]interface{})
	require.NoError(t, method.Inputs.UnpackIntoMap(args, burnTx.Data()[4:]))
	calls := args["data"].([][]byte)
	require.Len(t, calls, 2)

	decreaseMethod, err := nfpmABI.MethodById(calls[0][:4])
	require.NoError(t, err)
	decreaseArgs := make(map[string]interface{})
	require.NoError(t, decreaseMethod.Inputs.UnpackIntoMap(decreaseArgs, calls[0][4:]))
	params := reflect.ValueOf(decreaseArgs["params"])
	assert.Equal(t, big.NewInt(42), params.FieldByName("TokenId").Interface(), "burn leg must target the predicted tokenId, not a hardcoded zero")
	assert.Equal(t, big.NewInt(500_000), params.FieldByName("Liquidity").Interface())
}

func TestBuildEnhanced_PropagatesTokenIDPredictionFailure(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := NewSigner(key, big.NewInt(1))
	nfpm := NFPMClient{Address: common.HexToAddress("0xnfpm"), ABI: mustNFPMABI(t)}
	builder := NewBuilder(signer, nfpm, &stubTokenIDSource{err: assertErr("nfpm unreachable")})
	fees := &stubFees{maxFee: big.NewInt(1), maxPriority: big.NewInt(1)}
	opp := &jit.JitOpportunity{CandidateID: "cand-tokenid-fail"}

	_, err = builder.BuildEnhanced(context.Background(), opp, testParams(), []byte{0x01}, common.HexToHash("0x1"), 1, fees, 100, 100)
	assert.Error(t, err)
}

func TestBuildEnhanced_RejectsEmptyVictimRaw(t *testing.T) {
	builder, _ := testSignerAndBuilder(t)
	fees := &stubFees{maxFee: big.NewInt(1), maxPriority: big.NewInt(1)}
	opp := &jit.JitOpportunity{CandidateID: "cand-3"}

	_, err := builder.BuildEnhanced(context.Background(), opp, testParams(), nil, common.HexToHash("0x1"), 1, fees, 100, 100)
	assert.Error(t, err)
}

func TestBuildEnhanced_RejectsGasLimitSumOverBlockShare(t *testing.T) {
	builder, _ := testSignerAndBuilder(t)
	fees := &stubFees{maxFee: big.NewInt(1), maxPriority: big.NewInt(1)}
	opp := &jit.JitOpportunity{CandidateID: "cand-4"}

	_, err := builder.BuildEnhanced(context.Background(), opp, testParams(), []byte{0x01}, common.HexToHash("0x1"), 1, fees, 15_000_000, 15_000_000)
	assert.Error(t, err)
}

func TestBuildEnhanced_PropagatesFeeEstimationFailure(t *testing.T) {
	builder, _ := testSignerAndBuilder(t)
	fees := &stubFees{err: assertErr("rpc down")}
	opp := &jit.JitOpportunity{CandidateID: "cand-5"}

	_, err := builder.BuildEnhanced(context.Background(), opp, testParams(), []byte{0x01}, common.HexToHash("0x1"), 1, fees, 100, 100)
	assert.Error(t, err)
}

func TestBuildFailsafe_ProducesSingleSlotBundle(t *testing.T) {
	builder, _ := testSignerAndBuilder(t)
	fees := &stubFees{maxFee: big.NewInt(50_000_000_000), maxPriority: big.NewInt(2_000_000_000)}

	b, err := builder.BuildFailsafe(context.Background(), "cand-6", testParams(), 1, fees, 280_000)
	require.NoError(t, err)
	assert.Equal(t, jit.BundleFailsafe, b.Kind)
	assert.Len(t, b.Slots(), 1)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

type stubGasPriceOracle struct{ price *big.Int }

func (s *stubGasPriceOracle) CurrentGasPrice(ctx context.Context) (*big.Int, error) {
	return s.price, nil
}

func TestGasOracleFeeEstimator_DerivesTipAsFractionOfPrice(t *testing.T) {
	est := NewGasOracleFeeEstimator(&stubGasPriceOracle{price: big.NewInt(100_000_000_000)})
	maxFee, tip, err := est.SuggestFees(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100_000_000_000), maxFee)
	assert.Equal(t, big.NewInt(10_000_000_000), tip)
}
