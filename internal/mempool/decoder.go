// Package mempool implements component D: pending-transaction watching
// and decoding into candidate victim swaps, generalizing blackholedex's
// single ContractClient.DecodeTransaction call (used there to decode the
// bot's own past transactions) into a dispatch table over the handful of
// router call shapes a JIT searcher cares about.
package mempool

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/jitbot/jitliquidity/internal/errs"
	"github.com/jitbot/jitliquidity/jit"
)

// tupleField reads field name (capitalized, matching go-ethereum's
// abi.Arguments.UnpackIntoMap tuple-struct generation) off a decoded
// tuple value via reflection, since the package generates its own
// anonymous struct type per ABI shape that callers cannot name directly.
func tupleField(tuple interface{}, name string) (reflect.Value, bool) {
	v := reflect.ValueOf(tuple)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	f := v.FieldByName(name)
	if !f.IsValid() {
		return reflect.Value{}, false
	}
	return f, true
}

func tupleAddress(tuple interface{}, name string) (common.Address, bool) {
	f, ok := tupleField(tuple, name)
	if !ok {
		return common.Address{}, false
	}
	addr, ok := f.Interface().(common.Address)
	return addr, ok
}

func tupleBigInt(tuple interface{}, name string) (*big.Int, bool) {
	f, ok := tupleField(tuple, name)
	if !ok {
		return nil, false
	}
	v, ok := f.Interface().(*big.Int)
	return v, ok
}

func tupleBool(tuple interface{}, name string) (bool, bool) {
	f, ok := tupleField(tuple, name)
	if !ok {
		return false, false
	}
	v, ok := f.Interface().(bool)
	return v, ok
}

func tupleBytes(tuple interface{}, name string) ([]byte, bool) {
	f, ok := tupleField(tuple, name)
	if !ok {
		return nil, false
	}
	v, ok := f.Interface().([]byte)
	return v, ok
}

// Selector method names this decoder recognizes, matching the ABI
// fragments wired in NewDecoder.
const (
	methodExactInputSingle = "exactInputSingle"
	methodExactInput       = "exactInput"
	methodMulticall        = "multicall"
	methodSwap             = "swap" // direct pool swap
)

// Decoder turns raw calldata into a jit.DecodedCall, recursing into
// multicall batches to find the first supported inner swap.
type Decoder struct {
	routerABI abi.ABI
	poolABI   abi.ABI
}

// NewDecoder builds a Decoder bound to the router ABI (exactInputSingle /
// exactInput / multicall) and the pool ABI (direct swap); cmd/jitbot
// parses both from the embedded internal/abis JSON at startup.
func NewDecoder(routerABI, poolABI abi.ABI) *Decoder {
	return &Decoder{routerABI: routerABI, poolABI: poolABI}
}

// Decode dispatches raw calldata to the matching call shape. An
// unrecognized selector is not an error condition in itself — most
// mempool traffic is irrelevant to this pipeline — callers should treat
// ErrUnsupportedMethod as "skip silently".
func (d *Decoder) Decode(data []byte) (*jit.DecodedCall, error) {
	if len(data) < 4 {
		return nil, errs.Decode("calldata_too_short", nil)
	}
	method, err := d.routerABI.MethodById(data[:4])
	if err != nil {
		method, err = d.poolABI.MethodById(data[:4])
		if err != nil {
			return nil, ErrUnsupportedMethod
		}
	}

	switch method.Name {
	case methodExactInputSingle:
		return d.decodeExactInputSingle(method, data[4:])
	case methodExactInput:
		return d.decodeExactInput(method, data[4:])
	case methodMulticall:
		return d.decodeMulticall(method, data[4:])
	case methodSwap:
		return d.decodeDirectSwap(method, data[4:])
	default:
		return nil, ErrUnsupportedMethod
	}
}

// ErrUnsupportedMethod is returned for calldata whose selector the
// decoder does not recognize at all.
var ErrUnsupportedMethod = fmt.Errorf("mempool: unsupported method selector")

func (d *Decoder) decodeExactInputSingle(method *abi.Method, payload []byte) (*jit.DecodedCall, error) {
	args := make(map[string]interface{})
	if err := method.Inputs.UnpackIntoMap(args, payload); err != nil {
		return nil, errs.Decode("exact_input_single_unpack_failed", err)
	}
	params, ok := args["params"]
	if !ok {
		return nil, errs.Decode("exact_input_single_missing_params", nil)
	}

	tokenIn, ok1 := tupleAddress(params, "TokenIn")
	tokenOut, ok2 := tupleAddress(params, "TokenOut")
	fee, ok3 := tupleBigInt(params, "Fee")
	amountIn, ok4 := tupleBigInt(params, "AmountIn")
	amountOutMin, _ := tupleBigInt(params, "AmountOutMinimum")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, errs.Decode("exact_input_single_unrecognized_struct_shape", nil)
	}

	call := &jit.ExactInputSingleCall{
		TokenIn:          tokenIn,
		TokenOut:         tokenOut,
		Fee:              jit.FeeTier(fee.Uint64()),
		AmountIn:         amountIn,
		AmountOutMinimum: amountOutMin,
	}
	return &jit.DecodedCall{Method: methodExactInputSingle, ExactInputSingle: call}, nil
}

func (d *Decoder) decodeExactInput(method *abi.Method, payload []byte) (*jit.DecodedCall, error) {
	args := make(map[string]interface{})
	if err := method.Inputs.UnpackIntoMap(args, payload); err != nil {
		return nil, errs.Decode("exact_input_unpack_failed", err)
	}
	params, ok := args["params"]
	if !ok {
		return nil, errs.Decode("exact_input_missing_params", nil)
	}
	path, ok := tupleBytes(params, "Path")
	if !ok {
		return nil, errs.Decode("exact_input_unrecognized_struct_shape", nil)
	}
	amountIn, ok := tupleBigInt(params, "AmountIn")
	if !ok {
		return nil, errs.Decode("exact_input_unrecognized_struct_shape", nil)
	}

	tokenIn, tokenOut, fee, err := decodeFirstHop(path)
	if err != nil {
		return nil, err
	}
	call := &jit.ExactInputCall{
		FirstTokenIn:  tokenIn,
		FirstTokenOut: tokenOut,
		FirstFee:      fee,
		AmountIn:      amountIn,
	}
	return &jit.DecodedCall{Method: methodExactInput, ExactInput: call}, nil
}

// decodeFirstHop parses the leading (token, fee, token) triple out of a
// Uniswap-V3-style packed path (20 bytes address, 3 bytes fee, repeat);
// only the first hop is scored per spec §4.D, since that is the hop that
// touches a pool this pipeline monitors.
func decodeFirstHop(path []byte) (common.Address, common.Address, jit.FeeTier, error) {
	const addrLen, feeLen = 20, 3
	if len(path) < addrLen+feeLen+addrLen {
		return common.Address{}, common.Address{}, 0, errs.Decode("path_too_short", nil)
	}
	tokenIn := common.BytesToAddress(path[:addrLen])
	fee := new(big.Int).SetBytes(path[addrLen : addrLen+feeLen])
	tokenOut := common.BytesToAddress(path[addrLen+feeLen : addrLen+feeLen+addrLen])
	return tokenIn, tokenOut, jit.FeeTier(fee.Uint64()), nil
}

func (d *Decoder) decodeMulticall(method *abi.Method, payload []byte) (*jit.DecodedCall, error) {
	args := make(map[string]interface{})
	if err := method.Inputs.UnpackIntoMap(args, payload); err != nil {
		return nil, errs.Decode("multicall_unpack_failed", err)
	}
	calls, ok := args["data"].([][]byte)
	if !ok {
		return nil, errs.Decode("multicall_unrecognized_struct_shape", nil)
	}
	for _, inner := range calls {
		decoded, err := d.Decode(inner)
		if err == nil {
			return &jit.DecodedCall{Method: methodMulticall, Multicall: &jit.MulticallCall{Inner: decoded}}, nil
		}
	}
	return nil, ErrUnsupportedMethod
}

func (d *Decoder) decodeDirectSwap(method *abi.Method, payload []byte) (*jit.DecodedCall, error) {
	args := make(map[string]interface{})
	if err := method.Inputs.UnpackIntoMap(args, payload); err != nil {
		return nil, errs.Decode("direct_swap_unpack_failed", err)
	}
	recipient, _ := args["recipient"].(common.Address)
	zeroForOne, _ := args["zeroToOne"].(bool)
	amountSpecified, ok := args["amountRequired"].(*big.Int)
	if !ok {
		amountSpecified, ok = args["amountSpecified"].(*big.Int)
		if !ok {
			return nil, errs.Decode("direct_swap_missing_amount", nil)
		}
	}
	limitSqrtPrice, _ := args["limitSqrtPrice"].(*big.Int)
	if limitSqrtPrice == nil {
		limitSqrtPrice, _ = args["sqrtPriceLimitX96"].(*big.Int)
	}

	call := &jit.DirectPoolSwapCall{
		Recipient:         recipient,
		ZeroForOne:        zeroForOne,
		AmountSpecified:   amountSpecified,
		SqrtPriceLimitX96: limitSqrtPrice,
	}
	return &jit.DecodedCall{Method: methodSwap, DirectPoolSwap: call}, nil
}
