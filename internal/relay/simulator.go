package relay

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

// RPCSimulator runs a Flashbots-style eth_callBundle pre-flight against
// an RPC endpoint that supports it, reporting whether the proposed
// ordering reverts before any relay is contacted.
type RPCSimulator struct {
	client *rpc.Client
}

// NewRPCSimulator builds an RPCSimulator over an already-dialed client.
func NewRPCSimulator(client *rpc.Client) *RPCSimulator {
	return &RPCSimulator{client: client}
}

type callBundleParams struct {
	Txs              []string `json:"txs"`
	BlockNumber      string   `json:"blockNumber"`
	StateBlockNumber string   `json:"stateBlockNumber"`
}

type callBundleTxResult struct {
	GasUsed uint64 `json:"gasUsed"`
	Error   string `json:"error"`
	Revert  string `json:"revert"`
}

type callBundleResult struct {
	Results       []callBundleTxResult `json:"results"`
	TotalGasUsed  uint64                `json:"totalGasUsed"`
	BundleHash    string                `json:"bundleHash"`
}

// SimulateBundle implements Simulator.
func (s *RPCSimulator) SimulateBundle(ctx context.Context, rawTxs [][]byte, targetBlock uint64) (uint64, bool, string, error) {
	txs := make([]string, len(rawTxs))
	for i, raw := range rawTxs {
		txs[i] = fmt.Sprintf("0x%x", raw)
	}

	var result callBundleResult
	err := s.client.CallContext(ctx, &result, "eth_callBundle", callBundleParams{
		Txs:              txs,
		BlockNumber:      fmt.Sprintf("0x%x", targetBlock),
		StateBlockNumber: "latest",
	})
	if err != nil {
		return 0, false, "", fmt.Errorf("eth_callBundle: %w", err)
	}

	for i, r := range result.Results {
		if r.Error != "" || r.Revert != "" {
			return result.TotalGasUsed, true, fmt.Sprintf("tx %d reverted: %s%s", i, r.Error, r.Revert), nil
		}
	}
	return result.TotalGasUsed, false, "", nil
}
