package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

type jsonRPCEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result"`
}

func newCallBundleServer(t *testing.T, result callBundleResult) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID json.RawMessage `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(jsonRPCEnvelope{JSONRPC: "2.0", ID: req.ID, Result: result}))
	}))
}

func TestRPCSimulator_NoRevert(t *testing.T) {
	srv := newCallBundleServer(t, callBundleResult{
		Results:      []callBundleTxResult{{GasUsed: 100}, {GasUsed: 200}},
		TotalGasUsed: 300,
	})
	defer srv.Close()

	client, err := gethrpc.Dial(srv.URL)
	require.NoError(t, err)
	sim := NewRPCSimulator(client)

	gasUsed, reverted, reason, err := sim.SimulateBundle(context.Background(), [][]byte{{0x1}, {0x2}}, 100)
	require.NoError(t, err)
	require.False(t, reverted)
	require.Empty(t, reason)
	require.EqualValues(t, 300, gasUsed)
}

func TestRPCSimulator_DetectsRevert(t *testing.T) {
	srv := newCallBundleServer(t, callBundleResult{
		Results: []callBundleTxResult{{GasUsed: 100}, {Error: "execution reverted"}},
	})
	defer srv.Close()

	client, err := gethrpc.Dial(srv.URL)
	require.NoError(t, err)
	sim := NewRPCSimulator(client)

	_, reverted, reason, err := sim.SimulateBundle(context.Background(), [][]byte{{0x1}, {0x2}}, 100)
	require.NoError(t, err)
	require.True(t, reverted)
	require.Contains(t, reason, "reverted")
}
