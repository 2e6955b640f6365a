// Package contractclient wraps a single (address, ABI) pair over an
// ethclient.Client, adapted from blackholedex's pkg/contractclient (whose
// test file is the only surviving artifact of that package in the
// retrieval pack: NewContractClient(client, address, abi), cc.Call,
// cc.TransactionData, cc.DecodeTransaction).
package contractclient

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ContractClient binds one contract address + ABI to a shared ethclient,
// used both for read calls against monitored pools and for decoding
// calldata observed in the mempool.
type ContractClient struct {
	client  *ethclient.Client
	address common.Address
	abi     abi.ABI
}

// NewContractClient constructs a ContractClient. client may be nil for
// pure decode-only use (see cc.DecodeTransaction).
func NewContractClient(client *ethclient.Client, address common.Address, contractABI abi.ABI) *ContractClient {
	return &ContractClient{client: client, address: address, abi: contractABI}
}

// Address returns the bound contract address.
func (c *ContractClient) Address() common.Address { return c.address }

// ABI returns the bound ABI.
func (c *ContractClient) ABI() abi.ABI { return c.abi }

// Call performs an eth_call against method with args, ABI-decoding the
// return values. A nil from uses the zero address as caller.
func (c *ContractClient) Call(from *common.Address, method string, args ...interface{}) ([]interface{}, error) {
	packed, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack call to %s: %w", method, err)
	}

	var fromAddr common.Address
	if from != nil {
		fromAddr = *from
	}
	msg := ethereum.CallMsg{From: fromAddr, To: &c.address, Data: packed}
	out, err := c.client.CallContract(context.Background(), msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := c.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack result of %s: %w", method, err)
	}
	return values, nil
}

// TransactionData fetches a transaction's calldata by hash.
func (c *ContractClient) TransactionData(txHash common.Hash) ([]byte, error) {
	tx, _, err := c.client.TransactionByHash(context.Background(), txHash)
	if err != nil {
		return nil, fmt.Errorf("fetch transaction %s: %w", txHash, err)
	}
	return tx.Data(), nil
}

// DecodedTransaction is the generic, ABI-driven decode result: a method
// name and its positional arguments. Domain-specific decoding (component
// D) builds jit.DecodedCall values on top of this.
type DecodedTransaction struct {
	MethodName string                 `json:"methodName"`
	Args       map[string]interface{} `json:"args"`
}

// DecodeTransaction decodes raw calldata against the bound ABI.
func (c *ContractClient) DecodeTransaction(data []byte) (*DecodedTransaction, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("calldata too short to contain a method selector")
	}
	method, err := c.abi.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("unrecognized method selector: %w", err)
	}

	args := make(map[string]interface{})
	if err := method.Inputs.UnpackIntoMap(args, data[4:]); err != nil {
		return nil, fmt.Errorf("unpack args for %s: %w", method.Name, err)
	}
	return &DecodedTransaction{MethodName: method.Name, Args: args}, nil
}

// ParseReceipt is a thin passthrough used by callers that already
// hold a receipt and just want gas-cost extraction; kept here rather than
// in internal/util since it touches *types.Receipt directly.
func ParseReceipt(r *types.Receipt) (gasUsed uint64, status uint64) {
	return r.GasUsed, r.Status
}

