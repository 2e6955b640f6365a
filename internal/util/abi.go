// Package util holds small ABI, hex, gas-accounting, and key-material
// helpers shared across the pipeline, adapted from blackholedex's
// pkg/util and internal/util packages.
package util

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// hardhatArtifact is the subset of a Hardhat compiler artifact JSON file
// this loader needs.
type hardhatArtifact struct {
	ABI json.RawMessage `json:"abi"`
}

// LoadABI loads a bare ABI JSON array from path.
func LoadABI(path string) (abi.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("read ABI file %s: %w", path, err)
	}
	parsed, err := abi.JSON(strings.NewReader(string(data)))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse ABI file %s: %w", path, err)
	}
	return parsed, nil
}

// LoadABIFromHardhatArtifact loads the "abi" field out of a full Hardhat
// compiler artifact JSON file.
func LoadABIFromHardhatArtifact(path string) (abi.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("read artifact %s: %w", path, err)
	}
	var artifact hardhatArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return abi.ABI{}, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	parsed, err := abi.JSON(strings.NewReader(string(artifact.ABI)))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse embedded ABI in %s: %w", path, err)
	}
	return parsed, nil
}

// Hex2Bytes decodes a hex string, tolerating an optional "0x" prefix.
func Hex2Bytes(s string) []byte {
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

// MethodID returns the first 4 bytes of calldata, the Solidity method
// selector the decoder dispatches on.
func MethodID(data []byte) ([4]byte, bool) {
	var id [4]byte
	if len(data) < 4 {
		return id, false
	}
	copy(id[:], data[:4])
	return id, true
}

// ExtractGasCost computes gasUsed * effectiveGasPrice from hex-encoded
// receipt fields, the same accounting blackholedex's TransactionRecord
// performs after every mint/approve/stake call.
func ExtractGasCost(gasUsedHex, effectiveGasPriceHex string) (*big.Int, error) {
	gasUsed := new(big.Int)
	if _, ok := gasUsed.SetString(strings.TrimPrefix(gasUsedHex, "0x"), 16); !ok {
		return nil, fmt.Errorf("invalid gasUsed %q", gasUsedHex)
	}
	gasPrice := new(big.Int)
	if _, ok := gasPrice.SetString(strings.TrimPrefix(effectiveGasPriceHex, "0x"), 16); !ok {
		return nil, fmt.Errorf("invalid effectiveGasPrice %q", effectiveGasPriceHex)
	}
	return new(big.Int).Mul(gasUsed, gasPrice), nil
}
