// Package config loads the two on-disk configuration surfaces described
// in spec §6: the component-tuning YAML file (blackholedex's
// configs/config.go pattern) and the pool descriptor JSON array.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/jitbot/jitliquidity/jit"
)

// poolDescriptorJSON mirrors the on-disk shape from spec §6:
// {pool_id, address, token0, token1, fee, tick_spacing, symbol0, symbol1,
//  decimals0, decimals1}.
type poolDescriptorJSON struct {
	PoolID      string `json:"pool_id"`
	Address     string `json:"address"`
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Fee         uint32 `json:"fee"`
	TickSpacing int    `json:"tick_spacing"`
	Symbol0     string `json:"symbol0"`
	Symbol1     string `json:"symbol1"`
	Decimals0   uint8  `json:"decimals0"`
	Decimals1   uint8  `json:"decimals1"`
}

// knownBadAddressVariants repairs known-bad checksum/case variants seen in
// the wild for well-known tokens (e.g. a lower-cased or mis-checksummed
// USDC address some integrators hard-code). Its one entry maps the
// lower-cased USDC address to its checksummed spelling; both parse to the
// same common.Address, so the table changes the text that is parsed but
// not the resulting address. See DESIGN.md's resolution of the "two
// ensureAddress helpers" open question.
var knownBadAddressVariants = map[string]string{
	"0xb97ef9ef8734c71904d8002f8b6bc66dd9c48a6e": "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E",
}

// canonicalizeAddress repairs a known-bad variant (matched case-insensitively)
// and otherwise returns the checksummed form of the input.
func canonicalizeAddress(raw string) common.Address {
	if fixed, ok := knownBadAddressVariants[strings.ToLower(raw)]; ok {
		return common.HexToAddress(fixed)
	}
	return common.HexToAddress(raw)
}

// LoadPoolDescriptors reads and validates the pool descriptor JSON file,
// applying address canonicalization and the token0 < token1 byte-ordering
// invariant.
func LoadPoolDescriptors(path string) (map[string]*jit.PoolDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pool descriptor file: %w", err)
	}
	var raw []poolDescriptorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse pool descriptor file: %w", err)
	}

	out := make(map[string]*jit.PoolDescriptor, len(raw))
	for _, r := range raw {
		tok0 := canonicalizeAddress(r.Token0)
		tok1 := canonicalizeAddress(r.Token1)
		sym0, sym1 := r.Symbol0, r.Symbol1
		dec0, dec1 := r.Decimals0, r.Decimals1

		// token0 < token1 invariant (spec §3.1): swap if the file listed
		// them the other way around.
		if strings.Compare(strings.ToLower(tok0.Hex()), strings.ToLower(tok1.Hex())) > 0 {
			tok0, tok1 = tok1, tok0
			sym0, sym1 = sym1, sym0
			dec0, dec1 = dec1, dec0
		}

		fee := jit.FeeTier(r.Fee)
		spacing := r.TickSpacing
		if spacing == 0 {
			spacing = fee.TickSpacing()
		}

		out[r.PoolID] = &jit.PoolDescriptor{
			PoolID:      r.PoolID,
			Address:     canonicalizeAddress(r.Address),
			Token0:      tok0,
			Token1:      tok1,
			Fee:         fee,
			TickSpacing: spacing,
			Symbol0:     sym0,
			Symbol1:     sym1,
			Decimals0:   dec0,
			Decimals1:   dec1,
		}
	}
	return out, nil
}
