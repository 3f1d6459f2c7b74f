// Package ethrpc implements the ledger transport over the Ethereum JSON-RPC
// API exposed by Quorum nodes.
package ethrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/louisbranch/challenge.space/internal/ledger"
)

// Artifact is a deployed contract: its ABI and address on one network.
type Artifact struct {
	Name    string
	ABI     abi.ABI
	Address common.Address
}

type buildArtifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Networks     map[string]struct {
		Address string `json:"address"`
	} `json:"networks"`
}

// ParseArtifact reads a contract build artifact (abi plus per-network
// deployment addresses). With an empty networkID the artifact must be
// deployed on exactly one network.
func ParseArtifact(data []byte, networkID string) (Artifact, error) {
	var raw buildArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return Artifact{}, fmt.Errorf("decode artifact: %w", err)
	}
	if len(raw.ABI) == 0 {
		return Artifact{}, fmt.Errorf("artifact %q has no abi", raw.ContractName)
	}
	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return Artifact{}, fmt.Errorf("parse abi of %q: %w", raw.ContractName, err)
	}

	address, err := deploymentAddress(raw, networkID)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Name: raw.ContractName, ABI: parsed, Address: address}, nil
}

func deploymentAddress(raw buildArtifact, networkID string) (common.Address, error) {
	if networkID == "" {
		if len(raw.Networks) != 1 {
			ids := make([]string, 0, len(raw.Networks))
			for id := range raw.Networks {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			return common.Address{}, fmt.Errorf("artifact %q deployed on %v: network id is required", raw.ContractName, ids)
		}
		for id := range raw.Networks {
			networkID = id
		}
	}
	deployment, ok := raw.Networks[networkID]
	if !ok {
		return common.Address{}, fmt.Errorf("artifact %q not deployed on network %s", raw.ContractName, networkID)
	}
	if !common.IsHexAddress(deployment.Address) {
		return common.Address{}, fmt.Errorf("artifact %q has invalid address %q", raw.ContractName, deployment.Address)
	}
	return common.HexToAddress(deployment.Address), nil
}

// LoadArtifacts reads <dir>/<Contract>.json for every ledger contract.
func LoadArtifacts(dir, networkID string) (map[ledger.Contract]Artifact, error) {
	out := make(map[ledger.Contract]Artifact, len(ledger.Contracts()))
	for _, contract := range ledger.Contracts() {
		path := filepath.Join(dir, string(contract)+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read artifact %s: %w", contract, err)
		}
		artifact, err := ParseArtifact(data, networkID)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", contract, err)
		}
		out[contract] = artifact
	}
	return out, nil
}
