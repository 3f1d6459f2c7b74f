package ethrpc

import (
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/challenge.space/internal/ledger"
)

// Settings locate the ledger a command talks to.
type Settings struct {
	// NetworkFile is the YAML topology.
	NetworkFile string
	// ContractsDir holds one build artifact per contract.
	ContractsDir string
	// NetworkID selects the deployment inside each artifact.
	NetworkID string
	// Password unlocks sender accounts before writes.
	Password       string
	RateLimit      float64
	ReceiptTimeout time.Duration
	Gas            uint64
}

// Open loads the topology and artifacts named by s and returns a provider
// that dials nodes on first use.
func Open(s Settings) (*Provider, error) {
	if strings.TrimSpace(s.NetworkFile) == "" {
		return nil, fmt.Errorf("ledger network file is required")
	}
	if strings.TrimSpace(s.ContractsDir) == "" {
		return nil, fmt.Errorf("ledger contracts dir is required")
	}
	network, err := LoadNetwork(s.NetworkFile)
	if err != nil {
		return nil, err
	}
	networkID := s.NetworkID
	if networkID == "" {
		networkID = network.NetworkID
	}
	artifacts, err := LoadArtifacts(s.ContractsDir, networkID)
	if err != nil {
		return nil, err
	}
	var opts []ledger.Option
	if s.Gas > 0 {
		opts = append(opts, ledger.WithGas(s.Gas))
	}
	cfg := Config{
		Password:       s.Password,
		RateLimit:      s.RateLimit,
		ReceiptTimeout: s.ReceiptTimeout,
	}
	return NewProvider(network, artifacts, cfg, nil, opts...), nil
}
