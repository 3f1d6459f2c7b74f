package ethrpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/time/rate"

	"github.com/louisbranch/challenge.space/internal/ledger"
	"github.com/louisbranch/challenge.space/internal/platform/timeouts"
)

// RPCClient is the subset of *rpc.Client the transport uses.
type RPCClient interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
	Close()
}

// Config tunes a transport.
type Config struct {
	// Password unlocks sender accounts before each transaction. Empty skips
	// unlocking (accounts managed outside the node).
	Password string
	// RateLimit caps RPC requests per second per node; zero disables it.
	RateLimit float64
	Burst     int
	// CallTimeout bounds each JSON-RPC request.
	CallTimeout time.Duration
	// ReceiptTimeout bounds how long a write waits to be mined.
	ReceiptTimeout time.Duration
	// PollInterval is the first delay between receipt polls.
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.CallTimeout <= 0 {
		c.CallTimeout = timeouts.LedgerCall
	}
	if c.ReceiptTimeout <= 0 {
		c.ReceiptTimeout = timeouts.LedgerReceipt
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 250 * time.Millisecond
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	return c
}

// Transport implements ledger.Transport against one node.
type Transport struct {
	rpc       RPCClient
	artifacts map[ledger.Contract]Artifact
	limiter   *rate.Limiter
	cfg       Config
}

var _ ledger.Transport = (*Transport)(nil)

// ErrReverted is returned when a mined transaction reports failure.
var ErrReverted = errors.New("transaction reverted")

var errPending = errors.New("receipt pending")

// NewTransport wraps an RPC client with the deployed contract artifacts.
func NewTransport(client RPCClient, artifacts map[ledger.Contract]Artifact, cfg Config) *Transport {
	cfg = cfg.withDefaults()
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &Transport{
		rpc:       client,
		artifacts: artifacts,
		limiter:   rate.NewLimiter(limit, cfg.Burst),
		cfg:       cfg,
	}
}

func (t *Transport) do(ctx context.Context, result any, method string, args ...any) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit %s: %w", method, err)
	}
	callCtx, cancel := context.WithTimeout(ctx, t.cfg.CallTimeout)
	defer cancel()
	return t.rpc.CallContext(callCtx, result, method, args...)
}

func (t *Transport) encode(contract ledger.Contract, method string, args []any) (Artifact, []byte, error) {
	artifact, ok := t.artifacts[contract]
	if !ok {
		return Artifact{}, nil, fmt.Errorf("contract %s is not loaded", contract)
	}
	m, ok := artifact.ABI.Methods[method]
	if !ok {
		return Artifact{}, nil, fmt.Errorf("contract %s has no method %s", contract, method)
	}
	converted, err := convertArgs(m, args)
	if err != nil {
		return Artifact{}, nil, err
	}
	data, err := artifact.ABI.Pack(method, converted...)
	if err != nil {
		return Artifact{}, nil, fmt.Errorf("pack %s.%s: %w", contract, method, err)
	}
	return artifact, data, nil
}

// Call runs eth_call against the latest block and unpacks the outputs.
func (t *Transport) Call(ctx context.Context, contract ledger.Contract, method string, args []any) ([]any, error) {
	artifact, data, err := t.encode(contract, method, args)
	if err != nil {
		return nil, err
	}
	msg := map[string]any{
		"to":   artifact.Address,
		"data": hexutil.Bytes(data),
	}
	var out hexutil.Bytes
	if err := t.do(ctx, &out, "eth_call", msg, "latest"); err != nil {
		return nil, err
	}
	values, err := artifact.ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s.%s: %w", contract, method, err)
	}
	return values, nil
}

// Send unlocks the sender, submits the transaction and waits for its receipt.
func (t *Transport) Send(ctx context.Context, contract ledger.Contract, method string, args []any, opts ledger.TxOptions) (ledger.Receipt, error) {
	artifact, data, err := t.encode(contract, method, args)
	if err != nil {
		return ledger.Receipt{}, err
	}
	if !common.IsHexAddress(opts.From) {
		return ledger.Receipt{}, fmt.Errorf("invalid sender %q", opts.From)
	}
	if t.cfg.Password != "" {
		if err := t.Unlock(ctx, opts.From); err != nil {
			return ledger.Receipt{}, err
		}
	}

	tx := map[string]any{
		"from": common.HexToAddress(opts.From),
		"to":   artifact.Address,
		"gas":  hexutil.Uint64(opts.Gas),
		"data": hexutil.Bytes(data),
	}
	if len(opts.PrivateFor) > 0 {
		tx["privateFor"] = opts.PrivateFor
	}
	var hash common.Hash
	if err := t.do(ctx, &hash, "eth_sendTransaction", tx); err != nil {
		return ledger.Receipt{}, err
	}
	return t.waitReceipt(ctx, hash)
}

type rpcReceipt struct {
	TxHash      common.Hash    `json:"transactionHash"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	Status      hexutil.Uint64 `json:"status"`
}

func (t *Transport) waitReceipt(ctx context.Context, hash common.Hash) (ledger.Receipt, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = t.cfg.PollInterval
	policy.MaxInterval = 2 * time.Second

	r, err := backoff.Retry(ctx, func() (*rpcReceipt, error) {
		var receipt *rpcReceipt
		if err := t.do(ctx, &receipt, "eth_getTransactionReceipt", hash); err != nil {
			return nil, err
		}
		if receipt == nil {
			return nil, errPending
		}
		return receipt, nil
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(t.cfg.ReceiptTimeout),
	)
	if err != nil {
		return ledger.Receipt{}, fmt.Errorf("wait receipt %s: %w", hash.Hex(), err)
	}
	receipt := ledger.Receipt{
		TxHash:      r.TxHash.Hex(),
		BlockNumber: uint64(r.BlockNumber),
		Status:      uint64(r.Status),
	}
	if receipt.Status == 0 {
		return receipt, fmt.Errorf("%s: %w", receipt.TxHash, ErrReverted)
	}
	return receipt, nil
}

// Unlock unlocks address on the node for the duration of one transaction.
func (t *Transport) Unlock(ctx context.Context, address string) error {
	var ok bool
	if err := t.do(ctx, &ok, "personal_unlockAccount", common.HexToAddress(address), t.cfg.Password, 30); err != nil {
		return fmt.Errorf("unlock %s: %w", address, err)
	}
	if !ok {
		return fmt.Errorf("unlock %s: node refused", address)
	}
	return nil
}

// NewAccount creates a node-managed account protected by the configured
// password and returns its address.
func (t *Transport) NewAccount(ctx context.Context) (string, error) {
	var address common.Address
	if err := t.do(ctx, &address, "personal_newAccount", t.cfg.Password); err != nil {
		return "", fmt.Errorf("new account: %w", err)
	}
	return address.Hex(), nil
}

// Close releases the underlying RPC client.
func (t *Transport) Close() {
	if t != nil && t.rpc != nil {
		t.rpc.Close()
	}
}
