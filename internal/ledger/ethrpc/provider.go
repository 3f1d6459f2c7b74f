package ethrpc

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/louisbranch/challenge.space/internal/ledger"
)

// DialFunc opens an RPC client for a node URL.
type DialFunc func(ctx context.Context, url string) (RPCClient, error)

// DefaultDial dials with go-ethereum's rpc package.
func DefaultDial(ctx context.Context, url string) (RPCClient, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Provider hands out ledger clients bound to the node that serves a role.
// Node connections are opened lazily and shared.
type Provider struct {
	network   Network
	artifacts map[ledger.Contract]Artifact
	cfg       Config
	dial      DialFunc
	opts      []ledger.Option

	mu         sync.Mutex
	transports map[string]*Transport
}

// NewProvider builds a provider. A nil dial uses DefaultDial.
func NewProvider(network Network, artifacts map[ledger.Contract]Artifact, cfg Config, dial DialFunc, opts ...ledger.Option) *Provider {
	if dial == nil {
		dial = DefaultDial
	}
	return &Provider{
		network:    network,
		artifacts:  artifacts,
		cfg:        cfg,
		dial:       dial,
		opts:       opts,
		transports: make(map[string]*Transport),
	}
}

func (p *Provider) transport(ctx context.Context, nodeName string) (*Transport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.transports[nodeName]; ok {
		return t, nil
	}
	node, ok := p.network.Nodes[nodeName]
	if !ok {
		return nil, fmt.Errorf("unknown node %s", nodeName)
	}
	client, err := p.dial(ctx, node.URL)
	if err != nil {
		return nil, fmt.Errorf("dial node %s: %w", nodeName, err)
	}
	t := NewTransport(client, p.artifacts, p.cfg)
	p.transports[nodeName] = t
	return t, nil
}

// Client returns a ledger client that signs as address through the node
// serving role.
func (p *Provider) Client(ctx context.Context, role, address string) (*ledger.Client, error) {
	nodeName, _, err := p.network.NodeFor(role)
	if err != nil {
		return nil, err
	}
	t, err := p.transport(ctx, nodeName)
	if err != nil {
		return nil, err
	}
	return ledger.NewClient(t, address, p.opts...), nil
}

// System returns the client used for unattended writes, signed by the
// system node's coinbase.
func (p *Provider) System(ctx context.Context) (*ledger.Client, error) {
	t, err := p.transport(ctx, p.network.SystemNode)
	if err != nil {
		return nil, err
	}
	return ledger.NewClient(t, p.network.Nodes[p.network.SystemNode].Coinbase, p.opts...), nil
}

// PrivateFor returns the node keys private writes by role are shared with.
func (p *Provider) PrivateFor(role string) []string {
	return p.network.PeerKeys(role)
}

// NewAccount creates a ledger account on the node serving role.
func (p *Provider) NewAccount(ctx context.Context, role string) (string, error) {
	nodeName, _, err := p.network.NodeFor(role)
	if err != nil {
		return "", err
	}
	t, err := p.transport(ctx, nodeName)
	if err != nil {
		return "", err
	}
	return t.NewAccount(ctx)
}

// Close releases every node connection.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, t := range p.transports {
		t.Close()
		delete(p.transports, name)
	}
}
