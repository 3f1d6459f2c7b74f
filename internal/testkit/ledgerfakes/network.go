package ledgerfakes

import (
	"context"
	"fmt"
	"sync"

	"github.com/louisbranch/challenge.space/internal/ledger"
)

// SystemAddress is the account the fake network uses for system clients.
const SystemAddress = "0x9186eb3d20cbd1f5f992a950d808c4495153abd5"

// Network hands out clients that all share one fake transport, so a test
// seeds state once and inspects writes from every requester.
type Network struct {
	Transport *Transport
	// Peers maps a role to its private-contract recipients.
	Peers map[string][]string
	// AccountErr, when set, fails NewAccount.
	AccountErr error

	mu       sync.Mutex
	accounts []string
	clients  []string
}

// NewNetwork returns a network over transport with the default manager and
// client peers.
func NewNetwork(transport *Transport) *Network {
	return &Network{
		Transport: transport,
		Peers: map[string][]string{
			"manager": {"client-node-key"},
			"client":  {"topcoder-node-key"},
		},
	}
}

// Client returns a client that signs as address.
func (n *Network) Client(_ context.Context, role, address string) (*ledger.Client, error) {
	n.mu.Lock()
	n.clients = append(n.clients, role+":"+address)
	n.mu.Unlock()
	return ledger.NewClient(n.Transport, address), nil
}

// System returns a client that signs as SystemAddress.
func (n *Network) System(ctx context.Context) (*ledger.Client, error) {
	return ledger.NewClient(n.Transport, SystemAddress), nil
}

// PrivateFor returns the configured peers of role.
func (n *Network) PrivateFor(role string) []string {
	return append([]string(nil), n.Peers[role]...)
}

// NewAccount returns a deterministic fresh address.
func (n *Network) NewAccount(_ context.Context, role string) (string, error) {
	if n.AccountErr != nil {
		return "", n.AccountErr
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	addr := fmt.Sprintf("0x%040x", len(n.accounts)+1)
	n.accounts = append(n.accounts, role+":"+addr)
	return addr, nil
}

// Accounts returns every created account as "role:address".
func (n *Network) Accounts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.accounts...)
}

// Clients returns every requested requester client as "role:address".
func (n *Network) Clients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.clients...)
}
