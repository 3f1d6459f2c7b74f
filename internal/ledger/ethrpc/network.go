package ethrpc

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Node is one Quorum node that users of some roles transact through.
type Node struct {
	URL      string `yaml:"url"`
	NodeKey  string `yaml:"nodeKey"`
	Coinbase string `yaml:"coinbase"`
}

// Network is the ledger topology: nodes, which node serves each role, and
// which nodes each role shares private transactions with.
type Network struct {
	NetworkID  string              `yaml:"networkId"`
	Nodes      map[string]Node     `yaml:"nodes"`
	Roles      map[string]string   `yaml:"roles"`
	PrivateFor map[string][]string `yaml:"privateFor"`
	// SystemNode signs scheduler writes with its coinbase account.
	SystemNode string `yaml:"systemNode"`
}

func defaultRoles() map[string]string {
	return map[string]string{
		"manager":  "topcoder",
		"client":   "client",
		"copilot":  "moderator",
		"reviewer": "moderator",
		"member":   "member",
	}
}

func defaultPrivateFor() map[string][]string {
	return map[string][]string{
		"manager": {"client"},
		"client":  {"topcoder"},
	}
}

// ParseNetwork decodes a YAML topology and fills role defaults.
func ParseNetwork(data []byte) (Network, error) {
	var n Network
	if err := yaml.Unmarshal(data, &n); err != nil {
		return Network{}, fmt.Errorf("decode network: %w", err)
	}
	if n.Roles == nil {
		n.Roles = defaultRoles()
	}
	if n.PrivateFor == nil {
		n.PrivateFor = defaultPrivateFor()
	}
	if n.SystemNode == "" {
		n.SystemNode = "topcoder"
	}
	if err := n.Validate(); err != nil {
		return Network{}, err
	}
	return n, nil
}

// LoadNetwork reads and parses a topology file.
func LoadNetwork(path string) (Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Network{}, fmt.Errorf("read network file: %w", err)
	}
	return ParseNetwork(data)
}

// Validate checks that every referenced node exists and has a URL.
func (n Network) Validate() error {
	if len(n.Nodes) == 0 {
		return fmt.Errorf("network has no nodes")
	}
	for name, node := range n.Nodes {
		if strings.TrimSpace(node.URL) == "" {
			return fmt.Errorf("node %s has no url", name)
		}
	}
	for role, nodeName := range n.Roles {
		if _, ok := n.Nodes[nodeName]; !ok {
			return fmt.Errorf("role %s maps to unknown node %s", role, nodeName)
		}
	}
	for role, peers := range n.PrivateFor {
		for _, peer := range peers {
			if _, ok := n.Nodes[peer]; !ok {
				return fmt.Errorf("privateFor of %s names unknown node %s", role, peer)
			}
		}
	}
	if _, ok := n.Nodes[n.SystemNode]; !ok {
		return fmt.Errorf("system node %s is not defined", n.SystemNode)
	}
	return nil
}

// NodeFor returns the node name and node serving role.
func (n Network) NodeFor(role string) (string, Node, error) {
	name, ok := n.Roles[role]
	if !ok {
		return "", Node{}, fmt.Errorf("no node for role %q", role)
	}
	return name, n.Nodes[name], nil
}

// PeerKeys returns the node keys a private transaction from role is shared with.
func (n Network) PeerKeys(role string) []string {
	peers := n.PrivateFor[role]
	if len(peers) == 0 {
		return nil
	}
	keys := make([]string, 0, len(peers))
	for _, peer := range peers {
		if key := n.Nodes[peer].NodeKey; key != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
