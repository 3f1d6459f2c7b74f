package ethrpc

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/louisbranch/challenge.space/internal/ledger"
)

const tagsABI = `[
 {"type":"function","name":"getTagsCount","stateMutability":"view",
  "inputs":[{"name":"owner","type":"string"}],
  "outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"getTag","stateMutability":"view",
  "inputs":[{"name":"owner","type":"string"},{"name":"index","type":"uint256"}],
  "outputs":[{"name":"name","type":"string"},{"name":"score","type":"uint256"},{"name":"weights","type":"uint256[]"}]},
 {"type":"function","name":"createTag","stateMutability":"nonpayable",
  "inputs":[{"name":"owner","type":"string"},{"name":"name","type":"string"},{"name":"score","type":"uint256"},{"name":"weights","type":"uint256[]"}],
  "outputs":[]},
 {"type":"function","name":"setLevel","stateMutability":"nonpayable",
  "inputs":[{"name":"owner","type":"address"},{"name":"level","type":"uint8"},{"name":"code","type":"bytes32"}],
  "outputs":[]}
]`

const contractAddress = "0x00000000000000000000000000000000000000c1"

type storedTag struct {
	name    string
	score   *big.Int
	weights []*big.Int
}

type txMsg struct {
	From       *common.Address `json:"from"`
	To         common.Address  `json:"to"`
	Gas        *hexutil.Uint64 `json:"gas"`
	Data       hexutil.Bytes   `json:"data"`
	PrivateFor []string        `json:"privateFor"`
}

// fakeNode emulates the eth and personal namespaces of one Quorum node for
// the tags contract.
type fakeNode struct {
	abi abi.ABI

	mu           sync.Mutex
	tags         map[string][]storedTag
	txs          []txMsg
	receipts     map[common.Hash]*rpcReceipt
	pendingPolls int
	polls        int
	revert       bool
	unlocked     []string
	accounts     int
}

func newFakeNode(t *testing.T) *fakeNode {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(tagsABI))
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	return &fakeNode{
		abi:      parsed,
		tags:     make(map[string][]storedTag),
		receipts: make(map[common.Hash]*rpcReceipt),
	}
}

type ethAPI struct{ node *fakeNode }

func (api *ethAPI) Call(msg txMsg, _ string) (hexutil.Bytes, error) {
	n := api.node
	method, err := n.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	in, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	switch method.Name {
	case "getTagsCount":
		return method.Outputs.Pack(big.NewInt(int64(len(n.tags[in[0].(string)]))))
	case "getTag":
		list := n.tags[in[0].(string)]
		i := in[1].(*big.Int).Int64()
		if i >= int64(len(list)) {
			return method.Outputs.Pack("", new(big.Int), []*big.Int{})
		}
		tag := list[i]
		return method.Outputs.Pack(tag.name, tag.score, tag.weights)
	}
	return nil, fmt.Errorf("method %s is not callable", method.Name)
}

func (api *ethAPI) SendTransaction(msg txMsg) (common.Hash, error) {
	n := api.node
	method, err := n.abi.MethodById(msg.Data[:4])
	if err != nil {
		return common.Hash{}, err
	}
	in, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return common.Hash{}, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.txs = append(n.txs, msg)
	if method.Name == "createTag" && !n.revert {
		owner := in[0].(string)
		n.tags[owner] = append(n.tags[owner], storedTag{
			name:    in[1].(string),
			score:   in[2].(*big.Int),
			weights: in[3].([]*big.Int),
		})
	}
	hash := common.BigToHash(big.NewInt(int64(len(n.txs))))
	status := hexutil.Uint64(1)
	if n.revert {
		status = 0
	}
	n.receipts[hash] = &rpcReceipt{TxHash: hash, BlockNumber: hexutil.Uint64(len(n.txs)), Status: status}
	return hash, nil
}

func (api *ethAPI) GetTransactionReceipt(hash common.Hash) (*rpcReceipt, error) {
	n := api.node
	n.mu.Lock()
	defer n.mu.Unlock()
	n.polls++
	if n.polls <= n.pendingPolls {
		return nil, nil
	}
	return n.receipts[hash], nil
}

type personalAPI struct{ node *fakeNode }

func (api *personalAPI) UnlockAccount(address common.Address, password string, _ uint64) (bool, error) {
	if password != "secret" {
		return false, errors.New("could not decrypt key with given password")
	}
	api.node.mu.Lock()
	defer api.node.mu.Unlock()
	api.node.unlocked = append(api.node.unlocked, address.Hex())
	return true, nil
}

func (api *personalAPI) NewAccount(password string) (common.Address, error) {
	if password == "" {
		return common.Address{}, errors.New("password required")
	}
	api.node.mu.Lock()
	defer api.node.mu.Unlock()
	api.node.accounts++
	return common.BigToAddress(big.NewInt(int64(0xa000 + api.node.accounts))), nil
}

// dial starts an in-process RPC server for the node.
func (n *fakeNode) dial(t *testing.T) *rpc.Client {
	t.Helper()
	server := rpc.NewServer()
	if err := server.RegisterName("eth", &ethAPI{node: n}); err != nil {
		t.Fatalf("register eth: %v", err)
	}
	if err := server.RegisterName("personal", &personalAPI{node: n}); err != nil {
		t.Fatalf("register personal: %v", err)
	}
	client := rpc.DialInProc(server)
	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})
	return client
}

func (n *fakeNode) artifacts() map[ledger.Contract]Artifact {
	return map[ledger.Contract]Artifact{
		ledger.PublicChallenge: {Name: "Tags", ABI: n.abi, Address: common.HexToAddress(contractAddress)},
	}
}

func (n *fakeNode) sentTxs() []txMsg {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]txMsg(nil), n.txs...)
}

// weightedTag is the ledger entity stored by the tags contract.
type weightedTag struct {
	Name    string
	Score   int64
	Weights []int64
}

var weightedTagDescriptor = ledger.NewDescriptor("WeightedTag", "name", []ledger.Field{
	ledger.String("name"),
	ledger.Number("score"),
	ledger.NumberList("weights"),
})

func (weightedTag) Descriptor() *ledger.Descriptor { return weightedTagDescriptor }

func (w weightedTag) ToRow() ledger.Row {
	row := ledger.Row{"name": w.Name}
	if w.Score != 0 {
		row["score"] = w.Score
	}
	if len(w.Weights) > 0 {
		row["weights"] = w.Weights
	}
	return row
}

func (w *weightedTag) FromRow(row ledger.Row) {
	w.Name, _ = row["name"].(string)
	w.Score, _ = row["score"].(int64)
	w.Weights, _ = row["weights"].([]int64)
}

