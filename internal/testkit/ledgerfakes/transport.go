// Package ledgerfakes provides a scripted in-memory ledger transport for tests.
package ledgerfakes

import (
	"context"
	"fmt"
	"sync"

	"github.com/louisbranch/challenge.space/internal/ledger"
)

// Call records one read issued against the fake.
type Call struct {
	Contract ledger.Contract
	Method   string
	Args     []any
}

// Send records one transaction submitted to the fake.
type Send struct {
	Contract ledger.Contract
	Method   string
	Args     []any
	Opts     ledger.TxOptions
}

// Transport answers reads from seeded results keyed by contract, method and
// arguments, and records every write. Unseeded reads fail.
type Transport struct {
	mu       sync.Mutex
	results  map[string][]any
	callErrs map[string]error
	sendErrs map[string]error
	calls    []Call
	sends    []Send
	// OnSend, when set, runs after a successful send is recorded.
	OnSend func(Send)
}

// New returns an empty fake transport.
func New() *Transport {
	return &Transport{
		results:  make(map[string][]any),
		callErrs: make(map[string]error),
		sendErrs: make(map[string]error),
	}
}

func key(contract ledger.Contract, method string, args []any) string {
	return fmt.Sprintf("%s.%s%v", contract, method, normalize(args))
}

func methodKey(contract ledger.Contract, method string) string {
	return string(contract) + "." + method
}

// normalize folds Go integer types together so seeds written with int
// match calls issued with int64.
func normalize(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case int:
			out[i] = int64(v)
		case int32:
			out[i] = int64(v)
		case uint64:
			out[i] = int64(v)
		default:
			out[i] = a
		}
	}
	return out
}

// SetResult seeds the raw result of one read.
func (t *Transport) SetResult(contract ledger.Contract, method string, args []any, result ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results[key(contract, method, args)] = append([]any(nil), result...)
}

// SeedEntity seeds the reads that QueryEntity issues for e, splitting the
// tuple across group methods when the entity is grouped.
func (t *Transport) SeedEntity(contract ledger.Contract, method string, args []any, e ledger.Entity) {
	d := e.Descriptor()
	tuple := ledger.Flatten(e, contract.Private())
	if !d.Grouped() {
		t.SetResult(contract, method, args, tuple...)
		return
	}
	offset := 0
	for _, g := range d.Groups() {
		n := len(d.GroupColumns(g, contract.Private()))
		t.SetResult(contract, method+g.Name, args, tuple[offset:offset+n]...)
		offset += n
	}
}

// SeedMissing seeds zero-valued results for an entity that does not exist.
func (t *Transport) SeedMissing(contract ledger.Contract, method string, args []any, d *ledger.Descriptor) {
	zeros := func(cols []ledger.Field) []any {
		out := make([]any, 0, len(cols))
		for _, f := range cols {
			switch f.Kind {
			case ledger.KindString:
				out = append(out, "")
			case ledger.KindNumberList:
				out = append(out, []int64{})
			default:
				out = append(out, int64(0))
			}
		}
		return out
	}
	if !d.Grouped() {
		t.SetResult(contract, method, args, zeros(d.Columns(contract.Private()))...)
		return
	}
	for _, g := range d.Groups() {
		t.SetResult(contract, method+g.Name, args, zeros(d.GroupColumns(g, contract.Private()))...)
	}
}

// SeedList seeds the count and every indexed read QueryEntityList issues.
func (t *Transport) SeedList(contract ledger.Contract, prefix string, args []any, entities ...ledger.Entity) {
	t.SetResult(contract, prefix+"sCount", args, int64(len(entities)))
	for i, e := range entities {
		indexed := append(append([]any(nil), args...), int64(i))
		t.SeedEntity(contract, prefix, indexed, e)
	}
}

// FailCall makes every read of contract.method fail with err.
func (t *Transport) FailCall(contract ledger.Contract, method string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callErrs[methodKey(contract, method)] = err
}

// FailSend makes every write of contract.method fail with err.
func (t *Transport) FailSend(contract ledger.Contract, method string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sendErrs[methodKey(contract, method)] = err
}

// Call implements ledger.Transport.
func (t *Transport) Call(_ context.Context, contract ledger.Contract, method string, args []any) ([]any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, Call{Contract: contract, Method: method, Args: append([]any(nil), args...)})
	if err := t.callErrs[methodKey(contract, method)]; err != nil {
		return nil, err
	}
	result, ok := t.results[key(contract, method, args)]
	if !ok {
		return nil, fmt.Errorf("ledgerfakes: no result seeded for %s", key(contract, method, args))
	}
	return append([]any(nil), result...), nil
}

// Send implements ledger.Transport.
func (t *Transport) Send(_ context.Context, contract ledger.Contract, method string, args []any, opts ledger.TxOptions) (ledger.Receipt, error) {
	t.mu.Lock()
	if err := t.sendErrs[methodKey(contract, method)]; err != nil {
		t.mu.Unlock()
		return ledger.Receipt{}, err
	}
	send := Send{Contract: contract, Method: method, Args: append([]any(nil), args...), Opts: opts}
	t.sends = append(t.sends, send)
	n := uint64(len(t.sends))
	hook := t.OnSend
	t.mu.Unlock()

	if hook != nil {
		hook(send)
	}
	return ledger.Receipt{TxHash: fmt.Sprintf("0x%064x", n), BlockNumber: n, Status: 1}, nil
}

// Calls returns every recorded read in order.
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Call(nil), t.calls...)
}

// Sends returns every recorded write in order.
func (t *Transport) Sends() []Send {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Send(nil), t.sends...)
}

// SendsTo returns the recorded writes of one method.
func (t *Transport) SendsTo(contract ledger.Contract, method string) []Send {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Send
	for _, s := range t.sends {
		if s.Contract == contract && s.Method == method {
			out = append(out, s)
		}
	}
	return out
}
