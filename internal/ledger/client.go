package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultGas is the gas budget attached to every transaction.
const DefaultGas uint64 = 0x47b760

const tracerName = "github.com/louisbranch/challenge.space/internal/ledger"

// TxOptions are the transport-level settings of one transaction.
type TxOptions struct {
	From       string
	Gas        uint64
	PrivateFor []string
}

// Receipt is the outcome of a mined transaction.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	Status      uint64
}

// Transport is the ledger RPC endpoint. Call is read-only; Send submits a
// transaction and returns once it is mined.
type Transport interface {
	Call(ctx context.Context, contract Contract, method string, args []any) ([]any, error)
	Send(ctx context.Context, contract Contract, method string, args []any, opts TxOptions) (Receipt, error)
}

// InvokeOptions adjust a single write.
type InvokeOptions struct {
	// ExtraArgs are prepended to the method arguments, usually parent keys.
	ExtraArgs []any
	// PrivateFor restricts a private-contract transaction to these node keys.
	PrivateFor []string
}

// Client issues typed reads and writes against ledger contracts on behalf
// of one sender account.
type Client struct {
	transport Transport
	sender    string
	gas       uint64
	tracer    trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithGas overrides DefaultGas.
func WithGas(gas uint64) Option {
	return func(c *Client) {
		if gas > 0 {
			c.gas = gas
		}
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewClient builds a client that signs writes as sender.
func NewClient(transport Transport, sender string, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		sender:    sender,
		gas:       DefaultGas,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sender returns the account address used for writes.
func (c *Client) Sender() string { return c.sender }

// Invoke submits a state-changing call with ExtraArgs prepended to args.
func (c *Client) Invoke(ctx context.Context, contract Contract, method string, args []any, opts InvokeOptions) (Receipt, error) {
	if c == nil || c.transport == nil {
		return Receipt{}, errors.New("ledger client is not configured")
	}
	full := make([]any, 0, len(opts.ExtraArgs)+len(args))
	full = append(full, opts.ExtraArgs...)
	full = append(full, args...)

	ctx, span := c.tracer.Start(ctx, "ledger.send", trace.WithAttributes(
		attribute.String("ledger.contract", string(contract)),
		attribute.String("ledger.method", method),
		attribute.Int("ledger.args", len(full)),
		attribute.Bool("ledger.private", len(opts.PrivateFor) > 0),
	))
	defer span.End()

	receipt, err := c.transport.Send(ctx, contract, method, full, TxOptions{
		From:       c.sender,
		Gas:        c.gas,
		PrivateFor: opts.PrivateFor,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Receipt{}, fmt.Errorf("invoke %s.%s: %w", contract, method, err)
	}
	span.SetAttributes(attribute.String("ledger.tx", receipt.TxHash))
	return receipt, nil
}

// InvokeEntity submits e flattened for the contract's visibility.
func (c *Client) InvokeEntity(ctx context.Context, contract Contract, method string, e Entity, opts InvokeOptions) (Receipt, error) {
	return c.Invoke(ctx, contract, method, Flatten(e, contract.Private()), opts)
}

// Query issues a read-only call and returns the raw positional result.
func (c *Client) Query(ctx context.Context, contract Contract, method string, args ...any) ([]any, error) {
	if c == nil || c.transport == nil {
		return nil, errors.New("ledger client is not configured")
	}
	ctx, span := c.tracer.Start(ctx, "ledger.call", trace.WithAttributes(
		attribute.String("ledger.contract", string(contract)),
		attribute.String("ledger.method", method),
		attribute.Int("ledger.args", len(args)),
	))
	defer span.End()

	out, err := c.transport.Call(ctx, contract, method, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query %s.%s: %w", contract, method, err)
	}
	span.SetAttributes(attribute.Int("ledger.results", len(out)))
	return out, nil
}

// QueryCount reads a scalar count.
func (c *Client) QueryCount(ctx context.Context, contract Contract, method string, args ...any) (int, error) {
	out, err := c.Query(ctx, contract, method, args...)
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	n, err := toInt64(out[0])
	if err != nil {
		return 0, fmt.Errorf("read %s.%s count: %w", contract, method, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("read %s.%s count: negative value %d", contract, method, n)
	}
	return int(n), nil
}

// QueryEntity reads one entity. Grouped entities are read with one call per
// group (method name suffixed by the group name) and a group whose result
// arity differs from its column count fails with a consistency error.
// A nil result means the entity does not exist.
func QueryEntity[T any, PT Record[T]](ctx context.Context, c *Client, contract Contract, method string, args ...any) (*T, error) {
	d := descriptorOf[T, PT]()
	includePrivate := contract.Private()

	if !d.Grouped() {
		out, err := c.Query(ctx, contract, method, args...)
		if err != nil {
			return nil, err
		}
		row, err := decodeColumns(d, d.Columns(includePrivate), out)
		if err != nil {
			return nil, err
		}
		return fromRow[T, PT](d, row), nil
	}

	row := make(Row, len(d.fields))
	for _, g := range d.groups {
		groupMethod := method + g.Name
		out, err := c.Query(ctx, contract, groupMethod, args...)
		if err != nil {
			return nil, err
		}
		cols := d.GroupColumns(g, includePrivate)
		if len(out) != len(cols) {
			return nil, consistencyError(d, fmt.Sprintf("%s.%s returned %d values, want %d", contract, groupMethod, len(out), len(cols)))
		}
		if err := decodeInto(row, d, cols, out); err != nil {
			return nil, err
		}
	}
	return fromRow[T, PT](d, row), nil
}

// QueryEntityList reads prefix+"sCount" and then each index in order with
// prefix(args..., i). An index that does not resolve to an entity is a
// consistency error, so the result length always equals the count.
func QueryEntityList[T any, PT Record[T]](ctx context.Context, c *Client, contract Contract, prefix string, args ...any) ([]T, error) {
	count, err := c.QueryCount(ctx, contract, prefix+"sCount", args...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, count)
	for i := 0; i < count; i++ {
		indexed := make([]any, 0, len(args)+1)
		indexed = append(indexed, args...)
		indexed = append(indexed, int64(i))
		item, err := QueryEntity[T, PT](ctx, c, contract, prefix, indexed...)
		if err != nil {
			return nil, err
		}
		if item == nil {
			d := descriptorOf[T, PT]()
			return nil, consistencyError(d, fmt.Sprintf("%s.%s index %d of %d is empty", contract, prefix, i, count))
		}
		out = append(out, *item)
	}
	return out, nil
}
