package ledger

import (
	"fmt"

	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
)

// Row is the named form of an entity. Values are int64 for number fields,
// string for string fields and []int64 for number lists. A missing key or
// nil value is absent.
type Row map[string]any

// Tuple is the positional form exchanged with the ledger.
type Tuple []any

// Entity is implemented by every entity kind stored on the ledger.
type Entity interface {
	Descriptor() *Descriptor
	ToRow() Row
}

// Record is the pointer constraint used by the generic readers: *T must be
// an Entity that can be rebuilt from a Row.
type Record[T any] interface {
	*T
	Entity
	FromRow(Row)
}

// Flatten produces the positional arguments for e. Private fields are
// omitted unless includePrivate; absent values become 0, "" or an empty list.
func Flatten(e Entity, includePrivate bool) Tuple {
	d := e.Descriptor()
	row := e.ToRow()
	cols := d.Columns(includePrivate)
	out := make(Tuple, 0, len(cols))
	for _, f := range cols {
		out = append(out, wireValue(f, row[f.Name]))
	}
	return out
}

func wireValue(f Field, v any) any {
	switch f.Kind {
	case KindNumber:
		if n, ok := v.(int64); ok {
			return n
		}
		return int64(0)
	case KindString:
		if s, ok := v.(string); ok {
			return s
		}
		return ""
	default:
		if list, ok := v.([]int64); ok {
			return append([]int64{}, list...)
		}
		return []int64{}
	}
}

// Populate rebuilds an entity from a tuple laid out like Flatten's output.
// It returns nil when the identity field is absent, the canonical
// "not found" answer of every ledger read.
func Populate[T any, PT Record[T]](tuple Tuple, includePrivate bool) (*T, error) {
	d := descriptorOf[T, PT]()
	row, err := decodeColumns(d, d.Columns(includePrivate), tuple)
	if err != nil {
		return nil, err
	}
	return fromRow[T, PT](d, row), nil
}

func descriptorOf[T any, PT Record[T]]() *Descriptor {
	var zero T
	return PT(&zero).Descriptor()
}

func fromRow[T any, PT Record[T]](d *Descriptor, row Row) *T {
	if row[d.Identity()] == nil {
		return nil
	}
	var v T
	PT(&v).FromRow(row)
	return &v
}

// decodeColumns coerces values against cols. Zero values decode as absent.
func decodeColumns(d *Descriptor, cols []Field, values []any) (Row, error) {
	if len(values) < len(cols) {
		return nil, consistencyError(d, fmt.Sprintf("expected %d columns, got %d", len(cols), len(values)))
	}
	row := make(Row, len(cols))
	if err := decodeInto(row, d, cols, values); err != nil {
		return nil, err
	}
	return row, nil
}

func decodeInto(row Row, d *Descriptor, cols []Field, values []any) error {
	for i, f := range cols {
		v, err := coerce(f.Kind, values[i])
		if err != nil {
			return consistencyError(d, fmt.Sprintf("column %s: %v", f.Name, err))
		}
		if v != nil {
			row[f.Name] = v
		}
	}
	return nil
}

func consistencyError(d *Descriptor, detail string) error {
	return apperrors.WithMetadata(apperrors.CodeConsistency,
		fmt.Sprintf("ledger %s: %s", d.Name(), detail),
		map[string]string{"Entity": d.Name()},
	)
}
