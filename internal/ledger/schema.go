// Package ledger converts typed entities to and from the positional tuples
// that ledger contract methods accept and return, and issues those calls.
package ledger

import "fmt"

// Kind is the declared wire kind of a field.
type Kind int

const (
	// KindNumber is an integer column (uint256 on the ledger side).
	KindNumber Kind = iota
	// KindString is a string column.
	KindString
	// KindNumberList is an array-of-integers column.
	KindNumberList
)

// String returns a readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindNumberList:
		return "number list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field is one positional column of an entity.
type Field struct {
	Name    string
	Kind    Kind
	Private bool
}

// Number declares a public number column.
func Number(name string) Field { return Field{Name: name, Kind: KindNumber} }

// String declares a public string column.
func String(name string) Field { return Field{Name: name, Kind: KindString} }

// NumberList declares a public number-list column.
func NumberList(name string) Field { return Field{Name: name, Kind: KindNumberList} }

// AsPrivate marks the column as present only on private contracts.
func (f Field) AsPrivate() Field {
	f.Private = true
	return f
}

// Group is a named, ordered subset of columns read through its own method.
type Group struct {
	Name   string
	Fields []string
}

// Descriptor is the immutable positional schema of one entity kind.
// Field order is the ledger method signature and must not change without
// a matching contract migration.
type Descriptor struct {
	name     string
	identity string
	fields   []Field
	groups   []Group
	index    map[string]int
}

// NewDescriptor builds a descriptor and panics on a malformed schema:
// duplicate names, an unknown identity, or groups that do not partition
// the fields in declared order.
func NewDescriptor(name, identity string, fields []Field, groups ...Group) *Descriptor {
	d := &Descriptor{
		name:     name,
		identity: identity,
		fields:   append([]Field(nil), fields...),
		groups:   append([]Group(nil), groups...),
		index:    make(map[string]int, len(fields)),
	}
	for i, f := range d.fields {
		if _, dup := d.index[f.Name]; dup {
			panic(fmt.Sprintf("ledger: %s: duplicate field %q", name, f.Name))
		}
		d.index[f.Name] = i
	}
	idField, ok := d.index[identity]
	if !ok {
		panic(fmt.Sprintf("ledger: %s: identity %q is not a field", name, identity))
	}
	if d.fields[idField].Private {
		panic(fmt.Sprintf("ledger: %s: identity %q cannot be private", name, identity))
	}
	if len(d.groups) > 0 {
		next := 0
		for _, g := range d.groups {
			for _, fieldName := range g.Fields {
				if next >= len(d.fields) || d.fields[next].Name != fieldName {
					panic(fmt.Sprintf("ledger: %s: group %s out of declared order at %q", name, g.Name, fieldName))
				}
				next++
			}
		}
		if next != len(d.fields) {
			panic(fmt.Sprintf("ledger: %s: groups cover %d of %d fields", name, next, len(d.fields)))
		}
	}
	return d
}

// Name returns the entity kind name.
func (d *Descriptor) Name() string { return d.name }

// Identity returns the identity field name.
func (d *Descriptor) Identity() string { return d.identity }

// Fields returns every declared field in order.
func (d *Descriptor) Fields() []Field { return append([]Field(nil), d.fields...) }

// Groups returns the declared groups, empty for single-call entities.
func (d *Descriptor) Groups() []Group { return append([]Group(nil), d.groups...) }

// Grouped reports whether reads are split across several methods.
func (d *Descriptor) Grouped() bool { return len(d.groups) > 0 }

// Field looks up a field by name.
func (d *Descriptor) Field(name string) (Field, bool) {
	i, ok := d.index[name]
	if !ok {
		return Field{}, false
	}
	return d.fields[i], true
}

// Columns returns the fields that appear on the wire, in declared order.
func (d *Descriptor) Columns(includePrivate bool) []Field {
	return filterColumns(d.fields, includePrivate)
}

// GroupColumns returns the wire fields of one group.
func (d *Descriptor) GroupColumns(g Group, includePrivate bool) []Field {
	fields := make([]Field, 0, len(g.Fields))
	for _, name := range g.Fields {
		fields = append(fields, d.fields[d.index[name]])
	}
	return filterColumns(fields, includePrivate)
}

func filterColumns(fields []Field, includePrivate bool) []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Private && !includePrivate {
			continue
		}
		out = append(out, f)
	}
	return out
}
