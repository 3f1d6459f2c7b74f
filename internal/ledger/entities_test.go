package ledger_test

import "github.com/louisbranch/challenge.space/internal/ledger"

// budget mirrors a grouped record with a private column.
type budget struct {
	ID      string
	Owner   string
	Amounts []int64
	Secret  *int64
	Note    string
}

var budgetDescriptor = ledger.NewDescriptor("Budget", "id",
	[]ledger.Field{
		ledger.String("id"),
		ledger.String("owner"),
		ledger.NumberList("amounts"),
		ledger.Number("secret").AsPrivate(),
		ledger.String("note"),
	},
	ledger.Group{Name: "Part1", Fields: []string{"id", "owner"}},
	ledger.Group{Name: "Part2", Fields: []string{"amounts", "secret", "note"}},
)

func (budget) Descriptor() *ledger.Descriptor { return budgetDescriptor }

func (b budget) ToRow() ledger.Row {
	row := ledger.Row{"id": b.ID, "owner": b.Owner, "note": b.Note}
	if len(b.Amounts) > 0 {
		row["amounts"] = b.Amounts
	}
	if b.Secret != nil {
		row["secret"] = *b.Secret
	}
	return row
}

func (b *budget) FromRow(row ledger.Row) {
	b.ID, _ = row["id"].(string)
	b.Owner, _ = row["owner"].(string)
	b.Note, _ = row["note"].(string)
	b.Amounts, _ = row["amounts"].([]int64)
	if n, ok := row["secret"].(int64); ok {
		b.Secret = &n
	}
}

// tag is a flat two-column record.
type tag struct {
	Name  string
	Score int64
}

var tagDescriptor = ledger.NewDescriptor("Tag", "name",
	[]ledger.Field{ledger.String("name"), ledger.Number("score")},
)

func (tag) Descriptor() *ledger.Descriptor { return tagDescriptor }

func (t tag) ToRow() ledger.Row {
	row := ledger.Row{"name": t.Name}
	if t.Score != 0 {
		row["score"] = t.Score
	}
	return row
}

func (t *tag) FromRow(row ledger.Row) {
	t.Name, _ = row["name"].(string)
	t.Score, _ = row["score"].(int64)
}

func int64Ptr(v int64) *int64 { return &v }
