package domain

import "github.com/louisbranch/challenge.space/internal/ledger"

// StatusRegistered marks an active member or reviewer registration.
const StatusRegistered int64 = 1

var memberDescriptor = ledger.NewDescriptor("ChallengeMember", "id", []ledger.Field{
	ledger.String("id"),
	ledger.Number("status"),
})

var reviewerDescriptor = ledger.NewDescriptor("ChallengeReviewer", "id", []ledger.Field{
	ledger.String("id"),
	ledger.Number("status"),
})

// Member is a member's registration on a challenge.
type Member struct {
	ID     string
	Status int64
}

func (Member) Descriptor() *ledger.Descriptor { return memberDescriptor }

func (m Member) ToRow() ledger.Row {
	row := ledger.Row{}
	putString(row, "id", m.ID)
	putNumber(row, "status", m.Status)
	return row
}

func (m *Member) FromRow(row ledger.Row) {
	m.ID = rowString(row, "id")
	m.Status = rowNumber(row, "status")
}

// Registered reports whether the registration is active.
func (m Member) Registered() bool { return m.Status == StatusRegistered }

// Reviewer is a reviewer's assignment on a challenge.
type Reviewer struct {
	ID     string
	Status int64
}

func (Reviewer) Descriptor() *ledger.Descriptor { return reviewerDescriptor }

func (r Reviewer) ToRow() ledger.Row {
	row := ledger.Row{}
	putString(row, "id", r.ID)
	putNumber(row, "status", r.Status)
	return row
}

func (r *Reviewer) FromRow(row ledger.Row) {
	r.ID = rowString(row, "id")
	r.Status = rowNumber(row, "status")
}
