package domain

import "github.com/louisbranch/challenge.space/internal/ledger"

var userDescriptor = ledger.NewDescriptor("User", "memberId", []ledger.Field{
	ledger.String("memberId"),
	ledger.String("memberEmail"),
	ledger.String("role"),
	ledger.String("memberAddress"),
})

// User is a registered participant and its ledger account.
type User struct {
	MemberID string
	Email    string
	Role     Role
	Address  string
}

func (User) Descriptor() *ledger.Descriptor { return userDescriptor }

func (u User) ToRow() ledger.Row {
	row := ledger.Row{}
	putString(row, "memberId", u.MemberID)
	putString(row, "memberEmail", u.Email)
	putString(row, "role", string(u.Role))
	putString(row, "memberAddress", u.Address)
	return row
}

func (u *User) FromRow(row ledger.Row) {
	u.MemberID = rowString(row, "memberId")
	u.Email = rowString(row, "memberEmail")
	u.Role = Role(rowString(row, "role"))
	u.Address = rowString(row, "memberAddress")
}

// Requester returns the identity the user acts as.
func (u User) Requester() *Requester {
	return &Requester{MemberID: u.MemberID, Role: u.Role, Address: u.Address}
}
