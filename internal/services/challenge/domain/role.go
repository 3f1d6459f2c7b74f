package domain

// Role is a user's role across the ledger network.
type Role string

const (
	RoleManager  Role = "manager"
	RoleClient   Role = "client"
	RoleCopilot  Role = "copilot"
	RoleReviewer Role = "reviewer"
	RoleMember   Role = "member"
)

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleManager, RoleClient, RoleCopilot, RoleReviewer, RoleMember}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range Roles() {
		if r == known {
			return true
		}
	}
	return false
}

// Requester is the resolved identity behind a call. A nil *Requester is an
// anonymous caller.
type Requester struct {
	MemberID string
	Role     Role
	Address  string
}

// Is reports whether the requester has role. It is false for anonymous callers.
func (r *Requester) Is(role Role) bool {
	return r != nil && r.Role == role
}
