package ledger

import (
	"fmt"
	"sort"
)

// RoleGate records which addresses hold which roles. Only the ledger's
// admin-gated operations mutate it; changes apply to the next operation.
type RoleGate struct {
	members map[Role]map[Address]struct{}
}

// NewRoleGate returns a gate with no members.
func NewRoleGate() *RoleGate {
	return &RoleGate{members: make(map[Role]map[Address]struct{})}
}

// HasRole reports whether account holds role.
func (g *RoleGate) HasRole(role Role, account Address) bool {
	_, ok := g.members[role][account]
	return ok
}

// IsLockExempt reports whether account is excused from lock buckets.
func (g *RoleGate) IsLockExempt(account Address) bool {
	return g.HasRole(RoleLockExempt, account)
}

// Members returns the holders of role in address order.
func (g *RoleGate) Members(role Role) []Address {
	set := g.members[role]
	out := make([]Address, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

// RolesOf lists every role account holds, in declaration order.
func (g *RoleGate) RolesOf(account Address) []Role {
	var out []Role
	for _, r := range AllRoles {
		if g.HasRole(r, account) {
			out = append(out, r)
		}
	}
	return out
}

func (g *RoleGate) requireRole(role Role, caller Address) error {
	if !g.HasRole(role, caller) {
		return fmt.Errorf("%w: %s lacks %s", ErrUnauthorized, caller, role)
	}
	return nil
}

// grant adds account to role and reports whether membership changed.
func (g *RoleGate) grant(role Role, account Address) bool {
	set, ok := g.members[role]
	if !ok {
		set = make(map[Address]struct{})
		g.members[role] = set
	}
	if _, held := set[account]; held {
		return false
	}
	set[account] = struct{}{}
	return true
}

// revoke removes account from role and reports whether membership changed.
func (g *RoleGate) revoke(role Role, account Address) bool {
	set := g.members[role]
	if _, held := set[account]; !held {
		return false
	}
	delete(set, account)
	if len(set) == 0 {
		delete(g.members, role)
	}
	return true
}
