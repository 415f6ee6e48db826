package domain

import dErrors "crtracker/pkg/domainerrors"

// Role is the position of a user in the supervision hierarchy. Roles are
// totally ordered by level; supervision and report visibility are pure
// predicates over that order.
//
// Usage: construct via ParseRole at trust boundaries to enforce the allowlist;
// direct casting bypasses validation.
type Role string

// The five roles, lowest to highest.
const (
	RoleFidele  Role = "FIDELE"
	RoleFD      Role = "FD"
	RoleLeader  Role = "LEADER"
	RolePasteur Role = "PASTEUR"
	RoleAdmin   Role = "ADMIN"
)

// roleLevels is the single source of truth for valid roles and their order.
var roleLevels = map[Role]int{
	RoleFidele:  1,
	RoleFD:      2,
	RoleLeader:  3,
	RolePasteur: 4,
	RoleAdmin:   5,
}

// ParseRole constructs a Role from external input.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidValue, "unknown role %q", s)
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Level returns the hierarchy level, 1 (FIDELE) through 5 (ADMIN).
// An unknown role has level 0 and loses every comparison.
func (r Role) Level() int { return roleLevels[r] }

// CanSupervise reports whether r sits strictly above other in the hierarchy.
func (r Role) CanSupervise(other Role) bool {
	return r.Level() > other.Level()
}

// CanViewReportsOf decides whether a holder of r may see reports owned by a
// holder of other:
//   - FIDELE sees only its own (owner check is the caller's job)
//   - FD sees FIDELE and its own
//   - LEADER and PASTEUR see any role at or below their own level
//   - ADMIN sees everyone
func (r Role) CanViewReportsOf(other Role) bool {
	switch r {
	case RoleFidele:
		return other == RoleFidele
	case RoleFD:
		return other == RoleFidele || other == RoleFD
	case RoleLeader, RolePasteur:
		return other.IsValid() && other.Level() <= r.Level()
	case RoleAdmin:
		return other.IsValid()
	default:
		return false
	}
}

// String returns the string representation of the role.
func (r Role) String() string { return string(r) }

// Roles returns all supported roles in ascending hierarchy order.
func Roles() []Role {
	return []Role{RoleFidele, RoleFD, RoleLeader, RolePasteur, RoleAdmin}
}

// RolesAtOrBelow returns every role whose level is <= the given role's level,
// in ascending order. Used when resolving a supervisor's subordinate set.
func RolesAtOrBelow(r Role) []Role {
	out := make([]Role, 0, len(roleLevels))
	for _, candidate := range Roles() {
		if candidate.Level() <= r.Level() {
			out = append(out, candidate)
		}
	}
	return out
}
