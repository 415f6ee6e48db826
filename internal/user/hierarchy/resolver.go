// Package hierarchy resolves a viewer's subordinate set from the supervisor
// and role structure. Role alone decides whether a (viewer, owner) pair is
// permitted; this package is the collaborator that enumerates the tree and
// answers membership questions against it.
package hierarchy

import (
	"context"
	"fmt"

	"crtracker/internal/user/models"
	"crtracker/internal/user/store"
	"crtracker/pkg/domain"
)

// Resolver walks the supervisor/group structure held in the user store.
type Resolver struct {
	users store.UserStore
}

// New builds a resolver over the given user store.
func New(users store.UserStore) *Resolver {
	return &Resolver{users: users}
}

// Subordinates returns the users whose reports the viewer may see, including
// the viewer. A FIDELE sees only themselves; an FD adds their direct
// supervisees; LEADER, PASTEUR and ADMIN see every role at or below their
// own level.
func (r *Resolver) Subordinates(ctx context.Context, viewer *models.User) ([]*models.User, error) {
	switch viewer.Role {
	case domain.RoleFidele:
		return []*models.User{viewer}, nil

	case domain.RoleFD:
		supervisees, err := r.users.FindBySupervisorID(ctx, viewer.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve supervisees of %s: %w", viewer.ID, err)
		}
		return append([]*models.User{viewer}, supervisees...), nil

	default:
		var out []*models.User
		seen := make(map[domain.UserID]bool)
		for _, role := range domain.RolesAtOrBelow(viewer.Role) {
			users, err := r.users.FindByRole(ctx, role)
			if err != nil {
				return nil, fmt.Errorf("resolve %s users: %w", role, err)
			}
			for _, u := range users {
				if !seen[u.ID] {
					seen[u.ID] = true
					out = append(out, u)
				}
			}
		}
		if !seen[viewer.ID] {
			out = append(out, viewer)
		}
		return out, nil
	}
}

// IsInSubtree answers whether owner falls inside the viewer's resolved
// subordinate set, without enumerating it. This is the boolean the use-case
// layer feeds into the CanView rule.
func (r *Resolver) IsInSubtree(ctx context.Context, viewer *models.User, ownerID domain.UserID) (bool, error) {
	if viewer.ID == ownerID {
		return true, nil
	}

	switch viewer.Role {
	case domain.RoleFidele:
		return false, nil

	case domain.RoleFD:
		owner, err := r.users.FindByID(ctx, ownerID)
		if err != nil {
			return false, fmt.Errorf("resolve owner %s: %w", ownerID, err)
		}
		return owner.SupervisorID != nil && *owner.SupervisorID == viewer.ID, nil

	case domain.RoleAdmin:
		return true, nil

	default: // LEADER, PASTEUR
		owner, err := r.users.FindByID(ctx, ownerID)
		if err != nil {
			return false, fmt.Errorf("resolve owner %s: %w", ownerID, err)
		}
		return owner.Role.Level() <= viewer.Role.Level(), nil
	}
}

// GroupMembers lists the members of a house group, for group statistics.
func (r *Resolver) GroupMembers(ctx context.Context, groupID domain.GroupID) ([]*models.User, error) {
	members, err := r.users.FindByGroupID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("resolve group %s members: %w", groupID, err)
	}
	return members, nil
}
