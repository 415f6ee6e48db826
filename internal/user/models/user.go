package models

import (
	"time"

	"crtracker/pkg/domain"
)

// UserStatus is the account state; only active members submit reports.
type UserStatus string

const (
	UserActive    UserStatus = "ACTIVE"
	UserInactive  UserStatus = "INACTIVE"
	UserSuspended UserStatus = "SUSPENDED"
)

// User is a member of the organization. SupervisorID is the person-to-person
// edge (a Fidele's FD); GroupID places the user in the containment tree, which
// is orthogonal to the supervisor edge.
type User struct {
	ID           domain.UserID
	Email        string
	FirstName    string
	LastName     string
	Role         domain.Role
	SupervisorID *domain.UserID
	GroupID      *domain.GroupID
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive reports whether the user may act in the system.
func (u *User) IsActive() bool { return u.Status == UserActive }

// Group is a house group, the leaf of the four-level containment tree
// (region, zone, local unit, house group). ParentUnitID points one level up.
type Group struct {
	ID           domain.GroupID
	Name         string
	ParentUnitID domain.GroupID
}
