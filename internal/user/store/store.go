// Package store defines the persistence contract for users. As with reports,
// the cached and plain implementations are interchangeable.
package store

import (
	"context"

	"crtracker/internal/user/models"
	"crtracker/pkg/domain"
)

// UserStore follows the store error contract: ErrNotFound for missing users,
// ErrConflict when an insert collides with an existing email.
type UserStore interface {
	Save(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id domain.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByGroupID(ctx context.Context, groupID domain.GroupID) ([]*models.User, error)
	FindBySupervisorID(ctx context.Context, supervisorID domain.UserID) ([]*models.User, error)
	FindByRole(ctx context.Context, role domain.Role) ([]*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountBySupervisorID(ctx context.Context, supervisorID domain.UserID) (int64, error)
}
