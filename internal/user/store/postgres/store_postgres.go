// Package postgres implements the user store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"crtracker/internal/user/models"
	"crtracker/internal/user/store"
	"crtracker/pkg/domain"
	"crtracker/pkg/platform/sentinel"
	"crtracker/pkg/platform/tx"
)

const uniqueViolation = "23505"

// Store implements store.UserStore via database/sql + lib/pq.
//
// Expected schema:
//
//	CREATE TABLE users (
//	    id            UUID PRIMARY KEY,
//	    email         TEXT NOT NULL UNIQUE,
//	    first_name    TEXT NOT NULL DEFAULT '',
//	    last_name     TEXT NOT NULL DEFAULT '',
//	    role          TEXT NOT NULL,
//	    supervisor_id UUID,
//	    group_id      UUID,
//	    status        TEXT NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL
//	);
type Store struct {
	db *sql.DB
}

var _ store.UserStore = (*Store)(nil)

// New creates a PostgreSQL-backed user store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const userColumns = `id, email, first_name, last_name, role, supervisor_id, group_id, status, created_at, updated_at`

func (s *Store) Save(ctx context.Context, user *models.User) (*models.User, error) {
	var supervisorID, groupID sql.NullString
	if user.SupervisorID != nil {
		supervisorID = sql.NullString{String: user.SupervisorID.String(), Valid: true}
	}
	if user.GroupID != nil {
		groupID = sql.NullString{String: user.GroupID.String(), Valid: true}
	}

	_, err := tx.Runner(ctx, s.db).ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			email = lower(EXCLUDED.email),
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			role = EXCLUDED.role,
			supervisor_id = EXCLUDED.supervisor_id,
			group_id = EXCLUDED.group_id,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`,
		user.ID.String(), user.Email, user.FirstName, user.LastName,
		user.Role.String(), supervisorID, groupID, string(user.Status),
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("email %s already registered: %w", user.Email, sentinel.ErrConflict)
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

func (s *Store) FindByID(ctx context.Context, id domain.UserID) (*models.User, error) {
	row := tx.Runner(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())
	return scanUser(row)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := tx.Runner(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = lower($1)`, email)
	return scanUser(row)
}

func (s *Store) FindByGroupID(ctx context.Context, groupID domain.GroupID) ([]*models.User, error) {
	return s.list(ctx, `SELECT `+userColumns+` FROM users WHERE group_id = $1 ORDER BY email`, groupID.String())
}

func (s *Store) FindBySupervisorID(ctx context.Context, supervisorID domain.UserID) ([]*models.User, error) {
	return s.list(ctx, `SELECT `+userColumns+` FROM users WHERE supervisor_id = $1 ORDER BY email`, supervisorID.String())
}

func (s *Store) FindByRole(ctx context.Context, role domain.Role) ([]*models.User, error) {
	return s.list(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY email`, role.String())
}

func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := tx.Runner(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = lower($1))`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("user exists check: %w", err)
	}
	return exists, nil
}

func (s *Store) CountBySupervisorID(ctx context.Context, supervisorID domain.UserID) (int64, error) {
	var n int64
	err := tx.Runner(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE supervisor_id = $1`, supervisorID.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count supervisees: %w", err)
	}
	return n, nil
}

func (s *Store) list(ctx context.Context, query string, arg any) ([]*models.User, error) {
	rows, err := tx.Runner(ctx, s.db).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                      models.User
		idStr, roleStr, status string
		supervisorID, groupID  sql.NullString
	)
	err := row.Scan(&idStr, &u.Email, &u.FirstName, &u.LastName, &roleStr,
		&supervisorID, &groupID, &status, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	userID, err := domain.ParseUserID(idStr)
	if err != nil {
		return nil, fmt.Errorf("scan user id: %w", err)
	}
	role, err := domain.ParseRole(roleStr)
	if err != nil {
		return nil, fmt.Errorf("scan user role: %w", err)
	}
	u.ID = userID
	u.Role = role
	u.Status = models.UserStatus(status)

	if supervisorID.Valid {
		sup, err := domain.ParseUserID(supervisorID.String)
		if err != nil {
			return nil, fmt.Errorf("scan supervisor id: %w", err)
		}
		u.SupervisorID = &sup
	}
	if groupID.Valid {
		grp, err := domain.ParseGroupID(groupID.String)
		if err != nil {
			return nil, fmt.Errorf("scan group id: %w", err)
		}
		u.GroupID = &grp
	}
	return &u, nil
}
