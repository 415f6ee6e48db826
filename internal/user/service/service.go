// Package service holds the user write path. Registration is small next to
// the report lifecycle but carries the same contract: uniqueness is settled
// by the store, events are fire and forget.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"crtracker/internal/events"
	"crtracker/internal/user/models"
	"crtracker/internal/user/store"
	"crtracker/pkg/domain"
	dErrors "crtracker/pkg/domainerrors"
	"crtracker/pkg/email"
	"crtracker/pkg/platform/sentinel"
)

// EventPublisher is the fire-and-forget hand-off to the broker pipeline.
type EventPublisher interface {
	Publish(event events.Event)
}

type Service struct {
	users     store.UserStore
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func New(users store.UserStore, publisher EventPublisher, logger *slog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{users: users, publisher: publisher, logger: logger, now: now}
}

// CreateUserInput carries the registration fields. SupervisorID is required
// for every role below PASTEUR.
type CreateUserInput struct {
	Email        string
	FirstName    string
	LastName     string
	Role         string
	SupervisorID *domain.UserID
	GroupID      *domain.GroupID
}

// CreateUser registers a new member. The email pre-check is advisory; the
// store's unique index on lower(email) settles concurrent registrations and
// the loser surfaces as a conflict.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	addr := email.Normalize(in.Email)
	if !email.IsValid(addr) {
		return nil, dErrors.Newf(dErrors.CodeInvalidValue, "invalid email %q", in.Email)
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	if in.SupervisorID != nil {
		supervisor, err := s.users.FindByID(ctx, *in.SupervisorID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeInvalidValue, "supervisor does not exist")
			}
			return nil, dErrors.Wrap(dErrors.CodeUnavailable, "load supervisor", err)
		}
		if !supervisor.Role.CanSupervise(role) {
			return nil, dErrors.Newf(dErrors.CodeRuleViolation,
				"a %s cannot supervise a %s", supervisor.Role, role)
		}
	}

	exists, err := s.users.ExistsByEmail(ctx, addr)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "check email", err)
	}
	if exists {
		return nil, dErrors.Newf(dErrors.CodeConflict, "email %s already registered", addr)
	}

	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	if firstName == "" && lastName == "" {
		firstName, lastName = email.DeriveName(addr)
	}

	nowTS := s.now().UTC()
	user := &models.User{
		ID:           domain.NewUserID(),
		Email:        addr,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		SupervisorID: in.SupervisorID,
		GroupID:      in.GroupID,
		Status:       models.UserActive,
		CreatedAt:    nowTS,
		UpdatedAt:    nowTS,
	}

	saved, err := s.users.Save(ctx, user)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(dErrors.CodeConflict, "email already registered", err)
		}
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "save user", err)
	}

	s.logger.Info("user created", "user_id", saved.ID, "role", saved.Role)
	s.publisher.Publish(events.NewUserCreated(saved.ID, saved.Role))
	return saved, nil
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, id domain.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(dErrors.CodeNotFound, "user", err)
		}
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "load user", err)
	}
	return user, nil
}

// SetStatus flips the account state; only an admin may suspend or reactivate.
func (s *Service) SetStatus(ctx context.Context, actorID, targetID domain.UserID, status models.UserStatus) (*models.User, error) {
	switch status {
	case models.UserActive, models.UserInactive, models.UserSuspended:
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidValue, "unknown user status %q", status)
	}

	actor, err := s.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "access denied")
	}

	target, err := s.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Status == status {
		return target, nil
	}
	target.Status = status
	target.UpdatedAt = s.now().UTC()

	saved, err := s.users.Save(ctx, target)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "save user", err)
	}
	s.logger.Info("user status changed", "user_id", saved.ID, "status", saved.Status, "actor_id", actorID)
	return saved, nil
}
