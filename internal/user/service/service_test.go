package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"crtracker/internal/events"
	"crtracker/internal/user/models"
	"crtracker/internal/user/store/memory"
	"crtracker/pkg/domain"
	dErrors "crtracker/pkg/domainerrors"
)

type capturingPublisher struct {
	events []events.Event
}

func (p *capturingPublisher) Publish(event events.Event) {
	p.events = append(p.events, event)
}

type UserServiceSuite struct {
	suite.Suite
	users     *memory.InMemoryUserStore
	publisher *capturingPublisher
	service   *Service
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.users = memory.New()
	s.publisher = &capturingPublisher{}
	clock := func() time.Time { return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC) }
	s.service = New(s.users, s.publisher, slog.New(slog.DiscardHandler), clock)
}

func (s *UserServiceSuite) TestCreateUser() {
	ctx := context.Background()

	s.Run("registers and emits UserCreated", func() {
		user, err := s.service.CreateUser(ctx, CreateUserInput{
			Email: "Marie@Example.com", FirstName: "Marie", Role: "FIDELE",
		})
		s.Require().NoError(err)
		s.Equal("marie@example.com", user.Email, "email is normalized")
		s.Equal(models.UserActive, user.Status)
		s.Require().Len(s.publisher.events, 1)
		s.Equal(events.KindUserCreated, s.publisher.events[0].Kind())
	})

	s.Run("duplicate email is a conflict", func() {
		_, err := s.service.CreateUser(ctx, CreateUserInput{
			Email: "marie@example.com", Role: "FD",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("derives a name when none is given", func() {
		user, err := s.service.CreateUser(ctx, CreateUserInput{
			Email: "jean.kouassi@example.com", Role: "FIDELE",
		})
		s.Require().NoError(err)
		s.Equal("Jean", user.FirstName)
		s.Equal("Kouassi", user.LastName)
	})

	s.Run("malformed email is invalid", func() {
		_, err := s.service.CreateUser(ctx, CreateUserInput{Email: "not-an-email", Role: "FIDELE"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidValue))
	})

	s.Run("unknown role is invalid", func() {
		_, err := s.service.CreateUser(ctx, CreateUserInput{Email: "x@example.com", Role: "BISHOP"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidValue))
	})
}

func (s *UserServiceSuite) TestSupervisorChecks() {
	ctx := context.Background()
	fd, err := s.service.CreateUser(ctx, CreateUserInput{Email: "fd@example.com", Role: "FD"})
	s.Require().NoError(err)

	s.Run("an FD may supervise a fidele", func() {
		_, err := s.service.CreateUser(ctx, CreateUserInput{
			Email: "fidele@example.com", Role: "FIDELE", SupervisorID: &fd.ID,
		})
		s.NoError(err)
	})

	s.Run("an FD may not supervise a leader", func() {
		_, err := s.service.CreateUser(ctx, CreateUserInput{
			Email: "leader@example.com", Role: "LEADER", SupervisorID: &fd.ID,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeRuleViolation))
	})

	s.Run("a missing supervisor is invalid", func() {
		ghost := domain.NewUserID()
		_, err := s.service.CreateUser(ctx, CreateUserInput{
			Email: "orphan@example.com", Role: "FIDELE", SupervisorID: &ghost,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidValue))
	})
}

func (s *UserServiceSuite) TestSetStatus() {
	ctx := context.Background()
	admin, err := s.service.CreateUser(ctx, CreateUserInput{Email: "admin@example.com", Role: "ADMIN"})
	s.Require().NoError(err)
	member, err := s.service.CreateUser(ctx, CreateUserInput{Email: "member@example.com", Role: "FIDELE"})
	s.Require().NoError(err)

	s.Run("admin suspends a member", func() {
		suspended, err := s.service.SetStatus(ctx, admin.ID, member.ID, models.UserSuspended)
		s.Require().NoError(err)
		s.Equal(models.UserSuspended, suspended.Status)
		s.False(suspended.IsActive())
	})

	s.Run("non-admin is denied", func() {
		_, err := s.service.SetStatus(ctx, member.ID, admin.ID, models.UserInactive)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown status is invalid", func() {
		_, err := s.service.SetStatus(ctx, admin.ID, member.ID, models.UserStatus("BANNED"))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidValue))
	})
}
