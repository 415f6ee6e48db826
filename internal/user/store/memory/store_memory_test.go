package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"crtracker/internal/user/models"
	"crtracker/pkg/domain"
	"crtracker/pkg/platform/sentinel"
)

type InMemoryUserStoreSuite struct {
	suite.Suite
	store *InMemoryUserStore
}

func TestInMemoryUserStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryUserStoreSuite))
}

func (s *InMemoryUserStoreSuite) SetupTest() {
	s.store = New()
}

func (s *InMemoryUserStoreSuite) newUser(email string, role domain.Role) *models.User {
	return &models.User{
		ID:     domain.NewUserID(),
		Email:  email,
		Role:   role,
		Status: models.UserActive,
	}
}

func (s *InMemoryUserStoreSuite) TestLookupBehavior() {
	ctx := context.Background()

	s.Run("returns user by ID when exists", func() {
		user := s.newUser("jane.doe@example.com", domain.RoleFidele)
		_, err := s.store.Save(ctx, user)
		s.Require().NoError(err)

		found, err := s.store.FindByID(ctx, user.ID)
		s.Require().NoError(err)
		s.Equal(user.Email, found.Email)
	})

	s.Run("email lookup is case-insensitive", func() {
		user := s.newUser("Mixed.Case@Example.com", domain.RoleFD)
		_, err := s.store.Save(ctx, user)
		s.Require().NoError(err)

		found, err := s.store.FindByEmail(ctx, "mixed.case@example.com")
		s.Require().NoError(err)
		s.Equal(user.ID, found.ID)

		ok, err := s.store.ExistsByEmail(ctx, "MIXED.CASE@EXAMPLE.COM")
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("missing user yields ErrNotFound", func() {
		_, err := s.store.FindByID(ctx, domain.NewUserID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryUserStoreSuite) TestEmailUniqueness() {
	ctx := context.Background()

	first := s.newUser("shared@example.com", domain.RoleFidele)
	_, err := s.store.Save(ctx, first)
	s.Require().NoError(err)

	second := s.newUser("shared@example.com", domain.RoleFidele)
	_, err = s.store.Save(ctx, second)
	s.ErrorIs(err, sentinel.ErrConflict)

	// Updating the holder of the email is not a conflict.
	first.FirstName = "Updated"
	_, err = s.store.Save(ctx, first)
	s.NoError(err)
}

func (s *InMemoryUserStoreSuite) TestHierarchyQueries() {
	ctx := context.Background()

	fd := s.newUser("fd@example.com", domain.RoleFD)
	_, err := s.store.Save(ctx, fd)
	s.Require().NoError(err)

	groupID := domain.NewGroupID()
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		member := s.newUser(email, domain.RoleFidele)
		member.SupervisorID = &fd.ID
		member.GroupID = &groupID
		_, err := s.store.Save(ctx, member)
		s.Require().NoError(err)
	}

	s.Run("finds direct supervisees", func() {
		supervisees, err := s.store.FindBySupervisorID(ctx, fd.ID)
		s.Require().NoError(err)
		s.Len(supervisees, 3)

		n, err := s.store.CountBySupervisorID(ctx, fd.ID)
		s.Require().NoError(err)
		s.Equal(int64(3), n)
	})

	s.Run("finds group members", func() {
		members, err := s.store.FindByGroupID(ctx, groupID)
		s.Require().NoError(err)
		s.Len(members, 3)
	})

	s.Run("finds by role", func() {
		fideles, err := s.store.FindByRole(ctx, domain.RoleFidele)
		s.Require().NoError(err)
		s.Len(fideles, 3)

		fds, err := s.store.FindByRole(ctx, domain.RoleFD)
		s.Require().NoError(err)
		s.Len(fds, 1)
	})
}
