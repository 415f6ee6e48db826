package cached

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"crtracker/internal/platform/cache"
	"crtracker/internal/user/models"
	"crtracker/internal/user/store/memory"
	"crtracker/pkg/domain"
)

type CachedUserStoreSuite struct {
	suite.Suite
	backing *memory.InMemoryUserStore
	store   *Store
}

func TestCachedUserStoreSuite(t *testing.T) {
	suite.Run(t, new(CachedUserStoreSuite))
}

func (s *CachedUserStoreSuite) SetupTest() {
	s.backing = memory.New()
	s.store = New(s.backing, cache.NewMemory(), slog.New(slog.DiscardHandler))
}

func (s *CachedUserStoreSuite) TestReadThroughAndInvalidation() {
	ctx := context.Background()

	user := &models.User{
		ID:     domain.NewUserID(),
		Email:  "member@example.com",
		Role:   domain.RoleFidele,
		Status: models.UserActive,
	}
	_, err := s.store.Save(ctx, user)
	s.Require().NoError(err)

	s.Run("hit serves the cached copy", func() {
		_, err := s.store.FindByID(ctx, user.ID)
		s.Require().NoError(err)

		// Mutate behind the decorator; the cached copy should still win.
		direct, err := s.backing.FindByID(ctx, user.ID)
		s.Require().NoError(err)
		direct.FirstName = "Changed"
		_, err = s.backing.Save(ctx, direct)
		s.Require().NoError(err)

		cachedCopy, err := s.store.FindByID(ctx, user.ID)
		s.Require().NoError(err)
		s.Empty(cachedCopy.FirstName)
	})

	s.Run("save through the decorator evicts", func() {
		user.FirstName = "Fresh"
		_, err := s.store.Save(ctx, user)
		s.Require().NoError(err)

		loaded, err := s.store.FindByID(ctx, user.ID)
		s.Require().NoError(err)
		s.Equal("Fresh", loaded.FirstName)
	})

	s.Run("role listings are evicted on save", func() {
		fideles, err := s.store.FindByRole(ctx, domain.RoleFidele)
		s.Require().NoError(err)
		s.Len(fideles, 1)

		promoted := *user
		promoted.Role = domain.RoleFD
		_, err = s.store.Save(ctx, &promoted)
		s.Require().NoError(err)

		fideles, err = s.store.FindByRole(ctx, domain.RoleFidele)
		s.Require().NoError(err)
		s.Empty(fideles, "stale role listing after save")
	})
}

func (s *CachedUserStoreSuite) TestExistsBypassesCache() {
	ctx := context.Background()

	ok, err := s.store.ExistsByEmail(ctx, "late@example.com")
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.backing.Save(ctx, &models.User{
		ID:     domain.NewUserID(),
		Email:  "late@example.com",
		Role:   domain.RoleFidele,
		Status: models.UserActive,
	})
	s.Require().NoError(err)

	ok, err = s.store.ExistsByEmail(ctx, "late@example.com")
	s.Require().NoError(err)
	s.True(ok)
}
