package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"crtracker/internal/user/models"
	"crtracker/internal/user/store"
	"crtracker/pkg/domain"
	"crtracker/pkg/platform/sentinel"
)

// InMemoryUserStore keeps users in memory for tests and dev wiring. Email
// uniqueness mirrors the unique index the Postgres store gets from its schema.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[domain.UserID]*models.User
	byEmail map[string]domain.UserID
}

var _ store.UserStore = (*InMemoryUserStore)(nil)

// New constructs an empty in-memory user store.
func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		byID:    make(map[domain.UserID]*models.User),
		byEmail: make(map[string]domain.UserID),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func clone(u *models.User) *models.User {
	cp := *u
	if u.SupervisorID != nil {
		sup := *u.SupervisorID
		cp.SupervisorID = &sup
	}
	if u.GroupID != nil {
		grp := *u.GroupID
		cp.GroupID = &grp
	}
	return &cp
}

func (s *InMemoryUserStore) Save(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(user.Email)
	if existingID, ok := s.byEmail[email]; ok && existingID != user.ID {
		return nil, fmt.Errorf("email %s already registered: %w", email, sentinel.ErrConflict)
	}

	// Drop a stale email index entry when the address changes on update.
	if existing, ok := s.byID[user.ID]; ok {
		delete(s.byEmail, normalizeEmail(existing.Email))
	}

	stored := clone(user)
	s.byID[user.ID] = stored
	s.byEmail[email] = user.ID
	return clone(stored), nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, id domain.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byID[id]; ok {
		return clone(u), nil
	}
	return nil, fmt.Errorf("user %s: %w", id, sentinel.ErrNotFound)
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byEmail[normalizeEmail(email)]; ok {
		return clone(s.byID[id]), nil
	}
	return nil, fmt.Errorf("user with email %s: %w", email, sentinel.ErrNotFound)
}

func (s *InMemoryUserStore) FindByGroupID(_ context.Context, groupID domain.GroupID) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.User
	for _, u := range s.byID {
		if u.GroupID != nil && *u.GroupID == groupID {
			out = append(out, clone(u))
		}
	}
	sortByEmail(out)
	return out, nil
}

func (s *InMemoryUserStore) FindBySupervisorID(_ context.Context, supervisorID domain.UserID) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.User
	for _, u := range s.byID {
		if u.SupervisorID != nil && *u.SupervisorID == supervisorID {
			out = append(out, clone(u))
		}
	}
	sortByEmail(out)
	return out, nil
}

func (s *InMemoryUserStore) FindByRole(_ context.Context, role domain.Role) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.User
	for _, u := range s.byID {
		if u.Role == role {
			out = append(out, clone(u))
		}
	}
	sortByEmail(out)
	return out, nil
}

func (s *InMemoryUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[normalizeEmail(email)]
	return ok, nil
}

func (s *InMemoryUserStore) CountBySupervisorID(ctx context.Context, supervisorID domain.UserID) (int64, error) {
	users, err := s.FindBySupervisorID(ctx, supervisorID)
	if err != nil {
		return 0, err
	}
	return int64(len(users)), nil
}

func sortByEmail(users []*models.User) {
	sort.Slice(users, func(i, j int) bool {
		return users[i].Email < users[j].Email
	})
}
