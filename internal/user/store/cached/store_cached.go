// Package cached decorates the user store with a read-through cache. User
// data changes rarely, so entries are long-lived; writes still evict
// coarsely. As with reports, cache failure degrades to direct store access.
package cached

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"crtracker/internal/platform/cache"
	"crtracker/internal/user/models"
	"crtracker/internal/user/store"
	"crtracker/pkg/domain"
)

var cacheOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "crtracker_user_cache_ops_total",
	Help: "User cache operations by outcome",
}, []string{"op", "outcome"})

// Shared key builders; reads and invalidation must agree on these. List-class
// keys live under listPrefix so one prefix eviction covers group, supervisor
// and role listings after any user write.
const (
	userPrefix = "cr:user:"
	listPrefix = "cr:userlist:"

	userTTL = 30 * time.Minute
	listTTL = 5 * time.Minute
)

func idKey(id domain.UserID) string { return userPrefix + "id:" + id.String() }

func emailKey(email string) string {
	return userPrefix + "email:" + strings.ToLower(strings.TrimSpace(email))
}

func groupKey(id domain.GroupID) string { return listPrefix + "group:" + id.String() }

func supervisorKey(id domain.UserID) string { return listPrefix + "supervisor:" + id.String() }

func roleKey(role domain.Role) string { return listPrefix + "role:" + role.String() }

// Store wraps an underlying user store with cache-aside reads.
type Store struct {
	next   store.UserStore
	cache  cache.Cache
	logger *slog.Logger
}

var _ store.UserStore = (*Store)(nil)

// New builds the caching decorator around next.
func New(next store.UserStore, c cache.Cache, logger *slog.Logger) *Store {
	return &Store{next: next, cache: c, logger: logger}
}

func readThrough[T any](ctx context.Context, s *Store, op, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var zero T
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		cacheOps.WithLabelValues(op, "error").Inc()
		s.logger.Warn("cache read failed, falling through to store", "op", op, "key", key, "error", err)
	} else if ok {
		var value T
		if err := json.Unmarshal(raw, &value); err == nil {
			cacheOps.WithLabelValues(op, "hit").Inc()
			return value, nil
		}
		s.logger.Warn("evicting undecodable cache entry", "op", op, "key", key)
	}

	value, err := load()
	if err != nil {
		return zero, err
	}
	cacheOps.WithLabelValues(op, "miss").Inc()

	if raw, err := json.Marshal(value); err == nil {
		if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
			s.logger.Warn("cache populate failed", "op", op, "key", key, "error", err)
		}
	}
	return value, nil
}

func (s *Store) FindByID(ctx context.Context, id domain.UserID) (*models.User, error) {
	return readThrough(ctx, s, "find_by_id", idKey(id), userTTL, func() (*models.User, error) {
		return s.next.FindByID(ctx, id)
	})
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return readThrough(ctx, s, "find_by_email", emailKey(email), userTTL, func() (*models.User, error) {
		return s.next.FindByEmail(ctx, email)
	})
}

func (s *Store) FindByGroupID(ctx context.Context, groupID domain.GroupID) ([]*models.User, error) {
	return readThrough(ctx, s, "find_by_group", groupKey(groupID), listTTL, func() ([]*models.User, error) {
		return s.next.FindByGroupID(ctx, groupID)
	})
}

func (s *Store) FindBySupervisorID(ctx context.Context, supervisorID domain.UserID) ([]*models.User, error) {
	return readThrough(ctx, s, "find_by_supervisor", supervisorKey(supervisorID), listTTL, func() ([]*models.User, error) {
		return s.next.FindBySupervisorID(ctx, supervisorID)
	})
}

func (s *Store) FindByRole(ctx context.Context, role domain.Role) ([]*models.User, error) {
	return readThrough(ctx, s, "find_by_role", roleKey(role), listTTL, func() ([]*models.User, error) {
		return s.next.FindByRole(ctx, role)
	})
}

// ExistsByEmail bypasses the cache; a stale false right after a concurrent
// registration would let a duplicate email through.
func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.next.ExistsByEmail(ctx, email)
}

// CountBySupervisorID is a cheap aggregate over an indexed column; not worth
// a cache entry that any user write would have to evict.
func (s *Store) CountBySupervisorID(ctx context.Context, supervisorID domain.UserID) (int64, error) {
	return s.next.CountBySupervisorID(ctx, supervisorID)
}

func (s *Store) Save(ctx context.Context, user *models.User) (*models.User, error) {
	saved, err := s.next.Save(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Del(ctx, idKey(saved.ID), emailKey(saved.Email)); err != nil {
		s.logger.Warn("user cache invalidation failed", "user", saved.ID, "error", err)
	}
	// Any save can move the user between groups, supervisors or roles.
	if err := s.cache.DelByPrefix(ctx, listPrefix); err != nil {
		s.logger.Warn("user list cache eviction failed", "error", err)
	}
	return saved, nil
}
