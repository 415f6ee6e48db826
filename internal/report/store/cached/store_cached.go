// Package cached decorates a report store with a read-through cache. Callers
// cannot tell the decorated store from a plain one; on any cache backend
// failure the decorator logs and degrades to direct store access.
package cached

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"crtracker/internal/platform/cache"
	"crtracker/internal/report/models"
	"crtracker/internal/report/store"
	"crtracker/pkg/domain"
)

var cacheOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "crtracker_report_cache_ops_total",
	Help: "Report cache operations by outcome",
}, []string{"op", "outcome"})

const (
	outcomeHit   = "hit"
	outcomeMiss  = "miss"
	outcomeError = "error"
)

// TTLs are tuning knobs, not correctness requirements; coarse invalidation on
// write is what keeps the cache consistent. Statistics-class entries stay
// short-lived because they aggregate many rows.
const (
	reportTTL = 10 * time.Minute
	statsTTL  = time.Minute
)

// Store wraps an underlying report store with cache-aside reads and
// write-through invalidation.
type Store struct {
	next   store.ReportStore
	cache  cache.Cache
	logger *slog.Logger
}

var _ store.ReportStore = (*Store)(nil)

// New builds the caching decorator around next.
func New(next store.ReportStore, c cache.Cache, logger *slog.Logger) *Store {
	return &Store{next: next, cache: c, logger: logger}
}

// readThrough is the cache-aside path shared by all reads: on hit decode and
// return, on miss or cache error load from the store and repopulate.
func readThrough[T any](ctx context.Context, s *Store, op, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var zero T
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		cacheOps.WithLabelValues(op, outcomeError).Inc()
		s.logger.Warn("cache read failed, falling through to store", "op", op, "key", key, "error", err)
	} else if ok {
		var value T
		if err := json.Unmarshal(raw, &value); err == nil {
			cacheOps.WithLabelValues(op, outcomeHit).Inc()
			return value, nil
		}
		// Undecodable entry; treat as a miss and overwrite below.
		s.logger.Warn("evicting undecodable cache entry", "op", op, "key", key)
	}

	value, err := load()
	if err != nil {
		return zero, err
	}
	cacheOps.WithLabelValues(op, outcomeMiss).Inc()

	if raw, err := json.Marshal(value); err == nil {
		if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
			s.logger.Warn("cache populate failed", "op", op, "key", key, "error", err)
		}
	}
	return value, nil
}

func (s *Store) FindByID(ctx context.Context, id domain.ReportID) (*models.Report, error) {
	return readThrough(ctx, s, "find_by_id", idKey(id), reportTTL, func() (*models.Report, error) {
		return s.next.FindByID(ctx, id)
	})
}

func (s *Store) FindByUserAndDate(ctx context.Context, userID domain.UserID, date time.Time) (*models.Report, error) {
	return readThrough(ctx, s, "find_by_user_and_date", userDateKey(userID, date), reportTTL, func() (*models.Report, error) {
		return s.next.FindByUserAndDate(ctx, userID, date)
	})
}

func (s *Store) FindByUserID(ctx context.Context, userID domain.UserID) ([]*models.Report, error) {
	return readThrough(ctx, s, "find_by_user", userListKey(userID), reportTTL, func() ([]*models.Report, error) {
		return s.next.FindByUserID(ctx, userID)
	})
}

func (s *Store) FindByUserAndRange(ctx context.Context, userID domain.UserID, start, end time.Time) ([]*models.Report, error) {
	return readThrough(ctx, s, "find_by_user_and_range", userRangeKey(userID, start, end), statsTTL, func() ([]*models.Report, error) {
		return s.next.FindByUserAndRange(ctx, userID, start, end)
	})
}

func (s *Store) CountByUserAndRange(ctx context.Context, userID domain.UserID, start, end time.Time) (int64, error) {
	key := userCountKey(userID, start, end)
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		cacheOps.WithLabelValues("count", outcomeError).Inc()
		s.logger.Warn("cache read failed, falling through to store", "op", "count", "key", key, "error", err)
	} else if ok {
		if n, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			cacheOps.WithLabelValues("count", outcomeHit).Inc()
			return n, nil
		}
	}

	n, err := s.next.CountByUserAndRange(ctx, userID, start, end)
	if err != nil {
		return 0, err
	}
	cacheOps.WithLabelValues("count", outcomeMiss).Inc()
	if err := s.cache.Set(ctx, key, []byte(strconv.FormatInt(n, 10)), statsTTL); err != nil {
		s.logger.Warn("cache populate failed", "op", "count", "key", key, "error", err)
	}
	return n, nil
}

// ExistsByUserAndDate deliberately bypasses the cache. It is a cheap point
// lookup, and a stale false here immediately after a concurrent insert would
// break the one-report-per-day invariant.
func (s *Store) ExistsByUserAndDate(ctx context.Context, userID domain.UserID, date time.Time) (bool, error) {
	return s.next.ExistsByUserAndDate(ctx, userID, date)
}

func (s *Store) Save(ctx context.Context, report *models.Report) (*models.Report, error) {
	saved, err := s.next.Save(ctx, report)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx,
		idKey(saved.ID),
		userDateKey(saved.UserID, saved.Date),
		userListKey(saved.UserID),
	)
	return saved, nil
}

func (s *Store) DeleteByID(ctx context.Context, id domain.ReportID) error {
	// Best-effort lookup so the (user, date) and list keys can be evicted
	// alongside the id key.
	keys := []string{idKey(id)}
	if report, err := s.next.FindByID(ctx, id); err == nil {
		keys = append(keys,
			userDateKey(report.UserID, report.Date),
			userListKey(report.UserID),
		)
	}

	if err := s.next.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, keys...)
	return nil
}

// invalidate evicts the targeted keys plus every statistics-class entry. Any
// save or delete can change aggregate counts, so coarse eviction of the stats
// prefix replaces precise invalidation of every derived key.
func (s *Store) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logger.Warn("cache invalidation failed", "keys", keys, "error", err)
	}
	if err := s.cache.DelByPrefix(ctx, statsPrefix); err != nil {
		s.logger.Warn("statistics cache eviction failed", "error", err)
	}
}
