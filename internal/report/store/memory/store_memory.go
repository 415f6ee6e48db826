package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"crtracker/internal/report/models"
	"crtracker/internal/report/store"
	"crtracker/pkg/domain"
	"crtracker/pkg/platform/sentinel"
)

// InMemoryReportStore keeps reports in maps for tests and dev wiring. The
// (user, day) index mirrors the unique constraint the Postgres store gets
// from its schema: a second insert for the same key fails with ErrConflict.
type InMemoryReportStore struct {
	mu        sync.RWMutex
	byID      map[domain.ReportID]*models.Report
	byUserDay map[userDayKey]domain.ReportID
}

type userDayKey struct {
	userID domain.UserID
	day    string
}

var _ store.ReportStore = (*InMemoryReportStore)(nil)

// New constructs an empty in-memory report store.
func New() *InMemoryReportStore {
	return &InMemoryReportStore{
		byID:      make(map[domain.ReportID]*models.Report),
		byUserDay: make(map[userDayKey]domain.ReportID),
	}
}

func dayKey(userID domain.UserID, date time.Time) userDayKey {
	return userDayKey{userID: userID, day: domain.Day(date).Format("2006-01-02")}
}

func clone(r *models.Report) *models.Report {
	cp := *r
	if r.Literature != nil {
		lit := *r.Literature
		cp.Literature = &lit
	}
	return &cp
}

func (s *InMemoryReportStore) Save(_ context.Context, report *models.Report) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dayKey(report.UserID, report.Date)
	if existingID, ok := s.byUserDay[key]; ok && existingID != report.ID {
		return nil, fmt.Errorf("report already exists for user %s on %s: %w",
			report.UserID, key.day, sentinel.ErrConflict)
	}

	stored := clone(report)
	s.byID[report.ID] = stored
	s.byUserDay[key] = report.ID
	return clone(stored), nil
}

func (s *InMemoryReportStore) FindByID(_ context.Context, id domain.ReportID) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.byID[id]; ok {
		return clone(r), nil
	}
	return nil, fmt.Errorf("report %s: %w", id, sentinel.ErrNotFound)
}

func (s *InMemoryReportStore) FindByUserAndDate(_ context.Context, userID domain.UserID, date time.Time) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byUserDay[dayKey(userID, date)]; ok {
		return clone(s.byID[id]), nil
	}
	return nil, fmt.Errorf("report for user %s on %s: %w",
		userID, domain.Day(date).Format("2006-01-02"), sentinel.ErrNotFound)
}

func (s *InMemoryReportStore) FindByUserID(_ context.Context, userID domain.UserID) ([]*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Report
	for _, r := range s.byID {
		if r.UserID == userID {
			out = append(out, clone(r))
		}
	}
	sortByDate(out)
	return out, nil
}

func (s *InMemoryReportStore) FindByUserAndRange(_ context.Context, userID domain.UserID, start, end time.Time) ([]*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	from, to := domain.Day(start), domain.Day(end)
	var out []*models.Report
	for _, r := range s.byID {
		if r.UserID != userID {
			continue
		}
		day := domain.Day(r.Date)
		if day.Before(from) || day.After(to) {
			continue
		}
		out = append(out, clone(r))
	}
	sortByDate(out)
	return out, nil
}

func (s *InMemoryReportStore) ExistsByUserAndDate(_ context.Context, userID domain.UserID, date time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byUserDay[dayKey(userID, date)]
	return ok, nil
}

func (s *InMemoryReportStore) CountByUserAndRange(ctx context.Context, userID domain.UserID, start, end time.Time) (int64, error) {
	reports, err := s.FindByUserAndRange(ctx, userID, start, end)
	if err != nil {
		return 0, err
	}
	return int64(len(reports)), nil
}

func (s *InMemoryReportStore) DeleteByID(_ context.Context, id domain.ReportID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("report %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.byID, id)
	delete(s.byUserDay, dayKey(r.UserID, r.Date))
	return nil
}

func sortByDate(reports []*models.Report) {
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Date.Before(reports[j].Date)
	})
}

// InMemoryCommentStore keeps comments in memory for tests and dev wiring.
type InMemoryCommentStore struct {
	mu       sync.RWMutex
	byReport map[domain.ReportID][]*models.Comment
}

var _ store.CommentStore = (*InMemoryCommentStore)(nil)

// NewCommentStore constructs an empty in-memory comment store.
func NewCommentStore() *InMemoryCommentStore {
	return &InMemoryCommentStore{byReport: make(map[domain.ReportID][]*models.Comment)}
}

func (s *InMemoryCommentStore) Save(_ context.Context, comment *models.Comment) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *comment
	s.byReport[comment.ReportID] = append(s.byReport[comment.ReportID], &cp)
	out := cp
	return &out, nil
}

func (s *InMemoryCommentStore) FindByReportID(_ context.Context, reportID domain.ReportID) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comments := s.byReport[reportID]
	out := make([]*models.Comment, len(comments))
	for i, c := range comments {
		cp := *c
		out[i] = &cp
	}
	return out, nil
}
