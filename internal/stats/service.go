// Package stats aggregates reports into personal and group statistics.
// Every ratio in this package yields exactly 0.0 when its denominator is
// zero; never an error, never NaN or infinity.
package stats

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"crtracker/internal/report/models"
	"crtracker/internal/report/store"
	"crtracker/pkg/domain"
)

// groupFetchParallelism bounds the per-member fan-out so a large group does
// not flood the store with concurrent range queries.
const groupFetchParallelism = 8

// Personal summarizes one member's reports over a date range.
type Personal struct {
	ReportCount       int
	RDQDCompleteCount int
	RDQDCompletePct   float64

	TotalSoloPrayer time.Duration
	AvgSoloPrayer   time.Duration

	TotalBibleChapters int
	AvgBibleChapters   float64

	TotalEvangelism int
	ConfessionCount int
	FastingCount    int

	RegularityPct float64
}

// Group summarizes a member list's reports over a date range.
type Group struct {
	MemberCount  int
	TotalReports int

	SubmittedTodayCount int
	SubmittedTodayPct   float64

	TotalSoloPrayer    time.Duration
	AvgPrayerPerMember time.Duration

	RegularityPct float64
}

// Service computes statistics from the report store. Reads go through the
// cache decorator like any other caller's.
type Service struct {
	reports store.ReportStore
	now     func() time.Time
}

// New builds the statistics service; pass time.Now as the clock in
// production wiring.
func New(reports store.ReportStore, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{reports: reports, now: now}
}

// PersonalStats folds one member's reports in [start, end].
func (s *Service) PersonalStats(ctx context.Context, userID domain.UserID, start, end time.Time) (Personal, error) {
	reports, err := s.reports.FindByUserAndRange(ctx, userID, start, end)
	if err != nil {
		return Personal{}, fmt.Errorf("personal stats for %s: %w", userID, err)
	}

	var p Personal
	p.ReportCount = len(reports)
	for _, r := range reports {
		if r.RDQD.IsComplete() {
			p.RDQDCompleteCount++
		}
		p.TotalSoloPrayer += r.PrayerSolo
		p.TotalBibleChapters += r.BibleChapters
		p.TotalEvangelism += r.EvangelismCount
		if r.Confession {
			p.ConfessionCount++
		}
		if r.Fasting {
			p.FastingCount++
		}
	}

	if p.ReportCount > 0 {
		p.RDQDCompletePct = 100 * float64(p.RDQDCompleteCount) / float64(p.ReportCount)
		p.AvgSoloPrayer = p.TotalSoloPrayer / time.Duration(p.ReportCount)
		p.AvgBibleChapters = float64(p.TotalBibleChapters) / float64(p.ReportCount)
	}
	if days := domain.InclusiveDays(start, end); days > 0 {
		p.RegularityPct = 100 * float64(p.ReportCount) / float64(days)
	}
	return p, nil
}

// memberSlice is one member's contribution, computed in the fan-out and
// folded after the fan-in so accumulation stays deterministic.
type memberSlice struct {
	reports        []*models.Report
	submittedToday bool
}

// GroupStats folds the reports of every listed member in [start, end].
// Members' report sets are disjoint by construction (reports are keyed by
// user and date), so summing per-member results composes correctly.
func (s *Service) GroupStats(ctx context.Context, memberIDs []domain.UserID, start, end time.Time) (Group, error) {
	slices := make([]memberSlice, len(memberIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(groupFetchParallelism)
	for i, memberID := range memberIDs {
		g.Go(func() error {
			reports, err := s.reports.FindByUserAndRange(gctx, memberID, start, end)
			if err != nil {
				return fmt.Errorf("group stats for member %s: %w", memberID, err)
			}
			submittedToday, err := s.reports.ExistsByUserAndDate(gctx, memberID, s.now())
			if err != nil {
				return fmt.Errorf("group stats today-check for member %s: %w", memberID, err)
			}
			slices[i] = memberSlice{reports: reports, submittedToday: submittedToday}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Group{}, err
	}

	var out Group
	out.MemberCount = len(memberIDs)
	for _, slice := range slices {
		out.TotalReports += len(slice.reports)
		if slice.submittedToday {
			out.SubmittedTodayCount++
		}
		for _, r := range slice.reports {
			out.TotalSoloPrayer += r.PrayerSolo
		}
	}

	if out.MemberCount > 0 {
		out.SubmittedTodayPct = 100 * float64(out.SubmittedTodayCount) / float64(out.MemberCount)
		out.AvgPrayerPerMember = out.TotalSoloPrayer / time.Duration(out.MemberCount)
	}
	days := domain.InclusiveDays(start, end)
	if denom := out.MemberCount * days; denom > 0 {
		out.RegularityPct = 100 * float64(out.TotalReports) / float64(denom)
	}
	return out, nil
}
