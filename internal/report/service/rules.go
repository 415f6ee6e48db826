package service

import (
	"context"
	"fmt"
	"time"

	"crtracker/internal/report/models"
	"crtracker/internal/report/store"
	"crtracker/pkg/domain"
)

// Rules holds the business rules over one report's lifecycle and one user's
// submission pattern. It depends on the report store only; decisions needing
// the user relationship (subtree membership) take the resolved answer as an
// argument so the dependency direction stays store -> rules, never rules ->
// user store.
type Rules struct {
	reports store.ReportStore
	now     func() time.Time
}

// NewRules builds the rule set. The clock is injected for testability; pass
// time.Now in production wiring.
func NewRules(reports store.ReportStore, now func() time.Time) *Rules {
	if now == nil {
		now = time.Now
	}
	return &Rules{reports: reports, now: now}
}

// CanCreate reports whether a new report may be opened for (userID, date):
// never for a future date, and only when no report exists for that day yet.
// This pre-check enforces the one-report-per-day invariant up front; callers
// must still treat a race-induced ErrConflict from Save as a conflict, since
// two concurrent checks can both pass.
func (r *Rules) CanCreate(ctx context.Context, userID domain.UserID, date time.Time) (bool, error) {
	if domain.Day(date).After(domain.Day(r.now())) {
		return false, nil
	}
	exists, err := r.reports.ExistsByUserAndDate(ctx, userID, date)
	if err != nil {
		return false, fmt.Errorf("check existing report: %w", err)
	}
	return !exists, nil
}

// CanModify delegates to the lifecycle status: only drafts change.
func (r *Rules) CanModify(report *models.Report) bool {
	return report.Status.IsModifiable()
}

// CanView decides visibility of a report for a viewer. The owner always sees
// their own; an admin sees everything; anyone else needs both the role-level
// supervision edge and membership of the owner in the viewer's resolved
// subordinate set. That membership requires the user relationship, which this
// service does not own, so callers resolve it and pass the answer in.
func (r *Rules) CanView(viewerID domain.UserID, viewerRole, ownerRole domain.Role, report *models.Report, ownerInViewerSubtree bool) bool {
	if report.UserID == viewerID {
		return true
	}
	if viewerRole == domain.RoleAdmin {
		return true
	}
	return viewerRole.CanSupervise(ownerRole) && ownerInViewerSubtree
}

// RegularityRate is the percentage of days in [start, end] with a report.
// A collapsed range yields 0.0; a defensive floor, since well-formed
// inclusive ranges always have at least one day.
func (r *Rules) RegularityRate(ctx context.Context, userID domain.UserID, start, end time.Time) (float64, error) {
	days := domain.InclusiveDays(start, end)
	if days == 0 {
		return 0, nil
	}
	count, err := r.reports.CountByUserAndRange(ctx, userID, start, end)
	if err != nil {
		return 0, fmt.Errorf("count reports in range: %w", err)
	}
	return 100 * float64(count) / float64(days), nil
}

// HasSubmittedToday reports whether a report exists for the current day.
func (r *Rules) HasSubmittedToday(ctx context.Context, userID domain.UserID) (bool, error) {
	return r.reports.ExistsByUserAndDate(ctx, userID, r.now())
}

// ConsecutiveDayStreak walks backward day by day from today while a report
// exists, stopping at the first gap. No report today means a streak of zero.
// The walk is bounded only by calendar history; do not call it inside a hot
// aggregate path.
func (r *Rules) ConsecutiveDayStreak(ctx context.Context, userID domain.UserID) (int, error) {
	day := domain.Day(r.now())
	streak := 0
	for {
		exists, err := r.reports.ExistsByUserAndDate(ctx, userID, day)
		if err != nil {
			return 0, fmt.Errorf("streak walk at %s: %w", day.Format("2006-01-02"), err)
		}
		if !exists {
			return streak, nil
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}
