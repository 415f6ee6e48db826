// Package service holds the report use cases: lifecycle writes, visibility-
// gated reads, and the rule set they share. Writes complete once the store
// write succeeds; event publication is asynchronous and never blocks or
// fails the triggering call.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"crtracker/internal/events"
	"crtracker/internal/report/models"
	"crtracker/internal/report/store"
	"crtracker/internal/user/hierarchy"
	umodels "crtracker/internal/user/models"
	ustore "crtracker/internal/user/store"
	"crtracker/pkg/domain"
	dErrors "crtracker/pkg/domainerrors"
	"crtracker/pkg/platform/sentinel"
)

var reportsCreated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "crtracker_reports_created_total",
	Help: "Total reports created",
})

// EventPublisher is the fire-and-forget hand-off to the broker pipeline.
type EventPublisher interface {
	Publish(event events.Event)
}

// Service wires the report use cases. Stores arrive already cache-decorated;
// this layer neither knows nor cares.
type Service struct {
	reports   store.ReportStore
	comments  store.CommentStore
	users     ustore.UserStore
	rules     *Rules
	hierarchy *hierarchy.Resolver
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// New assembles the report service. The clock is injected for testability.
func New(
	reports store.ReportStore,
	comments store.CommentStore,
	users ustore.UserStore,
	rules *Rules,
	resolver *hierarchy.Resolver,
	publisher EventPublisher,
	logger *slog.Logger,
	now func() time.Time,
) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		reports:   reports,
		comments:  comments,
		users:     users,
		rules:     rules,
		hierarchy: resolver,
		publisher: publisher,
		logger:    logger,
		now:       now,
	}
}

// CreateReportInput carries the substantive fields of a new draft.
type CreateReportInput struct {
	UserID domain.UserID
	Date   time.Time
	RDQD   string

	PrayerSolo         time.Duration
	PrayerCouple       time.Duration
	PrayerWithChildren time.Duration

	BibleChapters    int
	Literature       *models.Literature
	OtherPrayerCount int

	Confession  bool
	Fasting     bool
	FastingType string

	EvangelismCount int
	OfferingGiven   bool
	Notes           string
}

func (in CreateReportInput) validate() (domain.RDQD, error) {
	rdqd, err := domain.ParseRDQD(in.RDQD)
	if err != nil {
		return domain.RDQD{}, err
	}
	if in.PrayerSolo < 0 || in.PrayerCouple < 0 || in.PrayerWithChildren < 0 {
		return domain.RDQD{}, dErrors.New(dErrors.CodeInvalidValue, "prayer durations cannot be negative")
	}
	if in.BibleChapters < 0 {
		return domain.RDQD{}, dErrors.New(dErrors.CodeInvalidValue, "bible chapters cannot be negative")
	}
	if in.OtherPrayerCount < 0 {
		return domain.RDQD{}, dErrors.New(dErrors.CodeInvalidValue, "other prayer count cannot be negative")
	}
	if in.EvangelismCount < 0 {
		return domain.RDQD{}, dErrors.New(dErrors.CodeInvalidValue, "evangelism count cannot be negative")
	}
	return rdqd, nil
}

// CreateReport opens a new draft for (UserID, Date). The CanCreate pre-check
// catches future dates and known duplicates; the store's unique constraint
// breaks the tie between concurrent creators and the loser gets a conflict.
func (s *Service) CreateReport(ctx context.Context, in CreateReportInput) (*models.Report, error) {
	rdqd, err := in.validate()
	if err != nil {
		return nil, err
	}

	ok, err := s.rules.CanCreate(ctx, in.UserID, in.Date)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "report store unreachable", err)
	}
	if !ok {
		if domain.Day(in.Date).After(domain.Day(s.now())) {
			return nil, dErrors.New(dErrors.CodeRuleViolation, "cannot create a report for a future date")
		}
		return nil, dErrors.New(dErrors.CodeRuleViolation, "a report already exists for this date")
	}

	nowTS := s.now().UTC()
	report := &models.Report{
		ID:                 domain.NewReportID(),
		UserID:             in.UserID,
		Date:               domain.Day(in.Date),
		RDQD:               rdqd,
		PrayerSolo:         in.PrayerSolo,
		PrayerCouple:       in.PrayerCouple,
		PrayerWithChildren: in.PrayerWithChildren,
		BibleChapters:      in.BibleChapters,
		Literature:         in.Literature,
		OtherPrayerCount:   in.OtherPrayerCount,
		Confession:         in.Confession,
		Fasting:            in.Fasting,
		FastingType:        in.FastingType,
		EvangelismCount:    in.EvangelismCount,
		OfferingGiven:      in.OfferingGiven,
		Notes:              in.Notes,
		Status:             domain.StatutDraft,
		CreatedAt:          nowTS,
		UpdatedAt:          nowTS,
	}

	saved, err := s.reports.Save(ctx, report)
	if err != nil {
		return nil, translateStoreErr(err, "save report")
	}
	reportsCreated.Inc()
	s.publisher.Publish(events.NewReportCreated(saved.ID, saved.UserID, saved.Date))
	return saved, nil
}

// UpdateReportInput carries the fields a draft edit may change.
type UpdateReportInput struct {
	RDQD string

	PrayerSolo         time.Duration
	PrayerCouple       time.Duration
	PrayerWithChildren time.Duration

	BibleChapters    int
	Literature       *models.Literature
	OtherPrayerCount int

	Confession  bool
	Fasting     bool
	FastingType string

	EvangelismCount int
	OfferingGiven   bool
	Notes           string
}

func (in UpdateReportInput) validate() (domain.RDQD, error) {
	return CreateReportInput{
		RDQD:               in.RDQD,
		PrayerSolo:         in.PrayerSolo,
		PrayerCouple:       in.PrayerCouple,
		PrayerWithChildren: in.PrayerWithChildren,
		BibleChapters:      in.BibleChapters,
		OtherPrayerCount:   in.OtherPrayerCount,
		EvangelismCount:    in.EvangelismCount,
	}.validate()
}

// UpdateReport mutates the substantive fields of a draft. Only the owner may
// edit, and only while the report is in DRAFT.
func (s *Service) UpdateReport(ctx context.Context, actorID domain.UserID, reportID domain.ReportID, in UpdateReportInput) (*models.Report, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, translateStoreErr(err, "load report")
	}
	if report.UserID != actorID {
		return nil, errForbidden()
	}
	if !s.rules.CanModify(report) {
		return nil, dErrors.Newf(dErrors.CodeRuleViolation, "report in status %s cannot be modified", report.Status)
	}

	rdqd, err := in.validate()
	if err != nil {
		return nil, err
	}

	oldStatus := report.Status
	report.RDQD = rdqd
	report.PrayerSolo = in.PrayerSolo
	report.PrayerCouple = in.PrayerCouple
	report.PrayerWithChildren = in.PrayerWithChildren
	report.BibleChapters = in.BibleChapters
	report.Literature = in.Literature
	report.OtherPrayerCount = in.OtherPrayerCount
	report.Confession = in.Confession
	report.Fasting = in.Fasting
	report.FastingType = in.FastingType
	report.EvangelismCount = in.EvangelismCount
	report.OfferingGiven = in.OfferingGiven
	report.Notes = in.Notes
	report.UpdatedAt = s.now().UTC()

	saved, err := s.reports.Save(ctx, report)
	if err != nil {
		return nil, translateStoreErr(err, "save report")
	}
	s.publisher.Publish(events.NewReportUpdated(saved.ID, saved.UserID, oldStatus, saved.Status))
	return saved, nil
}

// SubmitReport moves the owner's draft to SUBMITTED.
func (s *Service) SubmitReport(ctx context.Context, actorID domain.UserID, reportID domain.ReportID) (*models.Report, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, translateStoreErr(err, "load report")
	}
	if report.UserID != actorID {
		return nil, errForbidden()
	}
	if !report.Status.IsModifiable() {
		return nil, dErrors.Newf(dErrors.CodeRuleViolation, "report in status %s cannot be submitted", report.Status)
	}

	report.Status = domain.StatutSubmitted
	report.UpdatedAt = s.now().UTC()

	saved, err := s.reports.Save(ctx, report)
	if err != nil {
		return nil, translateStoreErr(err, "save report")
	}
	s.publisher.Publish(events.NewReportSubmitted(saved.ID, saved.UserID))
	return saved, nil
}

// ValidateReport moves a submitted report to VALIDATED. Only a supervisor
// with the owner in their subtree (or an admin) may validate.
func (s *Service) ValidateReport(ctx context.Context, actorID domain.UserID, reportID domain.ReportID) (*models.Report, error) {
	report, actor, err := s.loadForSupervision(ctx, actorID, reportID)
	if err != nil {
		return nil, err
	}
	if actor.ID == report.UserID {
		return nil, dErrors.New(dErrors.CodeRuleViolation, "a report cannot be validated by its owner")
	}
	if !report.Status.CanBeValidated() {
		return nil, dErrors.Newf(dErrors.CodeRuleViolation, "report in status %s cannot be validated", report.Status)
	}

	report.Status = domain.StatutValidated
	report.UpdatedAt = s.now().UTC()

	saved, err := s.reports.Save(ctx, report)
	if err != nil {
		return nil, translateStoreErr(err, "save report")
	}
	s.publisher.Publish(events.NewReportValidated(saved.ID, saved.UserID, actorID))
	return saved, nil
}

// MarkSeen records that a supervisor viewed the report. The flag flips
// independently of the lifecycle status, in any state.
func (s *Service) MarkSeen(ctx context.Context, actorID domain.UserID, reportID domain.ReportID) (*models.Report, error) {
	report, _, err := s.loadForSupervision(ctx, actorID, reportID)
	if err != nil {
		return nil, err
	}

	if report.SeenBySupervisor {
		return report, nil
	}
	report.SeenBySupervisor = true
	report.UpdatedAt = s.now().UTC()

	saved, err := s.reports.Save(ctx, report)
	if err != nil {
		return nil, translateStoreErr(err, "save report")
	}
	s.publisher.Publish(events.NewReportMarkedSeen(saved.ID, actorID))
	return saved, nil
}

// AddComment attaches feedback to a report the actor is allowed to see.
func (s *Service) AddComment(ctx context.Context, actorID domain.UserID, reportID domain.ReportID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, dErrors.New(dErrors.CodeInvalidValue, "comment text cannot be blank")
	}

	report, err := s.GetReport(ctx, actorID, reportID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:        domain.NewCommentID(),
		ReportID:  report.ID,
		AuthorID:  actorID,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	saved, err := s.comments.Save(ctx, comment)
	if err != nil {
		return nil, translateStoreErr(err, "save comment")
	}
	s.publisher.Publish(events.NewCommentAdded(saved.ID, saved.ReportID, saved.AuthorID))
	return saved, nil
}

// DeleteReport removes a report; owner or admin only. The cache decorator
// evicts the derived entries as part of the store delete.
func (s *Service) DeleteReport(ctx context.Context, actorID domain.UserID, reportID domain.ReportID) error {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return translateStoreErr(err, "load report")
	}

	if report.UserID != actorID {
		actor, err := s.users.FindByID(ctx, actorID)
		if err != nil {
			return translateStoreErr(err, "load actor")
		}
		if actor.Role != domain.RoleAdmin {
			return errForbidden()
		}
	}

	if err := s.reports.DeleteByID(ctx, reportID); err != nil {
		return translateStoreErr(err, "delete report")
	}
	s.logger.Info("report deleted", "report_id", reportID, "owner_id", report.UserID, "actor_id", actorID)
	return nil
}

// GetReport returns the report if the actor may see it. The denial carries no
// hint of whether the report exists.
func (s *Service) GetReport(ctx context.Context, actorID domain.UserID, reportID domain.ReportID) (*models.Report, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, translateStoreErr(err, "load report")
	}

	if report.UserID == actorID {
		return report, nil
	}

	actor, owner, err := s.loadPair(ctx, actorID, report.UserID)
	if err != nil {
		return nil, err
	}
	inSubtree, err := s.hierarchy.IsInSubtree(ctx, actor, owner.ID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "resolve hierarchy", err)
	}
	if !s.rules.CanView(actorID, actor.Role, owner.Role, report, inSubtree) {
		return nil, errForbidden()
	}
	return report, nil
}

// ReportsInRange lists a member's reports in [start, end], gated by the same
// visibility rule as GetReport.
func (s *Service) ReportsInRange(ctx context.Context, actorID, ownerID domain.UserID, start, end time.Time) ([]*models.Report, error) {
	if actorID != ownerID {
		actor, owner, err := s.loadPair(ctx, actorID, ownerID)
		if err != nil {
			return nil, err
		}
		inSubtree, err := s.hierarchy.IsInSubtree(ctx, actor, ownerID)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeUnavailable, "resolve hierarchy", err)
		}
		probe := &models.Report{UserID: ownerID}
		if !s.rules.CanView(actorID, actor.Role, owner.Role, probe, inSubtree) {
			return nil, errForbidden()
		}
	}

	reports, err := s.reports.FindByUserAndRange(ctx, ownerID, start, end)
	if err != nil {
		return nil, translateStoreErr(err, "list reports")
	}
	return reports, nil
}

// Comments lists a report's comments, gated by visibility.
func (s *Service) Comments(ctx context.Context, actorID domain.UserID, reportID domain.ReportID) ([]*models.Comment, error) {
	if _, err := s.GetReport(ctx, actorID, reportID); err != nil {
		return nil, err
	}
	comments, err := s.comments.FindByReportID(ctx, reportID)
	if err != nil {
		return nil, translateStoreErr(err, "list comments")
	}
	return comments, nil
}

// loadForSupervision loads the report and verifies the actor is a supervisor
// entitled to act on it (or an admin).
func (s *Service) loadForSupervision(ctx context.Context, actorID domain.UserID, reportID domain.ReportID) (*models.Report, *umodels.User, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, nil, translateStoreErr(err, "load report")
	}
	actor, owner, err := s.loadPair(ctx, actorID, report.UserID)
	if err != nil {
		return nil, nil, err
	}

	if actor.Role != domain.RoleAdmin {
		inSubtree, err := s.hierarchy.IsInSubtree(ctx, actor, owner.ID)
		if err != nil {
			return nil, nil, dErrors.Wrap(dErrors.CodeUnavailable, "resolve hierarchy", err)
		}
		if !actor.Role.CanSupervise(owner.Role) || !inSubtree {
			return nil, nil, errForbidden()
		}
	}
	return report, actor, nil
}

func (s *Service) loadPair(ctx context.Context, actorID, ownerID domain.UserID) (*umodels.User, *umodels.User, error) {
	actor, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, nil, translateStoreErr(err, "load actor")
	}
	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return nil, nil, translateStoreErr(err, "load report owner")
	}
	return actor, owner, nil
}

// errForbidden is the uniform access denial; deliberately the same message
// whether or not the resource exists.
func errForbidden() error {
	return dErrors.New(dErrors.CodeForbidden, "access denied")
}

// translateStoreErr converts store sentinel errors into the coded taxonomy.
func translateStoreErr(err error, op string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(dErrors.CodeNotFound, op, err)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(dErrors.CodeConflict, op, err)
	default:
		return dErrors.Wrap(dErrors.CodeUnavailable, fmt.Sprintf("%s: store unreachable", op), err)
	}
}
