package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"crtracker/internal/events"
	rmodels "crtracker/internal/report/models"
	rmemory "crtracker/internal/report/store/memory"
	"crtracker/internal/stats"
	"crtracker/internal/user/hierarchy"
	umodels "crtracker/internal/user/models"
	umemory "crtracker/internal/user/store/memory"
	"crtracker/pkg/domain"
	dErrors "crtracker/pkg/domainerrors"
)

// capturingPublisher records events synchronously for assertions.
type capturingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturingPublisher) Publish(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturingPublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Kind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind()
	}
	return out
}

type ReportServiceSuite struct {
	suite.Suite
	reports   *rmemory.InMemoryReportStore
	users     *umemory.InMemoryUserStore
	publisher *capturingPublisher
	today     time.Time
	service   *Service

	fidele *umodels.User
	fd     *umodels.User
	admin  *umodels.User
	other  *umodels.User
}

func TestReportServiceSuite(t *testing.T) {
	suite.Run(t, new(ReportServiceSuite))
}

func (s *ReportServiceSuite) SetupTest() {
	s.reports = rmemory.New()
	s.users = umemory.New()
	s.publisher = &capturingPublisher{}
	s.today = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.today }

	rules := NewRules(s.reports, clock)
	resolver := hierarchy.New(s.users)
	s.service = New(s.reports, rmemory.NewCommentStore(), s.users, rules, resolver,
		s.publisher, slog.New(slog.DiscardHandler), clock)

	s.fd = s.saveUser("fd@example.com", domain.RoleFD, nil)
	s.fidele = s.saveUser("fidele@example.com", domain.RoleFidele, &s.fd.ID)
	s.admin = s.saveUser("admin@example.com", domain.RoleAdmin, nil)
	s.other = s.saveUser("other@example.com", domain.RoleFidele, nil)
}

func (s *ReportServiceSuite) saveUser(email string, role domain.Role, supervisorID *domain.UserID) *umodels.User {
	user := &umodels.User{
		ID:           domain.NewUserID(),
		Email:        email,
		Role:         role,
		SupervisorID: supervisorID,
		Status:       umodels.UserActive,
	}
	_, err := s.users.Save(context.Background(), user)
	s.Require().NoError(err)
	return user
}

func (s *ReportServiceSuite) createDraft(userID domain.UserID, date time.Time) *rmodels.Report {
	report, err := s.service.CreateReport(context.Background(), CreateReportInput{
		UserID:        userID,
		Date:          date,
		RDQD:          "1/1",
		PrayerSolo:    20 * time.Minute,
		BibleChapters: 2,
	})
	s.Require().NoError(err)
	return report
}

func (s *ReportServiceSuite) TestCreateReport() {
	ctx := context.Background()

	s.Run("creates a draft and emits ReportCreated", func() {
		report, err := s.service.CreateReport(ctx, CreateReportInput{
			UserID: s.fidele.ID, Date: s.today, RDQD: "1/2",
		})
		s.Require().NoError(err)
		s.Equal(domain.StatutDraft, report.Status)
		s.Equal(domain.Day(s.today), report.Date)
		s.Equal([]events.Kind{events.KindReportCreated}, s.publisher.kinds())
	})

	s.Run("rejects a future date as a rule violation", func() {
		_, err := s.service.CreateReport(ctx, CreateReportInput{
			UserID: s.fidele.ID, Date: s.today.AddDate(0, 0, 1), RDQD: "1/1",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeRuleViolation))
	})

	s.Run("rejects a duplicate day as a rule violation", func() {
		_, err := s.service.CreateReport(ctx, CreateReportInput{
			UserID: s.fidele.ID, Date: s.today, RDQD: "1/1",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeRuleViolation))
	})

	s.Run("rejects malformed rdqd as invalid value", func() {
		_, err := s.service.CreateReport(ctx, CreateReportInput{
			UserID: s.other.ID, Date: s.today, RDQD: "not-a-ratio",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidValue))
	})

	s.Run("rejects negative counters as invalid value", func() {
		_, err := s.service.CreateReport(ctx, CreateReportInput{
			UserID: s.other.ID, Date: s.today, RDQD: "1/1", BibleChapters: -1,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidValue))
	})
}

func (s *ReportServiceSuite) TestLifecycle() {
	ctx := context.Background()
	draft := s.createDraft(s.fidele.ID, s.today)

	s.Run("owner submits the draft", func() {
		submitted, err := s.service.SubmitReport(ctx, s.fidele.ID, draft.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatutSubmitted, submitted.Status)
	})

	s.Run("submitting twice is a rule violation", func() {
		_, err := s.service.SubmitReport(ctx, s.fidele.ID, draft.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeRuleViolation))
	})

	s.Run("editing after submission is a rule violation", func() {
		_, err := s.service.UpdateReport(ctx, s.fidele.ID, draft.ID, UpdateReportInput{RDQD: "1/1"})
		s.True(dErrors.HasCode(err, dErrors.CodeRuleViolation))
	})

	s.Run("the direct supervisor validates", func() {
		validated, err := s.service.ValidateReport(ctx, s.fd.ID, draft.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatutValidated, validated.Status)
	})

	s.Run("validating twice is a rule violation", func() {
		_, err := s.service.ValidateReport(ctx, s.fd.ID, draft.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeRuleViolation))
	})

	s.Run("the full event trail was emitted in order", func() {
		s.Equal([]events.Kind{
			events.KindReportCreated,
			events.KindReportSubmitted,
			events.KindReportValidated,
		}, s.publisher.kinds())
	})
}

func (s *ReportServiceSuite) TestUpdateKeepsDraftEditable() {
	ctx := context.Background()
	draft := s.createDraft(s.fidele.ID, s.today)

	updated, err := s.service.UpdateReport(ctx, s.fidele.ID, draft.ID, UpdateReportInput{
		RDQD: "1/2", BibleChapters: 5, Notes: "late evening reading",
	})
	s.Require().NoError(err)
	s.Equal(5, updated.BibleChapters)
	s.Equal(domain.StatutDraft, updated.Status)

	// The update event carries the unchanged status on both sides.
	last := s.publisher.events[len(s.publisher.events)-1].(events.ReportUpdated)
	s.Equal(domain.StatutDraft, last.OldStatus)
	s.Equal(domain.StatutDraft, last.NewStatus)
}

func (s *ReportServiceSuite) TestVisibility() {
	ctx := context.Background()
	draft := s.createDraft(s.fidele.ID, s.today)

	s.Run("owner reads their own", func() {
		_, err := s.service.GetReport(ctx, s.fidele.ID, draft.ID)
		s.NoError(err)
	})

	s.Run("direct supervisor reads a supervisee's report", func() {
		_, err := s.service.GetReport(ctx, s.fd.ID, draft.ID)
		s.NoError(err)
	})

	s.Run("admin reads anything", func() {
		_, err := s.service.GetReport(ctx, s.admin.ID, draft.ID)
		s.NoError(err)
	})

	s.Run("an unrelated fidele is denied without existence leaking", func() {
		_, err := s.service.GetReport(ctx, s.other.ID, draft.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.NotContains(err.Error(), draft.ID.String())
	})

	s.Run("a non-supervisor cannot validate", func() {
		_, submitErr := s.service.SubmitReport(ctx, s.fidele.ID, draft.ID)
		s.Require().NoError(submitErr)

		_, err := s.service.ValidateReport(ctx, s.other.ID, draft.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("missing report is not found", func() {
		_, err := s.service.GetReport(ctx, s.fidele.ID, domain.NewReportID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ReportServiceSuite) TestMarkSeen() {
	ctx := context.Background()
	draft := s.createDraft(s.fidele.ID, s.today)

	s.Run("supervisor marks the draft seen independent of status", func() {
		seen, err := s.service.MarkSeen(ctx, s.fd.ID, draft.ID)
		s.Require().NoError(err)
		s.True(seen.SeenBySupervisor)
		s.Equal(domain.StatutDraft, seen.Status, "seen flag does not touch the lifecycle")
	})

	s.Run("marking again is a no-op without a second event", func() {
		before := len(s.publisher.kinds())
		_, err := s.service.MarkSeen(ctx, s.fd.ID, draft.ID)
		s.Require().NoError(err)
		s.Len(s.publisher.kinds(), before)
	})

	s.Run("the owner cannot mark their own report seen", func() {
		other := s.createDraft(s.other.ID, s.today)
		_, err := s.service.MarkSeen(ctx, s.other.ID, other.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ReportServiceSuite) TestComments() {
	ctx := context.Background()
	draft := s.createDraft(s.fidele.ID, s.today)

	s.Run("supervisor comments on a visible report", func() {
		comment, err := s.service.AddComment(ctx, s.fd.ID, draft.ID, "keep it up")
		s.Require().NoError(err)
		s.Equal("keep it up", comment.Text)

		listed, err := s.service.Comments(ctx, s.fidele.ID, draft.ID)
		s.Require().NoError(err)
		s.Len(listed, 1)
	})

	s.Run("blank comment is invalid", func() {
		_, err := s.service.AddComment(ctx, s.fd.ID, draft.ID, "   ")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidValue))
	})

	s.Run("a stranger cannot comment", func() {
		_, err := s.service.AddComment(ctx, s.other.ID, draft.ID, "hi")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

// TestDeleteExcludesFromStatistics pins cache-invalidation correctness end to
// end: once deleted, a report is gone from findById and from aggregate
// queries over the same range.
func (s *ReportServiceSuite) TestDeleteExcludesFromStatistics() {
	ctx := context.Background()
	draft := s.createDraft(s.fidele.ID, s.today)

	statsSvc := stats.New(s.reports, func() time.Time { return s.today })
	before, err := statsSvc.PersonalStats(ctx, s.fidele.ID, s.today, s.today)
	s.Require().NoError(err)
	s.Equal(1, before.ReportCount)

	s.Require().NoError(s.service.DeleteReport(ctx, s.fidele.ID, draft.ID))

	_, err = s.service.GetReport(ctx, s.fidele.ID, draft.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	after, err := statsSvc.PersonalStats(ctx, s.fidele.ID, s.today, s.today)
	s.Require().NoError(err)
	s.Equal(0, after.ReportCount)
}

func (s *ReportServiceSuite) TestDeleteAuthorization() {
	ctx := context.Background()

	s.Run("admin deletes anyone's report", func() {
		draft := s.createDraft(s.fidele.ID, s.today)
		s.NoError(s.service.DeleteReport(ctx, s.admin.ID, draft.ID))
	})

	s.Run("a supervisor is not enough to delete", func() {
		draft := s.createDraft(s.fidele.ID, s.today.AddDate(0, 0, -1))
		err := s.service.DeleteReport(ctx, s.fd.ID, draft.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ReportServiceSuite) TestReportsInRange() {
	ctx := context.Background()
	for d := 0; d < 3; d++ {
		s.createDraft(s.fidele.ID, s.today.AddDate(0, 0, -d))
	}

	s.Run("supervisor lists a supervisee's range", func() {
		reports, err := s.service.ReportsInRange(ctx, s.fd.ID, s.fidele.ID,
			s.today.AddDate(0, 0, -2), s.today)
		s.Require().NoError(err)
		s.Len(reports, 3)
	})

	s.Run("a stranger is denied", func() {
		_, err := s.service.ReportsInRange(ctx, s.other.ID, s.fidele.ID,
			s.today.AddDate(0, 0, -2), s.today)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
