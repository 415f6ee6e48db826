// Package postgres implements the report store on PostgreSQL. The unique
// index on (user_id, report_date) is the only mutual-exclusion primitive in
// the system: concurrent creates race to it and the loser gets ErrConflict.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"crtracker/internal/report/models"
	"crtracker/internal/report/store"
	"crtracker/pkg/domain"
	"crtracker/pkg/platform/sentinel"
	"crtracker/pkg/platform/tx"
)

const uniqueViolation = "23505"

// Store implements store.ReportStore on PostgreSQL via database/sql + lib/pq.
//
// Expected schema:
//
//	CREATE TABLE reports (
//	    id                   UUID PRIMARY KEY,
//	    user_id              UUID NOT NULL,
//	    report_date          DATE NOT NULL,
//	    rdqd                 TEXT NOT NULL,
//	    prayer_solo_secs     BIGINT NOT NULL DEFAULT 0,
//	    prayer_couple_secs   BIGINT NOT NULL DEFAULT 0,
//	    prayer_children_secs BIGINT NOT NULL DEFAULT 0,
//	    bible_chapters       INT NOT NULL DEFAULT 0,
//	    lit_title            TEXT,
//	    lit_pages_read       INT,
//	    lit_total_pages      INT,
//	    other_prayer_count   INT NOT NULL DEFAULT 0,
//	    confession           BOOLEAN NOT NULL DEFAULT FALSE,
//	    fasting              BOOLEAN NOT NULL DEFAULT FALSE,
//	    fasting_type         TEXT NOT NULL DEFAULT '',
//	    evangelism_count     INT NOT NULL DEFAULT 0,
//	    offering_given       BOOLEAN NOT NULL DEFAULT FALSE,
//	    notes                TEXT NOT NULL DEFAULT '',
//	    status               TEXT NOT NULL,
//	    seen_by_supervisor   BOOLEAN NOT NULL DEFAULT FALSE,
//	    created_at           TIMESTAMPTZ NOT NULL,
//	    updated_at           TIMESTAMPTZ NOT NULL,
//	    UNIQUE (user_id, report_date)
//	);
type Store struct {
	db *sql.DB
}

var _ store.ReportStore = (*Store)(nil)

// New creates a PostgreSQL-backed report store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const reportColumns = `id, user_id, report_date, rdqd,
	prayer_solo_secs, prayer_couple_secs, prayer_children_secs,
	bible_chapters, lit_title, lit_pages_read, lit_total_pages,
	other_prayer_count, confession, fasting, fasting_type,
	evangelism_count, offering_given, notes, status, seen_by_supervisor,
	created_at, updated_at`

func (s *Store) Save(ctx context.Context, report *models.Report) (*models.Report, error) {
	var litTitle sql.NullString
	var litRead, litTotal sql.NullInt64
	if report.Literature != nil {
		litTitle = sql.NullString{String: report.Literature.Title, Valid: true}
		litRead = sql.NullInt64{Int64: int64(report.Literature.PagesRead), Valid: true}
		litTotal = sql.NullInt64{Int64: int64(report.Literature.TotalPages), Valid: true}
	}

	query := `
		INSERT INTO reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22)
		ON CONFLICT (id) DO UPDATE SET
			rdqd = EXCLUDED.rdqd,
			prayer_solo_secs = EXCLUDED.prayer_solo_secs,
			prayer_couple_secs = EXCLUDED.prayer_couple_secs,
			prayer_children_secs = EXCLUDED.prayer_children_secs,
			bible_chapters = EXCLUDED.bible_chapters,
			lit_title = EXCLUDED.lit_title,
			lit_pages_read = EXCLUDED.lit_pages_read,
			lit_total_pages = EXCLUDED.lit_total_pages,
			other_prayer_count = EXCLUDED.other_prayer_count,
			confession = EXCLUDED.confession,
			fasting = EXCLUDED.fasting,
			fasting_type = EXCLUDED.fasting_type,
			evangelism_count = EXCLUDED.evangelism_count,
			offering_given = EXCLUDED.offering_given,
			notes = EXCLUDED.notes,
			status = EXCLUDED.status,
			seen_by_supervisor = EXCLUDED.seen_by_supervisor,
			updated_at = EXCLUDED.updated_at
	`
	_, err := tx.Runner(ctx, s.db).ExecContext(ctx, query,
		report.ID.String(), report.UserID.String(), domain.Day(report.Date), report.RDQD.String(),
		int64(report.PrayerSolo.Seconds()), int64(report.PrayerCouple.Seconds()), int64(report.PrayerWithChildren.Seconds()),
		report.BibleChapters, litTitle, litRead, litTotal,
		report.OtherPrayerCount, report.Confession, report.Fasting, report.FastingType,
		report.EvangelismCount, report.OfferingGiven, report.Notes,
		report.Status.String(), report.SeenBySupervisor,
		report.CreatedAt, report.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			// A different report id already holds this (user_id, report_date).
			return nil, fmt.Errorf("report exists for user %s on %s: %w",
				report.UserID, domain.Day(report.Date).Format("2006-01-02"), sentinel.ErrConflict)
		}
		return nil, fmt.Errorf("save report: %w", err)
	}
	return report, nil
}

func (s *Store) FindByID(ctx context.Context, id domain.ReportID) (*models.Report, error) {
	row := tx.Runner(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1`, id.String())
	return scanReport(row)
}

func (s *Store) FindByUserAndDate(ctx context.Context, userID domain.UserID, date time.Time) (*models.Report, error) {
	row := tx.Runner(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE user_id = $1 AND report_date = $2`,
		userID.String(), domain.Day(date))
	return scanReport(row)
}

func (s *Store) FindByUserID(ctx context.Context, userID domain.UserID) ([]*models.Report, error) {
	rows, err := tx.Runner(ctx, s.db).QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE user_id = $1 ORDER BY report_date`,
		userID.String())
	if err != nil {
		return nil, fmt.Errorf("list reports by user: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

func (s *Store) FindByUserAndRange(ctx context.Context, userID domain.UserID, start, end time.Time) ([]*models.Report, error) {
	rows, err := tx.Runner(ctx, s.db).QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports
		 WHERE user_id = $1 AND report_date BETWEEN $2 AND $3
		 ORDER BY report_date`,
		userID.String(), domain.Day(start), domain.Day(end))
	if err != nil {
		return nil, fmt.Errorf("list reports by range: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

func (s *Store) ExistsByUserAndDate(ctx context.Context, userID domain.UserID, date time.Time) (bool, error) {
	var exists bool
	err := tx.Runner(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM reports WHERE user_id = $1 AND report_date = $2)`,
		userID.String(), domain.Day(date)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("report exists check: %w", err)
	}
	return exists, nil
}

func (s *Store) CountByUserAndRange(ctx context.Context, userID domain.UserID, start, end time.Time) (int64, error) {
	var n int64
	err := tx.Runner(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE user_id = $1 AND report_date BETWEEN $2 AND $3`,
		userID.String(), domain.Day(start), domain.Day(end)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteByID(ctx context.Context, id domain.ReportID) error {
	res, err := tx.Runner(ctx, s.db).ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("report %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var (
		r                           models.Report
		idStr, userStr              string
		rdqdStr, statusStr          string
		soloSecs, coupleSecs, cSecs int64
		litTitle                    sql.NullString
		litRead, litTotal           sql.NullInt64
	)
	err := row.Scan(&idStr, &userStr, &r.Date, &rdqdStr,
		&soloSecs, &coupleSecs, &cSecs,
		&r.BibleChapters, &litTitle, &litRead, &litTotal,
		&r.OtherPrayerCount, &r.Confession, &r.Fasting, &r.FastingType,
		&r.EvangelismCount, &r.OfferingGiven, &r.Notes, &statusStr, &r.SeenBySupervisor,
		&r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}

	reportID, err := domain.ParseReportID(idStr)
	if err != nil {
		return nil, fmt.Errorf("scan report id: %w", err)
	}
	userID, err := domain.ParseUserID(userStr)
	if err != nil {
		return nil, fmt.Errorf("scan report user id: %w", err)
	}
	rdqd, err := domain.ParseRDQD(rdqdStr)
	if err != nil {
		return nil, fmt.Errorf("scan report rdqd: %w", err)
	}
	status, err := domain.ParseStatutCR(statusStr)
	if err != nil {
		return nil, fmt.Errorf("scan report status: %w", err)
	}

	r.ID = reportID
	r.UserID = userID
	r.Date = domain.Day(r.Date)
	r.RDQD = rdqd
	r.Status = status
	r.PrayerSolo = time.Duration(soloSecs) * time.Second
	r.PrayerCouple = time.Duration(coupleSecs) * time.Second
	r.PrayerWithChildren = time.Duration(cSecs) * time.Second
	if litTitle.Valid {
		r.Literature = &models.Literature{
			Title:      litTitle.String,
			PagesRead:  int(litRead.Int64),
			TotalPages: int(litTotal.Int64),
		}
	}
	return &r, nil
}

func scanReports(rows *sql.Rows) ([]*models.Report, error) {
	var out []*models.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

// CommentStore implements store.CommentStore on PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE report_comments (
//	    id         UUID PRIMARY KEY,
//	    report_id  UUID NOT NULL REFERENCES reports (id) ON DELETE CASCADE,
//	    author_id  UUID NOT NULL,
//	    body       TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
type CommentStore struct {
	db *sql.DB
}

var _ store.CommentStore = (*CommentStore)(nil)

// NewCommentStore creates a PostgreSQL-backed comment store.
func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

func (s *CommentStore) Save(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	_, err := tx.Runner(ctx, s.db).ExecContext(ctx,
		`INSERT INTO report_comments (id, report_id, author_id, body, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		comment.ID.String(), comment.ReportID.String(), comment.AuthorID.String(),
		comment.Text, comment.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("save comment: %w", err)
	}
	return comment, nil
}

func (s *CommentStore) FindByReportID(ctx context.Context, reportID domain.ReportID) ([]*models.Comment, error) {
	rows, err := tx.Runner(ctx, s.db).QueryContext(ctx,
		`SELECT id, report_id, author_id, body, created_at
		 FROM report_comments WHERE report_id = $1 ORDER BY created_at`,
		reportID.String())
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var out []*models.Comment
	for rows.Next() {
		var c models.Comment
		var idStr, repStr, authStr string
		if err := rows.Scan(&idStr, &repStr, &authStr, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		commentID, err := domain.ParseCommentID(idStr)
		if err != nil {
			return nil, fmt.Errorf("scan comment id: %w", err)
		}
		repID, err := domain.ParseReportID(repStr)
		if err != nil {
			return nil, fmt.Errorf("scan comment report id: %w", err)
		}
		authorID, err := domain.ParseUserID(authStr)
		if err != nil {
			return nil, fmt.Errorf("scan comment author id: %w", err)
		}
		c.ID = commentID
		c.ReportID = repID
		c.AuthorID = authorID
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return out, nil
}
