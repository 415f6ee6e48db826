// Package store defines the narrow persistence contract for reports. Callers
// cannot tell a cached store from a plain one; both implement ReportStore.
package store

import (
	"context"
	"time"

	"crtracker/internal/report/models"
	"crtracker/pkg/domain"
)

// Error contract, shared by every implementation:
// - ErrNotFound when the requested report does not exist
// - ErrConflict when an insert collides with an existing (user, date) row;
//   this is the race-breaker for concurrent creates
// - wrapped infrastructure errors otherwise
type ReportStore interface {
	// Save inserts or updates a report and returns the stored value.
	Save(ctx context.Context, report *models.Report) (*models.Report, error)
	FindByID(ctx context.Context, id domain.ReportID) (*models.Report, error)
	FindByUserAndDate(ctx context.Context, userID domain.UserID, date time.Time) (*models.Report, error)
	FindByUserID(ctx context.Context, userID domain.UserID) ([]*models.Report, error)
	FindByUserAndRange(ctx context.Context, userID domain.UserID, start, end time.Time) ([]*models.Report, error)
	ExistsByUserAndDate(ctx context.Context, userID domain.UserID, date time.Time) (bool, error)
	CountByUserAndRange(ctx context.Context, userID domain.UserID, start, end time.Time) (int64, error)
	DeleteByID(ctx context.Context, id domain.ReportID) error
}

// CommentStore persists report comments. Append-mostly; comments are never
// edited.
type CommentStore interface {
	Save(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	FindByReportID(ctx context.Context, reportID domain.ReportID) ([]*models.Comment, error)
}
