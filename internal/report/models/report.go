package models

import (
	"time"

	"crtracker/pkg/domain"
)

// Report is the aggregate root for one member's daily CR. Uniqueness on
// (UserID, Date) is enforced by the store; Date is always a civil day
// (midnight UTC, see domain.Day).
type Report struct {
	ID     domain.ReportID
	UserID domain.UserID
	Date   time.Time

	RDQD domain.RDQD

	PrayerSolo         time.Duration
	PrayerCouple       time.Duration
	PrayerWithChildren time.Duration

	BibleChapters    int
	Literature       *Literature
	OtherPrayerCount int

	Confession  bool
	Fasting     bool
	FastingType string

	EvangelismCount int
	OfferingGiven   bool
	Notes           string

	Status           domain.StatutCR
	SeenBySupervisor bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Literature tracks reading progress on a book or booklet.
type Literature struct {
	Title      string
	PagesRead  int
	TotalPages int
}

// Comment is supervisor or member feedback attached to a report.
type Comment struct {
	ID        domain.CommentID
	ReportID  domain.ReportID
	AuthorID  domain.UserID
	Text      string
	CreatedAt time.Time
}
