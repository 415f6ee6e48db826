// Package events defines the immutable domain events emitted on report and
// user state changes. Events are created once at the moment of the triggering
// change, handed to the publisher, and never retained by the domain layer.
package events

import (
	"time"

	"github.com/google/uuid"

	"crtracker/pkg/domain"
)

// Kind discriminates event payloads on the wire.
type Kind string

const (
	KindReportCreated    Kind = "report.created"
	KindReportSubmitted  Kind = "report.submitted"
	KindReportValidated  Kind = "report.validated"
	KindReportMarkedSeen Kind = "report.marked_seen"
	KindReportUpdated    Kind = "report.updated"
	KindCommentAdded     Kind = "comment.added"
	KindUserCreated      Kind = "user.created"
)

// Event is the common surface the publisher needs: identity, timestamp, kind
// and the aggregate id used as the partition key.
type Event interface {
	EventID() uuid.UUID
	OccurredAt() time.Time
	Kind() Kind
	// AggregateID returns the id ordering this event relative to others about
	// the same aggregate; empty when no aggregate id is extractable.
	AggregateID() string
}

// Base carries the fields every event shares. Exported so payloads marshal.
type Base struct {
	ID   uuid.UUID `json:"eventId"`
	Time time.Time `json:"occurredAt"`
}

func newBase() Base {
	return Base{ID: uuid.New(), Time: time.Now().UTC()}
}

func (b Base) EventID() uuid.UUID    { return b.ID }
func (b Base) OccurredAt() time.Time { return b.Time }

// ReportCreated is emitted when a member opens a new draft.
type ReportCreated struct {
	Base
	ReportID domain.ReportID `json:"reportId"`
	UserID   domain.UserID   `json:"userId"`
	Date     time.Time       `json:"date"`
}

// NewReportCreated builds the event for a freshly created draft.
func NewReportCreated(reportID domain.ReportID, userID domain.UserID, date time.Time) ReportCreated {
	return ReportCreated{Base: newBase(), ReportID: reportID, UserID: userID, Date: date}
}

func (ReportCreated) Kind() Kind            { return KindReportCreated }
func (e ReportCreated) AggregateID() string { return e.ReportID.String() }

// ReportSubmitted is emitted when the owner moves a draft to SUBMITTED.
type ReportSubmitted struct {
	Base
	ReportID domain.ReportID `json:"reportId"`
	UserID   domain.UserID   `json:"userId"`
}

func NewReportSubmitted(reportID domain.ReportID, userID domain.UserID) ReportSubmitted {
	return ReportSubmitted{Base: newBase(), ReportID: reportID, UserID: userID}
}

func (ReportSubmitted) Kind() Kind            { return KindReportSubmitted }
func (e ReportSubmitted) AggregateID() string { return e.ReportID.String() }

// ReportValidated is emitted when a supervisor validates a submitted report.
type ReportValidated struct {
	Base
	ReportID    domain.ReportID `json:"reportId"`
	UserID      domain.UserID   `json:"userId"`
	ValidatorID domain.UserID   `json:"validatorId"`
}

func NewReportValidated(reportID domain.ReportID, userID, validatorID domain.UserID) ReportValidated {
	return ReportValidated{Base: newBase(), ReportID: reportID, UserID: userID, ValidatorID: validatorID}
}

func (ReportValidated) Kind() Kind            { return KindReportValidated }
func (e ReportValidated) AggregateID() string { return e.ReportID.String() }

// ReportMarkedSeen is emitted when a supervisor marks a report viewed; this
// flips independently of the lifecycle status.
type ReportMarkedSeen struct {
	Base
	ReportID domain.ReportID `json:"reportId"`
	ViewerID domain.UserID   `json:"viewerId"`
}

func NewReportMarkedSeen(reportID domain.ReportID, viewerID domain.UserID) ReportMarkedSeen {
	return ReportMarkedSeen{Base: newBase(), ReportID: reportID, ViewerID: viewerID}
}

func (ReportMarkedSeen) Kind() Kind            { return KindReportMarkedSeen }
func (e ReportMarkedSeen) AggregateID() string { return e.ReportID.String() }

// ReportUpdated is emitted on any substantive mutation, carrying the status
// before and after (identical for draft edits).
type ReportUpdated struct {
	Base
	ReportID  domain.ReportID `json:"reportId"`
	UserID    domain.UserID   `json:"userId"`
	OldStatus domain.StatutCR `json:"oldStatus"`
	NewStatus domain.StatutCR `json:"newStatus"`
}

func NewReportUpdated(reportID domain.ReportID, userID domain.UserID, oldStatus, newStatus domain.StatutCR) ReportUpdated {
	return ReportUpdated{Base: newBase(), ReportID: reportID, UserID: userID, OldStatus: oldStatus, NewStatus: newStatus}
}

func (ReportUpdated) Kind() Kind            { return KindReportUpdated }
func (e ReportUpdated) AggregateID() string { return e.ReportID.String() }

// CommentAdded is emitted when feedback is attached to a report.
type CommentAdded struct {
	Base
	CommentID domain.CommentID `json:"commentId"`
	ReportID  domain.ReportID  `json:"reportId"`
	AuthorID  domain.UserID    `json:"authorId"`
}

func NewCommentAdded(commentID domain.CommentID, reportID domain.ReportID, authorID domain.UserID) CommentAdded {
	return CommentAdded{Base: newBase(), CommentID: commentID, ReportID: reportID, AuthorID: authorID}
}

func (CommentAdded) Kind() Kind            { return KindCommentAdded }
func (e CommentAdded) AggregateID() string { return e.CommentID.String() }

// UserCreated is emitted when a new member joins.
type UserCreated struct {
	Base
	UserID domain.UserID `json:"userId"`
	Role   domain.Role   `json:"role"`
}

func NewUserCreated(userID domain.UserID, role domain.Role) UserCreated {
	return UserCreated{Base: newBase(), UserID: userID, Role: role}
}

func (UserCreated) Kind() Kind            { return KindUserCreated }
func (e UserCreated) AggregateID() string { return e.UserID.String() }
