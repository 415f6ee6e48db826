package domain

import (
	"github.com/google/uuid"

	dErrors "crtracker/pkg/domainerrors"
)

// Typed identifiers for the aggregates in the system. Distinct types keep the
// compiler from letting a UserID flow into a ReportID parameter.
//
// Invariant: IDs must be valid, non-empty, non-nil UUIDs. Construct via the
// Parse* functions at trust boundaries; direct casting bypasses validation.
type (
	UserID    uuid.UUID
	ReportID  uuid.UUID
	CommentID uuid.UUID
	GroupID   uuid.UUID
)

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidValue, "%s id cannot be empty", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidValue, "%s id is not a valid uuid", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidValue, "%s id cannot be the nil uuid", kind)
	}
	return u, nil
}

// ParseUserID validates and converts the external representation of a user id.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user", s)
	return UserID(u), err
}

// ParseReportID validates and converts the external representation of a report id.
func ParseReportID(s string) (ReportID, error) {
	u, err := parseUUID("report", s)
	return ReportID(u), err
}

// ParseCommentID validates and converts the external representation of a comment id.
func ParseCommentID(s string) (CommentID, error) {
	u, err := parseUUID("comment", s)
	return CommentID(u), err
}

// ParseGroupID validates and converts the external representation of a group id.
func ParseGroupID(s string) (GroupID, error) {
	u, err := parseUUID("group", s)
	return GroupID(u), err
}

// NewUserID mints a fresh user id.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewReportID mints a fresh report id.
func NewReportID() ReportID { return ReportID(uuid.New()) }

// NewCommentID mints a fresh comment id.
func NewCommentID() CommentID { return CommentID(uuid.New()) }

// NewGroupID mints a fresh group id.
func NewGroupID() GroupID { return GroupID(uuid.New()) }

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id ReportID) String() string  { return uuid.UUID(id).String() }
func (id CommentID) String() string { return uuid.UUID(id).String() }
func (id GroupID) String() string   { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ReportID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id CommentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id GroupID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// Text marshalling keeps the uuid string form in JSON payloads and cache
// entries; defined types do not inherit uuid.UUID's methods.

func (id UserID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id ReportID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id CommentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id GroupID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *ReportID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = ReportID(u)
	return nil
}

func (id *CommentID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = CommentID(u)
	return nil
}

func (id *GroupID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return err
	}
	*id = GroupID(u)
	return nil
}
