package domain

import dErrors "crtracker/pkg/domainerrors"

// StatutCR is the lifecycle state of a daily report: DRAFT then SUBMITTED then
// VALIDATED, forward only. The value itself is inert; transition legality is
// enforced by the calling use case through IsModifiable and CanBeValidated.
type StatutCR string

const (
	StatutDraft     StatutCR = "DRAFT"
	StatutSubmitted StatutCR = "SUBMITTED"
	StatutValidated StatutCR = "VALIDATED"
)

var validStatuts = map[StatutCR]bool{
	StatutDraft:     true,
	StatutSubmitted: true,
	StatutValidated: true,
}

// ParseStatutCR constructs a StatutCR from external input.
func ParseStatutCR(s string) (StatutCR, error) {
	st := StatutCR(s)
	if !validStatuts[st] {
		return "", dErrors.Newf(dErrors.CodeInvalidValue, "unknown report status %q", s)
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s StatutCR) IsValid() bool { return validStatuts[s] }

// IsModifiable reports whether substantive fields may still change.
// Only drafts are modifiable.
func (s StatutCR) IsModifiable() bool { return s == StatutDraft }

// CanBeValidated reports whether a supervisor may validate the report.
// Only submitted reports qualify.
func (s StatutCR) CanBeValidated() bool { return s == StatutSubmitted }

// String returns the string representation of the status.
func (s StatutCR) String() string { return string(s) }

// StatutValues returns the three lifecycle states in order.
func StatutValues() []StatutCR {
	return []StatutCR{StatutDraft, StatutSubmitted, StatutValidated}
}
