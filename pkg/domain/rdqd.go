package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	dErrors "crtracker/pkg/domainerrors"
)

// RDQD is the accomplished/expected ratio for the daily devotional meeting.
// Invariants enforced at construction: attendu > 0, 0 <= accompli <= attendu.
// The zero value is not a valid RDQD; construct via NewRDQD or ParseRDQD.
type RDQD struct {
	accompli int
	attendu  int
}

var rdqdPattern = regexp.MustCompile(`^\d+/\d+$`)

// NewRDQD builds an RDQD from its two components.
func NewRDQD(accompli, attendu int) (RDQD, error) {
	if attendu <= 0 {
		return RDQD{}, dErrors.Newf(dErrors.CodeInvalidValue, "rdqd attendu must be positive, got %d", attendu)
	}
	if accompli < 0 {
		return RDQD{}, dErrors.Newf(dErrors.CodeInvalidValue, "rdqd accompli cannot be negative, got %d", accompli)
	}
	if accompli > attendu {
		return RDQD{}, dErrors.Newf(dErrors.CodeInvalidValue, "rdqd accompli %d exceeds attendu %d", accompli, attendu)
	}
	return RDQD{accompli: accompli, attendu: attendu}, nil
}

// ParseRDQD builds an RDQD from its canonical "accompli/attendu" form.
// Surrounding whitespace is trimmed before matching.
func ParseRDQD(s string) (RDQD, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RDQD{}, dErrors.New(dErrors.CodeInvalidValue, "rdqd cannot be blank")
	}
	if !rdqdPattern.MatchString(s) {
		return RDQD{}, dErrors.Newf(dErrors.CodeInvalidValue, "rdqd %q does not match accompli/attendu", s)
	}
	parts := strings.SplitN(s, "/", 2)
	accompli, err := strconv.Atoi(parts[0])
	if err != nil {
		return RDQD{}, dErrors.Newf(dErrors.CodeInvalidValue, "rdqd accompli %q is not a number", parts[0])
	}
	attendu, err := strconv.Atoi(parts[1])
	if err != nil {
		return RDQD{}, dErrors.Newf(dErrors.CodeInvalidValue, "rdqd attendu %q is not a number", parts[1])
	}
	return NewRDQD(accompli, attendu)
}

// Accompli returns the accomplished count.
func (r RDQD) Accompli() int { return r.accompli }

// Attendu returns the expected count.
func (r RDQD) Attendu() int { return r.attendu }

// IsComplete reports whether everything expected was accomplished.
func (r RDQD) IsComplete() bool { return r.accompli == r.attendu }

// CompletionPercentage returns accompli/attendu as a percentage. Construction
// guarantees attendu > 0, so there is no division-by-zero path here.
func (r RDQD) CompletionPercentage() float64 {
	return float64(r.accompli) / float64(r.attendu) * 100
}

// String returns the canonical "accompli/attendu" form.
func (r RDQD) String() string {
	return fmt.Sprintf("%d/%d", r.accompli, r.attendu)
}

// MarshalText serializes the canonical form; used by caches and stores.
func (r RDQD) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses the canonical form, re-applying construction invariants.
func (r *RDQD) UnmarshalText(text []byte) error {
	parsed, err := ParseRDQD(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
