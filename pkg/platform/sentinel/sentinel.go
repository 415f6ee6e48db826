package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and cache layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: a uniqueness constraint rejected the write; the (user, date)
//   unique index is the race-breaker for concurrent report creation
// - ErrInvalidState: entity in wrong lifecycle state for requested operation
// - ErrUnavailable: store or cache backend temporarily unreachable
//
// For validation errors (bad input, malformed values), use pkg/domainerrors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
