package schemas

import "errors"

// -- Engine Errors --

// Sentinel errors for the engine's recoverable and user-surfaced failure
// modes. Callers are expected to test with errors.Is; wrapped variants carry
// the offending identifier.
var (
	// ErrUnknownActor is returned when an actor id is absent from the store.
	ErrUnknownActor = errors.New("unknown actor")
	// ErrInvariantViolation covers beliefs outside [0,1] and mutually
	// exclusive hypothesis sets that do not sum to 1.
	ErrInvariantViolation = errors.New("belief invariant violation")
	// ErrNoSnapshot is returned when a rewind target has no snapshot at or
	// below the requested turn.
	ErrNoSnapshot = errors.New("no snapshot for turn")
	// ErrBranchLimit is returned when a fork would exceed the active-branch
	// ceiling. The caller must prune explicitly; nothing is evicted.
	ErrBranchLimit = errors.New("active branch limit reached")
	// ErrOracleUnavailable marks a judgment oracle failure. The resolver
	// degrades to the deterministic fallback instead of aborting the turn.
	ErrOracleUnavailable = errors.New("judgment oracle unavailable")
	// ErrMalformedSnapshot marks an unparsable snapshot block. Resume falls
	// back to full journal reconstruction instead of failing.
	ErrMalformedSnapshot = errors.New("malformed snapshot block")
	// ErrChecklistFailed is surfaced when the post-adjudication structural
	// checks reject a turn even after regeneration attempts.
	ErrChecklistFailed = errors.New("structural checklist failed")
)

// ErrorCode is a structured failure tag attached to oracle and export
// errors. A custom type keeps only predefined constants in use.
type ErrorCode string

const (
	ErrCodeOracleTimeout    ErrorCode = "ORACLE_TIMEOUT"
	ErrCodeOracleBadPayload ErrorCode = "ORACLE_BAD_PAYLOAD"
	ErrCodeExportFailure    ErrorCode = "EXPORT_FAILURE"
	ErrCodeJournalCorrupt   ErrorCode = "JOURNAL_CORRUPT"
)
