package planner

import "fmt"

// Kind enumerates the error kinds the Planner can return. These are
// conditions, not Go type names — callers distinguish them via Kind,
// not type assertions.
type Kind string

const (
	KindEmptyTimeline         Kind = "empty_timeline"
	KindSourceMissing         Kind = "source_missing"
	KindInvalidDuration       Kind = "invalid_duration"
	KindInvalidTransition     Kind = "invalid_transition"
	KindUnknownTransitionKind Kind = "unknown_transition_kind"
	KindToolchainFailure      Kind = "toolchain_failure"
	KindIOFailure             Kind = "io_failure"
	KindLockFailure           Kind = "lock_failure"
	KindMissingBaseTrack      Kind = "missing_base_track"
)

// Error is the single error type the Planner returns; Kind selects the
// recovery the caller should apply — all kinds are terminal, so
// "recovery" here just means "what to show".
type Error struct {
	Kind Kind

	ClipID int    // set for InvalidDuration
	Path   string // set for SourceMissing
	Detail string // free-form context, e.g. the transition or kind name
	Stage  string // set for ToolchainFailure
	Stderr string // set for ToolchainFailure

	Err error // wrapped cause, when one exists
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindEmptyTimeline:
		return "empty timeline: no clips"
	case KindSourceMissing:
		return fmt.Sprintf("source missing: %s", e.Path)
	case KindInvalidDuration:
		return fmt.Sprintf("invalid duration on clip %d", e.ClipID)
	case KindInvalidTransition:
		return fmt.Sprintf("invalid transition: %s", e.Detail)
	case KindUnknownTransitionKind:
		return fmt.Sprintf("unknown transition kind: %s", e.Detail)
	case KindToolchainFailure:
		return fmt.Sprintf("toolchain failure at %s: %v\n%s", e.Stage, e.Err, e.Stderr)
	case KindIOFailure:
		return fmt.Sprintf("io failure: %v", e.Err)
	case KindLockFailure:
		return fmt.Sprintf("progress channel lock failure: %v", e.Err)
	case KindMissingBaseTrack:
		return "multi-track timeline has no clip on track 0"
	default:
		return fmt.Sprintf("planner error (%s): %v", e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func errEmptyTimeline() *Error { return &Error{Kind: KindEmptyTimeline} }

func errSourceMissing(path string) *Error { return &Error{Kind: KindSourceMissing, Path: path} }

func errInvalidDuration(clipID int) *Error {
	return &Error{Kind: KindInvalidDuration, ClipID: clipID}
}

func errInvalidTransition(detail string) *Error {
	return &Error{Kind: KindInvalidTransition, Detail: detail}
}

func errUnknownTransitionKind(detail string) *Error {
	return &Error{Kind: KindUnknownTransitionKind, Detail: detail}
}

func errToolchainFailure(stage, stderr string, cause error) *Error {
	return &Error{Kind: KindToolchainFailure, Stage: stage, Stderr: stderr, Err: cause}
}

func errIOFailure(cause error) *Error { return &Error{Kind: KindIOFailure, Err: cause} }

func errLockFailure() *Error {
	return &Error{Kind: KindLockFailure, Err: fmt.Errorf("a render is already in progress")}
}

func errMissingBaseTrack() *Error { return &Error{Kind: KindMissingBaseTrack} }
