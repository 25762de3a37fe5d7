package errs

import "errors"

// Kind is the stable, caller-visible classification of an error.
// Transport adapters map a Kind onto their own status codes and never expose the
// wrapped cause.
type Kind string

const (
	KindValidation        Kind = "ValidationError"
	KindNotFound          Kind = "NotFound"
	KindForbidden         Kind = "Forbidden"
	KindInvalidTransition Kind = "InvalidTransition"
	KindInvalidState      Kind = "InvalidState"
	KindConflict          Kind = "Conflict"
	KindDependencyFailure Kind = "DependencyFailure"
	KindInternal          Kind = "Internal"
)

// KindOf classifies err by walking its wrap chain, including errors.Join trees.
//
// Returns:
//   - the Kind of the first recognised sentinel
//   - KindInternal for nil-free errors that carry no known sentinel
//   - "" for a nil error
//
// Example:
//
//	err := fmt.Errorf("assign: %w", errs.NewForbiddenError("assign", "admin only"))
//	errs.KindOf(err) // KindForbidden
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrObjectNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrValueIsInvalid),
		errors.Is(err, ErrValueIsRequired),
		errors.Is(err, ErrValueIsOutOfRange):
		return KindValidation
	case errors.Is(err, ErrDependencyFailure):
		return KindDependencyFailure
	default:
		return KindInternal
	}
}
