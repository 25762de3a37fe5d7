// Package errs provides standardized error types for the parcel tracking application.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The package includes several error types for common error scenarios:
//   - ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError: malformed input
//   - ObjectNotFoundError: for when a parcel or agent cannot be found
//   - ForbiddenError: the caller's role or ownership does not permit the operation
//   - InvalidTransitionError: a status change that the lifecycle does not allow
//   - InvalidStateError: an operation attempted in a status that rejects it
//   - ConflictError: a concurrent modification lost the compare-and-swap
//   - DependencyFailureError: a best-effort collaborator failed after commit
//
// Each error type follows a consistent pattern:
//   - A sentinel error variable (e.g., ErrValueIsRequired)
//   - A struct type with fields for error details
//   - Constructor functions with and without cause
//   - Error() method for formatting the error message
//   - Unwrap() method for error wrapping/unwrapping support
//
// KindOf maps any error produced by the application onto a stable Kind, which is
// what transports report to callers.
package errs
