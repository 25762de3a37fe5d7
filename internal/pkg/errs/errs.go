package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrObjectNotFound    = errors.New("object not found")
	ErrValueIsInvalid    = errors.New("value is invalid")
	ErrValueIsOutOfRange = errors.New("value is out of range")
	ErrValueIsRequired   = errors.New("value is required")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidState      = errors.New("invalid state")
	ErrConflict          = errors.New("conflict")
	ErrDependencyFailure = errors.New("dependency failure")
)

// ObjectNotFoundError reports that an aggregate referenced by ParamName/ID does not exist.
type ObjectNotFoundError struct {
	ParamName string
	ID        any
	Cause     error
}

func NewObjectNotFoundError(paramName string, id any) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id}
}

func NewObjectNotFoundErrorWithCause(paramName string, id any, cause error) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id, Cause: cause}
}

func (e *ObjectNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: param is: %s, ID is: %s (cause: %v)",
			ErrObjectNotFound, e.ParamName, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrObjectNotFound, e.ID)
}

func (e *ObjectNotFoundError) Unwrap() error {
	return ErrObjectNotFound
}

// ValueIsInvalidError reports a malformed input value.
type ValueIsInvalidError struct {
	ParamName string
	Cause     error
}

func NewValueIsInvalidError(paramName string) *ValueIsInvalidError {
	return &ValueIsInvalidError{ParamName: paramName}
}

func NewValueIsInvalidErrorWithCause(paramName string, cause error) *ValueIsInvalidError {
	return &ValueIsInvalidError{ParamName: paramName, Cause: cause}
}

func (e *ValueIsInvalidError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrValueIsInvalid, e.ParamName, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrValueIsInvalid, e.ParamName)
}

func (e *ValueIsInvalidError) Unwrap() error {
	return ErrValueIsInvalid
}

// ValueIsOutOfRangeError reports a value outside of [Min, Max].
type ValueIsOutOfRangeError struct {
	ParamName string
	Value     any
	Min       any
	Max       any
	Cause     error
}

func NewValueIsOutOfRangeError(paramName string, value, minValue, maxValue any) *ValueIsOutOfRangeError {
	return &ValueIsOutOfRangeError{ParamName: paramName, Value: value, Min: minValue, Max: maxValue}
}

func NewValueIsOutOfRangeErrorWithCause(
	paramName string,
	value, minValue, maxValue any,
	cause error,
) *ValueIsOutOfRangeError {
	return &ValueIsOutOfRangeError{ParamName: paramName, Value: value, Min: minValue, Max: maxValue, Cause: cause}
}

func (e *ValueIsOutOfRangeError) Error() string {
	msg := fmt.Sprintf("%s: %v is %s, min value is %v, max value is %v",
		ErrValueIsInvalid,
		sanitize(e.Value), sanitize(e.ParamName), sanitize(e.Min), sanitize(e.Max))
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return msg
}

func (e *ValueIsOutOfRangeError) Unwrap() error {
	return ErrValueIsOutOfRange
}

// ValueIsRequiredError reports a missing mandatory value.
type ValueIsRequiredError struct {
	ParamName string
	Cause     error
}

func NewValueIsRequiredError(paramName string) *ValueIsRequiredError {
	return &ValueIsRequiredError{ParamName: paramName}
}

func NewValueIsRequiredErrorWithCause(paramName string, cause error) *ValueIsRequiredError {
	return &ValueIsRequiredError{ParamName: paramName, Cause: cause}
}

func (e *ValueIsRequiredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrValueIsRequired, e.ParamName, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrValueIsRequired, e.ParamName)
}

func (e *ValueIsRequiredError) Unwrap() error {
	return ErrValueIsRequired
}

// ForbiddenError reports that the caller may not perform Action on the resource.
type ForbiddenError struct {
	Action string
	Reason string
}

func NewForbiddenError(action, reason string) *ForbiddenError {
	return &ForbiddenError{Action: action, Reason: reason}
}

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s", ErrForbidden, e.Action)
	}
	return fmt.Sprintf("%s: %s (%s)", ErrForbidden, e.Action, e.Reason)
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// InvalidTransitionError reports a status change that is not reachable from the current status.
type InvalidTransitionError struct {
	From string
	To   string
}

func NewInvalidTransitionError(from, to fmt.Stringer) *InvalidTransitionError {
	return &InvalidTransitionError{From: from.String(), To: to.String()}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// InvalidStateError reports an operation attempted while the aggregate is in a state that forbids it.
type InvalidStateError struct {
	Operation string
	State     string
}

func NewInvalidStateError(operation, state string) *InvalidStateError {
	return &InvalidStateError{Operation: operation, State: state}
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: cannot %s while %s", ErrInvalidState, e.Operation, e.State)
}

func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// ConflictError reports a lost compare-and-swap or a duplicate key.
type ConflictError struct {
	ParamName string
	ID        any
	Cause     error
}

func NewConflictError(paramName string, id any) *ConflictError {
	return &ConflictError{ParamName: paramName, ID: id}
}

func NewConflictErrorWithCause(paramName string, id any, cause error) *ConflictError {
	return &ConflictError{ParamName: paramName, ID: id, Cause: cause}
}

func (e *ConflictError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s %v was modified concurrently (cause: %v)", ErrConflict, e.ParamName, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s: %s %v was modified concurrently", ErrConflict, e.ParamName, e.ID)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// DependencyFailureError reports a best-effort collaborator failure after the primary mutation committed.
type DependencyFailureError struct {
	Dependency string
	Cause      error
}

func NewDependencyFailureError(dependency string, cause error) *DependencyFailureError {
	return &DependencyFailureError{Dependency: dependency, Cause: cause}
}

func (e *DependencyFailureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrDependencyFailure, e.Dependency, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrDependencyFailure, e.Dependency)
}

func (e *DependencyFailureError) Unwrap() error {
	return ErrDependencyFailure
}

func sanitize(v any) string {
	s := fmt.Sprintf("%v", v)
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
