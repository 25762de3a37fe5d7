// Package guard lets value objects, aggregates, commands and queries detect
// whether they were produced by their constructor or are zero values.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate on a zero-value guard when the
// caller does not supply its own error.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard is embedded in types whose zero value is invalid.
// Only NewConstructorGuard produces a guard that passes Validate.
//
// Example:
//
//	var ErrTrackingNumberIsNotConstructed = errors.New("TrackingNumber must be created via NewTrackingNumber")
//
//	type TrackingNumber struct {
//	    value string
//	    guard guard.ConstructorGuard
//	}
//
//	func (t TrackingNumber) Validate() error {
//	    return t.guard.Validate(ErrTrackingNumberIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard marked as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns nil for a constructed guard. For a zero value it returns
// validationError, or ErrDefaultConstructorGuard when validationError is nil.
func (g ConstructorGuard) Validate(validationError error) error {
	if g.isConstructed {
		return nil
	}
	if validationError == nil {
		return ErrDefaultConstructorGuard
	}
	return validationError
}
