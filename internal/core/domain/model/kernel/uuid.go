package kernel

import (
	"bytes"
	"fmt"

	"parceltrack/internal/pkg/errs"

	"github.com/google/uuid"
)

// ErrUUIDIsNotConstructed indicates that a UUID was not properly initialized through one of the constructor functions.
// This error is returned when validating a zero-value UUID.
var ErrUUIDIsNotConstructed = errs.NewValueIsRequiredError("UUID must be created via NewUUID, UUIDFromString, or UUIDFromBytes")

// UUID is a value object that identifies parcels, agents and users.
// It wraps github.com/google/uuid so the domain never depends on the raw type,
// and treats the nil UUID as "not constructed".
//
// Example usage:
//
//	parcelID := kernel.NewUUID()
//
//	customerID, err := kernel.UUIDFromString(header)
//	if err != nil {
//	    return errs.NewValueIsInvalidErrorWithCause("X-User-ID", err)
//	}
type UUID struct {
	id uuid.UUID
}

// NewUUID generates a new random UUID (version 4).
func NewUUID() UUID {
	return UUID{
		id: uuid.New(),
	}
}

// UUIDFromString parses a UUID from its canonical or URN/braced representation.
// The nil UUID is rejected with ErrUUIDIsNotConstructed.
//
// Example:
//
//	id, err := kernel.UUIDFromString("550e8400-e29b-41d4-a716-446655440000")
//	if err != nil {
//	    return fmt.Errorf("invalid parcel ID: %w", err)
//	}
func UUIDFromString(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, errs.NewValueIsInvalidErrorWithCause("uuid", fmt.Errorf("invalid UUID format: %w", err))
	}

	parsed := UUID{id: id}
	if err = parsed.Validate(); err != nil {
		return UUID{}, err
	}

	return parsed, nil
}

// UUIDFromBytes creates a UUID from its 16-byte binary form, as stored by the
// postgres adapters.
func UUIDFromBytes(b []byte) (UUID, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return UUID{}, errs.NewValueIsInvalidErrorWithCause("uuid", fmt.Errorf("invalid UUID format: %w", err))
	}

	newID := UUID{id: id}
	if err = newID.Validate(); err != nil {
		return UUID{}, err
	}

	return newID, nil
}

// UUIDFromGoogle wraps an already parsed uuid.UUID, e.g. one bound from a path parameter.
func UUIDFromGoogle(id uuid.UUID) (UUID, error) {
	return UUIDFromBytes(id[:])
}

// String returns the canonical "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx" form.
func (u UUID) String() string {
	return u.id.String()
}

// Bytes returns the underlying uuid.UUID value for adapters.
func (u UUID) Bytes() uuid.UUID {
	return u.id
}

// IsEqual compares two UUIDs for equality.
func (u UUID) IsEqual(other UUID) bool {
	return u.id == other.id
}

// Compare orders UUIDs by their binary form and returns -1, 0 or +1.
func (u UUID) Compare(other UUID) int {
	return bytes.Compare(u.id[:], other.id[:])
}

// IsZero reports whether u is the nil UUID.
func (u UUID) IsZero() bool {
	return u.id == uuid.Nil
}

// Validate returns ErrUUIDIsNotConstructed for the nil UUID.
func (u UUID) Validate() error {
	if u.id == uuid.Nil {
		return ErrUUIDIsNotConstructed
	}
	return nil
}

// MarshalText renders the UUID for JSON payloads and log attributes.
func (u UUID) MarshalText() ([]byte, error) {
	return []byte(u.id.String()), nil
}
