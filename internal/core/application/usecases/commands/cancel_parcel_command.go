package commands

import (
	"errors"
	"strings"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/pkg/guard"
)

var ErrCancelParcelCommandIsNotConstructed = errors.New(
	"CancelParcelCommand must be created via NewCancelParcelCommand constructor",
)

// CancelParcelCommand withdraws a booking that has not been assigned yet.
type CancelParcelCommand struct { //nolint:recvcheck //using for validation
	caller   identity.Identity
	parcelID kernel.UUID
	notes    string

	guard guard.ConstructorGuard
}

func NewCancelParcelCommand(caller identity.Identity, parcelID kernel.UUID, notes string) (CancelParcelCommand, error) {
	if err := errors.Join(caller.Validate(), parcelID.Validate()); err != nil {
		return CancelParcelCommand{}, err
	}

	return CancelParcelCommand{
		caller:   caller,
		parcelID: parcelID,
		notes:    strings.TrimSpace(notes),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c CancelParcelCommand) Validate() error {
	return c.guard.Validate(ErrCancelParcelCommandIsNotConstructed)
}

func (c CancelParcelCommand) Caller() identity.Identity {
	return c.caller
}

func (c CancelParcelCommand) ParcelID() kernel.UUID {
	return c.parcelID
}

func (c CancelParcelCommand) Notes() string {
	return c.notes
}
