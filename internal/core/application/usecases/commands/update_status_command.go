package commands

import (
	"errors"
	"strings"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/pkg/guard"
)

var ErrUpdateStatusCommandIsNotConstructed = errors.New(
	"UpdateStatusCommand must be created via NewUpdateStatusCommand constructor",
)

// UpdateStatusCommand is an agent's request to move a parcel along its lifecycle
// (pickup, transit, deliver, fail).
//
// Example:
//
//	cmd, err := NewUpdateStatusCommand(agent, parcelID, parcel.Failed, "", "recipient absent")
type UpdateStatusCommand struct { //nolint:recvcheck //using for validation
	caller   identity.Identity
	parcelID kernel.UUID
	target   parcel.Status
	notes    string
	reason   string

	guard guard.ConstructorGuard
}

// NewUpdateStatusCommand creates a status update request. Whether target is
// reachable is decided against the stored parcel, not here.
func NewUpdateStatusCommand(
	caller identity.Identity,
	parcelID kernel.UUID,
	target parcel.Status,
	notes string,
	reason string,
) (UpdateStatusCommand, error) {
	if err := errors.Join(caller.Validate(), parcelID.Validate(), target.Validate()); err != nil {
		return UpdateStatusCommand{}, err
	}

	return UpdateStatusCommand{
		caller:   caller,
		parcelID: parcelID,
		target:   target,
		notes:    strings.TrimSpace(notes),
		reason:   strings.TrimSpace(reason),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c UpdateStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateStatusCommandIsNotConstructed)
}

func (c UpdateStatusCommand) Caller() identity.Identity {
	return c.caller
}

func (c UpdateStatusCommand) ParcelID() kernel.UUID {
	return c.parcelID
}

func (c UpdateStatusCommand) Target() parcel.Status {
	return c.target
}

func (c UpdateStatusCommand) Notes() string {
	return c.notes
}

// Reason is required by the domain when Target is Failed.
func (c UpdateStatusCommand) Reason() string {
	return c.reason
}
