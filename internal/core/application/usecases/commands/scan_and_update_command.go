package commands

import (
	"errors"
	"strings"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/pkg/errs"
	"parceltrack/internal/pkg/guard"
)

var ErrScanAndUpdateCommandIsNotConstructed = errors.New(
	"ScanAndUpdateCommand must be created via NewScanAndUpdateCommand constructor",
)

// ScanAndUpdateCommand updates the status of the parcel whose QR label was scanned.
type ScanAndUpdateCommand struct { //nolint:recvcheck //using for validation
	caller  identity.Identity
	payload string
	target  parcel.Status
	notes   string
	reason  string

	guard guard.ConstructorGuard
}

// NewScanAndUpdateCommand creates a scan request. The payload is decoded by the handler.
func NewScanAndUpdateCommand(
	caller identity.Identity,
	payload string,
	target parcel.Status,
	notes string,
	reason string,
) (ScanAndUpdateCommand, error) {
	payload = strings.TrimSpace(payload)

	var payloadErr error
	if payload == "" {
		payloadErr = errs.NewValueIsRequiredError("qrPayload")
	}
	if err := errors.Join(caller.Validate(), payloadErr, target.Validate()); err != nil {
		return ScanAndUpdateCommand{}, err
	}

	return ScanAndUpdateCommand{
		caller:  caller,
		payload: payload,
		target:  target,
		notes:   notes,
		reason:  reason,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c ScanAndUpdateCommand) Validate() error {
	return c.guard.Validate(ErrScanAndUpdateCommandIsNotConstructed)
}

func (c ScanAndUpdateCommand) Caller() identity.Identity {
	return c.caller
}

func (c ScanAndUpdateCommand) Payload() string {
	return c.payload
}

func (c ScanAndUpdateCommand) Target() parcel.Status {
	return c.target
}

func (c ScanAndUpdateCommand) Notes() string {
	return c.notes
}

func (c ScanAndUpdateCommand) Reason() string {
	return c.reason
}
