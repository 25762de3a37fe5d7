package commands

import (
	"errors"
	"time"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/pkg/guard"
)

var ErrReportLocationCommandIsNotConstructed = errors.New(
	"ReportLocationCommand must be created via NewReportLocationCommand constructor",
)

// ReportLocationCommand carries one position sample from an agent's device.
// Coordinates are range-checked by the tracker after authorization.
//
// Example:
//
//	cmd, err := NewReportLocationCommand(agent, parcelID, 23.78, 90.41, 12.5, time.Time{})
type ReportLocationCommand struct { //nolint:recvcheck //using for validation
	caller     identity.Identity
	parcelID   kernel.UUID
	lat        float64
	lng        float64
	accuracy   float64
	recordedAt time.Time

	guard guard.ConstructorGuard
}

// NewReportLocationCommand creates a report; a zero recordedAt means "now".
func NewReportLocationCommand(
	caller identity.Identity,
	parcelID kernel.UUID,
	lat, lng, accuracy float64,
	recordedAt time.Time,
) (ReportLocationCommand, error) {
	if err := errors.Join(caller.Validate(), parcelID.Validate()); err != nil {
		return ReportLocationCommand{}, err
	}

	return ReportLocationCommand{
		caller:     caller,
		parcelID:   parcelID,
		lat:        lat,
		lng:        lng,
		accuracy:   accuracy,
		recordedAt: recordedAt,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c ReportLocationCommand) Validate() error {
	return c.guard.Validate(ErrReportLocationCommandIsNotConstructed)
}

func (c ReportLocationCommand) Caller() identity.Identity {
	return c.caller
}

func (c ReportLocationCommand) ParcelID() kernel.UUID {
	return c.parcelID
}

func (c ReportLocationCommand) Lat() float64 {
	return c.lat
}

func (c ReportLocationCommand) Lng() float64 {
	return c.lng
}

func (c ReportLocationCommand) Accuracy() float64 {
	return c.accuracy
}

func (c ReportLocationCommand) RecordedAt() time.Time {
	return c.recordedAt
}
