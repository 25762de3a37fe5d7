package queries

import (
	"errors"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/pkg/guard"
)

var (
	ErrGetParcelLocationQueryIsNotConstructed = errors.New(
		"GetParcelLocationQuery must be created via NewGetParcelLocationQuery constructor",
	)
	ErrGetParcelQRCodeQueryIsNotConstructed = errors.New(
		"GetParcelQRCodeQuery must be created via NewGetParcelQRCodeQuery constructor",
	)
)

// GetParcelLocationQuery reads the last reported agent position of a parcel.
type GetParcelLocationQuery struct {
	caller   identity.Identity
	parcelID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetParcelLocationQuery(caller identity.Identity, parcelID kernel.UUID) (GetParcelLocationQuery, error) {
	if err := errors.Join(caller.Validate(), parcelID.Validate()); err != nil {
		return GetParcelLocationQuery{}, err
	}
	return GetParcelLocationQuery{caller: caller, parcelID: parcelID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetParcelLocationQuery) Validate() error {
	return q.guard.Validate(ErrGetParcelLocationQueryIsNotConstructed)
}

func (q GetParcelLocationQuery) Caller() identity.Identity {
	return q.caller
}

func (q GetParcelLocationQuery) ParcelID() kernel.UUID {
	return q.parcelID
}

// GetParcelLocationQueryResponse holds the snapshot. Location is nil and
// Available false when no position was reported yet; that is not an error.
type GetParcelLocationQueryResponse struct {
	ParcelID       kernel.UUID
	TrackingNumber string
	Status         parcel.Status
	Available      bool
	Location       *parcel.LocationSnapshot
}

// GetParcelQRCodeQuery returns the QR payload printed on the parcel label.
type GetParcelQRCodeQuery struct {
	caller   identity.Identity
	parcelID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetParcelQRCodeQuery(caller identity.Identity, parcelID kernel.UUID) (GetParcelQRCodeQuery, error) {
	if err := errors.Join(caller.Validate(), parcelID.Validate()); err != nil {
		return GetParcelQRCodeQuery{}, err
	}
	return GetParcelQRCodeQuery{caller: caller, parcelID: parcelID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetParcelQRCodeQuery) Validate() error {
	return q.guard.Validate(ErrGetParcelQRCodeQueryIsNotConstructed)
}

func (q GetParcelQRCodeQuery) Caller() identity.Identity {
	return q.caller
}

func (q GetParcelQRCodeQuery) ParcelID() kernel.UUID {
	return q.parcelID
}

type GetParcelQRCodeQueryResponse struct {
	ParcelID       kernel.UUID
	TrackingNumber string
	Payload        string
}
