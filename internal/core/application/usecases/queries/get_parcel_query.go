// Package queries contains read operations over parcels and agents.
// Handlers read through ports.ParcelReader and ports.AgentReader and never mutate state;
// every query carries the caller identity and is authorization-gated.
package queries

import (
	"errors"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/pkg/guard"
)

var (
	ErrGetParcelQueryIsNotConstructed = errors.New(
		"GetParcelQuery must be created via NewGetParcelQuery constructor",
	)
)

// GetParcelQuery fetches one parcel for its owner, its assigned agent or an admin.
//
// Example:
//
//	query, err := NewGetParcelQuery(caller, parcelID)
//	if err != nil {
//	    return err
//	}
//	response, err := handler.Handle(ctx, query)
//	fmt.Printf("%s is %s, %.1f km\n", response.Parcel.TrackingNumber(), response.Parcel.Status(), response.DistanceKm)
type GetParcelQuery struct {
	caller   identity.Identity
	parcelID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetParcelQuery(caller identity.Identity, parcelID kernel.UUID) (GetParcelQuery, error) {
	if err := errors.Join(caller.Validate(), parcelID.Validate()); err != nil {
		return GetParcelQuery{}, err
	}
	return GetParcelQuery{caller: caller, parcelID: parcelID, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetParcelQuery) Validate() error {
	return q.guard.Validate(ErrGetParcelQueryIsNotConstructed)
}

func (q GetParcelQuery) Caller() identity.Identity {
	return q.caller
}

func (q GetParcelQuery) ParcelID() kernel.UUID {
	return q.parcelID
}

// GetParcelQueryResponse is the parcel detail read model.
// DistanceKm is the great-circle distance between pickup and delivery.
type GetParcelQueryResponse struct {
	Parcel     *parcel.Parcel
	DistanceKm float64
}
