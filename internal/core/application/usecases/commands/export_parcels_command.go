package commands

import (
	"errors"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/ports"
	"parceltrack/internal/pkg/guard"
)

var ErrExportParcelsCommandIsNotConstructed = errors.New(
	"ExportParcelsCommand must be created via NewExportParcelsCommand constructor",
)

// ExportParcelsCommand triggers a CSV export of the parcels matching criteria.
// Page and Limit of the criteria are ignored; every match up to the export cap is written.
type ExportParcelsCommand struct { //nolint:recvcheck //using for validation
	caller   identity.Identity
	criteria ports.SearchCriteria

	guard guard.ConstructorGuard
}

func NewExportParcelsCommand(caller identity.Identity, criteria ports.SearchCriteria) (ExportParcelsCommand, error) {
	if err := caller.Validate(); err != nil {
		return ExportParcelsCommand{}, err
	}

	return ExportParcelsCommand{
		caller:   caller,
		criteria: criteria,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c ExportParcelsCommand) Validate() error {
	return c.guard.Validate(ErrExportParcelsCommandIsNotConstructed)
}

func (c ExportParcelsCommand) Caller() identity.Identity {
	return c.caller
}

func (c ExportParcelsCommand) Criteria() ports.SearchCriteria {
	return c.criteria
}
