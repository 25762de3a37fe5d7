package services

import (
	"slices"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/pkg/errs"
)

// Capability is an action a caller wants to perform on a parcel.
type Capability int

const (
	CapabilityView Capability = iota + 1
	CapabilityUpdateStatus
	CapabilityReportLocation
	CapabilityAssign
	CapabilityCancel
)

func (c Capability) String() string {
	switch c {
	case CapabilityView:
		return "view"
	case CapabilityUpdateStatus:
		return "update status"
	case CapabilityReportLocation:
		return "report location"
	case CapabilityAssign:
		return "assign"
	case CapabilityCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// AccessGuard decides whether an identity may act on a parcel.
//
// Rules:
//   - view: the owning customer, the assigned agent or an admin
//   - updateStatus, reportLocation: the currently assigned agent only
//   - assign: admins only
//   - cancel: the owning customer or an admin
//
// Every denial is an *errs.ForbiddenError.
//
// Example usage:
//
//	guard := services.NewAccessGuard()
//	if err := guard.Authorize(p, caller, services.CapabilityView); err != nil {
//	    return nil, err
//	}
type AccessGuard struct{}

func NewAccessGuard() AccessGuard {
	return AccessGuard{}
}

// Authorize checks caller against the rule for capability on p.
func (AccessGuard) Authorize(p *parcel.Parcel, caller identity.Identity, capability Capability) error {
	if err := caller.Validate(); err != nil {
		return errs.NewForbiddenError(capability.String(), "missing identity")
	}
	if err := p.Validate(); err != nil {
		return err
	}

	isOwner := caller.IsCustomer() && p.IsOwnedBy(caller.UserID())
	isAssignedAgent := caller.IsAgent() && p.IsAssignedTo(caller.UserID())

	var allowed bool
	switch capability {
	case CapabilityView:
		allowed = caller.IsAdmin() || isOwner || isAssignedAgent
	case CapabilityUpdateStatus, CapabilityReportLocation:
		allowed = isAssignedAgent
	case CapabilityAssign:
		allowed = caller.IsAdmin()
	case CapabilityCancel:
		allowed = caller.IsAdmin() || isOwner
	}

	if !allowed {
		return errs.NewForbiddenError(capability.String(), "caller is "+caller.String())
	}
	return nil
}

// RequireRole admits callers holding one of roles, for operations not tied to an
// existing parcel (booking, listings, dashboards).
func (AccessGuard) RequireRole(caller identity.Identity, action string, roles ...identity.Role) error {
	if err := caller.Validate(); err != nil {
		return errs.NewForbiddenError(action, "missing identity")
	}
	if !slices.Contains(roles, caller.Role()) {
		return errs.NewForbiddenError(action, caller.Role().String()+" role is not allowed")
	}
	return nil
}
