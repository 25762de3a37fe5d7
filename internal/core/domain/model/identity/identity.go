// Package identity models the verified caller claims delivered by the external
// authentication mechanism: a user ID, a role and an optional contact e-mail.
package identity

import (
	"errors"
	"fmt"
	"strings"

	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/pkg/errs"
	"parceltrack/internal/pkg/guard"
)

// Role is the coarse permission level of a caller.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

// ErrIdentityIsNotConstructed is returned when a zero-value Identity reaches the domain.
var ErrIdentityIsNotConstructed = errors.New("Identity must be created via NewIdentity constructor")

// ParseRole converts a claim value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r, nil
}

// Validate rejects roles outside customer/agent/admin.
func (r Role) Validate() error {
	switch r {
	case RoleCustomer, RoleAgent, RoleAdmin:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a known role", string(r)))
	}
}

func (r Role) String() string {
	return string(r)
}

// Identity is the authenticated caller of an operation.
type Identity struct {
	userID kernel.UUID
	role   Role
	email  string
	guard  guard.ConstructorGuard
}

// NewIdentity builds an Identity from already verified claims.
//
// Example:
//
//	caller, err := identity.NewIdentity(userID, identity.RoleCustomer, "rina@example.com")
func NewIdentity(userID kernel.UUID, role Role, email string) (Identity, error) {
	if err := errors.Join(userID.Validate(), role.Validate()); err != nil {
		return Identity{}, err
	}

	return Identity{
		userID: userID,
		role:   role,
		email:  strings.TrimSpace(email),
		guard:  guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the Identity was built by NewIdentity.
func (i Identity) Validate() error {
	return i.guard.Validate(ErrIdentityIsNotConstructed)
}

func (i Identity) UserID() kernel.UUID {
	return i.userID
}

func (i Identity) Role() Role {
	return i.role
}

// Email is the contact address from the claims; empty when the claims carry none.
func (i Identity) Email() string {
	return i.email
}

func (i Identity) IsAdmin() bool {
	return i.role == RoleAdmin
}

func (i Identity) IsAgent() bool {
	return i.role == RoleAgent
}

func (i Identity) IsCustomer() bool {
	return i.role == RoleCustomer
}

// String renders "role:userID", the actor recorded in status history.
func (i Identity) String() string {
	return fmt.Sprintf("%s:%s", i.role, i.userID)
}
