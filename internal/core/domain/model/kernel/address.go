package kernel

import (
	"errors"
	"strings"

	"parceltrack/internal/pkg/errs"
	"parceltrack/internal/pkg/guard"
)

// ErrAddressIsNotConstructed is returned when a zero-value Address is used.
var ErrAddressIsNotConstructed = errs.NewValueIsRequiredError("address must be created via NewAddress constructor")

// Address is a pickup or delivery point: a free-text street line, optional
// city/state/zip, and a mandatory geocoordinate.
//
// Example:
//
//	loc, _ := kernel.NewLocation(23.81, 90.41)
//	pickup, err := kernel.NewAddress("House 12, Road 5", "Dhaka", "Dhaka", "1207", loc)
type Address struct { //nolint:recvcheck //using for validation
	line     string
	city     string
	state    string
	zip      string
	location Location
	guard    guard.ConstructorGuard
}

// NewAddress validates and creates an Address. The street line is required and the
// location must come from NewLocation.
func NewAddress(line, city, state, zip string, location Location) (Address, error) {
	addr := Address{
		city:  strings.TrimSpace(city),
		state: strings.TrimSpace(state),
		zip:   strings.TrimSpace(zip),
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(addr.setLine(line), addr.setLocation(location)); err != nil {
		return Address{}, err
	}

	return addr, nil
}

// Validate checks that the Address was built by NewAddress.
func (a Address) Validate() error {
	return a.guard.Validate(ErrAddressIsNotConstructed)
}

func (a Address) Line() string {
	return a.line
}

func (a Address) City() string {
	return a.city
}

func (a Address) State() string {
	return a.state
}

func (a Address) Zip() string {
	return a.zip
}

func (a Address) Location() Location {
	return a.location
}

func (a *Address) setLine(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return errs.NewValueIsRequiredError("address")
	}

	a.line = line
	return nil
}

func (a *Address) setLocation(location Location) error {
	if err := location.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("coordinates", err)
	}

	a.location = location
	return nil
}
