package commands

import (
	"errors"
	"fmt"
	"strings"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/pkg/errs"
	"parceltrack/internal/pkg/guard"
)

const maxIdempotencyKeyLength = 255

var (
	ErrBookParcelCommandIsNotConstructed = errors.New(
		"BookParcelCommand must be created via NewBookParcelCommand constructor",
	)
)

// BookParcelCommand represents a customer's request to ship a parcel.
//
// Example:
//
//	cmd, err := NewBookParcelCommand(caller, pickup, delivery, item, payment, r.Header.Get("Idempotency-Key"))
//	if err != nil {
//	    return err // ValidationError
//	}
//	result, err := handler.Handle(ctx, cmd)
type BookParcelCommand struct { //nolint:recvcheck //using for validation
	caller         identity.Identity
	pickup         kernel.Address
	delivery       kernel.Address
	item           parcel.Item
	payment        parcel.Payment
	idempotencyKey string

	guard guard.ConstructorGuard
}

// NewBookParcelCommand validates the booking request. The idempotency key is optional.
func NewBookParcelCommand(
	caller identity.Identity,
	pickup kernel.Address,
	delivery kernel.Address,
	item parcel.Item,
	payment parcel.Payment,
	idempotencyKey string,
) (BookParcelCommand, error) {
	cmd := BookParcelCommand{
		caller:   caller,
		pickup:   pickup,
		delivery: delivery,
		item:     item,
		payment:  payment,
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		caller.Validate(),
		wrapRequired("pickupAddress", pickup.Validate()),
		wrapRequired("deliveryAddress", delivery.Validate()),
		item.Validate(),
		payment.Validate(),
		cmd.setIdempotencyKey(idempotencyKey),
	); err != nil {
		return BookParcelCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c BookParcelCommand) Validate() error {
	return c.guard.Validate(ErrBookParcelCommandIsNotConstructed)
}

func (c BookParcelCommand) Caller() identity.Identity {
	return c.caller
}

func (c BookParcelCommand) Pickup() kernel.Address {
	return c.pickup
}

func (c BookParcelCommand) Delivery() kernel.Address {
	return c.delivery
}

func (c BookParcelCommand) Item() parcel.Item {
	return c.item
}

func (c BookParcelCommand) Payment() parcel.Payment {
	return c.payment
}

// IdempotencyKey is empty when the client did not send one.
func (c BookParcelCommand) IdempotencyKey() string {
	return c.idempotencyKey
}

func (c *BookParcelCommand) setIdempotencyKey(key string) error {
	key = strings.TrimSpace(key)
	if len(key) > maxIdempotencyKeyLength {
		return errs.NewValueIsInvalidErrorWithCause(
			"Idempotency-Key",
			fmt.Errorf("longer than %d characters", maxIdempotencyKeyLength),
		)
	}
	c.idempotencyKey = key
	return nil
}

func wrapRequired(param string, err error) error {
	if err == nil {
		return nil
	}
	return errs.NewValueIsRequiredErrorWithCause(param, err)
}
