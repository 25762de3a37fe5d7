package commands

import (
	"errors"
	"time"

	"parceltrack/internal/pkg/errs"
	"parceltrack/internal/pkg/guard"
)

var ErrPurgeIdempotencyKeysCommandIsNotConstructed = errors.New(
	"PurgeIdempotencyKeysCommand must be created via NewPurgeIdempotencyKeysCommand constructor",
)

// PurgeIdempotencyKeysCommand drops booking idempotency keys older than cutoff.
// Issued by the maintenance job, not by users.
type PurgeIdempotencyKeysCommand struct { //nolint:recvcheck //using for validation
	cutoff time.Time

	guard guard.ConstructorGuard
}

func NewPurgeIdempotencyKeysCommand(cutoff time.Time) (PurgeIdempotencyKeysCommand, error) {
	if cutoff.IsZero() {
		return PurgeIdempotencyKeysCommand{}, errs.NewValueIsRequiredError("cutoff")
	}

	return PurgeIdempotencyKeysCommand{
		cutoff: cutoff,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

func (c PurgeIdempotencyKeysCommand) Validate() error {
	return c.guard.Validate(ErrPurgeIdempotencyKeysCommandIsNotConstructed)
}

func (c PurgeIdempotencyKeysCommand) Cutoff() time.Time {
	return c.cutoff
}
