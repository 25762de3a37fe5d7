package ports

import (
	"context"
	"time"

	"parceltrack/internal/core/domain/model/kernel"
)

// IdempotencyRepository remembers which parcel a customer's Idempotency-Key produced,
// so a retried booking returns the original parcel instead of a duplicate.
type IdempotencyRepository interface {
	// Find returns the parcel booked under (customerID, key), or nil when the key is unused.
	Find(ctx context.Context, customerID kernel.UUID, key string) (*kernel.UUID, error)

	// Save binds key to parcelID. A key already bound is a Conflict.
	Save(ctx context.Context, customerID kernel.UUID, key string, parcelID kernel.UUID, at time.Time) error

	// PurgeBefore removes keys saved before cutoff and returns how many were removed.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
