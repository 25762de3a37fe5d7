// Package txerrors maps PostgreSQL transaction aborts caused by lock contention
// onto the domain's Conflict kind.
package txerrors

import (
	"errors"

	"parceltrack/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// Translate returns an *errs.ConflictError for serialization failures and detected
// deadlocks, so the client sees a retryable Conflict. Any other error is returned
// unchanged, nil included.
func Translate(err error, entity string, id any) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case serializationFailure, deadlockDetected:
		return errs.NewConflictErrorWithCause(entity, id, err)
	default:
		return err
	}
}
