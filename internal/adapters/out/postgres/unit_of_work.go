// Package postgres provides the GORM-backed unit of work for the dispatch core.
// A unit of work spans one database transaction; every repository it hands out
// is bound to that transaction, so a parcel update and the matching agent update
// become visible together or not at all.
//
// Concurrency:
//   - Repositories load aggregates with GetForUpdate (SELECT ... FOR UPDATE),
//     serializing writers on the same parcel or agent
//   - Update additionally compares and swaps on the version column, so a writer
//     that skipped the row lock still cannot overwrite a newer state
//   - Deadlocks and serialization failures reported by PostgreSQL surface as
//     Conflict errors
//   - Each UnitOfWork instance is single-goroutine; create one per command
//
// Usage:
//
//	factory := NewGormUnitOfWorkFactory(db)
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() { _ = uow.Rollback(ctx) }()
//
//	p, err := uow.ParcelRepository().GetForUpdate(ctx, parcelID)
//	if err != nil {
//	    return err
//	}
//	// mutate p ...
//	if err := uow.ParcelRepository().Update(ctx, p); err != nil {
//	    return err
//	}
//	return uow.Commit(ctx)
package postgres

import (
	"context"

	"parceltrack/internal/adapters/out/postgres/agentrepo"
	"parceltrack/internal/adapters/out/postgres/idempotencyrepo"
	"parceltrack/internal/adapters/out/postgres/parcelrepo"
	"parceltrack/internal/adapters/out/postgres/txerrors"
	"parceltrack/internal/core/ports"

	"gorm.io/gorm"
)

// GormUnitOfWorkFactory creates UnitOfWork instances sharing one connection pool.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work instances.
//
// The connection should be opened with TranslateError enabled so unique violations
// surface as gorm.ErrDuplicatedKey:
//
//	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
//	if err != nil {
//	    log.Fatal("failed to connect database")
//	}
//	factory := NewGormUnitOfWorkFactory(db)
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Create produces a fresh UnitOfWork with its own transaction state.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{db: f.db}
}

// GormUnitOfWork coordinates one database transaction.
type GormUnitOfWork struct {
	db *gorm.DB
	tx *gorm.DB
}

// Begin starts the transaction. Calling Begin twice does not nest transactions.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	return nil
}

// Commit makes every write of the transaction permanent and closes it.
// Returns gorm.ErrInvalidTransaction when no transaction is active, and a Conflict
// when PostgreSQL aborts the commit as a serialization failure.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return txerrors.Translate(err, "transaction", "commit")
}

// Rollback discards the transaction. After a successful Commit it returns
// gorm.ErrInvalidTransaction, which callers deferring Rollback ignore.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	return err
}

// ParcelRepository returns a parcel repository bound to the active transaction,
// or to the pool when none is active.
func (uow *GormUnitOfWork) ParcelRepository() ports.ParcelRepository {
	return parcelrepo.NewGormParcelRepository(uow.conn())
}

// AgentRepository returns an agent repository bound to the active transaction.
func (uow *GormUnitOfWork) AgentRepository() ports.AgentRepository {
	return agentrepo.NewGormAgentRepository(uow.conn())
}

// IdempotencyRepository returns an idempotency key repository bound to the active transaction.
func (uow *GormUnitOfWork) IdempotencyRepository() ports.IdempotencyRepository {
	return idempotencyrepo.NewGormIdempotencyRepository(uow.conn())
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}
