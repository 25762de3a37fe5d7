// Package idempotencyrepo stores booking idempotency keys in PostgreSQL.
package idempotencyrepo

import (
	"context"
	"errors"
	"strings"
	"time"

	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KeyDTO binds a customer's Idempotency-Key to the parcel it produced.
type KeyDTO struct {
	CustomerID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Key        string    `gorm:"type:varchar(255);primaryKey"`
	ParcelID   uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt  time.Time `gorm:"type:timestamptz;not null;index;autoCreateTime:false"`
}

// TableName overrides GORM's default "key_dtos".
func (KeyDTO) TableName() string {
	return "idempotency_keys"
}

// GormIdempotencyRepository implements ports.IdempotencyRepository using GORM.
type GormIdempotencyRepository struct {
	db *gorm.DB
}

// NewGormIdempotencyRepository creates a new GORM idempotency key repository.
func NewGormIdempotencyRepository(db *gorm.DB) *GormIdempotencyRepository {
	return &GormIdempotencyRepository{db: db}
}

// Find returns the parcel bound to (customerID, key), or nil when the key is unused.
func (r *GormIdempotencyRepository) Find(ctx context.Context, customerID kernel.UUID, key string) (*kernel.UUID, error) {
	if err := validate(customerID, key); err != nil {
		return nil, err
	}

	var dto KeyDTO
	err := r.db.WithContext(ctx).
		First(&dto, "customer_id = ? AND key = ?", customerID.Bytes(), key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	parcelID, err := kernel.UUIDFromBytes(dto.ParcelID[:])
	if err != nil {
		return nil, err
	}
	return &parcelID, nil
}

// Save binds key to parcelID.
func (r *GormIdempotencyRepository) Save(
	ctx context.Context,
	customerID kernel.UUID,
	key string,
	parcelID kernel.UUID,
	at time.Time,
) error {
	if err := validate(customerID, key); err != nil {
		return err
	}
	if err := parcelID.Validate(); err != nil {
		return err
	}

	dto := KeyDTO{
		CustomerID: customerID.Bytes(),
		Key:        key,
		ParcelID:   parcelID.Bytes(),
		CreatedAt:  at.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewConflictErrorWithCause("idempotencyKey", key, err)
		}
		return err
	}
	return nil
}

// PurgeBefore deletes keys created before cutoff.
func (r *GormIdempotencyRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&KeyDTO{})
	return result.RowsAffected, result.Error
}

func validate(customerID kernel.UUID, key string) error {
	if err := customerID.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return errs.NewValueIsRequiredError("idempotencyKey")
	}
	return nil
}
