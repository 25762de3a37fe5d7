package postgres

import (
	"context"
	"fmt"

	"parceltrack/internal/adapters/out/postgres/agentrepo"
	"parceltrack/internal/adapters/out/postgres/idempotencyrepo"
	"parceltrack/internal/adapters/out/postgres/parcelrepo"

	"gorm.io/gorm"
)

// Models lists every table the dispatch core owns, in creation order.
func Models() []any {
	return []any{
		&parcelrepo.ParcelDTO{},
		&parcelrepo.HistoryEntryDTO{},
		&agentrepo.AgentDTO{},
		&agentrepo.AgentParcelDTO{},
		&idempotencyrepo.KeyDTO{},
	}
}

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_parcels_pickup_coords ON parcels (pickup_lat, pickup_lng)`,
	`CREATE INDEX IF NOT EXISTS idx_parcels_delivery_coords ON parcels (delivery_lat, delivery_lng)`,
	`CREATE INDEX IF NOT EXISTS idx_parcels_created_id ON parcels (created_at DESC, id DESC)`,
}

// Migrate creates or updates the schema and the coordinate indexes used by
// proximity search.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	for _, stmt := range indexStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
