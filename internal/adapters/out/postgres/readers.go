package postgres

import (
	"parceltrack/internal/adapters/out/postgres/agentrepo"
	"parceltrack/internal/adapters/out/postgres/parcelrepo"
	"parceltrack/internal/core/ports"

	"gorm.io/gorm"
)

// NewParcelReader returns a parcel reader on the pool, outside any unit of work.
func NewParcelReader(db *gorm.DB) ports.ParcelReader {
	return parcelrepo.NewGormParcelRepository(db)
}

// NewAgentReader returns an agent reader on the pool, outside any unit of work.
func NewAgentReader(db *gorm.DB) ports.AgentReader {
	return agentrepo.NewGormAgentRepository(db)
}
