// Package agentrepo provides data transfer objects and mapping functions for agent persistence.
package agentrepo

import (
	"parceltrack/internal/core/domain/model/agent"
	"parceltrack/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// AgentDTO represents the database structure for persisting agent aggregates.
type AgentDTO struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Name                 string           `gorm:"type:varchar(255);not null;index"`
	Active               bool             `gorm:"not null"`
	TotalDeliveries      int              `gorm:"type:int;not null"`
	SuccessfulDeliveries int              `gorm:"type:int;not null"`
	FailedDeliveries     int              `gorm:"type:int;not null"`
	Version              int64            `gorm:"type:bigint;not null"`
	Parcels              []AgentParcelDTO `gorm:"foreignKey:AgentID;constraint:OnDelete:CASCADE"`
}

// TableName overrides GORM's default "agent_dtos".
func (AgentDTO) TableName() string {
	return "agents"
}

// AgentParcelDTO links an agent to a parcel it currently holds.
type AgentParcelDTO struct {
	AgentID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	ParcelID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName overrides GORM's default "agent_parcel_dtos".
func (AgentParcelDTO) TableName() string {
	return "agent_parcels"
}

func fromDomain(a *agent.Agent) AgentDTO {
	agentID := a.ID().Bytes()
	parcels := make([]AgentParcelDTO, 0, len(a.Parcels()))
	for _, p := range a.Parcels() {
		parcels = append(parcels, AgentParcelDTO{AgentID: agentID, ParcelID: p.Bytes()})
	}

	stats := a.Stats()
	return AgentDTO{
		ID:                   agentID,
		Name:                 a.Name(),
		Active:               a.IsActive(),
		TotalDeliveries:      stats.Total,
		SuccessfulDeliveries: stats.Successful,
		FailedDeliveries:     stats.Failed,
		Version:              a.Version(),
		Parcels:              parcels,
	}
}

func toDomain(dto AgentDTO) (*agent.Agent, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	parcels := make([]kernel.UUID, 0, len(dto.Parcels))
	for _, p := range dto.Parcels {
		parcelID, parcelErr := kernel.UUIDFromBytes(p.ParcelID[:])
		if parcelErr != nil {
			return nil, parcelErr
		}
		parcels = append(parcels, parcelID)
	}

	stats := agent.Stats{
		Total:      dto.TotalDeliveries,
		Successful: dto.SuccessfulDeliveries,
		Failed:     dto.FailedDeliveries,
	}
	return agent.RestoreAgent(id, dto.Name, dto.Active, stats, parcels, dto.Version)
}
