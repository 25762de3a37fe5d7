package agentrepo

import (
	"context"
	"errors"

	"parceltrack/internal/adapters/out/postgres/txerrors"
	"parceltrack/internal/core/domain/model/agent"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAgentRepository implements ports.AgentRepository using GORM.
type GormAgentRepository struct {
	db *gorm.DB
}

// NewGormAgentRepository creates a new GORM agent repository.
func NewGormAgentRepository(db *gorm.DB) *GormAgentRepository {
	return &GormAgentRepository{db: db}
}

// Add saves a newly registered agent.
func (r *GormAgentRepository) Add(ctx context.Context, aggregate *agent.Agent) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	dto.Version = aggregate.Version() + 1
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewConflictErrorWithCause("agent", aggregate.ID().String(), err)
		}
		return err
	}

	aggregate.MarkPersisted(dto.Version)
	return nil
}

// Update swaps the agent row on its version and rewrites the held parcel set.
func (r *GormAgentRepository) Update(ctx context.Context, aggregate *agent.Agent) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	expected := aggregate.Version()
	dto.Version = expected + 1

	db := r.db.WithContext(ctx)
	result := db.Model(&AgentDTO{}).
		Where("id = ? AND version = ?", dto.ID, expected).
		Select("*").
		Omit("id", clause.Associations).
		Updates(&dto)
	if result.Error != nil {
		return txerrors.Translate(result.Error, "agent", aggregate.ID().String())
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&AgentDTO{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("agent", aggregate.ID().String())
		}
		return errs.NewConflictError("agent", aggregate.ID().String())
	}

	if err := db.Where("agent_id = ?", dto.ID).Delete(&AgentParcelDTO{}).Error; err != nil {
		return txerrors.Translate(err, "agent", aggregate.ID().String())
	}
	if len(dto.Parcels) > 0 {
		if err := db.Create(&dto.Parcels).Error; err != nil {
			return txerrors.Translate(err, "agent", aggregate.ID().String())
		}
	}

	aggregate.MarkPersisted(dto.Version)
	return nil
}

// Get retrieves an agent by ID.
func (r *GormAgentRepository) Get(ctx context.Context, id kernel.UUID) (*agent.Agent, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.first(r.db.WithContext(ctx), id)
}

// GetForUpdate retrieves an agent and locks its row until the transaction ends.
func (r *GormAgentRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*agent.Agent, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormAgentRepository) first(db *gorm.DB, id kernel.UUID) (*agent.Agent, error) {
	var dto AgentDTO
	if err := db.Preload("Parcels").First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("agent", id.String())
		}
		return nil, txerrors.Translate(err, "agent", id.String())
	}
	return toDomain(dto)
}

// List retrieves agents ordered by name.
func (r *GormAgentRepository) List(ctx context.Context, activeOnly bool) ([]*agent.Agent, error) {
	query := r.db.WithContext(ctx).Preload("Parcels")
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var dtos []AgentDTO
	if err := query.Order("name").Order("id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	agents := make([]*agent.Agent, 0, len(dtos))
	for _, dto := range dtos {
		a, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, nil
}
