package parcelrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"parceltrack/internal/adapters/out/postgres/txerrors"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/core/ports"
	"parceltrack/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormParcelRepository implements ports.ParcelRepository using GORM.
// Lock contention aborts (deadlock, serialization failure) surface as Conflict.
type GormParcelRepository struct {
	db *gorm.DB
}

// NewGormParcelRepository creates a new GORM parcel repository.
func NewGormParcelRepository(db *gorm.DB) *GormParcelRepository {
	return &GormParcelRepository{db: db}
}

// Add saves a freshly booked parcel together with its first history entry.
func (r *GormParcelRepository) Add(ctx context.Context, aggregate *parcel.Parcel) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	dto.Version = aggregate.Version() + 1
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewConflictErrorWithCause("parcel", aggregate.TrackingNumber().String(), err)
		}
		return txerrors.Translate(err, "parcel", aggregate.ID().String())
	}

	aggregate.MarkPersisted(dto.Version)
	return nil
}

// Update writes the parcel row only if the stored version still matches the one the
// aggregate was loaded with, then appends history rows that are not stored yet.
func (r *GormParcelRepository) Update(ctx context.Context, aggregate *parcel.Parcel) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	expected := aggregate.Version()
	dto.Version = expected + 1

	result := r.db.WithContext(ctx).
		Model(&ParcelDTO{}).
		Where("id = ? AND version = ?", dto.ID, expected).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(&dto)
	if result.Error != nil {
		return txerrors.Translate(result.Error, "parcel", aggregate.ID().String())
	}

	if result.RowsAffected == 0 {
		return r.missingOrStale(ctx, aggregate.ID())
	}

	if len(dto.History) > 0 {
		err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&dto.History).Error
		if err != nil {
			return txerrors.Translate(err, "parcel", aggregate.ID().String())
		}
	}

	aggregate.MarkPersisted(dto.Version)
	return nil
}

func (r *GormParcelRepository) missingOrStale(ctx context.Context, id kernel.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ParcelDTO{}).Where("id = ?", id.Bytes()).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("parcel", id.String())
	}
	return errs.NewConflictError("parcel", id.String())
}

// Get retrieves a parcel by ID.
func (r *GormParcelRepository) Get(ctx context.Context, id kernel.UUID) (*parcel.Parcel, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.first(r.db.WithContext(ctx), "id = ?", id.Bytes(), id.String())
}

// GetForUpdate retrieves a parcel and locks its row until the transaction ends.
func (r *GormParcelRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*parcel.Parcel, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	locked := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.first(locked, "id = ?", id.Bytes(), id.String())
}

// GetByTrackingNumber retrieves a parcel by its public tracking number.
func (r *GormParcelRepository) GetByTrackingNumber(ctx context.Context, tn parcel.TrackingNumber) (*parcel.Parcel, error) {
	if err := tn.Validate(); err != nil {
		return nil, err
	}
	return r.first(r.db.WithContext(ctx), "tracking_number = ?", tn.String(), tn.String())
}

func (r *GormParcelRepository) first(db *gorm.DB, query string, arg any, ref string) (*parcel.Parcel, error) {
	var dto ParcelDTO
	if err := db.Preload("History", orderedHistory).First(&dto, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("parcel", ref)
		}
		return nil, txerrors.Translate(err, "parcel", ref)
	}
	return toDomain(dto)
}

func orderedHistory(db *gorm.DB) *gorm.DB {
	return db.Order("seq")
}

// Search returns one page of parcels ordered by created_at DESC, id DESC.
func (r *GormParcelRepository) Search(ctx context.Context, criteria ports.SearchCriteria) (ports.Page, error) {
	criteria = criteria.Normalize()
	query := applyCriteria(r.db.WithContext(ctx).Model(&ParcelDTO{}), criteria)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return ports.Page{}, err
	}

	var dtos []ParcelDTO
	err := query.Session(&gorm.Session{}).
		Preload("History", orderedHistory).
		Order("created_at DESC").
		Order("id DESC").
		Limit(criteria.Limit).
		Offset(criteria.Offset()).
		Find(&dtos).Error
	if err != nil {
		return ports.Page{}, err
	}

	items := make([]*parcel.Parcel, 0, len(dtos))
	for _, dto := range dtos {
		p, convErr := toDomain(dto)
		if convErr != nil {
			return ports.Page{}, convErr
		}
		items = append(items, p)
	}

	return ports.Page{Items: items, Total: total, Page: criteria.Page, Limit: criteria.Limit}, nil
}

// distanceSQL is the haversine distance in km from a bound point to one of the
// embedded address coordinates. The cosine is clamped so rounding never leaves acos' domain.
const distanceSQL = `(6371 * acos(least(1.0, greatest(-1.0,
	cos(radians(?)) * cos(radians(%[1]s_lat)) * cos(radians(%[1]s_lng) - radians(?)) +
	sin(radians(?)) * sin(radians(%[1]s_lat))))))`

func applyCriteria(db *gorm.DB, c ports.SearchCriteria) *gorm.DB {
	if c.CustomerID != nil {
		db = db.Where("customer_id = ?", c.CustomerID.Bytes())
	}
	if c.AgentID != nil {
		db = db.Where("agent_id = ?", c.AgentID.Bytes())
	}
	if len(c.Statuses) > 0 {
		names := make([]string, 0, len(c.Statuses))
		for _, s := range c.Statuses {
			names = append(names, s.String())
		}
		db = db.Where("status IN ?", names)
	}
	if text := strings.TrimSpace(c.Text); text != "" {
		pattern := "%" + escapeLike(text) + "%"
		db = db.Where(
			"(tracking_number ILIKE ? OR pickup_city ILIKE ? OR delivery_city ILIKE ?)",
			pattern, pattern, pattern,
		)
	}
	if c.CreatedFrom != nil {
		db = db.Where("created_at >= ?", *c.CreatedFrom)
	}
	if c.CreatedTo != nil {
		db = db.Where("created_at <= ?", *c.CreatedTo)
	}
	if c.Near != nil {
		lat, lng, radius := c.Near.Center.Lat(), c.Near.Center.Lng(), c.Near.RadiusKm
		pickup := fmt.Sprintf(distanceSQL, "pickup")
		delivery := fmt.Sprintf(distanceSQL, "delivery")
		db = db.Where(
			"("+pickup+" <= ? OR "+delivery+" <= ?)",
			lat, lng, lat, radius,
			lat, lng, lat, radius,
		)
	}
	return db
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// statsRow receives the single row of the dashboard aggregate query.
type statsRow struct {
	Total          int64
	BookedToday    int64
	Pending        int64
	InFlight       int64
	DeliveredToday int64
	Failed         int64
	CODCollected   float64 `gorm:"column:cod_collected"`
}

// Stats aggregates the dashboard counters in one pass over the parcels table.
func (r *GormParcelRepository) Stats(ctx context.Context, dayStart time.Time) (ports.ParcelStats, error) {
	var row statsRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			count(*) AS total,
			count(*) FILTER (WHERE created_at >= @day) AS booked_today,
			count(*) FILTER (WHERE status = @pending) AS pending,
			count(*) FILTER (WHERE status IN @inflight) AS in_flight,
			count(*) FILTER (WHERE status = @delivered AND delivered_at >= @day) AS delivered_today,
			count(*) FILTER (WHERE status = @failed) AS failed,
			COALESCE(sum(payment_amount) FILTER (WHERE status = @delivered AND payment_mode = @cod), 0) AS cod_collected
		FROM parcels`,
		map[string]any{
			"day":       dayStart,
			"pending":   parcel.Pending.String(),
			"inflight":  []string{parcel.Assigned.String(), parcel.PickedUp.String(), parcel.InTransit.String()},
			"delivered": parcel.Delivered.String(),
			"failed":    parcel.Failed.String(),
			"cod":       parcel.PaymentCOD.String(),
		},
	).Scan(&row).Error
	if err != nil {
		return ports.ParcelStats{}, err
	}

	return ports.ParcelStats{
		Total:          row.Total,
		BookedToday:    row.BookedToday,
		Pending:        row.Pending,
		InFlight:       row.InFlight,
		DeliveredToday: row.DeliveredToday,
		Failed:         row.Failed,
		CODCollected:   row.CODCollected,
	}, nil
}
