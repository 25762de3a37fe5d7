// Package parcelrepo persists the parcel aggregate with GORM: one row per parcel in
// "parcels" and an append-only "parcel_history" child table.
package parcelrepo

import (
	"time"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"

	"github.com/google/uuid"
)

// ParcelDTO represents the database structure for persisting parcel aggregates.
type ParcelDTO struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey"`
	TrackingNumber string      `gorm:"type:varchar(32);not null;uniqueIndex"`
	CustomerID     uuid.UUID   `gorm:"type:uuid;not null;index:idx_parcels_customer_status,priority:1"`
	CustomerEmail  string      `gorm:"type:varchar(320)"`
	AgentID        *uuid.UUID  `gorm:"type:uuid;index:idx_parcels_agent_status,priority:1"`
	Status         string      `gorm:"type:varchar(16);not null;index;index:idx_parcels_customer_status,priority:2;index:idx_parcels_agent_status,priority:2"`
	Pickup         AddressDTO  `gorm:"embedded;embeddedPrefix:pickup_"`
	Delivery       AddressDTO  `gorm:"embedded;embeddedPrefix:delivery_"`
	ItemSize       string      `gorm:"type:varchar(16);not null"`
	ItemType       string      `gorm:"type:varchar(255)"`
	ItemWeight     *float64    `gorm:"type:double precision"`
	PaymentMode    string      `gorm:"type:varchar(16);not null"`
	PaymentAmount  float64     `gorm:"type:numeric(12,2);not null"`
	AgentLocation  LocationDTO `gorm:"embedded;embeddedPrefix:agent_"`
	FailureReason  string      `gorm:"type:text"`
	DeliveredAt    *time.Time  `gorm:"type:timestamptz"`
	QRPayload      string      `gorm:"type:text;not null"`
	CreatedAt      time.Time   `gorm:"type:timestamptz;not null;index;autoCreateTime:false"`
	UpdatedAt      time.Time   `gorm:"type:timestamptz;not null;autoUpdateTime:false"`
	Version        int64       `gorm:"type:bigint;not null"`

	History []HistoryEntryDTO `gorm:"foreignKey:ParcelID;constraint:OnDelete:CASCADE"`
}

// TableName overrides GORM's default "parcel_dtos".
func (ParcelDTO) TableName() string {
	return "parcels"
}

// AddressDTO is embedded twice into the parcel row, once per endpoint.
type AddressDTO struct {
	Line  string  `gorm:"type:varchar(255);not null"`
	City  string  `gorm:"type:varchar(128)"`
	State string  `gorm:"type:varchar(128)"`
	Zip   string  `gorm:"type:varchar(32)"`
	Lat   float64 `gorm:"type:double precision;not null"`
	Lng   float64 `gorm:"type:double precision;not null"`
}

// LocationDTO holds the last agent position; all columns are NULL until the first report.
type LocationDTO struct {
	Lat        *float64   `gorm:"type:double precision"`
	Lng        *float64   `gorm:"type:double precision"`
	Accuracy   *float64   `gorm:"type:double precision"`
	RecordedAt *time.Time `gorm:"type:timestamptz"`
}

// HistoryEntryDTO is one accepted status change. Rows are only ever inserted.
type HistoryEntryDTO struct {
	ParcelID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq       int       `gorm:"primaryKey;autoIncrement:false"`
	Status    string    `gorm:"type:varchar(16);not null"`
	At        time.Time `gorm:"type:timestamptz;not null"`
	ActorID   uuid.UUID `gorm:"type:uuid;not null"`
	ActorRole string    `gorm:"type:varchar(16);not null"`
	Notes     string    `gorm:"type:text"`
}

// TableName overrides GORM's default "history_entry_dtos".
func (HistoryEntryDTO) TableName() string {
	return "parcel_history"
}

func fromDomain(p *parcel.Parcel) ParcelDTO {
	s := p.Snapshot()
	parcelID := s.ID.Bytes()

	var agentID *uuid.UUID
	if s.AgentID != nil {
		raw := s.AgentID.Bytes()
		agentID = &raw
	}

	var location LocationDTO
	if s.AgentLocation != nil {
		lat := s.AgentLocation.Location.Lat()
		lng := s.AgentLocation.Location.Lng()
		accuracy := s.AgentLocation.Accuracy
		recordedAt := s.AgentLocation.RecordedAt
		location = LocationDTO{Lat: &lat, Lng: &lng, Accuracy: &accuracy, RecordedAt: &recordedAt}
	}

	history := make([]HistoryEntryDTO, 0, len(s.History))
	for i, h := range s.History {
		history = append(history, HistoryEntryDTO{
			ParcelID:  parcelID,
			Seq:       i,
			Status:    h.Status.String(),
			At:        h.At,
			ActorID:   h.ActorID.Bytes(),
			ActorRole: h.ActorRole.String(),
			Notes:     h.Notes,
		})
	}

	return ParcelDTO{
		ID:             parcelID,
		TrackingNumber: s.TrackingNumber.String(),
		CustomerID:     s.CustomerID.Bytes(),
		CustomerEmail:  s.CustomerEmail,
		AgentID:        agentID,
		Status:         s.Status.String(),
		Pickup:         addressFromDomain(s.Pickup),
		Delivery:       addressFromDomain(s.Delivery),
		ItemSize:       s.Item.Size().String(),
		ItemType:       s.Item.Type(),
		ItemWeight:     s.Item.Weight(),
		PaymentMode:    s.Payment.Mode().String(),
		PaymentAmount:  s.Payment.Amount(),
		AgentLocation:  location,
		FailureReason:  s.FailureReason,
		DeliveredAt:    s.DeliveredAt,
		QRPayload:      s.QRPayload,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		Version:        s.Version,
		History:        history,
	}
}

func addressFromDomain(a kernel.Address) AddressDTO {
	return AddressDTO{
		Line:  a.Line(),
		City:  a.City(),
		State: a.State(),
		Zip:   a.Zip(),
		Lat:   a.Location().Lat(),
		Lng:   a.Location().Lng(),
	}
}

// toDomain rebuilds the aggregate through RestoreParcel, so a corrupted row fails
// validation instead of producing an inconsistent parcel.
func toDomain(dto ParcelDTO) (*parcel.Parcel, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}

	var agentID *kernel.UUID
	if dto.AgentID != nil {
		aID, agentErr := kernel.UUIDFromBytes((*dto.AgentID)[:])
		if agentErr != nil {
			return nil, agentErr
		}
		agentID = &aID
	}

	tn, err := parcel.ParseTrackingNumber(dto.TrackingNumber)
	if err != nil {
		return nil, err
	}
	status, err := parcel.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	pickup, err := addressToDomain(dto.Pickup)
	if err != nil {
		return nil, err
	}
	delivery, err := addressToDomain(dto.Delivery)
	if err != nil {
		return nil, err
	}

	size, err := parcel.ParseSize(dto.ItemSize)
	if err != nil {
		return nil, err
	}
	item, err := parcel.NewItem(size, dto.ItemType, dto.ItemWeight)
	if err != nil {
		return nil, err
	}
	mode, err := parcel.ParsePaymentMode(dto.PaymentMode)
	if err != nil {
		return nil, err
	}
	payment, err := parcel.NewPayment(mode, dto.PaymentAmount)
	if err != nil {
		return nil, err
	}

	location, err := locationToDomain(dto.AgentLocation)
	if err != nil {
		return nil, err
	}

	history := make([]parcel.HistoryEntry, 0, len(dto.History))
	for _, h := range dto.History {
		entry, entryErr := historyToDomain(h)
		if entryErr != nil {
			return nil, entryErr
		}
		history = append(history, entry)
	}

	return parcel.RestoreParcel(parcel.Snapshot{
		ID:             id,
		TrackingNumber: tn,
		CustomerID:     customerID,
		CustomerEmail:  dto.CustomerEmail,
		AgentID:        agentID,
		Pickup:         pickup,
		Delivery:       delivery,
		Item:           item,
		Payment:        payment,
		Status:         status,
		History:        history,
		AgentLocation:  location,
		FailureReason:  dto.FailureReason,
		DeliveredAt:    dto.DeliveredAt,
		QRPayload:      dto.QRPayload,
		CreatedAt:      dto.CreatedAt,
		UpdatedAt:      dto.UpdatedAt,
		Version:        dto.Version,
	})
}

func addressToDomain(dto AddressDTO) (kernel.Address, error) {
	loc, err := kernel.NewLocation(dto.Lat, dto.Lng)
	if err != nil {
		return kernel.Address{}, err
	}
	return kernel.NewAddress(dto.Line, dto.City, dto.State, dto.Zip, loc)
}

func locationToDomain(dto LocationDTO) (*parcel.LocationSnapshot, error) {
	if dto.Lat == nil || dto.Lng == nil || dto.RecordedAt == nil {
		return nil, nil
	}
	loc, err := kernel.NewLocation(*dto.Lat, *dto.Lng)
	if err != nil {
		return nil, err
	}
	var accuracy float64
	if dto.Accuracy != nil {
		accuracy = *dto.Accuracy
	}
	return &parcel.LocationSnapshot{Location: loc, Accuracy: accuracy, RecordedAt: *dto.RecordedAt}, nil
}

func historyToDomain(dto HistoryEntryDTO) (parcel.HistoryEntry, error) {
	status, err := parcel.ParseStatus(dto.Status)
	if err != nil {
		return parcel.HistoryEntry{}, err
	}
	actorID, err := kernel.UUIDFromBytes(dto.ActorID[:])
	if err != nil {
		return parcel.HistoryEntry{}, err
	}
	role, err := identity.ParseRole(dto.ActorRole)
	if err != nil {
		return parcel.HistoryEntry{}, err
	}
	return parcel.HistoryEntry{
		Status:    status,
		At:        dto.At,
		ActorID:   actorID,
		ActorRole: role,
		Notes:     dto.Notes,
	}, nil
}
