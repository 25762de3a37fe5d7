// Package api holds the HTTP contract of the API: the OpenAPI document, the
// request and response bodies it defines, and the echo routing glue that binds
// path, query and header parameters before calling a ServerInterface. It is kept
// by hand in step with openapi.json; spec_test.go checks the two agree.
package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Error defines model for Error.
type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Warning defines model for Warning.
type Warning struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Address defines model for Address.
type Address struct {
	Address string  `json:"address"`
	City    string  `json:"city,omitempty"`
	State   string  `json:"state,omitempty"`
	Zip     string  `json:"zip,omitempty"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// BookParcelRequest defines model for BookParcelRequest.
type BookParcelRequest struct {
	Pickup      Address  `json:"pickup"`
	Delivery    Address  `json:"delivery"`
	Size        string   `json:"size"`
	Type        string   `json:"type,omitempty"`
	Weight      *float64 `json:"weight,omitempty"`
	PaymentMode string   `json:"paymentMode"`
	Amount      *float64 `json:"amount,omitempty"`
}

// HistoryEntry defines model for HistoryEntry.
type HistoryEntry struct {
	Status    string             `json:"status"`
	At        time.Time          `json:"at"`
	ActorId   openapi_types.UUID `json:"actorId"`
	ActorRole string             `json:"actorRole"`
	Notes     string             `json:"notes,omitempty"`
}

// Location defines model for Location.
type Location struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Accuracy   float64   `json:"accuracy"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Parcel defines model for Parcel.
type Parcel struct {
	Id             openapi_types.UUID  `json:"id"`
	TrackingNumber string              `json:"trackingNumber"`
	CustomerId     openapi_types.UUID  `json:"customerId"`
	CustomerEmail  string              `json:"customerEmail,omitempty"`
	AgentId        *openapi_types.UUID `json:"agentId,omitempty"`
	Pickup         Address             `json:"pickup"`
	Delivery       Address             `json:"delivery"`
	Size           string              `json:"size"`
	Type           string              `json:"type,omitempty"`
	Weight         *float64            `json:"weight,omitempty"`
	PaymentMode    string              `json:"paymentMode"`
	Amount         float64             `json:"amount"`
	Status         string              `json:"status"`
	History        []HistoryEntry      `json:"history"`
	AgentLocation  *Location           `json:"agentLocation,omitempty"`
	FailureReason  string              `json:"failureReason,omitempty"`
	DeliveredAt    *time.Time          `json:"deliveredAt,omitempty"`
	DistanceKm     *float64            `json:"distanceKm,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
	Version        int64               `json:"version"`
	Warnings       []Warning           `json:"warnings,omitempty"`
}

// ParcelPage defines model for ParcelPage.
type ParcelPage struct {
	Items []Parcel `json:"items"`
	Total int64    `json:"total"`
	Page  int      `json:"page"`
	Limit int      `json:"limit"`
}

// AssignRequest defines model for AssignRequest.
type AssignRequest struct {
	AgentId openapi_types.UUID `json:"agentId"`
	Notes   string             `json:"notes,omitempty"`
}

// StatusUpdateRequest defines model for StatusUpdateRequest.
type StatusUpdateRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// CancelRequest defines model for CancelRequest.
type CancelRequest struct {
	Notes string `json:"notes,omitempty"`
}

// LocationReport defines model for LocationReport.
type LocationReport struct {
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	Accuracy   float64    `json:"accuracy,omitempty"`
	RecordedAt *time.Time `json:"recordedAt,omitempty"`
}

// ParcelLocation defines model for ParcelLocation.
type ParcelLocation struct {
	ParcelId       openapi_types.UUID `json:"parcelId"`
	TrackingNumber string             `json:"trackingNumber"`
	Status         string             `json:"status"`
	Available      bool               `json:"available"`
	Location       *Location          `json:"location,omitempty"`
	Warnings       []Warning          `json:"warnings,omitempty"`
}

// QRCode defines model for QRCode.
type QRCode struct {
	ParcelId       openapi_types.UUID `json:"parcelId"`
	TrackingNumber string             `json:"trackingNumber"`
	Payload        string             `json:"payload"`
}

// ScanRequest defines model for ScanRequest.
type ScanRequest struct {
	Payload string `json:"payload"`
	Status  string `json:"status"`
	Notes   string `json:"notes,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// VerifyRequest defines model for VerifyRequest.
type VerifyRequest struct {
	Payload string `json:"payload"`
}

// RegisterAgentRequest defines model for RegisterAgentRequest.
type RegisterAgentRequest struct {
	Id   openapi_types.UUID `json:"id"`
	Name string             `json:"name"`
}

// SetAgentActiveRequest defines model for SetAgentActiveRequest.
type SetAgentActiveRequest struct {
	Active bool `json:"active"`
}

// Agent defines model for Agent.
type Agent struct {
	Id                   openapi_types.UUID `json:"id"`
	Name                 string             `json:"name"`
	Active               bool               `json:"active"`
	TotalDeliveries      int                `json:"totalDeliveries"`
	SuccessfulDeliveries int                `json:"successfulDeliveries"`
	FailedDeliveries     int                `json:"failedDeliveries"`
	AssignedParcels      int                `json:"assignedParcels"`
}

// DashboardStats defines model for DashboardStats.
type DashboardStats struct {
	Total          int64   `json:"total"`
	BookedToday    int64   `json:"bookedToday"`
	Pending        int64   `json:"pending"`
	InFlight       int64   `json:"inFlight"`
	DeliveredToday int64   `json:"deliveredToday"`
	Failed         int64   `json:"failed"`
	CodCollected   float64 `json:"codCollected"`
}

// ExportRequest defines model for ExportRequest.
type ExportRequest struct {
	Status     string              `json:"status,omitempty"`
	AgentId    *openapi_types.UUID `json:"agentId,omitempty"`
	CustomerId *openapi_types.UUID `json:"customerId,omitempty"`
	Search     string              `json:"search,omitempty"`
	From       *time.Time          `json:"from,omitempty"`
	To         *time.Time          `json:"to,omitempty"`
}

// ExportResult defines model for ExportResult.
type ExportResult struct {
	Location string `json:"location"`
	Rows     int    `json:"rows"`
}

// BookParcelParams defines parameters for BookParcel.
type BookParcelParams struct {
	IdempotencyKey *string
}

// ListParcelsParams defines parameters for ListParcels.
type ListParcelsParams struct {
	Status     *string
	AgentId    *openapi_types.UUID
	CustomerId *openapi_types.UUID
	Search     *string
	From       *time.Time
	To         *time.Time
	NearLat    *float64
	NearLng    *float64
	RadiusKm   *float64
	Page       *int
	Limit      *int
}

// ListMyParcelsParams defines parameters for ListMyParcels.
type ListMyParcelsParams struct {
	Status *string
	Page   *int
	Limit  *int
}

// ListAgentParcelsParams defines parameters for ListAgentParcels.
type ListAgentParcelsParams struct {
	Status *string
	Page   *int
	Limit  *int
}

// ListAgentsParams defines parameters for ListAgents.
type ListAgentsParams struct {
	Active *bool
}

// StreamEventsParams defines parameters for StreamEvents.
type StreamEventsParams struct {
	ParcelId *[]openapi_types.UUID
}
