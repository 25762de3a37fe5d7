// Package events defines the notifications the dispatch core emits after a
// parcel change commits, and the channel names they are fanned out on.
package events

import (
	"time"

	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"
)

// Type names an event on the wire.
type Type string

const (
	ParcelCreated       Type = "parcel.created"
	ParcelAssigned      Type = "parcel.assigned"
	ParcelStatusChanged Type = "parcel.status_changed"
	ParcelCancelled     Type = "parcel.cancelled"
	LocationChanged     Type = "location.changed"
)

// AdminChannel receives every booking so dashboards can refresh.
const AdminChannel = "role:admin"

// UserChannel is the private channel of one user.
func UserChannel(userID kernel.UUID) string {
	return "user:" + userID.String()
}

// ParcelChannel carries every event about one parcel.
func ParcelChannel(parcelID kernel.UUID) string {
	return "parcel:" + parcelID.String()
}

// Location is the wire form of an agent position.
type Location struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Accuracy   float64   `json:"accuracy"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Event is a committed parcel change. Channels lists where the notifier delivers it.
type Event struct {
	Type            Type      `json:"type"`
	ParcelID        string    `json:"parcelId"`
	TrackingNumber  string    `json:"trackingNumber"`
	Status          string    `json:"status"`
	AgentID         string    `json:"agentId,omitempty"`
	PreviousAgentID string    `json:"previousAgentId,omitempty"`
	Location        *Location `json:"location,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
	Channels        []string  `json:"channels,omitempty"`
}

func base(t Type, p *parcel.Parcel, at time.Time) Event {
	e := Event{
		Type:           t,
		ParcelID:       p.ID().String(),
		TrackingNumber: p.TrackingNumber().String(),
		Status:         p.Status().String(),
		OccurredAt:     at.UTC(),
	}
	if agentID := p.AgentID(); agentID != nil {
		e.AgentID = agentID.String()
	}
	return e
}

// NewParcelCreated is sent to the customer and to administrators.
func NewParcelCreated(p *parcel.Parcel, at time.Time) Event {
	e := base(ParcelCreated, p, at)
	e.Channels = []string{UserChannel(p.CustomerID()), AdminChannel}
	return e
}

// NewParcelAssigned is sent to the customer, the new agent and parcel watchers.
// On reassignment the previous agent receives it too, so its list drops the parcel.
func NewParcelAssigned(p *parcel.Parcel, previous *kernel.UUID, at time.Time) Event {
	e := base(ParcelAssigned, p, at)
	e.Channels = []string{UserChannel(p.CustomerID()), ParcelChannel(p.ID())}
	if agentID := p.AgentID(); agentID != nil {
		e.Channels = append(e.Channels, UserChannel(*agentID))
	}
	if previous != nil {
		e.PreviousAgentID = previous.String()
		e.Channels = append(e.Channels, UserChannel(*previous))
	}
	return e
}

// NewParcelStatusChanged is sent to the customer and parcel watchers.
func NewParcelStatusChanged(p *parcel.Parcel, at time.Time) Event {
	e := base(ParcelStatusChanged, p, at)
	e.Reason = p.FailureReason()
	e.Channels = []string{UserChannel(p.CustomerID()), ParcelChannel(p.ID())}
	return e
}

// NewParcelCancelled is sent to the customer, parcel watchers and administrators.
func NewParcelCancelled(p *parcel.Parcel, at time.Time) Event {
	e := base(ParcelCancelled, p, at)
	e.Channels = []string{UserChannel(p.CustomerID()), ParcelChannel(p.ID()), AdminChannel}
	return e
}

// NewLocationChanged is sent to parcel watchers only.
func NewLocationChanged(p *parcel.Parcel, at time.Time) Event {
	e := base(LocationChanged, p, at)
	if l := p.AgentLocation(); l != nil {
		e.Location = &Location{
			Lat:        l.Location.Lat(),
			Lng:        l.Location.Lng(),
			Accuracy:   l.Accuracy,
			RecordedAt: l.RecordedAt,
		}
	}
	e.Channels = []string{ParcelChannel(p.ID())}
	return e
}
