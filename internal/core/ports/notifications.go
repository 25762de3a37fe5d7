package ports

import (
	"context"

	"parceltrack/internal/core/domain/events"
)

// EventPublisher delivers committed parcel events. Implementations are best effort:
// a returned error is reported as a warning and never undoes the change.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// MailKind selects the e-mail variant.
type MailKind string

const (
	MailBookingConfirmation  MailKind = "booking_confirmation"
	MailAgentAssigned        MailKind = "agent_assigned"
	MailStatusUpdate         MailKind = "status_update"
	MailDeliveryConfirmation MailKind = "delivery_confirmation"
)

// Mail is a rendered notification addressed to one recipient.
type Mail struct {
	Kind    MailKind
	To      string
	Subject string
	Body    string
}

// Mailer sends customer notifications.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// ArtifactStore keeps generated export files and returns where they can be fetched.
type ArtifactStore interface {
	Put(ctx context.Context, key string, contentType string, body []byte) (string, error)
}
