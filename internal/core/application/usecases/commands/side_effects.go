package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"parceltrack/internal/core/domain/events"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/core/ports"
	"parceltrack/internal/pkg/errs"
)

// ParcelResult is returned by every command that changes a parcel.
// Warnings holds *errs.DependencyFailureError values for notifications that could
// not be delivered after the change committed.
type ParcelResult struct {
	Parcel   *parcel.Parcel
	// Replayed is set when a booking was answered from its idempotency key.
	Replayed bool
	Warnings []error
}

// SideEffects sends the notifications that follow a committed parcel change.
// Failures are logged and returned as warnings; they never undo the change.
// A nil publisher or mailer is skipped.
type SideEffects struct {
	publisher ports.EventPublisher
	mailer    ports.Mailer
	logger    *slog.Logger
}

func NewSideEffects(publisher ports.EventPublisher, mailer ports.Mailer, logger *slog.Logger) SideEffects {
	if logger == nil {
		logger = slog.Default()
	}
	return SideEffects{
		publisher: publisher,
		mailer:    mailer,
		logger:    logger.With("component", "SideEffects"),
	}
}

// Notify publishes event and, when mail is non-nil and the parcel has a contact
// address, sends it.
func (s SideEffects) Notify(ctx context.Context, p *parcel.Parcel, event events.Event, mail *ports.Mail) []error {
	var warnings []error

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil {
			warnings = append(warnings, s.warn(p, "event publisher", err))
		}
	}

	if s.mailer != nil && mail != nil && mail.To != "" {
		if err := s.mailer.Send(ctx, *mail); err != nil {
			warnings = append(warnings, s.warn(p, "mailer", err))
		}
	}

	return warnings
}

func (s SideEffects) warn(p *parcel.Parcel, dependency string, cause error) error {
	err := errs.NewDependencyFailureError(dependency, cause)
	s.logger.Warn("post-commit notification failed",
		"parcel_id", p.ID().String(),
		"dependency", dependency,
		"kind", errs.KindOf(err),
		"error", cause,
	)
	return err
}

func bookingMail(p *parcel.Parcel) *ports.Mail {
	var b strings.Builder
	fmt.Fprintf(&b, "Your parcel has been booked.\n\nTracking number: %s\n", p.TrackingNumber())
	fmt.Fprintf(&b, "Pickup: %s\nDelivery: %s\n", p.Pickup().Line(), p.Delivery().Line())
	fmt.Fprintf(&b, "Payment: %s", p.Payment().Mode())
	if p.Payment().Mode() == parcel.PaymentCOD {
		fmt.Fprintf(&b, " (%.2f due on delivery)", p.Payment().Amount())
	}
	b.WriteString("\n")

	return &ports.Mail{
		Kind:    ports.MailBookingConfirmation,
		To:      p.CustomerEmail(),
		Subject: "Parcel booked: " + p.TrackingNumber().String(),
		Body:    b.String(),
	}
}

func assignedMail(p *parcel.Parcel, agentName string) *ports.Mail {
	return &ports.Mail{
		Kind:    ports.MailAgentAssigned,
		To:      p.CustomerEmail(),
		Subject: "Agent assigned: " + p.TrackingNumber().String(),
		Body: fmt.Sprintf("%s will pick up your parcel %s.\n",
			agentName, p.TrackingNumber()),
	}
}

func statusMail(p *parcel.Parcel) *ports.Mail {
	if p.Status() == parcel.Delivered {
		return &ports.Mail{
			Kind:    ports.MailDeliveryConfirmation,
			To:      p.CustomerEmail(),
			Subject: "Delivered: " + p.TrackingNumber().String(),
			Body: fmt.Sprintf("Your parcel %s was delivered at %s.\n",
				p.TrackingNumber(), p.DeliveredAt().Format("2006-01-02 15:04 MST")),
		}
	}

	body := fmt.Sprintf("Your parcel %s is now %s.\n", p.TrackingNumber(), p.Status())
	if reason := p.FailureReason(); reason != "" {
		body += "Reason: " + reason + "\n"
	}
	return &ports.Mail{
		Kind:    ports.MailStatusUpdate,
		To:      p.CustomerEmail(),
		Subject: fmt.Sprintf("Parcel %s: %s", p.TrackingNumber(), p.Status()),
		Body:    body,
	}
}
