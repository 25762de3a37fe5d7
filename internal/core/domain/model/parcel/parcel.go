package parcel

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/pkg/errs"
)

var (
	// ErrParcelIsNotConstructed is returned when a Parcel instance was not created through
	// NewParcel or RestoreParcel.
	ErrParcelIsNotConstructed = errors.New("Parcel must be created via NewParcel or RestoreParcel constructor")

	// ErrFailureReasonIsRequired is returned when a parcel is moved to Failed without a reason.
	ErrFailureReasonIsRequired = errs.NewValueIsRequiredError("reason")
)

// Parcel is the aggregate root of the tracking domain. It owns the lifecycle status,
// the append-only status history and the agent's last reported position.
//
// Parcel follows these invariants:
//   - ID, tracking number and customer never change after creation
//   - the last history entry always equals the current status
//   - an agent is assigned in every status except Pending and Cancelled
//   - a failure reason is present exactly when the status is Failed
//   - location reports are only accepted while PickedUp or InTransit
//   - terminal parcels (Delivered, Failed, Cancelled) accept no transition
//
// Parcel uses private fields; every mutation goes through a validating method and
// leaves the aggregate untouched when it fails.
type Parcel struct {
	id             kernel.UUID
	trackingNumber TrackingNumber
	customerID     kernel.UUID
	customerEmail  string
	agentID        *kernel.UUID

	pickup   kernel.Address
	delivery kernel.Address
	item     Item
	payment  Payment

	status        Status
	history       []HistoryEntry
	agentLocation *LocationSnapshot
	failureReason string
	deliveredAt   *time.Time
	qrPayload     string

	createdAt time.Time
	updatedAt time.Time
	version   int64

	isConstructed bool
}

// NewParcel books a new parcel for customer. The parcel starts Pending with a
// single history entry, and its QR payload is generated once here.
//
// Parameters:
//   - id: parcel identifier
//   - trackingNumber: freshly generated tracking number
//   - customer: the booking customer; their e-mail claim becomes the contact address
//   - pickup, delivery: validated addresses with coordinates
//   - item: size/type/weight
//   - payment: cod or prepaid amount
//   - now: booking time
//
// Returns:
//   - *Parcel: the draft ready for ParcelRepository.Add
//   - error: joined validation errors for every invalid argument
//
// Example:
//
//	tn, _ := parcel.NewTrackingNumber(now)
//	p, err := parcel.NewParcel(kernel.NewUUID(), tn, caller, pickup, drop, item, payment, now)
func NewParcel(
	id kernel.UUID,
	trackingNumber TrackingNumber,
	customer identity.Identity,
	pickup kernel.Address,
	delivery kernel.Address,
	item Item,
	payment Payment,
	now time.Time,
) (*Parcel, error) {
	p := &Parcel{
		status:        Pending,
		customerEmail: customer.Email(),
		createdAt:     now.UTC(),
		updatedAt:     now.UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		p.setID(id),
		p.setTrackingNumber(trackingNumber),
		p.setCustomer(customer.UserID()),
		p.setPickup(pickup),
		p.setDelivery(delivery),
		p.setItem(item),
		p.setPayment(payment),
	); err != nil {
		return nil, err
	}

	qr, err := EncodeQRPayload(p.id, p.trackingNumber)
	if err != nil {
		return nil, err
	}
	p.qrPayload = qr
	p.history = []HistoryEntry{newHistoryEntry(Pending, now, customer, "Parcel booked")}

	return p, nil
}

// Snapshot is the full persisted state of a parcel. Repositories build it from
// storage and hand it to RestoreParcel; Parcel.Snapshot returns a deep copy.
type Snapshot struct {
	ID             kernel.UUID
	TrackingNumber TrackingNumber
	CustomerID     kernel.UUID
	CustomerEmail  string
	AgentID        *kernel.UUID
	Pickup         kernel.Address
	Delivery       kernel.Address
	Item           Item
	Payment        Payment
	Status         Status
	History        []HistoryEntry
	AgentLocation  *LocationSnapshot
	FailureReason  string
	DeliveredAt    *time.Time
	QRPayload      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
}

// RestoreParcel reconstructs a Parcel from persistence, re-checking every invariant
// so corrupted rows surface as validation errors instead of inconsistent aggregates.
func RestoreParcel(s Snapshot) (*Parcel, error) {
	p := &Parcel{
		customerEmail: s.CustomerEmail,
		agentLocation: cloneLocation(s.AgentLocation),
		failureReason: s.FailureReason,
		deliveredAt:   cloneTime(s.DeliveredAt),
		qrPayload:     s.QRPayload,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
		version:       s.Version,
		isConstructed: true,
	}

	if err := errors.Join(
		p.setID(s.ID),
		p.setTrackingNumber(s.TrackingNumber),
		p.setCustomer(s.CustomerID),
		p.setPickup(s.Pickup),
		p.setDelivery(s.Delivery),
		p.setItem(s.Item),
		p.setPayment(s.Payment),
		p.restoreStatus(s.Status, s.AgentID, s.History, s.FailureReason),
	); err != nil {
		return nil, err
	}

	return p, nil
}

// Validate ensures the Parcel instance was properly constructed.
func (p *Parcel) Validate() error {
	if p == nil || !p.isConstructed {
		return ErrParcelIsNotConstructed
	}
	return nil
}

// IsEqual compares two parcels by ID.
func (p *Parcel) IsEqual(other *Parcel) bool {
	return other != nil && p.id.IsEqual(other.id)
}

func (p *Parcel) ID() kernel.UUID {
	return p.id
}

func (p *Parcel) TrackingNumber() TrackingNumber {
	return p.trackingNumber
}

func (p *Parcel) CustomerID() kernel.UUID {
	return p.customerID
}

// CustomerEmail is the contact address captured from the booking claims, possibly empty.
func (p *Parcel) CustomerEmail() string {
	return p.customerEmail
}

// AgentID returns the assigned agent, nil while Pending or Cancelled.
func (p *Parcel) AgentID() *kernel.UUID {
	if p.agentID == nil {
		return nil
	}
	id := *p.agentID
	return &id
}

// IsAssignedTo reports whether agentID is the currently assigned agent.
func (p *Parcel) IsAssignedTo(agentID kernel.UUID) bool {
	return p.agentID != nil && p.agentID.IsEqual(agentID)
}

// IsOwnedBy reports whether userID booked the parcel.
func (p *Parcel) IsOwnedBy(userID kernel.UUID) bool {
	return p.customerID.IsEqual(userID)
}

func (p *Parcel) Pickup() kernel.Address {
	return p.pickup
}

func (p *Parcel) Delivery() kernel.Address {
	return p.delivery
}

func (p *Parcel) Item() Item {
	return p.item
}

func (p *Parcel) Payment() Payment {
	return p.payment
}

func (p *Parcel) Status() Status {
	return p.status
}

// History returns a copy of the status history in acceptance order.
func (p *Parcel) History() []HistoryEntry {
	return slices.Clone(p.history)
}

// AgentLocation returns the last reported position, nil when none was ever reported.
func (p *Parcel) AgentLocation() *LocationSnapshot {
	return cloneLocation(p.agentLocation)
}

func (p *Parcel) FailureReason() string {
	return p.failureReason
}

func (p *Parcel) DeliveredAt() *time.Time {
	return cloneTime(p.deliveredAt)
}

// QRPayload is the opaque payload generated at booking.
func (p *Parcel) QRPayload() string {
	return p.qrPayload
}

func (p *Parcel) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Parcel) UpdatedAt() time.Time {
	return p.updatedAt
}

// Version is the optimistic concurrency token the parcel was loaded with.
func (p *Parcel) Version() int64 {
	return p.version
}

// MarkPersisted records the version the store assigned after a successful write.
func (p *Parcel) MarkPersisted(version int64) {
	p.version = version
}

// DeliveryDistanceKm is the straight-line distance between pickup and delivery.
func (p *Parcel) DeliveryDistanceKm() float64 {
	km, err := p.pickup.Location().DistanceKm(p.delivery.Location())
	if err != nil {
		return 0
	}
	return km
}

// Assign moves the parcel to Assigned for agentID and appends a history entry.
// Reassignment of an Assigned parcel swaps the agent.
//
// Returns:
//   - previous: the agent the parcel was taken from on reassignment, nil otherwise
//   - error: InvalidTransition from any other status, InvalidState when
//     reassigning to the agent already holding the parcel
//
// Example:
//
//	previous, err := p.Assign(agentID, admin, time.Now(), "")
//	if previous != nil {
//	    // release the parcel from the previous agent's list
//	}
func (p *Parcel) Assign(agentID kernel.UUID, actor identity.Identity, at time.Time, notes string) (*kernel.UUID, error) {
	if err := agentID.Validate(); err != nil {
		return nil, err
	}

	next, err := p.status.Transition(Assigned)
	if err != nil {
		return nil, err
	}

	if p.IsAssignedTo(agentID) {
		return nil, errs.NewInvalidStateError("reassign to the same agent", p.status.String())
	}

	previous := p.AgentID()
	p.agentID = &agentID
	p.appendHistory(next, actor, at, notes)

	return previous, nil
}

// Advance applies an agent- or owner-driven transition (pickup, transit, deliver,
// fail, cancel) and appends a history entry.
//
// Business rules:
//   - target must be reachable from the current status
//   - Failed requires a non-empty reason, which is stored on the parcel
//   - Delivered records the delivery timestamp
//   - Assigned is rejected here; use Assign
//
// Example:
//
//	if err := p.Advance(parcel.Failed, agent, time.Now(), "", "recipient absent"); err != nil {
//	    return err
//	}
func (p *Parcel) Advance(target Status, actor identity.Identity, at time.Time, notes, reason string) error {
	if target == Assigned {
		return errs.NewValueIsInvalidErrorWithCause("status", errors.New("assignment requires an agent"))
	}

	next, err := p.status.Transition(target)
	if err != nil {
		return err
	}

	reason = strings.TrimSpace(reason)
	if next == Failed && reason == "" {
		return ErrFailureReasonIsRequired
	}

	switch next { //nolint:exhaustive // only terminal side fields are recorded here
	case Failed:
		p.failureReason = reason
	case Delivered:
		delivered := at.UTC()
		p.deliveredAt = &delivered
	}

	p.appendHistory(next, actor, at, notes)
	return nil
}

// RecordLocation overwrites the agent location snapshot.
//
// Returns:
//   - Forbidden when agentID is not the assigned agent
//   - InvalidState when the parcel is not PickedUp or InTransit
func (p *Parcel) RecordLocation(agentID kernel.UUID, snapshot LocationSnapshot) error {
	if !p.IsAssignedTo(agentID) {
		return errs.NewForbiddenError("report location", "only the assigned agent may report location")
	}
	if !p.status.IsEnRoute() {
		return errs.NewInvalidStateError("report location", p.status.String())
	}
	if err := snapshot.Location.Validate(); err != nil {
		return err
	}

	s := snapshot
	p.agentLocation = &s
	if snapshot.RecordedAt.After(p.updatedAt) {
		p.updatedAt = snapshot.RecordedAt
	}
	return nil
}

// Snapshot returns a deep copy of the parcel state.
func (p *Parcel) Snapshot() Snapshot {
	return Snapshot{
		ID:             p.id,
		TrackingNumber: p.trackingNumber,
		CustomerID:     p.customerID,
		CustomerEmail:  p.customerEmail,
		AgentID:        p.AgentID(),
		Pickup:         p.pickup,
		Delivery:       p.delivery,
		Item:           p.item,
		Payment:        p.payment,
		Status:         p.status,
		History:        p.History(),
		AgentLocation:  p.AgentLocation(),
		FailureReason:  p.failureReason,
		DeliveredAt:    p.DeliveredAt(),
		QRPayload:      p.qrPayload,
		CreatedAt:      p.createdAt,
		UpdatedAt:      p.updatedAt,
		Version:        p.version,
	}
}

func (p *Parcel) appendHistory(status Status, actor identity.Identity, at time.Time, notes string) {
	p.status = status
	p.history = append(p.history, newHistoryEntry(status, at, actor, strings.TrimSpace(notes)))
	p.updatedAt = at.UTC()
}

func (p *Parcel) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	p.id = id
	return nil
}

func (p *Parcel) setTrackingNumber(tn TrackingNumber) error {
	if err := tn.Validate(); err != nil {
		return err
	}
	p.trackingNumber = tn
	return nil
}

func (p *Parcel) setCustomer(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customer", err)
	}
	p.customerID = customerID
	return nil
}

func (p *Parcel) setPickup(addr kernel.Address) error {
	if err := addr.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("pickupAddress", err)
	}
	p.pickup = addr
	return nil
}

func (p *Parcel) setDelivery(addr kernel.Address) error {
	if err := addr.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("deliveryAddress", err)
	}
	p.delivery = addr
	return nil
}

func (p *Parcel) setItem(item Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	p.item = item
	return nil
}

func (p *Parcel) setPayment(payment Payment) error {
	if err := payment.Validate(); err != nil {
		return err
	}
	p.payment = payment
	return nil
}

func (p *Parcel) restoreStatus(status Status, agentID *kernel.UUID, history []HistoryEntry, reason string) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if err := status.ValidateCanHaveAgent(agentID != nil); err != nil {
		return err
	}
	if len(history) == 0 || history[len(history)-1].Status != status {
		return errs.NewValueIsInvalidErrorWithCause(
			"history",
			fmt.Errorf("last history entry does not match status %s", status),
		)
	}
	if (status == Failed) != (reason != "") {
		return errs.NewValueIsInvalidErrorWithCause(
			"failureReason",
			fmt.Errorf("failure reason present=%t for status %s", reason != "", status),
		)
	}

	if agentID != nil {
		id := *agentID
		p.agentID = &id
	}
	p.status = status
	p.history = slices.Clone(history)
	return nil
}

func cloneLocation(l *LocationSnapshot) *LocationSnapshot {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
