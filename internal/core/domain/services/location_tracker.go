package services

import (
	"time"

	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/pkg/errs"
)

// LocationReport is one position sample sent by an agent.
type LocationReport struct {
	AgentID    kernel.UUID
	Lat        float64
	Lng        float64
	Accuracy   float64
	// RecordedAt may be zero; the tracker then uses the acceptance time.
	RecordedAt time.Time
}

// LocationTracker keeps the last known agent position of in-flight parcels.
// Only the latest sample is kept; there is no trail.
type LocationTracker struct{}

func NewLocationTracker() LocationTracker {
	return LocationTracker{}
}

// Record validates report and overwrites the parcel's location snapshot.
// Authorization and state are checked before the coordinates so a stranger
// learns nothing from validation messages.
//
// Returns:
//   - Forbidden unless report.AgentID is the assigned agent
//   - InvalidState unless the parcel is PickedUp or InTransit
//   - ValidationError for out-of-range coordinates or negative accuracy
func (LocationTracker) Record(p *parcel.Parcel, report LocationReport, now time.Time) (parcel.LocationSnapshot, error) {
	if err := p.Validate(); err != nil {
		return parcel.LocationSnapshot{}, err
	}
	if !p.IsAssignedTo(report.AgentID) {
		return parcel.LocationSnapshot{}, errs.NewForbiddenError("report location", "only the assigned agent may report location")
	}
	if !p.Status().IsEnRoute() {
		return parcel.LocationSnapshot{}, errs.NewInvalidStateError("report location", p.Status().String())
	}

	loc, err := kernel.NewLocation(report.Lat, report.Lng)
	if err != nil {
		return parcel.LocationSnapshot{}, err
	}
	snapshot, err := parcel.NewLocationSnapshot(loc, report.Accuracy, report.RecordedAt, now)
	if err != nil {
		return parcel.LocationSnapshot{}, err
	}

	if err = p.RecordLocation(report.AgentID, snapshot); err != nil {
		return parcel.LocationSnapshot{}, err
	}
	return snapshot, nil
}
