package parcel

import (
	"fmt"
	"math"
	"time"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/pkg/errs"
)

// HistoryEntry is one element of the append-only status history.
type HistoryEntry struct {
	Status    Status
	At        time.Time
	ActorID   kernel.UUID
	ActorRole identity.Role
	Notes     string
}

func newHistoryEntry(status Status, at time.Time, actor identity.Identity, notes string) HistoryEntry {
	return HistoryEntry{
		Status:    status,
		At:        at.UTC(),
		ActorID:   actor.UserID(),
		ActorRole: actor.Role(),
		Notes:     notes,
	}
}

// LocationSnapshot is the last position an agent reported for an en-route parcel.
// A new report replaces it entirely.
type LocationSnapshot struct {
	Location   kernel.Location
	Accuracy   float64
	RecordedAt time.Time
}

// NewLocationSnapshot validates a location report. Accuracy is in metres and must be
// non-negative; a zero recordedAt is replaced by now.
func NewLocationSnapshot(location kernel.Location, accuracy float64, recordedAt, now time.Time) (LocationSnapshot, error) {
	if err := location.Validate(); err != nil {
		return LocationSnapshot{}, err
	}
	if math.IsNaN(accuracy) || math.IsInf(accuracy, 0) || accuracy < 0 {
		return LocationSnapshot{}, errs.NewValueIsInvalidErrorWithCause(
			"accuracy",
			fmt.Errorf("%v is negative", accuracy),
		)
	}
	if recordedAt.IsZero() {
		recordedAt = now
	}

	return LocationSnapshot{Location: location, Accuracy: accuracy, RecordedAt: recordedAt.UTC()}, nil
}
