package parcel

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"parceltrack/internal/pkg/errs"
	"parceltrack/internal/pkg/guard"
)

const (
	trackingNumberPrefix    = "GF"
	trackingNumberRandomLen = 8
	trackingNumberAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var trackingNumberPattern = regexp.MustCompile(`^GF[A-Z0-9]+$`)

// ErrTrackingNumberIsNotConstructed is returned when a zero-value TrackingNumber is used.
var ErrTrackingNumberIsNotConstructed = errs.NewValueIsRequiredError(
	"tracking number must be created via NewTrackingNumber or ParseTrackingNumber")

// TrackingNumber is the human-readable parcel identifier printed on labels:
// "GF", the base36 creation time in milliseconds and eight random characters.
type TrackingNumber struct {
	value string
	guard guard.ConstructorGuard
}

// NewTrackingNumber generates a fresh tracking number for a parcel booked at now.
//
// Example:
//
//	tn, err := parcel.NewTrackingNumber(time.Now())
//	fmt.Println(tn) // GFM2K9Q1ZB7XK4QP2A
func NewTrackingNumber(now time.Time) (TrackingNumber, error) {
	var b strings.Builder
	b.WriteString(trackingNumberPrefix)
	b.WriteString(strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)))

	limit := big.NewInt(int64(len(trackingNumberAlphabet)))
	for range trackingNumberRandomLen {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return TrackingNumber{}, fmt.Errorf("generate tracking number: %w", err)
		}
		b.WriteByte(trackingNumberAlphabet[n.Int64()])
	}

	return TrackingNumber{value: b.String(), guard: guard.NewConstructorGuard()}, nil
}

// ParseTrackingNumber validates an existing tracking number (case-insensitive input).
func ParseTrackingNumber(s string) (TrackingNumber, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if !trackingNumberPattern.MatchString(v) {
		return TrackingNumber{}, errs.NewValueIsInvalidErrorWithCause(
			"trackingNumber",
			fmt.Errorf("%q does not match GF[A-Z0-9]+", s),
		)
	}
	return TrackingNumber{value: v, guard: guard.NewConstructorGuard()}, nil
}

func (t TrackingNumber) Validate() error {
	return t.guard.Validate(ErrTrackingNumberIsNotConstructed)
}

func (t TrackingNumber) String() string {
	return t.value
}

func (t TrackingNumber) IsEqual(other TrackingNumber) bool {
	return t.value == other.value
}
