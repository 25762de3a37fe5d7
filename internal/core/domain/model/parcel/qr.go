package parcel

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/pkg/errs"
)

// qrPayloadPrefix versions the encoding so scanners can reject foreign codes early.
const qrPayloadPrefix = "GFQR1."

// ErrQRPayloadMismatch is returned when a scanned payload's tracking number does not
// match the parcel its ID resolves to (stale or tampered label).
var ErrQRPayloadMismatch = errs.NewValueIsInvalidErrorWithCause("qrPayload", errors.New("qr payload mismatch"))

// QRContent is the structured data bound into a parcel's QR code.
type QRContent struct {
	ParcelID       kernel.UUID
	TrackingNumber TrackingNumber
}

type qrWire struct {
	ParcelID       string `json:"parcelId"`
	TrackingNumber string `json:"trackingNumber"`
}

// EncodeQRPayload renders the opaque payload a QR image encodes. Image rendering
// itself happens outside the core.
func EncodeQRPayload(id kernel.UUID, tn TrackingNumber) (string, error) {
	if err := errors.Join(id.Validate(), tn.Validate()); err != nil {
		return "", err
	}

	raw, err := json.Marshal(qrWire{ParcelID: id.String(), TrackingNumber: tn.String()})
	if err != nil {
		return "", err
	}

	return qrPayloadPrefix + base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeQRPayload parses a scanned payload. Every malformed payload is a
// ValueIsInvalid error on "qrPayload".
//
// Example:
//
//	content, err := parcel.DecodeQRPayload(scanned)
//	if err != nil {
//	    return err // ValidationError
//	}
//	p, err := repo.Get(ctx, content.ParcelID)
func DecodeQRPayload(payload string) (QRContent, error) {
	encoded, ok := strings.CutPrefix(strings.TrimSpace(payload), qrPayloadPrefix)
	if !ok || encoded == "" {
		return QRContent{}, errs.NewValueIsInvalidErrorWithCause("qrPayload", errors.New("unrecognised qr payload"))
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return QRContent{}, errs.NewValueIsInvalidErrorWithCause("qrPayload", err)
	}

	var wire qrWire
	if err = json.Unmarshal(raw, &wire); err != nil {
		return QRContent{}, errs.NewValueIsInvalidErrorWithCause("qrPayload", err)
	}

	id, err := kernel.UUIDFromString(wire.ParcelID)
	if err != nil {
		return QRContent{}, errs.NewValueIsInvalidErrorWithCause("qrPayload", err)
	}

	tn, err := ParseTrackingNumber(wire.TrackingNumber)
	if err != nil {
		return QRContent{}, errs.NewValueIsInvalidErrorWithCause("qrPayload", err)
	}

	return QRContent{ParcelID: id, TrackingNumber: tn}, nil
}

// Matches reports whether the content was issued for p.
func (c QRContent) Matches(p *Parcel) bool {
	return p != nil && c.ParcelID.IsEqual(p.ID()) && c.TrackingNumber.IsEqual(p.TrackingNumber())
}
