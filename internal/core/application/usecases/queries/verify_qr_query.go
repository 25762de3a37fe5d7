package queries

import (
	"errors"
	"strings"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/pkg/errs"
	"parceltrack/internal/pkg/guard"
)

var (
	ErrVerifyQRQueryIsNotConstructed = errors.New(
		"VerifyQRQuery must be created via NewVerifyQRQuery constructor",
	)
)

// VerifyQRQuery checks a scanned label before the agent acts on it.
//
// Example:
//
//	query, err := NewVerifyQRQuery(agent, scanned)
//	p, err := handler.Handle(ctx, query) // ValidationError on a forged label
type VerifyQRQuery struct {
	caller  identity.Identity
	payload string

	guard guard.ConstructorGuard
}

func NewVerifyQRQuery(caller identity.Identity, payload string) (VerifyQRQuery, error) {
	payload = strings.TrimSpace(payload)

	var payloadErr error
	if payload == "" {
		payloadErr = errs.NewValueIsRequiredError("qrPayload")
	}
	if err := errors.Join(caller.Validate(), payloadErr); err != nil {
		return VerifyQRQuery{}, err
	}
	return VerifyQRQuery{caller: caller, payload: payload, guard: guard.NewConstructorGuard()}, nil
}

func (q VerifyQRQuery) Validate() error {
	return q.guard.Validate(ErrVerifyQRQueryIsNotConstructed)
}

func (q VerifyQRQuery) Caller() identity.Identity {
	return q.caller
}

func (q VerifyQRQuery) Payload() string {
	return q.payload
}
