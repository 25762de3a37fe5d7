package parcel

import (
	"fmt"
	"math"
	"strings"

	"parceltrack/internal/pkg/errs"
	"parceltrack/internal/pkg/guard"
)

// PaymentMode tells who pays and when.
type PaymentMode string

const (
	// PaymentCOD means the agent collects Amount from the recipient at delivery.
	PaymentCOD PaymentMode = "cod"
	// PaymentPrepaid means nothing is collected at delivery.
	PaymentPrepaid PaymentMode = "prepaid"
)

// ParsePaymentMode converts a wire value into a PaymentMode.
func ParsePaymentMode(s string) (PaymentMode, error) {
	mode := PaymentMode(strings.ToLower(strings.TrimSpace(s)))
	if err := mode.Validate(); err != nil {
		return "", err
	}
	return mode, nil
}

func (m PaymentMode) Validate() error {
	if m != PaymentCOD && m != PaymentPrepaid {
		return errs.NewValueIsInvalidErrorWithCause("paymentMode", fmt.Errorf("%q is not one of cod, prepaid", string(m)))
	}
	return nil
}

func (m PaymentMode) String() string {
	return string(m)
}

// ErrPaymentIsNotConstructed is returned when a zero-value Payment is used.
var ErrPaymentIsNotConstructed = errs.NewValueIsRequiredError("payment must be created via NewPayment constructor")

// Payment is the collectible amount of a parcel.
//
// Business rules:
//   - a cash-on-delivery amount must be positive
//   - a prepaid parcel always carries a zero amount, whatever the input
type Payment struct {
	mode   PaymentMode
	amount float64
	guard  guard.ConstructorGuard
}

// NewPayment validates mode and amount.
//
// Example:
//
//	cod, err := parcel.NewPayment(parcel.PaymentCOD, 500)    // amount 500
//	pre, err := parcel.NewPayment(parcel.PaymentPrepaid, 99) // amount 0
//	_, err = parcel.NewPayment(parcel.PaymentCOD, 0)         // ValueIsInvalid
func NewPayment(mode PaymentMode, amount float64) (Payment, error) {
	if err := mode.Validate(); err != nil {
		return Payment{}, err
	}

	if mode == PaymentPrepaid {
		return Payment{mode: mode, amount: 0, guard: guard.NewConstructorGuard()}, nil
	}

	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return Payment{}, errs.NewValueIsInvalidErrorWithCause(
			"codAmount",
			fmt.Errorf("%v is not greater than 0", amount),
		)
	}

	return Payment{mode: mode, amount: amount, guard: guard.NewConstructorGuard()}, nil
}

func (p Payment) Validate() error {
	return p.guard.Validate(ErrPaymentIsNotConstructed)
}

func (p Payment) Mode() PaymentMode {
	return p.mode
}

// Amount is the amount collected at delivery; always 0 for prepaid parcels.
func (p Payment) Amount() float64 {
	return p.amount
}
