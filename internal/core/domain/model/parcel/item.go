package parcel

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"parceltrack/internal/pkg/errs"
	"parceltrack/internal/pkg/guard"
)

// Size is the physical size class of a parcel.
type Size string

const (
	SizeSmall      Size = "small"
	SizeMedium     Size = "medium"
	SizeLarge      Size = "large"
	SizeExtraLarge Size = "extra-large"
)

// ParseSize converts a wire value into a Size.
func ParseSize(s string) (Size, error) {
	size := Size(strings.ToLower(strings.TrimSpace(s)))
	if err := size.Validate(); err != nil {
		return "", err
	}
	return size, nil
}

func (s Size) Validate() error {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge, SizeExtraLarge:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("size", fmt.Errorf("%q is not one of small, medium, large, extra-large", string(s)))
	}
}

func (s Size) String() string {
	return string(s)
}

// ErrItemIsNotConstructed is returned when a zero-value Item is used.
var ErrItemIsNotConstructed = errs.NewValueIsRequiredError("item must be created via NewItem constructor")

// Item describes what is being shipped: size class, free-text type and optional weight in kg.
type Item struct { //nolint:recvcheck //using for validation
	size     Size
	itemType string
	weight   *float64
	guard    guard.ConstructorGuard
}

// NewItem validates and creates an Item. A nil weight means "not declared";
// a declared weight must be positive.
func NewItem(size Size, itemType string, weight *float64) (Item, error) {
	item := Item{
		itemType: strings.TrimSpace(itemType),
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(item.setSize(size), item.setWeight(weight)); err != nil {
		return Item{}, err
	}

	return item, nil
}

func (i Item) Validate() error {
	return i.guard.Validate(ErrItemIsNotConstructed)
}

func (i Item) Size() Size {
	return i.size
}

func (i Item) Type() string {
	return i.itemType
}

// Weight returns a copy of the declared weight, nil when undeclared.
func (i Item) Weight() *float64 {
	if i.weight == nil {
		return nil
	}
	w := *i.weight
	return &w
}

func (i *Item) setSize(size Size) error {
	if err := size.Validate(); err != nil {
		return err
	}
	i.size = size
	return nil
}

func (i *Item) setWeight(weight *float64) error {
	if weight == nil {
		return nil
	}
	if math.IsNaN(*weight) || math.IsInf(*weight, 0) || *weight <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("weight", fmt.Errorf("%v is not greater than 0", *weight))
	}
	w := *weight
	i.weight = &w
	return nil
}
