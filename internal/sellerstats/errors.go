package sellerstats

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when the dataset or one of its collections is missing or empty.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidOptions is returned when strategies are required but not supplied.
	ErrInvalidOptions = errors.New("invalid options")
	// ErrInvalidItem is returned by the default revenue strategy for a malformed line item.
	ErrInvalidItem = errors.New("invalid purchase item")
	// ErrNumericOverflow is returned when a seller total or bonus is not a finite number.
	ErrNumericOverflow = errors.New("numeric overflow")
)

// FieldError identifies the field that failed validation. It unwraps to one of the sentinel errors.
type FieldError struct {
	Kind   error
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%v: %s %s", e.Kind, e.Field, e.Reason)
}

// Unwrap exposes the sentinel for errors.Is.
func (e *FieldError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Kind
}

func inputError(field, reason string) error {
	return &FieldError{Kind: ErrInvalidInput, Field: field, Reason: reason}
}

func optionsError(field, reason string) error {
	return &FieldError{Kind: ErrInvalidOptions, Field: field, Reason: reason}
}

func itemError(field, reason string) error {
	return &FieldError{Kind: ErrInvalidItem, Field: field, Reason: reason}
}

// WarningKind classifies a non-fatal reference-resolution problem.
type WarningKind string

const (
	// WarnUnknownSeller marks a purchase record whose seller_id matched no seller.
	WarnUnknownSeller WarningKind = "unknown_seller"
	// WarnUnknownProduct marks a line item whose sku matched no product.
	WarnUnknownProduct WarningKind = "unknown_product"
)

// Warning describes a record or item skipped during aggregation. Item is -1 for record-level warnings.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	Record   int         `json:"record"`
	Item     int         `json:"item"`
	SellerID string      `json:"seller_id"`
	SKU      string      `json:"sku,omitempty"`
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnUnknownSeller:
		return fmt.Sprintf("purchase record %d: seller %q not found", w.Record, w.SellerID)
	case WarnUnknownProduct:
		return fmt.Sprintf("purchase record %d item %d: product %q not found", w.Record, w.Item, w.SKU)
	default:
		return fmt.Sprintf("purchase record %d: %s", w.Record, w.Kind)
	}
}
