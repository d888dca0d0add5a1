package invoice

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingInvoiceNumber is returned when an invoice without a number is upserted
	ErrMissingInvoiceNumber = errors.New("invoice number is required")

	// ErrMissingOwner is returned when an invoice without an owner is upserted
	ErrMissingOwner = errors.New("owner id is required")

	// ErrOwnerMismatch is returned when an invoice of another owner reaches a collection
	ErrOwnerMismatch = errors.New("invoice belongs to a different owner")
)

// IndexError reports a line item index outside the current item sequence.
// It signals a caller defect, not a user-facing condition.
type IndexError struct {
	Op    string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: item index %d out of range [0,%d)", e.Op, e.Index, e.Len)
}

// UnknownFieldError reports a TextField value outside the defined set
type UnknownFieldError struct {
	Field int
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown invoice field %d", e.Field)
}

// ValidationError lists the fields that keep an invoice from being saved
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invoice is incomplete: " + strings.Join(e.Fields, ", ")
}

// IsValidationError reports whether err is or wraps a *ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsIndexError reports whether err is or wraps an *IndexError
func IsIndexError(err error) bool {
	var ie *IndexError
	return errors.As(err, &ie)
}
