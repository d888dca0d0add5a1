package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned when an action targets an owner that is not signed in
	ErrNoSession = errors.New("no active session")

	// ErrSessionEnded is returned when the session ended while a call was in flight.
	// The call's result has been discarded.
	ErrSessionEnded = errors.New("session ended before the call completed")

	// ErrEmptyGeneration is returned when the text generator produced no text
	ErrEmptyGeneration = errors.New("text generator returned an empty response")

	// ErrInvoiceNotFound is returned when a saved invoice is not in the local collection
	ErrInvoiceNotFound = errors.New("saved invoice not found")

	// ErrFeatureDisabled is returned when an optional gateway is not configured
	ErrFeatureDisabled = errors.New("feature is not configured")
)

// GatewayError wraps a failure from persistence, profile, text generation, rendering or archiving.
// Local state is left unmodified when one is returned.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsGatewayError reports whether err is or wraps a *GatewayError
func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}

func gatewayError(op string, err error) error {
	return &GatewayError{Op: op, Err: err}
}
