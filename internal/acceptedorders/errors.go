package acceptedorders

import (
	"errors"
	"fmt"
)

// Domain errors for accepted order review.
var (
	// ErrNotFound indicates the targeted order no longer exists.
	ErrNotFound = errors.New("accepted order not found")
	// ErrEmptyReport is returned when the report policy requires rows and the view is empty.
	ErrEmptyReport = errors.New("report has no rows")

	// Session errors.
	ErrDuplicateID   = errors.New("duplicate order id in collection")
	ErrNoPendingEdit = errors.New("no order is being edited")
	ErrNotConfirmed  = errors.New("delete not confirmed")
	ErrUnknownField  = errors.New("unknown order field")
	ErrInvalidField  = errors.New("invalid field value")
	ErrReadOnlyField = errors.New("field cannot be edited")
)

// TransportError reports a network or decoding failure talking to the order store.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("order store %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("order store %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err carries a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// FieldError describes a staged value rejected by the edit schema.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() []error { return []error{ErrInvalidField, e.Err} }
