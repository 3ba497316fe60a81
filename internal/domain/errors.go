package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat signals input that is not exactly 11 digits.
	ErrInvalidFormat = errors.New("cpf must have exactly 11 digits")
	// ErrInvalidChecksum signals a well-formed CPF whose check digits do not match.
	ErrInvalidChecksum = errors.New("cpf check digits are invalid")
	// ErrInvalidRequest signals out-of-range search parameters.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnknownState signals a federative unit code missing from the region table.
	ErrUnknownState = errors.New("unknown state")
	// ErrAborted signals a search stopped by cancellation before it finished.
	ErrAborted = errors.New("search aborted")
	// ErrInternal signals an unexpected failure caught at the search boundary.
	ErrInternal = errors.New("unexpected error")
)

// PanicError wraps ErrInternal with the recovered panic value.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: panic: %v", ErrInternal.Error(), e.Value)
}

func (e *PanicError) Unwrap() error { return ErrInternal }

// NewPanicError creates an internal error from a recovered panic value.
func NewPanicError(v any) error {
	return &PanicError{Value: v}
}
