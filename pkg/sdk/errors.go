package cpfvariants

import "github.com/kailas-cloud/cpfvariants/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidFormat   = domain.ErrInvalidFormat
	ErrInvalidChecksum = domain.ErrInvalidChecksum
	ErrInvalidRequest  = domain.ErrInvalidRequest
	ErrUnknownState    = domain.ErrUnknownState
	ErrAborted         = domain.ErrAborted
	ErrInternal        = domain.ErrInternal
)
