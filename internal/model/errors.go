package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the ten error kinds named by the conversion core.
// Checked with errors.Is / errors.As. Most call sites wrap them with
// fmt.Errorf("...: %w", err); a few identifier helpers return
// ErrUnknownGcpLength bare.
var (
	ErrUnknownVersion        = errors.New("schemaVersion attribute not found within scan budget")
	ErrUnsupportedVersion    = errors.New("schemaVersion literal present but not supported")
	ErrUnsupportedConversion = errors.New("from/to format-version pair not in the dispatch table")
	ErrUnsupportedMediaType  = errors.New("content type outside the recognized set")
	ErrMalformedInput        = errors.New("input is not well-formed")
	ErrInvalidIdentifier     = errors.New("identifier does not conform to its scheme or checksum")
	ErrUnknownGcpLength      = errors.New("GCP length cannot be inferred and was not provided")
	ErrValidationFailed      = errors.New("event validator rejected an event")
	ErrUpstreamStalled       = errors.New("reactive fabric exceeded its stall timeout")
	ErrConversionAborted     = errors.New("conversion cancelled by caller")
)

// ValidationError wraps ErrValidationFailed with the offending event's
// sequence number so callers can report which event failed.
type ValidationError struct {
	SequenceNumber uint64
	Err            error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("event %d: %v", e.SequenceNumber, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError builds a ValidationError for the given sequence number.
func NewValidationError(seq uint64, cause error) *ValidationError {
	return &ValidationError{SequenceNumber: seq, Err: cause}
}
