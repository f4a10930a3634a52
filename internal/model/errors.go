package model

import (
	"errors"
	"fmt"
)

// Reason identifies why a ValidationError rejected a mutation.
type Reason string

const (
	ReasonNoChord         Reason = "NO_CHORD"
	ReasonInvalidChord    Reason = "INVALID_CHORD"
	ReasonEmptyAction     Reason = "EMPTY_ACTION"
	ReasonDuplicateAction Reason = "DUPLICATE_ACTION"
	ReasonDuplicateCombo  Reason = "DUPLICATE_COMBO"
	ReasonEmptyName       Reason = "EMPTY_NAME"
	ReasonDuplicateName   Reason = "DUPLICATE_NAME"
	ReasonOutOfRange      Reason = "OUT_OF_RANGE"
	ReasonUnknownGroup    Reason = "UNKNOWN_GROUP"
	ReasonUnknownBinding  Reason = "UNKNOWN_BINDING"
	ReasonUnknownSlot     Reason = "UNKNOWN_SLOT"
	ReasonInvalidTheme    Reason = "INVALID_THEME"
	ReasonInvalidVariant  Reason = "INVALID_VARIANT"
	ReasonEmptyApp        Reason = "EMPTY_APP"
)

// ValidationError rejects a user mutation. No state changes when it is
// returned.
type ValidationError struct {
	Reason  Reason
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Reason, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(reason Reason, field, value, format string, args ...any) *ValidationError {
	return &ValidationError{
		Reason:  reason,
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	}
}

// NotFoundError reports that a remote document does not exist yet.
// Callers recover by using defaults.
type NotFoundError struct {
	Document string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document %q not found", e.Document)
}

// TransportError wraps a backend failure. In-memory state is kept as the
// working copy when one is returned.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// InvariantViolation describes a reference dropped by the repair pass.
type InvariantViolation struct {
	Kind    string
	Subject string
	Detail  string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant %s violated by %q: %s", e.Kind, e.Subject, e.Detail)
}

// Invariant kinds reported by the repair pass.
const (
	InvariantSingleOwner   = "single_owner"
	InvariantSlotReference = "slot_reference"
	InvariantUniqueName    = "unique_name"
	InvariantUniqueBinding = "unique_binding"
	InvariantCount         = "count"
)

// IsValidation reports whether err is a ValidationError.
// Uses errors.As to handle wrapped errors.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ReasonOf returns the validation reason of err, or "".
func ReasonOf(err error) Reason {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
