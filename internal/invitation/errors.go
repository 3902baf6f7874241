package invitation

import (
	"errors"
	"fmt"

	"pressroom/invitehub/internal/model"
)

// Sentinels for errors.Is matching; the typed errors below unwrap to these.
var (
	ErrValidation   = errors.New("invitation validation failed")
	ErrInvalidState = errors.New("operation not permitted in current invitation stage")
	ErrIntegrity    = errors.New("protected payload field modified")
	ErrUnknownType  = errors.New("unknown invitation type")
)

// ValidationError reports caller input violating a precondition, such as
// initializing an invitation with neither a user id nor an email.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invitation validation failed: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InvalidStateError reports an operation attempted outside its permitted stage.
type InvalidStateError struct {
	Op     string
	Status model.InvitationStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s invitation in stage %s", e.Op, e.Status)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// IntegrityError reports a protected payload field changed at a stage that
// forbids it. This indicates a broken caller or a tampering attempt, not bad
// user input, and is never surfaced as a recoverable validation failure.
type IntegrityError struct {
	Field  string
	Status model.InvitationStatus
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("payload field %q is protected in stage %s", e.Field, e.Status)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

// UnknownTypeError reports a factory lookup for an unregistered invitation type.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown invitation type %q", e.Type)
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }
