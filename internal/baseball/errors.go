package baseball

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps exactly one of these.
var (
	ErrOutOfRange             = errors.New("out of range")
	ErrIncompatibleConstraint = errors.New("incompatible constraint")
	ErrWrongLength            = errors.New("wrong length")
	ErrNonDigit               = errors.New("non-digit")
	ErrZeroNotAllowed         = errors.New("zero not allowed")
	ErrDuplicateDigit         = errors.New("duplicate digit")
	ErrRoundNotActive         = errors.New("round not active")
)

// ValidationError carries the kind of a rejected configuration or guess,
// the offending field and a message fit for showing to the player.
type ValidationError struct {
	Kind    error
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %v: %s", e.Field, e.Kind, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

func newValidationError(kind error, field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Message returns the player-facing text for err, falling back to err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	if errors.Is(err, ErrRoundNotActive) {
		return "The round is over. Start a new game."
	}
	return err.Error()
}
