package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a game error so transport layers can decide how to
// report it without inspecting messages.
type ErrorKind string

const (
	// ErrValidation covers malformed or out-of-range message fields,
	// rejected before reaching the state machine.
	ErrValidation ErrorKind = "validation"
	// ErrAuthorization covers actions the sender is not permitted to
	// perform on this game or round.
	ErrAuthorization ErrorKind = "authorization"
	// ErrStateConflict covers actions not valid in the round's current
	// state. Terminal duplicates are acknowledged as no-ops so retried
	// deliveries stay idempotent.
	ErrStateConflict ErrorKind = "state_conflict"
	// ErrNotFound covers unknown game codes, round ids, or team ids.
	ErrNotFound ErrorKind = "not_found"
	// ErrToken covers prompt fetches with an invalid, expired, or foreign
	// token. Fails closed with no partial disclosure.
	ErrToken ErrorKind = "token"
)

// GameError carries an ErrorKind alongside a human-readable message.
type GameError struct {
	Kind    ErrorKind
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// NewGameError builds a GameError with a formatted message.
func NewGameError(kind ErrorKind, format string, args ...any) *GameError {
	return &GameError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err, defaulting to validation for
// errors that did not originate in the game domain.
func KindOf(err error) ErrorKind {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ErrValidation
}

// IsKind reports whether err is a GameError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ge *GameError
	return errors.As(err, &ge) && ge.Kind == kind
}
