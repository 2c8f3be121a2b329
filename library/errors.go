package library

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Match any *Error with errors.Is(err, ErrNotFound) and friends.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrUnavailable        = errors.New("no copies available")
	ErrAlreadyReturned    = errors.New("loan already returned")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrHasActiveLoans     = errors.New("has active loans")
)

// Error is a business-rule rejection raised by the catalog or circulation operations.
type Error struct {
	Kind   error
	Entity string // "book", "member", "loan" or empty
	ID     string
	Msg    string
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Entity != "" && e.ID != "":
		return fmt.Sprintf("%s %s: %v", e.Entity, e.ID, e.Kind)
	case e.Entity != "":
		return fmt.Sprintf("%s: %v", e.Entity, e.Kind)
	}
	return e.Kind.Error()
}

func (e *Error) Is(target error) bool { return e.Kind == target }

func (e *Error) Unwrap() error { return e.Kind }

func invalidInput(format string, args ...any) error {
	return &Error{Kind: ErrInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

func notFound(entity, id string) error {
	return &Error{Kind: ErrNotFound, Entity: entity, ID: id}
}

// Outcome is the success flag plus operator-facing message that presentation layers show.
type Outcome struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// NewOutcome turns the result of an operation into an Outcome. A nil err yields
// a successful outcome carrying msg.
func NewOutcome(msg string, err error) Outcome {
	if err != nil {
		return Outcome{OK: false, Message: err.Error()}
	}
	return Outcome{OK: true, Message: msg}
}
