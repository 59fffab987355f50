package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvariantViolation = errors.New("order invariant violation")
)

// InvariantError marks a persisted order that contradicts its own match
// history. It aborts the run it was found in.
type InvariantError struct {
	OrderID string
	Reason  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: order %s: %s", ErrInvariantViolation, e.OrderID, e.Reason)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}

func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
