package engine

import "fmt"

// ErrUnknownModule indicates a module key that is not in the catalog.
// Rejected synchronously, before any state change.
type ErrUnknownModule struct {
	Key string
}

func (e *ErrUnknownModule) Error() string {
	return fmt.Sprintf("unknown module %q", e.Key)
}

// ErrInvalidOption indicates an answer choice outside the question's
// option range. Rejected synchronously, before any state change.
type ErrInvalidOption struct {
	Option  int
	Options int
}

func (e *ErrInvalidOption) Error() string {
	return fmt.Sprintf("option %d out of range (%d options)", e.Option, e.Options)
}

// ErrInvalidTransition indicates an operation that is not legal from
// the current view mode (for example answering outside the quiz).
type ErrInvalidTransition struct {
	Op   string
	Mode Mode
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("cannot %s from %s view", e.Op, e.Mode)
}
