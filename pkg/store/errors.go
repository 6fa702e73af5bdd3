package store

import (
	"errors"
	"fmt"

	"github.com/vango-dev/livepatch/pkg/protocol"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when an operation targets an unknown item.
	ErrNotFound = errors.New("store: item not found")

	// ErrInvalidInput is wrapped by every ValidationError.
	ErrInvalidInput = errors.New("store: invalid input")
)

// User-facing validation messages.
const (
	MsgEmptyTodo     = "Please enter a todo"
	MsgInvalidFilter = "Invalid filter"
)

// ErrorSignal is the signal that carries validation messages to the client.
const ErrorSignal = "error"

// ValidationError reports input rejected before any state change.
// It is recovered by answering with the signals patch from Frame.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("store: invalid %s %q: %s", e.Field, e.Value, e.Message)
}

// Unwrap returns ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Frame returns the signals patch that shows the message to the user.
func (e *ValidationError) Frame() protocol.Frame {
	return protocol.NewSignalsFrame(protocol.Signals{ErrorSignal: e.Message})
}

// NotFoundError reports an operation on an id that is not in the collection.
type NotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("store: item %q not found", e.ID)
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
