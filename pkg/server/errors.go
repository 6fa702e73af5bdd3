package server

import (
	"errors"
	"fmt"
)

// Sentinel errors for request and stream handling.
var (
	// ErrStreamingUnsupported is returned when the response writer cannot flush.
	ErrStreamingUnsupported = errors.New("server: streaming unsupported")

	// ErrBodyTooLarge is returned when a signals body exceeds MaxBodyBytes.
	ErrBodyTooLarge = errors.New("server: request body too large")

	// ErrInvalidSignals is returned when request signals are not a JSON object.
	ErrInvalidSignals = errors.New("server: invalid signals")

	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("server: already running")
)

// StreamError wraps a failure that ended a response stream early.
type StreamError struct {
	Route  string // Route pattern being served
	Frames int    // Frames written before the failure
	Err    error  // Underlying error
}

// Error returns the error message with route context.
func (e *StreamError) Error() string {
	return fmt.Sprintf("server: stream %s aborted after %d frames: %v", e.Route, e.Frames, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *StreamError) Unwrap() error {
	return e.Err
}
