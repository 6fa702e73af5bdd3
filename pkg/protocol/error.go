package protocol

import (
	"errors"
	"fmt"
)

// Stream errors.
var (
	// ErrStreamClosed is returned when a send is attempted on a stream that
	// was closed or already failed a write.
	ErrStreamClosed = errors.New("protocol: stream closed")

	// ErrNilSink is returned when a stream is created without a sink.
	ErrNilSink = errors.New("protocol: nil sink")
)

// EncodeError reports a payload that could not be serialized.
type EncodeError struct {
	Kind Kind
	Err  error
}

// Error returns the error message.
func (e *EncodeError) Error() string {
	return fmt.Sprintf("protocol: encode %s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *EncodeError) Unwrap() error {
	return e.Err
}

// StreamWriteError reports a failed write to the outbound sink. The stream
// is unusable afterwards.
type StreamWriteError struct {
	Kind    Kind // Kind of the frame being written
	Written int  // Bytes accepted by the sink before the failure
	Err     error
}

// Error returns the error message.
func (e *StreamWriteError) Error() string {
	return fmt.Sprintf("protocol: write %s frame: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *StreamWriteError) Unwrap() error {
	return e.Err
}

// SyntaxError reports malformed input while decoding a stream.
type SyntaxError struct {
	Line int
	Msg  string
}

// Error returns the error message.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("protocol: line %d: %s", e.Line, e.Msg)
}
