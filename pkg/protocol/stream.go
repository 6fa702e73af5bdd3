package protocol

import (
	"io"
	"sync"
)

// Sink is the outbound byte destination of a stream: anything that can
// append bytes and be ended. Sinks that also implement Flush() or
// Flush() error are flushed after every frame.
type Sink interface {
	io.Writer
	Close() error
}

type flusher interface {
	Flush()
}

type errFlusher interface {
	Flush() error
}

// nopCloser adapts an io.Writer into a Sink.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// Flush forwards to the wrapped writer when it can flush.
func (n nopCloser) Flush() {
	if f, ok := n.Writer.(flusher); ok {
		f.Flush()
	}
}

// NopCloser returns a Sink whose Close does nothing.
func NopCloser(w io.Writer) Sink {
	return nopCloser{w}
}

// Observer is notified after every attempted frame write.
// err is nil on success.
type Observer func(kind Kind, bytes int, err error)

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithObserver registers a callback invoked after each frame write.
func WithObserver(o Observer) StreamOption {
	return func(s *Stream) {
		s.observer = o
	}
}

// Stream serializes frames onto a Sink. Each frame is encoded completely
// before a single Write call, and writes are serialized, so a reader never
// sees a partial or interleaved frame.
//
// The first write failure breaks the stream: it is reported as a
// *StreamWriteError and every later Send returns ErrStreamClosed without
// touching the sink. Frames are never retried or buffered for replay.
type Stream struct {
	mu       sync.Mutex
	sink     Sink
	enc      *Encoder
	closed   bool
	err      error
	frames   int
	bytes    int
	observer Observer
}

// NewStream creates a stream writing to sink.
func NewStream(sink Sink, opts ...StreamOption) (*Stream, error) {
	if sink == nil {
		return nil, ErrNilSink
	}
	s := &Stream{
		sink: sink,
		enc:  NewEncoderWithCap(512),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send encodes and writes one frame.
// An invalid frame is rejected without affecting the stream.
func (s *Stream) Send(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.err != nil {
		return ErrStreamClosed
	}

	s.enc.Reset()
	if err := EncodeFrameTo(s.enc, &f); err != nil {
		return err
	}
	data := s.enc.Bytes()

	n, err := s.sink.Write(data)
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	if err == nil {
		err = s.flush()
	}
	if err != nil {
		s.err = &StreamWriteError{Kind: f.Kind, Written: n, Err: err}
		s.notify(f.Kind, n, s.err)
		return s.err
	}

	s.frames++
	s.bytes += n
	s.notify(f.Kind, n, nil)
	return nil
}

// SendAll writes frames in order, stopping at the first failure.
func (s *Stream) SendAll(frames []Frame) error {
	for i := range frames {
		if err := s.Send(frames[i]); err != nil {
			return err
		}
	}
	return nil
}

// SendSignals writes a signals frame.
func (s *Stream) SendSignals(signals Signals) error {
	return s.Send(NewSignalsFrame(signals))
}

// SendElements writes an elements frame.
func (s *Stream) SendElements(selector string, mode Mode, markup string) error {
	return s.Send(NewElementsFrame(selector, mode, markup))
}

// SendRemove writes a remove-elements frame.
func (s *Stream) SendRemove(selector string) error {
	return s.Send(NewRemoveFrame(selector))
}

// Close ends the stream and closes the sink. It is safe to call more than once.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.sink.Close()
}

// Err returns the write error that broke the stream, if any.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stats returns the number of frames and bytes written so far.
func (s *Stream) Stats() (frames, bytes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames, s.bytes
}

func (s *Stream) flush() error {
	switch f := s.sink.(type) {
	case errFlusher:
		return f.Flush()
	case flusher:
		f.Flush()
	}
	return nil
}

func (s *Stream) notify(kind Kind, n int, err error) {
	if s.observer != nil {
		s.observer(kind, n, err)
	}
}
