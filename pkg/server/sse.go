package server

import (
	"errors"
	"net/http"

	"github.com/vango-dev/livepatch/pkg/protocol"
)

// sseSink adapts an HTTP response to protocol.Sink. Every frame is flushed
// so the browser applies it immediately.
type sseSink struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func (s *sseSink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *sseSink) Flush() error {
	return s.rc.Flush()
}

// Close is a no-op: the response ends when the handler returns.
func (s *sseSink) Close() error {
	return nil
}

// openSSE writes the event-stream headers and returns a stream over the
// response. Frame writes are reported to the metrics when enabled.
func (s *Server) openSSE(w http.ResponseWriter) (*protocol.Stream, error) {
	rc := http.NewResponseController(w)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := rc.Flush(); err != nil {
		if errors.Is(err, http.ErrNotSupported) {
			return nil, ErrStreamingUnsupported
		}
		return nil, err
	}

	return protocol.NewStream(&sseSink{w: w, rc: rc}, s.streamOptions()...)
}

func (s *Server) streamOptions() []protocol.StreamOption {
	if s.metrics == nil {
		return nil
	}
	return []protocol.StreamOption{protocol.WithObserver(s.metrics.ObserveFrame)}
}

// sendFrames answers a request with frames in order over a fresh stream.
// A write failure abandons the remaining frames and is logged, never retried.
func (s *Server) sendFrames(w http.ResponseWriter, r *http.Request, frames []protocol.Frame) {
	stream, err := s.openSSE(w)
	if err != nil {
		s.logger.Error("open stream failed", "path", r.URL.Path, "error", err)
		return
	}
	defer stream.Close()

	if err := stream.SendAll(frames); err != nil {
		sent, _ := stream.Stats()
		s.logStreamError(r, &StreamError{Route: r.URL.Path, Frames: sent, Err: err})
	}
}

func (s *Server) logStreamError(r *http.Request, err *StreamError) {
	var wErr *protocol.StreamWriteError
	if errors.As(err, &wErr) {
		s.logger.Warn("stream aborted", "path", r.URL.Path, "frames", err.Frames, "error", err.Err)
		return
	}
	s.logger.Error("stream failed", "path", r.URL.Path, "frames", err.Frames, "error", err.Err)
}
