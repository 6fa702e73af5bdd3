package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
)

// recordingSink collects every Write call separately.
type recordingSink struct {
	mu      sync.Mutex
	writes  [][]byte
	flushes int
	closed  int
	failAt  int // 1-based write index that fails, 0 = never
	short   bool
}

func (s *recordingSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAt > 0 && len(s.writes)+1 == s.failAt {
		s.writes = append(s.writes, nil)
		if s.short {
			return len(p) / 2, nil
		}
		return 0, io.ErrClosedPipe
	}
	s.writes = append(s.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (s *recordingSink) Flush() {
	s.mu.Lock()
	s.flushes++
	s.mu.Unlock()
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) joined() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Join(s.writes, nil)
}

func TestNewStream_NilSink(t *testing.T) {
	if _, err := NewStream(nil); !errors.Is(err, ErrNilSink) {
		t.Fatalf("NewStream(nil) error = %v, want ErrNilSink", err)
	}
}

func TestStream_OneWritePerFrameInOrder(t *testing.T) {
	sink := &recordingSink{}
	s, err := NewStream(sink)
	if err != nil {
		t.Fatalf("NewStream() error: %v", err)
	}

	frames := []Frame{
		NewSignalsFrame(Signals{"newTodoText": ""}),
		NewElementsFrame("#todo-list", ModeAppend, "<li>a</li>\n<li>b</li>"),
		NewRemoveFrame("#todo-3"),
	}
	if err := s.SendAll(frames); err != nil {
		t.Fatalf("SendAll() error: %v", err)
	}

	if len(sink.writes) != 3 {
		t.Fatalf("expected 3 writes, got %d", len(sink.writes))
	}
	if sink.flushes != 3 {
		t.Errorf("expected a flush per frame, got %d", sink.flushes)
	}
	for i, w := range sink.writes {
		if !bytes.HasSuffix(w, []byte("\n\n")) {
			t.Errorf("write %d is not a complete frame: %q", i, w)
		}
	}

	decoded, err := DecodeFrames(sink.joined())
	if err != nil {
		t.Fatalf("DecodeFrames() error: %v", err)
	}
	for i := range frames {
		if decoded[i].Kind != frames[i].Kind {
			t.Errorf("frame %d kind = %v, want %v", i, decoded[i].Kind, frames[i].Kind)
		}
	}

	n, b := s.Stats()
	if n != 3 || b != len(sink.joined()) {
		t.Errorf("Stats() = %d, %d", n, b)
	}
}

func TestStream_ConcurrentSendsNeverInterleave(t *testing.T) {
	sink := &recordingSink{}
	s, _ := NewStream(sink)

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				markup := fmt.Sprintf("<li>%d-%d</li>\n<li>tail</li>", w, i)
				if err := s.SendElements("#list", ModeAppend, markup); err != nil {
					t.Errorf("SendElements() error: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	frames, err := DecodeFrames(sink.joined())
	if err != nil {
		t.Fatalf("DecodeFrames() error: %v", err)
	}
	if len(frames) != workers*perWorker {
		t.Fatalf("decoded %d frames, want %d", len(frames), workers*perWorker)
	}
	for _, f := range frames {
		if !strings.HasSuffix(f.Elements, "\n<li>tail</li>") {
			t.Fatalf("frame was interleaved: %q", f.Elements)
		}
	}
}

func TestStream_WriteFailureBreaksStream(t *testing.T) {
	tests := []struct {
		name  string
		short bool
		want  error
	}{
		{"error", false, io.ErrClosedPipe},
		{"short write", true, io.ErrShortWrite},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sink := &recordingSink{failAt: 2, short: tc.short}
			var observed []error
			s, _ := NewStream(sink, WithObserver(func(kind Kind, n int, err error) {
				observed = append(observed, err)
			}))

			err := s.SendAll([]Frame{
				NewSignalsFrame(Signals{"a": 1}),
				NewElementsFrame("#a", ModeInner, "<p></p>"),
				NewRemoveFrame("#b"),
			})

			var wErr *StreamWriteError
			if !errors.As(err, &wErr) {
				t.Fatalf("SendAll() error = %v, want *StreamWriteError", err)
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want wrapping %v", err, tc.want)
			}
			if wErr.Kind != KindElements {
				t.Errorf("failed kind = %v, want elements", wErr.Kind)
			}
			if len(sink.writes) != 2 {
				t.Errorf("remaining frames should be abandoned, got %d writes", len(sink.writes))
			}
			if len(observed) != 2 || observed[0] != nil || observed[1] == nil {
				t.Errorf("observer saw %v", observed)
			}

			if err := s.SendSignals(Signals{"x": 1}); !errors.Is(err, ErrStreamClosed) {
				t.Errorf("send after failure = %v, want ErrStreamClosed", err)
			}
			if len(sink.writes) != 2 {
				t.Error("send after failure must not touch the sink")
			}
			if s.Err() == nil {
				t.Error("Err() should report the write failure")
			}
		})
	}
}

func TestStream_InvalidFrameDoesNotBreakStream(t *testing.T) {
	sink := &recordingSink{}
	s, _ := NewStream(sink)

	if err := s.SendRemove(""); !errors.Is(err, ErrMissingSelector) {
		t.Fatalf("SendRemove(\"\") error = %v", err)
	}
	if len(sink.writes) != 0 {
		t.Fatal("invalid frame should not be written")
	}
	if err := s.SendRemove("#ok"); err != nil {
		t.Fatalf("stream should still accept frames: %v", err)
	}
}

func TestStream_CloseIsIdempotent(t *testing.T) {
	sink := &recordingSink{}
	s, _ := NewStream(sink)

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
	if sink.closed != 1 {
		t.Errorf("sink closed %d times, want 1", sink.closed)
	}
	if err := s.SendSignals(nil); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("send after close = %v, want ErrStreamClosed", err)
	}
}

type errFlushWriter struct {
	bytes.Buffer
}

func (w *errFlushWriter) Flush() error { return io.ErrClosedPipe }
func (w *errFlushWriter) Close() error { return nil }

func TestStream_FlushErrorBreaksStream(t *testing.T) {
	s, _ := NewStream(&errFlushWriter{})
	err := s.SendSignals(Signals{"a": 1})
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("SendSignals() error = %v, want flush failure", err)
	}
}

func TestNopCloser(t *testing.T) {
	var buf bytes.Buffer
	s, _ := NewStream(NopCloser(&buf))
	if err := s.SendRemove("#x"); err != nil {
		t.Fatalf("SendRemove() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !strings.Contains(buf.String(), "selector #x") {
		t.Errorf("unexpected output %q", buf.String())
	}
}
