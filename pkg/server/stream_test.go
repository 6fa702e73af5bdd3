package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/livepatch/pkg/protocol"
	"github.com/vango-dev/livepatch/pkg/render"
	"github.com/vango-dev/livepatch/pkg/vtest"
)

var fixedTime = time.Date(2024, 3, 1, 13, 4, 5, 0, time.UTC)

func newClockServer(t *testing.T, ticks int) *Server {
	t.Helper()
	s := newTestServer(t, &Config{TimeStream: TimeStreamConfig{Interval: time.Millisecond, Ticks: ticks}})
	s.now = func() time.Time { return fixedTime }
	return s
}

func TestTick_RunsBudget(t *testing.T) {
	var calls []int
	err := Tick(context.Background(), time.Millisecond, 4, nil, func(n int, _ time.Time) error {
		calls = append(calls, n)
		return nil
	})
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if len(calls) != 4 || calls[0] != 1 || calls[3] != 4 {
		t.Errorf("calls = %v, want [1 2 3 4]", calls)
	}
}

func TestTick_ZeroBudget(t *testing.T) {
	err := Tick(context.Background(), time.Millisecond, 0, nil, func(int, time.Time) error {
		t.Fatal("fn should not be called")
		return nil
	})
	if err != nil {
		t.Errorf("Tick() error = %v", err)
	}
}

func TestTick_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	err := Tick(ctx, time.Millisecond, 1000, nil, func(n int, _ time.Time) error {
		calls++
		if n == 3 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Tick() error = %v, want context.Canceled", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestTick_AlreadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Tick(ctx, time.Millisecond, 5, nil, func(int, time.Time) error {
		t.Fatal("fn should not be called")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Tick() error = %v", err)
	}
}

func TestTick_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	var calls int
	err := Tick(context.Background(), time.Millisecond, 10, nil, func(n int, _ time.Time) error {
		calls++
		if n == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Tick() error = %v, want boom", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestTimeStream_SSE(t *testing.T) {
	s := newClockServer(t, 3)

	resp := do(t, s, http.MethodGet, "/api/time-stream", nil)

	vtest.ExpectStatus(t, resp, http.StatusOK)
	vtest.ExpectKinds(t, resp.Frames, protocol.KindElements, protocol.KindElements, protocol.KindElements)
	for _, f := range resp.Frames {
		vtest.ExpectElements(t, f, render.ServerTimeSelector, protocol.ModeOuter)
		vtest.ExpectMarkup(t, f.Elements, `<div id="server-time">13:04:05</div>`)
	}
}

func TestTimeStream_ClientGone(t *testing.T) {
	s := newClockServer(t, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := vtest.NewRequest(http.MethodGet, "/api/time-stream").Build().WithContext(ctx)
	resp := vtest.Record(t, s.Handler(), req)

	if len(resp.Frames) != 0 {
		t.Errorf("frames = %d, want 0", len(resp.Frames))
	}
}

// failingWriter accepts headers but fails every body write after the
// first n.
type failingWriter struct {
	header http.Header
	ok     int
	writes atomic.Int32
}

func (w *failingWriter) Header() http.Header { return w.header }
func (w *failingWriter) WriteHeader(int)     {}
func (w *failingWriter) Flush()              {}

func (w *failingWriter) Write(p []byte) (int, error) {
	if int(w.writes.Add(1)) > w.ok {
		return 0, errors.New("connection reset")
	}
	return len(p), nil
}

func TestTimeStream_StopsOnWriteError(t *testing.T) {
	s := newClockServer(t, 50)
	w := &failingWriter{header: make(http.Header), ok: 2}

	done := make(chan struct{})
	go func() {
		s.Handler().ServeHTTP(w, vtest.NewRequest(http.MethodGet, "/api/time-stream").Build())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("time stream did not stop after a write error")
	}
	if got := w.writes.Load(); got != 3 {
		t.Errorf("writes = %d, want 3", got)
	}
	if got := gatheredValue(t, s, "livepatch_stream_write_errors_total", nil); got != 1 {
		t.Errorf("stream_write_errors_total = %v, want 1", got)
	}
}

func TestTimeStream_WebSocket(t *testing.T) {
	s := newClockServer(t, 2)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/time-stream/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	for i := 0; i < 2; i++ {
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage() #%d error = %v", i, err)
		}
		if typ != websocket.TextMessage {
			t.Errorf("message type = %d, want text", typ)
		}
		frames, err := protocol.DecodeFrames(msg)
		if err != nil {
			t.Fatalf("DecodeFrames() error = %v", err)
		}
		vtest.ExpectKinds(t, frames, protocol.KindElements)
		vtest.ExpectMarkup(t, frames[0].Elements, `<div id="server-time">13:04:05</div>`)
	}

	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("after budget: err = %v, want normal close", err)
	}
}

func TestTimeStream_WebSocketRejectsForeignOrigin(t *testing.T) {
	s := newClockServer(t, 1)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/time-stream/ws"
	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("Dial() should fail for a foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}
}

func TestWSSink_ClosedConnection(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	sink := &wsSink{conn: conn}
	conn.Close()

	n, err := sink.Write([]byte("event: datastar-patch-signals\n\n"))
	if err == nil || n != 0 {
		t.Errorf("Write() = %d, %v, want 0 and an error", n, err)
	}

	stream, err := protocol.NewStream(sink)
	if err != nil {
		t.Fatalf("NewStream() error = %v", err)
	}
	var wErr *protocol.StreamWriteError
	if err := stream.SendSignals(protocol.Signals{"count": 1}); !errors.As(err, &wErr) {
		t.Errorf("SendSignals() error = %v, want StreamWriteError", err)
	}
	// Close on a dead connection must not hang or panic.
	stream.Close()
}
