package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/livepatch/pkg/protocol"
	"github.com/vango-dev/livepatch/pkg/render"
)

// wsWriteTimeout bounds a single frame write on a WebSocket.
const wsWriteTimeout = 10 * time.Second

// wsSink carries one encoded frame per text message. The stream serializes
// writes, which satisfies gorilla's single-writer rule.
type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) Write(p []byte) (int, error) {
	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return 0, err
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a normal close frame and closes the connection.
func (s *wsSink) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	// The peer may already be gone; the close frame is best effort.
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return s.conn.Close()
}

// readUntilClosed drains client messages until the connection fails, then
// cancels the stream context. Clients are not expected to send anything.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// handleTimeStreamWS is the WebSocket transport for the clock stream. Each
// message is one complete SSE-encoded frame.
func (s *Server) handleTimeStreamWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response.
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	stream, err := protocol.NewStream(&wsSink{conn: conn}, s.streamOptions()...)
	if err != nil {
		conn.Close()
		return
	}
	defer stream.Close()

	if s.metrics != nil {
		defer s.metrics.StreamOpened()()
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go readUntilClosed(conn, cancel)

	err = s.runTimeStream(ctx, stream)
	if err != nil && !errors.Is(err, context.Canceled) {
		sent, _ := stream.Stats()
		s.logStreamError(r, &StreamError{Route: r.URL.Path, Frames: sent, Err: err})
	}
}

// runTimeStream sends the current server time on every tick.
func (s *Server) runTimeStream(ctx context.Context, stream *protocol.Stream) error {
	ts := s.config.TimeStream
	return Tick(ctx, ts.Interval, ts.Ticks, s.now, func(_ int, now time.Time) error {
		return stream.SendElements(render.ServerTimeSelector, protocol.ModeOuter, render.ServerTime(now))
	})
}
