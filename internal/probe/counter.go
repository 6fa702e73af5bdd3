package probe

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/vango-dev/livepatch/pkg/protocol"
	"github.com/vango-dev/livepatch/pkg/render"
	"github.com/vango-dev/livepatch/pkg/store"
)

// streamFrames is how many clock frames the stream checks wait for.
const streamFrames = 2

var clockPattern = regexp.MustCompile(`^<div id="server-time">\d{2}:\d{2}:\d{2}</div>$`)

// CounterSuite exercises the counter demo. The WebSocket clock is checked
// only when websocket is set.
func CounterSuite(websocket bool) Suite {
	checks := []Check{
		{"page renders", counterPage},
		{"reset zeroes count", counterReset},
		{"increment adds one", counterStep("/api/increment", 1)},
		{"increment again", counterStep("/api/increment", 2)},
		{"decrement subtracts one", counterStep("/api/decrement", 1)},
		{"update message", counterMessage},
		{"alert runs script", counterScript("/api/alert", "alert(")},
		{"console log runs script", counterScript("/api/console-log", "console.log(")},
		{"time stream pushes clock", timeStream},
	}
	if websocket {
		checks = append(checks, Check{"websocket stream pushes clock", timeStreamWS})
	}
	return Suite{Name: "counter", Checks: checks}
}

func counterPage(ctx context.Context, c *Client) error {
	doc, err := c.Page(ctx, "/counter")
	if err != nil {
		return err
	}
	return firstErr(
		expectContains(doc, `id="`+render.MessageDisplayID+`"`),
		expectContains(doc, `id="`+render.ServerTimeID+`"`),
	)
}

func counterReset(ctx context.Context, c *Client) error {
	resp, err := c.Do(ctx, http.MethodPost, "/api/reset")
	if err != nil {
		return err
	}
	if err := expectFrames(resp, protocol.KindSignals); err != nil {
		return err
	}
	return firstErr(
		expectSignal(c, store.CountSignal, "0"),
		expectSignal(c, store.MessageSignal, store.ResetMessage),
	)
}

// counterStep expects the count to equal want after calling path. A server
// started with counter bounds that exclude want fails this check.
func counterStep(path string, want int) func(context.Context, *Client) error {
	return func(ctx context.Context, c *Client) error {
		resp, err := c.Do(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if err := expectFrames(resp, protocol.KindSignals); err != nil {
			return err
		}
		return expectSignal(c, store.CountSignal, strconv.Itoa(want))
	}
}

func counterMessage(ctx context.Context, c *Client) error {
	const msg = "probe <says> hi"
	if err := c.SetSignals(protocol.Signals{store.MessageSignal: msg}); err != nil {
		return err
	}
	resp, err := c.Do(ctx, http.MethodPost, "/api/update-message")
	if err != nil {
		return err
	}
	if err := expectFrames(resp, protocol.KindSignals, protocol.KindElements); err != nil {
		return err
	}
	return firstErr(
		expectSignal(c, store.MessageSignal, msg),
		expectTarget(resp.Frames[1], render.MessageDisplaySelector, protocol.ModeInner),
		expectContains(resp.Frames[1].Elements, "probe &lt;says&gt; hi"),
	)
}

func counterScript(path, call string) func(context.Context, *Client) error {
	return func(ctx context.Context, c *Client) error {
		resp, err := c.Do(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if err := expectFrames(resp, protocol.KindElements); err != nil {
			return err
		}
		return firstErr(
			expectTarget(resp.Frames[0], protocol.ScriptTarget, protocol.ModeAppend),
			expectContains(resp.Frames[0].Elements, "<script"),
			expectContains(resp.Frames[0].Elements, call),
		)
	}
}

func expectClock(frames []protocol.Frame) error {
	if len(frames) < streamFrames {
		return fmt.Errorf("got %d clock frames, want %d", len(frames), streamFrames)
	}
	for i, f := range frames {
		if f.Kind != protocol.KindElements {
			return fmt.Errorf("frame %d is %s, want elements", i, f.Kind)
		}
		if err := expectTarget(f, render.ServerTimeSelector, protocol.ModeOuter); err != nil {
			return err
		}
		if !clockPattern.MatchString(f.Elements) {
			return fmt.Errorf("frame %d markup %q is not a clock", i, f.Elements)
		}
	}
	return nil
}

func timeStream(ctx context.Context, c *Client) error {
	resp, err := c.Stream(ctx, "/api/time-stream", streamFrames)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	return expectClock(resp.Frames)
}

func timeStreamWS(ctx context.Context, c *Client) error {
	frames, err := c.WebSocket(ctx, "/api/time-stream/ws", streamFrames)
	if err != nil {
		return err
	}
	return expectClock(frames)
}
