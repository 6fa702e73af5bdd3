package store

import (
	"math"
	"sync"

	"github.com/vango-dev/livepatch/pkg/protocol"
	"github.com/vango-dev/livepatch/pkg/render"
)

// Signals written by the counter operations.
const (
	CountSignal   = "count"
	MessageSignal = "message"
)

// ResetMessage is the message asserted by Reset.
const ResetMessage = "Counter reset"

// CounterOption configures a Counter.
type CounterOption func(*Counter)

// WithBounds clamps the count to [min, max]. Bounds with min > max are
// ignored.
func WithBounds(min, max int) CounterOption {
	return func(c *Counter) {
		if min <= max {
			c.min, c.max = min, max
		}
	}
}

// WithInitial sets the starting count.
func WithInitial(n int) CounterOption {
	return func(c *Counter) {
		c.count = n
	}
}

// CounterState is a snapshot of a Counter.
type CounterState struct {
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// Counter is the scalar demo store.
type Counter struct {
	mu       sync.Mutex
	count    int
	message  string
	min, max int
}

// NewCounter creates a counter starting at zero with no bounds.
func NewCounter(opts ...CounterOption) *Counter {
	c := &Counter{min: math.MinInt, max: math.MaxInt}
	for _, opt := range opts {
		opt(c)
	}
	c.count = c.clamp(c.count)
	return c
}

// Increment adds one, clamped to the upper bound. The count signal is
// asserted even when clamping left it unchanged.
func (c *Counter) Increment() []protocol.Frame {
	return c.add(1)
}

// Decrement subtracts one, clamped to the lower bound.
func (c *Counter) Decrement() []protocol.Frame {
	return c.add(-1)
}

func (c *Counter) add(delta int) []protocol.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case delta > 0 && c.count > c.max-delta:
		c.count = c.max
	case delta < 0 && c.count < c.min-delta:
		c.count = c.min
	default:
		c.count += delta
	}
	return []protocol.Frame{protocol.NewSignalsFrame(protocol.Signals{CountSignal: c.count})}
}

// Reset sets the count back to zero (clamped) and announces it.
func (c *Counter) Reset() []protocol.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count = c.clamp(0)
	c.message = ResetMessage
	return []protocol.Frame{protocol.NewSignalsFrame(protocol.Signals{
		CountSignal:   c.count,
		MessageSignal: c.message,
	})}
}

// UpdateMessage stores a message and re-renders the message display.
func (c *Counter) UpdateMessage(msg string) []protocol.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = msg
	return []protocol.Frame{
		protocol.NewSignalsFrame(protocol.Signals{MessageSignal: msg}),
		protocol.NewElementsFrame(render.MessageDisplaySelector, protocol.ModeInner, render.MessageDisplay(msg)),
	}
}

// Alert returns a frame that shows a browser alert.
func (c *Counter) Alert(text string) []protocol.Frame {
	return []protocol.Frame{protocol.ExecuteScript("alert(" + render.JSString(text) + ")")}
}

// ConsoleLog returns a frame that logs to the browser console.
func (c *Counter) ConsoleLog(text string) []protocol.Frame {
	return []protocol.Frame{protocol.ExecuteScript("console.log(" + render.JSString(text) + ")")}
}

// Snapshot returns the current count and message.
func (c *Counter) Snapshot() CounterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CounterState{Count: c.count, Message: c.message}
}

// PageData returns the state needed to render the counter document.
func (c *Counter) PageData() render.CounterPage {
	s := c.Snapshot()
	return render.CounterPage{Count: s.Count, Message: s.Message}
}

func (c *Counter) clamp(n int) int {
	if n < c.min {
		return c.min
	}
	if n > c.max {
		return c.max
	}
	return n
}
