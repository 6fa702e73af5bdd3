package probe

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/vango-dev/livepatch/pkg/protocol"
)

func expectStatus(resp *Response, want int) error {
	if resp.Status != want {
		return fmt.Errorf("status %d, want %d", resp.Status, want)
	}
	return nil
}

// expectFrames checks the status and the kinds of frames in order.
func expectFrames(resp *Response, kinds ...protocol.Kind) error {
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	if len(resp.Frames) != len(kinds) {
		return fmt.Errorf("got %d frames %v, want %v", len(resp.Frames), frameKinds(resp.Frames), kinds)
	}
	for i, k := range kinds {
		if resp.Frames[i].Kind != k {
			return fmt.Errorf("frame %d is %s, want %s", i, resp.Frames[i].Kind, k)
		}
	}
	return nil
}

func frameKinds(frames []protocol.Frame) []protocol.Kind {
	kinds := make([]protocol.Kind, len(frames))
	for i, f := range frames {
		kinds[i] = f.Kind
	}
	return kinds
}

func expectTarget(f protocol.Frame, selector string, mode protocol.Mode) error {
	if f.Selector != selector {
		return fmt.Errorf("selector %q, want %q", f.Selector, selector)
	}
	if f.Kind == protocol.KindElements && f.EffectiveMode() != mode {
		return fmt.Errorf("mode %q, want %q", f.EffectiveMode(), mode)
	}
	return nil
}

func expectContains(markup, want string) error {
	if !strings.Contains(markup, want) {
		return fmt.Errorf("markup does not contain %q", want)
	}
	return nil
}

func expectNotContains(markup, unwanted string) error {
	if strings.Contains(markup, unwanted) {
		return fmt.Errorf("markup unexpectedly contains %q", unwanted)
	}
	return nil
}

func expectSignal(c *Client, key, want string) error {
	if got := signalString(c.Signals(), key); got != want {
		return fmt.Errorf("signal %s = %q, want %q", key, got, want)
	}
	return nil
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
