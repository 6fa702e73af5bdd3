package vtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/vango-dev/livepatch/pkg/protocol"
)

// RequestBuilder allows fluent construction of interaction requests.
type RequestBuilder struct {
	method  string
	target  string
	signals protocol.Signals
	wrap    bool
	body    []byte
	header  http.Header
}

// NewRequest creates a new request builder.
//
// Example:
//
//	req := vtest.NewRequest(http.MethodPost, "/api/todos").
//	    WithSignals(protocol.Signals{"newTodoText": "Buy milk"}).
//	    Build()
func NewRequest(method, target string) *RequestBuilder {
	return &RequestBuilder{
		method: method,
		target: target,
		header: make(http.Header),
	}
}

// WithSignals sets the client signals sent with the request. GET and
// DELETE carry them in the datastar query parameter, other methods in a
// JSON body.
func (b *RequestBuilder) WithSignals(signals protocol.Signals) *RequestBuilder {
	b.signals = signals
	return b
}

// Wrapped sends the signals inside a top-level "datastar" object.
func (b *RequestBuilder) Wrapped() *RequestBuilder {
	b.wrap = true
	return b
}

// WithBody sets a raw request body, overriding WithSignals.
func (b *RequestBuilder) WithBody(body string) *RequestBuilder {
	b.body = []byte(body)
	return b
}

// WithHeader sets a request header.
func (b *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	b.header.Set(key, value)
	return b
}

// Build returns the request.
func (b *RequestBuilder) Build() *http.Request {
	var payload []byte
	if b.signals != nil {
		var v any = b.signals
		if b.wrap {
			v = map[string]any{"datastar": b.signals}
		}
		payload, _ = json.Marshal(v)
	}

	target := b.target
	var body io.Reader
	switch {
	case b.body != nil:
		body = bytes.NewReader(b.body)
	case payload == nil:
	case b.method == http.MethodGet || b.method == http.MethodDelete:
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + "datastar=" + url.QueryEscape(string(payload))
	default:
		body = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(b.method, target, body)
	for k, v := range b.header {
		req.Header[k] = v
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// Response is a recorded response with its decoded patch frames.
type Response struct {
	*httptest.ResponseRecorder

	// Frames holds the decoded frames of an event-stream response.
	Frames []protocol.Frame
}

// IsStream reports whether the response is an event stream.
func (r *Response) IsStream() bool {
	return strings.HasPrefix(r.Header().Get("Content-Type"), "text/event-stream")
}

// Record serves req with h and decodes the frames of an event-stream
// response. It fails the test when the stream cannot be decoded.
func Record(t testing.TB, h http.Handler, req *http.Request) *Response {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	resp := &Response{ResponseRecorder: rec}
	if resp.IsStream() {
		frames, err := protocol.DecodeFrames(rec.Body.Bytes())
		if err != nil {
			t.Fatalf("decode frames: %v\nbody:\n%s", err, truncate(rec.Body.String(), 500))
		}
		resp.Frames = frames
	}
	return resp
}

// Signals merges every signals frame in order, the way a client store
// would, and returns the result.
func Signals(t testing.TB, frames []protocol.Frame) protocol.Signals {
	t.Helper()
	doc := []byte("{}")
	for _, f := range frames {
		if f.Kind != protocol.KindSignals {
			continue
		}
		var err error
		if doc, err = protocol.MergeSignals(doc, f.Signals); err != nil {
			t.Fatalf("merge signals: %v", err)
		}
	}
	s, err := protocol.DecodeSignals(doc)
	if err != nil {
		t.Fatalf("decode merged signals: %v", err)
	}
	return s
}

// ExpectStatus asserts the response status code.
func ExpectStatus(t testing.TB, resp *Response, want int) {
	t.Helper()
	if resp.Code != want {
		t.Errorf("status = %d, want %d (body: %s)", resp.Code, want, truncate(resp.Body.String(), 200))
	}
}

// ExpectKinds asserts the kinds of frames in order.
//
// Example:
//
//	vtest.ExpectKinds(t, resp.Frames, protocol.KindSignals, protocol.KindElements)
func ExpectKinds(t testing.TB, frames []protocol.Frame, kinds ...protocol.Kind) {
	t.Helper()
	got := make([]string, len(frames))
	for i, f := range frames {
		got[i] = f.Kind.String()
	}
	want := make([]string, len(kinds))
	for i, k := range kinds {
		want[i] = k.String()
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("frame kinds = [%s], want [%s]", strings.Join(got, ", "), strings.Join(want, ", "))
	}
}

// ExpectSignals asserts that a signals frame carries exactly want. Values
// are compared by their JSON encoding, so 1 and json.Number("1") match.
func ExpectSignals(t testing.TB, f protocol.Frame, want protocol.Signals) {
	t.Helper()
	if f.Kind != protocol.KindSignals {
		t.Errorf("frame kind = %s, want %s", f.Kind, protocol.KindSignals)
		return
	}
	got, err := protocol.EncodeSignals(f.Signals)
	if err != nil {
		t.Fatalf("encode signals: %v", err)
	}
	exp, err := protocol.EncodeSignals(want)
	if err != nil {
		t.Fatalf("encode signals: %v", err)
	}
	if !bytes.Equal(got, exp) {
		t.Errorf("signals = %s, want %s", got, exp)
	}
}

// ExpectElements asserts an elements frame's selector and mode.
func ExpectElements(t testing.TB, f protocol.Frame, selector string, mode protocol.Mode) {
	t.Helper()
	if f.Kind != protocol.KindElements {
		t.Errorf("frame kind = %s, want %s", f.Kind, protocol.KindElements)
		return
	}
	if f.Selector != selector {
		t.Errorf("selector = %q, want %q", f.Selector, selector)
	}
	if f.EffectiveMode() != mode {
		t.Errorf("mode = %q, want %q", f.EffectiveMode(), mode)
	}
}

// ExpectRemove asserts a remove-elements frame for selector.
func ExpectRemove(t testing.TB, f protocol.Frame, selector string) {
	t.Helper()
	if f.Kind != protocol.KindRemoveElements {
		t.Errorf("frame kind = %s, want %s", f.Kind, protocol.KindRemoveElements)
		return
	}
	if f.Selector != selector {
		t.Errorf("selector = %q, want %q", f.Selector, selector)
	}
}

// ExpectMarkup asserts exact markup and prints a character diff on mismatch.
func ExpectMarkup(t testing.TB, got, want string) {
	t.Helper()
	if got != want {
		dmp := diffmatchpatch.New()
		t.Errorf("markup mismatch:\n%s", dmp.DiffPrettyText(dmp.DiffMain(want, got, false)))
	}
}

// ExpectContains asserts that markup contains expected substring.
//
// Example:
//
//	vtest.ExpectContains(t, resp.Frames[1].Elements, "Buy milk")
func ExpectContains(t testing.TB, markup, expected string) {
	t.Helper()
	if !strings.Contains(markup, expected) {
		t.Errorf("expected markup to contain %q, got:\n%s", expected, truncate(markup, 500))
	}
}

// ExpectNotContains asserts that markup does not contain substring.
func ExpectNotContains(t testing.TB, markup, unexpected string) {
	t.Helper()
	if strings.Contains(markup, unexpected) {
		t.Errorf("expected markup to NOT contain %q, got:\n%s", unexpected, truncate(markup, 500))
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
