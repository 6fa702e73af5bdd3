package vtest_test

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/vango-dev/livepatch/pkg/protocol"
	"github.com/vango-dev/livepatch/pkg/vtest"
)

func TestNewRequest_PostBody(t *testing.T) {
	req := vtest.NewRequest(http.MethodPost, "/api/todos").
		WithSignals(protocol.Signals{"newTodoText": "Buy milk"}).
		Build()

	if req.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", req.Method)
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	body, _ := io.ReadAll(req.Body)
	if string(body) != `{"newTodoText":"Buy milk"}` {
		t.Errorf("body = %s", body)
	}
}

func TestNewRequest_GetQuery(t *testing.T) {
	req := vtest.NewRequest(http.MethodGet, "/api/increment").
		WithSignals(protocol.Signals{"count": 3}).
		Build()

	if got := req.URL.Query().Get("datastar"); got != `{"count":3}` {
		t.Errorf("datastar param = %q", got)
	}
	if req.Header.Get("Content-Type") != "" {
		t.Error("GET should not have a Content-Type")
	}
}

func TestNewRequest_Wrapped(t *testing.T) {
	req := vtest.NewRequest(http.MethodPost, "/api/update-message").
		WithSignals(protocol.Signals{"message": "hi"}).
		Wrapped().
		Build()

	body, _ := io.ReadAll(req.Body)
	if string(body) != `{"datastar":{"message":"hi"}}` {
		t.Errorf("body = %s", body)
	}
}

func TestNewRequest_RawBodyAndHeader(t *testing.T) {
	req := vtest.NewRequest(http.MethodPost, "/x").
		WithSignals(protocol.Signals{"ignored": true}).
		WithBody("not json").
		WithHeader("Content-Type", "text/plain").
		Build()

	body, _ := io.ReadAll(req.Body)
	if string(body) != "not json" {
		t.Errorf("body = %s", body)
	}
	if req.Header.Get("Content-Type") != "text/plain" {
		t.Errorf("Content-Type = %q", req.Header.Get("Content-Type"))
	}
}

func streamHandler(frames ...protocol.Frame) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		stream, _ := protocol.NewStream(protocol.NopCloser(w))
		stream.SendAll(frames)
	})
}

func TestRecord_DecodesFrames(t *testing.T) {
	h := streamHandler(
		protocol.NewSignalsFrame(protocol.Signals{"count": 1}),
		protocol.NewElementsFrame("#list", protocol.ModeAppend, "<li>a</li>"),
		protocol.NewRemoveFrame("#item"),
	)

	resp := vtest.Record(t, h, vtest.NewRequest(http.MethodGet, "/").Build())

	vtest.ExpectStatus(t, resp, http.StatusOK)
	if !resp.IsStream() {
		t.Fatal("expected event stream")
	}
	vtest.ExpectKinds(t, resp.Frames, protocol.KindSignals, protocol.KindElements, protocol.KindRemoveElements)
	vtest.ExpectSignals(t, resp.Frames[0], protocol.Signals{"count": 1})
	vtest.ExpectElements(t, resp.Frames[1], "#list", protocol.ModeAppend)
	vtest.ExpectMarkup(t, resp.Frames[1].Elements, "<li>a</li>")
	vtest.ExpectRemove(t, resp.Frames[2], "#item")
}

func TestRecord_PlainResponse(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})

	resp := vtest.Record(t, h, vtest.NewRequest(http.MethodGet, "/").Build())

	vtest.ExpectStatus(t, resp, http.StatusNotFound)
	if resp.IsStream() || len(resp.Frames) != 0 {
		t.Error("plain response should have no frames")
	}
}

func TestSignals_MergesInOrder(t *testing.T) {
	frames := []protocol.Frame{
		protocol.NewSignalsFrame(protocol.Signals{"count": 1, "message": "a"}),
		protocol.NewElementsFrame("#x", protocol.ModeInner, "ignored"),
		protocol.NewSignalsFrame(protocol.Signals{"count": 2, "message": nil}),
	}

	got := vtest.Signals(t, frames)

	if got["count"] != json.Number("2") {
		t.Errorf("count = %v, want 2", got["count"])
	}
	if _, ok := got["message"]; ok {
		t.Error("null should delete message")
	}
}

func TestExpectContains(t *testing.T) {
	vtest.ExpectContains(t, "<li>Buy milk</li>", "Buy milk")
	vtest.ExpectNotContains(t, "<li>Buy milk</li>", "Eggs")
}
