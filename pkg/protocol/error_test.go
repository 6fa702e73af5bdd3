package protocol

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestStreamWriteErrorUnwrap(t *testing.T) {
	err := &StreamWriteError{Kind: KindElements, Written: 3, Err: io.ErrClosedPipe}
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Error("expected errors.Is to find the wrapped error")
	}
	if !strings.Contains(err.Error(), "elements") {
		t.Errorf("Error() = %q, want kind in message", err.Error())
	}
}

func TestEncodeErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &EncodeError{Kind: KindSignals, Err: inner}
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}
}

func TestSyntaxErrorMessage(t *testing.T) {
	err := &SyntaxError{Line: 4, Msg: "unknown directive"}
	if got := err.Error(); got != "protocol: line 4: unknown directive" {
		t.Errorf("Error() = %q", got)
	}
}
