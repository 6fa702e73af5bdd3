package protocol

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Encoder appends patch frames to an internal buffer.
// A single Encoder can be reused across frames via Reset.
type Encoder struct {
	buf []byte
}

// NewEncoder creates a new encoder with a default initial capacity.
func NewEncoder() *Encoder {
	return &Encoder{
		buf: make([]byte, 0, 256),
	}
}

// NewEncoderWithCap creates a new encoder with the specified initial capacity.
func NewEncoderWithCap(cap int) *Encoder {
	return &Encoder{
		buf: make([]byte, 0, cap),
	}
}

// Reset resets the encoder to empty state, reusing the underlying buffer.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// Bytes returns the encoded bytes. The returned slice is valid until
// the next call to Reset or any Write method.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes currently encoded.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// WriteField appends a single "name: value" line.
func (e *Encoder) WriteField(name, value string) {
	e.buf = append(e.buf, name...)
	e.buf = append(e.buf, ':', ' ')
	e.buf = append(e.buf, value...)
	e.buf = append(e.buf, '\n')
}

// WriteData appends a "data: <directive> <value>" line.
func (e *Encoder) WriteData(directive, value string) {
	e.buf = append(e.buf, "data: "...)
	e.buf = append(e.buf, directive...)
	e.buf = append(e.buf, ' ')
	e.buf = append(e.buf, value...)
	e.buf = append(e.buf, '\n')
}

// WriteBoundary terminates the current frame with a blank line.
func (e *Encoder) WriteBoundary() {
	e.buf = append(e.buf, '\n')
}

// EncodeFrame validates and encodes a frame to bytes.
func EncodeFrame(f *Frame) ([]byte, error) {
	e := NewEncoder()
	if err := EncodeFrameTo(e, f); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// EncodeFrameTo validates and appends a frame using the provided encoder.
// Nothing is appended when the frame is invalid.
func EncodeFrameTo(e *Encoder, f *Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}

	var signals []byte
	if f.Kind == KindSignals {
		var err error
		if signals, err = marshalSignals(f.Signals); err != nil {
			return err
		}
	}

	e.WriteField("event", f.Kind.EventName())
	if f.EventID != "" {
		e.WriteField("id", f.EventID)
	}
	if f.Retry > 0 && f.Retry != DefaultRetry {
		e.WriteField("retry", strconv.FormatInt(f.Retry.Milliseconds(), 10))
	}

	switch f.Kind {
	case KindSignals:
		if f.OnlyIfMissing {
			e.WriteData(DirectiveOnlyIfMissing, "true")
		}
		e.WriteData(DirectiveSignals, string(signals))

	case KindElements:
		if f.Selector != "" {
			e.WriteData(DirectiveSelector, f.Selector)
		}
		e.WriteData(DirectiveMode, string(f.EffectiveMode()))
		if f.UseViewTransition {
			e.WriteData(DirectiveUseViewTransition, "true")
		}
		if f.Elements != "" || f.EffectiveMode() != ModeRemove {
			for _, line := range strings.Split(f.Elements, "\n") {
				e.WriteData(DirectiveElements, line)
			}
		}

	case KindRemoveElements:
		e.WriteData(DirectiveSelector, f.Selector)
	}

	e.WriteBoundary()
	return nil
}

// EncodeSignalPatch encodes a signals frame carrying the given partial mapping.
func EncodeSignalPatch(signals Signals) ([]byte, error) {
	f := NewSignalsFrame(signals)
	return EncodeFrame(&f)
}

// EncodeElementPatch encodes an elements frame. Multi-line markup is written
// as one elements line per source line.
func EncodeElementPatch(selector string, mode Mode, markup string) ([]byte, error) {
	f := NewElementsFrame(selector, mode, markup)
	return EncodeFrame(&f)
}

// EncodeRemovePatch encodes a remove-elements frame for selector.
func EncodeRemovePatch(selector string) ([]byte, error) {
	f := NewRemoveFrame(selector)
	return EncodeFrame(&f)
}

// marshalSignals serializes signals as compact JSON without HTML escaping.
// JSON string escaping guarantees the result holds no raw line terminator.
func marshalSignals(s Signals) ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, &EncodeError{Kind: KindSignals, Err: err}
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
