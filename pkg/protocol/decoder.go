package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Decoder reads patch frames from an event stream.
// It is the inverse of Encoder and is used by test harnesses and probes;
// the browser runtime does its own parsing.
type Decoder struct {
	r       *bufio.Reader
	line    int
	maxSize int
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:       bufio.NewReader(r),
		maxSize: DefaultMaxFrameSize,
	}
}

// SetMaxFrameSize overrides the per-frame byte limit.
// Values above HardMaxFrameSize are capped.
func (d *Decoder) SetMaxFrameSize(n int) {
	if n <= 0 || n > HardMaxFrameSize {
		n = HardMaxFrameSize
	}
	d.maxSize = n
}

// DecodeFrames decodes every frame in data.
func DecodeFrames(data []byte) ([]Frame, error) {
	d := NewDecoder(bytes.NewReader(data))
	var frames []Frame
	for {
		f, err := d.Next()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, *f)
	}
}

// Next returns the next frame. It returns io.EOF at a clean end of stream
// and io.ErrUnexpectedEOF when the stream ends inside a frame.
func (d *Decoder) Next() (*Frame, error) {
	var (
		f        Frame
		started  bool
		haveKind bool
		size     int
		elements []string
		haveElem bool
	)

	for {
		raw, err := d.r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if err == io.EOF && raw == "" {
			if started {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, io.EOF
		}
		if err == io.EOF {
			// Last line without a terminator cannot end a frame.
			return nil, io.ErrUnexpectedEOF
		}
		d.line++

		size += len(raw)
		if size > d.maxSize {
			return nil, ErrFrameTooLarge
		}

		line := strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r")
		if line == "" {
			if !started {
				continue
			}
			if !haveKind {
				return nil, d.syntax("frame without event line")
			}
			if haveElem {
				f.Elements = strings.Join(elements, "\n")
			}
			return &f, nil
		}
		if line[0] == ':' {
			continue
		}
		started = true

		name, value := splitField(line)
		switch name {
		case "event":
			kind, ok := KindFromEvent(value)
			if !ok {
				return nil, d.syntax(fmt.Sprintf("unknown event %q", value))
			}
			f.Kind = kind
			haveKind = true

		case "id":
			f.EventID = value

		case "retry":
			ms, err := strconv.ParseInt(value, 10, 64)
			if err != nil || ms < 0 {
				return nil, d.syntax(fmt.Sprintf("invalid retry %q", value))
			}
			f.Retry = time.Duration(ms) * time.Millisecond

		case "data":
			directive, arg := splitDirective(value)
			switch directive {
			case DirectiveSignals:
				signals, err := unmarshalSignals([]byte(arg))
				if err != nil {
					return nil, d.syntax(err.Error())
				}
				f.Signals = signals
			case DirectiveOnlyIfMissing:
				f.OnlyIfMissing = arg == "true"
			case DirectiveSelector:
				f.Selector = arg
			case DirectiveMode:
				mode, err := ParseMode(arg)
				if err != nil {
					return nil, d.syntax(err.Error())
				}
				f.Mode = mode
			case DirectiveUseViewTransition:
				f.UseViewTransition = arg == "true"
			case DirectiveElements:
				elements = append(elements, arg)
				haveElem = true
			default:
				return nil, d.syntax(fmt.Sprintf("unknown directive %q", directive))
			}

		default:
			// Unknown fields are ignored per the event stream format.
		}
	}
}

func (d *Decoder) syntax(msg string) error {
	return &SyntaxError{Line: d.line, Msg: msg}
}

// splitField splits "name: value", removing one optional leading space.
func splitField(line string) (string, string) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return line, ""
	}
	value := line[i+1:]
	value = strings.TrimPrefix(value, " ")
	return line[:i], value
}

// splitDirective splits "directive value" at the first space.
func splitDirective(value string) (string, string) {
	i := strings.IndexByte(value, ' ')
	if i < 0 {
		return value, ""
	}
	return value[:i], value[i+1:]
}

func unmarshalSignals(data []byte) (Signals, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var s Signals
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("invalid signals: %w", err)
	}
	if dec.More() {
		return nil, errors.New("invalid signals: trailing data")
	}
	return s, nil
}
