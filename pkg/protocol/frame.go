package protocol

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind identifies the type of a patch frame.
type Kind uint8

const (
	KindSignals        Kind = 0x01 // Merge signals into the client store
	KindElements       Kind = 0x02 // Patch DOM elements with markup
	KindRemoveElements Kind = 0x03 // Remove DOM elements by selector
)

// Event names written on the "event:" line of each frame.
const (
	EventPatchSignals   = "datastar-patch-signals"
	EventPatchElements  = "datastar-patch-elements"
	EventRemoveElements = "datastar-remove-elements"
)

// String returns the short name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSignals:
		return "signals"
	case KindElements:
		return "elements"
	case KindRemoveElements:
		return "remove-elements"
	default:
		return "unknown"
	}
}

// EventName returns the wire event name for the kind.
func (k Kind) EventName() string {
	switch k {
	case KindSignals:
		return EventPatchSignals
	case KindElements:
		return EventPatchElements
	case KindRemoveElements:
		return EventRemoveElements
	default:
		return ""
	}
}

// KindFromEvent maps a wire event name back to its Kind.
func KindFromEvent(name string) (Kind, bool) {
	switch name {
	case EventPatchSignals:
		return KindSignals, true
	case EventPatchElements:
		return KindElements, true
	case EventRemoveElements:
		return KindRemoveElements, true
	default:
		return 0, false
	}
}

// Mode is the element patch placement directive.
type Mode string

const (
	ModeOuter   Mode = "outer"   // Morph the target element itself
	ModeInner   Mode = "inner"   // Morph the target's children
	ModeReplace Mode = "replace" // Replace the target without morphing
	ModePrepend Mode = "prepend" // Insert as first child
	ModeAppend  Mode = "append"  // Insert as last child
	ModeBefore  Mode = "before"  // Insert before the target
	ModeAfter   Mode = "after"   // Insert after the target
	ModeRemove  Mode = "remove"  // Remove the target
)

// DefaultMode is applied when a frame leaves Mode empty.
const DefaultMode = ModeOuter

// DefaultRetry is the client reconnect delay assumed when no retry line is sent.
const DefaultRetry = time.Second

// ParseMode validates a placement directive.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeOuter, ModeInner, ModeReplace, ModePrepend, ModeAppend, ModeBefore, ModeAfter, ModeRemove:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Frame errors.
var (
	ErrInvalidKind     = errors.New("protocol: invalid frame kind")
	ErrInvalidMode     = errors.New("protocol: invalid patch mode")
	ErrMissingSelector = errors.New("protocol: selector required")
	ErrLineTerminator  = errors.New("protocol: value contains a line terminator")
)

// Frame is one discrete patch message.
//
// Wire format:
//
//	event: <event name>
//	id: <event id>                      (optional)
//	retry: <milliseconds>               (optional)
//	data: <directive> <value>
//	data: <directive> <value>
//	...
//	<blank line>
type Frame struct {
	Kind Kind

	// Signals is the partial signal mapping for KindSignals.
	Signals Signals

	// OnlyIfMissing asks the client to set only signals it does not have yet.
	OnlyIfMissing bool

	// Selector targets elements for KindElements and KindRemoveElements.
	Selector string

	// Mode is the placement directive for KindElements.
	Mode Mode

	// Elements is the markup fragment for KindElements. It may span lines.
	Elements string

	// UseViewTransition wraps the DOM update in a view transition.
	UseViewTransition bool

	// EventID is written as the SSE id field when set.
	EventID string

	// Retry is written as the SSE retry field when set to a non-default value.
	Retry time.Duration
}

// NewSignalsFrame creates a signals patch frame.
func NewSignalsFrame(signals Signals) Frame {
	return Frame{Kind: KindSignals, Signals: signals}
}

// NewElementsFrame creates an elements patch frame.
func NewElementsFrame(selector string, mode Mode, markup string) Frame {
	return Frame{Kind: KindElements, Selector: selector, Mode: mode, Elements: markup}
}

// NewRemoveFrame creates a remove-elements frame.
func NewRemoveFrame(selector string) Frame {
	return Frame{Kind: KindRemoveElements, Selector: selector}
}

// Validate checks that the frame can be encoded without breaking the
// line-oriented framing.
func (f *Frame) Validate() error {
	if hasLineTerminator(f.EventID) {
		return fmt.Errorf("%w: event id", ErrLineTerminator)
	}
	switch f.Kind {
	case KindSignals:
		return nil
	case KindElements:
		if f.Mode != "" {
			if _, err := ParseMode(string(f.Mode)); err != nil {
				return err
			}
		}
		if hasLineTerminator(f.Selector) {
			return fmt.Errorf("%w: selector", ErrLineTerminator)
		}
		if strings.ContainsRune(f.Elements, '\r') {
			return fmt.Errorf("%w: elements contain carriage return", ErrLineTerminator)
		}
		if f.Elements == "" && f.Mode != ModeRemove && f.Selector == "" {
			return ErrMissingSelector
		}
		return nil
	case KindRemoveElements:
		if f.Selector == "" {
			return ErrMissingSelector
		}
		if hasLineTerminator(f.Selector) {
			return fmt.Errorf("%w: selector", ErrLineTerminator)
		}
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidKind, f.Kind)
	}
}

// EffectiveMode returns the mode the client will apply.
func (f *Frame) EffectiveMode() Mode {
	if f.Mode == "" {
		return DefaultMode
	}
	return f.Mode
}

func hasLineTerminator(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}
