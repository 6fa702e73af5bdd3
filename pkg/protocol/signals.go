package protocol

import (
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
)

// Signals is a partial signal mapping. Keys that are not present are left
// untouched on the client; a null value deletes the signal.
type Signals map[string]any

// Clone returns a shallow copy of the mapping.
func (s Signals) Clone() Signals {
	if s == nil {
		return nil
	}
	c := make(Signals, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// String reads a string signal. Non-string values report ok=false.
func (s Signals) String(key string) (string, bool) {
	v, ok := s[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// MergeSignals applies a signals patch to a JSON document, the way the
// client merges an incoming frame into its store.
func MergeSignals(doc []byte, patch Signals) ([]byte, error) {
	if len(doc) == 0 {
		doc = []byte("{}")
	}
	p, err := marshalSignals(patch)
	if err != nil {
		return nil, err
	}
	out, err := jsonpatch.MergePatch(doc, p)
	if err != nil {
		return nil, fmt.Errorf("protocol: merge signals: %w", err)
	}
	return out, nil
}

// DiffSignals returns the minimal partial mapping that turns before into
// after. Removed keys are reported with a nil value.
func DiffSignals(before, after Signals) (Signals, error) {
	a, err := marshalSignals(before)
	if err != nil {
		return nil, err
	}
	b, err := marshalSignals(after)
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.CreateMergePatch(a, b)
	if err != nil {
		return nil, fmt.Errorf("protocol: diff signals: %w", err)
	}
	return unmarshalSignals(patch)
}

// DecodeSignals parses a JSON object into Signals.
func DecodeSignals(data []byte) (Signals, error) {
	return unmarshalSignals(data)
}

// EncodeSignals serializes signals the way they appear on the wire.
func EncodeSignals(s Signals) ([]byte, error) {
	return marshalSignals(s)
}
