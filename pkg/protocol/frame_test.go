package protocol

import (
	"errors"
	"testing"
)

func TestKindNames(t *testing.T) {
	tests := []struct {
		kind  Kind
		short string
		event string
	}{
		{KindSignals, "signals", "datastar-patch-signals"},
		{KindElements, "elements", "datastar-patch-elements"},
		{KindRemoveElements, "remove-elements", "datastar-remove-elements"},
	}

	for _, tc := range tests {
		if got := tc.kind.String(); got != tc.short {
			t.Errorf("%d.String() = %q, want %q", tc.kind, got, tc.short)
		}
		if got := tc.kind.EventName(); got != tc.event {
			t.Errorf("%d.EventName() = %q, want %q", tc.kind, got, tc.event)
		}
		back, ok := KindFromEvent(tc.event)
		if !ok || back != tc.kind {
			t.Errorf("KindFromEvent(%q) = %v, %v", tc.event, back, ok)
		}
	}

	if Kind(0).String() != "unknown" || Kind(0).EventName() != "" {
		t.Error("zero kind should be unknown with no event name")
	}
	if _, ok := KindFromEvent("datastar-patch-nothing"); ok {
		t.Error("unexpected kind for unknown event")
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []string{"outer", "inner", "replace", "prepend", "append", "before", "after", "remove"} {
		got, err := ParseMode(m)
		if err != nil {
			t.Errorf("ParseMode(%q) error: %v", m, err)
		}
		if string(got) != m {
			t.Errorf("ParseMode(%q) = %q", m, got)
		}
	}

	if _, err := ParseMode("morph"); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("ParseMode(morph) error = %v, want ErrInvalidMode", err)
	}
	if _, err := ParseMode(""); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("ParseMode(\"\") error = %v, want ErrInvalidMode", err)
	}
}

func TestFrameEffectiveMode(t *testing.T) {
	f := NewElementsFrame("#a", "", "<p></p>")
	if f.EffectiveMode() != ModeOuter {
		t.Errorf("EffectiveMode() = %q, want outer", f.EffectiveMode())
	}
	f.Mode = ModeAppend
	if f.EffectiveMode() != ModeAppend {
		t.Errorf("EffectiveMode() = %q, want append", f.EffectiveMode())
	}
}

func TestRemoveModeFrameHasNoElementsLines(t *testing.T) {
	data, err := EncodeElementPatch("#gone", ModeRemove, "")
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	want := "event: datastar-patch-elements\ndata: selector #gone\ndata: mode remove\n\n"
	if string(data) != want {
		t.Errorf("got %q, want %q", data, want)
	}
}
