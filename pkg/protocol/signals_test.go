package protocol

import (
	"encoding/json"
	"testing"
)

func TestMergeSignals_OmittedKeysUntouched(t *testing.T) {
	doc := []byte(`{"count":1,"message":"hello","filter":"all"}`)

	out, err := MergeSignals(doc, Signals{"count": 2})
	if err != nil {
		t.Fatalf("MergeSignals() error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["count"] != float64(2) {
		t.Errorf("count = %v, want 2", got["count"])
	}
	if got["message"] != "hello" || got["filter"] != "all" {
		t.Errorf("omitted keys changed: %v", got)
	}
}

func TestMergeSignals_NullDeletes(t *testing.T) {
	out, err := MergeSignals([]byte(`{"a":1,"b":2}`), Signals{"a": nil})
	if err != nil {
		t.Fatalf("MergeSignals() error: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := got["a"]; ok {
		t.Errorf("expected a to be deleted, got %v", got)
	}
	if got["b"] != float64(2) {
		t.Errorf("b = %v", got["b"])
	}
}

func TestMergeSignals_EmptyDocument(t *testing.T) {
	out, err := MergeSignals(nil, Signals{"input": ""})
	if err != nil {
		t.Fatalf("MergeSignals() error: %v", err)
	}
	if string(out) != `{"input":""}` {
		t.Errorf("MergeSignals() = %s", out)
	}
}

func TestDiffSignals(t *testing.T) {
	before := Signals{"count": 1, "message": "hi", "stale": true}
	after := Signals{"count": 2, "message": "hi"}

	diff, err := DiffSignals(before, after)
	if err != nil {
		t.Fatalf("DiffSignals() error: %v", err)
	}

	if diff["count"] != json.Number("2") {
		t.Errorf("count = %v", diff["count"])
	}
	if _, ok := diff["message"]; ok {
		t.Error("unchanged key should be omitted")
	}
	if v, ok := diff["stale"]; !ok || v != nil {
		t.Errorf("removed key should be null, got %v (present=%v)", v, ok)
	}
}

func TestSignalsCloneAndString(t *testing.T) {
	s := Signals{"a": "x", "n": 1}
	c := s.Clone()
	c["a"] = "y"
	if v, _ := s.String("a"); v != "x" {
		t.Error("Clone should not alias the original")
	}
	if _, ok := s.String("n"); ok {
		t.Error("String() should report non-string values")
	}
	if _, ok := s.String("missing"); ok {
		t.Error("String() should report missing keys")
	}
	if Signals(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
