package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/vango-dev/livepatch/pkg/protocol"
)

func seqIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return strconv.Itoa(n)
	}
}

func newTestTodos(items ...Item) *Todos {
	return NewTodos(WithIDGenerator(seqIDs()), WithItems(items...))
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "Buy milk", "Buy milk"},
		{"trimmed", "  Buy milk \t\n", "Buy milk"},
		{"inner spaces kept", "a  b", "a  b"},
		{"unicode", " café ✓ ", "café ✓"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestTodos(Item{ID: "x", Text: "existing"})
			before := s.Len()

			frames, err := s.Create(tc.text)
			if err != nil {
				t.Fatalf("Create() error: %v", err)
			}
			if s.Len() != before+1 {
				t.Fatalf("Len() = %d, want %d", s.Len(), before+1)
			}
			items := s.Items()
			last := items[len(items)-1]
			if last.Text != tc.want || last.Completed {
				t.Errorf("created item = %+v", last)
			}
			if items[0].ID != "x" {
				t.Error("existing item disturbed")
			}
			if len(frames) != 2 || frames[0].Kind != protocol.KindSignals || frames[1].Kind != protocol.KindElements {
				t.Fatalf("frames = %+v", frames)
			}
		})
	}
}

func TestCreate_InvalidLeavesStateUnchanged(t *testing.T) {
	for _, text := range []string{"", " ", "\t\n", "  "} {
		s := newTestTodos(Item{ID: "a", Text: "keep"})

		frames, err := s.Create(text)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Create(%q) error = %v, want *ValidationError", text, err)
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("error should wrap ErrInvalidInput")
		}
		if frames != nil {
			t.Errorf("Create(%q) returned frames %+v", text, frames)
		}
		if s.Len() != 1 {
			t.Errorf("Create(%q) changed the collection", text)
		}

		f := verr.Frame()
		if f.Kind != protocol.KindSignals || f.Signals[ErrorSignal] != MsgEmptyTodo {
			t.Errorf("error frame = %+v", f)
		}
	}
}

func TestCreate_Scenario(t *testing.T) {
	s := newTestTodos()
	frames, err := s.Create("Buy milk")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	items := s.Items()
	if len(items) != 1 {
		t.Fatalf("collection = %+v", items)
	}
	id := items[0].ID

	sig := frames[0]
	if v, ok := sig.Signals[NewTodoTextSignal]; !ok || v != "" {
		t.Errorf("signals frame should clear newTodoText: %+v", sig.Signals)
	}
	el := frames[1]
	if el.Selector != "#todo-list" || el.Mode != protocol.ModeAppend {
		t.Errorf("elements frame target = %q %q", el.Selector, el.Mode)
	}
	if !strings.Contains(el.Elements, "todo-"+id) || !strings.Contains(el.Elements, "Buy milk") {
		t.Errorf("markup missing id or text:\n%s", el.Elements)
	}
}

func TestCreate_HiddenByFilter(t *testing.T) {
	s := newTestTodos()
	if _, err := s.SetFilter("completed"); err != nil {
		t.Fatal(err)
	}
	frames, err := s.Create("new")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if got := protocol.Count(frames); got[protocol.KindElements] != 0 || got[protocol.KindSignals] != 1 {
		t.Errorf("hidden item should not be inserted, frames = %+v", frames)
	}
	if s.Len() != 1 {
		t.Error("item should still be created")
	}
}

func TestToggle_TwiceRestores(t *testing.T) {
	s := newTestTodos(
		Item{ID: "a", Text: "A"},
		Item{ID: "b", Text: "B", Completed: true},
		Item{ID: "c", Text: "C"},
	)
	before := s.Items()

	frames, err := s.Toggle("b")
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if len(frames) != 1 || frames[0].Selector != "#todo-b" || frames[0].Mode != protocol.ModeOuter {
		t.Fatalf("frames = %+v", frames)
	}
	if strings.Contains(frames[0].Elements, "completed\"") {
		t.Errorf("toggled markup still completed:\n%s", frames[0].Elements)
	}
	if it, _ := s.Get("b"); it.Completed {
		t.Error("first toggle did not flip")
	}

	if _, err := s.Toggle("b"); err != nil {
		t.Fatalf("second Toggle() error: %v", err)
	}
	after := s.Items()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("item %d = %+v, want %+v", i, after[i], before[i])
		}
	}
}

func TestToggle_NotFound(t *testing.T) {
	s := newTestTodos(Item{ID: "a", Text: "A"})
	frames, err := s.Toggle("nope")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != "nope" {
		t.Fatalf("Toggle() error = %v, want *NotFoundError", err)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("error should wrap ErrNotFound")
	}
	if frames != nil {
		t.Error("not found must not emit frames")
	}
	if it, _ := s.Get("a"); it.Completed {
		t.Error("other items must be untouched")
	}
}

func TestToggle_LeavesFilterRemovesElement(t *testing.T) {
	s := NewTodos(WithItems(Item{ID: "a", Text: "A"}), WithFilter(FilterActive))
	frames, err := s.Toggle("a")
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if len(frames) != 1 || frames[0].Kind != protocol.KindRemoveElements || frames[0].Selector != "#todo-a" {
		t.Errorf("frames = %+v", frames)
	}
}

func TestDelete_Twice(t *testing.T) {
	s := newTestTodos(Item{ID: "a", Text: "A"}, Item{ID: "b", Text: "B"}, Item{ID: "c", Text: "C"})

	frames, removed := s.Delete("b")
	if !removed {
		t.Fatal("first Delete() should remove")
	}
	if len(frames) != 1 || frames[0].Kind != protocol.KindRemoveElements || frames[0].Selector != "#todo-b" {
		t.Fatalf("frames = %+v", frames)
	}

	frames, removed = s.Delete("b")
	if removed {
		t.Error("second Delete() should observe absence")
	}
	if len(frames) != 1 || frames[0].Kind != protocol.KindRemoveElements {
		t.Errorf("second Delete() frames = %+v", frames)
	}

	items := s.Items()
	if len(items) != 2 || items[0].ID != "a" || items[1].ID != "c" {
		t.Errorf("remaining = %+v", items)
	}
}

func TestSetFilter(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		raw   string
		want  []string
	}{
		{"empty active", nil, "active", nil},
		{
			name:  "active",
			items: []Item{{ID: "a", Text: "A"}, {ID: "b", Text: "B", Completed: true}, {ID: "c", Text: "C"}},
			raw:   "active",
			want:  []string{"a", "c"},
		},
		{
			name:  "completed scenario",
			items: []Item{{ID: "a", Text: "A"}, {ID: "b", Text: "B", Completed: true}},
			raw:   "completed",
			want:  []string{"b"},
		},
		{
			name:  "all case insensitive",
			items: []Item{{ID: "a", Text: "A"}, {ID: "b", Text: "B", Completed: true}},
			raw:   " ALL ",
			want:  []string{"a", "b"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestTodos(tc.items...)
			frames, err := s.SetFilter(tc.raw)
			if err != nil {
				t.Fatalf("SetFilter() error: %v", err)
			}
			if len(frames) != 2 {
				t.Fatalf("frames = %+v", frames)
			}
			want := strings.ToLower(strings.TrimSpace(tc.raw))
			if frames[0].Kind != protocol.KindSignals || frames[0].Signals[FilterSignal] != want {
				t.Errorf("signals frame = %+v", frames[0])
			}
			list := frames[1]
			if list.Selector != "#todo-list" || list.Mode != protocol.ModeInner {
				t.Errorf("list frame target = %q %q", list.Selector, list.Mode)
			}
			for _, it := range tc.items {
				shown := strings.Contains(list.Elements, "id=\"todo-"+it.ID+"\"")
				wanted := contains(tc.want, it.ID)
				if shown != wanted {
					t.Errorf("item %s shown=%v want %v", it.ID, shown, wanted)
				}
			}
			if len(s.Visible()) != len(tc.want) {
				t.Errorf("Visible() = %+v", s.Visible())
			}
			if len(s.Items()) != len(tc.items) {
				t.Error("filtering must not mutate the collection")
			}
		})
	}
}

func TestSetFilter_Invalid(t *testing.T) {
	s := newTestTodos(Item{ID: "a", Text: "A"})
	_, err := s.SetFilter("done")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("SetFilter() error = %v", err)
	}
	if verr.Frame().Signals[ErrorSignal] != MsgInvalidFilter {
		t.Errorf("error frame = %+v", verr.Frame())
	}
	if s.Filter() != FilterAll {
		t.Error("filter changed on invalid input")
	}
}

func TestFilterRecomputedAfterMutation(t *testing.T) {
	s := newTestTodos(Item{ID: "a", Text: "A"}, Item{ID: "b", Text: "B"})
	if _, err := s.SetFilter("active"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Toggle("a"); err != nil {
		t.Fatal(err)
	}
	vis := s.Visible()
	if len(vis) != 1 || vis[0].ID != "b" {
		t.Errorf("Visible() = %+v", vis)
	}
	page := s.PageData()
	if page.Filter != "active" || len(page.Items) != 1 || page.Items[0].ID != "b" {
		t.Errorf("PageData() = %+v", page)
	}
}

func TestClearCompleted(t *testing.T) {
	s := newTestTodos(
		Item{ID: "a", Text: "A", Completed: true},
		Item{ID: "b", Text: "B"},
		Item{ID: "c", Text: "C", Completed: true},
		Item{ID: "d", Text: "D"},
	)

	frames, removed := s.ClearCompleted()
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	items := s.Items()
	if len(items) != 2 || items[0].ID != "b" || items[1].ID != "d" {
		t.Fatalf("remaining = %+v", items)
	}
	if len(frames) != 1 || frames[0].Selector != "#todo-list" || frames[0].Mode != protocol.ModeInner {
		t.Fatalf("frames = %+v", frames)
	}
	if strings.Contains(frames[0].Elements, "todo-a") || strings.Contains(frames[0].Elements, "todo-c") {
		t.Errorf("cleared items rendered:\n%s", frames[0].Elements)
	}
	if strings.Index(frames[0].Elements, "todo-b") > strings.Index(frames[0].Elements, "todo-d") {
		t.Error("order not preserved")
	}
}

func TestClearCompleted_Scenario(t *testing.T) {
	s := newTestTodos(Item{ID: "A", Text: "first", Completed: true}, Item{ID: "B", Text: "second"})
	frames, _ := s.ClearCompleted()
	if items := s.Items(); len(items) != 1 || items[0].ID != "B" {
		t.Fatalf("collection = %+v", items)
	}
	if !strings.Contains(frames[0].Elements, "todo-B") || strings.Contains(frames[0].Elements, "todo-A") {
		t.Errorf("markup = %s", frames[0].Elements)
	}
}

func TestClearThenDelete(t *testing.T) {
	s := newTestTodos(Item{ID: "a", Text: "A", Completed: true}, Item{ID: "b", Text: "B"})
	s.ClearCompleted()
	frames, removed := s.Delete("a")
	if removed || len(frames) != 1 {
		t.Errorf("Delete after clear = %+v, %v", frames, removed)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d", s.Len())
	}
}

func TestFramesEncode(t *testing.T) {
	s := newTestTodos()
	frames, err := s.Create("multi\nline")
	if err != nil {
		t.Fatal(err)
	}
	tgl, _ := s.Toggle("1")
	del, _ := s.Delete("1")
	frames = append(frames, tgl...)
	frames = append(frames, del...)
	for i := range frames {
		if _, err := protocol.EncodeFrame(&frames[i]); err != nil {
			t.Errorf("frame %d does not encode: %v", i, err)
		}
	}
}

func TestReset(t *testing.T) {
	s := newTestTodos(Item{ID: "a", Text: "A"})
	s.SetFilter("completed")
	s.Reset(Item{ID: "z", Text: "Z"})
	if s.Filter() != FilterAll || s.Len() != 1 {
		t.Errorf("Reset() left filter=%s len=%d", s.Filter(), s.Len())
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	s := newTestTodos(Item{ID: "a", Text: "A"})
	items := s.Items()
	items[0].Text = "mutated"
	if it, _ := s.Get("a"); it.Text != "A" {
		t.Error("caller mutated store state")
	}
}

func TestConcurrentOperations(t *testing.T) {
	s := NewTodos()
	const workers, perWorker = 8, 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := s.Create(fmt.Sprintf("w%d-%d", w, i)); err != nil {
					t.Errorf("Create() error: %v", err)
					return
				}
				items := s.Items()
				id := items[len(items)-1].ID
				s.Toggle(id)
				s.Visible()
			}
		}(w)
	}
	wg.Wait()

	items := s.Items()
	if len(items) != workers*perWorker {
		t.Fatalf("Len() = %d, want %d", len(items), workers*perWorker)
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if seen[it.ID] {
			t.Fatalf("duplicate id %s", it.ID)
		}
		seen[it.ID] = true
	}

	s.ClearCompleted()
	for _, it := range s.Items() {
		if it.Completed {
			t.Fatal("completed item survived ClearCompleted")
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestDelete_MalformedID(t *testing.T) {
	s := newTestTodos(Item{ID: "a", Text: "A"})

	for _, id := range []string{"", "x, body", "a\nb", "#todo-list", "a b"} {
		frames, removed := s.Delete(id)
		if removed || frames != nil {
			t.Errorf("Delete(%q) = %+v, %v, want no frames", id, frames, removed)
		}
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestValidID(t *testing.T) {
	tests := map[string]bool{
		"01ARZ3NDEKTSV4RRFFQ69G5FAV": true,
		"a":                          true,
		"todo_1-b":                   true,
		"":                           false,
		"x, body":                    false,
		"a\nb":                       false,
		"a.b":                        false,
		strings.Repeat("a", 65):      false,
	}
	for id, want := range tests {
		if got := ValidID(id); got != want {
			t.Errorf("ValidID(%q) = %v, want %v", id, got, want)
		}
	}
	if id := NewULIDGenerator()(); !ValidID(id) {
		t.Errorf("generated id %q is not valid", id)
	}
}
