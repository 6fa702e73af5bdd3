package store

import (
	"strings"
	"sync"

	"github.com/vango-dev/livepatch/pkg/protocol"
	"github.com/vango-dev/livepatch/pkg/render"
)

// Signals written by the todo operations.
const (
	NewTodoTextSignal = "newTodoText"
	FilterSignal      = "filter"
)

// Item is one todo entry.
type Item struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

func (it Item) view() render.Todo {
	return render.Todo{ID: it.ID, Text: it.Text, Completed: it.Completed}
}

// TodoOption configures a Todos store.
type TodoOption func(*Todos)

// WithIDGenerator sets the function used to mint item ids.
func WithIDGenerator(gen IDGenerator) TodoOption {
	return func(t *Todos) {
		if gen != nil {
			t.newID = gen
		}
	}
}

// WithItems seeds the collection. Items are copied.
func WithItems(items ...Item) TodoOption {
	return func(t *Todos) {
		t.items = append([]Item(nil), items...)
	}
}

// WithFilter sets the initial filter.
func WithFilter(f Filter) TodoOption {
	return func(t *Todos) {
		t.filter = f
	}
}

// Todos owns the todo collection and the current filter.
//
// Every operation runs to completion under one mutex, including rendering,
// so the frames it returns always describe the state right after that
// operation. Validation happens before mutation: a failed call leaves the
// collection unchanged.
type Todos struct {
	mu     sync.Mutex
	items  []Item
	filter Filter
	newID  IDGenerator
}

// NewTodos creates an empty store showing all items.
func NewTodos(opts ...TodoOption) *Todos {
	t := &Todos{filter: FilterAll}
	for _, opt := range opts {
		opt(t)
	}
	if t.newID == nil {
		t.newID = NewULIDGenerator()
	}
	if t.filter == "" {
		t.filter = FilterAll
	}
	return t
}

// Create appends a new active item with the trimmed text.
//
// Frames: a signals patch clearing the input and any previous error, then
// an append into the list container when the new item is visible under
// the current filter.
func (t *Todos) Create(text string) ([]protocol.Frame, error) {
	raw := text
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Field: "text", Value: raw, Message: MsgEmptyTodo}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	it := Item{ID: t.newID(), Text: text}
	t.items = append(t.items, it)

	frames := []protocol.Frame{
		protocol.NewSignalsFrame(protocol.Signals{
			ErrorSignal:       "",
			NewTodoTextSignal: "",
		}),
	}
	if t.filter.Match(it) {
		frames = append(frames, protocol.NewElementsFrame(render.ListSelector, protocol.ModeAppend, render.TodoItem(it.view())))
	}
	return frames, nil
}

// Toggle flips the completed flag of one item.
//
// Frames: the item's markup replacing its element, or a remove patch when
// the item is no longer visible under the current filter.
func (t *Todos) Toggle(id string) ([]protocol.Frame, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(id)
	if i < 0 {
		return nil, &NotFoundError{ID: id}
	}
	t.items[i].Completed = !t.items[i].Completed
	it := t.items[i]

	if !t.filter.Match(it) {
		return []protocol.Frame{protocol.NewRemoveFrame(render.TodoSelector(id))}, nil
	}
	return []protocol.Frame{
		protocol.NewElementsFrame(render.TodoSelector(id), protocol.ModeOuter, render.TodoItem(it.view())),
	}, nil
}

// Delete removes an item. Deleting an absent id is a successful no-op: the
// remove patch is still emitted so a client that raced a clear-completed
// converges. An absent id that could never have been minted (see ValidID)
// yields no frames. The bool reports whether an item was removed.
func (t *Todos) Delete(id string) ([]protocol.Frame, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(id)
	if i < 0 {
		if !ValidID(id) {
			return nil, false
		}
		return []protocol.Frame{protocol.NewRemoveFrame(render.TodoSelector(id))}, false
	}
	t.items = append(t.items[:i], t.items[i+1:]...)
	return []protocol.Frame{protocol.NewRemoveFrame(render.TodoSelector(id))}, true
}

// SetFilter changes the view filter.
//
// Frames: a signals patch asserting the filter, then the list container's
// inner markup re-rendered under it.
func (t *Todos) SetFilter(raw string) ([]protocol.Frame, error) {
	f, err := ParseFilter(raw)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.filter = f
	return []protocol.Frame{
		protocol.NewSignalsFrame(protocol.Signals{FilterSignal: string(f)}),
		t.listFrame(),
	}, nil
}

// ClearCompleted removes every completed item, keeping the order of the
// rest. It returns the re-rendered list and the number of items removed.
func (t *Todos) ClearCompleted() ([]protocol.Frame, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.items[:0]
	for _, it := range t.items {
		if !it.Completed {
			kept = append(kept, it)
		}
	}
	removed := len(t.items) - len(kept)
	for i := len(kept); i < len(t.items); i++ {
		t.items[i] = Item{}
	}
	t.items = kept

	return []protocol.Frame{t.listFrame()}, removed
}

// Items returns a copy of the whole collection.
func (t *Todos) Items() []Item {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Item(nil), t.items...)
}

// Visible returns the items shown under the current filter.
func (t *Todos) Visible() []Item {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filter.Apply(t.items)
}

// Filter returns the current filter.
func (t *Todos) Filter() Filter {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filter
}

// Len returns the collection size.
func (t *Todos) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

// Get returns a copy of one item.
func (t *Todos) Get(id string) (Item, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.indexOf(id); i >= 0 {
		return t.items[i], true
	}
	return Item{}, false
}

// PageData returns the state needed to render the initial document.
func (t *Todos) PageData() render.TodoPage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return render.TodoPage{
		Items:  views(t.filter.Apply(t.items)),
		Filter: string(t.filter),
	}
}

// Reset replaces the collection and restores the "all" filter.
// Intended for tests.
func (t *Todos) Reset(items ...Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append([]Item(nil), items...)
	t.filter = FilterAll
}

func (t *Todos) indexOf(id string) int {
	for i := range t.items {
		if t.items[i].ID == id {
			return i
		}
	}
	return -1
}

// listFrame renders the list container under the current filter.
// Caller must hold t.mu.
func (t *Todos) listFrame() protocol.Frame {
	markup := render.TodoList(views(t.filter.Apply(t.items)))
	return protocol.NewElementsFrame(render.ListSelector, protocol.ModeInner, markup)
}

func views(items []Item) []render.Todo {
	out := make([]render.Todo, len(items))
	for i, it := range items {
		out[i] = it.view()
	}
	return out
}
