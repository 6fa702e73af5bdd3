package probe

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/vango-dev/livepatch/pkg/protocol"
	"github.com/vango-dev/livepatch/pkg/render"
	"github.com/vango-dev/livepatch/pkg/store"
)

var todoIDPattern = regexp.MustCompile(`id="todo-([^"]+)"`)

// todoState carries ids between the checks of one todo run.
type todoState struct {
	id   string
	text string
}

// TodoSuite exercises the todo demo end to end. It leaves no items of its
// own behind and ends with the filter set to "all".
func TodoSuite() Suite {
	st := &todoState{
		text: fmt.Sprintf("probe <b>&</b> %d", time.Now().UnixNano()),
	}
	return Suite{
		Name: "todo",
		Checks: []Check{
			{"page renders", st.page},
			{"filter resets to all", st.filterAll},
			{"create appends item", st.create},
			{"empty text is rejected", st.createEmpty},
			{"toggle completes item", st.toggle},
			{"active filter hides completed", st.filterActive},
			{"completed filter shows item", st.filterCompleted},
			{"toggle under filter removes item", st.toggleHidden},
			{"invalid filter is rejected", st.filterInvalid},
			{"unknown item is not found", st.toggleUnknown},
			{"delete removes item", st.delete},
			{"delete is idempotent", st.delete},
			{"clear completed removes items", st.clearCompleted},
		},
	}
}

func (st *todoState) page(ctx context.Context, c *Client) error {
	doc, err := c.Page(ctx, "/todos")
	if err != nil {
		return err
	}
	return expectContains(doc, `id="`+render.ListID+`"`)
}

func (st *todoState) setFilter(ctx context.Context, c *Client, filter string) (*Response, error) {
	resp, err := c.Do(ctx, http.MethodPost, "/api/todos/filter/"+filter)
	if err != nil {
		return nil, err
	}
	if err := expectFrames(resp, protocol.KindSignals, protocol.KindElements); err != nil {
		return nil, err
	}
	if err := expectSignal(c, store.FilterSignal, filter); err != nil {
		return nil, err
	}
	return resp, expectTarget(resp.Frames[1], render.ListSelector, protocol.ModeInner)
}

func (st *todoState) filterAll(ctx context.Context, c *Client) error {
	_, err := st.setFilter(ctx, c, "all")
	return err
}

func (st *todoState) create(ctx context.Context, c *Client) error {
	if err := c.SetSignals(protocol.Signals{store.NewTodoTextSignal: st.text}); err != nil {
		return err
	}
	resp, err := c.Do(ctx, http.MethodPost, "/api/todos")
	if err != nil {
		return err
	}
	if err := expectFrames(resp, protocol.KindSignals, protocol.KindElements); err != nil {
		return err
	}
	markup := resp.Frames[1].Elements
	if err := firstErr(
		expectSignal(c, store.NewTodoTextSignal, ""),
		expectSignal(c, store.ErrorSignal, ""),
		expectTarget(resp.Frames[1], render.ListSelector, protocol.ModeAppend),
		expectContains(markup, "probe &lt;b&gt;&amp;&lt;/b&gt;"),
	); err != nil {
		return err
	}
	m := todoIDPattern.FindStringSubmatch(markup)
	if m == nil {
		return fmt.Errorf("no item id in %q", markup)
	}
	st.id = m[1]
	return nil
}

func (st *todoState) createEmpty(ctx context.Context, c *Client) error {
	if err := c.SetSignals(protocol.Signals{store.NewTodoTextSignal: "   "}); err != nil {
		return err
	}
	resp, err := c.Do(ctx, http.MethodPost, "/api/todos")
	if err != nil {
		return err
	}
	if err := expectFrames(resp, protocol.KindSignals); err != nil {
		return err
	}
	return expectSignal(c, store.ErrorSignal, store.MsgEmptyTodo)
}

func (st *todoState) requireID() error {
	if st.id == "" {
		return fmt.Errorf("no item was created")
	}
	return nil
}

func (st *todoState) toggle(ctx context.Context, c *Client) error {
	if err := st.requireID(); err != nil {
		return err
	}
	resp, err := c.Do(ctx, http.MethodPost, "/api/todos/"+st.id+"/toggle")
	if err != nil {
		return err
	}
	if err := expectFrames(resp, protocol.KindElements); err != nil {
		return err
	}
	return firstErr(
		expectTarget(resp.Frames[0], render.TodoSelector(st.id), protocol.ModeOuter),
		expectContains(resp.Frames[0].Elements, `class="todo completed"`),
	)
}

func (st *todoState) filterActive(ctx context.Context, c *Client) error {
	resp, err := st.setFilter(ctx, c, "active")
	if err != nil {
		return err
	}
	return expectNotContains(resp.Frames[1].Elements, render.TodoElementID(st.id))
}

func (st *todoState) filterCompleted(ctx context.Context, c *Client) error {
	if err := st.requireID(); err != nil {
		return err
	}
	resp, err := st.setFilter(ctx, c, "completed")
	if err != nil {
		return err
	}
	return expectContains(resp.Frames[1].Elements, render.TodoElementID(st.id))
}

func (st *todoState) toggleHidden(ctx context.Context, c *Client) error {
	if err := st.requireID(); err != nil {
		return err
	}
	resp, err := c.Do(ctx, http.MethodPost, "/api/todos/"+st.id+"/toggle")
	if err != nil {
		return err
	}
	if err := expectFrames(resp, protocol.KindRemoveElements); err != nil {
		return err
	}
	if err := expectTarget(resp.Frames[0], render.TodoSelector(st.id), ""); err != nil {
		return err
	}
	_, err = st.setFilter(ctx, c, "all")
	return err
}

func (st *todoState) filterInvalid(ctx context.Context, c *Client) error {
	resp, err := c.Do(ctx, http.MethodPost, "/api/todos/filter/bogus")
	if err != nil {
		return err
	}
	if err := expectFrames(resp, protocol.KindSignals); err != nil {
		return err
	}
	return firstErr(
		expectSignal(c, store.ErrorSignal, store.MsgInvalidFilter),
		expectSignal(c, store.FilterSignal, "all"),
	)
}

func (st *todoState) toggleUnknown(ctx context.Context, c *Client) error {
	resp, err := c.Do(ctx, http.MethodPost, fmt.Sprintf("/api/todos/missing-%d/toggle", time.Now().UnixNano()))
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusNotFound); err != nil {
		return err
	}
	if len(resp.Frames) != 0 {
		return fmt.Errorf("got %d frames, want none", len(resp.Frames))
	}
	return nil
}

func (st *todoState) delete(ctx context.Context, c *Client) error {
	if err := st.requireID(); err != nil {
		return err
	}
	resp, err := c.Do(ctx, http.MethodDelete, "/api/todos/"+st.id)
	if err != nil {
		return err
	}
	if err := expectFrames(resp, protocol.KindRemoveElements); err != nil {
		return err
	}
	return expectTarget(resp.Frames[0], render.TodoSelector(st.id), "")
}

func (st *todoState) clearCompleted(ctx context.Context, c *Client) error {
	if err := st.create(ctx, c); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if err := st.toggle(ctx, c); err != nil {
		return fmt.Errorf("toggle: %w", err)
	}
	resp, err := c.Do(ctx, http.MethodPost, "/api/todos/clear-completed")
	if err != nil {
		return err
	}
	if err := expectFrames(resp, protocol.KindElements); err != nil {
		return err
	}
	return firstErr(
		expectTarget(resp.Frames[0], render.ListSelector, protocol.ModeInner),
		expectNotContains(resp.Frames[0].Elements, render.TodoElementID(st.id)),
	)
}
