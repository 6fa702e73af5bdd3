package render

import (
	"fmt"
	"strings"
)

// Element identifiers shared by markup and patch selectors.
const (
	ListID       = "todo-list"
	ListSelector = "#" + ListID
	todoIDPrefix = "todo-"
)

// Filters in the order the filter bar shows them.
var filterNames = []string{"all", "active", "completed"}

// Todo is the view of a single item.
type Todo struct {
	ID        string
	Text      string
	Completed bool
}

// TodoPage is the state needed to render the todo document.
type TodoPage struct {
	Items  []Todo // visible items in collection order
	Filter string
}

// TodoElementID returns the DOM id of an item.
func TodoElementID(id string) string {
	return todoIDPrefix + id
}

// TodoSelector returns the CSS selector that targets an item.
func TodoSelector(id string) string {
	return "#" + TodoElementID(id)
}

// TodoItem renders one item as an <li> keyed by its id.
func TodoItem(t Todo) string {
	var b strings.Builder
	class := "todo"
	checked := ""
	if t.Completed {
		class = "todo completed"
		checked = " checked"
	}
	fmt.Fprintf(&b, "<li id=\"%s\" class=\"%s\">\n", escapeAttr(TodoElementID(t.ID)), class)
	fmt.Fprintf(&b, "  <input type=\"checkbox\"%s data-on-click=\"@post('/api/todos/%s/toggle')\">\n", checked, escapeAttr(t.ID))
	fmt.Fprintf(&b, "  <span class=\"todo-text\">%s</span>\n", escapeText(t.Text))
	fmt.Fprintf(&b, "  <button class=\"destroy\" data-on-click=\"@delete('/api/todos/%s')\">&times;</button>\n", escapeAttr(t.ID))
	b.WriteString("</li>")
	return b.String()
}

// TodoList renders the inner markup of the list container: the visible
// items' fragments concatenated in order.
func TodoList(items []Todo) string {
	parts := make([]string, len(items))
	for i, t := range items {
		parts[i] = TodoItem(t)
	}
	return strings.Join(parts, "\n")
}

// TodoBody renders the todo application body.
func TodoBody(p TodoPage) string {
	var b strings.Builder
	b.WriteString("<main class=\"todoapp\">\n")
	b.WriteString("  <h1>todos</h1>\n")
	b.WriteString("  <p class=\"error\" data-show=\"$error != ''\" data-text=\"$error\"></p>\n")
	b.WriteString("  <form data-on-submit__prevent=\"@post('/api/todos')\">\n")
	b.WriteString("    <input class=\"new-todo\" placeholder=\"What needs to be done?\" data-bind-new-todo-text autofocus>\n")
	b.WriteString("  </form>\n")
	b.WriteString("  <nav class=\"filters\">\n")
	for _, name := range filterNames {
		fmt.Fprintf(&b, "    <button data-class-selected=\"$filter == '%s'\" data-on-click=\"@post('/api/todos/filter/%s')\">%s</button>\n",
			name, name, strings.ToUpper(name[:1])+name[1:])
	}
	b.WriteString("    <button class=\"clear-completed\" data-on-click=\"@post('/api/todos/clear-completed')\">Clear completed</button>\n")
	b.WriteString("  </nav>\n")
	fmt.Fprintf(&b, "  <ul id=\"%s\">\n", ListID)
	if len(p.Items) > 0 {
		b.WriteString(TodoList(p.Items))
		b.WriteString("\n")
	}
	b.WriteString("  </ul>\n")
	b.WriteString("</main>\n")
	return b.String()
}

// TodoDocument renders the full todo page.
func TodoDocument(p TodoPage) (string, error) {
	filter := p.Filter
	if filter == "" {
		filter = "all"
	}
	return Page(PageData{
		Title:  "Todos",
		Styles: []string{baseStyle},
		Signals: map[string]any{
			"newTodoText": "",
			"filter":      filter,
			"error":       "",
		},
		Body: TodoBody(p),
	})
}
