package render

import (
	"fmt"
	"strings"
	"time"
)

// Counter demo element identifiers.
const (
	MessageDisplayID       = "message-display"
	MessageDisplaySelector = "#" + MessageDisplayID
	ServerTimeID           = "server-time"
	ServerTimeSelector     = "#" + ServerTimeID
)

// TimeLayout is the clock format pushed by the time stream.
const TimeLayout = "15:04:05"

// CounterPage is the state needed to render the counter document.
type CounterPage struct {
	Count   int
	Message string
}

// MessageDisplay renders the inner markup of the message display.
func MessageDisplay(message string) string {
	if message == "" {
		return "<em>No message yet</em>"
	}
	return fmt.Sprintf("<strong>Server says:</strong> %s", escapeText(message))
}

// ServerTime renders the clock element replaced on every tick.
func ServerTime(t time.Time) string {
	return fmt.Sprintf("<div id=\"%s\">%s</div>", ServerTimeID, t.Format(TimeLayout))
}

// CounterBody renders the counter demo body.
func CounterBody(p CounterPage) string {
	var b strings.Builder
	b.WriteString("<main class=\"counter\">\n")
	b.WriteString("  <h1>Counter</h1>\n")
	b.WriteString("  <p class=\"count\">Count: <span data-text=\"$count\"></span></p>\n")
	b.WriteString("  <div class=\"buttons\">\n")
	b.WriteString("    <button data-on-click=\"@get('/api/decrement')\">-</button>\n")
	b.WriteString("    <button data-on-click=\"@get('/api/increment')\">+</button>\n")
	b.WriteString("    <button data-on-click=\"@post('/api/reset')\">Reset</button>\n")
	b.WriteString("  </div>\n")
	b.WriteString("  <form data-on-submit__prevent=\"@post('/api/update-message')\">\n")
	b.WriteString("    <input placeholder=\"Message\" data-bind-message>\n")
	b.WriteString("    <button>Send</button>\n")
	b.WriteString("  </form>\n")
	fmt.Fprintf(&b, "  <div id=\"%s\">%s</div>\n", MessageDisplayID, MessageDisplay(p.Message))
	b.WriteString("  <div class=\"buttons\">\n")
	b.WriteString("    <button data-on-click=\"@get('/api/alert')\">Alert</button>\n")
	b.WriteString("    <button data-on-click=\"@get('/api/console-log')\">Console log</button>\n")
	b.WriteString("    <button data-on-click=\"@get('/api/time-stream')\">Start clock</button>\n")
	b.WriteString("  </div>\n")
	fmt.Fprintf(&b, "  <div id=\"%s\">--:--:--</div>\n", ServerTimeID)
	b.WriteString("</main>\n")
	return b.String()
}

// CounterDocument renders the full counter page.
func CounterDocument(p CounterPage) (string, error) {
	return Page(PageData{
		Title:  "Counter",
		Styles: []string{baseStyle},
		Signals: map[string]any{
			"count":   p.Count,
			"message": p.Message,
		},
		Body: CounterBody(p),
	})
}

// IndexDocument renders the landing page linking both demos.
func IndexDocument() (string, error) {
	return Page(PageData{
		Title:  "livepatch demos",
		Styles: []string{baseStyle},
		Body: "<main>\n" +
			"  <h1>livepatch demos</h1>\n" +
			"  <ul>\n" +
			"    <li><a href=\"/todos\">Todo list</a></li>\n" +
			"    <li><a href=\"/counter\">Counter and clock</a></li>\n" +
			"  </ul>\n" +
			"</main>\n",
	})
}

const baseStyle = `body{font-family:system-ui,sans-serif;max-width:600px;margin:40px auto;padding:0 16px}` +
	`button{padding:6px 12px;margin:4px;cursor:pointer}` +
	`ul{list-style:none;padding:0}` +
	`.todo{display:flex;align-items:center;gap:8px;padding:6px 0;border-bottom:1px solid #eee}` +
	`.todo.completed .todo-text{text-decoration:line-through;color:#999}` +
	`.error{color:#c00}` +
	`.selected{font-weight:bold}`
