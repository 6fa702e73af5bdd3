package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// DatastarScript is the browser runtime that applies patch frames.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

// PageData contains all data needed to render a complete HTML page.
type PageData struct {
	// Title is the page title
	Title string

	// Lang is the language attribute for the html element.
	// Defaults to "en" if not specified.
	Lang string

	// Meta contains meta tags for the page
	Meta []MetaTag

	// Scripts contains script tags to include in the head.
	// When empty the Datastar runtime is included.
	Scripts []ScriptTag

	// Styles contains inline CSS styles
	Styles []string

	// Signals seeds the client signal store via data-signals on the body.
	Signals map[string]any

	// Body is the pre-rendered body markup.
	Body string
}

// MetaTag represents a meta element in the document head.
type MetaTag struct {
	Name    string // name attribute
	Content string // content attribute
}

// ScriptTag represents a script element.
type ScriptTag struct {
	Src    string // src attribute
	Module bool   // type="module"
	Inline string // inline script content
}

// RenderPage renders a complete HTML document to the given writer.
func RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	if _, err := io.WriteString(w, "<!DOCTYPE html>\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, `<html lang="%s">`+"\n", escapeAttr(lang)); err != nil {
		return err
	}
	if err := renderHead(w, page); err != nil {
		return err
	}

	body := "<body>\n"
	if len(page.Signals) > 0 {
		signals, err := marshalAttrJSON(page.Signals)
		if err != nil {
			return err
		}
		body = fmt.Sprintf("<body data-signals=\"%s\">\n", escapeAttr(signals))
	}
	if _, err := io.WriteString(w, body); err != nil {
		return err
	}
	if _, err := io.WriteString(w, page.Body); err != nil {
		return err
	}
	if !strings.HasSuffix(page.Body, "\n") {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}

// Page renders a complete HTML document to a string.
func Page(page PageData) (string, error) {
	var b strings.Builder
	if err := RenderPage(&b, page); err != nil {
		return "", err
	}
	return b.String(), nil
}

// renderHead renders the document head section.
func renderHead(w io.Writer, page PageData) error {
	if _, err := io.WriteString(w, "<head>\n"); err != nil {
		return err
	}
	if _, err := io.WriteString(w, `  <meta charset="utf-8">`+"\n"); err != nil {
		return err
	}
	if _, err := io.WriteString(w, `  <meta name="viewport" content="width=device-width, initial-scale=1">`+"\n"); err != nil {
		return err
	}
	if page.Title != "" {
		if _, err := fmt.Fprintf(w, "  <title>%s</title>\n", escapeHTML(page.Title)); err != nil {
			return err
		}
	}
	for _, meta := range page.Meta {
		if _, err := fmt.Fprintf(w, `  <meta name="%s" content="%s">`+"\n", escapeAttr(meta.Name), escapeAttr(meta.Content)); err != nil {
			return err
		}
	}

	scripts := page.Scripts
	if len(scripts) == 0 {
		scripts = []ScriptTag{{Src: DatastarScript, Module: true}}
	}
	for _, script := range scripts {
		if err := renderScriptTag(w, script); err != nil {
			return err
		}
	}

	for _, style := range page.Styles {
		if _, err := fmt.Fprintf(w, "  <style>%s</style>\n", style); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</head>\n")
	return err
}

// renderScriptTag renders a script element.
func renderScriptTag(w io.Writer, script ScriptTag) error {
	var b strings.Builder
	b.WriteString("  <script")
	if script.Module {
		b.WriteString(` type="module"`)
	}
	if script.Src != "" {
		fmt.Fprintf(&b, ` src="%s"`, escapeAttr(script.Src))
	}
	b.WriteString(">")
	b.WriteString(script.Inline)
	b.WriteString("</script>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func marshalAttrJSON(v map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("render: marshal signals: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
