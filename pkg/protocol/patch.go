package protocol

import (
	"strings"
)

// Data line directives.
const (
	DirectiveSignals           = "signals"
	DirectiveOnlyIfMissing     = "onlyIfMissing"
	DirectiveSelector          = "selector"
	DirectiveMode              = "mode"
	DirectiveElements          = "elements"
	DirectiveUseViewTransition = "useViewTransition"
)

// ScriptTarget is the selector script patches are appended to.
const ScriptTarget = "body"

// ExecuteScript returns an elements frame that appends a self-removing
// script tag to the document body. The client runs the script once and
// drops the node.
func ExecuteScript(script string) Frame {
	var b strings.Builder
	b.Grow(len(script) + 48)
	b.WriteString(`<script data-effect="el.remove()">`)
	// A literal "</script" would close the tag early.
	b.WriteString(strings.ReplaceAll(script, "</script", `<\/script`))
	b.WriteString(`</script>`)
	return NewElementsFrame(ScriptTarget, ModeAppend, b.String())
}

// Count returns the number of frames of each kind.
func Count(frames []Frame) map[Kind]int {
	counts := make(map[Kind]int, 3)
	for i := range frames {
		counts[frames[i].Kind]++
	}
	return counts
}
