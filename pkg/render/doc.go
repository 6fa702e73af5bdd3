// Package render turns demo state into HTML markup.
//
// Every function here is pure: it takes a view of the state and returns
// markup, with no access to stores or streams. Stores call these to build
// the fragments they put into elements frames, and the HTTP layer calls the
// *Document functions for initial page loads.
//
// # Fragments
//
//   - TodoItem: one <li> keyed by "todo-<id>" so patches can target it
//   - TodoList: the concatenated items for the "todo-list" container
//   - MessageDisplay, ServerTime: counter demo widgets
//
// # Escaping
//
// User text is HTML escaped. Attribute values also encode line breaks so
// a rendered attribute never spans two lines of a frame.
package render
