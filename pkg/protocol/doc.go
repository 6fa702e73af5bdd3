// Package protocol implements the patch stream wire protocol.
//
// A server pushes UI changes to the browser over a long-lived HTTP response
// formatted as an event stream. Each change is one frame; the browser
// runtime applies frames in arrival order.
//
// # Wire Format
//
// Every frame is a block of lines terminated by a blank line:
//
//	event: datastar-patch-elements
//	data: selector #todo-list
//	data: mode append
//	data: elements <li id="todo-01HX">
//	data: elements   <span>Buy milk</span>
//	data: elements </li>
//
// The blank line is the only frame boundary.
//
// # Frame Kinds
//
//   - KindSignals (datastar-patch-signals): one "signals <json>" line with a
//     partial signal mapping. Omitted keys are left untouched.
//   - KindElements (datastar-patch-elements): "selector", "mode" and one
//     "elements" line per markup line. Concatenating the elements lines with
//     "\n" restores the markup byte for byte.
//   - KindRemoveElements (datastar-remove-elements): a single "selector" line.
//
// # Streams
//
// Stream writes frames onto a Sink (any io.Writer with Close). Frames are
// encoded fully before a single Write, writes are serialized, and the first
// write failure ends the stream.
//
//	stream, _ := protocol.NewStream(sink)
//	err := stream.SendAll([]protocol.Frame{
//	    protocol.NewSignalsFrame(protocol.Signals{"newTodoText": ""}),
//	    protocol.NewElementsFrame("#todo-list", protocol.ModeAppend, markup),
//	})
//
// # Decoding
//
// Decoder reads frames back from a byte stream. It exists for tests and
// probes that need to inspect what a server emitted.
//
// # File Structure
//
//   - frame.go: Frame, Kind and Mode
//   - encoder.go: Frame encoding
//   - decoder.go: Frame decoding
//   - patch.go: Directives and script helpers
//   - signals.go: Signal mappings, merge and diff
//   - stream.go: Sink and Stream
//   - limits.go: Decoder size limits
//   - error.go: Error types
package protocol
