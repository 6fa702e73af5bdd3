// Package store holds the demo state and decides which patch frames bring
// a client back in sync after each operation.
//
// Two stores are provided:
//
//   - Todos: an ordered item collection plus the view filter
//   - Counter: a clamped scalar with a message
//
// Stores never write to the network. Each operation returns the ordered
// frames that describe its effect, and the HTTP layer sends them on the
// response stream:
//
//	frames, err := todos.Create(text)
//	var verr *store.ValidationError
//	if errors.As(err, &verr) {
//		frames = []protocol.Frame{verr.Frame()}
//	}
//	stream.SendAll(frames)
//
// Stores are safe for concurrent use. There is no global instance; the
// server constructs one of each at startup.
package store
