// Package vtest provides testing helpers for livepatch handlers.
//
// The vtest package reduces boilerplate when testing interaction endpoints
// by building requests that carry client signals and by decoding the
// event-stream response into frames.
//
// # Quick Start
//
//	func TestCreateTodo(t *testing.T) {
//	    srv := server.New(nil)
//	    req := vtest.NewRequest(http.MethodPost, "/api/todos").
//	        WithSignals(protocol.Signals{"newTodoText": "Buy milk"}).
//	        Build()
//	    resp := vtest.Record(t, srv.Handler(), req)
//	    vtest.ExpectKinds(t, resp.Frames, protocol.KindSignals, protocol.KindElements)
//	    vtest.ExpectContains(t, resp.Frames[1].Elements, "Buy milk")
//	}
//
// # Signals
//
// GET and DELETE requests carry signals in the datastar query parameter;
// other methods send a JSON body. Wrapped nests them under a "datastar"
// key the way some clients do:
//
//	req := vtest.NewRequest(http.MethodPost, "/api/update-message").
//	    WithSignals(protocol.Signals{"message": "hi"}).
//	    Wrapped().
//	    Build()
//
// Signals merges every signals frame of a response in order, giving the
// state a client store would hold afterwards.
//
// # Frame Assertions
//
//	vtest.ExpectSignals(t, resp.Frames[0], protocol.Signals{"count": 1})
//	vtest.ExpectElements(t, resp.Frames[1], "#todo-list", protocol.ModeAppend)
//	vtest.ExpectRemove(t, resp.Frames[0], "#todo-01ARZ3NDEK")
package vtest
