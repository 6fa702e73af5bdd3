// Package server provides the HTTP server for the livepatch demos.
//
// Every interaction endpoint answers with a text/event-stream response
// carrying zero or more patch frames in order. Handlers only translate
// requests into store operations; the stores in pkg/store decide which
// frames to emit and the protocol.Stream writes them.
//
// # Usage
//
//	srv := server.New(&server.Config{
//	    Address:   ":8080",
//	    SeedTodos: []string{"Learn Go"},
//	})
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Routes
//
//	GET    /                          index
//	GET    /todos                     todo page
//	POST   /api/todos                 create (newTodoText signal)
//	POST   /api/todos/{id}/toggle     toggle
//	DELETE /api/todos/{id}            delete
//	POST   /api/todos/filter/{filter} set filter
//	POST   /api/todos/clear-completed clear completed
//	GET    /counter                   counter page
//	GET    /api/increment             increment
//	GET    /api/decrement             decrement
//	POST   /api/reset                 reset
//	POST   /api/update-message        update message (message signal)
//	GET    /api/alert                 alert script
//	GET    /api/console-log           console script
//	GET    /api/time-stream           periodic clock over SSE
//	GET    /api/time-stream/ws        periodic clock over WebSocket
//	GET    /healthz                   liveness
//	GET    /metrics                   Prometheus metrics
//
// # Signals
//
// Request signals are read from the JSON body, or from the "datastar"
// query parameter on GET and DELETE. See ReadSignals.
//
// # Errors
//
// Validation failures are answered with status 200 and a signals patch
// setting the "error" signal. Unknown todo ids on toggle return 404.
// Malformed signals return 400. A write failure ends the response stream;
// the remaining frames are dropped and the failure is logged.
package server
