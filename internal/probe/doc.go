// Package probe runs scripted scenarios against a running livepatch server.
//
// A Client plays the part of the browser: it sends its signal store with
// every request, decodes the event-stream answer and merges every signals
// frame back into the store. Suites are ordered checks over one demo;
// later checks rely on state left by earlier ones.
//
//	reports, err := probe.RunAll(ctx, "http://localhost:8080", probe.Options{})
//
// RunAll returns a P002 error when the server cannot be reached and a P001
// error when any check failed.
package probe
