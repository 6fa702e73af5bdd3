// Package errors provides structured, actionable errors for the livepatch
// command line.
//
// Each error has a stable code that maps to a short message, an optional
// explanation and a hint:
//
//   - S001-S099: server startup and shutdown
//   - C001-C099: configuration
//   - P001-P099: the scenario probe
//
// # Usage
//
//	err := errors.New(errors.CodeListen).
//	    WithField("addr").
//	    Wrap(listenErr)
//
//	errors.PrintError(os.Stderr, err)
//	// ERROR S001: Failed to start server
//	//
//	//   field: addr
//	//   ...
//	//   Hint: Pick a free port with --addr or stop the other process.
//
// Only the CLI formats these errors. Library packages wrap them with %w so
// callers can test for a code with HasCode.
package errors
