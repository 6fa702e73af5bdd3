package probe

import (
	"context"
	"fmt"
	"time"

	lperrors "github.com/vango-dev/livepatch/internal/errors"
)

// Check is one named step of a scenario. Checks in a suite run in order and
// may depend on state left by earlier ones.
type Check struct {
	Name string
	Run  func(ctx context.Context, c *Client) error
}

// Suite is an ordered list of checks against one demo.
type Suite struct {
	Name   string
	Checks []Check
}

// Result is the outcome of one check.
type Result struct {
	Name     string
	Err      error
	Duration time.Duration
}

// Passed reports whether the check succeeded.
func (r Result) Passed() bool {
	return r.Err == nil
}

// Report collects the results of one suite.
type Report struct {
	Suite   string
	Results []Result
}

// Failed returns the number of failed checks.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed() {
			n++
		}
	}
	return n
}

// Passed reports whether every check succeeded.
func (r *Report) Passed() bool {
	return r.Failed() == 0
}

// Run executes every check of the suite in order. A failing check does not
// stop the ones after it.
func Run(ctx context.Context, c *Client, s Suite) *Report {
	return run(ctx, c, s, nil)
}

func run(ctx context.Context, c *Client, s Suite, notify func(string, Result)) *Report {
	report := &Report{Suite: s.Name}
	for _, check := range s.Checks {
		start := time.Now()
		err := check.Run(ctx, c)
		res := Result{Name: check.Name, Err: err, Duration: time.Since(start)}
		report.Results = append(report.Results, res)
		if notify != nil {
			notify(s.Name, res)
		}
	}
	return report
}

// Options configures RunAll.
type Options struct {
	// Suites lists the suites to run. Default: todo and counter.
	Suites []string

	// WebSocket also exercises the WebSocket time stream.
	WebSocket bool

	// Client options.
	ClientOptions []Option

	// OnResult is called after every check.
	OnResult func(suite string, r Result)
}

// RunAll checks that the server is up and runs the selected suites, each
// with its own client. It returns a P002 error when the server cannot be
// reached and a P001 error when any check failed; the reports are returned
// in both cases where available.
func RunAll(ctx context.Context, baseURL string, opts Options) ([]*Report, error) {
	names := opts.Suites
	if len(names) == 0 {
		names = SuiteNames()
	}

	suites := make([]Suite, 0, len(names))
	for _, name := range names {
		s, ok := Lookup(name, opts.WebSocket)
		if !ok {
			return nil, lperrors.New(lperrors.CodeProbeFailed).
				WithField("suite").
				WithDetailf("Unknown suite %q.", name).
				WithSuggestion(fmt.Sprintf("Use one of %v.", SuiteNames()))
		}
		suites = append(suites, s)
	}

	health, err := NewClient(baseURL, opts.ClientOptions...)
	if err != nil {
		return nil, err
	}
	if err := health.Health(ctx); err != nil {
		return nil, err
	}

	var (
		reports []*Report
		failed  int
		total   int
	)
	for _, s := range suites {
		c, err := NewClient(baseURL, opts.ClientOptions...)
		if err != nil {
			return reports, err
		}
		report := run(ctx, c, s, opts.OnResult)
		reports = append(reports, report)
		failed += report.Failed()
		total += len(report.Results)
	}

	if failed > 0 {
		return reports, lperrors.New(lperrors.CodeProbeFailed).
			WithDetailf("%d of %d checks failed against %s.", failed, total, baseURL)
	}
	return reports, nil
}

// SuiteNames lists the available suites.
func SuiteNames() []string {
	return []string{"todo", "counter"}
}

// Lookup returns the suite with the given name.
func Lookup(name string, websocket bool) (Suite, bool) {
	switch name {
	case "todo":
		return TodoSuite(), true
	case "counter":
		return CounterSuite(websocket), true
	default:
		return Suite{}, false
	}
}
