// Package middleware provides observability middleware for livepatch servers.
//
// Every middleware has the standard func(http.Handler) http.Handler shape
// and is meant to be installed with chi's Router.Use, so the matched route
// pattern is available once the wrapped handler returns.
//
// # OpenTelemetry Middleware
//
// OpenTelemetry starts a server span per request and names it after the
// matched route:
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
//
// # Prometheus Metrics
//
// NewMetrics registers request and stream collectors on a registry:
//   - livepatch_requests_total
//   - livepatch_request_duration_seconds
//   - livepatch_frames_sent_total
//   - livepatch_stream_write_errors_total
//   - livepatch_active_streams
//
//	reg := prometheus.NewRegistry()
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	r.Use(m.Handler)
//	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Frame counters are fed by passing m.ObserveFrame to protocol.WithObserver.
//
// # Request Logging
//
// RequestLogger writes one structured slog record per request.
package middleware
