package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// TimeStreamConfig configures the periodic clock stream.
type TimeStreamConfig struct {
	// Interval is the time between ticks.
	// Default: 1 second.
	Interval time.Duration

	// Ticks is the number of frames sent before the stream ends.
	// Default: 10.
	Ticks int
}

// CounterBounds clamps the counter to an inclusive range.
type CounterBounds struct {
	Min int
	Max int
}

// Config holds configuration for the demo server.
type Config struct {
	// Address is the address to listen on (e.g., ":8080" or "localhost:3000").
	// Default: ":8080".
	Address string

	// Server lifecycle

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout bounds reading request headers.
	// Default: 5 seconds.
	ReadHeaderTimeout time.Duration

	// Limits

	// MaxBodyBytes limits request bodies carrying signals.
	// Default: 1MB.
	MaxBodyBytes int64

	// Demo state

	// TimeStream configures GET /api/time-stream.
	TimeStream TimeStreamConfig

	// CounterInitial is the starting count.
	CounterInitial int

	// CounterBounds clamps the count when set.
	CounterBounds *CounterBounds

	// SeedTodos lists item texts created at startup.
	SeedTodos []string

	// WebSocket

	// ReadBufferSize is the WebSocket read buffer size.
	// Default: 4096.
	ReadBufferSize int

	// WriteBufferSize is the WebSocket write buffer size.
	// Default: 4096.
	WriteBufferSize int

	// CheckOrigin is called to validate the WebSocket request origin.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// Observability

	// Logger is the server logger.
	// Default: slog.Default() with component=server.
	Logger *slog.Logger

	// DisableMetrics turns off Prometheus collection and the metrics route.
	DisableMetrics bool

	// MetricsPath is where metrics are served.
	// Default: "/metrics".
	MetricsPath string

	// MetricsNamespace prefixes every metric name.
	// Default: "livepatch".
	MetricsNamespace string

	// Registry receives the Prometheus collectors.
	// Default: a new registry owned by the server.
	Registry *prometheus.Registry

	// TracerProvider enables request tracing when set.
	TracerProvider trace.TracerProvider
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxBodyBytes:      1 << 20,
		TimeStream: TimeStreamConfig{
			Interval: time.Second,
			Ticks:    10,
		},
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
		CheckOrigin:      SameOriginCheck,
		MetricsPath:      "/metrics",
		MetricsNamespace: "livepatch",
	}
}

// withDefaults returns a copy of c with unset fields filled in.
func (c *Config) withDefaults() *Config {
	defaults := DefaultConfig()
	if c == nil {
		return defaults
	}
	out := *c
	if out.Address == "" {
		out.Address = defaults.Address
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if out.MaxBodyBytes == 0 {
		out.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if out.TimeStream.Interval == 0 {
		out.TimeStream.Interval = defaults.TimeStream.Interval
	}
	if out.TimeStream.Ticks == 0 {
		out.TimeStream.Ticks = defaults.TimeStream.Ticks
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = defaults.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = defaults.WriteBufferSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = defaults.CheckOrigin
	}
	if out.MetricsPath == "" {
		out.MetricsPath = defaults.MetricsPath
	}
	if out.MetricsNamespace == "" {
		out.MetricsNamespace = defaults.MetricsNamespace
	}
	return &out
}

// SameOriginCheck validates that the WebSocket request origin matches the host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// No Origin header (e.g., same-origin request or curl)
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := r.Host
	if host == "" {
		return false
	}

	return originURL.Host == host
}
