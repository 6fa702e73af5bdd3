package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/vango-dev/livepatch/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "livepatch.yaml"

	// DefaultAddress is the default listen address.
	DefaultAddress = ":8080"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"
)

// Log formats.
const (
	LogFormatAuto = "auto"
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Duration is a time.Duration written as a string such as "500ms".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"'`)
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the complete livepatch.yaml configuration.
type Config struct {
	// Server contains listener settings.
	Server ServerConfig `yaml:"server"`

	// Log contains logging settings.
	Log LogConfig `yaml:"log"`

	// TimeStream configures the periodic clock stream.
	TimeStream TimeStreamConfig `yaml:"time_stream"`

	// Counter configures the counter demo.
	Counter CounterConfig `yaml:"counter"`

	// Todos configures the todo demo.
	Todos TodosConfig `yaml:"todos"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing configures OpenTelemetry tracing.
	Tracing TracingConfig `yaml:"tracing"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains listener settings.
type ServerConfig struct {
	// Address is the address to listen on (e.g., ":8080").
	Address string `yaml:"address"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`

	// ReadHeaderTimeout bounds reading request headers.
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`

	// MaxBodyBytes limits request bodies carrying signals.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is auto, text or json. Auto picks text on a terminal.
	Format string `yaml:"format"`
}

// TimeStreamConfig configures the periodic clock stream.
type TimeStreamConfig struct {
	// Interval is the time between ticks.
	Interval Duration `yaml:"interval"`

	// Ticks is the number of frames sent before the stream ends.
	Ticks int `yaml:"ticks"`
}

// CounterConfig configures the counter demo.
type CounterConfig struct {
	// Initial is the starting count.
	Initial int `yaml:"initial"`

	// Bounds clamps the count when set.
	Bounds *BoundsConfig `yaml:"bounds,omitempty"`
}

// BoundsConfig is an inclusive integer range.
type BoundsConfig struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// TodosConfig configures the todo demo.
type TodosConfig struct {
	// Seed lists item texts created at startup.
	Seed []string `yaml:"seed,omitempty"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Address:           DefaultAddress,
			ShutdownTimeout:   Duration(10 * time.Second),
			ReadHeaderTimeout: Duration(5 * time.Second),
			MaxBodyBytes:      1 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatAuto,
		},
		TimeStream: TimeStreamConfig{
			Interval: Duration(time.Second),
			Ticks:    10,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      DefaultMetricsPath,
			Namespace: "livepatch",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for livepatch.yaml in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path. Keys missing
// from the file keep their defaults; unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeConfigRead).
			WithDetail("Could not read " + path + ".").
			Wrap(err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes YAML configuration over the defaults and validates it.
// A document with no content, such as an empty or comment-only file,
// yields the defaults.
func Parse(data []byte) (*Config, error) {
	if isEmptyDocument(data) {
		return New(), nil
	}
	cfg := New()
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField()); err != nil {
		return nil, errors.New(errors.CodeConfigParse).Wrap(err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// isEmptyDocument reports whether data decodes to a null document.
func isEmptyDocument(data []byte) bool {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return false
	}
	return v == nil
}

// LoadOptional loads path when it is set, or the file in dir when one
// exists, and falls back to defaults otherwise.
func LoadOptional(path, dir string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}
	if Exists(dir) {
		return Load(dir)
	}
	return New(), nil
}

// Exists reports whether dir contains a config file.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return errors.New(errors.CodeConfigParse).Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New(errors.CodeConfigRead).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for zeroed fields.
func (c *Config) applyDefaults() {
	d := New()
	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = d.Metrics.Path
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	invalid := func(field, format string, args ...any) error {
		return errors.New(errors.CodeConfigInvalid).WithField(field).WithDetailf(format, args...)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return invalid("server.shutdown_timeout", "must be positive, got %s", c.Server.ShutdownTimeout.Std())
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		return invalid("server.read_header_timeout", "must be positive, got %s", c.Server.ReadHeaderTimeout.Std())
	}
	if c.Server.MaxBodyBytes <= 0 {
		return invalid("server.max_body_bytes", "must be positive, got %d", c.Server.MaxBodyBytes)
	}
	if c.TimeStream.Interval <= 0 {
		return invalid("time_stream.interval", "must be positive, got %s", c.TimeStream.Interval.Std())
	}
	if c.TimeStream.Ticks < 1 {
		return invalid("time_stream.ticks", "must be at least 1, got %d", c.TimeStream.Ticks)
	}
	if b := c.Counter.Bounds; b != nil && b.Min > b.Max {
		return invalid("counter.bounds", "min %d is greater than max %d", b.Min, b.Max)
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path", "must start with /, got %q", c.Metrics.Path)
	}
	switch c.Log.Format {
	case LogFormatAuto, LogFormatText, LogFormatJSON:
	default:
		return invalid("log.format", "must be auto, text or json, got %q", c.Log.Format)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, errors.New(errors.CodeConfigLogLevel).WithField("log.level").WithDetailf("got %q", s)
}
