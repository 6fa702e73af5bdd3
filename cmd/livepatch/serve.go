package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"

	"github.com/vango-dev/livepatch/internal/config"
	"github.com/vango-dev/livepatch/pkg/server"
)

type serveFlags struct {
	configPath string
	addr       string
	logLevel   string
	logFormat  string
	interval   time.Duration
	ticks      int
	seed       []string
	noMetrics  bool
	tracing    bool
}

func (f *serveFlags) register(flags *pflag.FlagSet) {
	flags.StringVarP(&f.configPath, "config", "c", "", "Config file (default ./"+config.ConfigFileName+" if present)")
	flags.StringVarP(&f.addr, "addr", "a", "", "Address to listen on")
	flags.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&f.logFormat, "log-format", "", "Log format: auto, text, json")
	flags.DurationVar(&f.interval, "interval", 0, "Time stream tick interval")
	flags.IntVar(&f.ticks, "ticks", 0, "Time stream tick count")
	flags.StringArrayVar(&f.seed, "seed", nil, "Todo item created at startup (repeatable)")
	flags.BoolVar(&f.noMetrics, "no-metrics", false, "Disable Prometheus metrics")
	flags.BoolVar(&f.tracing, "tracing", false, "Trace requests with the global OpenTelemetry provider")
}

func serveCmd() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the demo server",
		Long: `Start the demo server.

Settings come from livepatch.yaml in the working directory, or the file
given with --config, and are overridden by flags.

Examples:
  livepatch serve
  livepatch serve --addr=:3000 --log-level=debug
  livepatch serve --seed="Learn Go" --seed="Write tests"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(cmd, &f)
			if err != nil {
				return err
			}
			logger, err := newLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			if p := cfg.Path(); p != "" {
				logger.Info("loaded config", "path", p)
			}
			success("Serving on %s", cfg.Server.Address)
			info("Todos:   %s/todos", displayURL(cfg.Server.Address))
			info("Counter: %s/counter", displayURL(cfg.Server.Address))

			return server.New(serverConfig(cfg, logger)).Run()
		},
	}

	f.register(cmd.Flags())

	return cmd
}

// loadServeConfig loads the config file and applies the flags that were
// set on the command line.
func loadServeConfig(cmd *cobra.Command, f *serveFlags) (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadOptional(f.configPath, wd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Address = f.addr
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if flags.Changed("interval") {
		cfg.TimeStream.Interval = config.Duration(f.interval)
	}
	if flags.Changed("ticks") {
		cfg.TimeStream.Ticks = f.ticks
	}
	if flags.Changed("seed") {
		cfg.Todos.Seed = f.seed
	}
	if f.noMetrics {
		cfg.Metrics.Enabled = false
	}
	if f.tracing {
		cfg.Tracing.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serverConfig maps the file configuration onto the server's.
func serverConfig(cfg *config.Config, logger *slog.Logger) *server.Config {
	sc := &server.Config{
		Address:           cfg.Server.Address,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout.Std(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout.Std(),
		MaxBodyBytes:      cfg.Server.MaxBodyBytes,
		TimeStream: server.TimeStreamConfig{
			Interval: cfg.TimeStream.Interval.Std(),
			Ticks:    cfg.TimeStream.Ticks,
		},
		CounterInitial:   cfg.Counter.Initial,
		SeedTodos:        cfg.Todos.Seed,
		Logger:           logger,
		DisableMetrics:   !cfg.Metrics.Enabled,
		MetricsPath:      cfg.Metrics.Path,
		MetricsNamespace: cfg.Metrics.Namespace,
	}
	if b := cfg.Counter.Bounds; b != nil {
		sc.CounterBounds = &server.CounterBounds{Min: b.Min, Max: b.Max}
	}
	if cfg.Tracing.Enabled {
		sc.TracerProvider = otel.GetTracerProvider()
	}
	return sc
}

// newLogger builds the process logger. The auto format writes text to a
// terminal and JSON otherwise.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if format == config.LogFormatAuto || format == "" {
		format = config.LogFormatJSON
		if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			format = config.LogFormatText
		}
	}
	if format == config.LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}

// displayURL turns a listen address into a browsable URL.
func displayURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
