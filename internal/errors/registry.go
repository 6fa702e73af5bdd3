package errors

import "sort"

// Registered error codes.
const (
	CodeListen         = "S001"
	CodeShutdown       = "S002"
	CodeConfigRead     = "C001"
	CodeConfigParse    = "C002"
	CodeConfigInvalid  = "C003"
	CodeConfigLogLevel = "C004"
	CodeProbeFailed    = "P001"
	CodeProbeConnect   = "P002"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Startup (S001-S099)

	CodeListen: {
		Category:   CategoryStartup,
		Message:    "Failed to start server",
		Detail:     "The server could not bind its listen address. Another process may already be using the port.",
		Suggestion: "Pick a free port with --addr or stop the other process.",
	},
	CodeShutdown: {
		Category: CategoryStartup,
		Message:  "Server shutdown failed",
		Detail:   "Open connections did not finish before the shutdown timeout.",
	},

	// Config (C001-C099)

	CodeConfigRead: {
		Category:   CategoryConfig,
		Message:    "Cannot read config file",
		Suggestion: "Check the path passed to --config.",
	},
	CodeConfigParse: {
		Category:   CategoryConfig,
		Message:    "Invalid config file",
		Detail:     "The config file is not valid YAML or has a value of the wrong type.",
		Suggestion: "Durations are strings such as \"500ms\" or \"1s\".",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid config value",
	},
	CodeConfigLogLevel: {
		Category:   CategoryConfig,
		Message:    "Unknown log level",
		Suggestion: "Use one of debug, info, warn, error.",
	},

	// Probe (P001-P099)

	CodeProbeFailed: {
		Category: CategoryProbe,
		Message:  "Scenario checks failed",
	},
	CodeProbeConnect: {
		Category:   CategoryProbe,
		Message:    "Server unreachable",
		Suggestion: "Start it with `livepatch serve` and check --base-url.",
	},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
