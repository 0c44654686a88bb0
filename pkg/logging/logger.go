package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Prefix marks every plain-text log line written by emotepack.
const Prefix = "🎭 "

// NewLogger creates a new hclog logger with standard settings.
// A level of the form "json:<level>" switches to JSON output, as does EMOTEPACK_JSON_LOG=1.
func NewLogger(name string, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	jsonFormat := os.Getenv("EMOTEPACK_JSON_LOG") == "1"
	if strings.HasPrefix(level, "json") {
		jsonFormat = true
		if _, rest, ok := strings.Cut(level, ":"); ok && rest != "" {
			level = rest
		} else {
			level = "info"
		}
	}

	if !jsonFormat {
		output = NewPrefixWriter(Prefix, output)
	}

	opts := &hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	}

	return hclog.New(opts)
}

// ResolveLevel picks the log level and reports where it came from.
// Priority: CLI flag, EMOTEPACK_LOG_LEVEL, then "warn".
func ResolveLevel(cliLevel string) (level, source string) {
	if cliLevel != "" {
		return cliLevel, "CLI --log-level"
	}
	if env := os.Getenv("EMOTEPACK_LOG_LEVEL"); env != "" {
		return env, "EMOTEPACK_LOG_LEVEL"
	}
	return "warn", "default" // quiet unless asked
}

// NewTestLogger returns a trace-level logger for tests.
func NewTestLogger(name string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.Trace,
	})
}
