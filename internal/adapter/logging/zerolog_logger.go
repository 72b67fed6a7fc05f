// Package logging provides concrete logger adapters.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jamalishaq/resolve_envelope/internal/usecase"
)

// Options configures the base zerolog logger.
type Options struct {
	App     string
	Level   string
	Console bool
}

// NewZerolog builds a timestamped zerolog logger tagged with the app name.
// Unknown levels fall back to info.
func NewZerolog(out io.Writer, opts Options) zerolog.Logger {
	if opts.Console {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if opts.App != "" {
		ctx = ctx.Str("app", opts.App)
	}
	return ctx.Logger()
}

// zerologLogger adapts zerolog.Logger to the usecase.Logger port.
type zerologLogger struct {
	base zerolog.Logger
}

// NewZerologLogger creates a logger adapter backed by zerolog.
func NewZerologLogger(base zerolog.Logger) usecase.Logger {
	return &zerologLogger{base: base}
}

// Info logs informational events.
func (l *zerologLogger) Info(msg string, keysAndValues ...any) {
	if l == nil {
		return
	}
	l.base.Info().Fields(fieldMap(keysAndValues...)).Msg(msg)
}

// Error logs error events.
func (l *zerologLogger) Error(msg string, keysAndValues ...any) {
	if l == nil {
		return
	}
	l.base.Error().Fields(fieldMap(keysAndValues...)).Msg(msg)
}

// fieldMap turns key/value pairs into zerolog fields.
// A trailing key without a value is logged as "<missing>".
func fieldMap(keysAndValues ...any) map[string]any {
	fields := make(map[string]any, len(keysAndValues)/2+1)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := sanitizeKey(fmt.Sprint(keysAndValues[i]), i/2)
		value := any("<missing>")
		if i+1 < len(keysAndValues) {
			value = keysAndValues[i+1]
		}
		if err, ok := value.(error); ok {
			value = err.Error()
		}
		fields[key] = value
	}
	return fields
}

// sanitizeKey normalizes logging keys and applies deterministic fallbacks.
func sanitizeKey(key string, index int) string {
	normalized := strings.TrimSpace(strings.ToLower(strings.ReplaceAll(key, " ", "_")))
	if normalized == "" {
		return fmt.Sprintf("field_%d", index)
	}
	return normalized
}
