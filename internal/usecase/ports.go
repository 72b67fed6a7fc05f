// Package usecase contains resolver request models and ports (interfaces).
// Adapters depend on these interfaces, not concrete implementations.
package usecase

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Logger is a port for logging. Adapters implement this interface.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Metrics is a port for resolver instrumentation.
type Metrics interface {
	EnvelopeEmitted(shape string)
	ShapeMismatch(expected, got int)
	ValidationRejected(batch bool)
	InvocationObserved(outcome string, batch bool, duration time.Duration)
}

// ArgsValidator inspects request arguments before the handler runs.
// Only the boolean true accepts the arguments; any other result rejects them
// and is reported to the caller as diagnostic info.
type ArgsValidator func(ctx context.Context, args map[string]any) any

// RequiredArgs returns a validator that rejects arguments missing any of names.
// The rejection detail maps each missing name to a short reason.
func RequiredArgs(names ...string) ArgsValidator {
	required := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	return func(_ context.Context, args map[string]any) any {
		missing := make(map[string]string)
		for _, name := range required {
			value, ok := args[name]
			if !ok || value == nil {
				missing[name] = "is required"
			}
		}
		if len(missing) == 0 {
			return true
		}
		return missing
	}
}
