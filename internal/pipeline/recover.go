package pipeline

import (
	"fmt"
	"runtime/debug"

	"github.com/jamalishaq/resolve_envelope/internal/usecase"
)

// PanicError wraps a recovered panic value that was not itself an error.
type PanicError struct {
	Value any
	Stack []byte
}

// Error describes the panic value.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// recovered logs a recovered panic and turns it into an error.
// Panicking with an error value is the Go form of throwing it, so the value passes through.
func (p *Pipeline) recovered(inv Invocation, where string, value any) error {
	logError(p.logger, "panic recovered",
		"invocation_id", inv.ID(),
		"where", where,
		"panic", value,
	)
	if err, ok := value.(error); ok {
		return err
	}
	return &PanicError{Value: value, Stack: debug.Stack()}
}

// logError logs an error event when a logger is provided.
func logError(logger usecase.Logger, msg string, keysAndValues ...any) {
	if logger == nil {
		return
	}
	logger.Error(msg, keysAndValues...)
}
