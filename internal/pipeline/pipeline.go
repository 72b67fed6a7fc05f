// Package pipeline runs a resolver handler between before, after and onError
// lifecycle hooks, in the manner of a middy-style middleware engine.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jamalishaq/resolve_envelope/internal/usecase"
)

const tracerName = "github.com/jamalishaq/resolve_envelope/internal/pipeline"

// Invocation outcomes reported to metrics.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeHandled   = "handled"
	OutcomeFailed    = "failed"
)

// ErrNilHandler is returned when a pipeline has no handler to invoke.
var ErrNilHandler = errors.New("pipeline: nil handler")

// Hook runs before or after the handler and returns the next invocation record.
type Hook func(ctx context.Context, inv Invocation) (Invocation, error)

// ErrorHook runs when the invocation fails. Returning true marks the failure
// handled: the pipeline stops propagating it and returns inv's response.
type ErrorHook func(ctx context.Context, inv Invocation) (Invocation, bool)

// Middleware groups the optional lifecycle hooks of one concern.
type Middleware struct {
	Name    string
	Before  Hook
	After   Hook
	OnError ErrorHook
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger logs recovered panics and unhandled failures.
func WithLogger(logger usecase.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics records invocation outcomes and durations.
func WithMetrics(metrics usecase.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = metrics
	}
}

// WithTracer traces each run. The global otel tracer is used otherwise.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// Pipeline wraps a handler with registered middleware.
type Pipeline struct {
	handler usecase.Handler
	logger  usecase.Logger
	metrics usecase.Metrics
	tracer  trace.Tracer

	mu          sync.RWMutex
	middlewares []Middleware
}

// New creates a pipeline around handler.
func New(handler usecase.Handler, opts ...Option) *Pipeline {
	p := &Pipeline{
		handler: handler,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Use appends middleware in registration order. Before hooks run in that
// order; after and onError hooks run in reverse.
func (p *Pipeline) Use(middlewares ...Middleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middlewares = append(p.middlewares, middlewares...)
}

// Handle runs the pipeline and returns only the final response.
func (p *Pipeline) Handle(ctx context.Context, event usecase.Event) (any, error) {
	inv, err := p.Run(ctx, event)
	if err != nil {
		return nil, err
	}
	return inv.Response(), nil
}

// Run executes one invocation and returns its final record.
// A non-nil error means no hook handled the failure and no response is set.
func (p *Pipeline) Run(ctx context.Context, event usecase.Event) (Invocation, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.RLock()
	middlewares := make([]Middleware, len(p.middlewares))
	copy(middlewares, p.middlewares)
	p.mu.RUnlock()

	inv := NewInvocation(event)
	ctx, span := p.tracer.Start(ctx, "resolver.invoke",
		trace.WithAttributes(
			attribute.String("resolver.invocation_id", inv.ID()),
			attribute.Bool("resolver.batch", event.IsBatch()),
			attribute.Int("resolver.batch_size", event.Len()),
		),
	)
	defer span.End()

	startedAt := time.Now()
	inv, handled, err := p.run(ctx, inv, middlewares)
	duration := time.Since(startedAt)

	outcome := OutcomeSucceeded
	switch {
	case err != nil:
		outcome = OutcomeFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logError(p.logger, "resolver invocation failed",
			"invocation_id", inv.ID(),
			"batch", event.IsBatch(),
			"error", err,
		)
	case handled:
		outcome = OutcomeHandled
	}
	span.SetAttributes(
		attribute.String("resolver.outcome", outcome),
		attribute.String("resolver.state", inv.State().String()),
	)

	if p.metrics != nil {
		p.metrics.InvocationObserved(outcome, event.IsBatch(), duration)
	}
	return inv, err
}

// run walks the lifecycle: before hooks, handler, after hooks, then onError on failure.
func (p *Pipeline) run(ctx context.Context, inv Invocation, middlewares []Middleware) (Invocation, bool, error) {
	inv = inv.WithState(StateInvoking)

	for _, mw := range middlewares {
		if mw.Before == nil {
			continue
		}
		next, err := p.callHook(ctx, inv, mw.Before, mw.Name, "before")
		if err != nil {
			return p.fail(ctx, inv.WithError(err), middlewares)
		}
		inv = next
		if inv.HasResponse() {
			break
		}
	}

	if !inv.HasResponse() {
		response, err := p.invoke(ctx, inv)
		if err != nil {
			return p.fail(ctx, inv.WithError(err), middlewares)
		}
		inv = inv.WithResponse(response)
	}
	inv = inv.WithState(StateSucceeded)

	for i := len(middlewares) - 1; i >= 0; i-- {
		mw := middlewares[i]
		if mw.After == nil {
			continue
		}
		next, err := p.callHook(ctx, inv, mw.After, mw.Name, "after")
		if err != nil {
			return p.fail(ctx, inv.WithError(err), middlewares)
		}
		inv = next
	}
	return inv, false, nil
}

// fail offers the failure to onError hooks, outermost last.
func (p *Pipeline) fail(ctx context.Context, inv Invocation, middlewares []Middleware) (Invocation, bool, error) {
	cause := inv.Err()
	inv = inv.WithState(StateFaulted)

	for i := len(middlewares) - 1; i >= 0; i-- {
		mw := middlewares[i]
		if mw.OnError == nil {
			continue
		}
		next, handled := p.callErrorHook(ctx, inv, mw.OnError, mw.Name)
		inv = next
		if handled {
			return inv.WithError(nil), true, nil
		}
		if inv.Err() == nil {
			inv = inv.WithError(cause)
		}
		cause = inv.Err()
	}
	return inv.WithoutResponse(), false, cause
}

// invoke calls the handler with the forwarded event, converting panics to errors.
func (p *Pipeline) invoke(ctx context.Context, inv Invocation) (response any, err error) {
	if p.handler == nil {
		return nil, ErrNilHandler
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			err = p.recovered(inv, "handler", recovered)
		}
	}()
	return p.handler.Handle(ctx, inv.Event())
}

// callHook runs a before/after hook, converting panics to errors.
func (p *Pipeline) callHook(ctx context.Context, inv Invocation, hook Hook, name, stage string) (next Invocation, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			next = inv
			err = p.recovered(inv, stage+":"+name, recovered)
		}
	}()
	return hook(ctx, inv)
}

// callErrorHook runs an onError hook; a panicking hook leaves the failure unhandled.
func (p *Pipeline) callErrorHook(ctx context.Context, inv Invocation, hook ErrorHook, name string) (next Invocation, handled bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			next = inv.WithError(p.recovered(inv, "onError:"+name, recovered))
			handled = false
		}
	}()
	return hook(ctx, inv)
}
