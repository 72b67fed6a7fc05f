package appsync

import (
	"context"
	"errors"

	"github.com/jamalishaq/resolve_envelope/internal/domain"
	"github.com/jamalishaq/resolve_envelope/internal/pipeline"
	"github.com/jamalishaq/resolve_envelope/internal/usecase"
)

// MiddlewareName identifies the adapter's hooks in the pipeline.
const MiddlewareName = "appsync"

// Option configures an Adapter.
type Option func(*Adapter)

// WithArgsValidator runs validate on each request's arguments before the handler.
func WithArgsValidator(validate usecase.ArgsValidator) Option {
	return func(a *Adapter) {
		a.validate = validate
	}
}

// WithFailurePolicy selects how generic failures are treated, for single and batch alike.
func WithFailurePolicy(policy FailurePolicy) Option {
	return func(a *Adapter) {
		a.normalizer.Policy = policy
	}
}

// WithOpaqueErrorType sets the errorType reported on masked failures.
func WithOpaqueErrorType(errorType string) Option {
	return func(a *Adapter) {
		a.normalizer.OpaqueErrorType = errorType
	}
}

// WithParallelBatch normalizes batch elements concurrently. Output order is unchanged.
func WithParallelBatch(enabled bool) Option {
	return func(a *Adapter) {
		a.parallel = enabled
	}
}

// WithLogger logs rejected batches, mismatches and masked failures.
func WithLogger(logger usecase.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithMetrics records emitted envelopes, mismatches and validation rejections.
func WithMetrics(metrics usecase.Metrics) Option {
	return func(a *Adapter) {
		a.metrics = metrics
	}
}

// Adapter holds the before, after and onError hooks. It keeps no per-invocation
// state; everything travels in the pipeline.Invocation record.
type Adapter struct {
	validate   usecase.ArgsValidator
	normalizer Normalizer
	parallel   bool
	logger     usecase.Logger
	metrics    usecase.Metrics
}

// New creates an adapter. By default generic failures propagate.
func New(opts ...Option) *Adapter {
	a := &Adapter{}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Middleware returns the adapter's hooks for registration on a pipeline.
func (a *Adapter) Middleware() pipeline.Middleware {
	return pipeline.Middleware{
		Name:    MiddlewareName,
		Before:  a.Before,
		After:   a.After,
		OnError: a.OnError,
	}
}

// batchPlan records how Before mapped the triggering batch onto the forwarded one.
type batchPlan struct {
	total     int
	forwarded int
	rejected  map[int]Envelope
}

type batchPlanKey struct{}

// planFor returns the recorded plan, or a pass-through plan over the trigger
// when Before did not run.
func planFor(inv pipeline.Invocation) batchPlan {
	if plan, ok := inv.Value(batchPlanKey{}).(batchPlan); ok {
		return plan
	}
	n := inv.Trigger().Len()
	return batchPlan{total: n, forwarded: n}
}

// Before validates arguments. A rejected single request fails with a
// validation fault. Rejected batch elements are answered up front and removed
// from the batch forwarded to the handler; when none remain the handler is skipped.
// A batch event whose length no longer matches the trigger is a shape mismatch.
func (a *Adapter) Before(ctx context.Context, inv pipeline.Invocation) (pipeline.Invocation, error) {
	event := inv.Event()
	if !inv.Trigger().IsBatch() {
		if a.validate == nil {
			return inv, nil
		}
		if result := a.validate(ctx, event.Single().Arguments); !passed(result) {
			a.recordRejection(false)
			return inv, domain.Validation(result)
		}
		return inv, nil
	}

	total := inv.Trigger().Len()
	if !event.IsBatch() || event.Len() != total {
		return a.mismatch(inv, total, event.Len())
	}

	reqs := event.Requests()
	plan := batchPlan{total: total, forwarded: total}
	if a.validate == nil {
		return inv.WithValue(batchPlanKey{}, plan), nil
	}

	plan.rejected = make(map[int]Envelope)
	forwarded := make([]usecase.Request, 0, len(reqs))
	for i, req := range reqs {
		if result := a.validate(ctx, req.Arguments); !passed(result) {
			a.recordRejection(true)
			plan.rejected[i] = FaultEnvelope(domain.Validation(result))
			continue
		}
		forwarded = append(forwarded, req)
	}
	plan.forwarded = len(forwarded)
	inv = inv.WithValue(batchPlanKey{}, plan)
	if len(plan.rejected) == 0 {
		return inv, nil
	}

	logInfo(a.logger, "batch arguments rejected",
		"invocation_id", inv.ID(),
		"rejected", len(plan.rejected),
		"forwarded", len(forwarded),
	)
	inv = inv.WithEvent(usecase.BatchEvent(forwarded...))
	if len(forwarded) == 0 {
		inv = inv.WithResponse([]any{})
	}
	return inv, nil
}

// After normalizes a successful result. Batch results must be a sequence with
// one entry per request this adapter forwarded, otherwise domain.ErrShapeMismatch is returned.
func (a *Adapter) After(_ context.Context, inv pipeline.Invocation) (pipeline.Invocation, error) {
	if !inv.Trigger().IsBatch() {
		env, err := a.normalizer.Normalize(inv.Response())
		if err != nil {
			return inv, err
		}
		a.recordEnvelopes(env)
		return inv.Normalize(env), nil
	}

	plan := planFor(inv)
	items, ok := sequence(inv.Response())
	if !ok {
		return a.mismatch(inv, plan.forwarded, -1)
	}
	if len(items) != plan.forwarded {
		return a.mismatch(inv, plan.forwarded, len(items))
	}

	normalized, err := a.normalizeAll(items)
	if err != nil {
		return inv, err
	}
	envelopes := merge(plan, normalized)
	if len(envelopes) != inv.Trigger().Len() {
		return a.mismatch(inv, inv.Trigger().Len(), len(envelopes))
	}
	a.recordEnvelopes(envelopes...)
	return inv.Normalize(envelopes), nil
}

// OnError turns domain faults, and generic failures under MaskFailures, into
// a normalized response. Shape mismatches are never handled.
func (a *Adapter) OnError(_ context.Context, inv pipeline.Invocation) (pipeline.Invocation, bool) {
	err := inv.Err()
	if err == nil || errors.Is(err, domain.ErrShapeMismatch) {
		return inv, false
	}

	env, normErr := a.normalizer.Normalize(err)
	if normErr != nil {
		return inv, false
	}
	if env.Shape() == ShapeFailure {
		logError(a.logger, "generic failure masked",
			"invocation_id", inv.ID(),
			"error", err,
		)
	}

	if !inv.Trigger().IsBatch() {
		a.recordEnvelopes(env)
		return inv.Normalize(env), true
	}

	plan := planFor(inv)
	envelopes := make([]Envelope, plan.total)
	for i := range envelopes {
		if pre, ok := plan.rejected[i]; ok {
			envelopes[i] = pre
			continue
		}
		envelopes[i] = env
	}
	a.recordEnvelopes(envelopes...)
	return inv.Normalize(envelopes), true
}

// mismatch records a batch shape mismatch and fails the hook with domain.ErrShapeMismatch.
func (a *Adapter) mismatch(inv pipeline.Invocation, expected, got int) (pipeline.Invocation, error) {
	if a.metrics != nil {
		a.metrics.ShapeMismatch(expected, got)
	}
	logError(a.logger, "batch response shape mismatch",
		"invocation_id", inv.ID(),
		"expected", expected,
		"got", got,
	)
	return inv, domain.ErrShapeMismatch
}

// passed reports whether a validator result is the explicit pass signal.
func passed(result any) bool {
	ok, isBool := result.(bool)
	return isBool && ok
}

// merge interleaves normalized results with envelopes of rejected positions.
func merge(plan batchPlan, normalized []Envelope) []Envelope {
	if len(plan.rejected) == 0 {
		return normalized
	}

	merged := make([]Envelope, plan.total)
	next := 0
	for i := range merged {
		if pre, isRejected := plan.rejected[i]; isRejected {
			merged[i] = pre
			continue
		}
		merged[i] = normalized[next]
		next++
	}
	return merged
}

func (a *Adapter) recordEnvelopes(envelopes ...Envelope) {
	if a.metrics == nil {
		return
	}
	for _, env := range envelopes {
		a.metrics.EnvelopeEmitted(env.Shape().String())
	}
}

func (a *Adapter) recordRejection(batch bool) {
	if a.metrics == nil {
		return
	}
	a.metrics.ValidationRejected(batch)
}

// logInfo logs an info event when a logger is provided.
func logInfo(logger usecase.Logger, msg string, keysAndValues ...any) {
	if logger == nil {
		return
	}
	logger.Info(msg, keysAndValues...)
}

// logError logs an error event when a logger is provided.
func logError(logger usecase.Logger, msg string, keysAndValues ...any) {
	if logger == nil {
		return
	}
	logger.Error(msg, keysAndValues...)
}
