// Package metrics provides the Prometheus implementation of usecase.Metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jamalishaq/resolve_envelope/internal/usecase"
)

const namespace = "resolve_envelope"

// Recorder holds resolver collectors registered on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	envelopes   *prometheus.CounterVec
	mismatches  *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	invocations *prometheus.HistogramVec
}

var _ usecase.Metrics = (*Recorder)(nil)

// NewRecorder creates a recorder with a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		envelopes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "envelope",
				Name:      "emitted_total",
				Help:      "Response envelopes emitted, by shape.",
			},
			[]string{"shape"},
		),
		mismatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "shape_mismatch_total",
				Help:      "Batch responses whose type or length disagreed with the request, by reason.",
			},
			[]string{"reason"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "validation",
				Name:      "rejected_total",
				Help:      "Requests rejected by the argument validator.",
			},
			[]string{"batch"},
		),
		invocations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "invocation",
				Name:      "duration_seconds",
				Help:      "Pipeline invocation duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome", "batch"},
		),
	}
	r.registry.MustRegister(r.envelopes, r.mismatches, r.rejections, r.invocations)
	return r
}

// Registry exposes the recorder's registry for gathering or serving.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// EnvelopeEmitted counts one envelope of shape.
func (r *Recorder) EnvelopeEmitted(shape string) {
	r.envelopes.WithLabelValues(shape).Inc()
}

// ShapeMismatch counts a rejected batch response. A negative got means the
// response was not a sequence at all.
func (r *Recorder) ShapeMismatch(expected, got int) {
	r.mismatches.WithLabelValues(mismatchReason(expected, got)).Inc()
}

func mismatchReason(expected, got int) string {
	switch {
	case got < 0:
		return "not_sequence"
	case got < expected:
		return "short"
	default:
		return "long"
	}
}

// ValidationRejected counts a request rejected by the validator.
func (r *Recorder) ValidationRejected(batch bool) {
	r.rejections.WithLabelValues(strconv.FormatBool(batch)).Inc()
}

// InvocationObserved records one pipeline run.
func (r *Recorder) InvocationObserved(outcome string, batch bool, duration time.Duration) {
	r.invocations.WithLabelValues(outcome, strconv.FormatBool(batch)).Observe(duration.Seconds())
}
