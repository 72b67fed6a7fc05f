package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecorder_CountsEnvelopesByShape verifies shape labels are kept apart.
func TestRecorder_CountsEnvelopesByShape(t *testing.T) {
	r := NewRecorder()

	r.EnvelopeEmitted("value")
	r.EnvelopeEmitted("value")
	r.EnvelopeEmitted("fault")

	if got := testutil.ToFloat64(r.envelopes.WithLabelValues("value")); got != 2 {
		t.Fatalf("expected 2 value envelopes, got %v", got)
	}
	if got := testutil.ToFloat64(r.envelopes.WithLabelValues("fault")); got != 1 {
		t.Fatalf("expected 1 fault envelope, got %v", got)
	}
}

// TestRecorder_CountsMismatchesAndRejections verifies the failure counters.
func TestRecorder_CountsMismatchesAndRejections(t *testing.T) {
	r := NewRecorder()

	r.ShapeMismatch(3, 2)
	r.ShapeMismatch(3, -1)
	r.ShapeMismatch(1, 4)
	r.ShapeMismatch(2, 0)
	r.ValidationRejected(true)
	r.ValidationRejected(false)
	r.ValidationRejected(true)

	if got := testutil.ToFloat64(r.mismatches.WithLabelValues("short")); got != 2 {
		t.Fatalf("expected 2 short mismatches, got %v", got)
	}
	if got := testutil.ToFloat64(r.mismatches.WithLabelValues("not_sequence")); got != 1 {
		t.Fatalf("expected 1 non-sequence mismatch, got %v", got)
	}
	if got := testutil.ToFloat64(r.mismatches.WithLabelValues("long")); got != 1 {
		t.Fatalf("expected 1 long mismatch, got %v", got)
	}
	if got := testutil.ToFloat64(r.rejections.WithLabelValues("true")); got != 2 {
		t.Fatalf("expected 2 batch rejections, got %v", got)
	}
	if got := testutil.ToFloat64(r.rejections.WithLabelValues("false")); got != 1 {
		t.Fatalf("expected 1 single rejection, got %v", got)
	}
}

// TestRecorder_RegistryGathersInvocations verifies collectors are registered on the private registry.
func TestRecorder_RegistryGathersInvocations(t *testing.T) {
	r := NewRecorder()
	r.InvocationObserved("handled", true, 15*time.Millisecond)

	if got := testutil.CollectAndCount(r.invocations); got != 1 {
		t.Fatalf("expected one histogram series, got %d", got)
	}

	families, err := r.Registry().Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	found := false
	for _, family := range families {
		if family.GetName() == "resolve_envelope_invocation_duration_seconds" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected invocation histogram in registry")
	}
}

// TestRecorder_IndependentRegistries verifies two recorders never collide.
func TestRecorder_IndependentRegistries(t *testing.T) {
	first := NewRecorder()
	second := NewRecorder()

	first.ShapeMismatch(1, 0)

	if got := testutil.CollectAndCount(second.mismatches); got != 0 {
		t.Fatalf("expected second recorder untouched, got %d series", got)
	}
}
