// Package appsync shapes resolver results into the envelope expected by
// AppSync direct Lambda resolvers, for single and batch invocations.
package appsync

import (
	"encoding/json"

	"github.com/jamalishaq/resolve_envelope/internal/domain"
)

// Shape identifies which envelope layout applies to a result.
type Shape int

const (
	ShapeValue Shape = iota
	ShapeFault
	ShapeFailure
)

// String returns the lowercase shape name used in logs and metrics.
func (s Shape) String() string {
	switch s {
	case ShapeValue:
		return "value"
	case ShapeFault:
		return "fault"
	case ShapeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is a classified result. Exactly one of Value, Fault or Err is meaningful, chosen by Shape.
type Outcome struct {
	Shape Shape
	Value any
	Fault *domain.Fault
	Err   error
}

// Classify sorts a result into a plain value, a domain fault or a generic failure.
func Classify(result any) Outcome {
	err, ok := result.(error)
	if !ok {
		return Outcome{Shape: ShapeValue, Value: result}
	}
	if f, ok := domain.AsFault(err); ok {
		return Outcome{Shape: ShapeFault, Fault: f}
	}
	if f, isFault := err.(*domain.Fault); isFault && f == nil {
		return Outcome{Shape: ShapeValue}
	}
	return Outcome{Shape: ShapeFailure, Err: err}
}

// Envelope is the response shape returned to AppSync.
type Envelope struct {
	Data         any
	ErrorInfo    any
	ErrorType    string
	ErrorMessage string

	shape Shape
}

// ValueEnvelope wraps a successful value.
func ValueEnvelope(value any) Envelope {
	return Envelope{Data: value, shape: ShapeValue}
}

// FaultEnvelope exposes a domain fault's fields.
func FaultEnvelope(f *domain.Fault) Envelope {
	return Envelope{
		Data:         f.Payload,
		ErrorInfo:    f.DiagnosticInfo,
		ErrorType:    f.Kind,
		ErrorMessage: f.Message,
		shape:        ShapeFault,
	}
}

// FailureEnvelope hides a generic failure behind the internal error message.
func FailureEnvelope(errorType string) Envelope {
	return Envelope{
		ErrorType:    errorType,
		ErrorMessage: domain.InternalErrorMessage,
		shape:        ShapeFailure,
	}
}

// Shape reports the envelope layout.
func (e Envelope) Shape() Shape {
	return e.shape
}

// MarshalJSON writes only the keys that belong to the envelope's shape.
func (e Envelope) MarshalJSON() ([]byte, error) {
	switch e.shape {
	case ShapeFault:
		return json.Marshal(struct {
			Data         any    `json:"data"`
			ErrorInfo    any    `json:"errorInfo"`
			ErrorType    string `json:"errorType"`
			ErrorMessage string `json:"errorMessage"`
		}{e.Data, e.ErrorInfo, e.ErrorType, e.ErrorMessage})
	case ShapeFailure:
		return json.Marshal(struct {
			ErrorType    string `json:"errorType,omitempty"`
			ErrorMessage string `json:"errorMessage"`
		}{e.ErrorType, e.ErrorMessage})
	default:
		return json.Marshal(struct {
			Data any `json:"data"`
		}{e.Data})
	}
}

// FailurePolicy decides what happens to generic failures.
type FailurePolicy int

const (
	// PropagateFailures re-raises generic failures untouched.
	PropagateFailures FailurePolicy = iota
	// MaskFailures replaces generic failures with an opaque envelope.
	MaskFailures
)

// String returns the policy name used in configuration.
func (p FailurePolicy) String() string {
	if p == MaskFailures {
		return "mask"
	}
	return "propagate"
}

// Normalizer maps results to envelopes under a failure policy.
type Normalizer struct {
	Policy FailurePolicy
	// OpaqueErrorType is reported as errorType on masked failures when set.
	OpaqueErrorType string
}

// Normalize returns the envelope for result. Under PropagateFailures a generic
// failure is returned as the error and no envelope is produced.
func (n Normalizer) Normalize(result any) (Envelope, error) {
	outcome := Classify(result)
	switch outcome.Shape {
	case ShapeFault:
		return FaultEnvelope(outcome.Fault), nil
	case ShapeFailure:
		if n.Policy == MaskFailures {
			return FailureEnvelope(n.OpaqueErrorType), nil
		}
		return Envelope{}, outcome.Err
	default:
		return ValueEnvelope(outcome.Value), nil
	}
}

// Normalize applies the default propagating normalizer.
func Normalize(result any) (Envelope, error) {
	return Normalizer{}.Normalize(result)
}
