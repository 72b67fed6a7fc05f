// Package domain contains the resolver fault model.
// It has no knowledge of AppSync, pipelines, or any transport.
package domain

import "errors"

// Fault kinds understood by resolver clients.
const (
	KindUnknown      = "UnknownError"
	KindUnauthorized = "UnauthorizedException"
	KindNotFound     = "NotFound"
	KindInvalidInput = "InvalidInput"
)

const (
	// InternalErrorMessage replaces the message of every masked failure.
	InternalErrorMessage = "Internal Server Error"

	defaultUnauthorizedMessage = "You are not authorized to make this call."
	defaultNotFoundMessage     = "Resource not found"
	validationMessage          = "Input Invalid"
)

// ErrShapeMismatch reports a batch response whose type or length disagrees
// with the batch that triggered it.
var ErrShapeMismatch = errors.New("BatchInvoke: The response does not match the request payload")

// Fault is an intentional failure that carries structured data for the caller.
// A Fault is never mutated once built.
type Fault struct {
	Message        string
	Kind           string
	Payload        any
	DiagnosticInfo any
}

// FaultOption sets an optional Fault field.
type FaultOption func(*Fault)

// WithKind sets the machine-readable discriminator. Empty kinds keep the default.
func WithKind(kind string) FaultOption {
	return func(f *Fault) {
		if kind != "" {
			f.Kind = kind
		}
	}
}

// WithPayload attaches partial or relevant results.
func WithPayload(payload any) FaultOption {
	return func(f *Fault) {
		f.Payload = payload
	}
}

// WithDiagnosticInfo attaches debugging or validation details.
func WithDiagnosticInfo(info any) FaultOption {
	return func(f *Fault) {
		f.DiagnosticInfo = info
	}
}

// NewFault builds a Fault of kind UnknownError unless an option says otherwise.
func NewFault(message string, opts ...FaultOption) *Fault {
	f := &Fault{Message: message, Kind: KindUnknown}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Unauthorized builds an UnauthorizedException fault.
func Unauthorized(message string) *Fault {
	if message == "" {
		message = defaultUnauthorizedMessage
	}
	return NewFault(message, WithKind(KindUnauthorized))
}

// NotFound builds a NotFound fault.
func NotFound(message string) *Fault {
	if message == "" {
		message = defaultNotFoundMessage
	}
	return NewFault(message, WithKind(KindNotFound))
}

// Validation builds an InvalidInput fault carrying the validator's result.
func Validation(detail any) *Fault {
	return NewFault(validationMessage, WithKind(KindInvalidInput), WithDiagnosticInfo(detail))
}

// Error returns the fault message.
func (f *Fault) Error() string {
	if f == nil {
		return ""
	}
	return f.Message
}

// AsFault finds the first Fault in err's chain.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if !errors.As(err, &f) || f == nil {
		return nil, false
	}
	return f, true
}
