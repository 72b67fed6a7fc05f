package pipeline

import (
	"github.com/google/uuid"

	"github.com/jamalishaq/resolve_envelope/internal/usecase"
)

// State is the lifecycle position of an invocation.
type State int

const (
	StateIdle State = iota
	StateInvoking
	StateSucceeded
	StateFaulted
	StateNormalized
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInvoking:
		return "invoking"
	case StateSucceeded:
		return "succeeded"
	case StateFaulted:
		return "faulted"
	case StateNormalized:
		return "normalized"
	default:
		return "unknown"
	}
}

// Invocation is an immutable record of one pass through the pipeline.
// Every With* method returns a modified copy and leaves the receiver untouched.
type Invocation struct {
	id          string
	trigger     usecase.Event
	event       usecase.Event
	response    any
	hasResponse bool
	err         error
	state       State
	values      map[any]any
}

// NewInvocation starts an idle invocation for event.
func NewInvocation(event usecase.Event) Invocation {
	return Invocation{
		id:      uuid.NewString(),
		trigger: event,
		event:   event,
		state:   StateIdle,
	}
}

// ID returns the invocation identifier.
func (inv Invocation) ID() string { return inv.id }

// Trigger returns the event the pipeline was invoked with.
func (inv Invocation) Trigger() usecase.Event { return inv.trigger }

// Event returns the event forwarded to the handler. Before hooks may narrow it.
func (inv Invocation) Event() usecase.Event { return inv.event }

// Response returns the current response value.
func (inv Invocation) Response() any { return inv.response }

// HasResponse reports whether a response was set, including a nil one.
func (inv Invocation) HasResponse() bool { return inv.hasResponse }

// Err returns the failure being propagated, if any.
func (inv Invocation) Err() error { return inv.err }

// State returns the lifecycle state.
func (inv Invocation) State() State { return inv.state }

// Value returns the annotation stored under key.
func (inv Invocation) Value(key any) any {
	if inv.values == nil {
		return nil
	}
	return inv.values[key]
}

// WithEvent replaces the event forwarded to the handler.
func (inv Invocation) WithEvent(event usecase.Event) Invocation {
	inv.event = event
	return inv
}

// WithResponse sets the response value.
func (inv Invocation) WithResponse(response any) Invocation {
	inv.response = response
	inv.hasResponse = true
	return inv
}

// WithoutResponse clears the response value.
func (inv Invocation) WithoutResponse() Invocation {
	inv.response = nil
	inv.hasResponse = false
	return inv
}

// WithError sets the failure being propagated.
func (inv Invocation) WithError(err error) Invocation {
	inv.err = err
	return inv
}

// WithState moves the invocation to state.
func (inv Invocation) WithState(state State) Invocation {
	inv.state = state
	return inv
}

// WithValue stores an annotation. The annotation map is copied on write.
func (inv Invocation) WithValue(key, value any) Invocation {
	values := make(map[any]any, len(inv.values)+1)
	for k, v := range inv.values {
		values[k] = v
	}
	values[key] = value
	inv.values = values
	return inv
}

// Normalize records the final response and marks the invocation normalized.
func (inv Invocation) Normalize(response any) Invocation {
	return inv.WithResponse(response).WithError(nil).WithState(StateNormalized)
}
