package usecase

import (
	"bytes"
	"context"
	"encoding/json"
)

// Handler is a transport-agnostic resolver handler.
// For batch events the result is expected to be a slice with one entry per request.
type Handler interface {
	Handle(ctx context.Context, event Event) (any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) (any, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event Event) (any, error) {
	return f(ctx, event)
}

// RequestInfo describes the GraphQL field being resolved.
type RequestInfo struct {
	FieldName      string         `json:"fieldName,omitempty"`
	ParentTypeName string         `json:"parentTypeName,omitempty"`
	Variables      map[string]any `json:"variables,omitempty"`
}

// Request is a single resolver invocation payload.
type Request struct {
	Arguments map[string]any `json:"arguments,omitempty"`
	Source    map[string]any `json:"source,omitempty"`
	Identity  map[string]any `json:"identity,omitempty"`
	Info      RequestInfo    `json:"info"`
}

// UnmarshalJSON accepts "args" as an alias of "arguments".
func (r *Request) UnmarshalJSON(data []byte) error {
	type plain Request
	var decoded struct {
		plain
		Args map[string]any `json:"args,omitempty"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = Request(decoded.plain)
	if r.Arguments == nil {
		r.Arguments = decoded.Args
	}
	return nil
}

// Event is either a single request or a batch of requests.
type Event struct {
	requests []Request
	batch    bool
}

// SingleEvent wraps one request.
func SingleEvent(req Request) Event {
	return Event{requests: []Request{req}}
}

// BatchEvent wraps a sequence of requests. An empty batch is still a batch.
func BatchEvent(reqs ...Request) Event {
	cloned := make([]Request, len(reqs))
	copy(cloned, reqs)
	return Event{requests: cloned, batch: true}
}

// IsBatch reports whether the event is a sequence.
func (e Event) IsBatch() bool {
	return e.batch
}

// Len returns the number of requests; a single event has length 1.
func (e Event) Len() int {
	if !e.batch && len(e.requests) == 0 {
		return 1
	}
	return len(e.requests)
}

// Requests returns a copy of the event's requests.
func (e Event) Requests() []Request {
	if !e.batch && len(e.requests) == 0 {
		return []Request{{}}
	}
	cloned := make([]Request, len(e.requests))
	copy(cloned, e.requests)
	return cloned
}

// Single returns the first request, or the zero request when there is none.
func (e Event) Single() Request {
	if len(e.requests) == 0 {
		return Request{}
	}
	return e.requests[0]
}

// MarshalJSON encodes a batch as an array and a single event as an object.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.batch {
		return json.Marshal(e.Requests())
	}
	return json.Marshal(e.Single())
}

// UnmarshalJSON decodes an array document as a batch and anything else as a single request.
func (e *Event) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var reqs []Request
		if err := json.Unmarshal(trimmed, &reqs); err != nil {
			return err
		}
		*e = BatchEvent(reqs...)
		return nil
	}

	var req Request
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &req); err != nil {
			return err
		}
	}
	*e = SingleEvent(req)
	return nil
}
