package cmd

import (
	"context"
	"errors"
	"sort"

	"github.com/jamalishaq/resolve_envelope/internal/domain"
	"github.com/jamalishaq/resolve_envelope/internal/usecase"
)

// sampleResolvers exercise each envelope path from the command line.
var sampleResolvers = map[string]usecase.HandlerFunc{
	"echo":         echoResolver,
	"fault":        faultResolver,
	"notfound":     notFoundResolver,
	"unauthorized": unauthorizedResolver,
	"error":        errorResolver,
	"panic":        panicResolver,
	"mismatch":     mismatchResolver,
}

func resolverNames() []string {
	names := make([]string, 0, len(sampleResolvers))
	for name := range sampleResolvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// perRequest answers a single event with one value and a batch with one value per request.
func perRequest(event usecase.Event, answer func(usecase.Request) any) any {
	if !event.IsBatch() {
		return answer(event.Single())
	}
	reqs := event.Requests()
	results := make([]any, len(reqs))
	for i, req := range reqs {
		results[i] = answer(req)
	}
	return results
}

// echoResolver returns each request's arguments.
func echoResolver(_ context.Context, event usecase.Event) (any, error) {
	return perRequest(event, func(req usecase.Request) any {
		return req.Arguments
	}), nil
}

// faultResolver fails the whole invocation with a domain fault carrying the arguments.
func faultResolver(_ context.Context, event usecase.Event) (any, error) {
	return nil, domain.NewFault("Resolver rejected the request",
		domain.WithKind("ResolverFault"),
		domain.WithPayload(event.Single().Arguments),
		domain.WithDiagnosticInfo(map[string]any{"field": event.Single().Info.FieldName}),
	)
}

// notFoundResolver throws a NotFound fault.
func notFoundResolver(context.Context, usecase.Event) (any, error) {
	panic(domain.NotFound(""))
}

// unauthorizedResolver signals an UnauthorizedException fault.
func unauthorizedResolver(context.Context, usecase.Event) (any, error) {
	return nil, domain.Unauthorized("")
}

// errorResolver fails with an unexpected infrastructure error.
func errorResolver(context.Context, usecase.Event) (any, error) {
	return nil, errors.New("dial tcp 10.0.0.7:5432: connection refused")
}

// panicResolver crashes with a non-error value.
func panicResolver(context.Context, usecase.Event) (any, error) {
	panic("resolver state corrupted")
}

// mismatchResolver answers a batch with one result too few.
func mismatchResolver(_ context.Context, event usecase.Event) (any, error) {
	results := perRequest(event, func(req usecase.Request) any {
		return req.Arguments
	})
	if items, ok := results.([]any); ok && len(items) > 0 {
		return items[:len(items)-1], nil
	}
	return results, nil
}
