// Package kit holds the transport-agnostic endpoint plumbing shared by
// the HTTP and MCP surfaces: an endpoint is a function from a typed
// request to a typed response, and both transports adapt onto it.
package kit

import "context"

// Endpoint is a single operation exposed over any transport.
type Endpoint func(ctx context.Context, request any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behavior.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares outside-in: the first argument is the
// outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
