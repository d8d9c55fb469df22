// Package server hosts the Fiber HTTP service, request middleware chain and
// the pattern-dispatch layer that maps incoming paths onto cache-manager
// operations. The binary bootstraps Fiber here, attaches recover/request-ID
// middlewares, compiles the route bindings from config and exposes the shared
// fetch client used by the remote cache. Routes that match no binding fall
// through, so diagnostics handlers (and an eventual static layer) can be
// registered behind the dispatcher. Keep exports narrow and accept explicit
// dependencies.
package server
