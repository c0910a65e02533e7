// Package router wraps httprouter with the service's JSON envelope, a fixed
// middleware stack (recover, real IP, correlation id, observability,
// maintenance), and per-route middleware for bearer and API-key auth.
//
// Handlers return (payload, error). A nil error encodes the payload as
// {"message", "data"}; a goerror.Error encodes as {"message", "error"} with
// the status derived from its code.
package router
