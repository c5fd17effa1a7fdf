// Package middleware provides the HTTP middleware used by the server:
// request logging with X-Request-ID propagation and bearer token
// authentication that places an identity.Identity on the request context.
package middleware
