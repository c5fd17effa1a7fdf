// Package identity carries the authenticated caller through a request.
//
// An Identity is produced by the bearer-token middleware and read by the
// endpoints, which hand its UserID to the scoped transaction runner. The
// runner binds that id as a transaction-local setting; nothing else in the
// request path is trusted to say who the caller is.
//
// # Basic Usage
//
//	id := identity.New(42).
//	    WithRemoteIP(clientIP).
//	    WithRequestID(requestID)
//
//	ctx = identity.Set(ctx, id)
//
//	id, ok := identity.Get(ctx)
package identity
