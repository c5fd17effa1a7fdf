// Package endpoints registers the HTTP handlers of the notes API on a
// server.Server.
//
// Every note handler authenticates the caller, validates its input and then
// performs exactly one scoped run through the server's scope.Runner. A note
// that is absent or hidden by the row-level policy is a 404; every other
// failure of the run is a 500 carrying only "operation failed".
package endpoints
