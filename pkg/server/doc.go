// Package server provides the HTTP server for the rlsnotes API.
//
// It uses gorilla/mux for routing and gorilla/handlers for panic recovery
// and proxy headers. Every request is logged with a request id; note routes
// additionally require a bearer token.
//
// # Server Setup
//
//	srv := server.NewServer(runner, healthStore, auth, log, auditLog, server.Options{Addr: cfg.Addr()})
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Components
//
//   - Runner: executes each data operation in its own identity-bound transaction
//   - HealthStore: database connectivity for /healthz
//   - Authenticator: bearer token verification
//   - Audit: RFC5424 audit trail
package server
