package endpoints

import (
	"github.com/doodlesbykumbi/rlsnotes/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterStatusEndpoints(srv)
	RegisterNotesEndpoints(srv)
	RegisterWhoamiEndpoint(srv)
}
