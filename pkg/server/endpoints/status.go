package endpoints

import (
	"net/http"

	"github.com/doodlesbykumbi/rlsnotes/pkg/server"
)

// StatusResponse is returned by GET /
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// RegisterStatusEndpoints registers the unauthenticated status routes
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/", handleStatus(s)).Methods("GET")
	s.Router.HandleFunc("/healthz", handleHealth(s)).Methods("GET")
}

func handleStatus(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := s.Version
		if version == "" {
			version = "dev"
		}
		respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok", Version: version})
	}
}

func handleHealth(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.HealthStore == nil {
			respondWithJSON(w, http.StatusOK, map[string]string{"database": "unknown"})
			return
		}
		if err := s.HealthStore.CheckConnectivity(r.Context()); err != nil {
			s.Log.Warnw("health check failed", "error", err)
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"database": "unreachable"})
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"database": "ok"})
	}
}
