package endpoints

import (
	"context"
	"net/http"

	"github.com/doodlesbykumbi/rlsnotes/pkg/audit"
	"github.com/doodlesbykumbi/rlsnotes/pkg/identity"
	"github.com/doodlesbykumbi/rlsnotes/pkg/scope"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server/store"
)

// WhoamiResponse represents the response from the /whoami endpoint
type WhoamiResponse struct {
	UserID    int64  `json:"user_id"`
	Binding   string `json:"binding"`
	ExpiresAt int64  `json:"token_exp,omitempty"`
}

// RegisterWhoamiEndpoint registers the /whoami endpoint
func RegisterWhoamiEndpoint(s *server.Server) {
	whoamiRouter := s.Router.PathPrefix("/whoami").Subrouter()
	whoamiRouter.Use(s.Authenticated())

	whoamiRouter.HandleFunc("", handleWhoami(s)).Methods("GET")
}

// handleWhoami reports the token identity next to the binding the database
// sees inside a scoped transaction for it
func handleWhoami(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok || !id.Valid() {
			respondWithError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		binding, err := scope.Query(r.Context(), s.Runner, id.UserID, scope.OperationWhoami,
			func(ctx context.Context, notes store.NotesStore) (string, error) {
				return notes.CurrentBinding(ctx)
			})
		s.Audit.Log(r.Context(), audit.WhoamiEvent{
			UserID:   id.UserID,
			Binding:  binding,
			ClientIP: id.ClientIP(),
			Success:  err == nil,
		})
		if err != nil {
			respondWithScopeError(w, s.Log, err)
			return
		}

		response := WhoamiResponse{UserID: id.UserID, Binding: binding}
		if !id.ExpiresAt.IsZero() {
			response.ExpiresAt = id.ExpiresAt.Unix()
		}
		respondWithJSON(w, http.StatusOK, response)
	}
}
