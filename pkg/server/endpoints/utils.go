package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/doodlesbykumbi/rlsnotes/pkg/identity"
	"github.com/doodlesbykumbi/rlsnotes/pkg/scope"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server/store"
)

func respondWithError(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, map[string]interface{}{"error": payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithScopeError maps the outcome of a scoped run to a response.
// Absence and rejected input keep their status; anything else is reported
// as the generic failure with no detail.
func respondWithScopeError(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	switch {
	case errors.Is(err, store.ErrNoteNotFound):
		respondWithError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrInvalidNote):
		respondWithError(w, http.StatusBadRequest, "invalid note")
	default:
		if f, ok := scope.AsFailure(err); ok {
			log.Debugw("scoped operation failed", "detail", f.Detail())
		}
		respondWithError(w, http.StatusInternalServerError, scope.ErrOperationFailed.Error())
	}
}

// callerID returns the authenticated user id set by the bearer middleware
func callerID(r *http.Request) (int64, bool) {
	id, ok := identity.Get(r.Context())
	if !ok || !id.Valid() {
		return 0, false
	}
	return id.UserID, true
}

func noteID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
