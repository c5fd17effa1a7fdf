package endpoints

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/doodlesbykumbi/rlsnotes/pkg/scope"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server/store"
)

// maxBodyBytes bounds request bodies for note writes
const maxBodyBytes = 1 << 20

// CreateNoteRequest is the body of POST /notes. OwnerID defaults to the
// caller; any other value is left for the row-level policy to reject.
type CreateNoteRequest struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	OwnerID *int64 `json:"owner_id,omitempty"`
}

// UpdateNoteRequest is the body of PUT /notes/{id}
type UpdateNoteRequest struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
}

// RegisterNotesEndpoints registers the /notes routes behind bearer auth
func RegisterNotesEndpoints(s *server.Server) {
	notesRouter := s.Router.PathPrefix("/notes").Subrouter()
	notesRouter.Use(s.Authenticated())

	notesRouter.HandleFunc("", handleListNotes(s)).Methods("GET")
	notesRouter.HandleFunc("", handleCreateNote(s)).Methods("POST")
	notesRouter.HandleFunc("/{id:[0-9]+}", handleFetchNote(s)).Methods("GET")
	notesRouter.HandleFunc("/{id:[0-9]+}", handleUpdateNote(s)).Methods("PUT")
	notesRouter.HandleFunc("/{id:[0-9]+}", handleDeleteNote(s)).Methods("DELETE")
}

func handleListNotes(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		notes, err := scope.Query(r.Context(), s.Runner, userID, scope.OperationList,
			func(ctx context.Context, notes store.NotesStore) ([]store.Note, error) {
				return notes.ListNotes(ctx)
			})
		if err != nil {
			respondWithScopeError(w, s.Log, err)
			return
		}
		if notes == nil {
			notes = []store.Note{}
		}
		respondWithJSON(w, http.StatusOK, notes)
	}
}

func handleCreateNote(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req CreateNoteRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		input := store.NewNote{OwnerID: userID, Title: req.Title, Body: req.Body}
		if req.OwnerID != nil {
			input.OwnerID = *req.OwnerID
		}
		if err := input.Validate(); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		note, err := scope.Query(r.Context(), s.Runner, userID, scope.OperationCreate,
			func(ctx context.Context, notes store.NotesStore) (*store.Note, error) {
				return notes.CreateNote(ctx, input)
			})
		if err != nil {
			respondWithScopeError(w, s.Log, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, note)
	}
}

func handleFetchNote(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		id, ok := noteID(r)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "invalid note id")
			return
		}

		note, err := scope.Query(r.Context(), s.Runner, userID, scope.OperationFetch,
			func(ctx context.Context, notes store.NotesStore) (*store.Note, error) {
				return notes.FetchNote(ctx, id)
			})
		if err != nil {
			respondWithScopeError(w, s.Log, err)
			return
		}
		respondWithJSON(w, http.StatusOK, note)
	}
}

func handleUpdateNote(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		id, ok := noteID(r)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "invalid note id")
			return
		}

		var req UpdateNoteRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		update := store.NoteUpdate{Title: req.Title, Body: req.Body}
		if err := update.Validate(); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		note, err := scope.Query(r.Context(), s.Runner, userID, scope.OperationUpdate,
			func(ctx context.Context, notes store.NotesStore) (*store.Note, error) {
				return notes.UpdateNote(ctx, id, update)
			})
		if err != nil {
			respondWithScopeError(w, s.Log, err)
			return
		}
		respondWithJSON(w, http.StatusOK, note)
	}
}

func handleDeleteNote(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		id, ok := noteID(r)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "invalid note id")
			return
		}

		err := s.Runner.Run(r.Context(), userID, scope.OperationDelete,
			func(ctx context.Context, notes store.NotesStore) error {
				return notes.DeleteNote(ctx, id)
			})
		if err != nil {
			respondWithScopeError(w, s.Log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
