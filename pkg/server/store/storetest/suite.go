package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/rlsnotes/pkg/scope"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server/store"
)

// Backend is one store implementation opened with a single pooled
// connection, so consecutive scoped runs are guaranteed to reuse it.
type Backend struct {
	Beginner scope.Beginner

	// Setting reads a custom setting outside any scoped transaction
	Setting func(ctx context.Context, key string) (string, error)

	// BackendPID returns the server process id of the pooled connection
	BackendPID func(ctx context.Context) (int, error)

	// Truncate removes all notes with the login's own privileges
	Truncate func(ctx context.Context) error

	// Count returns the number of notes ignoring the row-level policy
	Count func(ctx context.Context) (int64, error)
}

var errInjected = errors.New("injected failure")

// Run exercises the scoped binding guarantees against b.
func Run(t *testing.T, newBackend func(t *testing.T) Backend) {
	ctx := context.Background()

	setup := func(t *testing.T) (Backend, *scope.Runner) {
		t.Helper()
		b := newBackend(t)
		require.NoError(t, b.Truncate(ctx))
		return b, scope.NewRunner(b.Beginner)
	}

	create := func(t *testing.T, r *scope.Runner, userID int64, title string) *store.Note {
		t.Helper()
		note, err := scope.Query(ctx, r, userID, scope.OperationCreate, func(ctx context.Context, s store.NotesStore) (*store.Note, error) {
			return s.CreateNote(ctx, store.NewNote{OwnerID: userID, Title: title})
		})
		require.NoError(t, err)
		return note
	}

	list := func(t *testing.T, r *scope.Runner, userID int64) []store.Note {
		t.Helper()
		notes, err := scope.Query(ctx, r, userID, scope.OperationList, func(ctx context.Context, s store.NotesStore) ([]store.Note, error) {
			return s.ListNotes(ctx)
		})
		require.NoError(t, err)
		return notes
	}

	whoami := func(t *testing.T, r *scope.Runner, userID int64) string {
		t.Helper()
		binding, err := scope.Query(ctx, r, userID, scope.OperationWhoami, func(ctx context.Context, s store.NotesStore) (string, error) {
			return s.CurrentBinding(ctx)
		})
		require.NoError(t, err)
		return binding
	}

	t.Run("binding equals the request identity", func(t *testing.T) {
		_, r := setup(t)
		assert.Equal(t, "7", whoami(t, r, 7))
	})

	t.Run("reused connection carries no prior binding", func(t *testing.T) {
		b, r := setup(t)

		pidBefore, err := b.BackendPID(ctx)
		require.NoError(t, err)

		assert.Equal(t, "1", whoami(t, r, 1))

		leftover, err := b.Setting(ctx, scope.DefaultBindingKey)
		require.NoError(t, err)
		assert.Empty(t, leftover, "binding must not survive the transaction")

		assert.Equal(t, "2", whoami(t, r, 2))

		pidAfter, err := b.BackendPID(ctx)
		require.NoError(t, err)
		assert.Equal(t, pidBefore, pidAfter, "both runs must have used the same connection")
	})

	t.Run("binding is discarded after rollback", func(t *testing.T) {
		b, r := setup(t)

		err := r.Run(ctx, 1, scope.OperationList, func(context.Context, store.NotesStore) error {
			return errInjected
		})
		require.ErrorIs(t, err, scope.ErrOperationFailed)

		leftover, err := b.Setting(ctx, scope.DefaultBindingKey)
		require.NoError(t, err)
		assert.Empty(t, leftover)

		notes := list(t, r, 2)
		assert.Empty(t, notes)
	})

	t.Run("failure mid transaction leaves no mutation", func(t *testing.T) {
		b, r := setup(t)

		err := r.Run(ctx, 1, scope.OperationCreate, func(ctx context.Context, s store.NotesStore) error {
			if _, err := s.CreateNote(ctx, store.NewNote{OwnerID: 1, Title: "doomed"}); err != nil {
				return err
			}
			return errInjected
		})
		require.ErrorIs(t, err, scope.ErrOperationFailed)
		assert.ErrorIs(t, err, errInjected)

		count, err := b.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Empty(t, list(t, r, 1))
	})

	t.Run("list shows only the bound owner's rows", func(t *testing.T) {
		_, r := setup(t)

		create(t, r, 1, "one-a")
		create(t, r, 2, "two-a")
		create(t, r, 1, "one-b")
		create(t, r, 2, "two-b")

		notes := list(t, r, 1)
		require.Len(t, notes, 2)
		for _, n := range notes {
			assert.Equal(t, int64(1), n.OwnerID)
		}
		assert.Equal(t, "one-a", notes[0].Title)
		assert.Equal(t, "one-b", notes[1].Title)
	})

	t.Run("insert tagged with another owner is rejected", func(t *testing.T) {
		b, r := setup(t)

		err := r.Run(ctx, 1, scope.OperationCreate, func(ctx context.Context, s store.NotesStore) error {
			_, err := s.CreateNote(ctx, store.NewNote{OwnerID: 2, Title: "forged"})
			return err
		})
		require.Error(t, err)
		assert.Equal(t, "operation failed", err.Error())

		count, err := b.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Empty(t, list(t, r, 2))
	})

	t.Run("other owners' rows cannot be fetched, updated or deleted", func(t *testing.T) {
		b, r := setup(t)

		theirs := create(t, r, 2, "private")
		title := "hijacked"

		err := r.Run(ctx, 1, scope.OperationFetch, func(ctx context.Context, s store.NotesStore) error {
			_, err := s.FetchNote(ctx, theirs.ID)
			return err
		})
		assert.ErrorIs(t, err, store.ErrNoteNotFound)

		err = r.Run(ctx, 1, scope.OperationUpdate, func(ctx context.Context, s store.NotesStore) error {
			_, err := s.UpdateNote(ctx, theirs.ID, store.NoteUpdate{Title: &title})
			return err
		})
		assert.ErrorIs(t, err, store.ErrNoteNotFound)

		err = r.Run(ctx, 1, scope.OperationDelete, func(ctx context.Context, s store.NotesStore) error {
			return s.DeleteNote(ctx, theirs.ID)
		})
		assert.ErrorIs(t, err, store.ErrNoteNotFound)

		count, err := b.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		mine := list(t, r, 2)
		require.Len(t, mine, 1)
		assert.Equal(t, "private", mine[0].Title)
	})

	t.Run("owner can update and delete", func(t *testing.T) {
		_, r := setup(t)

		note := create(t, r, 3, "draft")
		body := "final text"
		updated, err := scope.Query(ctx, r, 3, scope.OperationUpdate, func(ctx context.Context, s store.NotesStore) (*store.Note, error) {
			return s.UpdateNote(ctx, note.ID, store.NoteUpdate{Body: &body})
		})
		require.NoError(t, err)
		assert.Equal(t, "draft", updated.Title)
		assert.Equal(t, body, updated.Body)

		err = r.Run(ctx, 3, scope.OperationDelete, func(ctx context.Context, s store.NotesStore) error {
			return s.DeleteNote(ctx, note.ID)
		})
		require.NoError(t, err)
		assert.Empty(t, list(t, r, 3))
	})
}
