package gorm

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/rlsnotes/pkg/scope"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server/store"
)

func newMockRunner(t *testing.T, binding scope.Binding) (*MockDB, *scope.Runner) {
	t.Helper()
	mockDB, err := NewMockDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return mockDB, scope.NewRunner(NewScope(mockDB.GormDB, binding))
}

func noteRow(id, owner int64, title string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(NoteColumns).AddRow(id, owner, title, "", now, now)
}

func TestScope_ListBindsThenCommits(t *testing.T) {
	binding := scope.DefaultBinding()
	mockDB, runner := newMockRunner(t, binding)

	mockDB.ExpectScope(binding, 1)
	mockDB.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "notes" ORDER BY id`)).
		WillReturnRows(noteRow(1, 1, "mine"))
	mockDB.Mock.ExpectCommit()

	var notes []store.Note
	err := runner.Run(context.Background(), 1, scope.OperationList, func(ctx context.Context, s store.NotesStore) error {
		var err error
		notes, err = s.ListNotes(ctx)
		return err
	})

	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, int64(1), notes[0].OwnerID)
	assert.NoError(t, mockDB.VerifyExpectations())
}

func TestScope_WithoutRoleSkipsSetRole(t *testing.T) {
	binding := scope.Binding{Key: "app.current_user_id"}
	mockDB, runner := newMockRunner(t, binding)

	mockDB.ExpectScope(binding, 4)
	mockDB.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(current_setting($1, true), '')`)).
		WithArgs("app.current_user_id").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("4"))
	mockDB.Mock.ExpectCommit()

	binding4, err := scope.Query(context.Background(), runner, 4, scope.OperationWhoami, func(ctx context.Context, s store.NotesStore) (string, error) {
		return s.CurrentBinding(ctx)
	})

	require.NoError(t, err)
	assert.Equal(t, "4", binding4)
	assert.NoError(t, mockDB.VerifyExpectations())
}

func TestScope_BindFailureRollsBack(t *testing.T) {
	binding := scope.DefaultBinding()
	mockDB, runner := newMockRunner(t, binding)

	mockDB.Mock.ExpectBegin()
	mockDB.Mock.ExpectExec(regexp.QuoteMeta(`SET LOCAL ROLE "rlsnotes_app"`)).
		WillReturnError(errors.New(`permission denied to set role "rlsnotes_app"`))
	mockDB.Mock.ExpectRollback()

	err := runner.Run(context.Background(), 1, scope.OperationList, func(context.Context, store.NotesStore) error {
		t.Fatal("operation must not run")
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, scope.ErrOperationFailed)
	f, ok := scope.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, scope.PhaseStart, f.Phase)
	assert.NoError(t, mockDB.VerifyExpectations())
}

func TestScope_CreateForAnotherOwnerRollsBack(t *testing.T) {
	binding := scope.DefaultBinding()
	mockDB, runner := newMockRunner(t, binding)

	mockDB.ExpectScope(binding, 1)
	mockDB.Mock.ExpectQuery(`INSERT INTO "notes"`).
		WithArgs(int64(2), "not mine", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New(`ERROR: new row violates row-level security policy for table "notes" (SQLSTATE 42501)`))
	mockDB.Mock.ExpectRollback()

	err := runner.Run(context.Background(), 1, scope.OperationCreate, func(ctx context.Context, s store.NotesStore) error {
		_, err := s.CreateNote(ctx, store.NewNote{OwnerID: 2, Title: "not mine"})
		return err
	})

	require.Error(t, err)
	assert.Equal(t, "operation failed", err.Error())
	assert.NoError(t, mockDB.VerifyExpectations())
}

func TestScope_CreateCommits(t *testing.T) {
	binding := scope.DefaultBinding()
	mockDB, runner := newMockRunner(t, binding)

	mockDB.ExpectScope(binding, 1)
	mockDB.Mock.ExpectQuery(`INSERT INTO "notes"`).
		WithArgs(int64(1), "groceries", "milk", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mockDB.Mock.ExpectCommit()

	created, err := scope.Query(context.Background(), runner, 1, scope.OperationCreate, func(ctx context.Context, s store.NotesStore) (*store.Note, error) {
		return s.CreateNote(ctx, store.NewNote{OwnerID: 1, Title: "  groceries ", Body: "milk"})
	})

	require.NoError(t, err)
	assert.Equal(t, int64(10), created.ID)
	assert.Equal(t, "groceries", created.Title)
	assert.NoError(t, mockDB.VerifyExpectations())
}

func TestScope_InvalidInputNeverReachesDatabase(t *testing.T) {
	binding := scope.DefaultBinding()
	mockDB, runner := newMockRunner(t, binding)

	mockDB.ExpectScope(binding, 1)
	mockDB.Mock.ExpectRollback()

	err := runner.Run(context.Background(), 1, scope.OperationCreate, func(ctx context.Context, s store.NotesStore) error {
		_, err := s.CreateNote(ctx, store.NewNote{OwnerID: 1, Title: "   "})
		return err
	})

	assert.ErrorIs(t, err, store.ErrInvalidNote)
	assert.NoError(t, mockDB.VerifyExpectations())
}

func TestScope_FetchInvisibleIsNotFound(t *testing.T) {
	binding := scope.DefaultBinding()
	mockDB, runner := newMockRunner(t, binding)

	mockDB.ExpectScope(binding, 1)
	mockDB.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "notes" WHERE id = $1 LIMIT 1`)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(NoteColumns))
	mockDB.Mock.ExpectRollback()

	err := runner.Run(context.Background(), 1, scope.OperationFetch, func(ctx context.Context, s store.NotesStore) error {
		_, err := s.FetchNote(ctx, 99)
		return err
	})

	assert.ErrorIs(t, err, scope.ErrOperationFailed)
	assert.ErrorIs(t, err, store.ErrNoteNotFound)
	assert.NoError(t, mockDB.VerifyExpectations())
}

func TestScope_UpdateThenFetch(t *testing.T) {
	binding := scope.DefaultBinding()
	mockDB, runner := newMockRunner(t, binding)

	title := "renamed"
	mockDB.ExpectScope(binding, 1)
	mockDB.Mock.ExpectExec(`UPDATE "notes" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "notes" WHERE id = $1 LIMIT 1`)).
		WithArgs(int64(5)).
		WillReturnRows(noteRow(5, 1, title))
	mockDB.Mock.ExpectCommit()

	updated, err := scope.Query(context.Background(), runner, 1, scope.OperationUpdate, func(ctx context.Context, s store.NotesStore) (*store.Note, error) {
		return s.UpdateNote(ctx, 5, store.NoteUpdate{Title: &title})
	})

	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.NoError(t, mockDB.VerifyExpectations())
}

func TestScope_UpdateNoVisibleRow(t *testing.T) {
	binding := scope.DefaultBinding()
	mockDB, runner := newMockRunner(t, binding)

	body := "x"
	mockDB.ExpectScope(binding, 1)
	mockDB.Mock.ExpectExec(`UPDATE "notes" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.Mock.ExpectRollback()

	err := runner.Run(context.Background(), 1, scope.OperationUpdate, func(ctx context.Context, s store.NotesStore) error {
		_, err := s.UpdateNote(ctx, 5, store.NoteUpdate{Body: &body})
		return err
	})

	assert.ErrorIs(t, err, store.ErrNoteNotFound)
	assert.NoError(t, mockDB.VerifyExpectations())
}

func TestScope_Delete(t *testing.T) {
	binding := scope.DefaultBinding()

	t.Run("visible row is deleted", func(t *testing.T) {
		mockDB, runner := newMockRunner(t, binding)
		mockDB.ExpectScope(binding, 1)
		mockDB.Mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "notes" WHERE id = $1`)).
			WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mockDB.Mock.ExpectCommit()

		err := runner.Run(context.Background(), 1, scope.OperationDelete, func(ctx context.Context, s store.NotesStore) error {
			return s.DeleteNote(ctx, 3)
		})
		require.NoError(t, err)
		assert.NoError(t, mockDB.VerifyExpectations())
	})

	t.Run("invisible row is not found", func(t *testing.T) {
		mockDB, runner := newMockRunner(t, binding)
		mockDB.ExpectScope(binding, 2)
		mockDB.Mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "notes" WHERE id = $1`)).
			WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mockDB.Mock.ExpectRollback()

		err := runner.Run(context.Background(), 2, scope.OperationDelete, func(ctx context.Context, s store.NotesStore) error {
			return s.DeleteNote(ctx, 3)
		})
		assert.ErrorIs(t, err, store.ErrNoteNotFound)
		assert.NoError(t, mockDB.VerifyExpectations())
	})
}

func TestHealthStore(t *testing.T) {
	mockDB, err := NewMockDB()
	require.NoError(t, err)
	defer mockDB.Close()

	mockDB.Mock.ExpectExec(regexp.QuoteMeta("SELECT 1")).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, NewHealthStore(mockDB.GormDB).CheckConnectivity(context.Background()))
	assert.NoError(t, mockDB.VerifyExpectations())
}

func TestTx_RollbackAfterCommitIsNotAnError(t *testing.T) {
	mockDB, err := NewMockDB()
	require.NoError(t, err)
	defer mockDB.Close()

	mockDB.Mock.ExpectBegin()
	mockDB.Mock.ExpectCommit()

	tx, err := NewScope(mockDB.GormDB, scope.DefaultBinding()).Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))

	assert.NoError(t, tx.Rollback(context.Background()))
	assert.NoError(t, mockDB.VerifyExpectations())
}
