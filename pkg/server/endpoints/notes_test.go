package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/rlsnotes/pkg/scope"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server/store"
)

func TestNotes_RequireBearerToken(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/notes", "/notes/1", "/whoami"} {
		w := ts.do(t, "GET", path, 0, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
	}
	assert.NoError(t, ts.db.VerifyExpectations())
}

func TestNotes_ListReturnsVisibleRows(t *testing.T) {
	ts := newTestServer(t)
	now := time.Now()

	ts.db.ExpectScope(scope.DefaultBinding(), 1)
	ts.db.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "notes" ORDER BY id`)).
		WillReturnRows(noteRows().
			AddRow(int64(1), int64(1), "first", "", now, now).
			AddRow(int64(3), int64(1), "second", "b", now, now))
	ts.db.Mock.ExpectCommit()

	w := ts.do(t, "GET", "/notes", 1, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var notes []store.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notes))
	require.Len(t, notes, 2)
	for _, n := range notes {
		assert.Equal(t, int64(1), n.OwnerID)
	}
	assert.NoError(t, ts.db.VerifyExpectations())
}

func TestNotes_ListEmptyIsArray(t *testing.T) {
	ts := newTestServer(t)

	ts.db.ExpectScope(scope.DefaultBinding(), 7)
	ts.db.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "notes" ORDER BY id`)).
		WillReturnRows(noteRows())
	ts.db.Mock.ExpectCommit()

	w := ts.do(t, "GET", "/notes", 7, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.NoError(t, ts.db.VerifyExpectations())
}

func TestNotes_CreateDefaultsOwnerToCaller(t *testing.T) {
	ts := newTestServer(t)

	ts.db.ExpectScope(scope.DefaultBinding(), 1)
	ts.db.Mock.ExpectQuery(`INSERT INTO "notes"`).
		WithArgs(int64(1), "groceries", "milk", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))
	ts.db.Mock.ExpectCommit()

	w := ts.do(t, "POST", "/notes", 1, `{"title":"groceries","body":"milk"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var note store.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &note))
	assert.Equal(t, int64(12), note.ID)
	assert.Equal(t, int64(1), note.OwnerID)
	assert.NoError(t, ts.db.VerifyExpectations())
}

func TestNotes_CreateForAnotherOwnerFailsGenerically(t *testing.T) {
	ts := newTestServer(t)

	ts.db.ExpectScope(scope.DefaultBinding(), 1)
	ts.db.Mock.ExpectQuery(`INSERT INTO "notes"`).
		WithArgs(int64(2), "forged", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New(`ERROR: new row violates row-level security policy for table "notes" (SQLSTATE 42501)`))
	ts.db.Mock.ExpectRollback()

	w := ts.do(t, "POST", "/notes", 1, `{"title":"forged","owner_id":2}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"operation failed"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "row-level")
	assert.NoError(t, ts.db.VerifyExpectations())
}

func TestNotes_BadInputRejectedBeforeTransaction(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "malformed json", method: "POST", path: "/notes", body: `{"title":`},
		{name: "empty title", method: "POST", path: "/notes", body: `{"title":"  "}`},
		{name: "non-positive owner", method: "POST", path: "/notes", body: `{"title":"x","owner_id":0}`},
		{name: "empty update", method: "PUT", path: "/notes/4", body: `{}`},
		{name: "zero id", method: "GET", path: "/notes/0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			w := ts.do(t, tt.method, tt.path, 1, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.NoError(t, ts.db.VerifyExpectations())
		})
	}
}

func TestNotes_FetchInvisibleIsNotFound(t *testing.T) {
	ts := newTestServer(t)

	ts.db.ExpectScope(scope.DefaultBinding(), 2)
	ts.db.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "notes" WHERE id = $1 LIMIT 1`)).
		WithArgs(int64(5)).
		WillReturnRows(noteRows())
	ts.db.Mock.ExpectRollback()

	w := ts.do(t, "GET", "/notes/5", 2, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, ts.db.VerifyExpectations())
}

func TestNotes_Update(t *testing.T) {
	ts := newTestServer(t)
	now := time.Now()

	ts.db.ExpectScope(scope.DefaultBinding(), 1)
	ts.db.Mock.ExpectExec(`UPDATE "notes" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.db.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "notes" WHERE id = $1 LIMIT 1`)).
		WithArgs(int64(5)).
		WillReturnRows(noteRows().AddRow(int64(5), int64(1), "renamed", "", now, now))
	ts.db.Mock.ExpectCommit()

	w := ts.do(t, "PUT", "/notes/5", 1, `{"title":"renamed"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var note store.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &note))
	assert.Equal(t, "renamed", note.Title)
	assert.NoError(t, ts.db.VerifyExpectations())
}

func TestNotes_Delete(t *testing.T) {
	t.Run("owner deletes", func(t *testing.T) {
		ts := newTestServer(t)
		ts.db.ExpectScope(scope.DefaultBinding(), 1)
		ts.db.Mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "notes" WHERE id = $1`)).
			WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		ts.db.Mock.ExpectCommit()

		w := ts.do(t, "DELETE", "/notes/3", 1, "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.NoError(t, ts.db.VerifyExpectations())
	})

	t.Run("other identity sees nothing to delete", func(t *testing.T) {
		ts := newTestServer(t)
		ts.db.ExpectScope(scope.DefaultBinding(), 2)
		ts.db.Mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "notes" WHERE id = $1`)).
			WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		ts.db.Mock.ExpectRollback()

		w := ts.do(t, "DELETE", "/notes/3", 2, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, ts.db.VerifyExpectations())
	})
}

func TestNotes_BindFailureIsGeneric(t *testing.T) {
	ts := newTestServer(t)

	ts.db.Mock.ExpectBegin()
	ts.db.Mock.ExpectExec(regexp.QuoteMeta(`SET LOCAL ROLE "rlsnotes_app"`)).
		WillReturnError(errors.New(`role "rlsnotes_app" does not exist`))
	ts.db.Mock.ExpectRollback()

	w := ts.do(t, "GET", "/notes", 1, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"operation failed"}`, w.Body.String())
	assert.NoError(t, ts.db.VerifyExpectations())
}
