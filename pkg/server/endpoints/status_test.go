package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/rlsnotes/pkg/scope"
)

func TestStatus(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, "GET", "/", 0, "")
	require.Equal(t, http.StatusOK, w.Code)

	var status StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "test", status.Version)
}

func TestHealthz(t *testing.T) {
	t.Run("database reachable", func(t *testing.T) {
		ts := newTestServer(t)
		ts.db.Mock.ExpectExec(regexp.QuoteMeta("SELECT 1")).WillReturnResult(sqlmock.NewResult(0, 0))

		w := ts.do(t, "GET", "/healthz", 0, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, ts.db.VerifyExpectations())
	})

	t.Run("database unreachable", func(t *testing.T) {
		ts := newTestServer(t)
		ts.db.Mock.ExpectExec(regexp.QuoteMeta("SELECT 1")).WillReturnError(errors.New("connection refused"))

		w := ts.do(t, "GET", "/healthz", 0, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.NotContains(t, w.Body.String(), "refused")
		assert.NoError(t, ts.db.VerifyExpectations())
	})
}

func TestWhoami(t *testing.T) {
	ts := newTestServer(t)

	ts.db.ExpectScope(scope.DefaultBinding(), 42)
	ts.db.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(current_setting($1, true), '')`)).
		WithArgs("app.current_user_id").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("42"))
	ts.db.Mock.ExpectCommit()

	w := ts.do(t, "GET", "/whoami", 42, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result WhoamiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, int64(42), result.UserID)
	assert.Equal(t, "42", result.Binding)
	assert.NotZero(t, result.ExpiresAt)
	assert.NoError(t, ts.db.VerifyExpectations())
}
