package endpoints

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/rlsnotes/pkg/authenticator"
	"github.com/doodlesbykumbi/rlsnotes/pkg/scope"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server"
	gormstore "github.com/doodlesbykumbi/rlsnotes/pkg/server/store/gorm"
)

const testSecret = "endpoints-test-secret"

type testServer struct {
	*server.Server
	db     *gormstore.MockDB
	tokens *authenticator.Token
}

// newTestServer wires every endpoint to a gorm backend over sqlmock
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mockDB, err := gormstore.NewMockDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	tokens, err := authenticator.NewToken(testSecret, "rlsnotes", time.Minute)
	require.NoError(t, err)

	runner := scope.NewRunner(gormstore.NewScope(mockDB.GormDB, scope.DefaultBinding()))
	s := server.NewServer(runner, gormstore.NewHealthStore(mockDB.GormDB), tokens, nil, nil, server.Options{Version: "test"})
	RegisterAll(s)

	return &testServer{Server: s, db: mockDB, tokens: tokens}
}

func (ts *testServer) do(t *testing.T, method, path string, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID > 0 {
		token, _, err := ts.tokens.Issue(userID, 0)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func noteRows() *sqlmock.Rows {
	return sqlmock.NewRows(gormstore.NoteColumns)
}
