package pgx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/rlsnotes/pkg/db"
	"github.com/doodlesbykumbi/rlsnotes/pkg/scope"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server/store/storetest"
)

func TestScopedBindingPostgres(t *testing.T) {
	storetest.SkipUnlessIntegration(t)

	ctx := context.Background()
	connStr := storetest.StartPostgres(ctx, t)

	storetest.Run(t, func(t *testing.T) storetest.Backend {
		pool, err := db.ConnectPool(ctx, db.Config{URL: connStr, MaxOpenConns: 1})
		require.NoError(t, err)
		t.Cleanup(pool.Close)

		return storetest.Backend{
			Beginner: NewScope(pool, scope.DefaultBinding()),
			Setting: func(ctx context.Context, key string) (string, error) {
				var v string
				err := pool.QueryRow(ctx, "SELECT COALESCE(current_setting($1, true), '')", key).Scan(&v)
				return v, err
			},
			BackendPID: func(ctx context.Context) (int, error) {
				var pid int32
				err := pool.QueryRow(ctx, "SELECT pg_backend_pid()").Scan(&pid)
				return int(pid), err
			},
			Truncate: func(ctx context.Context) error {
				_, err := pool.Exec(ctx, "TRUNCATE notes RESTART IDENTITY")
				return err
			},
			Count: func(ctx context.Context) (int64, error) {
				var n int64
				err := pool.QueryRow(ctx, "SELECT count(*) FROM notes").Scan(&n)
				return n, err
			},
		}
	})
}

func TestHealthStorePostgres(t *testing.T) {
	storetest.SkipUnlessIntegration(t)

	ctx := context.Background()
	connStr := storetest.StartPostgres(ctx, t)

	pool, err := db.ConnectPool(ctx, db.Config{URL: connStr, MaxOpenConns: 2})
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, NewHealthStore(pool).CheckConnectivity(ctx))
}
