package gorm

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
		gormDB, err := db.Connect(db.Config{URL: connStr, MaxOpenConns: 1, MaxIdleConns: 1})
		require.NoError(t, err)
		sqlDB, err := gormDB.DB()
		require.NoError(t, err)
		t.Cleanup(func() { _ = sqlDB.Close() })

		return storetest.Backend{
			Beginner: NewScope(gormDB, scope.DefaultBinding()),
			Setting: func(ctx context.Context, key string) (string, error) {
				var v string
				err := gormDB.WithContext(ctx).Raw("SELECT COALESCE(current_setting(?, true), '')", key).Scan(&v).Error
				return v, err
			},
			BackendPID: func(ctx context.Context) (int, error) {
				var pid int
				err := gormDB.WithContext(ctx).Raw("SELECT pg_backend_pid()").Scan(&pid).Error
				return pid, err
			},
			Truncate: func(ctx context.Context) error {
				return gormDB.WithContext(ctx).Exec("TRUNCATE notes RESTART IDENTITY").Error
			},
			Count: func(ctx context.Context) (int64, error) {
				var n int64
				err := gormDB.WithContext(ctx).Raw("SELECT count(*) FROM notes").Scan(&n).Error
				return n, err
			},
		}
	})
}
