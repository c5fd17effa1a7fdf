package storetest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/doodlesbykumbi/rlsnotes/pkg/db"
)

// SkipUnlessIntegration skips t unless INTEGRATION_TEST is set
func SkipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") == "" {
		t.Skip("Skipping integration tests. Set INTEGRATION_TEST=1 to run.")
	}
}

// StartPostgres runs a PostgreSQL container with all migrations applied and
// returns its connection string. The container is removed when t finishes.
// The login is the container superuser, so the suite also proves that
// SET LOCAL ROLE makes the policy apply to privileged logins.
func StartPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("rlsnotes_test"),
		tcpostgres.WithUsername("rlsnotes"),
		tcpostgres.WithPassword("rlsnotes"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := Migrate(connStr); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return connStr
}

// Migrate applies the embedded migrations
func Migrate(connStr string) error {
	m, err := db.NewMigrator(connStr)
	if err != nil {
		return err
	}
	defer m.Close()

	if _, err := m.Up(); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
