package integration

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/rlsnotes/pkg/authenticator"
	"github.com/doodlesbykumbi/rlsnotes/pkg/db"
	"github.com/doodlesbykumbi/rlsnotes/pkg/scope"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server/endpoints"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server/store"
	gormstore "github.com/doodlesbykumbi/rlsnotes/pkg/server/store/gorm"
	pgxstore "github.com/doodlesbykumbi/rlsnotes/pkg/server/store/pgx"
)

const (
	tokenSecret = "integration-secret"
	tokenIssuer = "rlsnotes"
	serverPort  = 18080
)

// TestContext holds all the resources needed for integration tests
type TestContext struct {
	// DB connects as the container superuser, which bypasses row-level
	// security, so assertions see every row
	DB            *gorm.DB
	Container     testcontainers.Container
	ServerURL     string
	DatabaseURL   string
	Tokens        *authenticator.Token
	HTTPClient    *http.Client
	Cancel        context.CancelFunc
	ServerProcess *exec.Cmd
	InlineServer  *server.Server
}

// NewTestContext creates a new test context with a PostgreSQL testcontainer
// and a server on the given store backend (gorm or pgx).
// Modes:
//   - Binary mode: set RLSNOTES_BINARY to the path of the rlsctl binary
//   - Inline mode (default): the server runs in-process
func NewTestContext(ctx context.Context, backend string) (*TestContext, error) {
	binaryPath := os.Getenv("RLSNOTES_BINARY")
	if binaryPath != "" {
		if _, err := os.Stat(binaryPath); err != nil {
			return nil, fmt.Errorf("RLSNOTES_BINARY path does not exist: %s", binaryPath)
		}
		log.Printf("Using binary: %s", binaryPath)
	} else {
		log.Println("Using inline server mode")
	}

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
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	if err := migrate(connStr); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, err
	}

	assertDB, err := db.Connect(db.Config{URL: connStr, MaxOpenConns: 2})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	tokens, err := authenticator.NewToken(tokenSecret, tokenIssuer, time.Hour)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, err
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", serverPort)

	var serverProcess *exec.Cmd
	var inlineServer *server.Server
	var cancel context.CancelFunc

	if binaryPath == "" {
		inlineServer, cancel, err = startInlineServer(ctx, connStr, tokens, backend)
		if err != nil {
			_ = pgContainer.Terminate(ctx)
			return nil, fmt.Errorf("failed to start inline server: %w", err)
		}
	} else {
		serverProcess, cancel, err = startBinary(binaryPath, connStr, backend)
		if err != nil {
			_ = pgContainer.Terminate(ctx)
			return nil, fmt.Errorf("failed to start server binary: %w", err)
		}
	}

	if err := waitForServer(serverURL, 30*time.Second); err != nil {
		cancel()
		if serverProcess != nil && serverProcess.Process != nil {
			_ = serverProcess.Process.Kill()
		}
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return &TestContext{
		DB:            assertDB,
		Container:     pgContainer,
		ServerURL:     serverURL,
		DatabaseURL:   connStr,
		Tokens:        tokens,
		HTTPClient:    &http.Client{Timeout: 10 * time.Second},
		Cancel:        cancel,
		ServerProcess: serverProcess,
		InlineServer:  inlineServer,
	}, nil
}

func migrate(connStr string) error {
	m, err := db.NewMigrator(connStr)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = m.Close() }()
	if _, err := m.Up(); err != nil {
		return err
	}
	return nil
}

// startInlineServer runs the server in-process on a pool of one connection,
// so every request reuses the previous request's connection
func startInlineServer(ctx context.Context, connStr string, tokens *authenticator.Token, backend string) (*server.Server, context.CancelFunc, error) {
	dbCfg := db.Config{URL: connStr, MaxOpenConns: 1, MaxIdleConns: 1}

	var (
		beginner scope.Beginner
		health   store.HealthStore
		closeDB  func()
	)
	switch backend {
	case "pgx":
		pool, err := db.ConnectPool(ctx, dbCfg)
		if err != nil {
			return nil, nil, err
		}
		beginner = pgxstore.NewScope(pool, scope.DefaultBinding())
		health = pgxstore.NewHealthStore(pool)
		closeDB = pool.Close
	default:
		gormDB, err := db.Connect(dbCfg)
		if err != nil {
			return nil, nil, err
		}
		beginner = gormstore.NewScope(gormDB, scope.DefaultBinding())
		health = gormstore.NewHealthStore(gormDB)
		closeDB = func() {
			if sqlDB, err := gormDB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
	}

	runner := scope.NewRunner(beginner, scope.WithTimeout(5*time.Second))
	s := server.NewServer(runner, health, tokens, nil, nil, server.Options{
		Addr:    "127.0.0.1:" + strconv.Itoa(serverPort),
		Version: "integration",
	})
	endpoints.RegisterAll(s)

	go func() {
		if err := s.Start(); err != nil {
			log.Printf("inline server stopped: %v", err)
		}
	}()

	cancel := func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = s.Shutdown(shutdownCtx)
		closeDB()
	}
	return s, cancel, nil
}

// startBinary starts the rlsctl server binary
func startBinary(binaryPath, dbURL, backend string) (*exec.Cmd, context.CancelFunc, error) {
	ctx, cancel := context.WithCancel(context.Background())

	// Migrations already ran in the test setup
	cmd := exec.CommandContext(ctx, binaryPath, "server", "--no-migrate", "-b", "127.0.0.1", "-p", strconv.Itoa(serverPort))
	cmd.Env = append(os.Environ(),
		"DATABASE_URL="+dbURL,
		"RLSNOTES_STORE_BACKEND="+backend,
		"RLSNOTES_TOKEN_SECRET="+tokenSecret,
		"RLSNOTES_TOKEN_ISSUER="+tokenIssuer,
		"RLSNOTES_MAX_OPEN_CONNS=1",
		"RLSNOTES_MAX_IDLE_CONNS=1",
		"RLSNOTES_AUDIT_ENABLED=false",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to start binary: %w", err)
	}

	return cmd, cancel, nil
}

// waitForServer polls the health endpoint until the server can reach the database
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.Cancel != nil {
		tc.Cancel()
	}
	if tc.ServerProcess != nil && tc.ServerProcess.Process != nil {
		_ = tc.ServerProcess.Process.Kill()
		_ = tc.ServerProcess.Wait()
	}
	if tc.DB != nil {
		if sqlDB, err := tc.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}
