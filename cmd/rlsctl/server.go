package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/doodlesbykumbi/rlsnotes/pkg/audit"
	"github.com/doodlesbykumbi/rlsnotes/pkg/authenticator"
	"github.com/doodlesbykumbi/rlsnotes/pkg/config"
	"github.com/doodlesbykumbi/rlsnotes/pkg/db"
	"github.com/doodlesbykumbi/rlsnotes/pkg/logger"
	"github.com/doodlesbykumbi/rlsnotes/pkg/scope"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server/endpoints"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server/store"
	gormstore "github.com/doodlesbykumbi/rlsnotes/pkg/server/store/gorm"
	pgxstore "github.com/doodlesbykumbi/rlsnotes/pkg/server/store/pgx"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the rlsnotes API server",
	Long: `Run the rlsnotes API server.

The server requires DATABASE_URL and RLSNOTES_TOKEN_SECRET, either in the
environment, a dotenv file or rlsnotes.yml.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind-address") {
			cfg.BindAddress, _ = cmd.Flags().GetString("bind-address")
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}
		if cfg.DatabaseURL == "" {
			fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
			os.Exit(1)
		}

		log, level, err := logger.New(cfg.LogLevel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = log.Sync() }()

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			log.Info("running database migrations")
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				log.Fatalw("migration failed", "error", err)
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		watch, _ := cmd.Flags().GetBool("watch-config")
		if err := runServer(ctx, cfg, log, level, watch); err != nil {
			log.Fatalw("server failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().IntP("port", "p", 8000, "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", "0.0.0.0", "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().Bool("watch-config", false, "reload the log level when rlsnotes.yml changes")
}

// backend is the store implementation selected by store_backend
type backend struct {
	beginner scope.Beginner
	health   store.HealthStore
	sqlDB    *sql.DB
	close    func()
}

func openBackend(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*backend, error) {
	binding := scope.Binding{Key: cfg.BindingKey, Role: cfg.Role()}
	if err := binding.Validate(); err != nil {
		return nil, err
	}
	dbCfg := db.FromConfig(cfg, log)

	switch cfg.StoreBackend {
	case "pgx":
		pool, err := db.ConnectPool(ctx, dbCfg)
		if err != nil {
			return nil, err
		}
		sqlDB := stdlib.OpenDBFromPool(pool)
		return &backend{
			beginner: pgxstore.NewScope(pool, binding),
			health:   pgxstore.NewHealthStore(pool),
			sqlDB:    sqlDB,
			close: func() {
				_ = sqlDB.Close()
				pool.Close()
			},
		}, nil
	default:
		gormDB, err := db.Connect(dbCfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, err
		}
		return &backend{
			beginner: gormstore.NewScope(gormDB, binding),
			health:   gormstore.NewHealthStore(gormDB),
			sqlDB:    sqlDB,
			close:    func() { _ = sqlDB.Close() },
		}, nil
	}
}

func runServer(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger, level zap.AtomicLevel, watch bool) error {
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer b.close()

	auditLog := audit.NewLogger(cfg.IsAuditEnabled())
	auditLog.SetStore(audit.NewStore(b.sqlDB))
	auditLog.SetErrorLog(log)

	tokens, err := authenticator.NewToken(cfg.TokenSecret, cfg.TokenIssuer, cfg.TokenLifetime())
	if err != nil {
		return err
	}

	runner := scope.NewRunner(b.beginner,
		scope.WithLogger(log),
		scope.WithAudit(auditLog),
		scope.WithTimeout(cfg.RequestTimeoutDuration()),
	)

	s := server.NewServer(runner, b.health, tokens, log, auditLog, server.Options{
		Addr:    cfg.Addr(),
		Version: version,
	})
	endpoints.RegisterAll(s)

	if watch {
		go func() {
			err := config.Watch(ctx, cfg.ConfigFilePath(), func(next *config.Config) {
				if err := logger.SetLevel(level, next.LogLevel); err != nil {
					log.Warnw("ignoring log level from reloaded config", "error", err)
					return
				}
				log.Infow("configuration reloaded", "log_level", next.LogLevel)
			}, func(err error) {
				log.Warnw("config watch", "error", err)
			})
			if err != nil {
				log.Warnw("config watch stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	log.Infow("running server", "addr", cfg.Addr(), "store_backend", cfg.StoreBackend, "version", version)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	select {
	case err := <-errCh:
		return err
	case <-time.After(time.Second):
		return nil
	}
}
