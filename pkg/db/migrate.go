package db

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	migrations "github.com/doodlesbykumbi/rlsnotes/db"
)

// MigrationsTable is the bookkeeping table used by golang-migrate
const MigrationsTable = "rlsnotes_schema_migrations"

// Migrator wraps golang-migrate with the embedded migrations
type Migrator struct {
	m     *migrate.Migrate
	sqlDB *sql.DB
}

// OpenSQL opens a lib/pq connection pool for tooling that works below the store layer
func OpenSQL(dbURL string) (*sql.DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	sqlDB, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return sqlDB, nil
}

// NewMigrator opens a lib/pq connection and binds it to the embedded migration files
func NewMigrator(dbURL string) (*Migrator, error) {
	sqlDB, err := OpenSQL(dbURL)
	if err != nil {
		return nil, err
	}

	m, err := newMigrate(sqlDB, migrations.Migrations)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &Migrator{m: m, sqlDB: sqlDB}, nil
}

func newMigrate(sqlDB *sql.DB, files fs.FS) (*migrate.Migrate, error) {
	src, err := iofs.New(files, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs driver: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// Up applies all pending migrations. It reports whether anything changed.
func (m *Migrator) Up() (bool, error) {
	if err := m.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return false, nil
		}
		return false, fmt.Errorf("migration failed: %w", err)
	}
	return true, nil
}

// Down rolls back the given number of migrations
func (m *Migrator) Down(steps int) error {
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1")
	}
	if err := m.m.Steps(-steps); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}

// Version returns the applied version. applied is false on an empty database.
func (m *Migrator) Version() (version uint, dirty bool, applied bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, err
	}
	return version, dirty, true, nil
}

// Close releases the migration source and the database handle
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	_ = m.sqlDB.Close()
	return errors.Join(srcErr, dbErr)
}
