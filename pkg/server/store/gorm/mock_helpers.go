package gorm

import (
	"database/sql"
	"regexp"
	"strconv"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/doodlesbykumbi/rlsnotes/pkg/scope"
)

// MockDB wraps sqlmock for easier test setup
type MockDB struct {
	DB     *sql.DB
	Mock   sqlmock.Sqlmock
	GormDB *gorm.DB
}

// NewMockDB creates a new mock database connection
func NewMockDB() (*MockDB, error) {
	db, mock, err := sqlmock.New()
	if err != nil {
		return nil, err
	}

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{
			Conn:                 db,
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		},
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &MockDB{
		DB:     db,
		Mock:   mock,
		GormDB: gormDB,
	}, nil
}

// Close closes the mock database
func (m *MockDB) Close() error {
	return m.DB.Close()
}

// ExpectScope sets up expectations for BEGIN followed by the identity binding
func (m *MockDB) ExpectScope(binding scope.Binding, userID int64) {
	m.Mock.ExpectBegin()
	if binding.Role != "" {
		m.Mock.ExpectExec(regexp.QuoteMeta("SET LOCAL ROLE " + pq.QuoteIdentifier(binding.Role))).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	id := strconv.FormatInt(userID, 10)
	m.Mock.ExpectQuery(regexp.QuoteMeta("SELECT set_config($1, $2, true)")).
		WithArgs(binding.Key, id).
		WillReturnRows(sqlmock.NewRows([]string{"set_config"}).AddRow(id))
}

// NoteColumns are the columns returned for a notes row
var NoteColumns = []string{"id", "owner_id", "title", "body", "created_at", "updated_at"}

// VerifyExpectations checks that all expectations were met
func (m *MockDB) VerifyExpectations() error {
	return m.Mock.ExpectationsWereMet()
}
