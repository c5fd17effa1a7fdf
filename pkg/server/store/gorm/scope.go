package gorm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/rlsnotes/pkg/scope"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server/store"
)

// Ensure Scope implements scope.Beginner
var _ scope.Beginner = (*Scope)(nil)

// Scope opens scoped transactions on a GORM pool
type Scope struct {
	db      *gorm.DB
	binding scope.Binding
}

// NewScope creates a new Scope
func NewScope(db *gorm.DB, binding scope.Binding) *Scope {
	return &Scope{db: db, binding: binding}
}

// Begin opens a transaction on a pooled connection
func (s *Scope) Begin(ctx context.Context) (scope.Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &Tx{tx: tx, binding: s.binding}, nil
}

// Tx is a GORM transaction carrying one identity binding
type Tx struct {
	tx      *gorm.DB
	binding scope.Binding
}

// Bind assumes the application role and sets the identity, both for this
// transaction only
func (t *Tx) Bind(ctx context.Context, userID int64) error {
	db := t.tx.WithContext(ctx)

	if t.binding.Role != "" {
		if err := db.Exec("SET LOCAL ROLE " + pq.QuoteIdentifier(t.binding.Role)).Error; err != nil {
			return fmt.Errorf("set role: %w", err)
		}
	}

	var bound string
	err := db.Raw("SELECT set_config(?, ?, true)", t.binding.Key, strconv.FormatInt(userID, 10)).Scan(&bound).Error
	if err != nil {
		return fmt.Errorf("set %s: %w", t.binding.Key, err)
	}
	return nil
}

// Notes returns the notes store bound to this transaction
func (t *Tx) Notes() store.NotesStore {
	return NewNotesStore(t.tx, t.binding.Key)
}

// Commit commits the transaction
func (t *Tx) Commit(context.Context) error {
	return t.tx.Commit().Error
}

// Rollback rolls the transaction back. Rolling back a transaction that
// database/sql already ended after a cancelled context or failed commit is not an error.
func (t *Tx) Rollback(context.Context) error {
	err := t.tx.Rollback().Error
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
