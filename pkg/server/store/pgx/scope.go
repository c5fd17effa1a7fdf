package pgx

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doodlesbykumbi/rlsnotes/pkg/scope"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server/store"
)

// Ensure Scope implements scope.Beginner
var _ scope.Beginner = (*Scope)(nil)

// Scope opens scoped transactions on a pgx pool
type Scope struct {
	pool    *pgxpool.Pool
	binding scope.Binding
}

// NewScope creates a new Scope
func NewScope(pool *pgxpool.Pool, binding scope.Binding) *Scope {
	return &Scope{pool: pool, binding: binding}
}

// Begin opens a transaction on a pooled connection
func (s *Scope) Begin(ctx context.Context) (scope.Tx, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, binding: s.binding}, nil
}

// Tx is a pgx transaction carrying one identity binding
type Tx struct {
	tx      pgx.Tx
	binding scope.Binding
}

// Bind assumes the application role and sets the identity, both for this
// transaction only
func (t *Tx) Bind(ctx context.Context, userID int64) error {
	if t.binding.Role != "" {
		if _, err := t.tx.Exec(ctx, "SET LOCAL ROLE "+pgx.Identifier{t.binding.Role}.Sanitize()); err != nil {
			return fmt.Errorf("set role: %w", err)
		}
	}

	if _, err := t.tx.Exec(ctx, "SELECT set_config($1, $2, true)", t.binding.Key, strconv.FormatInt(userID, 10)); err != nil {
		return fmt.Errorf("set %s: %w", t.binding.Key, err)
	}
	return nil
}

// Notes returns the notes store bound to this transaction
func (t *Tx) Notes() store.NotesStore {
	return NewNotesStore(t.tx, t.binding.Key)
}

// Commit commits the transaction
func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback rolls the transaction back. Rolling back a finished
// transaction is not an error.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
