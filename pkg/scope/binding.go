package scope

import (
	"context"
	"fmt"
	"strings"

	"github.com/doodlesbykumbi/rlsnotes/pkg/server/store"
)

// DefaultBindingKey is the setting read by the notes row-level policy
const DefaultBindingKey = "app.current_user_id"

// Binding describes how identity is attached to a transaction
type Binding struct {
	// Key is the custom setting name, set with set_config(key, id, true)
	Key string
	// Role, when set, is assumed with SET LOCAL ROLE so that row-level
	// policies apply even to a superuser or table owner login
	Role string
}

// DefaultBinding returns the binding matching the shipped migrations
func DefaultBinding() Binding {
	return Binding{Key: DefaultBindingKey, Role: "rlsnotes_app"}
}

// Validate checks that Key is a two-part custom setting name
func (b Binding) Validate() error {
	parts := strings.Split(b.Key, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("binding key %q must have the form namespace.name", b.Key)
	}
	return nil
}

// Tx is one open transaction as seen by the runner
type Tx interface {
	// Bind attaches userID for the remainder of the transaction only
	Bind(ctx context.Context, userID int64) error
	// Notes returns the store bound to this transaction
	Notes() store.NotesStore
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Beginner opens transactions on a pooled connection
type Beginner interface {
	Begin(ctx context.Context) (Tx, error)
}
