package pgx

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/doodlesbykumbi/rlsnotes/pkg/server/store"
)

// Ensure NotesStore implements store.NotesStore
var _ store.NotesStore = (*NotesStore)(nil)

const noteColumns = "id, owner_id, title, body, created_at, updated_at"

// Querier is the subset of pgx.Tx used by NotesStore
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NotesStore implements store.NotesStore using pgx
type NotesStore struct {
	q          Querier
	bindingKey string
}

// NewNotesStore creates a new NotesStore. q should be a transaction with
// an identity already bound.
func NewNotesStore(q Querier, bindingKey string) *NotesStore {
	return &NotesStore{q: q, bindingKey: bindingKey}
}

type noteRow struct {
	ID        int64     `db:"id"`
	OwnerID   int64     `db:"owner_id"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r noteRow) toStore() store.Note {
	return store.Note(r)
}

func collectOne(rows pgx.Rows) (*store.Note, error) {
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[noteRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNoteNotFound
		}
		return nil, err
	}
	note := row.toStore()
	return &note, nil
}

// ListNotes returns the visible notes ordered by id
func (s *NotesStore) ListNotes(ctx context.Context) ([]store.Note, error) {
	rows, err := s.q.Query(ctx, "SELECT "+noteColumns+" FROM notes ORDER BY id")
	if err != nil {
		return nil, err
	}

	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[noteRow])
	if err != nil {
		return nil, err
	}

	notes := make([]store.Note, 0, len(collected))
	for _, row := range collected {
		notes = append(notes, row.toStore())
	}
	return notes, nil
}

// FetchNote returns one visible note
func (s *NotesStore) FetchNote(ctx context.Context, id int64) (*store.Note, error) {
	rows, err := s.q.Query(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return collectOne(rows)
}

// CreateNote inserts a note owned by n.OwnerID
func (s *NotesStore) CreateNote(ctx context.Context, n store.NewNote) (*store.Note, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.q.Query(ctx,
		"INSERT INTO notes (owner_id, title, body) VALUES ($1, $2, $3) RETURNING "+noteColumns,
		n.OwnerID, strings.TrimSpace(n.Title), n.Body,
	)
	if err != nil {
		return nil, err
	}
	return collectOne(rows)
}

// UpdateNote changes title and/or body of a visible note
func (s *NotesStore) UpdateNote(ctx context.Context, id int64, u store.NoteUpdate) (*store.Note, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	var title *string
	if u.Title != nil {
		trimmed := strings.TrimSpace(*u.Title)
		title = &trimmed
	}

	rows, err := s.q.Query(ctx, `
		UPDATE notes
		SET title = COALESCE($2, title),
		    body = COALESCE($3, body),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+noteColumns,
		id, title, u.Body,
	)
	if err != nil {
		return nil, err
	}
	return collectOne(rows)
}

// DeleteNote removes a visible note
func (s *NotesStore) DeleteNote(ctx context.Context, id int64) error {
	tag, err := s.q.Exec(ctx, "DELETE FROM notes WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNoteNotFound
	}
	return nil
}

// CurrentBinding returns the identity binding the database sees
func (s *NotesStore) CurrentBinding(ctx context.Context) (string, error) {
	var binding string
	err := s.q.QueryRow(ctx, "SELECT COALESCE(current_setting($1, true), '')", s.bindingKey).Scan(&binding)
	return binding, err
}
