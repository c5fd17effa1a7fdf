package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the longest accepted note title, in characters
const MaxTitleLength = 200

// ErrNoteNotFound is returned when a note doesn't exist or is not visible
// to the bound identity. The row-level policy makes the two cases
// indistinguishable.
var ErrNoteNotFound = errors.New("note not found")

// ErrInvalidNote is returned for input rejected before reaching the database
var ErrInvalidNote = errors.New("invalid note")

// Note is a row of the notes table as seen through the row-level policy
type Note struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewNote is the input for CreateNote
type NewNote struct {
	OwnerID int64
	Title   string
	Body    string
}

// Validate checks the fields the database would otherwise reject
func (n NewNote) Validate() error {
	if n.OwnerID <= 0 {
		return fmt.Errorf("%w: owner_id must be positive", ErrInvalidNote)
	}
	return validateTitle(n.Title)
}

// NoteUpdate carries the fields to change; nil fields are left as they are
type NoteUpdate struct {
	Title *string
	Body  *string
}

// Validate requires at least one field and a valid title when one is given
func (u NoteUpdate) Validate() error {
	if u.Title == nil && u.Body == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidNote)
	}
	if u.Title != nil {
		return validateTitle(*u.Title)
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidNote)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidNote, MaxTitleLength)
	}
	return nil
}

// NotesStore is the set of operations available inside one scoped
// transaction. Every call runs under the identity bound to that
// transaction, so implementations never filter by owner themselves.
type NotesStore interface {
	// ListNotes returns the visible notes ordered by id.
	ListNotes(ctx context.Context) ([]Note, error)

	// FetchNote returns one note.
	// Returns ErrNoteNotFound if the note doesn't exist or is not visible.
	FetchNote(ctx context.Context, id int64) (*Note, error)

	// CreateNote inserts a note. A row whose owner differs from the bound
	// identity is rejected by the policy's WITH CHECK clause.
	CreateNote(ctx context.Context, n NewNote) (*Note, error)

	// UpdateNote changes title and/or body.
	// Returns ErrNoteNotFound if no visible row matched.
	UpdateNote(ctx context.Context, id int64, u NoteUpdate) (*Note, error)

	// DeleteNote removes a note.
	// Returns ErrNoteNotFound if no visible row matched.
	DeleteNote(ctx context.Context, id int64) error

	// CurrentBinding returns the identity binding as the database sees it,
	// or "" when none is set.
	CurrentBinding(ctx context.Context) (string, error)
}
