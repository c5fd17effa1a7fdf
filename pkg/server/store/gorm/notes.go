package gorm

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/rlsnotes/pkg/model"
	"github.com/doodlesbykumbi/rlsnotes/pkg/server/store"
)

// Ensure NotesStore implements store.NotesStore
var _ store.NotesStore = (*NotesStore)(nil)

// NotesStore implements store.NotesStore using GORM
type NotesStore struct {
	db         *gorm.DB
	bindingKey string
}

// NewNotesStore creates a new NotesStore. db should be a transaction with
// an identity already bound.
func NewNotesStore(db *gorm.DB, bindingKey string) *NotesStore {
	return &NotesStore{db: db, bindingKey: bindingKey}
}

// ListNotes returns the visible notes ordered by id
func (s *NotesStore) ListNotes(ctx context.Context) ([]store.Note, error) {
	var rows []model.Note
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	notes := make([]store.Note, 0, len(rows))
	for _, row := range rows {
		notes = append(notes, toStore(row))
	}
	return notes, nil
}

// FetchNote returns one visible note
func (s *NotesStore) FetchNote(ctx context.Context, id int64) (*store.Note, error) {
	var row model.Note
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNoteNotFound
		}
		return nil, err
	}

	note := toStore(row)
	return &note, nil
}

// CreateNote inserts a note owned by n.OwnerID
func (s *NotesStore) CreateNote(ctx context.Context, n store.NewNote) (*store.Note, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	row := model.Note{
		OwnerID: n.OwnerID,
		Title:   n.Title,
		Body:    n.Body,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}

	note := toStore(row)
	return &note, nil
}

// UpdateNote changes title and/or body of a visible note
func (s *NotesStore) UpdateNote(ctx context.Context, id int64, u store.NoteUpdate) (*store.Note, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{
		"updated_at": gorm.Expr("now()"),
	}
	if u.Title != nil {
		changes["title"] = strings.TrimSpace(*u.Title)
	}
	if u.Body != nil {
		changes["body"] = *u.Body
	}

	tx := s.db.WithContext(ctx).Model(&model.Note{}).Where("id = ?", id).Updates(changes)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, store.ErrNoteNotFound
	}

	return s.FetchNote(ctx, id)
}

// DeleteNote removes a visible note
func (s *NotesStore) DeleteNote(ctx context.Context, id int64) error {
	tx := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Note{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrNoteNotFound
	}
	return nil
}

// CurrentBinding returns the identity binding the database sees
func (s *NotesStore) CurrentBinding(ctx context.Context) (string, error) {
	var binding string
	err := s.db.WithContext(ctx).
		Raw("SELECT COALESCE(current_setting(?, true), '')", s.bindingKey).
		Scan(&binding).Error
	return binding, err
}

func toStore(row model.Note) store.Note {
	return store.Note{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Title:     row.Title,
		Body:      row.Body,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
