package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Note maps a row of the notes table. Which rows a query can see is
// decided by the notes_owner_isolation policy, not by this model.
type Note struct {
	ID        int64 `gorm:"primaryKey"`
	OwnerID   int64 `gorm:"column:owner_id"`
	Title     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (n Note) TableName() string {
	return "notes"
}

func (n *Note) BeforeSave(tx *gorm.DB) error {
	n.Title = strings.TrimSpace(n.Title)
	return nil
}
