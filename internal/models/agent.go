package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Agent is a configured AI participant that can join meetings.
type Agent struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"size:255;not null"`
	NameSearch   string `gorm:"size:255;not null;default:'';index"`
	Instructions string `gorm:"type:text;not null"`
	UserID       string `gorm:"size:36;not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BeforeCreate assigns a UUID when the caller did not set one and derives
// the search key.
func (a *Agent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.NameSearch = SearchKey(a.Name)
	return nil
}

// SearchKey folds a name for case-insensitive substring search. It is
// stored alongside the name because SQLite's LOWER only folds ASCII.
func SearchKey(name string) string {
	return strings.ToLower(name)
}
