package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is a signed-in browser or API client.
type Session struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Token     string    `gorm:"size:64;not null;uniqueIndex"`
	UserID    string    `gorm:"size:36;not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
	UserAgent string    `gorm:"size:512"`
	IPAddress string    `gorm:"size:64"`
	CreatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
}

// BeforeCreate assigns a UUID when the caller did not set one.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
