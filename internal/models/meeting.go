package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Meeting statuses.
const (
	MeetingUpcoming   = "upcoming"
	MeetingActive     = "active"
	MeetingCompleted  = "completed"
	MeetingProcessing = "processing"
	MeetingCancelled  = "cancelled"
)

// MeetingStatuses lists every valid meeting status in lifecycle order.
var MeetingStatuses = []string{
	MeetingUpcoming,
	MeetingActive,
	MeetingCompleted,
	MeetingProcessing,
	MeetingCancelled,
}

// Meeting is a scheduled or completed call with one agent.
type Meeting struct {
	ID            string `gorm:"primaryKey;size:36"`
	Name          string `gorm:"size:255;not null"`
	NameSearch    string `gorm:"size:255;not null;default:'';index"`
	AgentID       string `gorm:"size:36;not null;index"`
	UserID        string `gorm:"size:36;not null;index"`
	Status        string `gorm:"size:16;not null;default:upcoming;index"`
	StartedAt     *time.Time
	EndedAt       *time.Time
	TranscriptURL string    `gorm:"size:1024"`
	RecordingURL  string    `gorm:"size:1024"`
	Summary       string    `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time

	Agent Agent `gorm:"foreignKey:AgentID"`
}

// BeforeCreate assigns a UUID and the default status when unset, and
// derives the search key.
func (m *Meeting) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = MeetingUpcoming
	}
	m.NameSearch = SearchKey(m.Name)
	return nil
}

// Duration returns EndedAt - StartedAt, or nil when either end is missing.
func (m *Meeting) Duration() *time.Duration {
	if m.StartedAt == nil || m.EndedAt == nil {
		return nil
	}
	d := m.EndedAt.Sub(*m.StartedAt)
	return &d
}

// ValidMeetingStatus reports whether s is a known meeting status.
func ValidMeetingStatus(s string) bool {
	for _, v := range MeetingStatuses {
		if v == s {
			return true
		}
	}
	return false
}
