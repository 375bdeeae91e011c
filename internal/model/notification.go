package model

import "time"

// Notification delivery states. Pending rows become sent or failed and are
// never revisited after that.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// Notification is a scheduled one-shot completion reminder. One is created
// per cycle start when a destination chat is known.
type Notification struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	ChatID          int64     `gorm:"not null"`
	Message         string    `gorm:"size:512;not null"`
	DueAt           time.Time `gorm:"not null;index"`
	Status          string    `gorm:"size:32;not null;index"`
	CreatedAt       time.Time `gorm:"not null"`
	CreatedByUserID string    `gorm:"size:64"`
	CreatedByName   string    `gorm:"size:128"`
	SentAt          *time.Time
	Notes           *string `gorm:"size:512"`
}
