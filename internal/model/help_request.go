package model

import "time"

// Help request lifecycle states.
const (
	HelpRequestActive   = "active"
	HelpRequestResolved = "resolved"
)

// HelpRequest is a user-submitted offer of a laundry chore. Requests move
// from active to resolved and are never physically deleted.
type HelpRequest struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	UserID      string    `gorm:"size:64;not null"`
	UserName    string    `gorm:"size:128;not null"`
	RequestType string    `gorm:"size:64;not null"`
	Status      string    `gorm:"size:32;not null;index"`
	CreatedAt   time.Time `gorm:"not null;index"`
	ResolvedAt  *time.Time
}
