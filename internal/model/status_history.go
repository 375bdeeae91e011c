package model

import "time"

// LaundryStatusHistory is the append-only audit log of status transitions.
// Rows are never updated or deleted.
type LaundryStatusHistory struct {
	ID              int64   `gorm:"primaryKey;autoIncrement"`
	MachineType     string  `gorm:"size:32;not null;index"`
	Status          string  `gorm:"size:32;not null"`
	UserID          *string `gorm:"size:64"`
	UserName        *string `gorm:"size:128"`
	StartedAt       *time.Time
	EndedAt         *time.Time
	UpdatedAt       time.Time `gorm:"not null;index"`
	UpdatedByUserID *string   `gorm:"size:64"`
	UpdatedByName   *string   `gorm:"size:128"`
	Notes           *string   `gorm:"size:512"`
}
