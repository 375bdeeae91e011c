package model

import "time"

// Machine status values.
const (
	StatusAvailable   = "available"
	StatusInUse       = "in_use"
	StatusMaintenance = "maintenance"
)

// MachineTypeLaundry is the only machine type tracked today. The column
// exists so a second machine (dryer, dishwasher) can share the tables.
const MachineTypeLaundry = "laundry"

// LaundryStatus is the authoritative status record for one machine type.
// Rows are updated in place, never deleted; readers take the most recently
// updated row only.
type LaundryStatus struct {
	ID              int64   `gorm:"primaryKey"`
	MachineType     string  `gorm:"size:32;not null;index"`
	Status          string  `gorm:"size:32;not null"`
	CurrentUserID   *string `gorm:"size:64"`
	CurrentUserName *string `gorm:"size:128"`
	StartedAt       *time.Time
	ExpectedDoneAt  *time.Time
	UpdatedAt       time.Time `gorm:"not null;index"`
	UpdatedByUserID *string   `gorm:"size:64"`
	UpdatedByName   *string   `gorm:"size:128"`
	Notes           *string   `gorm:"size:512"`
}
