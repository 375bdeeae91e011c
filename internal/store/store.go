package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"laundry-bot/internal/laundry"
	"laundry-bot/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	// DB exposes the underlying gorm handle for the HTTP layer and the web
	// push fanout.
	DB() *gorm.DB

	// GetStatus returns the most recently updated status record, or nil if
	// none has ever been written.
	GetStatus(ctx context.Context) (*model.LaundryStatus, error)
	// MarkStarted flips the machine to in_use, appends a history entry, and
	// schedules a completion notification when chatID is non-zero. All
	// writes happen in one transaction.
	MarkStarted(ctx context.Context, userID, userName string, chatID int64) (StartResult, error)
	// MarkCompleted flips the machine to available and appends a history
	// entry, in one transaction.
	MarkCompleted(ctx context.Context, updatedByName string) error

	CreateHelpRequests(ctx context.Context, userID, userName string, requestTypes []string) error
	ActiveHelpRequests(ctx context.Context) ([]model.HelpRequest, error)
	ResolveHelpRequests(ctx context.Context, ids []int64) error

	PendingNotificationsDue(ctx context.Context, now time.Time, limit int) ([]model.Notification, error)
	MarkNotificationSent(ctx context.Context, id int64, sentAt time.Time) error
	MarkNotificationFailed(ctx context.Context, id int64, note string, failedAt time.Time) error
	CancelPendingNotifications(ctx context.Context, reason string) error
}

// StartResult reports what MarkStarted scheduled. NotificationID is zero
// when no destination chat was supplied.
type StartResult struct {
	ExpectedDoneAt time.Time
	NotificationID int64
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, now: time.Now}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) GetStatus(ctx context.Context) (*model.LaundryStatus, error) {
	var row model.LaundryStatus
	err := s.db.WithContext(ctx).
		Where("machine_type = ?", model.MachineTypeLaundry).
		Order("updated_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch laundry status: %w", err)
	}
	return &row, nil
}

func (s *gormStore) MarkStarted(ctx context.Context, userID, userName string, chatID int64) (StartResult, error) {
	startedAt := s.now()
	expectedDoneAt := startedAt.Add(laundry.CycleDuration)
	result := StartResult{ExpectedDoneAt: expectedDoneAt}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		startNotes := "Started via /laundry"
		status := model.LaundryStatus{
			MachineType:     model.MachineTypeLaundry,
			Status:          model.StatusInUse,
			CurrentUserID:   &userID,
			CurrentUserName: &userName,
			StartedAt:       &startedAt,
			ExpectedDoneAt:  &expectedDoneAt,
			UpdatedAt:       startedAt,
			UpdatedByUserID: &userID,
			UpdatedByName:   &userName,
		}
		if err := upsertStatus(tx, status); err != nil {
			return err
		}

		history := model.LaundryStatusHistory{
			MachineType:     model.MachineTypeLaundry,
			Status:          model.StatusInUse,
			UserID:          &userID,
			UserName:        &userName,
			StartedAt:       &startedAt,
			UpdatedAt:       startedAt,
			UpdatedByUserID: &userID,
			UpdatedByName:   &userName,
			Notes:           &startNotes,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to append status history: %w", err)
		}

		if chatID == 0 {
			return nil
		}

		notification := model.Notification{
			ChatID:          chatID,
			Message:         "Laundry should be done now.",
			DueAt:           expectedDoneAt,
			Status:          model.NotificationPending,
			CreatedAt:       startedAt,
			CreatedByUserID: userID,
			CreatedByName:   userName,
		}
		if err := tx.Create(&notification).Error; err != nil {
			return fmt.Errorf("failed to schedule completion notification: %w", err)
		}
		result.NotificationID = notification.ID
		return nil
	})
	if err != nil {
		return StartResult{}, err
	}
	return result, nil
}

func (s *gormStore) MarkCompleted(ctx context.Context, updatedByName string) error {
	completedAt := s.now()
	if updatedByName == "" {
		updatedByName = "LaundryBot"
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		status := model.LaundryStatus{
			MachineType:   model.MachineTypeLaundry,
			Status:        model.StatusAvailable,
			UpdatedAt:     completedAt,
			UpdatedByName: &updatedByName,
		}
		if err := upsertStatus(tx, status); err != nil {
			return err
		}

		completedNotes := "Laundry cycle completed."
		history := model.LaundryStatusHistory{
			MachineType:   model.MachineTypeLaundry,
			Status:        model.StatusAvailable,
			EndedAt:       &completedAt,
			UpdatedAt:     completedAt,
			UpdatedByName: &updatedByName,
			Notes:         &completedNotes,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to append status history: %w", err)
		}
		return nil
	})
}

// upsertStatus replaces the authoritative row for the machine type,
// creating it on first use. The replacement overwrites every mutable field,
// including the ones being cleared to NULL.
func upsertStatus(tx *gorm.DB, status model.LaundryStatus) error {
	var existing model.LaundryStatus
	err := tx.Where("machine_type = ?", status.MachineType).
		Order("updated_at DESC").
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := tx.Create(&status).Error; err != nil {
			return fmt.Errorf("failed to create laundry status: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch laundry status for update: %w", err)
	}

	status.ID = existing.ID
	if err := tx.Save(&status).Error; err != nil {
		return fmt.Errorf("failed to update laundry status: %w", err)
	}
	return nil
}
