package store

import (
	"context"
	"fmt"
	"time"

	"laundry-bot/internal/model"
)

// PendingNotificationsDue returns pending notifications whose due time has
// passed, oldest due first, bounded to limit rows.
func (s *gormStore) PendingNotificationsDue(ctx context.Context, now time.Time, limit int) ([]model.Notification, error) {
	var rows []model.Notification
	err := s.db.WithContext(ctx).
		Where("status = ? AND due_at <= ?", model.NotificationPending, now).
		Order("due_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due notifications: %w", err)
	}
	return rows, nil
}

// MarkNotificationSent moves a notification to its terminal sent state.
func (s *gormStore) MarkNotificationSent(ctx context.Context, id int64, sentAt time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":  model.NotificationSent,
			"sent_at": sentAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark notification %d sent: %w", id, err)
	}
	return nil
}

// MarkNotificationFailed moves a notification to its terminal failed state,
// recording the diagnostic note.
func (s *gormStore) MarkNotificationFailed(ctx context.Context, id int64, note string, failedAt time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":  model.NotificationFailed,
			"sent_at": failedAt,
			"notes":   note,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark notification %d failed: %w", id, err)
	}
	return nil
}

// CancelPendingNotifications fails every pending notification with the
// given reason. Used when a human completes the cycle before the timer
// fires, to prevent a stale duplicate announcement.
func (s *gormStore) CancelPendingNotifications(ctx context.Context, reason string) error {
	err := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("status = ?", model.NotificationPending).
		Updates(map[string]any{
			"status":  model.NotificationFailed,
			"sent_at": s.now(),
			"notes":   reason,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to cancel pending notifications: %w", err)
	}
	return nil
}
