package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"laundry-bot/internal/model"
)

// CreateHelpRequests inserts one active row per requested type. An empty
// list is a no-op; all inserts share one transaction.
func (s *gormStore) CreateHelpRequests(ctx context.Context, userID, userName string, requestTypes []string) error {
	if len(requestTypes) == 0 {
		return nil
	}

	createdAt := s.now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, requestType := range requestTypes {
			request := model.HelpRequest{
				UserID:      userID,
				UserName:    userName,
				RequestType: requestType,
				Status:      model.HelpRequestActive,
				CreatedAt:   createdAt,
			}
			if err := tx.Create(&request).Error; err != nil {
				return fmt.Errorf("failed to create help request %q: %w", requestType, err)
			}
		}
		return nil
	})
}

// ActiveHelpRequests returns all active rows, oldest first. Menu labels and
// completion reports rely on this ordering.
func (s *gormStore) ActiveHelpRequests(ctx context.Context) ([]model.HelpRequest, error) {
	var rows []model.HelpRequest
	err := s.db.WithContext(ctx).
		Where("status = ?", model.HelpRequestActive).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active help requests: %w", err)
	}
	return rows, nil
}

// ResolveHelpRequests marks the given ids resolved. Only currently active
// rows are touched, so resolving an already-resolved or unknown id is a
// silent no-op for that id.
func (s *gormStore) ResolveHelpRequests(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	resolvedAt := s.now()
	err := s.db.WithContext(ctx).
		Model(&model.HelpRequest{}).
		Where("status = ? AND id IN ?", model.HelpRequestActive, ids).
		Updates(map[string]any{
			"status":      model.HelpRequestResolved,
			"resolved_at": resolvedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to resolve help requests: %w", err)
	}
	return nil
}
