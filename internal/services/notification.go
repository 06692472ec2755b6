package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/aletheia-backend/internal/data/repos"
	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/platform/apierr"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

const notificationPageSize = 100

type NotificationService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*types.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

type notificationService struct {
	log   *logger.Logger
	notes repos.NotificationRepo
}

func NewNotificationService(baseLog *logger.Logger, notes repos.NotificationRepo) NotificationService {
	return &notificationService{log: baseLog.With("service", "NotificationService"), notes: notes}
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID) ([]*types.Notification, error) {
	out, err := s.notes.ListByUser(dbctx.Context{Ctx: ctx}, userID, notificationPageSize)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.notes.MarkRead(dbctx.Context{Ctx: ctx}, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !ok {
		return apierr.NotFound("notification_not_found", "notification not found")
	}
	return nil
}
