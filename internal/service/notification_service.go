package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/store"
)

// NotificationService handles the admin notification feed.
type NotificationService struct {
	notifications store.NotificationStore
	logger        *zap.Logger
}

// NewNotificationService creates a notification service.
func NewNotificationService(notifications store.NotificationStore, logger *zap.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, logger: logger}
}

// Feed is the notification list plus the unread badge count.
type Feed struct {
	Notifications []*model.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

// List returns the actor's most recent notifications and unread count.
func (s *NotificationService) List(ctx context.Context, actor *model.Admin, limit int) (*Feed, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	notifications, err := s.notifications.ListByAdmin(ctx, actor.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := s.notifications.CountUnread(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	if notifications == nil {
		notifications = []*model.Notification{}
	}
	return &Feed{Notifications: notifications, UnreadCount: unread}, nil
}

// MarkRead marks one notification read.
func (s *NotificationService) MarkRead(ctx context.Context, actor *model.Admin, id string) error {
	err := s.notifications.MarkRead(ctx, id, actor.ID)
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.NotFound("notification not found")
	}
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks every unread notification read and returns the count.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor *model.Admin) (int, error) {
	changed, err := s.notifications.MarkAllRead(ctx, actor.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return changed, nil
}
