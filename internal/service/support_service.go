package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/store"
)

// SupportService handles the support chat between a device and its admin.
type SupportService struct {
	clients       store.ClientStore
	messages      store.SupportStore
	notifications store.NotificationStore
	logger        *zap.Logger
}

// NewSupportService creates a support service.
func NewSupportService(clients store.ClientStore, messages store.SupportStore, notifications store.NotificationStore, logger *zap.Logger) *SupportService {
	return &SupportService{clients: clients, messages: messages, notifications: notifications, logger: logger}
}

// Messages returns a client's conversation in chronological order. The
// device and the admin console call the same endpoint.
func (s *SupportService) Messages(ctx context.Context, clientID string) ([]*model.SupportMessage, error) {
	if _, err := s.client(ctx, clientID); err != nil {
		return nil, err
	}
	messages, err := s.messages.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list support messages: %w", err)
	}
	if messages == nil {
		messages = []*model.SupportMessage{}
	}
	return messages, nil
}

// Send posts a message into a client's conversation. Client-sent messages
// raise a notification for the owning admin.
func (s *SupportService) Send(ctx context.Context, clientID, sender, text string) (*model.SupportMessage, error) {
	if sender != model.SenderAdmin && sender != model.SenderClient {
		return nil, errors.Validation("sender must be admin or client")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.Validation("message is required")
	}

	client, err := s.client(ctx, clientID)
	if err != nil {
		return nil, err
	}

	message := model.NewSupportMessage(client.ID, sender, text)
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create support message: %w", err)
	}

	if sender == model.SenderClient && client.AdminID != "" {
		notification := model.NewNotification(
			client.AdminID,
			model.NotificationSupportMessage,
			"New support message",
			fmt.Sprintf("%s: %s", client.Name, text),
			client.ID,
			client.Name,
		)
		if err := s.notifications.Create(ctx, notification); err != nil {
			s.logger.Error("failed to create support notification", zap.Error(err))
		}
	}
	return message, nil
}

// MarkRead marks the client-sent messages in a conversation read.
func (s *SupportService) MarkRead(ctx context.Context, clientID string) error {
	if _, err := s.client(ctx, clientID); err != nil {
		return err
	}
	if err := s.messages.MarkClientMessagesRead(ctx, clientID); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

func (s *SupportService) client(ctx context.Context, clientID string) (*model.Client, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NotFound("client not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	return client, nil
}
