package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/push"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/store"
)

// ReminderService handles payment reminders and their push delivery.
type ReminderService struct {
	clients   store.ClientStore
	reminders store.ReminderStore
	pusher    push.Sender
	logger    *zap.Logger
}

// NewReminderService creates a reminder service.
func NewReminderService(clients store.ClientStore, reminders store.ReminderStore, pusher push.Sender, logger *zap.Logger) *ReminderService {
	return &ReminderService{clients: clients, reminders: reminders, pusher: pusher, logger: logger}
}

// ListByAdmin returns the actor's reminders.
func (s *ReminderService) ListByAdmin(ctx context.Context, actor *model.Admin) ([]*model.Reminder, error) {
	reminders, err := s.reminders.ListByAdmin(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

// ListByClient returns a client's reminders within the actor's scope.
func (s *ReminderService) ListByClient(ctx context.Context, actor *model.Admin, clientID string) ([]*model.Reminder, error) {
	client, err := s.scopedClient(ctx, actor, clientID)
	if err != nil {
		return nil, err
	}
	reminders, err := s.reminders.ListByClient(ctx, client.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

// PendingBuckets groups upcoming and overdue payments the way the reminder
// screen displays them.
type PendingBuckets struct {
	Overdue     []*model.Client `json:"overdue"`
	DueToday    []*model.Client `json:"due_today"`
	DueIn3Days  []*model.Client `json:"due_in_3_days"`
	DueIn7Days  []*model.Client `json:"due_in_7_days"`
	TotalDueEMI float64         `json:"total_due_emi"`
}

// Pending buckets the actor's clients by how close their next payment is.
func (s *ReminderService) Pending(ctx context.Context, actor *model.Admin) (*PendingBuckets, error) {
	filter := store.ClientFilter{AdminID: actor.ID, WithBalance: true}
	if actor.IsSuperAdmin {
		filter.AdminID = ""
	}
	clients, err := s.clients.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	buckets := &PendingBuckets{}
	today := truncateToDay(time.Now().UTC())
	for _, c := range clients {
		if c.NextPaymentDue == nil {
			continue
		}
		due := truncateToDay(c.NextPaymentDue.UTC())
		days := int(due.Sub(today).Hours() / 24)

		switch {
		case days < 0:
			buckets.Overdue = append(buckets.Overdue, c)
		case days == 0:
			buckets.DueToday = append(buckets.DueToday, c)
		case days <= 3:
			buckets.DueIn3Days = append(buckets.DueIn3Days, c)
		case days <= 7:
			buckets.DueIn7Days = append(buckets.DueIn7Days, c)
		default:
			continue
		}
		buckets.TotalDueEMI += c.MonthlyEMI
	}
	return buckets, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MarkSent flags a reminder as delivered.
func (s *ReminderService) MarkSent(ctx context.Context, actor *model.Admin, reminderID string) error {
	err := s.reminders.MarkSent(ctx, reminderID, time.Now().UTC())
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.NotFound("reminder not found")
	}
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

// CreateAll runs the reminder sweep for the actor's clients and reports how
// many reminders were created. The hourly job calls the same logic for every
// admin.
func (s *ReminderService) CreateAll(ctx context.Context, actor *model.Admin) (int, error) {
	filter := store.ClientFilter{AdminID: actor.ID, WithBalance: true}
	if actor.IsSuperAdmin {
		filter.AdminID = ""
	}
	return s.sweep(ctx, filter)
}

// Sweep creates due/overdue reminders for every client with a balance.
// Called by the background job.
func (s *ReminderService) Sweep(ctx context.Context) (int, error) {
	return s.sweep(ctx, store.ClientFilter{WithBalance: true})
}

func (s *ReminderService) sweep(ctx context.Context, filter store.ClientFilter) (int, error) {
	clients, err := s.clients.List(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to list clients: %w", err)
	}

	created := 0
	today := truncateToDay(time.Now().UTC())
	for _, c := range clients {
		if !c.PaymentRemindersEnabled || c.NextPaymentDue == nil {
			continue
		}

		due := truncateToDay(c.NextPaymentDue.UTC())
		overdueDays := int(today.Sub(due).Hours() / 24)

		reminderType := ""
		message := ""
		switch {
		case overdueDays == 0:
			reminderType = model.ReminderDueToday
			message = fmt.Sprintf("Your EMI payment of %.2f EUR is due today.", c.MonthlyEMI)
		case overdueDays == 1:
			reminderType = model.ReminderOverdue1Day
			message = fmt.Sprintf("Your EMI payment of %.2f EUR is 1 day overdue.", c.MonthlyEMI)
		case overdueDays == 3:
			reminderType = model.ReminderOverdue3Days
			message = fmt.Sprintf("Your EMI payment of %.2f EUR is 3 days overdue.", c.MonthlyEMI)
		case overdueDays == 7:
			reminderType = model.ReminderOverdue7Days
			message = fmt.Sprintf("Your EMI payment of %.2f EUR is 7 days overdue. Your device may be locked.", c.MonthlyEMI)
		default:
			continue
		}

		// At most one reminder per type per day.
		exists, err := s.reminders.HasRecent(ctx, c.ID, reminderType, today)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		reminder := model.NewReminder(c.ID, reminderType, message, c.AdminID, due)
		if err := s.reminders.Create(ctx, reminder); err != nil {
			return created, fmt.Errorf("failed to create reminder: %w", err)
		}
		created++

		if push.ValidToken(c.ExpoPushToken) {
			err := s.pusher.Send(ctx, []push.Message{{
				To:    c.ExpoPushToken,
				Title: "Payment Reminder",
				Body:  message,
				Data:  map[string]any{"type": reminderType},
			}})
			if err != nil {
				s.logger.Error("failed to push reminder",
					zap.String("client_id", c.ID), zap.Error(err))
			} else {
				now := time.Now().UTC()
				if err := s.reminders.MarkSent(ctx, reminder.ID, now); err != nil {
					s.logger.Error("failed to mark reminder sent", zap.Error(err))
				}
			}
		}
	}

	if created > 0 {
		s.logger.Info("reminders created", zap.Int("count", created))
	}
	return created, nil
}

// SendPush sends an ad-hoc push reminder to every client of the actor with a
// balance and a push token, recording a reminder per send.
func (s *ReminderService) SendPush(ctx context.Context, actor *model.Admin, title, body string) (int, error) {
	if title == "" {
		title = "Payment Reminder"
	}

	filter := store.ClientFilter{AdminID: actor.ID, WithBalance: true}
	if actor.IsSuperAdmin {
		filter.AdminID = ""
	}
	clients, err := s.clients.List(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to list clients: %w", err)
	}

	sent := 0
	now := time.Now().UTC()
	for _, c := range clients {
		if !push.ValidToken(c.ExpoPushToken) {
			continue
		}

		message := body
		if message == "" {
			message = fmt.Sprintf("You have an outstanding balance of %.2f EUR.", c.OutstandingBalance)
		}

		if err := s.pusher.Send(ctx, []push.Message{{
			To:    c.ExpoPushToken,
			Title: title,
			Body:  message,
		}}); err != nil {
			s.logger.Error("failed to push reminder",
				zap.String("client_id", c.ID), zap.Error(err))
			continue
		}

		reminder := model.NewReminder(c.ID, model.ReminderPush, message, actor.ID, now)
		reminder.Sent = true
		reminder.SentAt = &now
		if err := s.reminders.Create(ctx, reminder); err != nil {
			return sent, fmt.Errorf("failed to record reminder: %w", err)
		}
		sent++
	}
	return sent, nil
}

// SendSingle pushes a reminder to one client.
func (s *ReminderService) SendSingle(ctx context.Context, actor *model.Admin, clientID, title, body string) (*model.Reminder, error) {
	client, err := s.scopedClient(ctx, actor, clientID)
	if err != nil {
		return nil, err
	}
	if !push.ValidToken(client.ExpoPushToken) {
		return nil, errors.Validation("client has no valid push token")
	}

	if title == "" {
		title = "Payment Reminder"
	}
	if body == "" {
		body = fmt.Sprintf("You have an outstanding balance of %.2f EUR.", client.OutstandingBalance)
	}

	if err := s.pusher.Send(ctx, []push.Message{{To: client.ExpoPushToken, Title: title, Body: body}}); err != nil {
		return nil, fmt.Errorf("failed to send push notification: %w", err)
	}

	now := time.Now().UTC()
	reminder := model.NewReminder(client.ID, model.ReminderPush, body, actor.ID, now)
	reminder.Sent = true
	reminder.SentAt = &now
	if err := s.reminders.Create(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to record reminder: %w", err)
	}
	return reminder, nil
}

func (s *ReminderService) scopedClient(ctx context.Context, actor *model.Admin, id string) (*model.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NotFound("client not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	if !actor.IsSuperAdmin && client.AdminID != actor.ID {
		return nil, errors.NotFound("client not found")
	}
	return client, nil
}
