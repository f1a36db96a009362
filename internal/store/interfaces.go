// Package store provides persistence for the EMI admin API: PostgreSQL for
// the domain records, Redis for admin tokens, and in-memory implementations
// used by tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// AdminStore persists admin accounts.
type AdminStore interface {
	Create(ctx context.Context, admin *model.Admin) error
	GetByID(ctx context.Context, id string) (*model.Admin, error)
	GetByUsername(ctx context.Context, username string) (*model.Admin, error)
	List(ctx context.Context) ([]*model.Admin, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, admin *model.Admin) error
	Delete(ctx context.Context, id string) error
}

// TokenStore persists admin API tokens. Each admin holds at most one active
// token; Put replaces any previous token for the same admin.
type TokenStore interface {
	Put(ctx context.Context, token *model.AdminToken) error
	Get(ctx context.Context, token string) (*model.AdminToken, error)
	RevokeAdmin(ctx context.Context, adminID string) error
	Ping(ctx context.Context) error
	Close() error
}

// ClientFilter narrows client listings.
type ClientFilter struct {
	AdminID      string     // empty matches every admin
	SilentSince  *time.Time // registered clients without a heartbeat since this time
	WithLocation bool       // only clients with known coordinates
	Overdue      bool       // next_payment_due in the past with outstanding balance
	WithBalance  bool       // outstanding balance above zero
}

// ClientStore persists clients.
type ClientStore interface {
	Create(ctx context.Context, client *model.Client) error
	GetByID(ctx context.Context, id string) (*model.Client, error)
	GetByRegistrationCode(ctx context.Context, code string) (*model.Client, error)
	List(ctx context.Context, filter ClientFilter) ([]*model.Client, error)
	Update(ctx context.Context, client *model.Client) error
	Delete(ctx context.Context, id string) error
	CountByLoanPlan(ctx context.Context, planID string) (int, error)
}

// LoanPlanStore persists loan plans.
type LoanPlanStore interface {
	Create(ctx context.Context, plan *model.LoanPlan) error
	GetByID(ctx context.Context, id string) (*model.LoanPlan, error)
	GetByName(ctx context.Context, name string) (*model.LoanPlan, error)
	ListByAdmin(ctx context.Context, adminID string) ([]*model.LoanPlan, error)
	List(ctx context.Context) ([]*model.LoanPlan, error)
	Update(ctx context.Context, plan *model.LoanPlan) error
	Delete(ctx context.Context, id string) error
}

// PaymentStore persists payments.
type PaymentStore interface {
	Create(ctx context.Context, payment *model.Payment) error
	ListByClient(ctx context.Context, clientID string) ([]*model.Payment, error)
	// ListByAdmin returns payments of every client owned by the admin,
	// optionally bounded by payment date.
	ListByAdmin(ctx context.Context, adminID string, start, end *time.Time) ([]*model.Payment, error)
	DeleteByClient(ctx context.Context, clientID string) error
}

// ReminderStore persists payment reminders.
type ReminderStore interface {
	Create(ctx context.Context, reminder *model.Reminder) error
	ListByAdmin(ctx context.Context, adminID string) ([]*model.Reminder, error)
	ListByClient(ctx context.Context, clientID string) ([]*model.Reminder, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	// HasRecent reports whether a reminder of the given type was created for
	// the client after the cutoff; used to avoid duplicate daily reminders.
	HasRecent(ctx context.Context, clientID, reminderType string, since time.Time) (bool, error)
	DeleteByClient(ctx context.Context, clientID string) error
}

// NotificationStore persists admin notifications.
type NotificationStore interface {
	Create(ctx context.Context, notification *model.Notification) error
	ListByAdmin(ctx context.Context, adminID string, limit int) ([]*model.Notification, error)
	CountUnread(ctx context.Context, adminID string) (int, error)
	MarkRead(ctx context.Context, id, adminID string) error
	MarkAllRead(ctx context.Context, adminID string) (int, error)
}

// SupportStore persists support chat messages.
type SupportStore interface {
	Create(ctx context.Context, message *model.SupportMessage) error
	ListByClient(ctx context.Context, clientID string) ([]*model.SupportMessage, error)
	MarkClientMessagesRead(ctx context.Context, clientID string) error
}
