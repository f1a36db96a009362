package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultLoanPlanName is seeded on startup so a fresh install always has a
// usable plan.
const DefaultLoanPlanName = "One-Time Simple 50% Monthly"

// LoanPlan is a reusable loan template owned by an admin.
type LoanPlan struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	InterestRate          float64   `json:"interest_rate"`
	MinTenureMonths       int       `json:"min_tenure_months"`
	MaxTenureMonths       int       `json:"max_tenure_months"`
	ProcessingFeePercent  float64   `json:"processing_fee_percent"`
	LateFeePercent        float64   `json:"late_fee_percent"`
	Description           string    `json:"description"`
	IsActive              bool      `json:"is_active"`
	AdminID               string    `json:"admin_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// NewLoanPlan creates a plan with the original defaults.
func NewLoanPlan(name string, interestRate float64) *LoanPlan {
	return &LoanPlan{
		ID:              uuid.New().String(),
		Name:            name,
		InterestRate:    interestRate,
		MinTenureMonths: 3,
		MaxTenureMonths: 36,
		LateFeePercent:  2.0,
		IsActive:        true,
		CreatedAt:       time.Now().UTC(),
	}
}

// Payment is a recorded repayment against a client's loan.
type Payment struct {
	ID            string    `json:"id"`
	ClientID      string    `json:"client_id"`
	Amount        float64   `json:"amount"`
	PaymentDate   time.Time `json:"payment_date"`
	PaymentMethod string    `json:"payment_method"`
	Notes         string    `json:"notes"`
	RecordedBy    string    `json:"recorded_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewPayment creates a payment record with a fresh ID.
func NewPayment(clientID string, amount float64, paymentDate time.Time, method, notes, recordedBy string) *Payment {
	now := time.Now().UTC()
	if paymentDate.IsZero() {
		paymentDate = now
	}
	if method == "" {
		method = "cash"
	}
	return &Payment{
		ID:            uuid.New().String(),
		ClientID:      clientID,
		Amount:        amount,
		PaymentDate:   paymentDate,
		PaymentMethod: method,
		Notes:         notes,
		RecordedBy:    recordedBy,
		CreatedAt:     now,
	}
}

// Reminder types created by the reminder sweep.
const (
	ReminderDueToday     = "payment_due_today"
	ReminderOverdue1Day  = "payment_overdue_1day"
	ReminderOverdue3Days = "payment_overdue_3days"
	ReminderOverdue7Days = "payment_overdue_7days"
	ReminderPush         = "push_notification"
)

// Reminder is a scheduled or sent payment reminder for a client.
type Reminder struct {
	ID            string     `json:"id"`
	ClientID      string     `json:"client_id"`
	ReminderType  string     `json:"reminder_type"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	Sent          bool       `json:"sent"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	Message       string     `json:"message"`
	AdminID       string     `json:"admin_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewReminder creates a reminder record with a fresh ID.
func NewReminder(clientID, reminderType, message, adminID string, scheduledDate time.Time) *Reminder {
	return &Reminder{
		ID:            uuid.New().String(),
		ClientID:      clientID,
		ReminderType:  reminderType,
		ScheduledDate: scheduledDate,
		Message:       message,
		AdminID:       adminID,
		CreatedAt:     time.Now().UTC(),
	}
}
