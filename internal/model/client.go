package model

import (
	"time"

	"github.com/google/uuid"
)

// Lock modes supported by the device app.
const (
	LockModeDeviceAdmin = "device_admin"
	LockModeOverlay     = "overlay"
)

// DefaultLockMessage is shown on a locked device until the admin sets one.
const DefaultLockMessage = "Your device has been locked due to pending EMI payment."

// Client is a borrower with a financed device. It carries the loan state,
// the device control flags polled by the device app, and the security
// telemetry the device reports back.
type Client struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	BirthNumber string `json:"birth_number"` // personal identification code used in contracts
	AdminID     string `json:"admin_id,omitempty"`

	DeviceID         string     `json:"device_id"`
	DeviceModel      string     `json:"device_model"`
	DeviceMake       string     `json:"device_make"`
	UsedPriceEUR     *float64   `json:"used_price_eur,omitempty"`
	PriceFetchedAt   *time.Time `json:"price_fetched_at,omitempty"`
	LockMode         string     `json:"lock_mode"`
	RegistrationCode string     `json:"registration_code,omitempty"`
	ExpoPushToken    string     `json:"expo_push_token,omitempty"`

	LoanPlanID              string     `json:"loan_plan_id,omitempty"`
	LoanAmount              float64    `json:"loan_amount"`
	DownPayment             float64    `json:"down_payment"`
	InterestRate            float64    `json:"interest_rate"`
	LoanTenureMonths        int        `json:"loan_tenure_months"`
	MonthlyEMI              float64    `json:"monthly_emi"`
	TotalAmountDue          float64    `json:"total_amount_due"`
	TotalPaid               float64    `json:"total_paid"`
	OutstandingBalance      float64    `json:"outstanding_balance"`
	ProcessingFee           float64    `json:"processing_fee"`
	LateFeesAccumulated     float64    `json:"late_fees_accumulated"`
	LoanStartDate           *time.Time `json:"loan_start_date,omitempty"`
	LastPaymentDate         *time.Time `json:"last_payment_date,omitempty"`
	NextPaymentDue          *time.Time `json:"next_payment_due,omitempty"`
	DaysOverdue             int        `json:"days_overdue"`
	PaymentRemindersEnabled bool       `json:"payment_reminders_enabled"`

	AutoLockEnabled   bool `json:"auto_lock_enabled"`
	AutoLockGraceDays int  `json:"auto_lock_grace_days"`

	// Legacy EMI fields kept for older device app builds.
	EMIAmount  float64 `json:"emi_amount"`
	EMIDueDate string  `json:"emi_due_date,omitempty"`

	IsLocked       bool   `json:"is_locked"`
	LockMessage    string `json:"lock_message"`
	WarningMessage string `json:"warning_message"`

	Latitude           *float64   `json:"latitude,omitempty"`
	Longitude          *float64   `json:"longitude,omitempty"`
	LastLocationUpdate *time.Time `json:"last_location_update,omitempty"`

	IsRegistered bool       `json:"is_registered"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`

	TamperAttempts    int        `json:"tamper_attempts"`
	LastTamperAttempt *time.Time `json:"last_tamper_attempt,omitempty"`
	LastReboot        *time.Time `json:"last_reboot,omitempty"`
	AdminModeActive   bool       `json:"admin_mode_active"`
	LastHeartbeat     *time.Time `json:"last_heartbeat,omitempty"`
	UninstallAllowed  bool       `json:"uninstall_allowed"`
}

// NewClient creates a client with defaults matching a freshly onboarded
// borrower: reminders and auto-lock enabled, device unlocked, unregistered.
func NewClient(name, phone, email string) *Client {
	return &Client{
		ID:                      uuid.New().String(),
		Name:                    name,
		Phone:                   phone,
		Email:                   email,
		LockMode:                LockModeDeviceAdmin,
		LoanTenureMonths:        12,
		PaymentRemindersEnabled: true,
		AutoLockEnabled:         true,
		AutoLockGraceDays:       3,
		LockMessage:             DefaultLockMessage,
		CreatedAt:               time.Now().UTC(),
	}
}

// ClientLocation is the map projection of a client.
type ClientLocation struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Phone              string     `json:"phone"`
	Latitude           float64    `json:"latitude"`
	Longitude          float64    `json:"longitude"`
	IsLocked           bool       `json:"is_locked"`
	LastLocationUpdate *time.Time `json:"last_location_update,omitempty"`
	OutstandingBalance float64    `json:"outstanding_balance"`
}

// DeviceStatus is the view of a client returned to its own device. It never
// exposes loan internals beyond what the lock screen needs.
type DeviceStatus struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	IsLocked         bool   `json:"is_locked"`
	LockMessage      string `json:"lock_message"`
	WarningMessage   string `json:"warning_message"`
	EMIAmount        float64 `json:"emi_amount"`
	EMIDueDate       string `json:"emi_due_date,omitempty"`
	UninstallAllowed bool   `json:"uninstall_allowed"`
}
