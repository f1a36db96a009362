package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/csv"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/store"
)

// ClientService handles borrower records and device control commands.
type ClientService struct {
	clients       store.ClientStore
	admins        store.AdminStore
	payments      store.PaymentStore
	reminders     store.ReminderStore
	notifications store.NotificationStore
	logger        *zap.Logger
}

// NewClientService creates a client service.
func NewClientService(
	clients store.ClientStore,
	admins store.AdminStore,
	payments store.PaymentStore,
	reminders store.ReminderStore,
	notifications store.NotificationStore,
	logger *zap.Logger,
) *ClientService {
	return &ClientService{
		clients:       clients,
		admins:        admins,
		payments:      payments,
		reminders:     reminders,
		notifications: notifications,
		logger:        logger,
	}
}

// ClientInput carries create/update fields for a client. Nil pointers on
// update mean "leave unchanged".
type ClientInput struct {
	Name        *string  `json:"name"`
	Phone       *string  `json:"phone"`
	Email       *string  `json:"email"`
	Address     *string  `json:"address"`
	BirthNumber *string  `json:"birth_number"`
	DeviceModel *string  `json:"device_model"`
	DeviceMake  *string  `json:"device_make"`
	LockMode    *string  `json:"lock_mode"`
	EMIAmount   *float64 `json:"emi_amount"`
	EMIDueDate  *string  `json:"emi_due_date"`
}

// Create adds a client owned by the acting admin.
func (s *ClientService) Create(ctx context.Context, actor *model.Admin, in ClientInput) (*model.Client, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, errors.Validation("client name is required")
	}
	if in.Phone == nil || strings.TrimSpace(*in.Phone) == "" {
		return nil, errors.Validation("client phone is required")
	}

	email := ""
	if in.Email != nil {
		email = *in.Email
	}
	client := model.NewClient(strings.TrimSpace(*in.Name), strings.TrimSpace(*in.Phone), email)
	client.AdminID = actor.ID
	applyClientInput(client, in)

	if err := s.clients.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s.logger.Info("client created",
		zap.String("client_id", client.ID),
		zap.String("admin_id", actor.ID))
	return client, nil
}

func applyClientInput(c *model.Client, in ClientInput) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		c.Email = *in.Email
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.BirthNumber != nil {
		c.BirthNumber = *in.BirthNumber
	}
	if in.DeviceModel != nil {
		c.DeviceModel = *in.DeviceModel
	}
	if in.DeviceMake != nil {
		c.DeviceMake = *in.DeviceMake
	}
	if in.LockMode != nil && (*in.LockMode == model.LockModeDeviceAdmin || *in.LockMode == model.LockModeOverlay) {
		c.LockMode = *in.LockMode
	}
	if in.EMIAmount != nil {
		c.EMIAmount = *in.EMIAmount
	}
	if in.EMIDueDate != nil {
		c.EMIDueDate = *in.EMIDueDate
	}
}

// List returns the acting admin's clients. The super admin sees every client.
func (s *ClientService) List(ctx context.Context, actor *model.Admin) ([]*model.Client, error) {
	filter := store.ClientFilter{AdminID: actor.ID}
	if actor.IsSuperAdmin {
		filter.AdminID = ""
	}
	clients, err := s.clients.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

// Get returns a single client within the admin's scope.
func (s *ClientService) Get(ctx context.Context, actor *model.Admin, id string) (*model.Client, error) {
	return s.scoped(ctx, actor, id)
}

func (s *ClientService) scoped(ctx context.Context, actor *model.Admin, id string) (*model.Client, error) {
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

// Update applies the provided fields to a client.
func (s *ClientService) Update(ctx context.Context, actor *model.Admin, id string, in ClientInput) (*model.Client, error) {
	client, err := s.scoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	applyClientInput(client, in)
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	return client, nil
}

// Delete removes a client and cascades its payments and reminders.
func (s *ClientService) Delete(ctx context.Context, actor *model.Admin, id string) error {
	client, err := s.scoped(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.payments.DeleteByClient(ctx, client.ID); err != nil {
		return err
	}
	if err := s.reminders.DeleteByClient(ctx, client.ID); err != nil {
		return err
	}
	if err := s.clients.Delete(ctx, client.ID); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	s.logger.Info("client deleted",
		zap.String("client_id", client.ID),
		zap.String("admin_id", actor.ID))
	return nil
}

// Silent returns registered clients whose device has not sent a heartbeat
// within the given window.
func (s *ClientService) Silent(ctx context.Context, actor *model.Admin, minutes int) ([]*model.Client, error) {
	if minutes <= 0 {
		minutes = 60
	}
	cutoff := time.Now().UTC().Add(-time.Duration(minutes) * time.Minute)

	filter := store.ClientFilter{AdminID: actor.ID, SilentSince: &cutoff}
	if actor.IsSuperAdmin {
		filter.AdminID = ""
	}
	clients, err := s.clients.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list silent clients: %w", err)
	}
	return clients, nil
}

// Locations returns the map projection of clients with known coordinates.
func (s *ClientService) Locations(ctx context.Context, actor *model.Admin) ([]model.ClientLocation, error) {
	filter := store.ClientFilter{AdminID: actor.ID, WithLocation: true}
	if actor.IsSuperAdmin {
		filter.AdminID = ""
	}
	clients, err := s.clients.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list client locations: %w", err)
	}

	locations := make([]model.ClientLocation, 0, len(clients))
	for _, c := range clients {
		locations = append(locations, model.ClientLocation{
			ID:                 c.ID,
			Name:               c.Name,
			Phone:              c.Phone,
			Latitude:           *c.Latitude,
			Longitude:          *c.Longitude,
			IsLocked:           c.IsLocked,
			LastLocationUpdate: c.LastLocationUpdate,
			OutstandingBalance: c.OutstandingBalance,
		})
	}
	return locations, nil
}

// ExportCSV renders the admin's clients as CSV. Registration codes are
// deliberately excluded from exports.
func (s *ClientService) ExportCSV(ctx context.Context, actor *model.Admin) (string, error) {
	clients, err := s.List(ctx, actor)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{
		"id", "name", "phone", "email", "device_model", "is_registered",
		"is_locked", "loan_amount", "total_paid", "outstanding_balance",
		"days_overdue", "created_at",
	})
	for _, c := range clients {
		_ = w.Write([]string{
			c.ID, c.Name, c.Phone, c.Email, c.DeviceModel,
			strconv.FormatBool(c.IsRegistered),
			strconv.FormatBool(c.IsLocked),
			strconv.FormatFloat(c.LoanAmount, 'f', 2, 64),
			strconv.FormatFloat(c.TotalPaid, 'f', 2, 64),
			strconv.FormatFloat(c.OutstandingBalance, 'f', 2, 64),
			strconv.Itoa(c.DaysOverdue),
			c.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to build csv: %w", err)
	}
	return buf.String(), nil
}

// GenerateCode issues a fresh registration code for a client and resets its
// registration. Costs one credit unless the actor is the super admin.
func (s *ClientService) GenerateCode(ctx context.Context, actor *model.Admin, id string) (*model.Client, error) {
	client, err := s.scoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsSuperAdmin && actor.Credits <= 0 {
		return nil, errors.Authorization("no credits remaining; ask the super admin to assign more")
	}

	code, err := newRegistrationCode()
	if err != nil {
		return nil, err
	}

	client.RegistrationCode = code
	client.IsRegistered = false
	client.RegisteredAt = nil
	client.DeviceID = ""
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	if !actor.IsSuperAdmin {
		actor.Credits--
		if err := s.admins.Update(ctx, actor); err != nil {
			return nil, fmt.Errorf("failed to spend credit: %w", err)
		}
	}

	s.logger.Info("registration code generated",
		zap.String("client_id", client.ID),
		zap.String("admin_id", actor.ID))
	return client, nil
}

func newRegistrationCode() (string, error) {
	raw := make([]byte, 4)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate registration code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(raw)), nil
}

// Lock marks the device locked with an optional message.
func (s *ClientService) Lock(ctx context.Context, actor *model.Admin, id, message string) (*model.Client, error) {
	client, err := s.scoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	client.IsLocked = true
	if message != "" {
		client.LockMessage = message
	} else if client.LockMessage == "" {
		client.LockMessage = model.DefaultLockMessage
	}
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to lock client: %w", err)
	}

	s.logger.Info("device locked", zap.String("client_id", client.ID))
	return client, nil
}

// Unlock clears the locked state.
func (s *ClientService) Unlock(ctx context.Context, actor *model.Admin, id string) (*model.Client, error) {
	client, err := s.scoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	client.IsLocked = false
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to unlock client: %w", err)
	}

	s.logger.Info("device unlocked", zap.String("client_id", client.ID))
	return client, nil
}

// SetWarning sets the warning banner shown on the device.
func (s *ClientService) SetWarning(ctx context.Context, actor *model.Admin, id, message string) (*model.Client, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.Validation("warning message is required")
	}

	client, err := s.scoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	client.WarningMessage = message
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to set warning: %w", err)
	}
	return client, nil
}

// AllowUninstall permits the device app to be removed, used when a loan is
// settled.
func (s *ClientService) AllowUninstall(ctx context.Context, actor *model.Admin, id string) (*model.Client, error) {
	client, err := s.scoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	client.UninstallAllowed = true
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to allow uninstall: %w", err)
	}

	s.logger.Info("uninstall allowed", zap.String("client_id", client.ID))
	return client, nil
}

// ReportTamper records a tamper attempt reported by the device and notifies
// the owning admin. Unauthenticated by design: the device has no admin token.
func (s *ClientService) ReportTamper(ctx context.Context, clientID string) error {
	client, err := s.clients.GetByID(ctx, clientID)
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.NotFound("client not found")
	}
	if err != nil {
		return fmt.Errorf("failed to load client: %w", err)
	}

	now := time.Now().UTC()
	client.TamperAttempts++
	client.LastTamperAttempt = &now
	if err := s.clients.Update(ctx, client); err != nil {
		return fmt.Errorf("failed to record tamper attempt: %w", err)
	}

	if client.AdminID != "" {
		notification := model.NewNotification(
			client.AdminID,
			model.NotificationTamperAttempt,
			"Tamper attempt detected",
			fmt.Sprintf("%s attempted to disable device protection (attempt #%d)", client.Name, client.TamperAttempts),
			client.ID,
			client.Name,
		)
		if err := s.notifications.Create(ctx, notification); err != nil {
			s.logger.Error("failed to create tamper notification", zap.Error(err))
		}
	}

	s.logger.Warn("tamper attempt reported",
		zap.String("client_id", client.ID),
		zap.Int("attempts", client.TamperAttempts))
	return nil
}

// ReportReboot records a device reboot. Unauthenticated.
func (s *ClientService) ReportReboot(ctx context.Context, clientID string) error {
	client, err := s.clients.GetByID(ctx, clientID)
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.NotFound("client not found")
	}
	if err != nil {
		return fmt.Errorf("failed to load client: %w", err)
	}

	now := time.Now().UTC()
	client.LastReboot = &now
	if err := s.clients.Update(ctx, client); err != nil {
		return fmt.Errorf("failed to record reboot: %w", err)
	}
	return nil
}

// Bulk operation actions.
const (
	BulkActionLock    = "lock"
	BulkActionUnlock  = "unlock"
	BulkActionWarning = "warning"
)

// BulkResult summarizes a bulk device operation.
type BulkResult struct {
	Action       string   `json:"action"`
	SuccessCount int      `json:"success_count"`
	FailedCount  int      `json:"failed_count"`
	Total        int      `json:"total"`
	FailedIDs    []string `json:"failed_ids,omitempty"`
}

// BulkOperation applies a device action to many clients, skipping any outside
// the admin's scope.
func (s *ClientService) BulkOperation(ctx context.Context, actor *model.Admin, action string, clientIDs []string, message string) (*BulkResult, error) {
	if len(clientIDs) == 0 {
		return nil, errors.Validation("client_ids is required")
	}

	result := &BulkResult{Action: action, Total: len(clientIDs)}
	for _, id := range clientIDs {
		var err error
		switch action {
		case BulkActionLock:
			_, err = s.Lock(ctx, actor, id, message)
		case BulkActionUnlock:
			_, err = s.Unlock(ctx, actor, id)
		case BulkActionWarning:
			_, err = s.SetWarning(ctx, actor, id, message)
		default:
			return nil, errors.Validation("action must be lock, unlock or warning")
		}
		if err != nil {
			result.FailedCount++
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		result.SuccessCount++
	}

	s.logger.Info("bulk operation",
		zap.String("action", action),
		zap.Int("success_count", result.SuccessCount),
		zap.Int("failed_count", result.FailedCount))
	return result, nil
}

// LateFeeStatus summarizes a client's overdue position.
type LateFeeStatus struct {
	ClientID            string     `json:"client_id"`
	LateFeesAccumulated float64    `json:"late_fees_accumulated"`
	DaysOverdue         int        `json:"days_overdue"`
	NextPaymentDue      *time.Time `json:"next_payment_due,omitempty"`
	OutstandingBalance  float64    `json:"outstanding_balance"`
}

// LateFees returns a client's accumulated late fees and overdue position.
func (s *ClientService) LateFees(ctx context.Context, actor *model.Admin, id string) (*LateFeeStatus, error) {
	client, err := s.scoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return &LateFeeStatus{
		ClientID:            client.ID,
		LateFeesAccumulated: client.LateFeesAccumulated,
		DaysOverdue:         client.DaysOverdue,
		NextPaymentDue:      client.NextPaymentDue,
		OutstandingBalance:  client.OutstandingBalance,
	}, nil
}
