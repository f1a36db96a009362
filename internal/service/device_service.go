package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/store"
)

// DeviceService handles the unauthenticated endpoints the device app calls.
// A device identifies itself by registration code (once) and client ID
// afterwards; it never sees other clients' data.
type DeviceService struct {
	clients store.ClientStore
	logger  *zap.Logger
}

// NewDeviceService creates a device service.
func NewDeviceService(clients store.ClientStore, logger *zap.Logger) *DeviceService {
	return &DeviceService{clients: clients, logger: logger}
}

// RegisterDeviceInput carries a device registration request.
type RegisterDeviceInput struct {
	RegistrationCode string `json:"registration_code"`
	DeviceID         string `json:"device_id"`
	DeviceModel      string `json:"device_model"`
	DeviceMake       string `json:"device_make"`
}

// Register binds a device to the client holding the registration code.
// A code can be used once; re-registration needs a fresh code.
func (s *DeviceService) Register(ctx context.Context, in RegisterDeviceInput) (*model.Client, error) {
	code := strings.ToUpper(strings.TrimSpace(in.RegistrationCode))
	if code == "" {
		return nil, errors.Validation("registration_code is required")
	}
	if strings.TrimSpace(in.DeviceID) == "" {
		return nil, errors.Validation("device_id is required")
	}

	client, err := s.clients.GetByRegistrationCode(ctx, code)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NotFound("invalid registration code")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up registration code: %w", err)
	}
	if client.IsRegistered {
		return nil, errors.Conflict("this code has already been used")
	}

	now := time.Now().UTC()
	client.DeviceID = in.DeviceID
	if in.DeviceModel != "" {
		client.DeviceModel = in.DeviceModel
	}
	if in.DeviceMake != "" {
		client.DeviceMake = in.DeviceMake
	}
	client.IsRegistered = true
	client.RegisteredAt = &now
	client.LastHeartbeat = &now

	if err := s.clients.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to register device: %w", err)
	}

	s.logger.Info("device registered",
		zap.String("client_id", client.ID),
		zap.String("device_model", client.DeviceModel))
	return client, nil
}

// Status returns the lock-screen view of a client and stamps the device
// heartbeat. Polled frequently by the device app.
func (s *DeviceService) Status(ctx context.Context, clientID string) (*model.DeviceStatus, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NotFound("client not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}

	now := time.Now().UTC()
	client.LastHeartbeat = &now
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to stamp heartbeat: %w", err)
	}

	emiAmount := client.MonthlyEMI
	if emiAmount == 0 {
		emiAmount = client.EMIAmount
	}
	dueDate := client.EMIDueDate
	if client.NextPaymentDue != nil {
		dueDate = client.NextPaymentDue.Format("2006-01-02")
	}

	return &model.DeviceStatus{
		ID:               client.ID,
		Name:             client.Name,
		IsLocked:         client.IsLocked,
		LockMessage:      client.LockMessage,
		WarningMessage:   client.WarningMessage,
		EMIAmount:        emiAmount,
		EMIDueDate:       dueDate,
		UninstallAllowed: client.UninstallAllowed,
	}, nil
}

// UpdateLocation records the device's reported coordinates.
func (s *DeviceService) UpdateLocation(ctx context.Context, clientID string, latitude, longitude float64) error {
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return errors.Validation("coordinates out of range")
	}

	client, err := s.clients.GetByID(ctx, clientID)
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.NotFound("client not found")
	}
	if err != nil {
		return fmt.Errorf("failed to load client: %w", err)
	}

	now := time.Now().UTC()
	client.Latitude = &latitude
	client.Longitude = &longitude
	client.LastLocationUpdate = &now
	client.LastHeartbeat = &now

	if err := s.clients.Update(ctx, client); err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	return nil
}

// UpdatePushToken stores the device's Expo push token.
func (s *DeviceService) UpdatePushToken(ctx context.Context, clientID, token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.Validation("push token is required")
	}

	client, err := s.clients.GetByID(ctx, clientID)
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.NotFound("client not found")
	}
	if err != nil {
		return fmt.Errorf("failed to load client: %w", err)
	}

	client.ExpoPushToken = token
	if err := s.clients.Update(ctx, client); err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}

// ClearWarning removes the warning banner after the device has shown it.
func (s *DeviceService) ClearWarning(ctx context.Context, clientID string) error {
	client, err := s.clients.GetByID(ctx, clientID)
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.NotFound("client not found")
	}
	if err != nil {
		return fmt.Errorf("failed to load client: %w", err)
	}

	client.WarningMessage = ""
	if err := s.clients.Update(ctx, client); err != nil {
		return fmt.Errorf("failed to clear warning: %w", err)
	}
	return nil
}

// ReportAdminStatus records whether the device admin privilege is still
// active on the handset.
func (s *DeviceService) ReportAdminStatus(ctx context.Context, clientID string, active bool) error {
	client, err := s.clients.GetByID(ctx, clientID)
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.NotFound("client not found")
	}
	if err != nil {
		return fmt.Errorf("failed to load client: %w", err)
	}

	client.AdminModeActive = active
	now := time.Now().UTC()
	client.LastHeartbeat = &now
	if err := s.clients.Update(ctx, client); err != nil {
		return fmt.Errorf("failed to report admin status: %w", err)
	}

	if !active {
		s.logger.Warn("device admin privilege lost", zap.String("client_id", clientID))
	}
	return nil
}
