package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/service"
)

// DeviceHandler handles the unauthenticated endpoints the device app calls.
type DeviceHandler struct {
	devices *service.DeviceService
	errs    *errors.Handler
	logger  *zap.Logger
}

// NewDeviceHandler creates a device handler.
func NewDeviceHandler(devices *service.DeviceService, errs *errors.Handler, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{devices: devices, errs: errs, logger: logger}
}

// Register handles POST /device/register.
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterDeviceInput
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	client, err := h.devices.Register(r.Context(), in)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"client_id":   client.ID,
		"client_name": client.Name,
		"message":     "device registered",
	})
}

// Status handles GET /device/status/{client_id}. Each call counts as a
// heartbeat.
func (h *DeviceHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.devices.Status(r.Context(), mux.Vars(r)["client_id"])
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// UpdateLocation handles POST /device/location.
func (h *DeviceHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ClientID  string  `json:"client_id"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	if err := h.devices.UpdateLocation(r.Context(), in.ClientID, in.Latitude, in.Longitude); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "location updated"})
}

// UpdatePushToken handles POST /device/push-token.
func (h *DeviceHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ClientID  string `json:"client_id"`
		PushToken string `json:"push_token"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	if err := h.devices.UpdatePushToken(r.Context(), in.ClientID, in.PushToken); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "push token updated"})
}

// ClearWarning handles POST /device/clear-warning/{client_id}.
func (h *DeviceHandler) ClearWarning(w http.ResponseWriter, r *http.Request) {
	if err := h.devices.ClearWarning(r.Context(), mux.Vars(r)["client_id"]); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "warning cleared"})
}

// ReportAdminStatus handles POST /device/report-admin-status?client_id=&admin_mode_active=.
func (h *DeviceHandler) ReportAdminStatus(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	active, err := strconv.ParseBool(r.URL.Query().Get("admin_mode_active"))
	if err != nil {
		h.errs.HandleError(w, r, errors.Validation("admin_mode_active must be true or false"))
		return
	}

	if err := h.devices.ReportAdminStatus(r.Context(), clientID, active); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "admin status recorded"})
}
