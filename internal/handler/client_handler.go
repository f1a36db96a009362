package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/metrics"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/service"
)

// ClientHandler handles client management and device control endpoints.
type ClientHandler struct {
	clients *service.ClientService
	admins  *service.AdminService
	metrics *metrics.Metrics
	errs    *errors.Handler
	logger  *zap.Logger
}

// NewClientHandler creates a client handler.
func NewClientHandler(clients *service.ClientService, admins *service.AdminService, m *metrics.Metrics, errs *errors.Handler, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{clients: clients, admins: admins, metrics: m, errs: errs, logger: logger}
}

// Create handles POST /clients.
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var in service.ClientInput
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	client, err := h.clients.Create(r.Context(), actor, in)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, client)
}

// List handles GET /clients.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	clients, err := h.clients.List(r.Context(), actor)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"clients": clients, "count": len(clients)})
}

// Get handles GET /clients/{client_id}.
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	client, err := h.clients.Get(r.Context(), actor, mux.Vars(r)["client_id"])
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// Update handles PUT /clients/{client_id}.
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var in service.ClientInput
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	client, err := h.clients.Update(r.Context(), actor, mux.Vars(r)["client_id"], in)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// Delete handles DELETE /clients/{client_id}.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	if err := h.clients.Delete(r.Context(), actor, mux.Vars(r)["client_id"]); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "client deleted"})
}

// Silent handles GET /clients/silent?minutes=N.
func (h *ClientHandler) Silent(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	minutes, _ := strconv.Atoi(r.URL.Query().Get("minutes"))
	clients, err := h.clients.Silent(r.Context(), actor, minutes)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"clients": clients, "count": len(clients)})
}

// Export handles GET /clients/export?format=json|csv. Registration codes are
// excluded from exports.
func (h *ClientHandler) Export(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "csv" {
		csvData, err := h.clients.ExportCSV(r.Context(), actor)
		if err != nil {
			h.errs.HandleError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"csv": csvData})
		return
	}

	clients, err := h.clients.List(r.Context(), actor)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	for _, c := range clients {
		c.RegistrationCode = ""
	}
	respondJSON(w, http.StatusOK, map[string]any{"clients": clients, "count": len(clients)})
}

// Locations handles GET /clients/locations.
func (h *ClientHandler) Locations(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	locations, err := h.clients.Locations(r.Context(), actor)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"locations": locations, "count": len(locations)})
}

// GenerateCode handles POST /clients/{client_id}/generate-code.
func (h *ClientHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	client, err := h.clients.GenerateCode(r.Context(), actor, mux.Vars(r)["client_id"])
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	balance := h.admins.Credits(r.Context(), actor)
	respondJSON(w, http.StatusOK, map[string]any{
		"registration_code": client.RegistrationCode,
		"client_id":         client.ID,
		"credits_remaining": balance.CreditsRemaining(),
	})
}

// Lock handles POST /clients/{client_id}/lock.
func (h *ClientHandler) Lock(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var in struct {
		Message string `json:"message"`
	}
	// Body is optional; a missing or empty body keeps the current message.
	_ = decodeJSON(r, &in)
	if in.Message == "" {
		in.Message = r.URL.Query().Get("message")
	}

	client, err := h.clients.Lock(r.Context(), actor, mux.Vars(r)["client_id"], in.Message)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	h.metrics.RecordDeviceLock("manual")
	respondJSON(w, http.StatusOK, client)
}

// Unlock handles POST /clients/{client_id}/unlock.
func (h *ClientHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	client, err := h.clients.Unlock(r.Context(), actor, mux.Vars(r)["client_id"])
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// Warning handles POST /clients/{client_id}/warning?message=.
func (h *ClientHandler) Warning(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	message := r.URL.Query().Get("message")
	if message == "" {
		var in struct {
			Message string `json:"message"`
		}
		_ = decodeJSON(r, &in)
		message = in.Message
	}

	client, err := h.clients.SetWarning(r.Context(), actor, mux.Vars(r)["client_id"], message)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// AllowUninstall handles POST /clients/{client_id}/allow-uninstall.
func (h *ClientHandler) AllowUninstall(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	client, err := h.clients.AllowUninstall(r.Context(), actor, mux.Vars(r)["client_id"])
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// ReportTamper handles POST /clients/{client_id}/report-tamper. Called by
// the device, no token.
func (h *ClientHandler) ReportTamper(w http.ResponseWriter, r *http.Request) {
	if err := h.clients.ReportTamper(r.Context(), mux.Vars(r)["client_id"]); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "tamper attempt recorded"})
}

// ReportReboot handles POST /clients/{client_id}/report-reboot. Called by
// the device, no token.
func (h *ClientHandler) ReportReboot(w http.ResponseWriter, r *http.Request) {
	if err := h.clients.ReportReboot(r.Context(), mux.Vars(r)["client_id"]); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "reboot recorded"})
}

// BulkOperation handles POST /clients/bulk-operation.
func (h *ClientHandler) BulkOperation(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var in struct {
		Action    string   `json:"action"`
		ClientIDs []string `json:"client_ids"`
		Message   string   `json:"message"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	result, err := h.clients.BulkOperation(r.Context(), actor, in.Action, in.ClientIDs, in.Message)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	if in.Action == service.BulkActionLock {
		for i := 0; i < result.SuccessCount; i++ {
			h.metrics.RecordDeviceLock("manual")
		}
	}
	respondJSON(w, http.StatusOK, result)
}

// LateFees handles GET /clients/{client_id}/late-fees.
func (h *ClientHandler) LateFees(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	status, err := h.clients.LateFees(r.Context(), actor, mux.Vars(r)["client_id"])
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}
