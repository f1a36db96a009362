package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/metrics"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/service"
)

// ReminderHandler handles payment reminders and push notifications.
type ReminderHandler struct {
	reminders *service.ReminderService
	admins    *service.AdminService
	metrics   *metrics.Metrics
	errs      *errors.Handler
	logger    *zap.Logger
}

// NewReminderHandler creates a reminder handler.
func NewReminderHandler(reminders *service.ReminderService, admins *service.AdminService, m *metrics.Metrics, errs *errors.Handler, logger *zap.Logger) *ReminderHandler {
	return &ReminderHandler{reminders: reminders, admins: admins, metrics: m, errs: errs, logger: logger}
}

// List handles GET /reminders.
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	reminders, err := h.reminders.ListByAdmin(r.Context(), actor)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"reminders": reminders, "count": len(reminders)})
}

// ListByClient handles GET /clients/{client_id}/reminders.
func (h *ReminderHandler) ListByClient(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	reminders, err := h.reminders.ListByClient(r.Context(), actor, mux.Vars(r)["client_id"])
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"reminders": reminders, "count": len(reminders)})
}

// Pending handles GET /reminders/pending. Buckets clients by how close to
// (or past) their next payment they are.
func (h *ReminderHandler) Pending(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	buckets, err := h.reminders.Pending(r.Context(), actor)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, buckets)
}

// MarkSent handles POST /reminders/{reminder_id}/mark-sent.
func (h *ReminderHandler) MarkSent(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	if err := h.reminders.MarkSent(r.Context(), actor, mux.Vars(r)["reminder_id"]); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "reminder marked as sent"})
}

// CreateAll handles POST /reminders/create-all. Runs the reminder sweep for
// the acting admin's clients.
func (h *ReminderHandler) CreateAll(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	count, err := h.reminders.CreateAll(r.Context(), actor)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	h.metrics.RecordReminders(count)
	respondJSON(w, http.StatusOK, map[string]any{"message": "reminders created", "count": count})
}

// SendPush handles POST /reminders/send-push. Pushes a custom message to
// every client of the acting admin with a valid push token.
func (h *ReminderHandler) SendPush(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var in struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	sent, err := h.reminders.SendPush(r.Context(), actor, in.Title, in.Body)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	h.metrics.RecordPushSent(sent)
	respondJSON(w, http.StatusOK, map[string]any{"message": "push notifications sent", "sent": sent})
}

// SendSingle handles POST /reminders/send-single/{client_id}.
func (h *ReminderHandler) SendSingle(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var in struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	reminder, err := h.reminders.SendSingle(r.Context(), actor, mux.Vars(r)["client_id"], in.Title, in.Body)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	h.metrics.RecordPushSent(1)
	respondJSON(w, http.StatusCreated, reminder)
}
