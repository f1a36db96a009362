package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/service"
)

// SupportHandler handles the support chat between a client device and its
// admin. The device calls these without a token; the admin app passes one.
type SupportHandler struct {
	support *service.SupportService
	admins  *service.AdminService
	errs    *errors.Handler
	logger  *zap.Logger
}

// NewSupportHandler creates a support handler.
func NewSupportHandler(support *service.SupportService, admins *service.AdminService, errs *errors.Handler, logger *zap.Logger) *SupportHandler {
	return &SupportHandler{support: support, admins: admins, errs: errs, logger: logger}
}

// Messages handles GET /support/messages/{client_id}.
func (h *SupportHandler) Messages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.support.Messages(r.Context(), mux.Vars(r)["client_id"])
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": messages, "count": len(messages)})
}

// Send handles POST /support/messages/{client_id}. Sending as admin requires
// a valid token; without one the message is recorded as sent by the client.
func (h *SupportHandler) Send(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Sender  string `json:"sender"`
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	sender := in.Sender
	if sender == "" {
		sender = r.URL.Query().Get("sender")
	}
	if sender == "" {
		sender = model.SenderClient
	}
	if sender == model.SenderAdmin {
		if _, err := authenticate(r, h.admins); err != nil {
			h.errs.HandleError(w, r, err)
			return
		}
	}

	message, err := h.support.Send(r.Context(), mux.Vars(r)["client_id"], sender, in.Message)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, message)
}

// MarkRead handles POST /support/messages/{client_id}/mark-read. Marks the
// client's messages as read by the admin.
func (h *SupportHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if _, err := authenticate(r, h.admins); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	if err := h.support.MarkRead(r.Context(), mux.Vars(r)["client_id"]); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "messages marked as read"})
}
