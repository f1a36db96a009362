package handler

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/service"
)

// NotificationHandler handles the admin notification feed.
type NotificationHandler struct {
	notifications *service.NotificationService
	admins        *service.AdminService
	errs          *errors.Handler
	logger        *zap.Logger
}

// NewNotificationHandler creates a notification handler.
func NewNotificationHandler(notifications *service.NotificationService, admins *service.AdminService, errs *errors.Handler, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, admins: admins, errs: errs, logger: logger}
}

// List handles GET /notifications?limit=N.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	feed, err := h.notifications.List(r.Context(), actor, limit)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, feed)
}

// MarkRead handles POST /notifications/mark-read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var in struct {
		NotificationID string `json:"notification_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	if err := h.notifications.MarkRead(r.Context(), actor, in.NotificationID); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "notification marked as read"})
}

// MarkAllRead handles POST /notifications/mark-all-read.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	count, err := h.notifications.MarkAllRead(r.Context(), actor)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "notifications marked as read", "count": count})
}
