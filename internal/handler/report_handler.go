package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/service"
)

// ReportHandler handles reports, stats and the analytics dashboard.
type ReportHandler struct {
	reports *service.ReportService
	admins  *service.AdminService
	errs    *errors.Handler
	logger  *zap.Logger
}

// NewReportHandler creates a report handler.
func NewReportHandler(reports *service.ReportService, admins *service.AdminService, errs *errors.Handler, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, admins: admins, errs: errs, logger: logger}
}

// Collection handles GET /reports/collection.
func (h *ReportHandler) Collection(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	report, err := h.reports.Collection(r.Context(), actor)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Clients handles GET /reports/clients.
func (h *ReportHandler) Clients(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	rows, err := h.reports.Clients(r.Context(), actor)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"clients": rows, "count": len(rows)})
}

// Financial handles GET /reports/financial?start_date=&end_date=.
func (h *ReportHandler) Financial(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	q := r.URL.Query()
	report, err := h.reports.Financial(r.Context(), actor, q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Stats handles GET /stats.
func (h *ReportHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	stats, err := h.reports.Stats(r.Context(), actor)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Dashboard handles GET /analytics/dashboard.
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	dashboard, err := h.reports.Dashboard(r.Context(), actor)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}
