package handler

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/service"
)

// ContractHandler handles loan contract PDF generation and delivery.
type ContractHandler struct {
	contracts *service.ContractService
	admins    *service.AdminService
	errs      *errors.Handler
	logger    *zap.Logger
}

// NewContractHandler creates a contract handler.
func NewContractHandler(contracts *service.ContractService, admins *service.AdminService, errs *errors.Handler, logger *zap.Logger) *ContractHandler {
	return &ContractHandler{contracts: contracts, admins: admins, errs: errs, logger: logger}
}

func (h *ContractHandler) render(w http.ResponseWriter, r *http.Request, disposition string) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	pdf, filename, err := h.contracts.Generate(r.Context(), actor, mux.Vars(r)["client_id"])
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// Preview handles GET /contracts/{client_id}/preview. Serves the PDF inline.
func (h *ContractHandler) Preview(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "inline")
}

// Download handles GET /contracts/{client_id}/download.
func (h *ContractHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "attachment")
}

// SendEmail handles POST /contracts/{client_id}/send-email.
func (h *ContractHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	message, err := h.contracts.SendEmail(r.Context(), actor, mux.Vars(r)["client_id"])
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}
