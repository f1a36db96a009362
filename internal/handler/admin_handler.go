package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/service"
)

// AdminHandler handles admin account endpoints.
type AdminHandler struct {
	admins *service.AdminService
	errs   *errors.Handler
	logger *zap.Logger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(admins *service.AdminService, errs *errors.Handler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admins: admins, errs: errs, logger: logger}
}

type authResponse struct {
	Admin     *model.Admin `json:"admin"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Register handles POST /admin/register.
func (h *AdminHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	admin, token, err := h.admins.Register(r.Context(), adminToken(r), in)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{
		Admin:     admin,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	})
}

// Login handles POST /admin/login.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	admin, token, err := h.admins.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, authResponse{
		Admin:     admin,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	})
}

// Verify handles GET /admin/verify/{token}.
func (h *AdminHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token, err := h.admins.Verify(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"valid":      true,
		"admin_id":   token.AdminID,
		"expires_at": token.ExpiresAt,
	})
}

// List handles GET /admin/list and GET /admin/list-with-credits. Password
// hashes are never serialized.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	admins, err := h.admins.List(r.Context(), actor)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"admins": admins})
}

// ChangePassword handles POST /admin/change-password.
func (h *AdminHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var in struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	if err := h.admins.ChangePassword(r.Context(), actor, in.CurrentPassword, in.NewPassword); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// UpdateProfile handles PUT /admin/update-profile and PUT /admin/profile.
func (h *AdminHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var in service.ProfileInput
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	admin, err := h.admins.UpdateProfile(r.Context(), actor, in)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, admin)
}

// Delete handles DELETE /admin/{admin_id}.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	if err := h.admins.Delete(r.Context(), actor, mux.Vars(r)["admin_id"]); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "admin deleted"})
}

// Credits handles GET /admin/credits.
func (h *AdminHandler) Credits(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	balance := h.admins.Credits(r.Context(), actor)
	respondJSON(w, http.StatusOK, map[string]any{
		"admin_id":          balance.AdminID,
		"username":          balance.Username,
		"credits_remaining": balance.CreditsRemaining(),
	})
}

// AssignCredits handles POST /admin/credits/assign.
func (h *AdminHandler) AssignCredits(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var in struct {
		AdminID string `json:"admin_id"`
		Amount  int    `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	previous, current, err := h.admins.AssignCredits(r.Context(), actor, in.AdminID, in.Amount)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"admin_id":         in.AdminID,
		"previous_credits": previous,
		"new_credits":      current,
	})
}
