// Package handler implements the HTTP handlers of the EMI admin API.
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/service"
)

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes the request body into v, rejecting unparseable bodies.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Validation("invalid JSON body")
	}
	return nil
}

// adminToken extracts the admin token from the request. The mobile apps pass
// it as the admin_token query parameter; a Bearer header also works.
func adminToken(r *http.Request) string {
	if token := r.URL.Query().Get("admin_token"); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// authenticate resolves the request's admin token to an account.
func authenticate(r *http.Request, admins *service.AdminService) (*model.Admin, error) {
	return admins.Authenticate(r.Context(), adminToken(r))
}
