package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/config"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/metrics"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/service"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/store"
)

// testAPI wires the handlers over in-memory stores behind a mux router.
type testAPI struct {
	router  *mux.Router
	clients *store.MemoryClientStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	logger := zap.NewNop()
	errs := errors.NewHandler(logger)
	m := metrics.NewMetrics()

	admins := store.NewMemoryAdminStore()
	tokens := store.NewMemoryTokenStore()
	clients := store.NewMemoryClientStore()
	plans := store.NewMemoryLoanPlanStore()
	payments := store.NewMemoryPaymentStore(clients)
	reminders := store.NewMemoryReminderStore()
	notifications := store.NewMemoryNotificationStore()
	support := store.NewMemorySupportStore()

	authCfg := config.AuthConfig{TokenExpiry: time.Hour, BcryptCost: 4}
	adminSvc := service.NewAdminService(admins, tokens, authCfg, logger)
	clientSvc := service.NewClientService(clients, admins, payments, reminders, notifications, logger)
	deviceSvc := service.NewDeviceService(clients, logger)
	loanSvc := service.NewLoanService(clients, plans, payments, logger)

	supportSvc := service.NewSupportService(clients, support, notifications, logger)

	adminH := NewAdminHandler(adminSvc, errs, logger)
	clientH := NewClientHandler(clientSvc, adminSvc, m, errs, logger)
	deviceH := NewDeviceHandler(deviceSvc, errs, logger)
	loanH := NewLoanHandler(loanSvc, nil, adminSvc, m, errs, logger)
	supportH := NewSupportHandler(supportSvc, adminSvc, errs, logger)

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/admin/register", adminH.Register).Methods(http.MethodPost)
	api.HandleFunc("/admin/login", adminH.Login).Methods(http.MethodPost)
	api.HandleFunc("/admin/verify/{token}", adminH.Verify).Methods(http.MethodGet)
	api.HandleFunc("/admin/credits", adminH.Credits).Methods(http.MethodGet)
	api.HandleFunc("/clients", clientH.Create).Methods(http.MethodPost)
	api.HandleFunc("/clients", clientH.List).Methods(http.MethodGet)
	api.HandleFunc("/clients/{client_id}", clientH.Get).Methods(http.MethodGet)
	api.HandleFunc("/clients/{client_id}/generate-code", clientH.GenerateCode).Methods(http.MethodPost)
	api.HandleFunc("/clients/{client_id}/lock", clientH.Lock).Methods(http.MethodPost)
	api.HandleFunc("/device/register", deviceH.Register).Methods(http.MethodPost)
	api.HandleFunc("/device/status/{client_id}", deviceH.Status).Methods(http.MethodGet)
	api.HandleFunc("/calculator/compare", loanH.Compare).Methods(http.MethodGet)
	api.HandleFunc("/calculator/amortization", loanH.Amortization).Methods(http.MethodPost)
	api.HandleFunc("/loans/{client_id}/setup", loanH.SetupLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{client_id}/payments", loanH.RecordPayment).Methods(http.MethodPost)
	api.HandleFunc("/payments/history/{client_id}", loanH.PaymentHistory).Methods(http.MethodGet)
	api.HandleFunc("/support/messages/{client_id}", supportH.Send).Methods(http.MethodPost)

	return &testAPI{router: router, clients: clients}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// registerSuper registers the first admin and returns its token.
func (a *testAPI) registerSuper(t *testing.T) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/admin/register", map[string]string{
		"username": "boss",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode(t, rec)["token"].(string)
}

func TestRegisterAndLoginFlow(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/admin/register", map[string]string{
		"username": "boss",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.NotEmpty(t, body["token"])

	admin := body["admin"].(map[string]any)
	assert.Equal(t, "boss", admin["username"])
	assert.Equal(t, true, admin["is_super_admin"])
	// The password hash never leaks.
	assert.NotContains(t, rec.Body.String(), "password")

	rec = api.do(t, http.MethodPost, "/api/admin/login", map[string]string{
		"username": "boss",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode(t, rec)["token"].(string)

	rec = api.do(t, http.MethodGet, "/api/admin/verify/"+token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["valid"])
}

func TestLoginFailureEnvelope(t *testing.T) {
	api := newTestAPI(t)
	api.registerSuper(t)

	rec := api.do(t, http.MethodPost, "/api/admin/login", map[string]string{
		"username": "boss",
		"password": "nope",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "AUTHENTICATION_ERROR", body["code"])
	assert.NotEmpty(t, body["error"])
	assert.NotEmpty(t, body["correlation_id"])
}

func TestMissingTokenRejected(t *testing.T) {
	api := newTestAPI(t)
	api.registerSuper(t)

	rec := api.do(t, http.MethodGet, "/api/clients", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTHENTICATION_ERROR", decode(t, rec)["code"])
}

func TestTokenViaQueryAndHeader(t *testing.T) {
	api := newTestAPI(t)
	token := api.registerSuper(t)

	rec := api.do(t, http.MethodGet, "/api/clients?admin_token="+token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recHeader := httptest.NewRecorder()
	api.router.ServeHTTP(recHeader, req)
	assert.Equal(t, http.StatusOK, recHeader.Code)
}

func TestClientLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	token := api.registerSuper(t)

	rec := api.do(t, http.MethodPost, "/api/clients?admin_token="+token, map[string]string{
		"name":  "Mati Tamm",
		"phone": "+37255512345",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	clientID := decode(t, rec)["id"].(string)

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/api/clients/%s?admin_token=%s", clientID, token), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mati Tamm", decode(t, rec)["name"])

	// Generate a code and register the device with it.
	rec = api.do(t, http.MethodPost, fmt.Sprintf("/api/clients/%s/generate-code?admin_token=%s", clientID, token), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	code := body["registration_code"].(string)
	assert.Equal(t, "unlimited", body["credits_remaining"])

	rec = api.do(t, http.MethodPost, "/api/device/register", map[string]string{
		"registration_code": code,
		"device_id":         "device-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, clientID, decode(t, rec)["client_id"])

	// Lock and confirm the device sees it.
	rec = api.do(t, http.MethodPost, fmt.Sprintf("/api/clients/%s/lock?admin_token=%s", clientID, token), map[string]string{
		"message": "Pay up",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/device/status/"+clientID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode(t, rec)
	assert.Equal(t, true, status["is_locked"])
	assert.Equal(t, "Pay up", status["lock_message"])
}

func TestCalculatorCompare(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/calculator/compare?loan_amount=1000&interest_rate=12&tenure_months=12", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Contains(t, body, "simple_interest")
	require.Contains(t, body, "reducing_balance")
	require.Contains(t, body, "flat_rate")

	simple := body["simple_interest"].(map[string]any)
	assert.Equal(t, 1120.0, simple["total_amount"])

	rec = api.do(t, http.MethodGet, "/api/calculator/compare?loan_amount=-1", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCalculatorCompareConsoleParams(t *testing.T) {
	api := newTestAPI(t)

	// The admin console sends principal/annual_rate/months.
	rec := api.do(t, http.MethodGet, "/api/calculator/compare?principal=10000&annual_rate=12&months=12", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Contains(t, body, "simple_interest")
	require.Contains(t, body, "reducing_balance")
	require.Contains(t, body, "flat_rate")
}

func TestAmortizationQueryParams(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/calculator/amortization?principal=1200&annual_rate=0&months=12&method=reducing_balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	schedule := body["schedule"].([]any)
	require.Len(t, schedule, 12)
	summary := body["summary"].(map[string]any)
	assert.Equal(t, 100.0, summary["monthly_emi"])

	rec = api.do(t, http.MethodPost, "/api/calculator/amortization?principal=-5&annual_rate=0&months=12", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLoanSetupOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	token := api.registerSuper(t)

	rec := api.do(t, http.MethodPost, "/api/clients?admin_token="+token, map[string]string{
		"name": "Mati Tamm",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	clientID := decode(t, rec)["id"].(string)

	rec = api.do(t, http.MethodPost, fmt.Sprintf("/api/loans/%s/setup?admin_token=%s", clientID, token), map[string]any{
		"loan_amount":        1200,
		"interest_rate":      0,
		"loan_tenure_months": 12,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, 100.0, body["monthly_emi"])
	assert.Equal(t, 1200.0, body["outstanding_balance"])
}

func TestPaymentHistoryWithoutToken(t *testing.T) {
	api := newTestAPI(t)
	token := api.registerSuper(t)

	rec := api.do(t, http.MethodPost, "/api/clients?admin_token="+token, map[string]string{
		"name":  "Mati Tamm",
		"phone": "+37255512345",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	clientID := decode(t, rec)["id"].(string)

	rec = api.do(t, http.MethodPost, fmt.Sprintf("/api/loans/%s/setup?admin_token=%s", clientID, token), map[string]any{
		"loan_amount":        1200,
		"interest_rate":      0,
		"loan_tenure_months": 12,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, fmt.Sprintf("/api/loans/%s/payments?admin_token=%s", clientID, token), map[string]any{
		"amount": 100,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// The device app fetches history with no admin token.
	rec = api.do(t, http.MethodGet, "/api/payments/history/"+clientID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	payments := body["payments"].([]any)
	require.Len(t, payments, 1)

	loanInfo := body["loan_info"].(map[string]any)
	assert.Equal(t, 1200.0, loanInfo["loan_amount"])
	assert.Equal(t, 100.0, loanInfo["total_paid"])
	assert.Equal(t, 1100.0, loanInfo["outstanding_balance"])
	assert.Equal(t, 100.0, loanInfo["monthly_emi"])
	assert.NotNil(t, loanInfo["next_payment_due"])

	rec = api.do(t, http.MethodGet, "/api/payments/history/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSupportSenderQueryParam(t *testing.T) {
	api := newTestAPI(t)
	token := api.registerSuper(t)

	rec := api.do(t, http.MethodPost, "/api/clients?admin_token="+token, map[string]string{
		"name":  "Mati Tamm",
		"phone": "+37255512345",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	clientID := decode(t, rec)["id"].(string)

	path := fmt.Sprintf("/api/support/messages/%s?sender=admin&admin_token=%s", clientID, token)
	rec = api.do(t, http.MethodPost, path, map[string]string{"message": "Payment is overdue"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "admin", decode(t, rec)["sender"])
}

func TestInvalidJSONBody(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/register", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, rec)["code"])
}
