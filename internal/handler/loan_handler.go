package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/algorithm"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/metrics"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/service"
)

// LoanHandler handles loan plans, the EMI calculator, loan setup and
// payments.
type LoanHandler struct {
	loans   *service.LoanService
	sweeps  *service.SweepService
	admins  *service.AdminService
	metrics *metrics.Metrics
	errs    *errors.Handler
	logger  *zap.Logger
}

// NewLoanHandler creates a loan handler.
func NewLoanHandler(loans *service.LoanService, sweeps *service.SweepService, admins *service.AdminService, m *metrics.Metrics, errs *errors.Handler, logger *zap.Logger) *LoanHandler {
	return &LoanHandler{loans: loans, sweeps: sweeps, admins: admins, metrics: m, errs: errs, logger: logger}
}

// CreatePlan handles POST /loan-plans.
func (h *LoanHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var in service.LoanPlanInput
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	plan, err := h.loans.CreatePlan(r.Context(), actor, in)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, plan)
}

// ListPlans handles GET /loan-plans.
func (h *LoanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	plans, err := h.loans.ListPlans(r.Context(), actor)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"loan_plans": plans, "count": len(plans)})
}

// GetPlan handles GET /loan-plans/{plan_id}.
func (h *LoanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	plan, err := h.loans.GetPlan(r.Context(), actor, mux.Vars(r)["plan_id"])
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// UpdatePlan handles PUT /loan-plans/{plan_id}.
func (h *LoanHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var in service.LoanPlanInput
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	plan, err := h.loans.UpdatePlan(r.Context(), actor, mux.Vars(r)["plan_id"], in)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// DeletePlan handles DELETE /loan-plans/{plan_id}.
func (h *LoanHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	if err := h.loans.DeletePlan(r.Context(), actor, mux.Vars(r)["plan_id"]); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "loan plan deleted"})
}

// queryValue returns the first non-empty value among the given keys.
func queryValue(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// calculatorParams reads the principal, rate and tenure common to both
// calculator endpoints. The admin console sends principal/annual_rate/months;
// loan_amount/interest_rate/tenure_months are accepted as aliases.
func calculatorParams(r *http.Request) (principal, rate float64, months int, err error) {
	q := r.URL.Query()
	principal, err = strconv.ParseFloat(queryValue(q, "principal", "loan_amount"), 64)
	if err != nil || principal <= 0 {
		return 0, 0, 0, errors.Validation("principal must be a positive number")
	}
	rate, err = strconv.ParseFloat(queryValue(q, "annual_rate", "interest_rate"), 64)
	if err != nil || rate < 0 {
		return 0, 0, 0, errors.Validation("annual_rate must be a non-negative number")
	}
	months, err = strconv.Atoi(queryValue(q, "months", "tenure_months"))
	if err != nil || months < 1 {
		return 0, 0, 0, errors.Validation("months must be a positive integer")
	}
	return principal, rate, months, nil
}

// Compare handles GET /calculator/compare. No token needed; the calculator
// is pure arithmetic.
func (h *LoanHandler) Compare(w http.ResponseWriter, r *http.Request) {
	principal, rate, months, err := calculatorParams(r)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, algorithm.CompareAll(principal, rate, months))
}

// Amortization handles POST /calculator/amortization. Inputs arrive as query
// parameters; a JSON body is accepted as an alternative.
func (h *LoanHandler) Amortization(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		principal float64
		rate      float64
		months    int
		method    string
		startDate string
		err       error
	)
	if queryValue(q, "principal", "loan_amount") != "" {
		principal, rate, months, err = calculatorParams(r)
		if err != nil {
			h.errs.HandleError(w, r, err)
			return
		}
		method = q.Get("method")
		startDate = q.Get("start_date")
	} else {
		var in struct {
			Principal    float64 `json:"principal"`
			LoanAmount   float64 `json:"loan_amount"`
			AnnualRate   float64 `json:"annual_rate"`
			InterestRate float64 `json:"interest_rate"`
			Months       int     `json:"months"`
			TenureMonths int     `json:"tenure_months"`
			Method       string  `json:"method"`
			StartDate    string  `json:"start_date"`
		}
		if err := decodeJSON(r, &in); err != nil {
			h.errs.HandleError(w, r, err)
			return
		}
		principal = in.Principal
		if principal == 0 {
			principal = in.LoanAmount
		}
		rate = in.AnnualRate
		if rate == 0 {
			rate = in.InterestRate
		}
		months = in.Months
		if months == 0 {
			months = in.TenureMonths
		}
		method = in.Method
		startDate = in.StartDate

		if principal <= 0 {
			h.errs.HandleError(w, r, errors.Validation("principal must be a positive number"))
			return
		}
		if months < 1 {
			h.errs.HandleError(w, r, errors.Validation("months must be a positive integer"))
			return
		}
	}

	start := time.Now().UTC()
	if startDate != "" {
		parsed, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			h.errs.HandleError(w, r, errors.Validation("start_date must be YYYY-MM-DD"))
			return
		}
		start = parsed
	}

	result := algorithm.ByMethod(method, principal, rate, months)
	schedule := algorithm.AmortizationSchedule(principal, rate, months, result.MonthlyEMI, start)
	respondJSON(w, http.StatusOK, map[string]any{
		"summary":  result,
		"schedule": schedule,
	})
}

// SetupLoan handles POST /loans/{client_id}/setup.
func (h *LoanHandler) SetupLoan(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var in service.LoanSetupInput
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	client, err := h.loans.SetupLoan(r.Context(), actor, mux.Vars(r)["client_id"], in)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// RecordPayment handles POST /loans/{client_id}/payments.
func (h *LoanHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var in service.PaymentInput
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	payment, client, err := h.loans.RecordPayment(r.Context(), actor, mux.Vars(r)["client_id"], in)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	h.metrics.RecordPayment(payment.Amount)
	respondJSON(w, http.StatusCreated, map[string]any{
		"payment": payment,
		"client":  client,
	})
}

// Payments handles GET /loans/{client_id}/payments.
func (h *LoanHandler) Payments(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	payments, err := h.loans.Payments(r.Context(), actor, mux.Vars(r)["client_id"])
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"payments": payments, "count": len(payments)})
}

// PaymentHistory handles GET /payments/history/{client_id}. Called by the
// device app's history screen, so no token is required.
func (h *LoanHandler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	client, payments, err := h.loans.PaymentHistory(r.Context(), mux.Vars(r)["client_id"])
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"payments": payments,
		"loan_info": map[string]any{
			"loan_amount":         client.LoanAmount,
			"total_paid":          client.TotalPaid,
			"outstanding_balance": client.OutstandingBalance,
			"monthly_emi":         client.MonthlyEMI,
			"next_payment_due":    client.NextPaymentDue,
		},
	})
}

// Schedule handles GET /loans/{client_id}/schedule.
func (h *LoanHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	schedule, err := h.loans.Schedule(r.Context(), actor, mux.Vars(r)["client_id"])
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"schedule": schedule, "count": len(schedule)})
}

// UpdateSettings handles PUT /loans/{client_id}/settings.
func (h *LoanHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	actor, err := authenticate(r, h.admins)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var in service.LoanSettingsInput
	if err := decodeJSON(r, &in); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	client, err := h.loans.UpdateSettings(r.Context(), actor, mux.Vars(r)["client_id"], in)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// CalculateLateFees handles POST /late-fees/calculate-all. Runs the same
// pass the background job runs.
func (h *LoanHandler) CalculateLateFees(w http.ResponseWriter, r *http.Request) {
	if _, err := authenticate(r, h.admins); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	result, err := h.sweeps.CalculateLateFees(r.Context())
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	for i := 0; i < result.Locked; i++ {
		h.metrics.RecordDeviceLock("auto")
	}
	respondJSON(w, http.StatusOK, result)
}
