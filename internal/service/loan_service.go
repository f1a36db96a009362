package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/algorithm"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/store"
)

// LoanService handles loan plans, loan setup, payments and schedules.
type LoanService struct {
	clients  store.ClientStore
	plans    store.LoanPlanStore
	payments store.PaymentStore
	logger   *zap.Logger
}

// NewLoanService creates a loan service.
func NewLoanService(clients store.ClientStore, plans store.LoanPlanStore, payments store.PaymentStore, logger *zap.Logger) *LoanService {
	return &LoanService{clients: clients, plans: plans, payments: payments, logger: logger}
}

// SeedDefaultPlan ensures the default loan plan exists. Called at startup.
func (s *LoanService) SeedDefaultPlan(ctx context.Context) error {
	_, err := s.plans.GetByName(ctx, model.DefaultLoanPlanName)
	if err == nil {
		return nil
	}
	if !stderrors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to check default plan: %w", err)
	}

	plan := model.NewLoanPlan(model.DefaultLoanPlanName, 50)
	plan.MinTenureMonths = 1
	plan.MaxTenureMonths = 1
	plan.Description = "Single installment: principal plus 50% due after one month"
	if err := s.plans.Create(ctx, plan); err != nil {
		return fmt.Errorf("failed to seed default plan: %w", err)
	}

	s.logger.Info("default loan plan seeded", zap.String("plan_id", plan.ID))
	return nil
}

// LoanPlanInput carries create/update fields for a loan plan.
type LoanPlanInput struct {
	Name                 *string  `json:"name"`
	InterestRate         *float64 `json:"interest_rate"`
	MinTenureMonths      *int     `json:"min_tenure_months"`
	MaxTenureMonths      *int     `json:"max_tenure_months"`
	ProcessingFeePercent *float64 `json:"processing_fee_percent"`
	LateFeePercent       *float64 `json:"late_fee_percent"`
	Description          *string  `json:"description"`
	IsActive             *bool    `json:"is_active"`
}

// CreatePlan adds a loan plan owned by the acting admin.
func (s *LoanService) CreatePlan(ctx context.Context, actor *model.Admin, in LoanPlanInput) (*model.LoanPlan, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, errors.Validation("plan name is required")
	}
	if in.InterestRate == nil || *in.InterestRate < 0 || *in.InterestRate > 100 {
		return nil, errors.Validation("interest rate must be between 0 and 100")
	}

	plan := model.NewLoanPlan(strings.TrimSpace(*in.Name), *in.InterestRate)
	plan.AdminID = actor.ID
	applyPlanInput(plan, in)
	if plan.MinTenureMonths < 1 || plan.MaxTenureMonths < plan.MinTenureMonths {
		return nil, errors.Validation("tenure range is invalid")
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create loan plan: %w", err)
	}
	return plan, nil
}

func applyPlanInput(p *model.LoanPlan, in LoanPlanInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.InterestRate != nil {
		p.InterestRate = *in.InterestRate
	}
	if in.MinTenureMonths != nil {
		p.MinTenureMonths = *in.MinTenureMonths
	}
	if in.MaxTenureMonths != nil {
		p.MaxTenureMonths = *in.MaxTenureMonths
	}
	if in.ProcessingFeePercent != nil {
		p.ProcessingFeePercent = *in.ProcessingFeePercent
	}
	if in.LateFeePercent != nil {
		p.LateFeePercent = *in.LateFeePercent
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

// ListPlans returns the plans visible to the actor: their own plus the seeded
// defaults without an owner.
func (s *LoanService) ListPlans(ctx context.Context, actor *model.Admin) ([]*model.LoanPlan, error) {
	if actor.IsSuperAdmin {
		plans, err := s.plans.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list loan plans: %w", err)
		}
		return plans, nil
	}

	all, err := s.plans.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list loan plans: %w", err)
	}
	plans := make([]*model.LoanPlan, 0, len(all))
	for _, p := range all {
		if p.AdminID == "" || p.AdminID == actor.ID {
			plans = append(plans, p)
		}
	}
	return plans, nil
}

// GetPlan returns one plan within the actor's scope.
func (s *LoanService) GetPlan(ctx context.Context, actor *model.Admin, id string) (*model.LoanPlan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NotFound("loan plan not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load loan plan: %w", err)
	}
	if !actor.IsSuperAdmin && plan.AdminID != "" && plan.AdminID != actor.ID {
		return nil, errors.NotFound("loan plan not found")
	}
	return plan, nil
}

// UpdatePlan applies the provided fields to a plan.
func (s *LoanService) UpdatePlan(ctx context.Context, actor *model.Admin, id string, in LoanPlanInput) (*model.LoanPlan, error) {
	plan, err := s.GetPlan(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	applyPlanInput(plan, in)
	if plan.InterestRate < 0 || plan.InterestRate > 100 {
		return nil, errors.Validation("interest rate must be between 0 and 100")
	}
	if plan.MinTenureMonths < 1 || plan.MaxTenureMonths < plan.MinTenureMonths {
		return nil, errors.Validation("tenure range is invalid")
	}

	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to update loan plan: %w", err)
	}
	return plan, nil
}

// DeletePlan removes a plan unless clients are attached to it.
func (s *LoanService) DeletePlan(ctx context.Context, actor *model.Admin, id string) error {
	plan, err := s.GetPlan(ctx, actor, id)
	if err != nil {
		return err
	}

	inUse, err := s.clients.CountByLoanPlan(ctx, plan.ID)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return errors.Conflict(fmt.Sprintf("cannot delete: %d client(s) use this plan", inUse))
	}

	if err := s.plans.Delete(ctx, plan.ID); err != nil {
		return fmt.Errorf("failed to delete loan plan: %w", err)
	}
	return nil
}

// LoanSetupInput carries a loan setup request. Either tenure_months or
// due_date (YYYY-MM-DD, deriving tenure) must be provided.
type LoanSetupInput struct {
	LoanPlanID   string   `json:"loan_plan_id"`
	LoanAmount   float64  `json:"loan_amount"`
	DownPayment  float64  `json:"down_payment"`
	InterestRate *float64 `json:"interest_rate"`
	TenureMonths int      `json:"loan_tenure_months"`
	DueDate      string   `json:"due_date"`
}

// SetupLoan configures a client's loan. The financed principal is the loan
// amount minus the down payment; EMI is calculated on the reducing balance.
func (s *LoanService) SetupLoan(ctx context.Context, actor *model.Admin, clientID string, in LoanSetupInput) (*model.Client, error) {
	client, err := s.scopedClient(ctx, actor, clientID)
	if err != nil {
		return nil, err
	}

	if in.LoanAmount <= 0 {
		return nil, errors.Validation("loan amount must be positive")
	}
	if in.DownPayment < 0 || in.DownPayment >= in.LoanAmount {
		return nil, errors.Validation("down payment must be between 0 and the loan amount")
	}

	interestRate := 0.0
	processingFeePercent := 0.0
	if in.LoanPlanID != "" {
		plan, err := s.GetPlan(ctx, actor, in.LoanPlanID)
		if err != nil {
			return nil, err
		}
		if !plan.IsActive {
			return nil, errors.Validation("loan plan is not active")
		}
		interestRate = plan.InterestRate
		processingFeePercent = plan.ProcessingFeePercent
		client.LoanPlanID = plan.ID
	}
	if in.InterestRate != nil {
		if *in.InterestRate < 0 || *in.InterestRate > 100 {
			return nil, errors.Validation("interest rate must be between 0 and 100")
		}
		interestRate = *in.InterestRate
	}

	now := time.Now().UTC()
	tenure := in.TenureMonths
	if tenure == 0 && in.DueDate != "" {
		due, err := time.Parse("2006-01-02", in.DueDate)
		if err != nil {
			return nil, errors.Validation("due_date must be YYYY-MM-DD")
		}
		tenure = algorithm.TenureFromDueDate(now, due)
	}
	if tenure < 1 {
		return nil, errors.Validation("loan tenure must be at least 1 month")
	}

	principal := in.LoanAmount - in.DownPayment
	result := algorithm.ReducingBalanceEMI(principal, interestRate, tenure)
	processingFee := algorithm.Round2(principal * processingFeePercent / 100)

	client.LoanAmount = in.LoanAmount
	client.DownPayment = in.DownPayment
	client.InterestRate = interestRate
	client.LoanTenureMonths = tenure
	client.MonthlyEMI = result.MonthlyEMI
	client.TotalAmountDue = result.TotalAmount
	client.TotalPaid = 0
	client.OutstandingBalance = result.TotalAmount
	client.ProcessingFee = processingFee
	client.LateFeesAccumulated = 0
	client.DaysOverdue = 0
	client.LoanStartDate = &now
	nextDue := algorithm.AddMonths(now, 1)
	client.NextPaymentDue = &nextDue
	client.LastPaymentDate = nil

	// Keep the legacy fields in sync for older device app builds.
	client.EMIAmount = result.MonthlyEMI
	client.EMIDueDate = nextDue.Format("2006-01-02")

	if err := s.clients.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to set up loan: %w", err)
	}

	s.logger.Info("loan set up",
		zap.String("client_id", client.ID),
		zap.Float64("principal", principal),
		zap.Int("tenure_months", tenure),
		zap.Float64("monthly_emi", result.MonthlyEMI))
	return client, nil
}

// PaymentInput carries a payment record request.
type PaymentInput struct {
	Amount        float64 `json:"amount"`
	PaymentDate   string  `json:"payment_date"`
	PaymentMethod string  `json:"payment_method"`
	Notes         string  `json:"notes"`
}

// RecordPayment records a repayment, advances the schedule and auto-unlocks
// the device once the balance reaches zero.
func (s *LoanService) RecordPayment(ctx context.Context, actor *model.Admin, clientID string, in PaymentInput) (*model.Payment, *model.Client, error) {
	client, err := s.scopedClient(ctx, actor, clientID)
	if err != nil {
		return nil, nil, err
	}
	if in.Amount <= 0 {
		return nil, nil, errors.Validation("payment amount must be positive")
	}
	if client.LoanStartDate == nil {
		return nil, nil, errors.Validation("client has no active loan")
	}

	paymentDate := time.Time{}
	if in.PaymentDate != "" {
		paymentDate, err = time.Parse("2006-01-02", in.PaymentDate)
		if err != nil {
			return nil, nil, errors.Validation("payment_date must be YYYY-MM-DD")
		}
	}

	payment := model.NewPayment(client.ID, algorithm.Round2(in.Amount), paymentDate, in.PaymentMethod, in.Notes, actor.Username)
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, nil, fmt.Errorf("failed to record payment: %w", err)
	}

	client.TotalPaid = algorithm.Round2(client.TotalPaid + payment.Amount)
	client.OutstandingBalance = algorithm.Round2(client.OutstandingBalance - payment.Amount)
	if client.OutstandingBalance < 0 {
		client.OutstandingBalance = 0
	}
	client.LastPaymentDate = &payment.PaymentDate
	client.DaysOverdue = 0

	if client.NextPaymentDue != nil {
		next := algorithm.AddMonths(*client.NextPaymentDue, 1)
		client.NextPaymentDue = &next
		client.EMIDueDate = next.Format("2006-01-02")
	}

	settled := client.OutstandingBalance == 0
	if settled && client.IsLocked {
		client.IsLocked = false
	}

	if err := s.clients.Update(ctx, client); err != nil {
		return nil, nil, fmt.Errorf("failed to update loan state: %w", err)
	}

	s.logger.Info("payment recorded",
		zap.String("client_id", client.ID),
		zap.Float64("amount", payment.Amount),
		zap.Float64("balance", client.OutstandingBalance),
		zap.Bool("settled", settled))
	return payment, client, nil
}

// Payments returns a client's payment history.
func (s *LoanService) Payments(ctx context.Context, actor *model.Admin, clientID string) ([]*model.Payment, error) {
	client, err := s.scopedClient(ctx, actor, clientID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByClient(ctx, client.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// PaymentHistory returns a client's payments together with the client record
// for its loan summary. Serves the device app, so there is no admin scoping.
func (s *LoanService) PaymentHistory(ctx context.Context, clientID string) (*model.Client, []*model.Payment, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, nil, errors.NotFound("client not found")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load client: %w", err)
	}

	payments, err := s.payments.ListByClient(ctx, client.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return client, payments, nil
}

// Schedule returns the client's amortization schedule with due dates.
func (s *LoanService) Schedule(ctx context.Context, actor *model.Admin, clientID string) ([]algorithm.ScheduleEntry, error) {
	client, err := s.scopedClient(ctx, actor, clientID)
	if err != nil {
		return nil, err
	}
	if client.LoanStartDate == nil {
		return nil, errors.Validation("client has no active loan")
	}

	principal := client.LoanAmount - client.DownPayment
	return algorithm.AmortizationSchedule(
		principal, client.InterestRate, client.LoanTenureMonths,
		client.MonthlyEMI, *client.LoanStartDate,
	), nil
}

// LoanSettingsInput carries updatable per-client loan settings.
type LoanSettingsInput struct {
	AutoLockEnabled         *bool `json:"auto_lock_enabled"`
	AutoLockGraceDays       *int  `json:"auto_lock_grace_days"`
	PaymentRemindersEnabled *bool `json:"payment_reminders_enabled"`
}

// UpdateSettings adjusts the auto-lock and reminder behavior for a client.
func (s *LoanService) UpdateSettings(ctx context.Context, actor *model.Admin, clientID string, in LoanSettingsInput) (*model.Client, error) {
	client, err := s.scopedClient(ctx, actor, clientID)
	if err != nil {
		return nil, err
	}

	if in.AutoLockEnabled != nil {
		client.AutoLockEnabled = *in.AutoLockEnabled
	}
	if in.AutoLockGraceDays != nil {
		if *in.AutoLockGraceDays < 0 || *in.AutoLockGraceDays > 90 {
			return nil, errors.Validation("auto_lock_grace_days must be between 0 and 90")
		}
		client.AutoLockGraceDays = *in.AutoLockGraceDays
	}
	if in.PaymentRemindersEnabled != nil {
		client.PaymentRemindersEnabled = *in.PaymentRemindersEnabled
	}

	if err := s.clients.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update loan settings: %w", err)
	}
	return client, nil
}

func (s *LoanService) scopedClient(ctx context.Context, actor *model.Admin, id string) (*model.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NotFound("client not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	if !actor.IsSuperAdmin && client.AdminID != actor.ID {
		return nil, errors.NotFound("client not found")
	}
	return client, nil
}
