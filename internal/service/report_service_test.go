package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
)

// newReportEnv sets up an admin with one active loan and one payment.
func newReportEnv(t *testing.T) (*testEnv, *model.Admin, *model.Client) {
	t.Helper()

	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	ctx := context.Background()

	_, err := env.loanSvc.SetupLoan(ctx, admin, client.ID, LoanSetupInput{
		LoanAmount:   1000,
		InterestRate: floatPtr(0),
		TenureMonths: 10,
	})
	require.NoError(t, err)

	_, _, err = env.loanSvc.RecordPayment(ctx, admin, client.ID, PaymentInput{Amount: 250})
	require.NoError(t, err)
	return env, admin, client
}

func TestCollectionReport(t *testing.T) {
	env, admin, _ := newReportEnv(t)

	report, err := env.reportSvc.Collection(context.Background(), admin)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, report.TotalDisbursed)
	assert.Equal(t, 250.0, report.TotalCollected)
	assert.Equal(t, 750.0, report.TotalOutstanding)
	assert.Equal(t, 25.0, report.CollectionRate)
	assert.Equal(t, 1, report.ActiveLoans)
	assert.Equal(t, 0, report.CompletedLoans)
	assert.Equal(t, 1, report.TotalClients)
}

func TestCollectionReportCompletedLoan(t *testing.T) {
	env, admin, client := newReportEnv(t)
	ctx := context.Background()

	_, _, err := env.loanSvc.RecordPayment(ctx, admin, client.ID, PaymentInput{Amount: 750})
	require.NoError(t, err)

	report, err := env.reportSvc.Collection(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ActiveLoans)
	assert.Equal(t, 1, report.CompletedLoans)
	assert.Equal(t, 100.0, report.CollectionRate)
}

func TestCollectionReportGrossDisbursed(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	ctx := context.Background()

	// Down payments do not shrink the disbursed total or the rate's
	// denominator.
	_, err := env.loanSvc.SetupLoan(ctx, admin, client.ID, LoanSetupInput{
		LoanAmount:   1200,
		DownPayment:  200,
		InterestRate: floatPtr(0),
		TenureMonths: 10,
	})
	require.NoError(t, err)

	_, _, err = env.loanSvc.RecordPayment(ctx, admin, client.ID, PaymentInput{Amount: 250})
	require.NoError(t, err)

	report, err := env.reportSvc.Collection(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, report.TotalDisbursed)
	assert.Equal(t, 250.0, report.TotalCollected)
	assert.Equal(t, 20.83, report.CollectionRate)
}

func TestFinancialReport(t *testing.T) {
	env, admin, _ := newReportEnv(t)

	report, err := env.reportSvc.Financial(context.Background(), admin, "", "")
	require.NoError(t, err)
	assert.Equal(t, 250.0, report.TotalPayments)
	assert.Equal(t, 1, report.PaymentCount)
	require.Len(t, report.MonthlyBreakdown, 1)
	assert.Equal(t, time.Now().UTC().Format("2006-01"), report.MonthlyBreakdown[0].Month)
	assert.Equal(t, 250.0, report.MonthlyBreakdown[0].Amount)
}

func TestFinancialReportDateFilter(t *testing.T) {
	env, admin, _ := newReportEnv(t)
	ctx := context.Background()

	// A window entirely in the past excludes today's payment.
	report, err := env.reportSvc.Financial(ctx, admin, "2020-01-01", "2020-12-31")
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.TotalPayments)
	assert.Equal(t, 0, report.PaymentCount)

	_, err = env.reportSvc.Financial(ctx, admin, "not-a-date", "")
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}

func TestStats(t *testing.T) {
	env, admin, client := newReportEnv(t)
	ctx := context.Background()

	client.IsRegistered = true
	require.NoError(t, env.clients.Update(ctx, client))
	locked := env.createClient(t, admin, "Locked One")
	locked.IsLocked = true
	require.NoError(t, env.clients.Update(ctx, locked))

	stats, err := env.reportSvc.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalClients)
	assert.Equal(t, 1, stats.RegisteredClients)
	assert.Equal(t, 1, stats.UnregisteredClients)
	assert.Equal(t, 1, stats.LockedClients)
}

func TestDashboard(t *testing.T) {
	env, admin, client := newReportEnv(t)
	ctx := context.Background()

	now := time.Now().UTC()
	client.IsRegistered = true
	client.RegisteredAt = &now
	require.NoError(t, env.clients.Update(ctx, client))

	dashboard, err := env.reportSvc.Dashboard(ctx, admin)
	require.NoError(t, err)

	require.Len(t, dashboard.WeeklyActivity, 7)
	require.Len(t, dashboard.RevenueTrend, 6)

	// Today's payment lands on the last day of the weekly chart and the
	// last month of the trend.
	today := dashboard.WeeklyActivity[6]
	assert.Equal(t, now.Format("2006-01-02"), today.Date)
	assert.Equal(t, 1, today.Payments)
	assert.Equal(t, 250.0, today.Amount)

	current := dashboard.RevenueTrend[5]
	assert.Equal(t, now.Format("2006-01"), current.Month)
	assert.Equal(t, 250.0, current.Amount)

	require.Len(t, dashboard.RecentRegistrations, 1)
	assert.Equal(t, client.ID, dashboard.RecentRegistrations[0].ClientID)
}

func TestReportScoping(t *testing.T) {
	env, _, _ := newReportEnv(t)
	ctx := context.Background()

	super, err := env.admins.GetByUsername(ctx, "boss")
	require.NoError(t, err)

	_, otherToken, err := env.adminSvc.Login(ctx, "boss", "secret123")
	require.NoError(t, err)
	other := env.registerAdmin(t, otherToken.Token, "other")

	report, err := env.reportSvc.Collection(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalClients)

	// The super admin aggregates across admins.
	report, err = env.reportSvc.Collection(ctx, super)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalClients)
}
