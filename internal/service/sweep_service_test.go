package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/algorithm"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
)

// overdueClient puts a client five days past due with a balance.
func overdueClient(t *testing.T, env *testEnv, admin *model.Admin, name string) *model.Client {
	t.Helper()

	client := env.createClient(t, admin, name)
	client.MonthlyEMI = 100
	client.OutstandingBalance = 500
	start := time.Now().UTC().AddDate(0, -1, -5)
	due := time.Now().UTC().AddDate(0, 0, -5)
	client.LoanStartDate = &start
	client.NextPaymentDue = &due
	require.NoError(t, env.clients.Update(context.Background(), client))
	return client
}

func TestCalculateLateFees(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := overdueClient(t, env, admin, "Late Payer")
	ctx := context.Background()

	result, err := env.sweepSvc.CalculateLateFees(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	expectedFee := algorithm.LateFee(100, algorithm.DefaultLateFeePercent, 5)
	assert.Equal(t, expectedFee, result.TotalLateFees)

	stored, err := env.clients.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.DaysOverdue)
	assert.Equal(t, expectedFee, stored.LateFeesAccumulated)
}

func TestCalculateLateFeesIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := overdueClient(t, env, admin, "Late Payer")
	ctx := context.Background()

	_, err := env.sweepSvc.CalculateLateFees(ctx)
	require.NoError(t, err)
	first, err := env.clients.GetByID(ctx, client.ID)
	require.NoError(t, err)

	// Fees are recomputed absolutely, not accumulated per run.
	_, err = env.sweepSvc.CalculateLateFees(ctx)
	require.NoError(t, err)
	second, err := env.clients.GetByID(ctx, client.ID)
	require.NoError(t, err)

	assert.Equal(t, first.LateFeesAccumulated, second.LateFeesAccumulated)
	assert.Equal(t, first.DaysOverdue, second.DaysOverdue)
}

func TestAutoLockAfterGracePeriod(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	ctx := context.Background()

	// Five days overdue with a three day grace period: locked.
	locked := overdueClient(t, env, admin, "Past Grace")

	// Same position with a long grace period: untouched.
	spared := overdueClient(t, env, admin, "Within Grace")
	spared.AutoLockGraceDays = 30
	require.NoError(t, env.clients.Update(ctx, spared))

	// Auto-lock disabled: untouched.
	disabled := overdueClient(t, env, admin, "Opted Out")
	disabled.AutoLockEnabled = false
	require.NoError(t, env.clients.Update(ctx, disabled))

	result, err := env.sweepSvc.CalculateLateFees(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 1, result.Locked)

	stored, err := env.clients.GetByID(ctx, locked.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsLocked)
	assert.NotEmpty(t, stored.LockMessage)

	stored, err = env.clients.GetByID(ctx, spared.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsLocked)

	stored, err = env.clients.GetByID(ctx, disabled.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsLocked)
}

func TestLateFeeUsesPlanPercent(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := overdueClient(t, env, admin, "Planned")
	ctx := context.Background()

	plan, err := env.loanSvc.CreatePlan(ctx, admin, LoanPlanInput{
		Name:           strPtr("Strict"),
		InterestRate:   floatPtr(10),
		LateFeePercent: floatPtr(5),
	})
	require.NoError(t, err)

	client.LoanPlanID = plan.ID
	require.NoError(t, env.clients.Update(ctx, client))

	_, err = env.sweepSvc.CalculateLateFees(ctx)
	require.NoError(t, err)

	stored, err := env.clients.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, algorithm.LateFee(100, 5, 5), stored.LateFeesAccumulated)
}

func TestSweepStartStop(t *testing.T) {
	env := newTestEnv(t)

	env.sweepSvc.Start(context.Background())
	// The immediate run settles before Stop returns.
	env.sweepSvc.Stop()
}
