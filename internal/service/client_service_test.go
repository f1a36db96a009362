package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
)

func TestCreateClientDefaults(t *testing.T) {
	env := newTestEnv(t)
	super, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")

	client := env.createClient(t, admin, "Mati Tamm")

	assert.Equal(t, admin.ID, client.AdminID)
	assert.True(t, client.PaymentRemindersEnabled)
	assert.True(t, client.AutoLockEnabled)
	assert.Equal(t, 3, client.AutoLockGraceDays)
	assert.False(t, client.IsLocked)
	assert.False(t, client.IsRegistered)

	_ = super
}

func TestClientScoping(t *testing.T) {
	env := newTestEnv(t)
	super, superToken := env.registerSuperAdmin(t)
	alice := env.registerAdmin(t, superToken, "alice")
	bob := env.registerAdmin(t, superToken, "bob")
	ctx := context.Background()

	aliceClient := env.createClient(t, alice, "Alice Client")
	env.createClient(t, bob, "Bob Client")

	// Admins see only their own clients.
	clients, err := env.clientSvc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, aliceClient.ID, clients[0].ID)

	// The super admin sees everything.
	clients, err = env.clientSvc.List(ctx, super)
	require.NoError(t, err)
	assert.Len(t, clients, 2)

	// Cross-admin access reads as not found.
	_, err = env.clientSvc.Get(ctx, bob, aliceClient.ID)
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}

func TestGenerateCodeSpendsCredit(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	ctx := context.Background()

	updated, err := env.clientSvc.GenerateCode(ctx, admin, client.ID)
	require.NoError(t, err)

	assert.Len(t, updated.RegistrationCode, 8)
	assert.Equal(t, strings.ToUpper(updated.RegistrationCode), updated.RegistrationCode)
	assert.Equal(t, 4, admin.Credits)

	stored, err := env.admins.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Credits)
}

func TestGenerateCodeRejectedWithoutCredits(t *testing.T) {
	env := newTestEnv(t)
	super, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	ctx := context.Background()

	admin.Credits = 0
	require.NoError(t, env.admins.Update(ctx, admin))

	_, err := env.clientSvc.GenerateCode(ctx, admin, client.ID)
	assert.Equal(t, errors.CodeAuthorization, errors.CodeOf(err))

	// Super admins never run out.
	superClient := env.createClient(t, super, "Super Client")
	_, err = env.clientSvc.GenerateCode(ctx, super, superClient.ID)
	assert.NoError(t, err)
}

func TestGenerateCodeResetsRegistration(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	ctx := context.Background()

	client.IsRegistered = true
	client.DeviceID = "device-1"
	now := time.Now().UTC()
	client.RegisteredAt = &now
	require.NoError(t, env.clients.Update(ctx, client))

	updated, err := env.clientSvc.GenerateCode(ctx, admin, client.ID)
	require.NoError(t, err)
	assert.False(t, updated.IsRegistered)
	assert.Empty(t, updated.DeviceID)
	assert.Nil(t, updated.RegisteredAt)
}

func TestLockAndUnlock(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	ctx := context.Background()

	locked, err := env.clientSvc.Lock(ctx, admin, client.ID, "Pay up")
	require.NoError(t, err)
	assert.True(t, locked.IsLocked)
	assert.Equal(t, "Pay up", locked.LockMessage)

	unlocked, err := env.clientSvc.Unlock(ctx, admin, client.ID)
	require.NoError(t, err)
	assert.False(t, unlocked.IsLocked)
}

func TestLockDefaultMessage(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")

	locked, err := env.clientSvc.Lock(context.Background(), admin, client.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultLockMessage, locked.LockMessage)
}

func TestBulkOperation(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	alice := env.registerAdmin(t, superToken, "alice")
	bob := env.registerAdmin(t, superToken, "bob")
	ctx := context.Background()

	c1 := env.createClient(t, alice, "One")
	c2 := env.createClient(t, alice, "Two")
	outside := env.createClient(t, bob, "Outside")

	result, err := env.clientSvc.BulkOperation(ctx, alice, BulkActionLock,
		[]string{c1.ID, c2.ID, outside.ID, "missing"}, "Locked for review")
	require.NoError(t, err)

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 2, result.FailedCount)
	assert.Equal(t, 4, result.Total)

	stored, err := env.clients.GetByID(ctx, c1.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsLocked)

	// Clients of other admins are untouched.
	stored, err = env.clients.GetByID(ctx, outside.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsLocked)
}

func TestBulkOperationRejectsUnknownAction(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")

	_, err := env.clientSvc.BulkOperation(context.Background(), admin, "explode", []string{"x"}, "")
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}

func TestReportTamperNotifiesAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	ctx := context.Background()

	require.NoError(t, env.clientSvc.ReportTamper(ctx, client.ID))
	require.NoError(t, env.clientSvc.ReportTamper(ctx, client.ID))

	stored, err := env.clients.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TamperAttempts)
	assert.NotNil(t, stored.LastTamperAttempt)

	notifications, err := env.notifications.ListByAdmin(ctx, admin.ID, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, model.NotificationTamperAttempt, notifications[0].Type)
}

func TestSilentClients(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	ctx := context.Background()

	quiet := env.createClient(t, admin, "Quiet")
	quiet.IsRegistered = true
	stale := time.Now().UTC().Add(-2 * time.Hour)
	quiet.LastHeartbeat = &stale
	require.NoError(t, env.clients.Update(ctx, quiet))

	active := env.createClient(t, admin, "Active")
	active.IsRegistered = true
	fresh := time.Now().UTC()
	active.LastHeartbeat = &fresh
	require.NoError(t, env.clients.Update(ctx, active))

	silent, err := env.clientSvc.Silent(ctx, admin, 60)
	require.NoError(t, err)
	require.Len(t, silent, 1)
	assert.Equal(t, quiet.ID, silent[0].ID)
}

func TestExportCSVExcludesRegistrationCodes(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	ctx := context.Background()

	updated, err := env.clientSvc.GenerateCode(ctx, admin, client.ID)
	require.NoError(t, err)

	csvData, err := env.clientSvc.ExportCSV(ctx, admin)
	require.NoError(t, err)
	assert.Contains(t, csvData, "Mati Tamm")
	assert.NotContains(t, csvData, updated.RegistrationCode)
}

func TestDeleteClientCascades(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	ctx := context.Background()

	_, err := env.loanSvc.SetupLoan(ctx, admin, client.ID, LoanSetupInput{
		LoanAmount:   1200,
		InterestRate: floatPtr(10),
		TenureMonths: 12,
	})
	require.NoError(t, err)

	_, _, err = env.loanSvc.RecordPayment(ctx, admin, client.ID, PaymentInput{Amount: 100})
	require.NoError(t, err)

	require.NoError(t, env.clientSvc.Delete(ctx, admin, client.ID))

	payments, err := env.payments.ListByClient(ctx, client.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}
