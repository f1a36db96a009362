package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/config"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/push"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/store"
)

// fakePusher records push messages instead of calling Expo.
type fakePusher struct {
	mu       sync.Mutex
	messages []push.Message
	err      error
}

func (f *fakePusher) Send(_ context.Context, messages []push.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, messages...)
	return nil
}

func (f *fakePusher) sent() []push.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]push.Message(nil), f.messages...)
}

// testEnv wires the services over in-memory stores.
type testEnv struct {
	admins        *store.MemoryAdminStore
	tokens        *store.MemoryTokenStore
	clients       *store.MemoryClientStore
	plans         *store.MemoryLoanPlanStore
	payments      *store.MemoryPaymentStore
	reminders     *store.MemoryReminderStore
	notifications *store.MemoryNotificationStore
	support       *store.MemorySupportStore
	pusher        *fakePusher

	adminSvc    *AdminService
	clientSvc   *ClientService
	deviceSvc   *DeviceService
	loanSvc     *LoanService
	reportSvc   *ReportService
	reminderSvc *ReminderService
	sweepSvc    *SweepService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	env := &testEnv{
		admins:        store.NewMemoryAdminStore(),
		tokens:        store.NewMemoryTokenStore(),
		clients:       store.NewMemoryClientStore(),
		plans:         store.NewMemoryLoanPlanStore(),
		reminders:     store.NewMemoryReminderStore(),
		notifications: store.NewMemoryNotificationStore(),
		support:       store.NewMemorySupportStore(),
		pusher:        &fakePusher{},
	}
	env.payments = store.NewMemoryPaymentStore(env.clients)

	authCfg := config.AuthConfig{TokenExpiry: time.Hour, BcryptCost: 4}
	env.adminSvc = NewAdminService(env.admins, env.tokens, authCfg, logger)
	env.clientSvc = NewClientService(env.clients, env.admins, env.payments, env.reminders, env.notifications, logger)
	env.deviceSvc = NewDeviceService(env.clients, logger)
	env.loanSvc = NewLoanService(env.clients, env.plans, env.payments, logger)
	env.reportSvc = NewReportService(env.clients, env.payments, logger)
	env.reminderSvc = NewReminderService(env.clients, env.reminders, env.pusher, logger)
	env.sweepSvc = NewSweepService(env.clients, env.plans, env.reminderSvc, time.Hour, logger)
	return env
}

// registerSuperAdmin registers the first admin, which becomes the super
// admin.
func (env *testEnv) registerSuperAdmin(t *testing.T) (*model.Admin, string) {
	t.Helper()

	admin, token, err := env.adminSvc.Register(context.Background(), "", RegisterInput{
		Username: "boss",
		Password: "secret123",
	})
	require.NoError(t, err)
	require.True(t, admin.IsSuperAdmin)
	return admin, token.Token
}

// registerAdmin registers a regular admin using the super admin's token.
func (env *testEnv) registerAdmin(t *testing.T, superToken, username string) *model.Admin {
	t.Helper()

	admin, _, err := env.adminSvc.Register(context.Background(), superToken, RegisterInput{
		Username: username,
		Password: "secret123",
	})
	require.NoError(t, err)
	require.False(t, admin.IsSuperAdmin)
	return admin
}

// createClient creates a client owned by the actor.
func (env *testEnv) createClient(t *testing.T, actor *model.Admin, name string) *model.Client {
	t.Helper()

	client, err := env.clientSvc.Create(context.Background(), actor, ClientInput{
		Name:  &name,
		Phone: strPtr("+37255512345"),
	})
	require.NoError(t, err)
	return client
}

func strPtr(s string) *string       { return &s }
func floatPtr(f float64) *float64   { return &f }
func intPtr(i int) *int             { return &i }
func boolPtr(b bool) *bool          { return &b }
func timePtr(t time.Time) *time.Time { return &t }
