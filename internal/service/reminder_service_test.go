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

// dueClient gives a client a balance and a next payment the given number of
// days from now (negative means overdue).
func dueClient(t *testing.T, env *testEnv, admin *model.Admin, name string, daysFromNow int) *model.Client {
	t.Helper()

	client := env.createClient(t, admin, name)
	client.MonthlyEMI = 50
	client.OutstandingBalance = 300
	due := time.Now().UTC().AddDate(0, 0, daysFromNow)
	client.NextPaymentDue = &due
	require.NoError(t, env.clients.Update(context.Background(), client))
	return client
}

func TestPendingBuckets(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	ctx := context.Background()

	overdue := dueClient(t, env, admin, "Overdue", -2)
	today := dueClient(t, env, admin, "Today", 0)
	soon := dueClient(t, env, admin, "Soon", 2)
	week := dueClient(t, env, admin, "Week", 6)
	dueClient(t, env, admin, "Far", 30)

	buckets, err := env.reminderSvc.Pending(ctx, admin)
	require.NoError(t, err)

	require.Len(t, buckets.Overdue, 1)
	assert.Equal(t, overdue.ID, buckets.Overdue[0].ID)
	require.Len(t, buckets.DueToday, 1)
	assert.Equal(t, today.ID, buckets.DueToday[0].ID)
	require.Len(t, buckets.DueIn3Days, 1)
	assert.Equal(t, soon.ID, buckets.DueIn3Days[0].ID)
	require.Len(t, buckets.DueIn7Days, 1)
	assert.Equal(t, week.ID, buckets.DueIn7Days[0].ID)

	// The far-out client contributes nothing.
	assert.Equal(t, 200.0, buckets.TotalDueEMI)
}

func TestSweepCreatesRemindersOncePerDay(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := dueClient(t, env, admin, "Today", 0)
	ctx := context.Background()

	created, err := env.reminderSvc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	reminders, err := env.reminders.ListByClient(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, model.ReminderDueToday, reminders[0].ReminderType)

	// A second sweep the same day is a no-op.
	created, err = env.reminderSvc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestSweepReminderTypes(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	ctx := context.Background()

	cases := []struct {
		daysFromNow int
		reminder    string
	}{
		{0, model.ReminderDueToday},
		{-1, model.ReminderOverdue1Day},
		{-3, model.ReminderOverdue3Days},
		{-7, model.ReminderOverdue7Days},
	}

	clients := make([]*model.Client, len(cases))
	for i, tc := range cases {
		clients[i] = dueClient(t, env, admin, tc.reminder, tc.daysFromNow)
	}
	// Two days overdue falls between reminder points: nothing created.
	dueClient(t, env, admin, "Between", -2)

	created, err := env.reminderSvc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(cases), created)

	for i, tc := range cases {
		reminders, err := env.reminders.ListByClient(ctx, clients[i].ID)
		require.NoError(t, err)
		require.Len(t, reminders, 1)
		assert.Equal(t, tc.reminder, reminders[0].ReminderType)
	}
}

func TestSweepSkipsDisabledReminders(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := dueClient(t, env, admin, "Opted Out", 0)
	ctx := context.Background()

	client.PaymentRemindersEnabled = false
	require.NoError(t, env.clients.Update(ctx, client))

	created, err := env.reminderSvc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestSweepPushesToValidTokens(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := dueClient(t, env, admin, "Pushed", 0)
	ctx := context.Background()

	client.ExpoPushToken = "ExponentPushToken[abc123]"
	require.NoError(t, env.clients.Update(ctx, client))

	created, err := env.reminderSvc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	messages := env.pusher.sent()
	require.Len(t, messages, 1)
	assert.Equal(t, client.ExpoPushToken, messages[0].To)

	// Pushed reminders are flagged as sent.
	reminders, err := env.reminders.ListByClient(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.True(t, reminders[0].Sent)
}

func TestSendSingle(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Target")
	ctx := context.Background()

	client.ExpoPushToken = "ExponentPushToken[xyz789]"
	require.NoError(t, env.clients.Update(ctx, client))

	reminder, err := env.reminderSvc.SendSingle(ctx, admin, client.ID, "Reminder", "Please pay")
	require.NoError(t, err)
	assert.Equal(t, client.ID, reminder.ClientID)

	messages := env.pusher.sent()
	require.Len(t, messages, 1)
	assert.Equal(t, "Reminder", messages[0].Title)
}

func TestSendSingleRequiresPushToken(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "No Token")

	_, err := env.reminderSvc.SendSingle(context.Background(), admin, client.ID, "Reminder", "Please pay")
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}

func TestMarkSent(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := dueClient(t, env, admin, "Today", 0)
	ctx := context.Background()

	_, err := env.reminderSvc.Sweep(ctx)
	require.NoError(t, err)

	reminders, err := env.reminders.ListByClient(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 1)

	require.NoError(t, env.reminderSvc.MarkSent(ctx, admin, reminders[0].ID))

	err = env.reminderSvc.MarkSent(ctx, admin, "missing")
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}
