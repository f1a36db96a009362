package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
)

func newSupportService(env *testEnv) *SupportService {
	return NewSupportService(env.clients, env.support, env.notifications, zap.NewNop())
}

func TestSupportChat(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	svc := newSupportService(env)
	ctx := context.Background()

	_, err := svc.Send(ctx, client.ID, model.SenderClient, "My phone is locked")
	require.NoError(t, err)
	_, err = svc.Send(ctx, client.ID, model.SenderAdmin, "Payment is overdue")
	require.NoError(t, err)

	messages, err := svc.Messages(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	// Chronological order.
	assert.Equal(t, model.SenderClient, messages[0].Sender)
	assert.Equal(t, model.SenderAdmin, messages[1].Sender)
}

func TestSupportClientMessageNotifiesAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	svc := newSupportService(env)
	ctx := context.Background()

	_, err := svc.Send(ctx, client.ID, model.SenderClient, "Help")
	require.NoError(t, err)

	notifications, err := env.notifications.ListByAdmin(ctx, admin.ID, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.NotificationSupportMessage, notifications[0].Type)

	// Admin replies create no notification.
	_, err = svc.Send(ctx, client.ID, model.SenderAdmin, "On it")
	require.NoError(t, err)
	notifications, err = env.notifications.ListByAdmin(ctx, admin.ID, 10)
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
}

func TestSupportSendValidation(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	svc := newSupportService(env)
	ctx := context.Background()

	_, err := svc.Send(ctx, client.ID, "stranger", "hello")
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	_, err = svc.Send(ctx, client.ID, model.SenderClient, "")
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	_, err = svc.Send(ctx, "missing", model.SenderClient, "hello")
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}

func TestSupportMarkRead(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	svc := newSupportService(env)
	ctx := context.Background()

	_, err := svc.Send(ctx, client.ID, model.SenderClient, "Help")
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, client.ID))

	messages, err := svc.Messages(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].IsRead)
}
