package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
)

func TestNotificationFeed(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	svc := NewNotificationService(env.notifications, zap.NewNop())
	ctx := context.Background()

	// Tamper reports feed the notification list.
	require.NoError(t, env.clientSvc.ReportTamper(ctx, client.ID))
	require.NoError(t, env.clientSvc.ReportTamper(ctx, client.ID))

	feed, err := svc.List(ctx, admin, 0)
	require.NoError(t, err)
	require.Len(t, feed.Notifications, 2)
	assert.Equal(t, 2, feed.UnreadCount)

	// Mark one read.
	require.NoError(t, svc.MarkRead(ctx, admin, feed.Notifications[0].ID))
	feed, err = svc.List(ctx, admin, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, feed.UnreadCount)

	// Mark the rest.
	count, err := svc.MarkAllRead(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	feed, err = svc.List(ctx, admin, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, feed.UnreadCount)
}

func TestNotificationScoping(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	alice := env.registerAdmin(t, superToken, "alice")
	bob := env.registerAdmin(t, superToken, "bob")
	client := env.createClient(t, alice, "Alice Client")
	svc := NewNotificationService(env.notifications, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, env.clientSvc.ReportTamper(ctx, client.ID))

	feed, err := svc.List(ctx, bob, 0)
	require.NoError(t, err)
	assert.Empty(t, feed.Notifications)

	// Bob cannot mark Alice's notification as read.
	aliceFeed, err := svc.List(ctx, alice, 0)
	require.NoError(t, err)
	require.Len(t, aliceFeed.Notifications, 1)

	err = svc.MarkRead(ctx, bob, aliceFeed.Notifications[0].ID)
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}
