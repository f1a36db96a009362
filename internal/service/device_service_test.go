package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
)

// codeForClient issues a registration code for the client.
func codeForClient(t *testing.T, env *testEnv, admin *model.Admin, clientID string) string {
	t.Helper()

	updated, err := env.clientSvc.GenerateCode(context.Background(), admin, clientID)
	require.NoError(t, err)
	return updated.RegistrationCode
}

func TestDeviceRegister(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	code := codeForClient(t, env, admin, client.ID)
	ctx := context.Background()

	registered, err := env.deviceSvc.Register(ctx, RegisterDeviceInput{
		RegistrationCode: code,
		DeviceID:         "device-1",
		DeviceModel:      "Pixel 7",
		DeviceMake:       "Google",
	})
	require.NoError(t, err)

	assert.Equal(t, client.ID, registered.ID)
	assert.True(t, registered.IsRegistered)
	assert.Equal(t, "device-1", registered.DeviceID)
	assert.NotNil(t, registered.RegisteredAt)
	assert.NotNil(t, registered.LastHeartbeat)
}

func TestDeviceRegisterCodeIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	code := codeForClient(t, env, admin, client.ID)

	_, err := env.deviceSvc.Register(context.Background(), RegisterDeviceInput{
		RegistrationCode: "  " + toLower(code) + " ",
		DeviceID:         "device-1",
	})
	assert.NoError(t, err)
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

func TestDeviceRegisterRejectsReuse(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	code := codeForClient(t, env, admin, client.ID)
	ctx := context.Background()

	_, err := env.deviceSvc.Register(ctx, RegisterDeviceInput{
		RegistrationCode: code,
		DeviceID:         "device-1",
	})
	require.NoError(t, err)

	_, err = env.deviceSvc.Register(ctx, RegisterDeviceInput{
		RegistrationCode: code,
		DeviceID:         "device-2",
	})
	assert.Equal(t, errors.CodeConflict, errors.CodeOf(err))
}

func TestDeviceRegisterUnknownCode(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.deviceSvc.Register(context.Background(), RegisterDeviceInput{
		RegistrationCode: "FFFFFFFF",
		DeviceID:         "device-1",
	})
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}

func TestDeviceStatusStampsHeartbeat(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	ctx := context.Background()

	_, err := env.clientSvc.Lock(ctx, admin, client.ID, "Pay your EMI")
	require.NoError(t, err)

	status, err := env.deviceSvc.Status(ctx, client.ID)
	require.NoError(t, err)

	assert.True(t, status.IsLocked)
	assert.Equal(t, "Pay your EMI", status.LockMessage)

	stored, err := env.clients.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastHeartbeat)
}

func TestDeviceUpdateLocation(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	ctx := context.Background()

	require.NoError(t, env.deviceSvc.UpdateLocation(ctx, client.ID, 59.437, 24.7536))

	stored, err := env.clients.GetByID(ctx, client.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Latitude)
	assert.Equal(t, 59.437, *stored.Latitude)
	assert.NotNil(t, stored.LastLocationUpdate)

	err = env.deviceSvc.UpdateLocation(ctx, client.ID, 200, 24.7536)
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}

func TestDeviceUpdatePushToken(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)
	admin := env.registerAdmin(t, superToken, "worker")
	client := env.createClient(t, admin, "Mati Tamm")
	ctx := context.Background()

	require.NoError(t, env.deviceSvc.UpdatePushToken(ctx, client.ID, "ExponentPushToken[abc]"))

	stored, err := env.clients.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[abc]", stored.ExpoPushToken)
}
