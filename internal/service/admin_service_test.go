package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
)

func TestRegisterFirstAdminBecomesSuperAdmin(t *testing.T) {
	env := newTestEnv(t)

	admin, token, err := env.adminSvc.Register(context.Background(), "", RegisterInput{
		Username: "Boss",
		Password: "secret123",
	})
	require.NoError(t, err)

	assert.True(t, admin.IsSuperAdmin)
	assert.Equal(t, "super_admin", admin.Role)
	assert.Equal(t, "boss", admin.Username, "username is lowercased")
	assert.Equal(t, 0, admin.Credits)
	assert.Len(t, token.Token, 64)
}

func TestRegisterSecondAdminRequiresSuperAdminToken(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)

	_, _, err := env.adminSvc.Register(context.Background(), "", RegisterInput{
		Username: "worker",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeAuthentication, errors.CodeOf(err))

	admin, _, err := env.adminSvc.Register(context.Background(), superToken, RegisterInput{
		Username: "worker",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.False(t, admin.IsSuperAdmin)
	assert.Equal(t, "admin", admin.Role)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	_, superToken := env.registerSuperAdmin(t)

	_, _, err := env.adminSvc.Register(context.Background(), superToken, RegisterInput{
		Username: "BOSS",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeConflict, errors.CodeOf(err))
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.adminSvc.Register(context.Background(), "", RegisterInput{
		Username: "ab",
		Password: "secret123",
	})
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	_, _, err = env.adminSvc.Register(context.Background(), "", RegisterInput{
		Username: "valid",
		Password: "short",
	})
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}

func TestLoginRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	_, firstToken := env.registerSuperAdmin(t)
	ctx := context.Background()

	_, token, err := env.adminSvc.Login(ctx, "boss", "secret123")
	require.NoError(t, err)
	assert.NotEqual(t, firstToken, token.Token)

	// The old token no longer authenticates.
	_, err = env.adminSvc.Authenticate(ctx, firstToken)
	require.Error(t, err)
	assert.Equal(t, errors.CodeAuthentication, errors.CodeOf(err))

	admin, err := env.adminSvc.Authenticate(ctx, token.Token)
	require.NoError(t, err)
	assert.Equal(t, "boss", admin.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerSuperAdmin(t)

	_, _, err := env.adminSvc.Login(context.Background(), "boss", "wrongpass")
	require.Error(t, err)
	assert.Equal(t, errors.CodeAuthentication, errors.CodeOf(err))
}

func TestVerifyToken(t *testing.T) {
	env := newTestEnv(t)
	admin, tokenStr := env.registerSuperAdmin(t)

	token, err := env.adminSvc.Verify(context.Background(), tokenStr)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, token.AdminID)

	_, err = env.adminSvc.Verify(context.Background(), "deadbeef")
	assert.Equal(t, errors.CodeAuthentication, errors.CodeOf(err))
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	admin, _ := env.registerSuperAdmin(t)
	ctx := context.Background()

	err := env.adminSvc.ChangePassword(ctx, admin, "wrongpass", "newsecret")
	assert.Equal(t, errors.CodeAuthentication, errors.CodeOf(err))

	require.NoError(t, env.adminSvc.ChangePassword(ctx, admin, "secret123", "newsecret"))

	_, _, err = env.adminSvc.Login(ctx, "boss", "newsecret")
	assert.NoError(t, err)
}

func TestListAdminsRequiresSuperAdmin(t *testing.T) {
	env := newTestEnv(t)
	super, superToken := env.registerSuperAdmin(t)
	worker := env.registerAdmin(t, superToken, "worker")
	ctx := context.Background()

	admins, err := env.adminSvc.List(ctx, super)
	require.NoError(t, err)
	assert.Len(t, admins, 2)

	_, err = env.adminSvc.List(ctx, worker)
	assert.Equal(t, errors.CodeAuthorization, errors.CodeOf(err))
}

func TestAssignCredits(t *testing.T) {
	env := newTestEnv(t)
	super, superToken := env.registerSuperAdmin(t)
	worker := env.registerAdmin(t, superToken, "worker")
	ctx := context.Background()

	previous, current, err := env.adminSvc.AssignCredits(ctx, super, worker.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, previous)
	assert.Equal(t, 15, current)

	_, _, err = env.adminSvc.AssignCredits(ctx, super, worker.ID, -3)
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	_, _, err = env.adminSvc.AssignCredits(ctx, worker, super.ID, 5)
	assert.Equal(t, errors.CodeAuthorization, errors.CodeOf(err))
}

func TestCreditsBalance(t *testing.T) {
	env := newTestEnv(t)
	super, superToken := env.registerSuperAdmin(t)
	worker := env.registerAdmin(t, superToken, "worker")
	ctx := context.Background()

	assert.Equal(t, "unlimited", env.adminSvc.Credits(ctx, super).CreditsRemaining())
	assert.Equal(t, 5, env.adminSvc.Credits(ctx, worker).CreditsRemaining())
}

func TestDeleteAdminRestrictions(t *testing.T) {
	env := newTestEnv(t)
	super, superToken := env.registerSuperAdmin(t)
	worker := env.registerAdmin(t, superToken, "worker")
	ctx := context.Background()

	// Cannot delete self.
	err := env.adminSvc.Delete(ctx, super, super.ID)
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	// Regular admins cannot delete anyone.
	err = env.adminSvc.Delete(ctx, worker, super.ID)
	assert.Equal(t, errors.CodeAuthorization, errors.CodeOf(err))

	require.NoError(t, env.adminSvc.Delete(ctx, super, worker.ID))

	_, err = env.admins.GetByID(ctx, worker.ID)
	assert.Error(t, err)
}
