// Package service implements the business operations of the EMI admin API on
// top of the store interfaces.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/config"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/store"
)

// AdminService handles admin accounts, authentication and credits.
type AdminService struct {
	admins store.AdminStore
	tokens store.TokenStore
	cfg    config.AuthConfig
	logger *zap.Logger
}

// NewAdminService creates an admin service.
func NewAdminService(admins store.AdminStore, tokens store.TokenStore, cfg config.AuthConfig, logger *zap.Logger) *AdminService {
	return &AdminService{admins: admins, tokens: tokens, cfg: cfg, logger: logger}
}

// RegisterInput carries an admin registration request.
type RegisterInput struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// Register creates an admin account. The first registered admin needs no
// token and becomes the super admin; every later registration must be
// performed by a super admin.
func (s *AdminService) Register(ctx context.Context, actorToken string, in RegisterInput) (*model.Admin, *model.AdminToken, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if err := validateUsername(username); err != nil {
		return nil, nil, err
	}
	if len(in.Password) < 6 {
		return nil, nil, errors.Validation("password must be at least 6 characters")
	}

	count, err := s.admins.Count(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count admins: %w", err)
	}

	first := count == 0
	if !first {
		actor, err := s.Authenticate(ctx, actorToken)
		if err != nil {
			return nil, nil, err
		}
		if !actor.IsSuperAdmin {
			return nil, nil, errors.Authorization("only the super admin can register new admins")
		}
	}

	if _, err := s.admins.GetByUsername(ctx, username); err == nil {
		return nil, nil, errors.Conflict("username already exists")
	} else if !stderrors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := model.NewAdmin(username, string(hash), "admin")
	admin.FirstName = in.FirstName
	admin.LastName = in.LastName
	admin.Email = in.Email
	admin.Phone = in.Phone
	admin.Address = in.Address
	if first {
		admin.IsSuperAdmin = true
		admin.Role = "super_admin"
		admin.Credits = 0
	}

	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, nil, fmt.Errorf("failed to create admin: %w", err)
	}

	token, err := s.issueToken(ctx, admin.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("admin registered",
		zap.String("admin_id", admin.ID),
		zap.String("username", admin.Username),
		zap.Bool("super_admin", admin.IsSuperAdmin))
	return admin, token, nil
}

// Login verifies credentials and rotates the admin's token.
func (s *AdminService) Login(ctx context.Context, username, password string) (*model.Admin, *model.AdminToken, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	admin, err := s.admins.GetByUsername(ctx, username)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, nil, errors.Authentication("invalid username or password")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load admin: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return nil, nil, errors.Authentication("invalid username or password")
	}

	token, err := s.issueToken(ctx, admin.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("admin logged in", zap.String("admin_id", admin.ID))
	return admin, token, nil
}

// Verify reports whether a token is valid and who it belongs to.
func (s *AdminService) Verify(ctx context.Context, token string) (*model.AdminToken, error) {
	t, err := s.tokens.Get(ctx, token)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.Authentication("invalid or expired token")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	return t, nil
}

// Authenticate resolves a token to its admin account.
func (s *AdminService) Authenticate(ctx context.Context, token string) (*model.Admin, error) {
	if token == "" {
		return nil, errors.Authentication("admin token is required")
	}
	t, err := s.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	admin, err := s.admins.GetByID(ctx, t.AdminID)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.Authentication("invalid or expired token")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}
	return admin, nil
}

// List returns every admin account. Super admin only.
func (s *AdminService) List(ctx context.Context, actor *model.Admin) ([]*model.Admin, error) {
	if !actor.IsSuperAdmin {
		return nil, errors.Authorization("only the super admin can list admins")
	}
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return admins, nil
}

// ChangePassword verifies the current password and replaces it.
func (s *AdminService) ChangePassword(ctx context.Context, actor *model.Admin, current, next string) error {
	if len(next) < 6 {
		return errors.Validation("new password must be at least 6 characters")
	}
	if bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(current)) != nil {
		return errors.Authentication("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	actor.PasswordHash = string(hash)
	if err := s.admins.Update(ctx, actor); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.logger.Info("admin password changed", zap.String("admin_id", actor.ID))
	return nil
}

// ProfileInput carries updatable admin profile fields.
type ProfileInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
}

// UpdateProfile applies the provided profile fields; nil fields are left
// unchanged.
func (s *AdminService) UpdateProfile(ctx context.Context, actor *model.Admin, in ProfileInput) (*model.Admin, error) {
	if in.FirstName != nil {
		actor.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		actor.LastName = *in.LastName
	}
	if in.Email != nil {
		actor.Email = *in.Email
	}
	if in.Phone != nil {
		actor.Phone = *in.Phone
	}
	if in.Address != nil {
		actor.Address = *in.Address
	}

	if err := s.admins.Update(ctx, actor); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return actor, nil
}

// Delete removes an admin account. Super admin only; the super admin cannot
// delete itself or another super admin. Any active token is revoked.
func (s *AdminService) Delete(ctx context.Context, actor *model.Admin, targetID string) error {
	if !actor.IsSuperAdmin {
		return errors.Authorization("only the super admin can delete admins")
	}
	if targetID == actor.ID {
		return errors.Validation("cannot delete your own account")
	}

	target, err := s.admins.GetByID(ctx, targetID)
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.NotFound("admin not found")
	}
	if err != nil {
		return fmt.Errorf("failed to load admin: %w", err)
	}
	if target.IsSuperAdmin {
		return errors.Validation("cannot delete a super admin account")
	}

	if err := s.tokens.RevokeAdmin(ctx, targetID); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	if err := s.admins.Delete(ctx, targetID); err != nil {
		return fmt.Errorf("failed to delete admin: %w", err)
	}

	s.logger.Info("admin deleted",
		zap.String("admin_id", targetID),
		zap.String("deleted_by", actor.ID))
	return nil
}

// CreditBalance describes an admin's registration code allowance. Super admins
// are unlimited.
type CreditBalance struct {
	AdminID   string `json:"admin_id"`
	Username  string `json:"username"`
	Unlimited bool   `json:"-"`
	Credits   int    `json:"-"`
}

// CreditsRemaining renders the balance the way the API reports it: the
// number of credits, or the string "unlimited" for super admins.
func (b CreditBalance) CreditsRemaining() interface{} {
	if b.Unlimited {
		return "unlimited"
	}
	return b.Credits
}

// Credits returns the actor's credit balance.
func (s *AdminService) Credits(_ context.Context, actor *model.Admin) CreditBalance {
	return CreditBalance{
		AdminID:   actor.ID,
		Username:  actor.Username,
		Unlimited: actor.IsSuperAdmin,
		Credits:   actor.Credits,
	}
}

// AssignCredits adds credits to a target admin. Super admin only; the amount
// must be positive and super admins cannot receive credits.
func (s *AdminService) AssignCredits(ctx context.Context, actor *model.Admin, targetID string, amount int) (previous, current int, err error) {
	if !actor.IsSuperAdmin {
		return 0, 0, errors.Authorization("only the super admin can assign credits")
	}
	if amount <= 0 {
		return 0, 0, errors.Validation("credit amount must be positive")
	}

	target, err := s.admins.GetByID(ctx, targetID)
	if stderrors.Is(err, store.ErrNotFound) {
		return 0, 0, errors.NotFound("admin not found")
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load admin: %w", err)
	}
	if target.IsSuperAdmin {
		return 0, 0, errors.Validation("super admins have unlimited credits")
	}

	previous = target.Credits
	target.Credits += amount
	if err := s.admins.Update(ctx, target); err != nil {
		return 0, 0, fmt.Errorf("failed to update credits: %w", err)
	}

	s.logger.Info("credits assigned",
		zap.String("admin_id", target.ID),
		zap.Int("amount", amount),
		zap.Int("balance", target.Credits))
	return previous, target.Credits, nil
}

func (s *AdminService) issueToken(ctx context.Context, adminID string) (*model.AdminToken, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now().UTC()
	token := &model.AdminToken{
		Token:     hex.EncodeToString(raw),
		AdminID:   adminID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TokenExpiry),
	}
	if err := s.tokens.Put(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	return token, nil
}

func validateUsername(username string) error {
	if len(username) < 3 {
		return errors.Validation("username must be at least 3 characters")
	}
	for _, r := range username {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return errors.Validation("username must contain only lowercase letters and digits")
		}
	}
	return nil
}
