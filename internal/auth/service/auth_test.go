package service

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/putridev/sparx-shop/internal/auth/models"
	"github.com/putridev/sparx-shop/internal/auth/repo"
	"github.com/putridev/sparx-shop/pkg/config"
	"github.com/putridev/sparx-shop/pkg/tokens"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []map[string]any
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := event.(map[string]any); ok {
		p.events = append(p.events, m)
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) last() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

func newService(t *testing.T) (*AuthService, *recordingPublisher) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.RefreshToken{}, &models.PasswordReset{},
	))

	pub := &recordingPublisher{}
	return &AuthService{
		Repo:          &repo.GormRepo{DB: db},
		JWTSecret:     []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AdminEmails: []config.AdminEntry{
			{Email: "owner@shop.test", Label: "Super Admin"},
			{Email: "staff@shop.test", Label: "Staff"},
		},
		Producer: pub,
	}, pub
}

func registerReq(email string) RegisterRequest {
	return RegisterRequest{
		Name:     "Test User",
		Email:    email,
		Password: "secret123",
	}
}

func TestRegisterResolvesRoleFromAllowList(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	owner, err := svc.Register(ctx, registerReq("Owner@Shop.Test"))
	require.NoError(t, err)
	require.Equal(t, tokens.RoleSuperAdmin, owner.Role)
	require.Equal(t, "Super Admin", owner.Label)
	require.Equal(t, "owner@shop.test", owner.Email)

	staff, err := svc.Register(ctx, registerReq("staff@shop.test"))
	require.NoError(t, err)
	require.Equal(t, tokens.RoleAdmin, staff.Role)
	require.Equal(t, "Staff", staff.Label)

	customer, err := svc.Register(ctx, registerReq("buyer@mail.test"))
	require.NoError(t, err)
	require.Equal(t, tokens.RoleCustomer, customer.Role)
	require.Empty(t, customer.Label)
	require.NotEmpty(t, customer.ID)
	require.NotEqual(t, "secret123", customer.PasswordHash)
}

func TestRegisterValidations(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Register(ctx, registerReq("not-an-email"))
	require.ErrorIs(t, err, ErrInvalidEmail)

	req := registerReq("buyer@mail.test")
	req.Password = "short"
	_, err = svc.Register(ctx, req)
	require.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.Register(ctx, registerReq("buyer@mail.test"))
	require.NoError(t, err)
	_, err = svc.Register(ctx, registerReq("buyer@mail.test"))
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginIssuesValidTokenPair(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	user, err := svc.Register(ctx, registerReq("buyer@mail.test"))
	require.NoError(t, err)

	result, err := svc.Login(ctx, "buyer@mail.test", "secret123")
	require.NoError(t, err)

	claims, err := tokens.AccessClaimsFromToken(result.AccessToken, svc.JWTSecret)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)
	require.Equal(t, tokens.RoleCustomer, claims.Role)
	require.Equal(t, "buyer@mail.test", claims.Email)

	refresh, err := tokens.RefreshClaimsFromToken(result.RefreshToken, svc.RefreshSecret)
	require.NoError(t, err)
	require.Equal(t, user.ID, refresh.Subject)
	require.NotEmpty(t, refresh.ID)
}

func TestLoginFailsIdenticallyForUnknownAndWrong(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Register(ctx, registerReq("buyer@mail.test"))
	require.NoError(t, err)

	_, errWrong := svc.Login(ctx, "buyer@mail.test", "bad-password")
	_, errUnknown := svc.Login(ctx, "nobody@mail.test", "whatever")
	require.ErrorIs(t, errWrong, ErrInvalidCredentials)
	require.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	require.Equal(t, PublicMessage(errWrong), PublicMessage(errUnknown))
}

func TestRefreshRotatesAndRevokes(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Register(ctx, registerReq("buyer@mail.test"))
	require.NoError(t, err)
	login, err := svc.Login(ctx, "buyer@mail.test", "secret123")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// The consumed token is dead.
	_, err = svc.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, ErrSessionExpired)

	// The rotated one still works.
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestLogoutRevokesSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Register(ctx, registerReq("buyer@mail.test"))
	require.NoError(t, err)
	login, err := svc.Login(ctx, "buyer@mail.test", "secret123")
	require.NoError(t, err)

	svc.Logout(ctx, login.RefreshToken)
	svc.Logout(ctx, "garbage-token") // tolerated

	_, err = svc.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	svc, pub := newService(t)

	_, err := svc.Register(ctx, registerReq("buyer@mail.test"))
	require.NoError(t, err)
	login, err := svc.Login(ctx, "buyer@mail.test", "secret123")
	require.NoError(t, err)

	// Unknown email: same silence, no event.
	before := len(pub.events)
	require.NoError(t, svc.RequestPasswordReset(ctx, "nobody@mail.test"))
	require.Len(t, pub.events, before)

	require.NoError(t, svc.RequestPasswordReset(ctx, "buyer@mail.test"))
	event := pub.last()
	require.Equal(t, "password_reset_requested", event["type"])
	token, _ := event["reset_token"].(string)
	require.NotEmpty(t, token)

	require.ErrorIs(t, svc.ResetPassword(ctx, token, "tiny"), ErrWeakPassword)
	require.NoError(t, svc.ResetPassword(ctx, token, "brand-new-pass"))

	// Single use.
	require.ErrorIs(t, svc.ResetPassword(ctx, token, "another-pass"), ErrSessionExpired)

	// Old password is out, sessions are revoked.
	_, err = svc.Login(ctx, "buyer@mail.test", "secret123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, ErrSessionExpired)
	_, err = svc.Login(ctx, "buyer@mail.test", "brand-new-pass")
	require.NoError(t, err)
}

func TestUpdateUserRole(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	user, err := svc.Register(ctx, registerReq("buyer@mail.test"))
	require.NoError(t, err)

	promoted, err := svc.UpdateUserRole(ctx, user.ID, tokens.RoleAdmin, "Warehouse")
	require.NoError(t, err)
	require.Equal(t, tokens.RoleAdmin, promoted.Role)
	require.Equal(t, "Warehouse", promoted.Label)

	demoted, err := svc.UpdateUserRole(ctx, user.ID, tokens.RoleCustomer, "Warehouse")
	require.NoError(t, err)
	require.Equal(t, tokens.RoleCustomer, demoted.Role)
	require.Empty(t, demoted.Label)

	_, err = svc.UpdateUserRole(ctx, user.ID, "Overlord", "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateUserRole(ctx, "missing-id", tokens.RoleAdmin, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	user, err := svc.Register(ctx, registerReq("buyer@mail.test"))
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdate{
		Name:    "  Budi Santoso ",
		Phone:   "0812000111",
		Address: "Jl. Merdeka 1",
	})
	require.NoError(t, err)
	require.Equal(t, "Budi Santoso", updated.Name)
	require.Equal(t, "0812000111", updated.Phone)
	require.Equal(t, "Jl. Merdeka 1", updated.Address)
	// Everything outside the contact details stays put.
	require.Equal(t, user.Email, updated.Email)
	require.Equal(t, user.Role, updated.Role)

	_, err = svc.UpdateProfile(ctx, user.ID, ProfileUpdate{Name: "  "})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateProfile(ctx, "missing-id", ProfileUpdate{Name: "Budi"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPublicMessageTable(t *testing.T) {
	require.Equal(t, "Incorrect email or password.", PublicMessage(ErrInvalidCredentials))
	require.Equal(t, "This email is already registered.", PublicMessage(ErrEmailTaken))
	require.Empty(t, PublicMessage(ErrNotFound))
}
