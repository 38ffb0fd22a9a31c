package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/putridev/sparx-shop/internal/auth/models"
	"github.com/putridev/sparx-shop/internal/auth/repo"
	"github.com/putridev/sparx-shop/internal/events"
	"github.com/putridev/sparx-shop/pkg/config"
	"github.com/putridev/sparx-shop/pkg/hash"
	"github.com/putridev/sparx-shop/pkg/logging"
	"github.com/putridev/sparx-shop/pkg/tokens"
)

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
	resetTTL   = time.Hour

	minPasswordLen = 6
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
	AdminEmails   []config.AdminEntry
	Producer      events.Publisher
}

type LoginResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// Register creates an account. The role comes from the admin allow-list:
// a listed email becomes Super Admin when its label reads "Super Admin",
// Admin otherwise; everyone else is a Customer.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailRe.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}

	if _, err := s.Repo.UserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("register_error", "status", 500, "reason", "lookup failed", "error", err)
		return nil, err
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash password", "error", err)
		return nil, err
	}

	role, label := s.resolveRole(email)
	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: pwHash,
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		Role:         role,
		Label:        label,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, err
	}

	s.publish(ctx, map[string]any{
		"type":    "user_registered",
		"user_id": user.ID,
		"role":    user.Role,
	}, user.ID)

	return user, nil
}

func (s *AuthService) resolveRole(email string) (role, label string) {
	for _, entry := range s.AdminEmails {
		if entry.Email != email {
			continue
		}
		if entry.Label == tokens.RoleSuperAdmin {
			return tokens.RoleSuperAdmin, entry.Label
		}
		return tokens.RoleAdmin, entry.Label
	}
	return tokens.RoleCustomer, ""
}

// Login verifies credentials and issues a fresh token pair. Unknown
// email and wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		l.Error("login_error", "status", 500, "reason", "lookup failed", "error", err)
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*LoginResult, error) {
	accessExp := time.Now().Add(accessTTL)
	accessToken, err := s.CreateAccessToken(user, accessExp)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshExp := time.Now().Add(refreshTTL)
	jti := tokens.NewJTI()
	refreshToken, err := s.CreateRefreshToken(user.ID, jti, refreshExp)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.Repo.SaveRefresh(ctx, &models.RefreshToken{
		JTI:       jti,
		UserID:    user.ID,
		TokenHash: tokens.Sha256Hex(refreshToken),
		ExpiresAt: refreshExp.UnixMilli(),
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &LoginResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (s *AuthService) CreateAccessToken(user *models.User, exp time.Time) (string, error) {
	claims := tokens.AccessClaims{
		Role:  user.Role,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.JWTSecret)
}

func (s *AuthService) CreateRefreshToken(userID, jti string, exp time.Time) (string, error) {
	claims := tokens.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.RefreshSecret)
}

// Refresh rotates a valid refresh token into a new pair. The presented
// token is matched against its stored hash and revoked on use.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, ErrSessionExpired
	}

	stored, err := s.Repo.RefreshByJTI(ctx, claims.ID)
	if err != nil {
		return nil, ErrSessionExpired
	}
	if stored.Revoked || stored.ExpiresAt < time.Now().UnixMilli() {
		return nil, ErrSessionExpired
	}
	if stored.TokenHash != tokens.Sha256Hex(refreshToken) {
		return nil, ErrSessionExpired
	}

	user, err := s.Repo.UserByID(ctx, claims.Subject)
	if err != nil {
		return nil, ErrSessionExpired
	}

	if err := s.Repo.RevokeRefresh(ctx, claims.ID); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes the presented refresh token. A garbage token logs out
// cleanly too.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return
	}
	if err := s.Repo.RevokeRefresh(ctx, claims.ID); err != nil {
		logging.FromContext(ctx).Warn("logout_revoke_failed", "error", err)
	}
}

// RequestPasswordReset issues a single-use reset token. The response is
// identical whether or not the email is registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	token := tokens.NewJTI()
	if err := s.Repo.CreateReset(ctx, &models.PasswordReset{
		TokenHash: tokens.Sha256Hex(token),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(resetTTL).UnixMilli(),
	}); err != nil {
		return err
	}

	// Delivery happens downstream; the consumer owns the email template.
	s.publish(ctx, map[string]any{
		"type":        "password_reset_requested",
		"user_id":     user.ID,
		"email":       user.Email,
		"reset_token": token,
	}, user.ID)

	return nil
}

// ResetPassword consumes a reset token, sets the new password and
// revokes every outstanding session.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return ErrWeakPassword
	}

	reset, err := s.Repo.ResetByHash(ctx, tokens.Sha256Hex(token))
	if err != nil {
		return ErrSessionExpired
	}
	if reset.Used || reset.ExpiresAt < time.Now().UnixMilli() {
		return ErrSessionExpired
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdateUser(ctx, reset.UserID, map[string]any{"password_hash": pwHash}); err != nil {
		return err
	}
	if err := s.Repo.MarkResetUsed(ctx, reset.TokenHash); err != nil {
		return err
	}
	return s.Repo.RevokeAllForUser(ctx, reset.UserID)
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.Repo.UserByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	return user, err
}

type ProfileUpdate struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateProfile lets a signed-in user edit their own contact details.
// Only name, phone and address are writable here; email, role and
// password have their own flows.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req ProfileUpdate) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}

	fields := map[string]any{
		"name":    name,
		"phone":   strings.TrimSpace(req.Phone),
		"address": strings.TrimSpace(req.Address),
	}
	if err := s.Repo.UpdateUser(ctx, userID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}
	return s.Repo.UserByID(ctx, userID)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.Repo.ListUsers(ctx)
}

// UpdateUserRole changes a user's role. The display label survives only
// on admin roles; demoting to Customer clears it.
func (s *AuthService) UpdateUserRole(ctx context.Context, userID, role, label string) (*models.User, error) {
	switch role {
	case tokens.RoleCustomer, tokens.RoleAdmin, tokens.RoleSuperAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if !tokens.IsAdminRole(role) {
		label = ""
	}

	fields := map[string]any{"role": role, "label": label}
	if err := s.Repo.UpdateUser(ctx, userID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}

	s.publish(ctx, map[string]any{
		"type":    "user_role_changed",
		"user_id": userID,
		"role":    role,
	}, userID)

	return s.Repo.UserByID(ctx, userID)
}

func (s *AuthService) publish(ctx context.Context, event map[string]any, key string) {
	if s.Producer == nil {
		return
	}
	if err := s.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "error", err)
	}
}
