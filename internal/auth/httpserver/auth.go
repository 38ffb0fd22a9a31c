package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/putridev/sparx-shop/internal/auth/service"
	"github.com/putridev/sparx-shop/pkg/logging"
	"github.com/putridev/sparx-shop/pkg/tokens"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func setAuthCookies(c echo.Context, result *service.LoginResult) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookieName, result.AccessToken, "/", result.AccessExp))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookieName, result.RefreshToken, "/", result.RefreshExp))
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookieName, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookieName, "/"))
}

// authError maps the fixed-message failures to 4xx responses and keeps
// everything else a plain 500.
func authError(c echo.Context, err error, code int) error {
	if msg := service.PublicMessage(err); msg != "" {
		return echo.NewHTTPError(code, msg)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req service.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			l.Warn("register_error", "status", 409, "reason", "email taken")
			return authError(c, err, http.StatusConflict)
		case errors.Is(err, service.ErrInvalidEmail),
			errors.Is(err, service.ErrWeakPassword),
			errors.Is(err, service.ErrValidation):
			l.Warn("register_error", "status", 400, "reason", "invalid input", "error", err)
			return authError(c, err, http.StatusBadRequest)
		default:
			l.Error("register_error", "status", 500, "reason", "cannot register", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot register")
		}
	}

	l.Info("register_success", "user_id", user.ID, "role", user.Role)
	return c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	result, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			l.Warn("login_error", "status", 401, "reason", "invalid credentials")
			return authError(c, err, http.StatusUnauthorized)
		}
		l.Error("login_error", "status", 500, "reason", "cannot login", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot login")
	}

	setAuthCookies(c, result)
	l.Info("login_success", "user_id", result.User.ID, "role", result.User.Role)
	return c.JSON(http.StatusOK, result.User)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	cookie, err := c.Cookie(tokens.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		l.Warn("refresh_error", "status", 401, "reason", "missing refresh token")
		return authError(c, service.ErrSessionExpired, http.StatusUnauthorized)
	}

	result, err := h.Svc.Refresh(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, service.ErrSessionExpired) {
			clearAuthCookies(c)
			l.Warn("refresh_error", "status", 401, "reason", "session expired")
			return authError(c, err, http.StatusUnauthorized)
		}
		l.Error("refresh_error", "status", 500, "reason", "cannot refresh", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot refresh")
	}

	setAuthCookies(c, result)
	return c.JSON(http.StatusOK, result.User)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	if cookie, err := c.Cookie(tokens.RefreshCookieName); err == nil && cookie.Value != "" {
		h.Svc.Logout(ctx, cookie.Value)
	}
	clearAuthCookies(c)
	return c.NoContent(http.StatusNoContent)
}

type resetRequest struct {
	Email string `json:"email"`
}

func (h *AuthHTTP) RequestPasswordReset(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.request_reset")

	var req resetRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("request_reset_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.RequestPasswordReset(ctx, req.Email); err != nil {
		l.Error("request_reset_error", "status", 500, "reason", "cannot create reset", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot process reset")
	}

	// Same answer whether or not the account exists.
	return c.JSON(http.StatusOK, map[string]string{
		"message": "If that email is registered, a reset link is on its way.",
	})
}

type resetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHTTP) ConfirmPasswordReset(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.confirm_reset")

	var req resetConfirmRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("confirm_reset_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.ResetPassword(ctx, req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrWeakPassword):
			l.Warn("confirm_reset_error", "status", 400, "reason", "weak password")
			return authError(c, err, http.StatusBadRequest)
		case errors.Is(err, service.ErrSessionExpired):
			l.Warn("confirm_reset_error", "status", 401, "reason", "invalid reset token")
			return authError(c, err, http.StatusUnauthorized)
		default:
			l.Error("confirm_reset_error", "status", 500, "reason", "cannot reset password", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot reset password")
		}
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	uid, _ := c.Get("user_id").(string)
	user, err := h.Svc.Me(ctx, uid)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("me_error", "status", 404, "reason", "user not found")
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		l.Error("me_error", "status", 500, "reason", "cannot load user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load user")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.update_me")

	var req service.ProfileUpdate
	if err := c.Bind(&req); err != nil {
		l.Warn("update_me_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	uid, _ := c.Get("user_id").(string)
	user, err := h.Svc.UpdateProfile(ctx, uid, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("update_me_error", "status", 400, "reason", "invalid input", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "name required")
		case errors.Is(err, service.ErrNotFound):
			l.Warn("update_me_error", "status", 404, "reason", "user not found")
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		default:
			l.Error("update_me_error", "status", 500, "reason", "cannot update profile", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot update profile")
		}
	}

	l.Info("update_me_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) AdminListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.admin_list_users")

	users, err := h.Svc.ListUsers(ctx)
	if err != nil {
		l.Error("list_users_error", "status", 500, "reason", "cannot list users", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list users")
	}
	return c.JSON(http.StatusOK, users)
}

type roleRequest struct {
	Role  string `json:"role"`
	Label string `json:"label"`
}

func (h *AuthHTTP) AdminUpdateRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.admin_update_role")

	var req roleRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_role_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.UpdateUserRole(ctx, c.Param("id"), req.Role, req.Label)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			l.Warn("update_role_error", "status", 404, "reason", "user not found")
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrValidation):
			l.Warn("update_role_error", "status", 400, "reason", "invalid role", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid role")
		default:
			l.Error("update_role_error", "status", 500, "reason", "cannot update role", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot update role")
		}
	}

	l.Info("update_role_success", "user_id", user.ID, "role", user.Role)
	return c.JSON(http.StatusOK, user)
}
