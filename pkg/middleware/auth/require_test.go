package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/putridev/sparx-shop/pkg/tokens"
)

var testSecret = []byte("test-secret")

func signedAccess(t *testing.T, role string, exp time.Time) string {
	t.Helper()
	claims := tokens.AccessClaims{
		Role:  role,
		Email: "user@shop.test",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func invoke(t *testing.T, mw echo.MiddlewareFunc, cookie string) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: tokens.AccessCookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	err := handler(c)
	return rec, c, err
}

func TestRequireAuthSetsUserContext(t *testing.T) {
	m := New(testSecret)
	token := signedAccess(t, tokens.RoleCustomer, time.Now().Add(time.Minute))

	rec, c, err := invoke(t, m.RequireAuth, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", c.Get("user_id"))
	require.Equal(t, tokens.RoleCustomer, c.Get("role"))
	require.Equal(t, "user@shop.test", c.Get("email"))
}

func TestRequireAuthRejectsMissingAndExpired(t *testing.T) {
	m := New(testSecret)

	_, _, err := invoke(t, m.RequireAuth, "")
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)

	expired := signedAccess(t, tokens.RoleCustomer, time.Now().Add(-time.Minute))
	rec, _, err := invoke(t, m.RequireAuth, expired)
	he, ok = err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)

	// Invalid token clears both auth cookies.
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		require.Empty(t, c.Value)
	}
}

func TestRequireAdminByRole(t *testing.T) {
	m := New(testSecret)

	for _, role := range []string{tokens.RoleAdmin, tokens.RoleSuperAdmin} {
		rec, _, err := invoke(t, m.RequireAdmin, signedAccess(t, role, time.Now().Add(time.Minute)))
		require.NoError(t, err, "role %s", role)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	_, _, err := invoke(t, m.RequireAdmin, signedAccess(t, tokens.RoleCustomer, time.Now().Add(time.Minute)))
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)

	_, _, err = invoke(t, m.RequireSuperAdmin, signedAccess(t, tokens.RoleAdmin, time.Now().Add(time.Minute)))
	he, ok = err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)
}

func TestOptionalAuth(t *testing.T) {
	m := New(testSecret)

	rec, c, err := invoke(t, m.OptionalAuth, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, c.Get("user_id"))

	rec, c, err = invoke(t, m.OptionalAuth, signedAccess(t, tokens.RoleCustomer, time.Now().Add(time.Minute)))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", c.Get("user_id"))

	// Garbage token: request passes through anonymously.
	rec, c, err = invoke(t, m.OptionalAuth, "garbage")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, c.Get("user_id"))
}
