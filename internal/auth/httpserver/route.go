package httpserver

import (
	"github.com/labstack/echo/v4"

	middleware "github.com/putridev/sparx-shop/pkg/middleware/auth"
)

type Deps struct {
	AuthHandler *AuthHTTP
	AuthMW      *middleware.AuthMiddleware
}

func Register(e *echo.Echo, d *Deps) {
	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.POST("/reset", d.AuthHandler.RequestPasswordReset)
	auth.POST("/reset/confirm", d.AuthHandler.ConfirmPasswordReset)

	e.GET("/me", d.AuthHandler.Me, d.AuthMW.RequireAuth)
	e.PATCH("/me", d.AuthHandler.UpdateMe, d.AuthMW.RequireAuth)

	users := e.Group("/admin/users")
	users.GET("", d.AuthHandler.AdminListUsers, d.AuthMW.RequireAdmin)
	users.PATCH("/:id/role", d.AuthHandler.AdminUpdateRole, d.AuthMW.RequireSuperAdmin)
}
