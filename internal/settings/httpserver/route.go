package httpserver

import (
	"github.com/labstack/echo/v4"

	middleware "github.com/putridev/sparx-shop/pkg/middleware/auth"
)

type Deps struct {
	SettingsHandler *SettingsHTTP
	AuthMW          *middleware.AuthMiddleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/settings", d.SettingsHandler.GetSettings)
	e.PUT("/admin/settings", d.SettingsHandler.UpdateSettings, d.AuthMW.RequireAdmin)
}
