package httpserver

import (
	"github.com/labstack/echo/v4"

	middleware "github.com/putridev/sparx-shop/pkg/middleware/auth"
)

type Deps struct {
	OrderHandler *OrderHTTP
	AuthMW       *middleware.AuthMiddleware
}

func Register(e *echo.Echo, d *Deps) {
	orders := e.Group("/orders", d.AuthMW.RequireAuth)
	orders.POST("/checkout", d.OrderHandler.Checkout)
	orders.GET("/history", d.OrderHandler.History)
	orders.GET("/:id", d.OrderHandler.GetOwn)
	orders.POST("/:id/proof", d.OrderHandler.UploadProof)

	admin := e.Group("/admin/orders", d.AuthMW.RequireAdmin)
	admin.GET("", d.OrderHandler.AdminList)
	admin.GET("/:id", d.OrderHandler.AdminGet)
	admin.PATCH("/:id", d.OrderHandler.AdminPatch)
	admin.POST("/manual", d.OrderHandler.AdminCreateManual)
}
