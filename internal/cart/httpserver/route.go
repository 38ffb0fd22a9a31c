package httpserver

import (
	"github.com/labstack/echo/v4"

	middleware "github.com/putridev/sparx-shop/pkg/middleware/auth"
)

type Deps struct {
	CartHandler *CartHTTP
	AuthMW      *middleware.AuthMiddleware
}

func Register(e *echo.Echo, d *Deps) {
	cart := e.Group("/cart", d.AuthMW.OptionalAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("/items", d.CartHandler.AddItem)
	cart.PATCH("/items/:slug", d.CartHandler.SetQuantity)
	cart.POST("/items/:slug/toggle", d.CartHandler.ToggleSelected)
	cart.POST("/select", d.CartHandler.SelectAll)
	cart.DELETE("/items/:slug", d.CartHandler.RemoveItem)
	cart.DELETE("", d.CartHandler.ClearCart)
}
