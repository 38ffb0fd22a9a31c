package httpserver

import (
	"github.com/labstack/echo/v4"

	middleware "github.com/putridev/sparx-shop/pkg/middleware/auth"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
	AuthMW         *middleware.AuthMiddleware
}

func Register(e *echo.Echo, d *Deps) {
	products := e.Group("/catalog/products")
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/:slug", d.CatalogHandler.GetProduct)

	admin := products.Group("", d.AuthMW.RequireAdmin)
	admin.GET("/all", d.CatalogHandler.GetAllProducts)
	admin.POST("", d.CatalogHandler.CreateProduct)
	admin.PATCH("/:slug", d.CatalogHandler.PatchProduct)
	admin.DELETE("/:slug", d.CatalogHandler.DeleteProduct)
}
