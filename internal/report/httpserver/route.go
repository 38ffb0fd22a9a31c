package httpserver

import (
	"github.com/labstack/echo/v4"

	middleware "github.com/putridev/sparx-shop/pkg/middleware/auth"
)

type Deps struct {
	ReportHandler *ReportHTTP
	AuthMW        *middleware.AuthMiddleware
}

func Register(e *echo.Echo, d *Deps) {
	admin := e.Group("/admin", d.AuthMW.RequireAdmin)
	admin.GET("/dashboard", d.ReportHandler.Dashboard)
	admin.GET("/reports/sales", d.ReportHandler.Sales)
	admin.GET("/reports/sales.csv", d.ReportHandler.SalesCSV)
	admin.GET("/reports/stock", d.ReportHandler.Stock)
}
