package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/putridev/sparx-shop/internal/report/service"
	"github.com/putridev/sparx-shop/pkg/dates"
	"github.com/putridev/sparx-shop/pkg/logging"
)

type ReportHTTP struct {
	Svc *service.ReportService
}

func (h *ReportHTTP) bounds(c echo.Context) (int64, int64, error) {
	from, err := dates.ParseDay(c.QueryParam("from"), false)
	if err != nil {
		return 0, 0, err
	}
	to, err := dates.ParseDay(c.QueryParam("to"), true)
	if err != nil {
		return 0, 0, err
	}
	return from, to, nil
}

func (h *ReportHTTP) Sales(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "report.sales")

	from, to, err := h.bounds(c)
	if err != nil {
		l.Warn("sales_report_error", "status", 400, "reason", "invalid date range", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date range")
	}

	report, err := h.Svc.Sales(ctx, from, to)
	if err != nil {
		l.Error("sales_report_error", "status", 500, "reason", "cannot build report", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot build report")
	}
	return c.JSON(http.StatusOK, report)
}

func (h *ReportHTTP) SalesCSV(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "report.sales_csv")

	from, to, err := h.bounds(c)
	if err != nil {
		l.Warn("sales_csv_error", "status", 400, "reason", "invalid date range", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date range")
	}

	data, err := h.Svc.SalesCSV(ctx, from, to)
	if err != nil {
		l.Error("sales_csv_error", "status", 500, "reason", "cannot build report", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot build report")
	}

	filename := "sales-" + time.Now().Format("20060102") + ".csv"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "text/csv", data)
}

func (h *ReportHTTP) Stock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "report.stock")

	report, err := h.Svc.Stock(ctx)
	if err != nil {
		l.Error("stock_report_error", "status", 500, "reason", "cannot build report", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot build report")
	}
	return c.JSON(http.StatusOK, report)
}

func (h *ReportHTTP) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "report.dashboard")

	dash, err := h.Svc.BuildDashboard(ctx)
	if err != nil {
		l.Error("dashboard_error", "status", 500, "reason", "cannot build dashboard", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot build dashboard")
	}
	return c.JSON(http.StatusOK, dash)
}
