package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/putridev/sparx-shop/internal/catalog/util"
	"github.com/putridev/sparx-shop/internal/order/models"
	"github.com/putridev/sparx-shop/internal/order/repo"
	"github.com/putridev/sparx-shop/internal/order/service"
	"github.com/putridev/sparx-shop/pkg/dates"
	"github.com/putridev/sparx-shop/pkg/logging"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

type orderView struct {
	*models.Order
	ProofURL string `json:"proof_url,omitempty"`
}

func (h *OrderHTTP) view(c echo.Context, order *models.Order) orderView {
	return orderView{
		Order:    order,
		ProofURL: h.Svc.ProofURL(c.Request().Context(), order),
	}
}

func userID(c echo.Context) string {
	uid, _ := c.Get("user_id").(string)
	return uid
}

// cartOwner matches the cart handler's owner key scheme for signed-in
// users.
func cartOwner(c echo.Context) string {
	return "user:" + userID(c)
}

// dateBounds reads the YYYY-MM-DD from/to query params as an inclusive
// creation-time window.
func dateBounds(c echo.Context) (int64, int64, error) {
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

func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	var req service.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.Checkout(ctx, cartOwner(c), userID(c), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("checkout_error", "status", 400, "reason", "invalid checkout", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInsufficientStock):
			l.Warn("checkout_error", "status", 409, "reason", "insufficient stock", "error", err)
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrRetry):
			l.Error("checkout_error", "status", 500, "reason", "order write failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "order could not be placed, please try again")
		default:
			l.Error("checkout_error", "status", 500, "reason", "checkout failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "checkout failed")
		}
	}

	l.Info("checkout_success", "order_id", order.ID, "total", order.Total)
	return c.JSON(http.StatusCreated, h.view(c, order))
}

func (h *OrderHTTP) History(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.history")

	from, to, err := dateBounds(c)
	if err != nil {
		l.Warn("history_error", "status", 400, "reason", "invalid date range", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date range")
	}

	orders, err := h.Svc.History(ctx, userID(c), from, to)
	if err != nil {
		l.Error("history_error", "status", 500, "reason", "cannot list orders", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list orders")
	}

	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, h.view(c, &orders[i]))
	}
	return c.JSON(http.StatusOK, views)
}

func (h *OrderHTTP) GetOwn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_own")

	order, err := h.Svc.GetOwned(ctx, userID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_order_error", "status", 404, "reason", "order not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		l.Error("get_order_error", "status", 500, "reason", "cannot get order", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get order")
	}
	return c.JSON(http.StatusOK, h.view(c, order))
}

func (h *OrderHTTP) UploadProof(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.upload_proof")

	file, err := c.FormFile("proof")
	if err != nil {
		l.Warn("upload_proof_error", "status", 400, "reason", "proof file required", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "proof file required")
	}

	src, err := file.Open()
	if err != nil {
		l.Error("upload_proof_error", "status", 500, "reason", "cannot read upload", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read upload")
	}
	defer src.Close()

	url, err := h.Svc.UploadProof(ctx, userID(c), c.Param("id"),
		file.Filename, file.Header.Get("Content-Type"), file.Size, src)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			l.Warn("upload_proof_error", "status", 404, "reason", "order not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		case errors.Is(err, service.ErrValidation):
			l.Warn("upload_proof_error", "status", 400, "reason", "invalid proof", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("upload_proof_error", "status", 500, "reason", "cannot store proof", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot store proof")
		}
	}

	l.Info("upload_proof_success", "order_id", c.Param("id"))
	return c.JSON(http.StatusOK, map[string]string{"proof_url": url})
}

func (h *OrderHTTP) AdminList(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.admin_list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	from, to, err := dateBounds(c)
	if err != nil {
		l.Warn("admin_list_error", "status", 400, "reason", "invalid date range", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date range")
	}

	f := repo.Filter{
		Status: c.QueryParam("status"),
		Query:  c.QueryParam("q"),
		From:   from,
		To:     to,
	}

	total, orders, err := h.Svc.List(ctx, f, offset, limit)
	if err != nil {
		l.Error("admin_list_error", "status", 500, "reason", "cannot list orders", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list orders")
	}

	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, h.view(c, &orders[i]))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": views,
		"meta": map[string]any{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}

func (h *OrderHTTP) AdminGet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.admin_get")

	order, err := h.Svc.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("admin_get_error", "status", 404, "reason", "order not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		l.Error("admin_get_error", "status", 500, "reason", "cannot get order", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get order")
	}
	return c.JSON(http.StatusOK, h.view(c, order))
}

func (h *OrderHTTP) AdminPatch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.admin_patch")

	var patch service.AdminPatch
	if err := c.Bind(&patch); err != nil {
		l.Warn("admin_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.UpdateOrder(ctx, c.Param("id"), patch)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			l.Warn("admin_patch_error", "status", 404, "reason", "order not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		case errors.Is(err, service.ErrValidation):
			l.Warn("admin_patch_error", "status", 400, "reason", "invalid patch", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("admin_patch_error", "status", 500, "reason", "cannot update order", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot update order")
		}
	}

	l.Info("admin_patch_success", "order_id", order.ID, "order_status", order.Status)
	return c.JSON(http.StatusOK, h.view(c, order))
}

func (h *OrderHTTP) AdminCreateManual(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.admin_manual")

	var req service.ManualOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("admin_manual_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.CreateManual(ctx, userID(c), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("admin_manual_error", "status", 400, "reason", "invalid order", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInsufficientStock):
			l.Warn("admin_manual_error", "status", 409, "reason", "insufficient stock", "error", err)
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			l.Error("admin_manual_error", "status", 500, "reason", "cannot create order", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot create order")
		}
	}

	l.Info("admin_manual_success", "order_id", order.ID, "total", order.Total)
	return c.JSON(http.StatusCreated, h.view(c, order))
}
