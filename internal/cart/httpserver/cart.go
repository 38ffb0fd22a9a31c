package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/putridev/sparx-shop/internal/cart/models"
	"github.com/putridev/sparx-shop/internal/cart/service"
	"github.com/putridev/sparx-shop/pkg/logging"
)

// GuestKeyHeader carries the anonymous cart key for requests without an
// authenticated user.
const GuestKeyHeader = "X-Guest-Key"

type CartHTTP struct {
	Svc *service.CartService
}

type cartResponse struct {
	Items       []models.Entry `json:"items"`
	TotalPrice  int64          `json:"total_price"`
	SelectedQty int            `json:"selected_qty"`
}

func respond(c echo.Context, entries []models.Entry) error {
	if entries == nil {
		entries = []models.Entry{}
	}
	return c.JSON(http.StatusOK, cartResponse{
		Items:       entries,
		TotalPrice:  service.TotalPrice(entries),
		SelectedQty: service.TotalSelectedQty(entries),
	})
}

// ownerKey prefers the authenticated user id and falls back to the
// guest key header. Empty when neither is present.
func ownerKey(c echo.Context) string {
	if uid, ok := c.Get("user_id").(string); ok && uid != "" {
		return "user:" + uid
	}
	if guest := c.Request().Header.Get(GuestKeyHeader); guest != "" {
		return "guest:" + guest
	}
	return ""
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	owner := ownerKey(c)
	if owner == "" {
		l.Warn("get_cart_error", "status", 400, "reason", "missing cart owner")
		return echo.NewHTTPError(http.StatusBadRequest, "missing cart owner")
	}

	entries, err := h.Svc.Items(ctx, owner)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "reason", "cannot load cart", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load cart")
	}
	return respond(c, entries)
}

type addItemRequest struct {
	Slug string `json:"slug"`
	Qty  int    `json:"qty"`
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	owner := ownerKey(c)
	if owner == "" {
		l.Warn("add_item_error", "status", 400, "reason", "missing cart owner")
		return echo.NewHTTPError(http.StatusBadRequest, "missing cart owner")
	}

	var req addItemRequest
	if err := c.Bind(&req); err != nil || req.Slug == "" {
		l.Warn("add_item_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	entries, err := h.Svc.Add(ctx, owner, req.Slug, req.Qty)
	if err != nil {
		l.Error("add_item_error", "status", 500, "reason", "cannot update cart", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update cart")
	}

	l.Info("add_item_success", "slug", req.Slug)
	return respond(c, entries)
}

type setQuantityRequest struct {
	Qty int `json:"qty"`
}

func (h *CartHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	owner := ownerKey(c)
	if owner == "" {
		l.Warn("set_quantity_error", "status", 400, "reason", "missing cart owner")
		return echo.NewHTTPError(http.StatusBadRequest, "missing cart owner")
	}

	var req setQuantityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("set_quantity_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	entries, err := h.Svc.SetQuantity(ctx, owner, c.Param("slug"), req.Qty)
	if err != nil {
		l.Error("set_quantity_error", "status", 500, "reason", "cannot update cart", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update cart")
	}
	return respond(c, entries)
}

func (h *CartHTTP) ToggleSelected(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.toggle_selected")

	owner := ownerKey(c)
	if owner == "" {
		l.Warn("toggle_selected_error", "status", 400, "reason", "missing cart owner")
		return echo.NewHTTPError(http.StatusBadRequest, "missing cart owner")
	}

	entries, err := h.Svc.ToggleSelected(ctx, owner, c.Param("slug"))
	if err != nil {
		l.Error("toggle_selected_error", "status", 500, "reason", "cannot update cart", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update cart")
	}
	return respond(c, entries)
}

type selectAllRequest struct {
	Selected bool `json:"selected"`
}

func (h *CartHTTP) SelectAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.select_all")

	owner := ownerKey(c)
	if owner == "" {
		l.Warn("select_all_error", "status", 400, "reason", "missing cart owner")
		return echo.NewHTTPError(http.StatusBadRequest, "missing cart owner")
	}

	var req selectAllRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("select_all_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	entries, err := h.Svc.SelectAll(ctx, owner, req.Selected)
	if err != nil {
		l.Error("select_all_error", "status", 500, "reason", "cannot update cart", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update cart")
	}
	return respond(c, entries)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	owner := ownerKey(c)
	if owner == "" {
		l.Warn("remove_item_error", "status", 400, "reason", "missing cart owner")
		return echo.NewHTTPError(http.StatusBadRequest, "missing cart owner")
	}

	entries, err := h.Svc.Remove(ctx, owner, c.Param("slug"))
	if err != nil {
		l.Error("remove_item_error", "status", 500, "reason", "cannot update cart", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update cart")
	}
	return respond(c, entries)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear_cart")

	owner := ownerKey(c)
	if owner == "" {
		l.Warn("clear_cart_error", "status", 400, "reason", "missing cart owner")
		return echo.NewHTTPError(http.StatusBadRequest, "missing cart owner")
	}

	if err := h.Svc.Clear(ctx, owner); err != nil {
		l.Error("clear_cart_error", "status", 500, "reason", "cannot clear cart", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot clear cart")
	}
	return c.NoContent(http.StatusNoContent)
}
