package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/putridev/sparx-shop/internal/catalog/mirror"
	"github.com/putridev/sparx-shop/internal/catalog/models"
	"github.com/putridev/sparx-shop/internal/catalog/repo"
	"github.com/putridev/sparx-shop/internal/catalog/service"
	"github.com/putridev/sparx-shop/internal/catalog/transport"
	"github.com/putridev/sparx-shop/internal/catalog/util"
	"github.com/putridev/sparx-shop/pkg/logging"
)

type CatalogHTTP struct {
	Svc    *service.CatalogService
	Mirror *mirror.Mirror
}

type productView struct {
	models.Product
	ImageURLs []string `json:"image_urls"`
}

func (h *CatalogHTTP) view(c echo.Context, p models.Product) productView {
	urls := make([]string, 0, len(p.Images))
	for _, ref := range p.Images {
		urls = append(urls, h.Mirror.ResolveImage(c.Request().Context(), ref))
	}
	return productView{Product: p, ImageURLs: urls}
}

func (h *CatalogHTTP) views(c echo.Context, items []models.Product) []productView {
	out := make([]productView, 0, len(items))
	for _, p := range items {
		out = append(out, h.view(c, p))
	}
	return out
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	slug := c.Param("slug")
	prod, err := h.Svc.GetProduct(ctx, slug)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_product_failed", "status", 404, "reason", "product not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("get_product_failed", "status", 500, "reason", "cannot get product", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get product")
	}

	return c.JSON(http.StatusOK, h.view(c, *prod))
}

func (h *CatalogHTTP) listWith(c echo.Context, f repo.Filter) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	f.Category = c.QueryParam("category")
	f.Query = c.QueryParam("q")
	if f.IncludeInactive {
		f.Status = c.QueryParam("status")
	}

	total, items, err := h.Svc.ListProducts(ctx, f, offset, limit)
	if err != nil {
		l.Error("get_products_error", "status", 500, "reason", "cannot list products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list products")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": h.views(c, items),
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

// GetProducts is the customer listing: inactive products never appear.
func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	return h.listWith(c, repo.Filter{IncludeInactive: false})
}

// GetAllProducts is the admin listing, inactive included.
func (h *CatalogHTTP) GetAllProducts(c echo.Context) error {
	return h.listWith(c, repo.Filter{IncludeInactive: true})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search_products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("search_products_error", "status", 400, "reason", "query required", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "query required")
		}
		l.Error("search_products_error", "status", 500, "reason", "search failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": h.views(c, items),
		"meta": map[string]any{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		case errors.Is(err, service.ErrConflict):
			l.Warn("product_create_error", "status", 409, "reason", "slug already exists", "error", err)
			return echo.NewHTTPError(http.StatusConflict, "slug already exists")
		default:
			l.Error("product_create_error", "status", 500, "reason", "cannot add product to db", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot add product to db")
		}
	}

	l.Info("create_product_success", "slug", prod.Slug)
	return c.JSON(http.StatusCreated, prod)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.patch_product")

	slug := c.Param("slug")

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.PatchProduct(ctx, req, slug)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			l.Warn("product_patch_error", "status", 404, "reason", "cannot find product in db", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "cannot find product in db")
		case errors.Is(err, service.ErrValidation):
			l.Warn("product_patch_error", "status", 400, "reason", "invalid body", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		default:
			l.Error("product_patch_error", "status", 500, "reason", "cannot update product", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot update product")
		}
	}

	l.Info("patch_product_success", "slug", prod.Slug)
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_product")

	slug := c.Param("slug")
	if err := h.Svc.DeleteProduct(ctx, slug); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("product_delete_error", "status", 404, "reason", "product not found", "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("product_delete_error", "status", 500, "reason", "cannot delete product from db", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete product from db")
	}

	l.Info("delete_product_success", "slug", slug)
	return c.NoContent(http.StatusNoContent)
}
