package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/putridev/sparx-shop/internal/settings/models"
	"github.com/putridev/sparx-shop/internal/settings/service"
	"github.com/putridev/sparx-shop/pkg/logging"
)

type SettingsHTTP struct {
	Svc *service.SettingsService
}

func (h *SettingsHTTP) GetSettings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "settings.get")

	settings, err := h.Svc.Get(ctx)
	if err != nil {
		l.Error("get_settings_error", "status", 500, "reason", "cannot load settings", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load settings")
	}
	return c.JSON(http.StatusOK, settings)
}

func (h *SettingsHTTP) UpdateSettings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "settings.update")

	var settings models.StoreSettings
	if err := c.Bind(&settings); err != nil {
		l.Warn("update_settings_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	updated, err := h.Svc.Update(ctx, settings)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("update_settings_error", "status", 400, "reason", "invalid settings", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("update_settings_error", "status", 500, "reason", "cannot save settings", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save settings")
	}

	l.Info("update_settings_success")
	return c.JSON(http.StatusOK, updated)
}
