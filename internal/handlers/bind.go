package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/validation"
)

func bindAndValidate(c echo.Context, l *slog.Logger, req any) error {
	if err := c.Bind(req); err != nil {
		l.Warn("bind_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		msg := validation.Message(err)
		l.Warn("validation_failed", "status", 400, "reason", msg)
		return echo.NewHTTPError(http.StatusBadRequest, msg)
	}
	return nil
}

func internalError(l *slog.Logger, event string, err error) error {
	l.Error(event, "status", 500, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
