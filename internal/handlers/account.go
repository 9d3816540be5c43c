package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service/auth"
)

type AccountHandler struct {
	Svc *auth.Service
}

func (h *AccountHandler) User(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account_user")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	user, err := h.Svc.Profile(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			l.Warn("user_not_found", "status", 404, "user_id", userID)
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return internalError(l, "user_error", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AccountHandler) Balance(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account_balance")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	balance, err := h.Svc.Balance(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			l.Warn("user_not_found", "status", 404, "user_id", userID)
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return internalError(l, "balance_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"balance": balance})
}

// Credit is the admin top-up endpoint.
func (h *AccountHandler) Credit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin_credit")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req creditRequest
	if err := bindAndValidate(c, l, &req); err != nil {
		return err
	}

	balance, err := h.Svc.Credit(ctx, uint(id), req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		default:
			return internalError(l, "credit_error", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"balance": balance})
}
