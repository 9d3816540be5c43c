package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/handlers/cart"
	"github.com/Skotchmaster/storefront/internal/logging"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service/purchase"
)

type PurchaseHandler struct {
	Svc     *purchase.Service
	Cookies CookieOptions
}

func (h *PurchaseHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "purchases_list")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	rows, err := h.Svc.List(ctx, userID)
	if err != nil {
		return internalError(l, "purchases_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"purchases": rows})
}

func (h *PurchaseHandler) Shop(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "purchases_shop")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	rows, err := h.Svc.ListShop(ctx, userID)
	if err != nil {
		return internalError(l, "purchases_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"purchases": rows})
}

// Count is global unless ?scope=mine is passed.
func (h *PurchaseHandler) Count(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "purchases_count")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	var mine bool
	switch c.QueryParam("scope") {
	case "", "all":
	case "mine":
		mine = true
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "scope must be all or mine")
	}

	n, err := h.Svc.Count(ctx, userID, mine)
	if err != nil {
		return internalError(l, "purchases_count_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"purchaseCount": n})
}

func (h *PurchaseHandler) Buy(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "purchases_buy")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	var req buyRequest
	if err := bindAndValidate(c, l, &req); err != nil {
		return err
	}

	items := make([]purchase.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, purchase.Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	saved, err := h.Svc.Buy(ctx, userID, purchase.BuyInput{
		Items:         items,
		Status:        req.Status,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, purchase.ErrEmptyCart):
			l.Warn("purchase_failed", "status", 400, "reason", "empty_cart")
			return echo.NewHTTPError(http.StatusBadRequest, "No items in the cart")
		case errors.Is(err, purchase.ErrValidation):
			l.Warn("purchase_failed", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, purchase.ErrInsufficientBalance):
			return echo.NewHTTPError(http.StatusBadRequest, "Insufficient balance")
		case errors.Is(err, purchase.ErrUnauthorized):
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		default:
			return internalError(l, "purchase_error", err)
		}
	}

	cart.Clear(c, h.Cookies.Secure)
	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "Purchase saved successfully",
		"purchase": saved,
	})
}

func (h *PurchaseHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dashboard")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	d, err := h.Svc.Dashboard(ctx, userID)
	if err != nil {
		if errors.Is(err, purchase.ErrUnauthorized) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}
		return internalError(l, "dashboard_error", err)
	}
	return c.JSON(http.StatusOK, d)
}
