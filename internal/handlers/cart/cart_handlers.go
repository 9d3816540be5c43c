package cart

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service/catalog"
)

const maxLineQuantity = 99

type CartHandler struct {
	Catalog *catalog.Service
	Secure  bool
}

type addRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"omitempty,min=1,max=99"`
}

type response struct {
	Items []Item          `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func (h *CartHandler) reply(c echo.Context, items []Item) error {
	if err := Write(c, items, h.Secure); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot store the cart")
	}
	return c.JSON(http.StatusOK, response{Items: items, Total: Total(items)})
}

func itemID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func (h *CartHandler) GetCart(c echo.Context) error {
	items := Read(c)
	return c.JSON(http.StatusOK, response{Items: items, Total: Total(items)})
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "cart_add")

	var req addRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "product_id is required and quantity must be between 1 and 99")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	p, err := h.Catalog.Get(c.Request().Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			l.Warn("cart_add_failed", "status", 404, "product_id", req.ProductID)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("cart_add_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	items := Add(Read(c), p, req.Quantity)
	for _, it := range items {
		if it.ID == p.ID && it.Quantity > maxLineQuantity {
			return echo.NewHTTPError(http.StatusBadRequest, "too many units of one product")
		}
	}
	return h.reply(c, items)
}

func (h *CartHandler) DeleteOneFromCart(c echo.Context) error {
	id, err := itemID(c)
	if err != nil {
		return err
	}
	items, ok := RemoveOne(Read(c), id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "item not found")
	}
	return h.reply(c, items)
}

func (h *CartHandler) DeleteAllFromCart(c echo.Context) error {
	id, err := itemID(c)
	if err != nil {
		return err
	}
	items, ok := RemoveAll(Read(c), id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "item not found")
	}
	return h.reply(c, items)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	Clear(c, h.Secure)
	return c.JSON(http.StatusOK, response{Items: []Item{}, Total: decimal.Zero})
}
