package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service/catalog"
	"github.com/Skotchmaster/storefront/internal/util"
)

type ProductHandler struct {
	Svc *catalog.Service
}

func productID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func catalogError(c echo.Context, event string, err error) error {
	l := logging.FromContext(c.Request().Context())
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	case errors.Is(err, catalog.ErrValidation):
		l.Warn(event, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return internalError(l, event, err)
	}
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	p, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return catalogError(c, "product_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Svc.List(c.Request().Context(), page, size)
	if err != nil {
		return catalogError(c, "products_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product_create")

	var req productRequest
	if err := bindAndValidate(c, l, &req); err != nil {
		return err
	}
	p, err := h.Svc.Create(ctx, &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Stock:       req.Stock,
	})
	if err != nil {
		return catalogError(c, "product_create_failed", err)
	}
	l.Info("product_created", "status", 201, "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product_patch")

	id, err := productID(c)
	if err != nil {
		return err
	}
	var req productPatchRequest
	if err := bindAndValidate(c, l, &req); err != nil {
		return err
	}
	p, err := h.Svc.Patch(ctx, id, repo.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Stock:       req.Stock,
	})
	if err != nil {
		return catalogError(c, "product_patch_failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return catalogError(c, "product_delete_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
