package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service/auth"
)

type AuthHandler struct {
	Svc     *auth.Service
	Cookies CookieOptions
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req registerRequest
	if err := bindAndValidate(c, l, &req); err != nil {
		return err
	}

	user, err := h.Svc.Register(ctx, auth.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Lastname:   req.Lastname,
		Phone:      req.Phone,
		Postalcode: req.Postalcode,
		Direction:  req.Direction,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			l.Warn("register_failed", "status", 400, "reason", "user_exists")
			return echo.NewHTTPError(http.StatusBadRequest, "User already exists")
		case errors.Is(err, auth.ErrValidation):
			l.Warn("register_failed", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return internalError(l, "register_error", err)
		}
	}

	l.Info("register_success", "status", 201, "user_id", user.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req loginRequest
	if err := bindAndValidate(c, l, &req); err != nil {
		return err
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password, auth.SessionMeta{
		UserAgent: c.Request().UserAgent(),
		IP:        c.RealIP(),
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			l.Warn("login_failed", "status", 400, "reason", "invalid_credentials")
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid email or password")
		}
		return internalError(l, "login_error", err)
	}

	c.SetCookie(h.Cookies.Access(res.Access.Token))
	c.SetCookie(h.Cookies.Refresh(res.Refresh.Token))

	l.Info("login_success", "status", 200, "user_id", res.User.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"token":   res.Access.Token,
		"user":    userSummary{Name: res.User.Name, Email: res.User.Email},
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	ck, err := c.Cookie(authmw.CookieRefresh)
	if err != nil || ck.Value == "" {
		l.Warn("logout_failed", "status", 400, "reason", "no refresh cookie")
		return echo.NewHTTPError(http.StatusBadRequest, "Refresh token not provided")
	}
	if err := h.Svc.Logout(ctx, ck.Value); err != nil {
		return internalError(l, "logout_error", err)
	}

	c.SetCookie(h.Cookies.expired(authmw.CookieAccess))
	c.SetCookie(h.Cookies.expired(authmw.CookieRefresh))
	l.Info("logout_success", "status", 200)
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	ck, err := c.Cookie(authmw.CookieRefresh)
	if err != nil || ck.Value == "" {
		l.Warn("refresh_failed", "status", 400, "reason", "no refresh cookie")
		return echo.NewHTTPError(http.StatusBadRequest, "Refresh token not provided")
	}

	access, err := h.Svc.Refresh(ctx, ck.Value)
	if err != nil {
		if errors.Is(err, auth.ErrRefreshTokenMismatch) {
			l.Warn("refresh_failed", "status", 401, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
		}
		return internalError(l, "refresh_error", err)
	}

	c.SetCookie(h.Cookies.Access(access.Token))
	l.Info("refresh_success", "status", 200)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Token refreshed",
		"token":   access.Token,
	})
}

// Verify reports whether the access cookie is currently valid.
func (h *AuthHandler) Verify(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_verify")

	ck, err := c.Cookie(authmw.CookieAccess)
	if err != nil || ck.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"valid": false, "message": "Access token not provided"})
	}
	claims, err := h.Svc.Verify(ck.Value)
	if err != nil {
		l.Warn("verify_failed", "status", 401, "error", err)
		return c.JSON(http.StatusUnauthorized, echo.Map{"valid": false, "message": "Invalid token"})
	}
	return c.JSON(http.StatusOK, echo.Map{"valid": true, "user": claims})
}
