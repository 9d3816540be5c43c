package auth

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

const (
	CookieAccess  = "accessToken"
	CookieRefresh = "refreshToken"

	claimsKey = "claims"
)

// RequireLogin verifies the accessToken cookie and stores its claims in the context.
// Only the cookie is consulted; Authorization headers are ignored.
func RequireLogin(m *tokens.Manager) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "cookie:" + CookieAccess,
		ContextKey:  claimsKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return m.ParseAccess(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logging.FromContext(c.Request().Context()).
				Warn("auth_rejected", "status", 401, "reason", "missing or invalid access token", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		},
	})
}

func Claims(c echo.Context) (*tokens.AccessClaims, bool) {
	claims, ok := c.Get(claimsKey).(*tokens.AccessClaims)
	return claims, ok && claims != nil
}

// UserID is the verified caller; handlers behind RequireLogin can rely on it.
func UserID(c echo.Context) (uint, error) {
	claims, ok := Claims(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return claims.UserID, nil
}

// SetClaims is used by tests that call handlers directly.
func SetClaims(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(claimsKey, claims)
}
