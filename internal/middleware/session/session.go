package session

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

// Config describes which page routes need a session and which are for guests only.
type Config struct {
	CookieName        string
	ProtectedPrefixes []string
	AuthOnlyPaths     []string
	LoginPath         string
	LandingPath       string
}

func DefaultConfig() Config {
	return Config{
		CookieName:        "accessToken",
		ProtectedPrefixes: []string{"/account", "/checkout", "/dashboard"},
		AuthOnlyPaths:     []string{"/login", "/register"},
		LoginPath:         "/login",
		LandingPath:       "/dashboard",
	}
}

// Middleware gates page navigation before anything is rendered. It only checks that
// the cookie looks like a JWT; API handlers verify the signature themselves.
func Middleware(cfg Config) echo.MiddlewareFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultConfig().CookieName
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			authenticated := false
			if ck, err := c.Cookie(cfg.CookieName); err == nil {
				authenticated = LooksLikeJWT(ck.Value)
			}

			if !authenticated && matchAny(path, cfg.ProtectedPrefixes) {
				q := url.Values{"from": {path}}
				return c.Redirect(http.StatusFound, cfg.LoginPath+"?"+q.Encode())
			}
			if authenticated && matchAny(path, cfg.AuthOnlyPaths) {
				return c.Redirect(http.StatusFound, cfg.LandingPath)
			}
			return next(c)
		}
	}
}

// LooksLikeJWT reports whether v has three non-empty dot separated segments.
func LooksLikeJWT(v string) bool {
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// matchAny matches whole path segments, so /accounting is not under /account.
func matchAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
