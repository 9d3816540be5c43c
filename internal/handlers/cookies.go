package handlers

import (
	"net/http"
	"time"

	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
)

// CookieOptions controls the auth cookies. Secure is on in production.
type CookieOptions struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (o CookieOptions) create(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (o CookieOptions) Access(token string) *http.Cookie {
	return o.create(authmw.CookieAccess, token, o.AccessTTL)
}

func (o CookieOptions) Refresh(token string) *http.Cookie {
	return o.create(authmw.CookieRefresh, token, o.RefreshTTL)
}

func (o CookieOptions) expired(name string) *http.Cookie {
	ck := o.create(name, "", 0)
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0)
	return ck
}
