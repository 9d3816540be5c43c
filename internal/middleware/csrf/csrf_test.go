package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer() *echo.Echo {
	e := echo.New()
	e.Use(Middleware(DefaultConfig()))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/api/user", ok)
	e.POST("/api/purchases/buy", ok)
	e.GET("/health/live", ok)
	return e
}

func TestCSRF_IssuesTokenOnSafeRequests(t *testing.T) {
	t.Parallel()

	e := newServer()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	token := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "XSRF-TOKEN", cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.False(t, cookies[0].HttpOnly)
}

func TestCSRF_UnsafeRequests(t *testing.T) {
	t.Parallel()

	e := newServer()
	post := func(origin, header string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/purchases/buy", nil)
		req.Host = "shop.test"
		req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		if header != "" {
			req.Header.Set("X-CSRF-Token", header)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, post("http://shop.test", "tok"))
	assert.Equal(t, http.StatusForbidden, post("http://shop.test", ""))
	assert.Equal(t, http.StatusForbidden, post("http://shop.test", "other"))
	assert.Equal(t, http.StatusForbidden, post("http://evil.test", "tok"))
	assert.Equal(t, http.StatusForbidden, post("", "tok"))
}

func TestCSRF_SkipsHealth(t *testing.T) {
	t.Parallel()

	e := newServer()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}
