package httpserver

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/handlers"
	"github.com/Skotchmaster/storefront/internal/handlers/cart"
	"github.com/Skotchmaster/storefront/internal/metrics"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/internal/middleware/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/ratelimit"
	"github.com/Skotchmaster/storefront/internal/middleware/session"
	"github.com/Skotchmaster/storefront/internal/service/auth"
	"github.com/Skotchmaster/storefront/internal/service/catalog"
	"github.com/Skotchmaster/storefront/internal/service/purchase"
	"github.com/Skotchmaster/storefront/internal/tokens"
	"github.com/Skotchmaster/storefront/internal/validation"
)

type Deps struct {
	Logger *slog.Logger
	DB     *gorm.DB
	Tokens *tokens.Manager

	Auth      *auth.Service
	Purchases *purchase.Service
	Catalog   *catalog.Service

	Metrics      *metrics.Metrics
	LoginLimiter *ratelimit.Limiter
	Cookies      handlers.CookieOptions
	Session      session.Config

	CSRF        bool
	CORSOrigins []string
	WebDir      string
}

// New builds the echo instance with the middleware stack and all routes.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		loggingmw.RequestLogger(d.Logger),
	)
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "same-origin",
	}))
	if len(d.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     d.CORSOrigins,
			AllowCredentials: true,
		}))
	}
	e.Use(session.Middleware(d.Session))
	if d.CSRF {
		cfg := csrf.DefaultConfig()
		cfg.Secure = d.Cookies.Secure
		e.Use(csrf.Middleware(cfg))
	}
	if d.WebDir != "" {
		e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
			Root:  d.WebDir,
			HTML5: true,
			Skipper: func(c echo.Context) bool {
				return strings.HasPrefix(c.Request().URL.Path, "/api/")
			},
		}))
	}

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	health := &handlers.HealthHandler{DB: d.DB}
	authH := &handlers.AuthHandler{Svc: d.Auth, Cookies: d.Cookies}
	account := &handlers.AccountHandler{Svc: d.Auth}
	purchases := &handlers.PurchaseHandler{Svc: d.Purchases, Cookies: d.Cookies}
	products := &handlers.ProductHandler{Svc: d.Catalog}
	search := &handlers.SearchHandler{Svc: d.Catalog}
	carts := &cart.CartHandler{Catalog: d.Catalog, Secure: d.Cookies.Secure}

	e.GET("/health/live", health.Live)
	e.GET("/health/ready", health.Ready)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	api := e.Group("/api")

	var limited []echo.MiddlewareFunc
	if d.LoginLimiter != nil {
		limited = append(limited, d.LoginLimiter.Middleware())
	}
	api.POST("/register", authH.Register, limited...)
	api.POST("/login", authH.Login, limited...)
	api.POST("/logout", authH.Logout)
	api.POST("/refresh", authH.Refresh)
	api.POST("/verify", authH.Verify)

	api.GET("/products", products.GetProducts)
	api.GET("/products/:id", products.GetProduct)
	api.GET("/search", search.Search)

	api.GET("/cart", carts.GetCart)
	api.POST("/cart", carts.AddToCart)
	api.DELETE("/cart", carts.ClearCart)
	api.DELETE("/cart/:id", carts.DeleteOneFromCart)
	api.DELETE("/cart/:id/all", carts.DeleteAllFromCart)

	requireLogin := authmw.RequireLogin(d.Tokens)
	api.GET("/user", account.User, requireLogin)
	api.GET("/balance", account.Balance, requireLogin)
	api.GET("/purchases", purchases.List, requireLogin)
	api.GET("/purchases/shop", purchases.Shop, requireLogin)
	api.GET("/purchases/count", purchases.Count, requireLogin)
	api.POST("/purchases/buy", purchases.Buy, requireLogin)
	api.GET("/dashboard", purchases.Dashboard, requireLogin)

	admin := []echo.MiddlewareFunc{requireLogin, authmw.RequireAdmin}
	api.POST("/admin/products", products.CreateProduct, admin...)
	api.PATCH("/admin/products/:id", products.PatchProduct, admin...)
	api.DELETE("/admin/products/:id", products.DeleteProduct, admin...)
	api.POST("/admin/users/:id/credit", account.Credit, admin...)
}
