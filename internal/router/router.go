// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/labconnect/medtest-booking/internal/config"
	"github.com/labconnect/medtest-booking/internal/handler"
	"github.com/labconnect/medtest-booking/internal/middleware"
)

// Handlers are the route targets.
type Handlers struct {
	Health     echo.HandlerFunc
	Catalog    *handler.CatalogHandler
	Bookings   *handler.BookingHandler
	Superadmin *handler.SuperadminHandler
}

// Options carry what the middleware needs.  A nil Redis client disables
// caching and rate limiting.
type Options struct {
	JWTSecret string
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
	Log       zerolog.Logger
}

// New builds the echo instance with global middleware and every route.
func New(h Handlers, o Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(o.Log))

	RegisterRoutes(e, h.Health)
	limiter := middleware.RateLimit(o.RateLimit, o.Redis, o.Log)
	RegisterPublic(e, h.Catalog, limiter, middleware.ResponseCache(o.Cache, o.Redis))
	RegisterUser(e, h.Bookings, o.JWTSecret, limiter)
	RegisterSuperadmin(e, h.Superadmin, o.JWTSecret, limiter)
	return e
}

// RegisterRoutes registers the unauthenticated health check.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/healthz", health)
}

// RegisterPublic registers the catalog browse routes.  Only these are
// response cached.
func RegisterPublic(e *echo.Echo, c *handler.CatalogHandler, limiter, cache echo.MiddlewareFunc) {
	g := e.Group("/api/v1/centres", limiter, cache)
	g.GET("", c.ListCentres)
	g.GET("/:id/tests", c.ListCentreTests)
}

// RegisterUser registers the booking routes for role USER.
func RegisterUser(e *echo.Echo, b *handler.BookingHandler, secret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/v1/bookings",
		middleware.JWTAuth(secret),
		middleware.RequireRole(middleware.RoleUser),
		limiter,
	)
	g.POST("", b.Create)
	g.POST("/summary", b.Summary)
	g.GET("", b.List)
	g.GET("/:id", b.Get)
}

// RegisterSuperadmin registers the order management routes for role
// SUPERADMIN.
func RegisterSuperadmin(e *echo.Echo, s *handler.SuperadminHandler, secret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/v1/superadmin",
		middleware.JWTAuth(secret),
		middleware.RequireRole(middleware.RoleSuperadmin),
		limiter,
	)
	g.GET("/orders", s.ListOrders)
	g.GET("/orders/:id", s.GetOrder)
	g.PATCH("/orders/:booking_id/status", s.AdvanceStatus)
}
