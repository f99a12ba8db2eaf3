package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/hfiuc/facility-portal/internal/config"
	"github.com/hfiuc/facility-portal/internal/handler"
	"github.com/hfiuc/facility-portal/internal/middleware"
)

// Handlers bundles the handler set wired by main so RegisterAll stays a
// single call site.
type Handlers struct {
	Auth          *handler.AuthHandler
	Bookings      *handler.BookingHandler
	Announcements *handler.AnnouncementHandler
	Repairs       *handler.RepairHandler
	LostFound     *handler.LostFoundHandler
	Classrooms    *handler.ClassroomHandler
	Misc          *handler.MiscHandler
}

// RegisterAll registers every route of the portal.  Public endpoints live
// under /api/v1; admin endpoints under /api/v1/admin behind JWT + role
// middleware.  When rdb is non-nil the public read endpoints additionally
// get Redis response caching and every API route gets rate limiting.
func RegisterAll(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limiter := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if rdb != nil {
		limiter = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	}

	pub := e.Group("/api/v1")
	pub.Use(limiter)

	// Cached public reads.  The cache only ever holds GET responses, so
	// writes on the same paths pass straight through.
	cached := func(hf echo.HandlerFunc) echo.HandlerFunc { return hf }
	if rdb != nil {
		cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
		cached = func(hf echo.HandlerFunc) echo.HandlerFunc { return cacheMW(hf) }
	}

	// Booking submission and lookup.
	pub.POST("/bookings", h.Bookings.Submit)
	pub.GET("/bookings", h.Bookings.Inquiry)
	pub.GET("/bookings/token-action", h.Bookings.TokenAction)

	// Portal content.
	pub.GET("/announcements", cached(h.Announcements.List))
	pub.GET("/classrooms/blocked", cached(h.Classrooms.List))

	// Repairs.
	pub.POST("/repairs", h.Repairs.Submit)
	pub.GET("/repairs", h.Repairs.Mine)

	// Lost & found.
	pub.POST("/lost-found", h.LostFound.Create)
	pub.GET("/lost-found", cached(h.LostFound.List))
	pub.POST("/lost-found/:id/clues", h.LostFound.AddClue)
	pub.GET("/lost-found/:id/clues", h.LostFound.ListClues)

	// Visit counter and client error drop box.
	pub.POST("/visits", h.Misc.Visit)
	pub.GET("/visits", h.Misc.Visits)
	pub.POST("/client-errors", h.Misc.ReportError)

	// Staff session endpoints.
	authg := e.Group("/api/v1/auth")
	authg.POST("/login", h.Auth.Login)
	authg.POST("/refresh", h.Auth.Refresh)

	// Admin console.  STAFF accounts can read; mutations require ADMIN.
	// Admin routes rate-limit after JWTAuth so the bucket keys on the
	// verified staff email instead of the address alone.
	admin := e.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuth(cfg.JWTSecret))
	admin.Use(limiter)
	admin.Use(middleware.RequireRole("ADMIN", "STAFF"))
	admin.GET("/me", h.Auth.Me)
	admin.POST("/logout", h.Auth.Logout)
	admin.GET("/bookings/unmanaged", h.Bookings.ListUnmanaged)
	admin.GET("/bookings/audit", h.Bookings.AuditLog)
	admin.GET("/repairs", h.Repairs.List)
	admin.GET("/client-errors", h.Misc.ListErrors)

	mut := e.Group("/api/v1/admin")
	mut.Use(middleware.JWTAuth(cfg.JWTSecret))
	mut.Use(limiter)
	mut.Use(middleware.RequireRole("ADMIN"))
	mut.POST("/register", h.Auth.Register)
	mut.POST("/bookings/:id/accept", h.Bookings.Accept)
	mut.POST("/bookings/:id/reject", h.Bookings.Reject)
	mut.POST("/announcements", h.Announcements.Create)
	mut.PUT("/announcements/:id", h.Announcements.Update)
	mut.DELETE("/announcements/:id", h.Announcements.Delete)
	mut.POST("/repairs/:id/process", h.Repairs.Process)
	mut.POST("/lost-found/:id/status", h.LostFound.UpdateStatus)
	mut.POST("/classrooms", h.Classrooms.Create)
	mut.POST("/classrooms/:id/active", h.Classrooms.SetActive)
	mut.DELETE("/classrooms/:id", h.Classrooms.Delete)
}
